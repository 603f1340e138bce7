package matcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/keygraph/graph"
	"github.com/hupe1980/keygraph/index"
	"github.com/hupe1980/keygraph/model"
)

// Stats counts how rows were resolved.
type Stats struct {
	Frames int
	Rows   int
	// Merged counts rows that joined the landmark of their match.
	Merged int
	// Created counts landmarks created, by unmatched rows or by forward claims.
	Created int
	// Unmatched counts rows without an accepted match.
	Unmatched int
	// RatioRejected counts matches within MaxDistance that failed the ratio test.
	RatioRejected int
	// Claimed counts rows that inherited a landmark claimed by an earlier frame.
	Claimed int
	Elapsed time.Duration
}

// Matcher builds correspondence graphs.
type Matcher struct {
	opts   Options
	logger *slog.Logger
}

// New creates a matcher.
func New(optFns ...func(o *Options)) (*Matcher, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Matcher{opts: opts, logger: logger}, nil
}

// Options returns the effective options.
func (m *Matcher) Options() Options { return m.opts }

// hit is the search outcome for one row.
type hit struct {
	row      int
	distance float32
	second   float32
	found    bool
	ranked   bool // second is set
}

// Match validates snap and builds its correspondence graph.
// An invalid snapshot returns a *model.ValidationError before any graph work.
// Cancellation aborts between frames and no graph is returned.
// On error the returned Stats cover the work done so far.
func (m *Matcher) Match(ctx context.Context, snap *model.Snapshot) (*graph.Graph, Stats, error) {
	start := time.Now()
	stats := Stats{Frames: len(snap.Frames), Rows: snap.Rows()}
	fail := func(err error) (*graph.Graph, Stats, error) {
		stats.Elapsed = time.Since(start)
		return nil, stats, err
	}
	if err := snap.Validate(); err != nil {
		return fail(err)
	}

	g := graph.New()
	if len(snap.Frames) == 0 {
		stats.Elapsed = time.Since(start)
		return g, stats, nil
	}

	var idxOpts []func(o *index.Options)
	if m.opts.Metric != nil {
		idxOpts = append(idxOpts, index.WithMetric(*m.opts.Metric))
	}
	idx, err := index.New(snap.Descriptors, idxOpts...)
	if err != nil {
		return fail(err)
	}

	k := 1
	if m.opts.RatioTest > 0 {
		k = 2
	}

	rows := newRowMap(snap.Rows())
	n := snap.Rows()
	var hits []hit
	var lms []graph.LandmarkID

	for fi := range snap.Frames {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		rec := &snap.Frames[fi]

		mask := index.NewRangeMask(int(rec.Start), int(rec.End))
		if m.opts.Policy == BackwardOnly {
			mask.AddRange(int(rec.End), n)
		}

		if cap(hits) < rec.Len() {
			hits = make([]hit, rec.Len())
		} else {
			hits = hits[:rec.Len()]
			clear(hits)
		}
		if err := m.search(ctx, idx, rec, mask, k, hits); err != nil {
			return fail(err)
		}

		lms = lms[:0]
		merged, created := 0, 0
		for j := range hits {
			r := int(rec.Start) + j
			lm, how, err := m.resolve(g, snap, fi, rows, r, hits[j])
			if err != nil {
				return fail(err)
			}
			switch how {
			case resolvedMerged:
				stats.Merged++
				merged++
			case resolvedClaimed:
				stats.Claimed++
			case resolvedForward:
				stats.Created++
				created++
			case resolvedRatio:
				stats.RatioRejected++
				fallthrough
			case resolvedNew:
				stats.Unmatched++
				stats.Created++
				created++
			}
			lms = append(lms, lm)
		}

		fid, err := g.AppendFrame(rec.Seq, lms)
		if err != nil {
			return fail(err)
		}
		for _, lm := range lms {
			if err := g.AddOccurrence(lm, fid); err != nil {
				return fail(err)
			}
		}

		m.logger.Debug("frame matched",
			slog.Uint64("seq", rec.Seq),
			slog.Int("detections", rec.Len()),
			slog.Int("merged", merged),
			slog.Int("created", created),
		)
	}

	stats.Elapsed = time.Since(start)
	return g, stats, nil
}

// search fills hits with the best unmasked candidates of every row in rec.
// The index and mask are only read, so rows are searched concurrently.
func (m *Matcher) search(ctx context.Context, idx *index.Flat, rec *model.FrameRecord, mask *index.Mask, k int, hits []hit) error {
	one := func(j int) error {
		res, err := idx.SearchRow(int(rec.Start)+j, k, mask)
		if err != nil {
			return err
		}
		if len(res) > 0 {
			hits[j] = hit{row: int(res[0].Row), distance: res[0].Distance, found: true}
		}
		if len(res) > 1 {
			hits[j].second = res[1].Distance
			hits[j].ranked = true
		}
		return nil
	}

	workers := m.opts.workers()
	if workers == 1 || len(hits) < 2 {
		for j := range hits {
			if err := one(j); err != nil {
				return err
			}
		}
		return nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for j := range hits {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			return one(j)
		})
	}
	return eg.Wait()
}

type resolution int

const (
	resolvedNew resolution = iota
	resolvedMerged
	resolvedClaimed
	resolvedForward
	resolvedRatio
)

// accept applies the distance threshold and the optional ratio test.
func (m *Matcher) accept(h hit) (ok bool, ratioRejected bool) {
	if !h.found || h.distance > m.opts.MaxDistance {
		return false, false
	}
	if m.opts.RatioTest > 0 && h.ranked && h.distance > m.opts.RatioTest*h.second {
		return false, true
	}
	return true, false
}

func (m *Matcher) resolve(g *graph.Graph, snap *model.Snapshot, fi int, rows *rowMap, r int, h hit) (graph.LandmarkID, resolution, error) {
	// A row claimed by an earlier frame's forward match keeps that landmark.
	if lm, ok := rows.get(r); ok {
		return lm, resolvedClaimed, nil
	}

	ok, ratio := m.accept(h)
	if !ok {
		lm := g.NewLandmark(snap.Descriptors.Row(r), r)
		rows.claim(r, lm)
		if ratio {
			return lm, resolvedRatio, nil
		}
		return lm, resolvedNew, nil
	}

	owner, found := snap.FrameOf(h.row)
	if !found || owner == fi {
		return 0, 0, fmt.Errorf("matcher: row %d matched row %d outside the other frames", r, h.row)
	}

	if lm, mapped := rows.get(h.row); mapped {
		rows.claim(r, lm)
		return lm, resolvedMerged, nil
	}

	// Unmapped target: only reachable when later rows are searchable.
	lm := g.NewLandmark(snap.Descriptors.Row(r), r)
	rows.claim(r, lm)
	rows.claim(h.row, lm)
	return lm, resolvedForward, nil
}

// Match builds a graph with a matcher configured by optFns.
func Match(ctx context.Context, snap *model.Snapshot, optFns ...func(o *Options)) (*graph.Graph, Stats, error) {
	m, err := New(optFns...)
	if err != nil {
		return nil, Stats{}, err
	}
	return m.Match(ctx, snap)
}
