package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/keygraph/internal/conv"
	"github.com/hupe1980/keygraph/internal/resource"
	"github.com/hupe1980/keygraph/model"
)

var (
	// ErrMemoryLimitExceeded is returned when the descriptor matrix outgrows the memory budget.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
	// ErrDetectionMismatch is returned when a detector reports a different number
	// of keypoints and descriptor rows.
	ErrDetectionMismatch = errors.New("extract: keypoint and descriptor counts differ")
)

// Frame is a decoded image passed from a FrameSource to a Detector.
type Frame interface {
	// Close releases the frame's pixel buffer.
	Close() error
}

// FrameSource yields frames in capture order.
type FrameSource interface {
	// Next returns the next frame, or io.EOF when the source is exhausted.
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Detector finds keypoints in a frame and computes one descriptor row per keypoint.
// An empty result may return a nil matrix.
type Detector interface {
	Detect(frame Frame) ([]model.Keypoint, *model.DescriptorMatrix, error)
}

// Options configures an Extractor.
type Options struct {
	// MaxFrames stops after this many frames. 0 reads the whole source.
	MaxFrames int
	// Kind is the matrix kind used when no frame produced any descriptor.
	Kind model.Kind
	// Resources bounds the memory held by the descriptor matrix of one run.
	Resources *resource.Controller
	Logger    *slog.Logger
}

// WithMaxFrames limits the number of frames read.
func WithMaxFrames(n int) func(o *Options) {
	return func(o *Options) { o.MaxFrames = n }
}

// WithKind sets the kind of an empty matrix.
func WithKind(k model.Kind) func(o *Options) {
	return func(o *Options) { o.Kind = k }
}

// WithResources enforces the memory budget of rc.
func WithResources(rc *resource.Controller) func(o *Options) {
	return func(o *Options) { o.Resources = rc }
}

// WithLogger sets the logger for per-frame progress.
func WithLogger(l *slog.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Stats summarizes one run.
type Stats struct {
	Frames     int
	Detections int
	Bytes      int64
	Elapsed    time.Duration
}

// Extractor runs a Detector over a FrameSource.
type Extractor struct {
	detector Detector
	opts     Options
}

// New creates an Extractor.
func New(detector Detector, optFns ...func(o *Options)) *Extractor {
	opts := Options{Kind: model.KindBinary}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{detector: detector, opts: opts}
}

// Run reads src until io.EOF or MaxFrames and returns the snapshot.
// The source is not closed.
func (e *Extractor) Run(ctx context.Context, src FrameSource) (*model.Snapshot, Stats, error) {
	start := time.Now()
	var (
		stats    Stats
		m        *model.DescriptorMatrix
		frames   []model.FrameRecord
		reserved int64
	)
	// The budget covers the matrix while it is built; the caller owns it afterwards.
	defer func() { e.opts.Resources.ReleaseMemory(reserved) }()

	for seq := uint64(0); e.opts.MaxFrames <= 0 || seq < uint64(e.opts.MaxFrames); seq++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("extract: read frame %d: %w", seq, err)
		}

		kps, desc, err := e.detector.Detect(frame)
		closeErr := frame.Close()
		if err != nil {
			return nil, stats, fmt.Errorf("extract: detect frame %d: %w", seq, err)
		}
		if closeErr != nil {
			return nil, stats, fmt.Errorf("extract: close frame %d: %w", seq, closeErr)
		}

		rows := 0
		if desc != nil {
			rows = desc.Rows()
		}
		if rows != len(kps) {
			return nil, stats, fmt.Errorf("%w: frame %d has %d keypoints and %d rows", ErrDetectionMismatch, seq, len(kps), rows)
		}

		if rows > 0 {
			size := desc.SizeBytes()
			if err := e.opts.Resources.AcquireMemory(size); err != nil {
				return nil, stats, fmt.Errorf("extract: frame %d needs %d bytes (%d of %d in use): %w",
					seq, size, e.opts.Resources.MemoryUsage(), e.opts.Resources.MemoryLimit(), err)
			}
			reserved += size

			if m == nil {
				m = model.NewMatrix(desc.Kind(), desc.Cols())
			}
			if _, _, err := m.Append(desc); err != nil {
				return nil, stats, fmt.Errorf("extract: frame %d: %w", seq, err)
			}
		}

		var first int32
		if n := len(frames); n > 0 {
			first = frames[n-1].End
		}
		last, err := conv.IntToInt32(int(first) + rows)
		if err != nil {
			return nil, stats, fmt.Errorf("extract: frame %d: row range: %w", seq, err)
		}
		frames = append(frames, model.FrameRecord{
			Seq:       seq,
			Keypoints: kps,
			Start:     first,
			End:       last,
		})
		stats.Frames++
		stats.Detections += rows

		e.opts.Logger.Debug("frame extracted",
			slog.Uint64("seq", seq),
			slog.Int("detections", rows),
			slog.Int("total_rows", stats.Detections),
		)
	}

	if m == nil && len(frames) > 0 {
		m = model.NewMatrix(e.opts.Kind, 0)
	}
	snap := &model.Snapshot{Descriptors: m, Frames: frames}
	if err := snap.Validate(); err != nil {
		return nil, stats, fmt.Errorf("extract: %w", err)
	}

	stats.Bytes = reserved
	stats.Elapsed = time.Since(start)
	return snap, stats, nil
}

// Run is a convenience wrapper around New(detector, optFns...).Run.
func Run(ctx context.Context, src FrameSource, detector Detector, optFns ...func(o *Options)) (*model.Snapshot, Stats, error) {
	return New(detector, optFns...).Run(ctx, src)
}
