package keygraph

import (
	"context"
	"time"

	"github.com/hupe1980/keygraph/blobstore"
	"github.com/hupe1980/keygraph/checkpoint"
	"github.com/hupe1980/keygraph/extract"
	"github.com/hupe1980/keygraph/graph"
	"github.com/hupe1980/keygraph/matcher"
	"github.com/hupe1980/keygraph/model"
)

// KeyGraph ties extraction, checkpoint storage and matching together.
// It is safe for concurrent use when the blob store is.
type KeyGraph struct {
	store *checkpoint.Store
	opts  options
}

// New creates a KeyGraph persisting checkpoints in blobs.
func New(blobs blobstore.BlobStore, optFns ...Option) *KeyGraph {
	opts := applyOptions(optFns)
	store := checkpoint.NewStore(blobs,
		checkpoint.WithStoreEncoding(opts.encoding),
		checkpoint.WithStoreCompression(opts.compression),
		checkpoint.WithResources(opts.resources),
	)
	return &KeyGraph{store: store, opts: opts}
}

// Store returns the checkpoint store.
func (kg *KeyGraph) Store() *checkpoint.Store { return kg.store }

// Logger returns the configured logger.
func (kg *KeyGraph) Logger() *Logger { return kg.opts.logger }

// Extract runs src through det and returns the validated snapshot.
// Nothing is persisted; see SaveCheckpoint.
func (kg *KeyGraph) Extract(ctx context.Context, src extract.FrameSource, det extract.Detector) (*model.Snapshot, error) {
	optFns := append([]func(*extract.Options){
		extract.WithResources(kg.opts.resources),
		extract.WithLogger(kg.opts.logger.Logger),
	}, kg.opts.extractOptions...)

	snap, stats, err := extract.New(det, optFns...).Run(ctx, src)
	kg.opts.metricsCollector.RecordExtract(stats.Frames, stats.Detections, stats.Elapsed, err)
	kg.opts.logger.LogExtract(ctx, stats.Frames, stats.Detections, stats.Elapsed, err)
	if err != nil {
		return nil, translateError(err)
	}
	return snap, nil
}

// SaveCheckpoint persists snap and makes it the current checkpoint.
func (kg *KeyGraph) SaveCheckpoint(ctx context.Context, snap *model.Snapshot) (string, error) {
	start := time.Now()
	name, err := kg.store.Save(ctx, snap)

	var size int64
	if err == nil {
		if info, statErr := kg.store.Stat(ctx, name); statErr == nil {
			size = info.Size
		}
	}
	kg.opts.metricsCollector.RecordCheckpointSave(size, time.Since(start), err)
	kg.opts.logger.LogCheckpoint(ctx, "saved", name, err)
	return name, translateError(err)
}

// LoadCheckpoint loads the named checkpoint, or the current one when name is empty.
// It returns the resolved name.
func (kg *KeyGraph) LoadCheckpoint(ctx context.Context, name string) (string, *model.Snapshot, error) {
	start := time.Now()

	var (
		snap *model.Snapshot
		err  error
	)
	if name == "" {
		name, snap, err = kg.store.Latest(ctx)
	} else {
		snap, err = kg.store.Load(ctx, name)
	}
	kg.opts.metricsCollector.RecordCheckpointLoad(time.Since(start), err)
	kg.opts.logger.LogCheckpoint(ctx, "loaded", name, err)
	if err != nil {
		return name, nil, translateError(err)
	}
	return name, snap, nil
}

// Checkpoints lists the stored checkpoints in creation order.
func (kg *KeyGraph) Checkpoints(ctx context.Context) ([]string, error) {
	names, err := kg.store.List(ctx)
	return names, translateError(err)
}

// Match builds the correspondence graph of snap.
func (kg *KeyGraph) Match(ctx context.Context, snap *model.Snapshot) (*graph.Graph, matcher.Stats, error) {
	optFns := append([]func(*matcher.Options){
		matcher.WithLogger(kg.opts.logger.Logger),
	}, kg.opts.matchOptions...)

	g, stats, err := matcher.Match(ctx, snap, optFns...)
	landmarks := 0
	if g != nil {
		landmarks = g.NumLandmarks()
	}
	kg.opts.metricsCollector.RecordMatch(stats.Frames, landmarks, stats.Elapsed, err)
	kg.opts.logger.LogMatch(ctx, stats.Frames, landmarks, stats.Merged, stats.Elapsed, err)
	if err != nil {
		return nil, stats, translateError(err)
	}
	return g, stats, nil
}

// Build loads a checkpoint (the current one when name is empty) and matches it.
func (kg *KeyGraph) Build(ctx context.Context, name string) (string, *graph.Graph, matcher.Stats, error) {
	name, snap, err := kg.LoadCheckpoint(ctx, name)
	if err != nil {
		return name, nil, matcher.Stats{}, err
	}
	g, stats, err := kg.Match(ctx, snap)
	return name, g, stats, err
}

// Summarize encodes the summary of g with the configured codec.
func (kg *KeyGraph) Summarize(g *graph.Graph) ([]byte, error) {
	return kg.opts.codec.Marshal(g.Summary())
}

// Inspection reports the contents of a checkpoint.
type Inspection struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	Encoding    string `json:"encoding"`
	Compression string `json:"compression"`
	Frames      int    `json:"frames"`
	Detections  int    `json:"detections"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	Kind        string `json:"kind"`
}

// Inspect loads a checkpoint (the current one when name is empty) and reports its counts.
func (kg *KeyGraph) Inspect(ctx context.Context, name string) (*Inspection, error) {
	name, snap, err := kg.LoadCheckpoint(ctx, name)
	if err != nil {
		return nil, err
	}
	info, err := kg.store.Stat(ctx, name)
	if err != nil {
		return nil, translateError(err)
	}

	out := &Inspection{
		Name:        name,
		Size:        info.Size,
		Encoding:    info.Header.Encoding.String(),
		Compression: info.Header.Compression.String(),
		Frames:      len(snap.Frames),
		Detections:  snap.NumDetections(),
		Rows:        snap.Rows(),
	}
	if snap.Descriptors != nil {
		out.Cols = snap.Descriptors.Cols()
		out.Kind = snap.Descriptors.Kind().String()
	}
	return out, nil
}

// Encode marshals v with the configured codec.
func (kg *KeyGraph) Encode(v any) ([]byte, error) {
	return kg.opts.codec.Marshal(v)
}
