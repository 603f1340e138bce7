package keygraph_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/keygraph"
	"github.com/hupe1980/keygraph/blobstore"
	"github.com/hupe1980/keygraph/checkpoint"
	"github.com/hupe1980/keygraph/codec"
	"github.com/hupe1980/keygraph/extract"
	"github.com/hupe1980/keygraph/graph"
	"github.com/hupe1980/keygraph/internal/resource"
	"github.com/hupe1980/keygraph/matcher"
	"github.com/hupe1980/keygraph/model"
	"github.com/hupe1980/keygraph/testutil"
)

// replayFrame holds precomputed descriptor rows.
type replayFrame struct{ rows [][]byte }

func (replayFrame) Close() error { return nil }

type replaySource struct {
	frames [][][]byte
	pos    int
}

func (s *replaySource) Next(context.Context) (extract.Frame, error) {
	if s.pos == len(s.frames) {
		return nil, io.EOF
	}
	f := replayFrame{rows: s.frames[s.pos]}
	s.pos++
	return f, nil
}

func (s *replaySource) Close() error { return nil }

type replayDetector struct{ rng *testutil.RNG }

func (d replayDetector) Detect(f extract.Frame) ([]model.Keypoint, *model.DescriptorMatrix, error) {
	rows := f.(replayFrame).rows
	kps := make([]model.Keypoint, len(rows))
	m := model.NewMatrix(model.KindBinary, 32)
	for i, row := range rows {
		kps[i] = d.rng.Keypoint()
		if _, _, err := m.AppendBinary(32, row); err != nil {
			return nil, nil, err
		}
	}
	return kps, m, nil
}

// trackScene returns frames where a fixed point set drifts by a few bits per frame.
func trackScene(rng *testutil.RNG, points, frames int) [][][]byte {
	base := make([][]byte, points)
	for i := range base {
		base[i] = rng.BinaryDescriptor(32)
	}
	out := make([][][]byte, frames)
	for f := range out {
		out[f] = make([][]byte, points)
		for i, d := range base {
			out[f][i] = testutil.FlipBits(d, f%3)
		}
	}
	return out
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(7)
	metrics := &keygraph.BasicMetricsCollector{}

	kg := keygraph.New(blobstore.NewMemoryStore(),
		keygraph.WithMetricsCollector(metrics),
		keygraph.WithCheckpointCompression(checkpoint.CompressionZSTD),
		keygraph.WithCodec(codec.GoJSON{}),
	)

	snap, err := kg.Extract(ctx, &replaySource{frames: trackScene(rng, 20, 5)}, replayDetector{rng: rng})
	require.NoError(t, err)
	assert.Equal(t, 100, snap.Rows())

	name, err := kg.SaveCheckpoint(ctx, snap)
	require.NoError(t, err)

	resolved, g, stats, err := kg.Build(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, name, resolved)
	assert.Equal(t, 5, g.NumFrames())
	assert.Equal(t, 20, g.NumLandmarks())
	assert.Equal(t, 80, stats.Merged)

	data, err := kg.Summarize(g)
	require.NoError(t, err)
	var sum graph.Summary
	require.NoError(t, json.Unmarshal(data, &sum))
	assert.Equal(t, 20, sum.Landmarks)
	assert.Equal(t, 5, sum.MaxTrackLength)

	names, err := kg.Checkpoints(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{name}, names)

	s := metrics.GetStats()
	assert.Equal(t, int64(1), s.ExtractCount)
	assert.Equal(t, int64(100), s.ExtractDetections)
	assert.Equal(t, int64(1), s.SaveCount)
	assert.Positive(t, s.SaveBytes)
	assert.Equal(t, int64(1), s.LoadCount)
	assert.Equal(t, int64(1), s.MatchCount)
	assert.Equal(t, int64(20), s.MatchLandmarks)
}

func TestInspect(t *testing.T) {
	ctx := context.Background()
	kg := keygraph.New(blobstore.NewMemoryStore(), keygraph.WithCheckpointEncoding(checkpoint.EncodingTagged))

	snap := testutil.NewRNG(3).RandomBinarySnapshot(4, 6, 32)
	name, err := kg.SaveCheckpoint(ctx, snap)
	require.NoError(t, err)

	info, err := kg.Inspect(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, name, info.Name)
	assert.Equal(t, "tagged", info.Encoding)
	assert.Equal(t, "none", info.Compression)
	assert.Equal(t, 4, info.Frames)
	assert.Equal(t, snap.NumDetections(), info.Detections)
	assert.Equal(t, snap.Rows(), info.Rows)
	assert.Equal(t, 32, info.Cols)
	assert.Equal(t, "binary", info.Kind)
	assert.Positive(t, info.Size)
}

func TestMatchOptions(t *testing.T) {
	ctx := context.Background()
	d := testutil.NewRNG(1).BinaryDescriptor(32)
	snap := testutil.BinarySnapshot(32, [][]byte{d}, [][]byte{testutil.FlipBits(d, 12)})

	t.Run("Default", func(t *testing.T) {
		g, _, err := keygraph.New(blobstore.NewMemoryStore()).Match(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, 2, g.NumLandmarks())
	})

	t.Run("Relaxed", func(t *testing.T) {
		kg := keygraph.New(blobstore.NewMemoryStore(), keygraph.WithMatchOptions(matcher.WithMaxDistance(12)))
		g, _, err := kg.Match(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, 1, g.NumLandmarks())
	})

	t.Run("Invalid", func(t *testing.T) {
		kg := keygraph.New(blobstore.NewMemoryStore(), keygraph.WithMatchOptions(matcher.WithMaxDistance(-1)))
		_, _, err := kg.Match(ctx, snap)
		require.ErrorIs(t, err, keygraph.ErrInvalidOptions)
	})
}

func TestErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("NoCheckpoint", func(t *testing.T) {
		kg := keygraph.New(blobstore.NewMemoryStore())
		_, _, err := kg.LoadCheckpoint(ctx, "")
		require.ErrorIs(t, err, keygraph.ErrNotFound)
	})

	t.Run("MissingName", func(t *testing.T) {
		kg := keygraph.New(blobstore.NewMemoryStore())
		_, _, err := kg.LoadCheckpoint(ctx, "checkpoints/missing.kgc")
		require.ErrorIs(t, err, keygraph.ErrNotFound)
	})

	t.Run("Corrupt", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, store.Put(ctx, "checkpoints/bad.kgc", []byte("definitely not a checkpoint")))

		_, _, err := keygraph.New(store).LoadCheckpoint(ctx, "checkpoints/bad.kgc")
		require.ErrorIs(t, err, keygraph.ErrCorruptCheckpoint)
		assert.True(t, keygraph.IsDataError(err))
	})

	t.Run("InvalidSnapshot", func(t *testing.T) {
		snap := testutil.NewRNG(2).RandomBinarySnapshot(3, 4, 32)
		snap.Frames[1].Start++

		kg := keygraph.New(blobstore.NewMemoryStore())
		_, err := kg.SaveCheckpoint(ctx, snap)
		require.ErrorIs(t, err, keygraph.ErrInvalidSnapshot)

		_, _, err = kg.Match(ctx, snap)
		require.ErrorIs(t, err, keygraph.ErrInvalidSnapshot)
		assert.True(t, keygraph.IsDataError(err))
	})

	t.Run("MemoryLimit", func(t *testing.T) {
		rng := testutil.NewRNG(4)
		kg := keygraph.New(blobstore.NewMemoryStore(),
			keygraph.WithResources(resource.NewController(resource.Config{MemoryLimitBytes: 64})))

		_, err := kg.Extract(ctx, &replaySource{frames: trackScene(rng, 10, 3)}, replayDetector{rng: rng})
		require.ErrorIs(t, err, keygraph.ErrMemoryLimitExceeded)
		assert.False(t, keygraph.IsDataError(err))
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := keygraph.NewJSONLogger(&buf, slog.LevelInfo).WithRun("r1")

	logger.LogCheckpoint(context.Background(), "saved", "checkpoints/a.kgc", nil)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "checkpoint saved", rec["msg"])
	assert.Equal(t, "r1", rec["run"])
	assert.Equal(t, "checkpoints/a.kgc", rec["checkpoint"])

	// Noop logger drops everything.
	keygraph.NoopLogger().LogMatch(context.Background(), 1, 1, 0, 0, nil)
}
