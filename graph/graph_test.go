package graph

import (
	"testing"

	"github.com/hupe1980/keygraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func desc(b ...byte) model.Descriptor {
	return model.Descriptor{Kind: model.KindBinary, Bytes: b}
}

func collect(g *Graph, lm LandmarkID) []uint64 {
	var out []uint64
	for f := range g.Occurrences(lm) {
		out = append(out, f.Index)
	}
	return out
}

func TestGraph_Empty(t *testing.T) {
	g := New()
	assert.Zero(t, g.NumFrames())
	assert.Zero(t, g.NumLandmarks())
	for range g.Frames() {
		t.Fatal("empty graph yielded a frame")
	}
	assert.Equal(t, Summary{}, g.Summary())
}

func TestGraph_AppendFrame(t *testing.T) {
	g := New()
	a := g.NewLandmark(desc(1), 0)
	b := g.NewLandmark(desc(2), 1)

	f0, err := g.AppendFrame(10, []LandmarkID{a, b})
	require.NoError(t, err)
	assert.Equal(t, FrameID(0), f0)

	tests := []struct {
		name  string
		index uint64
		lms   []LandmarkID
		err   error
	}{
		{"SameIndex", 10, []LandmarkID{a}, ErrFrameOrder},
		{"Decreasing", 9, []LandmarkID{a}, ErrFrameOrder},
		{"UnknownLandmark", 11, []LandmarkID{LandmarkID(7)}, ErrUnknownLandmark},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.AppendFrame(tt.index, tt.lms)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, g.NumFrames(), "failed append must not add a frame")
		})
	}

	t.Run("InputSliceCopied", func(t *testing.T) {
		lms := []LandmarkID{b, a}
		id, err := g.AppendFrame(11, lms)
		require.NoError(t, err)
		lms[0] = a

		f, ok := g.Frame(id)
		require.True(t, ok)
		assert.Equal(t, []LandmarkID{b, a}, f.Landmarks())
		assert.Equal(t, uint64(11), f.Index)
		assert.Equal(t, 2, f.Len())
	})

	t.Run("EmptyFrame", func(t *testing.T) {
		id, err := g.AppendFrame(12, nil)
		require.NoError(t, err)
		f, _ := g.Frame(id)
		assert.Zero(t, f.Len())
	})
}

func TestGraph_Occurrences(t *testing.T) {
	g := New()
	lm := g.NewLandmark(desc(0xAA), 3)
	other := g.NewLandmark(desc(0xBB), 4)

	f0, err := g.AppendFrame(0, []LandmarkID{lm})
	require.NoError(t, err)
	f1, err := g.AppendFrame(1, []LandmarkID{lm, other, lm})
	require.NoError(t, err)

	require.NoError(t, g.AddOccurrence(lm, f0))
	require.NoError(t, g.AddOccurrence(lm, f1))
	require.NoError(t, g.AddOccurrence(lm, f1))
	require.NoError(t, g.AddOccurrence(other, f1))

	assert.Equal(t, []uint64{0, 1}, collect(g, lm))
	assert.Equal(t, []uint64{1}, collect(g, other))
	assert.Empty(t, collect(g, LandmarkID(99)))

	l, ok := g.Landmark(lm)
	require.True(t, ok)
	assert.Equal(t, 2, l.NumOccurrences())
	assert.Equal(t, 3, l.SeedRow)
	assert.Equal(t, []byte{0xAA}, l.Descriptor.Bytes)

	assert.ErrorIs(t, g.AddOccurrence(LandmarkID(5), f0), ErrUnknownLandmark)
	assert.ErrorIs(t, g.AddOccurrence(lm, FrameID(5)), ErrUnknownFrame)

	t.Run("StaleHandleSkipped", func(t *testing.T) {
		l.occurrences = append(l.occurrences, FrameID(42))
		assert.Equal(t, []uint64{0, 1}, collect(g, lm))
	})

	t.Run("EarlyBreak", func(t *testing.T) {
		n := 0
		for range g.Occurrences(lm) {
			n++
			break
		}
		assert.Equal(t, 1, n)
	})
}

func TestGraph_Iteration(t *testing.T) {
	g := New()
	lm := g.NewLandmark(desc(1), 0)
	for i := uint64(0); i < 3; i++ {
		_, err := g.AppendFrame(i*5, []LandmarkID{lm})
		require.NoError(t, err)
	}

	var idx []uint64
	for id, f := range g.Frames() {
		assert.Equal(t, id, f.ID)
		idx = append(idx, f.Index)
	}
	assert.Equal(t, []uint64{0, 5, 10}, idx)

	n := 0
	for id, l := range g.Landmarks() {
		assert.Equal(t, id, l.ID)
		n++
	}
	assert.Equal(t, 1, n)

	_, ok := g.Frame(FrameID(3))
	assert.False(t, ok)
	_, ok = g.Landmark(LandmarkID(1))
	assert.False(t, ok)
}

func TestGraph_Summary(t *testing.T) {
	g := New()
	a := g.NewLandmark(desc(1), 0)
	b := g.NewLandmark(desc(2), 1)
	c := g.NewLandmark(desc(3), 2)

	f0, _ := g.AppendFrame(0, []LandmarkID{a, b})
	f1, _ := g.AppendFrame(1, []LandmarkID{a, c})
	f2, _ := g.AppendFrame(2, []LandmarkID{a})
	for _, p := range []struct {
		lm LandmarkID
		f  FrameID
	}{{a, f0}, {b, f0}, {a, f1}, {c, f1}, {a, f2}} {
		require.NoError(t, g.AddOccurrence(p.lm, p.f))
	}

	s := g.Summary()
	assert.Equal(t, 3, s.Frames)
	assert.Equal(t, 3, s.Landmarks)
	assert.Equal(t, 5, s.Observations)
	assert.Equal(t, 1, s.Tracked)
	assert.Equal(t, 3, s.MaxTrackLength)
	assert.InDelta(t, 5.0/3.0, s.MeanTrack, 1e-9)
}
