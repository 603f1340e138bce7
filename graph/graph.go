package graph

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/hupe1980/keygraph/model"
)

var (
	// ErrFrameOrder is returned when a frame index does not exceed the previous one.
	ErrFrameOrder = errors.New("graph: frame index not strictly increasing")
	// ErrUnknownLandmark is returned for a landmark handle outside the arena.
	ErrUnknownLandmark = errors.New("graph: unknown landmark")
	// ErrUnknownFrame is returned for a frame handle outside the arena.
	ErrUnknownFrame = errors.New("graph: unknown frame")
)

// FrameID is a handle into the frame arena.
type FrameID uint32

// LandmarkID is a handle into the landmark arena.
type LandmarkID uint32

// Frame is an immutable frame node.
type Frame struct {
	ID FrameID
	// Index is the frame sequence number.
	Index     uint64
	landmarks []LandmarkID
}

// Landmarks returns the landmark handles in detection order.
func (f *Frame) Landmarks() []LandmarkID { return f.landmarks }

// Len returns the number of detections in the frame.
func (f *Frame) Len() int { return len(f.landmarks) }

// Landmark is one physical scene point.
//
// Position and Descriptor are set when the landmark is created and never refreshed.
type Landmark struct {
	ID LandmarkID
	// Position is a placeholder for a reconstructed 3D position.
	Position [3]float64
	// Descriptor is a copy of the descriptor row that created the landmark.
	Descriptor model.Descriptor
	// SeedRow is the matrix row that created the landmark.
	SeedRow     int
	occurrences []FrameID
}

// NumOccurrences returns the number of frames that observed the landmark.
func (l *Landmark) NumOccurrences() int { return len(l.occurrences) }

// Graph holds frames and landmarks.
type Graph struct {
	frames    []Frame
	landmarks []Landmark
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{}
}

// NumFrames returns the number of frame nodes.
func (g *Graph) NumFrames() int { return len(g.frames) }

// NumLandmarks returns the number of landmark nodes.
func (g *Graph) NumLandmarks() int { return len(g.landmarks) }

// NewLandmark creates a landmark with no occurrences.
func (g *Graph) NewLandmark(desc model.Descriptor, seedRow int) LandmarkID {
	id := LandmarkID(len(g.landmarks))
	g.landmarks = append(g.landmarks, Landmark{ID: id, Descriptor: desc, SeedRow: seedRow})
	return id
}

// AppendFrame appends a frame node referencing landmarks in detection order.
// The slice is copied. Occurrences are not added; see AddOccurrence.
func (g *Graph) AppendFrame(index uint64, landmarks []LandmarkID) (FrameID, error) {
	if n := len(g.frames); n > 0 && index <= g.frames[n-1].Index {
		return 0, fmt.Errorf("%w: %d after %d", ErrFrameOrder, index, g.frames[n-1].Index)
	}
	for _, lm := range landmarks {
		if int(lm) >= len(g.landmarks) {
			return 0, fmt.Errorf("%w: %d", ErrUnknownLandmark, lm)
		}
	}

	id := FrameID(len(g.frames))
	g.frames = append(g.frames, Frame{
		ID:        id,
		Index:     index,
		landmarks: append([]LandmarkID(nil), landmarks...),
	})
	return id, nil
}

// AddOccurrence records that frame observed lm. Repeated calls for the same pair are ignored.
func (g *Graph) AddOccurrence(lm LandmarkID, frame FrameID) error {
	if int(lm) >= len(g.landmarks) {
		return fmt.Errorf("%w: %d", ErrUnknownLandmark, lm)
	}
	if int(frame) >= len(g.frames) {
		return fmt.Errorf("%w: %d", ErrUnknownFrame, frame)
	}
	l := &g.landmarks[lm]
	// Frames are appended in order, so only an out-of-order call needs a scan.
	if n := len(l.occurrences); n > 0 && l.occurrences[n-1] >= frame {
		if slices.Contains(l.occurrences, frame) {
			return nil
		}
	}
	l.occurrences = append(l.occurrences, frame)
	return nil
}

// Frame returns the frame node for id.
func (g *Graph) Frame(id FrameID) (*Frame, bool) {
	if int(id) >= len(g.frames) {
		return nil, false
	}
	return &g.frames[id], true
}

// Landmark returns the landmark node for id.
func (g *Graph) Landmark(id LandmarkID) (*Landmark, bool) {
	if int(id) >= len(g.landmarks) {
		return nil, false
	}
	return &g.landmarks[id], true
}

// Frames returns an iterator over frame nodes in index order.
func (g *Graph) Frames() iter.Seq2[FrameID, *Frame] {
	return func(yield func(FrameID, *Frame) bool) {
		for i := range g.frames {
			if !yield(FrameID(i), &g.frames[i]) {
				return
			}
		}
	}
}

// Landmarks returns an iterator over landmark nodes in creation order.
func (g *Graph) Landmarks() iter.Seq2[LandmarkID, *Landmark] {
	return func(yield func(LandmarkID, *Landmark) bool) {
		for i := range g.landmarks {
			if !yield(LandmarkID(i), &g.landmarks[i]) {
				return
			}
		}
	}
}

// Occurrences returns an iterator over the frames that observed lm, in the order
// they were recorded. Handles that do not resolve are skipped.
func (g *Graph) Occurrences(lm LandmarkID) iter.Seq[*Frame] {
	return func(yield func(*Frame) bool) {
		l, ok := g.Landmark(lm)
		if !ok {
			return
		}
		for _, id := range l.occurrences {
			f, ok := g.Frame(id)
			if !ok {
				continue
			}
			if !yield(f) {
				return
			}
		}
	}
}
