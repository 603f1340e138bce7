package model

import (
	"math"
	"sort"
)

// Keypoint is one local detection.
type Keypoint struct {
	X        float32 // column in pixels
	Y        float32 // row in pixels
	Size     float32 // diameter of the meaningful neighbourhood
	Angle    float32 // orientation in degrees, -1 if not applicable
	Response float32 // detector response strength
	Octave   int32   // pyramid level
	ClassID  int32   // object class, -1 if not applicable
}

// Equal compares all seven fields, floats by bit pattern.
func (k Keypoint) Equal(o Keypoint) bool {
	return math.Float32bits(k.X) == math.Float32bits(o.X) &&
		math.Float32bits(k.Y) == math.Float32bits(o.Y) &&
		math.Float32bits(k.Size) == math.Float32bits(o.Size) &&
		math.Float32bits(k.Angle) == math.Float32bits(o.Angle) &&
		math.Float32bits(k.Response) == math.Float32bits(o.Response) &&
		k.Octave == o.Octave &&
		k.ClassID == o.ClassID
}

// FrameRecord holds the detections of one frame and the rows they own.
type FrameRecord struct {
	// Seq is the frame sequence number assigned at capture time.
	Seq       uint64
	Keypoints []Keypoint
	// Start and End delimit the half-open row range [Start, End) in the matrix.
	Start int32
	End   int32
}

// Len returns the number of rows owned by the record.
func (r *FrameRecord) Len() int { return int(r.End - r.Start) }

// Contains reports whether row falls inside the record's range.
func (r *FrameRecord) Contains(row int) bool {
	return row >= int(r.Start) && row < int(r.End)
}

// Snapshot is the output of one extraction pass.
type Snapshot struct {
	Descriptors *DescriptorMatrix
	Frames      []FrameRecord
}

// NumDetections returns the total detection count across all frames.
func (s *Snapshot) NumDetections() int {
	n := 0
	for i := range s.Frames {
		n += len(s.Frames[i].Keypoints)
	}
	return n
}

// Rows returns the number of descriptor rows (0 for a nil matrix).
func (s *Snapshot) Rows() int {
	if s.Descriptors == nil {
		return 0
	}
	return s.Descriptors.Rows()
}

// FrameOf returns the position in Frames of the record owning row.
// It requires a validated snapshot: ranges sorted and disjoint.
func (s *Snapshot) FrameOf(row int) (int, bool) {
	i := sort.Search(len(s.Frames), func(i int) bool {
		return int(s.Frames[i].End) > row
	})
	if i < len(s.Frames) && s.Frames[i].Contains(row) {
		return i, true
	}
	return 0, false
}

// Equal reports whether two snapshots hold identical matrices and records.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if !s.Descriptors.Equal(o.Descriptors) || len(s.Frames) != len(o.Frames) {
		return false
	}
	for i := range s.Frames {
		a, b := &s.Frames[i], &o.Frames[i]
		if a.Seq != b.Seq || a.Start != b.Start || a.End != b.End || len(a.Keypoints) != len(b.Keypoints) {
			return false
		}
		for j := range a.Keypoints {
			if !a.Keypoints[j].Equal(b.Keypoints[j]) {
				return false
			}
		}
	}
	return true
}
