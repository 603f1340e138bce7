package model

import "fmt"

// Invariants reported by ValidationError.
const (
	InvariantMatrix      = "matrix"       // descriptor matrix missing or malformed
	InvariantRangeLength = "range-length" // End-Start differs from the detection count
	InvariantRangeBounds = "range-bounds" // Start > End or negative bounds
	InvariantContiguous  = "contiguous"   // gap or overlap with the previous record
	InvariantFrameOrder  = "frame-order"  // sequence numbers not strictly increasing
	InvariantCoverage    = "coverage"     // ranges do not end at the matrix row count
)

// ValidationError describes the first violated snapshot invariant.
type ValidationError struct {
	Invariant string
	// Frame is the position of the offending record in Snapshot.Frames, -1 for snapshot-wide violations.
	Frame  int
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Frame < 0 {
		return fmt.Sprintf("invalid snapshot (%s): %s", e.Invariant, e.Detail)
	}
	return fmt.Sprintf("invalid snapshot (%s) at frame record %d: %s", e.Invariant, e.Frame, e.Detail)
}

// Validate checks that the record ranges tile [0, rows) in frame order.
func (s *Snapshot) Validate() error {
	if s.Descriptors == nil {
		if len(s.Frames) == 0 {
			return nil
		}
		return &ValidationError{Invariant: InvariantMatrix, Frame: -1, Detail: "nil descriptor matrix"}
	}
	if !s.Descriptors.Kind().Valid() {
		return &ValidationError{Invariant: InvariantMatrix, Frame: -1, Detail: "unknown descriptor kind " + s.Descriptors.Kind().String()}
	}

	var next int32
	for i := range s.Frames {
		r := &s.Frames[i]
		if r.Start < 0 || r.End < r.Start {
			return &ValidationError{Invariant: InvariantRangeBounds, Frame: i,
				Detail: fmt.Sprintf("range [%d,%d)", r.Start, r.End)}
		}
		if r.Len() != len(r.Keypoints) {
			return &ValidationError{Invariant: InvariantRangeLength, Frame: i,
				Detail: fmt.Sprintf("range [%d,%d) holds %d rows for %d detections", r.Start, r.End, r.Len(), len(r.Keypoints))}
		}
		if i > 0 && r.Seq <= s.Frames[i-1].Seq {
			return &ValidationError{Invariant: InvariantFrameOrder, Frame: i,
				Detail: fmt.Sprintf("seq %d follows seq %d", r.Seq, s.Frames[i-1].Seq)}
		}
		if r.Start != next {
			kind := "gap"
			if r.Start < next {
				kind = "overlap"
			}
			return &ValidationError{Invariant: InvariantContiguous, Frame: i,
				Detail: fmt.Sprintf("%s: range starts at %d, expected %d", kind, r.Start, next)}
		}
		next = r.End
	}
	if int(next) != s.Descriptors.Rows() {
		return &ValidationError{Invariant: InvariantCoverage, Frame: -1,
			Detail: fmt.Sprintf("ranges cover %d rows, matrix has %d", next, s.Descriptors.Rows())}
	}
	return nil
}
