package index

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Mask is a set of excluded rows backed by a 32-bit Roaring Bitmap.
// A nil *Mask excludes nothing.
type Mask struct {
	rb *roaring.Bitmap
}

// NewMask creates an empty mask.
func NewMask() *Mask {
	return &Mask{rb: roaring.New()}
}

// NewRangeMask creates a mask excluding the half-open row range [start, end).
func NewRangeMask(start, end int) *Mask {
	m := NewMask()
	m.AddRange(start, end)
	return m
}

// Add excludes a single row.
func (m *Mask) Add(row int) {
	m.rb.Add(uint32(row))
}

// AddRange excludes the half-open row range [start, end).
func (m *Mask) AddRange(start, end int) {
	if end > start {
		m.rb.AddRange(uint64(start), uint64(end))
	}
}

// Contains reports whether row is excluded.
func (m *Mask) Contains(row int) bool {
	if m == nil {
		return false
	}
	return m.rb.Contains(uint32(row))
}

// Cardinality returns the number of excluded rows.
func (m *Mask) Cardinality() uint64 {
	if m == nil {
		return 0
	}
	return m.rb.GetCardinality()
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	return &Mask{rb: m.rb.Clone()}
}

// Reset removes every row so the mask can be reused.
func (m *Mask) Reset() {
	m.rb.Clear()
}

// Rows returns an iterator over the excluded rows in ascending order.
func (m *Mask) Rows() iter.Seq[int] {
	return func(yield func(int) bool) {
		if m == nil {
			return
		}
		it := m.rb.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}
