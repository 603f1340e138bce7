package matcher

import (
	"sync/atomic"

	"github.com/hupe1980/keygraph/graph"
)

// rowMap maps descriptor rows to landmarks. Slots hold landmark+1, 0 is unmapped.
type rowMap struct {
	slots []atomic.Uint32
}

func newRowMap(rows int) *rowMap {
	return &rowMap{slots: make([]atomic.Uint32, rows)}
}

func (m *rowMap) get(row int) (graph.LandmarkID, bool) {
	v := m.slots[row].Load()
	if v == 0 {
		return 0, false
	}
	return graph.LandmarkID(v - 1), true
}

// claim maps row to lm unless it is already mapped. It returns the landmark the
// row ends up with and whether this call set it. Safe for concurrent use.
func (m *rowMap) claim(row int, lm graph.LandmarkID) (graph.LandmarkID, bool) {
	if m.slots[row].CompareAndSwap(0, uint32(lm)+1) {
		return lm, true
	}
	return graph.LandmarkID(m.slots[row].Load() - 1), false
}
