package matcher

import (
	"sync"
	"testing"

	"github.com/hupe1980/keygraph/graph"
	"github.com/stretchr/testify/assert"
)

func TestRowMap_Claim(t *testing.T) {
	m := newRowMap(4)
	_, ok := m.get(2)
	assert.False(t, ok)

	got, set := m.claim(2, 0)
	assert.True(t, set)
	assert.Equal(t, graph.LandmarkID(0), got)

	got, set = m.claim(2, 5)
	assert.False(t, set)
	assert.Equal(t, graph.LandmarkID(0), got)

	lm, ok := m.get(2)
	assert.True(t, ok)
	assert.Equal(t, graph.LandmarkID(0), lm)
}

func TestRowMap_ConcurrentClaim(t *testing.T) {
	m := newRowMap(1)
	winners := make([]graph.LandmarkID, 64)
	var wg sync.WaitGroup
	for i := range winners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			winners[i], _ = m.claim(0, graph.LandmarkID(i+1))
		}()
	}
	wg.Wait()

	for _, w := range winners {
		assert.Equal(t, winners[0], w, "one claim wins for every racer")
	}
}
