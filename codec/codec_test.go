package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/keygraph/graph"
)

func TestByName(t *testing.T) {
	for _, name := range Names() {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	c, ok := ByName("")
	require.True(t, ok)
	assert.Equal(t, Default.Name(), c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecs_Summary(t *testing.T) {
	s := graph.Summary{Frames: 3, Landmarks: 5, Observations: 9, Tracked: 2, MaxTrackLength: 3, MeanTrack: 1.8}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(s)
			require.NoError(t, err)
			assert.Contains(t, string(data), `"max_track_length":3`)

			var got graph.Summary
			require.NoError(t, c.Unmarshal(data, &got))
			assert.Equal(t, s, got)

			pretty := MustMarshal(Indent(c, "  "), s)
			assert.True(t, strings.Contains(string(pretty), "\n  \"frames\": 3"))
		})
	}
}

func TestGoJSON_Append(t *testing.T) {
	out, err := GoJSON{}.Append([]byte("summary="), map[string]int{"frames": 1})
	require.NoError(t, err)
	assert.Equal(t, `summary={"frames":1}`, string(out))
}
