package codec

import (
	"testing"

	"github.com/hupe1980/keygraph/graph"
)

func benchmarkCodecMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for b.Loop() {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func BenchmarkCodec_Marshal_Summary(b *testing.B) {
	s := graph.Summary{Frames: 300, Landmarks: 41250, Observations: 150000, Tracked: 12000, MaxTrackLength: 87, MeanTrack: 3.63}

	b.Run("stdlib", func(b *testing.B) { benchmarkCodecMarshal(b, JSON{}, s) })
	b.Run("go-json", func(b *testing.B) { benchmarkCodecMarshal(b, GoJSON{}, s) })
}
