package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/keygraph/distance"
	"github.com/hupe1980/keygraph/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// BinaryDescriptor returns cols random bytes.
func (r *RNG) BinaryDescriptor(cols int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := make([]byte, cols)
	r.rand.Read(d)
	return d
}

// FloatDescriptor returns cols random values in [0, 1).
func (r *RNG) FloatDescriptor(cols int) []float32 {
	d := make([]float32, cols)
	r.FillUniform(d)
	return d
}

// Keypoint returns a keypoint with random attributes in plausible ranges.
func (r *RNG) Keypoint() model.Keypoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.Keypoint{
		X:        r.rand.Float32() * 1920,
		Y:        r.rand.Float32() * 1080,
		Size:     31 * (1 + r.rand.Float32()),
		Angle:    r.rand.Float32() * 360,
		Response: r.rand.Float32() / 1000,
		Octave:   int32(r.rand.Intn(8)),
		ClassID:  -1,
	}
}

// FlipBits returns a copy of d with its first n bits inverted.
// The result is at Hamming distance n from d.
func FlipBits(d []byte, n int) []byte {
	out := append([]byte(nil), d...)
	for i := 0; i < n; i++ {
		out[i/8] ^= 1 << (i % 8)
	}
	return out
}

// BinarySnapshot assembles a valid snapshot with one record per frame.
// Frame sequence numbers are 0,1,2,... and keypoints are placed on a diagonal.
// It panics on inconsistent widths.
func BinarySnapshot(cols int, frames ...[][]byte) *model.Snapshot {
	m := model.NewMatrix(model.KindBinary, cols)
	snap := &model.Snapshot{Descriptors: m}
	for seq, rows := range frames {
		start := int32(m.Rows())
		for _, row := range rows {
			if _, _, err := m.AppendBinary(cols, row); err != nil {
				panic(err)
			}
		}
		snap.Frames = append(snap.Frames, record(uint64(seq), start, int32(m.Rows())))
	}
	return snap
}

// FloatSnapshot assembles a valid float32 snapshot with one record per frame.
func FloatSnapshot(cols int, frames ...[][]float32) *model.Snapshot {
	m := model.NewMatrix(model.KindFloat32, cols)
	snap := &model.Snapshot{Descriptors: m}
	for seq, rows := range frames {
		start := int32(m.Rows())
		for _, row := range rows {
			if _, _, err := m.AppendFloat32(cols, row); err != nil {
				panic(err)
			}
		}
		snap.Frames = append(snap.Frames, record(uint64(seq), start, int32(m.Rows())))
	}
	return snap
}

func record(seq uint64, start, end int32) model.FrameRecord {
	kps := make([]model.Keypoint, end-start)
	for i := range kps {
		v := float32(int(start) + i)
		kps[i] = model.Keypoint{X: v, Y: v, Size: 31, Angle: -1, Response: 0.001, Octave: 0, ClassID: -1}
	}
	return model.FrameRecord{Seq: seq, Keypoints: kps, Start: start, End: end}
}

// RandomBinarySnapshot generates a snapshot of frames records with up to maxPerFrame
// random detections each. Some frames may be empty.
func (r *RNG) RandomBinarySnapshot(frames, maxPerFrame, cols int) *model.Snapshot {
	m := model.NewMatrix(model.KindBinary, cols)
	snap := &model.Snapshot{Descriptors: m}
	var seq uint64
	for range frames {
		seq += uint64(1 + r.Intn(3))
		start := int32(m.Rows())
		n := r.Intn(maxPerFrame + 1)
		rec := model.FrameRecord{Seq: seq, Start: start}
		for range n {
			if _, _, err := m.AppendBinary(cols, r.BinaryDescriptor(cols)); err != nil {
				panic(err)
			}
			rec.Keypoints = append(rec.Keypoints, r.Keypoint())
		}
		rec.End = int32(m.Rows())
		snap.Frames = append(snap.Frames, rec)
	}
	return snap
}

// RandomFloatSnapshot generates a float32 snapshot like RandomBinarySnapshot.
func (r *RNG) RandomFloatSnapshot(frames, maxPerFrame, cols int) *model.Snapshot {
	m := model.NewMatrix(model.KindFloat32, cols)
	snap := &model.Snapshot{Descriptors: m}
	for seq := range frames {
		start := int32(m.Rows())
		n := r.Intn(maxPerFrame + 1)
		rec := model.FrameRecord{Seq: uint64(seq), Start: start}
		for range n {
			if _, _, err := m.AppendFloat32(cols, r.FloatDescriptor(cols)); err != nil {
				panic(err)
			}
			rec.Keypoints = append(rec.Keypoints, r.Keypoint())
		}
		rec.End = int32(m.Rows())
		snap.Frames = append(snap.Frames, rec)
	}
	return snap
}

// NearestRow returns the lowest-indexed row of a binary matrix at minimum Hamming
// distance from query, skipping rows for which excluded returns true. It returns -1
// if every row is excluded.
func NearestRow(m *model.DescriptorMatrix, query []byte, excluded func(row int) bool) (int, float32) {
	best, bestD := -1, float32(0)
	for i := 0; i < m.Rows(); i++ {
		if excluded != nil && excluded(i) {
			continue
		}
		d := distance.Hamming(query, m.BinaryRow(i))
		if best < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	return best, bestD
}
