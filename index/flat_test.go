package index

import (
	"testing"

	"github.com/hupe1980/keygraph/distance"
	"github.com/hupe1980/keygraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binaryMatrix(t *testing.T, rows ...[]byte) *model.DescriptorMatrix {
	t.Helper()
	m := model.NewMatrix(model.KindBinary, 0)
	for _, r := range rows {
		_, _, err := m.AppendBinary(len(r), r)
		require.NoError(t, err)
	}
	return m
}

func TestNew(t *testing.T) {
	t.Run("NilMatrix", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, ErrEmptyMatrix)
	})

	t.Run("DefaultMetric", func(t *testing.T) {
		f, err := New(model.NewMatrix(model.KindBinary, 4))
		require.NoError(t, err)
		assert.Equal(t, distance.MetricHamming, f.Metric())

		f, err = New(model.NewMatrix(model.KindFloat32, 4))
		require.NoError(t, err)
		assert.Equal(t, distance.MetricL2, f.Metric())
	})

	t.Run("IncompatibleMetric", func(t *testing.T) {
		_, err := New(model.NewMatrix(model.KindBinary, 4), WithMetric(distance.MetricL2))
		assert.ErrorIs(t, err, ErrMetricKind)

		_, err = New(model.NewMatrix(model.KindFloat32, 4), WithMetric(distance.MetricHamming))
		assert.ErrorIs(t, err, ErrMetricKind)
	})

	t.Run("Cosine", func(t *testing.T) {
		f, err := New(model.NewMatrix(model.KindFloat32, 4), WithMetric(distance.MetricCosine))
		require.NoError(t, err)
		assert.Equal(t, distance.MetricCosine, f.Metric())
	})
}

func TestSearchRow(t *testing.T) {
	m := binaryMatrix(t,
		[]byte{0x00, 0x00}, // 0
		[]byte{0x01, 0x00}, // 1: d(0)=1
		[]byte{0x03, 0x00}, // 2: d(0)=2
		[]byte{0x01, 0x00}, // 3: same as row 1
		[]byte{0xFF, 0xFF}, // 4
	)
	f, err := New(m)
	require.NoError(t, err)

	tests := []struct {
		name string
		row  int
		k    int
		mask *Mask
		want []Result
	}{
		{
			name: "SelfIsNearestWithoutMask",
			row:  0, k: 1,
			want: []Result{{Row: 0, Distance: 0}},
		},
		{
			name: "ExcludeSelf",
			row:  0, k: 2,
			mask: NewRangeMask(0, 1),
			want: []Result{{Row: 1, Distance: 1}, {Row: 3, Distance: 1}},
		},
		{
			name: "TieLowestRowWins",
			row:  1, k: 1,
			mask: NewRangeMask(1, 2),
			want: []Result{{Row: 3, Distance: 0}},
		},
		{
			name: "TieAcrossEqualDistances",
			row:  2, k: 1,
			mask: NewRangeMask(2, 3),
			want: []Result{{Row: 1, Distance: 1}},
		},
		{
			name: "EverythingMasked",
			row:  4, k: 1,
			mask: NewRangeMask(0, 5),
			want: []Result{},
		},
		{
			name: "KLargerThanRows",
			row:  4, k: 10,
			mask: NewRangeMask(4, 5),
			want: []Result{{Row: 2, Distance: 14}, {Row: 1, Distance: 15}, {Row: 3, Distance: 15}, {Row: 0, Distance: 16}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.SearchRow(tt.row, tt.k, tt.mask)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("OutOfRange", func(t *testing.T) {
		_, err := f.SearchRow(5, 1, nil)
		assert.ErrorIs(t, err, ErrRowOutOfRange)
	})

	t.Run("ZeroK", func(t *testing.T) {
		got, err := f.SearchRow(0, 0, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSearchQuery(t *testing.T) {
	fm, err := model.NewFloatMatrix(2, []float32{0, 0, 3, 4, 1, 0})
	require.NoError(t, err)
	f, err := New(fm)
	require.NoError(t, err)

	got, err := f.SearchFloat([]float32{3, 3}, 1, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(1), got[0].Row)
	assert.InDelta(t, 1.0, got[0].Distance, 1e-6)

	_, err = f.SearchFloat([]float32{1}, 1, nil)
	var dimErr *ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 1, dimErr.Actual)

	_, err = f.SearchBinary([]byte{1, 2}, 1, nil)
	assert.ErrorIs(t, err, ErrMetricKind)

	bm := binaryMatrix(t, []byte{0xF0}, []byte{0x0F})
	bf, err := New(bm)
	require.NoError(t, err)
	got, err = bf.SearchBinary([]byte{0x0E}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []Result{{Row: 1, Distance: 1}}, got)
}

func TestMask(t *testing.T) {
	var nilMask *Mask
	assert.False(t, nilMask.Contains(3))
	assert.Zero(t, nilMask.Cardinality())

	m := NewRangeMask(2, 5)
	m.Add(9)
	m.AddRange(7, 7)
	assert.True(t, m.Contains(2))
	assert.True(t, m.Contains(4))
	assert.False(t, m.Contains(5))
	assert.Equal(t, uint64(4), m.Cardinality())

	var rows []int
	for r := range m.Rows() {
		rows = append(rows, r)
	}
	assert.Equal(t, []int{2, 3, 4, 9}, rows)

	c := m.Clone()
	m.Reset()
	assert.Zero(t, m.Cardinality())
	assert.Equal(t, uint64(4), c.Cardinality())
}
