package index

import (
	"errors"
	"fmt"

	"github.com/hupe1980/keygraph/distance"
	"github.com/hupe1980/keygraph/internal/queue"
	"github.com/hupe1980/keygraph/model"
)

var (
	// ErrEmptyMatrix is returned when an index is built over a nil matrix.
	ErrEmptyMatrix = errors.New("index: nil descriptor matrix")
	// ErrMetricKind is returned when the metric does not apply to the matrix kind.
	ErrMetricKind = errors.New("index: metric does not apply to descriptor kind")
	// ErrRowOutOfRange is returned when a query row does not exist.
	ErrRowOutOfRange = errors.New("index: row out of range")
)

// ErrDimensionMismatch is a named error type for query width mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected width
	Actual   int // Actual width
}

// Error returns the error message for dimension mismatch
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Result is one search hit.
type Result struct {
	// Row is the matrix row of the hit.
	Row uint32
	// Distance is the distance between the query and the row, in metric units.
	Distance float32
}

// Options contains configuration options for the flat index.
type Options struct {
	// Metric overrides the default metric of the matrix kind:
	// Hamming for binary descriptors, L2 for float32 descriptors.
	Metric *distance.Metric
}

// WithMetric sets the distance metric.
func WithMetric(m distance.Metric) func(o *Options) {
	return func(o *Options) {
		o.Metric = &m
	}
}

// DefaultMetric returns the metric native to a descriptor kind.
func DefaultMetric(k model.Kind) distance.Metric {
	if k == model.KindBinary {
		return distance.MetricHamming
	}
	return distance.MetricL2
}

// Flat is an exact brute-force index over every row of a descriptor matrix.
type Flat struct {
	m      *model.DescriptorMatrix
	metric distance.Metric
	bytesF distance.FuncBytes
	floatF distance.Func
}

// New builds a flat index over m.
func New(m *model.DescriptorMatrix, optFns ...func(o *Options)) (*Flat, error) {
	if m == nil {
		return nil, ErrEmptyMatrix
	}
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	metric := DefaultMetric(m.Kind())
	if opts.Metric != nil {
		metric = *opts.Metric
	}

	f := &Flat{m: m, metric: metric}
	var err error
	switch m.Kind() {
	case model.KindBinary:
		f.bytesF, err = distance.ProviderBytes(metric)
	case model.KindFloat32:
		f.floatF, err = distance.Provider(metric)
	default:
		err = fmt.Errorf("unknown kind %s", m.Kind())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetricKind, err)
	}
	return f, nil
}

// Len returns the number of indexed rows.
func (f *Flat) Len() int { return f.m.Rows() }

// Metric returns the metric used for ranking.
func (f *Flat) Metric() distance.Metric { return f.metric }

// Matrix returns the indexed matrix.
func (f *Flat) Matrix() *model.DescriptorMatrix { return f.m }

// SearchRow returns the k nearest unmasked rows to the descriptor stored at row.
// The query row itself is only excluded if mask contains it.
func (f *Flat) SearchRow(row, k int, mask *Mask) ([]Result, error) {
	if row < 0 || row >= f.m.Rows() {
		return nil, fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, row, f.m.Rows())
	}
	if f.bytesF != nil {
		return f.scan(k, mask, func(i int) float32 {
			return f.bytesF(f.m.BinaryRow(row), f.m.BinaryRow(i))
		}), nil
	}
	return f.scan(k, mask, func(i int) float32 {
		return f.floatF(f.m.FloatRow(row), f.m.FloatRow(i))
	}), nil
}

// SearchBinary returns the k nearest unmasked rows to a binary query.
func (f *Flat) SearchBinary(q []byte, k int, mask *Mask) ([]Result, error) {
	if f.bytesF == nil {
		return nil, fmt.Errorf("%w: binary query against %s matrix", ErrMetricKind, f.m.Kind())
	}
	if len(q) != f.m.Cols() {
		return nil, &ErrDimensionMismatch{Expected: f.m.Cols(), Actual: len(q)}
	}
	return f.scan(k, mask, func(i int) float32 {
		return f.bytesF(q, f.m.BinaryRow(i))
	}), nil
}

// SearchFloat returns the k nearest unmasked rows to a float32 query.
func (f *Flat) SearchFloat(q []float32, k int, mask *Mask) ([]Result, error) {
	if f.floatF == nil {
		return nil, fmt.Errorf("%w: float32 query against %s matrix", ErrMetricKind, f.m.Kind())
	}
	if len(q) != f.m.Cols() {
		return nil, &ErrDimensionMismatch{Expected: f.m.Cols(), Actual: len(q)}
	}
	return f.scan(k, mask, func(i int) float32 {
		return f.floatF(q, f.m.FloatRow(i))
	}), nil
}

func (f *Flat) scan(k int, mask *Mask, dist func(i int) float32) []Result {
	if k <= 0 {
		return nil
	}
	pq := queue.NewMax(k)
	for i := 0; i < f.m.Rows(); i++ {
		if mask.Contains(i) {
			continue
		}
		pq.Offer(queue.Item{Row: uint32(i), Distance: dist(i)}, k)
	}

	items := pq.Drain()
	results := make([]Result, len(items))
	for i, it := range items {
		results[i] = Result{Row: it.Row, Distance: it.Distance}
	}
	return results
}
