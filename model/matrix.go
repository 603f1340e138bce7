package model

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Kind is the element type of a descriptor matrix.
type Kind uint8

const (
	// KindBinary stores one uint8 per column (ORB, BRIEF, AKAZE...). Compared by Hamming distance.
	KindBinary Kind = 1
	// KindFloat32 stores one float32 per column (SIFT, SURF...). Compared by L2 or cosine.
	KindFloat32 Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindBinary:
		return "binary"
	case KindFloat32:
		return "float32"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindBinary || k == KindFloat32
}

var (
	// ErrKindMismatch is returned when matrices of different element kinds are combined.
	ErrKindMismatch = errors.New("descriptor kind mismatch")
	// ErrRaggedData is returned when a data slice is not a multiple of the column width.
	ErrRaggedData = errors.New("descriptor data is not a multiple of the column width")
)

// ErrColumnMismatch indicates that appended rows have a different width.
type ErrColumnMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrColumnMismatch) Error() string {
	return fmt.Sprintf("descriptor width mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// DescriptorMatrix is a dense, row-major matrix with one row per detection.
//
// It only grows: rows are appended and never rewritten. A matrix created with
// zero columns adopts the width of the first non-empty append.
type DescriptorMatrix struct {
	kind   Kind
	cols   int
	rows   int
	bytes  []byte    // KindBinary
	floats []float32 // KindFloat32
}

// NewMatrix creates an empty matrix of the given kind and width.
func NewMatrix(kind Kind, cols int) *DescriptorMatrix {
	return &DescriptorMatrix{kind: kind, cols: cols}
}

// NewBinaryMatrix creates a matrix from row-major uint8 data.
func NewBinaryMatrix(cols int, data []byte) (*DescriptorMatrix, error) {
	m := NewMatrix(KindBinary, cols)
	if _, _, err := m.AppendBinary(cols, data); err != nil {
		return nil, err
	}
	return m, nil
}

// NewFloatMatrix creates a matrix from row-major float32 data.
func NewFloatMatrix(cols int, data []float32) (*DescriptorMatrix, error) {
	m := NewMatrix(KindFloat32, cols)
	if _, _, err := m.AppendFloat32(cols, data); err != nil {
		return nil, err
	}
	return m, nil
}

// Kind returns the element kind.
func (m *DescriptorMatrix) Kind() Kind { return m.kind }

// Cols returns the descriptor width.
func (m *DescriptorMatrix) Cols() int { return m.cols }

// Rows returns the number of rows.
func (m *DescriptorMatrix) Rows() int { return m.rows }

// BinaryRow returns row i of a binary matrix. The slice aliases the matrix.
func (m *DescriptorMatrix) BinaryRow(i int) []byte {
	return m.bytes[i*m.cols : (i+1)*m.cols : (i+1)*m.cols]
}

// FloatRow returns row i of a float32 matrix. The slice aliases the matrix.
func (m *DescriptorMatrix) FloatRow(i int) []float32 {
	return m.floats[i*m.cols : (i+1)*m.cols : (i+1)*m.cols]
}

// Bytes returns the raw binary data (nil for float matrices).
func (m *DescriptorMatrix) Bytes() []byte { return m.bytes }

// Floats returns the raw float32 data (nil for binary matrices).
func (m *DescriptorMatrix) Floats() []float32 { return m.floats }

// ElemSize returns the size of one element in bytes.
func (m *DescriptorMatrix) ElemSize() int {
	if m.kind == KindFloat32 {
		return 4
	}
	return 1
}

// SizeBytes returns the payload size of rows*cols elements.
func (m *DescriptorMatrix) SizeBytes() int64 {
	return int64(m.rows) * int64(m.cols) * int64(m.ElemSize())
}

func (m *DescriptorMatrix) adoptCols(cols, n int) (int, error) {
	if n == 0 {
		return 0, nil
	}
	if cols <= 0 {
		return 0, &ErrColumnMismatch{Expected: m.cols, Actual: cols}
	}
	if m.cols == 0 && m.rows == 0 {
		m.cols = cols
	}
	if cols != m.cols {
		return 0, &ErrColumnMismatch{Expected: m.cols, Actual: cols}
	}
	if n%cols != 0 {
		return 0, ErrRaggedData
	}
	return n / cols, nil
}

// AppendBinary appends row-major rows and returns the half-open row range they occupy.
func (m *DescriptorMatrix) AppendBinary(cols int, data []byte) (start, end int, err error) {
	if m.kind != KindBinary {
		return 0, 0, fmt.Errorf("%w: append binary to %s matrix", ErrKindMismatch, m.kind)
	}
	n, err := m.adoptCols(cols, len(data))
	if err != nil {
		return 0, 0, err
	}
	start = m.rows
	m.bytes = append(m.bytes, data...)
	m.rows += n
	return start, m.rows, nil
}

// AppendFloat32 appends row-major rows and returns the half-open row range they occupy.
func (m *DescriptorMatrix) AppendFloat32(cols int, data []float32) (start, end int, err error) {
	if m.kind != KindFloat32 {
		return 0, 0, fmt.Errorf("%w: append float32 to %s matrix", ErrKindMismatch, m.kind)
	}
	n, err := m.adoptCols(cols, len(data))
	if err != nil {
		return 0, 0, err
	}
	start = m.rows
	m.floats = append(m.floats, data...)
	m.rows += n
	return start, m.rows, nil
}

// Append appends every row of other.
func (m *DescriptorMatrix) Append(other *DescriptorMatrix) (start, end int, err error) {
	if other == nil || other.rows == 0 {
		return m.rows, m.rows, nil
	}
	switch other.kind {
	case KindBinary:
		return m.AppendBinary(other.cols, other.bytes)
	case KindFloat32:
		return m.AppendFloat32(other.cols, other.floats)
	default:
		return 0, 0, fmt.Errorf("%w: %s", ErrKindMismatch, other.kind)
	}
}

// Clone returns a deep copy.
func (m *DescriptorMatrix) Clone() *DescriptorMatrix {
	return &DescriptorMatrix{
		kind:   m.kind,
		cols:   m.cols,
		rows:   m.rows,
		bytes:  slices.Clone(m.bytes),
		floats: slices.Clone(m.floats),
	}
}

// Equal reports whether both matrices hold identical rows. Floats compare by bit pattern.
func (m *DescriptorMatrix) Equal(other *DescriptorMatrix) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.kind != other.kind || m.rows != other.rows {
		return false
	}
	if m.rows > 0 && m.cols != other.cols {
		return false
	}
	if m.kind == KindBinary {
		return slices.Equal(m.bytes, other.bytes)
	}
	if len(m.floats) != len(other.floats) {
		return false
	}
	for i := range m.floats {
		if math.Float32bits(m.floats[i]) != math.Float32bits(other.floats[i]) {
			return false
		}
	}
	return true
}

// Descriptor is a detached copy of one matrix row.
type Descriptor struct {
	Kind   Kind
	Bytes  []byte    // KindBinary
	Floats []float32 // KindFloat32
}

// Row returns a copy of row i that does not alias the matrix.
func (m *DescriptorMatrix) Row(i int) Descriptor {
	if m.kind == KindFloat32 {
		return Descriptor{Kind: m.kind, Floats: slices.Clone(m.FloatRow(i))}
	}
	return Descriptor{Kind: m.kind, Bytes: slices.Clone(m.BinaryRow(i))}
}

// Len returns the descriptor width.
func (d Descriptor) Len() int {
	if d.Kind == KindFloat32 {
		return len(d.Floats)
	}
	return len(d.Bytes)
}
