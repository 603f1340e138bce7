package checkpoint

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/keygraph/internal/conv"
	"github.com/hupe1980/keygraph/model"
)

// Decode reads a checkpoint artifact and returns the validated snapshot.
// The checksum is verified before the body is parsed.
func Decode(r io.Reader) (*model.Snapshot, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	limit, err := conv.Uint64ToInt64(h.BodyLength)
	if err != nil {
		return nil, fmt.Errorf("%w: body length: %w", ErrTruncated, err)
	}

	cr := NewChecksumReader(io.LimitReader(r, limit))
	stored, err := io.ReadAll(cr)
	if err != nil {
		return nil, err
	}
	if uint64(len(stored)) != h.BodyLength {
		return nil, fmt.Errorf("%w: body has %d of %d bytes", ErrTruncated, len(stored), h.BodyLength)
	}
	if err := cr.Verify(h.Checksum); err != nil {
		return nil, err
	}

	var one [1]byte
	if n, _ := io.ReadFull(r, one[:]); n > 0 {
		return nil, fmt.Errorf("%w: after body", ErrTrailingData)
	}

	body, err := decompressBlock(stored, h.Compression)
	if err != nil {
		return nil, err
	}

	snap, err := decodeBody(body, h.Encoding)
	if err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("checkpoint: decode: %w", err)
	}
	return snap, nil
}

// DecodeBytes decodes an artifact held in memory.
func DecodeBytes(data []byte) (*model.Snapshot, error) {
	return Decode(bytes.NewReader(data))
}

type bodyReader struct {
	buf []byte
	off int
}

func (r *bodyReader) remaining() int { return len(r.buf) - r.off }

func (r *bodyReader) next(n int, what string) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, fmt.Errorf("%w: %s", ErrTruncated, what)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *bodyReader) u8(what string) (uint8, error) {
	b, err := r.next(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *bodyReader) u32(what string) (uint32, error) {
	b, err := r.next(4, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *bodyReader) u64(what string) (uint64, error) {
	b, err := r.next(8, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// minFrameSize is seq + detection count + start + end.
const minFrameSize = 8 + 4 + 4 + 4

func decodeBody(body []byte, enc Encoding) (*model.Snapshot, error) {
	r := &bodyReader{buf: body}

	m, err := decodeMatrix(r)
	if err != nil {
		return nil, err
	}

	count, err := r.u32("frame count")
	if err != nil {
		return nil, err
	}
	if uint64(count)*minFrameSize > uint64(r.remaining()) {
		return nil, fmt.Errorf("%w: %d frame records", ErrTruncated, count)
	}

	snap := &model.Snapshot{Descriptors: m, Frames: make([]model.FrameRecord, count)}
	for i := range snap.Frames {
		if err := decodeFrame(r, enc, i, &snap.Frames[i]); err != nil {
			return nil, err
		}
	}

	if r.remaining() > 0 {
		return nil, fmt.Errorf("%w: %d bytes after frame records", ErrTrailingData, r.remaining())
	}
	return snap, nil
}

func decodeMatrix(r *bodyReader) (*model.DescriptorMatrix, error) {
	kindByte, err := r.u8("matrix kind")
	if err != nil {
		return nil, err
	}
	rows, err := r.u32("matrix rows")
	if err != nil {
		return nil, err
	}
	cols, err := r.u32("matrix cols")
	if err != nil {
		return nil, err
	}

	kind := model.Kind(kindByte)
	if kindByte == 0 {
		if rows != 0 || cols != 0 {
			return nil, fmt.Errorf("checkpoint: empty matrix marker with %dx%d shape", rows, cols)
		}
		return nil, nil
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("checkpoint: unknown descriptor kind %d", kindByte)
	}
	if rows > 0 && cols == 0 {
		return nil, fmt.Errorf("checkpoint: %d rows with zero columns", rows)
	}

	m := model.NewMatrix(kind, int(cols))
	elem := uint64(m.ElemSize())
	// rowBytes fits in 35 bits, so only the row count can overflow the product.
	rowBytes := uint64(cols) * elem
	if rowBytes != 0 && uint64(rows) > uint64(r.remaining())/rowBytes {
		return nil, fmt.Errorf("%w: matrix data needs %d rows of %d bytes", ErrTruncated, rows, rowBytes)
	}
	size := uint64(rows) * rowBytes
	data, _ := r.next(int(size), "matrix data")

	if kind == model.KindFloat32 {
		floats := make([]float32, len(data)/4)
		for i := range floats {
			floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
		if _, _, err := m.AppendFloat32(int(cols), floats); err != nil {
			return nil, err
		}
	} else if _, _, err := m.AppendBinary(int(cols), bytes.Clone(data)); err != nil {
		return nil, err
	}
	if uint64(m.Rows()) != uint64(rows) {
		return nil, fmt.Errorf("checkpoint: matrix decoded %d of %d rows", m.Rows(), rows)
	}
	return m, nil
}

func decodeFrame(r *bodyReader, enc Encoding, idx int, rec *model.FrameRecord) error {
	var err error
	if rec.Seq, err = r.u64("frame seq"); err != nil {
		return err
	}
	n, err := r.u32("detection count")
	if err != nil {
		return err
	}
	// Every detection needs at least its field count byte.
	if uint64(n) > uint64(r.remaining()) {
		return fmt.Errorf("%w: %d detections", ErrTruncated, n)
	}

	rec.Keypoints = make([]model.Keypoint, n)
	for j := range rec.Keypoints {
		if enc == EncodingTagged {
			err = decodeTagged(r, &rec.Keypoints[j])
		} else {
			err = decodePositional(r, &rec.Keypoints[j])
		}
		if err != nil {
			var fe *FieldError
			if errors.As(err, &fe) {
				fe.Frame, fe.Detection = idx, j
			}
			return err
		}
	}

	start, err := r.u32("range start")
	if err != nil {
		return err
	}
	end, err := r.u32("range end")
	if err != nil {
		return err
	}
	rec.Start, rec.End = int32(start), int32(end)
	return nil
}

func setField(kp *model.Keypoint, tag uint8, v uint32) {
	switch tag {
	case TagX:
		kp.X = math.Float32frombits(v)
	case TagY:
		kp.Y = math.Float32frombits(v)
	case TagSize:
		kp.Size = math.Float32frombits(v)
	case TagAngle:
		kp.Angle = math.Float32frombits(v)
	case TagResponse:
		kp.Response = math.Float32frombits(v)
	case TagOctave:
		kp.Octave = int32(v)
	case TagClassID:
		kp.ClassID = int32(v)
	}
}

func decodePositional(r *bodyReader, kp *model.Keypoint) error {
	count, err := r.u8("field count")
	if err != nil {
		return err
	}
	if count < numFields {
		return &FieldError{Op: FieldMissing, Field: FieldName(count + 1)}
	}
	if count > numFields {
		return &FieldError{Op: FieldTrailing, Field: fmt.Sprintf("#%d", numFields+1)}
	}
	for tag := uint8(1); tag <= numFields; tag++ {
		v, err := r.u32(FieldName(tag))
		if err != nil {
			return err
		}
		setField(kp, tag, v)
	}
	return nil
}

func decodeTagged(r *bodyReader, kp *model.Keypoint) error {
	count, err := r.u8("field count")
	if err != nil {
		return err
	}

	var seen uint8
	for range count {
		tag, err := r.u8("field tag")
		if err != nil {
			return err
		}
		if tag == 0 || tag > numFields {
			return &FieldError{Op: FieldUnknown, Field: FieldName(tag)}
		}
		if seen&(1<<tag) != 0 {
			return &FieldError{Op: FieldDuplicate, Field: FieldName(tag)}
		}
		seen |= 1 << tag

		v, err := r.u32(FieldName(tag))
		if err != nil {
			return err
		}
		setField(kp, tag, v)
	}

	for tag := uint8(1); tag <= numFields; tag++ {
		if seen&(1<<tag) == 0 {
			return &FieldError{Op: FieldMissing, Field: FieldName(tag)}
		}
	}
	return nil
}
