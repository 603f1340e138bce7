package checkpoint

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/keygraph/internal/conv"
	"github.com/hupe1980/keygraph/model"
)

// Options configures Encode.
type Options struct {
	Encoding    Encoding
	Compression Compression
}

// DefaultOptions returns positional, uncompressed output.
func DefaultOptions() Options {
	return Options{Encoding: EncodingPositional, Compression: CompressionNone}
}

// WithEncoding selects the detection encoding.
func WithEncoding(e Encoding) func(o *Options) {
	return func(o *Options) { o.Encoding = e }
}

// WithCompression selects the body compression.
func WithCompression(c Compression) func(o *Options) {
	return func(o *Options) { o.Compression = c }
}

// Encode validates snap and writes it to w as a checkpoint artifact.
// Nothing is written when validation fails.
func Encode(w io.Writer, snap *model.Snapshot, optFns ...func(o *Options)) error {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := Header{
		Magic:       Magic,
		Version:     Version,
		Encoding:    opts.Encoding,
		Compression: opts.Compression,
	}
	if err := h.validate(); err != nil {
		return err
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("checkpoint: encode: %w", err)
	}
	if _, err := conv.IntToUint32(len(snap.Frames)); err != nil {
		return fmt.Errorf("checkpoint: encode: frame count: %w", err)
	}

	body, err := compressBlock(appendBody(nil, snap, opts.Encoding), opts.Compression)
	if err != nil {
		return err
	}
	h.BodyLength = uint64(len(body))
	h.Checksum = Checksum(body)

	if err := WriteHeader(w, &h); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

func appendBody(b []byte, snap *model.Snapshot, enc Encoding) []byte {
	b = appendMatrix(b, snap.Descriptors)

	b = binary.LittleEndian.AppendUint32(b, uint32(len(snap.Frames)))
	for i := range snap.Frames {
		r := &snap.Frames[i]
		b = binary.LittleEndian.AppendUint64(b, r.Seq)
		b = binary.LittleEndian.AppendUint32(b, uint32(len(r.Keypoints)))
		for _, kp := range r.Keypoints {
			if enc == EncodingTagged {
				b = appendTagged(b, kp)
			} else {
				b = appendPositional(b, kp)
			}
		}
		b = binary.LittleEndian.AppendUint32(b, uint32(r.Start))
		b = binary.LittleEndian.AppendUint32(b, uint32(r.End))
	}
	return b
}

// A nil matrix is written as kind 0 with no rows.
func appendMatrix(b []byte, m *model.DescriptorMatrix) []byte {
	if m == nil {
		b = append(b, 0)
		b = binary.LittleEndian.AppendUint32(b, 0)
		return binary.LittleEndian.AppendUint32(b, 0)
	}

	b = append(b, uint8(m.Kind()))
	b = binary.LittleEndian.AppendUint32(b, uint32(m.Rows()))
	b = binary.LittleEndian.AppendUint32(b, uint32(m.Cols()))
	if m.Kind() == model.KindFloat32 {
		for _, f := range m.Floats() {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
		}
		return b
	}
	return append(b, m.Bytes()...)
}

// fieldBits returns the raw 4-byte value of a detection field.
func fieldBits(kp model.Keypoint, tag uint8) uint32 {
	switch tag {
	case TagX:
		return math.Float32bits(kp.X)
	case TagY:
		return math.Float32bits(kp.Y)
	case TagSize:
		return math.Float32bits(kp.Size)
	case TagAngle:
		return math.Float32bits(kp.Angle)
	case TagResponse:
		return math.Float32bits(kp.Response)
	case TagOctave:
		return uint32(kp.Octave)
	default:
		return uint32(kp.ClassID)
	}
}

func appendPositional(b []byte, kp model.Keypoint) []byte {
	b = append(b, numFields)
	for tag := uint8(1); tag <= numFields; tag++ {
		b = binary.LittleEndian.AppendUint32(b, fieldBits(kp, tag))
	}
	return b
}

func appendTagged(b []byte, kp model.Keypoint) []byte {
	b = append(b, numFields)
	for tag := uint8(1); tag <= numFields; tag++ {
		b = append(b, tag)
		b = binary.LittleEndian.AppendUint32(b, fieldBits(kp, tag))
	}
	return b
}
