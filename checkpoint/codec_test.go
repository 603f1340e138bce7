package checkpoint

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/keygraph/model"
	"github.com/hupe1980/keygraph/testutil"
)

func encode(t *testing.T, snap *model.Snapshot, optFns ...func(o *Options)) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, snap, optFns...))
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(42)
	snapshots := map[string]*model.Snapshot{
		"Binary":  rng.RandomBinarySnapshot(12, 20, 32),
		"Float":   rng.RandomFloatSnapshot(8, 10, 16),
		"Empty":   {},
		"NoRows":  testutil.BinarySnapshot(32, nil, nil),
		"OneRow":  testutil.BinarySnapshot(4, [][]byte{{1, 2, 3, 4}}),
		"Special": specialFloats(),
	}

	for name, snap := range snapshots {
		for _, enc := range []Encoding{EncodingPositional, EncodingTagged} {
			for _, comp := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
				t.Run(name+"/"+enc.String()+"/"+comp.String(), func(t *testing.T) {
					data := encode(t, snap, WithEncoding(enc), WithCompression(comp))

					got, err := DecodeBytes(data)
					require.NoError(t, err)
					if snap.Descriptors == nil {
						assert.Nil(t, got.Descriptors)
						assert.Empty(t, got.Frames)
						return
					}
					assert.True(t, snap.Equal(got), "decoded snapshot differs")
				})
			}
		}
	}
}

// specialFloats carries NaN, infinities and negative zero through keypoints and descriptors.
func specialFloats() *model.Snapshot {
	snap := testutil.FloatSnapshot(4, [][]float32{
		{float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1)), float32(math.Copysign(0, -1))},
	})
	snap.Frames[0].Keypoints[0] = model.Keypoint{
		X: float32(math.NaN()), Y: math.MaxFloat32, Size: math.SmallestNonzeroFloat32,
		Angle: -1, Response: float32(math.Copysign(0, -1)), Octave: math.MinInt32, ClassID: math.MaxInt32,
	}
	return snap
}

func TestEncode_Compresses(t *testing.T) {
	rows := make([][]byte, 200)
	for i := range rows {
		rows[i] = make([]byte, 32) // all zero, highly compressible
	}
	snap := testutil.BinarySnapshot(32, rows)

	plain := encode(t, snap)
	for _, comp := range []Compression{CompressionLZ4, CompressionZSTD} {
		assert.Less(t, len(encode(t, snap, WithCompression(comp))), len(plain), comp.String())
	}
}

func TestEncode_RejectsInvalidSnapshot(t *testing.T) {
	snap := testutil.BinarySnapshot(1, [][]byte{{1}}, [][]byte{{2}})
	snap.Frames[1].Seq = 0

	var buf bytes.Buffer
	err := Encode(&buf, snap)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, model.InvariantFrameOrder, verr.Invariant)
	assert.Zero(t, buf.Len(), "nothing is written for an invalid snapshot")
}

func TestEncode_RejectsUnknownOptions(t *testing.T) {
	snap := testutil.BinarySnapshot(1, [][]byte{{1}})
	var buf bytes.Buffer
	assert.ErrorIs(t, Encode(&buf, snap, WithEncoding(9)), ErrUnknownEncoding)
	assert.ErrorIs(t, Encode(&buf, snap, WithCompression(9)), ErrUnknownCompression)
}

func TestReadHeader(t *testing.T) {
	snap := testutil.BinarySnapshot(2, [][]byte{{1, 2}})
	data := encode(t, snap, WithEncoding(EncodingTagged), WithCompression(CompressionZSTD))

	h, err := ReadHeader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Magic, h.Magic)
	assert.Equal(t, Version, h.Version)
	assert.Equal(t, EncodingTagged, h.Encoding)
	assert.Equal(t, CompressionZSTD, h.Compression)
	assert.Equal(t, uint64(len(data)-HeaderSize), h.BodyLength)

	tests := []struct {
		name   string
		mutate func(b []byte)
		err    error
	}{
		{name: "Magic", mutate: func(b []byte) { b[0] = 'X' }, err: ErrInvalidMagic},
		{name: "Version", mutate: func(b []byte) { b[4] = 2 }, err: ErrUnsupportedVersion},
		{name: "Encoding", mutate: func(b []byte) { b[6] = 3 }, err: ErrUnknownEncoding},
		{name: "Compression", mutate: func(b []byte) { b[7] = 3 }, err: ErrUnknownCompression},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bytes.Clone(data)
			tt.mutate(b)
			_, err := DecodeBytes(b)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("Short", func(t *testing.T) {
		_, err := DecodeBytes(data[:HeaderSize-1])
		assert.ErrorIs(t, err, ErrTruncated)
	})
}

func TestDecode_ChecksumMismatch(t *testing.T) {
	snap := testutil.NewRNG(1).RandomBinarySnapshot(4, 8, 32)
	data := encode(t, snap)
	data[len(data)-3] ^= 0xFF

	_, err := DecodeBytes(data)
	require.Error(t, err)
	assert.True(t, IsChecksumMismatch(err))
}

func TestDecode_TruncatedBody(t *testing.T) {
	snap := testutil.NewRNG(2).RandomBinarySnapshot(4, 8, 32)
	data := encode(t, snap)

	_, err := DecodeBytes(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecode_TrailingData(t *testing.T) {
	data := encode(t, testutil.BinarySnapshot(1, [][]byte{{7}}))
	_, err := DecodeBytes(append(data, 0))
	assert.ErrorIs(t, err, ErrTrailingData)
}

// artifact wraps a hand-built body in a valid header.
func artifact(enc Encoding, body []byte) []byte {
	var buf bytes.Buffer
	h := Header{Magic: Magic, Version: Version, Encoding: enc, BodyLength: uint64(len(body)), Checksum: Checksum(body)}
	_ = WriteHeader(&buf, &h)
	buf.Write(body)
	return buf.Bytes()
}

// oneDetectionBody is a single-row binary matrix and one frame owning it.
func oneDetectionBody(detection []byte) []byte {
	b := []byte{uint8(model.KindBinary)}
	b = binary.LittleEndian.AppendUint32(b, 1) // rows
	b = binary.LittleEndian.AppendUint32(b, 1) // cols
	b = append(b, 0xAA)
	b = binary.LittleEndian.AppendUint32(b, 1) // frames
	b = binary.LittleEndian.AppendUint64(b, 0) // seq
	b = binary.LittleEndian.AppendUint32(b, 1) // detections
	b = append(b, detection...)
	b = binary.LittleEndian.AppendUint32(b, 0) // start
	return binary.LittleEndian.AppendUint32(b, 1)
}

func tagged(tags ...uint8) []byte {
	b := []byte{uint8(len(tags))}
	for _, tag := range tags {
		b = append(b, tag)
		b = binary.LittleEndian.AppendUint32(b, uint32(tag))
	}
	return b
}

func positional(count uint8) []byte {
	b := []byte{count}
	for i := range count {
		b = binary.LittleEndian.AppendUint32(b, uint32(i)+1)
	}
	return b
}

func TestDecode_FieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		enc       Encoding
		detection []byte
		op        string
		field     string
	}{
		{name: "TaggedComplete", enc: EncodingTagged, detection: tagged(1, 2, 3, 4, 5, 6, 7)},
		{name: "TaggedAnyOrder", enc: EncodingTagged, detection: tagged(7, 6, 5, 4, 3, 2, 1)},
		{name: "TaggedMissing", enc: EncodingTagged, detection: tagged(1, 2, 3, 4, 5, 7), op: FieldMissing, field: "octave"},
		{name: "TaggedDuplicate", enc: EncodingTagged, detection: tagged(1, 2, 2, 3, 4, 5, 6, 7), op: FieldDuplicate, field: "y"},
		{name: "TaggedUnknown", enc: EncodingTagged, detection: tagged(1, 2, 3, 9, 4, 5, 6, 7), op: FieldUnknown, field: "tag 9"},
		{name: "TaggedEmpty", enc: EncodingTagged, detection: tagged(), op: FieldMissing, field: "x"},
		{name: "PositionalComplete", enc: EncodingPositional, detection: positional(7)},
		{name: "PositionalShort", enc: EncodingPositional, detection: positional(6), op: FieldMissing, field: "class_id"},
		{name: "PositionalLong", enc: EncodingPositional, detection: positional(8), op: FieldTrailing, field: "#8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := DecodeBytes(artifact(tt.enc, oneDetectionBody(tt.detection)))
			if tt.op == "" {
				require.NoError(t, err)
				require.Len(t, snap.Frames, 1)
				kp := snap.Frames[0].Keypoints[0]
				assert.Equal(t, int32(6), kp.Octave)
				assert.Equal(t, int32(7), kp.ClassID)
				return
			}
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.op, fe.Op)
			assert.Equal(t, tt.field, fe.Field)
			assert.Equal(t, 0, fe.Frame)
			assert.Equal(t, 0, fe.Detection)
		})
	}
}

func TestDecode_ValidatesTiling(t *testing.T) {
	body := oneDetectionBody(positional(7))
	// Range [0,2) for one detection.
	binary.LittleEndian.PutUint32(body[len(body)-4:], 2)

	_, err := DecodeBytes(artifact(EncodingPositional, body))
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, model.InvariantRangeLength, verr.Invariant)
}

func TestDecode_HugeCountsAreTruncation(t *testing.T) {
	b := []byte{uint8(model.KindBinary)}
	b = binary.LittleEndian.AppendUint32(b, math.MaxUint32)
	b = binary.LittleEndian.AppendUint32(b, math.MaxUint32)

	_, err := DecodeBytes(artifact(EncodingPositional, b))
	assert.ErrorIs(t, err, ErrTruncated)

	b = []byte{0}
	b = binary.LittleEndian.AppendUint32(b, 0)
	b = binary.LittleEndian.AppendUint32(b, 0)
	b = binary.LittleEndian.AppendUint32(b, math.MaxUint32)
	_, err = DecodeBytes(artifact(EncodingPositional, b))
	assert.ErrorIs(t, err, ErrTruncated)

	// 2^31 x 2^31 float32 elements is 2^64 bytes and must not wrap to zero.
	b = []byte{uint8(model.KindFloat32)}
	b = binary.LittleEndian.AppendUint32(b, 1<<31)
	b = binary.LittleEndian.AppendUint32(b, 1<<31)
	b = binary.LittleEndian.AppendUint32(b, 0)
	snap, err := DecodeBytes(artifact(EncodingPositional, b))
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Nil(t, snap)
}

func TestParseEncodingCompression(t *testing.T) {
	e, err := ParseEncoding("tagged")
	require.NoError(t, err)
	assert.Equal(t, EncodingTagged, e)
	_, err = ParseEncoding("protobuf")
	assert.ErrorIs(t, err, ErrUnknownEncoding)

	c, err := ParseCompression("zstd")
	require.NoError(t, err)
	assert.Equal(t, CompressionZSTD, c)
	c, err = ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, c)
	_, err = ParseCompression("gzip")
	assert.ErrorIs(t, err, ErrUnknownCompression)
}
