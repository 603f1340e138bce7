package checkpoint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic identifies a checkpoint artifact.
var Magic = [4]byte{'K', 'G', 'C', 'P'}

const (
	// Version is the current format version.
	Version uint16 = 1
	// HeaderSize is the encoded size of Header.
	HeaderSize = 20
)

// Encoding selects the detection layout.
type Encoding uint8

const (
	// EncodingPositional writes the seven detection fields in fixed order.
	EncodingPositional Encoding = 1
	// EncodingTagged prefixes every detection field with its tag.
	EncodingTagged Encoding = 2
)

func (e Encoding) String() string {
	switch e {
	case EncodingPositional:
		return "positional"
	case EncodingTagged:
		return "tagged"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(e))
	}
}

// ParseEncoding parses "positional" or "tagged". Empty selects positional.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "", "positional":
		return EncodingPositional, nil
	case "tagged":
		return EncodingTagged, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
}

// Compression selects the body compression.
type Compression uint8

const (
	// CompressionNone stores the body as is.
	CompressionNone Compression = 0
	// CompressionLZ4 compresses the body with LZ4 (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD compresses the body with Zstandard (better ratio).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "lz4" or "zstd". Empty selects none.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
}

var (
	// ErrInvalidMagic is returned when the input is not a checkpoint.
	ErrInvalidMagic = errors.New("checkpoint: invalid magic")
	// ErrUnsupportedVersion is returned for artifacts written by a newer format.
	ErrUnsupportedVersion = errors.New("checkpoint: unsupported version")
	// ErrUnknownEncoding is returned for an unknown detection encoding.
	ErrUnknownEncoding = errors.New("checkpoint: unknown encoding")
	// ErrUnknownCompression is returned for an unknown compression.
	ErrUnknownCompression = errors.New("checkpoint: unknown compression")
	// ErrTruncated is returned when the input ends before a complete value.
	ErrTruncated = errors.New("checkpoint: truncated data")
	// ErrTrailingData is returned when bytes follow the last frame record.
	ErrTrailingData = errors.New("checkpoint: trailing data")
)

// Header is the fixed artifact header.
type Header struct {
	Magic       [4]byte
	Version     uint16
	Encoding    Encoding
	Compression Compression
	// BodyLength is the stored (possibly compressed) body size.
	BodyLength uint64
	// Checksum is the CRC32 of the stored body.
	Checksum uint32
}

func (h *Header) validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("%w: got %q", ErrInvalidMagic, h.Magic[:])
	}
	if h.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.Encoding != EncodingPositional && h.Encoding != EncodingTagged {
		return fmt.Errorf("%w: %d", ErrUnknownEncoding, uint8(h.Encoding))
	}
	if h.Compression > CompressionZSTD {
		return fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(h.Compression))
	}
	return nil
}

// WriteHeader writes h in its 20-byte form.
func WriteHeader(w io.Writer, h *Header) error {
	return binary.Write(w, binary.LittleEndian, h)
}

// ReadHeader reads and validates the header at the start of r.
func ReadHeader(r io.Reader) (*Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: header", ErrTruncated)
		}
		return nil, err
	}
	if err := h.validate(); err != nil {
		return nil, err
	}
	return &h, nil
}

// Detection field tags, also the positional order.
const (
	TagX        uint8 = 1
	TagY        uint8 = 2
	TagSize     uint8 = 3
	TagAngle    uint8 = 4
	TagResponse uint8 = 5
	TagOctave   uint8 = 6
	TagClassID  uint8 = 7

	numFields = 7
)

var fieldNames = [numFields + 1]string{"", "x", "y", "size", "angle", "response", "octave", "class_id"}

// FieldName returns the name of a detection field tag.
func FieldName(tag uint8) string {
	if tag == 0 || tag > numFields {
		return fmt.Sprintf("tag %d", tag)
	}
	return fieldNames[tag]
}

// Field error operations.
const (
	FieldMissing   = "missing"
	FieldDuplicate = "duplicate"
	FieldUnknown   = "unknown"
	FieldTrailing  = "trailing"
)

// FieldError reports a malformed detection.
type FieldError struct {
	Op        string // FieldMissing, FieldDuplicate, FieldUnknown or FieldTrailing
	Field     string
	Frame     int // position of the frame record
	Detection int // position of the detection within the frame
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("checkpoint: frame %d detection %d: %s field %s", e.Frame, e.Detection, e.Op, e.Field)
}
