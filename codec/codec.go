// Package codec centralizes the encoding of reports such as graph summaries.
//
// Codecs are selected by a stable name so the CLI and config files can refer
// to them ("json", "go-json").
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json", "":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Names lists the built-in codec names.
func Names() []string { return []string{"json", "go-json"} }

// Indent returns c configured to indent its output. Codecs without indentation
// support are returned unchanged.
func Indent(c Codec, indent string) Codec {
	switch c := c.(type) {
	case JSON:
		c.Indent = indent
		return c
	case GoJSON:
		c.Indent = indent
		return c
	default:
		return c
	}
}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
