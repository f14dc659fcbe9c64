// Package tracefile saves and loads trace documents in several encodings and
// verifies them on load.
package tracefile

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
)

// File extensions for supported codecs.
const (
	jsonExtension = ".json"
	yamlExtension = ".yaml"
	ymlExtension  = ".yml"
	gobExtension  = ".gob"
	lz4Extension  = ".lz4"
)

// Codec names accepted by CodecByName.
const (
	NameJSON = "json"
	NameYAML = "yaml"
	NameGob  = "gob"
	NameLZ4  = "lz4"
)

// Default indentation for pretty-printed output.
const (
	defaultIndent     = "  "
	defaultYAMLIndent = 2
)

// ErrUnknownCodec is returned when no codec matches a name or extension.
var ErrUnknownCodec = errors.New("unknown trace file codec")

// Codec defines how a document is serialized and deserialized.
type Codec interface {
	// Encode writes v to the writer.
	Encode(w io.Writer, v any) error
	// Decode reads into v from the reader.
	Decode(r io.Reader, v any) error
	// Extension returns the file extension for this codec (e.g., ".json").
	Extension() string
	// Name returns the short codec name.
	Name() string
}

// JSONCodec implements Codec using JSON encoding with optional indentation.
type JSONCodec struct {
	// Indent specifies the indentation string. Empty string means compact JSON.
	Indent string
}

// NewJSONCodec creates a JSON codec with pretty-printing (2-space indent).
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: defaultIndent}
}

// Encode implements Codec.Encode using JSON encoding.
func (c *JSONCodec) Encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using JSON decoding.
func (c *JSONCodec) Decode(r io.Reader, v any) error {
	err := json.NewDecoder(r).Decode(v)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension.
func (c *JSONCodec) Extension() string { return jsonExtension }

// Name implements Codec.Name.
func (c *JSONCodec) Name() string { return NameJSON }

// YAMLCodec implements Codec using gopkg.in/yaml.v3.
type YAMLCodec struct{}

// NewYAMLCodec creates a YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Encode implements Codec.Encode using YAML encoding.
func (c *YAMLCodec) Encode(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(defaultYAMLIndent)

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	err = encoder.Close()
	if err != nil {
		return fmt.Errorf("yaml close: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using YAML decoding.
func (c *YAMLCodec) Decode(r io.Reader, v any) error {
	err := yaml.NewDecoder(r).Decode(v)
	if err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension.
func (c *YAMLCodec) Extension() string { return yamlExtension }

// Name implements Codec.Name.
func (c *YAMLCodec) Name() string { return NameYAML }

// GobCodec implements Codec using gob encoding.
type GobCodec struct{}

// NewGobCodec creates a gob codec.
func NewGobCodec() *GobCodec {
	return &GobCodec{}
}

// Encode implements Codec.Encode using gob encoding.
func (c *GobCodec) Encode(w io.Writer, v any) error {
	err := gob.NewEncoder(w).Encode(v)
	if err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using gob decoding.
func (c *GobCodec) Decode(r io.Reader, v any) error {
	err := gob.NewDecoder(r).Decode(v)
	if err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension.
func (c *GobCodec) Extension() string { return gobExtension }

// Name implements Codec.Name.
func (c *GobCodec) Name() string { return NameGob }

// LZ4Codec stores compact JSON inside an LZ4 frame.
type LZ4Codec struct {
	inner JSONCodec
}

// NewLZ4Codec creates an LZ4-compressed JSON codec.
func NewLZ4Codec() *LZ4Codec {
	return &LZ4Codec{}
}

// Encode implements Codec.Encode.
func (c *LZ4Codec) Encode(w io.Writer, v any) error {
	zw := lz4.NewWriter(w)

	err := c.inner.Encode(zw, v)
	if err != nil {
		return err
	}

	err = zw.Close()
	if err != nil {
		return fmt.Errorf("lz4 close: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode.
func (c *LZ4Codec) Decode(r io.Reader, v any) error {
	return c.inner.Decode(lz4.NewReader(r), v)
}

// Extension implements Codec.Extension.
func (c *LZ4Codec) Extension() string { return lz4Extension }

// Name implements Codec.Name.
func (c *LZ4Codec) Name() string { return NameLZ4 }

// CodecByName returns the codec registered under name.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case NameJSON:
		return NewJSONCodec(), nil
	case NameYAML, "yml":
		return NewYAMLCodec(), nil
	case NameGob:
		return NewGobCodec(), nil
	case NameLZ4, "bin":
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// CodecFor picks a codec from the file extension of path.
func CodecFor(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case jsonExtension:
		return NewJSONCodec(), nil
	case yamlExtension, ymlExtension:
		return NewYAMLCodec(), nil
	case gobExtension:
		return NewGobCodec(), nil
	case lz4Extension:
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("%w: extension of %q", ErrUnknownCodec, path)
	}
}
