// Package persist stores revision logs on disk behind pluggable codecs.
// The codec is selected from the target path's extension: .json for a
// readable document, .gob for compact binary, .lz4 for LZ4-compressed
// binary (conventionally named .gob.lz4).
package persist

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/strata/pkg/history"
)

// File extensions for the supported codecs.
const (
	jsonExtension = ".json"
	gobExtension  = ".gob"
	lz4Extension  = ".lz4"
)

// Default indentation for pretty-printed JSON.
const defaultIndent = "  "

// ErrUnknownFormat is returned when a path carries no recognized codec
// extension.
var ErrUnknownFormat = errors.New("unknown log format")

// Codec defines how a revision log is serialized and deserialized.
type Codec interface {
	// Encode writes the log to the writer.
	Encode(w io.Writer, log history.Log) error
	// Decode reads a log from the reader.
	Decode(r io.Reader) (history.Log, error)
	// Extension returns the file extension selecting this codec.
	Extension() string
}

// ForPath picks the codec matching the path's extension.
func ForPath(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case jsonExtension:
		return NewJSONCodec(), nil
	case gobExtension:
		return NewGobCodec(), nil
	case lz4Extension:
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// JSONCodec implements Codec as a readable JSON document.
type JSONCodec struct {
	// Indent specifies the indentation string. Empty string means compact JSON.
	Indent string
}

// NewJSONCodec creates a JSON codec with pretty-printing (2-space indent).
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: defaultIndent}
}

// Encode implements Codec.Encode using JSON encoding.
func (c *JSONCodec) Encode(w io.Writer, log history.Log) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	err := encoder.Encode(toWire(log))
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using JSON decoding.
func (c *JSONCodec) Decode(r io.Reader) (history.Log, error) {
	var doc wireLog

	err := json.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}

	return fromWire(doc)
}

// Extension implements Codec.Extension for JSON files.
func (c *JSONCodec) Extension() string {
	return jsonExtension
}

// GobCodec implements Codec using gob encoding.
type GobCodec struct{}

// NewGobCodec creates a gob codec.
func NewGobCodec() *GobCodec {
	return &GobCodec{}
}

// Encode implements Codec.Encode using gob encoding.
func (c *GobCodec) Encode(w io.Writer, log history.Log) error {
	err := gob.NewEncoder(w).Encode(toWire(log))
	if err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using gob decoding.
func (c *GobCodec) Decode(r io.Reader) (history.Log, error) {
	var doc wireLog

	err := gob.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}

	return fromWire(doc)
}

// Extension implements Codec.Extension for gob files.
func (c *GobCodec) Extension() string {
	return gobExtension
}

// LZ4Codec implements Codec as gob encoding inside an LZ4 frame.
type LZ4Codec struct{}

// NewLZ4Codec creates an LZ4-compressed gob codec.
func NewLZ4Codec() *LZ4Codec {
	return &LZ4Codec{}
}

// Encode implements Codec.Encode, compressing the gob stream with LZ4.
func (c *LZ4Codec) Encode(w io.Writer, log history.Log) error {
	zw := lz4.NewWriter(w)

	err := gob.NewEncoder(zw).Encode(toWire(log))
	if err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}

	// Close flushes the final LZ4 block; without it the frame is torn.
	err = zw.Close()
	if err != nil {
		return fmt.Errorf("lz4 close: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode for LZ4-compressed gob streams.
func (c *LZ4Codec) Decode(r io.Reader) (history.Log, error) {
	var doc wireLog

	err := gob.NewDecoder(lz4.NewReader(r)).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}

	return fromWire(doc)
}

// Extension implements Codec.Extension for LZ4-compressed files.
func (c *LZ4Codec) Extension() string {
	return lz4Extension
}
