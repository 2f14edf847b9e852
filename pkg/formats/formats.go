package formats

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/whit3rabbit/sysmon-helper-cli/pkg/document"
)

// Format identifies one of the two supported serialization formats.
type Format string

const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned when a path has no recognized extension.
var ErrUnknownFormat = fmt.Errorf("unknown config format")

// ParseError wraps a malformed input document.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SerializeError wraps a failure to render a tree.
type SerializeError struct {
	Format Format
	Err    error
}

func (e *SerializeError) Error() string {
	return fmt.Sprintf("serialize %s: %v", e.Format, e.Err)
}

func (e *SerializeError) Unwrap() error { return e.Err }

// Detect determines the format from the file extension, case-insensitively.
func Detect(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Recognized reports whether the path carries a convertible extension.
func Recognized(path string) bool {
	_, err := Detect(path)
	return err == nil
}

// Other returns the opposite format, the default conversion target.
func (f Format) Other() Format {
	if f == FormatXML {
		return FormatJSON
	}
	return FormatXML
}

// Ext returns the canonical file extension for the format.
func (f Format) Ext() string { return "." + string(f) }

// Parse converts raw bytes into a document tree.
func Parse(data []byte, f Format) (*document.Tree, error) {
	switch f {
	case FormatXML:
		return parseXML(data)
	case FormatJSON:
		return parseJSON(data)
	}
	return nil, &ParseError{Format: f, Err: ErrUnknownFormat}
}

// Serialize renders a document tree into the given format.
func Serialize(t *document.Tree, f Format) ([]byte, error) {
	if t == nil || t.Root == nil {
		return nil, &SerializeError{Format: f, Err: fmt.Errorf("empty document")}
	}
	switch f {
	case FormatXML:
		return serializeXML(t)
	case FormatJSON:
		return serializeJSON(t)
	}
	return nil, &SerializeError{Format: f, Err: ErrUnknownFormat}
}
