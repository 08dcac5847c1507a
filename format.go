// FILE: lixenwraith/cascade/format.go
package cascade

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Decoder turns the raw bytes of one config file into a Value.
// A document must decode to a mapping or to null (empty file).
type Decoder interface {
	Decode(data []byte) (Value, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte) (Value, error)

// Decode calls f(data).
func (f DecoderFunc) Decode(data []byte) (Value, error) {
	return f(data)
}

// Format names a decoder family.
type Format string

const (
	FormatYAML       Format = "yaml"
	FormatXML        Format = "xml"
	FormatProperties Format = "properties"
	FormatTOML       Format = "toml"
	FormatJSON       Format = "json"
)

// DefaultFileTypes lists the recognized extensions in search order.
var DefaultFileTypes = []string{"yml", "yaml", "xml", "cnf", "conf", "config", "properties", "toml", "json"}

var extensionFormats = map[string]Format{
	"yml":        FormatYAML,
	"yaml":       FormatYAML,
	"xml":        FormatXML,
	"cnf":        FormatProperties,
	"conf":       FormatProperties,
	"config":     FormatProperties,
	"properties": FormatProperties,
	"toml":       FormatTOML,
	"json":       FormatJSON,
}

var formatDecoders = map[Format]Decoder{
	FormatYAML:       DecoderFunc(decodeYAML),
	FormatXML:        DecoderFunc(decodeXML),
	FormatProperties: DecoderFunc(decodeProperties),
	FormatTOML:       DecoderFunc(decodeTOML),
	FormatJSON:       DecoderFunc(decodeJSON),
}

// FormatForExtension returns the decoder family of a built-in extension.
func FormatForExtension(ext string) (Format, bool) {
	f, ok := extensionFormats[normalizeExt(ext)]
	return f, ok
}

// defaultDecoders returns a fresh extension to decoder table for a Registry.
func defaultDecoders() map[string]Decoder {
	decoders := make(map[string]Decoder, len(extensionFormats))
	for ext, format := range extensionFormats {
		decoders[ext] = formatDecoders[format]
	}
	return decoders
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// RegisterDecoder binds ext to d for this registry. A new extension is also
// appended to the searched file types. Cached data is flushed.
func (r *Registry) RegisterDecoder(ext string, d Decoder) error {
	ext = normalizeExt(ext)
	if ext == "" || d == nil {
		return fmt.Errorf("%w: empty extension or nil decoder", ErrUnknownFileType)
	}

	r.mu.Lock()
	r.decoders[ext] = d
	if !slices.Contains(r.fileTypes, ext) {
		r.fileTypes = append(slices.Clone(r.fileTypes), ext)
	}
	r.mu.Unlock()

	r.Flush()
	return nil
}

// SetFileTypes replaces the searched extensions, in search order.
// Extensions without a decoder are rejected.
func (r *Registry) SetFileTypes(exts ...string) error {
	normalized := make([]string, 0, len(exts))

	r.mu.Lock()
	for _, ext := range exts {
		ext = normalizeExt(ext)
		if _, ok := r.decoders[ext]; !ok {
			r.mu.Unlock()
			return fmt.Errorf("%w '%s'", ErrUnknownFileType, ext)
		}
		normalized = append(normalized, ext)
	}
	r.fileTypes = uniqueStrings(normalized)
	r.mu.Unlock()

	r.Flush()
	return nil
}

// FileTypes returns the searched extensions in search order.
func (r *Registry) FileTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.fileTypes)
}

// KnownFileTypes returns every extension with a decoder, sorted.
func (r *Registry) KnownFileTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.decoders))
}

// decodeFile runs the decoder for ext over data. The result is always a mapping.
func (r *Registry) decodeFile(path, ext string, data []byte) (Value, error) {
	r.mu.RLock()
	d, ok := r.decoders[ext]
	r.mu.RUnlock()
	if !ok {
		return Value{}, fmt.Errorf("%w '%s' for file '%s'", ErrUnknownFileType, ext, path)
	}

	v, err := d.Decode(data)
	if err != nil {
		return Value{}, fmt.Errorf("%w '%s': %w", ErrParse, path, err)
	}

	switch v.Kind() {
	case KindNull:
		return NewMapping(), nil
	case KindMapping:
		return v, nil
	default:
		return Value{}, fmt.Errorf("%w: file '%s' decoded to %s", ErrNotMapping, path, v.Kind())
	}
}
