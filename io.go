// File: lixenwraith/cascade/io.go
package cascade

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Dump renders the merged config for name in the given format.
// Properties and XML output are not supported.
func (r *Registry) Dump(name string, format Format) ([]byte, error) {
	v, err := r.Config(name)
	if err != nil {
		return nil, err
	}
	return Marshal(v, format)
}

// Save writes the merged config for name to path atomically. The format is
// taken from the file extension.
func (r *Registry) Save(name, path string) error {
	format, ok := FormatForExtension(filepath.Ext(path))
	if !ok {
		return fmt.Errorf("%w '%s'", ErrUnknownFileType, filepath.Ext(path))
	}

	data, err := r.Dump(name, format)
	if err != nil {
		return err
	}
	return atomicWriteFile(r.fs, path, data)
}

// Marshal encodes v as YAML, JSON or TOML, keeping mapping key order where the format allows.
func Marshal(v Value, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		node, err := yamlNodeOf(v)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return nil, fmt.Errorf("failed to marshal config data to YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal config data to YAML: %w", err)
		}
		return buf.Bytes(), nil

	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config data to JSON: %w", err)
		}
		return append(data, '\n'), nil

	case FormatTOML:
		if !v.IsMapping() && !v.IsNull() {
			return nil, fmt.Errorf("%w: TOML documents must be mappings", ErrNotMapping)
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(withoutNulls(v).Interface()); err != nil {
			return nil, fmt.Errorf("failed to marshal config data to TOML: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("%w: cannot encode format '%s'", ErrUnknownFileType, format)
	}
}

// MarshalJSON encodes v with mapping keys in insertion order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindScalar:
		return json.Marshal(v.scalar)
	case KindSequence:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			data, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(data)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		buf.WriteByte('{')
		if v.m != nil {
			first := true
			for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
				if !first {
					buf.WriteByte(',')
				}
				first = false
				key, err := json.Marshal(pair.Key)
				if err != nil {
					return nil, err
				}
				buf.Write(key)
				buf.WriteByte(':')
				data, err := pair.Value.MarshalJSON()
				if err != nil {
					return nil, err
				}
				buf.Write(data)
			}
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
}

// MarshalYAML encodes v with mapping keys in insertion order.
func (v Value) MarshalYAML() (any, error) {
	return yamlNodeOf(v)
}

func yamlNodeOf(v Value) (*yaml.Node, error) {
	switch v.kind {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case KindScalar:
		node := &yaml.Node{}
		if err := node.Encode(v.scalar); err != nil {
			return nil, err
		}
		return node, nil
	case KindSequence:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.seq {
			child, err := yamlNodeOf(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	default:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if v.m != nil {
			for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
				child, err := yamlNodeOf(pair.Value)
				if err != nil {
					return nil, err
				}
				key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key}
				node.Content = append(node.Content, key, child)
			}
		}
		return node, nil
	}
}

// withoutNulls drops null mapping entries and sequence elements, which TOML cannot express.
func withoutNulls(v Value) Value {
	switch v.kind {
	case KindSequence:
		items := make([]Value, 0, len(v.seq))
		for _, item := range v.seq {
			if !item.IsNull() {
				items = append(items, withoutNulls(item))
			}
		}
		return sequenceOf(items)
	case KindMapping:
		om := newOrderedMap(v.Len())
		if v.m != nil {
			for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
				if !pair.Value.IsNull() {
					om.Set(pair.Key, withoutNulls(pair.Value))
				}
			}
		}
		return mappingOf(om)
	default:
		return v
	}
}

// atomicWriteFile writes data to a temporary file next to path and renames it into place.
func atomicWriteFile(fsys afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := afero.TempFile(fsys, dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	renamed := false
	defer func() {
		if !renamed {
			_ = fsys.Remove(tempPath) // Clean up on any error
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := fsys.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := fsys.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	renamed = true

	return nil
}
