// FILE: lixenwraith/cascade/format_yaml.go
package cascade

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// maxYAMLNodes caps the number of nodes a document may expand to once
// aliases are resolved.
const maxYAMLNodes = 1 << 20

// decodeYAML parses a YAML document keeping mapping key order.
// Aliases are expanded and merge keys (<<) are applied.
// Sequence keys are stored under their TupleKey rendering.
// Timestamps stay strings.
func decodeYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, err
	}
	if doc.Kind == 0 {
		return Value{}, nil
	}
	d := &yamlDecoder{expanding: make(map[*yaml.Node]bool)}
	return d.value(&doc)
}

// yamlDecoder walks a node tree. expanding holds the alias targets on the
// current path; nodes counts every node visited, aliases included.
type yamlDecoder struct {
	expanding map[*yaml.Node]bool
	nodes     int
}

func (d *yamlDecoder) visit(n *yaml.Node) error {
	d.nodes++
	if d.nodes > maxYAMLNodes {
		return fmt.Errorf("line %d: document expands to more than %d nodes", n.Line, maxYAMLNodes)
	}
	return nil
}

// deref resolves an alias to its target and marks the target as being
// expanded. The returned func unmarks it.
func (d *yamlDecoder) deref(n *yaml.Node) (*yaml.Node, func(), error) {
	if n.Alias == nil {
		return nil, nil, fmt.Errorf("line %d: unresolved alias '%s'", n.Line, n.Value)
	}
	target := n.Alias
	if d.expanding[target] {
		return nil, nil, fmt.Errorf("line %d: anchor '%s' value contains itself", n.Line, n.Value)
	}
	d.expanding[target] = true
	return target, func() { delete(d.expanding, target) }, nil
}

func (d *yamlDecoder) value(n *yaml.Node) (Value, error) {
	if err := d.visit(n); err != nil {
		return Value{}, err
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Value{}, nil
		}
		return d.value(n.Content[0])

	case yaml.AliasNode:
		target, done, err := d.deref(n)
		if err != nil {
			return Value{}, err
		}
		defer done()
		return d.value(target)

	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return Value{}, nil
		case "!!timestamp":
			return NewScalar(n.Value), nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return Value{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return NewScalar(v), nil

	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := d.value(child)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return sequenceOf(items), nil

	case yaml.MappingNode:
		om := newOrderedMap(len(n.Content) / 2)
		var merges []*yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valueNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind == yaml.ScalarNode && keyNode.ShortTag() == "!!merge" {
				merges = append(merges, valueNode)
				continue
			}

			key, err := d.key(keyNode)
			if err != nil {
				return Value{}, err
			}
			v, err := d.value(valueNode)
			if err != nil {
				return Value{}, err
			}
			om.Set(key, v)
		}

		for _, m := range merges {
			if err := d.merge(om, m); err != nil {
				return Value{}, err
			}
		}
		return mappingOf(om), nil
	}

	return Value{}, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
}

func (d *yamlDecoder) key(n *yaml.Node) (string, error) {
	if err := d.visit(n); err != nil {
		return "", err
	}

	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil
	case yaml.AliasNode:
		target, done, err := d.deref(n)
		if err != nil {
			return "", err
		}
		defer done()
		return d.key(target)
	case yaml.SequenceNode:
		parts := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			part, err := d.key(child)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		return TupleKey(parts...), nil
	default:
		return "", fmt.Errorf("line %d: mapping keys are not supported", n.Line)
	}
}

// merge copies keys from a merge source that om does not define yet.
// A sequence of sources is applied in order, earlier sources winning.
func (d *yamlDecoder) merge(om *orderedmap.OrderedMap[string, Value], src *yaml.Node) error {
	if src.Kind == yaml.AliasNode {
		target, done, err := d.deref(src)
		if err != nil {
			return err
		}
		defer done()
		src = target
	}

	switch src.Kind {
	case yaml.MappingNode:
		v, err := d.value(src)
		if err != nil {
			return err
		}
		for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
			if _, exists := om.Get(pair.Key); !exists {
				om.Set(pair.Key, pair.Value)
			}
		}
		return nil
	case yaml.SequenceNode:
		for _, item := range src.Content {
			if err := d.merge(om, item); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("line %d: merge key requires a mapping or sequence of mappings", src.Line)
	}
}
