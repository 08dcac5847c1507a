// FILE: lixenwraith/cascade/format_toml.go
package cascade

import (
	"cmp"
	"slices"

	"github.com/BurntSushi/toml"
)

// decodeTOML parses a TOML document. Key order follows the document, taken
// from the decoder metadata since the decoded maps are unordered.
func decodeTOML(data []byte) (Value, error) {
	raw := make(map[string]any)
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return Value{}, err
	}

	order := make(map[string]int)
	for i, key := range md.Keys() {
		if _, seen := order[key.String()]; !seen {
			order[key.String()] = i
		}
	}

	return tomlValue(raw, nil, order), nil
}

func tomlValue(v any, prefix toml.Key, order map[string]int) Value {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		position := func(k string) int {
			if i, ok := order[tomlChildKey(prefix, k).String()]; ok {
				return i
			}
			return len(order)
		}
		slices.SortFunc(keys, func(a, b string) int {
			if c := cmp.Compare(position(a), position(b)); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})

		om := newOrderedMap(len(keys))
		for _, k := range keys {
			om.Set(k, tomlValue(t[k], tomlChildKey(prefix, k), order))
		}
		return mappingOf(om)

	case []map[string]any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = tomlValue(item, prefix, order)
		}
		return sequenceOf(items)

	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = tomlValue(item, prefix, order)
		}
		return sequenceOf(items)

	default:
		return NewScalar(v)
	}
}

func tomlChildKey(prefix toml.Key, k string) toml.Key {
	key := make(toml.Key, len(prefix), len(prefix)+1)
	copy(key, prefix)
	return append(key, k)
}
