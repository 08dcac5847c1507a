// File: lixenwraith/cascade/helper.go
package cascade

import "strconv"

// FlatEntry is one leaf of a flattened Value.
type FlatEntry struct {
	Path  string
	Value Value
}

// Flatten converts v into its leaves with dot-notation paths, in document
// order. Sequence elements use their index as path segment. Empty mappings
// and sequences are kept as leaves.
func (v Value) Flatten() []FlatEntry {
	var flat []FlatEntry
	flattenValue(v, "", &flat)
	return flat
}

func flattenValue(v Value, prefix string, flat *[]FlatEntry) {
	switch {
	case v.kind == KindMapping && v.Len() > 0:
		for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
			flattenValue(pair.Value, joinPath(prefix, pair.Key), flat)
		}
	case v.kind == KindSequence && len(v.seq) > 0:
		for i, item := range v.seq {
			flattenValue(item, joinPath(prefix, strconv.Itoa(i)), flat)
		}
	default:
		// Not a container, or an empty one
		*flat = append(*flat, FlatEntry{Path: prefix, Value: v})
	}
}

// joinPath appends a segment to a dot-notation path.
func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}
