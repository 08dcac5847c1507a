// FILE: lixenwraith/cascade/weave.go
package cascade

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Weave deep-merges overlay into base and returns the result.
// Neither argument is modified. Both must be mappings; a null base acts as an
// empty mapping and a null overlay returns base unchanged.
//
// Without clobber, sequences are concatenated (base first), a scalar woven with
// a sequence is prepended to it and a mapping woven with a sequence is an
// ErrWeaveConflict. With clobber the overlay replaces everything except
// mapping-on-mapping, which always recurses.
func Weave(base, overlay Value, clobber bool) (Value, error) {
	if base.IsNull() {
		base = NewMapping()
	}
	if !base.IsMapping() {
		return Value{}, fmt.Errorf("%w: cannot weave into %s", ErrNotMapping, base.Kind())
	}
	if overlay.IsNull() {
		return base, nil
	}
	if !overlay.IsMapping() {
		return Value{}, fmt.Errorf("%w: cannot weave %s into mapping", ErrNotMapping, overlay.Kind())
	}
	return weaveMapping(base, overlay, clobber, nil)
}

// WeaveAll folds values from an empty mapping in order, later values taking precedence.
func WeaveAll(values []Value, clobber bool) (Value, error) {
	result := NewMapping()
	for _, v := range values {
		woven, err := Weave(result, v, clobber)
		if err != nil {
			return Value{}, err
		}
		result = woven
	}
	return result, nil
}

func weaveMapping(base, overlay Value, clobber bool, path []string) (Value, error) {
	var out *orderedmap.OrderedMap[string, Value]
	if base.m != nil {
		out = cloneOrderedMap(base.m)
	} else {
		out = newOrderedMap(overlay.Len())
	}

	if overlay.m == nil {
		return mappingOf(out), nil
	}

	for pair := overlay.m.Oldest(); pair != nil; pair = pair.Next() {
		existing, found := out.Get(pair.Key)
		if !found || existing.IsNull() {
			out.Set(pair.Key, pair.Value)
			continue
		}

		keyPath := make([]string, len(path)+1)
		copy(keyPath, path)
		keyPath[len(path)] = pair.Key

		woven, err := weaveNode(existing, pair.Value, clobber, keyPath)
		if err != nil {
			return Value{}, err
		}
		out.Set(pair.Key, woven)
	}

	return mappingOf(out), nil
}

func weaveNode(base, overlay Value, clobber bool, path []string) (Value, error) {
	switch base.kind {
	case KindMapping:
		switch {
		case overlay.kind == KindMapping:
			return weaveMapping(base, overlay, clobber, path)
		case overlay.kind == KindSequence && !clobber:
			return Value{}, fmt.Errorf("%w at '%s'", ErrWeaveConflict, strings.Join(path, "."))
		default:
			return overlay, nil
		}

	case KindSequence:
		if clobber {
			return overlay, nil
		}
		if overlay.kind == KindSequence {
			items := make([]Value, 0, len(base.seq)+len(overlay.seq))
			items = append(items, base.seq...)
			items = append(items, overlay.seq...)
			return sequenceOf(items), nil
		}
		items := make([]Value, 0, len(base.seq)+1)
		items = append(items, base.seq...)
		items = append(items, overlay)
		return sequenceOf(items), nil

	default:
		if overlay.kind == KindSequence && !clobber {
			items := make([]Value, 0, len(overlay.seq)+1)
			items = append(items, base)
			items = append(items, overlay.seq...)
			return sequenceOf(items), nil
		}
		return overlay, nil
	}
}
