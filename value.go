// FILE: lixenwraith/cascade/value.go
package cascade

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindNull is an absent or explicit null value (the zero Value)
	KindNull Kind = iota
	// KindScalar holds a string, bool, int64, float64, time.Time or other leaf
	KindScalar
	// KindSequence holds an ordered list of values
	KindSequence
	// KindMapping holds string keys in insertion order
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// DefaultKey is the reserved mapping key returned by Value.Default.
const DefaultKey = "default"

// Value is an immutable configuration tree node.
// Values are safe for concurrent reads; no exported method modifies a Value,
// and methods returning slices or maps return copies.
type Value struct {
	kind   Kind
	scalar any
	seq    []Value
	m      *orderedmap.OrderedMap[string, Value]
}

// Pair is a key and value used to construct mappings.
type Pair struct {
	Key   string
	Value Value
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// NewScalar wraps a leaf value. Integer types are widened to int64, float32 to
// float64 and []byte to string. A nil argument yields Null.
func NewScalar(v any) Value {
	if v == nil {
		return Value{}
	}
	return Value{kind: KindScalar, scalar: normalizeScalar(v)}
}

// NewSequence returns a sequence holding a copy of items.
func NewSequence(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return sequenceOf(cp)
}

// NewMapping returns a mapping with the given pairs in order. A repeated key
// keeps its first position and takes the last value.
func NewMapping(pairs ...Pair) Value {
	om := newOrderedMap(len(pairs))
	for _, p := range pairs {
		om.Set(p.Key, p.Value)
	}
	return mappingOf(om)
}

// ValueOf converts plain Go data (map[string]any, []any, scalars) into a Value.
// Keys of Go maps are unordered, so they are sorted.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case Value:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		om := newOrderedMap(len(keys))
		for _, k := range keys {
			om.Set(k, ValueOf(t[k]))
		}
		return mappingOf(om)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = ValueOf(item)
		}
		return sequenceOf(items)
	case []map[string]any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = ValueOf(item)
		}
		return sequenceOf(items)
	case []string:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = NewScalar(item)
		}
		return sequenceOf(items)
	default:
		return NewScalar(v)
	}
}

func newOrderedMap(capacity int) *orderedmap.OrderedMap[string, Value] {
	return orderedmap.New[string, Value](capacity)
}

// mappingOf wraps om without copying; callers must not modify om afterwards.
func mappingOf(om *orderedmap.OrderedMap[string, Value]) Value {
	return Value{kind: KindMapping, m: om}
}

// sequenceOf wraps items without copying; callers must not modify items afterwards.
func sequenceOf(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSequence, seq: items}
}

func cloneOrderedMap(src *orderedmap.OrderedMap[string, Value]) *orderedmap.OrderedMap[string, Value] {
	if src == nil {
		return newOrderedMap(0)
	}
	dst := newOrderedMap(src.Len())
	for pair := src.Oldest(); pair != nil; pair = pair.Next() {
		dst.Set(pair.Key, pair.Value)
	}
	return dst
}

func normalizeScalar(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint:
		if uint64(t) <= uint64(^uint64(0)>>1) {
			return int64(t)
		}
		return uint64(t)
	case uint64:
		if t <= uint64(^uint64(0)>>1) {
			return int64(t)
		}
		return t
	case float32:
		return float64(t)
	case []byte:
		return string(t)
	default:
		return v
	}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsScalar reports whether v is a scalar.
func (v Value) IsScalar() bool { return v.kind == KindScalar }

// IsSequence reports whether v is a sequence.
func (v Value) IsSequence() bool { return v.kind == KindSequence }

// IsMapping reports whether v is a mapping.
func (v Value) IsMapping() bool { return v.kind == KindMapping }

// Scalar returns the leaf value held by v.
func (v Value) Scalar() (any, bool) {
	if v.kind != KindScalar {
		return nil, false
	}
	return v.scalar, true
}

// Len returns the number of elements of a sequence or keys of a mapping.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.seq)
	case KindMapping:
		if v.m == nil {
			return 0
		}
		return v.m.Len()
	default:
		return 0
	}
}

// Keys returns the keys of a mapping in insertion order.
func (v Value) Keys() []string {
	if v.kind != KindMapping || v.m == nil {
		return nil
	}
	keys := make([]string, 0, v.m.Len())
	for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Elements returns a copy of the elements of a sequence.
func (v Value) Elements() []Value {
	if v.kind != KindSequence {
		return nil
	}
	cp := make([]Value, len(v.seq))
	copy(cp, v.seq)
	return cp
}

// Key looks up key in a mapping.
func (v Value) Key(key string) (Value, bool) {
	if v.kind != KindMapping || v.m == nil {
		return Value{}, false
	}
	return v.m.Get(key)
}

// Index returns the i-th element of a sequence. Negative indexes count from the end.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindSequence {
		return Value{}, false
	}
	if i < 0 {
		i += len(v.seq)
	}
	if i < 0 || i >= len(v.seq) {
		return Value{}, false
	}
	return v.seq[i], true
}

// Get walks path from v. String and fmt.Stringer segments index mappings,
// integer segments index sequences. Any miss yields Null.
func (v Value) Get(path ...any) Value {
	current := v
	for _, seg := range path {
		next, ok := current.step(seg)
		if !ok {
			return Value{}
		}
		current = next
	}
	return current
}

func (v Value) step(seg any) (Value, bool) {
	switch v.kind {
	case KindMapping:
		switch k := seg.(type) {
		case string:
			return v.Key(k)
		case fmt.Stringer:
			return v.Key(k.String())
		default:
			return Value{}, false
		}
	case KindSequence:
		switch i := seg.(type) {
		case int:
			return v.Index(i)
		case int64:
			return v.Index(int(i))
		case int32:
			return v.Index(int(i))
		default:
			return Value{}, false
		}
	default:
		return Value{}, false
	}
}

// Call resolves key the way attribute-style access does: with no args the
// value of key is returned, with one arg that value is further indexed by the
// arg, and with several args it is indexed by the tuple key of all args.
func (v Value) Call(key string, args ...any) Value {
	value, _ := v.Key(key)
	switch len(args) {
	case 0:
		return value
	case 1:
		return value.Get(args[0])
	default:
		tuple, _ := value.Key(TupleKey(args...))
		return tuple
	}
}

// TupleKey renders a composite key the way YAML sequence keys are stored, e.g. "[name, employer]".
func TupleKey(parts ...any) string {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = fmt.Sprint(p)
	}
	return "[" + strings.Join(strs, ", ") + "]"
}

// Default returns the value under the reserved "default" key of a mapping.
func (v Value) Default() (Value, bool) {
	return v.Key(DefaultKey)
}

// KeyOrDefault returns the value for key, or the mapping's default entry when key is missing.
func (v Value) KeyOrDefault(key string) Value {
	if value, ok := v.Key(key); ok {
		return value
	}
	value, _ := v.Default()
	return value
}

// Lookup resolves a dot-separated path. Numeric segments index sequences.
// An empty path returns v itself.
func (v Value) Lookup(path string) (Value, bool) {
	path = strings.TrimSuffix(path, ".")
	if path == "" {
		return v, true
	}

	current := v
	for _, segment := range strings.Split(path, ".") {
		var (
			next Value
			ok   bool
		)
		switch current.kind {
		case KindMapping:
			next, ok = current.Key(segment)
		case KindSequence:
			i, err := strconv.Atoi(segment)
			if err != nil {
				return Value{}, false
			}
			next, ok = current.Index(i)
		}
		if !ok {
			return Value{}, false
		}
		current = next
	}
	return current, true
}

// Interface converts v into plain Go data: map[string]any, []any, scalars and nil.
// The result is a fresh copy.
func (v Value) Interface() any {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]any, v.Len())
		if v.m != nil {
			for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
				out[pair.Key] = pair.Value.Interface()
			}
		}
		return out
	default:
		return nil
	}
}

// Equal reports deep structural equality, including mapping key order.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindScalar:
		if t, ok := v.scalar.(time.Time); ok {
			o, ok := other.scalar.(time.Time)
			return ok && t.Equal(o)
		}
		return reflect.DeepEqual(v.scalar, other.scalar)
	case KindSequence:
		if len(v.seq) != len(other.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(other.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if v.Len() != other.Len() {
			return false
		}
		if v.m == nil {
			return true
		}
		a, b := v.m.Oldest(), other.m.Oldest()
		for a != nil && b != nil {
			if a.Key != b.Key || !a.Value.Equal(b.Value) {
				return false
			}
			a, b = a.Next(), b.Next()
		}
		return a == nil && b == nil
	}
	return false
}
