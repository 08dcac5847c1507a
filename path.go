// FILE: lixenwraith/cascade/path.go
package cascade

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Path is a lazily resolved location inside a named config. Each At returns a
// new Path, so a Path can be shared and extended freely. Resolution goes
// through Registry.Config on every call and sees reloads.
type Path struct {
	reg  *Registry
	name string
	keys []any
}

// Path starts a path at the root of the config name.
func (r *Registry) Path(name string) *Path {
	return &Path{reg: r, name: name}
}

// At returns a path extended by keys (strings for mapping keys, ints for sequence indexes).
func (p *Path) At(keys ...any) *Path {
	next := make([]any, 0, len(p.keys)+len(keys))
	next = append(next, p.keys...)
	next = append(next, keys...)
	return &Path{reg: p.reg, name: p.name, keys: next}
}

// Keys returns the accumulated key path.
func (p *Path) Keys() []any {
	return slices.Clone(p.keys)
}

// Value resolves the path. A missing location yields Null.
func (p *Path) Value() (Value, error) {
	return p.reg.Get(p.name, p.keys...)
}

// Exists reports whether the path resolves to a non-null value.
func (p *Path) Exists() (bool, error) {
	v, err := p.Value()
	if err != nil {
		return false, err
	}
	return !v.IsNull(), nil
}

// String resolves the path and converts the value to a string.
func (p *Path) String() (string, error) {
	v, err := p.Value()
	if err != nil {
		return "", err
	}
	return toString(v.Interface(), p.label())
}

// Int64 resolves the path and converts the value to an int64.
func (p *Path) Int64() (int64, error) {
	v, err := p.Value()
	if err != nil {
		return 0, err
	}
	return toInt64(v.Interface(), p.label())
}

// Bool resolves the path and converts the value to a bool.
func (p *Path) Bool() (bool, error) {
	v, err := p.Value()
	if err != nil {
		return false, err
	}
	return toBool(v.Interface(), p.label())
}

// Float64 resolves the path and converts the value to a float64.
func (p *Path) Float64() (float64, error) {
	v, err := p.Value()
	if err != nil {
		return 0, err
	}
	return toFloat64(v.Interface(), p.label())
}

// Duration resolves the path and converts the value to a time.Duration.
func (p *Path) Duration() (time.Duration, error) {
	v, err := p.Value()
	if err != nil {
		return 0, err
	}
	return toDuration(v.Interface(), p.label())
}

// label renders the path for error messages, e.g. "database.primary.0".
func (p *Path) label() string {
	parts := make([]string, 0, len(p.keys)+1)
	parts = append(parts, p.name)
	for _, k := range p.keys {
		parts = append(parts, fmt.Sprint(k))
	}
	return strings.Join(parts, ".")
}
