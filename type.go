// FILE: lixenwraith/cascade/type.go
package cascade

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// leaf resolves a dot path to plain Go data.
func (v Value) leaf(path string) (any, error) {
	node, found := v.Lookup(path)
	if !found {
		return nil, fmt.Errorf("path not found: %s", path)
	}
	return node.Interface(), nil
}

// String returns the scalar at the dot path as a string. Numbers, booleans and
// times are formatted; null is the empty string.
func (v Value) String(path string) (string, error) {
	val, err := v.leaf(path)
	if err != nil {
		return "", err
	}
	return toString(val, path)
}

// Int64 returns the scalar at the dot path as an int64. Floats are truncated,
// strings parsed with base prefixes ("0x", "0o", "0b").
func (v Value) Int64(path string) (int64, error) {
	val, err := v.leaf(path)
	if err != nil {
		return 0, err
	}
	return toInt64(val, path)
}

// Bool returns the scalar at the dot path as a bool. Non-zero numbers are true.
func (v Value) Bool(path string) (bool, error) {
	val, err := v.leaf(path)
	if err != nil {
		return false, err
	}
	return toBool(val, path)
}

// Float64 returns the scalar at the dot path as a float64.
func (v Value) Float64(path string) (float64, error) {
	val, err := v.leaf(path)
	if err != nil {
		return 0, err
	}
	return toFloat64(val, path)
}

// Duration returns the scalar at the dot path as a time.Duration. Strings use
// time.ParseDuration syntax; plain numbers are seconds.
func (v Value) Duration(path string) (time.Duration, error) {
	val, err := v.leaf(path)
	if err != nil {
		return 0, err
	}
	return toDuration(val, path)
}

// Strings retrieves a string slice using the dot path. A scalar becomes a
// one-element slice.
func (v Value) Strings(path string) ([]string, error) {
	node, found := v.Lookup(path)
	if !found {
		return nil, fmt.Errorf("path not found: %s", path)
	}
	return toStrings(node, path)
}

// conversionError reports a scalar that cannot be read as the wanted type
func conversionError(val any, want, path string) error {
	if val == nil {
		return fmt.Errorf("value at '%s' is null, want %s", path, want)
	}
	return fmt.Errorf("cannot read %T at '%s' as %s", val, path, want)
}

func toString(val any, path string) (string, error) {
	switch v := val.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case time.Time:
		return v.Format(time.RFC3339), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return "", conversionError(val, "string", path)
}

func toInt64(val any, path string) (int64, error) {
	switch v := val.(type) {
	case int64:
		return v, nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("value %d at '%s' overflows int64", v, path)
		}
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		i, err := strconv.ParseInt(v, 0, 64)
		if err == nil {
			return i, nil
		}
		if f, ferr := strconv.ParseFloat(v, 64); ferr == nil {
			return int64(f), nil
		}
		return 0, fmt.Errorf("cannot parse %q at '%s' as int64: %w", v, path, err)
	}
	return 0, conversionError(val, "int64", path)
}

func toBool(val any, path string) (bool, error) {
	switch v := val.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case uint64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("cannot parse %q at '%s' as bool: %w", v, path, err)
		}
		return b, nil
	}
	return false, conversionError(val, "bool", path)
}

func toFloat64(val any, path string) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q at '%s' as float64: %w", v, path, err)
		}
		return f, nil
	}
	return 0, conversionError(val, "float64", path)
}

func toDuration(val any, path string) (time.Duration, error) {
	switch v := val.(type) {
	case time.Duration:
		return v, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q at '%s' as duration: %w", v, path, err)
		}
		return d, nil
	case int64, uint64, float64:
		secs, err := toFloat64(v, path)
		if err != nil {
			return 0, err
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	return 0, conversionError(val, "duration", path)
}

func toStrings(node Value, path string) ([]string, error) {
	switch node.Kind() {
	case KindNull:
		return nil, nil
	case KindScalar:
		s, err := toString(node.scalar, path)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	case KindSequence:
		out := make([]string, 0, node.Len())
		for i, item := range node.seq {
			s, err := toString(item.Interface(), joinPath(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot read mapping at '%s' as []string", path)
}
