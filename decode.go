// FILE: lixenwraith/cascade/decode.go
package cascade

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Upper bounds on string lengths accepted by the network decode hooks
const (
	maxIPLength   = 45   // IPv6 with zone
	maxCIDRLength = 49   // IPv6 CIDR
	maxURLLength  = 2048 // Common browser limit
)

// Scan decodes the mapping at basePath (dot path, "" for the root) of the
// merged config name into target, which must be a non-nil pointer.
func (r *Registry) Scan(name, basePath string, target any) error {
	root, err := r.Config(name)
	if err != nil {
		return err
	}
	return scanValue(root, basePath, r.tagName, target)
}

// scanValue decodes the section of root at basePath into target.
// A missing or null section decodes as an empty mapping.
func scanValue(root Value, basePath, tagName string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("scan target must be non-nil pointer, got %T", target)
	}

	input := map[string]any{}
	if section, found := root.Lookup(basePath); found && !section.IsNull() {
		if !section.IsMapping() {
			return fmt.Errorf("path %q refers to non-map value (%s)", basePath, section.Kind())
		}
		input = section.Interface().(map[string]any)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          tagName,
		WeaklyTypedInput: true,
		ZeroFields:       true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			parseStringHook(reflect.TypeOf(net.IP{}), parseIP),
			parseStringHook(reflect.TypeOf(net.IPNet{}), parseCIDR),
			parseStringHook(reflect.TypeOf(url.URL{}), parseURL),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
			secondsToDurationHook(),
		),
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("decode failed for path %q: %w", basePath, err)
	}
	return nil
}

// parseStringHook converts strings into target (or *target) with parse, which
// returns a pointer to a target value.
func parseStringHook(target reflect.Type, parse func(string) (any, error)) mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		wantPtr := to.Kind() == reflect.Ptr && to.Elem() == target
		if to != target && !wantPtr {
			return data, nil
		}

		parsed, err := parse(data.(string))
		if err != nil {
			return nil, err
		}
		if wantPtr {
			return parsed, nil
		}
		return reflect.ValueOf(parsed).Elem().Interface(), nil
	}
}

func parseIP(s string) (any, error) {
	if len(s) > maxIPLength {
		return nil, fmt.Errorf("invalid IP length: %d", len(s))
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid IP address: %s", s)
	}
	return &ip, nil
}

func parseCIDR(s string) (any, error) {
	if len(s) > maxCIDRLength {
		return nil, fmt.Errorf("invalid CIDR length: %d", len(s))
	}
	_, ipnet, err := net.ParseCIDR(s)
	if err != nil {
		return nil, fmt.Errorf("invalid CIDR: %w", err)
	}
	return ipnet, nil
}

func parseURL(s string) (any, error) {
	if len(s) > maxURLLength {
		return nil, fmt.Errorf("URL too long: %d bytes", len(s))
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	return u, nil
}

// secondsToDurationHook reads plain numbers as seconds for time.Duration targets
func secondsToDurationHook() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != durationType {
			return data, nil
		}
		switch n := data.(type) {
		case int64:
			return time.Duration(n) * time.Second, nil
		case float64:
			return time.Duration(n * float64(time.Second)), nil
		}
		return data, nil
	}
}
