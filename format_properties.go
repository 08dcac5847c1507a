// FILE: lixenwraith/cascade/format_properties.go
package cascade

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	propertiesGroupPattern    = regexp.MustCompile(`^\[(.+)\]$`)
	propertiesSubgroupPattern = regexp.MustCompile(`^(\S+)\s+"([^"]*)"$`)
)

// decodeProperties parses the key=value format with [group] and [group "sub"] sections.
//
//	# comment
//	url = host.domain.com
//	[server]
//	port = 8080
//	[host "dev"]
//	domain = "dev.server.com"
//
// Values are strings; matching surrounding quotes are stripped.
// Blank and unrecognized lines are ignored.
func decodeProperties(data []byte) (Value, error) {
	root := newOrderedMap(0)
	current := root

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if key, value, ok := strings.Cut(line, "="); ok {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			current.Set(key, NewScalar(unquoteProperty(strings.TrimSpace(value))))
			continue
		}

		if m := propertiesGroupPattern.FindStringSubmatch(line); m != nil {
			group, sub := m[1], ""
			if sm := propertiesSubgroupPattern.FindStringSubmatch(m[1]); sm != nil {
				group, sub = sm[1], sm[2]
			}

			section, err := propertiesSection(root, group, lineNum)
			if err != nil {
				return Value{}, err
			}
			if sub != "" {
				section, err = propertiesSection(section, sub, lineNum)
				if err != nil {
					return Value{}, err
				}
			}
			current = section
		}
	}
	if err := scanner.Err(); err != nil {
		return Value{}, err
	}

	return mappingOf(root), nil
}

// propertiesSection returns the nested mapping stored under name, creating it if needed.
func propertiesSection(parent *orderedmap.OrderedMap[string, Value], name string, lineNum int) (*orderedmap.OrderedMap[string, Value], error) {
	if existing, ok := parent.Get(name); ok {
		if !existing.IsMapping() {
			return nil, fmt.Errorf("line %d: group '%s' conflicts with an existing key", lineNum, name)
		}
		return existing.m, nil
	}
	section := newOrderedMap(0)
	parent.Set(name, mappingOf(section))
	return section, nil
}

func unquoteProperty(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
