// FILE: lixenwraith/cascade/format_xml.go
package cascade

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// xmlContentKey holds the text of an element that also has attributes or children.
const xmlContentKey = "__content__"

type xmlElement struct {
	name     string
	attrs    []xml.Attr
	children []*xmlElement
	text     strings.Builder
}

func (e *xmlElement) attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// decodeXML converts a document into a mapping keyed by the root element.
// Attributes become keys, repeated children become sequences, type="array"
// forces a sequence and type="integer|float|decimal|boolean" typecasts text.
// Dashes in element and attribute names become underscores.
func decodeXML(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Value{}, nil
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		root  *xmlElement
		stack []*xmlElement
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Value{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &xmlElement{name: xmlName(t.Name.Local), attrs: t.Attr}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			} else if root != nil {
				return Value{}, fmt.Errorf("multiple root elements: '%s' and '%s'", root.name, el.name)
			} else {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return Value{}, nil
	}

	v, err := xmlElementValue(root)
	if err != nil {
		return Value{}, err
	}
	return NewMapping(Pair{Key: root.name, Value: v}), nil
}

func xmlName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func xmlElementValue(e *xmlElement) (Value, error) {
	if nilAttr, ok := e.attr("nil"); ok && nilAttr == "true" {
		return Value{}, nil
	}

	typ, _ := e.attr("type")
	if typ == "array" {
		items := make([]Value, 0, len(e.children))
		for _, child := range e.children {
			v, err := xmlElementValue(child)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return sequenceOf(items), nil
	}

	text := strings.TrimSpace(e.text.String())

	var attrs []xml.Attr
	for _, a := range e.attrs {
		if a.Name.Local == "type" || a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		attrs = append(attrs, a)
	}

	if len(e.children) == 0 && len(attrs) == 0 {
		return xmlTypecast(text, typ)
	}

	om := newOrderedMap(len(attrs) + len(e.children))
	for _, a := range attrs {
		om.Set(xmlName(a.Name.Local), NewScalar(a.Value))
	}

	grouped := make(map[string][]Value)
	var order []string
	for _, child := range e.children {
		v, err := xmlElementValue(child)
		if err != nil {
			return Value{}, err
		}
		if _, seen := grouped[child.name]; !seen {
			order = append(order, child.name)
		}
		grouped[child.name] = append(grouped[child.name], v)
	}
	for _, name := range order {
		values := grouped[name]
		if len(values) == 1 {
			om.Set(name, values[0])
		} else {
			om.Set(name, sequenceOf(values))
		}
	}

	if text != "" {
		content, err := xmlTypecast(text, typ)
		if err != nil {
			return Value{}, err
		}
		om.Set(xmlContentKey, content)
	}

	return mappingOf(om), nil
}

func xmlTypecast(text, typ string) (Value, error) {
	if text == "" {
		return Value{}, nil
	}

	switch typ {
	case "integer":
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid integer %q: %w", text, err)
		}
		return NewScalar(i), nil
	case "float", "decimal", "double":
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid float %q: %w", text, err)
		}
		return NewScalar(f), nil
	case "boolean":
		return NewScalar(text == "true" || text == "1"), nil
	default:
		return NewScalar(text), nil
	}
}
