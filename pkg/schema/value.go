package schema

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"gopkg.in/yaml.v3"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueNumber
	ValueString
	ValueArray
	ValueObject
)

// Value is a literal taken from a schema: an enum member, const, default
// or example.
type Value struct {
	Kind   ValueKind
	Bool   bool
	Number float64
	Raw    string // number as written in the schema
	Str    string
	Items  []Value
	Fields []Field
}

// Field is one member of an object literal, in source order.
type Field struct {
	Key   string
	Value Value
}

// Null returns the null literal.
func Null() Value { return Value{Kind: ValueNull} }

// String returns a string literal.
func String(s string) Value { return Value{Kind: ValueString, Str: s} }

// Bool returns a boolean literal.
func Bool(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// Number returns a number literal.
func Number(raw string) Value {
	f, _ := strconv.ParseFloat(raw, 64)
	return Value{Kind: ValueNumber, Number: f, Raw: raw}
}

// Equal compares two literals structurally. Numbers compare by value.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueNull:
		return true
	case ValueBool:
		return v.Bool == o.Bool
	case ValueNumber:
		return v.Number == o.Number
	case ValueString:
		return v.Str == o.Str
	case ValueArray:
		if len(v.Items) != len(o.Items) {
			return false
		}
		for i := range v.Items {
			if !v.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	case ValueObject:
		if len(v.Fields) != len(o.Fields) {
			return false
		}
		for _, f := range v.Fields {
			found := false
			for _, g := range o.Fields {
				if f.Key == g.Key && f.Value.Equal(g.Value) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts the literal to plain Go values.
func (v Value) Interface() any {
	switch v.Kind {
	case ValueBool:
		return v.Bool
	case ValueNumber:
		return json.Number(v.Raw)
	case ValueString:
		return v.Str
	case ValueArray:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = item.Interface()
		}
		return out
	case ValueObject:
		out := make(map[string]any, len(v.Fields))
		for _, f := range v.Fields {
			out[f.Key] = f.Value.Interface()
		}
		return out
	}
	return nil
}

// JSON renders the literal as compact JSON, keeping object field order.
func (v Value) JSON() string {
	var sb strings.Builder
	v.writeJSON(&sb)
	return sb.String()
}

func (v Value) writeJSON(sb *strings.Builder) {
	switch v.Kind {
	case ValueNull:
		sb.WriteString("null")
	case ValueBool:
		sb.WriteString(strconv.FormatBool(v.Bool))
	case ValueNumber:
		sb.WriteString(v.Raw)
	case ValueString:
		b, _ := json.Marshal(v.Str)
		sb.Write(b)
	case ValueArray:
		sb.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				sb.WriteByte(',')
			}
			item.writeJSON(sb)
		}
		sb.WriteByte(']')
	case ValueObject:
		sb.WriteByte('{')
		for i, f := range v.Fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			b, _ := json.Marshal(f.Key)
			sb.Write(b)
			sb.WriteByte(':')
			f.Value.writeJSON(sb)
		}
		sb.WriteByte('}')
	}
}

// Text returns the literal as a display string: strings unquoted,
// everything else as JSON.
func (v Value) Text() string {
	if v.Kind == ValueString {
		return v.Str
	}
	return v.JSON()
}

// valueFromNode decodes a literal from a schema document node.
func valueFromNode(n *yaml.Node) Value {
	if n == nil {
		return Null()
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) > 0 {
			return valueFromNode(n.Content[0])
		}
		return Null()
	case yaml.AliasNode:
		return valueFromNode(n.Alias)
	case yaml.SequenceNode:
		v := Value{Kind: ValueArray, Items: make([]Value, 0, len(n.Content))}
		for _, c := range n.Content {
			v.Items = append(v.Items, valueFromNode(c))
		}
		return v
	case yaml.MappingNode:
		v := Value{Kind: ValueObject}
		for i := 0; i+1 < len(n.Content); i += 2 {
			v.Fields = append(v.Fields, Field{Key: n.Content[i].Value, Value: valueFromNode(n.Content[i+1])})
		}
		return v
	}
	switch n.Tag {
	case "!!null":
		return Null()
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return Bool(b)
		}
	case "!!int", "!!float":
		return Number(n.Value)
	}
	return String(n.Value)
}

// NodeValue converts a document node to a literal so it can be compared
// with enum and const members. Aliases are followed.
func NodeValue(doc *document.Document, id document.NodeID) Value {
	id = doc.Resolve(id)
	n := doc.Node(id)
	if n == nil {
		return Null()
	}
	switch n.Kind {
	case document.KindBoolean:
		return Bool(n.Value == "true" || n.Value == "True" || n.Value == "TRUE")
	case document.KindNumber:
		f, _ := n.Number()
		return Value{Kind: ValueNumber, Number: f, Raw: n.Value}
	case document.KindString:
		return String(n.Value)
	case document.KindArray:
		v := Value{Kind: ValueArray, Items: make([]Value, 0, len(n.Children))}
		for _, c := range n.Children {
			v.Items = append(v.Items, NodeValue(doc, c))
		}
		return v
	case document.KindObject:
		v := Value{Kind: ValueObject}
		for _, p := range n.Children {
			v.Fields = append(v.Fields, Field{Key: doc.Key(p), Value: NodeValue(doc, doc.ValueNode(p))})
		}
		return v
	}
	return Null()
}
