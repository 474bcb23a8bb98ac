package yamlls

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yakwilikk/go-yamlls/pkg/schema"
)

// plainSafe reports whether s can be written as a plain YAML scalar and
// still read back as the same string.
func plainSafe(s string) bool {
	if s == "" || strings.ContainsAny(s, "\n\r\t") {
		return false
	}
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(s), &n); err != nil {
		return false
	}
	if n.Kind != yaml.DocumentNode || len(n.Content) != 1 {
		return false
	}
	v := n.Content[0]
	return v.Kind == yaml.ScalarNode && v.Tag == "!!str" && v.Style == 0 && v.Value == s
}

// scalarText renders a scalar literal as YAML source.
func scalarText(v schema.Value) string {
	switch v.Kind {
	case schema.ValueString:
		if plainSafe(v.Str) {
			return v.Str
		}
		b, _ := json.Marshal(v.Str)
		return string(b)
	case schema.ValueNull:
		return "null"
	default:
		return v.JSON()
	}
}

// literalLabel is the display form of a literal in the completion list.
func literalLabel(v schema.Value) string {
	if v.Kind == schema.ValueString {
		return v.Str
	}
	return v.JSON()
}

// literalSnippet renders v as snippet text for insertion after "key: " or
// as an array item. Collections become indented blocks with a tab stop per
// leaf.
func literalSnippet(v schema.Value, unit string) string {
	switch v.Kind {
	case schema.ValueArray:
		var sb strings.Builder
		sb.WriteString("\n")
		sw := &snippetWriter{unit: unit}
		for _, item := range v.Items {
			sb.WriteString(unit + "- " + sw.placeholder(scalarText(item)) + "\n")
		}
		return sb.String()
	case schema.ValueObject:
		var sb strings.Builder
		sb.WriteString("\n")
		sw := &snippetWriter{unit: unit}
		for _, f := range v.Fields {
			sb.WriteString(unit + escapeSnippet(f.Key) + ": " + sw.placeholder(scalarText(f.Value)) + "\n")
		}
		return sb.String()
	default:
		return escapeSnippet(scalarText(v))
	}
}
