package yamlls

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/schema"
)

func loadSchema(t *testing.T, src string) *schema.Schema {
	t.Helper()
	l, err := schema.LoadSchema("file:///schema.json", []byte(src))
	require.NoError(t, err)
	require.Empty(t, l.Errors)
	return l.Root
}

// completeAt completes at the "|" marker of src.
func completeAt(t *testing.T, root *schema.Schema, src string) []CompletionItem {
	t.Helper()
	offset := strings.Index(src, "|")
	require.GreaterOrEqual(t, offset, 0, "missing cursor marker")
	text := src[:offset] + src[offset+1:]
	return Complete(document.Parse(text), root, offset)
}

func labels(items []CompletionItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func texts(items []CompletionItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.InsertText
	}
	return out
}

func rng(l1, c1, l2, c2 int) document.Range {
	return document.Range{
		Start: document.Position{Line: l1, Character: c1},
		End:   document.Position{Line: l2, Character: c2},
	}
}

func TestCompleteNestedKeyInArrayItem(t *testing.T) {
	root := loadSchema(t, `{
		"type": "array",
		"items": {
			"type": "object",
			"properties": {
				"from": {"type": "object", "properties": {"foo": {"type": "boolean"}}}
			}
		}
	}`)
	items := completeAt(t, root, "- from:\n   |")
	require.Len(t, items, 1)
	assert.Equal(t, "foo", items[0].Label)
	assert.Equal(t, "foo: ", items[0].InsertText)
	assert.Equal(t, CompletionKindProperty, items[0].Kind)
	assert.Equal(t, rng(1, 3, 1, 3), items[0].Range)
}

func TestCompleteBlankLineDeeperThanItemKeys(t *testing.T) {
	root := loadSchema(t, `{
		"type": "array",
		"items": {
			"type": "object",
			"properties": {
				"prop1": {"type": "string"},
				"prop2": {"type": "string"},
				"prop3": {"type": "string"}
			}
		}
	}`)
	tests := []struct {
		name string
		src  string
		want document.Range
	}{
		{name: "aligned with keys", src: "- prop1: a\n  |", want: rng(1, 2, 1, 2)},
		{name: "one column deeper", src: "- prop1: a\n   | ", want: rng(1, 3, 1, 4)},
		{name: "two columns deeper", src: "- prop1: a\n    |", want: rng(1, 4, 1, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := completeAt(t, root, tt.src)
			assert.Equal(t, []string{"prop2", "prop3"}, labels(items))
			assert.Equal(t, []string{"prop2: ", "prop3: "}, texts(items))
			for _, it := range items {
				assert.Equal(t, tt.want, it.Range)
			}
		})
	}
}

func TestCompleteEnumLiteralsInArray(t *testing.T) {
	root := loadSchema(t, `{
		"type": "object",
		"properties": {
			"version": {
				"type": "array",
				"items": {"enum": ["12.1", 13, "13.1", "14.0", "all", 14.4, false, null, ["test"]]}
			}
		}
	}`)
	items := completeAt(t, root, "version:\n  - |")
	require.Len(t, items, 9)
	assert.Equal(t,
		[]string{"12.1", "13", "13.1", "14.0", "all", "14.4", "false", "null", `["test"]`},
		labels(items))
	assert.Equal(t,
		[]string{`"12.1"`, "13", `"13.1"`, `"14.0"`, "all", "14.4", "false", "null"},
		texts(items)[:8])
	assert.Equal(t, "\n  - ${1:test}\n", items[8].InsertText)
	for _, it := range items {
		assert.Equal(t, CompletionKindValue, it.Kind)
		assert.Equal(t, rng(1, 4, 1, 4), it.Range)
	}
}

func TestCompleteCompositionOfSameProperty(t *testing.T) {
	branches := `[
		{"properties": {"spec": {"type": "object", "properties": {"bar": {"type": "string"}}, "required": ["bar"]}}},
		{"properties": {"spec": {"type": "object"}}}
	]`
	tests := []struct {
		name  string
		op    string
		texts []string
	}{
		{name: "oneOf keeps the required-bearing branch", op: "oneOf", texts: []string{"spec:\n  bar: "}},
		{name: "allOf keeps both", op: "allOf", texts: []string{"spec:\n  bar: ", "spec:\n  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := loadSchema(t, `{"`+tt.op+`": `+branches+`}`)
			items := completeAt(t, root, "s|")
			assert.Equal(t, tt.texts, texts(items))
			for _, it := range items {
				assert.Equal(t, "spec", it.Label)
				assert.Equal(t, rng(0, 0, 0, 1), it.Range)
			}
		})
	}
}

func TestCompleteIgnoresCommentBelow(t *testing.T) {
	root := loadSchema(t, `{
		"type": "object",
		"properties": {
			"example": {
				"type": "object",
				"properties": {
					"prop1": {"type": "string"},
					"prop2": {"type": "string"},
					"prop3": {"type": "string"}
				}
			}
		}
	}`)
	items := completeAt(t, root, "example:\n  prop1: \"test\"\n  |\n    #comment")
	assert.Equal(t, []string{"prop2", "prop3"}, labels(items))
	for _, it := range items {
		assert.Equal(t, rng(2, 2, 2, 2), it.Range)
	}
}

func TestCompleteMergesScalarAlternatives(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		texts []string
	}{
		{
			name:  "two consts become a choice",
			src:   `{"type": "object", "anyOf": [{"properties": {"prop": {"const": "x"}}}, {"properties": {"prop": {"const": "y"}}}]}`,
			texts: []string{"prop: ${1|x,y|}"},
		},
		{
			name:  "same value commits",
			src:   `{"anyOf": [{"properties": {"prop": {"const": "v 1"}}}, {"properties": {"prop": {"const": "v 1"}}}]}`,
			texts: []string{"prop: v 1"},
		},
		{
			name: "const, default and null types",
			src: `{"anyOf": [
				{"properties": {"prop": {"type": "string", "const": "const value"}}},
				{"properties": {"prop": {"type": "boolean", "default": false}}},
				{"properties": {"prop": {"type": "null"}}}
			]}`,
			texts: []string{"prop: ${1|const value,false,null|}"},
		},
		{
			name:  "lone default is a placeholder",
			src:   `{"properties": {"prop": {"type": "string", "default": "dev"}}}`,
			texts: []string{"prop: ${1:dev}"},
		},
		{
			name: "objects with different bodies stay apart",
			src: `{"anyOf": [
				{"properties": {"obj": {"type": "object", "properties": {"a": {"type": "string"}}, "required": ["a"]}}},
				{"properties": {"obj": {"type": "object", "properties": {"b": {"type": "string"}}, "required": ["b"]}}}
			]}`,
			texts: []string{"obj:\n  a: ", "obj:\n  b: "},
		},
		{
			name: "identical objects merge",
			src: `{"anyOf": [
				{"properties": {"obj": {"type": "object"}}},
				{"properties": {"obj": {"type": "object"}}}
			]}`,
			texts: []string{"obj:\n  "},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := completeAt(t, loadSchema(t, tt.src), "|")
			assert.Equal(t, tt.texts, texts(items))
		})
	}
}

func TestCompleteRanges(t *testing.T) {
	root := loadSchema(t, `{
		"type": "object",
		"properties": {
			"name": {"enum": ["my name"]},
			"kind": {"enum": ["Pod", "Service"]},
			"list": {"type": "array", "items": {"type": "object", "properties": {"a": {"type": "string"}}}}
		}
	}`)
	tests := []struct {
		name  string
		src   string
		label string
		text  string
		want  document.Range
	}{
		{name: "partial key with trailing blanks", src: "na|  ", label: "name", text: "name: my name", want: rng(0, 0, 0, 4)},
		{name: "indented partial key", src: "kind: Pod\nlist:\n  - |a  ", label: "a", text: "a: ", want: rng(2, 4, 2, 5)},
		{name: "partial key before a comment", src: "na|   # c", label: "name", text: "name: my name", want: rng(0, 0, 0, 4)},
		{name: "key followed by colon", src: "na|: x", label: "name", text: "name", want: rng(0, 0, 0, 2)},
		{name: "value with trailing blanks", src: "name: my|   ", label: "my name", text: "my name", want: rng(0, 6, 0, 11)},
		{name: "value right after colon", src: "kind:|", label: "Pod", text: " Pod", want: rng(0, 5, 0, 5)},
		{name: "blanks after a sequence marker", src: "list:\n  -  | ", label: "a", text: "a: ", want: rng(1, 5, 1, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := completeAt(t, root, tt.src)
			var found *CompletionItem
			for i := range items {
				if items[i].Label == tt.label {
					found = &items[i]
					break
				}
			}
			require.NotNil(t, found, "labels %v", labels(items))
			assert.Equal(t, tt.text, found.InsertText)
			assert.Equal(t, tt.want, found.Range)
		})
	}
}

func TestCompleteValueSlot(t *testing.T) {
	root := loadSchema(t, `{
		"type": "object",
		"properties": {
			"kind": {"type": "string", "enum": ["Pod", "PodTemplate"], "enumDescriptions": ["a pod"]},
			"enabled": {"type": "boolean"},
			"tags": {"type": "array", "default": ["a", "b"]},
			"scripts": {"type": "object", "properties": {"build": {"type": "string"}}}
		}
	}`)

	items := completeAt(t, root, "kind: Po|")
	assert.Equal(t, []string{"Pod", "PodTemplate"}, texts(items))
	assert.Equal(t, "a pod", items[0].Documentation)
	assert.Equal(t, rng(0, 6, 0, 8), items[0].Range)

	items = completeAt(t, root, "enabled: |")
	assert.Equal(t, []string{"true", "false"}, texts(items))

	items = completeAt(t, root, "tags: |")
	require.Len(t, items, 1)
	assert.Equal(t, `["a","b"]`, items[0].Label)
	assert.Equal(t, "\n  - ${1:a}\n  - ${2:b}\n", items[0].InsertText)

	assert.Empty(t, completeAt(t, root, "scripts: |"))
}

func TestCompleteArrayItems(t *testing.T) {
	root := loadSchema(t, `{
		"type": "object",
		"properties": {
			"objectWithArray": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"item": {"type": "string"},
						"item2": {
							"type": "object",
							"properties": {"prop1": {"type": "string"}, "prop2": {"type": "string"}},
							"required": ["prop1", "prop2"]
						}
					},
					"required": ["item", "item2"]
				}
			},
			"examples": {
				"type": "array",
				"items": {"type": "object", "properties": {"sample": {"type": "object"}}}
			}
		}
	}`)

	t.Run("first item", func(t *testing.T) {
		items := completeAt(t, root, "objectWithArray:\n  - |")
		require.Len(t, items, 3)
		assert.Equal(t, "item", items[0].Label)
		assert.Equal(t, "item: ", items[0].InsertText)
		assert.Equal(t, "(array item) object", items[1].Label)
		assert.Equal(t, "item: $1\n  item2:\n    prop1: $2\n    prop2: $3", items[1].InsertText)
		assert.Equal(t, CompletionKindModule, items[1].Kind)
		assert.Equal(t, "item2", items[2].Label)
		assert.Equal(t, "item2:\n    prop1: $1\n    prop2: $2", items[2].InsertText)
		for _, it := range items {
			assert.Equal(t, rng(1, 4, 1, 4), it.Range)
		}
	})

	t.Run("blank line before an item", func(t *testing.T) {
		items := completeAt(t, root, "examples:\n  |\n  - sample:\n      prop1: value1")
		require.Len(t, items, 1)
		assert.Equal(t, "- (array item) object", items[0].Label)
		assert.Equal(t, "- ", items[0].InsertText)
		assert.Equal(t, "Create an item of an array type `object`\n ```\n- \n```", items[0].Documentation)
		assert.Equal(t, rng(1, 2, 1, 2), items[0].Range)
	})

	t.Run("present keys of the item are skipped", func(t *testing.T) {
		items := completeAt(t, root, "objectWithArray:\n  - item: first line\n    |")
		require.NotEmpty(t, items)
		assert.Equal(t, "item2", items[0].Label)
		assert.NotContains(t, labels(items), "item")
	})
}

func TestCompleteFiltersByDiscriminator(t *testing.T) {
	root := loadSchema(t, `{
		"oneOf": [
			{"properties": {"kind": {"const": "a"}, "alpha": {"type": "string"}}},
			{"properties": {"kind": {"const": "b"}, "beta": {"type": "string"}}}
		]
	}`)
	items := completeAt(t, root, "kind: a\n|")
	assert.Equal(t, []string{"alpha"}, labels(items))
}

func TestCompletePropertyNames(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		labels []string
		texts  []string
	}{
		{
			name:   "placeholder key",
			src:    `{"type": "object", "additionalProperties": true, "propertyNames": {"title": "env", "pattern": "^[A-Z]+$"}}`,
			labels: []string{"env"},
			texts:  []string{"${1:env}: "},
		},
		{
			name:   "untitled placeholder",
			src:    `{"type": "object", "propertyNames": {"pattern": "^[a-z]+$"}}`,
			labels: []string{"property"},
			texts:  []string{"${1:property}: "},
		},
		{
			name:   "enumerated names",
			src:    `{"type": "object", "propertyNames": {"enum": ["dev", "prod"]}}`,
			labels: []string{"dev", "prod"},
			texts:  []string{"dev: ", "prod: "},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := completeAt(t, loadSchema(t, tt.src), "x|")
			assert.Equal(t, tt.labels, labels(items))
			assert.Equal(t, tt.texts, texts(items))
		})
	}
}

func TestCompleteSkipsHiddenAndNegated(t *testing.T) {
	root := loadSchema(t, `{
		"type": "object",
		"properties": {
			"shown": {"type": "string"},
			"hidden": {"type": "string", "doNotSuggest": true},
			"never": false
		},
		"not": {"properties": {"forbidden": {"type": "string"}}}
	}`)
	assert.Equal(t, []string{"shown"}, labels(completeAt(t, root, "|")))
}

func TestCompleteDegrades(t *testing.T) {
	root := loadSchema(t, `{"type": "object", "properties": {"name": {"type": "string"}}}`)
	tests := []struct {
		name string
		src  string
	}{
		{name: "cursor inside indentation", src: " | name: x"},
		{name: "unbalanced flow", src: "name: [|"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, completeAt(t, root, tt.src))
		})
	}
	assert.Nil(t, Complete(document.Parse("na"), nil, 2))
}

func TestCompleteIsDeterministic(t *testing.T) {
	root := loadSchema(t, `{"anyOf": [
		{"properties": {"a": {"enum": [1, 2]}, "b": {"type": "object", "required": ["c"], "properties": {"c": {"type": "string"}}}}},
		{"properties": {"a": {"const": 3}}}
	]}`)
	first := completeAt(t, root, "|")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, completeAt(t, root, "|"))
	}
	seen := make(map[[2]string]bool)
	for _, it := range first {
		k := [2]string{it.Label, it.InsertText}
		assert.False(t, seen[k], "duplicate %v", k)
		seen[k] = true
	}
}

func TestScalarText(t *testing.T) {
	tests := []struct {
		in   schema.Value
		want string
	}{
		{schema.String("plain"), "plain"},
		{schema.String("12.1"), `"12.1"`},
		{schema.String("true"), `"true"`},
		{schema.String("a: b"), `"a: b"`},
		{schema.String(""), `""`},
		{schema.String("- x"), `"- x"`},
		{schema.Number("13"), "13"},
		{schema.Bool(false), "false"},
		{schema.Null(), "null"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, scalarText(tt.in))
		})
	}
}

func TestSnippetEscaping(t *testing.T) {
	w := &snippetWriter{unit: "  "}
	assert.Equal(t, `${1:a\$b\}}`, w.placeholder("a$b}"))
	assert.Equal(t, `${2|x\,y,p\|q|}`, w.choice([]string{"x,y", "p|q"}))
	assert.Equal(t, "$3", w.tabStop())
}
