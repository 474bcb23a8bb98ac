package schema

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapFetcher map[string]string

func (m mapFetcher) Fetch(_ context.Context, uri string) ([]byte, error) {
	data, ok := m[uri]
	if !ok {
		return nil, fmt.Errorf("%s: %w", uri, ErrNotFound)
	}
	return []byte(data), nil
}

func TestLoadKeepsPropertyOrder(t *testing.T) {
	l, err := LoadSchema("file:///s.yaml", []byte("type: object\nrequired: [a]\nproperties:\n  b: {type: string}\n  a: {type: integer}\n"))
	require.NoError(t, err)
	require.Len(t, l.Root.Properties, 2)
	assert.Equal(t, "b", l.Root.Properties[0].Name)
	assert.Equal(t, "a", l.Root.Properties[1].Name)
	assert.Equal(t, []string{"integer"}, l.Root.Property("a").Type)
	assert.Equal(t, VariantObject, l.Root.Variant())
	assert.Equal(t, "file:///s.yaml", l.Root.Property("b").URL)
}

func TestLoadKeywords(t *testing.T) {
	data := `{
		"type": ["string", "null"],
		"enum": ["a", 1, true, null, [1]],
		"default": "a",
		"minLength": 2,
		"pattern": "^a",
		"minimum": 1,
		"exclusiveMinimum": true,
		"deprecationMessage": "use b",
		"examples": ["x"]
	}`
	l, err := LoadSchema("mem://s", []byte(data))
	require.NoError(t, err)
	s := l.Root
	assert.Equal(t, []string{"string", "null"}, s.Type)
	require.Len(t, s.Enum, 5)
	assert.Equal(t, ValueNumber, s.Enum[1].Kind)
	assert.Equal(t, ValueBool, s.Enum[2].Kind)
	assert.Equal(t, ValueNull, s.Enum[3].Kind)
	assert.Equal(t, ValueArray, s.Enum[4].Kind)
	require.NotNil(t, s.Default)
	assert.Equal(t, "a", s.Default.Str)
	require.NotNil(t, s.MinLength)
	assert.Equal(t, 2, *s.MinLength)
	require.NotNil(t, s.PatternRegexp)
	assert.Nil(t, s.Minimum, "draft-04 boolean moves minimum")
	require.NotNil(t, s.ExclusiveMinimum)
	assert.Equal(t, 1.0, *s.ExclusiveMinimum)
	assert.True(t, s.Deprecated)
	assert.Len(t, s.Examples, 1)
}

func TestLoadResolvesLocalRefs(t *testing.T) {
	data := `{
		"definitions": {"name": {"type": "string", "title": "Name"}},
		"properties": {
			"a": {"$ref": "#/definitions/name"},
			"b": {"$ref": "#/definitions/name", "description": "override"}
		}
	}`
	l, err := LoadSchema("file:///s.json", []byte(data))
	require.NoError(t, err)
	assert.Empty(t, l.Errors)

	a := l.Root.Property("a")
	assert.Equal(t, "Name", a.Title)
	assert.Empty(t, a.Ref)

	b := l.Root.Property("b")
	assert.Equal(t, "override", b.Description)
	assert.Empty(t, b.Ref)
	require.Len(t, b.AllOf, 1)
	assert.Same(t, a, b.AllOf[0])
}

func TestLoadRecursiveRef(t *testing.T) {
	l, err := LoadSchema("file:///tree.json", []byte(`{"type":"object","properties":{"child":{"$ref":"#"}}}`))
	require.NoError(t, err)
	assert.Same(t, l.Root, l.Root.Property("child"))
}

func TestLoadUnresolvedRefReportedOnce(t *testing.T) {
	data := `{"properties":{"x":{"$ref":"#/definitions/missing"},"y":{"$ref":"#/definitions/missing"}}}`
	l, err := LoadSchema("file:///s.json", []byte(data))
	require.NoError(t, err)
	require.Len(t, l.Errors, 1)
	assert.True(t, errors.Is(l.Errors[0], ErrUnresolvedRef))

	var re *ResolutionError
	require.True(t, errors.As(l.Errors[0], &re))
	assert.Equal(t, "#/definitions/missing", re.Ref)

	x := l.Root.Property("x")
	require.NotNil(t, x)
	assert.Empty(t, x.Ref)
	assert.Equal(t, VariantScalar, x.Variant(), "unconstrained")
}

func TestLoadCyclicRefChain(t *testing.T) {
	data := `{
		"definitions": {"a": {"$ref": "#/definitions/b"}, "b": {"$ref": "#/definitions/a"}},
		"properties": {"x": {"$ref": "#/definitions/a"}}
	}`
	l, err := LoadSchema("file:///s.json", []byte(data))
	require.NoError(t, err)
	require.NotEmpty(t, l.Errors)
	assert.True(t, errors.Is(l.Errors[0], ErrCyclicRef))
}

func TestLoadExternalRef(t *testing.T) {
	fetcher := mapFetcher{
		"file:///dir/other.json": `{"definitions":{"n":{"type":"number"}}}`,
	}
	l, err := Load(context.Background(), "file:///dir/main.json",
		[]byte(`{"properties":{"x":{"$ref":"other.json#/definitions/n"}}}`), fetcher)
	require.NoError(t, err)
	assert.Empty(t, l.Errors)
	assert.Equal(t, []string{"number"}, l.Root.Property("x").Type)
	assert.Equal(t, "file:///dir/other.json", l.Root.Property("x").URL)
}

func TestLoadRefIntoUnknownKeyword(t *testing.T) {
	data := `{"components":{"port":{"type":"integer"}},"properties":{"p":{"$ref":"#/components/port"}}}`
	l, err := LoadSchema("file:///s.json", []byte(data))
	require.NoError(t, err)
	assert.Empty(t, l.Errors)
	assert.Equal(t, []string{"integer"}, l.Root.Property("p").Type)
}

func TestLoadRejectsNonSchema(t *testing.T) {
	_, err := LoadSchema("file:///s.json", []byte(`[1, 2]`))
	assert.ErrorIs(t, err, ErrInvalidSchema)

	_, err = LoadSchema("file:///s.json", []byte("a: [\n"))
	assert.Error(t, err)
}

func TestLoadBooleanSchemas(t *testing.T) {
	l, err := LoadSchema("file:///s.json", []byte(`{"additionalProperties": false, "items": true}`))
	require.NoError(t, err)
	assert.True(t, l.Root.AdditionalProperties.IsFalse())
	assert.Equal(t, VariantBoolean, l.Root.Items.Variant())
}
