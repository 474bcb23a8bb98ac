// Package schema models JSON-Schema-style type descriptions: loading from
// JSON or YAML, $ref resolution, identity, and the registry that maps
// documents to their schemas.
package schema

import "regexp"

// Primitive type names accepted in "type".
const (
	TypeNull    = "null"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeString  = "string"
)

// Schema is one constraint set. Every keyword has an explicit field; a
// nil pointer or empty slice means the keyword is absent.
type Schema struct {
	// Bool is set for the boolean forms "true" and "false".
	Bool *bool

	ID     string
	Ref    string // cleared once resolved
	URL    string // document the schema was loaded from
	Anchor string // JSON pointer inside URL

	Title                    string
	Description              string
	MarkdownDescription      string
	EnumDescriptions         []string
	MarkdownEnumDescriptions []string
	Deprecated               bool
	DeprecationMessage       string
	ErrorMessage             string
	PatternErrorMessage      string
	DoNotSuggest             bool

	Type []string

	Properties           []*Property
	PatternProperties    []*PatternProperty
	AdditionalProperties *Schema
	PropertyNames        *Schema
	Required             []string
	MinProperties        *int
	MaxProperties        *int

	Items           *Schema
	ItemsList       []*Schema
	AdditionalItems *Schema
	MinItems        *int
	MaxItems        *int
	UniqueItems     bool

	Enum     []Value
	Const    *Value
	Default  *Value
	Examples []Value

	AllOf []*Schema
	AnyOf []*Schema
	OneOf []*Schema
	Not   *Schema

	Pattern          string
	PatternRegexp    *regexp.Regexp
	MinLength        *int
	MaxLength        *int
	Format           string
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64
	MultipleOf       *float64

	Definitions []*Property
}

// Property is a named child schema. Order follows the schema source.
type Property struct {
	Name   string
	Schema *Schema
}

// PatternProperty applies Schema to every key matching Regexp.
type PatternProperty struct {
	Pattern string
	Regexp  *regexp.Regexp
	Schema  *Schema
}

// Variant classifies a schema for the matcher.
type Variant int

const (
	VariantScalar Variant = iota
	VariantObject
	VariantArray
	VariantComposite
	VariantNegated
	VariantReference
	VariantBoolean
)

func (v Variant) String() string {
	switch v {
	case VariantObject:
		return "object"
	case VariantArray:
		return "array"
	case VariantComposite:
		return "composite"
	case VariantNegated:
		return "negated"
	case VariantReference:
		return "reference"
	case VariantBoolean:
		return "boolean"
	default:
		return "scalar"
	}
}

// Variant reports the dominant shape of the schema. Composition wins over
// structure because the matcher expands branches first.
func (s *Schema) Variant() Variant {
	switch {
	case s.Bool != nil:
		return VariantBoolean
	case s.Ref != "":
		return VariantReference
	case len(s.AllOf) > 0 || len(s.AnyOf) > 0 || len(s.OneOf) > 0:
		return VariantComposite
	case s.Not != nil:
		return VariantNegated
	case s.HasType(TypeObject) || len(s.Properties) > 0 || len(s.PatternProperties) > 0 ||
		s.AdditionalProperties != nil || s.PropertyNames != nil || len(s.Required) > 0:
		return VariantObject
	case s.HasType(TypeArray) || s.Items != nil || len(s.ItemsList) > 0:
		return VariantArray
	default:
		return VariantScalar
	}
}

// True returns the schema that accepts everything.
func True() *Schema { return &Schema{Bool: ptr(true)} }

// False returns the schema that rejects everything.
func False() *Schema { return &Schema{Bool: ptr(false)} }

func ptr[T any](v T) *T { return &v }

// IsFalse reports whether s rejects everything.
func (s *Schema) IsFalse() bool { return s != nil && s.Bool != nil && !*s.Bool }

// HasType reports whether t is among the declared types.
func (s *Schema) HasType(t string) bool {
	for _, have := range s.Type {
		if have == t {
			return true
		}
	}
	return false
}

// Property returns the declared property schema for name.
func (s *Schema) Property(name string) *Schema {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema
		}
	}
	return nil
}

// PropertySchemas returns every schema that applies to the value of key:
// the declared property, matching pattern properties, or otherwise
// additionalProperties. declared is false when only additionalProperties
// applied.
func (s *Schema) PropertySchemas(key string) (schemas []*Schema, declared bool) {
	if p := s.Property(key); p != nil {
		schemas = append(schemas, p)
		declared = true
	}
	for _, pp := range s.PatternProperties {
		if pp.Regexp != nil && pp.Regexp.MatchString(key) {
			schemas = append(schemas, pp.Schema)
			declared = true
		}
	}
	if !declared && s.AdditionalProperties != nil {
		schemas = append(schemas, s.AdditionalProperties)
	}
	return schemas, declared
}

// IsRequired reports whether name is listed in required.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// RequiredInOrder lists required properties in declaration order,
// followed by required names that have no declaration.
func (s *Schema) RequiredInOrder() []string {
	if len(s.Required) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.Required))
	seen := make(map[string]bool, len(s.Required))
	for _, p := range s.Properties {
		if s.IsRequired(p.Name) && !seen[p.Name] {
			out = append(out, p.Name)
			seen[p.Name] = true
		}
	}
	for _, r := range s.Required {
		if !seen[r] {
			out = append(out, r)
			seen[r] = true
		}
	}
	return out
}

// ItemSchema returns the schema for the array item at index.
func (s *Schema) ItemSchema(index int) *Schema {
	if len(s.ItemsList) > 0 {
		if index < len(s.ItemsList) {
			return s.ItemsList[index]
		}
		return s.AdditionalItems
	}
	return s.Items
}

// children calls fn for every child slot so callers can read or replace
// the child in place.
func (s *Schema) children(fn func(slot **Schema)) {
	for _, p := range s.Properties {
		fn(&p.Schema)
	}
	for _, p := range s.PatternProperties {
		fn(&p.Schema)
	}
	for _, p := range s.Definitions {
		fn(&p.Schema)
	}
	slots := []**Schema{&s.AdditionalProperties, &s.PropertyNames, &s.Items, &s.AdditionalItems, &s.Not}
	for _, slot := range slots {
		if *slot != nil {
			fn(slot)
		}
	}
	for _, list := range [][]*Schema{s.ItemsList, s.AllOf, s.AnyOf, s.OneOf} {
		for i := range list {
			fn(&list[i])
		}
	}
}
