package yamlls

import (
	"strconv"
	"strings"

	"github.com/yakwilikk/go-yamlls/pkg/schema"
)

var (
	snippetEscaper = strings.NewReplacer(`\`, `\\`, `$`, `\$`, `}`, `\}`)
	choiceEscaper  = strings.NewReplacer(`\`, `\\`, `$`, `\$`, `}`, `\}`, `,`, `\,`, `|`, `\|`)
)

// escapeSnippet escapes text so an editor inserts it literally.
func escapeSnippet(s string) string { return snippetEscaper.Replace(s) }

// snippetWriter builds the insert text of one candidate. Tab stops are
// numbered across the whole candidate.
type snippetWriter struct {
	unit    string
	counter int
}

func (w *snippetWriter) next() string {
	w.counter++
	return strconv.Itoa(w.counter)
}

// tabStop returns "$N".
func (w *snippetWriter) tabStop() string { return "$" + w.next() }

// placeholder returns "${N:text}" with text escaped.
func (w *snippetWriter) placeholder(text string) string {
	return "${" + w.next() + ":" + escapeSnippet(text) + "}"
}

// choice returns "${N|a,b|}".
func (w *snippetWriter) choice(options []string) string {
	escaped := make([]string, len(options))
	for i, o := range options {
		escaped[i] = choiceEscaper.Replace(o)
	}
	return "${" + w.next() + "|" + strings.Join(escaped, ",") + "|}"
}

// property renders "name: ..." for a property seeded inside a generated
// block. indent prefixes every continuation line at the property's level.
// stops is set when the enclosing object seeds more than one property,
// which gives bare scalar leaves a tab stop.
func (w *snippetWriter) property(name string, s *schema.Schema, indent string, stops bool) string {
	key := escapeSnippet(name)
	if s == nil {
		if stops {
			return key + ": " + w.tabStop()
		}
		return key + ": "
	}
	switch shapeOf(s) {
	case shapeObject:
		inner := indent + w.unit
		return key + ":\n" + inner + w.object(s, inner)
	case shapeArray:
		inner := indent + w.unit
		return key + ":\n" + inner + "- " + w.item(s.ItemSchema(0), inner+"  ")
	default:
		return key + ": " + w.scalar(s, stops)
	}
}

// object seeds the required properties of s in declaration order.
func (w *snippetWriter) object(s *schema.Schema, indent string) string {
	required := s.RequiredInOrder()
	parts := make([]string, 0, len(required))
	for _, name := range required {
		parts = append(parts, w.property(name, s.Property(name), indent, len(required) > 1))
	}
	return strings.Join(parts, "\n"+indent)
}

// item renders the body of one array item written after "- ".
func (w *snippetWriter) item(s *schema.Schema, indent string) string {
	if s == nil {
		return w.tabStop()
	}
	switch shapeOf(s) {
	case shapeObject:
		return w.object(s, indent)
	case shapeArray:
		return "- " + w.item(s.ItemSchema(0), indent+"  ")
	}
	if v, ok := seedValue(s); ok {
		return w.placeholder(scalarText(v))
	}
	switch {
	case s.HasType(schema.TypeString):
		return w.placeholder(`""`)
	case s.HasType(schema.TypeBoolean):
		return w.placeholder("false")
	case s.HasType(schema.TypeNumber), s.HasType(schema.TypeInteger):
		return w.placeholder("0")
	}
	return w.tabStop()
}

// scalar renders the value of a seeded scalar leaf.
func (w *snippetWriter) scalar(s *schema.Schema, stops bool) string {
	if v, ok := seedValue(s); ok {
		return w.placeholder(scalarText(v))
	}
	if len(s.Enum) > 1 {
		options := make([]string, len(s.Enum))
		for i, v := range s.Enum {
			options[i] = scalarText(v)
		}
		return w.choice(options)
	}
	if stops {
		return w.tabStop()
	}
	return ""
}

// seedValue picks the literal a generated leaf starts with.
func seedValue(s *schema.Schema) (schema.Value, bool) {
	switch {
	case s.Const != nil:
		return *s.Const, true
	case s.Default != nil:
		return *s.Default, true
	case len(s.Enum) == 1:
		return s.Enum[0], true
	}
	return schema.Value{}, false
}

type shape int

const (
	shapeScalar shape = iota
	shapeObject
	shapeArray
)

// shapeOf classifies the value a schema expects. A composite without its
// own type takes the shape its branches agree on.
func shapeOf(s *schema.Schema) shape {
	return shapeAt(s, 0)
}

func shapeAt(s *schema.Schema, depth int) shape {
	if s == nil || s.Bool != nil || depth > 8 {
		return shapeScalar
	}
	if len(s.Type) > 0 {
		switch {
		case len(s.Type) == 1 && s.Type[0] == schema.TypeObject:
			return shapeObject
		case len(s.Type) == 1 && s.Type[0] == schema.TypeArray:
			return shapeArray
		}
		return shapeScalar
	}
	switch s.Variant() {
	case schema.VariantObject:
		return shapeObject
	case schema.VariantArray:
		return shapeArray
	case schema.VariantComposite:
		var branches []*schema.Schema
		branches = append(branches, s.AllOf...)
		branches = append(branches, s.AnyOf...)
		branches = append(branches, s.OneOf...)
		agreed := shapeAt(branches[0], depth+1)
		for _, b := range branches[1:] {
			if shapeAt(b, depth+1) != agreed {
				return shapeScalar
			}
		}
		return agreed
	}
	return shapeScalar
}
