package valuevalidator

import (
	"fmt"
	"unicode/utf8"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
)

// LengthValidator validates the length of a string, the item count of an
// array, or the property count of an object. Nodes of another kind than
// Kind are ignored.
type LengthValidator struct {
	Kind document.Kind
	Min  *int // Minimum length (nil = no minimum)
	Max  *int // Maximum length (nil = no maximum)
}

// Validate implements problem.ValueValidator.
func (vld LengthValidator) Validate(doc *document.Document, id document.NodeID, path string, c *problem.Collector) {
	n := doc.Node(doc.Resolve(id))
	if n == nil || n.Kind != vld.Kind {
		return
	}
	var length int
	switch n.Kind {
	case document.KindString:
		length = utf8.RuneCountInString(n.Value)
	default:
		length = len(n.Children)
	}

	at := doc.Node(id)
	if vld.Min != nil && length < *vld.Min {
		c.Add(problem.Problem{
			Level:    problem.LevelError,
			Path:     path,
			Offset:   at.Offset,
			Length:   at.Length,
			Message:  tooShort(n.Kind, *vld.Min),
			Got:      fmt.Sprintf("%d", length),
			Expected: fmt.Sprintf(">= %d", *vld.Min),
		})
	}

	if vld.Max != nil && length > *vld.Max {
		c.Add(problem.Problem{
			Level:    problem.LevelError,
			Path:     path,
			Offset:   at.Offset,
			Length:   at.Length,
			Message:  tooLong(n.Kind, *vld.Max),
			Got:      fmt.Sprintf("%d", length),
			Expected: fmt.Sprintf("<= %d", *vld.Max),
		})
	}
}

func tooShort(kind document.Kind, min int) string {
	switch kind {
	case document.KindArray:
		return fmt.Sprintf("Array has too few items. Expected %d or more.", min)
	case document.KindObject:
		return fmt.Sprintf("Object has fewer properties than the required number of %d", min)
	default:
		return fmt.Sprintf("String is shorter than the minimum length of %d.", min)
	}
}

func tooLong(kind document.Kind, max int) string {
	switch kind {
	case document.KindArray:
		return fmt.Sprintf("Array has too many items. Expected %d or fewer.", max)
	case document.KindObject:
		return fmt.Sprintf("Object has more properties than limit of %d.", max)
	default:
		return fmt.Sprintf("String is longer than the maximum length of %d.", max)
	}
}
