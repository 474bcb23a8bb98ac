package valuevalidator

import (
	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
)

// NonEmptyValidator validates that a string, array or object of the given
// kind is not empty.
type NonEmptyValidator struct {
	Kind document.Kind
}

// Validate implements problem.ValueValidator.
func (vld NonEmptyValidator) Validate(doc *document.Document, id document.NodeID, path string, c *problem.Collector) {
	n := doc.Node(doc.Resolve(id))
	if n == nil || n.Kind != vld.Kind {
		return
	}
	isEmpty := false
	switch n.Kind {
	case document.KindString:
		isEmpty = n.Value == ""
	case document.KindArray, document.KindObject:
		isEmpty = len(n.Children) == 0
	}

	if isEmpty {
		at := doc.Node(id)
		c.Add(problem.Problem{
			Level:    problem.LevelError,
			Path:     path,
			Offset:   at.Offset,
			Length:   at.Length,
			Message:  tooShort(n.Kind, 1),
			Expected: "non-empty " + n.Kind.String(),
		})
	}
}
