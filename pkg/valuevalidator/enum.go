package valuevalidator

import (
	"fmt"
	"strings"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
	"github.com/yakwilikk/go-yamlls/pkg/schema"
)

// EnumValidator validates that a value is one of the allowed literals.
type EnumValidator struct {
	Allowed []schema.Value
	Message string // Custom error message (optional)
}

// Validate implements problem.ValueValidator.
func (vld EnumValidator) Validate(doc *document.Document, id document.NodeID, path string, c *problem.Collector) {
	got := schema.NodeValue(doc, id)
	for _, allowed := range vld.Allowed {
		if got.Equal(allowed) {
			return
		}
	}
	expected := joinJSON(vld.Allowed)
	msg := vld.Message
	if msg == "" {
		msg = fmt.Sprintf("Value is not accepted. Valid values: %s.", expected)
	}
	n := doc.Node(id)
	c.Add(problem.Problem{
		Level:    problem.LevelError,
		Path:     path,
		Offset:   n.Offset,
		Length:   n.Length,
		Message:  msg,
		Got:      got.JSON(),
		Expected: "one of " + expected,
	})
}

// ConstValidator validates that a value equals a single literal.
type ConstValidator struct {
	Value   schema.Value
	Message string
}

// Validate implements problem.ValueValidator.
func (vld ConstValidator) Validate(doc *document.Document, id document.NodeID, path string, c *problem.Collector) {
	got := schema.NodeValue(doc, id)
	if got.Equal(vld.Value) {
		return
	}
	msg := vld.Message
	if msg == "" {
		msg = fmt.Sprintf("Value must be %s.", vld.Value.JSON())
	}
	n := doc.Node(id)
	c.Add(problem.Problem{
		Level:    problem.LevelError,
		Path:     path,
		Offset:   n.Offset,
		Length:   n.Length,
		Message:  msg,
		Got:      got.JSON(),
		Expected: vld.Value.JSON(),
	})
}

func joinJSON(values []schema.Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.JSON()
	}
	return strings.Join(parts, ", ")
}
