package valuevalidator

import (
	"fmt"
	"strings"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
	"github.com/yakwilikk/go-yamlls/pkg/schema"
)

// OneOfTypeValidator validates that a node matches one of the declared
// schema types.
type OneOfTypeValidator struct {
	Types   []string
	Message string // errorMessage (optional)
}

// Validate implements problem.ValueValidator.
func (vld OneOfTypeValidator) Validate(doc *document.Document, id document.NodeID, path string, c *problem.Collector) {
	n := doc.Node(doc.Resolve(id))
	if n == nil {
		return
	}
	for _, t := range vld.Types {
		if MatchesType(n, t) {
			return
		}
	}

	msg := vld.Message
	if msg == "" {
		if len(vld.Types) == 1 {
			msg = fmt.Sprintf("Incorrect type. Expected %q.", vld.Types[0])
		} else {
			msg = fmt.Sprintf("Incorrect type. Expected one of %s.", strings.Join(vld.Types, ", "))
		}
	}
	at := doc.Node(id)
	c.Add(problem.Problem{
		Level:    problem.LevelError,
		Path:     path,
		Offset:   at.Offset,
		Length:   at.Length,
		Message:  msg,
		Got:      n.Kind.String(),
		Expected: strings.Join(vld.Types, " | "),
	})
}

// MatchesType reports whether node n satisfies the schema type t.
func MatchesType(n *document.Node, t string) bool {
	switch t {
	case schema.TypeObject:
		return n.Kind == document.KindObject
	case schema.TypeArray:
		return n.Kind == document.KindArray
	case schema.TypeString:
		return n.Kind == document.KindString
	case schema.TypeBoolean:
		return n.Kind == document.KindBoolean
	case schema.TypeNull:
		return n.Kind == document.KindNull
	case schema.TypeNumber:
		return n.Kind == document.KindNumber
	case schema.TypeInteger:
		return n.Kind == document.KindNumber && n.IsIntegral()
	}
	return true
}
