package valuevalidator

import (
	"fmt"
	"regexp"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
)

// RegexValidator validates that a string matches a pattern.
type RegexValidator struct {
	Pattern *regexp.Regexp
	Message string // patternErrorMessage (optional)
}

// Validate implements problem.ValueValidator.
func (vld RegexValidator) Validate(doc *document.Document, id document.NodeID, path string, c *problem.Collector) {
	n := doc.Node(doc.Resolve(id))
	if n == nil || n.Kind != document.KindString || vld.Pattern.MatchString(n.Value) {
		return
	}
	msg := vld.Message
	if msg == "" {
		msg = fmt.Sprintf("String does not match the pattern of %q.", vld.Pattern.String())
	}
	at := doc.Node(id)
	c.Add(problem.Problem{
		Level:    problem.LevelError,
		Path:     path,
		Offset:   at.Offset,
		Length:   at.Length,
		Message:  msg,
		Got:      n.Value,
		Expected: vld.Pattern.String(),
	})
}
