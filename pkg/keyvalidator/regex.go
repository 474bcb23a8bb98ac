package keyvalidator

import (
	"fmt"
	"regexp"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
)

// RegexKeyValidator validates that key names match a pattern.
type RegexKeyValidator struct {
	Pattern *regexp.Regexp
	Message string // Custom error message (optional)
}

// ValidateKey implements problem.KeyValidator.
func (vld RegexKeyValidator) ValidateKey(key string, keyNode *document.Node, path string, c *problem.Collector) {
	if vld.Pattern.MatchString(key) {
		return
	}
	msg := vld.Message
	if msg == "" {
		msg = fmt.Sprintf("String does not match the pattern of %q.", vld.Pattern.String())
	}
	c.Add(problem.Problem{
		Level:    problem.LevelError,
		Path:     path,
		Offset:   keyNode.Offset,
		Length:   keyNode.Length,
		Message:  msg,
		Got:      key,
		Expected: vld.Pattern.String(),
	})
}
