package keyvalidator

import (
	"fmt"
	"unicode/utf8"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
)

// LengthKeyValidator validates key name length.
type LengthKeyValidator struct {
	Min *int
	Max *int
}

// ValidateKey implements problem.KeyValidator.
func (vld LengthKeyValidator) ValidateKey(key string, keyNode *document.Node, path string, c *problem.Collector) {
	length := utf8.RuneCountInString(key)

	if vld.Min != nil && length < *vld.Min {
		c.Add(problem.Problem{
			Level:    problem.LevelError,
			Path:     path,
			Offset:   keyNode.Offset,
			Length:   keyNode.Length,
			Message:  fmt.Sprintf("String is shorter than the minimum length of %d.", *vld.Min),
			Got:      fmt.Sprintf("%d characters", length),
			Expected: fmt.Sprintf(">= %d characters", *vld.Min),
		})
	}

	if vld.Max != nil && length > *vld.Max {
		c.Add(problem.Problem{
			Level:    problem.LevelError,
			Path:     path,
			Offset:   keyNode.Offset,
			Length:   keyNode.Length,
			Message:  fmt.Sprintf("String is longer than the maximum length of %d.", *vld.Max),
			Got:      fmt.Sprintf("%d characters", length),
			Expected: fmt.Sprintf("<= %d characters", *vld.Max),
		})
	}
}
