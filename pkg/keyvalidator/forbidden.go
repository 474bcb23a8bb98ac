package keyvalidator

import (
	"fmt"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
)

// ForbiddenKeyValidator validates that certain key names are not used.
type ForbiddenKeyValidator struct {
	Forbidden []string
	Message   string // Custom error message (optional)
}

// ValidateKey implements problem.KeyValidator.
func (vld ForbiddenKeyValidator) ValidateKey(key string, keyNode *document.Node, path string, c *problem.Collector) {
	for _, forbidden := range vld.Forbidden {
		if key == forbidden {
			msg := vld.Message
			if msg == "" {
				msg = fmt.Sprintf("Property %s is not allowed.", key)
			}
			c.Add(problem.Problem{
				Level:   problem.LevelError,
				Path:    path,
				Offset:  keyNode.Offset,
				Length:  keyNode.Length,
				Message: msg,
				Got:     key,
			})
			return
		}
	}
}
