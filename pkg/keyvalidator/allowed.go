package keyvalidator

import (
	"fmt"
	"strings"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
)

// AllowedKeyValidator validates that key names come from a fixed set.
type AllowedKeyValidator struct {
	Allowed []string
	Message string
}

// ValidateKey implements problem.KeyValidator.
func (vld AllowedKeyValidator) ValidateKey(key string, keyNode *document.Node, path string, c *problem.Collector) {
	for _, allowed := range vld.Allowed {
		if key == allowed {
			return
		}
	}
	msg := vld.Message
	if msg == "" {
		quoted := make([]string, len(vld.Allowed))
		for i, a := range vld.Allowed {
			quoted[i] = fmt.Sprintf("%q", a)
		}
		msg = fmt.Sprintf("Value is not accepted. Valid values: %s.", strings.Join(quoted, ", "))
	}
	c.Add(problem.Problem{
		Level:    problem.LevelError,
		Path:     path,
		Offset:   keyNode.Offset,
		Length:   keyNode.Length,
		Message:  msg,
		Got:      key,
		Expected: "one of " + strings.Join(vld.Allowed, ", "),
	})
}
