package valuevalidator

import (
	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
	"github.com/yakwilikk/go-yamlls/pkg/schema"
)

// UniqueItemsValidator validates that array items are pairwise distinct.
type UniqueItemsValidator struct{}

// Validate implements problem.ValueValidator.
func (UniqueItemsValidator) Validate(doc *document.Document, id document.NodeID, path string, c *problem.Collector) {
	items := doc.Items(doc.Resolve(id))
	values := make([]schema.Value, 0, len(items))
	for _, item := range items {
		v := schema.NodeValue(doc, item)
		for _, seen := range values {
			if seen.Equal(v) {
				at := doc.Node(id)
				c.Add(problem.Problem{
					Level:   problem.LevelError,
					Path:    path,
					Offset:  at.Offset,
					Length:  at.Length,
					Message: "Array has duplicate items.",
					Got:     v.JSON(),
				})
				return
			}
		}
		values = append(values, v)
	}
}
