package valuevalidator

import (
	"fmt"
	"math"
	"strconv"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
)

// RangeValidator validates that a numeric value is within a range. Values
// that are not numbers are left to the type check.
type RangeValidator struct {
	Min          *float64 // Minimum value (nil = no minimum)
	Max          *float64 // Maximum value (nil = no maximum)
	ExclusiveMin *float64
	ExclusiveMax *float64
	MultipleOf   *float64
}

// Validate implements problem.ValueValidator.
func (vld RangeValidator) Validate(doc *document.Document, id document.NodeID, path string, c *problem.Collector) {
	val, ok := doc.Node(doc.Resolve(id)).Number()
	if !ok {
		return
	}
	at := doc.Node(id)
	report := func(msg, expected string) {
		c.Add(problem.Problem{
			Level:    problem.LevelError,
			Path:     path,
			Offset:   at.Offset,
			Length:   at.Length,
			Message:  msg,
			Got:      formatNumber(val),
			Expected: expected,
		})
	}

	if vld.MultipleOf != nil && *vld.MultipleOf != 0 {
		if r := math.Mod(val, *vld.MultipleOf); math.Abs(r) > 1e-9 && math.Abs(r-*vld.MultipleOf) > 1e-9 {
			report(fmt.Sprintf("Value is not divisible by %s.", formatNumber(*vld.MultipleOf)),
				"multiple of "+formatNumber(*vld.MultipleOf))
		}
	}
	if vld.ExclusiveMin != nil && val <= *vld.ExclusiveMin {
		report(fmt.Sprintf("Value is below the exclusive minimum of %s.", formatNumber(*vld.ExclusiveMin)),
			"> "+formatNumber(*vld.ExclusiveMin))
	}
	if vld.ExclusiveMax != nil && val >= *vld.ExclusiveMax {
		report(fmt.Sprintf("Value is above the exclusive maximum of %s.", formatNumber(*vld.ExclusiveMax)),
			"< "+formatNumber(*vld.ExclusiveMax))
	}
	if vld.Min != nil && val < *vld.Min {
		report(fmt.Sprintf("Value is below the minimum of %s.", formatNumber(*vld.Min)),
			">= "+formatNumber(*vld.Min))
	}
	if vld.Max != nil && val > *vld.Max {
		report(fmt.Sprintf("Value is above the maximum of %s.", formatNumber(*vld.Max)),
			"<= "+formatNumber(*vld.Max))
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
