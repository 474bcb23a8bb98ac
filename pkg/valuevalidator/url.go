package valuevalidator

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
)

// URLValidator validates the "uri" and "uri-reference" formats.
type URLValidator struct {
	RequireScheme  bool     // "uri" needs a scheme, "uri-reference" does not
	AllowedSchemes []string // Allowed schemes (empty = any)
}

// Validate implements problem.ValueValidator.
func (vld URLValidator) Validate(doc *document.Document, id document.NodeID, path string, c *problem.Collector) {
	n := doc.Node(doc.Resolve(id))
	if n == nil || n.Kind != document.KindString {
		return
	}
	val := n.Value
	at := doc.Node(id)
	report := func(reason, expected string) {
		c.Add(problem.Problem{
			Level:    problem.LevelError,
			Path:     path,
			Offset:   at.Offset,
			Length:   at.Length,
			Message:  fmt.Sprintf("String is not a URI: %s", reason),
			Got:      val,
			Expected: expected,
		})
	}

	if val == "" {
		report("URI expected.", "URI")
		return
	}
	if _, err := url.Parse(val); err != nil {
		report(fmt.Sprintf("%v.", err), "URI")
		return
	}

	scheme := ""
	if idx := findSchemeEnd(val); idx > 0 {
		scheme = val[:idx]
	}
	if vld.RequireScheme && scheme == "" {
		report("URI with a scheme is expected.", "URI with scheme")
		return
	}

	if scheme != "" && len(vld.AllowedSchemes) > 0 {
		for _, s := range vld.AllowedSchemes {
			if strings.EqualFold(scheme, s) {
				return
			}
		}
		report(fmt.Sprintf("scheme %q is not allowed.", scheme), fmt.Sprintf("one of %v", vld.AllowedSchemes))
	}
}

// findSchemeEnd returns the index of the ':' that ends a URI scheme, or -1.
func findSchemeEnd(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ':' {
			if i > 0 {
				return i
			}
			return -1
		}
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(i > 0 && ((c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.'))) {
			return -1
		}
	}
	return -1
}
