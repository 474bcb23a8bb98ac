package schema

import "strings"

// CombinedURLPrefix marks the synthetic schema that joins every schema
// associated with one document.
const CombinedURLPrefix = "yamlls://combined/"

// Combine joins several roots under a synthetic allOf. A single root is
// returned unchanged.
func Combine(docURI string, roots ...*Schema) *Schema {
	switch len(roots) {
	case 0:
		return nil
	case 1:
		return roots[0]
	}
	return &Schema{URL: CombinedURLPrefix + docURI, AllOf: roots}
}

// URLs lists the source documents of s in discovery order. For a combined
// schema, or one without a URL, the direct composition branches are asked.
func URLs(s *Schema) []string {
	if s == nil {
		return nil
	}
	if s.URL != "" && !strings.HasPrefix(s.URL, CombinedURLPrefix) {
		return []string{s.URL}
	}
	var out []string
	seen := make(map[string]bool)
	for _, list := range [][]*Schema{s.AllOf, s.AnyOf, s.OneOf} {
		for _, sub := range list {
			if sub == nil || sub.Bool != nil || sub.URL == "" || seen[sub.URL] {
				continue
			}
			seen[sub.URL] = true
			out = append(out, sub.URL)
		}
	}
	return out
}
