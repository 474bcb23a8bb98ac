package schema

import (
	"github.com/mitchellh/hashstructure/v2"
)

// identityDepth bounds how far nested properties take part in identity.
const identityDepth = 3

type identity struct {
	Title       string
	Description string
	Properties  []propertyIdentity `hash:"set"`
}

type propertyIdentity struct {
	Name     string
	Type     []string `hash:"set"`
	Required bool
	Nested   []propertyIdentity `hash:"set"`
}

// Identity returns the normalized identity hash of s: its title,
// description and the names, types and required flags of its properties.
// Property order does not matter.
func Identity(s *Schema) uint64 {
	if s == nil {
		return 0
	}
	id := identity{
		Title:       s.Title,
		Description: s.Description,
		Properties:  propertyIdentities(s, identityDepth),
	}
	h, err := hashstructure.Hash(id, hashstructure.FormatV2, nil)
	if err != nil {
		// identity only holds strings, bools and slices of them
		panic(err)
	}
	return h
}

// Equivalent reports whether a and b are the same logical alternative.
// Completion and hover collapse equivalent schemas into one.
func Equivalent(a, b *Schema) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return Identity(a) == Identity(b)
}

func propertyIdentities(s *Schema, depth int) []propertyIdentity {
	if depth == 0 || len(s.Properties) == 0 {
		return nil
	}
	out := make([]propertyIdentity, 0, len(s.Properties))
	for _, p := range s.Properties {
		pi := propertyIdentity{Name: p.Name, Required: s.IsRequired(p.Name)}
		if p.Schema != nil {
			pi.Type = p.Schema.Type
			pi.Nested = propertyIdentities(p.Schema, depth-1)
		}
		out = append(out, pi)
	}
	return out
}
