// Package matcher decides which schemas apply to which document nodes.
// Match serves completion and hover and keeps every compatible
// alternative; Validate walks a whole document and judges it.
package matcher

import (
	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/schema"
	valv "github.com/yakwilikk/go-yamlls/pkg/valuevalidator"
)

// MaxDepth bounds nested composition while expanding one node.
const MaxDepth = 64

// Op names the composition keyword an entry came through.
type Op int

const (
	OpNone Op = iota
	OpAllOf
	OpAnyOf
	OpOneOf
	OpNot
)

func (o Op) String() string {
	switch o {
	case OpAllOf:
		return "allOf"
	case OpAnyOf:
		return "anyOf"
	case OpOneOf:
		return "oneOf"
	case OpNot:
		return "not"
	default:
		return "none"
	}
}

// Branch locates an entry inside its parent composition.
type Branch struct {
	Op     Op
	Parent *schema.Schema
	Index  int
}

// Entry pairs a node with a schema that applies to it.
type Entry struct {
	Node     document.NodeID
	Schema   *schema.Schema
	Inverted bool // reached through an odd number of "not"
	Branch   Branch
}

// Match returns the schemas that apply to target, in schema order. Property
// and key nodes are matched through their value. Every structurally
// compatible anyOf/oneOf branch is kept. A nil result means nothing
// constrains the location.
func Match(doc *document.Document, root *schema.Schema, target document.NodeID) []Entry {
	if doc == nil || root == nil || doc.Node(target) == nil {
		return nil
	}
	target = valueOf(doc, target)

	w := &walker{doc: doc, stack: make(map[visit]bool)}
	path := doc.Path(target)
	entries := w.expand(path[0], root, false, Branch{}, 0)
	for i := 1; i < len(path) && len(entries) > 0; i++ {
		n := doc.Node(path[i])
		if n.Kind == document.KindProperty {
			continue
		}
		entries = w.descend(entries, path[i])
	}
	return entries
}

// MatchValue returns the schemas for a value that is not in the tree yet:
// the value of property key when container is an object, the item at
// index when it is an array, and the document root when container is
// NoNode. Alternatives are not filtered since there is no content to
// judge them by.
func MatchValue(doc *document.Document, root *schema.Schema, container document.NodeID, key string, index int) []Entry {
	if doc == nil || root == nil {
		return nil
	}
	w := &walker{doc: doc, stack: make(map[visit]bool)}
	if container == document.NoNode {
		return w.expand(document.NoNode, root, false, Branch{}, 0)
	}
	n := doc.Node(container)
	if n == nil {
		return nil
	}
	var out []Entry
	for _, e := range Match(doc, root, container) {
		var subs []*schema.Schema
		switch n.Kind {
		case document.KindObject:
			subs, _ = e.Schema.PropertySchemas(key)
		case document.KindArray:
			if item := e.Schema.ItemSchema(index); item != nil {
				subs = append(subs, item)
			}
		}
		for _, s := range subs {
			out = append(out, w.expand(document.NoNode, s, e.Inverted, Branch{}, 0)...)
		}
	}
	return out
}

// valueOf maps property and key nodes to the property's value.
func valueOf(doc *document.Document, id document.NodeID) document.NodeID {
	n := doc.Node(id)
	if n.Kind == document.KindProperty {
		return doc.ValueNode(id)
	}
	if p := doc.Node(n.Parent); p != nil && p.Kind == document.KindProperty && doc.KeyNode(n.Parent) == id {
		return doc.ValueNode(n.Parent)
	}
	return id
}

type visit struct {
	node   document.NodeID
	schema *schema.Schema
}

type walker struct {
	doc   *document.Document
	stack map[visit]bool
}

// descend moves from the entries of a container to the entries of child.
func (w *walker) descend(parents []Entry, child document.NodeID) []Entry {
	doc := w.doc
	n := doc.Node(child)
	var out []Entry
	for _, e := range parents {
		var subs []*schema.Schema
		if prop := doc.Node(n.Parent); prop != nil && prop.Kind == document.KindProperty {
			subs, _ = e.Schema.PropertySchemas(doc.Key(n.Parent))
		} else if doc.Node(n.Parent).Kind == document.KindArray {
			if item := e.Schema.ItemSchema(doc.IndexOf(child)); item != nil {
				subs = append(subs, item)
			}
		}
		for _, s := range subs {
			out = append(out, w.expand(child, s, e.Inverted, Branch{}, 0)...)
		}
	}
	return out
}

// expand emits s for node and recurses into its composition keywords.
func (w *walker) expand(node document.NodeID, s *schema.Schema, inverted bool, branch Branch, depth int) []Entry {
	if s == nil || depth > MaxDepth {
		return nil
	}
	key := visit{node, s}
	if w.stack[key] {
		return nil
	}
	w.stack[key] = true
	defer delete(w.stack, key)

	out := []Entry{{Node: node, Schema: s, Inverted: inverted, Branch: branch}}
	for i, sub := range s.AllOf {
		out = append(out, w.expand(node, sub, inverted, Branch{Op: OpAllOf, Parent: s, Index: i}, depth+1)...)
	}
	out = append(out, w.alternatives(node, s, s.AnyOf, OpAnyOf, inverted, depth)...)
	out = append(out, w.alternatives(node, s, s.OneOf, OpOneOf, inverted, depth)...)
	if s.Not != nil {
		out = append(out, w.expand(node, s.Not, !inverted, Branch{Op: OpNot, Parent: s}, depth+1)...)
	}
	return out
}

// alternatives keeps the compatible branches, or all of them when none is
// compatible so that editing mistakes still get suggestions.
func (w *walker) alternatives(node document.NodeID, parent *schema.Schema, alts []*schema.Schema, op Op, inverted bool, depth int) []Entry {
	if len(alts) == 0 {
		return nil
	}
	keep := make([]bool, len(alts))
	someCompatible := false
	for i, alt := range alts {
		keep[i] = Compatible(w.doc, node, alt)
		someCompatible = someCompatible || keep[i]
	}
	var out []Entry
	for i, alt := range alts {
		if someCompatible && !keep[i] {
			continue
		}
		out = append(out, w.expand(node, alt, inverted, Branch{Op: op, Parent: parent, Index: i}, depth+1)...)
	}
	return out
}

// Compatible reports whether node could satisfy s judging only by its own
// content: the declared type, const and enum, and for objects the
// const/enum discriminators of present properties. Empty values are
// compatible with everything.
func Compatible(doc *document.Document, node document.NodeID, s *schema.Schema) bool {
	return compatible(doc, node, s, 0)
}

func compatible(doc *document.Document, node document.NodeID, s *schema.Schema, depth int) bool {
	if s == nil {
		return false
	}
	if s.Bool != nil {
		return *s.Bool
	}
	n := doc.Node(doc.Resolve(node))
	if n == nil || (n.Kind == document.KindNull && n.Length == 0) || depth > 8 {
		return true
	}
	if !typeCompatible(n, s) {
		return false
	}
	if n.Kind.IsScalar() && !literalAllowed(doc, node, s) {
		return false
	}
	if n.Kind == document.KindObject {
		for _, pair := range Pairs(doc, node) {
			prop := s.Property(pair.Key)
			if prop == nil {
				continue
			}
			v := doc.Node(doc.Resolve(pair.Value))
			if v == nil || !v.Kind.IsScalar() || (v.Kind == document.KindNull && v.Length == 0) {
				continue
			}
			if !literalAllowed(doc, pair.Value, prop) {
				return false
			}
		}
	}
	for _, sub := range s.AllOf {
		if !compatible(doc, node, sub, depth+1) {
			return false
		}
	}
	return true
}

func typeCompatible(n *document.Node, s *schema.Schema) bool {
	if len(s.Type) > 0 {
		for _, t := range s.Type {
			if valv.MatchesType(n, t) {
				return true
			}
		}
		return false
	}
	switch s.Variant() {
	case schema.VariantObject:
		return n.Kind == document.KindObject
	case schema.VariantArray:
		return n.Kind == document.KindArray
	}
	return true
}

func literalAllowed(doc *document.Document, node document.NodeID, s *schema.Schema) bool {
	if s.Const == nil && len(s.Enum) == 0 {
		return true
	}
	v := schema.NodeValue(doc, node)
	if s.Const != nil && !v.Equal(*s.Const) {
		return false
	}
	if len(s.Enum) > 0 {
		for _, e := range s.Enum {
			if v.Equal(e) {
				return true
			}
		}
		return false
	}
	return true
}
