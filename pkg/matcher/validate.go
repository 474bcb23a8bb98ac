package matcher

import (
	"fmt"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
	"github.com/yakwilikk/go-yamlls/pkg/schema"
	valv "github.com/yakwilikk/go-yamlls/pkg/valuevalidator"
)

// Messages shared with the language server diagnostics.
const (
	MsgNotAllowed      = "Matches a schema that is not allowed."
	MsgMultipleOneOf   = "Matches multiple schemas when only one must validate."
	msgMissingProperty = "Missing property %q."
	msgPropNotAllowed  = "Property %s is not allowed."
	msgTooManyTuple    = "Array has too many items according to schema. Expected %d or fewer."
	msgDeprecatedProp  = "Property %s is deprecated."
)

// Result is the outcome of validating a node against a schema.
type Result struct {
	Entries  []Entry
	Problems *problem.Collector

	// scoring for anyOf/oneOf branch selection
	propertiesMatches      int
	propertiesValueMatches int
	primaryValueMatches    int
}

func newResult() *Result {
	return &Result{Problems: problem.NewCollector()}
}

// merge takes problems and entries from sub, leaving the scores alone.
func (r *Result) merge(sub *Result) {
	r.Entries = append(r.Entries, sub.Entries...)
	r.Problems.Merge(sub.Problems)
}

// better reports whether r is a better branch than other: fewer errors,
// then more matched properties, then more matched property values.
func (r *Result) better(other *Result) bool {
	re, oe := len(r.Problems.Errors()), len(other.Problems.Errors())
	if re != oe {
		return re < oe
	}
	if r.propertiesMatches != other.propertiesMatches {
		return r.propertiesMatches > other.propertiesMatches
	}
	if r.propertiesValueMatches != other.propertiesValueMatches {
		return r.propertiesValueMatches > other.propertiesValueMatches
	}
	return r.primaryValueMatches > other.primaryValueMatches
}

// Validate walks every node of doc against root. oneOf is strict here:
// only the best branch contributes problems and entries.
func Validate(doc *document.Document, root *schema.Schema) *Result {
	res := newResult()
	if doc == nil || root == nil || doc.Node(doc.Root) == nil {
		return res
	}
	prefix := ""
	if doc.Index > 0 {
		prefix = fmt.Sprintf("doc[%d]", doc.Index)
	}
	v := &validator{doc: doc, stack: make(map[visit]bool)}
	v.validate(doc.Root, root, prefix, false, Branch{}, 0, res)
	return res
}

type validator struct {
	doc   *document.Document
	stack map[visit]bool
}

func (v *validator) validate(node document.NodeID, s *schema.Schema, path string, inverted bool, branch Branch, depth int, res *Result) {
	if s == nil || depth > MaxDepth {
		return
	}
	key := visit{node, s}
	if v.stack[key] {
		return
	}
	v.stack[key] = true
	defer delete(v.stack, key)

	doc := v.doc
	at := doc.Node(node)
	target := doc.Resolve(node)
	n := doc.Node(target)
	if at == nil || n == nil {
		return
	}
	res.Entries = append(res.Entries, Entry{Node: node, Schema: s, Inverted: inverted, Branch: branch})

	local := problem.NewCollector()
	defer stamp(res.Problems, local, s.URL)

	if s.Bool != nil {
		if !*s.Bool {
			local.Add(problem.Problem{Level: problem.LevelError, Path: path, Message: MsgNotAllowed}.At(at))
		}
		return
	}

	typeOK := true
	if len(s.Type) > 0 {
		before := len(local.Errors())
		valv.OneOfTypeValidator{Types: s.Type, Message: s.ErrorMessage}.Validate(doc, node, path, local)
		typeOK = len(local.Errors()) == before
	}
	if typeOK {
		res.primaryValueMatches++
	}

	for i, sub := range s.AllOf {
		v.validate(node, sub, path, inverted, Branch{Op: OpAllOf, Parent: s, Index: i}, depth+1, res)
	}
	if s.Not != nil {
		sub := newResult()
		v.validate(node, s.Not, path, !inverted, Branch{Op: OpNot, Parent: s}, depth+1, sub)
		res.Entries = append(res.Entries, sub.Entries...)
		if !sub.Problems.HasErrors() {
			local.Add(problem.Problem{Level: problem.LevelError, Path: path, Message: MsgNotAllowed}.At(at))
		}
	}
	v.alternatives(node, s, s.AnyOf, OpAnyOf, path, inverted, depth, res, local)
	v.alternatives(node, s, s.OneOf, OpOneOf, path, inverted, depth, res, local)

	if len(s.Enum) > 0 {
		before := len(local.Errors())
		valv.EnumValidator{Allowed: s.Enum, Message: s.ErrorMessage}.Validate(doc, node, path, local)
		if len(local.Errors()) == before {
			res.primaryValueMatches++
		}
	}
	if s.Const != nil {
		before := len(local.Errors())
		valv.ConstValidator{Value: *s.Const, Message: s.ErrorMessage}.Validate(doc, node, path, local)
		if len(local.Errors()) == before {
			res.primaryValueMatches++
		}
	}

	if !typeOK {
		return
	}
	switch n.Kind {
	case document.KindObject:
		v.validateObject(node, target, s, path, inverted, res, local)
	case document.KindArray:
		v.validateArray(node, target, s, path, inverted, res, local)
	}
	for _, vld := range valueValidators(s) {
		vld.Validate(doc, node, path, local)
	}
}

// alternatives validates anyOf/oneOf branches independently and keeps the
// best one.
func (v *validator) alternatives(node document.NodeID, parent *schema.Schema, alts []*schema.Schema, op Op, path string, inverted bool, depth int, res *Result, local *problem.Collector) {
	if len(alts) == 0 {
		return
	}
	var best *Result
	valid := 0
	for i, alt := range alts {
		sub := newResult()
		v.validate(node, alt, path, inverted, Branch{Op: op, Parent: parent, Index: i}, depth+1, sub)
		if !sub.Problems.HasErrors() {
			valid++
		}
		if best == nil || sub.better(best) {
			best = sub
		}
	}
	res.merge(best)
	res.propertiesMatches += best.propertiesMatches
	res.propertiesValueMatches += best.propertiesValueMatches
	res.primaryValueMatches += best.primaryValueMatches
	if op == OpOneOf && valid > 1 {
		local.Add(problem.Problem{Level: problem.LevelError, Path: path, Message: MsgMultipleOneOf}.At(v.doc.Node(node)))
	}
}

func (v *validator) validateObject(node, target document.NodeID, s *schema.Schema, path string, inverted bool, res *Result, local *problem.Collector) {
	doc := v.doc
	pairs := Pairs(doc, target)
	present := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		present[p.Key] = true
	}

	// Missing properties are reported on the key that owns the mapping.
	anchor := doc.Node(node)
	if parent := doc.Node(anchor.Parent); parent != nil && parent.Kind == document.KindProperty {
		anchor = doc.Node(doc.KeyNode(anchor.Parent))
	}
	for _, name := range s.RequiredInOrder() {
		if !present[name] {
			local.Add(problem.Problem{
				Level:    problem.LevelError,
				Path:     joinPath(path, name),
				Message:  fmt.Sprintf(msgMissingProperty, name),
				Expected: name,
			}.At(anchor))
		}
	}

	keyChecks := keyValidators(s.PropertyNames)
	for _, p := range pairs {
		childPath := joinPath(path, p.Key)
		keyNode := doc.Node(p.KeyID)
		for _, kv := range keyChecks {
			kv.ValidateKey(p.Key, keyNode, childPath, local)
		}

		subs, declared := s.PropertySchemas(p.Key)
		if !declared && s.AdditionalProperties.IsFalse() {
			local.Add(problem.Problem{
				Level:   problem.LevelError,
				Path:    childPath,
				Message: fmt.Sprintf(msgPropNotAllowed, p.Key),
				Got:     p.Key,
			}.At(keyNode))
			continue
		}
		for _, sub := range subs {
			if sub.Deprecated {
				msg := sub.DeprecationMessage
				if msg == "" {
					msg = fmt.Sprintf(msgDeprecatedProp, p.Key)
				}
				local.Add(problem.Problem{Level: problem.LevelWarning, Path: childPath, Message: msg}.At(keyNode))
			}
			child := newResult()
			v.validate(p.Value, sub, childPath, inverted, Branch{}, 0, child)
			res.merge(child)
			if declared {
				res.propertiesMatches++
				if !child.Problems.HasErrors() {
					res.propertiesValueMatches++
				}
			}
		}
	}
}

func (v *validator) validateArray(node, target document.NodeID, s *schema.Schema, path string, inverted bool, res *Result, local *problem.Collector) {
	items := v.doc.Items(target)
	if len(s.ItemsList) > 0 {
		for i, item := range items {
			var sub *schema.Schema
			switch {
			case i < len(s.ItemsList):
				sub = s.ItemsList[i]
			case s.AdditionalItems.IsFalse():
				local.Add(problem.Problem{
					Level:    problem.LevelError,
					Path:     path,
					Message:  fmt.Sprintf(msgTooManyTuple, len(s.ItemsList)),
					Got:      fmt.Sprintf("%d items", len(items)),
					Expected: fmt.Sprintf("at most %d items", len(s.ItemsList)),
				}.At(v.doc.Node(node)))
				return
			default:
				sub = s.AdditionalItems
			}
			v.validateItem(item, sub, indexPath(path, i), inverted, res)
		}
		return
	}
	if s.Items == nil {
		return
	}
	for i, item := range items {
		v.validateItem(item, s.Items, indexPath(path, i), inverted, res)
	}
}

func (v *validator) validateItem(item document.NodeID, s *schema.Schema, path string, inverted bool, res *Result) {
	if s == nil {
		return
	}
	child := newResult()
	v.validate(item, s, path, inverted, Branch{}, 0, child)
	res.merge(child)
	res.propertiesMatches++
	if !child.Problems.HasErrors() {
		res.propertiesValueMatches++
	}
}

// stamp copies problems into dst, attributing unattributed ones to url.
func stamp(dst, src *problem.Collector, url string) {
	for _, p := range src.All() {
		if p.Source == "" {
			p.Source = url
		}
		dst.Add(p)
	}
}
