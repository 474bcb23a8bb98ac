package yamlls

import (
	"strings"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/matcher"
	"github.com/yakwilikk/go-yamlls/pkg/schema"
)

// CompletionItemKind mirrors the LSP completion kinds used here.
type CompletionItemKind int

const (
	CompletionKindModule   CompletionItemKind = 9
	CompletionKindProperty CompletionItemKind = 10
	CompletionKindValue    CompletionItemKind = 12
)

// CompletionItem is one candidate. InsertText uses snippet syntax and
// replaces Range.
type CompletionItem struct {
	Label         string             `json:"label"`
	Kind          CompletionItemKind `json:"kind"`
	InsertText    string             `json:"insertText"`
	Range         document.Range     `json:"range"`
	Documentation string             `json:"documentation,omitempty"`
}

// CompletionList is the result of a completion request.
type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

const defaultIndentation = "  "

// Complete returns the candidates for the cursor at offset in file. It
// never fails: documents that cannot be made sense of give no candidates.
func Complete(file *document.File, root *schema.Schema, offset int) []CompletionItem {
	if file == nil {
		return nil
	}
	return complete(file.Text, root, offset, defaultIndentation)
}

func complete(text string, root *schema.Schema, offset int, unit string) []CompletionItem {
	if root == nil {
		return nil
	}
	cur := newCursor(text, offset)
	if cur == nil {
		return nil
	}
	if unit == "" {
		unit = defaultIndentation
	}
	c := &completer{root: root, cur: cur, unit: unit, seen: make(map[*schema.Schema]bool)}
	switch cur.slot {
	case slotValue:
		c.valueSlot()
	case slotKey, slotItem:
		c.keySlot()
	case slotBlank:
		c.blankSlot()
	}
	return c.items()
}

type candidate struct {
	label string
	kind  CompletionItemKind
	text  string
	doc   string
	name  string // property candidates
	after string // skeletons: placed after this property's candidate
}

type completer struct {
	root *schema.Schema
	cur  *cursor
	unit string
	seen map[*schema.Schema]bool

	props     []candidate
	skeletons []candidate
	values    []candidate
}

// keySlot completes a key being typed, or an empty "- " item.
func (c *completer) keySlot() {
	line, at := c.cur.keyProbe()
	p, ok := c.cur.parseProbe(line, at)
	if !ok {
		return
	}
	c.keys(p)
	if c.cur.dash && c.cur.colon < 0 {
		c.itemValues(p, false)
	}
}

// valueSlot completes the value of "key:".
func (c *completer) valueSlot() {
	p, ok := c.cur.parseProbe(c.cur.valueProbe(), c.cur.keyCol)
	if !ok {
		return
	}
	prop := p.doc.Node(p.key).Parent
	obj := p.doc.Node(prop).Parent
	c.addValues(matcher.MatchValue(p.doc, c.root, obj, c.cur.key, 0), false, false)
}

// blankSlot tries, in order, a new key, a new sequence item, the value
// of an open "key:" above the cursor and a key aligned with the mapping
// above. Candidates always replace at the cursor.
func (c *completer) blankSlot() {
	line, at := c.cur.keyProbe()
	if p, ok := c.cur.parseProbe(line, at); ok {
		c.keys(p)
		if strings.TrimSpace(c.cur.text) == "" {
			c.addValues(matcher.MatchValue(p.doc, c.root, document.NoNode, "", 0), false, false)
		}
		if c.found() {
			return
		}
	}
	line, at = c.cur.dashProbe()
	if p, ok := c.cur.parseProbe(line, at); ok {
		c.itemValues(p, true)
		if c.found() {
			return
		}
	}
	if off, ok := c.cur.previousKey(); ok {
		if p, ok := locate(c.cur.text, off); ok {
			prop := p.doc.Node(p.key).Parent
			obj := p.doc.Node(prop).Parent
			c.addValues(matcher.MatchValue(p.doc, c.root, obj, p.doc.Key(prop), 0), false, false)
			if c.found() {
				return
			}
		}
	}
	if col, ok := c.cur.enclosingKeyCol(); ok {
		line, at := c.cur.siblingProbe(col)
		if p, ok := c.cur.parseProbe(line, at); ok {
			c.keys(p)
		}
	}
}

func (c *completer) found() bool {
	return len(c.props)+len(c.skeletons)+len(c.values) > 0
}

// contributor is one property schema proposing a key.
type contributor struct {
	schema *schema.Schema
	branch matcher.Branch
}

// keys proposes the properties of the mapping holding the probe key.
func (c *completer) keys(p parsedProbe) {
	doc := p.doc
	obj := doc.Node(doc.Node(p.key).Parent).Parent
	present := make(map[string]bool)
	for _, pair := range matcher.Pairs(doc, obj) {
		if pair.Key != completionPlaceholder {
			present[pair.Key] = true
		}
	}

	groups := make(map[string][]contributor)
	var order []string
	add := func(name string, ct contributor) {
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], ct)
	}
	var names []*schema.Schema
	for _, e := range matcher.Match(doc, c.root, obj) {
		if e.Inverted || e.Schema.Bool != nil {
			continue
		}
		for _, prop := range e.Schema.Properties {
			if present[prop.Name] || prop.Schema == nil || prop.Schema.DoNotSuggest || prop.Schema.IsFalse() {
				continue
			}
			add(prop.Name, contributor{schema: prop.Schema, branch: e.Branch})
		}
		if pn := e.Schema.PropertyNames; pn != nil && pn.Bool == nil {
			names = append(names, pn)
		}
	}
	for _, name := range order {
		c.property(name, preferRequired(groups[name]))
	}
	for _, pn := range names {
		c.propertyNames(pn, present, groups)
	}
}

// preferRequired keeps, among contributors from sibling oneOf branches,
// the one whose schema requires the most properties.
func preferRequired(cts []contributor) []contributor {
	best := make(map[*schema.Schema]int)
	for i, ct := range cts {
		if ct.branch.Op != matcher.OpOneOf {
			continue
		}
		j, ok := best[ct.branch.Parent]
		if !ok || len(ct.schema.Required) > len(cts[j].schema.Required) {
			best[ct.branch.Parent] = i
		}
	}
	out := cts[:0:0]
	for i, ct := range cts {
		if ct.branch.Op == matcher.OpOneOf && best[ct.branch.Parent] != i {
			continue
		}
		out = append(out, ct)
	}
	return out
}

// property turns the contributors of one key into candidates.
func (c *completer) property(name string, cts []contributor) {
	key := escapeSnippet(name)
	if c.cur.colon >= 0 {
		c.addProperty(name, key, cts[0].schema)
		return
	}
	var (
		values      []schema.Value
		onlyDefault = true
		scalarDone  bool
	)
	for _, ct := range cts {
		if shapeOf(ct.schema) == shapeScalar {
			for _, s := range flatten(ct.schema) {
				v, fromDefault := proposals(s)
				for _, x := range v {
					if !containsValue(values, x) {
						values = append(values, x)
					}
				}
				onlyDefault = onlyDefault && (fromDefault || len(v) == 0)
			}
		}
	}
	for _, ct := range cts {
		if shapeOf(ct.schema) != shapeScalar {
			w := &snippetWriter{unit: c.unit}
			c.addProperty(name, w.property(name, ct.schema, c.cur.extra(), false), ct.schema)
			continue
		}
		if scalarDone {
			continue
		}
		scalarDone = true
		w := &snippetWriter{unit: c.unit}
		text := key + ": "
		switch {
		case len(values) == 1 && onlyDefault:
			text += w.placeholder(scalarText(values[0]))
		case len(values) == 1:
			text += escapeSnippet(scalarText(values[0]))
		case len(values) > 1:
			options := make([]string, len(values))
			for i, v := range values {
				options[i] = scalarText(v)
			}
			text += w.choice(options)
		}
		c.addProperty(name, text, ct.schema)
	}
}

func (c *completer) addProperty(name, text string, s *schema.Schema) {
	c.props = append(c.props, candidate{
		label: name,
		kind:  CompletionKindProperty,
		text:  c.cur.lead() + text,
		doc:   description(s),
		name:  name,
	})
}

// propertyNames offers the keys a propertyNames schema enumerates, or a
// placeholder key named after it.
func (c *completer) propertyNames(pn *schema.Schema, present map[string]bool, declared map[string][]contributor) {
	var enumerated bool
	for _, s := range flatten(pn) {
		for _, v := range s.Enum {
			if v.Kind != schema.ValueString || present[v.Str] || declared[v.Str] != nil {
				continue
			}
			enumerated = true
			text := escapeSnippet(v.Str)
			if c.cur.colon < 0 {
				text += ": "
			}
			c.props = append(c.props, candidate{label: v.Str, kind: CompletionKindProperty, text: c.cur.lead() + text, name: v.Str})
		}
	}
	if enumerated {
		return
	}
	label := pn.Title
	if label == "" {
		label = "property"
	}
	w := &snippetWriter{unit: c.unit}
	text := w.placeholder(label)
	if c.cur.colon < 0 {
		text += ": "
	}
	c.props = append(c.props, candidate{label: label, kind: CompletionKindProperty, text: c.cur.lead() + text, doc: pn.Description})
}

// itemValues proposes whole items for the sequence holding the probe key:
// object skeletons and literals. blank marks a probe that added the "- "
// marker itself, which the inserted text must then carry.
func (c *completer) itemValues(p parsedProbe, blank bool) {
	doc := p.doc
	obj := doc.Node(doc.Node(p.key).Parent).Parent
	arr := doc.Node(obj).Parent
	if n := doc.Node(arr); n == nil || n.Kind != document.KindArray {
		return
	}
	entries := matcher.MatchValue(doc, c.root, arr, "", doc.IndexOf(obj))
	c.addSkeletons(entries, blank)
	c.addValues(entries, true, blank)
}

func (c *completer) addSkeletons(entries []matcher.Entry, blank bool) {
	for _, e := range entries {
		s := e.Schema
		if e.Inverted || shapeOf(s) != shapeObject || s.Const != nil || len(s.Enum) > 0 {
			continue
		}
		required := s.RequiredInOrder()
		if len(required) == 0 && !blank {
			continue
		}
		indent := c.cur.extra()
		if blank {
			indent += "  "
		}
		w := &snippetWriter{unit: c.unit}
		body := w.object(s, indent)
		label, text := "(array item) object", body
		if blank {
			label, text = "- "+label, "- "+body
		}
		sk := candidate{
			label: label,
			kind:  CompletionKindModule,
			text:  c.cur.lead() + text,
			doc:   "Create an item of an array type `object`\n ```\n- " + body + "\n```",
		}
		if len(required) > 0 {
			sk.after = required[0]
		}
		c.skeletons = append(c.skeletons, sk)
	}
}

// addValues proposes the literals the entries allow. item marks a
// sequence item slot, where nested collections line up with the item
// itself; blank also prefixes them with a sequence marker.
func (c *completer) addValues(entries []matcher.Entry, item, blank bool) {
	indent := c.cur.extra()
	switch {
	case blank:
		indent += "  "
	case !item:
		indent += c.unit
	}
	for _, e := range entries {
		if e.Inverted || c.seen[e.Schema] {
			continue
		}
		c.seen[e.Schema] = true
		s := e.Schema
		if s.Bool != nil || (len(s.Type) == 1 && s.Type[0] == schema.TypeObject) {
			continue
		}
		var vals []schema.Value
		var docs []string
		literal := func(v schema.Value, doc string) {
			vals = append(vals, v)
			docs = append(docs, doc)
		}
		if s.Const != nil {
			literal(*s.Const, description(s))
		}
		for i, v := range s.Enum {
			literal(v, enumDescription(s, i))
		}
		if s.Default != nil {
			literal(*s.Default, "")
		}
		for _, v := range s.Examples {
			literal(v, "")
		}
		if s.Const == nil && len(s.Enum) == 0 {
			if s.HasType(schema.TypeBoolean) {
				literal(schema.Bool(true), "")
				literal(schema.Bool(false), "")
			}
			if s.HasType(schema.TypeNull) {
				literal(schema.Null(), "")
			}
		}
		for i, v := range vals {
			label, text := literalLabel(v), literalSnippet(v, indent)
			if blank {
				label, text = "- "+label, "- "+text
			}
			c.values = append(c.values, candidate{label: label, kind: CompletionKindValue, text: c.cur.lead() + text, doc: docs[i]})
		}
	}
}

// items orders the candidates and drops exact duplicates: properties with
// each skeleton after the first required property it seeds, then values.
func (c *completer) items() []CompletionItem {
	all := make([]candidate, 0, len(c.props)+len(c.skeletons)+len(c.values))
	all = append(all, c.props...)
	for _, sk := range c.skeletons {
		at := len(all)
		if sk.after != "" {
			for i, p := range all {
				if p.kind == CompletionKindProperty && p.name == sk.after {
					at = i + 1
					break
				}
			}
		}
		all = append(all[:at], append([]candidate{sk}, all[at:]...)...)
	}
	all = append(all, c.values...)

	rng := c.cur.lines.RangeOf(c.cur.start, c.cur.end-c.cur.start)
	type dedupeKey struct{ label, text string }
	seen := make(map[dedupeKey]bool, len(all))
	out := make([]CompletionItem, 0, len(all))
	for _, cand := range all {
		k := dedupeKey{cand.label, cand.text}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, CompletionItem{
			Label:         cand.label,
			Kind:          cand.kind,
			InsertText:    cand.text,
			Range:         rng,
			Documentation: cand.doc,
		})
	}
	return out
}

// flatten lists s and the branches of its compositions.
func flatten(s *schema.Schema) []*schema.Schema {
	var out []*schema.Schema
	var walk func(s *schema.Schema, depth int)
	walk = func(s *schema.Schema, depth int) {
		if s == nil || depth > matcher.MaxDepth {
			return
		}
		out = append(out, s)
		for _, list := range [][]*schema.Schema{s.AllOf, s.AnyOf, s.OneOf} {
			for _, b := range list {
				walk(b, depth+1)
			}
		}
	}
	walk(s, 0)
	return out
}

// proposals returns the literals a scalar property schema suggests:
// const, null for a null type, default, then enum. fromDefault is set
// when the default is all it has.
func proposals(s *schema.Schema) (vals []schema.Value, fromDefault bool) {
	if s.Const != nil {
		vals = append(vals, *s.Const)
	}
	if s.HasType(schema.TypeNull) && !(len(s.Type) == 1 && s.Default != nil && s.Default.Kind == schema.ValueNull) {
		vals = append(vals, schema.Null())
	}
	if s.Default != nil {
		vals = append(vals, *s.Default)
	}
	vals = append(vals, s.Enum...)
	return vals, s.Default != nil && len(vals) == 1
}

func containsValue(vals []schema.Value, v schema.Value) bool {
	for _, x := range vals {
		if x.Equal(v) {
			return true
		}
	}
	return false
}

func description(s *schema.Schema) string {
	if s == nil {
		return ""
	}
	if s.MarkdownDescription != "" {
		return s.MarkdownDescription
	}
	return s.Description
}

func enumDescription(s *schema.Schema, i int) string {
	if i < len(s.MarkdownEnumDescriptions) {
		return s.MarkdownEnumDescriptions[i]
	}
	if i < len(s.EnumDescriptions) {
		return s.EnumDescriptions[i]
	}
	return ""
}
