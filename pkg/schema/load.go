package schema

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnresolvedRef is wrapped by ResolutionError when a $ref target
	// does not exist.
	ErrUnresolvedRef = errors.New("unresolved $ref")
	// ErrCyclicRef is wrapped when a chain of pure $refs loops.
	ErrCyclicRef = errors.New("cyclic $ref")
	// ErrInvalidSchema reports a document that is not a schema object.
	ErrInvalidSchema = errors.New("invalid schema document")
)

// ResolutionError describes one reference that could not be followed.
type ResolutionError struct {
	URI string
	Ref string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: $ref %q: %v", e.URI, e.Ref, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Fetcher retrieves raw schema documents for external references.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Loaded is a resolved schema graph.
type Loaded struct {
	URI  string
	Root *Schema
	// Errors lists references and keywords that could not be honored.
	// The affected locations are left unconstrained.
	Errors []error
}

// Load decodes a JSON or YAML schema document and resolves every $ref.
// fetcher may be nil, in which case references to other documents fail.
func Load(ctx context.Context, uri string, data []byte, fetcher Fetcher) (*Loaded, error) {
	l := &loader{
		ctx:     ctx,
		fetcher: fetcher,
		docs:    make(map[string]*sourceDoc),
		ids:     make(map[string]*Schema),
		errSeen: make(map[string]bool),
	}
	doc, err := l.addDocument(uri, data)
	if err != nil {
		return nil, err
	}
	root := doc.root
	l.resolve(&root)
	return &Loaded{URI: uri, Root: root, Errors: l.errs}, nil
}

// LoadSchema is Load without external reference support.
func LoadSchema(uri string, data []byte) (*Loaded, error) {
	return Load(context.Background(), uri, data, nil)
}

type sourceDoc struct {
	uri      string
	raw      *yaml.Node
	root     *Schema
	pointers map[string]*Schema
}

type loader struct {
	ctx     context.Context
	fetcher Fetcher
	docs    map[string]*sourceDoc
	ids     map[string]*Schema
	errs    []error
	errSeen map[string]bool
}

func (l *loader) addDocument(uri string, data []byte) (*sourceDoc, error) {
	var raw yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", uri, err)
	}
	if raw.Kind == yaml.DocumentNode && len(raw.Content) > 0 {
		raw = *raw.Content[0]
	}
	if raw.Kind != yaml.MappingNode && !(raw.Kind == yaml.ScalarNode && raw.Tag == "!!bool") {
		return nil, fmt.Errorf("schema %s: %w", uri, ErrInvalidSchema)
	}
	doc := &sourceDoc{uri: uri, raw: &raw, pointers: make(map[string]*Schema)}
	l.docs[stripFragment(uri)] = doc
	doc.root = l.decode(&raw, doc, "")
	if doc.root.ID != "" {
		if abs := resolveURI(uri, doc.root.ID); abs != "" {
			l.docs[stripFragment(abs)] = doc
		}
	}
	return doc, nil
}

func (l *loader) fail(uri, ref string, err error) {
	key := uri + "\x00" + ref
	if l.errSeen[key] {
		return
	}
	l.errSeen[key] = true
	l.errs = append(l.errs, &ResolutionError{URI: uri, Ref: ref, Err: err})
}

func (l *loader) decode(n *yaml.Node, doc *sourceDoc, pointer string) *Schema {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if existing, ok := doc.pointers[pointer]; ok {
		return existing
	}
	s := &Schema{URL: doc.uri, Anchor: "#" + pointer}
	doc.pointers[pointer] = s

	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!bool" {
			s.Bool = ptr(n.Value == "true")
		}
		return s
	case yaml.MappingNode:
	default:
		return s
	}

	var exclusiveMin, exclusiveMax bool
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		if val.Kind == yaml.AliasNode && val.Alias != nil {
			val = val.Alias
		}
		at := pointer + "/" + escapePointer(key)
		switch key {
		case "$id", "id":
			if val.Kind == yaml.ScalarNode {
				s.ID = val.Value
				if abs := resolveURI(doc.uri, val.Value); abs != "" && pointer != "" {
					l.ids[abs] = s
				}
			}
		case "$anchor":
			l.ids[stripFragment(doc.uri)+"#"+val.Value] = s
		case "$ref":
			s.Ref = val.Value
		case "title":
			s.Title = val.Value
		case "description":
			s.Description = val.Value
		case "markdownDescription":
			s.MarkdownDescription = val.Value
		case "deprecationMessage":
			s.DeprecationMessage = val.Value
			s.Deprecated = true
		case "deprecated":
			s.Deprecated = val.Value == "true"
		case "errorMessage":
			s.ErrorMessage = val.Value
		case "patternErrorMessage":
			s.PatternErrorMessage = val.Value
		case "doNotSuggest":
			s.DoNotSuggest = val.Value == "true"
		case "format":
			s.Format = val.Value
		case "pattern":
			s.Pattern = val.Value
			re, err := regexp.Compile(val.Value)
			if err != nil {
				l.fail(doc.uri, "#"+at, err)
			} else {
				s.PatternRegexp = re
			}
		case "type":
			s.Type = stringList(val)
		case "properties":
			for j := 0; j+1 < len(val.Content); j += 2 {
				name := val.Content[j].Value
				child := l.decode(val.Content[j+1], doc, at+"/"+escapePointer(name))
				s.Properties = append(s.Properties, &Property{Name: name, Schema: child})
			}
		case "patternProperties":
			for j := 0; j+1 < len(val.Content); j += 2 {
				pattern := val.Content[j].Value
				child := l.decode(val.Content[j+1], doc, at+"/"+escapePointer(pattern))
				re, err := regexp.Compile(pattern)
				if err != nil {
					l.fail(doc.uri, "#"+at, err)
				}
				s.PatternProperties = append(s.PatternProperties, &PatternProperty{Pattern: pattern, Regexp: re, Schema: child})
			}
		case "definitions", "$defs":
			for j := 0; j+1 < len(val.Content); j += 2 {
				name := val.Content[j].Value
				child := l.decode(val.Content[j+1], doc, at+"/"+escapePointer(name))
				s.Definitions = append(s.Definitions, &Property{Name: name, Schema: child})
			}
		case "additionalProperties":
			s.AdditionalProperties = l.decode(val, doc, at)
		case "propertyNames":
			s.PropertyNames = l.decode(val, doc, at)
		case "items":
			if val.Kind == yaml.SequenceNode {
				for j, item := range val.Content {
					s.ItemsList = append(s.ItemsList, l.decode(item, doc, at+"/"+strconv.Itoa(j)))
				}
			} else {
				s.Items = l.decode(val, doc, at)
			}
		case "additionalItems":
			s.AdditionalItems = l.decode(val, doc, at)
		case "not":
			s.Not = l.decode(val, doc, at)
		case "allOf", "anyOf", "oneOf":
			list := make([]*Schema, 0, len(val.Content))
			for j, item := range val.Content {
				list = append(list, l.decode(item, doc, at+"/"+strconv.Itoa(j)))
			}
			switch key {
			case "allOf":
				s.AllOf = list
			case "anyOf":
				s.AnyOf = list
			default:
				s.OneOf = list
			}
		case "required":
			if val.Kind == yaml.SequenceNode {
				s.Required = stringList(val)
			}
		case "enum":
			for _, item := range val.Content {
				s.Enum = append(s.Enum, valueFromNode(item))
			}
		case "const":
			v := valueFromNode(val)
			s.Const = &v
		case "default":
			v := valueFromNode(val)
			s.Default = &v
		case "examples":
			if val.Kind == yaml.SequenceNode {
				for _, item := range val.Content {
					s.Examples = append(s.Examples, valueFromNode(item))
				}
			} else {
				s.Examples = append(s.Examples, valueFromNode(val))
			}
		case "enumDescriptions":
			s.EnumDescriptions = stringList(val)
		case "markdownEnumDescriptions":
			s.MarkdownEnumDescriptions = stringList(val)
		case "minLength":
			s.MinLength = intValue(val)
		case "maxLength":
			s.MaxLength = intValue(val)
		case "minItems":
			s.MinItems = intValue(val)
		case "maxItems":
			s.MaxItems = intValue(val)
		case "minProperties":
			s.MinProperties = intValue(val)
		case "maxProperties":
			s.MaxProperties = intValue(val)
		case "uniqueItems":
			s.UniqueItems = val.Value == "true"
		case "minimum":
			s.Minimum = floatValue(val)
		case "maximum":
			s.Maximum = floatValue(val)
		case "multipleOf":
			s.MultipleOf = floatValue(val)
		case "exclusiveMinimum":
			if val.Tag == "!!bool" {
				exclusiveMin = val.Value == "true"
			} else {
				s.ExclusiveMinimum = floatValue(val)
			}
		case "exclusiveMaximum":
			if val.Tag == "!!bool" {
				exclusiveMax = val.Value == "true"
			} else {
				s.ExclusiveMaximum = floatValue(val)
			}
		}
	}

	// draft-04 spells exclusive bounds as booleans next to minimum/maximum
	if exclusiveMin && s.Minimum != nil {
		s.ExclusiveMinimum, s.Minimum = s.Minimum, nil
	}
	if exclusiveMax && s.Maximum != nil {
		s.ExclusiveMaximum, s.Maximum = s.Maximum, nil
	}
	return s
}

// resolve replaces every $ref reachable from root. A reference without
// sibling keywords is replaced by its target; otherwise the target is
// appended to allOf. Unresolvable references become the empty schema.
func (l *loader) resolve(root **Schema) {
	visited := make(map[*Schema]bool)
	var visit func(slot **Schema)
	visit = func(slot **Schema) {
		if *slot == nil {
			return
		}
		for s := *slot; s.Ref != ""; s = *slot {
			target := l.follow(s)
			if target == nil {
				target = &Schema{URL: s.URL, Anchor: s.Anchor}
			}
			if isPureRef(s) {
				*slot = target
			} else {
				s.Ref = ""
				s.AllOf = append(s.AllOf, target)
			}
		}
		if visited[*slot] {
			return
		}
		visited[*slot] = true
		(*slot).children(visit)
	}
	visit(root)
}

// follow walks a chain of references to the first schema that is not a
// pure reference.
func (l *loader) follow(s *Schema) *Schema {
	seen := map[*Schema]bool{s: true}
	cur := s
	for cur.Ref != "" {
		target, err := l.lookup(cur.URL, cur.Ref)
		if err != nil {
			l.fail(cur.URL, cur.Ref, err)
			return nil
		}
		if seen[target] {
			l.fail(cur.URL, cur.Ref, ErrCyclicRef)
			return nil
		}
		seen[target] = true
		if target.Ref == "" || !isPureRef(target) {
			return target
		}
		cur = target
	}
	return cur
}

func (l *loader) lookup(base, ref string) (*Schema, error) {
	abs := resolveURI(base, ref)
	if abs == "" {
		abs = ref
	}
	if s, ok := l.ids[abs]; ok {
		return s, nil
	}
	docURI, fragment := splitFragment(abs)
	doc, ok := l.docs[docURI]
	if !ok {
		if docURI == "" || docURI == stripFragment(base) {
			doc = l.docs[stripFragment(base)]
		}
	}
	if doc == nil {
		var err error
		doc, err = l.fetchDocument(docURI)
		if err != nil {
			return nil, err
		}
	}
	if fragment == "" {
		return doc.root, nil
	}
	if !strings.HasPrefix(fragment, "/") {
		if s, ok := l.ids[stripFragment(doc.uri)+"#"+fragment]; ok {
			return s, nil
		}
		return nil, ErrUnresolvedRef
	}
	return l.pointer(doc, fragment)
}

// pointer returns the schema at a JSON pointer, decoding nodes that were
// not reached through a schema keyword on demand.
func (l *loader) pointer(doc *sourceDoc, fragment string) (*Schema, error) {
	if unescaped, err := url.PathUnescape(fragment); err == nil {
		fragment = unescaped
	}
	if s, ok := doc.pointers[fragment]; ok {
		return s, nil
	}
	n := doc.raw
	for _, seg := range strings.Split(strings.TrimPrefix(fragment, "/"), "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		if n.Kind == yaml.AliasNode && n.Alias != nil {
			n = n.Alias
		}
		var next *yaml.Node
		switch n.Kind {
		case yaml.MappingNode:
			for i := 0; i+1 < len(n.Content); i += 2 {
				if n.Content[i].Value == seg {
					next = n.Content[i+1]
					break
				}
			}
		case yaml.SequenceNode:
			if idx, err := strconv.Atoi(seg); err == nil && idx >= 0 && idx < len(n.Content) {
				next = n.Content[idx]
			}
		}
		if next == nil {
			return nil, ErrUnresolvedRef
		}
		n = next
	}
	return l.decode(n, doc, fragment), nil
}

func (l *loader) fetchDocument(uri string) (*sourceDoc, error) {
	if l.fetcher == nil {
		return nil, fmt.Errorf("%w: no fetcher for %s", ErrUnresolvedRef, uri)
	}
	data, err := l.fetcher.Fetch(l.ctx, uri)
	if err != nil {
		return nil, err
	}
	return l.addDocument(uri, data)
}

func isPureRef(s *Schema) bool {
	bare := Schema{Ref: s.Ref, URL: s.URL, Anchor: s.Anchor}
	return reflect.DeepEqual(*s, bare)
}

func resolveURI(base, ref string) string {
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == "" {
		return r.String()
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return b.ResolveReference(r).String()
}

func splitFragment(uri string) (string, string) {
	if i := strings.IndexByte(uri, '#'); i >= 0 {
		return uri[:i], uri[i+1:]
	}
	return uri, ""
}

func stripFragment(uri string) string {
	base, _ := splitFragment(uri)
	return base
}

func escapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

func stringList(n *yaml.Node) []string {
	if n.Kind == yaml.ScalarNode {
		return []string{n.Value}
	}
	out := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		out = append(out, c.Value)
	}
	return out
}

func intValue(n *yaml.Node) *int {
	i, err := strconv.Atoi(n.Value)
	if err != nil {
		f, ferr := strconv.ParseFloat(n.Value, 64)
		if ferr != nil {
			return nil
		}
		i = int(f)
	}
	return &i
}

func floatValue(n *yaml.Node) *float64 {
	f, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return nil
	}
	return &f
}
