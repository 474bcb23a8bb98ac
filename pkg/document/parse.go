package document

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Parse decodes every document of a YAML stream into arena trees.
// Documents decoded before a syntax error are kept and the error is
// stored in File.Err; Parse itself never fails.
func Parse(text string) *File {
	f := &File{Text: text, Lines: NewLineIndex(text)}
	decoder := yaml.NewDecoder(strings.NewReader(text))

	for docIndex := 0; ; docIndex++ {
		var root yaml.Node
		err := decoder.Decode(&root)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			f.Err = err
			break
		}
		b := &builder{text: text, lines: f.Lines, seen: make(map[*yaml.Node]NodeID)}
		doc := &Document{Index: docIndex, Root: NoNode, Lines: f.Lines}
		if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
			doc.Root = b.node(root.Content[0], NoNode)
		}
		doc.nodes = b.nodes
		f.Documents = append(f.Documents, doc)
	}

	assignDocumentRanges(f)
	return f
}

type builder struct {
	text  string
	lines *LineIndex
	nodes []Node
	seen  map[*yaml.Node]NodeID
}

func (b *builder) add(n Node) NodeID {
	b.nodes = append(b.nodes, n)
	return NodeID(len(b.nodes) - 1)
}

func (b *builder) offsetOf(y *yaml.Node) int {
	return b.lines.runeOffset(y.Line-1, y.Column-1)
}

func (b *builder) node(y *yaml.Node, parent NodeID) NodeID {
	switch y.Kind {
	case yaml.MappingNode:
		return b.mapping(y, parent)
	case yaml.SequenceNode:
		return b.sequence(y, parent)
	case yaml.AliasNode:
		return b.alias(y, parent)
	case yaml.DocumentNode:
		if len(y.Content) > 0 {
			return b.node(y.Content[0], parent)
		}
		return b.add(Node{Kind: KindNull, Offset: b.offsetOf(y), Parent: parent, Alias: NoNode, Tag: "!!null"})
	default:
		return b.scalar(y, parent)
	}
}

func (b *builder) mapping(y *yaml.Node, parent NodeID) NodeID {
	start := b.offsetOf(y)
	id := b.add(Node{
		Kind:   KindObject,
		Offset: start,
		Parent: parent,
		Tag:    y.Tag,
		Anchor: y.Anchor,
		Alias:  NoNode,
		Flow:   y.Style&yaml.FlowStyle != 0,
	})
	b.seen[y] = id

	end := start
	children := make([]NodeID, 0, len(y.Content)/2)
	for i := 0; i+1 < len(y.Content); i += 2 {
		prop := b.add(Node{Kind: KindProperty, Parent: id, Alias: NoNode})
		key := b.node(y.Content[i], prop)
		value := b.node(y.Content[i+1], prop)

		kn, vn := b.nodes[key], b.nodes[value]
		propEnd := kn.End()
		if vn.End() > propEnd {
			propEnd = vn.End()
		}
		b.nodes[prop].Offset = kn.Offset
		b.nodes[prop].Length = propEnd - kn.Offset
		b.nodes[prop].Children = []NodeID{key, value}
		children = append(children, prop)
		if propEnd > end {
			end = propEnd
		}
	}
	if b.nodes[id].Flow {
		end = closingBracket(b.text, start, end, '}')
	}
	b.nodes[id].Children = children
	b.nodes[id].Length = end - start
	return id
}

func (b *builder) sequence(y *yaml.Node, parent NodeID) NodeID {
	start := b.offsetOf(y)
	id := b.add(Node{
		Kind:   KindArray,
		Offset: start,
		Parent: parent,
		Tag:    y.Tag,
		Anchor: y.Anchor,
		Alias:  NoNode,
		Flow:   y.Style&yaml.FlowStyle != 0,
	})
	b.seen[y] = id

	end := start + 1
	children := make([]NodeID, 0, len(y.Content))
	for _, item := range y.Content {
		child := b.node(item, id)
		children = append(children, child)
		if e := b.nodes[child].End(); e > end {
			end = e
		}
	}
	if b.nodes[id].Flow {
		end = closingBracket(b.text, start, end, ']')
	}
	b.nodes[id].Children = children
	b.nodes[id].Length = end - start
	return id
}

func (b *builder) alias(y *yaml.Node, parent NodeID) NodeID {
	start := b.offsetOf(y)
	n := Node{
		Kind:   KindNull,
		Offset: start,
		Length: 1 + len(y.Value),
		Parent: parent,
		Alias:  NoNode,
	}
	if target, ok := b.seen[y.Alias]; ok {
		t := b.nodes[target]
		n.Alias = target
		n.Kind = t.Kind
		n.Value = t.Value
		n.Tag = t.Tag
		n.Integer = t.Integer
	}
	return b.add(n)
}

func (b *builder) scalar(y *yaml.Node, parent NodeID) NodeID {
	start := b.offsetOf(y)
	n := Node{
		Offset: start,
		Parent: parent,
		Value:  y.Value,
		Tag:    y.Tag,
		Anchor: y.Anchor,
		Alias:  NoNode,
	}
	switch y.Tag {
	case "!!null":
		n.Kind = KindNull
	case "!!bool":
		n.Kind = KindBoolean
	case "!!int":
		n.Kind = KindNumber
		n.Integer = true
	case "!!float":
		n.Kind = KindNumber
	default:
		n.Kind = KindString
	}

	if n.Kind == KindNull && y.Value == "" {
		// Empty values sit right after the ':' or '-' and have no width.
		id := b.add(n)
		b.seen[y] = id
		return id
	}

	start = skipNodeProperties(b.text, start)
	n.Offset = start
	n.Length = b.scalarEnd(y, start) - start
	id := b.add(n)
	b.seen[y] = id
	return id
}

func (b *builder) scalarEnd(y *yaml.Node, start int) int {
	switch {
	case y.Style&yaml.DoubleQuotedStyle != 0:
		return quotedEnd(b.text, start, '"', y.Value)
	case y.Style&yaml.SingleQuotedStyle != 0:
		return quotedEnd(b.text, start, '\'', y.Value)
	case y.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0:
		return blockScalarEnd(b.lines, start)
	default:
		return plainEnd(b.text, start, y.Value)
	}
}

// skipNodeProperties moves past "&anchor" and "!tag" prefixes.
func skipNodeProperties(text string, i int) int {
	for i < len(text) && (text[i] == '&' || text[i] == '!') {
		for i < len(text) && !isBlank(text[i]) {
			i++
		}
		for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
			i++
		}
	}
	return i
}

func quotedEnd(text string, start int, quote byte, value string) int {
	if start >= len(text) || text[start] != quote {
		return plainEnd(text, start, value)
	}
	for i := start + 1; i < len(text); i++ {
		c := text[i]
		if quote == '"' && c == '\\' {
			i++
			continue
		}
		if c == quote {
			if quote == '\'' && i+1 < len(text) && text[i+1] == '\'' {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(text)
}

// plainEnd walks the decoded value against the source. Folding turns line
// breaks and indentation into single spaces, so any whitespace in the
// value may stand for a run of source whitespace.
func plainEnd(text string, start int, value string) int {
	i := start
	for _, r := range value {
		if r == ' ' || r == '\t' || r == '\n' {
			for i < len(text) && isBlank(text[i]) {
				i++
			}
			continue
		}
		got, size := utf8.DecodeRuneInString(text[i:])
		if size == 0 || got != r {
			return i
		}
		i += size
	}
	return i
}

// blockScalarEnd finds the end of a literal or folded scalar: the header
// line plus every following line that is blank or indented deeper than
// the header line.
func blockScalarEnd(lines *LineIndex, start int) int {
	text := lines.Text()
	headerEnd := start
	for headerEnd < len(text) && !isBlank(text[headerEnd]) {
		headerEnd++
	}
	line := lines.Line(start)
	headerIndent := indentOf(lines.LineText(line))
	end := headerEnd
	for l := line + 1; l < lines.LineCount(); l++ {
		lt := lines.LineText(l)
		if strings.TrimSpace(lt) == "" {
			continue
		}
		if indentOf(lt) <= headerIndent {
			break
		}
		end = lines.LineEnd(l)
	}
	return end
}

// closingBracket finds the bracket closing a flow collection, searching
// from the end of its last child.
func closingBracket(text string, start, from int, closing byte) int {
	if from <= start {
		from = start + 1
	}
	depth := 0
	for i := from; i < len(text); i++ {
		switch text[i] {
		case '[', '{':
			depth++
		case ']', '}':
			if depth == 0 {
				if text[i] == closing {
					return i + 1
				}
				return from
			}
			depth--
		case '#':
			for i < len(text) && text[i] != '\n' {
				i++
			}
		case '"', '\'':
			i = quotedEnd(text, i, text[i], "") - 1
		}
	}
	return from
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func indentOf(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}

// assignDocumentRanges splits the stream at "---" markers. When the
// markers do not line up with the decoded documents each document starts
// at its root node instead.
func assignDocumentRanges(f *File) {
	if len(f.Documents) == 0 {
		return
	}
	markers := documentMarkers(f.Lines)
	starts := make([]int, 0, len(f.Documents))
	if len(markers) > 0 && onlyPreamble(f.Text[:markers[0]]) {
		starts = append(starts, markers...)
	} else {
		starts = append(starts, 0)
		starts = append(starts, markers...)
	}

	aligned := len(starts) >= len(f.Documents)
	if aligned {
		for i, d := range f.Documents {
			if root := d.Node(d.Root); root != nil && root.Offset < starts[i] {
				aligned = false
				break
			}
		}
	}
	if !aligned {
		starts = starts[:0]
		for i, d := range f.Documents {
			s := 0
			if root := d.Node(d.Root); root != nil && i > 0 {
				s = root.Offset
			}
			starts = append(starts, s)
		}
	}

	for i, d := range f.Documents {
		d.Start = starts[i]
		d.End = len(f.Text)
		if i+1 < len(starts) {
			d.End = starts[i+1]
		}
	}
}

func documentMarkers(lines *LineIndex) []int {
	var out []int
	for l := 0; l < lines.LineCount(); l++ {
		lt := lines.LineText(l)
		if strings.HasPrefix(lt, "---") && (len(lt) == 3 || lt[3] == ' ' || lt[3] == '\t') {
			out = append(out, lines.LineStart(l))
		}
	}
	return out
}

func onlyPreamble(s string) bool {
	for _, line := range strings.Split(s, "\n") {
		t := strings.TrimSpace(line)
		if t != "" && !strings.HasPrefix(t, "#") && !strings.HasPrefix(t, "%") {
			return false
		}
	}
	return true
}
