package yamlls

import (
	"strings"

	"github.com/yakwilikk/go-yamlls/pkg/document"
)

// completionPlaceholder is the key written into probe documents at the
// cursor so that the half-typed line parses as a mapping entry.
const completionPlaceholder = "__completion_placeholder__"

type slotKind int

const (
	slotKey   slotKind = iota // typing a mapping key
	slotValue                 // after "key:"
	slotItem                  // right after a "- " marker
	slotBlank                 // whitespace-only line
)

func (k slotKind) String() string {
	switch k {
	case slotKey:
		return "key"
	case slotValue:
		return "value"
	case slotItem:
		return "item"
	default:
		return "blank"
	}
}

// cursor is the syntactic context around a completion offset. Columns are
// byte offsets into lineText.
type cursor struct {
	text      string
	lines     *document.LineIndex
	offset    int
	line      int
	lineStart int
	lineText  string

	indent   int  // indentation the editor re-applies to continuation lines
	col      int  // cursor column
	keyCol   int  // first column after the "- " markers
	tokenCol int  // start of the token being completed
	tokenEnd int  // end of the typed token
	colon    int  // key slot: column of a ':' already following the key, or -1
	dash     bool // the token follows a "- " marker
	slot     slotKind

	key         string // value slot: the owning key
	valuePrefix string // value slot: " " when nothing separates ':' from the cursor

	start, end int // replacement span, absolute offsets
}

// newCursor tokenizes the line holding offset. It returns nil when the
// cursor sits in the indentation of a non-blank line.
func newCursor(text string, offset int) *cursor {
	lines := document.NewLineIndex(text)
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	line := lines.Line(offset)
	c := &cursor{
		text:      text,
		lines:     lines,
		offset:    offset,
		line:      line,
		lineStart: lines.LineStart(line),
		lineText:  lines.LineText(line),
		colon:     -1,
	}
	l := c.lineText
	c.col = offset - c.lineStart
	if c.col > len(l) {
		c.col = len(l)
	}

	c.indent = indentOf(l)
	i := skipDashes(l, c.indent)
	c.dash = i > c.indent
	c.keyCol = i
	c.tokenCol = i
	if c.col < c.tokenCol {
		if strings.TrimSpace(l[c.col:]) != "" {
			return nil
		}
		c.tokenCol = c.col
		c.keyCol = c.col
	}

	switch k := findSeparator(l, c.tokenCol); {
	case strings.TrimSpace(l[c.tokenCol:]) == "":
		c.slot = slotBlank
		if c.dash {
			c.slot = slotItem
		} else if c.indent > c.col {
			c.indent = c.col
		}
	case k >= 0 && k < c.col:
		c.slot = slotValue
		c.key = unquoteKey(strings.TrimSpace(l[c.tokenCol:k]))
		vs := k + 1
		switch {
		case vs < len(l) && l[vs] == ' ' && vs < c.col:
			vs++
		case vs >= len(l) || l[vs] != ' ':
			c.valuePrefix = " "
		}
		c.tokenCol = vs
	case k >= 0:
		c.slot = slotKey
		c.colon = k
	default:
		c.slot = slotKey
	}

	c.span()
	return c
}

// span computes the token end and the replacement range: the rest of the
// token, then trailing blanks when the cursor already ends the token, then
// a continuation line when nothing else is left on this one.
func (c *cursor) span() {
	l := c.lineText
	end := c.col
	if c.slot == slotKey && c.colon >= 0 {
		end = c.colon
		for end > c.col && l[end-1] == ' ' {
			end--
		}
		c.tokenEnd = end
		c.start, c.end = c.lineStart+c.tokenCol, c.lineStart+end
		return
	}
	for end < len(l) && !isBlank(l[end]) && !(c.slot == slotKey && l[end] == ':') {
		end++
	}
	c.tokenEnd = end
	if end == c.col {
		for end < len(l) && isBlank(l[end]) {
			end++
		}
		// One space stays in front of a comment.
		if end < len(l) && l[end] == '#' && end > c.tokenEnd {
			end--
		}
	}
	c.start, c.end = c.lineStart+c.tokenCol, c.lineStart+end

	if end == len(l) && c.line+1 < c.lines.LineCount() {
		if next := c.lines.LineText(c.line + 1); isContinuation(next, c.tokenCol) {
			c.end = c.lines.LineStart(c.line + 1)
		}
	}
}

// extra is the indentation of the token relative to the line's own
// indentation, which editors re-apply to every inserted line.
func (c *cursor) extra() string {
	col := c.tokenCol
	if c.slot == slotValue {
		col = c.keyCol
	}
	if n := col - c.indent; n > 0 {
		return strings.Repeat(" ", n)
	}
	return ""
}

// lead is written before every insert text: the space a bare "-" or ":"
// still needs.
func (c *cursor) lead() string {
	if c.slot == slotValue {
		return c.valuePrefix
	}
	return c.markerGap()
}

// replaceLine returns the text with the cursor line replaced.
func (c *cursor) replaceLine(line string) string {
	return c.text[:c.lineStart] + line + c.text[c.lineStart+len(c.lineText):]
}

// truncateAfterLine drops everything after the cursor line of a probe
// whose cursor line is line.
func (c *cursor) truncateAfterLine(probe, line string) string {
	return probe[:c.lineStart+len(line)]
}

// markerGap is the space needed between a bare "-" and inserted text.
func (c *cursor) markerGap() string {
	if c.tokenCol > 0 && c.lineText[c.tokenCol-1] == '-' {
		return " "
	}
	return ""
}

// keyProbe writes the placeholder key over the token being typed. It
// returns the probe line and the column of the placeholder.
func (c *cursor) keyProbe() (string, int) {
	l := c.lineText
	prefix := l[:c.tokenCol] + c.markerGap()
	rest := ":" + l[c.tokenEnd:]
	if c.colon >= 0 {
		rest = l[c.colon:]
	}
	return prefix + completionPlaceholder + rest, len(prefix)
}

// valueProbe removes the partial value.
func (c *cursor) valueProbe() string {
	return c.lineText[:c.tokenCol] + c.lineText[c.tokenEnd:]
}

// dashProbe starts a new sequence item at the cursor of a blank line.
func (c *cursor) dashProbe() (string, int) {
	l := c.lineText
	return l[:c.col] + "- " + completionPlaceholder + ":" + l[c.col:], c.col + 2
}

// parsedProbe is a reparsed probe document and the placeholder key in it.
type parsedProbe struct {
	doc *document.Document
	key document.NodeID
}

// parseProbe parses line substituted into the text, retrying without the
// lines after the cursor. at is the column of the node to locate.
func (c *cursor) parseProbe(line string, at int) (parsedProbe, bool) {
	probe := c.replaceLine(line)
	if p, ok := locate(probe, c.lineStart+at); ok {
		return p, true
	}
	return locate(c.truncateAfterLine(probe, line), c.lineStart+at)
}

// locate parses text and finds the scalar starting at offset.
func locate(text string, offset int) (parsedProbe, bool) {
	f := document.Parse(text)
	doc := f.DocumentAt(offset)
	if doc == nil || offset > doc.End {
		return parsedProbe{}, false
	}
	id := doc.NodeAt(offset, false)
	n := doc.Node(id)
	if n == nil || n.Offset != offset || !n.Kind.IsScalar() {
		return parsedProbe{}, false
	}
	if prop := doc.Node(n.Parent); prop == nil || prop.Kind != document.KindProperty || doc.KeyNode(n.Parent) != id {
		return parsedProbe{}, false
	}
	return parsedProbe{doc: doc, key: id}, true
}

// previousKey finds the line above a blank cursor line that opens a
// mapping value ("key:" with nothing after it) at a smaller indentation.
// It returns the absolute offset of that key.
func (c *cursor) previousKey() (int, bool) {
	for line := c.line - 1; line >= 0; line-- {
		l := c.lines.LineText(line)
		trimmed := strings.TrimSpace(l)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		ind := indentOf(l)
		if ind >= c.col || !strings.HasSuffix(trimmed, ":") {
			return 0, false
		}
		return c.lines.LineStart(line) + skipDashes(l, ind), true
	}
	return 0, false
}

// enclosingKeyCol returns the key column of the mapping entry on the
// nearest non-blank line above, when that column lies left of the cursor.
// A blank line indented past those keys still belongs to their mapping.
func (c *cursor) enclosingKeyCol() (int, bool) {
	for line := c.line - 1; line >= 0; line-- {
		l := c.lines.LineText(line)
		trimmed := strings.TrimSpace(l)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		col := skipDashes(l, indentOf(l))
		if col >= c.col || findSeparator(l, col) < 0 {
			return 0, false
		}
		return col, true
	}
	return 0, false
}

// siblingProbe writes the placeholder key at col instead of the cursor.
func (c *cursor) siblingProbe(col int) (string, int) {
	return strings.Repeat(" ", col) + completionPlaceholder + ":", col
}

// skipDashes moves past "- " sequence markers starting at i.
func skipDashes(l string, i int) int {
	for i < len(l) && l[i] == '-' && (i+1 == len(l) || l[i+1] == ' ') {
		i++
		for i < len(l) && l[i] == ' ' {
			i++
		}
	}
	return i
}

// findSeparator returns the column of the first mapping ':' at or after
// from, skipping quoted text, or -1.
func findSeparator(l string, from int) int {
	var quote byte
	for i := from; i < len(l); i++ {
		ch := l[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			if i == from {
				quote = ch
			}
		case ch == '#' && (i == from || isBlank(l[i-1])):
			return -1
		case ch == ':' && (i+1 == len(l) || isBlank(l[i+1])):
			return i
		}
	}
	return -1
}

// isContinuation reports whether line continues the token of the line
// above: deeper or equal indentation, and not a comment, key or item.
func isContinuation(line string, col int) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || trimmed == "-" || strings.HasPrefix(trimmed, "- ") {
		return false
	}
	ind := indentOf(line)
	return ind >= col && findSeparator(line, ind) < 0
}

func unquoteKey(k string) string {
	if len(k) >= 2 && (k[0] == '"' || k[0] == '\'') && k[len(k)-1] == k[0] {
		return k[1 : len(k)-1]
	}
	return k
}

func indentOf(line string) int {
	i := 0
	for i < len(line) && line[i] == ' ' {
		i++
	}
	return i
}

func isBlank(ch byte) bool { return ch == ' ' || ch == '\t' }
