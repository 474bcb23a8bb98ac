package yamlls

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/matcher"
	"github.com/yakwilikk/go-yamlls/pkg/schema"
)

// Hover is markdown help for the node under the cursor.
type Hover struct {
	Contents string         `json:"contents"`
	Range    document.Range `json:"range"`
}

var (
	softBreak      = regexp.MustCompile(`([^\n\r])(\r?\n)([^\n\r])`)
	markdownSyntax = regexp.MustCompile("[\\\\`*_{}\\[\\]()#+\\-.!]")
	trailingPipes  = regexp.MustCompile(`\|\|\s*$`)
)

// HoverAt describes the node at offset. Keys describe their value.
// Offsets inside a collection's body, and nodes no schema says anything
// about, give nil.
func HoverAt(file *document.File, root *schema.Schema, offset int) *Hover {
	return hoverAt(file, root, offset, defaultIndentation)
}

func hoverAt(file *document.File, root *schema.Schema, offset int, indentation string) *Hover {
	if file == nil || root == nil {
		return nil
	}
	doc := file.DocumentAt(offset)
	if doc == nil {
		return nil
	}
	id := doc.NodeAt(offset, false)
	n := doc.Node(id)
	if n == nil {
		return nil
	}
	if (n.Kind == document.KindObject || n.Kind == document.KindArray) && offset > n.Offset+1 && offset < n.End()-1 {
		return nil
	}
	target := id
	switch p := doc.Node(n.Parent); {
	case n.Kind == document.KindProperty:
		target = doc.ValueNode(id)
	case n.Kind.IsScalar() && p != nil && p.Kind == document.KindProperty && doc.KeyNode(n.Parent) == id:
		target = doc.ValueNode(n.Parent)
	}
	if doc.Node(target) == nil {
		return nil
	}

	contents := describe(doc, target, root, matcher.Match(doc, root, target))
	if contents == "" {
		return nil
	}
	if indentation != "" {
		contents = strings.ReplaceAll(contents, indentation, "&emsp;")
	}
	return &Hover{Contents: contents, Range: doc.Lines.RangeOf(n.Offset, n.Length)}
}

// describe renders what the entries of target say about it. The first
// title and description win; anyOf alternatives that all matched are
// listed together.
func describe(doc *document.Document, target document.NodeID, root *schema.Schema, entries []matcher.Entry) string {
	var title, desc, enumDesc, enumValue string
	var examples []string
	for _, e := range entries {
		s := e.Schema
		if e.Node != target || e.Inverted || s == nil {
			continue
		}
		if title == "" {
			title = s.Title
		}
		if desc == "" {
			desc = markdownOf(s)
		}
		if len(s.Enum) > 0 && enumDesc == "" {
			v := schema.NodeValue(doc, target)
			for i, member := range s.Enum {
				if !member.Equal(v) {
					continue
				}
				switch {
				case i < len(s.MarkdownEnumDescriptions):
					enumDesc = s.MarkdownEnumDescriptions[i]
				case i < len(s.EnumDescriptions):
					enumDesc = toMarkdown(s.EnumDescriptions[i])
				}
				if enumDesc != "" {
					enumValue = member.Text()
				}
				break
			}
		}
		if len(s.AnyOf) > 0 && allMatched(entries, target, s) {
			titles := make([]string, len(s.AnyOf))
			descs := make([]string, len(s.AnyOf))
			for i, alt := range s.AnyOf {
				titles[i] = alt.Title
				descs[i] = markdownOf(alt)
			}
			title = trailingPipes.ReplaceAllString(strings.Join(titles, " || "), "")
			desc = strings.TrimSpace(trailingPipes.ReplaceAllString(strings.Join(descs, " || "), ""))
		}
		for _, ex := range s.Examples {
			examples = append(examples, ex.JSON())
		}
	}

	var parts []string
	if title != "" {
		parts = append(parts, "#### "+toMarkdown(title))
	}
	if desc != "" {
		parts = append(parts, desc)
	}
	if enumDesc != "" {
		parts = append(parts, "`"+toMarkdownCode(enumValue)+"`: "+enumDesc)
	}
	if len(examples) > 0 {
		var sb strings.Builder
		sb.WriteString("Examples:")
		for _, ex := range examples {
			sb.WriteString("\n\n```" + ex + "```")
		}
		parts = append(parts, sb.String())
	}
	if len(parts) == 0 {
		return ""
	}
	if src := sourceLinks(root); src != "" {
		parts = append(parts, "Source: "+src)
	}
	return strings.Join(parts, "\n\n")
}

// allMatched reports whether every anyOf alternative of s has an
// equivalent entry at target.
func allMatched(entries []matcher.Entry, target document.NodeID, s *schema.Schema) bool {
	count := 0
	for _, e := range entries {
		if e.Node != target || e.Schema == s {
			continue
		}
		for _, alt := range s.AnyOf {
			if schema.Equivalent(e.Schema, alt) {
				count++
			}
		}
	}
	return count == len(s.AnyOf)
}

func markdownOf(s *schema.Schema) string {
	if s.MarkdownDescription != "" {
		return s.MarkdownDescription
	}
	return toMarkdown(s.Description)
}

// toMarkdown turns plain text into markdown: single line breaks become
// paragraphs and markdown syntax is escaped.
func toMarkdown(plain string) string {
	if plain == "" {
		return ""
	}
	res := softBreak.ReplaceAllString(plain, "$1\n\n$3")
	return markdownSyntax.ReplaceAllString(res, `\$0`)
}

func toMarkdownCode(content string) string {
	if strings.Contains(content, "`") {
		return "`` " + content + " ``"
	}
	return content
}

// sourceLinks renders the schema documents behind root as markdown links.
func sourceLinks(root *schema.Schema) string {
	urls := schema.URLs(root)
	links := make([]string, 0, len(urls))
	for _, u := range urls {
		links = append(links, "["+schemaName(u)+"]("+u+")")
	}
	return strings.Join(links, ", ")
}

func schemaName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "JSON Schema"
	}
	return path.Base(u.Path)
}
