package yamlls

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/matcher"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
	"github.com/yakwilikk/go-yamlls/pkg/schema"
)

// Diagnostic is a problem placed in the source text.
type Diagnostic struct {
	problem.Problem
	Range  document.Range
	Line   int // 1-based line number (0 if unknown)
	Column int // 1-based byte column (0 if unknown)
}

func (d Diagnostic) Error() string {
	var details string
	if d.Expected != "" && d.Got != "" {
		details = fmt.Sprintf(" (expected %s, got %s)", d.Expected, d.Got)
	} else if d.Got != "" {
		details = fmt.Sprintf(" (got %s)", d.Got)
	}

	var pos string
	if d.Line > 0 {
		if d.Column > 0 {
			pos = fmt.Sprintf("line %d:%d: ", d.Line, d.Column)
		} else {
			pos = fmt.Sprintf("line %d: ", d.Line)
		}
	}

	return fmt.Sprintf("[%s] %s%s%s (path: %s)", d.Level, pos, d.Message, details, d.Path)
}

// ValidationResult contains the diagnostics of one file and its source
// lines for formatting.
type ValidationResult struct {
	Diagnostics []Diagnostic
	SourceLines []string
}

// HasErrors returns true if there are any errors.
func (r *ValidationResult) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Level == problem.LevelError {
			return true
		}
	}
	return false
}

// Errors returns the diagnostics of error level.
func (r *ValidationResult) Errors() []Diagnostic { return r.filter(problem.LevelError) }

// Warnings returns the diagnostics of warning level.
func (r *ValidationResult) Warnings() []Diagnostic { return r.filter(problem.LevelWarning) }

func (r *ValidationResult) filter(level problem.Level) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Level == level {
			out = append(out, d)
		}
	}
	return out
}

// SortByPosition sorts diagnostics by position in the file.
func (r *ValidationResult) SortByPosition() {
	sort.SliceStable(r.Diagnostics, func(i, j int) bool {
		a, b := r.Diagnostics[i], r.Diagnostics[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		// Errors before warnings when at same position
		return a.Level > b.Level
	})
}

// FormatAll formats all diagnostics with source context.
func (r *ValidationResult) FormatAll(sortByPos bool) string {
	items := r.Diagnostics
	if sortByPos {
		sorted := &ValidationResult{Diagnostics: append([]Diagnostic(nil), r.Diagnostics...)}
		sorted.SortByPosition()
		items = sorted.Diagnostics
	}

	var sb strings.Builder
	for _, d := range items {
		sb.WriteString(FormatDiagnostic(d, r.SourceLines))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Validate checks every document of file against root. Syntax errors are
// reported even without a schema.
func Validate(file *document.File, root *schema.Schema) *ValidationResult {
	res := &ValidationResult{}
	if file == nil {
		return res
	}
	res.SourceLines = SourceLines(file.Lines)
	if root != nil {
		for _, doc := range file.Documents {
			for _, p := range matcher.Validate(doc, root).Problems.All() {
				res.Diagnostics = append(res.Diagnostics, place(file.Lines, p))
			}
		}
	}
	if file.Err != nil {
		res.Diagnostics = append(res.Diagnostics, syntaxDiagnostic(file))
	}
	return res
}

// SourceLines splits the indexed text into lines without their breaks.
func SourceLines(lines *document.LineIndex) []string {
	out := make([]string, 0, lines.LineCount())
	for i := 0; i < lines.LineCount(); i++ {
		out = append(out, lines.LineText(i))
	}
	return out
}

func place(lines *document.LineIndex, p problem.Problem) Diagnostic {
	line := lines.Line(p.Offset)
	return Diagnostic{
		Problem: p,
		Range:   lines.RangeOf(p.Offset, p.Length),
		Line:    line + 1,
		Column:  p.Offset - lines.LineStart(line) + 1,
	}
}

// yaml.v3 prefixes most errors with "line N:" and scanner errors with
// "line N: column M:". Errors on the first line of the stream carry no
// position at all.
var yamlErrorPos = regexp.MustCompile(`line (\d+):(?:\s*column (\d+))?`)

// syntaxDiagnostic places file.Err. Without a line in the message the
// error is put on the line where decoding stopped, the first line after
// the last decoded document, and the rest of that line is marked.
func syntaxDiagnostic(file *document.File) Diagnostic {
	lines := file.Lines
	msg := file.Err.Error()
	d := Diagnostic{Problem: problem.Problem{
		Level:   problem.LevelError,
		Path:    fmt.Sprintf("doc[%d]", len(file.Documents)),
		Message: msg,
	}}

	if m := yamlErrorPos.FindStringSubmatch(msg); m != nil {
		d.Line, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			d.Column, _ = strconv.Atoi(m[2])
		}
	} else {
		d.Line = stopLine(file) + 1
	}
	if d.Line <= 0 || d.Line > lines.LineCount() {
		d.Line, d.Column = 0, 0
		return d
	}

	start, end := lines.LineStart(d.Line-1), lines.LineEnd(d.Line-1)
	if d.Column > 0 && start+d.Column-1 <= end {
		start += d.Column - 1
	}
	d.Offset, d.Length = start, end-start
	d.Range = lines.RangeOf(start, end-start)
	return d
}

// stopLine is the zero-based line following the last decoded document.
func stopLine(file *document.File) int {
	if len(file.Documents) == 0 {
		return 0
	}
	last := file.Documents[len(file.Documents)-1]
	end := last.Start
	if root := last.Node(last.Root); root != nil && root.End() > end {
		end = root.End()
	}
	line := file.Lines.Line(end) + 1
	if line >= file.Lines.LineCount() {
		line = file.Lines.LineCount() - 1
	}
	return line
}
