package yamlls

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
)

func TestValidateDiagnostics(t *testing.T) {
	root := loadSchema(t, `{
		"type": "object",
		"properties": {"port": {"type": "integer"}, "name": {"type": "string"}},
		"required": ["name"]
	}`)
	res := Validate(document.Parse("port: abc\n"), root)
	res.SortByPosition()
	require.Len(t, res.Diagnostics, 2)
	assert.True(t, res.HasErrors())

	missing, typ := res.Diagnostics[0], res.Diagnostics[1]
	assert.Equal(t, `Missing property "name".`, missing.Message)
	assert.Equal(t, "name", missing.Path)
	assert.Equal(t, 1, missing.Line)

	assert.Equal(t, `Incorrect type. Expected "integer".`, typ.Message)
	assert.Equal(t, "port", typ.Path)
	assert.Equal(t, 1, typ.Line)
	assert.Equal(t, 7, typ.Column)
	assert.Equal(t, rng(0, 6, 0, 9), typ.Range)
	assert.Equal(t, "file:///schema.json", typ.Source)
}

func TestValidateMultiDocumentDiagnostics(t *testing.T) {
	root := loadSchema(t, `{"properties": {"a": {"type": "integer"}}}`)
	res := Validate(document.Parse("a: 1\n---\na: x\n"), root)
	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, "doc[1].a", d.Path)
	assert.Equal(t, 3, d.Line)
	assert.Equal(t, 4, d.Column)
	assert.Equal(t, []string{"a: 1", "---", "a: x", ""}, res.SourceLines)
}

func TestValidateSyntaxError(t *testing.T) {
	res := Validate(document.Parse("a: b: c\n"), nil)
	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, problem.LevelError, d.Level)
	assert.Equal(t, "doc[0]", d.Path)
	assert.Equal(t, 1, d.Line)
	assert.Contains(t, d.Message, "mapping values are not allowed")
	assert.Equal(t, rng(0, 0, 0, 7), d.Range)
	assert.Equal(t, 0, d.Offset)
	assert.Equal(t, 7, d.Length)

	later := Validate(document.Parse("a: 1\nb: c: d\n"), nil)
	require.Len(t, later.Diagnostics, 1)
	assert.Equal(t, 2, later.Diagnostics[0].Line)
	assert.Equal(t, rng(1, 0, 1, 7), later.Diagnostics[0].Range)

	assert.Empty(t, Validate(document.Parse("a: 1\n"), nil).Diagnostics)
}

func TestStopLine(t *testing.T) {
	assert.Equal(t, 0, stopLine(document.Parse("")))
	assert.Equal(t, 0, stopLine(document.Parse("a: b: c\n")))
	assert.Equal(t, 2, stopLine(document.Parse("a: 1\nb: 2\n")))
	assert.Equal(t, 0, stopLine(document.Parse("a: 1")))
}

func TestSortByPositionInterleaved(t *testing.T) {
	result := ValidationResult{
		Diagnostics: []Diagnostic{
			{Problem: problem.Problem{Level: problem.LevelError, Message: "error second"}, Line: 2, Column: 1},
			{Problem: problem.Problem{Level: problem.LevelWarning, Message: "warn first"}, Line: 1, Column: 1},
		},
		SourceLines: []string{"line1", "line2"},
	}
	out := result.FormatAll(true)
	firstWarn := strings.Index(out, "warn first")
	firstErr := strings.Index(out, "error second")
	if firstWarn == -1 || firstErr == -1 || firstWarn > firstErr {
		t.Fatalf("expected warning before error after position sort, got output: %s", out)
	}
	if result.Diagnostics[0].Message != "error second" {
		t.Fatalf("FormatAll must not reorder the result")
	}
}

func TestSortByPositionErrorsFirst(t *testing.T) {
	result := ValidationResult{Diagnostics: []Diagnostic{
		{Problem: problem.Problem{Level: problem.LevelWarning, Message: "w"}, Line: 1, Column: 3},
		{Problem: problem.Problem{Level: problem.LevelError, Message: "e"}, Line: 1, Column: 3},
	}}
	result.SortByPosition()
	assert.Equal(t, "e", result.Diagnostics[0].Message)
	assert.Len(t, result.Errors(), 1)
	assert.Len(t, result.Warnings(), 1)
}

func TestFormatDiagnostic(t *testing.T) {
	d := Diagnostic{
		Problem: problem.Problem{Level: problem.LevelError, Path: "port", Message: "bad", Got: "string", Expected: "integer"},
		Line:    2,
		Column:  7,
	}
	want := "[ERROR] line 2:7: bad (expected integer, got string) (path: port)\n" +
		"     1 | a: 1\n" +
		">    2 | port: abc\n" +
		"       |       ^\n" +
		"     3 | b: 2\n"
	assert.Equal(t, want, FormatDiagnostic(d, []string{"a: 1", "port: abc", "b: 2"}))

	d.Line = 0
	assert.Equal(t, "[ERROR] bad (expected integer, got string) (path: port)\n", FormatDiagnostic(d, nil))
}

func TestRenderLine(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		byteCol    int
		wantLine   string
		wantVisual int
	}{
		{
			name:       "no tabs",
			line:       "hello world",
			byteCol:    7,
			wantLine:   "hello world",
			wantVisual: 7,
		},
		{
			name:       "tab at start",
			line:       "\thello",
			byteCol:    2,
			wantLine:   "    hello",
			wantVisual: 5,
		},
		{
			name:       "tab after 2 chars",
			line:       "ab\tcd",
			byteCol:    4,
			wantLine:   "ab  cd",
			wantVisual: 5,
		},
		{
			name:       "unicode cyrillic",
			line:       "привет мир",
			byteCol:    14,
			wantLine:   "привет мир",
			wantVisual: 8,
		},
		{
			name:       "emoji",
			line:       "hello 🎉 world",
			byteCol:    11,
			wantLine:   "hello 🎉 world",
			wantVisual: 8,
		},
		{
			name:       "mixed tabs and unicode",
			line:       "тест\tvalue",
			byteCol:    10,
			wantLine:   "тест    value",
			wantVisual: 9,
		},
		{
			name:       "past the end",
			line:       "ab",
			byteCol:    10,
			wantLine:   "ab",
			wantVisual: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLine, gotVisual, _ := RenderLine(tt.line, tt.byteCol)
			if gotLine != tt.wantLine {
				t.Fatalf("line mismatch:\n  got:  %q\n  want: %q", gotLine, tt.wantLine)
			}
			if gotVisual != tt.wantVisual {
				t.Fatalf("visual column mismatch: got %d, want %d", gotVisual, tt.wantVisual)
			}
		})
	}
}
