package yamlls

import (
	"fmt"
	"strings"
)

const tabWidth = 4

// RenderLine expands the tabs of line to tabWidth stops for terminal
// output. It returns the rendered text, the 1-based screen column of the
// 1-based byte column byteCol (0 for no caret) and the rendered width.
// Columns past the end land one cell after the text; a column inside a
// multi-byte rune lands on the rune that follows it.
func RenderLine(line string, byteCol int) (rendered string, caret int, width int) {
	var sb strings.Builder
	sb.Grow(len(line) + 8)
	for i, r := range line {
		if caret == 0 && byteCol > 0 && i >= byteCol-1 {
			caret = width + 1
		}
		if r == '\t' {
			n := tabWidth - width%tabWidth
			sb.WriteString(strings.Repeat(" ", n))
			width += n
			continue
		}
		sb.WriteRune(r)
		width++
	}
	if caret == 0 && byteCol > 0 {
		caret = width + 1
	}
	return sb.String(), caret, width
}

// FormatDiagnostic prints d followed by a three-line excerpt of lines
// around it, the diagnostic's own line marked with ">" and a caret.
func FormatDiagnostic(d Diagnostic, lines []string) string {
	var sb strings.Builder
	sb.WriteString(d.Error())
	sb.WriteByte('\n')
	if d.Line <= 0 || d.Line > len(lines) {
		return sb.String()
	}

	for n := d.Line - 1; n <= d.Line+1; n++ {
		if n < 1 || n > len(lines) {
			continue
		}
		if n != d.Line {
			text, _, _ := RenderLine(lines[n-1], 0)
			fmt.Fprintf(&sb, "  %4d | %s\n", n, text)
			continue
		}
		text, caret, width := RenderLine(lines[n-1], d.Column)
		fmt.Fprintf(&sb, "> %4d | %s\n", n, text)
		if caret > 0 {
			caret = min(caret, width+1)
			fmt.Fprintf(&sb, "       | %s^\n", strings.Repeat(" ", caret-1))
		}
	}
	return sb.String()
}
