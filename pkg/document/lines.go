package document

import (
	"unicode/utf16"
	"unicode/utf8"
)

// Position is a zero-based line and UTF-16 character offset, the unit LSP
// clients use.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// LineIndex maps byte offsets to positions and back using the cached
// start offset of every line.
type LineIndex struct {
	text   string
	starts []int
}

// NewLineIndex scans text once for line breaks. "\r\n" counts as a
// single break, as do lone "\r" and "\n".
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			starts = append(starts, i+1)
		case '\n':
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, starts: starts}
}

// BinarySearch looks for target in sorted. It returns the index when
// found, otherwise -(insertion point)-1.
func BinarySearch(sorted []int, target int) int {
	low, high := 0, len(sorted)-1
	for low <= high {
		mid := (low + high) / 2
		switch {
		case sorted[mid] < target:
			low = mid + 1
		case sorted[mid] > target:
			high = mid - 1
		default:
			return mid
		}
	}
	return -(low + 1)
}

// LineStarts returns the start offset of every line.
func (li *LineIndex) LineStarts() []int { return li.starts }

// LineCount returns the number of lines, counting a trailing empty line.
func (li *LineIndex) LineCount() int { return len(li.starts) }

// Text returns the indexed source.
func (li *LineIndex) Text() string { return li.text }

// Line returns the zero-based line containing offset.
func (li *LineIndex) Line(offset int) int {
	offset = li.clamp(offset)
	idx := BinarySearch(li.starts, offset)
	if idx < 0 {
		idx = -idx - 2
	}
	return idx
}

// LineStart returns the offset of the first byte of line.
func (li *LineIndex) LineStart(line int) int {
	if line <= 0 {
		return 0
	}
	if line >= len(li.starts) {
		return len(li.text)
	}
	return li.starts[line]
}

// LineEnd returns the offset just before the line break ending line.
func (li *LineIndex) LineEnd(line int) int {
	if line < 0 {
		return 0
	}
	if line+1 >= len(li.starts) {
		return len(li.text)
	}
	end := li.starts[line+1]
	if end > 0 && li.text[end-1] == '\n' {
		end--
	}
	if end > 0 && li.text[end-1] == '\r' {
		end--
	}
	return end
}

// LineText returns line without its line break.
func (li *LineIndex) LineText(line int) string {
	if line < 0 || line >= len(li.starts) {
		return ""
	}
	return li.text[li.LineStart(line):li.LineEnd(line)]
}

// PositionAt converts a byte offset into a line/UTF-16 position.
func (li *LineIndex) PositionAt(offset int) Position {
	offset = li.clamp(offset)
	line := li.Line(offset)
	start := li.starts[line]
	return Position{Line: line, Character: utf16Len(li.text[start:offset])}
}

// OffsetAt converts a position back into a byte offset. Characters past
// the end of the line clamp to the line end.
func (li *LineIndex) OffsetAt(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(li.starts) {
		return len(li.text)
	}
	start, end := li.LineStart(pos.Line), li.LineEnd(pos.Line)
	units := 0
	for i := start; i < end; {
		if units >= pos.Character {
			return i
		}
		r, size := utf8.DecodeRuneInString(li.text[i:])
		if l := utf16.RuneLen(r); l > 0 {
			units += l
		} else {
			units++
		}
		i += size
	}
	return end
}

// RangeOf converts a byte span into a range.
func (li *LineIndex) RangeOf(offset, length int) Range {
	return Range{Start: li.PositionAt(offset), End: li.PositionAt(offset + length)}
}

// runeOffset converts a zero-based line and rune column, the unit yaml.v3
// reports marks in, into a byte offset.
func (li *LineIndex) runeOffset(line, column int) int {
	if line < 0 {
		return 0
	}
	if line >= len(li.starts) {
		return len(li.text)
	}
	i := li.starts[line]
	for ; column > 0 && i < len(li.text); column-- {
		_, size := utf8.DecodeRuneInString(li.text[i:])
		i += size
	}
	return i
}

func (li *LineIndex) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(li.text) {
		return len(li.text)
	}
	return offset
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
