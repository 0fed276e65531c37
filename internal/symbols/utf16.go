package symbols

import (
	"strings"
	"unicode/utf16"

	"github.com/thanhtunguet/serena/internal/protocol"
)

// sliceUTF16 extracts the text spanned by r out of the full document text,
// honoring LSP's UTF-16 code-unit coordinate system: Position.Character
// counts UTF-16 code units on the line, not bytes or runes.
func sliceUTF16(text string, r protocol.Range) string {
	lines := strings.Split(text, "\n")
	if r.Start.Line < 0 || r.Start.Line >= len(lines) || r.End.Line < 0 || r.End.Line >= len(lines) {
		return ""
	}
	if r.Start.Line == r.End.Line {
		line := utf16.Encode([]rune(lines[r.Start.Line]))
		return utf16Sub(line, r.Start.Character, r.End.Character)
	}

	var b strings.Builder
	first := utf16.Encode([]rune(lines[r.Start.Line]))
	b.WriteString(utf16Sub(first, r.Start.Character, len(first)))
	for i := r.Start.Line + 1; i < r.End.Line; i++ {
		b.WriteString("\n")
		b.WriteString(lines[i])
	}
	b.WriteString("\n")
	last := utf16.Encode([]rune(lines[r.End.Line]))
	b.WriteString(utf16Sub(last, 0, r.End.Character))
	return b.String()
}

func utf16Sub(units []uint16, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(units) {
		end = len(units)
	}
	if start > end {
		return ""
	}
	return string(utf16.Decode(units[start:end]))
}
