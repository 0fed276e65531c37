package symbols

import (
	"testing"

	"github.com/thanhtunguet/serena/internal/protocol"
)

func TestSliceUTF16_SingleLineASCII(t *testing.T) {
	text := "func hello() {}\n"
	r := protocol.Range{
		Start: protocol.Position{Line: 0, Character: 0},
		End:   protocol.Position{Line: 0, Character: 9},
	}
	got := sliceUTF16(text, r)
	if got != "func hell" {
		t.Errorf("got %q, want %q", got, "func hell")
	}
}

func TestSliceUTF16_MultiLine(t *testing.T) {
	text := "line one\nline two\nline three\n"
	r := protocol.Range{
		Start: protocol.Position{Line: 0, Character: 5},
		End:   protocol.Position{Line: 2, Character: 4},
	}
	got := sliceUTF16(text, r)
	want := "one\nline two\nline"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSliceUTF16_SurrogatePairCharacterCounting(t *testing.T) {
	// U+1F600 (grinning face) encodes as a UTF-16 surrogate pair (2 code
	// units), so "character" offsets after it must count 2, not 1.
	text := "a\U0001F600b\n"
	r := protocol.Range{
		Start: protocol.Position{Line: 0, Character: 0},
		End:   protocol.Position{Line: 0, Character: 3},
	}
	got := sliceUTF16(text, r)
	want := "a\U0001F600"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
