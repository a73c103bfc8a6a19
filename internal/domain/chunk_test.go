package domain

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkText_EmptyInput(t *testing.T) {
	if got := ChunkText("", 900, 120); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if got := ChunkText("   \n\t  ", 900, 120); got != nil {
		t.Fatalf("expected nil for whitespace input, got %v", got)
	}
}

func TestChunkText_ShortInput(t *testing.T) {
	chunks := ChunkText("  hello  ", 900, 120)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "hello" {
		t.Errorf("expected trimmed text %q, got %q", "hello", chunks[0].Text)
	}
	if chunks[0].Start != 0 || chunks[0].End != 5 {
		t.Errorf("expected offsets [0,5), got [%d,%d)", chunks[0].Start, chunks[0].End)
	}
}

func TestChunkText_AdvanceAndCoverage(t *testing.T) {
	const (
		size    = 10
		overlap = 3
	)
	text := strings.Repeat("abcdefghij", 5) // 50 runes, no whitespace

	chunks := ChunkText(text, size, overlap)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}

	step := size - overlap
	for i, c := range chunks {
		if want := i * step; c.Start != want {
			t.Errorf("chunk %d: start = %d, want %d", i, c.Start, want)
		}
		if c.End-c.Start > size {
			t.Errorf("chunk %d: window larger than chunk size: [%d,%d)", i, c.Start, c.End)
		}
	}
	if last := chunks[len(chunks)-1]; last.End != len(text) {
		t.Errorf("last window end = %d, want %d", last.End, len(text))
	}
}

func TestChunkText_OverlapRepeatsTail(t *testing.T) {
	text := "0123456789ABCDEFGHIJ"
	chunks := ChunkText(text, 10, 4)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	// Second window starts 6 runes in, repeating the previous tail "6789".
	if !strings.HasPrefix(chunks[1].Text, "6789") {
		t.Errorf("second chunk should repeat overlap, got %q", chunks[1].Text)
	}
}

func TestChunkText_OverlapAtLeastChunkSizeTerminates(t *testing.T) {
	// overlap >= chunkSize would never advance without the clamp.
	text := strings.Repeat("x", 40)
	chunks := ChunkText(text, 5, 5)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start <= chunks[i-1].Start {
			t.Fatalf("chunk %d does not advance: start %d after %d", i, chunks[i].Start, chunks[i-1].Start)
		}
	}
	if last := chunks[len(chunks)-1]; last.End != len(text) {
		t.Errorf("last window end = %d, want %d", last.End, len(text))
	}
}

func TestChunkText_MultiByteRunes(t *testing.T) {
	// Accented characters must never be split at a window edge.
	text := strings.Repeat("ã", 20)
	chunks := ChunkText(text, 5, 0)
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c.Text) {
			t.Errorf("chunk %d is invalid UTF-8: %q", i, c.Text)
		}
		if c.Text != "ããããã" {
			t.Errorf("chunk %d = %q, want %q", i, c.Text, "ããããã")
		}
	}

	// Offsets count runes, not bytes.
	mixed := ChunkText("tração dianteira com freios a disco", 10, 2)
	for i, c := range mixed {
		if !utf8.ValidString(c.Text) {
			t.Errorf("chunk %d is invalid UTF-8: %q", i, c.Text)
		}
		if got := len([]rune(c.Text)); got > 10 {
			t.Errorf("chunk %d has %d runes, want at most 10", i, got)
		}
	}
	if last := mixed[len(mixed)-1]; last.End != len([]rune("tração dianteira com freios a disco")) {
		t.Errorf("last window end = %d, want rune length of input", last.End)
	}
}

func TestChunkText_Deterministic(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	a := ChunkText(text, 12, 4)
	b := ChunkText(text, 12, 4)
	if len(a) != len(b) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
