package ingest

import (
	"strings"
	"testing"
)

func TestChunkRespectsParagraphBoundaries(t *testing.T) {
	c := Chunker{Size: 200, Overlap: 40, MinLen: 10}
	text := "First paragraph about vacation accrual and carryover rules for staff.\n\n" +
		"Second paragraph about remote work approvals and equipment stipends."

	chunks := c.Chunk(text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0], "vacation") {
		t.Errorf("first chunk missing first paragraph: %q", chunks[0])
	}
	if !strings.Contains(chunks[1], "remote") {
		t.Errorf("second chunk missing second paragraph: %q", chunks[1])
	}
}

func TestChunkWindowsLongParagraphsWithOverlap(t *testing.T) {
	c := Chunker{Size: 100, Overlap: 20, MinLen: 10}
	text := strings.Repeat("policy text segment ", 20) // 400 chars, one paragraph

	chunks := c.Chunk(text)
	if len(chunks) < 4 {
		t.Fatalf("expected at least 4 windows, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 100 {
			t.Errorf("chunk %d exceeds size: %d chars", i, len(chunk))
		}
	}
	// Consecutive windows share the overlap region.
	first := chunks[0]
	second := chunks[1]
	tail := first[len(first)-10:]
	if !strings.Contains(second, strings.TrimSpace(tail)) {
		t.Errorf("windows do not overlap: %q not in %q", tail, second)
	}
}

func TestChunkDropsTinyPieces(t *testing.T) {
	c := DefaultChunker()
	chunks := c.Chunk("Short.\n\n" + strings.Repeat("A real policy paragraph with enough substance to index. ", 3))
	for _, chunk := range chunks {
		if len(chunk) < c.MinLen {
			t.Errorf("chunk below minimum length survived: %q", chunk)
		}
	}
	if len(chunks) != 1 {
		t.Errorf("expected only the substantial paragraph, got %d chunks", len(chunks))
	}
}

func TestChunkEmptyText(t *testing.T) {
	c := DefaultChunker()
	if got := c.Chunk("   \n\n  "); len(got) != 0 {
		t.Errorf("expected no chunks for blank text, got %d", len(got))
	}
}
