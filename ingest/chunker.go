package ingest

import "strings"

// Chunker splits section text into fixed-size character windows with
// overlap. Windows shorter than MinLen after trimming are dropped so the
// index never holds fragments too small to cite meaningfully.
type Chunker struct {
	Size    int
	Overlap int
	MinLen  int
}

// DefaultChunker returns the chunking defaults used for policy documents.
func DefaultChunker() Chunker {
	return Chunker{Size: 800, Overlap: 120, MinLen: 50}
}

// Chunk windows the text. Paragraph boundaries are respected first; only
// paragraphs longer than Size are windowed with overlap.
func (c Chunker) Chunk(text string) []string {
	size := c.Size
	if size <= 0 {
		size = 800
	}
	overlap := c.Overlap
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var out []string
	for _, part := range strings.Split(text, "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		for len(part) > size {
			out = c.append(out, part[:size])
			part = part[size-overlap:]
		}
		out = c.append(out, part)
	}
	return out
}

func (c Chunker) append(chunks []string, piece string) []string {
	piece = strings.TrimSpace(piece)
	if len(piece) < c.MinLen {
		return chunks
	}
	return append(chunks, piece)
}
