// Package citation defines the structured source reference used throughout
// the answer pipeline. A citation identifies one evidence chunk by document
// name, optional page, and a stable chunk id, and renders to the bracketed
// form writers must copy verbatim, e.g. [Remote_Policy.md | p.3 | chunk_0001].
package citation

import (
	"fmt"
	"strconv"
	"strings"
)

// Citation is the parsed form of one bracketed source reference.
type Citation struct {
	DocName string
	ChunkID string
	Page    int  // valid only when HasPage is true
	HasPage bool
}

// New builds an unpaged citation.
func New(docName, chunkID string) Citation {
	return Citation{DocName: docName, ChunkID: chunkID}
}

// NewPaged builds a citation carrying a page number (PDF sources).
func NewPaged(docName, chunkID string, page int) Citation {
	return Citation{DocName: docName, ChunkID: chunkID, Page: page, HasPage: true}
}

// Format renders the canonical bracketed form. Page is optional: PDF pages
// carry one, .md/.txt chunks do not.
func (c Citation) Format() string {
	if c.HasPage {
		return fmt.Sprintf("[%s | p.%d | %s]", c.DocName, c.Page, c.ChunkID)
	}
	return fmt.Sprintf("[%s | %s]", c.DocName, c.ChunkID)
}

// Key returns the identity used for citation comparisons: the stable chunk
// id. Two citations with the same key reference the same evidence unit no
// matter how the document name or page is formatted.
func (c Citation) Key() string {
	return c.ChunkID
}

// Parse interprets the contents of a single bracket (without the enclosing
// brackets). The grammar is doc-name "|" ("p."page "|")? chunk-id. A single
// bare segment is treated as a chunk id on its own, which the writer
// post-processing step expands to a full citation.
func Parse(inner string) (Citation, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return Citation{}, fmt.Errorf("empty citation")
	}
	parts := strings.Split(inner, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	switch len(parts) {
	case 1:
		return Citation{ChunkID: parts[0]}, nil
	case 2:
		return Citation{DocName: parts[0], ChunkID: parts[1]}, nil
	case 3:
		c := Citation{DocName: parts[0], ChunkID: parts[2]}
		if page, ok := parsePage(parts[1]); ok {
			c.Page = page
			c.HasPage = true
		}
		return c, nil
	default:
		// Extra segments: keep the first as doc name and the last as chunk
		// id so malformed-but-recognisable citations still normalize.
		return Citation{DocName: parts[0], ChunkID: parts[len(parts)-1]}, nil
	}
}

func parsePage(segment string) (int, bool) {
	segment = strings.TrimSpace(segment)
	trimmed := strings.TrimPrefix(strings.ToLower(segment), "p.")
	if trimmed == segment {
		return 0, false
	}
	page, err := strconv.Atoi(strings.TrimSpace(trimmed))
	if err != nil {
		return 0, false
	}
	return page, true
}

// ChunkKey normalizes raw bracket contents to the comparable chunk id key.
// It also splits on ";" and "," so a bracket illegally combining several
// citations yields every referenced key.
func ChunkKey(inner string) []string {
	var keys []string
	for _, piece := range splitMulti(inner) {
		c, err := Parse(piece)
		if err != nil {
			continue
		}
		if key := c.Key(); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// IsCombined reports whether raw bracket contents hold more than one
// ";"/","-separated citation, which the verifier rejects.
func IsCombined(inner string) bool {
	return len(splitMulti(inner)) > 1
}

func splitMulti(inner string) []string {
	var out []string
	for _, piece := range strings.FieldsFunc(inner, func(r rune) bool {
		return r == ';' || r == ','
	}) {
		piece = strings.TrimSpace(piece)
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

// ExtractBrackets returns the contents of every [...] bracket in text, in
// order of appearance.
func ExtractBrackets(text string) []string {
	var out []string
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		end := strings.IndexByte(text[i+1:], ']')
		if end < 0 {
			break
		}
		out = append(out, text[i+1:i+1+end])
		i += end + 1
	}
	return out
}

// Strip removes every bracketed citation from text, collapsing the
// whitespace left behind. Used for executive summaries and emails.
func Strip(text string) string {
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] == '[' {
			end := strings.IndexByte(text[i+1:], ']')
			if end >= 0 {
				i += end + 1
				continue
			}
		}
		b.WriteByte(text[i])
	}
	return collapseSpaces(b.String())
}

func collapseSpaces(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
