package evidence

import (
	"fmt"
	"strings"
)

const excerptSeparator = "\n\n---\n\n"

// Pack is the immutable serialized form of an evidence list that the writer
// consumes: each fragment framed with its excerpt index and citation.
type Pack struct {
	text string
}

// BuildPack serializes fragments in order. An empty fragment list yields an
// empty pack, which makes the writer emit the not-found sentinel without an
// LLM call.
func BuildPack(fragments []Fragment) Pack {
	if len(fragments) == 0 {
		return Pack{}
	}
	parts := make([]string, 0, len(fragments))
	for i, f := range fragments {
		cite := f.Citation
		if cite == "" {
			cite = fmt.Sprintf("[chunk %d]", i+1)
		}
		parts = append(parts, fmt.Sprintf("EXCERPT %d %s\n%s", i+1, cite, f.Text))
	}
	return Pack{text: strings.Join(parts, excerptSeparator)}
}

// String returns the serialized pack text.
func (p Pack) String() string { return p.text }

// IsEmpty reports whether the pack carries no usable evidence.
func (p Pack) IsEmpty() bool { return strings.TrimSpace(p.text) == "" }

// WithFeedback returns a new pack with verifier feedback appended, used for
// the single revision call. The original pack is unchanged.
func (p Pack) WithFeedback(feedback string) Pack {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		feedback = "Revise the answer so every statement is fully supported by the evidence, or return the not-found sentinel."
	}
	return Pack{text: p.text + "\n\nVERIFIER FEEDBACK:\n" + feedback}
}
