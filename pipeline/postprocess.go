package pipeline

import (
	"regexp"
	"strings"

	"github.com/hrops-ai/copilot/citation"
)

// companyPlaceholder is the token the writer prompt leaves in place of the
// client's name; post-processing substitutes the configured company name.
const companyPlaceholder = "[Company Name]"

// parenCitation matches alternate citation syntax the model sometimes emits:
// a parenthesized reference containing a chunk-id marker.
var parenCitation = regexp.MustCompile(`\(([^()]*chunk[_ ]?[0-9A-Za-z]+[^()]*)\)`)

// postProcess applies the deterministic repairs the write stage performs
// before verification: placeholder substitution, normalization of
// parenthesized citations into canonical brackets, and expansion of bare
// chunk-id citations to full citation strings. Verification itself never
// auto-corrects; all repair happens here.
func postProcess(draft, companyName string, citationByChunk map[string]string) string {
	out := draft
	if companyName != "" {
		out = strings.ReplaceAll(out, companyPlaceholder, companyName)
	}

	out = parenCitation.ReplaceAllStringFunc(out, func(match string) string {
		inner := strings.TrimSpace(match[1 : len(match)-1])
		return "[" + inner + "]"
	})

	for _, inner := range citation.ExtractBrackets(out) {
		parsed, err := citation.Parse(inner)
		if err != nil || parsed.DocName != "" {
			continue
		}
		full, ok := citationByChunk[parsed.ChunkID]
		if !ok {
			continue
		}
		out = strings.ReplaceAll(out, "["+inner+"]", full)
	}
	return strings.TrimSpace(out)
}
