// Package keywords provides the shared keyword extraction used by both the
// evidence filter and the verifier relevance guard. Keeping a single stopword
// set avoids the two heuristics drifting apart.
package keywords

import "strings"

// stopwords covers generic English function words plus domain-generic noise
// that appears in nearly every HR question and carries no retrieval signal.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "were": {},
	"what": {}, "which": {}, "when": {}, "where": {}, "who": {}, "whom": {},
	"why": {}, "how": {}, "does": {}, "did": {}, "has": {}, "have": {},
	"had": {}, "can": {}, "could": {}, "should": {}, "would": {}, "will": {},
	"shall": {}, "may": {}, "might": {}, "must": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "with": {}, "from": {}, "into": {}, "about": {},
	"there": {}, "their": {}, "they": {}, "them": {}, "its": {}, "our": {},
	"your": {}, "you": {}, "any": {}, "all": {}, "get": {}, "got": {},
	"not": {}, "but": {}, "per": {}, "via": {},
	// Domain noise: present in nearly every question against this corpus.
	"policy": {}, "policies": {}, "company": {}, "employee": {},
	"employees": {}, "work": {}, "hr": {},
}

// Extract lowercases text, pulls alphanumeric runs of at least minLen
// characters, drops stopwords, and returns the distinct keywords in first
// occurrence order.
func Extract(text string, minLen int) []string {
	if minLen < 1 {
		minLen = 1
	}
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range Tokenize(text) {
		if len(tok) < minLen {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// Tokenize splits text into lowercase alphanumeric runs.
func Tokenize(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}

// ContainsAny reports whether the lowercase form of text contains at least
// one of the given keywords as a token.
func ContainsAny(text string, kws []string) bool {
	return Overlap(text, kws) > 0
}

// Overlap counts how many of the given keywords occur in text.
func Overlap(text string, kws []string) int {
	if len(kws) == 0 {
		return 0
	}
	present := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		present[tok] = struct{}{}
	}
	count := 0
	for _, kw := range kws {
		if _, ok := present[kw]; ok {
			count++
		}
	}
	return count
}
