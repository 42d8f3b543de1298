package evidence

import (
	"github.com/hrops-ai/copilot/keywords"
)

// FilterConfig is an explicit value object controlling admissibility. There
// is no ambient/global configuration; construct one and pass it in.
type FilterConfig struct {
	// MinKeywordLen is the minimum token length considered a keyword.
	MinKeywordLen int
	// OverlapFloor is the minimum required overlap when the question yields
	// more than SmallQuestionKeywords keywords.
	OverlapFloor int
	// SmallQuestionKeywords: questions with at most this many keywords only
	// need a single overlapping keyword.
	SmallQuestionKeywords int
	// MaxDistance, when EnforceDistance is set, rejects fragments whose
	// distance exceeds it. Fragments without a distance value pass.
	MaxDistance     float64
	EnforceDistance bool
}

// DefaultFilterConfig mirrors the documented defaults: keywords of length
// >= 3, overlap of 1 for questions with <= 3 keywords and 2 otherwise, and
// no distance ceiling.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinKeywordLen:         3,
		OverlapFloor:          2,
		SmallQuestionKeywords: 3,
	}
}

// Filter is the post-retrieval relevance gate deciding which fragments are
// admissible evidence for a question.
type Filter struct {
	cfg FilterConfig
}

// NewFilter builds a filter from an explicit configuration.
func NewFilter(cfg FilterConfig) *Filter {
	if cfg.MinKeywordLen <= 0 {
		cfg.MinKeywordLen = 3
	}
	if cfg.OverlapFloor <= 0 {
		cfg.OverlapFloor = 2
	}
	if cfg.SmallQuestionKeywords <= 0 {
		cfg.SmallQuestionKeywords = 3
	}
	return &Filter{cfg: cfg}
}

// Admissible returns the admissible fragments in retrieval order.
//
// A question that yields zero keywords (all stopwords) admits every fragment
// that passes the distance gate: with no lexical signal to check, retrieval
// ranking alone decides, rather than failing every fragment vacuously.
func (f *Filter) Admissible(question string, fragments []Fragment) []Fragment {
	kws := keywords.Extract(question, f.cfg.MinKeywordLen)
	required := f.requiredOverlap(len(kws))

	var out []Fragment
	for _, frag := range fragments {
		if !f.passesDistance(frag) {
			continue
		}
		if required > 0 && keywords.Overlap(frag.Text, kws) < required {
			continue
		}
		out = append(out, frag)
	}
	return out
}

// HasEvidence reports whether any admissible evidence exists for the
// question; it drives the pipeline's no-evidence short-circuit.
func (f *Filter) HasEvidence(question string, fragments []Fragment) bool {
	return len(f.Admissible(question, fragments)) > 0
}

func (f *Filter) requiredOverlap(keywordCount int) int {
	if keywordCount == 0 {
		return 0
	}
	if keywordCount <= f.cfg.SmallQuestionKeywords {
		return 1
	}
	return f.cfg.OverlapFloor
}

func (f *Filter) passesDistance(frag Fragment) bool {
	if !f.cfg.EnforceDistance {
		return true
	}
	if frag.Distance == nil {
		return true
	}
	return *frag.Distance <= f.cfg.MaxDistance
}
