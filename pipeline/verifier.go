package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrops-ai/copilot/citation"
	"github.com/hrops-ai/copilot/evidence"
	"github.com/hrops-ai/copilot/keywords"
	"github.com/hrops-ai/copilot/llm"
)

// verifierMinKeywordLen is the keyword length floor for the relevance guard.
// It is stricter than the evidence filter's floor so short connective words
// never count as topical signal.
const verifierMinKeywordLen = 4

// Verifier is the no-hallucination gate. Verification is a pure function of
// (question, evidence pack, draft); it never calls the draft generator. An
// optional LLM second opinion can add failures, but a heuristic failure is
// final regardless of the opinion.
type Verifier struct {
	opinion llm.Client
}

// NewVerifier builds the heuristic-only verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// NewVerifierWithOpinion additionally consults a completion client for a
// second opinion on drafts that pass every heuristic check.
func NewVerifierWithOpinion(client llm.Client) *Verifier {
	return &Verifier{opinion: client}
}

// Verify validates the draft against the evidence pack. Checks run in
// order and short-circuit on the first failure.
func (v *Verifier) Verify(ctx context.Context, question string, pack evidence.Pack, draft string) *Verdict {
	trimmed := strings.TrimSpace(draft)

	// The sentinel is exempt from every other check.
	if trimmed == NotFound {
		return pass()
	}

	if verdict := v.relevanceGuard(question, pack); verdict != nil {
		return verdict
	}

	brackets := citation.ExtractBrackets(trimmed)
	if len(brackets) == 0 {
		return fail(
			[]string{"Missing citations in the answer."},
			"Add at least one citation copied verbatim from the evidence to every paragraph, or return the not-found sentinel.",
		)
	}

	if verdict := checkParagraphCoverage(trimmed); verdict != nil {
		return verdict
	}
	if verdict := checkBracketSingularity(brackets); verdict != nil {
		return verdict
	}
	if verdict := checkCitationIntegrity(brackets, pack); verdict != nil {
		return verdict
	}

	if v.opinion != nil {
		if verdict := v.secondOpinion(ctx, question, pack, trimmed); verdict != nil {
			return verdict
		}
	}
	return pass()
}

// relevanceGuard fails drafts whose question shares no significant keyword
// with the evidence: the writer should have returned the sentinel. Questions
// that yield no keywords at all carry no signal to check and pass through.
func (v *Verifier) relevanceGuard(question string, pack evidence.Pack) *Verdict {
	kws := keywords.Extract(question, verifierMinKeywordLen)
	if len(kws) == 0 {
		return nil
	}
	if keywords.ContainsAny(pack.String(), kws) {
		return nil
	}
	return fail(
		[]string{"The evidence does not address the question's topic."},
		fmt.Sprintf("The evidence does not cover this question. Return exactly: %s", NotFound),
	)
}

func checkParagraphCoverage(draft string) *Verdict {
	for i, para := range splitParagraphs(draft) {
		if len(citation.ExtractBrackets(para)) == 0 {
			return fail(
				[]string{fmt.Sprintf("Paragraph %d has no citation.", i+1)},
				"Every paragraph must include at least one bracketed citation copied verbatim from the evidence.",
			)
		}
	}
	return nil
}

func checkBracketSingularity(brackets []string) *Verdict {
	for _, inner := range brackets {
		if citation.IsCombined(inner) {
			return fail(
				[]string{fmt.Sprintf("Bracket [%s] combines multiple citations.", inner)},
				"Never put multiple citations inside one bracket; cite each source in its own separate bracket.",
			)
		}
	}
	return nil
}

// checkCitationIntegrity verifies every cited chunk id exists in the
// evidence pack. Pack chunk ids are recovered from the pack's own citation
// brackets, keeping verification a pure function of its three inputs.
func checkCitationIntegrity(brackets []string, pack evidence.Pack) *Verdict {
	allowed := make(map[string]struct{})
	for _, inner := range citation.ExtractBrackets(pack.String()) {
		for _, key := range citation.ChunkKey(inner) {
			allowed[key] = struct{}{}
		}
	}

	var invalid []string
	for _, inner := range brackets {
		keys := citation.ChunkKey(inner)
		if len(keys) == 0 {
			invalid = append(invalid, inner)
			continue
		}
		for _, key := range keys {
			if _, ok := allowed[key]; !ok {
				invalid = append(invalid, inner)
				break
			}
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	issues := make([]string, 0, len(invalid))
	for _, inner := range invalid {
		issues = append(issues, fmt.Sprintf("Citation [%s] is not present in the evidence.", inner))
	}
	return fail(
		issues,
		"Only cite excerpts that appear in the evidence pack, copied verbatim, or return the not-found sentinel.",
	)
}

const opinionSystemPrompt = `You are a strict verifier.
Check the draft ONLY against the evidence excerpts.
Fail if the draft contains claims not supported by evidence.
Fail if the draft should have said the not-found sentinel.
Fail if citations are missing or appear invented.
Return exactly this format:
STATUS: PASS or FAIL
ISSUES: bullet list
FIX: one paragraph instructions`

// secondOpinion asks the completion service to double-check a draft that
// already passed every heuristic. It can only add a failure; errors from the
// opinion call are swallowed so the heuristic verdict stands.
func (v *Verifier) secondOpinion(ctx context.Context, question string, pack evidence.Pack, draft string) *Verdict {
	resp, err := v.opinion.Generate(ctx, &llm.Request{
		System: opinionSystemPrompt,
		User: fmt.Sprintf("QUESTION:\n%s\n\nEVIDENCE:\n%s\n\nDRAFT:\n%s",
			question, pack.String(), draft),
	})
	if err != nil || resp == nil {
		return nil
	}
	text := strings.TrimSpace(resp.Text)
	if !strings.Contains(strings.ToUpper(text), "STATUS: FAIL") {
		return nil
	}
	return fail(
		[]string{text},
		"Use only supported statements from the evidence, add citations per paragraph, or return the not-found sentinel.",
	)
}

func splitParagraphs(text string) []string {
	var out []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if strings.TrimSpace(para) != "" {
			out = append(out, para)
		}
	}
	return out
}

func pass() *Verdict {
	return &Verdict{Status: StatusPass, Issues: []string{}}
}

func fail(issues []string, fix string) *Verdict {
	return &Verdict{Status: StatusFail, Issues: issues, FixInstructions: fix}
}
