package evidence

import (
	"strings"
	"testing"
)

func TestAdmissibleRequiresKeywordOverlap(t *testing.T) {
	f := NewFilter(DefaultFilterConfig())
	fragments := []Fragment{
		NewFragment("Remote work is allowed two days per week.", "Remote_Policy.md", "chunk_0001"),
		NewFragment("Annual leave accrues monthly.", "Leave_Policy.md", "chunk_0002"),
	}
	got := f.Admissible("What is the remote work policy?", fragments)
	if len(got) != 1 || got[0].ChunkID != "chunk_0001" {
		t.Fatalf("admissible = %#v", got)
	}
}

func TestAdmissibleLargerQuestionsNeedTwoKeywords(t *testing.T) {
	f := NewFilter(DefaultFilterConfig())
	question := "How large is the signing bonus payment during probation onboarding?"
	fragments := []Fragment{
		NewFragment("The probation period lasts three months.", "Handbook.md", "c1"),
		NewFragment("The signing bonus payment is made after probation.", "Handbook.md", "c2"),
	}
	// c1 overlaps only on "probation"; c2 overlaps on several keywords.
	got := f.Admissible(question, fragments)
	if len(got) != 1 || got[0].ChunkID != "c2" {
		t.Fatalf("admissible = %#v", got)
	}
}

func TestAdmissibleZeroKeywordQuestionIsPermissive(t *testing.T) {
	f := NewFilter(DefaultFilterConfig())
	fragments := []Fragment{
		NewFragment("Anything at all.", "Doc.md", "c1"),
	}
	// Every token is a stopword, so retrieval ranking alone decides.
	got := f.Admissible("What is the policy?", fragments)
	if len(got) != 1 {
		t.Fatalf("expected permissive admission, got %#v", got)
	}
}

func TestDistanceCeiling(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.EnforceDistance = true
	cfg.MaxDistance = 0.5
	f := NewFilter(cfg)

	near := NewFragment("Remote work is allowed.", "Remote_Policy.md", "c1").WithDistance(0.2)
	far := NewFragment("Remote work is allowed.", "Remote_Policy.md", "c2").WithDistance(0.9)
	noDist := NewFragment("Remote work is allowed.", "Remote_Policy.md", "c3")

	got := f.Admissible("remote work rules", []Fragment{near, far, noDist})
	if len(got) != 2 {
		t.Fatalf("admissible = %#v", got)
	}
	for _, frag := range got {
		if frag.ChunkID == "c2" {
			t.Fatal("fragment beyond distance ceiling admitted")
		}
	}
}

func TestHasEvidenceShortCircuitSignal(t *testing.T) {
	f := NewFilter(DefaultFilterConfig())
	fragments := []Fragment{
		NewFragment("Office hours are 9 to 5.", "Handbook.md", "c1"),
	}
	if f.HasEvidence("What is the signing bonus amount?", fragments) {
		t.Fatal("expected no admissible evidence")
	}
}

func TestBuildPackFramesExcerpts(t *testing.T) {
	pack := BuildPack([]Fragment{
		NewFragment("First text.", "A.md", "c1"),
		NewFragment("Second text.", "B.md", "c2"),
	})
	s := pack.String()
	if !strings.Contains(s, "EXCERPT 1 [A.md | c1]\nFirst text.") {
		t.Fatalf("pack missing framed excerpt 1:\n%s", s)
	}
	if !strings.Contains(s, "\n\n---\n\nEXCERPT 2 [B.md | c2]\nSecond text.") {
		t.Fatalf("pack missing framed excerpt 2:\n%s", s)
	}
}

func TestEmptyPack(t *testing.T) {
	if !BuildPack(nil).IsEmpty() {
		t.Fatal("empty fragment list should produce empty pack")
	}
}

func TestWithFeedbackProducesNewPack(t *testing.T) {
	pack := BuildPack([]Fragment{NewFragment("Text.", "A.md", "c1")})
	revised := pack.WithFeedback("Add a citation to every paragraph.")
	if pack.String() == revised.String() {
		t.Fatal("feedback should produce a new pack")
	}
	if !strings.Contains(revised.String(), "VERIFIER FEEDBACK:\nAdd a citation to every paragraph.") {
		t.Fatalf("feedback missing:\n%s", revised.String())
	}
}

func TestUniqueCitationsDeduplicates(t *testing.T) {
	frags := []Fragment{
		NewFragment("a", "A.md", "c1"),
		NewFragment("b", "A.md", "c1"),
		NewFragment("c", "B.md", "c2"),
	}
	got := UniqueCitations(frags)
	if len(got) != 2 || got[0] != "[A.md | c1]" || got[1] != "[B.md | c2]" {
		t.Fatalf("unique citations = %v", got)
	}
}
