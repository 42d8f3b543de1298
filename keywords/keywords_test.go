package keywords

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractDropsStopwordsAndShortTokens(t *testing.T) {
	got := Extract("What is the remote work policy for our company?", 3)
	want := []string{"remote"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("keywords mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractDeduplicatesInOrder(t *testing.T) {
	got := Extract("bonus bonus signing Bonus", 3)
	want := []string{"bonus", "signing"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("keywords mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractAllStopwords(t *testing.T) {
	if got := Extract("What is the policy?", 3); len(got) != 0 {
		t.Fatalf("expected no keywords, got %v", got)
	}
}

func TestOverlap(t *testing.T) {
	kws := Extract("signing bonus amount", 3)
	text := "The signing bonus is defined in the compensation annex."
	if n := Overlap(text, kws); n != 2 {
		t.Fatalf("overlap = %d, want 2", n)
	}
	if ContainsAny("unrelated text", kws) {
		t.Fatal("unexpected keyword hit")
	}
}

func TestTokenizeAlnumRuns(t *testing.T) {
	got := Tokenize("Remote_Policy.md, p.3!")
	want := []string{"remote", "policy", "md", "p", "3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}
