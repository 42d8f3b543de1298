package pipeline

import (
	"context"
	"testing"

	"github.com/hrops-ai/copilot/evidence"
	"github.com/hrops-ai/copilot/llm"
)

func TestPostProcessCompanyPlaceholder(t *testing.T) {
	got := postProcess("At [Company Name], remote work is allowed [Remote_Policy.md | chunk_0001].", "KosovoTech LLC", nil)
	want := "At KosovoTech LLC, remote work is allowed [Remote_Policy.md | chunk_0001]."
	if got != want {
		t.Fatalf("got %q", got)
	}
}

func TestPostProcessNormalizesParenthesizedCitations(t *testing.T) {
	got := postProcess("Remote work is allowed (Remote_Policy.md | chunk_0001).", "", nil)
	want := "Remote work is allowed [Remote_Policy.md | chunk_0001]."
	if got != want {
		t.Fatalf("got %q", got)
	}
}

func TestPostProcessLeavesOrdinaryParensAlone(t *testing.T) {
	text := "Remote work (two days per week) is allowed [Remote_Policy.md | chunk_0001]."
	if got := postProcess(text, "", nil); got != text {
		t.Fatalf("got %q", got)
	}
}

func TestPostProcessRepairsBareChunkIDs(t *testing.T) {
	citeMap := evidence.CitationByChunkID(remoteFragments())
	got := postProcess("Remote work is allowed [chunk_0001].", "", citeMap)
	want := "Remote work is allowed [Remote_Policy.md | chunk_0001]."
	if got != want {
		t.Fatalf("got %q", got)
	}
}

func TestPostProcessLeavesUnknownBareIDs(t *testing.T) {
	citeMap := evidence.CitationByChunkID(remoteFragments())
	text := "Remote work is allowed [chunk_9999]."
	if got := postProcess(text, "", citeMap); got != text {
		t.Fatalf("got %q", got)
	}
}

func TestWriterEmptyPackShortCircuit(t *testing.T) {
	stub := &stubLLM{response: "should not be called"}
	w := newWriter(stub, 0.1)
	draft, usage, err := w.Draft(context.Background(), "Anything?", evidence.BuildPack(nil))
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if draft != NotFound {
		t.Fatalf("draft = %q", draft)
	}
	if stub.calls != 0 {
		t.Fatal("empty pack must not reach the LLM")
	}
	if usage != (llm.Usage{}) {
		t.Fatalf("usage = %#v", usage)
	}
}
