package pipeline

import (
	"strings"
	"testing"
	"time"
)

var deliverNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestDeliverableNotFoundBranch(t *testing.T) {
	evid := remoteFragments() // retrieved but must never surface
	d := buildDeliverable("What is the signing bonus amount?", NotFound, evid, pass(), "KosovoTech LLC", deliverNow)

	if len(d.Sources) != 0 {
		t.Fatalf("sources must be forced empty, got %v", d.Sources)
	}
	if !strings.HasPrefix(d.ExecutiveSummary, NotFound) {
		t.Fatalf("summary = %q", d.ExecutiveSummary)
	}
	if !strings.Contains(d.ExecutiveSummary, "compensation") {
		t.Fatalf("summary should name the needed document: %q", d.ExecutiveSummary)
	}
	if len(d.ActionList) != 2 {
		t.Fatalf("actions = %#v", d.ActionList)
	}
	hr, it := d.ActionList[0], d.ActionList[1]
	if hr.Owner != "HR" || hr.DueDate != "2026-03-05" || hr.Confidence != 0.55 {
		t.Fatalf("hr action = %#v", hr)
	}
	if it.Owner != "IT" || it.DueDate != "2026-03-06" || it.Confidence != 0.60 {
		t.Fatalf("it action = %#v", it)
	}
	if !strings.Contains(d.ClientEmail.Subject, "Unable to answer") {
		t.Fatalf("subject = %q", d.ClientEmail.Subject)
	}
}

func TestDeliverableLegacySentinelPrefix(t *testing.T) {
	d := buildDeliverable("Anything?", "Not found in the sources.", remoteFragments(), pass(), "", deliverNow)
	if len(d.Sources) != 0 {
		t.Fatalf("legacy sentinel should still suppress sources: %v", d.Sources)
	}
}

func TestDeliverableNormalBranch(t *testing.T) {
	answer := "Remote work is allowed two days per week [Remote_Policy.md | chunk_0001]."
	d := buildDeliverable("What is the remote work policy?", answer, remoteFragments(), pass(), "KosovoTech LLC", deliverNow)

	if len(d.Sources) != 1 || d.Sources[0] != "[Remote_Policy.md | chunk_0001]" {
		t.Fatalf("sources = %v", d.Sources)
	}
	if strings.Contains(d.ExecutiveSummary, "[") {
		t.Fatalf("summary must be citation-free: %q", d.ExecutiveSummary)
	}
	if len(d.ActionList) != 3 {
		t.Fatalf("actions = %#v", d.ActionList)
	}
	for i, want := range []float64{0.85, 0.80, 0.75} {
		if got := d.ActionList[i].Confidence; !approx(got, want) {
			t.Fatalf("action %d confidence = %v, want %v", i, got, want)
		}
	}
	if d.ActionList[0].DueDate != "2026-03-04" || d.ActionList[1].DueDate != "2026-03-07" || d.ActionList[2].DueDate != "2026-03-09" {
		t.Fatalf("due dates = %v %v %v",
			d.ActionList[0].DueDate, d.ActionList[1].DueDate, d.ActionList[2].DueDate)
	}
	if !strings.Contains(d.ClientEmail.Body, "- [Remote_Policy.md | chunk_0001]") {
		t.Fatalf("email body missing source list:\n%s", d.ClientEmail.Body)
	}
}

func TestDeliverableFailVerdictLowersConfidence(t *testing.T) {
	answer := "Remote work is allowed [Remote_Policy.md | chunk_0001]."
	verdict := fail([]string{"issue"}, "fix")
	d := buildDeliverable("What is the remote work policy?", answer, remoteFragments(), verdict, "", deliverNow)
	if d.WorkflowStatus != string(StatusFail) {
		t.Fatalf("status = %q", d.WorkflowStatus)
	}
	if !approx(d.ActionList[0].Confidence, 0.65) {
		t.Fatalf("base confidence = %v", d.ActionList[0].Confidence)
	}
}

func approx(got, want float64) bool {
	diff := got - want
	return diff < 1e-9 && diff > -1e-9
}

func TestDeliverableSummaryWordCap(t *testing.T) {
	long := strings.Repeat("word ", 400) + "[Remote_Policy.md | chunk_0001]"
	d := buildDeliverable("What is the remote work policy?", long, remoteFragments(), pass(), "", deliverNow)
	if got := len(strings.Fields(d.ExecutiveSummary)); got > summaryWordLimit {
		t.Fatalf("summary words = %d", got)
	}
	if !strings.HasSuffix(d.ExecutiveSummary, "…") {
		t.Fatalf("truncated summary should end with ellipsis: %q", d.ExecutiveSummary)
	}
}

func TestDeliverableSourcesFallBackToAnswerText(t *testing.T) {
	answer := "Guidance here [Handbook.md | chunk_0009]."
	d := buildDeliverable("What are the office hours and access badge rules?", answer, nil, pass(), "", deliverNow)
	if len(d.Sources) != 1 || d.Sources[0] != "Handbook.md | chunk_0009" {
		t.Fatalf("sources = %v", d.Sources)
	}
}

func TestInferNeededInfo(t *testing.T) {
	cases := map[string]string{
		"How big is the signing bonus?":            "compensation",
		"Can I expense my home internet?":          "reimbursement",
		"What is the vesting schedule for shares?": "equity",
		"What happens on termination?":             "termination",
		"How long is maternity leave?":             "leave policy",
		"Where do I park?":                         "HR policy or law",
	}
	for question, want := range cases {
		got := inferNeededInfo(question)
		if !strings.Contains(strings.ToLower(got), strings.ToLower(want)) {
			t.Fatalf("inferNeededInfo(%q) = %q, want mention of %q", question, got, want)
		}
	}
}
