package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/hrops-ai/copilot/citation"
	"github.com/hrops-ai/copilot/evidence"
)

const summaryWordLimit = 150

// buildDeliverable renders the final answer into the client-ready artifact.
// Pure function, no external calls: everything here must stay predictable
// and grounded, so text is assembled from the verified answer only.
func buildDeliverable(question, answer string, evid []evidence.Fragment, verdict *Verdict, companyName string, now time.Time) *Deliverable {
	if companyName == "" {
		companyName = "Your Company"
	}
	status := "UNKNOWN"
	if verdict != nil {
		status = string(verdict.Status)
	}
	due := func(days int) string {
		return now.AddDate(0, 0, days).Format("2006-01-02")
	}
	clean := strings.TrimSpace(answer)

	if IsNotFound(clean) {
		return notFoundDeliverable(question, companyName, status, due)
	}

	// Sources come from the evidence; the answer text is only a fallback
	// when the evidence list carries no citations.
	sources := evidence.UniqueCitations(evid)
	if len(sources) == 0 {
		sources = uniqueSourcesFromText(clean)
	}

	stripped := citation.Strip(clean)
	summary := wordLimit(stripped, summaryWordLimit)

	subject := fmt.Sprintf("%s HR Ops Guidance: %s", companyName, truncateQuestion(question, 60))
	var body strings.Builder
	fmt.Fprintf(&body, "Hello,\n\nBelow is the guidance based strictly on the provided HR sources for:\n%q\n\n", question)
	body.WriteString(stripped)
	body.WriteString("\n\nSources used:\n")
	for _, s := range sources {
		fmt.Fprintf(&body, "- %s\n", s)
	}
	fmt.Fprintf(&body, "\nBest regards,\n%s HR Ops Copilot", companyName)

	baseConf := 0.65
	if status == string(StatusPass) {
		baseConf = 0.85
	}
	actions := []Action{
		{
			Action:     "Review the cited source sections and confirm they apply to your situation.",
			Owner:      "HR",
			DueDate:    due(2),
			Confidence: baseConf,
		},
		{
			Action:     "Communicate the confirmed guidance to relevant employees/managers.",
			Owner:      "HR",
			DueDate:    due(5),
			Confidence: floorConf(baseConf - 0.05),
		},
		{
			Action:     "If guidance impacts systems/security (remote work, data access), align HR + IT controls with the cited policy.",
			Owner:      "IT",
			DueDate:    due(7),
			Confidence: floorConf(baseConf - 0.10),
		},
	}

	return &Deliverable{
		ExecutiveSummary: summary,
		ClientEmail:      Email{Subject: subject, Body: body.String()},
		ActionList:       actions,
		Sources:          sources,
		WorkflowStatus:   status,
	}
}

// notFoundDeliverable states the gap and what document would close it.
// Sources are forced empty: stray retrieved citations must never surface
// when no answer was produced.
func notFoundDeliverable(question, companyName, status string, due func(int) string) *Deliverable {
	needed := inferNeededInfo(question)
	finalAnswer := fmt.Sprintf("%s\nNeeded: %s", NotFound, needed)

	subject := fmt.Sprintf("%s HR Ops: Unable to answer from provided sources", companyName)
	body := fmt.Sprintf(
		"Hello,\n\nI reviewed the provided HR sources for the following request:\n%q\n\n%s\nNeeded: %s\n\nOnce the missing document is added, I can re-run the analysis and provide a cited answer.\n\nBest regards,\n%s HR Ops Copilot",
		question, NotFound, needed, companyName,
	)

	return &Deliverable{
		ExecutiveSummary: wordLimit(strings.ReplaceAll(finalAnswer, "\n", " "), summaryWordLimit),
		ClientEmail:      Email{Subject: subject, Body: body},
		ActionList: []Action{
			{
				Action:     "Locate and upload the missing document needed to answer the request.",
				Owner:      "HR",
				DueDate:    due(3),
				Confidence: 0.55,
			},
			{
				Action:     "Re-run ingestion and re-ask the question after documents are available.",
				Owner:      "IT",
				DueDate:    due(4),
				Confidence: 0.60,
			},
		},
		Sources:        []string{},
		WorkflowStatus: status,
	}
}

// inferNeededInfo guesses which missing document would answer the question.
func inferNeededInfo(question string) string {
	q := strings.ToLower(question)
	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}
	switch {
	case contains("bonus", "salary", "pay", "compensation"):
		return "A compensation/bonus policy (or payroll/compensation section in the employee handbook)."
	case contains("reimburse", "internet", "electricity", "expense"):
		return "A reimbursement/expense policy (finance policy) that defines eligible costs and amounts."
	case contains("stock", "equity", "vesting", "shares", "options"):
		return "An equity/stock plan document defining vesting and eligibility."
	case contains("termination", "fired", "dismissal"):
		return "A termination/disciplinary procedure policy and/or the relevant labour law section."
	case contains("maternity", "paternity", "parental"):
		return "A leave policy (PTO/leave) and the relevant labour law sections defining parental leave."
	default:
		return "A relevant HR policy or law document that explicitly defines this topic."
	}
}

func uniqueSourcesFromText(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, inner := range citation.ExtractBrackets(text) {
		inner = strings.TrimSpace(inner)
		if inner == "" {
			continue
		}
		if _, ok := seen[inner]; ok {
			continue
		}
		seen[inner] = struct{}{}
		out = append(out, inner)
	}
	return out
}

func wordLimit(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ") + "…"
}

func truncateQuestion(question string, limit int) string {
	trimmed := strings.TrimSpace(question)
	if len(trimmed) <= limit {
		return trimmed
	}
	return strings.TrimSpace(trimmed[:limit]) + "..."
}

func floorConf(conf float64) float64 {
	if conf < 0 {
		return 0
	}
	return conf
}
