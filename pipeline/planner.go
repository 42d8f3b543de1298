package pipeline

// makePlan produces the fixed research plan. No LLM call: a deterministic
// plan keeps runs reproducible and costs nothing, and the plan is only
// descriptive output, never a branching input.
func makePlan(question string) *Plan {
	return &Plan{
		Goal:     "Answer using only approved documents with citations.",
		Question: question,
		Steps: []string{
			"Retrieve relevant evidence chunks from the vector database",
			"Write an answer grounded only in the evidence, with citations",
			"Verify the answer is supported by evidence (no hallucinations)",
			"If verification fails, revise once using verifier feedback",
		},
	}
}
