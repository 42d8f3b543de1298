package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	copiloterr "github.com/hrops-ai/copilot/errors"
	"github.com/hrops-ai/copilot/evidence"
	"github.com/hrops-ai/copilot/llm"
	"github.com/hrops-ai/copilot/pkg/logging"
	"github.com/hrops-ai/copilot/pkg/telemetry"
	"github.com/hrops-ai/copilot/workflow"
)

// Pipeline wires the grounded question-answering workflow:
//
//	plan → research → {no_evidence | write} → verify → {revise → verify | deliver}
//
// A run is strictly sequential and shares no mutable state with other runs;
// independent questions may be answered concurrently.
type Pipeline struct {
	cfg      *Config
	store    DocumentStore
	writer   *writer
	verifier *Verifier
	filter   *evidence.Filter
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates a pipeline over a document store and a completion client.
func New(store DocumentStore, client llm.Client, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if client == nil {
		return nil, fmt.Errorf("writer client is required")
	}
	cfg := applyOptions(opts)

	verifier := NewVerifier()
	if cfg.opinion != nil {
		verifier = NewVerifierWithOpinion(cfg.opinion)
	}

	return &Pipeline{
		cfg:      cfg,
		store:    store,
		writer:   newWriter(client, cfg.Temperature),
		verifier: verifier,
		filter:   evidence.NewFilter(cfg.Filter),
		logger:   logging.WithComponent("pipeline"),
		tracer:   otel.Tracer("copilot/pipeline"),
	}, nil
}

// Answer runs the workflow for one question. The returned result is always a
// complete deliverable structure: when a collaborator fails mid-run, the
// result degrades to the not-found deliverable with a FAIL verdict carrying
// the error, and the error is returned alongside it.
func (p *Pipeline) Answer(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, copiloterr.ErrEmptyQuestion
	}

	if p.cfg.cache != nil {
		if cached, ok, err := p.cfg.cache.Get(ctx, cacheKey(question)); err != nil {
			p.logger.Warn("answer cache lookup failed", "error", err)
		} else if ok {
			p.logger.Info("answer served from cache", "question", trimForLog(question, 120))
			return cached, nil
		}
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.answer",
		trace.WithAttributes(attribute.String("question", trimForLog(question, 120))))

	p.logger.Info("pipeline run started", "question", trimForLog(question, 120))
	st := &runState{question: question}
	var records []TraceRecord

	machine := p.buildMachine(st, &records)
	runErr := machine.Run(ctx, st)
	telemetry.End(span, runErr)

	result := p.assembleResult(st, records, runErr)
	if runErr != nil {
		p.logger.Error("pipeline run failed, delivering fallback", "error", runErr)
		return result, runErr
	}

	p.logger.Info("pipeline run completed",
		"question", trimForLog(question, 120),
		"evidence_count", len(result.Evidence),
		"verdict", result.Verdict.Status,
		"revisions", st.revisions,
	)

	if p.cfg.cache != nil {
		if err := p.cfg.cache.Set(ctx, cacheKey(question), result); err != nil {
			p.logger.Warn("answer cache store failed", "error", err)
		}
	}
	if p.cfg.recorder != nil {
		if err := p.cfg.recorder.RecordRun(ctx, result); err != nil {
			p.logger.Warn("run recording failed", "error", err)
		}
	}
	return result, nil
}

func (p *Pipeline) buildMachine(st *runState, records *[]TraceRecord) *workflow.Machine[*runState] {
	observer := func(node string, _ workflow.NodeType, status string, elapsed time.Duration, _ error) {
		*records = append(*records, TraceRecord{
			Agent:     node,
			Status:    status,
			ElapsedMS: elapsed.Milliseconds(),
			Meta:      st.meta[node],
		})
	}

	return workflow.NewBuilder[*runState]().
		AddNode("plan", workflow.NodeTypeStart, p.planNode).
		AddNode("research", workflow.NodeTypeTool, p.researchNode).
		AddConditionNode("evidence_gate", p.evidenceGate, map[string]string{
			"no_evidence": "no_evidence",
			"write":       "write",
		}).
		AddNode("no_evidence", workflow.NodeTypeTool, p.noEvidenceNode).
		AddNode("write", workflow.NodeTypeLLM, p.writeNode).
		AddNode("verify", workflow.NodeTypeTool, p.verifyNode).
		AddConditionNode("verdict_gate", p.verdictGate, map[string]string{
			"revise":  "revise",
			"deliver": "deliver",
		}).
		AddNode("revise", workflow.NodeTypeLLM, p.reviseNode).
		AddNode("deliver", workflow.NodeTypeTool, p.deliverNode).
		AddNode("end", workflow.NodeTypeEnd, func(context.Context, *runState) error { return nil }).
		AddEdge("plan", "research").
		AddEdge("research", "evidence_gate").
		AddEdge("no_evidence", "deliver").
		AddEdge("write", "verify").
		AddEdge("verify", "verdict_gate").
		AddEdge("revise", "verify").
		AddEdge("deliver", "end").
		SetObserver(observer).
		Build()
}

func (p *Pipeline) planNode(_ context.Context, st *runState) error {
	st.plan = makePlan(st.question)
	st.stageMeta("plan")["steps"] = len(st.plan.Steps)
	return nil
}

func (p *Pipeline) researchNode(ctx context.Context, st *runState) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.research")
	frags, err := p.store.Search(ctx, st.question, p.cfg.K)
	telemetry.End(span, err)
	if err != nil {
		return fmt.Errorf("document store search failed: %w", err)
	}
	st.retrieved = frags
	st.evidence = p.filter.Admissible(st.question, frags)
	st.pack = evidence.BuildPack(st.evidence)

	meta := st.stageMeta("research")
	meta["retrieved"] = len(frags)
	meta["admissible"] = len(st.evidence)
	meta["citations"] = evidence.UniqueCitations(st.evidence)
	p.logger.Debug("research completed", "retrieved", len(frags), "admissible", len(st.evidence))
	return nil
}

// evidenceGate routes to the no-evidence short-circuit when nothing
// admissible was retrieved: with no evidence there is nothing to
// hallucinate from, so the writer and verifier are skipped entirely.
func (p *Pipeline) evidenceGate(_ context.Context, st *runState) (string, error) {
	if len(st.evidence) == 0 {
		return "no_evidence", nil
	}
	return "write", nil
}

func (p *Pipeline) noEvidenceNode(_ context.Context, st *runState) error {
	st.draft = NotFound
	st.verdict = pass()
	st.stageMeta("no_evidence")["forced_sentinel"] = true
	p.logger.Info("no admissible evidence, short-circuiting to not-found")
	return nil
}

func (p *Pipeline) writeNode(ctx context.Context, st *runState) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.write")
	draft, usage, err := p.writer.Draft(ctx, st.question, st.pack)
	telemetry.End(span, err)
	if err != nil {
		return err
	}
	st.draft = postProcess(draft, p.cfg.CompanyName, evidence.CitationByChunkID(st.evidence))
	p.recordUsage(st.stageMeta("write"), usage, st.draft)
	return nil
}

func (p *Pipeline) verifyNode(ctx context.Context, st *runState) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.verify")
	st.verdict = p.verifier.Verify(ctx, st.question, st.pack, st.draft)
	telemetry.End(span, nil)

	meta := st.stageMeta("verify")
	meta["status"] = string(st.verdict.Status)
	meta["issues"] = len(st.verdict.Issues)
	return nil
}

// verdictGate grants exactly one revision. After the budget is spent the
// re-verified result is delivered as-is, PASS or FAIL.
func (p *Pipeline) verdictGate(_ context.Context, st *runState) (string, error) {
	if !st.verdict.Passed() && st.revisions == 0 {
		return "revise", nil
	}
	return "deliver", nil
}

func (p *Pipeline) reviseNode(ctx context.Context, st *runState) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.revise")
	draft, usage, err := p.writer.Revise(ctx, st.question, st.pack, st.verdict.FixInstructions)
	telemetry.End(span, err)
	if err != nil {
		return err
	}
	st.draft = postProcess(draft, p.cfg.CompanyName, evidence.CitationByChunkID(st.evidence))
	st.revisions++
	p.recordUsage(st.stageMeta("revise"), usage, st.draft)
	return nil
}

func (p *Pipeline) deliverNode(_ context.Context, st *runState) error {
	st.result = buildDeliverable(st.question, st.draft, st.evidence, st.verdict, p.cfg.CompanyName, time.Now())
	st.stageMeta("deliver")["sources"] = len(st.result.Sources)
	return nil
}

func (p *Pipeline) recordUsage(meta map[string]any, usage llm.Usage, text string) {
	if usage.CompletionTokens == 0 && p.cfg.counter != nil {
		usage.CompletionTokens = p.cfg.counter.CountTokens(text)
	}
	if usage.Model != "" {
		meta["model"] = usage.Model
	}
	meta["prompt_tokens"] = usage.PromptTokens
	meta["completion_tokens"] = usage.CompletionTokens
}

// assembleResult produces the caller-facing bundle. On a failed run the
// answer degrades to the sentinel with a FAIL verdict carrying the error, so
// the presentation layer always receives a well-formed deliverable.
func (p *Pipeline) assembleResult(st *runState, records []TraceRecord, runErr error) *Result {
	result := &Result{
		RunID:       uuid.NewString(),
		Question:    st.question,
		Plan:        st.plan,
		Evidence:    st.evidence,
		Answer:      st.draft,
		Verdict:     st.verdict,
		Deliverable: st.result,
		Trace:       records,
	}
	if result.Plan == nil {
		result.Plan = makePlan(st.question)
	}
	if runErr != nil {
		result.Answer = NotFound
		result.Verdict = fail(
			[]string{fmt.Sprintf("Pipeline error: %v", runErr)},
			"Resolve the collaborator failure and re-ask the question.",
		)
		result.Deliverable = buildDeliverable(st.question, NotFound, nil, result.Verdict, p.cfg.CompanyName, time.Now())
	}
	return result
}

func cacheKey(question string) string {
	return strings.ToLower(strings.Join(strings.Fields(question), " "))
}

func trimForLog(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
