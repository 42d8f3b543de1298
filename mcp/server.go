// Package mcp exposes the answering pipeline as a Model Context Protocol
// server so agent hosts can ask policy questions as a tool call.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hrops-ai/copilot/pipeline"
	"github.com/hrops-ai/copilot/pkg/logging"
)

// Answerer is the pipeline surface the server exposes.
type Answerer interface {
	Answer(ctx context.Context, question string) (*pipeline.Result, error)
}

// AskInput is the tool input schema.
type AskInput struct {
	Question string `json:"question" jsonschema:"the HR policy question to answer"`
}

// AskOutput is the tool output schema: the cited answer plus the deliverable
// fields an agent host can surface directly.
type AskOutput struct {
	Answer  string            `json:"answer"`
	Found   bool              `json:"found"`
	Verdict string            `json:"verdict"`
	Summary string            `json:"summary,omitempty"`
	Sources []string          `json:"sources,omitempty"`
	Actions []pipeline.Action `json:"actions,omitempty"`
	RunID   string            `json:"run_id,omitempty"`
}

// Server wraps the MCP SDK server around the pipeline.
type Server struct {
	sdk    *sdkmcp.Server
	logger *slog.Logger
}

// NewServer creates an MCP server exposing the answer tool.
func NewServer(answerer Answerer, version string) (*Server, error) {
	if answerer == nil {
		return nil, fmt.Errorf("answerer is required")
	}
	if version == "" {
		version = "0.1.0"
	}

	s := &Server{
		sdk: sdkmcp.NewServer(&sdkmcp.Implementation{
			Name:    "hr-copilot",
			Title:   "HR Policy Copilot",
			Version: version,
		}, nil),
		logger: logging.WithComponent("mcp"),
	}

	sdkmcp.AddTool(s.sdk, &sdkmcp.Tool{
		Name: "answer_policy_question",
		Description: "Answer an HR policy question grounded in the ingested document corpus. " +
			"Every sentence of the answer carries a [document | chunk] citation, or the answer " +
			"states that the sources do not cover the question.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, input AskInput) (*sdkmcp.CallToolResult, AskOutput, error) {
		return s.handleAsk(ctx, answerer, input)
	})

	return s, nil
}

func (s *Server) handleAsk(ctx context.Context, answerer Answerer, input AskInput) (*sdkmcp.CallToolResult, AskOutput, error) {
	question := strings.TrimSpace(input.Question)
	s.logger.Info("tool call received", "question_len", len(question))

	result, err := answerer.Answer(ctx, question)
	if err != nil && result == nil {
		return nil, AskOutput{}, fmt.Errorf("answer failed: %w", err)
	}

	out := AskOutput{
		Answer: result.Answer,
		Found:  !pipeline.IsNotFound(result.Answer),
		RunID:  result.RunID,
	}
	if result.Verdict != nil {
		out.Verdict = string(result.Verdict.Status)
	}
	if d := result.Deliverable; d != nil {
		out.Summary = d.ExecutiveSummary
		out.Sources = d.Sources
		out.Actions = d.ActionList
	}

	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: result.Answer}},
	}, out, nil
}

// Run serves MCP over stdio until the context is cancelled or the host
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.sdk.Run(ctx, &sdkmcp.StdioTransport{})
}
