// Package tui implements the interactive chat surface. Each question runs
// the full answering workflow and renders the deliverable: answer with
// citations, action items, and sources.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hrops-ai/copilot/pipeline"
)

// Answerer is the pipeline surface the chat drives.
type Answerer interface {
	Answer(ctx context.Context, question string) (*pipeline.Result, error)
}

type answerMsg struct {
	result *pipeline.Result
	err    error
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	service  Answerer
	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	status   string
	waiting  bool
	ready    bool
	result   *pipeline.Result
}

// New creates a chat model over the answering pipeline.
func New(service Answerer) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about a policy and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	return Model{
		service:  service,
		input:    ti,
		viewport: viewport.New(0, 0),
		spin:     sp,
		status:   "Ready. Ask a question about company policy.",
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = maxInt(3, vh-rh)
		m.viewport.SetContent(m.renderResult())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.waiting {
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.waiting = true
				m.status = "Working through the policy corpus..."
				m.input.SetValue("")
				return m, tea.Batch(m.spin.Tick, m.ask(q))
			}
		}

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			// A degraded result still carries a complete deliverable.
			if msg.result != nil {
				m.result = msg.result
				m.viewport.SetContent(m.renderResult())
			}
			return m, nil
		}
		m.result = msg.result
		m.status = fmt.Sprintf("Answered %q", truncate(msg.result.Question, 60))
		m.viewport.SetContent(m.renderResult())
		return m, nil

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.service.Answer(context.Background(), question)
		return answerMsg{result: result, err: err}
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("HR Policy Copilot")
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	if m.waiting {
		status = m.spin.View() + " " + status
	}
	return header + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderResult() string {
	if m.result == nil {
		return "No answer yet. Citations appear inline as [document | chunk]."
	}
	r := m.result

	var b strings.Builder
	b.WriteString(sectionStyle.Render("Answer"))
	b.WriteString("\n")
	b.WriteString(r.Answer)
	b.WriteString("\n")

	if d := r.Deliverable; d != nil {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Summary"))
		b.WriteString("\n")
		b.WriteString(d.ExecutiveSummary)
		b.WriteString("\n")

		if len(d.ActionList) > 0 {
			b.WriteString("\n")
			b.WriteString(sectionStyle.Render("Actions"))
			b.WriteString("\n")
			for _, a := range d.ActionList {
				b.WriteString(fmt.Sprintf("  - %s (%s, due %s, confidence %.2f)\n",
					a.Action, a.Owner, a.DueDate, a.Confidence))
			}
		}
		if len(d.Sources) > 0 {
			b.WriteString("\n")
			b.WriteString(sectionStyle.Render("Sources"))
			b.WriteString("\n")
			for _, s := range d.Sources {
				b.WriteString("  - " + s + "\n")
			}
		}
	}

	if r.Verdict != nil {
		b.WriteString("\n")
		if r.Verdict.Passed() {
			b.WriteString(passStyle.Render("Verified: PASS"))
		} else {
			b.WriteString(failStyle.Render("Verified: FAIL"))
			for _, issue := range r.Verdict.Issues {
				b.WriteString("\n  - " + issue)
			}
		}
	}
	return b.String()
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	sectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	passStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
