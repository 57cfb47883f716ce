// Package tui provides the interactive chat interface over the
// knowledge base.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clarion-ai/cli/internal/rag"
)

// Answerer produces a grounded answer for a question; *rag.Engine
// implements it.
type Answerer interface {
	Answer(ctx context.Context, question string) (*rag.Answer, error)
}

// Message is one entry in the chat transcript.
type Message struct {
	Role    string
	Content string
	Sources []string
}

type answerMsg struct {
	answer *rag.Answer
}

type answerErrMsg struct {
	err error
}

// Model is the bubbletea model for the chat view.
type Model struct {
	engine Answerer
	ctx    context.Context

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	messages []Message
	loading  bool
	err      error
	width    int
	height   int
	ready    bool
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	sourceStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle      = lipgloss.NewStyle().Faint(true)
)

// NewModel creates the chat model.
func NewModel(ctx context.Context, engine Answerer) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about your documents..."
	ti.Focus()
	ti.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		engine:  engine,
		ctx:     ctx,
		input:   ti,
		spinner: sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - 5
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.viewport.SetContent(m.renderMessages())
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.loading {
				return m, nil
			}
			m.input.SetValue("")
			m.err = nil
			m.loading = true
			m.messages = append(m.messages, Message{Role: "user", Content: question})
			m.viewport.SetContent(m.renderMessages())
			m.viewport.GotoBottom()
			return m, tea.Batch(m.spinner.Tick, m.ask(question))
		}

	case answerMsg:
		m.loading = false
		srcs := make([]string, 0, len(msg.answer.Sources))
		seen := make(map[string]bool)
		for _, s := range msg.answer.Sources {
			key := s.Chunk.DocumentID.String()
			if !seen[key] {
				seen[key] = true
				srcs = append(srcs, formatSource(s))
			}
		}
		m.messages = append(m.messages, Message{
			Role:    "assistant",
			Content: msg.answer.Text,
			Sources: srcs,
		})
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
		return m, nil

	case answerErrMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.engine.Answer(m.ctx, question)
		if err != nil {
			return answerErrMsg{err: err}
		}
		return answerMsg{answer: answer}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Clarion Chat"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Thinking...")
	case m.err != nil:
		b.WriteString(errorStyle.Render(formatError(m.err)))
	default:
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: send • esc: quit"))
	return b.String()
}

func (m Model) renderMessages() string {
	if len(m.messages) == 0 {
		return helpStyle.Render("Ask a question to get started.")
	}

	var parts []string
	for _, msg := range m.messages {
		switch msg.Role {
		case "user":
			parts = append(parts, userStyle.Render("You: ")+msg.Content)
		default:
			out := assistantStyle.Render("Assistant: ") + msg.Content
			if len(msg.Sources) > 0 {
				out += "\n" + sourceStyle.Render("Sources: "+strings.Join(msg.Sources, ", "))
			}
			parts = append(parts, out)
		}
	}
	return strings.Join(parts, "\n\n")
}

func formatSource(s rag.ScoredChunk) string {
	if len(s.Chunk.HeadingPath) > 0 {
		return s.Chunk.HeadingPath[len(s.Chunk.HeadingPath)-1]
	}
	return fmt.Sprintf("chunk %d", s.Chunk.Seq)
}

func formatError(err error) string {
	if errors.Is(err, rag.ErrEmptyIndex) {
		return "The knowledge base is empty. Run 'clarion ingest' first."
	}
	return "Error: " + err.Error()
}

// Run starts the chat program and blocks until the user quits.
func Run(ctx context.Context, engine Answerer) error {
	p := tea.NewProgram(NewModel(ctx, engine), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
