package orchestrator

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/elee1766/toolchat/src/theme"
)

// ConsoleProcessorConfig configures the console event processor
type ConsoleProcessorConfig struct {
	ShowToolArguments bool
	ShowToolResults   bool
	ShowCheckpoints   bool
	MaxResultPreview  int // Max cells to show in result preview
	// HighlightStyle is the chroma style for code blocks in replies; empty disables
	HighlightStyle string
}

// ConsoleEventProcessor renders events as a line-oriented transcript
type ConsoleEventProcessor struct {
	config ConsoleProcessorConfig
	out    io.Writer

	model   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

// NewConsoleEventProcessor creates a new console event processor writing to out
func NewConsoleEventProcessor(out io.Writer, config ConsoleProcessorConfig) *ConsoleEventProcessor {
	if config.MaxResultPreview == 0 {
		config.MaxResultPreview = 200
	}

	r := lipgloss.NewRenderer(out)
	t := theme.CurrentTheme
	return &ConsoleEventProcessor{
		config:  config,
		out:     out,
		model:   r.NewStyle().Foreground(t.Primary).Bold(true),
		muted:   r.NewStyle().Foreground(t.TextMuted),
		success: r.NewStyle().Foreground(t.Success),
		warning: r.NewStyle().Foreground(t.Warning),
		failure: r.NewStyle().Foreground(t.Error),
	}
}

// Process handles a single event
func (p *ConsoleEventProcessor) Process(event ConversationEvent) error {
	switch e := event.(type) {
	case *SessionStartEvent:
		if e.Resumed {
			p.printf("%s\n", p.muted.Render(fmt.Sprintf("Resuming session (%d turns)", e.TurnNumber)))
		}
		p.printf("%s\n", p.muted.Render(fmt.Sprintf("Loaded %d tools from the server", e.ToolCount)))

	case *ModelMessageEvent:
		p.printf("%s %s\n", p.model.Render("AI:"), highlightCode(e.Content, p.config.HighlightStyle))

	case *ToolCallEvent:
		p.printf("%s %s\n", p.muted.Render("Calling tool:"), e.ToolName)
		if p.config.ShowToolArguments && len(e.Arguments) > 0 {
			p.printf("   %s\n", p.muted.Render("Arguments: "+string(e.Arguments)))
		}

	case *ToolResultEvent:
		p.processToolResult(e)

	case *ToolSuppressedEvent:
		p.printf("%s %s\n", p.model.Render("AI:"), e.Message)

	case *SystemMessageEvent:
		if e.Purpose == "warning" {
			p.printf("%s\n", p.warning.Render("Warning: "+e.Message))
		}

	case *ErrorEvent:
		p.printf("%s\n", p.failure.Render(fmt.Sprintf("Error in %s: %v", e.Context, e.Error)))

	case *CheckpointEvent:
		if e.Error != nil {
			p.printf("%s\n", p.warning.Render(fmt.Sprintf("Could not save session: %v", e.Error)))
		} else if p.config.ShowCheckpoints {
			p.printf("%s\n", p.muted.Render("Session saved to "+e.Path))
		}

	case *SessionEndEvent:
		p.printf("Goodbye!\n")
	}

	return nil
}

func (p *ConsoleEventProcessor) processToolResult(e *ToolResultEvent) {
	status := p.success.Render("   ✓ Tool completed")
	if !e.Success {
		status = p.failure.Render("   ✗ Tool failed")
	}
	if e.Duration > 0 {
		status += p.muted.Render(fmt.Sprintf(" (%v)", e.Duration.Round(10*time.Millisecond)))
	}
	p.printf("%s\n", status)

	if p.config.ShowToolResults || !e.Success {
		preview := strings.ReplaceAll(e.Output, "\n", " ")
		preview = ansi.Truncate(preview, p.config.MaxResultPreview, "...")
		p.printf("   %s\n", p.muted.Render(preview))
	}
}

func (p *ConsoleEventProcessor) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// Close cleans up resources
func (p *ConsoleEventProcessor) Close() error {
	return nil
}
