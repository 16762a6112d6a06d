package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/elee1766/toolchat/src/app"
	"github.com/elee1766/toolchat/src/orchestrator"
	"golang.org/x/term"
)

// ChatCmd runs an interactive session against the tool server
type ChatCmd struct {
	Model       string `short:"m" help:"Model name (overrides config)"`
	Registry    string `help:"Tool server SSE URL (overrides config)"`
	Persona     string `type:"path" help:"Persona YAML file (overrides config)"`
	NoAudit     bool   `help:"Do not record tool executions"`
	ShowResults bool   `help:"Print a preview of every tool result"`
}

// highlightStyle colors code blocks only when stdout is a terminal
func highlightStyle() string {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return "monokai"
	}
	return ""
}

// Run executes the chat command
func (c *ChatCmd) Run(kctx *kong.Context, cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if c.Model != "" {
		cfg.Model.Name = c.Model
	}
	if c.Registry != "" {
		cfg.Registry.URL = c.Registry
	}
	if c.Persona != "" {
		cfg.Persona.File = c.Persona
	}
	if c.NoAudit {
		cfg.Session.AuditDBPath = ""
	}

	logger, logFile := createChatLogger(cfg, cli.level(cfg.Logging.Level))
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := orchestrator.NewSyncEventSink(orchestrator.NewConsoleEventProcessor(os.Stdout, orchestrator.ConsoleProcessorConfig{
		ShowToolResults: c.ShowResults,
		HighlightStyle:  highlightStyle(),
	}))

	chat, err := app.NewChat(ctx, cfg, app.ChatOptions{
		Logger: logger,
		Input:  orchestrator.NewStdinReader("You: "),
		Events: events,
	})
	if err != nil {
		events.Close()
		return fmt.Errorf("failed to start chat: %w", err)
	}
	defer chat.Close()

	err = chat.Loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		// Interrupted; the loop has already saved the session.
		fmt.Fprintln(os.Stdout)
		return nil
	}
	return err
}
