package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/elee1766/toolchat/src/mcp"
)

// ToolsCmd lists the tools the tool server advertises
type ToolsCmd struct {
	Registry string `help:"Tool server SSE URL (overrides config)"`
	Format   string `short:"f" enum:"table,json" default:"table" help:"Output format"`
}

// Run executes the tools command
func (c *ToolsCmd) Run(kctx *kong.Context, cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if c.Registry != "" {
		cfg.Registry.URL = c.Registry
	}
	logger := createCLILogger(cli.level(cfg.Logging.Level), cfg.Logging.Format)

	ctx := context.Background()
	client, err := mcp.Connect(ctx, mcp.Config{
		URL:     cfg.Registry.URL,
		Timeout: cfg.Registry.Timeout.D(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	tools, err := client.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tools: %w", err)
	}

	if c.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tools)
	}
	return printToolsTable(tools)
}

func printToolsTable(tools []mcp.ToolDefinition) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, t := range tools {
		fmt.Fprintf(w, "%s\t%s\n", t.Name, firstLine(t.Description))
	}
	return w.Flush()
}
