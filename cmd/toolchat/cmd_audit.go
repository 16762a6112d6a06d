package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/elee1766/toolchat/src/storage"
)

// AuditCmd lists recorded tool executions
type AuditCmd struct {
	Session string `short:"s" help:"Only show executions from this session ID"`
	Limit   int    `short:"n" default:"20" help:"Number of executions to show"`
	Format  string `short:"f" enum:"table,json" default:"table" help:"Output format"`
	DBPath  string `type:"path" help:"Audit database path (defaults to config)"`
}

// Run executes the audit command
func (c *AuditCmd) Run(kctx *kong.Context, cli *CLI) error {
	dbPath := c.DBPath
	if dbPath == "" {
		cfg, err := loadConfig(cli)
		if err != nil {
			return err
		}
		dbPath = cfg.Session.AuditDBPath
	}
	if dbPath == "" {
		return errors.New("audit database is disabled in the configuration")
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open audit database: %w", err)
	}
	defer db.Close()

	executions, err := storage.ListToolExecutions(context.Background(), db.DB(), c.Session, c.Limit)
	if err != nil {
		return fmt.Errorf("failed to list tool executions: %w", err)
	}

	if c.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(executions)
	}

	if len(executions) == 0 {
		fmt.Println("No tool executions recorded")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTOOL\tSTATUS\tDURATION\tSESSION")
	for _, e := range executions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dms\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.ToolName, e.Status, e.DurationMs, shortID(e.SessionID))
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
