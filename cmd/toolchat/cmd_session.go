package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/elee1766/toolchat/src/session"
	"github.com/spf13/afero"
)

// SessionCmd manages the persisted session
type SessionCmd struct {
	Show  SessionShowCmd  `cmd:"" default:"1" help:"Show the saved session"`
	Reset SessionResetCmd `cmd:"" help:"Delete the saved session so the next chat starts fresh"`
}

// SessionShowCmd prints the saved session
type SessionShowCmd struct {
	Format string `short:"f" enum:"summary,json" default:"summary" help:"Output format"`
}

// Run executes the session show command
func (c *SessionShowCmd) Run(kctx *kong.Context, cli *CLI) error {
	store, err := openSessionStore(cli)
	if err != nil {
		return err
	}
	state := store.Load()

	if c.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "File:\t%s\n", store.Path())
	fmt.Fprintf(w, "Session:\t%s\n", state.SessionID)
	fmt.Fprintf(w, "Created:\t%s\n", state.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Turns:\t%d\n", len(state.Turns))
	fmt.Fprintf(w, "Interactions:\t%d\n", state.InteractionCount)
	if !state.LastInteraction.IsZero() {
		fmt.Fprintf(w, "Last interaction:\t%s\n", state.LastInteraction.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "Mood:\t%s\n", state.Mood)
	fmt.Fprintf(w, "Familiarity:\t%d\n", state.Relationship.Familiarity)
	fmt.Fprintf(w, "Rapport:\t%d\n", state.Relationship.Rapport)
	if topics := sortedCounts(state.TopicCounts); len(topics) > 0 {
		fmt.Fprintf(w, "Topics:\t%v\n", topics)
	}
	return w.Flush()
}

// SessionResetCmd removes the saved session
type SessionResetCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation"`
}

// Run executes the session reset command
func (c *SessionResetCmd) Run(kctx *kong.Context, cli *CLI) error {
	store, err := openSessionStore(cli)
	if err != nil {
		return err
	}
	if !c.Yes {
		fmt.Printf("Delete %s? [y/N] ", store.Path())
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted")
			return nil
		}
	}
	if err := store.Reset(); err != nil {
		return err
	}
	fmt.Println("Session reset")
	return nil
}

func openSessionStore(cli *CLI) (*session.Store, error) {
	cfg, err := loadConfig(cli)
	if err != nil {
		return nil, err
	}
	logger := createCLILogger(cli.level(cfg.Logging.Level), cfg.Logging.Format)
	return session.NewStore(afero.NewOsFs(), cfg.Session.Path, logger), nil
}

// sortedCounts renders counts as "name=n" pairs, most frequent first
func sortedCounts(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = fmt.Sprintf("%s=%d", name, counts[name])
	}
	return out
}
