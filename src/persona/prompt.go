package persona

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"text/template"

	"github.com/elee1766/toolchat/src/chain"
	"github.com/shirou/gopsutil/v3/host"
)

const promptTemplate = `You are {{.Name}}, {{.Role}}.
{{- if .Traits}}
Personality: {{join .Traits ", "}}.
{{- end}}
{{- if .Style}}
{{.Style}}
{{- end}}

# Relationship
Current mood: {{.Mood}}.
You have talked with the user {{.Interactions}} times (familiarity {{.Familiarity}}, rapport {{.Rapport}}).
{{- if .Topics}}
Topics the user brings up most: {{join .Topics ", "}}.
{{- end}}
{{- if .Objectives}}

# Objectives
{{- range .Objectives}}
- {{.}}
{{- end}}
{{- end}}

Here is useful information about the environment you are running in:
<env>
Platform: {{.Platform}}
OS Version: {{.OSVersion}}
Today's date: {{.Today}}
</env>
{{- if .Tools}}

# Tools
You have access to the following tools. Call a tool whenever the request needs an action; do not pretend to have done it.
{{- range .Tools}}

Tool: {{.Name}}
Description: {{.Description}}
Input Schema:
{{.Schema}}
{{- range .Examples}}
Example: {{.}}
{{- end}}
{{- range .Guidelines}}
Guideline: {{.}}
{{- end}}
{{- end}}
{{- if .Rules}}

# Tool selection
{{- range .Rules}}
- {{.}}
{{- end}}
{{- end}}
{{- end}}
{{- if .ToolStats.Total}}

Tool calls so far: {{.ToolStats.Total}} ({{.ToolStats.Completed}} completed, {{.ToolStats.Failed}} failed
{{- if .ToolStats.Pending}}, {{.ToolStats.Pending}} pending{{end}}).
{{- end}}
{{- if .ToolContext}}

{{.ToolContext}}
{{- end}}
`

var tmpl = template.Must(template.New("persona").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(promptTemplate))

// promptData is the template input.
type promptData struct {
	Name         string
	Role         string
	Traits       []string
	Style        string
	Mood         string
	Interactions int
	Familiarity  int
	Rapport      int
	Topics       []string
	Objectives   []string
	Platform     string
	OSVersion    string
	Today        string
	Tools        []promptTool
	Rules        []string
	ToolStats    chain.Summary
	ToolContext  string
}

type promptTool struct {
	Name        string
	Description string
	Schema      string
	Examples    []string
	Guidelines  []string
}

func render(data promptData) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render persona prompt: %w", err)
	}
	return strings.TrimSpace(b.String()), nil
}

// topTopics returns up to n topic names ordered by count, then name.
func topTopics(counts map[string]int, n int) []string {
	names := make([]string, 0, len(counts))
	for name, c := range counts {
		if c > 0 {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// osVersion returns detailed OS version information
func osVersion() string {
	info, err := host.Info()
	if err == nil {
		if info.PlatformVersion != "" {
			return fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
		}
		if info.Platform != "" {
			return info.Platform
		}
	}
	return runtime.GOOS
}
