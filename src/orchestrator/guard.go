package orchestrator

import (
	"encoding/json"
	"slices"
	"time"
)

// DefaultCooldown is how long an identical rate-sensitive call is suppressed.
const DefaultCooldown = 30 * time.Second

// DuplicateMessage is appended instead of dispatching a suppressed call.
const DuplicateMessage = "I'm already on it - that request was just handled a moment ago."

// lastCall is the single remembered dispatch.
type lastCall struct {
	toolName    string
	fingerprint string
	at          time.Time
}

// Guard suppresses consecutive identical calls of rate-sensitive tools.
// It remembers one call only: dispatching another rate-sensitive tool
// replaces the slot.
type Guard struct {
	sensitive []string
	cooldown  time.Duration
	now       func() time.Time
	last      *lastCall
}

// NewGuard creates a guard over the given tool names. A zero cooldown uses
// DefaultCooldown; a nil clock uses time.Now.
func NewGuard(sensitive []string, cooldown time.Duration, now func() time.Time) *Guard {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if now == nil {
		now = time.Now
	}
	return &Guard{
		sensitive: slices.Clone(sensitive),
		cooldown:  cooldown,
		now:       now,
	}
}

// IsSensitive reports whether name is throttled.
func (g *Guard) IsSensitive(name string) bool {
	return slices.Contains(g.sensitive, name)
}

// Allow reports whether the call may be dispatched. Allowed calls of
// rate-sensitive tools overwrite the slot; suppressed calls leave it alone,
// so the cooldown runs from the last real dispatch.
func (g *Guard) Allow(name string, args map[string]any) bool {
	if !g.IsSensitive(name) {
		return true
	}

	fp := fingerprint(args)
	now := g.now()
	if g.last != nil &&
		g.last.toolName == name &&
		g.last.fingerprint == fp &&
		now.Sub(g.last.at) < g.cooldown {
		return false
	}

	g.last = &lastCall{toolName: name, fingerprint: fp, at: now}
	return true
}

// fingerprint serializes args canonically; encoding/json sorts map keys.
func fingerprint(args map[string]any) string {
	if args == nil {
		args = map[string]any{}
	}
	b, err := json.Marshal(args)
	if err != nil {
		return ""
	}
	return string(b)
}
