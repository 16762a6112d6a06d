package persona

import (
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elee1766/toolchat/src/aisdk"
	"github.com/elee1766/toolchat/src/chain"
	"github.com/elee1766/toolchat/src/session"
)

const (
	maxFamiliarity = 100
	maxRapport     = 100
	promptTopics   = 3
)

// Persona renders the system prompt and tracks side-state. It is safe to
// swap its config from a watcher goroutine while the chat loop uses it.
type Persona struct {
	mu        sync.RWMutex
	config    *Config
	tools     []aisdk.ToolDeclaration
	now       func() time.Time
	osVersion func() string
	logger    *slog.Logger
	stale     atomic.Bool
}

// Option configures a Persona.
type Option func(*Persona)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Persona) { p.now = now }
}

// WithOSVersion overrides host detection.
func WithOSVersion(f func() string) Option {
	return func(p *Persona) { p.osVersion = f }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Persona) { p.logger = logger }
}

// New creates a persona over the tools advertised by the registry. A nil
// config uses the built-in persona.
func New(config *Config, tools []aisdk.ToolDeclaration, opts ...Option) *Persona {
	if config == nil {
		config = Default()
	}
	p := &Persona{
		config:    config,
		tools:     tools,
		now:       time.Now,
		osVersion: osVersion,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "persona")
	return p
}

// Config returns the current persona definition.
func (p *Persona) Config() *Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

// SetConfig replaces the persona and schedules a prompt refresh.
func (p *Persona) SetConfig(config *Config) {
	p.mu.Lock()
	p.config = config
	p.mu.Unlock()
	p.stale.Store(true)
	p.logger.Info("persona updated", "name", config.Name)
}

// Stale reports and clears a pending refresh.
func (p *Persona) Stale() bool {
	return p.stale.Swap(false)
}

func (p *Persona) toolNames() []string {
	names := make([]string, 0, len(p.tools))
	for _, t := range p.tools {
		names = append(names, t.Name)
	}
	return names
}

// SystemPrompt renders the instruction for the current state.
func (p *Persona) SystemPrompt(state *session.State, tracker *chain.Tracker) (string, error) {
	cfg := p.Config()

	data := promptData{
		Name:       cfg.Name,
		Role:       cfg.Role,
		Traits:     cfg.Traits,
		Style:      cfg.Style,
		Mood:       session.DefaultMood,
		Objectives: cfg.Objectives,
		Platform:   runtime.GOOS,
		OSVersion:  p.osVersion(),
		Today:      p.now().Format("2006-01-02"),
		Rules:      selectionRules(p.toolNames()),
	}
	if state != nil {
		data.Mood = state.Mood
		data.Interactions = state.InteractionCount
		data.Familiarity = state.Relationship.Familiarity
		data.Rapport = state.Relationship.Rapport
		data.Topics = topTopics(state.TopicCounts, promptTopics)
		if len(state.Objectives) > 0 {
			data.Objectives = state.Objectives
		}
	}
	if tracker != nil {
		data.ToolStats = tracker.Summarize()
		data.ToolContext = tracker.Context()
	}

	for _, t := range p.tools {
		hints := cfg.Tools[t.Name]
		data.Tools = append(data.Tools, promptTool{
			Name:        t.Name,
			Description: t.Description,
			Schema:      formatSchema(parseSchema(t.Parameters), 1),
			Examples:    hints.Examples,
			Guidelines:  hints.Guidelines,
		})
	}

	return render(data)
}

// Observe updates topic, intent, mood and relationship counters from a user
// utterance. A mood change schedules a prompt refresh.
func (p *Persona) Observe(state *session.State, utterance string) {
	cfg := p.Config()
	lower := strings.ToLower(utterance)

	if state.TopicCounts == nil {
		state.TopicCounts = map[string]int{}
	}
	if state.IntentCounts == nil {
		state.IntentCounts = map[string]int{}
	}

	for topic, keywords := range cfg.Topics {
		if containsAny(lower, keywords) {
			state.TopicCounts[topic]++
		}
	}

	intents := Intents(utterance)
	if len(intents) == 0 {
		intents = []string{"chat"}
	}
	for _, intent := range intents {
		state.IntentCounts[intent]++
	}

	if len(state.Objectives) == 0 && len(cfg.Objectives) > 0 {
		state.Objectives = append([]string(nil), cfg.Objectives...)
	}

	state.Relationship.Familiarity = min(state.Relationship.Familiarity+1, maxFamiliarity)

	for _, rule := range cfg.Moods {
		if !containsAny(lower, rule.Keywords) {
			continue
		}
		state.Relationship.Rapport = min(state.Relationship.Rapport+rule.Rapport, maxRapport)
		if state.Mood != rule.Mood {
			p.logger.Debug("mood changed", "from", state.Mood, "to", rule.Mood)
			state.Mood = rule.Mood
			p.stale.Store(true)
		}
		break
	}
}
