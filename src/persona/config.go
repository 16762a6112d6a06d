// Package persona builds the system instruction and keeps the persona's
// conversational side-state (topics, mood, rapport) up to date.
package persona

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultPersona []byte

// Config is a persona definition.
type Config struct {
	Name       string               `yaml:"name"`
	Role       string               `yaml:"role"`
	Traits     []string             `yaml:"traits"`
	Style      string               `yaml:"style"`
	Objectives []string             `yaml:"objectives"`
	Topics     map[string][]string  `yaml:"topics"`
	Moods      []MoodRule           `yaml:"moods"`
	Tools      map[string]ToolHints `yaml:"tools"`
}

// MoodRule switches the mood when an utterance contains one of its keywords.
type MoodRule struct {
	Mood     string   `yaml:"mood"`
	Rapport  int      `yaml:"rapport"`
	Keywords []string `yaml:"keywords"`
}

// ToolHints are rendered next to a tool's schema.
type ToolHints struct {
	Examples   []string `yaml:"examples"`
	Guidelines []string `yaml:"guidelines"`
}

// ErrNoName is returned for a persona without a name.
var ErrNoName = errors.New("persona has no name")

// Default returns the built-in persona.
func Default() *Config {
	c, err := Parse(defaultPersona)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in persona: %v", err))
	}
	return c
}

// Parse decodes a YAML persona.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse persona: %w", err)
	}
	if c.Name == "" {
		return nil, ErrNoName
	}
	return &c, nil
}

// Load reads a persona file. An empty path yields the built-in persona.
func Load(fs afero.Fs, path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read persona %s: %w", path, err)
	}
	return Parse(data)
}
