package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the complete configuration for toolchat
type Config struct {
	// Version of the configuration format
	Version string `json:"version"`

	// Model configuration
	Model ModelConfig `json:"model"`

	// Registry is the remote tool server the chat client talks to
	Registry RegistryConfig `json:"registry"`

	// Chat loop behaviour
	Chat ChatConfig `json:"chat"`

	// Session persistence
	Session SessionConfig `json:"session"`

	// Persona prompt source
	Persona PersonaConfig `json:"persona"`

	// Server configuration for the tool server
	Server ServerConfig `json:"server"`

	// Logging configuration
	Logging LoggingConfig `json:"logging,omitempty"`
}

// ModelConfig holds language model configuration
type ModelConfig struct {
	// Provider specifies the AI provider
	Provider string `json:"provider" validate:"provider"`

	// Name of the model, e.g. gemini-2.0-flash
	Name string `json:"name" validate:"required"`

	// APIKey for authentication (can be omitted if using env vars or the keyring)
	APIKey string `json:"api_key,omitempty"`

	// APIKeyEnvVar specifies the environment variable to read the API key from
	APIKeyEnvVar string `json:"api_key_env_var,omitempty"`

	// Timeout for a single generate call
	Timeout Duration `json:"timeout,omitempty" validate:"min=0"`

	// RetryCount is the number of attempts for retryable failures
	RetryCount int `json:"retry_count" validate:"min=1,max=10"`

	// RetryDelay is the base delay between attempts
	RetryDelay Duration `json:"retry_delay" validate:"min=0"`
}

// RegistryConfig holds tool registry connection settings
type RegistryConfig struct {
	// URL of the SSE endpoint
	URL string `json:"url" validate:"required,url"`

	// Timeout for a single tool call
	Timeout Duration `json:"timeout,omitempty" validate:"min=0"`
}

// ChatConfig holds orchestration loop settings
type ChatConfig struct {
	// MaxHistory is the number of exchanges retained besides the system turn
	MaxHistory int `json:"max_history" validate:"min=1"`

	// CheckpointEvery saves the session after this many model replies
	CheckpointEvery int `json:"checkpoint_every" validate:"min=1"`

	// DebounceCooldown suppresses identical rate-sensitive calls within this window
	DebounceCooldown Duration `json:"debounce_cooldown" validate:"min=0"`

	// RateSensitiveTools are subject to the debounce guard
	RateSensitiveTools []string `json:"rate_sensitive_tools,omitempty" validate:"dive,required"`

	// ReminderWindow is how recently a tool must have been used to skip the reminder
	ReminderWindow Duration `json:"reminder_window" validate:"min=0"`

	// ReminderAfterTurns is the conversation length at which reminders start
	ReminderAfterTurns int `json:"reminder_after_turns" validate:"min=0"`
}

// SessionConfig holds persistence paths
type SessionConfig struct {
	// Path to the JSON session file
	Path string `json:"path" validate:"required"`

	// AuditDBPath is the sqlite database recording tool executions; empty disables it
	AuditDBPath string `json:"audit_db_path,omitempty"`
}

// PersonaConfig holds persona settings
type PersonaConfig struct {
	// File is a YAML persona definition; empty uses the built-in persona
	File string `json:"file,omitempty"`

	// Watch reloads the persona when the file changes
	Watch bool `json:"watch"`
}

// ServerConfig holds tool server settings
type ServerConfig struct {
	// Addr to listen on
	Addr string `json:"addr" validate:"required,hostname_port"`

	// BaseURL advertised to SSE clients
	BaseURL string `json:"base_url,omitempty" validate:"omitempty,url"`

	// WorkspaceRoot confines file operations
	WorkspaceRoot string `json:"workspace_root,omitempty"`

	// CommandTimeout bounds the execute operation
	CommandTimeout Duration `json:"command_timeout,omitempty" validate:"min=0"`

	// Browser settings for media tools
	Browser BrowserConfig `json:"browser"`

	// RateLimit for tool calls
	RateLimit RateLimitConfig `json:"rate_limit,omitempty"`

	// PostTokenEnvVar names the env var holding the social posting bearer token
	PostTokenEnvVar string `json:"post_token_env_var,omitempty"`
}

// BrowserConfig defines browser automation settings
type BrowserConfig struct {
	Headless bool   `json:"headless"`
	Bin      string `json:"bin,omitempty"`

	// UserDataDir reuses a browser profile; a fresh one is used if it is locked
	UserDataDir string `json:"user_data_dir,omitempty"`

	// ControlURL attaches to an already running browser instead of launching one
	ControlURL string `json:"control_url,omitempty" validate:"omitempty,url"`
}

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute" validate:"min=0"`
	BurstSize         int `json:"burst_size" validate:"min=0"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `json:"level,omitempty" validate:"log_level"`

	// Format is the output format (text, json)
	Format string `json:"format,omitempty" validate:"log_format"`

	// File receives chat logs; empty uses the XDG state dir
	File string `json:"file,omitempty"`
}

// ConfigPrecedence defines the order of configuration loading
type ConfigPrecedence struct {
	// SystemConfig path
	SystemConfig string

	// UserConfig path
	UserConfig string

	// ProjectConfig path
	ProjectConfig string

	// LocalConfig path
	LocalConfig string

	// EnvironmentPrefix for env var overrides
	EnvironmentPrefix string
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return e.Message
}

// ConfigSource indicates where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"
	SourceUser        ConfigSource = "user"
	SourceProject     ConfigSource = "project"
	SourceLocal       ConfigSource = "local"
	SourceEnvironment ConfigSource = "environment"
	SourceCLI         ConfigSource = "cli"
)

// Duration is a time.Duration that reads either a Go duration string ("30s")
// or a number of nanoseconds from JSON.
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}
