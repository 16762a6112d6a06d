package config

import (
	"time"
)

// DefaultConfig returns a default configuration with sensible defaults
func DefaultConfig() *Config {
	paths := GetDefaultStoragePaths()

	return &Config{
		Version: "1.0",
		Model: ModelConfig{
			Provider:     "gemini",
			Name:         "gemini-2.0-flash",
			APIKeyEnvVar: "GEMINI_API_KEY",
			Timeout:      Duration(60 * time.Second),
			RetryCount:   3,
			RetryDelay:   Duration(time.Second),
		},

		Registry: RegistryConfig{
			URL:     "http://localhost:3001/sse",
			Timeout: Duration(90 * time.Second),
		},

		Chat: ChatConfig{
			MaxHistory:         10,
			CheckpointEvery:    3,
			DebounceCooldown:   Duration(30 * time.Second),
			RateSensitiveTools: []string{"playYouTubeVideo"},
			ReminderWindow:     Duration(5 * time.Minute),
			ReminderAfterTurns: 10,
		},

		Session: SessionConfig{
			Path:        paths.SessionPath,
			AuditDBPath: paths.DatabasePath,
		},

		Persona: PersonaConfig{
			Watch: true,
		},

		Server: ServerConfig{
			Addr:           ":3001",
			WorkspaceRoot:  ".",
			CommandTimeout: Duration(60 * time.Second),
			Browser: BrowserConfig{
				Headless: false,
			},
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 100,
				BurstSize:         10,
			},
			PostTokenEnvVar: "TWITTER_BEARER_TOKEN",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
