package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", config.Version)
	}

	if config.Model.Name != "gemini-2.0-flash" {
		t.Errorf("Expected model gemini-2.0-flash, got %s", config.Model.Name)
	}

	if config.Registry.URL != "http://localhost:3001/sse" {
		t.Errorf("Expected default registry URL, got %s", config.Registry.URL)
	}

	if config.Chat.CheckpointEvery != 3 {
		t.Errorf("Expected checkpoint every 3, got %d", config.Chat.CheckpointEvery)
	}

	if config.Chat.DebounceCooldown.D() != 30*time.Second {
		t.Errorf("Expected 30s cooldown, got %s", config.Chat.DebounceCooldown.D())
	}

	if len(config.Chat.RateSensitiveTools) != 1 || config.Chat.RateSensitiveTools[0] != "playYouTubeVideo" {
		t.Errorf("Unexpected rate-sensitive tools: %v", config.Chat.RateSensitiveTools)
	}
}

func TestConfigValidation(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name: "unknown provider",
			config: func() *Config {
				c := DefaultConfig()
				c.Model.Provider = "invalid"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "zero max history",
			config: func() *Config {
				c := DefaultConfig()
				c.Chat.MaxHistory = 0
				return c
			}(),
			wantErr: true,
		},
		{
			name: "bad registry url",
			config: func() *Config {
				c := DefaultConfig()
				c.Registry.URL = "not a url"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "bad listen address",
			config: func() *Config {
				c := DefaultConfig()
				c.Server.Addr = "3001"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "invalid log level",
			config: func() *Config {
				c := DefaultConfig()
				c.Logging.Level = "loud"
				return c
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidationMessages(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		field  string
		msg    string
	}{
		{
			name:   "min",
			modify: func(c *Config) { c.Chat.MaxHistory = 0 },
			field:  "chat.max_history",
			msg:    "chat.max_history: must be at least 1",
		},
		{
			name:   "url",
			modify: func(c *Config) { c.Registry.URL = "nope" },
			field:  "registry.url",
			msg:    `registry.url: "nope" is not a URL`,
		},
		{
			name:   "empty rate sensitive tool",
			modify: func(c *Config) { c.Chat.RateSensitiveTools = []string{"playYouTubeVideo", ""} },
			field:  "chat.rate_sensitive_tools[1]",
			msg:    "chat.rate_sensitive_tools[1]: is required",
		},
		{
			name:   "provider",
			modify: func(c *Config) { c.Model.Provider = "openai" },
			field:  "model.provider",
			msg:    `model.provider: unsupported provider "openai"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(c)
			err := NewValidator().Validate(c)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
			if verr.Message != tt.msg {
				t.Errorf("Message = %q, want %q", verr.Message, tt.msg)
			}
		})
	}
}

func TestLoadLayersFiles(t *testing.T) {
	tempDir := t.TempDir()

	userPath := filepath.Join(tempDir, "user.json")
	projectPath := filepath.Join(tempDir, "project.json")

	if err := os.WriteFile(userPath, []byte(`{"model": {"name": "gemini-1.5-pro"}, "chat": {"max_history": 4}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(projectPath, []byte(`{"chat": {"debounce_cooldown": "10s"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(ConfigPrecedence{
		SystemConfig:  filepath.Join(tempDir, "missing.json"),
		UserConfig:    userPath,
		ProjectConfig: projectPath,
	})

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if config.Model.Name != "gemini-1.5-pro" {
		t.Errorf("Expected model from user config, got %s", config.Model.Name)
	}
	if config.Chat.MaxHistory != 4 {
		t.Errorf("Expected max history 4, got %d", config.Chat.MaxHistory)
	}
	if config.Chat.DebounceCooldown.D() != 10*time.Second {
		t.Errorf("Expected cooldown from project config, got %s", config.Chat.DebounceCooldown.D())
	}
	if config.Chat.CheckpointEvery != 3 {
		t.Errorf("Expected default checkpoint interval to survive, got %d", config.Chat.CheckpointEvery)
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "config.json")
	if err := os.WriteFile(path, []byte(`{"model":`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader(ConfigPrecedence{UserConfig: path}).Load()
	if err == nil {
		t.Fatal("Expected error for malformed config")
	}
}

func TestConfigSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nested", "config.json")

	testConfig := DefaultConfig()
	testConfig.Server.Addr = "127.0.0.1:4000"

	loader := NewLoader(ConfigPrecedence{UserConfig: configPath})
	if err := loader.SaveFile(testConfig, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := loader.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if loaded.Server.Addr != "127.0.0.1:4000" {
		t.Errorf("Expected addr '127.0.0.1:4000', got %s", loaded.Server.Addr)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("TEST_API_KEY", "test-key-123")
	t.Setenv("TEST_MODEL", "test-model")
	t.Setenv("TEST_MAX_HISTORY", "7")
	t.Setenv("TEST_DEBOUNCE_COOLDOWN", "5s")
	t.Setenv("TEST_HEADLESS", "true")

	loader := NewLoader(ConfigPrecedence{
		EnvironmentPrefix: "TEST",
	})

	config := DefaultConfig()
	if err := loader.applyEnvironmentOverrides(config); err != nil {
		t.Fatalf("applyEnvironmentOverrides() failed: %v", err)
	}

	if config.Model.APIKey != "test-key-123" {
		t.Errorf("Expected API key from environment, got %s", config.Model.APIKey)
	}
	if config.Model.Name != "test-model" {
		t.Errorf("Expected model from environment, got %s", config.Model.Name)
	}
	if config.Chat.MaxHistory != 7 {
		t.Errorf("Expected max history 7, got %d", config.Chat.MaxHistory)
	}
	if config.Chat.DebounceCooldown.D() != 5*time.Second {
		t.Errorf("Expected 5s cooldown, got %s", config.Chat.DebounceCooldown.D())
	}
	if !config.Server.Browser.Headless {
		t.Error("Expected headless browser from environment")
	}
}

func TestEnvironmentOverrideErrors(t *testing.T) {
	t.Setenv("BAD_MAX_HISTORY", "lots")
	t.Setenv("BAD_MODEL", "kept-model")

	_, err := NewLoader(ConfigPrecedence{EnvironmentPrefix: "BAD"}).Load()
	if err == nil {
		t.Fatal("Expected error for unparsable BAD_MAX_HISTORY")
	}
	if !strings.Contains(err.Error(), "invalid BAD_MAX_HISTORY") {
		t.Errorf("Expected variable name in error, got %v", err)
	}
}

func TestHighestConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	userPath := filepath.Join(tempDir, "user.json")
	localPath := filepath.Join(tempDir, "local.json")

	p := ConfigPrecedence{UserConfig: userPath, LocalConfig: localPath}
	if _, err := p.Highest(); !errors.Is(err, ErrNoConfigFile) {
		t.Fatalf("Expected ErrNoConfigFile, got %v", err)
	}

	if err := os.WriteFile(userPath, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	if got, _ := p.Highest(); got != userPath {
		t.Errorf("Highest() = %s, want %s", got, userPath)
	}

	if err := os.WriteFile(localPath, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	if got, _ := p.Highest(); got != localPath {
		t.Errorf("Highest() = %s, want %s", got, localPath)
	}
}

func TestDurationJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{`"30s"`, 30 * time.Second, false},
		{`"1m30s"`, 90 * time.Second, false},
		{`1000000000`, time.Second, false},
		{`"soon"`, 0, true},
		{`true`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.input), &d)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && d.D() != tt.want {
				t.Errorf("Unmarshal() = %s, want %s", d.D(), tt.want)
			}
		})
	}

	out, err := json.Marshal(Duration(2 * time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"2m0s"` {
		t.Errorf("Marshal() = %s", out)
	}
}

func TestResolveAPIKey(t *testing.T) {
	keyring.MockInit()

	m := ModelConfig{APIKeyEnvVar: "TEST_GEMINI_KEY"}

	if _, err := m.ResolveAPIKey(); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("Expected ErrNoAPIKey, got %v", err)
	}

	if err := StoreAPIKey("from-keychain"); err != nil {
		t.Fatal(err)
	}
	if key, _ := m.ResolveAPIKey(); key != "from-keychain" {
		t.Errorf("Expected keychain key, got %s", key)
	}

	t.Setenv("TEST_GEMINI_KEY", "from-env")
	if key, _ := m.ResolveAPIKey(); key != "from-env" {
		t.Errorf("Expected env key, got %s", key)
	}

	m.APIKey = "from-config"
	if key, _ := m.ResolveAPIKey(); key != "from-config" {
		t.Errorf("Expected config key, got %s", key)
	}

	if err := DeleteAPIKey(); err != nil {
		t.Fatal(err)
	}
	if err := DeleteAPIKey(); err != nil {
		t.Errorf("Deleting a missing key should not fail: %v", err)
	}
}
