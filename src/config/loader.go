package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Loader handles loading and merging configurations from multiple sources
type Loader struct {
	precedence ConfigPrecedence
	validator  *Validator
}

// NewLoader creates a new configuration loader
func NewLoader(precedence ConfigPrecedence) *Loader {
	return &Loader{
		precedence: precedence,
		validator:  NewValidator(),
	}
}

// Load loads configuration from all sources and merges them
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	// Later sources are decoded over earlier ones, so only the keys a file
	// actually sets override what came before.
	sources := []struct {
		path   string
		source ConfigSource
	}{
		{l.precedence.SystemConfig, SourceSystem},
		{l.precedence.UserConfig, SourceUser},
		{l.precedence.ProjectConfig, SourceProject},
		{l.precedence.LocalConfig, SourceLocal},
	}

	for _, src := range sources {
		if src.path == "" {
			continue
		}
		if err := l.loadFileInto(src.path, config); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s config from %s: %w", src.source, src.path, err)
		}
	}

	if l.precedence.EnvironmentPrefix != "" {
		if err := l.applyEnvironmentOverrides(config); err != nil {
			return nil, fmt.Errorf("configuration environment: %w", err)
		}
	}

	if err := l.validator.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFileInto decodes a single configuration file over config
func (l *Loader) loadFileInto(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// SaveFile validates config and writes it as indented JSON, creating the
// parent directory. The file is readable only by the owner since it may
// carry an API key.
func (l *Loader) SaveFile(config *Config, path string) error {
	if err := l.validator.Validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// envOverride binds one environment variable, named by suffix after the
// prefix, to a config field.
type envOverride struct {
	suffix string
	apply  func(c *Config, v string) error
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

var envOverrides = []envOverride{
	{"_API_KEY", setString(func(c *Config) *string { return &c.Model.APIKey })},
	{"_MODEL", setString(func(c *Config) *string { return &c.Model.Name })},
	{"_REGISTRY_URL", setString(func(c *Config) *string { return &c.Registry.URL })},
	{"_SESSION_PATH", setString(func(c *Config) *string { return &c.Session.Path })},
	{"_AUDIT_DB", setString(func(c *Config) *string { return &c.Session.AuditDBPath })},
	{"_PERSONA_FILE", setString(func(c *Config) *string { return &c.Persona.File })},
	{"_SERVER_ADDR", setString(func(c *Config) *string { return &c.Server.Addr })},
	{"_WORKSPACE", setString(func(c *Config) *string { return &c.Server.WorkspaceRoot })},
	{"_BROWSER_BIN", setString(func(c *Config) *string { return &c.Server.Browser.Bin })},
	{"_BROWSER_URL", setString(func(c *Config) *string { return &c.Server.Browser.ControlURL })},
	{"_MAX_HISTORY", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Chat.MaxHistory = n
		return nil
	}},
	{"_DEBOUNCE_COOLDOWN", func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.Chat.DebounceCooldown = Duration(d)
		return nil
	}},
	{"_HEADLESS", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Server.Browser.Headless = b
		return nil
	}},
	{"_LOG_LEVEL", func(c *Config, v string) error {
		c.Logging.Level = strings.ToLower(v)
		return nil
	}},
}

// applyEnvironmentOverrides applies set environment variables over config.
// Values that do not parse are reported and leave the field untouched.
func (l *Loader) applyEnvironmentOverrides(config *Config) error {
	var errs []error
	for _, o := range envOverrides {
		name := l.precedence.EnvironmentPrefix + o.suffix
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		if err := o.apply(config, v); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// GetConfigPaths returns the configuration file paths to check
func GetConfigPaths() ConfigPrecedence {
	// Use XDG paths for cross-platform compatibility
	userConfigPath := filepath.Join(xdg.ConfigHome, appName, "config.json")

	// System config path varies by OS
	systemConfigPath := "/etc/toolchat/config.json"
	if runtime.GOOS == "windows" {
		systemConfigPath = filepath.Join(os.Getenv("PROGRAMDATA"), appName, "config.json")
	}

	return ConfigPrecedence{
		SystemConfig:      systemConfigPath,
		UserConfig:        userConfigPath,
		ProjectConfig:     filepath.Join(".toolchat", "config.json"),
		LocalConfig:       filepath.Join(".toolchat", "config.local.json"),
		EnvironmentPrefix: "TOOLCHAT",
	}
}

// ErrNoConfigFile is returned by FindConfigFile when no file exists.
var ErrNoConfigFile = errors.New("no configuration file found")

// FindConfigFile returns the existing file with the highest precedence.
func FindConfigFile() (string, error) {
	return GetConfigPaths().Highest()
}

// Highest returns the existing file that wins when all sources are merged.
func (p ConfigPrecedence) Highest() (string, error) {
	for _, path := range []string{p.LocalConfig, p.ProjectConfig, p.UserConfig, p.SystemConfig} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNoConfigFile
}
