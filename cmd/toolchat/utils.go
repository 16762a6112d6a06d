package main

import (
	"strings"

	"github.com/elee1766/toolchat/src/config"
)

// loadConfig loads the configuration, letting --config replace the user file
func loadConfig(cli *CLI) (*config.Config, error) {
	precedence := config.GetConfigPaths()
	if cli.ConfigFile != "" {
		precedence.UserConfig = cli.ConfigFile
	}

	loader := config.NewLoader(precedence)
	return loader.Load()
}

// level resolves the effective log level from flags and the configured default
func (c *CLI) level(configured string) string {
	switch {
	case c.Verbose:
		return "debug"
	case c.LogLevel != "":
		return strings.ToLower(c.LogLevel)
	default:
		return configured
	}
}

// maskAPIKey masks an API key for display
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// firstLine returns s up to its first newline
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
