package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/elee1766/toolchat/src/config"
	"github.com/elee1766/toolchat/src/genaiclient"
	"github.com/elee1766/toolchat/src/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("toolchat"), kong.Vars{"version": "test"})
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, kctx
}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		command string
	}{
		{"chat is the default", nil, "chat"},
		{"chat with flags", []string{"--model", "gemini-2.5-pro"}, "chat"},
		{"serve", []string{"serve", "--addr", ":4000", "--no-browser"}, "serve"},
		{"tools", []string{"tools", "-f", "json"}, "tools"},
		{"session defaults to show", []string{"session"}, "session show"},
		{"session reset", []string{"session", "reset", "-y"}, "session reset"},
		{"audit", []string{"audit", "-n", "5"}, "audit"},
		{"auth set-key", []string{"auth", "set-key", "abc"}, "auth set-key <key>"},
		{"config defaults to show", []string{"config"}, "config show"},
		{"global config flag", []string{"--config", "/tmp/c.json", "config", "path"}, "config path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, kctx := parse(t, tt.args...)
			assert.Equal(t, tt.command, kctx.Command())
		})
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cmd := &ConfigInitCmd{Path: path}

	require.NoError(t, cmd.Run(nil, &CLI{}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"registry"`)

	assert.Error(t, cmd.Run(nil, &CLI{}), "refuses to overwrite")

	cmd.Force = true
	assert.NoError(t, cmd.Run(nil, &CLI{}))

	cli := &CLI{ConfigFile: path}
	cfg, err := loadConfig(cli)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Registry.URL, cfg.Registry.URL)
}

func TestServeOverrides(t *testing.T) {
	cli, _ := parse(t, "serve", "--addr", ":4000", "--workspace", "/srv/work", "--headless")

	cfg := config.DefaultConfig()
	cli.Serve.apply(cfg)
	assert.Equal(t, ":4000", cfg.Server.Addr)
	assert.Equal(t, "/srv/work", cfg.Server.WorkspaceRoot)
	assert.True(t, cfg.Server.Browser.Headless)

	cli, _ = parse(t, "serve")
	cfg = config.DefaultConfig()
	cfg.Server.Browser.Headless = true
	cli.Serve.apply(cfg)
	assert.Equal(t, ":3001", cfg.Server.Addr)
	assert.True(t, cfg.Server.Browser.Headless, "unset flag keeps the configured value")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"registry unreachable", fmt.Errorf("failed to start chat: %w", mcp.ErrRegistryUnreachable), ExitNetwork},
		{"missing api key", fmt.Errorf("%w: set GEMINI_API_KEY", config.ErrNoAPIKey), ExitAuth},
		{"rejected api key", &genaiclient.APIError{StatusCode: 401, Message: "bad key"}, ExitAuth},
		{"interrupted", context.Canceled, ExitInterrupted},
		{"timeout", fmt.Errorf("call: %w", context.DeadlineExceeded), ExitTimeout},
		{"permission", fmt.Errorf("open: %w", fs.ErrPermission), ExitPermission},
		{"configuration", errors.New("configuration validation failed: model.name is required"), ExitConfig},
		{"invalid input", errors.New("invalid API key: empty"), ExitUsage},
		{"other", errors.New("boom"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestLevel(t *testing.T) {
	assert.Equal(t, "info", (&CLI{}).level("info"))
	assert.Equal(t, "error", (&CLI{LogLevel: "ERROR"}).level("info"))
	assert.Equal(t, "debug", (&CLI{LogLevel: "error", Verbose: true}).level("info"))

	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("nonsense"))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("abcd"))
	assert.Equal(t, "AIza****wxyz", maskAPIKey("AIza1234wxyz"))
	assert.Equal(t, "first", firstLine("first\nsecond"))
	assert.Equal(t, "abcdefgh", shortID("abcdefgh-1234"))
	assert.Equal(t, []string{"music=3", "code=1", "docs=1"}, sortedCounts(map[string]int{"docs": 1, "music": 3, "code": 1}))
}
