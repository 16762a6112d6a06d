package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/elee1766/toolchat/src/config"
	"github.com/lmittmann/tint"
)

// createChatLogger creates a logger that doesn't interfere with the chat
// prompt by writing to a file instead of stdout/stderr
func createChatLogger(cfg *config.Config, logLevel string) (*slog.Logger, io.Closer) {
	logFile := cfg.Logging.File
	if logFile == "" {
		logFile = config.GetDefaultStoragePaths().LogPath
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return discardLogger(), nopCloser{}
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return discardLogger(), nopCloser{}
	}

	opts := &slog.HandlerOptions{Level: parseLogLevel(logLevel)}
	if cfg.Logging.Format == "text" {
		return slog.New(slog.NewTextHandler(file, opts)), file
	}
	return slog.New(slog.NewJSONHandler(file, opts)), file
}

// createCLILogger creates a logger for CLI commands that can write to stderr
func createCLILogger(logLevel, format string) *slog.Logger {
	level := parseLogLevel(logLevel)

	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: level,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
