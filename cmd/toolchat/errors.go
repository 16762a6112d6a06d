package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/elee1766/toolchat/src/config"
	"github.com/elee1766/toolchat/src/genaiclient"
	"github.com/elee1766/toolchat/src/mcp"
)

// Exit codes following standard conventions
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error
	ExitUsage       = 2 // Usage error
	ExitConfig      = 3 // Configuration error
	ExitAuth        = 4 // Authentication error
	ExitPermission  = 5 // Permission error
	ExitNetwork     = 6 // Network error
	ExitTimeout     = 7 // Timeout error
	ExitInterrupted = 8 // Interrupted by user
	ExitInternal    = 9 // Internal error
)

// ErrorHandler handles different types of errors and exits with appropriate codes
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError handles an error and exits with the appropriate code
func (h *ErrorHandler) HandleError(err error) {
	if err == nil {
		return
	}

	h.logger.Debug("command failed", "error", err)

	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())

	os.Exit(exitCode(err))
}

// exitCode determines the appropriate exit code for an error
func exitCode(err error) int {
	var apiErr *genaiclient.APIError
	switch {
	case errors.Is(err, mcp.ErrRegistryUnreachable):
		return ExitNetwork
	case errors.Is(err, config.ErrNoAPIKey), errors.Is(err, genaiclient.ErrNoAPIKey):
		return ExitAuth
	case errors.As(err, &apiErr) && apiErr.IsAuthError():
		return ExitAuth
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.Is(err, os.ErrPermission):
		return ExitPermission
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "configuration"):
		return ExitConfig
	case strings.Contains(errStr, "usage"), strings.Contains(errStr, "invalid"):
		return ExitUsage
	default:
		return ExitError
	}
}

// FatalError logs a fatal error and exits
func FatalError(logger *slog.Logger, err error) {
	NewErrorHandler(logger).HandleError(err)
}
