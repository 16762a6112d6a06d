package genaiclient

import (
	"log/slog"
	"time"
)

// Config holds configuration for the Gemini client
type Config struct {
	APIKey     string        // Gemini API key
	Model      string        // Model name, e.g. gemini-2.0-flash
	Logger     *slog.Logger  // Logger for debugging
	Timeout    time.Duration // Per-attempt timeout
	RetryCount int           // Number of attempts for retryable failures
	RetryDelay time.Duration // Base delay between attempts
}
