package genaiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/genai"
)

// Common error variables
var (
	// ErrNoAPIKey indicates the API key is missing
	ErrNoAPIKey = errors.New("API key is required")

	// ErrEmptyResponse indicates the API returned no usable candidate
	ErrEmptyResponse = errors.New("empty response from API")
)

// APIError represents an error response from the Gemini API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error is retryable.
func (e *APIError) IsRetryable() bool {
	// 5xx errors are generally retryable
	if e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}

	// Rate limit errors are retryable after a delay
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}

	switch e.Status {
	case "UNAVAILABLE", "RESOURCE_EXHAUSTED", "DEADLINE_EXCEEDED", "INTERNAL":
		return true
	}

	return false
}

// IsRateLimit returns true if this is a rate limit error.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED"
}

// IsAuthError returns true if this is an authentication error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized ||
		e.StatusCode == http.StatusForbidden ||
		e.Status == "UNAUTHENTICATED" ||
		e.Status == "PERMISSION_DENIED"
}

// wrapError converts SDK errors into *APIError where possible.
func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &APIError{StatusCode: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message}
	}
	return err
}

// isRetryable decides whether an attempt should be repeated.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
