package genaiclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/elee1766/toolchat/src/aisdk"
	"google.golang.org/genai"
)

const defaultTimeout = 60 * time.Second

var _ aisdk.ModelClient = (*Client)(nil)

// contentGenerator is the slice of the SDK the client uses; *genai.Models
// satisfies it.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client is the Gemini API client.
type Client struct {
	config    Config
	generator contentGenerator
	logger    *slog.Logger
}

// NewClient creates a new Gemini API client.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return newClient(config, sdk.Models), nil
}

func newClient(config Config, generator contentGenerator) *Client {
	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}
	if config.RetryCount == 0 {
		config.RetryCount = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "gemini_client", "model", config.Model)

	return &Client{
		config:    config,
		generator: generator,
		logger:    logger,
	}
}

// ModelName returns the bound model.
func (c *Client) ModelName() string {
	return c.config.Model
}

// Generate sends the full history and tool declarations to the model.
func (c *Client) Generate(ctx context.Context, req *aisdk.GenerateRequest) (*aisdk.Response, error) {
	logger := c.logger.With("method", "Generate")

	system, contents := toContents(req.Turns)
	if len(contents) == 0 {
		return nil, fmt.Errorf("no conversation content to send")
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Tools:             toTools(req.Tools),
	}

	logger.Debug("sending generate request", "contents", len(contents), "tools", len(req.Tools))

	resp, err := c.generateWithRetry(ctx, contents, cfg)
	if err != nil {
		logger.Error("request failed", "error", err)
		return nil, err
	}

	out, err := fromResponse(resp)
	if err != nil {
		logger.Error("failed to interpret response", "error", err)
		return nil, err
	}

	logger.Info("generate successful",
		"function_call", out.FunctionCall != nil,
		"finish_reason", out.FinishReason,
		"usage_total", out.Usage.TotalTokens)
	return out, nil
}

// generateWithRetry performs the call with linear backoff on retryable errors.
func (c *Client) generateWithRetry(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for i := 0; i < c.config.RetryCount; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		resp, err := c.generator.GenerateContent(attemptCtx, c.config.Model, contents, cfg)
		cancel()
		if err == nil {
			return resp, nil
		}

		lastErr = wrapError(err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isRetryable(lastErr) {
			return nil, lastErr
		}

		c.logger.Debug("request attempt failed", "attempt", i+1, "error", lastErr)
		if i == c.config.RetryCount-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.config.RetryDelay * time.Duration(i+1)):
		}
	}

	c.logger.Error("request failed after all retries", "retry_count", c.config.RetryCount, "error", lastErr)
	return nil, fmt.Errorf("request failed after %d retries: %w", c.config.RetryCount, lastErr)
}
