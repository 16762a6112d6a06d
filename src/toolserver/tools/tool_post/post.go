package tool_post

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/elee1766/toolchat/src/mcp"
	"github.com/elee1766/toolchat/src/toolkit"
	"github.com/elee1766/toolchat/src/toolserver/tools/toolsutil"
	"golang.org/x/oauth2"
)

// Tool name constant
const Name = "createPost"

const postPrompt = "Create a post on X.com (Twitter) with the given status text"

// DefaultEndpoint is the v2 create-tweet endpoint.
const DefaultEndpoint = "https://api.twitter.com/2/tweets"

// Config holds the posting credentials. With neither an access token nor a
// refresh token the tool runs in test mode and posts nothing.
type Config struct {
	Endpoint     string
	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
}

// TestMode reports whether no credentials are configured.
func (c Config) TestMode() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// PostInput represents the parameters for createPost
type PostInput struct {
	Status string `json:"status" required:"true" description:"The status text to post" validate:"required,max=280"`
}

// PostOutput is the confirmation line.
type PostOutput struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

func (o PostOutput) Content() []mcp.ContentItem {
	return []mcp.ContentItem{{Type: mcp.ContentTypeText, Text: o.Message}}
}

// Tool returns the createPost tool.
func Tool(cfg Config) (toolkit.Tool, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return toolkit.NewGenericTool(Name, postPrompt, makePostHandler(cfg, tokenSource(cfg)))
}

func tokenSource(cfg Config) oauth2.TokenSource {
	switch {
	case cfg.RefreshToken != "":
		oauthConfig := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		}
		return oauthConfig.TokenSource(context.Background(), &oauth2.Token{
			AccessToken:  cfg.AccessToken,
			RefreshToken: cfg.RefreshToken,
		})
	case cfg.AccessToken != "":
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
	default:
		return nil
	}
}

type createRequest struct {
	Text string `json:"text"`
}

type createResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func makePostHandler(cfg Config, ts oauth2.TokenSource) toolkit.GenericToolHandler[PostInput, PostOutput] {
	return func(ctx context.Context, input PostInput) (PostOutput, error) {
		logger := toolsutil.GetLogger()

		if ts == nil {
			logger.Info("no posting credentials, running in test mode", "status", input.Status)
			return PostOutput{Message: "[TEST MODE] Would have tweeted: " + input.Status}, nil
		}

		body, err := json.Marshal(createRequest{Text: input.Status})
		if err != nil {
			return PostOutput{}, toolkit.Failf("Error posting tweet: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(body))
		if err != nil {
			return PostOutput{}, toolkit.Failf("Error posting tweet: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := oauth2.NewClient(ctx, ts).Do(req)
		if err != nil {
			logger.Error("post request failed", "error", err)
			return PostOutput{}, toolkit.Failf("Error posting tweet: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return PostOutput{}, toolkit.Failf("Error posting tweet: failed to read response: %w", err)
		}
		var parsed createResponse
		_ = json.Unmarshal(raw, &parsed)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			detail := parsed.Detail
			if detail == "" {
				detail = parsed.Title
			}
			if detail == "" {
				detail = http.StatusText(resp.StatusCode)
			}
			logger.Error("post rejected", "status_code", resp.StatusCode, "detail", detail)
			return PostOutput{}, toolkit.Failf("Error posting tweet: %d %s", resp.StatusCode, detail)
		}

		logger.Info("posted", "id", parsed.Data.ID)
		return PostOutput{Message: "Tweeted: " + input.Status, ID: parsed.Data.ID}, nil
	}
}
