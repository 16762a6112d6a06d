package genaiclient

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/elee1766/toolchat/src/aisdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	responses []*genai.GenerateContentResponse
	errs      []error
	calls     int
	contents  []*genai.Content
	config    *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	i := f.calls
	f.calls++
	f.contents = contents
	f.config = config
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return nil, err
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(text, genai.RoleModel),
		}},
	}
}

func testClient(gen *fakeGenerator) *Client {
	return newClient(Config{RetryCount: 3, RetryDelay: time.Millisecond}, gen)
}

func testRequest() *aisdk.GenerateRequest {
	return &aisdk.GenerateRequest{
		Turns: []aisdk.Turn{
			aisdk.NewSystemTurn("You are Nova."),
			aisdk.NewTextTurn(aisdk.RoleUser, "hello"),
		},
		Tools: []aisdk.ToolDeclaration{{
			Name:        "playYouTubeVideo",
			Description: "Play a YouTube video",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`),
		}},
	}
}

func TestGenerateText(t *testing.T) {
	gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{textResponse("Hi there!")}}

	resp, err := testClient(gen).Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", resp.Text)
	assert.Nil(t, resp.FunctionCall)

	require.NotNil(t, gen.config.SystemInstruction)
	assert.Equal(t, "You are Nova.", gen.config.SystemInstruction.Parts[0].Text)
	require.Len(t, gen.contents, 1, "system turn is not sent as content")
	assert.Equal(t, genai.RoleUser, gen.contents[0].Role)

	require.Len(t, gen.config.Tools, 1)
	require.Len(t, gen.config.Tools[0].FunctionDeclarations, 1)
	assert.Equal(t, "playYouTubeVideo", gen.config.Tools[0].FunctionDeclarations[0].Name)
	assert.NotNil(t, gen.config.Tools[0].FunctionDeclarations[0].ParametersJsonSchema)
}

func TestGenerateFunctionCall(t *testing.T) {
	gen := &fakeGenerator{responses: []*genai.GenerateContentResponse{{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{
				FunctionCall: &genai.FunctionCall{Name: "playYouTubeVideo", Args: map[string]any{"query": "lofi"}},
			}}},
		}},
	}}}

	resp, err := testClient(gen).Generate(context.Background(), testRequest())
	require.NoError(t, err)
	require.NotNil(t, resp.FunctionCall)
	assert.Equal(t, "playYouTubeVideo", resp.FunctionCall.Name)
	assert.JSONEq(t, `{"query":"lofi"}`, string(resp.FunctionCall.Arguments))
	assert.Empty(t, resp.Text)
}

func TestFromResponse(t *testing.T) {
	tests := []struct {
		name     string
		resp     *genai.GenerateContentResponse
		wantText string
		wantErr  error
	}{
		{
			name:    "nil response",
			resp:    nil,
			wantErr: ErrEmptyResponse,
		},
		{
			name:    "no candidates",
			resp:    &genai.GenerateContentResponse{},
			wantErr: ErrEmptyResponse,
		},
		{
			name:     "candidate without parts",
			resp:     &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}},
			wantText: FallbackText,
		},
		{
			name:     "empty text part",
			resp:     textResponse(""),
			wantText: FallbackText,
		},
		{
			name:     "text part",
			resp:     textResponse("ok"),
			wantText: "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := fromResponse(tt.resp)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, out.Text)
		})
	}
}

func TestToContentsNarratesFunctionCalls(t *testing.T) {
	turns := []aisdk.Turn{
		{Role: aisdk.RoleModel, Parts: []aisdk.Part{{FunctionCall: &aisdk.FunctionCall{
			Name: "fileOperations", Arguments: json.RawMessage(`{"operation":"read"}`),
		}}}},
		{Role: aisdk.RoleUser, Parts: []aisdk.Part{{Text: ""}}},
	}

	system, contents := toContents(turns)
	assert.Nil(t, system)
	require.Len(t, contents, 1, "turns without content are skipped")
	assert.Equal(t, genai.RoleModel, contents[0].Role)
	assert.Equal(t, `Calling tool fileOperations with {"operation":"read"}`, contents[0].Parts[0].Text)
}

func TestGenerateRetries(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{
			name:      "retryable then success",
			errs:      []error{genai.APIError{Code: 503, Status: "UNAVAILABLE", Message: "overloaded"}},
			wantCalls: 2,
		},
		{
			name:      "non-retryable fails immediately",
			errs:      []error{genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "bad"}},
			wantCalls: 1,
			wantErr:   true,
		},
		{
			name: "retries exhausted",
			errs: []error{
				genai.APIError{Code: 429, Message: "slow down"},
				genai.APIError{Code: 429, Message: "slow down"},
				genai.APIError{Code: 429, Message: "slow down"},
			},
			wantCalls: 3,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{
				errs:      tt.errs,
				responses: []*genai.GenerateContentResponse{textResponse("done")},
			}
			_, err := testClient(gen).Generate(context.Background(), testRequest())
			assert.Equal(t, tt.wantCalls, gen.calls)
			if tt.wantErr {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &fakeGenerator{errs: []error{context.Canceled}}
	_, err := testClient(gen).Generate(ctx, testRequest())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, gen.calls)
}
