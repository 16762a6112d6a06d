// Package toolkit defines server-side tools: typed inputs with reflected
// schemas, validation, and a toolbox that runs them through middleware.
package toolkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/elee1766/toolchat/src/mcp"
	jsonschema "github.com/swaggest/jsonschema-go"
)

// Tool is the interface that all tools must implement
type Tool interface {
	// GetName returns the tool's name
	GetName() string

	// GetDescription returns the tool's description
	GetDescription() string

	// GetParameters returns the JSON schema for the tool's parameters
	GetParameters() *jsonschema.Schema

	// Execute runs the tool. Tool-level failures are reported as results
	// with IsError set; a returned error means the tool could not run at all.
	Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error)
}

// ToolError is a failure whose message is shown to the model verbatim.
type ToolError struct {
	Message string
	Err     error
}

func (e *ToolError) Error() string { return e.Message }
func (e *ToolError) Unwrap() error { return e.Err }

// Failf builds a ToolError. The last %w argument, if any, is kept as the cause.
func Failf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	return &ToolError{Message: err.Error(), Err: errors.Unwrap(err)}
}

// TextResult is a successful single-text result.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentItem{{Type: mcp.ContentTypeText, Text: text}}}
}

// ErrorResult is a failed single-text result.
func ErrorResult(text string) *mcp.CallToolResult {
	r := TextResult(text)
	r.IsError = true
	return r
}

// ContentRenderer lets a tool output choose its own content items. Outputs
// that do not implement it are sent as JSON text.
type ContentRenderer interface {
	Content() []mcp.ContentItem
}

// SchemaJSON returns the tool's parameter schema as JSON.
func SchemaJSON(t Tool) (json.RawMessage, error) {
	schema := t.GetParameters()
	if schema == nil {
		return json.RawMessage(`{"type":"object","properties":{}}`), nil
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema for %s: %w", t.GetName(), err)
	}
	return b, nil
}
