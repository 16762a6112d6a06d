package mcp

import (
	"context"
	"encoding/json"
	"strings"
)

// Content item types
const (
	ContentTypeText     = "text"
	ContentTypeImage    = "image"
	ContentTypeResource = "resource"
)

// Registry is the remote tool executor as seen by the chat loop.
type Registry interface {
	ListTools(ctx context.Context) ([]ToolDefinition, error)
	CallTool(ctx context.Context, name string, arguments map[string]any) (*CallToolResult, error)
}

// ToolDefinition represents a tool advertised by the registry.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// CallToolResult from tool execution
type CallToolResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ContentItem represents a piece of content
type ContentItem struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// FirstText returns the text of the first content item, or "" when the
// result carries no content.
func (r *CallToolResult) FirstText() string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

// Text joins all text-bearing content items with newlines.
func (r *CallToolResult) Text() string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		switch {
		case c.Text != "":
			parts = append(parts, c.Text)
		case c.Type == ContentTypeImage:
			parts = append(parts, "[image "+c.MimeType+"]")
		}
	}
	return strings.Join(parts, "\n")
}
