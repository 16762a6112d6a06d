package aisdk

import (
	"encoding/json"
	"strings"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one exchange unit of a conversation.
type Turn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
	// System marks the persona instruction held at position 0. It is sent to
	// the model as a system instruction and survives history trimming.
	System    bool      `json:"system,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Part is either a text fragment or a function call directive.
type Part struct {
	Text         string        `json:"text,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// FunctionCall is a structured tool invocation emitted by the model.
type FunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDeclaration describes a tool the model may call.
type ToolDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"` // JSON Schema for parameters
}

// GenerateRequest is a single model call over the full history.
type GenerateRequest struct {
	Turns []Turn
	Tools []ToolDeclaration
}

// Response is the interpreted first candidate of a model call. Exactly one of
// Text or FunctionCall is meaningful; FunctionCall wins when both are present.
type Response struct {
	Text         string
	FunctionCall *FunctionCall
	FinishReason string
	Usage        Usage
}

// Usage holds token accounting for a single call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// FallbackText stands in for a reply that carried neither text nor a call.
const FallbackText = "Sorry, I couldn't generate a response."

// NewTextTurn builds a single-part text turn.
func NewTextTurn(role Role, text string) Turn {
	return Turn{Role: role, Parts: []Part{{Text: text}}, CreatedAt: time.Now()}
}

// NewSystemTurn builds the persona instruction turn.
func NewSystemTurn(text string) Turn {
	t := NewTextTurn(RoleUser, text)
	t.System = true
	return t
}

// Text concatenates all text parts of the turn.
func (t Turn) Text() string {
	var b strings.Builder
	for _, p := range t.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// FunctionCall returns the first function call part, if any.
func (t Turn) FunctionCall() *FunctionCall {
	for _, p := range t.Parts {
		if p.FunctionCall != nil {
			return p.FunctionCall
		}
	}
	return nil
}

// ArgumentsMap decodes the call arguments into a generic map. Empty or null
// arguments decode to an empty map.
func (fc *FunctionCall) ArgumentsMap() (map[string]any, error) {
	out := map[string]any{}
	if len(fc.Arguments) == 0 || string(fc.Arguments) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(fc.Arguments, &out); err != nil {
		return nil, err
	}
	return out, nil
}
