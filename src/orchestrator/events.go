package orchestrator

import (
	"encoding/json"
	"errors"
	"time"
)

// EventType represents the type of conversation event
type EventType string

const (
	EventSessionStart   EventType = "session_start"
	EventUserMessage    EventType = "user_message"
	EventModelMessage   EventType = "model_message"
	EventToolCall       EventType = "tool_call"
	EventToolResult     EventType = "tool_result"
	EventToolSuppressed EventType = "tool_suppressed"
	EventSystemMessage  EventType = "system_message"
	EventError          EventType = "error"
	EventCheckpoint     EventType = "checkpoint"
	EventSessionEnd     EventType = "session_end"
)

// ConversationEvent is the base interface for all conversation events
type ConversationEvent interface {
	GetType() EventType
	GetTimestamp() time.Time
	GetSessionID() string
	GetTurnNumber() int
}

// BaseEvent contains common fields for all events
type BaseEvent struct {
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	SessionID  string    `json:"session_id"`
	TurnNumber int       `json:"turn_number"`
}

func (e BaseEvent) GetType() EventType      { return e.Type }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetSessionID() string    { return e.SessionID }
func (e BaseEvent) GetTurnNumber() int      { return e.TurnNumber }

// SessionStartEvent is sent once before the first prompt
type SessionStartEvent struct {
	BaseEvent
	Model     string `json:"model"`
	ToolCount int    `json:"tool_count"`
	Resumed   bool   `json:"resumed"`
}

// UserMessageEvent represents an accepted user utterance
type UserMessageEvent struct {
	BaseEvent
	Message  string `json:"message"`
	Reminded bool   `json:"reminded"`
}

// ModelMessageEvent represents a text reply from the model
type ModelMessageEvent struct {
	BaseEvent
	Content  string `json:"content"`
	Recovery bool   `json:"recovery"`
}

// ToolCallEvent represents a directive about to be dispatched
type ToolCallEvent struct {
	BaseEvent
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResultEvent represents a settled dispatch
type ToolResultEvent struct {
	BaseEvent
	ToolName string        `json:"tool_name"`
	Success  bool          `json:"success"`
	Output   string        `json:"output"`
	Duration time.Duration `json:"duration"`
}

// ToolSuppressedEvent represents a debounced directive
type ToolSuppressedEvent struct {
	BaseEvent
	ToolName string `json:"tool_name"`
	Message  string `json:"message"`
}

// SystemMessageEvent represents loop notices
type SystemMessageEvent struct {
	BaseEvent
	Message string `json:"message"`
	Purpose string `json:"purpose"` // e.g., "reminder", "warning", "info"
}

// ErrorEvent represents an error in the conversation
type ErrorEvent struct {
	BaseEvent
	Error   error  `json:"error"`
	Context string `json:"context"` // Where the error occurred
}

// CheckpointEvent represents a session save attempt
type CheckpointEvent struct {
	BaseEvent
	Path  string `json:"path"`
	Error error  `json:"error,omitempty"`
}

// SessionEndEvent represents the end of the session
type SessionEndEvent struct {
	BaseEvent
	Reason     string `json:"reason"` // "exit", "eof", "canceled", "input_error"
	TotalTurns int    `json:"total_turns"`
}

// EventSink is the interface for handling conversation events
type EventSink interface {
	// Send delivers an event to the sink
	Send(event ConversationEvent) error

	// Close closes the event sink
	Close() error
}

// EventProcessor processes conversation events
type EventProcessor interface {
	// Process handles a single event
	Process(event ConversationEvent) error

	// Close cleans up any resources
	Close() error
}

// SyncEventSink hands every event to its processors before Send returns, so
// output stays ordered with the prompt.
type SyncEventSink struct {
	processors []EventProcessor
	closed     bool
}

// NewSyncEventSink creates a sink that processes events inline
func NewSyncEventSink(processors ...EventProcessor) *SyncEventSink {
	return &SyncEventSink{processors: processors}
}

// Send processes the event with every processor
func (s *SyncEventSink) Send(event ConversationEvent) error {
	if s.closed {
		return errors.New("event sink is closed")
	}
	var errs []error
	for _, p := range s.processors {
		if err := p.Process(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes all processors
func (s *SyncEventSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	for _, p := range s.processors {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// discardSink drops events
type discardSink struct{}

func (discardSink) Send(ConversationEvent) error { return nil }
func (discardSink) Close() error                 { return nil }
