package storage

import "time"

// Execution statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Session is one chat session seen by the audit log.
type Session struct {
	ID              string    `json:"id" db:"id"`
	Model           string    `json:"model" db:"model"`
	SuppressedCalls int       `json:"suppressed_calls" db:"suppressed_calls"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// ToolExecution is one dispatched tool call.
type ToolExecution struct {
	ID         string    `json:"id" db:"id"`
	SessionID  string    `json:"session_id" db:"session_id"`
	ToolName   string    `json:"tool_name" db:"tool_name"`
	Input      string    `json:"input" db:"input"`
	Output     string    `json:"output" db:"output"`
	Error      string    `json:"error" db:"error"`
	Status     string    `json:"status" db:"status"`
	DurationMs int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
