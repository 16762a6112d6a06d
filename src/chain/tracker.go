// Package chain keeps a bounded record of recent tool invocations.
package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/elee1766/toolchat/src/mcp"
)

// DefaultCapacity is the number of records retained.
const DefaultCapacity = 5

// contextDepth is how many records Context renders.
const contextDepth = 3

// Status of a tool invocation record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is one tracked tool invocation.
type Record struct {
	Name      string         `json:"name"`
	Args      map[string]any `json:"args,omitempty"`
	Status    Status         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Result    string         `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Outcome is the result of Execute.
type Outcome struct {
	Success bool
	Result  *mcp.CallToolResult
	Err     error
}

// Text returns what should be shown for the outcome: every text-bearing
// result item on success or tool error, the transport error otherwise.
func (o Outcome) Text() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return o.Result.Text()
}

// Entry is the compact form of a record used in summaries.
type Entry struct {
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary aggregates the retained window.
type Summary struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Failed    int     `json:"failed"`
	Pending   int     `json:"pending"`
	Entries   []Entry `json:"entries"`
}

// Tracker is a fixed-capacity ring of tool invocation records. The zero value
// is not usable; use New.
type Tracker struct {
	mu       sync.Mutex
	records  []Record
	capacity int
	now      func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithCapacity overrides DefaultCapacity.
func WithCapacity(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.capacity = n
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// New creates a Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.records = make([]Record, 0, t.capacity)
	return t
}

// Record appends a pending record, evicting the oldest when full.
func (t *Tracker) Record(name string, args map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.records) == t.capacity {
		copy(t.records, t.records[1:])
		t.records = t.records[:len(t.records)-1]
	}
	t.records = append(t.records, Record{
		Name:      name,
		Args:      args,
		Status:    StatusPending,
		Timestamp: t.now(),
	})
}

// Execute records the invocation, forwards it to the registry, and marks the
// record completed or failed. Both a tool-level error result and a transport
// error mark the record failed.
func (t *Tracker) Execute(ctx context.Context, registry mcp.Registry, name string, args map[string]any) Outcome {
	t.Record(name, args)

	result, err := registry.CallTool(ctx, name, args)
	switch {
	case err != nil:
		t.finish(StatusFailed, "", err.Error())
		return Outcome{Success: false, Err: err}
	case result != nil && result.IsError:
		t.finish(StatusFailed, result.Text(), result.FirstText())
		return Outcome{Success: false, Result: result}
	default:
		t.finish(StatusCompleted, result.Text(), "")
		return Outcome{Success: true, Result: result}
	}
}

// finish transitions the most recent record. Terminal records are left alone.
func (t *Tracker) finish(status Status, result, errText string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.records) == 0 {
		return
	}
	last := &t.records[len(t.records)-1]
	if last.Status != StatusPending {
		return
	}
	last.Status = status
	last.Result = result
	last.Error = errText
}

// Summarize returns counts and compact entries for the retained window.
func (t *Tracker) Summarize() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		Total:   len(t.records),
		Entries: make([]Entry, 0, len(t.records)),
	}
	for _, r := range t.records {
		switch r.Status {
		case StatusCompleted:
			s.Completed++
		case StatusFailed:
			s.Failed++
		case StatusPending:
			s.Pending++
		}
		s.Entries = append(s.Entries, Entry{Name: r.Name, Status: r.Status, Timestamp: r.Timestamp})
	}
	return s
}

// WasRecentlyUsed reports whether a record for name exists within window.
func (t *Tracker) WasRecentlyUsed(name string, window time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-window)
	for _, r := range t.records {
		if r.Name == name && r.Timestamp.After(cutoff) {
			return true
		}
	}
	return false
}

// AnyRecentlyUsed reports whether any record exists within window.
func (t *Tracker) AnyRecentlyUsed(window time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-window)
	for _, r := range t.records {
		if r.Timestamp.After(cutoff) {
			return true
		}
	}
	return false
}

// ShouldContinue is false when the last two records both failed.
func (t *Tracker) ShouldContinue() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.records)
	if n < 2 {
		return true
	}
	return !(t.records[n-1].Status == StatusFailed && t.records[n-2].Status == StatusFailed)
}

// LastSuccessful returns the most recent completed record.
func (t *Tracker) LastSuccessful() (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.records) - 1; i >= 0; i-- {
		if t.records[i].Status == StatusCompleted {
			return t.records[i], true
		}
	}
	return Record{}, false
}

// Records returns a copy of the retained window, oldest first.
func (t *Tracker) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Clear drops all records.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = t.records[:0]
}

// Context renders the last few records as a text block for prompt injection.
// It returns "" when nothing has been recorded.
func (t *Tracker) Context() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.records) == 0 {
		return ""
	}
	start := max(len(t.records)-contextDepth, 0)

	var b strings.Builder
	b.WriteString("Recent tool usage:\n")
	for _, r := range t.records[start:] {
		fmt.Fprintf(&b, "- %s (%s)", r.Name, r.Status)
		switch {
		case r.Status == StatusCompleted && r.Result != "":
			fmt.Fprintf(&b, ": %s", truncate(r.Result, 200))
		case r.Status == StatusFailed && r.Error != "":
			fmt.Fprintf(&b, ": %s", truncate(r.Error, 200))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
