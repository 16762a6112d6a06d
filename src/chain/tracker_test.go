package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/elee1766/toolchat/src/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRegistry struct {
	result *mcp.CallToolResult
	err    error
	calls  int
}

func (s *stubRegistry) ListTools(ctx context.Context) ([]mcp.ToolDefinition, error) {
	return nil, nil
}

func (s *stubRegistry) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	s.calls++
	return s.result, s.err
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.ContentItem{{Type: mcp.ContentTypeText, Text: text}},
		IsError: isError,
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRecordEvictsOldest(t *testing.T) {
	tr := New()
	for i := 0; i < 6; i++ {
		tr.Record(fmt.Sprintf("tool%d", i), nil)
	}

	records := tr.Records()
	require.Len(t, records, DefaultCapacity)
	assert.Equal(t, "tool1", records[0].Name)
	assert.Equal(t, "tool5", records[4].Name)
	for _, r := range records {
		assert.Equal(t, StatusPending, r.Status)
	}
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name        string
		registry    *stubRegistry
		wantSuccess bool
		wantStatus  Status
		wantText    string
	}{
		{
			name:        "success",
			registry:    &stubRegistry{result: textResult("done", false)},
			wantSuccess: true,
			wantStatus:  StatusCompleted,
			wantText:    "done",
		},
		{
			name:        "tool error result",
			registry:    &stubRegistry{result: textResult("Error reading file: missing", true)},
			wantSuccess: false,
			wantStatus:  StatusFailed,
			wantText:    "Error reading file: missing",
		},
		{
			name:        "transport error",
			registry:    &stubRegistry{err: errors.New("connection reset")},
			wantSuccess: false,
			wantStatus:  StatusFailed,
			wantText:    "connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New()
			outcome := tr.Execute(context.Background(), tt.registry, "fileOperations", map[string]any{"operation": "read"})

			assert.Equal(t, tt.wantSuccess, outcome.Success)
			assert.Equal(t, tt.wantText, outcome.Text())
			assert.Equal(t, 1, tt.registry.calls)

			records := tr.Records()
			require.Len(t, records, 1)
			assert.Equal(t, tt.wantStatus, records[0].Status)
		})
	}
}

func TestExecuteOnlyTouchesLastRecord(t *testing.T) {
	tr := New()
	tr.Record("earlier", nil)
	tr.Execute(context.Background(), &stubRegistry{result: textResult("ok", false)}, "later", nil)

	records := tr.Records()
	require.Len(t, records, 2)
	assert.Equal(t, StatusPending, records[0].Status)
	assert.Equal(t, StatusCompleted, records[1].Status)
}

func TestSummarize(t *testing.T) {
	tr := New()
	tr.Execute(context.Background(), &stubRegistry{result: textResult("ok", false)}, "a", nil)
	tr.Execute(context.Background(), &stubRegistry{err: errors.New("x")}, "b", nil)
	tr.Record("c", nil)

	s := tr.Summarize()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Pending)
	require.Len(t, s.Entries, 3)
	assert.Equal(t, Entry{Name: "b", Status: StatusFailed, Timestamp: s.Entries[1].Timestamp}, s.Entries[1])
}

func TestWasRecentlyUsed(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	tr := New(WithClock(clock.Now))

	tr.Record("playYouTubeVideo", map[string]any{"query": "lofi"})
	clock.Advance(3 * time.Minute)

	assert.True(t, tr.WasRecentlyUsed("playYouTubeVideo", 5*time.Minute))
	assert.False(t, tr.WasRecentlyUsed("fileOperations", 5*time.Minute))
	assert.True(t, tr.AnyRecentlyUsed(5*time.Minute))

	clock.Advance(3 * time.Minute)
	assert.False(t, tr.WasRecentlyUsed("playYouTubeVideo", 5*time.Minute))
	assert.False(t, tr.AnyRecentlyUsed(5*time.Minute))
}

func TestShouldContinue(t *testing.T) {
	failing := &stubRegistry{err: errors.New("down")}
	ok := &stubRegistry{result: textResult("fine", false)}

	tr := New()
	assert.True(t, tr.ShouldContinue())

	tr.Execute(context.Background(), failing, "a", nil)
	assert.True(t, tr.ShouldContinue())

	tr.Execute(context.Background(), failing, "b", nil)
	assert.False(t, tr.ShouldContinue())

	tr.Execute(context.Background(), ok, "c", nil)
	assert.True(t, tr.ShouldContinue())
}

func TestLastSuccessfulAndClear(t *testing.T) {
	tr := New()
	_, found := tr.LastSuccessful()
	assert.False(t, found)

	tr.Execute(context.Background(), &stubRegistry{result: textResult("first", false)}, "a", nil)
	tr.Execute(context.Background(), &stubRegistry{err: errors.New("x")}, "b", nil)

	rec, found := tr.LastSuccessful()
	require.True(t, found)
	assert.Equal(t, "a", rec.Name)
	assert.Equal(t, "first", rec.Result)

	tr.Clear()
	assert.Empty(t, tr.Records())
	assert.Equal(t, "", tr.Context())
}

func TestContext(t *testing.T) {
	tr := New()
	tr.Record("zero", nil)
	tr.Execute(context.Background(), &stubRegistry{result: textResult("read ok", false)}, "one", nil)
	tr.Execute(context.Background(), &stubRegistry{err: errors.New("denied")}, "two", nil)
	tr.Record("three", nil)

	got := tr.Context()
	assert.Equal(t, "Recent tool usage:\n- one (completed): read ok\n- two (failed): denied\n- three (pending)\n", got)
}
