package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestGuard(t *testing.T) {
	lofi := map[string]any{"query": "lofi beats"}
	jazz := map[string]any{"query": "jazz"}

	type call struct {
		after time.Duration
		name  string
		args  map[string]any
		want  bool
	}

	tests := []struct {
		name  string
		calls []call
	}{
		{
			name: "identical call within cooldown is suppressed",
			calls: []call{
				{0, "playYouTubeVideo", lofi, true},
				{5 * time.Second, "playYouTubeVideo", lofi, false},
			},
		},
		{
			name: "identical call after cooldown is allowed",
			calls: []call{
				{0, "playYouTubeVideo", lofi, true},
				{30 * time.Second, "playYouTubeVideo", lofi, true},
			},
		},
		{
			name: "different arguments are allowed",
			calls: []call{
				{0, "playYouTubeVideo", lofi, true},
				{time.Second, "playYouTubeVideo", jazz, true},
				{time.Second, "playYouTubeVideo", lofi, true},
			},
		},
		{
			name: "other tools are never throttled",
			calls: []call{
				{0, "fileOperations", map[string]any{"operation": "read"}, true},
				{time.Second, "fileOperations", map[string]any{"operation": "read"}, true},
			},
		},
		{
			name: "another sensitive tool supersedes the slot",
			calls: []call{
				{0, "playYouTubeVideo", lofi, true},
				{time.Second, "createPost", map[string]any{"status": "hi"}, true},
				{time.Second, "playYouTubeVideo", lofi, true},
			},
		},
		{
			name: "suppression does not restart the cooldown",
			calls: []call{
				{0, "playYouTubeVideo", lofi, true},
				{20 * time.Second, "playYouTubeVideo", lofi, false},
				{10 * time.Second, "playYouTubeVideo", lofi, true},
			},
		},
		{
			name: "key order does not matter",
			calls: []call{
				{0, "createPost", map[string]any{"a": 1, "b": 2}, true},
				{time.Second, "createPost", map[string]any{"b": 2, "a": 1}, false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			g := NewGuard([]string{"playYouTubeVideo", "createPost"}, 0, clock.Now)
			for i, c := range tt.calls {
				clock.Advance(c.after)
				assert.Equal(t, c.want, g.Allow(c.name, c.args), "call %d", i)
			}
		})
	}
}

func TestGuardNilArguments(t *testing.T) {
	clock := newFakeClock()
	g := NewGuard([]string{"playYouTubeVideo"}, time.Minute, clock.Now)

	assert.True(t, g.Allow("playYouTubeVideo", nil))
	assert.False(t, g.Allow("playYouTubeVideo", map[string]any{}))
	assert.True(t, g.IsSensitive("playYouTubeVideo"))
	assert.False(t, g.IsSensitive("fileOperations"))
}
