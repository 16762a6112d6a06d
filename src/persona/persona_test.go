package persona

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/elee1766/toolchat/src/aisdk"
	"github.com/elee1766/toolchat/src/chain"
	"github.com/elee1766/toolchat/src/session"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testTools = []aisdk.ToolDeclaration{
	{
		Name:        "fileOperations",
		Description: "Perform file system operations",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"operation": {"type": "string", "enum": ["read", "write"], "description": "What to do"},
				"path": {"type": "string"}
			},
			"required": ["operation"]
		}`),
	},
	{Name: "playYouTubeVideo", Description: "Play a video"},
}

func testPersona(opts ...Option) *Persona {
	opts = append([]Option{
		WithClock(func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }),
		WithOSVersion(func() string { return "testos 1.0" }),
	}, opts...)
	return New(nil, testTools, opts...)
}

func TestDefaultPersona(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "Nova", cfg.Name)
	assert.NotEmpty(t, cfg.Topics)
	assert.Contains(t, cfg.Tools, "fileOperations")
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/p.yaml", []byte("name: Rex\nrole: a grumpy robot\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/nameless.yaml", []byte("role: nobody\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("name: [unclosed\n"), 0o644))

	cfg, err := Load(fs, "/p.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Rex", cfg.Name)

	cfg, err = Load(fs, "")
	require.NoError(t, err)
	assert.Equal(t, "Nova", cfg.Name)

	_, err = Load(fs, "/nameless.yaml")
	assert.ErrorIs(t, err, ErrNoName)

	_, err = Load(fs, "/bad.yaml")
	assert.Error(t, err)

	_, err = Load(fs, "/missing.yaml")
	assert.Error(t, err)
}

func TestSystemPrompt(t *testing.T) {
	p := testPersona()
	state := session.NewState()
	state.Mood = "cheerful"
	state.InteractionCount = 4
	state.TopicCounts = map[string]int{"music": 3, "files": 1}

	tracker := chain.New()
	tracker.Record("fileOperations", map[string]any{"operation": "read"})

	prompt, err := p.SystemPrompt(state, tracker)
	require.NoError(t, err)

	for _, want := range []string{
		"You are Nova, a friendly desktop assistant",
		"Current mood: cheerful.",
		"You have talked with the user 4 times",
		"Topics the user brings up most: music, files.",
		"OS Version: testos 1.0",
		"Today's date: 2025-03-01",
		"Tool: fileOperations",
		`object (required: operation)`,
		`operation: string (enum: "read" | "write") # What to do`,
		"Example: Read a file:",
		"Tool: playYouTubeVideo",
		"Use playYouTubeVideo for video and music content",
		"Tool calls so far: 1 (0 completed, 0 failed, 1 pending).",
		"Recent tool usage:",
	} {
		assert.Contains(t, prompt, want)
	}
	assert.NotContains(t, prompt, "createPost", "hints for unavailable tools are dropped")
}

func TestSystemPromptWithoutTools(t *testing.T) {
	p := New(&Config{Name: "Solo", Role: "a plain chatbot"}, nil, WithOSVersion(func() string { return "x" }))
	prompt, err := p.SystemPrompt(nil, nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "You are Solo, a plain chatbot.")
	assert.NotContains(t, prompt, "# Tools")
	assert.NotContains(t, prompt, "Tool calls so far")

	prompt, err = p.SystemPrompt(nil, chain.New())
	require.NoError(t, err)
	assert.NotContains(t, prompt, "Tool calls so far", "empty tracker adds no stats line")
}

func TestObserve(t *testing.T) {
	p := testPersona()
	state := session.NewState()

	p.Observe(state, "Play some lofi music please")
	assert.Equal(t, 1, state.TopicCounts["music"])
	assert.Equal(t, 1, state.IntentCounts["media"])
	assert.Equal(t, 1, state.Relationship.Familiarity)
	assert.NotEmpty(t, state.Objectives)
	assert.Equal(t, session.DefaultMood, state.Mood)
	assert.False(t, p.Stale())

	p.Observe(state, "thanks, that was awesome")
	assert.Equal(t, "cheerful", state.Mood)
	assert.Equal(t, 2, state.Relationship.Rapport)
	assert.Equal(t, 1, state.IntentCounts["chat"])
	assert.True(t, p.Stale(), "mood change refreshes the prompt")
	assert.False(t, p.Stale(), "Stale clears the flag")

	p.Observe(state, "thanks again")
	assert.False(t, p.Stale(), "same mood does not refresh")
}

func TestGuidance(t *testing.T) {
	available := []string{"fileOperations", "playYouTubeVideo"}
	tests := []struct {
		name      string
		utterance string
		recent    bool
		want      []string
	}{
		{
			name:      "file request",
			utterance: "Read the file notes.txt",
			want:      []string{"Use fileOperations for file management tasks"},
		},
		{
			name:      "music and command",
			utterance: "run the script and play a song",
			want: []string{
				"Use playYouTubeVideo for video and music content",
				"Use fileOperations with the execute operation to run commands",
			},
		},
		{
			name:      "unavailable tool",
			utterance: "tweet this",
			want:      nil,
		},
		{
			name:      "recent file use",
			utterance: "hello",
			recent:    true,
			want:      []string{"fileOperations was recently used - consider building on previous operations"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := chain.New()
			if tt.recent {
				tracker.Record("fileOperations", nil)
			}
			assert.Equal(t, tt.want, Guidance(tt.utterance, tracker, available))
		})
	}
}

func TestFormatSchema(t *testing.T) {
	s := parseSchema(json.RawMessage(`{
		"type": "array",
		"description": "Sections",
		"items": {"type": "object", "properties": {"heading": {"type": "string"}}}
	}`))
	require.NotNil(t, s)

	out := formatSchema(s, 0)
	assert.Contains(t, out, "# Sections")
	assert.Contains(t, out, "array")
	assert.Contains(t, out, "items: object")

	assert.Equal(t, "unknown", formatSchema(parseSchema(json.RawMessage(`not json`)), 0))
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "persona.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: First\n"), 0o644))

	fs := afero.NewOsFs()
	cfg, err := Load(fs, path)
	require.NoError(t, err)
	p := New(cfg, nil)

	w, err := Watch(fs, path, p, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("name: Second\n"), 0o644))

	assert.Eventually(t, func() bool {
		return p.Config().Name == "Second"
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, p.Stale())

	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "close is idempotent")
}
