// Package orchestrator drives a chat session: it reads user input, queries the
// model, dispatches the tool calls the model asks for, and keeps the session
// state checkpointed.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/elee1766/toolchat/src/aisdk"
	"github.com/elee1766/toolchat/src/chain"
	"github.com/elee1766/toolchat/src/mcp"
	"github.com/elee1766/toolchat/src/session"
	"github.com/elee1766/toolchat/src/storage"
)

// RecoveryMessage is appended as the model's turn when a step fails.
const RecoveryMessage = "Sorry, something went wrong on my side while working on that. Could you try again?"

// Defaults applied by New.
const (
	DefaultMaxHistory      = 10
	DefaultCheckpointEvery = 3
)

// Mode is the loop's current state.
type Mode int

const (
	ModeAwaitInput Mode = iota
	ModeDispatching
	ModeGenerating
)

func (m Mode) String() string {
	switch m {
	case ModeAwaitInput:
		return "await_input"
	case ModeDispatching:
		return "dispatching"
	case ModeGenerating:
		return "generating"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Persona builds the system instruction and updates conversational side-state.
type Persona interface {
	// SystemPrompt renders the instruction placed at turn 0.
	SystemPrompt(state *session.State, tracker *chain.Tracker) (string, error)

	// Observe folds a user utterance into the state's topic and mood counters.
	Observe(state *session.State, utterance string)

	// Stale reports, and clears, a pending prompt refresh.
	Stale() bool
}

// Checkpointer persists session state.
type Checkpointer interface {
	Save(state *session.State) error
	Path() string
}

// AuditRecorder receives one entry per dispatched tool call.
type AuditRecorder interface {
	RecordToolExecution(ctx context.Context, execution *storage.ToolExecution) error
	RecordSuppressed(ctx context.Context) error
}

// Config holds the collaborators and policy of a Loop.
type Config struct {
	Model    aisdk.ModelClient
	Registry mcp.Registry
	Tools    []aisdk.ToolDeclaration
	Input    InputSource

	State   *session.State
	Store   Checkpointer
	Tracker *chain.Tracker
	Guard   *Guard
	Persona Persona
	Audit   AuditRecorder
	Events  EventSink
	Logger  *slog.Logger
	Now     func() time.Time

	// MaxHistory is the number of exchanges kept besides the system turn
	MaxHistory int
	// CheckpointEvery saves the session after this many model replies
	CheckpointEvery int
	// ReminderAfterTurns enables tool reminders once the history is this long; 0 disables
	ReminderAfterTurns int
	// ReminderWindow is how recent a tool call must be to skip the reminder
	ReminderWindow time.Duration
}

// Loop is a single-threaded conversation driver. Each Step performs one
// state transition and appends at most one turn.
type Loop struct {
	model    aisdk.ModelClient
	registry mcp.Registry
	tools    []aisdk.ToolDeclaration
	input    InputSource
	state    *session.State
	store    Checkpointer
	tracker  *chain.Tracker
	guard    *Guard
	persona  Persona
	audit    AuditRecorder
	events   EventSink
	logger   *slog.Logger
	now      func() time.Time

	maxHistory         int
	checkpointEvery    int
	reminderAfterTurns int
	reminderWindow     time.Duration

	mode         Mode
	pending      *aisdk.FunctionCall
	generations  int
	lastReminder time.Time
	started      bool
	done         bool
}

// New validates the configuration and builds a Loop.
func New(config Config) (*Loop, error) {
	if config.Model == nil {
		return nil, ErrModelClientRequired
	}
	if config.Registry == nil {
		return nil, ErrRegistryRequired
	}
	if config.Input == nil {
		return nil, ErrInputRequired
	}
	if config.State == nil {
		return nil, ErrStateRequired
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Tracker == nil {
		config.Tracker = chain.New(chain.WithClock(config.Now))
	}
	if config.Guard == nil {
		config.Guard = NewGuard(nil, DefaultCooldown, config.Now)
	}
	if config.Events == nil {
		config.Events = discardSink{}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxHistory <= 0 {
		config.MaxHistory = DefaultMaxHistory
	}
	if config.CheckpointEvery <= 0 {
		config.CheckpointEvery = DefaultCheckpointEvery
	}
	if config.ReminderWindow <= 0 {
		config.ReminderWindow = 5 * time.Minute
	}

	return &Loop{
		model:              config.Model,
		registry:           config.Registry,
		tools:              config.Tools,
		input:              config.Input,
		state:              config.State,
		store:              config.Store,
		tracker:            config.Tracker,
		guard:              config.Guard,
		persona:            config.Persona,
		audit:              config.Audit,
		events:             config.Events,
		logger:             config.Logger.With("component", "orchestrator", "session_id", config.State.SessionID),
		now:                config.Now,
		maxHistory:         config.MaxHistory,
		checkpointEvery:    config.CheckpointEvery,
		reminderAfterTurns: config.ReminderAfterTurns,
		reminderWindow:     config.ReminderWindow,
		mode:               ModeAwaitInput,
	}, nil
}

// Mode returns the current state.
func (l *Loop) Mode() Mode { return l.mode }

// State returns the live session state.
func (l *Loop) State() *session.State { return l.state }

// Tracker returns the tool chain tracker.
func (l *Loop) Tracker() *chain.Tracker { return l.tracker }

// Done reports whether the session has ended.
func (l *Loop) Done() bool { return l.done }

// Run steps the loop until the session ends. It returns nil on exit, quit or
// end of input, and the context error when ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	for !l.done {
		if err := l.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Step performs one transition. Only input failures and cancellation are
// returned; model and tool failures, panics included, are folded into the
// conversation.
func (l *Loop) Step(ctx context.Context) error {
	if l.done {
		return nil
	}
	if !l.started {
		l.start()
	}

	l.state.Turns = trimHistory(l.state.Turns, l.maxHistory)

	switch l.mode {
	case ModeDispatching:
		l.guarded("dispatch", func() { l.dispatch(ctx) })
	case ModeGenerating:
		var err error
		l.guarded("generate", func() { err = l.generate(ctx) })
		return err
	default:
		return l.awaitInput(ctx)
	}
	return nil
}

// guarded runs one step and turns a panic into a recovery turn.
func (l *Loop) guarded(where string, step func()) {
	defer func() {
		if r := recover(); r != nil {
			l.pending = nil
			l.fail(where, fmt.Errorf("%w: %v", ErrStepPanic, r))
		}
	}()
	step()
}

func (l *Loop) start() {
	l.started = true
	resumed := len(l.state.Turns) > 0
	l.refreshSystemTurn()

	l.logger.Info("session started",
		"model", l.model.ModelName(),
		"tools", len(l.tools),
		"resumed", resumed,
		"turns", len(l.state.Turns))
	l.emit(&SessionStartEvent{
		BaseEvent: l.base(EventSessionStart),
		Model:     l.model.ModelName(),
		ToolCount: len(l.tools),
		Resumed:   resumed,
	})
}

// refreshSystemTurn places the current persona prompt at index 0.
func (l *Loop) refreshSystemTurn() {
	if l.persona == nil {
		return
	}
	prompt, err := l.persona.SystemPrompt(l.state, l.tracker)
	if err != nil {
		l.logger.Warn("failed to build system prompt", "error", err)
		return
	}
	turn := aisdk.NewSystemTurn(prompt)
	turn.CreatedAt = l.now()
	if len(l.state.Turns) > 0 && l.state.Turns[0].System {
		l.state.Turns[0] = turn
		return
	}
	l.state.Turns = append([]aisdk.Turn{turn}, l.state.Turns...)
}

func (l *Loop) awaitInput(ctx context.Context) error {
	line, err := l.input.ReadLine(ctx)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		l.end("eof")
		return nil
	case ctx.Err() != nil:
		l.end("canceled")
		return ctx.Err()
	default:
		l.end("input_error")
		return err
	}

	text := strings.TrimSpace(line)
	if text == "" {
		return nil
	}
	if isExitCommand(text) {
		l.end("exit")
		return nil
	}

	now := l.now()
	l.state.Touch(now)
	if l.persona != nil {
		l.persona.Observe(l.state, text)
	}

	turn := aisdk.NewTextTurn(aisdk.RoleUser, text)
	turn.CreatedAt = now
	reminded := l.attachReminder(&turn)
	l.state.Turns = append(l.state.Turns, turn)

	l.emit(&UserMessageEvent{
		BaseEvent: l.base(EventUserMessage),
		Message:   text,
		Reminded:  reminded,
	})
	l.mode = ModeGenerating
	return nil
}

// attachReminder adds a tool nudge to a user turn when the conversation has
// run long without any tool use. At most one reminder per window.
func (l *Loop) attachReminder(turn *aisdk.Turn) bool {
	if l.reminderAfterTurns <= 0 || len(l.tools) == 0 {
		return false
	}
	if len(l.state.Turns) < l.reminderAfterTurns {
		return false
	}
	now := l.now()
	if l.tracker.AnyRecentlyUsed(l.reminderWindow) {
		return false
	}
	if !l.lastReminder.IsZero() && now.Sub(l.lastReminder) < l.reminderWindow {
		return false
	}
	l.lastReminder = now

	names := make([]string, 0, len(l.tools))
	for _, t := range l.tools {
		names = append(names, t.Name)
	}
	text := fmt.Sprintf("(Reminder: you can act through your tools: %s. Call one when the request needs it.)", strings.Join(names, ", "))
	turn.Parts = append(turn.Parts, aisdk.Part{Text: text})

	l.logger.Debug("attached tool reminder", "turns", len(l.state.Turns))
	l.emit(&SystemMessageEvent{
		BaseEvent: l.base(EventSystemMessage),
		Message:   "reminded the model of its tools",
		Purpose:   "reminder",
	})
	return true
}

// generate queries the model. Only cancellation is returned; it ends the
// session without appending a turn.
func (l *Loop) generate(ctx context.Context) error {
	l.mode = ModeAwaitInput

	if l.persona != nil && l.persona.Stale() {
		l.logger.Info("persona changed, refreshing system prompt")
		l.refreshSystemTurn()
	}

	resp, err := l.model.Generate(ctx, &aisdk.GenerateRequest{
		Turns: l.state.Turns,
		Tools: l.tools,
	})
	switch {
	case err != nil && ctx.Err() != nil:
		l.end("canceled")
		return ctx.Err()
	case err != nil:
		l.fail("generate", err)
		return nil
	case resp == nil:
		l.fail("generate", ErrEmptyResponse)
		return nil
	}

	l.generations++
	defer func() {
		if l.generations%l.checkpointEvery == 0 {
			l.checkpoint()
		}
	}()

	if resp.FunctionCall != nil {
		call := *resp.FunctionCall
		turn := aisdk.Turn{
			Role:      aisdk.RoleModel,
			Parts:     []aisdk.Part{{FunctionCall: &call}},
			CreatedAt: l.now(),
		}
		l.state.Turns = append(l.state.Turns, turn)
		l.pending = &call
		l.mode = ModeDispatching
		l.logger.Debug("model requested tool", "tool", call.Name)
		return nil
	}

	text := resp.Text
	if strings.TrimSpace(text) == "" {
		text = aisdk.FallbackText
	}
	l.appendModelText(text)
	l.emit(&ModelMessageEvent{
		BaseEvent: l.base(EventModelMessage),
		Content:   text,
	})
	return nil
}

// fail logs a failed step and answers with a recovery turn.
func (l *Loop) fail(where string, err error) {
	l.logger.Error("step failed", "context", where, "error", err)
	l.emit(&ErrorEvent{
		BaseEvent: l.base(EventError),
		Error:     err,
		Context:   where,
	})
	l.appendModelText(RecoveryMessage)
	l.emit(&ModelMessageEvent{
		BaseEvent: l.base(EventModelMessage),
		Content:   RecoveryMessage,
		Recovery:  true,
	})
	l.mode = ModeAwaitInput
}

func (l *Loop) dispatch(ctx context.Context) {
	call := l.pending
	l.pending = nil
	l.mode = ModeAwaitInput
	if call == nil {
		return
	}

	logger := l.logger.With("tool", call.Name)

	args, err := call.ArgumentsMap()
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		logger.Warn("rejecting tool call", "error", err)
		text := fmt.Sprintf("Error calling tool %s: %v", call.Name, err)
		l.appendUserText(text)
		l.emit(&ToolResultEvent{
			BaseEvent: l.base(EventToolResult),
			ToolName:  call.Name,
			Output:    text,
		})
		return
	}

	if !l.guard.Allow(call.Name, args) {
		logger.Info("suppressed duplicate tool call")
		l.appendModelText(DuplicateMessage)
		l.emit(&ToolSuppressedEvent{
			BaseEvent: l.base(EventToolSuppressed),
			ToolName:  call.Name,
			Message:   DuplicateMessage,
		})
		if l.audit != nil {
			if err := l.audit.RecordSuppressed(ctx); err != nil {
				logger.Warn("failed to audit suppressed call", "error", err)
			}
		}
		return
	}

	if !l.tracker.ShouldContinue() {
		logger.Warn("recent tool calls failed, dispatching anyway")
		l.emit(&SystemMessageEvent{
			BaseEvent: l.base(EventSystemMessage),
			Message:   "the last tool calls failed",
			Purpose:   "warning",
		})
	}

	l.emit(&ToolCallEvent{
		BaseEvent: l.base(EventToolCall),
		ToolName:  call.Name,
		Arguments: call.Arguments,
	})

	start := l.now()
	outcome := l.tracker.Execute(ctx, l.registry, call.Name, args)
	duration := l.now().Sub(start)

	text := resultText(call.Name, outcome)
	l.appendUserText(text)

	if outcome.Success {
		logger.Info("tool completed", "duration", duration)
	} else {
		logger.Warn("tool failed", "duration", duration, "output", text)
	}
	l.emit(&ToolResultEvent{
		BaseEvent: l.base(EventToolResult),
		ToolName:  call.Name,
		Success:   outcome.Success,
		Output:    text,
		Duration:  duration,
	})
	l.recordAudit(ctx, call, outcome, duration)
}

// resultText renders a settled call as the turn folded into the history.
func resultText(name string, outcome chain.Outcome) string {
	switch {
	case outcome.Err != nil:
		return fmt.Sprintf("Error calling tool %s: %v", name, outcome.Err)
	case !outcome.Success:
		msg := outcome.Result.Text()
		if msg == "" {
			msg = "tool reported an error"
		}
		return fmt.Sprintf("Error calling tool %s: %s", name, msg)
	case outcome.Result == nil || len(outcome.Result.Content) == 0:
		return "Tool returned no content"
	default:
		return "Tool result: " + outcome.Result.Text()
	}
}

func (l *Loop) recordAudit(ctx context.Context, call *aisdk.FunctionCall, outcome chain.Outcome, duration time.Duration) {
	if l.audit == nil {
		return
	}
	input := string(call.Arguments)
	if !json.Valid(call.Arguments) {
		input = "{}"
	}
	execution := &storage.ToolExecution{
		ToolName:   call.Name,
		Input:      input,
		Status:     storage.StatusCompleted,
		DurationMs: duration.Milliseconds(),
		CreatedAt:  l.now(),
	}
	if outcome.Result != nil {
		execution.Output = outcome.Result.Text()
	}
	if !outcome.Success {
		execution.Status = storage.StatusFailed
		execution.Error = outcome.Text()
	}
	if err := l.audit.RecordToolExecution(ctx, execution); err != nil {
		l.logger.Warn("failed to audit tool execution", "tool", call.Name, "error", err)
	}
}

func (l *Loop) appendModelText(text string) {
	turn := aisdk.NewTextTurn(aisdk.RoleModel, text)
	turn.CreatedAt = l.now()
	l.state.Turns = append(l.state.Turns, turn)
}

func (l *Loop) appendUserText(text string) {
	turn := aisdk.NewTextTurn(aisdk.RoleUser, text)
	turn.CreatedAt = l.now()
	l.state.Turns = append(l.state.Turns, turn)
}

// checkpoint saves the session. Failures are logged and otherwise ignored.
func (l *Loop) checkpoint() {
	if l.store == nil {
		return
	}
	err := l.store.Save(l.state)
	if err != nil {
		l.logger.Error("failed to save session", "path", l.store.Path(), "error", err)
	} else {
		l.logger.Debug("session saved", "path", l.store.Path(), "turns", len(l.state.Turns))
	}
	l.emit(&CheckpointEvent{
		BaseEvent: l.base(EventCheckpoint),
		Path:      l.store.Path(),
		Error:     err,
	})
}

func (l *Loop) end(reason string) {
	l.done = true
	l.mode = ModeAwaitInput
	l.checkpoint()
	l.logger.Info("session ended", "reason", reason, "turns", len(l.state.Turns), "interactions", l.state.InteractionCount)
	l.emit(&SessionEndEvent{
		BaseEvent:  l.base(EventSessionEnd),
		Reason:     reason,
		TotalTurns: len(l.state.Turns),
	})
}

func (l *Loop) base(t EventType) BaseEvent {
	return BaseEvent{
		Type:       t,
		Timestamp:  l.now(),
		SessionID:  l.state.SessionID,
		TurnNumber: len(l.state.Turns),
	}
}

func (l *Loop) emit(event ConversationEvent) {
	if err := l.events.Send(event); err != nil {
		l.logger.Debug("failed to deliver event", "type", event.GetType(), "error", err)
	}
}
