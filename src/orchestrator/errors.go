package orchestrator

import "errors"

// Common errors
var (
	// ErrModelClientRequired is returned when no model client is configured
	ErrModelClientRequired = errors.New("model client is required")

	// ErrRegistryRequired is returned when no tool registry is configured
	ErrRegistryRequired = errors.New("tool registry is required")

	// ErrInputRequired is returned when no input source is configured
	ErrInputRequired = errors.New("input source is required")

	// ErrStateRequired is returned when no session state is configured
	ErrStateRequired = errors.New("session state is required")

	// ErrInvalidArguments is returned when a function call carries undecodable arguments
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrEmptyResponse is returned when the model answers with neither text nor a call
	ErrEmptyResponse = errors.New("model returned no response")

	// ErrStepPanic wraps a panic raised while generating or dispatching
	ErrStepPanic = errors.New("step panicked")
)
