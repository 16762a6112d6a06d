package mcp

import "errors"

var (
	// ErrRegistryUnreachable indicates the tool registry could not be reached
	// or refused the initialize handshake.
	ErrRegistryUnreachable = errors.New("tool registry unreachable")
)
