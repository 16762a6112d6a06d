package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store reads and writes a single session file.
type Store struct {
	fs     afero.Fs
	path   string
	logger *slog.Logger
}

// NewStore creates a store for the session file at path.
func NewStore(fsys afero.Fs, path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		fs:     fsys,
		path:   path,
		logger: logger.With("component", "session_store", "path", path),
	}
}

// Path returns the session file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted state. A missing, empty, or unreadable file
// yields a fresh default state; corruption is logged, never returned.
func (s *Store) Load() *State {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to read session file, starting fresh", "error", err)
		}
		return NewState()
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return NewState()
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("session file is corrupt, starting fresh", "error", err)
		return NewState()
	}
	state.normalize()
	s.logger.Debug("loaded session", "session_id", state.SessionID, "turns", len(state.Turns))
	return &state
}

// Save writes the state atomically by writing a temp file and renaming it
// over the target.
func (s *Store) Save(state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Reset removes the session file.
func (s *Store) Reset() error {
	err := s.fs.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
