package toolsutil

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// Package-level logger for tools
var logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

// SetLogger allows setting a custom logger for the tools package
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// GetLogger returns the package logger
func GetLogger() *slog.Logger {
	return logger
}

var (
	ErrOutsideWorkspace = errors.New("Access denied: Path must be within workspace")
	ErrFileTooLarge     = errors.New("file too large")
	ErrNotTextFile      = errors.New("not a text file")
)

const maxFileSize = 100 * 1024 * 1024

// Workspace confines file access to a root directory.
type Workspace struct {
	Fs   afero.Fs
	Root string
}

// NewWorkspace returns a workspace rooted at root, which must be absolute.
func NewWorkspace(fs afero.Fs, root string) (*Workspace, error) {
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("workspace root must be absolute: %s", root)
	}
	return &Workspace{Fs: fs, Root: filepath.Clean(root)}, nil
}

// Resolve maps a user-supplied path to an absolute path inside the root.
// Relative paths are taken from the root; anything that escapes it is refused.
func (w *Workspace) Resolve(path string) (string, error) {
	if strings.ContainsRune(path, 0) {
		return "", ErrOutsideWorkspace
	}
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(w.Root, resolved)
	}
	resolved = filepath.Clean(resolved)
	if resolved != w.Root && !strings.HasPrefix(resolved, w.Root+string(filepath.Separator)) {
		return "", ErrOutsideWorkspace
	}
	return resolved, nil
}

// EnsureParent creates the parent directory of an already-resolved path.
func (w *Workspace) EnsureParent(resolved string) error {
	if err := w.Fs.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// ValidateFileSize checks if file size is within limits
func ValidateFileSize(size int64) error {
	if size > maxFileSize {
		return fmt.Errorf("%w: file size %s exceeds maximum %s", ErrFileTooLarge, FormatBytes(size), FormatBytes(maxFileSize))
	}
	return nil
}

// IsTextFile reports whether content sniffs as text.
func IsTextFile(content []byte) bool {
	if len(content) == 0 {
		return true
	}
	for m := mimetype.Detect(content); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// DetectMIME returns the sniffed MIME type of content.
func DetectMIME(content []byte) string {
	return mimetype.Detect(content).String()
}

// FormatBytes formats byte count as human-readable string
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
