package orchestrator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// InputSource yields user utterances. io.EOF ends the session.
type InputSource interface {
	ReadLine(ctx context.Context) (string, error)
}

// LineReader reads newline-terminated utterances, printing a prompt first
// when attached to a terminal.
type LineReader struct {
	lines  chan lineResult
	out    io.Writer
	prompt string
}

type lineResult struct {
	text string
	err  error
}

// NewLineReader starts reading r. The prompt is written to out before each
// read; pass a nil out to suppress it. The reader goroutine exits when r is
// exhausted.
func NewLineReader(r io.Reader, out io.Writer, prompt string) *LineReader {
	lr := &LineReader{
		lines:  make(chan lineResult),
		out:    out,
		prompt: prompt,
	}
	go lr.scan(r)
	return lr
}

// NewStdinReader reads from stdin, prompting only on a terminal.
func NewStdinReader(prompt string) *LineReader {
	var out io.Writer
	if term.IsTerminal(int(os.Stdin.Fd())) {
		out = os.Stdout
	}
	return NewLineReader(os.Stdin, out, prompt)
}

func (l *LineReader) scan(r io.Reader) {
	defer close(l.lines)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		l.lines <- lineResult{text: scanner.Text()}
	}
	if err := scanner.Err(); err != nil {
		l.lines <- lineResult{err: err}
	}
}

// ReadLine returns the next line without its terminator.
func (l *LineReader) ReadLine(ctx context.Context) (string, error) {
	if l.out != nil && l.prompt != "" {
		fmt.Fprint(l.out, l.prompt)
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return strings.TrimRight(res.text, "\r"), nil
	}
}

// isExitCommand reports whether text ends the session.
func isExitCommand(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "exit", "quit":
		return true
	}
	return false
}
