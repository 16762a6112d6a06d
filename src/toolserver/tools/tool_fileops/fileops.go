package tool_fileops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/aymanbagabas/go-udiff"
	"github.com/elee1766/toolchat/src/mcp"
	"github.com/elee1766/toolchat/src/toolkit"
	"github.com/elee1766/toolchat/src/toolserver/tools/toolsutil"
	"github.com/spf13/afero"
)

// Tool name constant
const Name = "fileOperations"

const fileOpsPrompt = "Perform file system operations (read, write, append, delete, execute commands)"

// Operations
const (
	OpRead    = "read"
	OpWrite   = "write"
	OpAppend  = "append"
	OpDelete  = "delete"
	OpExecute = "execute"
)

const defaultCommandTimeout = 60 * time.Second

// FileOpsInput represents the parameters for fileOperations
type FileOpsInput struct {
	Operation string `json:"operation" required:"true" enum:"read,write,append,delete,execute" description:"The operation to perform" validate:"required,oneof=read write append delete execute"`
	Path      string `json:"path,omitempty" description:"File path for read/write/delete operations" validate:"required_unless=Operation execute"`
	Content   string `json:"content,omitempty" description:"Content to write (for write/append operations)" validate:"required_if=Operation write,required_if=Operation append"`
	Command   string `json:"command,omitempty" description:"Command to execute (for execute operation)" validate:"required_if=Operation execute"`
}

// FileOpsOutput is a status line plus an optional attached resource.
type FileOpsOutput struct {
	Message  string
	Resource *mcp.ContentItem
}

// Content renders the status line first so callers reading the first text
// item see the outcome.
func (o FileOpsOutput) Content() []mcp.ContentItem {
	items := []mcp.ContentItem{{Type: mcp.ContentTypeText, Text: o.Message}}
	if o.Resource != nil {
		items = append(items, *o.Resource)
	}
	return items
}

// Options configures the tool.
type Options struct {
	CommandTimeout time.Duration
}

// Tool returns the fileOperations tool confined to ws.
func Tool(ws *toolsutil.Workspace, opts Options) (toolkit.Tool, error) {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = defaultCommandTimeout
	}
	return toolkit.NewGenericTool(Name, fileOpsPrompt, makeFileOpsHandler(ws, opts))
}

func makeFileOpsHandler(ws *toolsutil.Workspace, opts Options) toolkit.GenericToolHandler[FileOpsInput, FileOpsOutput] {
	return func(ctx context.Context, input FileOpsInput) (FileOpsOutput, error) {
		select {
		case <-ctx.Done():
			return FileOpsOutput{}, fmt.Errorf("operation cancelled")
		default:
		}

		switch input.Operation {
		case OpRead:
			return readFile(ws, input.Path)
		case OpWrite, OpAppend:
			return writeFile(ws, input.Path, input.Content, input.Operation)
		case OpDelete:
			return deleteFile(ws, input.Path)
		case OpExecute:
			return executeCommand(ctx, ws.Root, input.Command, opts.CommandTimeout)
		default:
			return FileOpsOutput{}, toolkit.Failf("Unknown operation: %s", input.Operation)
		}
	}
}

func readFile(ws *toolsutil.Workspace, path string) (FileOpsOutput, error) {
	logger := toolsutil.GetLogger()

	resolved, err := ws.Resolve(path)
	if err != nil {
		logger.Error("path outside workspace rejected", "path", path)
		return FileOpsOutput{}, toolkit.Failf("Error reading file: %w", err)
	}

	info, err := ws.Fs.Stat(resolved)
	if err != nil {
		return FileOpsOutput{}, toolkit.Failf("Error reading file: %w", err)
	}
	if info.IsDir() {
		return FileOpsOutput{}, toolkit.Failf("Error reading file: %s is a directory", path)
	}
	if err := toolsutil.ValidateFileSize(info.Size()); err != nil {
		return FileOpsOutput{}, toolkit.Failf("Error reading file: %w", err)
	}

	content, err := afero.ReadFile(ws.Fs, resolved)
	if err != nil {
		return FileOpsOutput{}, toolkit.Failf("Error reading file: %w", err)
	}
	if !toolsutil.IsTextFile(content) {
		return FileOpsOutput{}, toolkit.Failf("Error reading file: %w (%s)", toolsutil.ErrNotTextFile, toolsutil.DetectMIME(content))
	}

	logger.Info("file read", "path", resolved, "size", len(content))
	return FileOpsOutput{
		Message: "Successfully read file: " + path,
		Resource: &mcp.ContentItem{
			Type:     mcp.ContentTypeResource,
			Text:     string(content),
			URI:      "file://" + resolved,
			MimeType: toolsutil.DetectMIME(content),
		},
	}, nil
}

func writeFile(ws *toolsutil.Workspace, path, content, mode string) (FileOpsOutput, error) {
	logger := toolsutil.GetLogger()

	resolved, err := ws.Resolve(path)
	if err != nil {
		logger.Error("path outside workspace rejected", "path", path)
		return FileOpsOutput{}, toolkit.Failf("Error writing to file: %w", err)
	}
	if err := toolsutil.ValidateFileSize(int64(len(content))); err != nil {
		return FileOpsOutput{}, toolkit.Failf("Error writing to file: %w", err)
	}
	if err := ws.EnsureParent(resolved); err != nil {
		return FileOpsOutput{}, toolkit.Failf("Error writing to file: %w", err)
	}

	if mode == OpAppend {
		f, err := ws.Fs.OpenFile(resolved, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return FileOpsOutput{}, toolkit.Failf("Error writing to file: %w", err)
		}
		_, werr := f.WriteString(content)
		cerr := f.Close()
		if err := errors.Join(werr, cerr); err != nil {
			return FileOpsOutput{}, toolkit.Failf("Error writing to file: %w", err)
		}
		logger.Info("file appended", "path", resolved, "size", len(content))
		return FileOpsOutput{Message: "Successfully appended to file: " + path}, nil
	}

	previous, readErr := afero.ReadFile(ws.Fs, resolved)
	if err := afero.WriteFile(ws.Fs, resolved, []byte(content), 0o644); err != nil {
		return FileOpsOutput{}, toolkit.Failf("Error writing to file: %w", err)
	}
	logger.Info("file written", "path", resolved, "size", len(content))

	out := FileOpsOutput{Message: "Successfully wrote to file: " + path}
	if readErr == nil && !bytes.Equal(previous, []byte(content)) && toolsutil.IsTextFile(previous) {
		out.Resource = &mcp.ContentItem{
			Type:     mcp.ContentTypeResource,
			Text:     udiff.Unified("a/"+path, "b/"+path, string(previous), content),
			URI:      "diff://" + resolved,
			MimeType: "text/x-diff",
		}
	}
	return out, nil
}

func deleteFile(ws *toolsutil.Workspace, path string) (FileOpsOutput, error) {
	logger := toolsutil.GetLogger()

	resolved, err := ws.Resolve(path)
	if err != nil {
		logger.Error("path outside workspace rejected", "path", path)
		return FileOpsOutput{}, toolkit.Failf("Error deleting file: %w", err)
	}

	info, err := ws.Fs.Stat(resolved)
	if err != nil {
		return FileOpsOutput{}, toolkit.Failf("Error deleting file: File not found or not accessible: %s", path)
	}
	if info.IsDir() {
		return FileOpsOutput{}, toolkit.Failf("Error deleting file: Cannot delete directories with this operation")
	}
	if err := ws.Fs.Remove(resolved); err != nil {
		return FileOpsOutput{}, toolkit.Failf("Error deleting file: Failed to delete file: %w", err)
	}

	logger.Info("file deleted", "path", resolved)
	return FileOpsOutput{Message: "Successfully deleted file: " + path}, nil
}

func executeCommand(ctx context.Context, dir, command string, timeout time.Duration) (FileOpsOutput, error) {
	logger := toolsutil.GetLogger()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	logger.Info("command finished", "command", command, "duration", time.Since(start), "error", err)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return FileOpsOutput{}, toolkit.Failf("Error executing command: timed out after %s", timeout)
		}
		msg := err.Error()
		if s := bytes.TrimSpace(stderr.Bytes()); len(s) > 0 {
			msg += ": " + string(s)
		}
		return FileOpsOutput{}, toolkit.Failf("Error executing command: %s", msg)
	}

	output := stdout.String()
	if output == "" {
		output = stderr.String()
	}
	return FileOpsOutput{
		Message: "Command executed successfully",
		Resource: &mcp.ContentItem{
			Type: mcp.ContentTypeResource,
			Text: output,
			URI:  "command-output",
		},
	}, nil
}
