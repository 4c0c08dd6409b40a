// Package command runs the external tools the maintenance workflows shell out to.
package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fgeck/gomysqlmb/internal/models"
)

// Executor allows mocking exec.Command in tests.
type Executor interface {
	// Execute runs a command and returns its stdout.
	Execute(ctx context.Context, env []string, name string, args ...string) ([]byte, error)
	// ExecuteToFile runs a command with stdout redirected into outputPath.
	ExecuteToFile(ctx context.Context, env []string, outputPath string, name string, args ...string) error
	// ExecuteFromFile runs a command with stdin read from inputPath and returns its stdout.
	ExecuteFromFile(ctx context.Context, env []string, inputPath string, name string, args ...string) ([]byte, error)
}

// DefaultExecutor is the default command executor using os/exec.
type DefaultExecutor struct{}

// Execute runs a command and returns its stdout.
func (e *DefaultExecutor) Execute(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), toolError(name, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// ExecuteToFile runs a command and writes its stdout to outputPath.
func (e *DefaultExecutor) ExecuteToFile(ctx context.Context, env []string, outputPath string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)

	output, err := os.Create(outputPath) //nolint:gosec // outputPath is controlled by caller
	if err != nil {
		return &models.FilesystemError{Op: "create", Path: outputPath, Err: err}
	}
	defer func() { _ = output.Close() }()

	var stderr bytes.Buffer
	cmd.Stdout = output
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return toolError(name, err, stderr.String())
	}

	if err := output.Sync(); err != nil {
		return &models.FilesystemError{Op: "sync", Path: outputPath, Err: err}
	}
	return nil
}

// ExecuteFromFile runs a command with inputPath as stdin.
func (e *DefaultExecutor) ExecuteFromFile(ctx context.Context, env []string, inputPath string, name string, args ...string) ([]byte, error) {
	input, err := os.Open(inputPath) //nolint:gosec // inputPath is controlled by caller
	if err != nil {
		return nil, &models.FilesystemError{Op: "open", Path: inputPath, Err: err}
	}
	defer func() { _ = input.Close() }()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = input

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), toolError(name, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func toolError(name string, err error, stderr string) error {
	toolErr := &models.ExternalToolError{
		Tool:   filepath.Base(name),
		Output: stderr,
		Err:    err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		toolErr.ExitCode = exitErr.ExitCode()
		toolErr.Err = nil
	}
	return toolErr
}

// WithTimeout bounds ctx by timeout. A zero timeout leaves ctx unbounded.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// AsToolError wraps err into an ExternalToolError for tool unless it already is one.
func AsToolError(tool string, err error) error {
	if err == nil {
		return nil
	}
	var toolErr *models.ExternalToolError
	if errors.As(err, &toolErr) {
		return err
	}
	var fsErr *models.FilesystemError
	if errors.As(err, &fsErr) {
		return err
	}
	return &models.ExternalToolError{Tool: tool, Err: err}
}
