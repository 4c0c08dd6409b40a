package models

import (
	"fmt"
	"strings"
)

// ExternalToolError reports a non-zero exit of an external tool.
type ExternalToolError struct {
	Tool     string
	ExitCode int
	Output   string
	Err      error
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Tool)
	if e.ExitCode != 0 {
		msg = fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ", output: " + out
	}
	return msg
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// FilesystemError reports an I/O failure on a scratch, temp or archive file.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// ArchiveScanError reports a malformed or inaccessible backup directory.
type ArchiveScanError struct {
	Root string
	Err  error
}

func (e *ArchiveScanError) Error() string {
	return fmt.Sprintf("scanning backup directory %s: %v", e.Root, e.Err)
}

func (e *ArchiveScanError) Unwrap() error { return e.Err }

// EnumerationError reports that the live database list could not be obtained.
type EnumerationError struct {
	User          string
	UsingPassword bool
	Err           error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("listing databases (user: %s, using password: %t): %v", e.User, e.UsingPassword, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }
