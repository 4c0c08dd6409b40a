// Package compressor wraps the external archive compressor (bzip2 by default).
package compressor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fgeck/gomysqlmb/internal/services/command"
	"github.com/rs/zerolog"
)

// Service defines the interface for compressing and decompressing dumps.
type Service interface {
	// Compress replaces path with path.<ext>.
	Compress(ctx context.Context, path string) (string, error)
	// Decompress writes the decompressed content of archivePath to destPath, keeping the archive.
	Decompress(ctx context.Context, archivePath string, destPath string) error
}

// Impl implements Service using a bzip2 compatible command line tool.
type Impl struct {
	executor command.Executor
	program  string
	ext      string
	timeout  time.Duration
	logger   zerolog.Logger
}

// New creates a new compressor service.
func New(logger zerolog.Logger, program string, ext string, timeout time.Duration) *Impl {
	return NewWithExecutor(logger, &command.DefaultExecutor{}, program, ext, timeout)
}

// NewWithExecutor creates a new compressor service with a custom executor (for testing).
func NewWithExecutor(logger zerolog.Logger, executor command.Executor, program string, ext string, timeout time.Duration) *Impl {
	return &Impl{
		executor: executor,
		program:  program,
		ext:      ext,
		timeout:  timeout,
		logger:   logger,
	}
}

func (s *Impl) tool() string {
	return filepath.Base(s.program)
}

// Compress runs "<program> -f path", which replaces path with path.<ext>.
func (s *Impl) Compress(ctx context.Context, path string) (string, error) {
	ctx, cancel := command.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.executor.Execute(ctx, nil, s.program, "-f", path); err != nil {
		return "", command.AsToolError(s.tool(), err)
	}

	archive := fmt.Sprintf("%s.%s", path, s.ext)
	s.logger.Debug().Str("archive", archive).Msg("dump compressed")
	return archive, nil
}

// Decompress runs "<program> -d -c -k archivePath > destPath".
func (s *Impl) Decompress(ctx context.Context, archivePath string, destPath string) error {
	ctx, cancel := command.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.executor.ExecuteToFile(ctx, nil, destPath, s.program, "-d", "-c", "-k", archivePath); err != nil {
		return command.AsToolError(s.tool(), err)
	}

	s.logger.Debug().Str("archive", archivePath).Str("scratch", destPath).Msg("archive decompressed")
	return nil
}

var _ Service = (*Impl)(nil)
