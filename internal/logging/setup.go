// Package logging builds the zerolog logger shared by all services.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the console and log file outputs.
type Options struct {
	Verbose bool
	Quiet   bool
	JSON    bool
	Console io.Writer // defaults to os.Stdout

	// File is the rotated log file. Empty disables file logging.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// ConsoleLevel maps the verbosity flags to the console log level.
func ConsoleLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case quiet:
		return zerolog.ErrorLevel
	case verbose:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewConsoleWriter returns the human readable console writer, or out itself for JSON.
func NewConsoleWriter(out io.Writer, json bool) io.Writer {
	if json {
		return out
	}
	output := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	output.FormatLevel = func(i interface{}) string {
		if s, ok := i.(string); ok {
			return strings.ToUpper(s)
		}
		return ""
	}
	return output
}

// Setup creates the logger and installs it as the global zerolog logger.
// The returned closer releases the log file and must be called on exit.
func Setup(opts Options) (zerolog.Logger, io.Closer, error) {
	out := opts.Console
	if out == nil {
		out = os.Stdout
	}
	consoleLevel := ConsoleLevel(opts.Verbose, opts.Quiet)
	console := &zerolog.FilteredLevelWriter{
		Writer: zerolog.LevelWriterAdapter{Writer: NewConsoleWriter(out, opts.JSON)},
		Level:  consoleLevel,
	}

	if opts.File == "" {
		logger := zerolog.New(console).Level(consoleLevel).With().Timestamp().Logger()
		log.Logger = logger
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	fileWriter := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}

	// The log file keeps INFO and above even when the console is quiet.
	fileLevel := zerolog.InfoLevel
	if opts.Verbose {
		fileLevel = zerolog.DebugLevel
	}
	file := &zerolog.FilteredLevelWriter{
		Writer: zerolog.LevelWriterAdapter{Writer: fileWriter},
		Level:  fileLevel,
	}

	minLevel := consoleLevel
	if fileLevel < minLevel {
		minLevel = fileLevel
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(console, file)).
		Level(minLevel).
		With().
		Timestamp().
		Logger()
	log.Logger = logger

	return logger, fileWriter, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
