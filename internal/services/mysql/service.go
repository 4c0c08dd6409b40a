// Package mysql wraps the MySQL client tools: mysql, mysqldump and mysqlcheck.
package mysql

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/fgeck/gomysqlmb/internal/services/command"
	"github.com/rs/zerolog"
)

// Catalog enumerates and creates databases on the live server.
type Catalog interface {
	ListDatabases(ctx context.Context) ([]string, error)
	CreateDatabase(ctx context.Context, name string) error
}

// Service defines the interface for MySQL maintenance operations.
type Service interface {
	Catalog
	Dump(ctx context.Context, database string, outputPath string) (*models.DumpResult, error)
	Restore(ctx context.Context, database string, inputPath string) error
	Check(ctx context.Context) (*models.CheckResult, error)
}

// Impl implements the Service interface on top of the client tools.
type Impl struct {
	executor command.Executor
	catalog  Catalog
	creds    models.Credentials
	paths    models.PathConfig
	timeout  time.Duration
	logger   zerolog.Logger
}

// New creates a new MySQL service.
func New(logger zerolog.Logger, creds models.Credentials, paths models.PathConfig, timeout time.Duration) *Impl {
	return NewWithExecutor(logger, &command.DefaultExecutor{}, creds, paths, timeout)
}

// NewWithExecutor creates a new MySQL service with a custom executor (for testing).
func NewWithExecutor(
	logger zerolog.Logger,
	executor command.Executor,
	creds models.Credentials,
	paths models.PathConfig,
	timeout time.Duration,
) *Impl {
	return &Impl{
		executor: executor,
		creds:    creds,
		paths:    paths,
		timeout:  timeout,
		logger:   logger,
	}
}

// WithCatalog routes ListDatabases and CreateDatabase through c instead of the mysql client.
func (s *Impl) WithCatalog(c Catalog) *Impl {
	s.catalog = c
	return s
}

func (s *Impl) buildEnv() []string {
	env := []string{}
	if s.creds.Password != "" {
		env = append(env, fmt.Sprintf("MYSQL_PWD=%s", s.creds.Password))
	}
	return env
}

func (s *Impl) connectionArgs() []string {
	args := []string{
		"--user=" + s.creds.User,
		"--host=" + s.creds.Host,
	}
	if s.creds.Port > 0 {
		args = append(args, "--port="+strconv.Itoa(s.creds.Port))
	}
	return args
}

// ListDatabases returns the databases known to the server in server order.
func (s *Impl) ListDatabases(ctx context.Context) ([]string, error) {
	if s.catalog != nil {
		return s.catalog.ListDatabases(ctx)
	}

	ctx, cancel := command.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append(s.connectionArgs(), "--batch", "-e", "SHOW DATABASES")
	output, err := s.executor.Execute(ctx, s.buildEnv(), s.paths.MySQL, args...)
	if err != nil {
		return nil, &models.EnumerationError{
			User:          s.creds.User,
			UsingPassword: s.creds.UsingPassword(),
			Err:           command.AsToolError(filepath.Base(s.paths.MySQL), err),
		}
	}

	databases := parseDatabaseList(string(output))
	s.logger.Debug().Int("count", len(databases)).Msg("databases listed")
	return databases, nil
}

// parseDatabaseList drops the header line and blank lines of SHOW DATABASES output.
func parseDatabaseList(output string) []string {
	lines := strings.Split(output, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}

	databases := make([]string, 0, len(lines))
	for _, line := range lines {
		if name := strings.TrimSpace(line); name != "" {
			databases = append(databases, name)
		}
	}
	return databases
}

// quoteIdentifier quotes a schema name for use in SQL.
func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// CreateDatabase creates an empty database.
func (s *Impl) CreateDatabase(ctx context.Context, name string) error {
	if s.catalog != nil {
		return s.catalog.CreateDatabase(ctx, name)
	}

	ctx, cancel := command.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append(s.connectionArgs(), "-e", "CREATE DATABASE "+quoteIdentifier(name))
	if _, err := s.executor.Execute(ctx, s.buildEnv(), s.paths.MySQL, args...); err != nil {
		return command.AsToolError(filepath.Base(s.paths.MySQL), err)
	}

	s.logger.Info().Str("database", name).Msg("database created")
	return nil
}

// Dump performs a mysqldump of database into outputPath.
func (s *Impl) Dump(ctx context.Context, database string, outputPath string) (*models.DumpResult, error) {
	s.logger.Debug().
		Str("database", database).
		Str("output", outputPath).
		Msg("starting mysqldump")

	start := time.Now()
	result := &models.DumpResult{
		OutputPath: outputPath,
	}

	ctx, cancel := command.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append(s.connectionArgs(),
		"--opt",
		"--flush-logs",
		"--allow-keywords",
		"-q",
		"-a",
		"-c",
		database,
	)

	if execErr := s.executor.ExecuteToFile(ctx, s.buildEnv(), outputPath, s.paths.MySQLDump, args...); execErr != nil {
		// Clean up partial file
		_ = os.Remove(outputPath)
		result.Error = command.AsToolError(filepath.Base(s.paths.MySQLDump), execErr)
		result.Duration = time.Since(start)
		return result, nil //nolint:nilerr // error is stored in result struct by design
	}

	if info, err := os.Stat(outputPath); err == nil {
		result.SizeBytes = info.Size()
	}
	result.Duration = time.Since(start)

	s.logger.Debug().
		Str("output", outputPath).
		Int64("size_bytes", result.SizeBytes).
		Dur("duration", result.Duration).
		Msg("mysqldump completed")

	return result, nil
}

// Restore loads the SQL dump at inputPath into database.
func (s *Impl) Restore(ctx context.Context, database string, inputPath string) error {
	ctx, cancel := command.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append(s.connectionArgs(), database)
	if _, err := s.executor.ExecuteFromFile(ctx, s.buildEnv(), inputPath, s.paths.MySQL, args...); err != nil {
		return command.AsToolError(filepath.Base(s.paths.MySQL), err)
	}
	return nil
}

// Check runs mysqlcheck --optimize over all databases.
func (s *Impl) Check(ctx context.Context) (*models.CheckResult, error) {
	s.logger.Info().Str("host", s.creds.Host).Msg("optimizing databases")

	start := time.Now()
	ctx, cancel := command.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append(s.connectionArgs(), "--optimize", "-A")
	output, err := s.executor.Execute(ctx, s.buildEnv(), s.paths.MySQLCheck, args...)
	result := &models.CheckResult{
		Output:   string(output),
		Duration: time.Since(start),
	}
	if err != nil {
		result.Error = command.AsToolError(filepath.Base(s.paths.MySQLCheck), err)
		return result, nil //nolint:nilerr // error is stored in result struct by design
	}

	s.logger.Info().
		Str("duration", result.Duration.Round(time.Millisecond).String()).
		Msg("database optimization completed")

	return result, nil
}
