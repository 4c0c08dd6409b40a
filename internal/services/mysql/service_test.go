package mysql

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockExecutor struct {
	executeFunc     func(ctx context.Context, env []string, name string, args ...string) ([]byte, error)
	toFileFunc      func(ctx context.Context, env []string, outputPath string, name string, args ...string) error
	fromFileFunc    func(ctx context.Context, env []string, inputPath string, name string, args ...string) ([]byte, error)
	executedCommand []string
}

func (m *mockExecutor) Execute(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	m.executedCommand = append([]string{name}, args...)
	if m.executeFunc != nil {
		return m.executeFunc(ctx, env, name, args...)
	}
	return nil, nil
}

func (m *mockExecutor) ExecuteToFile(ctx context.Context, env []string, outputPath string, name string, args ...string) error {
	m.executedCommand = append([]string{name}, args...)
	if m.toFileFunc != nil {
		return m.toFileFunc(ctx, env, outputPath, name, args...)
	}
	// Default behavior: create an empty output file
	return os.WriteFile(outputPath, nil, 0o600)
}

func (m *mockExecutor) ExecuteFromFile(ctx context.Context, env []string, inputPath string, name string, args ...string) ([]byte, error) {
	m.executedCommand = append([]string{name}, args...)
	if m.fromFileFunc != nil {
		return m.fromFileFunc(ctx, env, inputPath, name, args...)
	}
	return nil, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testCredentials() models.Credentials {
	return models.Credentials{
		User:     "backup",
		Password: "secret",
		Host:     "db.local",
	}
}

func testPaths() models.PathConfig {
	return models.PathConfig{
		MySQL:      "/usr/bin/mysql",
		MySQLDump:  "/usr/bin/mysqldump",
		MySQLCheck: "/usr/bin/mysqlcheck",
	}
}

func newTestService(executor *mockExecutor) *Impl {
	return NewWithExecutor(testLogger(), executor, testCredentials(), testPaths(), 0)
}

func TestListDatabases_DiscardsHeader(t *testing.T) {
	var capturedEnv []string
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
			capturedEnv = env
			return []byte("Database\ninformation_schema\nmysql\nshop\n\nwiki\n"), nil
		},
	}

	dbs, err := newTestService(executor).ListDatabases(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"information_schema", "mysql", "shop", "wiki"}, dbs)
	assert.Equal(t, []string{"/usr/bin/mysql", "--user=backup", "--host=db.local", "--batch", "-e", "SHOW DATABASES"}, executor.executedCommand)
	assert.Contains(t, capturedEnv, "MYSQL_PWD=secret")
}

func TestListDatabases_PasswordNeverOnCommandLine(t *testing.T) {
	executor := &mockExecutor{}

	_, err := newTestService(executor).ListDatabases(context.Background())

	require.NoError(t, err)
	for _, arg := range executor.executedCommand {
		assert.NotContains(t, arg, "secret")
	}
}

func TestListDatabases_NoPassword(t *testing.T) {
	var capturedEnv []string
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
			capturedEnv = env
			return []byte("Database\n"), nil
		},
	}
	creds := testCredentials()
	creds.Password = ""
	creds.Port = 3307

	svc := NewWithExecutor(testLogger(), executor, creds, testPaths(), 0)
	dbs, err := svc.ListDatabases(context.Background())

	require.NoError(t, err)
	assert.Empty(t, dbs)
	assert.Empty(t, capturedEnv)
	assert.Contains(t, executor.executedCommand, "--port=3307")
}

func TestListDatabases_Failure(t *testing.T) {
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
			return nil, &models.ExternalToolError{Tool: "mysql", ExitCode: 1, Output: "Access denied"}
		},
	}

	_, err := newTestService(executor).ListDatabases(context.Background())

	require.Error(t, err)
	var enumErr *models.EnumerationError
	require.True(t, errors.As(err, &enumErr))
	assert.Equal(t, "backup", enumErr.User)
	assert.True(t, enumErr.UsingPassword)
	assert.NotContains(t, err.Error(), "secret")

	var toolErr *models.ExternalToolError
	assert.True(t, errors.As(err, &toolErr))
}

func TestCreateDatabase(t *testing.T) {
	executor := &mockExecutor{}

	err := newTestService(executor).CreateDatabase(context.Background(), "we`ird")

	require.NoError(t, err)
	assert.Equal(t, "CREATE DATABASE `we``ird`", executor.executedCommand[len(executor.executedCommand)-1])
}

func TestCreateDatabase_Failure(t *testing.T) {
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
			return nil, errors.New("exit status 1")
		},
	}

	err := newTestService(executor).CreateDatabase(context.Background(), "shop")

	var toolErr *models.ExternalToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "mysql", toolErr.Tool)
}

type stubCatalog struct {
	listed  []string
	created []string
}

func (c *stubCatalog) ListDatabases(ctx context.Context) ([]string, error) {
	return c.listed, nil
}

func (c *stubCatalog) CreateDatabase(ctx context.Context, name string) error {
	c.created = append(c.created, name)
	return nil
}

func TestWithCatalog_Delegates(t *testing.T) {
	executor := &mockExecutor{}
	catalog := &stubCatalog{listed: []string{"shop"}}
	svc := newTestService(executor).WithCatalog(catalog)

	dbs, err := svc.ListDatabases(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.CreateDatabase(context.Background(), "wiki"))

	assert.Equal(t, []string{"shop"}, dbs)
	assert.Equal(t, []string{"wiki"}, catalog.created)
	assert.Nil(t, executor.executedCommand)
}

func TestDump_Success(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "2026-10-18-shop.tmp")

	var capturedOutput string
	executor := &mockExecutor{
		toFileFunc: func(ctx context.Context, env []string, op string, name string, args ...string) error {
			capturedOutput = op
			return os.WriteFile(op, []byte("-- MySQL dump"), 0o600)
		},
	}

	result, err := newTestService(executor).Dump(context.Background(), "shop", outputPath)

	require.NoError(t, err)
	assert.Nil(t, result.Error)
	assert.Equal(t, outputPath, capturedOutput)
	assert.Equal(t, int64(len("-- MySQL dump")), result.SizeBytes)
	assert.Equal(t, "/usr/bin/mysqldump", executor.executedCommand[0])
	assert.Equal(t, "shop", executor.executedCommand[len(executor.executedCommand)-1])
	for _, flag := range []string{"--opt", "--flush-logs", "--allow-keywords", "-q", "-a", "-c"} {
		assert.Contains(t, executor.executedCommand, flag)
	}
}

func TestDump_FailureRemovesPartialFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "2026-10-18-shop.tmp")

	executor := &mockExecutor{
		toFileFunc: func(ctx context.Context, env []string, op string, name string, args ...string) error {
			_ = os.WriteFile(op, []byte("partial"), 0o600)
			return &models.ExternalToolError{Tool: "mysqldump", ExitCode: 2}
		},
	}

	result, err := newTestService(executor).Dump(context.Background(), "shop", outputPath)

	require.NoError(t, err)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "mysqldump")
	_, statErr := os.Stat(outputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRestore(t *testing.T) {
	var capturedInput string
	executor := &mockExecutor{
		fromFileFunc: func(ctx context.Context, env []string, inputPath string, name string, args ...string) ([]byte, error) {
			capturedInput = inputPath
			return nil, nil
		},
	}

	err := newTestService(executor).Restore(context.Background(), "shop", "/backups/2026-10-17-shop")

	require.NoError(t, err)
	assert.Equal(t, "/backups/2026-10-17-shop", capturedInput)
	assert.Equal(t, []string{"/usr/bin/mysql", "--user=backup", "--host=db.local", "shop"}, executor.executedCommand)
}

func TestRestore_Failure(t *testing.T) {
	executor := &mockExecutor{
		fromFileFunc: func(ctx context.Context, env []string, inputPath string, name string, args ...string) ([]byte, error) {
			return nil, &models.ExternalToolError{Tool: "mysql", ExitCode: 1}
		},
	}

	err := newTestService(executor).Restore(context.Background(), "shop", "/backups/x")

	var toolErr *models.ExternalToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, 1, toolErr.ExitCode)
}

func TestCheck(t *testing.T) {
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
			return []byte("shop.orders  OK\n"), nil
		},
	}

	result, err := newTestService(executor).Check(context.Background())

	require.NoError(t, err)
	assert.Nil(t, result.Error)
	assert.Equal(t, "shop.orders  OK\n", result.Output)
	assert.Equal(t, "/usr/bin/mysqlcheck", executor.executedCommand[0])
	assert.Contains(t, executor.executedCommand, "--optimize")
	assert.Contains(t, executor.executedCommand, "-A")
}

func TestCheck_Failure(t *testing.T) {
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
			return []byte("partial"), &models.ExternalToolError{Tool: "mysqlcheck", ExitCode: 2}
		},
	}

	result, err := newTestService(executor).Check(context.Background())

	require.NoError(t, err)
	require.Error(t, result.Error)
	assert.Equal(t, "partial", result.Output)
}

func TestDSN(t *testing.T) {
	dsn := DSN(models.Credentials{User: "backup", Password: "secret", Host: "db.local", Port: 3307})
	assert.Contains(t, dsn, "backup:secret@tcp(db.local:3307)/")

	dsn = DSN(models.Credentials{User: "backup", Host: "db.local"})
	assert.Contains(t, dsn, "backup@tcp(db.local:3306)/")
}

func TestDriverCatalog_OpenFailure(t *testing.T) {
	catalog := NewDriverCatalog(testLogger(), testCredentials())
	catalog.open = func(dsn string) (*sql.DB, error) {
		return nil, errors.New("bad dsn")
	}

	_, err := catalog.ListDatabases(context.Background())

	var enumErr *models.EnumerationError
	require.True(t, errors.As(err, &enumErr))
	assert.Contains(t, err.Error(), "bad dsn")
	assert.NotContains(t, err.Error(), "secret")

	err = catalog.CreateDatabase(context.Background(), "shop")
	var toolErr *models.ExternalToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "mysql-driver", toolErr.Tool)
}

func TestDriverCatalog_UnreachableServer(t *testing.T) {
	creds := models.Credentials{User: "backup", Host: "127.0.0.1", Port: 1}
	catalog := NewDriverCatalog(testLogger(), creds)

	_, err := catalog.ListDatabases(context.Background())

	var enumErr *models.EnumerationError
	require.True(t, errors.As(err, &enumErr))
	assert.False(t, enumErr.UsingPassword)
}
