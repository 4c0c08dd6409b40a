package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/fgeck/gomysqlmb/internal/models"
	driver "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
)

const defaultPort = 3306

// DriverCatalog talks to the server through go-sql-driver/mysql instead of the client tool.
type DriverCatalog struct {
	creds  models.Credentials
	open   func(dsn string) (*sql.DB, error)
	logger zerolog.Logger
}

// NewDriverCatalog creates a catalog using the MySQL driver.
func NewDriverCatalog(logger zerolog.Logger, creds models.Credentials) *DriverCatalog {
	return &DriverCatalog{
		creds: creds,
		open: func(dsn string) (*sql.DB, error) {
			return sql.Open("mysql", dsn)
		},
		logger: logger,
	}
}

// DSN builds the data source name for creds without selecting a schema.
func DSN(creds models.Credentials) string {
	port := creds.Port
	if port == 0 {
		port = defaultPort
	}

	cfg := driver.NewConfig()
	cfg.User = creds.User
	cfg.Passwd = creds.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(creds.Host, strconv.Itoa(port))
	cfg.Timeout = 10 * time.Second
	return cfg.FormatDSN()
}

func (c *DriverCatalog) connect(ctx context.Context) (*sql.DB, error) {
	db, err := c.open(DSN(c.creds))
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL server: %w", err)
	}
	return db, nil
}

// ListDatabases runs SHOW DATABASES over a driver connection.
func (c *DriverCatalog) ListDatabases(ctx context.Context) ([]string, error) {
	databases, err := c.listDatabases(ctx)
	if err != nil {
		return nil, &models.EnumerationError{
			User:          c.creds.User,
			UsingPassword: c.creds.UsingPassword(),
			Err:           err,
		}
	}
	return databases, nil
}

func (c *DriverCatalog) listDatabases(ctx context.Context) ([]string, error) {
	db, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var databases []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan database name: %w", err)
		}
		databases = append(databases, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating database rows: %w", err)
	}

	c.logger.Debug().Int("count", len(databases)).Msg("databases listed via driver")
	return databases, nil
}

// CreateDatabase runs CREATE DATABASE over a driver connection.
func (c *DriverCatalog) CreateDatabase(ctx context.Context, name string) error {
	db, err := c.connect(ctx)
	if err != nil {
		return &models.ExternalToolError{Tool: "mysql-driver", Err: err}
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+quoteIdentifier(name)); err != nil {
		return &models.ExternalToolError{Tool: "mysql-driver", Err: err}
	}

	c.logger.Info().Str("database", name).Msg("database created")
	return nil
}
