package models

import (
	"fmt"
	"time"
)

// SystemDatabases are the databases owned by the MySQL server itself.
var SystemDatabases = []string{"information_schema", "mysql", "performance_schema", "sys"}

// IsSystemDatabase reports whether name belongs to the server's own bookkeeping databases.
func IsSystemDatabase(name string) bool {
	for _, db := range SystemDatabases {
		if db == name {
			return true
		}
	}
	return false
}

// Credentials holds the MySQL connection settings passed through to the tools.
type Credentials struct {
	User     string `validate:"required"`
	Password string
	Host     string `validate:"required"`
	Port     int    `validate:"gte=0,lte=65535"`
}

// UsingPassword reports whether a password was supplied.
func (c Credentials) UsingPassword() bool {
	return c.Password != ""
}

// RedactedPassword returns the password as it may be shown to humans.
func (c Credentials) RedactedPassword() string {
	if c.Password == "" {
		return "<no password>"
	}
	return "********"
}

// String renders the credentials with the password redacted.
func (c Credentials) String() string {
	addr := c.Host
	if c.Port > 0 {
		addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	}
	return fmt.Sprintf("%s@%s (password: %s)", c.User, addr, c.RedactedPassword())
}

// DumpResult holds the result of a single mysqldump invocation.
type DumpResult struct {
	OutputPath string
	SizeBytes  int64
	Duration   time.Duration
	Error      error
}

// CheckResult holds the result of a mysqlcheck run.
type CheckResult struct {
	Output   string
	Duration time.Duration
	Error    error
}
