// Package models contains the data structures used throughout gomysqlmb.
package models

import "time"

// MaintenanceConfig holds the complete configuration for a maintenance run.
type MaintenanceConfig struct {
	Credentials Credentials
	Paths       PathConfig
	Options     MaintenanceOptions
	Log         LogSettings
	Mail        *MailConfig     // nil if not configured
	Telegram    *TelegramConfig // nil if not configured
	Metrics     *MetricsConfig  // nil if not configured
	Schedule    []ScheduleEntry `validate:"dive"`
}

// PathConfig holds resolved filesystem locations. Paths never carry a trailing separator.
type PathConfig struct {
	BackupDir  string `validate:"required"`
	LogFile    string `validate:"required"`
	MySQL      string `validate:"required"`
	MySQLDump  string `validate:"required"`
	MySQLCheck string `validate:"required"`
	Compressor string `validate:"required"`
}

// List types understood by the list action.
const (
	ListTypeMySQL  = "mysql"
	ListTypeBackup = "backup"
)

// Catalog backends for enumerating and creating databases.
const (
	CatalogClient = "client"
	CatalogDriver = "driver"
)

// MaintenanceOptions holds the behavioral switches of a run.
type MaintenanceOptions struct {
	Databases         []string
	DateFormat        string `validate:"required"`
	ArchiveExtension  string `validate:"required,alphanum"`
	RetentionDays     int    `validate:"gte=0"`
	RestoreOffsetDays int
	Verbose           bool
	Force             bool
	Optimize          bool
	Mail              bool
	MailTo            string        `validate:"omitempty,email"`
	ListType          string        `validate:"oneof=mysql backup"`
	Catalog           string        `validate:"oneof=client driver"`
	ToolTimeout       time.Duration `validate:"gte=0"`
}

// LogSettings controls the rotated log file.
type LogSettings struct {
	MaxSizeMB  int `validate:"gt=0"`
	MaxBackups int `validate:"gte=0"`
	MaxAgeDays int `validate:"gte=0"`
	Compress   bool
}

// MailConfig holds SMTP delivery settings for the maintenance report.
type MailConfig struct {
	Host     string `validate:"required"`
	Port     int    `validate:"gt=0,lte=65535"`
	From     string // defaults to mysql@<host>
	Username string
	Password string
}

// MetricsConfig holds the Prometheus textfile exporter settings.
type MetricsConfig struct {
	TextfileDir string `validate:"required"`
}

// ScheduleEntry binds an action to a cron expression.
type ScheduleEntry struct {
	Action string `mapstructure:"action" validate:"oneof=backup restore optimize cleanup"`
	Spec   string `mapstructure:"spec" validate:"required"`
}
