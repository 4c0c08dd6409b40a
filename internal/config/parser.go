// Package config provides configuration loading from file, environment and flags.
package config

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/fgeck/gomysqlmb/internal/naming"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. MYSQLMB_CONNECTION_PASSWORD.
const EnvPrefix = "MYSQLMB"

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"user":           "connection.user",
	"password":       "connection.password",
	"host":           "connection.host",
	"port":           "connection.port",
	"databases":      "options.databases",
	"retention-time": "options.retention",
	"time-offset":    "options.restore_offset",
	"mail-to":        "options.mail_to",
	"mail":           "options.mail",
	"optimize":       "options.optimize",
	"list-type":      "options.list_type",
	"force":          "options.force",
	"date-format":    "options.date_format",
	"catalog":        "options.catalog",
	"tool-timeout":   "options.tool_timeout",
	"backup-path":    "paths.backup",
	"mysql-path":     "paths.mysql_dir",
	"log-file":       "paths.logfile",
}

// Parser handles configuration parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser with defaults and environment overrides.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return &Parser{v: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("connection.user", "backup")
	v.SetDefault("connection.password", "")
	v.SetDefault("connection.host", "localhost")
	v.SetDefault("connection.port", 0)

	v.SetDefault("paths.backup", "/var/backups/mysql")
	v.SetDefault("paths.logfile", "/var/log/mysqlmb/mysqlmb.log")
	v.SetDefault("paths.mysql", "/usr/bin/mysql")
	v.SetDefault("paths.mysqldump", "/usr/bin/mysqldump")
	v.SetDefault("paths.mysqlcheck", "/usr/bin/mysqlcheck")
	v.SetDefault("paths.compressor", "/usr/bin/bzip2")

	v.SetDefault("options.databases", []string{})
	v.SetDefault("options.retention", 30)
	v.SetDefault("options.restore_offset", -1)
	v.SetDefault("options.date_format", naming.DefaultDateFormat)
	v.SetDefault("options.archive_extension", naming.DefaultExtension)
	v.SetDefault("options.verbose", true)
	v.SetDefault("options.force", false)
	v.SetDefault("options.optimize", false)
	v.SetDefault("options.mail_to", "")
	v.SetDefault("options.list_type", models.ListTypeMySQL)
	v.SetDefault("options.catalog", models.CatalogClient)
	v.SetDefault("options.tool_timeout", time.Duration(0))

	v.SetDefault("log.max_size_mb", 1)
	v.SetDefault("log.max_backups", 10)
	v.SetDefault("log.max_age_days", 0)
	v.SetDefault("log.compress", false)

	v.SetDefault("mail.host", "localhost")
	v.SetDefault("mail.port", 25)
}

// BindFlags binds the command line flags present in fs to their configuration keys.
func (p *Parser) BindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := p.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// Set overrides a configuration key.
func (p *Parser) Set(key string, value interface{}) {
	p.v.Set(key, value)
}

// Load builds the configuration, reading path first when it is not empty.
func (p *Parser) Load(path string) (*models.MaintenanceConfig, error) {
	if path == "" {
		return p.parse()
	}
	return p.LoadFile(path)
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.MaintenanceConfig, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.MaintenanceConfig, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables already set in the environment win.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

func (p *Parser) parse() (*models.MaintenanceConfig, error) {
	cfg := &models.MaintenanceConfig{}

	cfg.Credentials = models.Credentials{
		User:     p.expandEnv(p.v.GetString("connection.user")),
		Password: p.expandEnv(p.v.GetString("connection.password")),
		Host:     p.v.GetString("connection.host"),
		Port:     p.v.GetInt("connection.port"),
	}

	cfg.Paths = models.PathConfig{
		BackupDir:  rmSlash(p.expandEnv(p.v.GetString("paths.backup"))),
		LogFile:    rmSlash(p.expandEnv(p.v.GetString("paths.logfile"))),
		MySQL:      rmSlash(p.v.GetString("paths.mysql")),
		MySQLDump:  rmSlash(p.v.GetString("paths.mysqldump")),
		MySQLCheck: rmSlash(p.v.GetString("paths.mysqlcheck")),
		Compressor: rmSlash(p.v.GetString("paths.compressor")),
	}

	// A tool directory overrides the individual client paths.
	if dir := rmSlash(p.v.GetString("paths.mysql_dir")); dir != "" {
		cfg.Paths.MySQL = path.Join(dir, "mysql")
		cfg.Paths.MySQLDump = path.Join(dir, "mysqldump")
		cfg.Paths.MySQLCheck = path.Join(dir, "mysqlcheck")
	}

	mailTo := p.v.GetString("options.mail_to")
	cfg.Options = models.MaintenanceOptions{
		Databases:         splitDatabases(p.v.GetStringSlice("options.databases")),
		DateFormat:        p.v.GetString("options.date_format"),
		ArchiveExtension:  strings.TrimPrefix(p.v.GetString("options.archive_extension"), "."),
		RetentionDays:     p.v.GetInt("options.retention"),
		RestoreOffsetDays: p.v.GetInt("options.restore_offset"),
		Verbose:           p.v.GetBool("options.verbose"),
		Force:             p.v.GetBool("options.force"),
		Optimize:          p.v.GetBool("options.optimize"),
		Mail:              mailTo != "",
		MailTo:            mailTo,
		ListType:          p.v.GetString("options.list_type"),
		Catalog:           p.v.GetString("options.catalog"),
		ToolTimeout:       p.v.GetDuration("options.tool_timeout"),
	}
	// Mail follows the recipient unless switched explicitly.
	if p.v.IsSet("options.mail") {
		cfg.Options.Mail = p.v.GetBool("options.mail")
	}

	cfg.Log = models.LogSettings{
		MaxSizeMB:  p.v.GetInt("log.max_size_mb"),
		MaxBackups: p.v.GetInt("log.max_backups"),
		MaxAgeDays: p.v.GetInt("log.max_age_days"),
		Compress:   p.v.GetBool("log.compress"),
	}

	cfg.Mail = &models.MailConfig{
		Host:     p.v.GetString("mail.host"),
		Port:     p.v.GetInt("mail.port"),
		From:     p.v.GetString("mail.from"),
		Username: p.expandEnv(p.v.GetString("mail.username")),
		Password: p.expandEnv(p.v.GetString("mail.password")),
	}

	if p.v.IsSet("telegram") {
		cfg.Telegram = &models.TelegramConfig{
			BotToken: p.expandEnv(p.v.GetString("telegram.bot_token")),
			ChatID:   p.expandEnv(p.v.GetString("telegram.chat_id")),
		}
	}

	if p.v.IsSet("metrics") {
		cfg.Metrics = &models.MetricsConfig{
			TextfileDir: rmSlash(p.expandEnv(p.v.GetString("metrics.textfile_dir"))),
		}
	}

	if p.v.IsSet("schedule") {
		if err := p.v.UnmarshalKey("schedule", &cfg.Schedule); err != nil {
			return nil, fmt.Errorf("parsing schedule: %w", err)
		}
	}

	return cfg, nil
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// rmSlash strips trailing slashes, keeping a lone root slash.
func rmSlash(s string) string {
	trimmed := strings.TrimRight(s, "/")
	if trimmed == "" && s != "" {
		return "/"
	}
	return trimmed
}

// splitDatabases accepts both list values and comma separated strings.
func splitDatabases(values []string) []string {
	var out []string
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}
