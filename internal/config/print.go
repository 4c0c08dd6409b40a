package config

import (
	"fmt"
	"strings"

	"github.com/fgeck/gomysqlmb/internal/models"
)

// Describe renders cfg for humans with every secret redacted.
func Describe(cfg *models.MaintenanceConfig) string {
	var b strings.Builder

	b.WriteString("Database Connection:\n")
	fmt.Fprintf(&b, "\tuser: %s\n", cfg.Credentials.User)
	fmt.Fprintf(&b, "\tpassword: %s\n", cfg.Credentials.RedactedPassword())
	fmt.Fprintf(&b, "\thost: %s\n", cfg.Credentials.Host)
	if cfg.Credentials.Port > 0 {
		fmt.Fprintf(&b, "\tport: %d\n", cfg.Credentials.Port)
	}

	b.WriteString("Paths:\n")
	fmt.Fprintf(&b, "\tbackup: %s\n", cfg.Paths.BackupDir)
	fmt.Fprintf(&b, "\tlogfile: %s\n", cfg.Paths.LogFile)
	fmt.Fprintf(&b, "\tmysql: %s\n", cfg.Paths.MySQL)
	fmt.Fprintf(&b, "\tmysqldump: %s\n", cfg.Paths.MySQLDump)
	fmt.Fprintf(&b, "\tmysqlcheck: %s\n", cfg.Paths.MySQLCheck)
	fmt.Fprintf(&b, "\tcompressor: %s\n", cfg.Paths.Compressor)

	o := cfg.Options
	b.WriteString("Options:\n")
	fmt.Fprintf(&b, "\tdatabases: %s\n", models.ParseSelection(o.Databases))
	fmt.Fprintf(&b, "\tretention: %d\n", o.RetentionDays)
	fmt.Fprintf(&b, "\trestore_offset: %d\n", o.RestoreOffsetDays)
	fmt.Fprintf(&b, "\tdate_format: %s\n", o.DateFormat)
	fmt.Fprintf(&b, "\tarchive_extension: %s\n", o.ArchiveExtension)
	fmt.Fprintf(&b, "\tverbose: %t\n", o.Verbose)
	fmt.Fprintf(&b, "\tforce: %t\n", o.Force)
	fmt.Fprintf(&b, "\toptimize: %t\n", o.Optimize)
	fmt.Fprintf(&b, "\tmail: %t\n", o.Mail)
	fmt.Fprintf(&b, "\tmail_to: %s\n", o.MailTo)
	fmt.Fprintf(&b, "\tlist_type: %s\n", o.ListType)
	fmt.Fprintf(&b, "\tcatalog: %s\n", o.Catalog)
	if o.ToolTimeout > 0 {
		fmt.Fprintf(&b, "\ttool_timeout: %s\n", o.ToolTimeout)
	} else {
		b.WriteString("\ttool_timeout: unbounded\n")
	}

	if cfg.Mail != nil && o.Mail {
		b.WriteString("Mail:\n")
		fmt.Fprintf(&b, "\tserver: %s:%d\n", cfg.Mail.Host, cfg.Mail.Port)
		if cfg.Mail.Username != "" {
			fmt.Fprintf(&b, "\tusername: %s\n", cfg.Mail.Username)
			b.WriteString("\tpassword: ********\n")
		}
	}
	if cfg.Telegram != nil {
		b.WriteString("Telegram:\n")
		fmt.Fprintf(&b, "\tchat_id: %s\n", cfg.Telegram.ChatID)
		b.WriteString("\tbot_token: ********\n")
	}
	if cfg.Metrics != nil {
		b.WriteString("Metrics:\n")
		fmt.Fprintf(&b, "\ttextfile_dir: %s\n", cfg.Metrics.TextfileDir)
	}
	if len(cfg.Schedule) > 0 {
		b.WriteString("Schedule:\n")
		for _, entry := range cfg.Schedule {
			fmt.Fprintf(&b, "\t%s: %s\n", entry.Action, entry.Spec)
		}
	}

	return b.String()
}
