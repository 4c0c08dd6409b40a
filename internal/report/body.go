package report

import (
	"fmt"
	"strings"

	"github.com/fgeck/gomysqlmb/internal/models"
)

const rule = "-------------------------------------------------------------------"

// Subject returns the mail subject for r.
func Subject(r *models.Report) string {
	if r.Success() {
		return "MySQL Maintenance - successful"
	}
	return "MySQL Maintenance - failed"
}

// Body renders the plain text report for r.
func Body(r *models.Report) string {
	var b strings.Builder

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "  MySQL maintenance on %s\n", r.Host)
	fmt.Fprintf(&b, "  Start Time: %s\n", r.StartTime.Format("Mon 02.01.2006 15:04"))
	b.WriteString(rule + "\n")
	b.WriteString("Settings:\n")
	fmt.Fprintf(&b, "  Retention time: %d days\n", r.RetentionDays)
	fmt.Fprintf(&b, "  Action: %s\n", r.Action)
	fmt.Fprintf(&b, "  Database optimization enabled: %t\n", r.Optimize)
	if r.Selection != "" {
		fmt.Fprintf(&b, "  Databases: %s\n", r.Selection)
	}
	b.WriteString("----------\n")

	if r.Batch != nil {
		writeBatch(&b, r)
	}
	if r.Check != nil {
		if r.Check.Error != nil {
			fmt.Fprintf(&b, "Database optimization failed: %v\n", r.Check.Error)
		} else {
			b.WriteString("All databases have been optimized with mysqlcheck\n")
		}
	}
	if r.Retention != nil {
		b.WriteString(CleanupMessage(r.Retention))
	}
	if r.ListTitle != "" {
		b.WriteString(r.ListTitle + "\n")
		for _, name := range r.Listed {
			b.WriteString(name + "\n")
		}
	}
	if r.Error != nil {
		if r.FailedStep != "" {
			fmt.Fprintf(&b, "Abort in step %s: %v\n", r.FailedStep, r.Error)
		} else {
			fmt.Fprintf(&b, "Abort: %v\n", r.Error)
		}
	}

	b.WriteString("----------\n")
	fmt.Fprintf(&b, "Maintenance duration: %s\n", FormatDuration(r.Duration))
	return b.String()
}

func writeBatch(b *strings.Builder, r *models.Report) {
	batch := r.Batch
	switch {
	case batch.Action == models.ActionBackup && batch.Failed == 0:
		fmt.Fprintf(b, "Successful backup: %s\n", batch.Message)
	case batch.Action == models.ActionBackup:
		fmt.Fprintf(b, "Backup of MySQL failed: %s\n", batch.Message)
	case batch.Failed == 0:
		fmt.Fprintf(b, "Successful restore: %s\n", batch.Message)
	default:
		fmt.Fprintf(b, "Restore of MySQL failed: %s\n", batch.Message)
	}

	for _, item := range batch.Items {
		if item.Error != nil {
			fmt.Fprintf(b, "  %s: %v\n", item.Database, item.Error)
		}
	}

	if batch.Action == models.ActionBackup {
		fmt.Fprintf(b, "Backup file size after compression: %s\n", FormatSize(r.BackupSize))
	}
}

// CleanupMessage renders the retention section of the report.
func CleanupMessage(r *models.RetentionResult) string {
	var b strings.Builder
	b.WriteString("Old backups removed:\n")
	files := r.Deleted
	if !r.Forced {
		files = r.Expired
	}
	if len(files) == 0 || !r.Forced {
		b.WriteString("No backups deleted\n")
	}
	if !r.Forced {
		b.WriteString("Use option \"force\" to delete backups\n")
	}
	for _, f := range files {
		fmt.Fprintf(&b, " %s\n", f)
	}
	return b.String()
}
