package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fgeck/gomysqlmb/internal/config"
	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/fgeck/gomysqlmb/internal/services/session"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the selected databases",
	Long: `Back up the selected databases:
1. Dump every database with mysqldump
2. Compress each dump into a dated archive
3. Delete archives older than the retention time (if no database failed)
4. Optimize all databases (if --optimize is set)
5. Send the report by mail and Telegram, export metrics (if configured)`,
	RunE: runAction(models.ActionBackup),
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the selected databases from the archives of a past day",
	Long: `Restore the selected databases from the archives written --time-offset days
from today (default -1, yesterday). Missing databases are created first.`,
	RunE: runAction(models.ActionRestore),
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Check, repair and optimize all databases",
	RunE:  runAction(models.ActionOptimize),
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete archives older than the retention time",
	Long: `List archives older than the retention time. Nothing is deleted
unless --force is given.`,
	RunE: runAction(models.ActionCleanup),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List databases on the server or archives of the restore day",
	RunE:  runList,
}

func runAction(action string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rep, err := execute(cmd.Context(), action)
		if err != nil {
			return err
		}
		if !rep.Success() {
			return fmt.Errorf("%s finished with %d failed database(s)", action, rep.Batch.Failed)
		}
		return nil
	}
}

// execute validates the configuration for action and runs one session.
func execute(ctx context.Context, action string) (*models.Report, error) {
	if err := config.ValidateFor(cfg, action); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return nil, err
	}

	logger.Info().
		Str("action", action).
		Str("host", cfg.Credentials.Host).
		Str("backup_dir", cfg.Paths.BackupDir).
		Msg("configuration loaded")

	return session.New(logger, printer).Run(ctx, action, *cfg)
}

type listing struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

func runList(cmd *cobra.Command, args []string) error {
	rep, err := execute(cmd.Context(), models.ActionList)
	if err != nil {
		return err
	}

	if jsonOutput {
		items := rep.Listed
		if items == nil {
			items = []string{}
		}
		return json.NewEncoder(os.Stdout).Encode(listing{Title: rep.ListTitle, Items: items})
	}

	fmt.Println(rep.ListTitle)
	for _, item := range rep.Listed {
		fmt.Println("\t" + item)
	}
	return nil
}
