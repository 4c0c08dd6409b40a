package main

import (
	"context"

	"github.com/fgeck/gomysqlmb/internal/config"
	"github.com/fgeck/gomysqlmb/internal/services/scheduler"
	"github.com/fgeck/gomysqlmb/internal/services/session"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run maintenance actions on the configured cron schedule",
	Long: `Run in the foreground and execute the actions listed under "schedule"
in the config file. Runs never overlap; a run that comes due while another
is still active is skipped. Stops on SIGINT or SIGTERM after the active run.`,
	RunE: runSchedule,
}

func runSchedule(cmd *cobra.Command, args []string) error {
	if err := config.ValidateFor(cfg, "schedule"); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx := cmd.Context()
	sess := session.New(logger, printer)
	sched := scheduler.New(logger)
	for _, entry := range cfg.Schedule {
		if err := sched.Add(ctx, entry, func(ctx context.Context, action string) error {
			_, err := sess.Run(ctx, action, *cfg)
			return err
		}); err != nil {
			return err
		}
	}

	logger.Info().Int("entries", len(cfg.Schedule)).Msg("scheduler started")
	return sched.Run(ctx)
}
