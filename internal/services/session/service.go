// Package session sequences one maintenance action and reports on it.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/fgeck/gomysqlmb/internal/console"
	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/fgeck/gomysqlmb/internal/naming"
	"github.com/fgeck/gomysqlmb/internal/report"
	"github.com/fgeck/gomysqlmb/internal/services/archive"
	"github.com/fgeck/gomysqlmb/internal/services/resolver"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const notifyTimeout = time.Minute

// Service defines the interface for the maintenance session.
type Service interface {
	Run(ctx context.Context, action string, cfg models.MaintenanceConfig) (*models.Report, error)
}

// Impl implements the session Service interface.
type Impl struct {
	build   BuildFunc
	printer *console.Printer
	now     func() time.Time
	logger  zerolog.Logger
}

// New creates a new session service wiring the production services per run.
func New(logger zerolog.Logger, printer *console.Printer) *Impl {
	return &Impl{
		build:   Build,
		printer: printer,
		now:     time.Now,
		logger:  logger,
	}
}

// NewWithServices creates a new session service with fixed services (for testing).
func NewWithServices(logger zerolog.Logger, printer *console.Printer, services *Services, now func() time.Time) *Impl {
	return &Impl{
		build: func(zerolog.Logger, *console.Printer, models.MaintenanceConfig) (*Services, error) {
			return services, nil
		},
		printer: printer,
		now:     now,
		logger:  logger,
	}
}

// run carries the state of a single session.
type run struct {
	*Impl
	cfg       models.MaintenanceConfig
	svc       *Services
	report    *models.Report
	selection models.Selection
	logger    zerolog.Logger
}

// Run executes action. Fatal failures are returned and recorded in the
// report; per database failures only show in the report's batch.
func (s *Impl) Run(ctx context.Context, action string, cfg models.MaintenanceConfig) (*models.Report, error) {
	start := s.now()
	selection := models.ParseSelection(cfg.Options.Databases)
	r := &run{
		Impl:      s,
		cfg:       cfg,
		selection: selection,
		report: &models.Report{
			RunID:         uuid.NewString(),
			Action:        action,
			Host:          cfg.Credentials.Host,
			StartTime:     start,
			RetentionDays: cfg.Options.RetentionDays,
			Optimize:      cfg.Options.Optimize,
			Selection:     selection.String(),
		},
	}
	r.logger = s.logger.With().Str("run_id", r.report.RunID).Str("action", action).Logger()

	r.logger.Info().
		Str("host", cfg.Credentials.Host).
		Str("databases", selection.String()).
		Msg("starting maintenance run")

	step, err := r.execute(ctx, start)
	r.report.Duration = s.now().Sub(start)
	if err != nil {
		r.report.Error = err
		r.report.FailedStep = step
		r.logger.Error().Err(err).Str("step", step).Msg("maintenance run aborted")
	} else {
		event := r.logger.Info()
		if !r.report.Success() {
			event = r.logger.Warn()
		}
		event.
			Bool("success", r.report.Success()).
			Str("duration", report.FormatDuration(r.report.Duration)).
			Msg("maintenance run finished")
	}

	if r.svc != nil && action != models.ActionList {
		r.notify(ctx)
	}
	switch action {
	case models.ActionBackup, models.ActionRestore, models.ActionOptimize:
		s.printer.Line("Maintenance duration: " + report.FormatDuration(r.report.Duration))
	}

	if err != nil {
		return r.report, fmt.Errorf("%s failed: %w", step, err)
	}
	return r.report, nil
}

// execute runs the steps of the action and returns the failing step on error.
func (r *run) execute(ctx context.Context, start time.Time) (string, error) {
	svc, err := r.build(r.logger, r.printer, r.cfg)
	if err != nil {
		return "setup", err
	}
	r.svc = svc

	switch r.report.Action {
	case models.ActionBackup:
		return r.backup(ctx, start)
	case models.ActionRestore:
		return r.restore(ctx, start)
	case models.ActionOptimize:
		return r.optimize(ctx)
	case models.ActionCleanup:
		return r.cleanup(ctx)
	case models.ActionList:
		return r.list(ctx, start)
	default:
		return "setup", fmt.Errorf("unknown action %q", r.report.Action)
	}
}

func (r *run) backup(ctx context.Context, start time.Time) (string, error) {
	targets, err := r.svc.Resolver.Resolve(ctx, r.selection, resolver.LiveServer())
	if err != nil {
		return "resolve", err
	}

	batch, err := r.svc.Workflow.Backup(ctx, targets)
	if err != nil {
		return "backup", err
	}
	r.report.Batch = batch

	// File timestamps come from a coarse clock and may trail start slightly.
	created, err := r.svc.Index.Scan(ctx, r.cfg.Paths.BackupDir, archive.Filter{NewerThan: start.Truncate(time.Second)})
	if err != nil {
		return "size", err
	}
	r.report.BackupSize = archive.TotalSize(created)
	r.logger.Info().
		Int("archives", len(created)).
		Str("size", report.FormatSize(r.report.BackupSize)).
		Msg("backup size computed")

	if batch.Failed == 0 && r.cfg.Options.RetentionDays > 0 {
		if step, err := r.cleanup(ctx); err != nil {
			return step, err
		}
	}

	if r.cfg.Options.Optimize {
		return r.optimize(ctx)
	}
	return "", nil
}

func (r *run) restoreDay(start time.Time) time.Time {
	return naming.Day(start).AddDate(0, 0, r.cfg.Options.RestoreOffsetDays)
}

func (r *run) restore(ctx context.Context, start time.Time) (string, error) {
	day := r.restoreDay(start)
	targets, err := r.svc.Resolver.Resolve(ctx, r.selection, resolver.ArchiveDay(day))
	if err != nil {
		return "resolve", err
	}

	batch, err := r.svc.Workflow.Restore(ctx, day, targets)
	if err != nil {
		return "restore", err
	}
	r.report.Batch = batch
	return "", nil
}

func (r *run) optimize(ctx context.Context) (string, error) {
	check, err := r.svc.Checker.Check(ctx)
	if err != nil {
		return "optimize", err
	}
	r.report.Check = check
	if check.Error != nil {
		r.printer.Error("Optimization of all databases")
		return "optimize", check.Error
	}

	r.logger.Debug().Str("output", check.Output).Msg("mysqlcheck output")
	r.printer.Done("Optimization of all databases")
	return "", nil
}

func (r *run) cleanup(ctx context.Context) (string, error) {
	result, err := r.svc.Retention.Apply(ctx, r.cfg.Options.RetentionDays, r.cfg.Options.Force)
	if result != nil {
		r.report.Retention = result
	}
	if err != nil {
		return "retention", err
	}
	return "", nil
}

func (r *run) list(ctx context.Context, start time.Time) (string, error) {
	if r.cfg.Options.ListType == models.ListTypeBackup {
		day := r.restoreDay(start)
		targets, err := r.svc.Resolver.Resolve(ctx, r.selection, resolver.ArchiveDay(day))
		if err != nil {
			return "resolve", err
		}
		for _, t := range targets {
			r.report.Listed = append(r.report.Listed, t.Record.FileName())
		}
		r.report.ListTitle = fmt.Sprintf("Found %d database backup(s) for %s:",
			len(targets), r.svc.Namer.Format().Format(day))
		return "", nil
	}

	targets, err := r.svc.Resolver.Resolve(ctx, r.selection, resolver.LiveServer())
	if err != nil {
		return "resolve", err
	}
	r.report.Listed = models.Names(targets)
	r.report.ListTitle = fmt.Sprintf("Found %d database(s):", len(targets))
	return "", nil
}

// notify delivers the report. Failures are logged and never change the outcome.
func (r *run) notify(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	opts := r.cfg.Options
	if opts.Mail && opts.MailTo != "" {
		mailCfg := models.MailConfig{Host: "localhost", Port: 25}
		if r.cfg.Mail != nil {
			mailCfg = *r.cfg.Mail
		}
		result, err := r.svc.Mail.SendReport(ctx, mailCfg, opts.MailTo, r.report)
		logDelivery(r.logger, "mail", result, err)
	}

	if r.cfg.Telegram != nil {
		result, err := r.svc.Telegram.SendNotification(ctx, *r.cfg.Telegram, r.report)
		logDelivery(r.logger, "telegram", result, err)
	}

	if r.cfg.Metrics != nil {
		if err := r.svc.Metrics.Export(*r.cfg.Metrics, r.report); err != nil {
			r.logger.Error().Err(err).Msg("failed to export metrics")
		}
	}
}

func logDelivery(logger zerolog.Logger, channel string, result *models.NotificationResult, err error) {
	if err == nil && result != nil {
		err = result.Error
	}
	if err != nil {
		logger.Error().Err(err).Str("channel", channel).Msg("failed to deliver report")
		return
	}
	logger.Info().Str("channel", channel).Msg("report delivered")
}
