package session

import (
	"context"
	"fmt"

	"github.com/fgeck/gomysqlmb/internal/console"
	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/fgeck/gomysqlmb/internal/naming"
	"github.com/fgeck/gomysqlmb/internal/services/archive"
	"github.com/fgeck/gomysqlmb/internal/services/compressor"
	"github.com/fgeck/gomysqlmb/internal/services/mail"
	"github.com/fgeck/gomysqlmb/internal/services/metrics"
	"github.com/fgeck/gomysqlmb/internal/services/mysql"
	"github.com/fgeck/gomysqlmb/internal/services/resolver"
	"github.com/fgeck/gomysqlmb/internal/services/retention"
	"github.com/fgeck/gomysqlmb/internal/services/telegram"
	"github.com/fgeck/gomysqlmb/internal/services/workflow"
	"github.com/rs/zerolog"
)

// Checker runs the server wide consistency and optimization check.
type Checker interface {
	Check(ctx context.Context) (*models.CheckResult, error)
}

// Services bundles the collaborators of a session.
type Services struct {
	Namer     *naming.Namer
	Checker   Checker
	Index     archive.Service
	Resolver  resolver.Service
	Workflow  workflow.Service
	Retention retention.Service
	Mail      mail.Service
	Telegram  telegram.Service
	Metrics   metrics.Service
}

// BuildFunc wires the services for a configuration.
type BuildFunc func(logger zerolog.Logger, printer *console.Printer, cfg models.MaintenanceConfig) (*Services, error)

// Build wires the production services for cfg.
func Build(logger zerolog.Logger, printer *console.Printer, cfg models.MaintenanceConfig) (*Services, error) {
	format, err := naming.ParseDateFormat(cfg.Options.DateFormat)
	if err != nil {
		return nil, fmt.Errorf("invalid date format: %w", err)
	}
	namer := naming.NewNamer(format, cfg.Options.ArchiveExtension)

	mysqlSvc := mysql.New(logger, cfg.Credentials, cfg.Paths, cfg.Options.ToolTimeout)
	if cfg.Options.Catalog == models.CatalogDriver {
		mysqlSvc = mysqlSvc.WithCatalog(mysql.NewDriverCatalog(logger, cfg.Credentials))
	}
	compressorSvc := compressor.New(logger, cfg.Paths.Compressor, namer.Extension(), cfg.Options.ToolTimeout)
	index := archive.New(logger, namer)

	return &Services{
		Namer:     namer,
		Checker:   mysqlSvc,
		Index:     index,
		Resolver:  resolver.New(logger, mysqlSvc, index, cfg.Paths.BackupDir),
		Workflow:  workflow.New(logger, printer, mysqlSvc, compressorSvc, namer, cfg.Paths.BackupDir),
		Retention: retention.New(logger, printer, index, cfg.Paths.BackupDir),
		Mail:      mail.New(logger),
		Telegram:  telegram.New(logger),
		Metrics:   metrics.New(logger),
	}, nil
}
