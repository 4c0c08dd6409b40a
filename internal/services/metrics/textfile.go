// Package metrics exports run results for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

const namespace = "mysqlmb"

// Service defines the interface for exporting a report.
type Service interface {
	Export(cfg models.MetricsConfig, r *models.Report) error
}

// TextfileExporter writes one .prom file per action.
type TextfileExporter struct {
	logger zerolog.Logger
}

// New creates a new textfile exporter.
func New(logger zerolog.Logger) *TextfileExporter {
	return &TextfileExporter{logger: logger}
}

// FileName returns the textfile path for action inside dir.
func FileName(dir, action string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.prom", namespace, action))
}

// Export writes the metrics of r, replacing the previous file of the same action.
func (e *TextfileExporter) Export(cfg models.MetricsConfig, r *models.Report) error {
	if err := os.MkdirAll(cfg.TextfileDir, 0o750); err != nil {
		return fmt.Errorf("failed to create textfile directory: %w", err)
	}

	registry := prometheus.NewRegistry()
	register(registry, r)

	path := FileName(cfg.TextfileDir, r.Action)
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}

	e.logger.Debug().Str("file", path).Msg("metrics textfile written")
	return nil
}

func register(registry *prometheus.Registry, r *models.Report) {
	factory := promauto.With(registry)
	labels := prometheus.Labels{"action": r.Action}

	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	gauge("last_run_timestamp_seconds", "Start time of the last maintenance run.").
		Set(float64(r.StartTime.Unix()))
	gauge("last_run_duration_seconds", "Wall clock duration of the last maintenance run.").
		Set(r.Duration.Seconds())

	success := gauge("last_run_success", "Whether the last maintenance run finished without errors.")
	if r.Success() {
		success.Set(1)
	}

	if r.Batch != nil {
		gauge("databases_total", "Databases processed by the last batch.").Set(float64(r.Batch.Total))
		gauge("databases_failed", "Databases that failed in the last batch.").Set(float64(r.Batch.Failed))
	}
	if r.Action == models.ActionBackup && r.Batch != nil {
		gauge("backup_size_bytes", "Compressed size of the archives written by the last backup.").
			Set(float64(r.BackupSize))
	}
	if r.Retention != nil {
		gauge("retention_expired_archives", "Archives older than the retention window.").
			Set(float64(len(r.Retention.Expired)))
		gauge("retention_deleted_archives", "Archives deleted by the retention policy.").
			Set(float64(len(r.Retention.Deleted)))
	}
}

var _ Service = (*TextfileExporter)(nil)
