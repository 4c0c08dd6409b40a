// Package retention prunes archives older than the retention window.
package retention

import (
	"context"
	"os"
	"time"

	"github.com/fgeck/gomysqlmb/internal/console"
	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/fgeck/gomysqlmb/internal/services/archive"
	"github.com/rs/zerolog"
)

// Service defines the interface for the retention policy.
type Service interface {
	Apply(ctx context.Context, retentionDays int, force bool) (*models.RetentionResult, error)
}

// Policy implements Service over the archive index.
type Policy struct {
	index     archive.Service
	backupDir string
	now       func() time.Time
	remove    func(path string) error
	printer   *console.Printer
	logger    zerolog.Logger
}

// New creates a new retention policy.
func New(logger zerolog.Logger, printer *console.Printer, index archive.Service, backupDir string) *Policy {
	return NewWithClock(logger, printer, index, backupDir, time.Now, os.Remove)
}

// NewWithClock creates a retention policy with a custom clock and remover (for testing).
func NewWithClock(
	logger zerolog.Logger,
	printer *console.Printer,
	index archive.Service,
	backupDir string,
	now func() time.Time,
	remove func(path string) error,
) *Policy {
	return &Policy{
		index:     index,
		backupDir: backupDir,
		now:       now,
		remove:    remove,
		printer:   printer,
		logger:    logger,
	}
}

// Apply reports the file names of the archives whose modification time is
// strictly before now minus retentionDays. When force is set they are deleted; the first
// failed deletion aborts the sweep and the error carries what was deleted so far.
func (p *Policy) Apply(ctx context.Context, retentionDays int, force bool) (*models.RetentionResult, error) {
	cutoff := p.now().AddDate(0, 0, -retentionDays)
	result := &models.RetentionResult{
		RetentionDays: retentionDays,
		Cutoff:        cutoff,
		Forced:        force,
	}

	records, err := p.index.Scan(ctx, p.backupDir, archive.Filter{})
	if err != nil {
		return result, err
	}

	var expired []models.BackupRecord
	for _, r := range records {
		if r.ModTime.Before(cutoff) {
			expired = append(expired, r)
		}
	}
	models.SortRecords(expired)
	for _, r := range expired {
		result.Expired = append(result.Expired, r.FileName())
	}

	p.logger.Info().
		Int("retention_days", retentionDays).
		Time("cutoff", cutoff).
		Int("expired", len(expired)).
		Bool("force", force).
		Msg("retention policy evaluated")

	if !force {
		for _, r := range expired {
			p.printer.Line("would remove " + r.FileName())
		}
		return result, nil
	}

	for _, r := range expired {
		if err := ctx.Err(); err != nil {
			return result, &DeletionError{Deleted: result.Deleted, Err: err}
		}
		if err := p.remove(r.ArchivePath); err != nil {
			p.logger.Error().Err(err).Str("file", r.ArchivePath).Msg("failed to remove expired archive")
			p.printer.Error("removing " + r.FileName())
			return result, &DeletionError{
				Deleted: result.Deleted,
				Err:     &models.FilesystemError{Op: "remove", Path: r.ArchivePath, Err: err},
			}
		}
		result.Deleted = append(result.Deleted, r.FileName())
		p.logger.Info().Str("file", r.ArchivePath).Msg("expired archive removed")
		p.printer.Line("removed " + r.FileName())
	}

	return result, nil
}

var _ Service = (*Policy)(nil)
