// Package workflow drives backup and restore batches one database at a time.
//
// Failures of a single database are recorded in its ItemResult and the batch
// moves on. Failures of shared infrastructure (missing backup directory,
// unreadable database list) abort the batch.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fgeck/gomysqlmb/internal/console"
	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/fgeck/gomysqlmb/internal/naming"
	"github.com/fgeck/gomysqlmb/internal/services/compressor"
	"github.com/fgeck/gomysqlmb/internal/services/mysql"
	"github.com/rs/zerolog"
)

// Service defines the interface for the backup/restore workflow driver.
type Service interface {
	Backup(ctx context.Context, targets []models.Target) (*models.BatchResult, error)
	Restore(ctx context.Context, day time.Time, targets []models.Target) (*models.BatchResult, error)
}

// Driver implements Service.
type Driver struct {
	mysql      mysql.Service
	compressor compressor.Service
	namer      *naming.Namer
	backupDir  string
	now        func() time.Time
	printer    *console.Printer
	logger     zerolog.Logger
}

// New creates a new workflow driver.
func New(
	logger zerolog.Logger,
	printer *console.Printer,
	mysqlSvc mysql.Service,
	compressorSvc compressor.Service,
	namer *naming.Namer,
	backupDir string,
) *Driver {
	return &Driver{
		mysql:      mysqlSvc,
		compressor: compressorSvc,
		namer:      namer,
		backupDir:  backupDir,
		now:        time.Now,
		printer:    printer,
		logger:     logger,
	}
}

// WithClock replaces the clock used to stamp archives (for testing).
func (d *Driver) WithClock(now func() time.Time) *Driver {
	d.now = now
	return d
}

// Backup dumps and compresses every target into a dated archive.
func (d *Driver) Backup(ctx context.Context, targets []models.Target) (*models.BatchResult, error) {
	start := time.Now()
	result := &models.BatchResult{
		Action: models.ActionBackup,
		Total:  len(targets),
	}

	info, err := os.Stat(d.backupDir)
	if err == nil && !info.IsDir() {
		err = errors.New("not a directory")
	}
	if err != nil {
		d.logger.Error().Err(err).Str("backup_dir", d.backupDir).Msg("backup directory unavailable")
		return nil, &models.FilesystemError{Op: "stat", Path: d.backupDir, Err: err}
	}

	today := d.now()
	d.logger.Info().
		Int("databases", len(targets)).
		Str("day", d.namer.Format().Format(today)).
		Msg("starting backup")

	d.run(ctx, result, targets, func(t models.Target) models.ItemResult {
		return d.backupOne(ctx, today, t)
	})

	result.Duration = time.Since(start)
	result.Message = fmt.Sprintf("%d from %d databases backed up successfully", result.Succeeded(), result.Total)
	d.finish(result)
	return result, nil
}

func (d *Driver) backupOne(ctx context.Context, day time.Time, t models.Target) models.ItemResult {
	start := time.Now()
	item := models.ItemResult{Database: t.Name}

	fail := func(err error, leftovers ...string) models.ItemResult {
		for _, path := range leftovers {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				d.logger.Warn().Err(rmErr).Str("file", path).Msg("failed to remove leftover file")
			}
		}
		item.Error = err
		item.Duration = time.Since(start)
		return item
	}

	if err := naming.ValidateDatabaseName(t.Name); err != nil {
		return fail(err)
	}

	tmpPath := filepath.Join(d.backupDir, d.namer.TempName(day, t.Name))
	dump, err := d.mysql.Dump(ctx, t.Name, tmpPath)
	if err == nil && dump.Error != nil {
		err = dump.Error
	}
	if err != nil {
		return fail(err, tmpPath)
	}

	dumpPath := filepath.Join(d.backupDir, d.namer.BaseName(day, t.Name))
	if err := os.Rename(tmpPath, dumpPath); err != nil {
		return fail(&models.FilesystemError{Op: "rename", Path: tmpPath, Err: err}, tmpPath)
	}

	archivePath := filepath.Join(d.backupDir, d.namer.ArchiveName(day, t.Name))
	restorePrevious, discardPrevious, err := d.setAside(archivePath)
	if err != nil {
		return fail(err)
	}

	compressed, err := d.compressor.Compress(ctx, dumpPath)
	if err != nil {
		// Only output of this run is removed. The dump stays for a manual retry.
		if rmErr := os.Remove(archivePath); rmErr != nil && !os.IsNotExist(rmErr) {
			d.logger.Warn().Err(rmErr).Str("file", archivePath).Msg("failed to remove partial archive")
		}
		restorePrevious()
		d.logger.Warn().Str("file", dumpPath).Msg("compression failed, keeping uncompressed dump")
		return fail(err)
	}
	discardPrevious()

	item.Path = compressed
	item.Duration = time.Since(start)
	return item
}

// setAside moves an existing archive out of the way so a failed compression
// cannot destroy it. restore puts it back, discard removes it.
func (d *Driver) setAside(archivePath string) (restore, discard func(), err error) {
	noop := func() {}
	if _, err := os.Stat(archivePath); err != nil {
		if os.IsNotExist(err) {
			return noop, noop, nil
		}
		return nil, nil, &models.FilesystemError{Op: "stat", Path: archivePath, Err: err}
	}

	previous := archivePath + ".previous"
	if err := os.Rename(archivePath, previous); err != nil {
		return nil, nil, &models.FilesystemError{Op: "rename", Path: archivePath, Err: err}
	}

	restore = func() {
		if err := os.Rename(previous, archivePath); err != nil {
			d.logger.Error().Err(err).Str("file", previous).Msg("failed to restore previous archive")
		}
	}
	discard = func() {
		if err := os.Remove(previous); err != nil && !os.IsNotExist(err) {
			d.logger.Warn().Err(err).Str("file", previous).Msg("failed to remove previous archive")
		}
	}
	return restore, discard, nil
}

// Restore loads the archive of every target into the live server, creating
// databases that do not exist yet.
func (d *Driver) Restore(ctx context.Context, day time.Time, targets []models.Target) (*models.BatchResult, error) {
	start := time.Now()
	result := &models.BatchResult{
		Action: models.ActionRestore,
		Total:  len(targets),
	}

	live, err := d.mysql.ListDatabases(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to list live databases")
		return nil, err
	}
	existing := make(map[string]bool, len(live))
	for _, name := range live {
		existing[name] = true
	}

	d.logger.Info().
		Int("databases", len(targets)).
		Str("day", d.namer.Format().Format(day)).
		Msg("starting restore")

	d.run(ctx, result, targets, func(t models.Target) models.ItemResult {
		item := d.restoreOne(ctx, t, existing)
		if item.Error == nil {
			existing[t.Name] = true
		}
		return item
	})

	result.Duration = time.Since(start)
	result.Message = fmt.Sprintf("%d from %d databases restored successfully", result.Succeeded(), result.Total)
	d.finish(result)
	return result, nil
}

func (d *Driver) restoreOne(ctx context.Context, t models.Target, existing map[string]bool) models.ItemResult {
	start := time.Now()
	item := models.ItemResult{Database: t.Name}
	done := func(err error) models.ItemResult {
		item.Error = err
		item.Duration = time.Since(start)
		return item
	}

	if t.Record == nil {
		return done(fmt.Errorf("no archive found for database %s", t.Name))
	}
	item.Path = t.Record.ArchivePath

	if !existing[t.Name] {
		if err := d.mysql.CreateDatabase(ctx, t.Name); err != nil {
			d.logger.Error().Err(err).Str("database", t.Name).Msg("failed to create database, skipping restore")
			return done(err)
		}
	}

	scratch := t.Record.PathWithoutExtension()
	defer func() {
		if err := os.Remove(scratch); err != nil && !os.IsNotExist(err) {
			d.logger.Warn().Err(err).Str("file", scratch).Msg("failed to remove scratch file")
		}
	}()

	if err := d.compressor.Decompress(ctx, t.Record.ArchivePath, scratch); err != nil {
		return done(err)
	}
	return done(d.mysql.Restore(ctx, t.Name, scratch))
}

// run processes targets sequentially. Once ctx is cancelled the remaining
// targets are recorded as failed without being attempted.
func (d *Driver) run(ctx context.Context, result *models.BatchResult, targets []models.Target, fn func(models.Target) models.ItemResult) {
	verb := "Backup"
	if result.Action == models.ActionRestore {
		verb = "Restore"
	}

	for _, t := range targets {
		var item models.ItemResult
		if err := ctx.Err(); err != nil {
			item = models.ItemResult{Database: t.Name, Error: err}
		} else {
			item = fn(t)
		}

		if item.Error != nil {
			result.Failed++
			d.logger.Error().
				Err(item.Error).
				Str("action", result.Action).
				Str("database", t.Name).
				Msg("database failed")
			d.printer.Error(fmt.Sprintf("%s of %s", verb, t.Name))
		} else {
			d.logger.Info().
				Str("action", result.Action).
				Str("database", t.Name).
				Str("path", item.Path).
				Str("duration", item.Duration.Round(time.Millisecond).String()).
				Msg("database done")
			d.printer.Done(fmt.Sprintf("%s of %s", verb, t.Name))
		}
		result.Items = append(result.Items, item)
	}
}

func (d *Driver) finish(result *models.BatchResult) {
	event := d.logger.Info()
	if result.Failed > 0 {
		event = d.logger.Error()
	}
	event.
		Str("action", result.Action).
		Int("total", result.Total).
		Int("failed", result.Failed).
		Str("duration", result.Duration.Round(time.Second).String()).
		Msg(result.Message)
	d.printer.Line(result.Message)
}

var _ Service = (*Driver)(nil)
