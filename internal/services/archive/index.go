// Package archive discovers backup archives on disk and turns them into BackupRecords.
package archive

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/fgeck/gomysqlmb/internal/naming"
	"github.com/rs/zerolog"
)

// Filter narrows a scan.
type Filter struct {
	// Day restricts the scan to archives of that calendar day. Nil matches any day.
	Day *time.Time
	// NewerThan skips files modified before it. The zero value disables the cutoff.
	NewerThan time.Time
}

// Service defines the interface for the archive index.
type Service interface {
	Scan(ctx context.Context, root string, filter Filter) ([]models.BackupRecord, error)
}

// Index implements Service by walking the backup directory.
type Index struct {
	namer  *naming.Namer
	logger zerolog.Logger
}

// New creates a new archive index using namer to recognize archive names.
func New(logger zerolog.Logger, namer *naming.Namer) *Index {
	return &Index{
		namer:  namer,
		logger: logger,
	}
}

// Scan walks root recursively and returns the matching archives sorted by path.
func (idx *Index) Scan(ctx context.Context, root string, filter Filter) ([]models.BackupRecord, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &models.ArchiveScanError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &models.ArchiveScanError{Root: root, Err: fmt.Errorf("not a directory")}
	}

	var records []models.BackupRecord
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}

		record, ok := idx.match(d.Name(), filter)
		if !ok {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		if !filter.NewerThan.IsZero() && fi.ModTime().Before(filter.NewerThan) {
			return nil
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		record.ArchivePath = absPath
		record.ModTime = fi.ModTime()
		record.Size = fi.Size()
		records = append(records, record)
		return nil
	})
	if walkErr != nil {
		return nil, &models.ArchiveScanError{Root: root, Err: walkErr}
	}

	models.SortRecords(records)

	idx.logger.Debug().
		Str("root", root).
		Int("archives", len(records)).
		Msg("backup directory scanned")

	return records, nil
}

func (idx *Index) match(fileName string, filter Filter) (models.BackupRecord, bool) {
	if filter.Day != nil {
		db, ok := idx.namer.ParseForDay(fileName, *filter.Day)
		if !ok {
			return models.BackupRecord{}, false
		}
		return models.BackupRecord{DatabaseName: db, Day: naming.Day(*filter.Day)}, true
	}

	db, day, ok := idx.namer.Parse(fileName)
	if !ok {
		return models.BackupRecord{}, false
	}
	return models.BackupRecord{DatabaseName: db, Day: day}, true
}

// TotalSize sums the sizes of records.
func TotalSize(records []models.BackupRecord) int64 {
	var total int64
	for _, r := range records {
		total += r.Size
	}
	return total
}
