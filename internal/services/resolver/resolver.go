// Package resolver turns a requested database selection into concrete targets.
//
// Keyword selections (all, user, system) are strict: they expand to exactly
// what the source holds. Explicit name lists are lenient: names the source
// does not know are dropped without an error, so a typo yields a shorter
// batch rather than a failed one.
package resolver

import (
	"context"
	"time"

	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/fgeck/gomysqlmb/internal/services/archive"
	"github.com/fgeck/gomysqlmb/internal/services/mysql"
	"github.com/rs/zerolog"
)

// Source selects where databases are enumerated from.
type Source struct {
	day     *time.Time
	archive bool
}

// LiveServer enumerates the databases on the running server.
func LiveServer() Source {
	return Source{}
}

// ArchiveDay enumerates the archives written for day.
func ArchiveDay(day time.Time) Source {
	return Source{day: &day, archive: true}
}

// IsArchive reports whether the source is the archive index.
func (s Source) IsArchive() bool { return s.archive }

// Service defines the interface for the database set resolver.
type Service interface {
	Resolve(ctx context.Context, selection models.Selection, source Source) ([]models.Target, error)
}

// Impl implements Service on top of a catalog and an archive index.
type Impl struct {
	catalog   mysql.Catalog
	index     archive.Service
	backupDir string
	logger    zerolog.Logger
}

// New creates a new resolver.
func New(logger zerolog.Logger, catalog mysql.Catalog, index archive.Service, backupDir string) *Impl {
	return &Impl{
		catalog:   catalog,
		index:     index,
		backupDir: backupDir,
		logger:    logger,
	}
}

// Resolve produces the targets for selection from source.
func (r *Impl) Resolve(ctx context.Context, selection models.Selection, source Source) ([]models.Target, error) {
	if selection.Kind == models.SelectSystem && !source.archive {
		return namesToTargets(models.SystemDatabases), nil
	}

	all, err := r.enumerate(ctx, source)
	if err != nil {
		return nil, err
	}

	var targets []models.Target
	switch selection.Kind {
	case models.SelectAll:
		targets = all
	case models.SelectUser:
		targets = filter(all, func(name string) bool { return !models.IsSystemDatabase(name) })
	case models.SelectSystem:
		targets = filter(all, models.IsSystemDatabase)
	default:
		targets = r.intersect(all, selection.Names)
	}

	r.logger.Debug().
		Str("selection", selection.String()).
		Bool("archive", source.archive).
		Int("available", len(all)).
		Int("resolved", len(targets)).
		Msg("databases resolved")

	return targets, nil
}

func (r *Impl) enumerate(ctx context.Context, source Source) ([]models.Target, error) {
	if !source.archive {
		names, err := r.catalog.ListDatabases(ctx)
		if err != nil {
			return nil, err
		}
		return namesToTargets(names), nil
	}

	records, err := r.index.Scan(ctx, r.backupDir, archive.Filter{Day: source.day})
	if err != nil {
		return nil, err
	}

	targets := make([]models.Target, len(records))
	for i := range records {
		targets[i] = models.Target{Name: records[i].DatabaseName, Record: &records[i]}
	}
	return targets, nil
}

// intersect keeps the targets named in requested, in enumeration order.
func (r *Impl) intersect(all []models.Target, requested []string) []models.Target {
	wanted := make(map[string]bool, len(requested))
	for _, name := range requested {
		wanted[name] = true
	}

	known := make(map[string]bool, len(all))
	var targets []models.Target
	for _, t := range all {
		known[t.Name] = true
		if wanted[t.Name] {
			targets = append(targets, t)
		}
	}

	for _, name := range requested {
		if !known[name] {
			r.logger.Debug().Str("database", name).Msg("requested database not found, skipping")
		}
	}
	return targets
}

func filter(targets []models.Target, keep func(name string) bool) []models.Target {
	var out []models.Target
	for _, t := range targets {
		if keep(t.Name) {
			out = append(out, t)
		}
	}
	return out
}

func namesToTargets(names []string) []models.Target {
	targets := make([]models.Target, len(names))
	for i, name := range names {
		targets[i] = models.Target{Name: name}
	}
	return targets
}
