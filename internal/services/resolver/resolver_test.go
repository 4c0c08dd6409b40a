package resolver

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/fgeck/gomysqlmb/internal/services/archive"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCatalog struct {
	listFunc  func(ctx context.Context) ([]string, error)
	listCalls int
}

func (m *mockCatalog) ListDatabases(ctx context.Context) ([]string, error) {
	m.listCalls++
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []string{"information_schema", "shop", "mysql", "wiki", "performance_schema"}, nil
}

func (m *mockCatalog) CreateDatabase(ctx context.Context, name string) error {
	return nil
}

type mockIndex struct {
	scanFunc     func(ctx context.Context, root string, filter archive.Filter) ([]models.BackupRecord, error)
	capturedRoot string
	captured     archive.Filter
}

func (m *mockIndex) Scan(ctx context.Context, root string, filter archive.Filter) ([]models.BackupRecord, error) {
	m.capturedRoot = root
	m.captured = filter
	if m.scanFunc != nil {
		return m.scanFunc(ctx, root, filter)
	}
	return []models.BackupRecord{
		{DatabaseName: "mysql", ArchivePath: "/backups/2026-10-17-mysql.bz2"},
		{DatabaseName: "shop", ArchivePath: "/backups/2026-10-17-shop.bz2"},
		{DatabaseName: "wiki", ArchivePath: "/backups/2026-10-17-wiki.bz2"},
	}, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newTestResolver(catalog *mockCatalog, index *mockIndex) *Impl {
	return New(testLogger(), catalog, index, "/backups")
}

func resolveNames(t *testing.T, r *Impl, requested []string, source Source) []string {
	t.Helper()
	targets, err := r.Resolve(context.Background(), models.ParseSelection(requested), source)
	require.NoError(t, err)
	return models.Names(targets)
}

var fullEnumeration = []string{"information_schema", "shop", "mysql", "wiki", "performance_schema"}

func TestResolve_AllEquivalents(t *testing.T) {
	r := newTestResolver(&mockCatalog{}, &mockIndex{})

	for _, requested := range [][]string{nil, {}, {"all"}, {""}, {"all", "shop"}} {
		assert.Equal(t, fullEnumeration, resolveNames(t, r, requested, LiveServer()), "requested %v", requested)
	}
}

func TestResolve_User(t *testing.T) {
	r := newTestResolver(&mockCatalog{}, &mockIndex{})

	got := resolveNames(t, r, []string{"user"}, LiveServer())

	assert.Equal(t, []string{"shop", "wiki"}, got)
	for _, name := range got {
		assert.False(t, models.IsSystemDatabase(name))
	}
	// user ∪ system covers the full enumeration
	union := map[string]bool{}
	for _, name := range append(got, models.SystemDatabases...) {
		union[name] = true
	}
	for _, name := range fullEnumeration {
		assert.True(t, union[name], name)
	}
}

func TestResolve_SystemLive(t *testing.T) {
	catalog := &mockCatalog{}
	r := newTestResolver(catalog, &mockIndex{})

	got := resolveNames(t, r, []string{"system"}, LiveServer())

	assert.Equal(t, models.SystemDatabases, got)
	assert.Equal(t, 0, catalog.listCalls)
}

func TestResolve_SystemArchiveIntersects(t *testing.T) {
	r := newTestResolver(&mockCatalog{}, &mockIndex{})

	got := resolveNames(t, r, []string{"system"}, ArchiveDay(time.Now()))

	assert.Equal(t, []string{"mysql"}, got)
	for _, name := range got {
		assert.True(t, models.IsSystemDatabase(name))
	}
}

func TestResolve_ExplicitIntersectsInEnumerationOrder(t *testing.T) {
	r := newTestResolver(&mockCatalog{}, &mockIndex{})

	got := resolveNames(t, r, []string{"wiki", "typo", "shop"}, LiveServer())

	assert.Equal(t, []string{"shop", "wiki"}, got)
}

func TestResolve_ExplicitUnknownNamesDroppedSilently(t *testing.T) {
	r := newTestResolver(&mockCatalog{}, &mockIndex{})

	targets, err := r.Resolve(context.Background(), models.ParseSelection([]string{"nope", "missing"}), LiveServer())

	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestResolve_KeywordOnlyOnFirstElement(t *testing.T) {
	r := newTestResolver(&mockCatalog{}, &mockIndex{})

	// "user" in a later position is an ordinary (unknown) name
	got := resolveNames(t, r, []string{"shop", "user"}, LiveServer())

	assert.Equal(t, []string{"shop"}, got)
}

func TestResolve_ArchiveDay(t *testing.T) {
	index := &mockIndex{}
	r := newTestResolver(&mockCatalog{}, index)
	day := time.Date(2026, 10, 17, 0, 0, 0, 0, time.Local)

	targets, err := r.Resolve(context.Background(), models.ParseSelection([]string{"wiki", "shop"}), ArchiveDay(day))

	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "shop", targets[0].Name)
	require.NotNil(t, targets[0].Record)
	assert.Equal(t, "/backups/2026-10-17-shop.bz2", targets[0].Record.ArchivePath)
	assert.Equal(t, "/backups", index.capturedRoot)
	require.NotNil(t, index.captured.Day)
	assert.True(t, day.Equal(*index.captured.Day))
}

func TestResolve_ArchiveUser(t *testing.T) {
	r := newTestResolver(&mockCatalog{}, &mockIndex{})

	got := resolveNames(t, r, []string{"user"}, ArchiveDay(time.Now()))

	assert.Equal(t, []string{"shop", "wiki"}, got)
}

func TestResolve_EnumerationFailure(t *testing.T) {
	enumErr := &models.EnumerationError{User: "backup", Err: errors.New("access denied")}
	catalog := &mockCatalog{
		listFunc: func(ctx context.Context) ([]string, error) {
			return nil, enumErr
		},
	}
	r := newTestResolver(catalog, &mockIndex{})

	targets, err := r.Resolve(context.Background(), models.ParseSelection(nil), LiveServer())

	assert.Nil(t, targets)
	assert.ErrorIs(t, err, enumErr)
}

func TestResolve_ScanFailure(t *testing.T) {
	scanErr := &models.ArchiveScanError{Root: "/backups", Err: errors.New("permission denied")}
	index := &mockIndex{
		scanFunc: func(ctx context.Context, root string, filter archive.Filter) ([]models.BackupRecord, error) {
			return nil, scanErr
		},
	}
	r := newTestResolver(&mockCatalog{}, index)

	_, err := r.Resolve(context.Background(), models.ParseSelection([]string{"user"}), ArchiveDay(time.Now()))

	assert.ErrorIs(t, err, scanErr)
}

func TestSource(t *testing.T) {
	assert.False(t, LiveServer().IsArchive())
	assert.True(t, ArchiveDay(time.Now()).IsArchive())
}
