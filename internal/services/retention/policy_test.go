package retention

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fgeck/gomysqlmb/internal/console"
	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/fgeck/gomysqlmb/internal/naming"
	"github.com/fgeck/gomysqlmb/internal/services/archive"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

var fixedNow = time.Date(2026, 10, 18, 3, 0, 0, 0, time.Local)

func clock() time.Time { return fixedNow }

type fixture struct {
	root  string
	old   []string
	fresh []string
}

// setup writes archives aged 40, 31 and 30 days minus a minute, plus 5 days.
func setup(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{root: root}

	write := func(name string, mod time.Time) string {
		path := filepath.Join(root, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
		require.NoError(t, os.Chtimes(path, mod, mod))
		return path
	}

	f.old = append(f.old,
		write("2026-09-08-shop.bz2", fixedNow.AddDate(0, 0, -40)),
		write("2026-09-17-shop.bz2", fixedNow.AddDate(0, 0, -31)),
	)
	f.fresh = append(f.fresh,
		write("2026-09-18-shop.bz2", fixedNow.AddDate(0, 0, -30).Add(time.Minute)),
		write("2026-10-13-shop.bz2", fixedNow.AddDate(0, 0, -5)),
	)
	return f
}

func newPolicy(root string, remove func(string) error) *Policy {
	namer := naming.NewNamer(naming.MustDateFormat(naming.DefaultDateFormat), naming.DefaultExtension)
	index := archive.New(testLogger(), namer)
	return NewWithClock(testLogger(), console.Discard(), index, root, clock, remove)
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestApply_PreviewNeverDeletes(t *testing.T) {
	f := setup(t)

	result, err := newPolicy(f.root, os.Remove).Apply(context.Background(), 30, false)

	require.NoError(t, err)
	assert.Equal(t, baseNames(f.old), result.Expired)
	assert.Empty(t, result.Deleted)
	assert.False(t, result.Forced)
	for _, p := range append(f.old, f.fresh...) {
		assert.True(t, exists(p), p)
	}
}

func TestApply_ForceDeletesExactlyExpired(t *testing.T) {
	f := setup(t)

	result, err := newPolicy(f.root, os.Remove).Apply(context.Background(), 30, true)

	require.NoError(t, err)
	assert.Equal(t, baseNames(f.old), result.Expired)
	assert.Equal(t, baseNames(f.old), result.Deleted)
	assert.True(t, result.Forced)
	for _, p := range f.old {
		assert.False(t, exists(p), p)
	}
	for _, p := range f.fresh {
		assert.True(t, exists(p), p)
	}
}

func TestApply_Idempotent(t *testing.T) {
	f := setup(t)
	policy := newPolicy(f.root, os.Remove)

	_, err := policy.Apply(context.Background(), 30, true)
	require.NoError(t, err)

	result, err := policy.Apply(context.Background(), 30, true)
	require.NoError(t, err)
	assert.Empty(t, result.Expired)
	assert.Empty(t, result.Deleted)
}

func TestApply_ZeroRetentionExpiresEverythingOlderThanNow(t *testing.T) {
	f := setup(t)

	result, err := newPolicy(f.root, os.Remove).Apply(context.Background(), 0, false)

	require.NoError(t, err)
	assert.Len(t, result.Expired, 4)
	assert.True(t, fixedNow.Equal(result.Cutoff))
}

func TestApply_DeletionFailureIsFatal(t *testing.T) {
	f := setup(t)
	calls := 0
	remove := func(path string) error {
		calls++
		if calls == 2 {
			return errors.New("permission denied")
		}
		return os.Remove(path)
	}

	result, err := newPolicy(f.root, remove).Apply(context.Background(), 30, true)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")

	var delErr *DeletionError
	require.True(t, errors.As(err, &delErr))
	assert.Equal(t, []string{"2026-09-08-shop.bz2"}, delErr.Deleted)
	assert.Equal(t, []string{"2026-09-08-shop.bz2"}, result.Deleted)

	var fsErr *models.FilesystemError
	require.True(t, errors.As(err, &fsErr))
	assert.Equal(t, f.old[1], fsErr.Path)
	assert.True(t, exists(f.old[1]))
}

func TestApply_ScanFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	_, err := newPolicy(missing, os.Remove).Apply(context.Background(), 30, true)

	var scanErr *models.ArchiveScanError
	assert.True(t, errors.As(err, &scanErr))
}

func TestDeletionError_Message(t *testing.T) {
	err := &DeletionError{Err: errors.New("boom")}
	assert.Equal(t, "retention sweep aborted, nothing deleted: boom", err.Error())

	err = &DeletionError{Deleted: []string{"a.bz2", "b.bz2"}, Err: errors.New("boom")}
	assert.Equal(t, "retention sweep aborted after deleting a.bz2, b.bz2: boom", err.Error())
}
