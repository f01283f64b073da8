package backup_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/backup"
)

func newManager(t *testing.T) (*backup.Manager, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/repo/package.json",
		[]byte(`{"name": "root", "version": "1.0.0"}`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/repo/packages/a/package.json",
		[]byte(`{"name": "pkg-a", "version": "1.0.0"}`), 0o644))
	return backup.New(fs, "/repo", ".monorel-backups"), fs
}

func TestCreateAndRestore(t *testing.T) {
	t.Parallel()

	t.Run("should restore snapshot files byte for byte", func(t *testing.T) {
		t.Parallel()

		// given
		m, fs := newManager(t)
		original, err := afero.ReadFile(fs, "/repo/packages/a/package.json")
		require.NoError(t, err)

		b, err := m.Create("upgrade", []string{"packages/a/package.json"})
		require.NoError(t, err)

		require.NoError(t, afero.WriteFile(fs, "/repo/packages/a/package.json",
			[]byte(`{"name": "pkg-a", "version": "9.9.9"}`), 0o644))

		// when
		restored, err := m.Restore(b.ID)

		// then
		require.NoError(t, err)
		assert.Equal(t, b.ID, restored.ID)
		current, err := afero.ReadFile(fs, "/repo/packages/a/package.json")
		require.NoError(t, err)
		assert.Equal(t, original, current)
	})

	t.Run("should record the operation and sorted file list", func(t *testing.T) {
		t.Parallel()

		// given
		m, _ := newManager(t)

		// when
		b, err := m.Create("upgrade", []string{"packages/a/package.json", "package.json"})

		// then
		require.NoError(t, err)
		assert.Contains(t, b.ID, "upgrade")
		assert.Equal(t, []string{"package.json", "packages/a/package.json"}, b.Files)
		assert.False(t, b.Succeeded)
	})

	t.Run("should discard a partial backup when a source is missing", func(t *testing.T) {
		t.Parallel()

		// given
		m, _ := newManager(t)

		// when
		_, err := m.Create("upgrade", []string{"package.json", "does/not/exist.json"})

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrBackupFailed)
		backups, listErr := m.List()
		require.NoError(t, listErr)
		assert.Empty(t, backups)
	})

	t.Run("should fail to restore an unknown backup", func(t *testing.T) {
		t.Parallel()

		// given
		m, _ := newManager(t)

		// when
		_, err := m.Restore("2026-01-01T00-00-00-000-missing")

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNoBackup)
	})
}

func TestListAndDelete(t *testing.T) {
	t.Parallel()

	t.Run("should list backups newest first", func(t *testing.T) {
		t.Parallel()

		// given
		m, _ := newManager(t)
		// Operation suffixes keep the identifiers ordered even when two
		// snapshots land in the same millisecond.
		first, err := m.Create("op-a", []string{"package.json"})
		require.NoError(t, err)
		second, err := m.Create("op-b", []string{"package.json"})
		require.NoError(t, err)

		// when
		backups, err := m.List()

		// then
		require.NoError(t, err)
		require.Len(t, backups, 2)
		assert.Equal(t, second.ID, backups[0].ID)
		assert.Equal(t, first.ID, backups[1].ID)
	})

	t.Run("should return nothing before the first backup", func(t *testing.T) {
		t.Parallel()

		// given
		m, _ := newManager(t)

		// when
		backups, err := m.List()

		// then
		require.NoError(t, err)
		assert.Empty(t, backups)
	})

	t.Run("should delete a backup with its snapshot files", func(t *testing.T) {
		t.Parallel()

		// given
		m, _ := newManager(t)
		b, err := m.Create("upgrade", []string{"package.json"})
		require.NoError(t, err)

		// when
		require.NoError(t, m.Delete(b.ID))

		// then
		backups, err := m.List()
		require.NoError(t, err)
		assert.Empty(t, backups)
		assert.ErrorIs(t, m.Delete(b.ID), domain.ErrNoBackup)
	})
}

func TestRetention(t *testing.T) {
	t.Parallel()

	t.Run("should mark a backup as succeeded", func(t *testing.T) {
		t.Parallel()

		// given
		m, _ := newManager(t)
		b, err := m.Create("upgrade", []string{"package.json"})
		require.NoError(t, err)

		// when
		require.NoError(t, m.MarkSuccess(b.ID))

		// then
		backups, err := m.List()
		require.NoError(t, err)
		require.Len(t, backups, 1)
		assert.True(t, backups[0].Succeeded)
	})

	t.Run("should drop succeeded backups when not keeping them", func(t *testing.T) {
		t.Parallel()

		// given
		m, _ := newManager(t)
		done, err := m.Create("op-a", []string{"package.json"})
		require.NoError(t, err)
		pending, err := m.Create("op-b", []string{"package.json"})
		require.NoError(t, err)
		require.NoError(t, m.MarkSuccess(done.ID))

		// when
		require.NoError(t, m.Cleanup(false, 0))

		// then
		backups, listErr := m.List()
		require.NoError(t, listErr)
		require.Len(t, backups, 1)
		assert.Equal(t, pending.ID, backups[0].ID)
	})

	t.Run("should prune the oldest backups beyond the limit", func(t *testing.T) {
		t.Parallel()

		// given
		m, _ := newManager(t)
		oldest, err := m.Create("op-a", []string{"package.json"})
		require.NoError(t, err)
		_, err = m.Create("op-b", []string{"package.json"})
		require.NoError(t, err)
		_, err = m.Create("op-c", []string{"package.json"})
		require.NoError(t, err)

		// when
		require.NoError(t, m.Cleanup(true, 2))

		// then
		backups, listErr := m.List()
		require.NoError(t, listErr)
		require.Len(t, backups, 2)
		for _, b := range backups {
			assert.NotEqual(t, oldest.ID, b.ID)
		}
	})

	t.Run("should trim succeeded backups before unsuccessful ones", func(t *testing.T) {
		t.Parallel()

		// given
		m, _ := newManager(t)
		pending, err := m.Create("op-a", []string{"package.json"})
		require.NoError(t, err)
		done, err := m.Create("op-b", []string{"package.json"})
		require.NoError(t, err)
		require.NoError(t, m.MarkSuccess(done.ID))

		// when
		require.NoError(t, m.Cleanup(true, 1))

		// then
		backups, listErr := m.List()
		require.NoError(t, listErr)
		require.Len(t, backups, 1)
		assert.Equal(t, pending.ID, backups[0].ID)
		assert.False(t, backups[0].Succeeded)
	})

	t.Run("should keep succeeded backups when configured to", func(t *testing.T) {
		t.Parallel()

		// given
		m, _ := newManager(t)
		b, err := m.Create("upgrade", []string{"package.json"})
		require.NoError(t, err)
		require.NoError(t, m.MarkSuccess(b.ID))

		// when
		require.NoError(t, m.Cleanup(true, 0))

		// then
		backups, listErr := m.List()
		require.NoError(t, listErr)
		assert.Len(t, backups, 1)
	})
}
