package changelog_test

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monorel/monorel/infrastructure/changelog"
)

const existing = `# Changelog

All notable changes to this project will be documented in this file.

## [Unreleased]

### Changed

- Reworked the build pipeline

## [1.1.0] - 2026-02-01

### Changed

- Added the audit command
`

func TestInsertEntries(t *testing.T) {
	t.Parallel()

	t.Run("should append after the last unreleased bullet", func(t *testing.T) {
		t.Parallel()

		// when
		updated := changelog.InsertEntries(existing, []string{"Commit abc123def456"})

		// then
		lines := strings.Split(updated, "\n")
		var pipeline, commit int
		for i, line := range lines {
			switch strings.TrimSpace(line) {
			case "- Reworked the build pipeline":
				pipeline = i
			case "- Commit abc123def456":
				commit = i
			}
		}
		require.NotZero(t, commit)
		assert.Equal(t, pipeline+1, commit)
		assert.Less(t, strings.Index(updated, "- Commit abc123def456"),
			strings.Index(updated, "## [1.1.0]"))
	})

	t.Run("should create a changed subsection when missing", func(t *testing.T) {
		t.Parallel()

		// given
		content := "# Changelog\n\n## [Unreleased]\n\n## [1.0.0] - 2026-01-01\n"

		// when
		updated := changelog.InsertEntries(content, []string{"First entry"})

		// then
		assert.Contains(t, updated, "### Changed")
		assert.Less(t, strings.Index(updated, "- First entry"), strings.Index(updated, "## [1.0.0]"))
	})

	t.Run("should prefix bare entries with a bullet", func(t *testing.T) {
		t.Parallel()

		// when
		updated := changelog.InsertEntries(existing, []string{"Plain text", "- Already a bullet"})

		// then
		assert.Contains(t, updated, "- Plain text")
		assert.Contains(t, updated, "- Already a bullet")
		assert.NotContains(t, updated, "- - Already a bullet")
	})

	t.Run("should leave content without an unreleased section alone", func(t *testing.T) {
		t.Parallel()

		// given
		content := "# Changelog\n\n## [1.0.0] - 2026-01-01\n"

		// when
		updated := changelog.InsertEntries(content, []string{"Entry"})

		// then
		assert.Equal(t, content, updated)
	})

	t.Run("should do nothing for an empty entry list", func(t *testing.T) {
		t.Parallel()

		// when
		updated := changelog.InsertEntries(existing, nil)

		// then
		assert.Equal(t, existing, updated)
	})
}

func TestRelease(t *testing.T) {
	t.Parallel()

	t.Run("should promote unreleased to a dated version heading", func(t *testing.T) {
		t.Parallel()

		// given
		date := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

		// when
		updated := changelog.Release(existing, "1.2.0", date)

		// then
		assert.Contains(t, updated, "## [1.2.0] - 2026-03-15")
		assert.Contains(t, updated, "## [Unreleased]")
		assert.Less(t, strings.Index(updated, "## [Unreleased]"),
			strings.Index(updated, "## [1.2.0]"))
		assert.Less(t, strings.Index(updated, "## [1.2.0]"),
			strings.Index(updated, "## [1.1.0]"))
	})

	t.Run("should keep the released bullets under the new heading", func(t *testing.T) {
		t.Parallel()

		// when
		updated := changelog.Release(existing, "1.2.0", time.Now())

		// then
		assert.Less(t, strings.Index(updated, "## [1.2.0]"),
			strings.Index(updated, "- Reworked the build pipeline"))
	})

	t.Run("should leave content without an unreleased section alone", func(t *testing.T) {
		t.Parallel()

		// given
		content := "# Changelog\n\n## [1.0.0] - 2026-01-01\n"

		// when
		updated := changelog.Release(content, "2.0.0", time.Now())

		// then
		assert.Equal(t, content, updated)
	})
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	t.Run("should create a changelog from the skeleton", func(t *testing.T) {
		t.Parallel()

		// given
		fs := afero.NewMemMapFs()
		date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

		// when
		err := changelog.Update(fs, "/repo/packages/a", []string{"Commit abc123def456"}, "1.0.1", date)

		// then
		require.NoError(t, err)
		data, readErr := afero.ReadFile(fs, "/repo/packages/a/CHANGELOG.md")
		require.NoError(t, readErr)
		content := string(data)
		assert.Contains(t, content, "# Changelog")
		assert.Contains(t, content, "## [Unreleased]")
		assert.Contains(t, content, "## [1.0.1] - 2026-04-01")
		assert.Contains(t, content, "- Commit abc123def456")
	})

	t.Run("should update an existing changelog in place", func(t *testing.T) {
		t.Parallel()

		// given
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/repo/CHANGELOG.md", []byte(existing), 0o644))

		// when
		err := changelog.Update(fs, "/repo", []string{"New entry"}, "", time.Now())

		// then
		require.NoError(t, err)
		data, readErr := afero.ReadFile(fs, "/repo/CHANGELOG.md")
		require.NoError(t, readErr)
		assert.Contains(t, string(data), "- New entry")
		assert.Contains(t, string(data), "## [1.1.0] - 2026-02-01")
	})

	t.Run("should skip the write when nothing changes", func(t *testing.T) {
		t.Parallel()

		// given
		content := "# Changelog\n\n## [1.0.0] - 2026-01-01\n"
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/repo/CHANGELOG.md", []byte(content), 0o644))

		// when
		err := changelog.Update(fs, "/repo", []string{"Entry"}, "", time.Now())

		// then
		require.NoError(t, err)
		data, readErr := afero.ReadFile(fs, "/repo/CHANGELOG.md")
		require.NoError(t, readErr)
		assert.Equal(t, content, string(data))
	})
}
