package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/manifest"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("should parse a full manifest", func(t *testing.T) {
		t.Parallel()

		// given
		data := []byte(`{
			"name": "@acme/app",
			"version": "1.2.3",
			"private": true,
			"dependencies": {"@acme/lib": "workspace:*", "lodash": "^4.17.21"},
			"devDependencies": {"typescript": "~5.4.0"},
			"peerDependencies": {"react": ">=18"},
			"optionalDependencies": {"fsevents": "^2.3.0"},
			"scripts": {"build": "tsc", "test": "vitest"}
		}`)

		// when
		m, err := manifest.Parse("package.json", data)

		// then
		require.NoError(t, err)
		assert.Equal(t, "@acme/app", m.Name)
		assert.Equal(t, "1.2.3", m.Version.String())
		assert.True(t, m.Private)
		assert.Equal(t, "workspace:*", m.Dependencies[domain.KindRuntime]["@acme/lib"])
		assert.Equal(t, "~5.4.0", m.Dependencies[domain.KindDev]["typescript"])
		assert.Equal(t, ">=18", m.Dependencies[domain.KindPeer]["react"])
		assert.Equal(t, "^2.3.0", m.Dependencies[domain.KindOptional]["fsevents"])
		assert.Equal(t, "tsc", m.Scripts["build"])
	})

	t.Run("should accept a manifest without a version", func(t *testing.T) {
		t.Parallel()

		// given
		data := []byte(`{"name": "root", "private": true}`)

		// when
		m, err := manifest.Parse("package.json", data)

		// then
		require.NoError(t, err)
		assert.Nil(t, m.Version)
		assert.Empty(t, m.RawVersion)
	})

	t.Run("should parse the workspaces array form", func(t *testing.T) {
		t.Parallel()

		// given
		data := []byte(`{"name": "root", "workspaces": ["packages/*", "apps/*"]}`)

		// when
		m, err := manifest.Parse("package.json", data)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"packages/*", "apps/*"}, m.Workspaces)
	})

	t.Run("should parse the workspaces object form with nohoist", func(t *testing.T) {
		t.Parallel()

		// given
		data := []byte(`{
			"name": "root",
			"workspaces": {"packages": ["packages/*"], "nohoist": ["**/react-native"]}
		}`)

		// when
		m, err := manifest.Parse("package.json", data)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"packages/*"}, m.Workspaces)
		assert.Equal(t, []string{"**/react-native"}, m.NoHoist)
	})

	t.Run("should reject a manifest without a name", func(t *testing.T) {
		t.Parallel()

		// given
		data := []byte(`{"version": "1.0.0"}`)

		// when
		_, err := manifest.Parse("package.json", data)

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMalformed)
	})

	t.Run("should reject invalid JSON", func(t *testing.T) {
		t.Parallel()

		// given
		data := []byte(`{"name": "broken"`)

		// when
		_, err := manifest.Parse("package.json", data)

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMalformed)
	})

	t.Run("should reject an invalid version", func(t *testing.T) {
		t.Parallel()

		// given
		data := []byte(`{"name": "x", "version": "not-a-version"}`)

		// when
		_, err := manifest.Parse("package.json", data)

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidVersion)
	})
}
