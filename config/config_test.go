package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monorel/monorel/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".monorel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("should keep defaults for keys absent from the file", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "versioning:\n  strategy: unified\n")

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, config.StrategyUnified, cfg.Versioning.Strategy)
		assert.True(t, cfg.Dependencies.PropagateUpdates)
		assert.True(t, cfg.Dependencies.FailOnCircular)
		assert.Equal(t, 10, cfg.Dependencies.MaxPropagationDepth)
		assert.True(t, cfg.Upgrade.Backup.Enabled)
	})

	t.Run("should let the file override default-true booleans", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "dependencies:\n  propagate_updates: false\n")

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.False(t, cfg.Dependencies.PropagateUpdates)
		assert.True(t, cfg.Dependencies.DetectCircular)
		assert.True(t, cfg.Dependencies.IncludePeer)
	})

	t.Run("should expose timeouts as durations", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "upgrade:\n  detection:\n    request_timeout_seconds: 5\n")

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, cfg.Upgrade.Detection.RequestTimeout())
		assert.Equal(t, 300*time.Second, cfg.Upgrade.Detection.OverallTimeout())
	})

	t.Run("should reject an unknown strategy", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "versioning:\n  strategy: chaotic\n")

		// when
		_, err := config.Load(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "versioning.strategy")
	})

	t.Run("should require groups for the mixed strategy", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "versioning:\n  strategy: mixed\n")

		// when
		_, err := config.Load(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "versioning.groups")
	})
}

func TestMerge(t *testing.T) {
	t.Parallel()

	t.Run("should layer overrides without mutating the input", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := config.Default()
		fail := false

		// when
		merged := config.Merge(cfg, config.Overrides{
			Strategy:       config.StrategyUnified,
			RegistryURL:    "https://registry.example.com",
			Concurrency:    3,
			FailOnCircular: &fail,
		})

		// then
		assert.Equal(t, config.StrategyUnified, merged.Versioning.Strategy)
		assert.Equal(t, "https://registry.example.com", merged.Upgrade.Detection.RegistryURL)
		assert.Equal(t, 3, merged.Upgrade.Detection.Concurrency)
		assert.False(t, merged.Dependencies.FailOnCircular)

		assert.Equal(t, config.StrategyIndependent, cfg.Versioning.Strategy)
		assert.True(t, cfg.Dependencies.FailOnCircular)
	})

	t.Run("should keep the configuration when overrides are empty", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := config.Default()

		// when
		merged := config.Merge(cfg, config.Overrides{})

		// then
		assert.Equal(t, cfg.Versioning.Strategy, merged.Versioning.Strategy)
		assert.Equal(t, cfg.Upgrade.Detection.Concurrency, merged.Upgrade.Detection.Concurrency)
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("should find the dotfile at the root", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		path := filepath.Join(root, ".monorel.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

		// when
		found, err := config.FindConfigFile(root)

		// then
		require.NoError(t, err)
		assert.Equal(t, path, found)
	})

	t.Run("should fail when no file exists", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := config.FindConfigFile(t.TempDir())

		// then
		require.Error(t, err)
	})
}
