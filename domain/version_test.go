package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monorel/monorel/domain"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	t.Run("should parse a strict semver version", func(t *testing.T) {
		t.Parallel()

		// given
		raw := "1.2.3"

		// when
		v, err := domain.ParseVersion(raw)

		// then
		require.NoError(t, err)
		assert.Equal(t, uint64(1), v.Major())
		assert.Equal(t, uint64(2), v.Minor())
		assert.Equal(t, uint64(3), v.Patch())
	})

	t.Run("should accept a leading v prefix", func(t *testing.T) {
		t.Parallel()

		// given
		raw := "v2.0.0"

		// when
		v, err := domain.ParseVersion(raw)

		// then
		require.NoError(t, err)
		assert.Equal(t, "2.0.0", v.String())
	})

	t.Run("should keep prerelease and build metadata", func(t *testing.T) {
		t.Parallel()

		// given
		raw := "1.2.3-beta.1+build.5"

		// when
		v, err := domain.ParseVersion(raw)

		// then
		require.NoError(t, err)
		assert.Equal(t, "beta.1", v.Prerelease())
		assert.Equal(t, "build.5", v.Metadata())
	})

	t.Run("should reject an incomplete version", func(t *testing.T) {
		t.Parallel()

		// given
		raw := "1.2"

		// when
		_, err := domain.ParseVersion(raw)

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidVersion)
	})
}

func TestApplyBump(t *testing.T) {
	t.Parallel()

	t.Run("should bump each axis and reset the lower ones", func(t *testing.T) {
		t.Parallel()

		// given
		current, err := domain.ParseVersion("1.2.3")
		require.NoError(t, err)

		// when / then
		assert.Equal(t, "2.0.0", domain.ApplyBump(current, domain.BumpMajor).String())
		assert.Equal(t, "1.3.0", domain.ApplyBump(current, domain.BumpMinor).String())
		assert.Equal(t, "1.2.4", domain.ApplyBump(current, domain.BumpPatch).String())
	})

	t.Run("should complete a prerelease to its own base", func(t *testing.T) {
		t.Parallel()

		// given
		patchPre, err := domain.ParseVersion("1.2.3-beta.2+meta")
		require.NoError(t, err)
		minorPre, err := domain.ParseVersion("1.3.0-beta.1")
		require.NoError(t, err)
		majorPre, err := domain.ParseVersion("2.0.0-rc.0")
		require.NoError(t, err)

		// when / then
		assert.Equal(t, "1.2.3", domain.ApplyBump(patchPre, domain.BumpPatch).String())
		assert.Equal(t, "1.3.0", domain.ApplyBump(minorPre, domain.BumpMinor).String())
		assert.Equal(t, "2.0.0", domain.ApplyBump(majorPre, domain.BumpMajor).String())
	})

	t.Run("should move past a prerelease of an earlier base", func(t *testing.T) {
		t.Parallel()

		// given
		current, err := domain.ParseVersion("1.2.3-beta.2")
		require.NoError(t, err)

		// when / then
		assert.Equal(t, "1.3.0", domain.ApplyBump(current, domain.BumpMinor).String())
		assert.Equal(t, "2.0.0", domain.ApplyBump(current, domain.BumpMajor).String())
	})

	t.Run("should return the current version for a none bump", func(t *testing.T) {
		t.Parallel()

		// given
		current, err := domain.ParseVersion("1.2.3")
		require.NoError(t, err)

		// when
		next := domain.ApplyBump(current, domain.BumpNone)

		// then
		assert.Equal(t, "1.2.3", next.String())
	})
}

func TestNextPrerelease(t *testing.T) {
	t.Parallel()

	t.Run("should start the sequence at zero when the base changes", func(t *testing.T) {
		t.Parallel()

		// given
		current, _ := domain.ParseVersion("1.2.3")
		base, _ := domain.ParseVersion("1.3.0")

		// when
		next, err := domain.NextPrerelease(current, base, "beta")

		// then
		require.NoError(t, err)
		assert.Equal(t, "1.3.0-beta.0", next.String())
	})

	t.Run("should continue the sequence on the same base", func(t *testing.T) {
		t.Parallel()

		// given
		current, _ := domain.ParseVersion("1.3.0-beta.2")
		base, _ := domain.ParseVersion("1.3.0")

		// when
		next, err := domain.NextPrerelease(current, base, "beta")

		// then
		require.NoError(t, err)
		assert.Equal(t, "1.3.0-beta.3", next.String())
	})

	t.Run("should restart the sequence when the tag changes", func(t *testing.T) {
		t.Parallel()

		// given
		current, _ := domain.ParseVersion("1.3.0-beta.2")
		base, _ := domain.ParseVersion("1.3.0")

		// when
		next, err := domain.NextPrerelease(current, base, "rc")

		// then
		require.NoError(t, err)
		assert.Equal(t, "1.3.0-rc.0", next.String())
	})
}

func TestClassifyUpgrade(t *testing.T) {
	t.Parallel()

	t.Run("should classify each axis", func(t *testing.T) {
		t.Parallel()

		// given
		current, _ := domain.ParseVersion("1.2.3")

		cases := []struct {
			latest string
			want   domain.UpgradeType
		}{
			{"2.0.0", domain.UpgradeMajor},
			{"1.3.0", domain.UpgradeMinor},
			{"1.2.4", domain.UpgradePatch},
		}

		for _, c := range cases {
			latest, _ := domain.ParseVersion(c.latest)

			// when
			got, newer := domain.ClassifyUpgrade(current, latest)

			// then
			assert.True(t, newer, c.latest)
			assert.Equal(t, c.want, got, c.latest)
		}
	})

	t.Run("should report not newer for equal or older versions", func(t *testing.T) {
		t.Parallel()

		// given
		current, _ := domain.ParseVersion("1.2.3")

		for _, raw := range []string{"1.2.3", "1.2.2", "0.9.9"} {
			latest, _ := domain.ParseVersion(raw)

			// when
			_, newer := domain.ClassifyUpgrade(current, latest)

			// then
			assert.False(t, newer, raw)
		}
	})
}
