package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monorel/monorel/domain"
)

func TestMatchesRequirement(t *testing.T) {
	t.Parallel()

	t.Run("should apply caret semantics", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			spec    string
			version string
			want    bool
		}{
			{"^1.2.3", "1.2.3", true},
			{"^1.2.3", "1.9.0", true},
			{"^1.2.3", "2.0.0", false},
			{"^0.2.3", "0.2.9", true},
			{"^0.2.3", "0.3.0", false},
			{"^0.0.3", "0.0.3", true},
			{"^0.0.3", "0.0.4", false},
		}

		for _, c := range cases {
			// given
			v, err := domain.ParseVersion(c.version)
			require.NoError(t, err)

			// when
			got, err := domain.MatchesRequirement(c.spec, v)

			// then
			require.NoError(t, err)
			assert.Equal(t, c.want, got, "%s vs %s", c.spec, c.version)
		}
	})

	t.Run("should apply tilde semantics", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			spec    string
			version string
			want    bool
		}{
			{"~1.2.3", "1.2.9", true},
			{"~1.2.3", "1.3.0", false},
			{"~1.2.3", "1.2.2", false},
		}

		for _, c := range cases {
			// given
			v, err := domain.ParseVersion(c.version)
			require.NoError(t, err)

			// when
			got, err := domain.MatchesRequirement(c.spec, v)

			// then
			require.NoError(t, err)
			assert.Equal(t, c.want, got, "%s vs %s", c.spec, c.version)
		}
	})

	t.Run("should reject protocol specs", func(t *testing.T) {
		t.Parallel()

		// given
		v, err := domain.ParseVersion("1.0.0")
		require.NoError(t, err)

		// when
		_, err = domain.MatchesRequirement("workspace:*", v)

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidRequirement)
	})
}

func TestSpecProtocol(t *testing.T) {
	t.Parallel()

	t.Run("should recognize each local protocol", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "workspace:", domain.SpecProtocol("workspace:^1.0.0"))
		assert.Equal(t, "file:", domain.SpecProtocol("file:../sibling"))
		assert.Equal(t, "link:", domain.SpecProtocol("link:../sibling"))
		assert.Equal(t, "portal:", domain.SpecProtocol("portal:../sibling"))
		assert.Empty(t, domain.SpecProtocol("^1.0.0"))
	})
}

func TestPreservePrefix(t *testing.T) {
	t.Parallel()

	t.Run("should keep the leading operator", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			old  string
			want string
		}{
			{"^1.2.3", "^2.0.0"},
			{"~1.2.3", "~2.0.0"},
			{">=1.2.3", ">=2.0.0"},
			{"=1.2.3", "=2.0.0"},
			{"1.2.3", "2.0.0"},
		}

		for _, c := range cases {
			// when
			got := domain.PreservePrefix(c.old, "2.0.0")

			// then
			assert.Equal(t, c.want, got, c.old)
		}
	})

	t.Run("should never rewrite protocol specs", func(t *testing.T) {
		t.Parallel()

		// when / then
		assert.Equal(t, "workspace:*", domain.PreservePrefix("workspace:*", "2.0.0"))
		assert.Equal(t, "file:../lib", domain.PreservePrefix("file:../lib", "2.0.0"))
	})

	t.Run("should collapse complex ranges to the bare version", func(t *testing.T) {
		t.Parallel()

		// when / then
		assert.Equal(t, "2.0.0", domain.PreservePrefix("*", "2.0.0"))
		assert.Equal(t, "2.0.0", domain.PreservePrefix("latest", "2.0.0"))
	})
}
