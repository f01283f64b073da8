//go:build unit

package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/monorel/monorel/domain"
	builders "github.com/monorel/monorel/test/domain/entitybuilders"
)

func TestChangesetAccumulation(t *testing.T) {
	t.Parallel()

	t.Run("should keep packages sorted and deduplicated", func(t *testing.T) {
		t.Parallel()

		// given
		cs := builders.NewChangesetBuilder().BuildChangeset()

		// when
		first := cs.AddPackage("pkg-b")
		second := cs.AddPackage("pkg-a")
		duplicate := cs.AddPackage("pkg-b")

		// then
		assert.True(t, first)
		assert.True(t, second)
		assert.False(t, duplicate)
		assert.Equal(t, []string{"pkg-a", "pkg-b"}, cs.Packages)
	})

	t.Run("should keep commits in insertion order without duplicates", func(t *testing.T) {
		t.Parallel()

		// given
		cs := builders.NewChangesetBuilder().BuildChangeset()

		// when
		cs.AddCommit("sha-2")
		cs.AddCommit("sha-1")
		repeated := cs.AddCommit("sha-2")

		// then
		assert.False(t, repeated)
		assert.Equal(t, []string{"sha-2", "sha-1"}, cs.Commits)
	})

	t.Run("should report a bump change only when it differs", func(t *testing.T) {
		t.Parallel()

		// given
		cs := builders.NewChangesetBuilder().WithBump(domain.BumpPatch).BuildChangeset()

		// when / then
		assert.True(t, cs.SetBump(domain.BumpMinor))
		assert.False(t, cs.SetBump(domain.BumpMinor))
	})

	t.Run("should be pending until a release is attached", func(t *testing.T) {
		t.Parallel()

		// given
		cs := builders.NewChangesetBuilder().BuildChangeset()

		// then
		assert.True(t, cs.Pending())

		// when
		cs.Release = &domain.ReleaseInfo{}

		// then
		assert.False(t, cs.Pending())
	})
}

func TestMergeChangesets(t *testing.T) {
	t.Parallel()

	t.Run("should union packages and take the highest bump", func(t *testing.T) {
		t.Parallel()

		// given
		a := builders.NewChangesetBuilder().
			WithBranch("feature/a").
			WithBump(domain.BumpPatch).
			WithPackages("pkg-a", "pkg-shared").
			BuildChangeset()
		b := builders.NewChangesetBuilder().
			WithBranch("feature/b").
			WithBump(domain.BumpMajor).
			WithPackages("pkg-b", "pkg-shared").
			BuildChangeset()

		// when
		merged := domain.MergeChangesets([]*domain.Changeset{a, b})

		// then
		assert.Equal(t, domain.BumpMajor, merged.Bump)
		assert.Equal(t, []string{"pkg-a", "pkg-b", "pkg-shared"}, merged.Packages)
	})

	t.Run("should concatenate commits without deduplication", func(t *testing.T) {
		t.Parallel()

		// given
		a := builders.NewChangesetBuilder().WithBranch("a").WithCommits("sha-1", "sha-2").BuildChangeset()
		b := builders.NewChangesetBuilder().WithBranch("b").WithCommits("sha-2", "sha-3").BuildChangeset()

		// when
		merged := domain.MergeChangesets([]*domain.Changeset{a, b})

		// then
		assert.Equal(t, []string{"sha-1", "sha-2", "sha-2", "sha-3"}, merged.Commits)
	})

	t.Run("should keep the branch name for a single changeset", func(t *testing.T) {
		t.Parallel()

		// given
		only := builders.NewChangesetBuilder().WithBranch("feature/solo").BuildChangeset()

		// when
		merged := domain.MergeChangesets([]*domain.Changeset{only})

		// then
		assert.Equal(t, "feature/solo", merged.Branch)
	})

	t.Run("should union environments", func(t *testing.T) {
		t.Parallel()

		// given
		a := builders.NewChangesetBuilder().WithBranch("a").WithEnvironments("staging").BuildChangeset()
		b := builders.NewChangesetBuilder().WithBranch("b").WithEnvironments("production", "staging").BuildChangeset()

		// when
		merged := domain.MergeChangesets([]*domain.Changeset{a, b})

		// then
		assert.Equal(t, []string{"production", "staging"}, merged.Environments)
	})
}

func TestMaxBump(t *testing.T) {
	t.Parallel()

	t.Run("should rank major over minor over patch over none", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, domain.BumpMajor, domain.MaxBump(domain.BumpMinor, domain.BumpMajor))
		assert.Equal(t, domain.BumpMinor, domain.MaxBump(domain.BumpMinor, domain.BumpPatch))
		assert.Equal(t, domain.BumpPatch, domain.MaxBump(domain.BumpNone, domain.BumpPatch))
	})
}
