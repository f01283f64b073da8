//go:build unit

package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monorel/monorel/application"
	"github.com/monorel/monorel/config"
	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/changeset"
	"github.com/monorel/monorel/test/domain/gitdoubles"
)

func newChangesetService(t *testing.T, git *gitdoubles.StubGit) (*application.ChangesetService, *changeset.Store) {
	t.Helper()
	store := changeset.NewStore(afero.NewMemMapFs(), "/repo")
	opener := func() (domain.Git, error) { return git, nil }
	return application.NewChangesetService(store, opener, config.Default()), store
}

func TestTrack(t *testing.T) {
	t.Parallel()

	t.Run("should create a changeset for the checked-out branch", func(t *testing.T) {
		t.Parallel()

		// given
		git := &gitdoubles.StubGit{Branch: "feature/login"}
		svc, _ := newChangesetService(t, git)

		// when
		cs, err := svc.Track(context.Background(), application.TrackOptions{
			Bump:     domain.BumpMinor,
			Packages: []string{"pkg-a"},
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "feature/login", cs.Branch)
		assert.Equal(t, domain.BumpMinor, cs.Bump)
		assert.Equal(t, []string{"pkg-a"}, cs.Packages)
	})

	t.Run("should not open git when the branch is explicit", func(t *testing.T) {
		t.Parallel()

		// given
		store := changeset.NewStore(afero.NewMemMapFs(), "/repo")
		opener := func() (domain.Git, error) { return nil, assert.AnError }
		svc := application.NewChangesetService(store, opener, config.Default())

		// when
		cs, err := svc.Track(context.Background(), application.TrackOptions{
			Branch: "feature/offline",
			Bump:   domain.BumpPatch,
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "feature/offline", cs.Branch)
	})

	t.Run("should escalate the bump but never lower it", func(t *testing.T) {
		t.Parallel()

		// given
		git := &gitdoubles.StubGit{Branch: "feature/login"}
		svc, _ := newChangesetService(t, git)
		_, err := svc.Track(context.Background(), application.TrackOptions{Bump: domain.BumpMajor})
		require.NoError(t, err)

		// when
		cs, err := svc.Track(context.Background(), application.TrackOptions{Bump: domain.BumpPatch})

		// then
		require.NoError(t, err)
		assert.Equal(t, domain.BumpMajor, cs.Bump)
	})

	t.Run("should accumulate packages and environments across calls", func(t *testing.T) {
		t.Parallel()

		// given
		git := &gitdoubles.StubGit{Branch: "feature/login"}
		svc, _ := newChangesetService(t, git)
		_, err := svc.Track(context.Background(), application.TrackOptions{
			Bump:         domain.BumpPatch,
			Packages:     []string{"pkg-b"},
			Environments: []string{"staging"},
		})
		require.NoError(t, err)

		// when
		cs, err := svc.Track(context.Background(), application.TrackOptions{
			Bump:         domain.BumpPatch,
			Packages:     []string{"pkg-a", "pkg-b"},
			Environments: []string{"prod"},
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"pkg-a", "pkg-b"}, cs.Packages)
		assert.Equal(t, []string{"prod", "staging"}, cs.Environments)
	})

	t.Run("should record the commits since the base branch", func(t *testing.T) {
		t.Parallel()

		// given
		git := &gitdoubles.StubGit{
			Branch:    "feature/login",
			MergeBase: "base456",
			Commits: []domain.Commit{
				{SHA: "abc123", Message: "feat: add login"},
				{SHA: "def789", Message: "fix: typo"},
			},
		}
		svc, _ := newChangesetService(t, git)

		// when
		cs, err := svc.Track(context.Background(), application.TrackOptions{
			Bump:        domain.BumpMinor,
			SyncCommits: true,
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"abc123", "def789"}, cs.Commits)
		assert.Equal(t, []string{"main"}, git.DivergedBases)
		assert.Equal(t, [][2]string{{"base456", "HEAD"}}, git.CommitsRanges)
	})

	t.Run("should count commits against a custom base branch", func(t *testing.T) {
		t.Parallel()

		// given
		git := &gitdoubles.StubGit{Branch: "feature/login", MergeBase: "base456"}
		svc, _ := newChangesetService(t, git)

		// when
		_, err := svc.Track(context.Background(), application.TrackOptions{
			Bump:        domain.BumpPatch,
			BaseBranch:  "develop",
			SyncCommits: true,
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"develop"}, git.DivergedBases)
	})
}

func TestShowAndList(t *testing.T) {
	t.Parallel()

	t.Run("should show the changeset of the checked-out branch", func(t *testing.T) {
		t.Parallel()

		// given
		git := &gitdoubles.StubGit{Branch: "feature/login"}
		svc, _ := newChangesetService(t, git)
		_, err := svc.Track(context.Background(), application.TrackOptions{Bump: domain.BumpMinor})
		require.NoError(t, err)

		// when
		cs, err := svc.Show(context.Background(), "")

		// then
		require.NoError(t, err)
		assert.Equal(t, "feature/login", cs.Branch)
	})

	t.Run("should list pending changesets by branch name", func(t *testing.T) {
		t.Parallel()

		// given
		git := &gitdoubles.StubGit{Branch: "unused"}
		svc, store := newChangesetService(t, git)
		_, err := store.Create("feature/zeta", domain.BumpPatch, nil)
		require.NoError(t, err)
		_, err = store.Create("feature/alpha", domain.BumpPatch, nil)
		require.NoError(t, err)

		// when
		pending, err := svc.List()

		// then
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, "feature/alpha", pending[0].Branch)
		assert.Equal(t, "feature/zeta", pending[1].Branch)
	})

	t.Run("should order history most recently released first", func(t *testing.T) {
		t.Parallel()

		// given
		git := &gitdoubles.StubGit{Branch: "unused"}
		svc, store := newChangesetService(t, git)

		older, err := store.Create("feature/older", domain.BumpPatch, nil)
		require.NoError(t, err)
		newer, err := store.Create("feature/newer", domain.BumpPatch, nil)
		require.NoError(t, err)

		require.NoError(t, store.Archive(older, &domain.ReleaseInfo{
			AppliedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			AppliedBy: "monorel",
		}))
		require.NoError(t, store.Archive(newer, &domain.ReleaseInfo{
			AppliedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			AppliedBy: "monorel",
		}))

		// when
		history, err := svc.History()

		// then
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "feature/newer", history[0].Branch)
		assert.Equal(t, "feature/older", history[1].Branch)
	})
}
