// Package application orchestrates the toolkit's flows: changeset tracking,
// release resolution, auditing and dependency upgrades. Services own no
// policy of their own; they wire the infrastructure to the configuration.
package application

import (
	"context"
	"fmt"
	"sort"

	logger "github.com/sirupsen/logrus"

	"github.com/monorel/monorel/config"
	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/changeset"
)

// GitOpener defers opening the repository until a flow actually needs git,
// so flows that never touch git work outside a repository.
type GitOpener func() (domain.Git, error)

// ChangesetService manages the pending changeset of the current branch.
type ChangesetService struct {
	store   *changeset.Store
	openGit GitOpener
	cfg     *config.Config
}

// NewChangesetService creates the service.
func NewChangesetService(store *changeset.Store, openGit GitOpener, cfg *config.Config) *ChangesetService {
	return &ChangesetService{store: store, openGit: openGit, cfg: cfg}
}

// TrackOptions parameterize one tracking pass.
type TrackOptions struct {
	// Branch overrides the branch name; empty means the checked-out branch.
	Branch string
	// BaseBranch is the branch commits are counted against.
	BaseBranch string
	Bump       domain.Bump
	Packages   []string
	// Environments to release this changeset to.
	Environments []string
	// SyncCommits records the commits since the base branch divergence.
	SyncCommits bool
}

// Track creates or updates the changeset for the branch: the bump escalates
// monotonically, packages and environments accumulate, and commits since the
// base branch are recorded when requested.
func (s *ChangesetService) Track(ctx context.Context, opts TrackOptions) (*domain.Changeset, error) {
	branch := opts.Branch
	var git domain.Git
	if branch == "" || opts.SyncCommits {
		g, err := s.openGit()
		if err != nil {
			return nil, err
		}
		git = g
	}
	if branch == "" {
		current, err := git.CurrentBranch(ctx)
		if err != nil {
			return nil, err
		}
		branch = current
	}

	exists, err := s.store.Exists(branch)
	if err != nil {
		return nil, err
	}
	if !exists {
		if _, err := s.store.Create(branch, opts.Bump, opts.Environments); err != nil {
			return nil, err
		}
		logger.Infof("Created changeset for branch %q", branch)
	}

	var commits []domain.Commit
	if opts.SyncCommits {
		commits, err = s.commitsSinceBase(ctx, git, opts.BaseBranch, branch)
		if err != nil {
			return nil, err
		}
	}

	return s.store.Update(branch, func(cs *domain.Changeset) bool {
		changed := cs.SetBump(domain.MaxBump(cs.Bump, opts.Bump))
		for _, pkg := range opts.Packages {
			changed = cs.AddPackage(pkg) || changed
		}
		for _, env := range opts.Environments {
			changed = cs.AddEnvironment(env) || changed
		}
		for _, c := range commits {
			changed = cs.AddCommit(c.SHA) || changed
		}
		return changed
	})
}

func (s *ChangesetService) commitsSinceBase(ctx context.Context, git domain.Git, base, branch string) ([]domain.Commit, error) {
	if base == "" {
		base = "main"
	}
	diverged, err := git.DivergedCommit(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to find divergence from %q: %w", base, err)
	}
	commits, err := git.CommitsBetween(ctx, diverged, "HEAD")
	if err != nil {
		return nil, err
	}
	logger.Debugf("Branch %q carries %d commits since %q", branch, len(commits), base)
	return commits, nil
}

// Show returns the pending changeset for the branch; the checked-out branch
// when the name is empty.
func (s *ChangesetService) Show(ctx context.Context, branch string) (*domain.Changeset, error) {
	if branch == "" {
		git, err := s.openGit()
		if err != nil {
			return nil, err
		}
		branch, err = git.CurrentBranch(ctx)
		if err != nil {
			return nil, err
		}
	}
	return s.store.Load(branch)
}

// List returns every pending changeset ordered by branch name.
func (s *ChangesetService) List() ([]*domain.Changeset, error) {
	pending, err := s.store.ListPending()
	if err != nil {
		return nil, err
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Branch < pending[j].Branch })
	return pending, nil
}

// History returns every archived changeset, most recently released first.
func (s *ChangesetService) History() ([]*domain.Changeset, error) {
	archived, err := s.store.ListArchived()
	if err != nil {
		return nil, err
	}
	sort.Slice(archived, func(i, j int) bool {
		a, b := archived[i], archived[j]
		if a.Release != nil && b.Release != nil && !a.Release.AppliedAt.Equal(b.Release.AppliedAt) {
			return a.Release.AppliedAt.After(b.Release.AppliedAt)
		}
		return a.Branch < b.Branch
	})
	return archived, nil
}
