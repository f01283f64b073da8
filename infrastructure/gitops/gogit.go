// Package gitops implements the Git capability with go-git, keeping the
// toolkit free of a git binary dependency.
package gitops

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/monorel/monorel/domain"
)

// Repository adapts a local git repository to domain.Git.
type Repository struct {
	repo *git.Repository
}

// Open opens the repository containing dir, searching parent directories the
// way the git CLI does.
func Open(dir string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %q: %w", dir, err)
	}
	return &Repository{repo: repo}, nil
}

// CurrentBranch implements domain.Git.
func (r *Repository) CurrentBranch(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", head.Hash())
	}
	return head.Name().Short(), nil
}

// CurrentSHA implements domain.Git.
func (r *Repository) CurrentSHA(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// DivergedCommit implements domain.Git. It returns the merge base between
// HEAD and the given base branch.
func (r *Repository) DivergedCommit(_ context.Context, base string) (string, error) {
	headCommit, err := r.headCommit()
	if err != nil {
		return "", err
	}
	baseCommit, err := r.branchCommit(base)
	if err != nil {
		return "", err
	}

	bases, err := headCommit.MergeBase(baseCommit)
	if err != nil {
		return "", fmt.Errorf("failed to compute merge base with %q: %w", base, err)
	}
	if len(bases) == 0 {
		return "", fmt.Errorf("no common ancestor between HEAD and %q", base)
	}
	return bases[0].Hash.String(), nil
}

// CommitsBetween implements domain.Git. Commits reachable from head but not
// from base come back oldest first.
func (r *Repository) CommitsBetween(_ context.Context, base, head string) ([]domain.Commit, error) {
	baseCommit, err := r.resolveCommit(base)
	if err != nil {
		return nil, err
	}
	headCommit, err := r.resolveCommit(head)
	if err != nil {
		return nil, err
	}

	excluded := map[plumbing.Hash]bool{}
	baseIter := object.NewCommitPreorderIter(baseCommit, nil, nil)
	err = baseIter.ForEach(func(c *object.Commit) error {
		excluded[c.Hash] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history of %q: %w", base, err)
	}

	var commits []domain.Commit
	headIter := object.NewCommitPreorderIter(headCommit, nil, nil)
	err = headIter.ForEach(func(c *object.Commit) error {
		if excluded[c.Hash] {
			return nil
		}
		commits = append(commits, domain.Commit{
			SHA:     c.Hash.String(),
			Message: c.Message,
			Author:  c.Author.Name,
			When:    c.Author.When,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history of %q: %w", head, err)
	}

	sort.Slice(commits, func(i, j int) bool { return commits[i].When.Before(commits[j].When) })
	return commits, nil
}

// ChangedFilesSince implements domain.Git.
func (r *Repository) ChangedFilesSince(_ context.Context, sha string) ([]string, error) {
	since, err := r.resolveCommit(sha)
	if err != nil {
		return nil, err
	}
	head, err := r.headCommit()
	if err != nil {
		return nil, err
	}

	sinceTree, err := since.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of %q: %w", sha, err)
	}
	headTree, err := head.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD tree: %w", err)
	}

	changes, err := sinceTree.Diff(headTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %q against HEAD: %w", sha, err)
	}

	seen := map[string]bool{}
	var paths []string
	for _, change := range changes {
		for _, name := range []string{change.From.Name, change.To.Name} {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			paths = append(paths, name)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// CreateBranch implements domain.Git.
func (r *Repository) CreateBranch(_ context.Context, name string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), head.Hash())
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("failed to create branch %q: %w", name, err)
	}
	return nil
}

// Checkout implements domain.Git.
func (r *Repository) Checkout(_ context.Context, name string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	err = wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)})
	if err != nil {
		return fmt.Errorf("failed to checkout %q: %w", name, err)
	}
	return nil
}

// Add implements domain.Git.
func (r *Repository) Add(_ context.Context, paths ...string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	for _, path := range paths {
		if _, err := wt.Add(path); err != nil {
			return fmt.Errorf("failed to stage %q: %w", path, err)
		}
	}
	return nil
}

// Commit implements domain.Git.
func (r *Repository) Commit(_ context.Context, message string) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}
	hash, err := wt.Commit(message, &git.CommitOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return hash.String(), nil
}

// Tag implements domain.Git. An annotated tag is created when a message is
// given, a lightweight tag otherwise.
func (r *Repository) Tag(_ context.Context, name, message string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	var opts *git.CreateTagOptions
	if message != "" {
		opts = &git.CreateTagOptions{Message: message}
	}
	if _, err := r.repo.CreateTag(name, head.Hash(), opts); err != nil {
		return fmt.Errorf("failed to create tag %q: %w", name, err)
	}
	return nil
}

func (r *Repository) headCommit() (*object.Commit, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD commit: %w", err)
	}
	return commit, nil
}

func (r *Repository) branchCommit(name string) (*object.Commit, error) {
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve branch %q: %w", name, err)
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load commit of %q: %w", name, err)
	}
	return commit, nil
}

func (r *Repository) resolveCommit(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve revision %q: %w", rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %q: %w", rev, err)
	}
	return commit, nil
}
