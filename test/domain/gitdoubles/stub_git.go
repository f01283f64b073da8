//go:build integration || unit || test

// Package gitdoubles provides hand-crafted test doubles for the Git
// capability. No mock frameworks.
package gitdoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/monorel/monorel/domain"
)

// StubGit implements domain.Git as a configurable stub that records calls.
type StubGit struct {
	// --- identity ---
	Branch string
	SHA    string

	// --- DivergedCommit ---
	MergeBase      string
	DivergedErr    error
	DivergedBases  []string

	// --- CommitsBetween ---
	Commits       []domain.Commit
	CommitsErr    error
	CommitsRanges [][2]string

	// --- ChangedFilesSince ---
	ChangedFiles []string
	ChangedErr   error

	// --- write operations ---
	CreatedBranches []string
	Checkouts       []string
	AddedPaths      []string
	CommitMessages  []string
	CommitErr       error
	Tags            []string
	TagErr          error
}

var _ domain.Git = (*StubGit)(nil)

func (g *StubGit) CurrentBranch(context.Context) (string, error) { return g.Branch, nil }
func (g *StubGit) CurrentSHA(context.Context) (string, error)    { return g.SHA, nil }

func (g *StubGit) DivergedCommit(_ context.Context, base string) (string, error) {
	g.DivergedBases = append(g.DivergedBases, base)
	return g.MergeBase, g.DivergedErr
}

func (g *StubGit) CommitsBetween(_ context.Context, base, head string) ([]domain.Commit, error) {
	g.CommitsRanges = append(g.CommitsRanges, [2]string{base, head})
	return g.Commits, g.CommitsErr
}

func (g *StubGit) ChangedFilesSince(context.Context, string) ([]string, error) {
	return g.ChangedFiles, g.ChangedErr
}

func (g *StubGit) CreateBranch(_ context.Context, name string) error {
	g.CreatedBranches = append(g.CreatedBranches, name)
	return nil
}

func (g *StubGit) Checkout(_ context.Context, name string) error {
	g.Checkouts = append(g.Checkouts, name)
	return nil
}

func (g *StubGit) Add(_ context.Context, paths ...string) error {
	g.AddedPaths = append(g.AddedPaths, paths...)
	return nil
}

func (g *StubGit) Commit(_ context.Context, message string) (string, error) {
	g.CommitMessages = append(g.CommitMessages, message)
	return g.SHA, g.CommitErr
}

func (g *StubGit) Tag(_ context.Context, name, _ string) error {
	if g.TagErr != nil {
		return g.TagErr
	}
	g.Tags = append(g.Tags, name)
	return nil
}
