//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"time"

	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/monorel/monorel/domain"
)

// ChangesetBuilder helps create test changesets with a fluent interface.
type ChangesetBuilder struct {
	*testkit.BaseBuilder
	branch       string
	bump         domain.Bump
	packages     []string
	commits      []string
	environments []string
	createdAt    time.Time
}

// NewChangesetBuilder creates a new changeset builder with sensible defaults.
func NewChangesetBuilder() *ChangesetBuilder {
	return &ChangesetBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		branch:      "feature/test",
		bump:        domain.BumpPatch,
		createdAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// WithBranch sets the branch name.
func (b *ChangesetBuilder) WithBranch(branch string) *ChangesetBuilder {
	b.branch = branch
	return b
}

// WithBump sets the bump kind.
func (b *ChangesetBuilder) WithBump(bump domain.Bump) *ChangesetBuilder {
	b.bump = bump
	return b
}

// WithPackages sets the affected packages.
func (b *ChangesetBuilder) WithPackages(packages ...string) *ChangesetBuilder {
	b.packages = packages
	return b
}

// WithCommits sets the recorded commits.
func (b *ChangesetBuilder) WithCommits(commits ...string) *ChangesetBuilder {
	b.commits = commits
	return b
}

// WithEnvironments sets the target environments.
func (b *ChangesetBuilder) WithEnvironments(environments ...string) *ChangesetBuilder {
	b.environments = environments
	return b
}

// Build creates the changeset (satisfies testkit.Builder interface).
func (b *ChangesetBuilder) Build() interface{} {
	return b.BuildChangeset()
}

// BuildChangeset creates the changeset with a concrete return type.
func (b *ChangesetBuilder) BuildChangeset() *domain.Changeset {
	cs := domain.NewChangeset(b.branch, b.bump, b.environments)
	cs.CreatedAt = b.createdAt
	cs.UpdatedAt = b.createdAt
	for _, pkg := range b.packages {
		_ = cs.AddPackage(pkg)
	}
	for _, sha := range b.commits {
		_ = cs.AddCommit(sha)
	}
	return cs
}

// Reset clears the builder state, allowing it to be reused.
func (b *ChangesetBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.branch = "feature/test"
	b.bump = domain.BumpPatch
	b.packages = nil
	b.commits = nil
	b.environments = nil
	b.createdAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return b
}

// Clone creates a deep copy of the ChangesetBuilder.
func (b *ChangesetBuilder) Clone() testkit.Builder {
	return &ChangesetBuilder{
		BaseBuilder:  b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		branch:       b.branch,
		bump:         b.bump,
		packages:     append([]string(nil), b.packages...),
		commits:      append([]string(nil), b.commits...),
		environments: append([]string(nil), b.environments...),
		createdAt:    b.createdAt,
	}
}
