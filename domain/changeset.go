package domain

import (
	"sort"
	"time"
)

// Changeset records the pending version-bump intent of one feature branch:
// which packages it touches, the commits forming the change, the deployment
// environments it targets and the bump kind it requires.
type Changeset struct {
	Branch       string   `yaml:"branch"`
	Bump         Bump     `yaml:"bump"`
	Packages     []string `yaml:"packages"`
	Commits      []string `yaml:"commits"`
	Environments []string `yaml:"environments"`

	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`

	// Release is empty while the changeset is pending and populated exactly
	// once when a release archives it.
	Release *ReleaseInfo `yaml:"release,omitempty"`
}

// ReleaseInfo is attached to a changeset when a release consumes it.
type ReleaseInfo struct {
	AppliedAt      time.Time                     `yaml:"applied_at"`
	AppliedBy      string                        `yaml:"applied_by"`
	MergeCommitSHA string                        `yaml:"merge_commit_sha"`
	Environments   map[string]EnvironmentRelease `yaml:"environments,omitempty"`
}

// EnvironmentRelease records when and under which tag an environment
// received this changeset.
type EnvironmentRelease struct {
	ReleasedAt time.Time `yaml:"released_at"`
	Tag        string    `yaml:"tag"`
}

// NewChangeset creates an empty pending changeset for a branch.
func NewChangeset(branch string, bump Bump, environments []string) *Changeset {
	now := time.Now().UTC()
	return &Changeset{
		Branch:       branch,
		Bump:         bump,
		Environments: uniqueSorted(environments),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Pending reports whether the changeset has not been archived yet.
func (c *Changeset) Pending() bool { return c.Release == nil }

// AddPackage records a package name; returns true when the set changed.
func (c *Changeset) AddPackage(name string) bool {
	if containsString(c.Packages, name) {
		return false
	}
	c.Packages = append(c.Packages, name)
	sort.Strings(c.Packages)
	return true
}

// AddCommit appends a commit SHA; duplicates are ignored to keep the
// operation idempotent.
func (c *Changeset) AddCommit(sha string) bool {
	if containsString(c.Commits, sha) {
		return false
	}
	c.Commits = append(c.Commits, sha)
	return true
}

// AddEnvironment records a deployment environment name.
func (c *Changeset) AddEnvironment(env string) bool {
	if containsString(c.Environments, env) {
		return false
	}
	c.Environments = append(c.Environments, env)
	sort.Strings(c.Environments)
	return true
}

// SetBump replaces the bump kind; returns true when it changed.
func (c *Changeset) SetBump(bump Bump) bool {
	if c.Bump == bump {
		return false
	}
	c.Bump = bump
	return true
}

// MergeChangesets folds several pending changesets into one logical record
// for version resolution: packages and environments are unioned, commits are
// concatenated preserving order without deduplication, and the highest bump
// kind wins.
func MergeChangesets(sets []*Changeset) *Changeset {
	merged := &Changeset{Branch: "merged"}
	if len(sets) == 1 {
		merged.Branch = sets[0].Branch
	}

	for _, cs := range sets {
		merged.Bump = MaxBump(merged.Bump, cs.Bump)
		merged.Commits = append(merged.Commits, cs.Commits...)
		for _, pkg := range cs.Packages {
			_ = merged.AddPackage(pkg)
		}
		for _, env := range cs.Environments {
			_ = merged.AddEnvironment(env)
		}
		if cs.CreatedAt.Before(merged.CreatedAt) || merged.CreatedAt.IsZero() {
			merged.CreatedAt = cs.CreatedAt
		}
		if cs.UpdatedAt.After(merged.UpdatedAt) {
			merged.UpdatedAt = cs.UpdatedAt
		}
	}
	return merged
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	sort.Strings(result)
	return result
}
