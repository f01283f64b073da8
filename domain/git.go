package domain

import (
	"context"
	"time"
)

// Commit is the slice of commit metadata the core consumes.
type Commit struct {
	SHA     string
	Message string
	Author  string
	When    time.Time
}

// Git abstracts the local Git plumbing the core depends on. The core never
// shells out; implementations live in infrastructure.
type Git interface {
	// CurrentBranch returns the short name of the checked-out branch.
	CurrentBranch(ctx context.Context) (string, error)

	// CurrentSHA returns the SHA of HEAD.
	CurrentSHA(ctx context.Context) (string, error)

	// DivergedCommit returns the merge base between HEAD and the given base
	// branch, i.e. the commit where the current branch diverged.
	DivergedCommit(ctx context.Context, base string) (string, error)

	// CommitsBetween lists the commits reachable from head but not from
	// base, oldest first.
	CommitsBetween(ctx context.Context, base, head string) ([]Commit, error)

	// ChangedFilesSince lists the paths touched between the given SHA and HEAD.
	ChangedFilesSince(ctx context.Context, sha string) ([]string, error)

	CreateBranch(ctx context.Context, name string) error
	Checkout(ctx context.Context, name string) error
	Add(ctx context.Context, paths ...string) error
	Commit(ctx context.Context, message string) (string, error)
	Tag(ctx context.Context, name, message string) error
}
