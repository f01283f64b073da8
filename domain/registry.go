package domain

import (
	"context"
	"time"
)

// VersionList is the registry metadata for one external dependency.
// Available is sorted newest first.
type VersionList struct {
	Available        []string
	LatestStable     string
	LatestPrerelease string

	// Deprecated maps version -> deprecation message for versions the
	// registry has flagged.
	Deprecated map[string]string

	// PublishedAt maps version -> publish time when the registry exposes it.
	PublishedAt map[string]time.Time
}

// Registry abstracts a package registry (npm-style by default, pluggable).
// Errors carry one of the ErrRegistry* kinds.
type Registry interface {
	FetchVersions(ctx context.Context, name string) (*VersionList, error)
}
