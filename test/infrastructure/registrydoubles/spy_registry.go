//go:build integration || unit || test

// Package registrydoubles provides test doubles for the registry
// capability. These are hand-crafted implementations, no mock frameworks.
package registrydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"sync"

	"github.com/monorel/monorel/domain"
)

// SpyRegistry implements domain.Registry from a fixed version table and
// records every lookup. Safe for concurrent use.
type SpyRegistry struct {
	mu sync.Mutex

	// Versions maps dependency name to its served version list.
	Versions map[string]*domain.VersionList
	// Errors maps dependency name to a forced lookup error.
	Errors map[string]error

	// Requested records every looked-up name in call order.
	Requested []string
}

var _ domain.Registry = (*SpyRegistry)(nil)

func (r *SpyRegistry) FetchVersions(_ context.Context, name string) (*domain.VersionList, error) {
	r.mu.Lock()
	r.Requested = append(r.Requested, name)
	r.mu.Unlock()

	if err, ok := r.Errors[name]; ok {
		return nil, err
	}
	if list, ok := r.Versions[name]; ok {
		return list, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrRegistryNotFound, name)
}

// Stable is a convenience constructor for a list with one latest stable
// version.
func Stable(versions ...string) *domain.VersionList {
	list := &domain.VersionList{Available: versions}
	if len(versions) > 0 {
		list.LatestStable = versions[0]
	}
	return list
}
