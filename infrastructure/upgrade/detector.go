// Package upgrade detects newer registry versions for external dependencies
// and applies a selected subset to the workspace manifests.
package upgrade

import (
	"context"
	"sort"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/monorel/monorel/config"
	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/workspace"
)

// Detector scans workspace manifests for outdated external dependencies.
type Detector struct {
	ws       *workspace.Workspace
	registry domain.Registry
	cfg      *config.Config
}

// NewDetector creates a detector over one workspace.
func NewDetector(ws *workspace.Workspace, registry domain.Registry, cfg *config.Config) *Detector {
	return &Detector{ws: ws, registry: registry, cfg: cfg}
}

// lookup is one (package, dependency) pair queued for a registry check.
type lookup struct {
	pkg  *domain.PackageInfo
	kind domain.DependencyKind
	name string
	spec string
}

// Detect fetches the registry state for every external dependency and
// reports the available upgrades. Lookup failures never abort the pass; they
// come back alongside the successes.
func (d *Detector) Detect(ctx context.Context) (*domain.DetectionResult, error) {
	lookups := d.collect()

	result := &domain.DetectionResult{}
	var mu sync.Mutex

	group, ctx := errgroup.WithContext(ctx)
	// A non-positive limit would make errgroup block every Go call.
	limit := d.cfg.Upgrade.Detection.Concurrency
	if limit < 1 {
		limit = 1
	}
	group.SetLimit(limit)

	for _, l := range lookups {
		group.Go(func() error {
			upgrade, err := d.check(ctx, l)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Failures = append(result.Failures, domain.LookupFailure{
					Package:    l.pkg.Name(),
					Dependency: l.name,
					Err:        err,
				})
			case upgrade != nil:
				result.Upgrades = append(result.Upgrades, *upgrade)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(result.Upgrades, func(i, j int) bool {
		a, b := result.Upgrades[i], result.Upgrades[j]
		if a.Package != b.Package {
			return a.Package < b.Package
		}
		return a.Dependency < b.Dependency
	})
	sort.Slice(result.Failures, func(i, j int) bool {
		a, b := result.Failures[i], result.Failures[j]
		if a.Package != b.Package {
			return a.Package < b.Package
		}
		return a.Dependency < b.Dependency
	})

	logger.Infof("Detected %d available upgrades (%d lookup failures)",
		len(result.Upgrades), len(result.Failures))
	return result, nil
}

// collect enumerates the external dependencies eligible for upgrades.
// Internal packages, protocol specs and unparseable ranges are skipped.
func (d *Detector) collect() []lookup {
	members := d.ws.Names()

	kinds := []domain.DependencyKind{domain.KindRuntime, domain.KindDev, domain.KindPeer}
	if d.cfg.Upgrade.Detection.IncludeOptional {
		kinds = append(kinds, domain.KindOptional)
	}

	manifests := d.manifests()

	var lookups []lookup
	for _, pkg := range manifests {
		for _, kind := range kinds {
			for name, spec := range pkg.Manifest.DependenciesOf(kind) {
				if _, internal := members[name]; internal {
					continue
				}
				if domain.IsLocalSpec(spec) {
					continue
				}
				lookups = append(lookups, lookup{pkg: pkg, kind: kind, name: name, spec: spec})
			}
		}
	}
	return lookups
}

// manifests returns the root manifest plus every member, deduplicated.
func (d *Detector) manifests() []*domain.PackageInfo {
	seen := map[string]bool{}
	var out []*domain.PackageInfo
	for _, pkg := range append([]*domain.PackageInfo{d.ws.RootPkg}, d.ws.Packages...) {
		if seen[pkg.Path] {
			continue
		}
		seen[pkg.Path] = true
		out = append(out, pkg)
	}
	return out
}

// check resolves the latest candidate for one dependency and classifies the
// delta against the version currently pinned by the spec.
func (d *Detector) check(ctx context.Context, l lookup) (*domain.AvailableUpgrade, error) {
	currentRaw, ok := specVersion(l.spec)
	if !ok {
		logger.Debugf("Skipping %q of %q: spec %q carries no single version",
			l.name, l.pkg.Name(), l.spec)
		return nil, nil
	}
	current, err := domain.ParseVersion(currentRaw)
	if err != nil {
		logger.Debugf("Skipping %q of %q: %s", l.name, l.pkg.Name(), err)
		return nil, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, d.cfg.Upgrade.Detection.RequestTimeout())
	defer cancel()

	versions, err := d.registry.FetchVersions(reqCtx, l.name)
	if err != nil {
		return nil, err
	}

	candidate := versions.LatestStable
	if d.cfg.Upgrade.Detection.IncludePrereleases && versions.LatestPrerelease != "" {
		if newer, cmpErr := isNewer(versions.LatestPrerelease, candidate); cmpErr == nil && newer {
			candidate = versions.LatestPrerelease
		}
	}
	if candidate == "" {
		return nil, nil
	}

	latest, err := domain.ParseVersion(candidate)
	if err != nil {
		return nil, err
	}

	upgradeType, newer := domain.ClassifyUpgrade(current, latest)
	if !newer {
		return nil, nil
	}

	return &domain.AvailableUpgrade{
		Package:      l.pkg.Name(),
		ManifestPath: l.pkg.Path,
		Dependency:   l.name,
		Kind:         l.kind,
		CurrentSpec:  l.spec,
		CurrentVer:   current.String(),
		LatestVer:    latest.String(),
		Type:         upgradeType,
		Deprecated:   versions.Deprecated[candidate],
	}, nil
}

// specVersion extracts the version token from a simple ranged spec such as
// "^1.2.3" or "~0.4.0". Compound ranges and wildcards have no single pin.
func specVersion(spec string) (string, bool) {
	spec = strings.TrimSpace(spec)
	for _, op := range []string{">=", "<=", "^", "~", ">", "<", "="} {
		if strings.HasPrefix(spec, op) {
			spec = strings.TrimSpace(strings.TrimPrefix(spec, op))
			break
		}
	}
	if spec == "" || strings.ContainsAny(spec, " |&") {
		return "", false
	}
	return spec, true
}

func isNewer(a, b string) (bool, error) {
	if b == "" {
		return true, nil
	}
	va, err := domain.ParseVersion(a)
	if err != nil {
		return false, err
	}
	vb, err := domain.ParseVersion(b)
	if err != nil {
		return false, err
	}
	return va.GreaterThan(vb), nil
}
