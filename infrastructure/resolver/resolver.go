// Package resolver turns a merged changeset into an ordered version bump
// plan, honoring the configured versioning strategy and the dependency
// propagation policy.
package resolver

import (
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	logger "github.com/sirupsen/logrus"

	"github.com/monorel/monorel/config"
	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/graph"
)

// Options tune a single resolution pass.
type Options struct {
	// PrereleaseTag, when set, suffixes every changed version with
	// "-<tag>.N". Under the unified strategy the tag is shared by design.
	PrereleaseTag string
}

// Resolver computes version bump plans over an immutable graph.
type Resolver struct {
	graph *graph.Graph
	cfg   *config.Config
}

// New creates a resolver for the given graph and configuration.
func New(g *graph.Graph, cfg *config.Config) *Resolver {
	return &Resolver{graph: g, cfg: cfg}
}

// member is a package selected into the plan with its bump and reason.
type member struct {
	bump   domain.Bump
	reason domain.BumpReason
}

// Resolve produces the bump plan for a merged changeset.
func (r *Resolver) Resolve(merged *domain.Changeset, opts Options) (*domain.VersionBumpPlan, error) {
	for _, name := range merged.Packages {
		if _, ok := r.graph.Lookup(name); !ok {
			return nil, &domain.UnknownPackageError{Name: name}
		}
	}

	plan := &domain.VersionBumpPlan{}

	if r.cfg.Dependencies.DetectCircular {
		plan.Cycles = r.graph.Cycles()
		if len(plan.Cycles) > 0 {
			if r.cfg.Dependencies.FailOnCircular {
				return nil, &domain.CircularDependencyError{Cycles: plan.Cycles}
			}
			for _, cycle := range plan.Cycles {
				logger.Warnf("Circular dependency: %s", strings.Join(cycle, " -> "))
			}
		}
	}

	members, err := r.selectMembers(merged)
	if err != nil {
		return nil, err
	}

	// Emit entries in topological order; the order computation already
	// breaks alphabetical ties deterministically.
	for _, name := range r.graph.TopologicalOrder() {
		m, selected := members[name]
		if !selected {
			continue
		}

		entry, buildErr := r.buildEntry(name, m, opts)
		if buildErr != nil {
			return nil, buildErr
		}
		plan.Entries = append(plan.Entries, *entry)
	}
	return plan, nil
}

// selectMembers maps the strategy to the set of packages that bump.
func (r *Resolver) selectMembers(merged *domain.Changeset) (map[string]member, error) {
	strategy := r.cfg.Versioning.Strategy
	if strategy != config.StrategyUnified &&
		r.cfg.Versioning.SyncOnMajor && merged.Bump == domain.BumpMajor {
		strategy = config.StrategyUnified
	}

	named := map[string]bool{}
	for _, name := range merged.Packages {
		named[name] = true
	}

	members := map[string]member{}
	switch strategy {
	case config.StrategyUnified:
		for _, node := range r.graph.Nodes() {
			reason := domain.ReasonUnifiedPolicy
			if named[node.Name] {
				reason = domain.ReasonChangeset
			}
			members[node.Name] = member{bump: merged.Bump, reason: reason}
		}

	case config.StrategyMixed:
		for _, node := range r.graph.Nodes() {
			group, inGroup := r.groupOf(node.Name)
			switch {
			case named[node.Name]:
				members[node.Name] = member{bump: merged.Bump, reason: domain.ReasonChangeset}
			case inGroup && r.groupTouched(group, named):
				members[node.Name] = member{bump: merged.Bump, reason: domain.ReasonUnifiedPolicy}
			}
		}
		if err := r.propagate(members); err != nil {
			return nil, err
		}

	default: // independent: dependents never bump automatically
		for name := range named {
			members[name] = member{bump: merged.Bump, reason: domain.ReasonChangeset}
		}
	}
	return members, nil
}

// groupOf returns the first configured group whose patterns match the name.
func (r *Resolver) groupOf(name string) (string, bool) {
	for group, patterns := range r.cfg.Versioning.Groups {
		for _, pattern := range patterns {
			if ok, _ := doublestar.Match(pattern, name); ok {
				return group, true
			}
		}
	}
	return "", false
}

// groupTouched reports whether any changeset package falls in the group.
func (r *Resolver) groupTouched(group string, named map[string]bool) bool {
	for name := range named {
		if g, ok := r.groupOf(name); ok && g == group {
			return true
		}
	}
	return false
}

// propagate walks dependents of already-selected packages and adds them with
// the configured dependency-update bump, bounded by max_propagation_depth.
func (r *Resolver) propagate(members map[string]member) error {
	if !r.cfg.Dependencies.PropagateUpdates {
		return nil
	}

	depBump, err := domain.ParseBump(r.cfg.Dependencies.DependencyUpdateBump)
	if err != nil {
		return err
	}

	kinds := map[domain.DependencyKind]bool{domain.KindRuntime: true}
	kinds[domain.KindPeer] = r.cfg.Dependencies.IncludePeer
	kinds[domain.KindOptional] = r.cfg.Dependencies.IncludeOptional
	kinds[domain.KindDev] = r.cfg.Dependencies.PropagateDevDependencies

	frontier := make([]string, 0, len(members))
	for name := range members {
		frontier = append(frontier, name)
	}

	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= r.cfg.Dependencies.MaxPropagationDepth {
			return fmt.Errorf("propagation from %d packages still active at depth %d: %w",
				len(frontier), depth, domain.ErrMaxDepthExceeded)
		}

		var next []string
		for _, name := range frontier {
			for _, dependent := range r.graph.Dependents(name, kinds) {
				if _, already := members[dependent]; already {
					continue
				}
				members[dependent] = member{bump: depBump, reason: domain.ReasonDependencyUpdate}
				next = append(next, dependent)
			}
		}
		frontier = next
	}
	return nil
}

// buildEntry computes the version transition for one plan member.
func (r *Resolver) buildEntry(name string, m member, opts Options) (*domain.PlanEntry, error) {
	pkg := r.graph.Node(mustLookup(r.graph, name)).Pkg
	current := pkg.Manifest.Version
	if current == nil {
		return nil, &domain.InvalidVersionError{
			Value: pkg.Manifest.RawVersion,
			Cause: fmt.Errorf("package %q has no version field", name),
		}
	}

	next := domain.ApplyBump(current, m.bump)
	if opts.PrereleaseTag != "" && m.bump != domain.BumpNone {
		pre, err := domain.NextPrerelease(current, next, opts.PrereleaseTag)
		if err != nil {
			return nil, err
		}
		next = pre
	}

	return &domain.PlanEntry{
		Package: name,
		Current: current,
		Next:    next,
		Bump:    m.bump,
		Reason:  m.reason,
	}, nil
}

func mustLookup(g *graph.Graph, name string) graph.PackageID {
	id, _ := g.Lookup(name)
	return id
}

// SnapshotTag renders the configured snapshot template into a prerelease
// tag. Placeholders: {sha}, {timestamp}, {branch}.
func SnapshotTag(template, sha, branch string, now time.Time) string {
	shortSHA := sha
	if len(shortSHA) > 8 {
		shortSHA = shortSHA[:8]
	}
	replacer := strings.NewReplacer(
		"{sha}", shortSHA,
		"{timestamp}", now.UTC().Format("20060102150405"),
		"{branch}", sanitizeBranchTag(branch),
	)
	return replacer.Replace(template)
}

// sanitizeBranchTag keeps only characters valid in a semver prerelease
// identifier.
func sanitizeBranchTag(branch string) string {
	var b strings.Builder
	for _, c := range branch {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			b.WriteRune(c)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
