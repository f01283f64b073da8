// Package audit analyzes a workspace dependency graph for structural
// problems: circular dependencies, external version conflicts, internal
// version inconsistencies, and dependency categorization.
package audit

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/monorel/monorel/config"
	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/graph"
	"github.com/monorel/monorel/infrastructure/workspace"
)

// Report aggregates every enabled audit section. Issues carry the rendered
// findings; the typed slices keep the raw data for programmatic callers.
type Report struct {
	Cycles          [][]string
	Conflicts       []domain.VersionConflict
	Inconsistencies []domain.VersionInconsistency
	Categories      CategoryBreakdown
	Issues          []domain.AuditIssue
}

// HasCritical reports whether any issue is critical.
func (r *Report) HasCritical() bool {
	for _, issue := range r.Issues {
		if issue.Severity == domain.SeverityCritical {
			return true
		}
	}
	return false
}

// CategoryBreakdown counts dependency classes per workspace and per package.
type CategoryBreakdown struct {
	Totals     map[domain.DependencyClass]int
	PerPackage map[string]map[domain.DependencyClass]int
}

// Auditor runs the audit sections over one workspace and its graph.
type Auditor struct {
	ws  *workspace.Workspace
	g   *graph.Graph
	cfg *config.Config
}

// New creates an auditor.
func New(ws *workspace.Workspace, g *graph.Graph, cfg *config.Config) *Auditor {
	return &Auditor{ws: ws, g: g, cfg: cfg}
}

// Run executes every enabled section.
func (a *Auditor) Run() *Report {
	report := &Report{}

	if a.cfg.Audit.Sections["dependencies"] {
		if a.cfg.Audit.DependenciesChecks.CheckCircular {
			a.circularSection(report)
		}
		if a.cfg.Audit.DependenciesChecks.CheckVersionConflicts {
			a.conflictSection(report)
		}
		a.categorySection(report)
	}
	if a.cfg.Audit.Sections["version_consistency"] {
		a.consistencySection(report)
	}
	return report
}

// circularSection reports every strongly connected component as critical.
func (a *Auditor) circularSection(report *Report) {
	report.Cycles = a.g.Cycles()
	for _, cycle := range report.Cycles {
		report.Issues = append(report.Issues, domain.AuditIssue{
			Severity:         domain.SeverityCritical,
			Category:         "circular-dependency",
			Title:            fmt.Sprintf("Circular dependency between %d packages", len(cycle)),
			Description:      strings.Join(cycle, " -> "),
			AffectedPackages: cycle,
			Suggestion:       "Break the cycle by extracting the shared code into a new package",
			Metadata: map[string]string{
				"cycle":  strings.Join(cycle, ","),
				"length": strconv.Itoa(len(cycle)),
			},
		})
	}
}

// conflictSection finds external dependencies pinned with diverging specs
// by different packages. Only runtime and peer maps count; workspace and
// local protocol specs are filtered before comparison.
func (a *Auditor) conflictSection(report *Report) {
	members := a.ws.Names()
	usages := map[string][]domain.SpecUsage{}

	for _, node := range a.g.Nodes() {
		for _, kind := range []domain.DependencyKind{domain.KindRuntime, domain.KindPeer} {
			for name, spec := range node.Pkg.Manifest.DependenciesOf(kind) {
				if _, internal := members[name]; internal {
					continue
				}
				if domain.IsLocalSpec(spec) {
					continue
				}
				usages[name] = append(usages[name], domain.SpecUsage{Package: node.Name, Spec: spec})
			}
		}
	}

	names := sortedKeys(usages)
	for _, name := range names {
		all := usages[name]
		// A single package disagreeing with itself across dependency kinds
		// is not a conflict; two distinct packages must be involved.
		if len(distinctSpecs(all)) < 2 || len(usagePackages(all)) < 2 {
			continue
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Package < all[j].Package })

		conflict := domain.VersionConflict{Name: name, Usages: all}
		report.Conflicts = append(report.Conflicts, conflict)
		report.Issues = append(report.Issues, domain.AuditIssue{
			Severity:         domain.SeverityWarning,
			Category:         "version-conflict",
			Title:            fmt.Sprintf("Conflicting versions of %q", name),
			Description:      renderUsages(all),
			AffectedPackages: usagePackages(all),
			Suggestion:       fmt.Sprintf("Align every usage of %q on a single requirement", name),
			Metadata:         map[string]string{"dependency": name},
		})
	}
}

// consistencySection checks that internal packages are depended on with a
// single spec across the workspace.
func (a *Auditor) consistencySection(report *Report) {
	severity, enabled := a.consistencySeverity()
	if !enabled {
		return
	}

	for _, node := range a.g.Nodes() {
		var all []domain.SpecUsage
		for _, e := range a.g.InEdges(node.ID) {
			all = append(all, domain.SpecUsage{Package: a.g.Name(e.From), Spec: e.Spec})
		}
		if len(distinctSpecs(all)) < 2 {
			continue
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Package < all[j].Package })

		inconsistency := domain.VersionInconsistency{
			Name:        node.Name,
			Usages:      all,
			Recommended: recommendSpec(all),
		}
		report.Inconsistencies = append(report.Inconsistencies, inconsistency)
		report.Issues = append(report.Issues, domain.AuditIssue{
			Severity:         severity,
			Category:         "version-inconsistency",
			Title:            fmt.Sprintf("Inconsistent specs for internal package %q", node.Name),
			Description:      renderUsages(all),
			AffectedPackages: usagePackages(all),
			Suggestion:       fmt.Sprintf("Use %q everywhere", inconsistency.Recommended),
			Metadata:         map[string]string{"recommended": inconsistency.Recommended},
		})
	}
}

func (a *Auditor) consistencySeverity() (domain.Severity, bool) {
	vc := a.cfg.Audit.VersionConsistency
	switch {
	case vc.FailOnInconsistency:
		return domain.SeverityCritical, true
	case vc.WarnOnInconsistency:
		return domain.SeverityWarning, true
	default:
		return domain.SeverityInfo, false
	}
}

// recommendSpec picks the spec every usage should converge on:
// workspace:* first, then any other workspace: variant, then the most
// common spec, then the alphabetically first.
func recommendSpec(usages []domain.SpecUsage) string {
	counts := map[string]int{}
	hasOtherWorkspace := ""
	for _, u := range usages {
		if u.Spec == "workspace:*" {
			return "workspace:*"
		}
		if strings.HasPrefix(u.Spec, domain.ProtocolWorkspace) && hasOtherWorkspace == "" {
			hasOtherWorkspace = u.Spec
		}
		counts[u.Spec]++
	}
	if hasOtherWorkspace != "" {
		return hasOtherWorkspace
	}

	best, bestCount := "", 0
	for _, spec := range sortedKeys(counts) {
		if counts[spec] > bestCount {
			best, bestCount = spec, counts[spec]
		}
	}
	return best
}

// categorySection classifies every declared dependency and reports the
// breakdown plus advisory warnings for unusual internal references.
func (a *Auditor) categorySection(report *Report) {
	ctx := Context{Monorepo: a.ws.IsMonorepo(), Members: a.ws.Names()}
	report.Categories = CategoryBreakdown{
		Totals:     map[domain.DependencyClass]int{},
		PerPackage: map[string]map[domain.DependencyClass]int{},
	}

	for _, node := range a.g.Nodes() {
		perPkg := map[domain.DependencyClass]int{}
		for _, kind := range domain.AllDependencyKinds {
			for name, spec := range node.Pkg.Manifest.DependenciesOf(kind) {
				c := Classify(ctx, name, spec)
				report.Categories.Totals[c.Class]++
				perPkg[c.Class]++

				for _, warning := range c.Warnings {
					report.Issues = append(report.Issues, domain.AuditIssue{
						Severity:         domain.SeverityInfo,
						Category:         "dependency-categorization",
						Title:            fmt.Sprintf("Unusual internal reference in %q", node.Name),
						Description:      warning,
						AffectedPackages: []string{node.Name},
						Suggestion:       "Use workspace:* for internal packages",
					})
				}
			}
		}
		report.Categories.PerPackage[node.Name] = perPkg
	}
}

func distinctSpecs(usages []domain.SpecUsage) map[string]struct{} {
	specs := map[string]struct{}{}
	for _, u := range usages {
		specs[u.Spec] = struct{}{}
	}
	return specs
}

func renderUsages(usages []domain.SpecUsage) string {
	parts := make([]string, 0, len(usages))
	for _, u := range usages {
		parts = append(parts, fmt.Sprintf("%s requires %q", u.Package, u.Spec))
	}
	return strings.Join(parts, "; ")
}

func usagePackages(usages []domain.SpecUsage) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, u := range usages {
		if _, dup := seen[u.Package]; dup {
			continue
		}
		seen[u.Package] = struct{}{}
		out = append(out, u.Package)
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
