package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/monorel/monorel/config"
	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/changelog"
	"github.com/monorel/monorel/infrastructure/changeset"
	"github.com/monorel/monorel/infrastructure/graph"
	"github.com/monorel/monorel/infrastructure/manifest"
	"github.com/monorel/monorel/infrastructure/resolver"
	"github.com/monorel/monorel/infrastructure/workspace"
)

// ErrNoPendingChangesets means a release was requested with nothing to do.
var ErrNoPendingChangesets = errors.New("no pending changesets")

// ReleaseService turns the pending changesets into manifest version bumps,
// internal pin rewrites, changelog entries and archived records.
type ReleaseService struct {
	fs      afero.Fs
	ws      *workspace.Workspace
	graph   *graph.Graph
	store   *changeset.Store
	res     *resolver.Resolver
	openGit GitOpener
	cfg     *config.Config
}

// NewReleaseService creates the service.
func NewReleaseService(
	fs afero.Fs,
	ws *workspace.Workspace,
	g *graph.Graph,
	store *changeset.Store,
	res *resolver.Resolver,
	openGit GitOpener,
	cfg *config.Config,
) *ReleaseService {
	return &ReleaseService{
		fs:      fs,
		ws:      ws,
		graph:   g,
		store:   store,
		res:     res,
		openGit: openGit,
		cfg:     cfg,
	}
}

// ReleaseOptions parameterize one release pass.
type ReleaseOptions struct {
	DryRun bool
	// PrereleaseTag suffixes every bumped version with "-<tag>.N".
	PrereleaseTag string
	// Snapshot derives the prerelease tag from the snapshot template
	// instead of PrereleaseTag.
	Snapshot bool
	// Tag creates a git tag "<package>@<version>" per bumped package.
	Tag bool
}

// ReleaseResult reports what a release pass did.
type ReleaseResult struct {
	Plan     *domain.VersionBumpPlan
	Archived []string
	Tags     []string
	DryRun   bool
}

// Plan resolves the pending changesets into a bump plan without writing.
func (s *ReleaseService) Plan(ctx context.Context, opts ReleaseOptions) (*domain.VersionBumpPlan, error) {
	_, merged, err := s.pendingMerged()
	if err != nil {
		return nil, err
	}

	tag, err := s.prereleaseTag(ctx, opts)
	if err != nil {
		return nil, err
	}
	return s.res.Resolve(merged, resolver.Options{PrereleaseTag: tag})
}

// Release resolves and applies the pending changesets. Versions and internal
// pins are rewritten in topological order, changelogs gain a released
// section, and every consumed changeset is archived with its release info.
func (s *ReleaseService) Release(ctx context.Context, opts ReleaseOptions) (*ReleaseResult, error) {
	pending, merged, err := s.pendingMerged()
	if err != nil {
		return nil, err
	}

	tag, err := s.prereleaseTag(ctx, opts)
	if err != nil {
		return nil, err
	}
	plan, err := s.res.Resolve(merged, resolver.Options{PrereleaseTag: tag})
	if err != nil {
		return nil, err
	}

	result := &ReleaseResult{Plan: plan, DryRun: opts.DryRun}
	if opts.DryRun {
		return result, nil
	}

	if err := s.applyPlan(plan, merged); err != nil {
		return nil, err
	}

	release, err := s.releaseInfo(ctx, plan, merged)
	if err != nil {
		return nil, err
	}
	for _, cs := range pending {
		if err := s.store.Archive(cs, release); err != nil {
			return nil, err
		}
		result.Archived = append(result.Archived, cs.Branch)
	}

	if opts.Tag {
		tags, tagErr := s.tagReleases(ctx, plan)
		if tagErr != nil {
			return nil, tagErr
		}
		result.Tags = tags
	}

	logger.Infof("Released %d packages from %d changesets", changedCount(plan), len(pending))
	return result, nil
}

func (s *ReleaseService) pendingMerged() ([]*domain.Changeset, *domain.Changeset, error) {
	pending, err := s.store.ListPending()
	if err != nil {
		return nil, nil, err
	}
	if len(pending) == 0 {
		return nil, nil, ErrNoPendingChangesets
	}
	return pending, domain.MergeChangesets(pending), nil
}

func (s *ReleaseService) prereleaseTag(ctx context.Context, opts ReleaseOptions) (string, error) {
	if !opts.Snapshot {
		return opts.PrereleaseTag, nil
	}

	git, err := s.openGit()
	if err != nil {
		return "", err
	}
	sha, err := git.CurrentSHA(ctx)
	if err != nil {
		return "", err
	}
	branch, err := git.CurrentBranch(ctx)
	if err != nil {
		return "", err
	}
	return resolver.SnapshotTag(s.cfg.Versioning.SnapshotTemplate, sha, branch, time.Now()), nil
}

// applyPlan writes the new versions and rewrites internal dependency pins.
// All edits to one manifest batch into a single atomic save; changed
// packages also get their changelog promoted.
func (s *ReleaseService) applyPlan(plan *domain.VersionBumpPlan, merged *domain.Changeset) error {
	editors := map[string]*manifest.Editor{}
	editorFor := func(path string) (*manifest.Editor, error) {
		if e, ok := editors[path]; ok {
			return e, nil
		}
		e, err := manifest.Open(s.fs, path)
		if err != nil {
			return nil, err
		}
		editors[path] = e
		return e, nil
	}

	for _, entry := range plan.Entries {
		if !entry.Changed() {
			continue
		}
		pkg := s.ws.Package(entry.Package)
		if pkg == nil {
			return &domain.UnknownPackageError{Name: entry.Package}
		}

		editor, err := editorFor(pkg.Path)
		if err != nil {
			return err
		}
		editor.SetVersion(entry.Next.String())

		if err := s.rewritePins(entry, editorFor); err != nil {
			return err
		}
	}

	for path, editor := range editors {
		if !editor.Dirty() {
			continue
		}
		if err := editor.Save(); err != nil {
			return fmt.Errorf("failed to apply release to %q: %w", path, err)
		}
	}

	return s.updateChangelogs(plan, merged)
}

// rewritePins updates every internal consumer of the bumped package. The
// original operator of each pin survives; protocol specs never change. A
// rewritten pin does not by itself bump the consumer, that is the
// resolver's call.
func (s *ReleaseService) rewritePins(entry domain.PlanEntry, editorFor func(string) (*manifest.Editor, error)) error {
	id, ok := s.graph.Lookup(entry.Package)
	if !ok {
		return nil
	}
	for _, edge := range s.graph.InEdges(id) {
		if domain.IsLocalSpec(edge.Spec) {
			continue
		}
		consumer := s.graph.Node(edge.From).Pkg
		editor, err := editorFor(consumer.Path)
		if err != nil {
			return err
		}
		editor.UpdateDependency(edge.Kind, entry.Package, domain.PreservePrefix(edge.Spec, entry.Next.String()))
	}
	return nil
}

func (s *ReleaseService) updateChangelogs(plan *domain.VersionBumpPlan, merged *domain.Changeset) error {
	entries := changelogEntries(merged)
	now := time.Now()

	for _, entry := range plan.Entries {
		if !entry.Changed() {
			continue
		}
		pkg := s.ws.Package(entry.Package)
		if err := changelog.Update(s.fs, pkg.Dir, entries, entry.Next.String(), now); err != nil {
			return err
		}
	}
	return nil
}

func changelogEntries(merged *domain.Changeset) []string {
	entries := make([]string, 0, len(merged.Commits))
	for _, sha := range merged.Commits {
		short := sha
		if len(short) > 12 {
			short = short[:12]
		}
		entries = append(entries, fmt.Sprintf("Commit %s", short))
	}
	return entries
}

func (s *ReleaseService) releaseInfo(ctx context.Context, plan *domain.VersionBumpPlan, merged *domain.Changeset) (*domain.ReleaseInfo, error) {
	info := &domain.ReleaseInfo{
		AppliedAt: time.Now().UTC(),
		AppliedBy: "monorel",
	}

	if git, err := s.openGit(); err == nil {
		if sha, shaErr := git.CurrentSHA(ctx); shaErr == nil {
			info.MergeCommitSHA = sha
		}
	}

	if tag := releaseTag(plan); tag != "" && len(merged.Environments) > 0 {
		info.Environments = map[string]domain.EnvironmentRelease{}
		for _, env := range merged.Environments {
			info.Environments[env] = domain.EnvironmentRelease{
				ReleasedAt: info.AppliedAt,
				Tag:        tag,
			}
		}
	}
	return info, nil
}

func (s *ReleaseService) tagReleases(ctx context.Context, plan *domain.VersionBumpPlan) ([]string, error) {
	git, err := s.openGit()
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, entry := range plan.Entries {
		if !entry.Changed() {
			continue
		}
		name := fmt.Sprintf("%s@%s", entry.Package, entry.Next)
		if err := git.Tag(ctx, name, fmt.Sprintf("Release %s", name)); err != nil {
			return tags, err
		}
		tags = append(tags, name)
	}
	return tags, nil
}

// releaseTag derives the environment tag from the first changed entry in
// topological order; under the unified strategy every entry shares it.
func releaseTag(plan *domain.VersionBumpPlan) string {
	for _, entry := range plan.Entries {
		if entry.Changed() {
			return "v" + entry.Next.String()
		}
	}
	return ""
}

func changedCount(plan *domain.VersionBumpPlan) int {
	n := 0
	for _, entry := range plan.Entries {
		if entry.Changed() {
			n++
		}
	}
	return n
}
