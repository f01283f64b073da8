package upgrade

import (
	"fmt"
	"path/filepath"
	"sort"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/monorel/monorel/config"
	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/backup"
	"github.com/monorel/monorel/infrastructure/manifest"
)

// Applier writes selected upgrades into the workspace manifests, guarded by
// a backup when the configuration enables one.
type Applier struct {
	fs      afero.Fs
	root    string
	backups *backup.Manager
	cfg     *config.Config
}

// NewApplier creates an applier rooted at the workspace directory.
func NewApplier(fs afero.Fs, root string, backups *backup.Manager, cfg *config.Config) *Applier {
	return &Applier{fs: fs, root: root, backups: backups, cfg: cfg}
}

// Apply filters the detected upgrades and rewrites the affected manifests.
// Writes are batched per manifest; a failing manifest is recorded and the
// batch continues. With dryRun nothing touches disk and no backup is taken.
func (a *Applier) Apply(detected *domain.DetectionResult, filter domain.UpgradeFilter, dryRun bool) (*domain.UpgradeSummary, error) {
	summary := &domain.UpgradeSummary{DryRun: dryRun}

	var selected []domain.AvailableUpgrade
	for _, u := range detected.Upgrades {
		if filter.Includes(u) {
			selected = append(selected, u)
		}
	}
	if len(selected) == 0 {
		return summary, nil
	}

	byManifest := map[string][]domain.AvailableUpgrade{}
	for _, u := range selected {
		byManifest[u.ManifestPath] = append(byManifest[u.ManifestPath], u)
	}
	paths := make([]string, 0, len(byManifest))
	for path := range byManifest {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	if dryRun {
		for _, path := range paths {
			for _, u := range byManifest[path] {
				summary.Applied = append(summary.Applied, u)
				summary.Count(u)
			}
		}
		return summary, nil
	}

	if a.cfg.Upgrade.Backup.Enabled {
		b, err := a.backups.Create("upgrade", a.relativePaths(paths))
		if err != nil {
			return nil, err
		}
		summary.BackupID = b.ID
	}

	for _, path := range paths {
		applied, err := a.applyManifest(path, byManifest[path])
		if err != nil {
			summary.Failures = append(summary.Failures, domain.ApplyFailure{
				ManifestPath: path,
				Err:          err,
			})
			logger.Warnf("Failed to upgrade %q: %s", path, err)
			continue
		}
		for _, u := range applied {
			summary.Applied = append(summary.Applied, u)
			summary.Count(u)
		}
	}

	if summary.BackupID != "" && len(summary.Failures) == 0 {
		if err := a.backups.MarkSuccess(summary.BackupID); err != nil {
			logger.Warnf("Failed to mark backup %q successful: %s", summary.BackupID, err)
		}
		if err := a.backups.Cleanup(
			a.cfg.Upgrade.Backup.KeepAfterSuccess,
			a.cfg.Upgrade.Backup.MaxBackups,
		); err != nil {
			logger.Warnf("Backup cleanup failed: %s", err)
		}
	}
	return summary, nil
}

// applyManifest rewrites every selected dependency of one manifest in a
// single save, preserving each spec's leading operator.
func (a *Applier) applyManifest(path string, upgrades []domain.AvailableUpgrade) ([]domain.AvailableUpgrade, error) {
	editor, err := manifest.Open(a.fs, path)
	if err != nil {
		return nil, err
	}

	for _, u := range upgrades {
		editor.UpdateDependency(u.Kind, u.Dependency, domain.PreservePrefix(u.CurrentSpec, u.LatestVer))
	}
	if err := editor.Save(); err != nil {
		return nil, err
	}
	return upgrades, nil
}

func (a *Applier) relativePaths(paths []string) []string {
	rels := make([]string, 0, len(paths))
	for _, path := range paths {
		rel, err := filepath.Rel(a.root, path)
		if err != nil {
			rel = path
		}
		rels = append(rels, rel)
	}
	return rels
}

// Rollback restores the manifests recorded by the given backup.
func (a *Applier) Rollback(backupID string) error {
	if _, err := a.backups.Restore(backupID); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}
