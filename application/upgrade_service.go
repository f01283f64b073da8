package application

import (
	"context"

	"github.com/spf13/afero"

	"github.com/monorel/monorel/config"
	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/backup"
	"github.com/monorel/monorel/infrastructure/upgrade"
	"github.com/monorel/monorel/infrastructure/workspace"
)

// UpgradeService detects and applies external dependency upgrades, guarded
// by the backup manager.
type UpgradeService struct {
	fs       afero.Fs
	ws       *workspace.Workspace
	registry domain.Registry
	backups  *backup.Manager
	cfg      *config.Config
}

// NewUpgradeService creates the service.
func NewUpgradeService(
	fs afero.Fs,
	ws *workspace.Workspace,
	registry domain.Registry,
	backups *backup.Manager,
	cfg *config.Config,
) *UpgradeService {
	return &UpgradeService{fs: fs, ws: ws, registry: registry, backups: backups, cfg: cfg}
}

// Detect runs a detection pass bounded by the configured overall timeout.
func (s *UpgradeService) Detect(ctx context.Context) (*domain.DetectionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Upgrade.Detection.OverallTimeout())
	defer cancel()

	detector := upgrade.NewDetector(s.ws, s.registry, s.cfg)
	return detector.Detect(ctx)
}

// Apply detects and then writes the upgrades selected by the filter.
func (s *UpgradeService) Apply(ctx context.Context, filter domain.UpgradeFilter, dryRun bool) (*domain.UpgradeSummary, error) {
	detected, err := s.Detect(ctx)
	if err != nil {
		return nil, err
	}

	applier := upgrade.NewApplier(s.fs, s.ws.Root, s.backups, s.cfg)
	return applier.Apply(detected, filter, dryRun)
}

// Rollback restores the manifests recorded by a backup.
func (s *UpgradeService) Rollback(backupID string) error {
	applier := upgrade.NewApplier(s.fs, s.ws.Root, s.backups, s.cfg)
	return applier.Rollback(backupID)
}

// Backups lists the stored backups, newest first.
func (s *UpgradeService) Backups() ([]*domain.Backup, error) {
	return s.backups.List()
}

// DeleteBackup removes one backup by id.
func (s *UpgradeService) DeleteBackup(id string) error {
	return s.backups.Delete(id)
}
