// Package backup snapshots manifest files before destructive operations and
// restores them on demand. Backups live under the workspace root in a
// directory of timestamped snapshots, each with a metadata file.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/fsutil"
)

const metadataFile = "backup.yaml"

// Manager creates, lists, restores and prunes backups for one workspace.
type Manager struct {
	fs   afero.Fs
	root string
	dir  string
	now  func() time.Time
}

// New creates a manager storing backups under root/dir.
func New(fs afero.Fs, root, dir string) *Manager {
	return &Manager{fs: fs, root: root, dir: dir, now: time.Now}
}

func (m *Manager) base() string {
	return filepath.Join(m.root, m.dir)
}

func (m *Manager) backupDir(id string) string {
	return filepath.Join(m.base(), id)
}

// newID derives a sortable, unique backup identifier from the creation time
// and the operation name.
func newID(createdAt time.Time, operation string) string {
	stamp := createdAt.Format("2006-01-02T15-04-05")
	millis := createdAt.Nanosecond() / int(time.Millisecond)
	return fmt.Sprintf("%s-%03d-%s", stamp, millis, sanitizeOperation(operation))
}

func sanitizeOperation(operation string) string {
	var b strings.Builder
	for _, c := range operation {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			b.WriteRune(c)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// Create snapshots the given files, which must be relative to the workspace
// root. A partially written backup is removed before the error returns.
func (m *Manager) Create(operation string, files []string) (*domain.Backup, error) {
	createdAt := m.now()
	b := &domain.Backup{
		ID:        newID(createdAt, operation),
		CreatedAt: createdAt,
		Operation: operation,
		Files:     append([]string(nil), files...),
	}
	sort.Strings(b.Files)

	dir := m.backupDir(b.ID)
	for _, rel := range b.Files {
		src := filepath.Join(m.root, rel)
		data, err := afero.ReadFile(m.fs, src)
		if err != nil {
			m.discard(dir)
			return nil, fmt.Errorf("%w: reading %q: %v", domain.ErrBackupFailed, rel, err)
		}
		if err := fsutil.WriteFileAtomic(m.fs, filepath.Join(dir, "files", rel), data); err != nil {
			m.discard(dir)
			return nil, fmt.Errorf("%w: writing %q: %v", domain.ErrBackupFailed, rel, err)
		}
	}

	if err := m.writeMetadata(b); err != nil {
		m.discard(dir)
		return nil, err
	}
	logger.Infof("Created backup %q covering %d files", b.ID, len(b.Files))
	return b, nil
}

func (m *Manager) writeMetadata(b *domain.Backup) error {
	data, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("%w: encoding metadata for %q: %v", domain.ErrBackupFailed, b.ID, err)
	}
	path := filepath.Join(m.backupDir(b.ID), metadataFile)
	if err := fsutil.WriteFileAtomic(m.fs, path, data); err != nil {
		return fmt.Errorf("%w: writing metadata for %q: %v", domain.ErrBackupFailed, b.ID, err)
	}
	return nil
}

func (m *Manager) discard(dir string) {
	if err := m.fs.RemoveAll(dir); err != nil {
		logger.Warnf("Failed to remove incomplete backup %q: %s", dir, err)
	}
}

// List returns every backup newest first.
func (m *Manager) List() ([]*domain.Backup, error) {
	entries, err := afero.ReadDir(m.fs, m.base())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	var backups []*domain.Backup
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		b, loadErr := m.load(entry.Name())
		if loadErr != nil {
			logger.Warnf("Skipping unreadable backup %q: %s", entry.Name(), loadErr)
			continue
		}
		backups = append(backups, b)
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].ID > backups[j].ID })
	return backups, nil
}

func (m *Manager) load(id string) (*domain.Backup, error) {
	data, err := afero.ReadFile(m.fs, filepath.Join(m.backupDir(id), metadataFile))
	if err != nil {
		return nil, err
	}
	var b domain.Backup
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Restore copies every file of the backup back to its original location.
// Each write is atomic; files restore in sorted order.
func (m *Manager) Restore(id string) (*domain.Backup, error) {
	b, err := m.load(id)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", domain.ErrNoBackup, id)
		}
		return nil, fmt.Errorf("failed to load backup %q: %w", id, err)
	}

	for _, rel := range b.Files {
		data, readErr := afero.ReadFile(m.fs, filepath.Join(m.backupDir(id), "files", rel))
		if readErr != nil {
			return nil, fmt.Errorf("backup %q is missing %q: %w", id, rel, readErr)
		}
		if writeErr := fsutil.WriteFileAtomic(m.fs, filepath.Join(m.root, rel), data); writeErr != nil {
			return nil, fmt.Errorf("failed to restore %q from backup %q: %w", rel, id, writeErr)
		}
	}
	logger.Infof("Restored %d files from backup %q", len(b.Files), id)
	return b, nil
}

// Delete removes a backup and its snapshot files.
func (m *Manager) Delete(id string) error {
	dir := m.backupDir(id)
	if _, err := m.fs.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q", domain.ErrNoBackup, id)
		}
		return fmt.Errorf("failed to stat backup %q: %w", id, err)
	}
	if err := m.fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete backup %q: %w", id, err)
	}
	return nil
}

// MarkSuccess records that the operation the backup guarded completed.
func (m *Manager) MarkSuccess(id string) error {
	b, err := m.load(id)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q", domain.ErrNoBackup, id)
		}
		return fmt.Errorf("failed to load backup %q: %w", id, err)
	}
	b.Succeeded = true
	return m.writeMetadata(b)
}

// Cleanup enforces the retention policy: backups of successful operations
// are deleted when keepAfterSuccess is off, then backups go until at most
// maxBackups remain. The trim deletes successful backups before unsuccessful
// ones, oldest first within each class. maxBackups <= 0 means unlimited.
func (m *Manager) Cleanup(keepAfterSuccess bool, maxBackups int) error {
	backups, err := m.List()
	if err != nil {
		return err
	}

	var kept []*domain.Backup
	for _, b := range backups {
		if b.Succeeded && !keepAfterSuccess {
			if err := m.Delete(b.ID); err != nil {
				return err
			}
			continue
		}
		kept = append(kept, b)
	}

	if maxBackups <= 0 || len(kept) <= maxBackups {
		return nil
	}
	excess := len(kept) - maxBackups

	// kept is newest-first, so walking backwards visits oldest first.
	var doomed []*domain.Backup
	for i := len(kept) - 1; i >= 0 && len(doomed) < excess; i-- {
		if kept[i].Succeeded {
			doomed = append(doomed, kept[i])
		}
	}
	for i := len(kept) - 1; i >= 0 && len(doomed) < excess; i-- {
		if !kept[i].Succeeded {
			doomed = append(doomed, kept[i])
		}
	}
	for _, b := range doomed {
		if err := m.Delete(b.ID); err != nil {
			return err
		}
	}
	return nil
}
