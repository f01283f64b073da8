// Package changeset persists per-branch intent records under
// <root>/.changesets. Pending records live in pending/, archived ones in
// history/; files are YAML so they stay human-editable.
package changeset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/fsutil"
)

const (
	changesetDir = ".changesets"
	pendingDir   = "pending"
	historyDir   = "history"
	fileExt      = ".yaml"
)

// Store owns the on-disk changeset layout. Access is serial per branch;
// operations on different branches may interleave freely.
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore creates a store rooted at the workspace root.
func NewStore(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: root}
}

func (s *Store) pendingPath(branch string) string {
	return filepath.Join(s.root, changesetDir, pendingDir, EncodeBranch(branch)+fileExt)
}

func (s *Store) historyPath(branch string) string {
	return filepath.Join(s.root, changesetDir, historyDir, EncodeBranch(branch)+fileExt)
}

// Create persists an empty changeset for the branch. A pending record for
// the same branch is a conflict.
func (s *Store) Create(branch string, bump domain.Bump, environments []string) (*domain.Changeset, error) {
	exists, err := s.Exists(branch)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("changeset for branch %q %w", branch, domain.ErrAlreadyExists)
	}

	cs := domain.NewChangeset(branch, bump, environments)
	if err := s.Save(cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// Exists reports whether a pending changeset exists for the branch.
func (s *Store) Exists(branch string) (bool, error) {
	ok, err := afero.Exists(s.fs, s.pendingPath(branch))
	if err != nil {
		return false, fmt.Errorf("failed to stat changeset for %q: %w", branch, err)
	}
	return ok, nil
}

// Load reads the pending changeset for the branch.
func (s *Store) Load(branch string) (*domain.Changeset, error) {
	return s.read(s.pendingPath(branch), branch)
}

// LoadArchived reads the archived changeset for the branch.
func (s *Store) LoadArchived(branch string) (*domain.Changeset, error) {
	return s.read(s.historyPath(branch), branch)
}

func (s *Store) read(path, branch string) (*domain.Changeset, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("changeset for branch %q %w", branch, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read changeset for %q: %w", branch, err)
	}

	var cs domain.Changeset
	if err := yaml.Unmarshal(data, &cs); err != nil {
		return nil, &domain.MalformedError{Path: path, Reason: err.Error()}
	}
	if cs.Branch == "" {
		return nil, &domain.MalformedError{Path: path, Reason: "missing branch field"}
	}
	return &cs, nil
}

// Save writes the changeset to its pending location atomically.
func (s *Store) Save(cs *domain.Changeset) error {
	if cs.Branch == "" {
		return errors.New("changeset has no branch name")
	}

	data, err := yaml.Marshal(cs)
	if err != nil {
		return fmt.Errorf("failed to serialize changeset for %q: %w", cs.Branch, err)
	}
	if err := fsutil.WriteFileAtomic(s.fs, s.pendingPath(cs.Branch), data); err != nil {
		return fmt.Errorf("failed to write changeset for %q: %w", cs.Branch, err)
	}
	return nil
}

// Update loads the pending changeset, applies mutate, and saves it back
// when mutate reports a real change. UpdatedAt only moves on real changes.
func (s *Store) Update(branch string, mutate func(cs *domain.Changeset) bool) (*domain.Changeset, error) {
	cs, err := s.Load(branch)
	if err != nil {
		return nil, err
	}
	if !mutate(cs) {
		return cs, nil
	}
	cs.UpdatedAt = time.Now().UTC()
	if err := s.Save(cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// AddCommit records a commit SHA on the branch's changeset.
func (s *Store) AddCommit(branch, sha string) (*domain.Changeset, error) {
	return s.Update(branch, func(cs *domain.Changeset) bool { return cs.AddCommit(sha) })
}

// AddPackage records an affected package on the branch's changeset.
func (s *Store) AddPackage(branch, name string) (*domain.Changeset, error) {
	return s.Update(branch, func(cs *domain.Changeset) bool { return cs.AddPackage(name) })
}

// SetBump replaces the bump kind on the branch's changeset.
func (s *Store) SetBump(branch string, bump domain.Bump) (*domain.Changeset, error) {
	return s.Update(branch, func(cs *domain.Changeset) bool { return cs.SetBump(bump) })
}

// Touch bumps UpdatedAt without other changes.
func (s *Store) Touch(branch string) (*domain.Changeset, error) {
	return s.Update(branch, func(*domain.Changeset) bool { return true })
}

// ListPending returns every pending changeset. Order is unspecified.
func (s *Store) ListPending() ([]*domain.Changeset, error) {
	return s.list(filepath.Join(s.root, changesetDir, pendingDir))
}

// ListArchived returns every archived changeset. Order is unspecified.
func (s *Store) ListArchived() ([]*domain.Changeset, error) {
	return s.list(filepath.Join(s.root, changesetDir, historyDir))
}

func (s *Store) list(dir string) ([]*domain.Changeset, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		// A missing directory simply means no records yet.
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list changesets in %q: %w", dir, err)
	}

	var out []*domain.Changeset
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileExt {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, readErr := afero.ReadFile(s.fs, path)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read %q: %w", path, readErr)
		}
		var cs domain.Changeset
		if err := yaml.Unmarshal(data, &cs); err != nil {
			return nil, &domain.MalformedError{Path: path, Reason: err.Error()}
		}
		out = append(out, &cs)
	}
	return out, nil
}

// Archive moves a pending changeset to history with its release info. The
// history copy is written before the pending file is removed, so a crash in
// between leaves a detectable orphan instead of losing data.
func (s *Store) Archive(cs *domain.Changeset, release *domain.ReleaseInfo) error {
	exists, err := s.Exists(cs.Branch)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("changeset for branch %q is not pending: %w", cs.Branch, domain.ErrNotFound)
	}

	archived := *cs
	archived.Release = release
	archived.UpdatedAt = time.Now().UTC()

	data, err := yaml.Marshal(&archived)
	if err != nil {
		return fmt.Errorf("failed to serialize archived changeset for %q: %w", cs.Branch, err)
	}
	if err := fsutil.WriteFileAtomic(s.fs, s.historyPath(cs.Branch), data); err != nil {
		return fmt.Errorf("failed to archive changeset for %q: %w", cs.Branch, err)
	}
	if err := s.fs.Remove(s.pendingPath(cs.Branch)); err != nil {
		return fmt.Errorf("failed to remove pending changeset for %q: %w", cs.Branch, err)
	}
	return nil
}
