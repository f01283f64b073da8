// Package fsutil provides the atomic write primitives every store in the
// toolkit relies on. All paths go through write-to-temp + rename so a crash
// never leaves a half-written file behind.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	dirMode  = 0o755
	fileMode = 0o644

	tempSuffix = ".monorel-tmp"
)

// WriteFileAtomic writes data to path via a sibling temp file and rename.
// The parent directory is created if missing. On failure the temp file is
// removed best-effort.
func WriteFileAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}

	tmp := path + tempSuffix
	if err := afero.WriteFile(fs, tmp, data, fileMode); err != nil {
		return fmt.Errorf("failed to write temp file %q: %w", tmp, err)
	}

	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("failed to rename %q to %q: %w", tmp, path, err)
	}
	return nil
}

// CleanupTemp removes leftover temp files under root, typically orphans from
// a cancelled run that died before the rename point.
func CleanupTemp(fs afero.Fs, root string) error {
	return afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil //nolint:nilerr // unwalkable entries are skipped, not fatal
		}
		if strings.HasSuffix(path, tempSuffix) {
			_ = fs.Remove(path)
		}
		return nil
	})
}
