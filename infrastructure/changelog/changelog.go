// Package changelog maintains Keep-a-Changelog formatted CHANGELOG.md files
// next to each versioned package.
package changelog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/monorel/monorel/infrastructure/fsutil"
)

const (
	fileName          = "CHANGELOG.md"
	unreleasedHeading = "## [Unreleased]"
	changedSubheading = "### Changed"
	h2Prefix          = "## ["
	bulletPrefix      = "- "
)

var skeleton = strings.Join([]string{
	"# Changelog",
	"",
	"All notable changes to this project will be documented in this file.",
	"",
	unreleasedHeading,
	"",
}, "\n")

// InsertEntries inserts bullet entries into the "## [Unreleased]" /
// "### Changed" section of a Keep-a-Changelog document.
//
// Behaviour:
//   - If "## [Unreleased]" is missing, the content is returned unchanged.
//   - If "### Changed" already exists under Unreleased, the entries are
//     appended after the last bullet line in that subsection.
//   - If "### Changed" does not exist, a new subsection is created right
//     after the "## [Unreleased]" line.
func InsertEntries(content string, entries []string) string {
	if len(entries) == 0 {
		return content
	}

	lines := strings.Split(content, "\n")

	unreleasedIdx := findUnreleasedIndex(lines)
	if unreleasedIdx < 0 {
		return content
	}

	nextH2Idx := findNextH2Index(lines, unreleasedIdx)
	changedIdx := findChangedIndex(lines, unreleasedIdx, nextH2Idx)

	bullets := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !strings.HasPrefix(entry, bulletPrefix) {
			entry = bulletPrefix + entry
		}
		bullets = append(bullets, entry)
	}

	if changedIdx >= 0 {
		insertAfter := findLastBullet(lines, changedIdx, nextH2Idx)
		lines = insertLines(lines, insertAfter+1, bullets)
	} else {
		block := []string{"", changedSubheading, ""}
		block = append(block, bullets...)
		lines = insertLines(lines, unreleasedIdx+1, block)
	}

	return strings.Join(lines, "\n")
}

// Release promotes the Unreleased section to a versioned heading dated at
// the given time, and reinserts a fresh empty Unreleased heading above it.
// Content without an Unreleased section is returned unchanged.
func Release(content, version string, date time.Time) string {
	lines := strings.Split(content, "\n")

	unreleasedIdx := findUnreleasedIndex(lines)
	if unreleasedIdx < 0 {
		return content
	}

	lines[unreleasedIdx] = fmt.Sprintf("## [%s] - %s", version, date.Format("2006-01-02"))
	lines = insertLines(lines, unreleasedIdx, []string{unreleasedHeading, ""})
	return strings.Join(lines, "\n")
}

// Update rewrites the CHANGELOG.md in dir: entries go under Unreleased and,
// when version is non-empty, the section is promoted to that version. A
// missing changelog file is created from a skeleton first.
func Update(fs afero.Fs, dir string, entries []string, version string, date time.Time) error {
	path := filepath.Join(dir, fileName)

	content := skeleton
	data, err := afero.ReadFile(fs, path)
	switch {
	case err == nil:
		content = string(data)
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to read %q: %w", path, err)
	}

	updated := InsertEntries(content, entries)
	if version != "" {
		updated = Release(updated, version, date)
	}
	if updated == content {
		return nil
	}

	if err := fsutil.WriteFileAtomic(fs, path, []byte(updated)); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

// findUnreleasedIndex returns the line index of the "## [Unreleased]"
// heading, or -1 if not found.
func findUnreleasedIndex(lines []string) int {
	for i, line := range lines {
		if strings.TrimSpace(line) == unreleasedHeading {
			return i
		}
	}
	return -1
}

// findNextH2Index returns the line index of the next "## [" heading after
// startIdx, or len(lines) if there is none.
func findNextH2Index(lines []string, startIdx int) int {
	for i := startIdx + 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), h2Prefix) {
			return i
		}
	}
	return len(lines)
}

// findChangedIndex returns the line index of the "### Changed" subsection
// between startIdx and endIdx, or -1 if not found.
func findChangedIndex(lines []string, startIdx, endIdx int) int {
	for i := startIdx + 1; i < endIdx; i++ {
		if strings.TrimSpace(lines[i]) == changedSubheading {
			return i
		}
	}
	return -1
}

// findLastBullet returns the index of the last bullet line in the
// ### Changed subsection, starting from changedIdx.
func findLastBullet(lines []string, changedIdx, endIdx int) int {
	insertAfter := changedIdx
	for i := changedIdx + 1; i < endIdx; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, bulletPrefix) {
			insertAfter = i
			continue
		}
		break
	}
	return insertAfter
}

// insertLines inserts extra lines into the slice at the given index.
func insertLines(lines []string, at int, extra []string) []string {
	result := make([]string, 0, len(lines)+len(extra))
	result = append(result, lines[:at]...)
	result = append(result, extra...)
	result = append(result, lines[at:]...)
	return result
}
