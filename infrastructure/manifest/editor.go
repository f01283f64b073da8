package manifest

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/fsutil"
)

// modification is one queued edit. Applying it is a pure function from
// document to document, so the queue can replay on preview and on save.
type modification func(content string) (string, error)

// Editor batches modifications to one package.json in memory. Nothing
// touches the filesystem until Save, which validates the result and writes
// via temp-file + atomic-rename.
type Editor struct {
	fs       afero.Fs
	path     string
	original string
	mods     []modification
}

// Open loads the manifest file into a new editor.
func Open(fs afero.Fs, path string) (*Editor, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %q: %w", path, err)
	}
	if !gjson.Valid(string(data)) {
		return nil, &domain.MalformedError{Path: path, Reason: "not valid JSON"}
	}
	return &Editor{fs: fs, path: path, original: string(data)}, nil
}

// Path returns the manifest file this editor operates on.
func (e *Editor) Path() string { return e.path }

// SetVersion queues a version replacement.
func (e *Editor) SetVersion(version string) {
	e.queueSet("version", version)
}

// UpdateDependency queues a spec change for one dependency of one kind.
func (e *Editor) UpdateDependency(kind domain.DependencyKind, name, spec string) {
	e.queueSet(kind.ManifestField()+"."+escapePathKey(name), spec)
}

// RemoveDependency queues removal of a dependency across all four kinds.
func (e *Editor) RemoveDependency(name string) {
	for _, kind := range domain.AllDependencyKinds {
		path := kind.ManifestField() + "." + escapePathKey(name)
		e.mods = append(e.mods, func(content string) (string, error) {
			if !gjson.Get(content, path).Exists() {
				return content, nil
			}
			return sjson.Delete(content, path)
		})
	}
}

// UpdateScript queues a script definition.
func (e *Editor) UpdateScript(name, command string) {
	e.queueSet("scripts."+escapePathKey(name), command)
}

// RemoveScript queues removal of a script.
func (e *Editor) RemoveScript(name string) {
	path := "scripts." + escapePathKey(name)
	e.mods = append(e.mods, func(content string) (string, error) {
		if !gjson.Get(content, path).Exists() {
			return content, nil
		}
		return sjson.Delete(content, path)
	})
}

// SetField queues an arbitrary field write. The path uses dotted gjson
// syntax and must already be escaped by the caller where keys contain dots.
func (e *Editor) SetField(path string, value interface{}) {
	e.mods = append(e.mods, func(content string) (string, error) {
		return sjson.Set(content, path, value)
	})
}

// GetField reads a field from the current (unsaved) view of the document.
func (e *Editor) GetField(path string) gjson.Result {
	content, err := e.replay()
	if err != nil {
		return gjson.Result{}
	}
	return gjson.Get(content, path)
}

// Preview returns exactly what Save would write, without touching disk.
func (e *Editor) Preview() (string, error) {
	return e.replay()
}

// Dirty reports whether any modifications are queued.
func (e *Editor) Dirty() bool { return len(e.mods) > 0 }

// Revert discards all queued modifications.
func (e *Editor) Revert() { e.mods = nil }

// Save replays the queue, validates the resulting JSON, writes atomically
// and refreshes the in-memory view so further edits build on the new state.
func (e *Editor) Save() error {
	content, err := e.replay()
	if err != nil {
		return err
	}
	if !gjson.Valid(content) {
		return &domain.MalformedError{Path: e.path, Reason: "modifications produced invalid JSON"}
	}

	if err := fsutil.WriteFileAtomic(e.fs, e.path, []byte(content)); err != nil {
		return fmt.Errorf("failed to save manifest %q: %w", e.path, err)
	}

	e.original = content
	e.mods = nil
	return nil
}

func (e *Editor) queueSet(path string, value string) {
	e.mods = append(e.mods, func(content string) (string, error) {
		return sjson.Set(content, path, value)
	})
}

func (e *Editor) replay() (string, error) {
	content := e.original
	for _, mod := range e.mods {
		next, err := mod(content)
		if err != nil {
			return "", fmt.Errorf("failed to apply modification to %q: %w", e.path, err)
		}
		content = next
	}
	return content, nil
}
