//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"encoding/json"

	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// ManifestBuilder helps create package.json documents for tests.
type ManifestBuilder struct {
	*testkit.BaseBuilder
	name       string
	version    string
	private    bool
	workspaces []string
	deps       map[string]string
	devDeps    map[string]string
	peerDeps   map[string]string
	optDeps    map[string]string
	scripts    map[string]string
}

// NewManifestBuilder creates a new manifest builder with sensible defaults.
func NewManifestBuilder() *ManifestBuilder {
	return &ManifestBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		name:        "test-package",
		version:     "1.0.0",
	}
}

// WithName sets the package name.
func (b *ManifestBuilder) WithName(name string) *ManifestBuilder {
	b.name = name
	return b
}

// WithVersion sets the version field; empty omits it.
func (b *ManifestBuilder) WithVersion(version string) *ManifestBuilder {
	b.version = version
	return b
}

// WithPrivate marks the package private.
func (b *ManifestBuilder) WithPrivate() *ManifestBuilder {
	b.private = true
	return b
}

// WithWorkspaces sets the workspace patterns.
func (b *ManifestBuilder) WithWorkspaces(patterns ...string) *ManifestBuilder {
	b.workspaces = patterns
	return b
}

// WithDependency adds a runtime dependency.
func (b *ManifestBuilder) WithDependency(name, spec string) *ManifestBuilder {
	if b.deps == nil {
		b.deps = map[string]string{}
	}
	b.deps[name] = spec
	return b
}

// WithDevDependency adds a dev dependency.
func (b *ManifestBuilder) WithDevDependency(name, spec string) *ManifestBuilder {
	if b.devDeps == nil {
		b.devDeps = map[string]string{}
	}
	b.devDeps[name] = spec
	return b
}

// WithPeerDependency adds a peer dependency.
func (b *ManifestBuilder) WithPeerDependency(name, spec string) *ManifestBuilder {
	if b.peerDeps == nil {
		b.peerDeps = map[string]string{}
	}
	b.peerDeps[name] = spec
	return b
}

// WithOptionalDependency adds an optional dependency.
func (b *ManifestBuilder) WithOptionalDependency(name, spec string) *ManifestBuilder {
	if b.optDeps == nil {
		b.optDeps = map[string]string{}
	}
	b.optDeps[name] = spec
	return b
}

// WithScript adds a script entry.
func (b *ManifestBuilder) WithScript(name, command string) *ManifestBuilder {
	if b.scripts == nil {
		b.scripts = map[string]string{}
	}
	b.scripts[name] = command
	return b
}

// Build creates the manifest JSON (satisfies testkit.Builder interface).
func (b *ManifestBuilder) Build() interface{} {
	return b.BuildJSON()
}

// BuildJSON renders the manifest as a package.json document.
func (b *ManifestBuilder) BuildJSON() string {
	doc := map[string]interface{}{"name": b.name}
	if b.version != "" {
		doc["version"] = b.version
	}
	if b.private {
		doc["private"] = true
	}
	if len(b.workspaces) > 0 {
		doc["workspaces"] = b.workspaces
	}
	if len(b.deps) > 0 {
		doc["dependencies"] = b.deps
	}
	if len(b.devDeps) > 0 {
		doc["devDependencies"] = b.devDeps
	}
	if len(b.peerDeps) > 0 {
		doc["peerDependencies"] = b.peerDeps
	}
	if len(b.optDeps) > 0 {
		doc["optionalDependencies"] = b.optDeps
	}
	if len(b.scripts) > 0 {
		doc["scripts"] = b.scripts
	}

	data, _ := json.MarshalIndent(doc, "", "  ")
	return string(data)
}

// Reset clears the builder state, allowing it to be reused.
func (b *ManifestBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.name = "test-package"
	b.version = "1.0.0"
	b.private = false
	b.workspaces = nil
	b.deps = nil
	b.devDeps = nil
	b.peerDeps = nil
	b.optDeps = nil
	b.scripts = nil
	return b
}

// Clone creates a deep copy of the ManifestBuilder.
func (b *ManifestBuilder) Clone() testkit.Builder {
	clone := &ManifestBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		name:        b.name,
		version:     b.version,
		private:     b.private,
		workspaces:  append([]string(nil), b.workspaces...),
	}
	clone.deps = cloneMap(b.deps)
	clone.devDeps = cloneMap(b.devDeps)
	clone.peerDeps = cloneMap(b.peerDeps)
	clone.optDeps = cloneMap(b.optDeps)
	clone.scripts = cloneMap(b.scripts)
	return clone
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
