// Package workspace discovers the internal packages of a JavaScript
// monorepo. It recognizes npm, Yarn (classic and Berry), pnpm and Bun
// workspace layouts and expands their patterns into parsed manifests.
package workspace

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/manifest"
)

// Kind identifies the package manager owning the workspace layout.
type Kind string

const (
	KindSingle    Kind = "single"
	KindNpm       Kind = "npm"
	KindYarn      Kind = "yarn"
	KindYarnBerry Kind = "yarn-berry"
	KindPnpm      Kind = "pnpm"
	KindBun       Kind = "bun"
)

// Workspace is the rooted tree of internal packages.
type Workspace struct {
	Root     string
	Kind     Kind
	RootPkg  *domain.PackageInfo
	Packages []*domain.PackageInfo

	byName map[string]*domain.PackageInfo
}

// Package returns the internal package with the given name, or nil.
func (w *Workspace) Package(name string) *domain.PackageInfo {
	return w.byName[name]
}

// Names returns the set of internal package names.
func (w *Workspace) Names() map[string]struct{} {
	names := make(map[string]struct{}, len(w.byName))
	for name := range w.byName {
		names[name] = struct{}{}
	}
	return names
}

// IsMonorepo reports whether the root enumerates member packages.
func (w *Workspace) IsMonorepo() bool { return w.Kind != KindSingle }

// pnpmWorkspaceFile mirrors pnpm-workspace.yaml.
type pnpmWorkspaceFile struct {
	Packages []string `yaml:"packages"`
}

// Discover loads the workspace rooted at root. The root manifest must
// exist; package names must be unique across the workspace.
func Discover(fs afero.Fs, root string) (*Workspace, error) {
	root = canonicalPath(root)

	rootManifestPath := filepath.Join(root, "package.json")
	rootPkg, err := loadPackage(fs, rootManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace root manifest: %w", err)
	}

	kind, patterns, err := detect(fs, root, rootPkg.Manifest)
	if err != nil {
		return nil, err
	}

	ws := &Workspace{
		Root:    root,
		Kind:    kind,
		RootPkg: rootPkg,
		byName:  map[string]*domain.PackageInfo{},
	}

	if kind == KindSingle {
		ws.Packages = []*domain.PackageInfo{rootPkg}
		ws.byName[rootPkg.Name()] = rootPkg
		return ws, nil
	}

	dirs, err := expandPatterns(fs, root, patterns)
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		pkg, loadErr := loadPackage(fs, filepath.Join(dir, "package.json"))
		if loadErr != nil {
			return nil, loadErr
		}
		if existing, ok := ws.byName[pkg.Name()]; ok {
			return nil, fmt.Errorf(
				"duplicate package name %q declared by %q and %q",
				pkg.Name(), existing.Path, pkg.Path,
			)
		}
		ws.byName[pkg.Name()] = pkg
		ws.Packages = append(ws.Packages, pkg)
	}

	logger.Debugf("Discovered %d workspace packages under %q (%s)", len(ws.Packages), root, kind)
	return ws, nil
}

// detect determines the workspace kind and the member patterns.
func detect(fs afero.Fs, root string, rootManifest *domain.Manifest) (Kind, []string, error) {
	if ok, _ := afero.Exists(fs, filepath.Join(root, "pnpm-workspace.yaml")); ok {
		data, err := afero.ReadFile(fs, filepath.Join(root, "pnpm-workspace.yaml"))
		if err != nil {
			return KindSingle, nil, fmt.Errorf("failed to read pnpm-workspace.yaml: %w", err)
		}
		var pw pnpmWorkspaceFile
		if err := yaml.Unmarshal(data, &pw); err != nil {
			return KindSingle, nil, &domain.MalformedError{
				Path:   filepath.Join(root, "pnpm-workspace.yaml"),
				Reason: err.Error(),
			}
		}
		return KindPnpm, pw.Packages, nil
	}

	if len(rootManifest.Workspaces) == 0 {
		return KindSingle, nil, nil
	}

	switch {
	case exists(fs, filepath.Join(root, "bun.lockb")) || exists(fs, filepath.Join(root, "bun.lock")):
		return KindBun, rootManifest.Workspaces, nil
	case exists(fs, filepath.Join(root, ".yarnrc.yml")):
		return KindYarnBerry, rootManifest.Workspaces, nil
	case exists(fs, filepath.Join(root, "yarn.lock")):
		return KindYarn, rootManifest.Workspaces, nil
	default:
		return KindNpm, rootManifest.Workspaces, nil
	}
}

// expandPatterns resolves workspace globs to package directories. A single
// `*` never crosses a path separator; `**` matches any depth. Negated
// patterns remove earlier matches.
func expandPatterns(fs afero.Fs, root string, patterns []string) ([]string, error) {
	fsys := afero.NewIOFS(afero.NewBasePathFs(fs, root))

	matched := map[string]bool{}
	var order []string

	for _, pattern := range patterns {
		negate := strings.HasPrefix(pattern, "!")
		pattern = strings.TrimPrefix(pattern, "!")
		pattern = strings.TrimSuffix(strings.TrimPrefix(pattern, "./"), "/")
		if pattern == "" || strings.Contains(pattern, "..") {
			continue
		}

		hits, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid workspace pattern %q: %w", pattern, err)
		}

		for _, hit := range hits {
			if ok, _ := afero.Exists(fs, filepath.Join(root, hit, "package.json")); !ok {
				continue
			}
			if negate {
				matched[hit] = false
				continue
			}
			if _, seen := matched[hit]; !seen {
				order = append(order, hit)
			}
			matched[hit] = true
		}
	}

	var dirs []string
	for _, hit := range order {
		if matched[hit] {
			dirs = append(dirs, canonicalPath(filepath.Join(root, hit)))
		}
	}
	return dirs, nil
}

func loadPackage(fs afero.Fs, path string) (*domain.PackageInfo, error) {
	m, err := manifest.Load(fs, path)
	if err != nil {
		return nil, err
	}
	path = canonicalPath(path)
	return &domain.PackageInfo{Manifest: m, Path: path, Dir: filepath.Dir(path)}, nil
}

// canonicalPath resolves symlinks when the path exists on the host
// filesystem and falls back to a lexical clean otherwise (in-memory
// filesystems used in tests have no symlinks to resolve).
func canonicalPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}

func exists(fs afero.Fs, path string) bool {
	ok, _ := afero.Exists(fs, path)
	return ok
}
