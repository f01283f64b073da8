package domain

import (
	"github.com/Masterminds/semver/v3"
)

// DependencyKind labels the four dependency maps of a manifest.
type DependencyKind int

const (
	KindRuntime DependencyKind = iota
	KindDev
	KindPeer
	KindOptional
)

// AllDependencyKinds in the order they appear in a manifest.
var AllDependencyKinds = []DependencyKind{KindRuntime, KindDev, KindPeer, KindOptional}

// ManifestField returns the package.json field backing this kind.
func (k DependencyKind) ManifestField() string {
	switch k {
	case KindDev:
		return "devDependencies"
	case KindPeer:
		return "peerDependencies"
	case KindOptional:
		return "optionalDependencies"
	default:
		return "dependencies"
	}
}

func (k DependencyKind) String() string {
	switch k {
	case KindDev:
		return "dev"
	case KindPeer:
		return "peer"
	case KindOptional:
		return "optional"
	default:
		return "runtime"
	}
}

// Manifest is the typed view of a package.json. Fields the core does not
// model pass through untouched because edits operate on the original bytes.
type Manifest struct {
	Name       string
	Version    *semver.Version
	RawVersion string
	Private    bool
	Workspaces []string
	NoHoist    []string

	// Dependencies maps kind -> dependency name -> requirement spec.
	Dependencies map[DependencyKind]map[string]string

	Scripts map[string]string
}

// DependenciesOf returns the map for one kind, never nil.
func (m *Manifest) DependenciesOf(kind DependencyKind) map[string]string {
	if deps, ok := m.Dependencies[kind]; ok {
		return deps
	}
	return map[string]string{}
}

// PackageInfo couples a parsed manifest with its location on disk.
type PackageInfo struct {
	Manifest *Manifest
	// Path is the canonicalized absolute path of the package.json file.
	Path string
	// Dir is the package directory containing the manifest.
	Dir string
}

func (p *PackageInfo) Name() string { return p.Manifest.Name }
