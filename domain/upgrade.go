package domain

// UpgradeType classifies how far an available upgrade moves a dependency.
type UpgradeType int

const (
	UpgradePatch UpgradeType = iota
	UpgradeMinor
	UpgradeMajor
)

func (t UpgradeType) String() string {
	switch t {
	case UpgradeMajor:
		return "major"
	case UpgradeMinor:
		return "minor"
	default:
		return "patch"
	}
}

// AvailableUpgrade is one newer version detected for an external dependency
// of one workspace package.
type AvailableUpgrade struct {
	Package      string
	ManifestPath string
	Dependency   string
	Kind         DependencyKind
	CurrentSpec  string
	CurrentVer   string
	LatestVer    string
	Type         UpgradeType
	Deprecated   string
}

// LookupFailure records a registry lookup that failed during detection.
// Failures are per-(package, dependency) and never abort the pass.
type LookupFailure struct {
	Package    string
	Dependency string
	Err        error
}

// DetectionResult is the partial-tolerant output of an upgrade detection pass.
type DetectionResult struct {
	Upgrades []AvailableUpgrade
	Failures []LookupFailure
}

// UpgradeFilter selects a subset of detected upgrades. Empty Packages or
// Dependencies lists mean "no filter on that axis".
type UpgradeFilter struct {
	Types        []UpgradeType
	Packages     []string
	Dependencies []string
}

// Includes reports whether the filter selects the given upgrade.
func (f UpgradeFilter) Includes(u AvailableUpgrade) bool {
	if len(f.Types) > 0 && !containsType(f.Types, u.Type) {
		return false
	}
	if len(f.Packages) > 0 && !containsString(f.Packages, u.Package) {
		return false
	}
	if len(f.Dependencies) > 0 && !containsString(f.Dependencies, u.Dependency) {
		return false
	}
	return true
}

func containsType(types []UpgradeType, t UpgradeType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

// ApplyFailure records one manifest write that failed during an apply batch.
type ApplyFailure struct {
	ManifestPath string
	Err          error
}

// UpgradeSummary is returned by an apply pass. Partial success is normal:
// the caller renders both Applied and Failures.
type UpgradeSummary struct {
	Applied       []AvailableUpgrade
	Failures      []ApplyFailure
	PatchUpgrades int
	MinorUpgrades int
	MajorUpgrades int
	BackupID      string
	DryRun        bool
}

// Count tallies one applied upgrade into the per-type counters.
func (s *UpgradeSummary) Count(u AvailableUpgrade) {
	switch u.Type {
	case UpgradeMajor:
		s.MajorUpgrades++
	case UpgradeMinor:
		s.MinorUpgrades++
	default:
		s.PatchUpgrades++
	}
}
