package domain

// Severity ranks audit issues.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// AuditIssue is the common shape every audit section reports.
type AuditIssue struct {
	Severity         Severity
	Category         string
	Title            string
	Description      string
	AffectedPackages []string
	Suggestion       string
	Metadata         map[string]string
}

// SpecUsage records one internal package depending on something with a
// particular requirement spec.
type SpecUsage struct {
	Package string
	Spec    string
}

// VersionConflict reports an external dependency required with different
// specs by different internal packages (runtime and peer maps only).
type VersionConflict struct {
	Name   string
	Usages []SpecUsage
}

// VersionInconsistency reports internal packages depending on the same
// workspace member with diverging specs, plus the recommended spec.
type VersionInconsistency struct {
	Name        string
	Usages      []SpecUsage
	Recommended string
}

// DependencyClass is the coarse category of a declared dependency.
type DependencyClass int

const (
	ClassInternalPackage DependencyClass = iota
	ClassExternalPackage
	ClassWorkspaceLink
	ClassLocalLink
)

func (c DependencyClass) String() string {
	switch c {
	case ClassInternalPackage:
		return "internal"
	case ClassWorkspaceLink:
		return "workspace link"
	case ClassLocalLink:
		return "local link"
	default:
		return "external"
	}
}

// ReferenceType refines how an internal dependency is referenced.
type ReferenceType int

const (
	RefWorkspaceProtocol ReferenceType = iota
	RefLocalFile
	RefRegistryVersion
	RefOther
)

// Classification is the concrete aggregate produced when categorizing a
// single declared dependency. No object graph, exhaustive matching on Class.
type Classification struct {
	Class     DependencyClass
	Reference ReferenceType
	Protocol  string
	// Version carries the requirement string for registry references.
	Version string
	// LocalPath carries the target of file:/link:/portal: references.
	LocalPath  string
	Confidence float64
	Warnings   []string
	Errors     []string
}
