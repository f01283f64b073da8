package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Workspace and local protocols. Specs carrying one of these never
// participate in external version comparison and are never rewritten.
const (
	ProtocolWorkspace = "workspace:"
	ProtocolFile      = "file:"
	ProtocolLink      = "link:"
	ProtocolPortal    = "portal:"
)

var localProtocols = []string{ProtocolWorkspace, ProtocolFile, ProtocolLink, ProtocolPortal}

// SpecProtocol returns the protocol prefix of a requirement spec, or the
// empty string for plain registry requirements.
func SpecProtocol(spec string) string {
	for _, proto := range localProtocols {
		if strings.HasPrefix(spec, proto) {
			return proto
		}
	}
	return ""
}

// IsLocalSpec reports whether the spec uses a workspace or local protocol.
func IsLocalSpec(spec string) bool { return SpecProtocol(spec) != "" }

// ParseRequirement parses a registry version requirement: exact, caret,
// tilde, comparators, wildcards, hyphen ranges and "*". Protocol specs are
// rejected because they have no external comparison semantics.
func ParseRequirement(spec string) (*semver.Constraints, error) {
	if IsLocalSpec(spec) {
		return nil, fmt.Errorf("%w: %q uses the %s protocol", ErrInvalidRequirement, spec, SpecProtocol(spec))
	}
	c, err := semver.NewConstraint(strings.TrimSpace(spec))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRequirement, spec, err)
	}
	return c, nil
}

// MatchesRequirement reports whether the version satisfies the spec.
func MatchesRequirement(spec string, v *semver.Version) (bool, error) {
	c, err := ParseRequirement(spec)
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}

// specOperator matches the leading comparison operator of a simple
// requirement spec ("^1.2.3", ">= 1.0.0", "=2.0.0", "1.2.3").
var specOperator = regexp.MustCompile(`^(\^|~|>=|<=|>|<|=)?\s*v?\d`)

// PreservePrefix replaces only the version token of a requirement spec,
// keeping the original leading operator intact. Protocol specs are returned
// unchanged. Specs that are not a single operator plus version (ranges,
// wildcards, "*") cannot keep their shape and collapse to the bare version.
func PreservePrefix(oldSpec, newVersion string) string {
	if IsLocalSpec(oldSpec) {
		return oldSpec
	}

	trimmed := strings.TrimSpace(oldSpec)
	m := specOperator.FindString(trimmed)
	if m == "" {
		return newVersion
	}

	// Strip the digit the regexp anchored on; what remains is the operator.
	operator := strings.TrimSpace(strings.TrimSuffix(m, m[len(m)-1:]))
	operator = strings.TrimSuffix(operator, "v")
	return operator + newVersion
}
