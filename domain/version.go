package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ParseVersion parses a strict semver 2.0 version string.
func ParseVersion(raw string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(strings.TrimPrefix(strings.TrimSpace(raw), "v"))
	if err != nil {
		return nil, &InvalidVersionError{Value: raw, Cause: err}
	}
	return v, nil
}

// ApplyBump returns the next version for the given bump kind. Major, minor
// and patch bumps clear any prerelease and build metadata; a none bump
// returns the current version unchanged.
//
// A version already in prerelease of the target base completes to that base
// instead of moving past it (npm inc semantics): a minor bump of
// 1.3.0-beta.1 yields 1.3.0, not 1.4.0.
func ApplyBump(current *semver.Version, bump Bump) *semver.Version {
	pre := current.Prerelease() != ""
	switch bump {
	case BumpMajor:
		if pre && current.Minor() == 0 && current.Patch() == 0 {
			return semver.New(current.Major(), 0, 0, "", "")
		}
		return semver.New(current.Major()+1, 0, 0, "", "")
	case BumpMinor:
		if pre && current.Patch() == 0 {
			return semver.New(current.Major(), current.Minor(), 0, "", "")
		}
		return semver.New(current.Major(), current.Minor()+1, 0, "", "")
	case BumpPatch:
		if pre {
			return semver.New(current.Major(), current.Minor(), current.Patch(), "", "")
		}
		return semver.New(current.Major(), current.Minor(), current.Patch()+1, "", "")
	default:
		return current
	}
}

// NextPrerelease attaches a "-tag.N" prerelease to the bumped base version.
// N restarts at 0 whenever the base triple changes; otherwise it continues
// from the sequence number already carried by the current version.
func NextPrerelease(current, base *semver.Version, tag string) (*semver.Version, error) {
	n := uint64(0)
	sameBase := current.Major() == base.Major() &&
		current.Minor() == base.Minor() &&
		current.Patch() == base.Patch()
	if sameBase {
		if prev, ok := prereleaseSequence(current.Prerelease(), tag); ok {
			n = prev + 1
		}
	}

	next, err := base.SetPrerelease(fmt.Sprintf("%s.%d", tag, n))
	if err != nil {
		return nil, &InvalidVersionError{Value: tag, Cause: err}
	}
	return &next, nil
}

// prereleaseSequence extracts N from a "tag.N" prerelease string.
func prereleaseSequence(pre, tag string) (uint64, bool) {
	rest, ok := strings.CutPrefix(pre, tag+".")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ClassifyUpgrade compares two versions and reports which axis increases.
// Returns false when latest is not strictly newer on any axis.
func ClassifyUpgrade(current, latest *semver.Version) (UpgradeType, bool) {
	switch {
	case latest.Major() > current.Major():
		return UpgradeMajor, true
	case latest.Major() == current.Major() && latest.Minor() > current.Minor():
		return UpgradeMinor, true
	case latest.Major() == current.Major() && latest.Minor() == current.Minor() &&
		latest.Patch() > current.Patch():
		return UpgradePatch, true
	default:
		return UpgradePatch, false
	}
}
