package domain

import (
	"github.com/Masterminds/semver/v3"
)

// BumpReason explains why a package appears in a version bump plan.
type BumpReason int

const (
	// ReasonChangeset marks packages named directly in the merged changeset.
	ReasonChangeset BumpReason = iota
	// ReasonUnifiedPolicy marks packages pulled in by the unified (or mixed
	// group) strategy rather than by the changeset itself.
	ReasonUnifiedPolicy
	// ReasonDependencyUpdate marks packages bumped because an internal
	// dependency pin of theirs changed.
	ReasonDependencyUpdate
)

func (r BumpReason) String() string {
	switch r {
	case ReasonUnifiedPolicy:
		return "unified policy"
	case ReasonDependencyUpdate:
		return "dependency update"
	default:
		return "changeset"
	}
}

// PlanEntry is one package's transition inside a version bump plan.
type PlanEntry struct {
	Package string
	Current *semver.Version
	Next    *semver.Version
	Bump    Bump
	Reason  BumpReason
}

// Changed reports whether the entry actually moves the version. Entries with
// a none bump stay in the plan to surface intent but do not change anything.
func (e PlanEntry) Changed() bool {
	return !e.Current.Equal(e.Next)
}

// VersionBumpPlan is the resolver output: entries in topological order plus
// any cycles detected while ordering.
type VersionBumpPlan struct {
	Entries []PlanEntry
	Cycles  [][]string
}

// Entry returns the plan entry for a package, or nil.
func (p *VersionBumpPlan) Entry(name string) *PlanEntry {
	for i := range p.Entries {
		if p.Entries[i].Package == name {
			return &p.Entries[i]
		}
	}
	return nil
}
