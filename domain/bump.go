package domain

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Bump identifies which semantic-version axis a change increments.
// The zero value is BumpNone so an unset bump never promotes a version.
type Bump int

const (
	BumpNone Bump = iota
	BumpPatch
	BumpMinor
	BumpMajor
)

// bumpNames maps every bump kind to its canonical string form used in
// changeset files and configuration.
var bumpNames = map[Bump]string{
	BumpNone:  "none",
	BumpPatch: "patch",
	BumpMinor: "minor",
	BumpMajor: "major",
}

func (b Bump) String() string {
	if name, ok := bumpNames[b]; ok {
		return name
	}
	return fmt.Sprintf("bump(%d)", int(b))
}

// ParseBump converts the canonical string form back into a Bump.
func ParseBump(s string) (Bump, error) {
	for bump, name := range bumpNames {
		if name == s {
			return bump, nil
		}
	}
	return BumpNone, fmt.Errorf("invalid bump kind %q (expected major, minor, patch or none)", s)
}

// MaxBump returns the highest-ranked of the two bump kinds
// (major > minor > patch > none).
func MaxBump(a, b Bump) Bump {
	if a > b {
		return a
	}
	return b
}

func (b Bump) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

func (b *Bump) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode bump kind: %w", err)
	}
	parsed, err := ParseBump(raw)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
