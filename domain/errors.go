package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for the error taxonomy. Callers match with errors.Is and
// recover details through the structured types below with errors.As.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrMalformed          = errors.New("malformed file")
	ErrInvalidVersion     = errors.New("invalid version")
	ErrInvalidRequirement = errors.New("invalid version requirement")
	ErrUnknownPackage     = errors.New("unknown package")
	ErrCircularDependency = errors.New("circular dependency")
	ErrMaxDepthExceeded   = errors.New("max propagation depth exceeded")
	ErrBackupFailed       = errors.New("backup failed")
	ErrNoBackup           = errors.New("no backup")
)

// Registry error kinds. Individual lookup failures carry one of these so the
// upgrade engine can report partial results without aborting detection.
var (
	ErrRegistryNotFound    = errors.New("registry: package not found")
	ErrRegistryNetwork     = errors.New("registry: network error")
	ErrRegistryAuth        = errors.New("registry: authentication failed")
	ErrRegistryRateLimited = errors.New("registry: rate limited")
)

// MalformedError reports an on-disk record that could not be parsed.
// There is no implicit recovery; the path and reason surface to the caller.
type MalformedError struct {
	Path   string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed file %q: %s", e.Path, e.Reason)
}

func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }

// InvalidVersionError reports a version string that does not parse as semver.
type InvalidVersionError struct {
	Value string
	Cause error
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q: %v", e.Value, e.Cause)
}

func (e *InvalidVersionError) Is(target error) bool { return target == ErrInvalidVersion }
func (e *InvalidVersionError) Unwrap() error        { return e.Cause }

// UnknownPackageError reports a changeset or filter naming a package that is
// not part of the workspace dependency graph.
type UnknownPackageError struct {
	Name string
}

func (e *UnknownPackageError) Error() string {
	return fmt.Sprintf("unknown package %q", e.Name)
}

func (e *UnknownPackageError) Is(target error) bool { return target == ErrUnknownPackage }

// CircularDependencyError carries the strongly connected components that
// prevent ordering. Downgraded to a warning when fail_on_circular is false.
type CircularDependencyError struct {
	Cycles [][]string
}

func (e *CircularDependencyError) Error() string {
	rendered := make([]string, 0, len(e.Cycles))
	for _, cycle := range e.Cycles {
		rendered = append(rendered, strings.Join(cycle, " -> "))
	}
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(rendered, "; "))
}

func (e *CircularDependencyError) Is(target error) bool { return target == ErrCircularDependency }
