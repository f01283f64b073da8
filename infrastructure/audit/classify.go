package audit

import (
	"fmt"
	"strings"

	"github.com/monorel/monorel/domain"
)

// Context tells the classifier whether it operates on a single-package
// project or a monorepo with a known member set. Dispatch is on the
// variant, not on virtual calls.
type Context struct {
	Monorepo bool
	// Members is the workspace package name set; empty for single projects.
	Members map[string]struct{}
}

// Classify categorizes one declared dependency. In a monorepo a spec is
// internal iff its name is a workspace member, regardless of protocol; in a
// single-package project only file: specs are internal and workspace: is
// rejected.
func Classify(ctx Context, name, spec string) domain.Classification {
	protocol := domain.SpecProtocol(spec)

	if !ctx.Monorepo {
		return classifySingle(name, spec, protocol)
	}

	if _, internal := ctx.Members[name]; !internal {
		return domain.Classification{
			Class:      domain.ClassExternalPackage,
			Reference:  domain.RefRegistryVersion,
			Version:    spec,
			Confidence: 1.0,
		}
	}

	switch protocol {
	case domain.ProtocolWorkspace:
		return domain.Classification{
			Class:      domain.ClassWorkspaceLink,
			Reference:  domain.RefWorkspaceProtocol,
			Protocol:   protocol,
			Confidence: 1.0,
		}
	case domain.ProtocolFile, domain.ProtocolLink, domain.ProtocolPortal:
		return domain.Classification{
			Class:      domain.ClassLocalLink,
			Reference:  domain.RefLocalFile,
			Protocol:   protocol,
			LocalPath:  strings.TrimPrefix(spec, protocol),
			Confidence: 1.0,
		}
	default:
		c := domain.Classification{
			Class:      domain.ClassInternalPackage,
			Reference:  domain.RefRegistryVersion,
			Version:    spec,
			Confidence: 0.9,
		}
		c.Warnings = append(c.Warnings, fmt.Sprintf(
			"internal package %q is referenced by version %q; prefer workspace:* for consistency",
			name, spec,
		))
		return c
	}
}

func classifySingle(name, spec, protocol string) domain.Classification {
	switch protocol {
	case domain.ProtocolWorkspace:
		return domain.Classification{
			Class:      domain.ClassExternalPackage,
			Reference:  domain.RefOther,
			Protocol:   protocol,
			Confidence: 1.0,
			Errors: []string{fmt.Sprintf(
				"dependency %q uses workspace protocol outside a workspace", name,
			)},
		}
	case domain.ProtocolFile:
		return domain.Classification{
			Class:      domain.ClassLocalLink,
			Reference:  domain.RefLocalFile,
			Protocol:   protocol,
			LocalPath:  strings.TrimPrefix(spec, protocol),
			Confidence: 1.0,
		}
	case domain.ProtocolLink, domain.ProtocolPortal:
		return domain.Classification{
			Class:      domain.ClassLocalLink,
			Reference:  domain.RefLocalFile,
			Protocol:   protocol,
			LocalPath:  strings.TrimPrefix(spec, protocol),
			Confidence: 0.8,
		}
	default:
		return domain.Classification{
			Class:      domain.ClassExternalPackage,
			Reference:  domain.RefRegistryVersion,
			Version:    spec,
			Confidence: 1.0,
		}
	}
}
