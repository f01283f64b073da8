package changeset

import (
	"fmt"
	"strings"
)

// EncodeBranch maps a branch name to a filesystem-safe file stem. Slashes
// become "__"; every other byte outside [A-Za-z0-9.-], underscores
// included, is hex-escaped as %XX. Because a literal underscore always
// escapes, "__" can only mean a slash and the encoding stays reversible.
func EncodeBranch(branch string) string {
	var b strings.Builder
	for i := 0; i < len(branch); i++ {
		c := branch[i]
		switch {
		case c == '/':
			b.WriteString("__")
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// DecodeBranch reverses EncodeBranch. The branch name stored inside the
// changeset file is authoritative; this exists for tooling that only has a
// filename.
func DecodeBranch(encoded string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(encoded); i++ {
		switch {
		case encoded[i] == '_' && i+1 < len(encoded) && encoded[i+1] == '_':
			b.WriteByte('/')
			i++
		case encoded[i] == '%':
			if i+2 >= len(encoded) {
				return "", fmt.Errorf("truncated escape in %q", encoded)
			}
			var c byte
			if _, err := fmt.Sscanf(encoded[i+1:i+3], "%02X", &c); err != nil {
				return "", fmt.Errorf("invalid escape in %q: %w", encoded, err)
			}
			b.WriteByte(c)
			i += 2
		default:
			b.WriteByte(encoded[i])
		}
	}
	return b.String(), nil
}
