package flatten

import "strings"

// IsRelative reports whether ref is a relative module reference. Only ./ and
// ../ leads count; bare names, absolute paths and "." are external.
func IsRelative(ref string) bool {
	return strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../")
}
