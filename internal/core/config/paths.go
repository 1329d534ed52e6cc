package config

import (
	"os"
	"path/filepath"
	"strings"
)

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// Discover returns the config file to load: explicit when set, otherwise
// DefaultFile in cwd when it exists. An empty result means no file.
func Discover(explicit, cwd string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return ResolveRelative(cwd, p)
	}
	candidate := filepath.Join(cwd, DefaultFile)
	if isFile(candidate) {
		return candidate
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
