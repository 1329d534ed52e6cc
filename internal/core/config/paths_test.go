package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveRelative(t *testing.T) {
	base := filepath.FromSlash("/work/project")
	tests := []struct {
		value string
		want  string
	}{
		{value: "", want: base},
		{value: "out/a.js", want: filepath.FromSlash("/work/project/out/a.js")},
		{value: "../sibling", want: filepath.FromSlash("/work/sibling")},
		{value: filepath.FromSlash("/abs/x"), want: filepath.FromSlash("/abs/x")},
	}
	for _, tc := range tests {
		if got := ResolveRelative(base, tc.value); got != tc.want {
			t.Fatalf("ResolveRelative(%q): expected %q, got %q", tc.value, tc.want, got)
		}
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	if got := Discover("", dir); got != "" {
		t.Fatalf("expected no config without file, got %q", got)
	}
	if got := Discover("custom.toml", dir); got != filepath.Join(dir, "custom.toml") {
		t.Fatalf("expected explicit path, got %q", got)
	}
	if err := os.WriteFile(filepath.Join(dir, DefaultFile), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Discover("", dir); got != filepath.Join(dir, DefaultFile) {
		t.Fatalf("expected default file, got %q", got)
	}
}
