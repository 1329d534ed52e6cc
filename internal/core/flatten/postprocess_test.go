package flatten

import (
	"fmt"
	"path/filepath"
	"regexp"
	"testing"
)

func TestChain(t *testing.T) {
	if Chain(nil, nil) != nil {
		t.Fatal("expected nil chain when every step is nil")
	}

	upper := func(content, _ string) (string, error) { return content + "-a", nil }
	suffix := func(content, source string) (string, error) { return content + "-" + source, nil }
	fn := Chain(upper, nil, suffix)
	got, err := fn("x", "src")
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if got != "x-a-src" {
		t.Fatalf("expected %q, got %q", "x-a-src", got)
	}

	failing := Chain(upper, func(string, string) (string, error) { return "", fmt.Errorf("boom") })
	if _, err := failing("x", "src"); err == nil {
		t.Fatal("expected chain to stop on error")
	}
}

func TestBanner(t *testing.T) {
	base := filepath.FromSlash("/work")
	fn := Banner("// from {source}", base)
	got, err := fn("code();\n", filepath.FromSlash("/work/src/a.js"))
	if err != nil {
		t.Fatalf("banner: %v", err)
	}
	if got != "// from src/a.js\ncode();\n" {
		t.Fatalf("unexpected banner output %q", got)
	}
	if Banner("", base) != nil {
		t.Fatal("expected nil func for empty banner")
	}
}

func TestReplaceAll(t *testing.T) {
	fn := ReplaceAll([]Replacement{
		{Pattern: regexp.MustCompile(`process\.env\.NODE_ENV`), Replacement: `"production"`},
		{Pattern: regexp.MustCompile(`v(\d+)`), Replacement: "version$1"},
	})
	got, err := fn("if (process.env.NODE_ENV) v2", "x.js")
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got != `if ("production") version2` {
		t.Fatalf("unexpected replace output %q", got)
	}
	if ReplaceAll(nil) != nil {
		t.Fatal("expected nil func for no replacements")
	}
}
