package parser

import (
	"flatcode/internal/core/errors"
	"testing"
)

const sampleSource = `'use strict';
var leftpad = require('leftpad');
var util = require("./util");
// require('commented-out')
var label = "require('in-a-string')";
var tpl = require(` + "`templated`" + `);
`

func modules(calls []RequireCall) []string {
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Module)
	}
	return out
}

func assertCallSpans(t *testing.T, source []byte, calls []RequireCall) {
	t.Helper()
	for _, c := range calls {
		if got := string(source[c.Start:c.End]); got != c.Module {
			t.Fatalf("span [%d:%d] is %q, expected %q", c.Start, c.End, got, c.Module)
		}
	}
}

func TestRegexScanner(t *testing.T) {
	t.Parallel()

	source := []byte(sampleSource)
	calls, err := NewRegexScanner().Scan("entry.js", source)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	expected := []string{"leftpad", "./util", "commented-out", "in-a-string"}
	got := modules(calls)
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
	assertCallSpans(t, source, calls)

	lines := []int{2, 3, 4, 5}
	for i, c := range calls {
		if c.Line != lines[i] {
			t.Fatalf("call %q: expected line %d, got %d", c.Module, lines[i], c.Line)
		}
	}
}

func TestRegexScanner_MismatchedQuotes(t *testing.T) {
	t.Parallel()

	calls, err := NewRegexScanner().Scan("entry.js", []byte(`require('odd")`))
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 || calls[0].Module != "odd" {
		t.Fatalf("expected the token-level match to accept mismatched quotes, got %+v", calls)
	}
}

func TestRegexScanner_NoMatches(t *testing.T) {
	t.Parallel()

	calls, err := NewRegexScanner().Scan("entry.js", []byte("module.exports = 1;\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no calls, got %+v", calls)
	}
}

func TestTreeSitterScanner_SkipsCommentsAndStrings(t *testing.T) {
	t.Parallel()

	source := []byte(sampleSource)
	calls, err := NewTreeSitterScanner().Scan("entry.js", source)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	got := modules(calls)
	if len(got) != 2 || got[0] != "leftpad" || got[1] != "./util" {
		t.Fatalf("expected [leftpad ./util], got %v", got)
	}
	assertCallSpans(t, source, calls)
	if calls[0].Line != 2 || calls[1].Line != 3 {
		t.Fatalf("unexpected lines: %+v", calls)
	}
}

func TestTreeSitterScanner_IgnoresOtherCalls(t *testing.T) {
	t.Parallel()

	source := []byte("load('a');\nobj.require('b');\nrequire('c', 'd');\nrequire(name);\nrequire('e');\n")
	calls, err := NewTreeSitterScanner().Scan("entry.js", source)
	if err != nil {
		t.Fatal(err)
	}
	got := modules(calls)
	if len(got) != 1 || got[0] != "e" {
		t.Fatalf("expected only [e], got %v", got)
	}
}

func TestTreeSitterScanner_TypeScript(t *testing.T) {
	t.Parallel()

	source := []byte("const pad: any = require('leftpad');\nexport default pad;\n")
	calls, err := NewTreeSitterScanner().Scan("entry.ts", source)
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 || calls[0].Module != "leftpad" {
		t.Fatalf("expected [leftpad], got %+v", calls)
	}
	assertCallSpans(t, source, calls)
}

func TestNewScanner(t *testing.T) {
	t.Parallel()

	cases := []struct {
		kind     string
		expected string
	}{
		{kind: "", expected: ScannerRegex},
		{kind: "regex", expected: ScannerRegex},
		{kind: " AST ", expected: ScannerAST},
	}
	for _, tc := range cases {
		s, err := NewScanner(tc.kind)
		if err != nil {
			t.Fatalf("kind %q: %v", tc.kind, err)
		}
		if s.Name() != tc.expected {
			t.Fatalf("kind %q: expected %s, got %s", tc.kind, tc.expected, s.Name())
		}
	}

	if _, err := NewScanner("babel"); !errors.IsCode(err, errors.CodeNotSupported) {
		t.Fatalf("expected NOT_SUPPORTED for unknown scanner, got %v", err)
	}
}

func TestLanguageForPath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"a.js":   LangJavaScript,
		"a.cjs":  LangJavaScript,
		"a.json": LangJavaScript,
		"a.ts":   LangTypeScript,
		"a.MTS":  LangTypeScript,
		"a.tsx":  LangTSX,
	}
	for path, expected := range cases {
		if got := LanguageForPath(path); got != expected {
			t.Fatalf("%s: expected %s, got %s", path, expected, got)
		}
	}
}
