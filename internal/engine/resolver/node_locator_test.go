package resolver

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func tempRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func newLocator(t *testing.T, opts LocatorOptions) *NodeLocator {
	t.Helper()
	l, err := NewNodeLocator(opts)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestNodeLocator_Locate(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	writeTree(t, root, map[string]string{
		"node_modules/leftpad/index.js":                 "module.exports = 1;",
		"node_modules/withmain/package.json":            `{"main": "./dist/main"}`,
		"node_modules/withmain/dist/main.js":            "",
		"node_modules/maindir/package.json":             `{"main": "lib"}`,
		"node_modules/maindir/lib/index.js":             "",
		"node_modules/badjson/package.json":             `{"main": `,
		"node_modules/badjson/index.json":               "{}",
		"node_modules/lodash/fp.js":                     "",
		"node_modules/@scope/pkg/index.js":              "",
		"src/util.js":                                   "",
		"src/data.json":                                 "{}",
		"src/nested/deep/file.js":                       "",
		"src/node_modules/shadow/index.js":              "",
		"node_modules/shadow/index.js":                  "",
		"node_modules/host/node_modules/inner/x.js":     "",
		"node_modules/host/index.js":                    "",
		"node_modules/host/node_modules/inner/index.js": "",
	})
	l := newLocator(t, LocatorOptions{})
	src := filepath.Join(root, "src")

	cases := []struct {
		name    string
		ref     string
		from    string
		want    string
		wantHit bool
	}{
		{name: "IndexFile", ref: "leftpad", from: src, want: "node_modules/leftpad/index.js", wantHit: true},
		{name: "MainField", ref: "withmain", from: src, want: "node_modules/withmain/dist/main.js", wantHit: true},
		{name: "MainDirectory", ref: "maindir", from: src, want: "node_modules/maindir/lib/index.js", wantHit: true},
		{name: "MalformedManifest", ref: "badjson", from: src, want: "node_modules/badjson/index.json", wantHit: true},
		{name: "SubPath", ref: "lodash/fp", from: src, want: "node_modules/lodash/fp.js", wantHit: true},
		{name: "Scoped", ref: "@scope/pkg", from: src, want: "node_modules/@scope/pkg/index.js", wantHit: true},
		{name: "RelativeExtensionless", ref: "./util", from: src, want: "src/util.js", wantHit: true},
		{name: "RelativeJSON", ref: "./data", from: src, want: "src/data.json", wantHit: true},
		{name: "RelativeNested", ref: "./nested/deep/file", from: src, want: "src/nested/deep/file.js", wantHit: true},
		{name: "Parent", ref: "../util.js", from: filepath.Join(src, "nested"), want: "src/util.js", wantHit: true},
		{name: "NearestNodeModulesWins", ref: "shadow", from: src, want: "src/node_modules/shadow/index.js", wantHit: true},
		{name: "AncestorLookup", ref: "leftpad", from: filepath.Join(src, "nested", "deep"), want: "node_modules/leftpad/index.js", wantHit: true},
		{name: "InsideNodeModules", ref: "inner", from: filepath.Join(root, "node_modules", "host"), want: "node_modules/host/node_modules/inner/index.js", wantHit: true},
		{name: "Builtin", ref: "fs", from: src, wantHit: false},
		{name: "BuiltinPrefixed", ref: "node:path", from: src, wantHit: false},
		{name: "Missing", ref: "host-global", from: src, wantHit: false},
		{name: "MissingRelative", ref: "./nope", from: src, wantHit: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := l.Locate(tc.ref, tc.from)
			if ok != tc.wantHit {
				t.Fatalf("expected hit=%v, got hit=%v (%q)", tc.wantHit, ok, got)
			}
			if !tc.wantHit {
				return
			}
			want := filepath.Join(root, filepath.FromSlash(tc.want))
			if got != want {
				t.Fatalf("expected %q, got %q", want, got)
			}
		})
	}
}

func TestNodeLocator_ModulePaths(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	writeTree(t, root, map[string]string{
		"vendor/shim/index.js": "",
		"app/main.js":          "",
	})
	l := newLocator(t, LocatorOptions{ModulePaths: []string{filepath.Join(root, "vendor")}})

	got, ok := l.Locate("shim", filepath.Join(root, "app"))
	if !ok {
		t.Fatal("expected shim to resolve through module paths")
	}
	if got != filepath.Join(root, "vendor", "shim", "index.js") {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestNodeLocator_CustomExtensions(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	writeTree(t, root, map[string]string{
		"src/view.jsx": "",
		"src/view.js":  "",
	})
	l := newLocator(t, LocatorOptions{Extensions: []string{"jsx", ".js", ".jsx"}})

	got, ok := l.Locate("./view", filepath.Join(root, "src"))
	if !ok || got != filepath.Join(root, "src", "view.jsx") {
		t.Fatalf("expected view.jsx to win by extension order, got %q (ok=%v)", got, ok)
	}
}

func TestNodeLocator_ManifestCached(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	writeTree(t, root, map[string]string{
		"node_modules/pkg/package.json": `{"main": "a.js"}`,
		"node_modules/pkg/a.js":         "",
		"node_modules/pkg/b.js":         "",
	})
	l := newLocator(t, LocatorOptions{CacheSize: 4})

	first, ok := l.Locate("pkg", root)
	if !ok || filepath.Base(first) != "a.js" {
		t.Fatalf("expected a.js, got %q", first)
	}

	manifest := filepath.Join(root, "node_modules", "pkg", "package.json")
	if err := os.WriteFile(manifest, []byte(`{"main": "b.js"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	second, ok := l.Locate("pkg", root)
	if !ok || second != first {
		t.Fatalf("expected cached manifest to keep resolving %q, got %q", first, second)
	}
}

func TestIsBuiltin(t *testing.T) {
	t.Parallel()

	for _, ref := range []string{"fs", "path", "fs/promises", "node:test", "child_process"} {
		if !IsBuiltin(ref) {
			t.Fatalf("expected %q to be builtin", ref)
		}
	}
	for _, ref := range []string{"leftpad", "./fs", "fsevents", ""} {
		if IsBuiltin(ref) {
			t.Fatalf("expected %q not to be builtin", ref)
		}
	}
}
