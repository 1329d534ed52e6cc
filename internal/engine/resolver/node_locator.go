package resolver

import (
	"encoding/json"
	"flatcode/internal/shared/observability"
	"flatcode/internal/shared/util"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultManifestCacheSize = 1024

// DefaultExtensions mirrors the suffixes require() tries, in order.
var DefaultExtensions = []string{".js", ".json", ".node"}

type LocatorOptions struct {
	Extensions  []string
	ModulePaths []string // searched after every ancestor node_modules, like NODE_PATH
	CacheSize   int
}

// NodeLocator finds the file require() would load for a module reference,
// following the Node.js resolution algorithm on the local file system.
type NodeLocator struct {
	extensions  []string
	modulePaths []string
	manifests   *lru.Cache[string, packageManifest]
}

type packageManifest struct {
	Main string `json:"main"`
}

func NewNodeLocator(opts LocatorOptions) (*NodeLocator, error) {
	extensions := normalizeExtensions(opts.Extensions)
	if len(extensions) == 0 {
		extensions = append([]string(nil), DefaultExtensions...)
	}

	modulePaths := make([]string, 0, len(opts.ModulePaths))
	for _, p := range opts.ModulePaths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		modulePaths = append(modulePaths, abs)
	}

	size := opts.CacheSize
	if size <= 0 {
		size = defaultManifestCacheSize
	}
	cache, err := lru.New[string, packageManifest](size)
	if err != nil {
		return nil, err
	}

	return &NodeLocator{
		extensions:  extensions,
		modulePaths: modulePaths,
		manifests:   cache,
	}, nil
}

// Locate resolves ref as if require(ref) ran in a file inside fromDir.
// Core modules and references with no file on disk report false.
func (l *NodeLocator) Locate(ref, fromDir string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || IsBuiltin(ref) {
		return "", false
	}
	fromDir, err := filepath.Abs(fromDir)
	if err != nil {
		return "", false
	}

	native := filepath.FromSlash(ref)
	if isPathReference(ref) {
		if !filepath.IsAbs(native) {
			native = filepath.Join(fromDir, native)
		}
		return l.loadPath(native)
	}

	for _, dir := range l.searchDirs(fromDir) {
		if found, ok := l.loadPath(filepath.Join(dir, native)); ok {
			return found, true
		}
	}
	return "", false
}

func isPathReference(ref string) bool {
	return ref == "." || ref == ".." ||
		strings.HasPrefix(ref, "./") ||
		strings.HasPrefix(ref, "../") ||
		strings.HasPrefix(ref, "/")
}

// searchDirs lists node_modules directories from fromDir up to the file
// system root, then the configured module paths.
func (l *NodeLocator) searchDirs(fromDir string) []string {
	dirs := make([]string, 0, 8+len(l.modulePaths))
	dir := filepath.Clean(fromDir)
	for {
		if filepath.Base(dir) != "node_modules" {
			dirs = append(dirs, filepath.Join(dir, "node_modules"))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return append(dirs, l.modulePaths...)
}

func (l *NodeLocator) loadPath(base string) (string, bool) {
	if found, ok := l.loadAsFile(base); ok {
		return found, true
	}
	return l.loadAsDirectory(base)
}

func (l *NodeLocator) loadAsFile(base string) (string, bool) {
	if util.IsRegularFile(base) {
		return realPath(base), true
	}
	for _, ext := range l.extensions {
		if util.IsRegularFile(base + ext) {
			return realPath(base + ext), true
		}
	}
	return "", false
}

func (l *NodeLocator) loadAsDirectory(dir string) (string, bool) {
	if !util.IsDir(dir) {
		return "", false
	}
	if main := l.manifest(dir).Main; strings.TrimSpace(main) != "" {
		entry := filepath.Join(dir, filepath.FromSlash(strings.TrimSpace(main)))
		if found, ok := l.loadAsFile(entry); ok {
			return found, true
		}
		if found, ok := l.loadIndex(entry); ok {
			return found, true
		}
	}
	return l.loadIndex(dir)
}

func (l *NodeLocator) loadIndex(dir string) (string, bool) {
	for _, ext := range l.extensions {
		candidate := filepath.Join(dir, "index"+ext)
		if util.IsRegularFile(candidate) {
			return realPath(candidate), true
		}
	}
	return "", false
}

// manifest reads dir/package.json through the LRU. Unreadable or malformed
// manifests count as having no main entry.
func (l *NodeLocator) manifest(dir string) packageManifest {
	if cached, ok := l.manifests.Get(dir); ok {
		observability.PackageCacheHitsTotal.Inc()
		return cached
	}

	var m packageManifest
	if data, err := os.ReadFile(filepath.Join(dir, "package.json")); err == nil {
		if err := json.Unmarshal(data, &m); err != nil {
			m = packageManifest{}
		}
	}
	l.manifests.Add(dir, m)
	return m
}

func realPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}
