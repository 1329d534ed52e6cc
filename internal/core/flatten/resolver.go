package flatten

import (
	"flatcode/internal/shared/util"
	"path/filepath"
	"strings"
)

type Action int

const (
	ActionKeep Action = iota
	ActionRewrite
)

func (a Action) String() string {
	if a == ActionRewrite {
		return "rewrite"
	}
	return "keep"
}

// Decision is the outcome of resolving one reference for one destination file.
type Decision struct {
	Action    Action
	Ref       string
	Target    string
	Rewritten string
	// Escapes is set for external references whose target would land outside
	// the flat directory. Those are kept as written.
	Escapes bool

	fromDir string
}

// PathResolver maps module references to flat destinations. It does no I/O.
type PathResolver struct {
	base string
}

// NewPathResolver expects an absolute rootPath.
func NewPathResolver(rootPath, prefix string) PathResolver {
	return PathResolver{base: filepath.Join(rootPath, filepath.FromSlash(prefix))}
}

// Base is the flat directory every external module is placed under.
func (r PathResolver) Base() string {
	return r.base
}

// Target is the directory ref is materialized into.
func (r PathResolver) Target(ref string) string {
	return filepath.Join(r.base, filepath.FromSlash(ref))
}

// Contains reports whether path is the flat directory or lies inside it.
func (r PathResolver) Contains(path string) bool {
	rel, err := filepath.Rel(r.base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Decide keeps relative and escaping references and maps every other ref to
// its flat target, rewritten relative to the directory of destFile.
func (r PathResolver) Decide(ref, destFile string) (Decision, error) {
	d := Decision{Action: ActionKeep, Ref: ref, Rewritten: ref, fromDir: filepath.Dir(destFile)}
	if IsRelative(ref) {
		return d, nil
	}

	target := r.Target(ref)
	if target == r.base || !r.Contains(target) {
		d.Escapes = true
		return d, nil
	}

	rewritten, err := util.RelativeImportPath(d.fromDir, target)
	if err != nil {
		return d, err
	}
	d.Action = ActionRewrite
	d.Target = target
	d.Rewritten = rewritten
	return d, nil
}

// ForFile points a rewrite decision at the concrete file materialized for it.
func (r PathResolver) ForFile(d Decision, file string) (Decision, error) {
	if d.Action != ActionRewrite {
		return d, nil
	}
	rewritten, err := util.RelativeImportPath(d.fromDir, file)
	if err != nil {
		return d, err
	}
	d.Rewritten = rewritten
	return d, nil
}
