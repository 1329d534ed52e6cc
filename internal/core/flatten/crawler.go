package flatten

import (
	"context"
	"flatcode/internal/shared/observability"
	"flatcode/internal/shared/util"
	"path/filepath"
	"strings"
)

// materialize copies the module ref resolves to from fromDir into its flat
// target and returns the file it now lives at. ok is false when ref cannot be
// located; nothing is written in that case.
func (r *run) materialize(ctx context.Context, ref, fromDir string) (string, bool, error) {
	target := r.f.paths.Target(ref)
	if file, ok := r.visited[target]; ok {
		return file, true, nil
	}

	source, ok := r.f.locator.Locate(ref, fromDir)
	if !ok {
		observability.ResolutionFailuresTotal.Inc()
		r.log.Debug("module not located", "module", ref, "from", fromDir)
		return "", false, nil
	}

	dest := filepath.Join(target, filepath.Base(source))
	if file, ok := r.visited[dest]; ok {
		r.visited[target] = file
		r.checkPlacement(dest, source)
		return file, true, nil
	}
	// Marked before recursing so cycles back to ref stop here.
	r.visited[target] = dest
	r.visited[dest] = dest
	r.placed[dest] = source

	p := placement{Source: source, Dest: dest}
	if r.reuse(p, RoleModule, ref) {
		return dest, true, nil
	}

	r.log.Info("materializing module", "module", ref, "source", source, "dest", dest)
	if err := r.rewriteFile(ctx, p, RoleModule, ref); err != nil {
		return "", false, err
	}
	return dest, true, nil
}

// flattenSibling copies the file a relative reference inside a copied file
// points at into the same relative position beside that file's destination.
// It returns that destination, or "" when nothing was placed.
func (r *run) flattenSibling(ctx context.Context, ref string, from placement) (string, error) {
	srcDir := filepath.Dir(from.Source)
	source, ok := r.f.locator.Locate(ref, srcDir)
	if !ok {
		r.log.Warn("relative reference not found", "file", from.Source, "module", ref)
		return "", nil
	}

	rel, err := filepath.Rel(srcDir, source)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(filepath.Dir(from.Dest), rel)
	if _, ok := r.visited[dest]; ok {
		r.checkPlacement(dest, source)
		return dest, nil
	}
	if !r.f.paths.Contains(dest) {
		r.log.Warn("relative reference escapes flat directory, not copied", "file", from.Source, "module", ref, "dest", dest)
		return "", nil
	}
	r.visited[dest] = dest
	r.placed[dest] = source

	p := placement{Source: source, Dest: dest}
	if !r.reuse(p, RoleSibling, ref) {
		if err := r.rewriteFile(ctx, p, RoleSibling, ref); err != nil {
			return "", err
		}
	}
	return dest, r.flattenManifest(ctx, ref, source, from)
}

// flattenManifest places the package.json of a directory reference beside
// its copied main file so the copy still resolves through it.
func (r *run) flattenManifest(ctx context.Context, ref, located string, from placement) error {
	dir := filepath.Join(filepath.Dir(from.Source), filepath.FromSlash(ref))
	if !strings.HasPrefix(located, dir+string(filepath.Separator)) {
		return nil
	}
	if !util.IsRegularFile(filepath.Join(dir, "package.json")) {
		return nil
	}
	_, err := r.flattenSibling(ctx, strings.TrimSuffix(ref, "/")+"/package.json", from)
	return err
}

// checkPlacement records a clobber when dest was already claimed by a
// different source file.
func (r *run) checkPlacement(dest, source string) {
	prev, ok := r.placed[dest]
	if !ok || prev == source {
		return
	}
	r.report.Clobbered = append(r.report.Clobbered, dest)
	r.log.Warn("destination written from different sources", "dest", dest, "previous", prev, "source", source)
}

func (r *run) reuse(p placement, role Role, module string) bool {
	if !r.f.opts.ReuseExisting || !util.IsRegularFile(p.Dest) {
		return false
	}
	r.placed[p.Dest] = p.Source
	r.report.Reused = append(r.report.Reused, FileRecord{Role: role, Module: module, Source: p.Source, Dest: p.Dest})
	r.log.Debug("destination exists, reused", "role", role, "dest", p.Dest)
	return true
}
