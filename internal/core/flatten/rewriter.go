package flatten

import (
	"context"
	"flatcode/internal/core/errors"
	"flatcode/internal/engine/parser"
	"flatcode/internal/shared/observability"
	"flatcode/internal/shared/util"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// rewriteFile reads p.Source, rewrites its require() references and writes
// the result to p.Dest, replacing whatever is there.
func (r *run) rewriteFile(ctx context.Context, p placement, role Role, module string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := observability.Tracer.Start(ctx, "flatten.rewrite_file")
	defer span.End()
	span.SetAttributes(
		attribute.String("flatcode.role", string(role)),
		attribute.String("flatcode.source", p.Source),
		attribute.String("flatcode.dest", p.Dest),
	)

	data, err := os.ReadFile(p.Source)
	if err != nil {
		span.RecordError(err)
		return errors.WrapPath(err, "read", p.Source)
	}

	calls, err := r.scan(p.Source, data)
	if err != nil {
		span.RecordError(err)
		return errors.AddContext(err, errors.CtxPath, p.Source)
	}

	var out strings.Builder
	out.Grow(len(data))
	last := 0
	for _, call := range calls {
		if call.Start < last || call.End > len(data) {
			continue
		}
		replacement, err := r.rewriteCall(ctx, call, p, role)
		if err != nil {
			return err
		}
		out.Write(data[last:call.Start])
		out.WriteString(replacement)
		last = call.End
	}
	out.Write(data[last:])

	content := out.String()
	if r.f.opts.PostProcess != nil {
		content, err = r.f.opts.PostProcess(content, p.Source)
		if err != nil {
			span.RecordError(err)
			return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "post-process failed"), errors.CtxPath, p.Source)
		}
	}

	return r.write(p, role, module, content)
}

func (r *run) scan(path string, data []byte) ([]parser.RequireCall, error) {
	start := time.Now()
	defer func() {
		observability.ScanDuration.WithLabelValues(r.f.scanner.Name()).Observe(time.Since(start).Seconds())
	}()
	return r.f.scanner.Scan(path, data)
}

// rewriteCall returns the text that replaces call.Module in the output.
func (r *run) rewriteCall(ctx context.Context, call parser.RequireCall, p placement, role Role) (string, error) {
	ref := call.Module
	decision, err := r.f.paths.Decide(ref, p.Dest)
	if err != nil {
		return "", errors.AddContext(errors.Wrap(err, errors.CodeInternal, "compute rewrite"), errors.CtxModule, ref)
	}

	if decision.Action == ActionKeep {
		if decision.Escapes {
			r.edge(p, call, "", EdgeEscapes)
			observability.ReferencesTotal.WithLabelValues("escapes").Inc()
			r.log.Warn("reference escapes flat directory, left unchanged", "file", p.Source, "line", call.Line, "module", ref)
			return ref, nil
		}
		observability.ReferencesTotal.WithLabelValues("relative").Inc()
		r.log.Debug("relative reference kept", "file", p.Source, "line", call.Line, "module", ref)
		if role == RoleEntry {
			r.edge(p, call, "", EdgeRelative)
			return ref, nil
		}
		dest, err := r.flattenSibling(ctx, ref, p)
		if err != nil {
			return "", err
		}
		kind := EdgeSibling
		if dest == "" {
			kind = EdgeRelative
		}
		r.edge(p, call, dest, kind)
		return ref, nil
	}

	file, ok, err := r.materialize(ctx, ref, filepath.Dir(p.Source))
	if err != nil {
		return "", err
	}
	if ok {
		decision, err = r.f.paths.ForFile(decision, file)
		if err != nil {
			return "", errors.AddContext(errors.Wrap(err, errors.CodeInternal, "compute rewrite"), errors.CtxModule, ref)
		}
		r.edge(p, call, file, EdgeModule)
		observability.ReferencesTotal.WithLabelValues("rewritten").Inc()
		r.log.Debug("reference rewritten", "file", p.Source, "line", call.Line, "module", ref, "to", decision.Rewritten)
		return decision.Rewritten, nil
	}

	if rule, skip := r.f.skip.Match(ref); skip {
		r.edge(p, call, "", EdgeSkipped)
		observability.ReferencesTotal.WithLabelValues("skipped").Inc()
		r.report.Skipped = append(r.report.Skipped, ReferenceRecord{File: p.Source, Line: call.Line, Module: ref, Rule: rule.String()})
		r.log.Info("unresolved reference skipped", "file", p.Source, "line", call.Line, "module", ref, "rule", rule.String())
		return ref, nil
	}

	// Nothing is copied to the target, so the rewritten path dangles unless
	// another step supplies the module there.
	r.edge(p, call, decision.Target, EdgeDangling)
	observability.ReferencesTotal.WithLabelValues("dangling").Inc()
	r.report.Dangling = append(r.report.Dangling, ReferenceRecord{File: p.Source, Line: call.Line, Module: ref, Rule: decision.Rewritten})
	r.log.Warn("unresolved reference rewritten to flat path", "file", p.Source, "line", call.Line, "module", ref, "to", decision.Rewritten)
	return decision.Rewritten, nil
}

func (r *run) edge(p placement, call parser.RequireCall, to string, kind EdgeKind) {
	r.report.Edges = append(r.report.Edges, Edge{From: p.Dest, To: to, Module: call.Module, Line: call.Line, Kind: kind})
}

func (r *run) write(p placement, role Role, module, content string) error {
	r.checkPlacement(p.Dest, p.Source)
	r.placed[p.Dest] = p.Source

	if err := util.WriteStringWithDirs(p.Dest, content, 0o644); err != nil {
		return errors.WrapPath(err, "write", p.Dest)
	}
	observability.FilesWrittenTotal.WithLabelValues(string(role)).Inc()
	r.report.Files = append(r.report.Files, FileRecord{Role: role, Module: module, Source: p.Source, Dest: p.Dest})
	r.log.Debug("file written", "role", role, "source", p.Source, "dest", p.Dest)
	return nil
}
