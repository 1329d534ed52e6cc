package flatten

import (
	"context"
	"flatcode/internal/core/errors"
	"flatcode/internal/core/ports"
	"flatcode/internal/shared/observability"
	"flatcode/internal/shared/util"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Target is one destination group: every source is rewritten into Dest.
// A Dest ending in a separator, or naming an existing directory, receives
// each source under its own base name.
type Target struct {
	Dest    string
	Sources []string
}

type Flattener struct {
	opts     Options
	locator  ports.ModuleLocator
	scanner  ports.ImportScanner
	paths    PathResolver
	skip     SkipMatcher
	logger   *slog.Logger
	baseDir  string
	newRunID func() string
}

func New(opts Options, locator ports.ModuleLocator, scanner ports.ImportScanner, options ...Option) (*Flattener, error) {
	if locator == nil {
		return nil, errors.New(errors.CodeValidationError, "module locator is required")
	}
	if scanner == nil {
		return nil, errors.New(errors.CodeValidationError, "import scanner is required")
	}

	f := &Flattener{
		locator:  locator,
		scanner:  scanner,
		logger:   slog.Default(),
		newRunID: uuid.NewString,
	}
	for _, opt := range options {
		opt(f)
	}

	if f.baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeIO, "detect working directory")
		}
		f.baseDir = wd
	}
	base, err := filepath.Abs(f.baseDir)
	if err != nil {
		return nil, errors.WrapPath(err, "resolve base directory", f.baseDir)
	}
	f.baseDir = base

	if strings.TrimSpace(opts.RootPath) == "" {
		opts.RootPath = DefaultRootPath
	}
	if strings.TrimSpace(opts.Prefix) == "" {
		opts.Prefix = DefaultPrefix
	}
	opts.RootPath = f.abs(opts.RootPath)
	opts.Skip = append([]SkipRule(nil), opts.Skip...)

	f.opts = opts
	f.paths = NewPathResolver(opts.RootPath, opts.Prefix)
	f.skip = NewSkipMatcher(opts.Skip)
	return f, nil
}

// FlatDir is the directory external modules are copied under.
func (f *Flattener) FlatDir() string {
	return f.paths.Base()
}

// Flatten rewrites every target in order. The visited set spans the whole
// call, so a module shared by several targets is materialized once. The
// report is returned even when the run fails part way.
func (f *Flattener) Flatten(ctx context.Context, targets []Target) (*Report, error) {
	started := time.Now()
	report := newReport(f.newRunID(), f.scanner.Name(), started)
	r := newRun(f, report)

	ctx, span := observability.Tracer.Start(ctx, "flatten.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("flatcode.run_id", report.RunID),
		attribute.Int("flatcode.targets", len(targets)),
	)

	var runErr error
	for _, t := range targets {
		if runErr = r.flattenTarget(ctx, t); runErr != nil {
			span.RecordError(runErr)
			break
		}
	}

	report.FinishedAt = time.Now()
	observability.RunDuration.Observe(report.FinishedAt.Sub(started).Seconds())
	observability.VisitedModules.Set(float64(len(r.visited)))

	if runErr != nil {
		r.log.Error("flatten failed", "error", runErr)
		return report, runErr
	}
	r.log.Info("flatten complete",
		"entries", report.Count(RoleEntry),
		"modules", report.Count(RoleModule),
		"siblings", report.Count(RoleSibling),
		"reused", len(report.Reused),
		"dangling", len(report.Dangling),
		"missing", len(report.Missing),
	)
	return report, nil
}

func (r *run) flattenTarget(ctx context.Context, t Target) error {
	if strings.TrimSpace(t.Dest) == "" {
		return errors.New(errors.CodeValidationError, "target destination must not be empty")
	}
	dest := r.f.abs(t.Dest)
	intoDir := strings.HasSuffix(t.Dest, "/") || strings.HasSuffix(t.Dest, string(filepath.Separator)) || util.IsDir(dest)

	sources := make([]string, 0, len(t.Sources))
	for _, src := range t.Sources {
		path := r.f.abs(src)
		if !util.IsRegularFile(path) {
			observability.MissingSourcesTotal.Inc()
			r.report.Missing = append(r.report.Missing, path)
			r.log.Warn("source file not found, skipped", "source", path, "dest", dest)
			continue
		}
		sources = append(sources, path)
	}
	if !intoDir && len(sources) > 1 {
		r.log.Warn("several sources share one destination file, last one wins", "dest", dest, "sources", len(sources))
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := placement{Source: src, Dest: dest}
		if intoDir {
			p.Dest = filepath.Join(dest, filepath.Base(src))
		}
		r.log.Info("flattening entry", "source", p.Source, "dest", p.Dest)
		if err := r.rewriteFile(ctx, p, RoleEntry, ""); err != nil {
			return err
		}
	}
	return nil
}

func (f *Flattener) abs(path string) string {
	path = filepath.FromSlash(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(f.baseDir, path)
}
