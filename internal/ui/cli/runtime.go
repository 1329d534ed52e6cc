package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"

	"flatcode/internal/core/config"
	"flatcode/internal/core/flatten"
	"flatcode/internal/core/ports"
	"flatcode/internal/data/ledger"
	"flatcode/internal/engine/parser"
	"flatcode/internal/engine/resolver"
	"flatcode/internal/output"
	"flatcode/internal/shared/observability"
	"flatcode/internal/shared/util"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// usageError marks failures caused by how the command was invoked.
type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		return exitUsage
	}

	if opts.version {
		fmt.Fprintf(stdout, "flatcode v%s\n", versionString)
		return exitOK
	}

	configureLogging(stderr, opts.verbose)

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return exitFailure
	}

	cfg, cfgPath, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		return exitFailure
	}

	if err := applyOptions(&opts, cfg, cwd); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitUsage
	}

	if opts.history > 0 {
		if err := printHistory(stdout, cfg, opts.history); err != nil {
			slog.Error("history listing failed", "error", err)
			return exitFailure
		}
		return exitOK
	}

	targets := cfg.ResolvedTargets()
	if len(targets) == 0 {
		fmt.Fprintln(stderr, "no targets: pass -dest with source files or configure [[targets]]")
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupTracing(ctx, observability.TracingOptions{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Insecure:    cfg.TelemetryInsecure(),
	})
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		return exitFailure
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	flattener, err := buildFlattener(cfg, opts.runID)
	if err != nil {
		slog.Error("failed to initialize flattener", "error", err)
		return exitFailure
	}

	report, runErr := flattener.Flatten(ctx, toFlattenTargets(targets))
	if runErr != nil {
		slog.Error("flatten failed", "error", runErr)
	}

	code := exitOK
	if runErr != nil {
		code = exitFailure
	}
	if report != nil {
		if err := writeOutputs(cfg, report); err != nil {
			slog.Error("failed to write outputs", "error", err)
			code = exitFailure
		}
		if !opts.quiet {
			fmt.Fprint(stdout, renderSummary(report, flattener.FlatDir()))
		}
	}
	return code
}

func loadConfig(path, cwd string) (*config.Config, string, error) {
	resolved := config.Discover(path, cwd)
	if resolved == "" {
		return config.DefaultConfig(cwd), "", nil
	}
	cfg, err := config.Load(resolved)
	if err != nil {
		return nil, resolved, err
	}
	return cfg, resolved, nil
}

// applyOptions layers command line flags over the loaded config. Flag paths
// resolve against cwd, not the config directory.
func applyOptions(opts *cliOptions, cfg *config.Config, cwd string) error {
	if opts.history < 0 {
		return usageError{msg: "-history must be a positive number of runs"}
	}
	if opts.rootPath != "" {
		cfg.RootPath = config.ResolveRelative(cwd, opts.rootPath)
	}
	if opts.prefix != "" {
		cfg.Prefix = opts.prefix
	}
	if len(opts.skip) > 0 {
		cfg.Skip = append(cfg.Skip, opts.skip...)
	}
	if opts.scanner != "" {
		cfg.Scanner = strings.ToLower(strings.TrimSpace(opts.scanner))
	}
	if opts.noReuse {
		disabled := false
		cfg.ReuseExisting = &disabled
	}
	if opts.manifest != "" {
		cfg.Output.Manifest = config.ResolveRelative(cwd, opts.manifest)
	}
	if opts.ledger != "" {
		cfg.Output.Ledger = config.ResolveRelative(cwd, opts.ledger)
	}
	if opts.metricsFile != "" {
		cfg.Output.MetricsFile = config.ResolveRelative(cwd, opts.metricsFile)
	}
	if opts.dotFile != "" {
		cfg.Output.DOT = config.ResolveRelative(cwd, opts.dotFile)
	}
	if opts.tsvFile != "" {
		cfg.Output.TSV = config.ResolveRelative(cwd, opts.tsvFile)
	}

	switch {
	case opts.dest != "" && len(opts.args) == 0:
		return usageError{msg: "-dest requires at least one source file argument"}
	case opts.dest == "" && len(opts.args) > 0:
		return usageError{msg: "source file arguments require -dest"}
	case opts.dest != "":
		dest := config.ResolveRelative(cwd, opts.dest)
		if strings.HasSuffix(opts.dest, "/") || strings.HasSuffix(opts.dest, string(filepath.Separator)) {
			dest += string(filepath.Separator)
		}
		sources := make([]string, 0, len(opts.args))
		for _, arg := range opts.args {
			sources = append(sources, config.ResolveRelative(cwd, arg))
		}
		cfg.Targets = append(cfg.Targets, config.Target{Dest: dest, Sources: sources})
	}

	if opts.history > 0 && strings.TrimSpace(cfg.Output.Ledger) == "" {
		return usageError{msg: "-history requires a ledger (-ledger or [output] ledger)"}
	}

	if err := config.Validate(cfg); err != nil {
		return usageError{msg: err.Error()}
	}
	return nil
}

func buildFlattener(cfg *config.Config, runID string) (*flatten.Flattener, error) {
	modulePaths := make([]string, 0, len(cfg.ModulePaths))
	for _, p := range cfg.ModulePaths {
		modulePaths = append(modulePaths, cfg.Path(p))
	}
	locator, err := resolver.NewNodeLocator(resolver.LocatorOptions{
		Extensions:  cfg.Extensions,
		ModulePaths: modulePaths,
	})
	if err != nil {
		return nil, err
	}

	scanner, err := parser.NewScanner(cfg.Scanner)
	if err != nil {
		return nil, err
	}

	rules, err := flatten.ParseSkipRules(cfg.Skip)
	if err != nil {
		return nil, err
	}

	replacements := make([]flatten.Replacement, 0, len(cfg.PostProcess.Replace))
	for _, rep := range cfg.PostProcess.Replace {
		re, err := regexp.Compile(rep.Pattern)
		if err != nil {
			return nil, err
		}
		replacements = append(replacements, flatten.Replacement{Pattern: re, Replacement: rep.Replacement})
	}

	opts := flatten.DefaultOptions()
	if cfg.RootPath != "" {
		opts.RootPath = cfg.RootPath
	}
	if cfg.Prefix != "" {
		opts.Prefix = cfg.Prefix
	}
	opts.Skip = rules
	opts.ReuseExisting = cfg.Reuse()
	opts.PostProcess = flatten.Chain(
		flatten.Banner(cfg.PostProcess.Banner, cfg.BaseDir),
		flatten.ReplaceAll(replacements),
	)

	options := []flatten.Option{
		flatten.WithBaseDir(cfg.BaseDir),
		flatten.WithLogger(slog.Default()),
	}
	if runID = strings.TrimSpace(runID); runID != "" {
		options = append(options, flatten.WithRunID(func() string { return runID }))
	}
	return flatten.New(opts, locator, scanner, options...)
}

func toFlattenTargets(targets []config.Target) []flatten.Target {
	out := make([]flatten.Target, 0, len(targets))
	for _, t := range targets {
		out = append(out, flatten.Target{Dest: t.Dest, Sources: append([]string(nil), t.Sources...)})
	}
	return out
}

func writeOutputs(cfg *config.Config, report *flatten.Report) error {
	if path := cfg.Path(cfg.Output.Manifest); path != "" {
		if err := report.WriteManifest(path); err != nil {
			return err
		}
		slog.Info("manifest written", "path", path)
	}

	if path := cfg.Path(cfg.Output.Ledger); path != "" {
		store, err := ledger.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := recordRun(store, report); err != nil {
			return err
		}
		slog.Info("run recorded", "ledger", path, "run_id", report.RunID)
	}

	if path := cfg.Path(cfg.Output.DOT); path != "" {
		dot, err := output.NewDOTGenerator(report, cfg.BaseDir).Generate()
		if err != nil {
			return err
		}
		if err := util.WriteStringWithDirs(path, dot, 0o644); err != nil {
			return fmt.Errorf("write dot graph %q: %w", path, err)
		}
		slog.Info("graph written", "path", path)
	}

	if path := cfg.Path(cfg.Output.TSV); path != "" {
		tsv, err := output.NewTSVGenerator(report).Generate()
		if err != nil {
			return err
		}
		if err := util.WriteStringWithDirs(path, tsv, 0o644); err != nil {
			return fmt.Errorf("write tsv edges %q: %w", path, err)
		}
		slog.Info("edges written", "path", path)
	}

	if path := cfg.Path(cfg.Output.MetricsFile); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := observability.WriteTextfile(path); err != nil {
			return fmt.Errorf("write metrics textfile %q: %w", path, err)
		}
		slog.Info("metrics written", "path", path)
	}
	return nil
}

func printHistory(w io.Writer, cfg *config.Config, limit int) error {
	store, err := ledger.Open(cfg.Path(cfg.Output.Ledger))
	if err != nil {
		return err
	}
	defer store.Close()
	fmt.Fprintf(w, "%s\n", statusStyle.Render("ledger "+store.Path()))
	return listRuns(w, store, limit)
}

func recordRun(store ports.LedgerStore, report *flatten.Report) error {
	return store.SaveRun(report.LedgerRun())
}

func listRuns(w io.Writer, store ports.LedgerStore, limit int) error {
	runs, err := store.RecentRuns(limit)
	if err != nil {
		return err
	}
	fmt.Fprint(w, renderHistory(runs))
	return nil
}

func configureLogging(output io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
