package cli

import (
	"flag"
	"io"
	"strings"
)

const versionString = "1.0.0"

type cliOptions struct {
	configPath  string
	rootPath    string
	prefix      string
	skip        stringList
	scanner     string
	dest        string
	manifest    string
	ledger      string
	metricsFile string
	dotFile     string
	tsvFile     string
	runID       string
	history     int
	noReuse     bool
	quiet       bool
	verbose     bool
	version     bool
	args        []string
}

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func parseOptions(args []string, output io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("flatcode", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default ./flatcode.toml when present)")
	fs.StringVar(&opts.rootPath, "root", "", "Base directory for the flat module tree")
	fs.StringVar(&opts.prefix, "prefix", "", "Sub-path under the root where modules are placed")
	fs.Var(&opts.skip, "skip", "Skip rule for unresolved references (repeatable; re:<expr>, glob:<pattern> or literal prefix)")
	fs.StringVar(&opts.scanner, "scanner", "", "require() scanner: regex or ast")
	fs.StringVar(&opts.dest, "dest", "", "Destination for the positional source files (trailing / for a directory)")
	fs.StringVar(&opts.manifest, "manifest", "", "Write the run report as JSON to this path")
	fs.StringVar(&opts.ledger, "ledger", "", "Record the run in this sqlite ledger")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "Write prometheus metrics in textfile format to this path")
	fs.StringVar(&opts.dotFile, "dot", "", "Write the reference graph in Graphviz DOT format to this path")
	fs.StringVar(&opts.tsvFile, "tsv", "", "Write the reference edges as TSV to this path")
	fs.StringVar(&opts.runID, "run-id", "", "Use this run id instead of a generated one (an existing ledger entry is replaced)")
	fs.IntVar(&opts.history, "history", 0, "Print the last N runs from the ledger and exit")
	fs.BoolVar(&opts.noReuse, "no-reuse", false, "Rewrite module destinations even when they already exist")
	fs.BoolVar(&opts.quiet, "quiet", false, "Do not print the run summary")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
