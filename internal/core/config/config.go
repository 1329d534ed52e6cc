package config

import (
	"path/filepath"
	"strings"
)

const (
	DefaultFile    = "flatcode.toml"
	DefaultService = "flatcode"
)

type Config struct {
	Version       int         `toml:"version"`
	RootPath      string      `toml:"root_path"`
	Prefix        string      `toml:"prefix"`
	Skip          []string    `toml:"skip"`
	Scanner       string      `toml:"scanner"`
	ReuseExisting *bool       `toml:"reuse_existing"`
	Extensions    []string    `toml:"extensions"`
	ModulePaths   []string    `toml:"module_paths"`
	Targets       []Target    `toml:"targets"`
	PostProcess   PostProcess `toml:"post_process"`
	Output        Output      `toml:"output"`
	Telemetry     Telemetry   `toml:"telemetry"`

	// BaseDir is the directory relative paths in the file resolve against.
	// It is set by Load and never decoded.
	BaseDir string `toml:"-"`
}

type Target struct {
	Dest    string   `toml:"dest"`
	Sources []string `toml:"sources"`
}

type PostProcess struct {
	Banner  string        `toml:"banner"`
	Replace []Replacement `toml:"replace"`
}

type Replacement struct {
	Pattern     string `toml:"pattern"`
	Replacement string `toml:"replacement"`
}

type Output struct {
	Manifest    string `toml:"manifest"`
	Ledger      string `toml:"ledger"`
	MetricsFile string `toml:"metrics_file"`
	DOT         string `toml:"dot"`
	TSV         string `toml:"tsv"`
}

type Telemetry struct {
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
	Insecure     *bool  `toml:"insecure"`
}

// DefaultConfig is the configuration used when no file is present. It has no
// targets; callers add them from the command line.
func DefaultConfig(baseDir string) *Config {
	cfg := &Config{BaseDir: baseDir}
	applyDefaults(cfg)
	return cfg
}

func (c *Config) Reuse() bool {
	return c.ReuseExisting == nil || *c.ReuseExisting
}

func (c *Config) TelemetryInsecure() bool {
	return c.Telemetry.Insecure == nil || *c.Telemetry.Insecure
}

// Path resolves value against the config's base directory. Empty values stay
// empty.
func (c *Config) Path(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return ResolveRelative(c.BaseDir, value)
}

// ResolvedTargets returns the targets with paths resolved against BaseDir.
// A trailing separator on a destination is kept, since it marks a directory.
func (c *Config) ResolvedTargets() []Target {
	out := make([]Target, 0, len(c.Targets))
	for _, t := range c.Targets {
		dest := c.Path(t.Dest)
		if strings.HasSuffix(t.Dest, "/") || strings.HasSuffix(t.Dest, string(filepath.Separator)) {
			dest += string(filepath.Separator)
		}
		sources := make([]string, 0, len(t.Sources))
		for _, src := range t.Sources {
			sources = append(sources, c.Path(src))
		}
		out = append(out, Target{Dest: dest, Sources: sources})
	}
	return out
}
