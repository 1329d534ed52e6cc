package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load decodes the TOML file at path, applies defaults and validates the
// result. Relative paths in the file resolve against its directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.BaseDir = filepath.Dir(abs)

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.RootPath) == "" {
		cfg.RootPath = "."
	}
	if strings.TrimSpace(cfg.Prefix) == "" {
		cfg.Prefix = "./lib/"
	}
	if strings.TrimSpace(cfg.Scanner) == "" {
		cfg.Scanner = "regex"
	}
	if cfg.ReuseExisting == nil {
		enabled := true
		cfg.ReuseExisting = &enabled
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".js", ".json", ".node"}
	}
	if strings.TrimSpace(cfg.Telemetry.ServiceName) == "" {
		cfg.Telemetry.ServiceName = DefaultService
	}
	if cfg.Telemetry.Insecure == nil {
		enabled := true
		cfg.Telemetry.Insecure = &enabled
	}
}

func normalize(cfg *Config) {
	cfg.RootPath = strings.TrimSpace(cfg.RootPath)
	cfg.Prefix = strings.TrimSpace(cfg.Prefix)
	cfg.Scanner = strings.ToLower(strings.TrimSpace(cfg.Scanner))
	cfg.Output.Manifest = strings.TrimSpace(cfg.Output.Manifest)
	cfg.Output.Ledger = strings.TrimSpace(cfg.Output.Ledger)
	cfg.Output.MetricsFile = strings.TrimSpace(cfg.Output.MetricsFile)
	cfg.Output.DOT = strings.TrimSpace(cfg.Output.DOT)
	cfg.Output.TSV = strings.TrimSpace(cfg.Output.TSV)
	cfg.Telemetry.OTLPEndpoint = strings.TrimSpace(cfg.Telemetry.OTLPEndpoint)

	for i := range cfg.Extensions {
		ext := strings.TrimSpace(cfg.Extensions[i])
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Extensions[i] = ext
	}
	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		t.Dest = strings.TrimSpace(t.Dest)
		sources := make([]string, 0, len(t.Sources))
		for _, src := range t.Sources {
			if src = strings.TrimSpace(src); src != "" {
				sources = append(sources, src)
			}
		}
		t.Sources = sources
	}
}
