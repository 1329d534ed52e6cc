package config

import (
	"fmt"
	"regexp"
	"strings"

	"flatcode/internal/core/flatten"
	"flatcode/internal/engine/parser"
)

// Validate checks a defaulted config. Targets are optional here; the command
// line may still supply them.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateScanner(cfg); err != nil {
		return err
	}
	if err := validateSkip(cfg); err != nil {
		return err
	}
	if err := validateExtensions(cfg); err != nil {
		return err
	}
	if err := validateTargets(cfg); err != nil {
		return err
	}
	if err := validatePostProcess(cfg); err != nil {
		return err
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateScanner(cfg *Config) error {
	switch cfg.Scanner {
	case parser.ScannerRegex, parser.ScannerAST:
		return nil
	default:
		return fmt.Errorf("scanner must be %q or %q, got %q", parser.ScannerRegex, parser.ScannerAST, cfg.Scanner)
	}
}

func validateSkip(cfg *Config) error {
	for i, raw := range cfg.Skip {
		if _, err := flatten.ParseSkipRule(raw); err != nil {
			return fmt.Errorf("skip[%d]: %w", i, err)
		}
	}
	return nil
}

func validateExtensions(cfg *Config) error {
	for i, ext := range cfg.Extensions {
		if ext == "" || ext == "." {
			return fmt.Errorf("extensions[%d] must not be empty", i)
		}
	}
	return nil
}

func validateTargets(cfg *Config) error {
	for i, t := range cfg.Targets {
		if t.Dest == "" {
			return fmt.Errorf("targets[%d].dest must not be empty", i)
		}
		if len(t.Sources) == 0 {
			return fmt.Errorf("targets[%d] (%s) must list at least one source", i, t.Dest)
		}
	}
	return nil
}

func validatePostProcess(cfg *Config) error {
	for i, rep := range cfg.PostProcess.Replace {
		if strings.TrimSpace(rep.Pattern) == "" {
			return fmt.Errorf("post_process.replace[%d].pattern must not be empty", i)
		}
		if _, err := regexp.Compile(rep.Pattern); err != nil {
			return fmt.Errorf("post_process.replace[%d].pattern: %w", i, err)
		}
	}
	return nil
}
