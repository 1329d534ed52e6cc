package flatten

import (
	"log/slog"
)

const (
	DefaultRootPath = "."
	DefaultPrefix   = "./lib/"
)

// PostProcessFunc transforms a fully rewritten file before it is written.
// sourcePath is the file the content was read from.
type PostProcessFunc func(content, sourcePath string) (string, error)

type Options struct {
	RootPath      string
	Prefix        string
	Skip          []SkipRule
	PostProcess   PostProcessFunc
	ReuseExisting bool
}

func DefaultOptions() Options {
	return Options{
		RootPath:      DefaultRootPath,
		Prefix:        DefaultPrefix,
		ReuseExisting: true,
	}
}

type Option func(*Flattener)

func WithLogger(logger *slog.Logger) Option {
	return func(f *Flattener) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithBaseDir sets the directory relative RootPath and target paths are
// resolved against. Defaults to the process working directory.
func WithBaseDir(dir string) Option {
	return func(f *Flattener) {
		f.baseDir = dir
	}
}

// WithRunID overrides run id generation.
func WithRunID(next func() string) Option {
	return func(f *Flattener) {
		if next != nil {
			f.newRunID = next
		}
	}
}
