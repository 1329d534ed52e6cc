package flatten

import (
	"path/filepath"
	"regexp"
	"strings"
)

const sourcePlaceholder = "{source}"

type Replacement struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Chain runs fns in order, feeding each the previous output. Nil entries are
// ignored; Chain returns nil when nothing is left.
func Chain(fns ...PostProcessFunc) PostProcessFunc {
	active := make([]PostProcessFunc, 0, len(fns))
	for _, fn := range fns {
		if fn != nil {
			active = append(active, fn)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(content, sourcePath string) (string, error) {
		var err error
		for _, fn := range active {
			if content, err = fn(content, sourcePath); err != nil {
				return "", err
			}
		}
		return content, nil
	}
}

// Banner prepends text to every file. {source} expands to the source path
// relative to baseDir, with forward slashes.
func Banner(text, baseDir string) PostProcessFunc {
	if text == "" {
		return nil
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return func(content, sourcePath string) (string, error) {
		shown := sourcePath
		if rel, err := filepath.Rel(baseDir, sourcePath); err == nil {
			shown = rel
		}
		return strings.ReplaceAll(text, sourcePlaceholder, filepath.ToSlash(shown)) + content, nil
	}
}

// ReplaceAll applies each replacement in order. Replacement text may use
// $1-style group references.
func ReplaceAll(reps []Replacement) PostProcessFunc {
	if len(reps) == 0 {
		return nil
	}
	return func(content, _ string) (string, error) {
		for _, rep := range reps {
			content = rep.Pattern.ReplaceAllString(content, rep.Replacement)
		}
		return content, nil
	}
}
