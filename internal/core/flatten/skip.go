package flatten

import (
	"flatcode/internal/core/errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

const (
	skipLiteralPrefix = "lit:"
	skipPatternPrefix = "re:"
	skipGlobPrefix    = "glob:"
)

// SkipRule decides whether an unresolved reference is left as written.
type SkipRule interface {
	Match(ref string) bool
	String() string
}

// LiteralRule matches references that start with the rule text.
type LiteralRule string

func (r LiteralRule) Match(ref string) bool { return strings.HasPrefix(ref, string(r)) }
func (r LiteralRule) String() string        { return string(r) }

// PatternRule matches references the expression finds anywhere in.
type PatternRule struct {
	re *regexp.Regexp
}

func NewPatternRule(expr string) (PatternRule, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return PatternRule{}, err
	}
	return PatternRule{re: re}, nil
}

func (r PatternRule) Match(ref string) bool { return r.re.MatchString(ref) }
func (r PatternRule) String() string        { return skipPatternPrefix + r.re.String() }

// GlobRule matches whole references against a glob with / as separator.
type GlobRule struct {
	raw string
	g   glob.Glob
}

func NewGlobRule(pattern string) (GlobRule, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return GlobRule{}, err
	}
	return GlobRule{raw: pattern, g: g}, nil
}

func (r GlobRule) Match(ref string) bool { return r.g.Match(ref) }
func (r GlobRule) String() string        { return skipGlobPrefix + r.raw }

// ParseSkipRule reads the textual rule form: "re:<expr>", "glob:<pattern>",
// "lit:<text>" or a plain literal prefix.
func ParseSkipRule(raw string) (SkipRule, error) {
	switch {
	case strings.HasPrefix(raw, skipPatternPrefix):
		rule, err := NewPatternRule(strings.TrimPrefix(raw, skipPatternPrefix))
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid skip pattern %q", raw))
		}
		return rule, nil
	case strings.HasPrefix(raw, skipGlobPrefix):
		rule, err := NewGlobRule(strings.TrimPrefix(raw, skipGlobPrefix))
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid skip glob %q", raw))
		}
		return rule, nil
	case strings.HasPrefix(raw, skipLiteralPrefix):
		raw = strings.TrimPrefix(raw, skipLiteralPrefix)
	}
	if raw == "" {
		return nil, errors.New(errors.CodeValidationError, "skip rule must not be empty")
	}
	return LiteralRule(raw), nil
}

// ParseSkipRules parses raw in order and stops at the first invalid rule.
func ParseSkipRules(raw []string) ([]SkipRule, error) {
	rules := make([]SkipRule, 0, len(raw))
	for _, r := range raw {
		rule, err := ParseSkipRule(r)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// SkipMatcher decides whether an unresolved reference is left as written.
type SkipMatcher struct {
	rules []SkipRule
}

func NewSkipMatcher(rules []SkipRule) SkipMatcher {
	return SkipMatcher{rules: append([]SkipRule(nil), rules...)}
}

// Match returns the first rule matching ref, in configured order.
func (m SkipMatcher) Match(ref string) (SkipRule, bool) {
	for _, rule := range m.rules {
		if rule != nil && rule.Match(ref) {
			return rule, true
		}
	}
	return nil, false
}
