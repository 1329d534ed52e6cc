package parser

import "regexp"

// requirePattern is a token-level match, not a parse. It fires inside
// comments and string literals, misses template literals and calls split
// across lines, and accepts mismatched quote pairs.
var requirePattern = regexp.MustCompile(`require\((['"])([^'"]+)(['"])\)`)

type RegexScanner struct{}

func NewRegexScanner() *RegexScanner { return &RegexScanner{} }

func (s *RegexScanner) Name() string { return ScannerRegex }

func (s *RegexScanner) Scan(_ string, source []byte) ([]RequireCall, error) {
	matches := requirePattern.FindAllSubmatchIndex(source, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	calls := make([]RequireCall, 0, len(matches))
	pos, line := 0, 1
	for _, m := range matches {
		start, end := m[4], m[5]
		line = lineAt(source, pos, line, start)
		pos = start
		calls = append(calls, RequireCall{
			Module: string(source[start:end]),
			Start:  start,
			End:    end,
			Line:   line,
		})
	}
	return calls, nil
}
