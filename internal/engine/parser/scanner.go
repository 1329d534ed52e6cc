package parser

import (
	"flatcode/internal/core/errors"
	"fmt"
	"strings"
)

const (
	ScannerRegex = "regex"
	ScannerAST   = "ast"
)

// NewScanner builds the scanner registered under kind. An empty kind selects
// the regex scanner.
func NewScanner(kind string) (Scanner, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", ScannerRegex:
		return NewRegexScanner(), nil
	case ScannerAST:
		return NewTreeSitterScanner(), nil
	default:
		return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("unknown scanner %q", kind))
	}
}

// lineAt returns the 1-based line of offset, resuming from a previous
// (offset, line) pair so sequential lookups stay linear.
func lineAt(source []byte, from, line, offset int) int {
	for i := from; i < offset && i < len(source); i++ {
		if source[i] == '\n' {
			line++
		}
	}
	return line
}
