package parser

// RequireCall is a single require('<module>') expression found in a file.
// Start and End delimit the module id inside the string literal, so a
// rewrite can replace it without touching quotes or call syntax.
type RequireCall struct {
	Module string
	Start  int
	End    int
	Line   int
}

// Scanner finds require() calls in a source file. Results are ordered by
// their position in the file.
type Scanner interface {
	Name() string
	Scan(path string, source []byte) ([]RequireCall, error)
}
