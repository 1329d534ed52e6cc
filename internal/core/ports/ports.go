package ports

import (
	"flatcode/internal/data/ledger"
	"flatcode/internal/engine/parser"
)

// ModuleLocator resolves a module reference to the file require() would load
// from fromDir. A false result is a normal outcome, not an error.
type ModuleLocator interface {
	Locate(ref, fromDir string) (string, bool)
}

// ImportScanner finds require() calls in a file, ordered by position.
type ImportScanner interface {
	Name() string
	Scan(path string, source []byte) ([]parser.RequireCall, error)
}

// LedgerStore persists completed runs for the history listing.
type LedgerStore interface {
	SaveRun(run ledger.Run) error
	RecentRuns(limit int) ([]ledger.Run, error)
}
