package flatten

import (
	"log/slog"
)

// placement ties a file to the path it is written to. Relative references
// inside the file resolve against Source and land beside Dest.
type placement struct {
	Source string
	Dest   string
}

// run is the state of one Flatten call. It is passed to every recursive step
// and never shared between calls.
type run struct {
	f      *Flattener
	log    *slog.Logger
	report *Report

	// visited maps a module target directory, module destination or sibling
	// destination to the file materialized for it.
	visited map[string]string
	// placed maps every claimed or written destination to the source it came
	// from.
	placed map[string]string
}

func newRun(f *Flattener, report *Report) *run {
	return &run{
		f:       f,
		log:     f.logger.With("run_id", report.RunID),
		report:  report,
		visited: make(map[string]string),
		placed:  make(map[string]string),
	}
}
