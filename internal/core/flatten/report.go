package flatten

import (
	"encoding/json"
	"flatcode/internal/core/errors"
	"flatcode/internal/data/ledger"
	"flatcode/internal/shared/util"
	"time"
)

type Role string

const (
	RoleEntry   Role = "entry"
	RoleModule  Role = "module"
	RoleSibling Role = "sibling"
)

type FileRecord struct {
	Role   Role   `json:"role"`
	Module string `json:"module,omitempty"`
	Source string `json:"source"`
	Dest   string `json:"dest"`
}

type ReferenceRecord struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Module string `json:"module"`
	// Rule is the skip rule that matched, or the dangling path written.
	Rule string `json:"rule,omitempty"`
}

type EdgeKind string

const (
	EdgeModule   EdgeKind = "module"
	EdgeSibling  EdgeKind = "sibling"
	EdgeRelative EdgeKind = "relative"
	EdgeSkipped  EdgeKind = "skipped"
	EdgeDangling EdgeKind = "dangling"
	EdgeEscapes  EdgeKind = "escapes"
)

// Edge is one require() reference as written to the output tree. To is the
// destination file it points at, empty when nothing was placed for it.
type Edge struct {
	From   string   `json:"from"`
	To     string   `json:"to,omitempty"`
	Module string   `json:"module"`
	Line   int      `json:"line"`
	Kind   EdgeKind `json:"kind"`
}

type Report struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Scanner    string            `json:"scanner"`
	Files      []FileRecord      `json:"files"`
	Reused     []FileRecord      `json:"reused"`
	Skipped    []ReferenceRecord `json:"skipped"`
	Dangling   []ReferenceRecord `json:"dangling"`
	Missing    []string          `json:"missing"`
	Clobbered  []string          `json:"clobbered"`
	Edges      []Edge            `json:"edges"`
}

func newReport(runID, scanner string, started time.Time) *Report {
	return &Report{
		RunID:     runID,
		StartedAt: started,
		Scanner:   scanner,
		Files:     []FileRecord{},
		Reused:    []FileRecord{},
		Skipped:   []ReferenceRecord{},
		Dangling:  []ReferenceRecord{},
		Missing:   []string{},
		Clobbered: []string{},
		Edges:     []Edge{},
	}
}

// Count returns how many files of role were written.
func (r *Report) Count(role Role) int {
	n := 0
	for _, f := range r.Files {
		if f.Role == role {
			n++
		}
	}
	return n
}

func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// WriteManifest stores the report as indented JSON at path.
func (r *Report) WriteManifest(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encode manifest")
	}
	if err := util.WriteFileWithDirs(path, append(data, '\n'), 0o644); err != nil {
		return errors.WrapPath(err, "write manifest", path)
	}
	return nil
}

func (r *Report) LedgerRun() ledger.Run {
	run := ledger.Run{
		ID:         r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Entries:    r.Count(RoleEntry),
		Modules:    r.Count(RoleModule),
		Siblings:   r.Count(RoleSibling),
		Reused:     len(r.Reused),
		Skipped:    len(r.Skipped),
		Dangling:   len(r.Dangling),
		Missing:    len(r.Missing),
		Files:      make([]ledger.File, 0, len(r.Files)),
	}
	for _, f := range r.Files {
		run.Files = append(run.Files, ledger.File{
			Role:   string(f.Role),
			Module: f.Module,
			Source: f.Source,
			Dest:   f.Dest,
		})
	}
	return run
}
