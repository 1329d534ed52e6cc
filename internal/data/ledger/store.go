package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Run is one completed flatten invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Entries    int
	Modules    int
	Siblings   int
	Reused     int
	Skipped    int
	Dangling   int
	Missing    int
	Files      []File
}

// File is one file written by a run.
type File struct {
	Role   string
	Module string
	Source string
	Dest   string
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("ledger path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("ledger path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite ledger %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path is the database file the store was opened on.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveRun records run and its files in one transaction. Saving the same run
// id twice replaces the earlier record.
func (s *Store) SaveRun(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id must not be empty")
	}

	return s.withRetry("save run", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM run_files WHERE run_id = ?`, run.ID); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`
INSERT INTO runs (
  run_id, started_at_utc, finished_at_utc, entry_count, module_count, sibling_count,
  reused_count, skipped_count, dangling_count, missing_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
  started_at_utc=excluded.started_at_utc,
  finished_at_utc=excluded.finished_at_utc,
  entry_count=excluded.entry_count,
  module_count=excluded.module_count,
  sibling_count=excluded.sibling_count,
  reused_count=excluded.reused_count,
  skipped_count=excluded.skipped_count,
  dangling_count=excluded.dangling_count,
  missing_count=excluded.missing_count
`,
			run.ID,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.FinishedAt.UTC().Format(time.RFC3339Nano),
			run.Entries,
			run.Modules,
			run.Siblings,
			run.Reused,
			run.Skipped,
			run.Dangling,
			run.Missing,
		); err != nil {
			_ = tx.Rollback()
			return err
		}

		stmt, err := tx.Prepare(`INSERT INTO run_files (run_id, seq, role, module, source_path, dest_path) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		defer stmt.Close()
		for i, f := range run.Files {
			if _, err := stmt.Exec(run.ID, i, f.Role, f.Module, f.Source, f.Dest); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
}

// RecentRuns returns up to limit runs, newest first, with their files.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT run_id, started_at_utc, finished_at_utc, entry_count, module_count, sibling_count,
  reused_count, skipped_count, dangling_count, missing_count
FROM runs
ORDER BY started_at_utc DESC, run_id ASC
LIMIT ?
`, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var (
			run        Run
			startedRaw string
			finishRaw  string
		)
		if err := rows.Scan(
			&run.ID,
			&startedRaw,
			&finishRaw,
			&run.Entries,
			&run.Modules,
			&run.Siblings,
			&run.Reused,
			&run.Skipped,
			&run.Dangling,
			&run.Missing,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedRaw); err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse run start %q: %w", startedRaw, err)
		}
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishRaw); err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse run finish %q: %w", finishRaw, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	rows.Close()

	for i := range runs {
		files, err := s.loadFiles(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Files = files
	}
	return runs, nil
}

func (s *Store) loadFiles(runID string) ([]File, error) {
	rows, err := s.db.Query(`SELECT role, module, source_path, dest_path FROM run_files WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("load run files: %w", err)
	}
	defer rows.Close()

	files := make([]File, 0)
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.Role, &f.Module, &f.Source, &f.Dest); err != nil {
			return nil, fmt.Errorf("scan run file row: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run file rows: %w", err)
	}
	return files, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
