package ledger

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStore_OpenInitializesSchemaAndSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "state", "ledger.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if store.Path() != path {
		t.Fatalf("expected path %q, got %q", path, store.Path())
	}

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	older := Run{
		ID:         "run-a",
		StartedAt:  base,
		FinishedAt: base.Add(time.Second),
		Entries:    1,
		Modules:    2,
		Files: []File{
			{Role: "entry", Source: "/src/app.js", Dest: "/out/app.js"},
			{Role: "module", Module: "leftpad", Source: "/nm/leftpad/index.js", Dest: "/lib/leftpad/index.js"},
		},
	}
	newer := Run{
		ID:         "run-b",
		StartedAt:  base.Add(time.Hour),
		FinishedAt: base.Add(time.Hour + time.Second),
		Entries:    3,
		Siblings:   1,
		Skipped:    4,
		Dangling:   1,
		Missing:    2,
		Reused:     5,
	}

	if err := store.SaveRun(older); err != nil {
		t.Fatalf("save older run: %v", err)
	}
	if err := store.SaveRun(newer); err != nil {
		t.Fatalf("save newer run: %v", err)
	}

	got, err := store.RecentRuns(10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(got))
	}
	if got[0].ID != "run-b" || got[1].ID != "run-a" {
		t.Fatalf("expected newest first, got %q then %q", got[0].ID, got[1].ID)
	}
	if got[0].Skipped != 4 || got[0].Dangling != 1 || got[0].Missing != 2 || got[0].Reused != 5 {
		t.Fatalf("unexpected counters on newer run: %+v", got[0])
	}
	if !got[1].StartedAt.Equal(base) {
		t.Fatalf("expected start %v, got %v", base, got[1].StartedAt)
	}
	if len(got[1].Files) != 2 {
		t.Fatalf("expected 2 files on older run, got %d", len(got[1].Files))
	}
	if got[1].Files[1].Module != "leftpad" || got[1].Files[1].Dest != "/lib/leftpad/index.js" {
		t.Fatalf("unexpected file row: %+v", got[1].Files[1])
	}

	limited, err := store.RecentRuns(1)
	if err != nil {
		t.Fatalf("recent runs limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "run-b" {
		t.Fatalf("expected only run-b, got %+v", limited)
	}
}

func TestStore_SaveRunReplacesSameID(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	run := Run{ID: "same", StartedAt: now, FinishedAt: now, Entries: 1, Files: []File{{Role: "entry", Source: "a", Dest: "b"}, {Role: "entry", Source: "c", Dest: "d"}}}
	if err := store.SaveRun(run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	run.Entries = 7
	run.Files = run.Files[:1]
	if err := store.SaveRun(run); err != nil {
		t.Fatalf("save run again: %v", err)
	}

	got, err := store.RecentRuns(5)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 run, got %d", len(got))
	}
	if got[0].Entries != 7 || len(got[0].Files) != 1 {
		t.Fatalf("expected replaced run, got %+v", got[0])
	}
}

func TestStore_SaveRunRejectsEmptyID(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if err := store.SaveRun(Run{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestOpen_RejectsBadPaths(t *testing.T) {
	if _, err := Open("   "); err == nil {
		t.Fatal("expected error for empty path")
	}
	dir := t.TempDir()
	if _, err := Open(dir); err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("expected directory error, got %v", err)
	}
}

func TestEnsureSchema_RejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.db.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1); err != nil {
		t.Fatalf("bump schema version: %v", err)
	}
	store.Close()

	db, err := sql.Open(driverName, path)
	if err != nil {
		t.Fatalf("reopen raw db: %v", err)
	}
	defer db.Close()
	if err := EnsureSchema(db); err == nil {
		t.Fatal("expected newer schema version to be rejected")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file to remain: %v", err)
	}
}
