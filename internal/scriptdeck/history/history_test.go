package history

import (
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db := New(filepath.Join(t.TempDir(), "history.db"))
	if err := db.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleRun(script string, started time.Time) Run {
	return Run{
		Started:  started,
		Category: "backup",
		Script:   script,
		Mode:     "interactive",
		Status:   "success",
		ExitCode: 0,
		Duration: 42 * time.Second,
		LogPath:  "/var/log/toolset/run.log",
	}
}

func TestRecordAndRecent(t *testing.T) {
	db := testDB(t)
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := db.Record(sampleRun("nightly-backup", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	runs, err := db.Recent("nightly-backup", 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}

	// Newest first.
	for i := 1; i < len(runs); i++ {
		if runs[i].Started.After(runs[i-1].Started) {
			t.Errorf("runs out of order: %v before %v", runs[i-1].Started, runs[i].Started)
		}
	}

	got := runs[0]
	if got.Category != "backup" || got.Mode != "interactive" || got.Status != "success" {
		t.Errorf("run fields lost: %+v", got)
	}
	if got.Duration != 42*time.Second {
		t.Errorf("Duration = %v, want 42s", got.Duration)
	}
}

func TestRecentFiltersByScript(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC()

	if err := db.Record(sampleRun("nightly-backup", now)); err != nil {
		t.Fatal(err)
	}
	if err := db.Record(sampleRun("temp-cleaner", now.Add(time.Minute))); err != nil {
		t.Fatal(err)
	}

	runs, err := db.Recent("temp-cleaner", 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(runs) != 1 || runs[0].Script != "temp-cleaner" {
		t.Errorf("Recent() = %+v, want only temp-cleaner", runs)
	}

	all, err := db.Recent("", 10)
	if err != nil {
		t.Fatalf("Recent(\"\") error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Recent(\"\") returned %d runs, want 2", len(all))
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	db := testDB(t)
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		if err := db.Record(sampleRun("nightly-backup", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := db.Recent("nightly-backup", 2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("got %d runs, want 2", len(runs))
	}
}

func TestPrune(t *testing.T) {
	db := testDB(t)
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		if err := db.Record(sampleRun("nightly-backup", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.Prune(2); err != nil {
		t.Fatalf("Prune() error: %v", err)
	}

	runs, err := db.Recent("", 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs after prune, want 2", len(runs))
	}
	// The newest rows survive.
	if !runs[0].Started.After(runs[1].Started) {
		t.Errorf("prune kept the wrong rows: %v, %v", runs[0].Started, runs[1].Started)
	}
}

func TestUninitializedDatabase(t *testing.T) {
	db := New(filepath.Join(t.TempDir(), "history.db"))

	if err := db.Record(sampleRun("backup", time.Now())); err == nil {
		t.Error("Record() on an uninitialized database did not fail")
	}
	if _, err := db.Recent("", 10); err == nil {
		t.Error("Recent() on an uninitialized database did not fail")
	}
}
