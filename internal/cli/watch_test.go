package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFileAt(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("op: run_sql\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestLatestModTime(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	writeFileAt(t, filepath.Join(dir, "core", "0001_init.yml"), base)
	writeFileAt(t, filepath.Join(dir, "core", "0002_add_email.yaml"), base.Add(time.Hour))
	// Non-changeset files never advance the watch clock, even when newer.
	writeFileAt(t, filepath.Join(dir, "core", "notes.txt"), base.Add(48*time.Hour))

	got := latestModTime(dir)
	if !got.Equal(base.Add(time.Hour)) {
		t.Errorf("latest = %v, want %v", got, base.Add(time.Hour))
	}
}

func TestLatestModTime_MissingDir(t *testing.T) {
	got := latestModTime(filepath.Join(t.TempDir(), "nope"))
	if !got.IsZero() {
		t.Errorf("a missing directory has no mtime, got %v", got)
	}
}

func TestLatestModTime_AdvancesOnTouch(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(dir, "core", "0001_init.yml")
	writeFileAt(t, path, base)

	before := latestModTime(dir)
	writeFileAt(t, path, base.Add(time.Minute))
	after := latestModTime(dir)
	if !after.After(before) {
		t.Errorf("touching a changeset must advance the mtime: %v -> %v", before, after)
	}
}
