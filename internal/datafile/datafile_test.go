package datafile

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/azuline/rose-sub000/internal/lockmgr"
)

func setupLockManager(t *testing.T) *lockmgr.Manager {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	if err := lockmgr.CreateTable(sqlDB); err != nil {
		t.Fatalf("create locks table: %v", err)
	}
	return lockmgr.New(sqlDB)
}

func TestReadNoDatafileReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "01.flac"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	id, _, found, _, err := Read(dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if found {
		t.Errorf("found = true, want false (no datafile present); id = %q", id)
	}
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	locks := setupLockManager(t)

	id, err := Write(locks, dir, "", "", DataFile{New: true})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	gotID, df, found, changed, err := Read(dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !found {
		t.Fatal("found = false, want true")
	}
	if gotID != id {
		t.Errorf("gotID = %q, want %q", gotID, id)
	}
	if !df.New {
		t.Error("df.New = false, want true")
	}
	if df.AddedAt == "" {
		t.Error("df.AddedAt is empty")
	}
	if changed {
		t.Error("changed = true on a freshly-written datafile with all fields present")
	}
}

func TestReadDefaultsMissingFields(t *testing.T) {
	dir := t.TempDir()
	id := "11111111-1111-1111-1111-111111111111"
	if err := os.WriteFile(filepath.Join(dir, FileName(id)), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	gotID, df, found, changed, err := Read(dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !found {
		t.Fatal("found = false, want true")
	}
	if gotID != id {
		t.Errorf("gotID = %q, want %q", gotID, id)
	}
	if !df.New {
		t.Error("df.New = false, want default true")
	}
	if df.AddedAt == "" {
		t.Error("df.AddedAt is empty, want a defaulted timestamp")
	}
	if !changed {
		t.Error("changed = false, want true since fields were defaulted")
	}
}

func TestReadPicksLexicographicallyFirstOnMultiple(t *testing.T) {
	dir := t.TempDir()
	first := "11111111-1111-1111-1111-111111111111"
	second := "22222222-2222-2222-2222-222222222222"
	for _, id := range []string{second, first} {
		if err := os.WriteFile(filepath.Join(dir, FileName(id)), []byte("new = true\nadded_at = \"2024-01-01T00:00:00Z\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	gotID, _, found, _, err := Read(dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !found {
		t.Fatal("found = false, want true")
	}
	if gotID != first {
		t.Errorf("gotID = %q, want lexicographically-first %q", gotID, first)
	}
}

func TestWriteRemovesSupersededFileOnIDChange(t *testing.T) {
	dir := t.TempDir()
	locks := setupLockManager(t)

	oldID := "11111111-1111-1111-1111-111111111111"
	if err := os.WriteFile(filepath.Join(dir, FileName(oldID)), []byte("new = true\nadded_at = \"2024-01-01T00:00:00Z\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	newID, err := Write(locks, dir, "", oldID, DataFile{New: false, AddedAt: "2024-01-01T00:00:00Z"})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, FileName(oldID))); !os.IsNotExist(err) {
		t.Errorf("old datafile %s still exists after rewrite", FileName(oldID))
	}
	if _, err := os.Stat(filepath.Join(dir, FileName(newID))); err != nil {
		t.Errorf("new datafile missing: %v", err)
	}
}
