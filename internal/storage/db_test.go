package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// TestNew_FileSystemDatabase tests database creation with file system persistence
func TestNew_FileSystemDatabase(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "timetable.db")

	ctx := context.Background()
	db, err := New(ctx, dbPath, "")
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file not created: %s", dbPath)
	}
	if db.IsRemote() {
		t.Error("local database reported as remote")
	}
	if db.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
	}

	var mode string
	if err := db.Conn().QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode query failed: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

// TestNew_Reopen verifies the schema is idempotent
func TestNew_Reopen(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "timetable.db")
	ctx := context.Background()

	db, err := New(ctx, dbPath, "")
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := db.CreateClass(ctx, "1A"); err != nil {
		t.Fatalf("CreateClass: %v", err)
	}
	_ = db.Close()

	db, err = New(ctx, dbPath, "")
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer func() { _ = db.Close() }()

	counts, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Classes != 1 {
		t.Errorf("classes = %d, want 1", counts.Classes)
	}
}

func TestIsRemoteURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		dsn  string
		want bool
	}{
		{"libsql://timetable.turso.io", true},
		{"https://timetable.turso.io", true},
		{"data/timetable.db", false},
		{":memory:", false},
	}
	for _, tt := range tests {
		if got := IsRemoteURL(tt.dsn); got != tt.want {
			t.Errorf("IsRemoteURL(%q) = %v, want %v", tt.dsn, got, tt.want)
		}
	}
}

func TestRedactURL(t *testing.T) {
	t.Parallel()
	got := redactURL("libsql://timetable.turso.io?authToken=secret")
	if got != "libsql://timetable.turso.io" {
		t.Errorf("redactURL() = %q", got)
	}
}
