package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Statements run one at a time since libSQL servers reject multi-statement execs.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if err := createClassesTable(ctx, db); err != nil {
		return err
	}
	return createLessonsTable(ctx, db)
}

func createClassesTable(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS classes (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_classes_name ON classes(name)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create classes table: %w", err)
		}
	}
	return nil
}

func createLessonsTable(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lessons (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
			day INTEGER NOT NULL CHECK(day BETWEEN 0 AND 4),
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL CHECK(subject <> ''),
			teacher TEXT NOT NULL CHECK(teacher <> ''),
			room TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lessons_class_day ON lessons(class_id, day, start_time)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create lessons table: %w", err)
		}
	}
	return nil
}
