package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domerrors "github.com/garyellow/school-timetable-go/internal/errors"
	"github.com/garyellow/school-timetable-go/internal/timetable"
)

// slowQueryThreshold triggers a warning log for slow statements.
const slowQueryThreshold = 100 * time.Millisecond

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// writer implements ScheduleWriter on top of a connection or transaction.
type writer struct {
	q execer
}

func (w writer) DeleteAllLessons(ctx context.Context) error {
	if _, err := w.q.ExecContext(ctx, `DELETE FROM lessons`); err != nil {
		return fmt.Errorf("failed to delete lessons: %w", err)
	}
	return nil
}

func (w writer) DeleteAllClasses(ctx context.Context) error {
	if _, err := w.q.ExecContext(ctx, `DELETE FROM classes`); err != nil {
		return fmt.Errorf("failed to delete classes: %w", err)
	}
	return nil
}

func (w writer) CreateClass(ctx context.Context, name string) (string, error) {
	id := uuid.NewString()
	_, err := w.q.ExecContext(ctx,
		`INSERT INTO classes (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("failed to create class %s: %w", name, err)
	}
	return id, nil
}

func (w writer) CreateLesson(ctx context.Context, l timetable.Lesson) error {
	_, err := w.q.ExecContext(ctx, `
		INSERT INTO lessons (class_id, day, start_time, end_time, subject, teacher, room)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ClassRef, l.Day, l.StartTime, l.EndTime, l.Subject, l.Teacher, l.Room)
	if err != nil {
		return fmt.Errorf("failed to create lesson (day=%d, start=%s): %w", l.Day, l.StartTime, err)
	}
	return nil
}

// DeleteAllLessons removes every lesson.
func (db *DB) DeleteAllLessons(ctx context.Context) error {
	return writer{db.conn}.DeleteAllLessons(ctx)
}

// DeleteAllClasses removes every class. Lessons must be deleted first.
func (db *DB) DeleteAllClasses(ctx context.Context) error {
	return writer{db.conn}.DeleteAllClasses(ctx)
}

// CreateClass inserts a class with a new UUID and returns the ID.
func (db *DB) CreateClass(ctx context.Context, name string) (string, error) {
	return writer{db.conn}.CreateClass(ctx, name)
}

// CreateLesson inserts one lesson of the class identified by lesson.ClassRef.
func (db *DB) CreateLesson(ctx context.Context, lesson timetable.Lesson) error {
	return writer{db.conn}.CreateLesson(ctx, lesson)
}

// WithTx runs fn in a transaction, committing when it returns nil and
// rolling back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(w ScheduleWriter) error) error {
	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(writer{tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.ErrorContext(ctx, "failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if duration := time.Since(start); duration > 5*slowQueryThreshold {
		slog.WarnContext(ctx, "slow transaction",
			"duration_ms", duration.Milliseconds())
	}
	return nil
}

// ListClasses returns all classes ordered by name.
func (db *DB) ListClasses(ctx context.Context) ([]Class, error) {
	return db.queryClasses(ctx, "ListClasses", `SELECT id, name FROM classes ORDER BY name, id`)
}

// SearchClasses returns classes whose name contains term, ordered by name.
func (db *DB) SearchClasses(ctx context.Context, term string) ([]Class, error) {
	return db.queryClasses(ctx, "SearchClasses",
		`SELECT id, name FROM classes WHERE name LIKE ? ESCAPE '\' ORDER BY name, id`,
		"%"+sanitizeSearchTerm(term)+"%")
}

func (db *DB) queryClasses(ctx context.Context, op, query string, args ...any) ([]Class, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	classes := []Class{}
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate classes: %w", err)
	}

	warnSlow(ctx, op, start)
	return classes, nil
}

// GetLessonsByClass returns the lessons of a class ordered by day then start
// time. Returns ErrNotFound when the class has no lessons.
func (db *DB) GetLessonsByClass(ctx context.Context, classID string) ([]Lesson, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, class_id, day, start_time, end_time, subject, teacher, room
		FROM lessons
		WHERE class_id = ?
		ORDER BY day, start_time, id`, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lessons []Lesson
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.ClassID, &l.Day, &l.StartTime, &l.EndTime, &l.Subject, &l.Teacher, &l.Room); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lessons: %w", err)
	}

	warnSlow(ctx, "GetLessonsByClass", start, "class_id", classID)
	if len(lessons) == 0 {
		return nil, fmt.Errorf("class %s: %w", classID, domerrors.ErrNotFound)
	}
	return lessons, nil
}

// Counts returns the number of stored classes and lessons.
func (db *DB) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM classes`).Scan(&c.Classes); err != nil {
		return Counts{}, fmt.Errorf("failed to count classes: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM lessons`).Scan(&c.Lessons); err != nil {
		return Counts{}, fmt.Errorf("failed to count lessons: %w", err)
	}
	return c, nil
}

func warnSlow(ctx context.Context, op string, start time.Time, args ...any) {
	duration := time.Since(start)
	if duration <= slowQueryThreshold {
		return
	}
	attrs := append([]any{"operation", op, "duration_ms", duration.Milliseconds()}, args...)
	slog.WarnContext(ctx, "slow database operation", attrs...)
}
