// Package storage persists classes and lessons in SQLite or libSQL.
package storage

import (
	"context"

	"github.com/garyellow/school-timetable-go/internal/timetable"
)

// ScheduleWriter is the persistence capability used by the seed pipeline.
type ScheduleWriter interface {
	DeleteAllLessons(ctx context.Context) error
	DeleteAllClasses(ctx context.Context) error
	// CreateClass inserts a class and returns its generated ID.
	CreateClass(ctx context.Context, name string) (string, error)
	// CreateLesson inserts a lesson; lesson.ClassRef must be a class ID.
	CreateLesson(ctx context.Context, lesson timetable.Lesson) error
}

// TxRunner runs fn inside a single transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(w ScheduleWriter) error) error
}

// ScheduleStore is a ScheduleWriter that can also open transactions.
type ScheduleStore interface {
	ScheduleWriter
	TxRunner
}

// ScheduleReader defines read access for the HTTP API.
type ScheduleReader interface {
	ListClasses(ctx context.Context) ([]Class, error)
	SearchClasses(ctx context.Context, term string) ([]Class, error)
	GetLessonsByClass(ctx context.Context, classID string) ([]Lesson, error)
	Counts(ctx context.Context) (Counts, error)
	Ping(ctx context.Context) error
}

var (
	_ ScheduleStore  = (*DB)(nil)
	_ ScheduleReader = (*DB)(nil)
)
