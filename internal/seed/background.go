package seed

import (
	"context"
	"time"

	"github.com/garyellow/school-timetable-go/internal/logger"
	"github.com/garyellow/school-timetable-go/internal/storage"
)

// Job runs one seed and reports its outcome. Serve mode builds a Job that
// also publishes a snapshot after success.
type Job func(ctx context.Context) (*Stats, error)

// NewJob binds Run to its collaborators.
func NewJob(fetcher Fetcher, store storage.ScheduleStore, log *logger.Logger, opts Options) Job {
	return func(ctx context.Context) (*Stats, error) {
		return Run(ctx, fetcher, store, log, opts)
	}
}

// RunInBackground runs job once in its own goroutine and calls onDone (if
// non-nil) with the result. Panics are recovered and logged. The returned
// channel is closed once the job and onDone have returned; canceling ctx
// stops the job between classes.
func RunInBackground(ctx context.Context, job Job, log *logger.Logger, onDone func(*Stats, error)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.InfoContext(ctx, "Starting background seed")
		runGuarded(ctx, job, log, onDone)
	}()
	return done
}

// Schedule runs job every interval until ctx is canceled. Runs never
// overlap: a tick that arrives while a run is active is dropped.
// It blocks; call it in its own goroutine.
func Schedule(ctx context.Context, interval time.Duration, job Job, log *logger.Logger, onDone func(*Stats, error)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.WithField("interval", interval).Info("Seed scheduler started")
	for {
		select {
		case <-ctx.Done():
			log.Info("Seed scheduler stopped")
			return
		case <-ticker.C:
			runGuarded(ctx, job, log, onDone)
		}
	}
}

func runGuarded(ctx context.Context, job Job, log *logger.Logger, onDone func(*Stats, error)) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Panic in seed job")
		}
	}()

	stats, err := job(ctx)
	if err != nil {
		log.WithError(err).WarnContext(ctx, "Seed finished with errors")
	}
	if onDone != nil {
		onDone(stats, err)
	}
}
