// Package seed runs the timetable pipeline end to end: discover class pages
// from the index, fetch and parse each one, and replace the stored schedule.
package seed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/garyellow/school-timetable-go/internal/ctxutil"
	domerrors "github.com/garyellow/school-timetable-go/internal/errors"
	"github.com/garyellow/school-timetable-go/internal/htmldoc"
	"github.com/garyellow/school-timetable-go/internal/logger"
	"github.com/garyellow/school-timetable-go/internal/metrics"
	"github.com/garyellow/school-timetable-go/internal/storage"
	"github.com/garyellow/school-timetable-go/internal/timetable"
)

// Fetch kinds used for metrics labels.
const (
	KindIndex = "index"
	KindClass = "class"
)

// Class outcome labels.
const (
	statusSeeded        = "seeded"
	statusFetchFailed   = "fetch_failed"
	statusEmpty         = "empty"
	statusPersistFailed = "persist_failed"
)

// Fetcher retrieves and parses one HTML document.
type Fetcher interface {
	FetchDocument(ctx context.Context, kind, rawURL string) (*htmldoc.Document, error)
}

// Stats tracks seeding statistics
// All fields use atomic operations for concurrent access
type Stats struct {
	Discovered    atomic.Int64
	Seeded        atomic.Int64
	Skipped       atomic.Int64
	Lessons       atomic.Int64
	RowsRejected  atomic.Int64
	SlotsRejected atomic.Int64
}

// Options configures a seed run
type Options struct {
	IndexURL     string
	LinkSelector string // defaults to timetable.DefaultClassLinkSelector
	Parser       timetable.Options
	Workers      int  // concurrent classes, defaults to 1
	Dedup        bool // drop discovered sources sharing a URL
	DryRun       bool // parse without touching the store
	Periods      *timetable.PeriodSchedule
	Metrics      *metrics.Metrics // optional
}

// Discover fetches the index page and returns the class sources it links to.
// Every failure is a *errors.DiscoveryError.
func Discover(ctx context.Context, fetcher Fetcher, indexURL, selector string) ([]timetable.Source, error) {
	if selector == "" {
		selector = timetable.DefaultClassLinkSelector
	}
	doc, err := fetcher.FetchDocument(ctx, KindIndex, indexURL)
	if err != nil {
		return nil, domerrors.NewDiscoveryError(indexURL, err)
	}
	base := doc.BaseURL()
	if base == nil {
		if base, err = url.Parse(indexURL); err != nil {
			return nil, domerrors.NewDiscoveryError(indexURL, err)
		}
	}
	sources, err := timetable.DiscoverSources(doc.Root(), base, selector)
	if err != nil {
		var discoveryErr *domerrors.DiscoveryError
		if errors.As(err, &discoveryErr) {
			discoveryErr.IndexURL = indexURL
			return nil, discoveryErr
		}
		return nil, domerrors.NewDiscoveryError(indexURL, err)
	}
	return sources, nil
}

// Run executes one full seed. Every class is fetched and parsed before the
// stored schedule is touched, so a run that cannot produce any class leaves
// the previous data in place.
//
// It returns a *errors.DiscoveryError when no class could be discovered,
// errors.ErrNothingSeeded when classes were discovered but none was seeded,
// and a *errors.PersistenceError when the store could not be cleared;
// other per-class failures only increase Stats.Skipped.
// store may be nil when opts.DryRun is set.
func Run(ctx context.Context, fetcher Fetcher, store storage.ScheduleStore, log *logger.Logger, opts Options) (*Stats, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if !opts.DryRun && store == nil {
		return nil, errors.New("seed: store is required unless dry-run")
	}

	stats := &Stats{}
	startTime := time.Now()
	runID := uuid.NewString()
	ctx = ctxutil.WithRunID(ctx, runID)
	log = log.WithModule("seed")

	sources, err := Discover(ctx, fetcher, opts.IndexURL, opts.LinkSelector)
	if err != nil {
		log.WithError(err).ErrorContext(ctx, "Class discovery failed")
		return stats, err
	}
	if opts.Dedup {
		sources = timetable.DedupSources(sources)
	}
	stats.Discovered.Store(int64(len(sources)))
	log.WithField("classes", len(sources)).
		WithField("dry_run", opts.DryRun).
		InfoContext(ctx, "Discovered classes")

	classes := prepareClasses(ctx, fetcher, timetable.NewParser(opts.Parser), log, opts, stats, sources)
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("seed canceled: %w", err)
	}
	if len(classes) == 0 {
		err := fmt.Errorf("seed: %d classes discovered: %w", len(sources), domerrors.ErrNothingSeeded)
		log.WithError(err).ErrorContext(ctx, "No class produced a timetable, keeping stored schedule")
		return stats, err
	}

	if opts.DryRun {
		for _, class := range classes {
			recordSeeded(opts.Metrics, stats, class)
		}
	} else {
		if err := clearSchedule(ctx, store); err != nil {
			log.WithError(err).ErrorContext(ctx, "Failed to clear stored schedule")
			return stats, err
		}
		for _, class := range classes {
			if ctx.Err() != nil {
				break
			}
			storeClass(ctxutil.WithClassName(ctx, class.name), store, log, opts.Metrics, stats, class)
		}
	}

	duration := time.Since(startTime)
	log.WithField("duration", duration).
		WithField("discovered", stats.Discovered.Load()).
		WithField("seeded", stats.Seeded.Load()).
		WithField("skipped", stats.Skipped.Load()).
		WithField("lessons", stats.Lessons.Load()).
		WithField("rows_rejected", stats.RowsRejected.Load()).
		WithField("slots_rejected", stats.SlotsRejected.Load()).
		InfoContext(ctx, "Seeding complete")

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("seed canceled: %w", err)
	}
	if stats.Seeded.Load() == 0 {
		return stats, fmt.Errorf("seed: %d classes discovered: %w", len(sources), domerrors.ErrNothingSeeded)
	}
	if opts.Metrics != nil && !opts.DryRun {
		opts.Metrics.RecordSeedRun(duration.Seconds(), float64(time.Now().Unix()))
	}
	return stats, nil
}

// clearSchedule removes lessons before classes so no lesson is ever orphaned.
func clearSchedule(ctx context.Context, store storage.ScheduleWriter) error {
	if err := store.DeleteAllLessons(ctx); err != nil {
		return domerrors.NewPersistenceError("*", "delete_lessons", err)
	}
	if err := store.DeleteAllClasses(ctx); err != nil {
		return domerrors.NewPersistenceError("*", "delete_classes", err)
	}
	return nil
}

// parsedClass is one class ready to be written.
type parsedClass struct {
	name    string
	lessons []timetable.Lesson
}

// prepareClasses fetches and parses every source with opts.Workers workers.
// The result keeps discovery order and leaves out skipped classes.
func prepareClasses(ctx context.Context, fetcher Fetcher, parser *timetable.Parser, log *logger.Logger, opts Options, stats *Stats, sources []timetable.Source) []parsedClass {
	results := make([]*parsedClass, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, src := range sources {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = prepareClass(ctxutil.WithClassName(gctx, src.Name), fetcher, parser, log, opts, stats, src)
			return nil
		})
	}
	_ = g.Wait()

	classes := make([]parsedClass, 0, len(results))
	for _, class := range results {
		if class != nil {
			classes = append(classes, *class)
		}
	}
	return classes
}

// prepareClass fetches and parses one class. It returns nil when the class
// must be skipped; failures are logged and counted.
func prepareClass(ctx context.Context, fetcher Fetcher, parser *timetable.Parser, log *logger.Logger, opts Options, stats *Stats, src timetable.Source) *parsedClass {
	classLog := log.WithField("class", src.Name)

	doc, err := fetcher.FetchDocument(ctx, KindClass, src.URL)
	if err != nil {
		classLog.WithError(err).WarnContext(ctx, "Skipping class: fetch failed")
		skip(opts.Metrics, stats, statusFetchFailed)
		return nil
	}

	result := parser.ParseTable(src.Name, doc.Root())
	reportRejections(ctx, classLog, opts.Metrics, stats, result)

	if result.Rows == 0 {
		classLog.WarnContext(ctx, "Skipping class: no timetable rows")
		skip(opts.Metrics, stats, statusEmpty)
		return nil
	}

	lessons := result.Lessons
	if parser.Options().EndTimePolicy == timetable.EndTimeDeferred {
		lessons = opts.Periods.Fill(lessons)
	}
	return &parsedClass{name: src.Name, lessons: lessons}
}

// storeClass persists one parsed class. A failure skips only that class.
func storeClass(ctx context.Context, store storage.TxRunner, log *logger.Logger, m *metrics.Metrics, stats *Stats, class parsedClass) {
	if err := persistClass(ctx, store, class.name, class.lessons); err != nil {
		log.WithField("class", class.name).WithError(err).ErrorContext(ctx, "Skipping class: persistence failed")
		skip(m, stats, statusPersistFailed)
		return
	}
	recordSeeded(m, stats, class)
}

func recordSeeded(m *metrics.Metrics, stats *Stats, class parsedClass) {
	stats.Seeded.Add(1)
	stats.Lessons.Add(int64(len(class.lessons)))
	if m != nil {
		m.RecordClass(statusSeeded, len(class.lessons))
	}
}

// persistClass writes one class and its lessons in a single transaction.
func persistClass(ctx context.Context, store storage.TxRunner, name string, lessons []timetable.Lesson) error {
	err := store.WithTx(ctx, func(w storage.ScheduleWriter) error {
		classID, err := w.CreateClass(ctx, name)
		if err != nil {
			return domerrors.NewPersistenceError(name, "create_class", err)
		}
		for _, lesson := range lessons {
			lesson.ClassRef = classID
			if err := w.CreateLesson(ctx, lesson); err != nil {
				return domerrors.NewPersistenceError(name, "create_lesson", err)
			}
		}
		return nil
	})
	if err != nil && !domerrors.IsPersistenceError(err) {
		return domerrors.NewPersistenceError(name, "commit", err)
	}
	return err
}

func reportRejections(ctx context.Context, log *logger.Logger, m *metrics.Metrics, stats *Stats, result timetable.TableResult) {
	for _, rowErr := range result.RowErrs {
		log.WithField("row", rowErr.Row).
			WithField("raw", rowErr.Raw).
			WithError(rowErr.Err).
			WarnContext(ctx, "Row rejected")
	}
	for _, slotErr := range result.SlotErrs {
		log.WithField("row", slotErr.Row).
			WithField("day", slotErr.Day).
			WithField("tokens", slotErr.Tokens).
			WithError(slotErr.Err).
			WarnContext(ctx, "Slot rejected")
		if m != nil {
			m.RecordRejectedSlot(domerrors.SlotReason(slotErr))
		}
	}
	stats.RowsRejected.Add(int64(len(result.RowErrs)))
	stats.SlotsRejected.Add(int64(len(result.SlotErrs)))
	if m != nil {
		m.RecordRejectedRows(len(result.RowErrs))
	}
}

func skip(m *metrics.Metrics, stats *Stats, status string) {
	stats.Skipped.Add(1)
	if m != nil {
		m.RecordClass(status, 0)
	}
}
