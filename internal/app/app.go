// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/garyellow/school-timetable-go/internal/buildinfo"
	"github.com/garyellow/school-timetable-go/internal/circolari"
	"github.com/garyellow/school-timetable-go/internal/config"
	domerrors "github.com/garyellow/school-timetable-go/internal/errors"
	"github.com/garyellow/school-timetable-go/internal/logger"
	"github.com/garyellow/school-timetable-go/internal/metrics"
	"github.com/garyellow/school-timetable-go/internal/seed"
	"github.com/garyellow/school-timetable-go/internal/sentry"
	"github.com/garyellow/school-timetable-go/internal/snapshot"
	"github.com/garyellow/school-timetable-go/internal/storage"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg       *config.Config
	logger    *logger.Logger
	db        *storage.DB
	seedJob   seed.Job
	readiness *seed.ReadinessState
	server    *http.Server
	wg        sync.WaitGroup // background seeds, waited on before the database closes
}

// NewLogger builds the process logger from configuration and installs it as
// the slog default so package-level slog calls carry context values.
func NewLogger(cfg *config.Config) *logger.Logger {
	log := logger.NewWithOptions(logger.Options{
		Level:            cfg.LogLevel,
		BetterStackToken: cfg.BetterStackToken,
	})
	log = log.WithField("service", "school-timetable-go")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}
	slog.SetDefault(log.Logger)
	return log
}

// InitSentry enables error tracking when configured. Failure only disables
// reporting.
func InitSentry(cfg *config.Config, log *logger.Logger) {
	if !cfg.SentryEnabled {
		return
	}
	release := cfg.SentryRelease
	if release == "" {
		release = buildinfo.Release()
	}
	err := sentry.Initialize(sentry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.SentryEnvironment,
		Release:          release,
		SampleRate:       cfg.SentrySampleRate,
		TracesSampleRate: cfg.SentryTracesSampleRate,
	})
	if err != nil {
		log.WithError(err).Warn("Sentry initialization failed")
		return
	}
	log.WithField("environment", cfg.SentryEnvironment).Info("Sentry enabled")
}

// NewRegistry returns a registry with the Go runtime, process and build
// collectors installed.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	return registry
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := NewLogger(cfg)
	log.WithField("version", buildinfo.String()).Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.Info("Better Stack logging enabled")
	}
	InitSentry(cfg, log)

	registry := NewRegistry()
	m := metrics.New(registry)

	dsn := cfg.DatabaseDSN()
	snaps, err := NewSnapshots(ctx, cfg, m, storage.IsRemoteURL(dsn))
	if err != nil {
		return nil, err
	}
	if !storage.IsRemoteURL(dsn) {
		if err := RestoreIfEmpty(ctx, snaps, dsn, log); err != nil {
			// Seeding rebuilds the data anyway.
			log.WithError(err).Warn("Snapshot restore failed")
		}
	}

	db, err := storage.New(ctx, dsn, cfg.DatabaseAuthToken)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("remote", db.IsRemote()).Info("Database connected")

	seedOpts, err := SeedOptions(cfg, m, false)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	scraperClient := NewScraper(cfg, m)
	job := seed.NewJob(scraperClient, db, log.WithModule("seed"), seedOpts)

	app := &Application{
		cfg:       cfg,
		logger:    log,
		db:        db,
		seedJob:   PublishingJob(job, db, snaps, log.WithModule("snapshot")),
		readiness: newReadiness(ctx, cfg, db, log),
	}

	api := &API{
		Reader:    db,
		Readiness: app.readiness,
		Logger:    log,
	}
	if cfg.CircolariURL != "" {
		api.Notices = circolari.NewService(scraperClient, cfg.CircolariURL, cfg.CircolariDocURL)
	}

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(api, RouterConfig{
		FrontendOrigin:  cfg.FrontendOrigin,
		MetricsUsername: cfg.MetricsUsername,
		MetricsPassword: cfg.MetricsPassword,
		Registry:        registry,
		Metrics:         m,
		Sentry:          sentry.IsEnabled(),
	})

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// newReadiness reports ready at once when no startup seed is configured or
// the database already holds classes (restored or left by a previous run).
func newReadiness(ctx context.Context, cfg *config.Config, db *storage.DB, log *logger.Logger) *seed.ReadinessState {
	if !cfg.SeedOnStartup {
		return seed.NewReadinessState(0)
	}
	state := seed.NewReadinessState(cfg.ReadyTimeout)
	if counts, err := db.Counts(ctx); err == nil && counts.Classes > 0 {
		log.WithField("classes", counts.Classes).Info("Serving existing data while seeding")
		state.MarkReady()
	}
	return state
}

// Run starts the HTTP server and background seeding, then blocks until
// SIGINT or SIGTERM.
//
// Shutdown order: cancel background seeds, wait for them, stop the HTTP
// server, then close the database. Seeds must finish first so they never
// write to a closed database.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	a.startHTTPServer()

	sig := a.waitForShutdownSignal()
	a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startBackgroundJobs runs the startup seed, then the periodic scheduler,
// so the two never overlap.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	log := a.logger.WithModule("seed")
	a.wg.Go(func() {
		if a.cfg.SeedOnStartup {
			<-seed.RunInBackground(ctx, a.seedJob, log, a.onSeedDone(ctx))
		}
		seed.Schedule(ctx, a.cfg.SeedInterval, a.seedJob, log, a.onSeedDone(ctx))
	})
}

// onSeedDone marks the service ready after a usable seed and reports fatal
// failures to Sentry.
func (a *Application) onSeedDone(ctx context.Context) func(*seed.Stats, error) {
	return func(stats *seed.Stats, err error) {
		switch {
		case err == nil:
			a.readiness.MarkReady()
			a.logger.WithFields(map[string]any{
				"seeded":  stats.Seeded.Load(),
				"skipped": stats.Skipped.Load(),
				"lessons": stats.Lessons.Load(),
			}).Info("Seed completed")
		case errors.Is(err, snapshot.ErrLeaseHeld):
			// Another instance is writing the shared database.
			a.readiness.MarkReady()
			a.logger.Info("Seed skipped: lease held by another instance")
		case ctx.Err() != nil:
			// shutting down
		case domerrors.IsFatal(err) || domerrors.IsPersistenceError(err):
			sentry.CaptureException(ctx, err)
		}
	}
}

// startHTTPServer starts the HTTP server in a goroutine.
func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

// waitForShutdownSignal blocks until SIGINT/SIGTERM is received.
func (a *Application) waitForShutdownSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

// shutdown stops the HTTP server and closes resources. Call it after
// background jobs have returned.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Closing resources...")
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
	}

	if sentry.IsEnabled() {
		sentry.Flush(2 * time.Second)
	}

	a.logger.Info("Shutdown complete")
	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}
	return nil
}
