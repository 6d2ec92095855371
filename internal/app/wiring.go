package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyellow/school-timetable-go/internal/config"
	"github.com/garyellow/school-timetable-go/internal/logger"
	"github.com/garyellow/school-timetable-go/internal/metrics"
	"github.com/garyellow/school-timetable-go/internal/r2client"
	"github.com/garyellow/school-timetable-go/internal/scraper"
	"github.com/garyellow/school-timetable-go/internal/seed"
	"github.com/garyellow/school-timetable-go/internal/snapshot"
	"github.com/garyellow/school-timetable-go/internal/storage"
)

// NewScraper builds the fetch client from configuration.
func NewScraper(cfg *config.Config, m *metrics.Metrics) *scraper.Client {
	return scraper.NewClient(scraper.Config{
		Timeout:           cfg.ScraperTimeout,
		RequestsPerSecond: cfg.ScraperRPS,
		Burst:             cfg.ScraperBurst,
		UserAgent:         cfg.ScraperUserAgent,
	}, m)
}

// SeedOptions converts configuration into seed options.
func SeedOptions(cfg *config.Config, m *metrics.Metrics, dryRun bool) (seed.Options, error) {
	parser, err := cfg.ParserOptions()
	if err != nil {
		return seed.Options{}, err
	}
	periods, err := cfg.PeriodSchedule()
	if err != nil {
		return seed.Options{}, fmt.Errorf("%s: %w", config.EnvPeriods, err)
	}
	return seed.Options{
		IndexURL:     cfg.IndexURL,
		LinkSelector: cfg.ClassLinkSelector,
		Parser:       parser,
		Workers:      cfg.SeedWorkers,
		Dedup:        cfg.SeedDedup,
		DryRun:       dryRun,
		Periods:      periods,
		Metrics:      m,
	}, nil
}

// NewSnapshots returns the snapshot manager, or nil when R2 is disabled.
// The seed lease is only taken for a remote database: with a local file
// every instance seeds its own copy.
func NewSnapshots(ctx context.Context, cfg *config.Config, m *metrics.Metrics, remoteDB bool) (*snapshot.Manager, error) {
	if !cfg.R2Enabled {
		return nil, nil
	}

	client, err := r2client.New(ctx, r2client.Config{
		Endpoint:    cfg.R2EndpointURL(),
		AccessKeyID: cfg.R2AccessKeyID,
		SecretKey:   cfg.R2SecretAccessKey,
		BucketName:  cfg.R2BucketName,
	})
	if err != nil {
		return nil, fmt.Errorf("r2: %w", err)
	}

	snapCfg := snapshot.Config{
		SnapshotKey: cfg.R2SnapshotKey,
		LeaseTTL:    cfg.R2LeaseTTL,
		TempDir:     cfg.DataDir,
	}
	if remoteDB {
		snapCfg.LeaseKey = cfg.R2LeaseKey
	}
	return snapshot.New(client, snapCfg, m), nil
}

// RestoreIfEmpty downloads the published snapshot when the local database
// file is missing or empty. A missing snapshot is not an error.
func RestoreIfEmpty(ctx context.Context, snaps *snapshot.Manager, dbPath string, log *logger.Logger) error {
	if snaps == nil || !snapshot.NeedsRestore(dbPath) {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, config.SnapshotTransfer)
	defer cancel()

	etag, err := snaps.Restore(ctx, dbPath)
	switch {
	case err == nil:
		log.WithField("etag", etag).InfoContext(ctx, "Database restored from snapshot")
		return nil
	case errors.Is(err, snapshot.ErrNotFound):
		log.InfoContext(ctx, "No snapshot published yet, starting empty")
		return nil
	default:
		return fmt.Errorf("restore snapshot: %w", err)
	}
}

// PublishingJob runs job under the seed lease and, for a local database,
// publishes a snapshot after each successful run. A failed publish is
// logged and does not fail the seed.
func PublishingJob(job seed.Job, db *storage.DB, snaps *snapshot.Manager, log *logger.Logger) seed.Job {
	if snaps == nil {
		return job
	}

	return func(ctx context.Context) (*seed.Stats, error) {
		var stats *seed.Stats
		err := snaps.WithSeedLease(ctx, func(ctx context.Context) error {
			var err error
			stats, err = job(ctx)
			if err != nil || db.IsRemote() {
				return err
			}

			pubCtx, cancel := context.WithTimeout(ctx, config.SnapshotTransfer)
			defer cancel()
			etag, pubErr := snaps.Publish(pubCtx, db)
			if pubErr != nil {
				log.WithError(pubErr).WarnContext(ctx, "Snapshot publish failed")
				return nil
			}
			log.WithField("etag", etag).InfoContext(ctx, "Snapshot published")
			return nil
		})
		return stats, err
	}
}
