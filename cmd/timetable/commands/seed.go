package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/garyellow/school-timetable-go/internal/app"
	"github.com/garyellow/school-timetable-go/internal/config"
	domerrors "github.com/garyellow/school-timetable-go/internal/errors"
	"github.com/garyellow/school-timetable-go/internal/seed"
	"github.com/garyellow/school-timetable-go/internal/sentry"
	"github.com/garyellow/school-timetable-go/internal/storage"
)

var (
	seedDryRun  *bool
	seedWorkers *int
	seedDedup   *bool
	seedIndex   *string
)

func init() {
	seedDryRun = seedCmd.Flags().Bool("dry-run", false, "Fetch and parse every class without touching the database.")
	seedWorkers = seedCmd.Flags().Int("workers", 0, "Classes processed in parallel (0 = TIMETABLE_SEED_WORKERS).")
	seedDedup = seedCmd.Flags().Bool("dedup", false, "Drop discovered classes that share a URL.")
	seedIndex = seedCmd.Flags().String("index", "", "Index page URL (default TIMETABLE_INDEX_URL).")
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed [--dry-run] [--workers N] [--dedup] [--index URL]",
	Short: "Replaces the stored timetable with a fresh scrape of every class.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, err := config.LoadForMode(config.SeedMode)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if *seedWorkers > 0 {
			cfg.SeedWorkers = *seedWorkers
		}
		if *seedDedup {
			cfg.SeedDedup = true
		}
		if *seedIndex != "" {
			cfg.IndexURL = *seedIndex
		}

		log := app.NewLogger(cfg)
		defer func() { _ = log.Shutdown(context.WithoutCancel(ctx)) }()
		app.InitSentry(cfg, log)
		defer sentry.Flush(2 * time.Second)

		opts, err := app.SeedOptions(cfg, nil, *seedDryRun)
		if err != nil {
			return err
		}
		fetcher := app.NewScraper(cfg, nil)

		var job seed.Job
		if *seedDryRun {
			job = seed.NewJob(fetcher, nil, log.WithModule("seed"), opts)
		} else {
			db, err := storage.New(ctx, cfg.DatabaseDSN(), cfg.DatabaseAuthToken)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer func() { _ = db.Close() }()

			snaps, err := app.NewSnapshots(ctx, cfg, nil, db.IsRemote())
			if err != nil {
				return err
			}
			job = app.PublishingJob(seed.NewJob(fetcher, db, log.WithModule("seed"), opts), db, snaps, log.WithModule("snapshot"))
		}

		start := time.Now()
		stats, err := job(ctx)
		if stats != nil {
			printStats(cmd.OutOrStdout(), stats, time.Since(start))
		}
		if err != nil {
			if domerrors.IsFatal(err) || domerrors.IsPersistenceError(err) {
				sentry.CaptureException(ctx, err)
			}
			return err
		}
		return nil
	},
}

func printStats(out io.Writer, stats *seed.Stats, elapsed time.Duration) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Discovered", "Seeded", "Skipped", "Lessons", "Rows rejected", "Slots rejected", "Duration"})
	t.AppendRow(table.Row{
		stats.Discovered.Load(),
		stats.Seeded.Load(),
		stats.Skipped.Load(),
		stats.Lessons.Load(),
		stats.RowsRejected.Load(),
		stats.SlotsRejected.Load(),
		elapsed.Round(time.Millisecond),
	})
	t.Render()
}
