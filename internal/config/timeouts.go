// Package config provides centralized timeout constants for the application.
//
// Scraping is paced and never retried, so the per-request timeout is the only
// bound on how long one class page can hold a worker.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the server read timeout. API requests carry no body.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the server write timeout. /api/circolari scrapes on
	// demand, so it must cover ScraperRequest.
	HTTPWrite = 30 * time.Second

	// HTTPIdle is the idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second
)

// Scraper timeouts
const (
	// ScraperRequest is the timeout for a single page fetch.
	ScraperRequest = 10 * time.Second

	// ScraperRequestsPerSecond paces requests to the school site.
	ScraperRequestsPerSecond = 2.0
)

// Database timeouts
const (
	// DatabaseBusyTimeout matches the busy_timeout pragma of local databases.
	DatabaseBusyTimeout = 30 * time.Second
)

// Background jobs
const (
	// ReadyTimeout is how long /readyz waits for the initial seed before
	// reporting ready anyway.
	ReadyTimeout = 3 * time.Minute

	// SnapshotTransfer bounds one snapshot upload or download.
	SnapshotTransfer = 2 * time.Minute

	// SeedLeaseTTL is how long a crashed seeder keeps others from seeding.
	SeedLeaseTTL = 30 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown lets in-flight requests finish before the server stops.
	GracefulShutdown = 30 * time.Second
)
