package config

// Environment variable keys.
//
//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "TIMETABLE_PORT"
	EnvLogLevel        = "TIMETABLE_LOG_LEVEL"
	EnvShutdownTimeout = "TIMETABLE_SHUTDOWN_TIMEOUT"
	EnvFrontendOrigin  = "TIMETABLE_FRONTEND_ORIGIN"
	EnvReadyTimeout    = "TIMETABLE_READY_TIMEOUT"

	// Data
	EnvDataDir           = "TIMETABLE_DATA_DIR"
	EnvDatabaseURL       = "TIMETABLE_DATABASE_URL"
	EnvDatabaseAuthToken = "TIMETABLE_DATABASE_AUTH_TOKEN"

	// Source site
	EnvIndexURL          = "TIMETABLE_INDEX_URL"
	EnvClassLinkSelector = "TIMETABLE_CLASS_LINK_SELECTOR"
	EnvCircolariURL      = "TIMETABLE_CIRCOLARI_URL"
	EnvCircolariDocURL   = "TIMETABLE_CIRCOLARI_DOC_URL"

	// Parser
	EnvCellMode        = "TIMETABLE_CELL_MODE"
	EnvEndTimePolicy   = "TIMETABLE_END_TIME_POLICY"
	EnvFourTokenPolicy = "TIMETABLE_FOUR_TOKEN_POLICY"
	EnvLessonDurations = "TIMETABLE_LESSON_DURATIONS"
	EnvPeriods         = "TIMETABLE_PERIODS"

	// Seed
	EnvSeedWorkers   = "TIMETABLE_SEED_WORKERS"
	EnvSeedDedup     = "TIMETABLE_SEED_DEDUP"
	EnvSeedOnStartup = "TIMETABLE_SEED_ON_STARTUP"
	EnvSeedInterval  = "TIMETABLE_SEED_INTERVAL"

	// Scraper
	EnvScraperTimeout   = "TIMETABLE_SCRAPER_TIMEOUT"
	EnvScraperRPS       = "TIMETABLE_SCRAPER_RPS"
	EnvScraperBurst     = "TIMETABLE_SCRAPER_BURST"
	EnvScraperUserAgent = "TIMETABLE_SCRAPER_USER_AGENT"

	// R2 Snapshot Feature
	EnvR2Enabled         = "TIMETABLE_R2_ENABLED"
	EnvR2AccountID       = "TIMETABLE_R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "TIMETABLE_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "TIMETABLE_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "TIMETABLE_R2_BUCKET_NAME"
	EnvR2Endpoint        = "TIMETABLE_R2_ENDPOINT"
	EnvR2SnapshotKey     = "TIMETABLE_R2_SNAPSHOT_KEY"
	EnvR2LeaseKey        = "TIMETABLE_R2_LEASE_KEY"
	EnvR2LeaseTTL        = "TIMETABLE_R2_LEASE_TTL"

	// Sentry Feature
	EnvSentryEnabled          = "TIMETABLE_SENTRY_ENABLED"
	EnvSentryDSN              = "TIMETABLE_SENTRY_DSN"
	EnvSentryEnvironment      = "TIMETABLE_SENTRY_ENVIRONMENT"
	EnvSentryRelease          = "TIMETABLE_SENTRY_RELEASE"
	EnvSentrySampleRate       = "TIMETABLE_SENTRY_SAMPLE_RATE"
	EnvSentryTracesSampleRate = "TIMETABLE_SENTRY_TRACES_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken = "TIMETABLE_BETTERSTACK_TOKEN"

	// Metrics Auth Feature
	EnvMetricsUsername = "TIMETABLE_METRICS_USERNAME"
	EnvMetricsPassword = "TIMETABLE_METRICS_PASSWORD"
)
