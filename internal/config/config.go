// Package config provides application configuration management.
// It loads settings from environment variables (and an optional .env file)
// and validates them according to the command being run.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/garyellow/school-timetable-go/internal/timetable"
)

// Defaults for the source site.
const (
	DefaultIndexURL     = "https://orario.itismeucci.edu.it/2024-2025/2025-04-26%20-%20Orario%20a%207%20ore/index.html"
	DefaultCircolariURL = "https://web.spaggiari.eu/sdg/app/default/comunicati.php?sede_codice=FIIT0009&referer=www.itismeucci.net"
	// DefaultCircolariDocURL is a fmt template taking the document ID.
	DefaultCircolariDocURL = "https://web.spaggiari.eu/sdg/app/default/view_documento.php?a=akVIEW_FROM_ID&id_documento=%s&sede_codice=FIIT0009"
)

// ValidationMode selects which settings Validate requires.
type ValidationMode int

const (
	// ServerMode validates everything the HTTP server needs.
	ServerMode ValidationMode = iota
	// SeedMode validates what a one-shot seed run needs.
	SeedMode
	// ToolMode validates only parser settings (discover, parse).
	ToolMode
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	FrontendOrigin  string        // CORS allowed origin (empty = CORS disabled)
	ReadyTimeout    time.Duration // /readyz reports ready after this even without a seed

	// Data Configuration
	DataDir           string // Data directory for the local SQLite database
	DatabaseURL       string // libsql:// or https:// URL; overrides DataDir when set
	DatabaseAuthToken string

	// Source site
	IndexURL          string
	ClassLinkSelector string
	CircolariURL      string
	CircolariDocURL   string

	// Parser
	CellMode        string
	EndTimePolicy   string
	FourTokenPolicy string
	LessonDurations []int
	Periods         []string // "HH:MM-HH:MM", used by the deferred end-time policy

	// Seed
	SeedWorkers   int
	SeedDedup     bool
	SeedOnStartup bool
	SeedInterval  time.Duration // 0 disables scheduled re-seeding

	// Scraper Configuration
	ScraperTimeout   time.Duration
	ScraperRPS       float64
	ScraperBurst     int
	ScraperUserAgent string

	// R2 Snapshot Configuration
	R2Enabled         bool
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2Endpoint        string // overrides the endpoint derived from R2AccountID
	R2SnapshotKey     string
	R2LeaseKey        string // empty disables the cross-instance seed lease
	R2LeaseTTL        time.Duration

	// Sentry Configuration
	SentryEnabled          bool
	SentryDSN              string
	SentryEnvironment      string
	SentryRelease          string
	SentrySampleRate       float64
	SentryTracesSampleRate float64

	// Better Stack Configuration
	BetterStackToken string

	// Metrics Authentication
	MetricsUsername string // Username for /metrics Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics Basic Auth (empty = no auth)
}

// Load reads and validates configuration for server mode.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from environment variables and validates
// it for mode. It attempts to load a .env file first.
func LoadForMode(mode ValidationMode) (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, "4000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		FrontendOrigin:  getEnv(EnvFrontendOrigin, "http://localhost:5173"),
		ReadyTimeout:    getDurationEnv(EnvReadyTimeout, ReadyTimeout),

		DataDir:           getEnv(EnvDataDir, getDefaultDataDir()),
		DatabaseURL:       getEnv(EnvDatabaseURL, ""),
		DatabaseAuthToken: getEnv(EnvDatabaseAuthToken, ""),

		IndexURL:          getEnv(EnvIndexURL, DefaultIndexURL),
		ClassLinkSelector: getEnv(EnvClassLinkSelector, timetable.DefaultClassLinkSelector),
		CircolariURL:      getEnv(EnvCircolariURL, DefaultCircolariURL),
		CircolariDocURL:   getEnv(EnvCircolariDocURL, DefaultCircolariDocURL),

		CellMode:        getEnv(EnvCellMode, string(timetable.CellModeLink)),
		EndTimePolicy:   getEnv(EnvEndTimePolicy, string(timetable.EndTimeFixed)),
		FourTokenPolicy: getEnv(EnvFourTokenPolicy, string(timetable.FourTokenHeuristic)),
		LessonDurations: getIntListEnv(EnvLessonDurations, timetable.DefaultDurations),
		Periods:         getListEnv(EnvPeriods, nil),

		SeedWorkers:   getIntEnv(EnvSeedWorkers, 1),
		SeedDedup:     getBoolEnv(EnvSeedDedup, false),
		SeedOnStartup: getBoolEnv(EnvSeedOnStartup, false),
		SeedInterval:  getDurationEnv(EnvSeedInterval, 0),

		ScraperTimeout:   getDurationEnv(EnvScraperTimeout, ScraperRequest),
		ScraperRPS:       getFloatEnv(EnvScraperRPS, ScraperRequestsPerSecond),
		ScraperBurst:     getIntEnv(EnvScraperBurst, 1),
		ScraperUserAgent: getEnv(EnvScraperUserAgent, ""),

		R2Enabled:         getBoolEnv(EnvR2Enabled, false),
		R2AccountID:       getEnv(EnvR2AccountID, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2BucketName:      getEnv(EnvR2BucketName, ""),
		R2Endpoint:        getEnv(EnvR2Endpoint, ""),
		R2SnapshotKey:     getEnv(EnvR2SnapshotKey, "snapshots/timetable.db.zst"),
		R2LeaseKey:        getEnv(EnvR2LeaseKey, "locks/seed.json"),
		R2LeaseTTL:        getDurationEnv(EnvR2LeaseTTL, SeedLeaseTTL),

		SentryEnabled:          getBoolEnv(EnvSentryEnabled, false),
		SentryDSN:              getEnv(EnvSentryDSN, ""),
		SentryEnvironment:      getEnv(EnvSentryEnvironment, "production"),
		SentryRelease:          getEnv(EnvSentryRelease, ""),
		SentrySampleRate:       getFloatEnv(EnvSentrySampleRate, 1.0),
		SentryTracesSampleRate: getFloatEnv(EnvSentryTracesSampleRate, 0.0),

		BetterStackToken: getEnv(EnvBetterStackToken, ""),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),
	}

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for server mode.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks the settings mode depends on and joins every
// problem found into one error.
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	if _, err := c.ParserOptions(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.PeriodSchedule(); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", EnvPeriods, err))
	}
	if c.EndTimePolicy == string(timetable.EndTimeDeferred) && len(c.Periods) == 0 {
		errs = append(errs, fmt.Errorf("%s is required when %s=deferred", EnvPeriods, EnvEndTimePolicy))
	}

	if mode == ToolMode {
		return errors.Join(errs...)
	}

	if err := validateURL(EnvIndexURL, c.IndexURL); err != nil {
		errs = append(errs, err)
	}
	if c.DatabaseURL == "" && c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%s or %s is required", EnvDataDir, EnvDatabaseURL))
	}
	if c.SeedWorkers < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", EnvSeedWorkers, c.SeedWorkers))
	}
	if c.ScraperTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvScraperTimeout, c.ScraperTimeout))
	}
	if c.ScraperRPS < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %v", EnvScraperRPS, c.ScraperRPS))
	}
	if c.R2Enabled {
		for key, value := range map[string]string{
			EnvR2AccessKeyID:     c.R2AccessKeyID,
			EnvR2SecretAccessKey: c.R2SecretAccessKey,
			EnvR2BucketName:      c.R2BucketName,
			EnvR2SnapshotKey:     c.R2SnapshotKey,
		} {
			if value == "" {
				errs = append(errs, fmt.Errorf("%s is required when R2 is enabled", key))
			}
		}
		if c.R2AccountID == "" && c.R2Endpoint == "" {
			errs = append(errs, fmt.Errorf("%s or %s is required when R2 is enabled", EnvR2AccountID, EnvR2Endpoint))
		}
	}
	if c.SentryEnabled && c.SentryDSN == "" {
		errs = append(errs, fmt.Errorf("%s is required when Sentry is enabled", EnvSentryDSN))
	}

	if mode == ServerMode {
		if c.Port == "" {
			errs = append(errs, fmt.Errorf("%s is required", EnvPort))
		}
		if c.SeedInterval < 0 {
			errs = append(errs, fmt.Errorf("%s cannot be negative, got %v", EnvSeedInterval, c.SeedInterval))
		}
		if c.CircolariDocURL != "" && !strings.Contains(c.CircolariDocURL, "%s") {
			errs = append(errs, fmt.Errorf("%s must contain %%s for the document ID", EnvCircolariDocURL))
		}
	}

	return errors.Join(errs...)
}

// ParserOptions converts the parser settings into timetable options.
func (c *Config) ParserOptions() (timetable.Options, error) {
	opts := timetable.DefaultOptions()
	opts.CellMode = timetable.CellMode(c.CellMode)
	opts.EndTimePolicy = timetable.EndTimePolicy(c.EndTimePolicy)
	opts.FourTokenPolicy = timetable.FourTokenPolicy(c.FourTokenPolicy)
	if len(c.LessonDurations) > 0 {
		opts.Durations = c.LessonDurations
	}
	if err := opts.Validate(); err != nil {
		return timetable.Options{}, fmt.Errorf("parser config: %w", err)
	}
	return opts, nil
}

// PeriodSchedule parses Periods. Returns nil when none are configured.
func (c *Config) PeriodSchedule() (*timetable.PeriodSchedule, error) {
	if len(c.Periods) == 0 {
		return nil, nil
	}
	return timetable.ParsePeriodSchedule(c.Periods)
}

// DatabaseDSN returns the remote database URL when set, else the local
// SQLite path under DataDir.
func (c *Config) DatabaseDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.SQLitePath()
}

// SQLitePath returns the full path to the local SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "timetable.db")
}

// R2EndpointURL returns the S3 endpoint for the configured R2 account.
func (c *Config) R2EndpointURL() string {
	if c.R2Endpoint != "" {
		return c.R2Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2AccountID)
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated variable, dropping empty entries.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

// getIntListEnv parses a comma-separated integer list. Any invalid entry
// falls back to the default for the whole list.
func getIntListEnv(key string, defaultValue []int) []int {
	items := getListEnv(key, nil)
	if len(items) == 0 {
		return defaultValue
	}
	result := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil {
			return defaultValue
		}
		result = append(result, n)
	}
	return result
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
