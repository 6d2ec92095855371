// Package snapshot publishes the seeded database to object storage and
// restores it on instances that start without local data.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/garyellow/school-timetable-go/internal/metrics"
	"github.com/garyellow/school-timetable-go/internal/r2client"
)

// ErrNotFound indicates no snapshot has been published yet.
var ErrNotFound = errors.New("snapshot: not found")

// ErrLeaseHeld indicates another instance is seeding.
var ErrLeaseHeld = errors.New("snapshot: seed lease held by another instance")

// Store is the object storage used by a Manager.
type Store interface {
	r2client.LeaseStore
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	HeadObject(ctx context.Context, key string) (string, error)
}

// Source produces a consistent copy of a database at dest.
type Source interface {
	CreateSnapshot(ctx context.Context, dest string) error
}

// Config holds snapshot manager configuration.
type Config struct {
	SnapshotKey string        // object key, e.g. "snapshots/timetable.db.zst"
	LeaseKey    string        // object key of the seed lease; empty disables leasing
	LeaseTTL    time.Duration // how long a crashed seeder blocks others
	TempDir     string
}

// Manager moves database snapshots to and from object storage.
type Manager struct {
	store   Store
	cfg     Config
	metrics *metrics.Metrics

	mu          sync.RWMutex
	currentETag string
}

// New creates a snapshot manager. m may be nil.
func New(store Store, cfg Config, m *metrics.Metrics) *Manager {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 30 * time.Minute
	}
	return &Manager{store: store, cfg: cfg, metrics: m}
}

// Publish compresses a snapshot of src and uploads it.
// Returns the ETag of the uploaded object.
func (m *Manager) Publish(ctx context.Context, src Source) (etag string, err error) {
	defer func() { m.record("upload", err) }()

	snapshotPath := filepath.Join(m.cfg.TempDir, fmt.Sprintf("timetable_%d.db", time.Now().UnixNano()))
	if err := src.CreateSnapshot(ctx, snapshotPath); err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(snapshotPath)

	compressedPath := snapshotPath + ".zst"
	if err := r2client.CompressFile(snapshotPath, compressedPath); err != nil {
		return "", err
	}
	defer os.Remove(compressedPath)

	f, err := os.Open(compressedPath)
	if err != nil {
		return "", fmt.Errorf("open compressed snapshot: %w", err)
	}
	defer f.Close()

	etag, err = m.store.Upload(ctx, m.cfg.SnapshotKey, f, "application/zstd")
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	m.setETag(etag)

	slog.InfoContext(ctx, "Snapshot published",
		"key", m.cfg.SnapshotKey,
		"etag", etag)
	return etag, nil
}

// Restore downloads the latest snapshot into dbPath. The file is written
// beside dbPath and renamed into place, so a failed download never leaves a
// truncated database. Returns ErrNotFound when nothing was published.
func (m *Manager) Restore(ctx context.Context, dbPath string) (etag string, err error) {
	defer func() {
		if !errors.Is(err, ErrNotFound) {
			m.record("download", err)
		}
	}()

	body, etag, err := m.store.Download(ctx, m.cfg.SnapshotKey)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("download snapshot: %w", err)
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return "", fmt.Errorf("create database directory: %w", err)
	}
	tmpPath := fmt.Sprintf("%s.restore-%d", dbPath, time.Now().UnixNano())
	if err := r2client.DecompressStream(body, tmpPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("decompress snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, dbPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("install snapshot: %w", err)
	}
	// Stale WAL files belong to the replaced database.
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")

	m.setETag(etag)
	slog.InfoContext(ctx, "Snapshot restored",
		"key", m.cfg.SnapshotKey,
		"etag", etag,
		"path", dbPath)
	return etag, nil
}

// RemoteETag returns the ETag of the published snapshot.
func (m *Manager) RemoteETag(ctx context.Context) (string, error) {
	etag, err := m.store.HeadObject(ctx, m.cfg.SnapshotKey)
	if errors.Is(err, r2client.ErrNotFound) {
		return "", ErrNotFound
	}
	return etag, err
}

// WithSeedLease runs fn while holding the seed lease, so instances sharing a
// bucket never seed at the same time. It returns ErrLeaseHeld without calling
// fn when another instance holds the lease. Without a LeaseKey fn always runs.
func (m *Manager) WithSeedLease(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.cfg.LeaseKey == "" {
		return fn(ctx)
	}

	lease := r2client.NewLease(m.store, m.cfg.LeaseKey, m.cfg.LeaseTTL)
	acquired, err := lease.Acquire(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		return ErrLeaseHeld
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			slog.WarnContext(ctx, "Failed to release seed lease", "error", err)
		}
	}()

	return fn(ctx)
}

// CurrentETag returns the ETag of the last snapshot published or restored.
func (m *Manager) CurrentETag() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentETag
}

func (m *Manager) setETag(etag string) {
	m.mu.Lock()
	m.currentETag = etag
	m.mu.Unlock()
}

func (m *Manager) record(op string, err error) {
	if m.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.metrics.RecordSnapshot(op, status)
}

// NeedsRestore reports whether the local database at path is missing or empty.
func NeedsRestore(path string) bool {
	info, err := os.Stat(path)
	return err != nil || info.Size() == 0
}
