package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/school-timetable-go/internal/metrics"
	"github.com/garyellow/school-timetable-go/internal/r2client"
	"github.com/garyellow/school-timetable-go/internal/storage"
	"github.com/garyellow/school-timetable-go/internal/timetable"
)

// memStore is an in-memory Store.
type memStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	etags     map[string]string
	version   int
	uploadErr error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, etags: map[string]string{}}
}

func (s *memStore) put(key string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.version++
	s.objects[key] = data
	s.etags[key] = fmt.Sprintf("etag-%d", s.version)
	return s.etags[key], nil
}

func (s *memStore) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	return s.put(key, body)
}

func (s *memStore) Download(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, "", r2client.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), s.etags[key], nil
}

func (s *memStore) HeadObject(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	etag, ok := s.etags[key]
	if !ok {
		return "", r2client.ErrNotFound
	}
	return etag, nil
}

func (s *memStore) PutObjectIfNotExists(_ context.Context, key string, body io.Reader, _ string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; ok {
		return false, "", nil
	}
	etag, err := s.put(key, body)
	return err == nil, etag, err
}

func (s *memStore) PutObjectIfMatch(_ context.Context, key string, body io.Reader, etag, _ string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.etags[key] != etag {
		return false, "", nil
	}
	newETag, err := s.put(key, body)
	return err == nil, newETag, err
}

func (s *memStore) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.etags, key)
	return nil
}

func seededDB(t *testing.T) *storage.DB {
	t.Helper()
	ctx := context.Background()
	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	id, err := db.CreateClass(ctx, "1AI")
	require.NoError(t, err)
	require.NoError(t, db.CreateLesson(ctx, timetable.Lesson{
		ClassRef: id, Day: 0, StartTime: "08:00", EndTime: "08:50", Subject: "Mathematics", Teacher: "Rossi",
	}))
	return db
}

func TestPublishRestore_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	mgr := New(store, Config{SnapshotKey: "snapshots/timetable.db.zst", TempDir: t.TempDir()}, m)

	etag, err := mgr.Publish(ctx, seededDB(t))
	require.NoError(t, err)
	assert.NotEmpty(t, etag)
	assert.Equal(t, etag, mgr.CurrentETag())

	remote, err := mgr.RemoteETag(ctx)
	require.NoError(t, err)
	assert.Equal(t, etag, remote)

	dbPath := filepath.Join(t.TempDir(), "data", "timetable.db")
	assert.True(t, NeedsRestore(dbPath))

	other := New(store, Config{SnapshotKey: "snapshots/timetable.db.zst"}, m)
	restoredETag, err := other.Restore(ctx, dbPath)
	require.NoError(t, err)
	assert.Equal(t, etag, restoredETag)
	assert.False(t, NeedsRestore(dbPath))

	restored, err := storage.New(ctx, dbPath, "")
	require.NoError(t, err)
	defer restored.Close()
	counts, err := restored.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.Counts{Classes: 1, Lessons: 1}, counts)

	assert.InDelta(t, 1, testutil.ToFloat64(m.SnapshotTotal.WithLabelValues("upload", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SnapshotTotal.WithLabelValues("download", "success")), 0)
}

func TestRestore_NotPublished(t *testing.T) {
	t.Parallel()
	mgr := New(newMemStore(), Config{SnapshotKey: "k"}, nil)

	_, err := mgr.Restore(context.Background(), filepath.Join(t.TempDir(), "x.db"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = mgr.RemoteETag(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRestore_CorruptPayloadKeepsExistingFile(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.objects["k"] = []byte("not zstd")
	store.etags["k"] = "e1"

	dbPath := filepath.Join(t.TempDir(), "timetable.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("existing"), 0o600))

	_, err := New(store, Config{SnapshotKey: "k"}, nil).Restore(context.Background(), dbPath)
	require.Error(t, err)

	data, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data))
	entries, err := os.ReadDir(filepath.Dir(dbPath))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be cleaned up")
}

func TestPublish_UploadFailure(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.uploadErr = errors.New("access denied")
	m := metrics.New(prometheus.NewRegistry())
	tmp := t.TempDir()

	_, err := New(store, Config{SnapshotKey: "k", TempDir: tmp}, m).Publish(context.Background(), seededDB(t))
	require.Error(t, err)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SnapshotTotal.WithLabelValues("upload", "error")), 0)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary files must be removed")
}

type failingSource struct{}

func (failingSource) CreateSnapshot(context.Context, string) error {
	return storage.ErrRemoteSnapshot
}

func TestPublish_RemoteDatabase(t *testing.T) {
	t.Parallel()
	_, err := New(newMemStore(), Config{SnapshotKey: "k"}, nil).Publish(context.Background(), failingSource{})
	assert.ErrorIs(t, err, storage.ErrRemoteSnapshot)
}

func TestWithSeedLease(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()
	cfg := Config{SnapshotKey: "k", LeaseKey: "locks/seed.json", LeaseTTL: time.Minute}
	a := New(store, cfg, nil)
	b := New(store, cfg, nil)

	var innerErr error
	err := a.WithSeedLease(ctx, func(ctx context.Context) error {
		innerErr = b.WithSeedLease(ctx, func(context.Context) error {
			t.Fatal("second instance must not run while the lease is held")
			return nil
		})
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, innerErr, ErrLeaseHeld)

	ran := false
	require.NoError(t, b.WithSeedLease(ctx, func(context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran, "lease must be released after the first run")
}

func TestWithSeedLease_Disabled(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	err := New(newMemStore(), Config{SnapshotKey: "k"}, nil).WithSeedLease(context.Background(), func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
