package r2client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory LeaseStore with S3 conditional write semantics.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	etags   map[string]string
	version int
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, etags: map[string]string{}}
}

func (s *memStore) write(key string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.version++
	etag := fmt.Sprintf("v%d", s.version)
	s.objects[key] = data
	s.etags[key] = etag
	return etag, nil
}

func (s *memStore) Download(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, "", ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), s.etags[key], nil
}

func (s *memStore) PutObjectIfNotExists(_ context.Context, key string, body io.Reader, _ string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; ok {
		return false, "", nil
	}
	etag, err := s.write(key, body)
	return err == nil, etag, err
}

func (s *memStore) PutObjectIfMatch(_ context.Context, key string, body io.Reader, etag, _ string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.etags[key] != etag {
		return false, "", nil
	}
	newETag, err := s.write(key, body)
	return err == nil, newETag, err
}

func (s *memStore) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.etags, key)
	return nil
}

func (s *memStore) exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

const leaseKey = "locks/seed.json"

func TestLease_ExclusiveUntilReleased(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()
	a := NewLease(store, leaseKey, time.Minute)
	b := NewLease(store, leaseKey, time.Minute)
	assert.NotEqual(t, a.OwnerID(), b.OwnerID())

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "held lease must not be taken")

	require.NoError(t, b.Release(ctx))
	assert.True(t, store.exists(leaseKey), "non-owner release is a no-op")

	require.NoError(t, a.Release(ctx))
	assert.False(t, store.exists(leaseKey))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLease_TakesOverExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()

	stale := NewLease(store, leaseKey, time.Minute)
	stale.now = func() time.Time { return time.Now().Add(-time.Hour) }
	ok, err := stale.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	fresh := NewLease(store, leaseKey, time.Minute)
	ok, err = fresh.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	body, _, err := store.Download(ctx, leaseKey)
	require.NoError(t, err)
	var info LeaseInfo
	require.NoError(t, json.NewDecoder(body).Decode(&info))
	assert.Equal(t, fresh.OwnerID(), info.Owner)
}

func TestLease_CorruptBodyCountsAsExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore()
	_, _, err := store.PutObjectIfNotExists(ctx, leaseKey, bytes.NewReader([]byte("{garbage")), "")
	require.NoError(t, err)

	ok, err := NewLease(store, leaseKey, time.Minute).Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLease_ReleaseMissing(t *testing.T) {
	t.Parallel()
	assert.NoError(t, NewLease(newMemStore(), leaseKey, time.Minute).Release(context.Background()))
}
