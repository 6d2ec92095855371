package r2client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// LeaseStore is the subset of Client a Lease needs.
type LeaseStore interface {
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	PutObjectIfNotExists(ctx context.Context, key string, body io.Reader, contentType string) (bool, string, error)
	PutObjectIfMatch(ctx context.Context, key string, body io.Reader, etag, contentType string) (bool, string, error)
	DeleteObject(ctx context.Context, key string) error
}

// LeaseInfo is the JSON body of a lease object.
type LeaseInfo struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Lease is a mutual-exclusion object built on conditional writes. An expired
// lease may be taken over by another owner.
type Lease struct {
	store   LeaseStore
	key     string
	ttl     time.Duration
	ownerID string
	etag    string
	now     func() time.Time
}

// NewLease creates a lease handle with a fresh owner ID.
func NewLease(store LeaseStore, key string, ttl time.Duration) *Lease {
	return &Lease{
		store:   store,
		key:     key,
		ttl:     ttl,
		ownerID: uuid.NewString(),
		now:     time.Now,
	}
}

// OwnerID returns the unique identifier of this lease holder.
func (l *Lease) OwnerID() string {
	return l.ownerID
}

func (l *Lease) body() (io.Reader, error) {
	data, err := json.Marshal(LeaseInfo{Owner: l.ownerID, ExpiresAt: l.now().Add(l.ttl)})
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// Acquire takes the lease. It returns false without error when another
// owner holds an unexpired lease.
func (l *Lease) Acquire(ctx context.Context) (bool, error) {
	body, err := l.body()
	if err != nil {
		return false, fmt.Errorf("acquire lease: %w", err)
	}
	created, etag, err := l.store.PutObjectIfNotExists(ctx, l.key, body, "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lease: %w", err)
	}
	if created {
		l.etag = etag
		return true, nil
	}

	info, currentETag, err := l.read(ctx)
	if errors.Is(err, ErrNotFound) {
		// Released between our write and read; next attempt will create it.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquire lease: %w", err)
	}
	if info != nil && l.now().Before(info.ExpiresAt) {
		return false, nil
	}

	if body, err = l.body(); err != nil {
		return false, fmt.Errorf("acquire lease: %w", err)
	}
	taken, etag, err := l.store.PutObjectIfMatch(ctx, l.key, body, currentETag, "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lease: take over: %w", err)
	}
	if taken {
		l.etag = etag
	}
	return taken, nil
}

// Release deletes the lease if this handle still owns it.
func (l *Lease) Release(ctx context.Context) error {
	info, _, err := l.read(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	if info != nil && info.Owner != l.ownerID {
		return nil
	}
	l.etag = ""
	return l.store.DeleteObject(ctx, l.key)
}

// read returns the current lease. A nil info means the body was unreadable
// and the lease counts as expired.
func (l *Lease) read(ctx context.Context) (*LeaseInfo, string, error) {
	body, etag, err := l.store.Download(ctx, l.key)
	if err != nil {
		return nil, "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", fmt.Errorf("read lease: %w", err)
	}
	var info LeaseInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, etag, nil
	}
	return &info, etag, nil
}
