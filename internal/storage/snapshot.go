package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrRemoteSnapshot is returned when snapshotting a libSQL database.
var ErrRemoteSnapshot = errors.New("snapshots require a local database")

// CreateSnapshot writes a consistent, compacted copy of the database to dest
// using VACUUM INTO. dest must not exist.
func (db *DB) CreateSnapshot(ctx context.Context, dest string) error {
	if db.remote {
		return ErrRemoteSnapshot
	}
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("snapshot destination %s already exists", dest)
	}
	if _, err := db.conn.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	return nil
}
