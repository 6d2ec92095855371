package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // libSQL driver for remote databases
	_ "modernc.org/sqlite"                               // SQLite driver for database/sql
)

// DB wraps the database connection
type DB struct {
	conn   *sql.DB
	path   string
	remote bool
}

// IsRemoteURL reports whether dsn points at a libSQL server rather than a file.
func IsRemoteURL(dsn string) bool {
	return strings.HasPrefix(dsn, "libsql://") ||
		strings.HasPrefix(dsn, "https://") ||
		strings.HasPrefix(dsn, "http://") ||
		strings.HasPrefix(dsn, "wss://")
}

// New opens the database and initializes the schema.
// dsn is a SQLite file path, ":memory:", or a libSQL URL; authToken is only
// used for libSQL URLs.
func New(ctx context.Context, dsn, authToken string) (*DB, error) {
	if IsRemoteURL(dsn) {
		return openRemote(ctx, dsn, authToken)
	}
	return openLocal(ctx, dsn)
}

func openLocal(ctx context.Context, dbPath string) (*DB, error) {
	// Ensure directory exists (skip for in-memory database)
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", localDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(4)
		conn.SetMaxIdleConns(2)
		conn.SetConnMaxLifetime(time.Hour)
	}

	return finishOpen(ctx, conn, dbPath, false)
}

// sqlitePragmas are applied by the driver to every new connection.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(30000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

func localDSN(dbPath string) string {
	params := make([]string, len(sqlitePragmas))
	for i, p := range sqlitePragmas {
		params[i] = "_pragma=" + p
	}
	return dbPath + "?" + strings.Join(params, "&")
}

func openRemote(ctx context.Context, dsn, authToken string) (*DB, error) {
	if authToken != "" {
		u, err := url.Parse(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid database url: %w", err)
		}
		q := u.Query()
		q.Set("authToken", authToken)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	conn, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return finishOpen(ctx, conn, redactURL(dsn), true)
}

func finishOpen(ctx context.Context, conn *sql.DB, path string, remote bool) (*DB, error) {
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := InitSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{
		conn:   conn,
		path:   path,
		remote: remote,
	}, nil
}

// redactURL drops query parameters so tokens never reach logs.
func redactURL(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "libsql"
	}
	u.RawQuery = ""
	return u.String()
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Conn returns the underlying *sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path, or the redacted URL for remote databases
func (db *DB) Path() string {
	return db.path
}

// IsRemote reports whether the database is a libSQL server
func (db *DB) IsRemote() bool {
	return db.remote
}

// Ping checks that the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// NewTestDB creates an in-memory database for testing.
func NewTestDB() (*DB, error) {
	return New(context.Background(), ":memory:", "")
}
