package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore persists blobs in a single SQLite database. Checkpoints are
// small (a few KB of JSON) and infrequent, so one table with the cid as
// primary key is enough.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the blob database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	schema := `
CREATE TABLE IF NOT EXISTS blobs (
	cid        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	pinned     INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Put stores data under its content identifier. Re-inserting an existing
// blob is a no-op.
func (s *SQLiteStore) Put(ctx context.Context, data []byte) (string, error) {
	cid := ContentID(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (cid, data, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(cid) DO NOTHING`,
		cid, data, time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}
	return cid, nil
}

// Get retrieves the blob for cid.
func (s *SQLiteStore) Get(ctx context.Context, cid string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE cid = ?`, cid).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load blob: %w", err)
	}
	return data, nil
}

// Pin marks the blob as retained.
func (s *SQLiteStore) Pin(ctx context.Context, cid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE blobs SET pinned = 1 WHERE cid = ?`, cid)
	if err != nil {
		return fmt.Errorf("failed to pin blob: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check pin result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
