// Package widget publishes the latest daily snapshot to a local SQLite
// key/value file the companion widget reads.
package widget

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/claude/workpulse/internal/models"
	_ "modernc.org/sqlite"
)

// SnapshotKey is the key the daily snapshot is stored under.
const SnapshotKey = "daily_snapshot"

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("widget: key not found")

// Store is a small CBOR-valued key/value table in a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating widget dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening widget db: %w", err)
	}
	// One writer at a time; the publisher and readers share the handle.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv table: %w", err)
	}

	return &Store{db: db}, nil
}

// Put stores v under key. It reports whether the stored bytes changed.
func (s *Store) Put(key string, v any) (bool, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encoding %s: %w", key, err)
	}

	var old []byte
	err = s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&old)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	if bytes.Equal(old, data) {
		return false, nil
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		key, data,
	)
	if err != nil {
		return false, fmt.Errorf("writing %s: %w", key, err)
	}
	return true, nil
}

// Get decodes the value under key into v.
func (s *Store) Get(key string, v any) error {
	var data []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if err := decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// SaveSnapshot stores snap under SnapshotKey.
func (s *Store) SaveSnapshot(snap *models.WidgetSnapshot) (bool, error) {
	return s.Put(SnapshotKey, snap)
}

// LoadSnapshot returns the stored snapshot or ErrNotFound.
func (s *Store) LoadSnapshot() (*models.WidgetSnapshot, error) {
	var snap models.WidgetSnapshot
	if err := s.Get(SnapshotKey, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}
