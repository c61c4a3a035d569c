// Package store provides SQLite-backed key-value persistence for Brief.
//
// Values are JSON documents. Reads are lenient: a missing key or a value
// that no longer parses is reported as "not written", never as an error,
// so stale or corrupt state degrades to defaults. Writes are strict: a
// failed write surfaces as ErrWriteFailed so the caller knows progress
// was not recorded.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/abelbrown/brief/internal/logging"
	_ "modernc.org/sqlite"
)

// ErrWriteFailed indicates a persisted write did not reach the medium.
var ErrWriteFailed = errors.New("store: write failed")

// Keys for the three ledgers. Prefixed so nothing else sharing the
// database file can collide with them.
const (
	KeyMinutes = "brief.minutes"
	KeyStreak  = "brief.streak"
	KeyMastery = "brief.mastery"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	// Build connection string based on database type
	connStr := dbPath
	if dbPath == ":memory:" {
		// For in-memory databases, use shared cache mode so all connections
		// in the pool see the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// For in-memory databases, limit to 1 connection to avoid issues
	// with multiple connections getting different databases
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Enable WAL mode for file-based databases (not :memory:)
	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Get unmarshals the value stored under key into dest and reports whether
// a usable value was found. A missing key, an unreadable row, or a value
// that fails to unmarshal all report false and leave dest untouched;
// corruption is logged but never escalated.
// Thread-safe: acquires read lock.
func (s *Store) Get(key string, dest any) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logging.Warn("store read failed, using default", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logging.Warn("store value corrupt, using default", "key", key, "error", err)
		return false
	}
	return true
}

// Set marshals v and writes it under key, replacing any previous value.
// Failures are wrapped in ErrWriteFailed and returned; a swallowed write
// would silently lose progress.
// Thread-safe: acquires write lock.
func (s *Store) Set(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrWriteFailed, key, err)
	}

	_, err = s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, string(raw),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, key, err)
	}
	return nil
}

// SetRaw writes a raw value without JSON marshaling. Used by tests to
// simulate corrupt persisted state.
func (s *Store) SetRaw(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, key, err)
	}
	return nil
}
