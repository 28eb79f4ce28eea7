package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dirge/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

// ErrKeyCollision is returned when a Put finds an existing entry under the
// same key with different content. Treated as an integrity failure, never
// silently overwritten.
var ErrKeyCollision = errors.New("cache key collision")

// Store persists translation results to SQLite.
//
// Storage location: .dirge/cache/translations.db
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Entry is a single cached translation result.
type Entry struct {
	Key         Key
	Kind        string
	Instruction string
	Payload     string // Serialized result (JSON)
	CreatedAt   time.Time
	HitCount    int
}

// Stats provides storage statistics for CLI inspection.
type Stats struct {
	TotalEntries  int
	TotalHits     int
	KindBreakdown map[string]int
}

// NewStore opens (or creates) a cache store at the given path.
func NewStore(dbPath string) (*Store, error) {
	logging.CacheDebug("Initializing cache store at path: %s", dbPath)

	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		logging.Get(logging.CategoryCache).Error("Failed to open cache database at %s: %v", dbPath, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initialize creates the database schema.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translations (
		key TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		instruction TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		hit_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_translations_kind ON translations(kind);
	CREATE INDEX IF NOT EXISTS idx_translations_created ON translations(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Get returns the entry for key, or nil when absent. A hit bumps the entry's
// hit counter.
func (s *Store) Get(key Key) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var e Entry
	err := s.db.QueryRow(`
		SELECT key, kind, instruction, payload, created_at, hit_count
		FROM translations WHERE key = ?`, string(key),
	).Scan(&e.Key, &e.Kind, &e.Instruction, &e.Payload, &e.CreatedAt, &e.HitCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entry: %w", err)
	}

	if _, err := s.db.Exec(`UPDATE translations SET hit_count = hit_count + 1 WHERE key = ?`, string(key)); err != nil {
		logging.Get(logging.CategoryCache).Warn("Failed to bump hit count for %s: %v", key, err)
	}
	e.HitCount++
	return &e, nil
}

// Put stores an entry. Re-storing identical content is a no-op; differing
// content under an existing key fails with ErrKeyCollision.
func (s *Store) Put(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existingKind, existingPayload string
	err := s.db.QueryRow(`SELECT kind, payload FROM translations WHERE key = ?`, string(e.Key)).
		Scan(&existingKind, &existingPayload)
	switch {
	case err == nil:
		if existingKind == e.Kind && existingPayload == e.Payload {
			return nil
		}
		return fmt.Errorf("%w: key %s already holds different content", ErrKeyCollision, e.Key)
	case err != sql.ErrNoRows:
		return fmt.Errorf("failed to check existing entry: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO translations (key, kind, instruction, payload)
		VALUES (?, ?, ?, ?)`,
		string(e.Key), e.Kind, e.Instruction, e.Payload)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	logging.CacheDebug("Stored %s entry %s (%d bytes)", e.Kind, e.Key, len(e.Payload))
	return nil
}

// Delete removes the entry for key. Deleting a missing key is not an error.
func (s *Store) Delete(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM translations WHERE key = ?`, string(key)); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// Entries lists all stored entries, newest first.
func (s *Store) Entries() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT key, kind, instruction, payload, created_at, hit_count
		FROM translations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Kind, &e.Instruction, &e.Payload, &e.CreatedAt, &e.HitCount); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetStats returns aggregate counters for the store.
func (s *Store) GetStats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{KindBreakdown: make(map[string]int)}

	err := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(hit_count), 0) FROM translations`).
		Scan(&stats.TotalEntries, &stats.TotalHits)
	if err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}

	rows, err := s.db.Query(`SELECT kind, COUNT(*) FROM translations GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by kind: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan kind count: %w", err)
		}
		stats.KindBreakdown[kind] = count
	}
	return stats, rows.Err()
}

// Clear deletes every entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM translations`); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
