package gate

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Kind distinguishes the two gate namespaces.
type Kind string

const (
	// KindRoom gates announcements into a room.
	KindRoom Kind = "room"

	// KindPerson mutes person-targeted announcements.
	KindPerson Kind = "person"
)

// Store is the read/write interface the announcement pipeline consumes.
//
// Reads are answered from memory and never fail; unknown gates are
// enabled. Writes persist before updating the cache.
type Store interface {
	Enabled(kind Kind, id string) bool
	SetEnabled(ctx context.Context, kind Kind, id string, enabled bool) error
	Snapshot() map[string]bool
}

// SQLiteStore implements Store backed by the gates table.
//
// All methods are safe for concurrent use.
type SQLiteStore struct {
	db    *sql.DB
	cache map[string]bool
	mu    sync.RWMutex
}

// NewSQLiteStore creates a gate store. Call Load before first use to
// warm the cache from the database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db:    db,
		cache: make(map[string]bool),
	}
}

// Load reads all persisted gate rows into the cache.
func (s *SQLiteStore) Load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT key, enabled FROM gates")
	if err != nil {
		return fmt.Errorf("querying gates: %w", err)
	}
	defer rows.Close()

	cache := make(map[string]bool)
	for rows.Next() {
		var key string
		var enabled int
		if err := rows.Scan(&key, &enabled); err != nil {
			return fmt.Errorf("scanning gate row: %w", err)
		}
		cache[key] = enabled != 0
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating gate rows: %w", err)
	}

	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()
	return nil
}

// Enabled reports whether the gate is open. Gates with no persisted
// row are enabled.
func (s *SQLiteStore) Enabled(kind Kind, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enabled, ok := s.cache[gateKey(kind, id)]
	if !ok {
		return true
	}
	return enabled
}

// SetEnabled persists a gate state and updates the cache.
func (s *SQLiteStore) SetEnabled(ctx context.Context, kind Kind, id string, enabled bool) error {
	key := gateKey(kind, id)

	const query = `INSERT INTO gates (key, enabled, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		ON CONFLICT (key) DO UPDATE SET
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`
	val := 0
	if enabled {
		val = 1
	}
	if _, err := s.db.ExecContext(ctx, query, key, val); err != nil {
		return fmt.Errorf("persisting gate %s: %w", key, err)
	}

	s.mu.Lock()
	s.cache[key] = enabled
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of all persisted gate states keyed by
// "kind:id". Gates never toggled are absent (and therefore enabled).
func (s *SQLiteStore) Snapshot() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[string]bool, len(s.cache))
	for k, v := range s.cache {
		snap[k] = v
	}
	return snap
}

func gateKey(kind Kind, id string) string {
	return string(kind) + ":" + id
}
