package cache

import (
	"path/filepath"

	"dirge/internal/logging"
)

// dbFileName is the store file inside the cache directory.
const dbFileName = "translations.db"

// Cache fronts the store with the enabled/disabled policy. A disabled cache
// reports a miss on every lookup and drops every store without error, so
// callers never branch on configuration.
type Cache struct {
	store   *Store
	enabled bool
}

// New creates a cache rooted at directory. When enabled is false no store is
// opened and every operation degrades to a no-op.
func New(enabled bool, directory string) (*Cache, error) {
	if !enabled {
		logging.Get(logging.CategoryCache).Info("Cache disabled by configuration")
		return &Cache{enabled: false}, nil
	}

	store, err := NewStore(filepath.Join(directory, dbFileName))
	if err != nil {
		return nil, err
	}
	return &Cache{store: store, enabled: true}, nil
}

// NewWithStore wraps an existing store. Used by tests with an in-memory
// database.
func NewWithStore(store *Store) *Cache {
	return &Cache{store: store, enabled: true}
}

// Enabled reports whether lookups can ever hit.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Lookup returns the cached entry for key, or nil on a miss.
func (c *Cache) Lookup(key Key) (*Entry, error) {
	if !c.enabled {
		return nil, nil
	}
	e, err := c.store.Get(key)
	if err != nil {
		return nil, err
	}
	if e != nil {
		logging.CacheDebug("Hit for key %s (%s)", key, e.Kind)
	} else {
		logging.CacheDebug("Miss for key %s", key)
	}
	return e, nil
}

// Save stores a successful translation result under key.
func (c *Cache) Save(key Key, kind, instruction, payload string) error {
	if !c.enabled {
		return nil
	}
	return c.store.Put(Entry{Key: key, Kind: kind, Instruction: instruction, Payload: payload})
}

// Invalidate drops the entry for key, if present.
func (c *Cache) Invalidate(key Key) error {
	if !c.enabled {
		return nil
	}
	return c.store.Delete(key)
}

// Entries lists all stored entries. Empty when disabled.
func (c *Cache) Entries() ([]Entry, error) {
	if !c.enabled {
		return nil, nil
	}
	return c.store.Entries()
}

// GetStats returns aggregate counters. Zeroed when disabled.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{KindBreakdown: map[string]int{}}, nil
	}
	return c.store.GetStats()
}

// Clear deletes every entry.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return c.store.Clear()
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	if !c.enabled || c.store == nil {
		return nil
	}
	return c.store.Close()
}
