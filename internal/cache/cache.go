// Package cache keeps generated community perspectives consistent: the same
// (community, topic, query) triple always resolves to the same stored text
// until the entry expires.
package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pluralign/prism/internal/storage"
)

// DefaultTTL is how long a cached perspective stays valid.
const DefaultTTL = 30 * 24 * time.Hour

// Store defines the storage operations the cache needs.
// Implemented by storage.Store.
type Store interface {
	UpsertCacheEntry(e storage.CacheEntry) error
	GetCacheEntry(fingerprint string) (storage.CacheEntry, error)
	IncrementCacheHit(fingerprint string) error
	DeleteExpiredBefore(cutoff time.Time) (int, error)
	GatherCacheStats() (storage.CacheStats, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Cache is the consistency cache over a persistent store.
type Cache struct {
	store Store
	clock Clock
	ttl   time.Duration
}

// New creates a Cache with the given TTL (DefaultTTL when ttl <= 0).
func New(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, clock: realClock{}, ttl: ttl}
}

// NewWithClock creates a Cache with a custom clock (for testing).
func NewWithClock(store Store, ttl time.Duration, clock Clock) *Cache {
	c := New(store, ttl)
	c.clock = clock
	return c
}

// Get returns the cached perspective for the triple, if present and
// unexpired. Expired entries are treated as misses but left in place for
// the sweep. The hit counter is bumped best-effort; a failed bump does not
// fail the read.
func (c *Cache) Get(community, topic, query string) (string, bool, error) {
	fp := Fingerprint(community, topic, query)
	e, err := c.store.GetCacheEntry(fp)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cache entry: %w", err)
	}
	if !c.clock.Now().Before(e.ExpiresAt) {
		return "", false, nil
	}
	if err := c.store.IncrementCacheHit(fp); err != nil {
		slog.Warn("cache hit count update failed", "fingerprint", fp, "error", err)
	}
	return e.Text, true, nil
}

// Put stores a perspective for the triple. The write is a single atomic
// insert-or-replace on the fingerprint: an existing row has its text and
// timestamps overwritten while its hit count is preserved, so the latest
// content wins without losing historical popularity.
func (c *Cache) Put(community, topic, query, text string) error {
	now := c.clock.Now()
	e := storage.CacheEntry{
		Fingerprint:     Fingerprint(community, topic, query),
		Community:       community,
		TopicCategory:   topic,
		NormalizedQuery: NormalizeQuery(query),
		Text:            text,
		CreatedAt:       now,
		ExpiresAt:       now.Add(c.ttl),
	}
	if err := c.store.UpsertCacheEntry(e); err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

// SweepExpired deletes all expired entries and returns how many were removed.
func (c *Cache) SweepExpired() (int, error) {
	n, err := c.store.DeleteExpiredBefore(c.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("sweeping cache: %w", err)
	}
	return n, nil
}

// Stats returns aggregate cache diagnostics.
func (c *Cache) Stats() (storage.CacheStats, error) {
	return c.store.GatherCacheStats()
}
