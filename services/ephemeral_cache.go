package services

import (
	"sort"
	"sync"
	"time"
)

// DefaultMaxAge is the freshness window used when callers do not pick one.
const DefaultMaxAge = 5 * time.Minute

// CacheEntry is a stored value with the time it was written.
type CacheEntry struct {
	Data     interface{}
	CachedAt time.Time
}

// CacheEntryInfo describes an entry without exposing its value.
type CacheEntryInfo struct {
	Key      string        `json:"key"`
	CachedAt time.Time     `json:"cached_at"`
	Age      time.Duration `json:"age"`
}

// EphemeralCache is a process-lifetime key/value store. Entries are never
// evicted and never expire on their own; readers choose how old is too old
// via ReadFresh or accept anything via ReadStale. Writes overwrite, the last
// writer wins. Keys are opaque, so callers namespace them.
type EphemeralCache struct {
	entries map[string]CacheEntry
	mutex   sync.RWMutex
	now     func() time.Time
}

// NewEphemeralCache creates an empty cache. A nil clock means time.Now.
func NewEphemeralCache(now func() time.Time) *EphemeralCache {
	if now == nil {
		now = time.Now
	}
	return &EphemeralCache{
		entries: make(map[string]CacheEntry),
		now:     now,
	}
}

// Write stores data under key, replacing any previous entry.
func (c *EphemeralCache) Write(key string, data interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = CacheEntry{Data: data, CachedAt: c.now()}
}

// ReadFresh returns the value only if it is at most maxAge old. A zero or
// negative maxAge is never satisfied.
func (c *EphemeralCache) ReadFresh(key string, maxAge time.Duration) (interface{}, bool) {
	if maxAge <= 0 {
		return nil, false
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.entries[key]
	if !exists || c.now().Sub(entry.CachedAt) > maxAge {
		return nil, false
	}
	return entry.Data, true
}

// ReadStale returns the value regardless of age.
func (c *EphemeralCache) ReadStale(key string) (interface{}, bool) {
	entry, exists := c.Entry(key)
	if !exists {
		return nil, false
	}
	return entry.Data, true
}

// Entry returns the full entry for key.
func (c *EphemeralCache) Entry(key string) (CacheEntry, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.entries[key]
	return entry, exists
}

// Delete removes a value from cache
func (c *EphemeralCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, key)
}

// Clear removes all values from cache
func (c *EphemeralCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]CacheEntry)
}

// Size returns the number of items in cache
func (c *EphemeralCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.entries)
}

// Describe lists entries sorted by key.
func (c *EphemeralCache) Describe() []CacheEntryInfo {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := c.now()
	infos := make([]CacheEntryInfo, 0, len(c.entries))
	for key, entry := range c.entries {
		infos = append(infos, CacheEntryInfo{Key: key, CachedAt: entry.CachedAt, Age: now.Sub(entry.CachedAt)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}
