package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestEphemeralCacheReadFreshZeroWindow(t *testing.T) {
	cache := NewEphemeralCache(nil)
	cache.Write("k", map[string]int{"a": 1})

	stale, ok := cache.ReadStale("k")
	assert.True(t, ok)
	assert.Equal(t, map[string]int{"a": 1}, stale)

	_, ok = cache.ReadFresh("k", 0)
	assert.False(t, ok)

	stale, ok = cache.ReadStale("k")
	assert.True(t, ok)
	assert.Equal(t, map[string]int{"a": 1}, stale)
}

func TestEphemeralCacheFreshness(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)}
	cache := NewEphemeralCache(clock.Now)

	cache.Write("k", "v1")
	clock.Advance(DefaultMaxAge)

	value, ok := cache.ReadFresh("k", DefaultMaxAge)
	assert.True(t, ok, "age equal to max age is still fresh")
	assert.Equal(t, "v1", value)

	clock.Advance(time.Millisecond)
	_, ok = cache.ReadFresh("k", DefaultMaxAge)
	assert.False(t, ok)

	_, ok = cache.ReadFresh("missing", DefaultMaxAge)
	assert.False(t, ok)
	_, ok = cache.ReadStale("missing")
	assert.False(t, ok)
}

func TestEphemeralCacheLastWriterWins(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)}
	cache := NewEphemeralCache(clock.Now)

	cache.Write("k", "old")
	clock.Advance(time.Hour)
	cache.Write("k", "new")

	value, ok := cache.ReadFresh("k", time.Minute)
	assert.True(t, ok, "overwrite restamps the entry")
	assert.Equal(t, "new", value)

	entry, ok := cache.Entry("k")
	assert.True(t, ok)
	assert.Equal(t, clock.now, entry.CachedAt)
}

func TestEphemeralCacheHousekeeping(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)}
	cache := NewEphemeralCache(clock.Now)

	cache.Write("b", 2)
	cache.Write("a", 1)
	clock.Advance(time.Minute)
	assert.Equal(t, 2, cache.Size())

	infos := cache.Describe()
	assert.Len(t, infos, 2)
	for _, info := range infos {
		assert.Equal(t, time.Minute, info.Age)
	}

	cache.Delete("a")
	assert.Equal(t, 1, cache.Size())
	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}
