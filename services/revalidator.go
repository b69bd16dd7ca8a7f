package services

import (
	"context"
	"sync"
	"time"

	"github.com/fenilmodi00/ipo-pipeline/shared"
	"github.com/sirupsen/logrus"
)

// FetchFunc produces a fresh value for a cache key.
type FetchFunc func(ctx context.Context) (interface{}, error)

// Update is published to Load observers: first the stale value (if any),
// then either the fresh value or, only without a stale fallback, an error.
type Update struct {
	Value interface{}
	Stale bool
	Err   error
}

// Revalidator serves cached values instantly and refreshes them through a
// FetchFunc. A failed refresh never replaces a value that was already
// served; the error surfaces only when there is nothing to fall back to.
type Revalidator struct {
	cache          *EphemeralCache
	maxAge         time.Duration
	refreshTimeout time.Duration
	metrics        *shared.ServiceMetrics

	mutex    sync.Mutex
	inFlight map[string]struct{}
	wg       sync.WaitGroup
}

// NewRevalidator wraps cache with a freshness window.
func NewRevalidator(cache *EphemeralCache, maxAge time.Duration, metrics *shared.ServiceMetrics) *Revalidator {
	if metrics == nil {
		metrics = shared.NewServiceMetrics("Revalidator")
	}
	return &Revalidator{
		cache:          cache,
		maxAge:         maxAge,
		refreshTimeout: 30 * time.Second,
		metrics:        metrics,
		inFlight:       make(map[string]struct{}),
	}
}

// Cache exposes the underlying store.
func (r *Revalidator) Cache() *EphemeralCache {
	return r.cache
}

// Load seeds onUpdate synchronously with the stale value, then fetches.
// On success the fresh value is written and published. On failure the
// stale value stays in place and Load returns it with a nil error; the
// error is returned (and published) only when no stale value existed.
func (r *Revalidator) Load(ctx context.Context, key string, fetch FetchFunc, onUpdate func(Update)) (interface{}, error) {
	if onUpdate == nil {
		onUpdate = func(Update) {}
	}

	stale, hasStale := r.cache.ReadStale(key)
	if hasStale {
		onUpdate(Update{Value: stale, Stale: true})
	}

	fresh, err := r.Refresh(ctx, key, fetch)
	if err != nil {
		if hasStale {
			logrus.WithFields(logrus.Fields{
				"component": "Revalidator",
				"key":       key,
			}).WithError(err).Warn("Refresh failed, keeping stale value")
			return stale, nil
		}
		onUpdate(Update{Err: err})
		return nil, err
	}

	onUpdate(Update{Value: fresh})
	return fresh, nil
}

// Get returns a fresh value directly. A stale value is returned at once
// with stale=true while a background refresh runs. With nothing cached it
// fetches synchronously.
func (r *Revalidator) Get(ctx context.Context, key string, fetch FetchFunc) (interface{}, bool, error) {
	if value, ok := r.cache.ReadFresh(key, r.maxAge); ok {
		r.metrics.IncrementCounter("cache_fresh_hits")
		return value, false, nil
	}

	if value, ok := r.cache.ReadStale(key); ok {
		r.metrics.IncrementCounter("cache_stale_hits")
		r.refreshInBackground(key, fetch)
		return value, true, nil
	}

	r.metrics.IncrementCounter("cache_misses")
	value, err := r.Refresh(ctx, key, fetch)
	if err != nil {
		return nil, false, err
	}
	return value, false, nil
}

// Refresh fetches and writes unconditionally.
func (r *Revalidator) Refresh(ctx context.Context, key string, fetch FetchFunc) (interface{}, error) {
	start := time.Now()
	value, err := fetch(ctx)
	r.metrics.RecordRequest(err == nil, time.Since(start))
	if err != nil {
		r.metrics.IncrementCounter("refresh_failures")
		return nil, err
	}
	r.cache.Write(key, value)
	return value, nil
}

// refreshInBackground starts at most one background refresh per key.
func (r *Revalidator) refreshInBackground(key string, fetch FetchFunc) {
	r.mutex.Lock()
	if _, running := r.inFlight[key]; running {
		r.mutex.Unlock()
		return
	}
	r.inFlight[key] = struct{}{}
	r.wg.Add(1)
	r.mutex.Unlock()

	go func() {
		defer r.wg.Done()
		defer func() {
			r.mutex.Lock()
			delete(r.inFlight, key)
			r.mutex.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.refreshTimeout)
		defer cancel()

		if _, err := r.Refresh(ctx, key, fetch); err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "Revalidator",
				"key":       key,
			}).WithError(err).Warn("Background refresh failed, stale value kept")
		}
	}()
}

// Wait blocks until background refreshes have finished.
func (r *Revalidator) Wait() {
	r.wg.Wait()
}
