package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fenilmodi00/ipo-pipeline/models"
	"github.com/fenilmodi00/ipo-pipeline/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIPOSource struct {
	ipos  []models.DisplayIPO
	err   error
	calls int32
}

func (f *fakeIPOSource) ListIPOs(ctx context.Context) ([]models.DisplayIPO, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.ipos, nil
}

type fakeMarketSource struct {
	payload []byte
	err     error
}

func (f *fakeMarketSource) FetchMarketIndices(ctx context.Context) ([]byte, error) {
	return f.payload, f.err
}

func newTestPipeline(source IPOSource, markets MarketIndexSource) (*IPOPipeline, *Revalidator, *fakeClock) {
	clock := &fakeClock{now: filterNow}
	revalidator := NewRevalidator(NewEphemeralCache(clock.Now), DefaultMaxAge, nil)
	return NewIPOPipeline(source, markets, revalidator, time.UTC, clock.Now), revalidator, clock
}

func pipelineIPOs() []models.DisplayIPO {
	live := dateIPO("live", models.IPOStatusLive, "2026-02-13", "2026-02-16", "2026-02-19")
	live.StockID = strPtr("LIVE01")
	return []models.DisplayIPO{
		live,
		dateIPO("soon", models.IPOStatusUpcoming, "2026-02-20", "2026-02-24", ""),
		dateIPO("old", models.IPOStatusListed, "2026-01-05", "2026-01-07", "2026-01-12"),
	}
}

func TestIPOPipelineView(t *testing.T) {
	source := &fakeIPOSource{ipos: pipelineIPOs()}
	pipeline, _, _ := newTestPipeline(source, nil)

	view, err := pipeline.View(context.Background())
	require.NoError(t, err)

	assert.False(t, view.Stale)
	assert.Equal(t, []string{"live"}, ids(view.Buckets.Ongoing))
	assert.Equal(t, []string{"soon"}, ids(view.Buckets.Upcoming))
	assert.Equal(t, []string{"old"}, ids(view.Buckets.Listed))
	assert.Equal(t, filterNow, view.Snapshot.FetchedAt)
	assert.Equal(t, int64(3), pipeline.Metrics().Counter("ipos_transformed"))

	_, err = pipeline.View(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls), "second view is served from cache")
}

func TestIPOPipelineListForFilter(t *testing.T) {
	pipeline, _, _ := newTestPipeline(&fakeIPOSource{ipos: pipelineIPOs()}, nil)

	items, stale, err := pipeline.ListForFilter(context.Background(), "ongoing")
	require.NoError(t, err)
	assert.False(t, stale)
	require.Len(t, items, 1)
	assert.Equal(t, "Closes tomorrow", items[0].StatusDisplay.Label)

	items, _, err = pipeline.ListForFilter(context.Background(), "UPCOMING")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "In 5 days", items[0].StatusDisplay.Label)

	items, _, err = pipeline.ListForFilter(context.Background(), "bogus")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "live", items[0].IPO.ID)
}

func TestIPOPipelineStaleSnapshot(t *testing.T) {
	source := &fakeIPOSource{ipos: pipelineIPOs()}
	pipeline, revalidator, clock := newTestPipeline(source, nil)

	_, err := pipeline.View(context.Background())
	require.NoError(t, err)

	clock.Advance(DefaultMaxAge + time.Second)
	view, err := pipeline.View(context.Background())
	require.NoError(t, err)
	assert.True(t, view.Stale)

	revalidator.Wait()
	assert.Equal(t, int32(2), atomic.LoadInt32(&source.calls))
}

func TestIPOPipelineRefreshFailureKeepsSnapshot(t *testing.T) {
	source := &fakeIPOSource{ipos: pipelineIPOs()}
	pipeline, _, _ := newTestPipeline(source, nil)

	first, err := pipeline.Refresh(context.Background())
	require.NoError(t, err)

	source.err = errors.New("upstream down")
	_, err = pipeline.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")

	cached, stale, err := pipeline.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Same(t, first, cached)
}

func TestIPOPipelineFind(t *testing.T) {
	pipeline, _, _ := newTestPipeline(&fakeIPOSource{ipos: pipelineIPOs()}, nil)

	byID, err := pipeline.Find(context.Background(), "soon")
	require.NoError(t, err)
	assert.Equal(t, "soon", byID.IPO.ID)

	byStock, err := pipeline.Find(context.Background(), "LIVE01")
	require.NoError(t, err)
	assert.Equal(t, "live", byStock.IPO.ID)
	assert.True(t, byStock.StatusDisplay.IsBlinking)

	_, err = pipeline.Find(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrIPONotFound)
}

func TestIPOPipelineWithoutSource(t *testing.T) {
	pipeline, _, _ := newTestPipeline(nil, nil)

	_, err := pipeline.View(context.Background())
	assert.ErrorIs(t, err, shared.ErrUpstreamDisabled)

	_, _, err = pipeline.MarketIndices(context.Background())
	assert.ErrorIs(t, err, shared.ErrUpstreamDisabled)
}

func TestIPOPipelineMarketIndices(t *testing.T) {
	markets := &fakeMarketSource{payload: []byte(`[{"name":"NIFTY 50","value":21453.95,"change":-10}]`)}
	pipeline, _, _ := newTestPipeline(nil, markets)

	indices, stale, err := pipeline.MarketIndices(context.Background())
	require.NoError(t, err)
	assert.False(t, stale)
	require.Len(t, indices, 1)
	assert.Equal(t, "nifty50", indices[0].ID)
	assert.False(t, indices[0].IsPositive)
}
