package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fenilmodi00/ipo-pipeline/models"
	"github.com/fenilmodi00/ipo-pipeline/shared"
)

// IPOSnapshotKey is the cache key of the latest IPO list.
const IPOSnapshotKey = "ipo_snapshot"

// IPOSource produces the current IPO list in display form.
type IPOSource interface {
	ListIPOs(ctx context.Context) ([]models.DisplayIPO, error)
}

// MarketIndexSource returns the raw market index payload.
type MarketIndexSource interface {
	FetchMarketIndices(ctx context.Context) ([]byte, error)
}

// IPOSnapshot is one cached IPO list.
type IPOSnapshot struct {
	IPOs      []models.DisplayIPO `json:"ipos"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// IPOView is a snapshot bucketed and classified as of one instant.
type IPOView struct {
	Snapshot *IPOSnapshot
	Buckets  IPOBuckets
	Stale    bool
	Now      time.Time
}

// IPOPipeline ties sources, the ephemeral cache and the derivation steps
// together: transform, bucket, classify.
type IPOPipeline struct {
	source      IPOSource
	markets     MarketIndexSource
	revalidator *Revalidator
	location    *time.Location
	now         func() time.Time
	metrics     *shared.ServiceMetrics
}

// NewIPOPipeline creates a pipeline. loc is the market timezone used for
// date-only strings; a nil clock means time.Now.
func NewIPOPipeline(source IPOSource, markets MarketIndexSource, revalidator *Revalidator, loc *time.Location, now func() time.Time) *IPOPipeline {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &IPOPipeline{
		source:      source,
		markets:     markets,
		revalidator: revalidator,
		location:    loc,
		now:         now,
		metrics:     shared.NewServiceMetrics("IPO_Pipeline"),
	}
}

// Metrics returns the pipeline's metrics.
func (p *IPOPipeline) Metrics() *shared.ServiceMetrics {
	return p.metrics
}

// Now returns the current instant in the market timezone.
func (p *IPOPipeline) Now() time.Time {
	return p.now().In(p.location)
}

func (p *IPOPipeline) fetchSnapshot(ctx context.Context) (interface{}, error) {
	if p.source == nil {
		return nil, shared.ErrUpstreamDisabled
	}
	ipos, err := p.source.ListIPOs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ipos: %w", err)
	}
	p.metrics.AddCounter("ipos_transformed", int64(len(ipos)))
	return &IPOSnapshot{IPOs: ipos, FetchedAt: p.now()}, nil
}

// Snapshot returns the cached IPO list, refreshing it per the
// stale-while-revalidate policy.
func (p *IPOPipeline) Snapshot(ctx context.Context) (*IPOSnapshot, bool, error) {
	value, stale, err := p.revalidator.Get(ctx, IPOSnapshotKey, p.fetchSnapshot)
	if err != nil {
		return nil, false, err
	}
	return value.(*IPOSnapshot), stale, nil
}

// Refresh fetches a new snapshot. On failure the error is returned and the
// cached snapshot stays in place for readers.
func (p *IPOPipeline) Refresh(ctx context.Context) (*IPOSnapshot, error) {
	value, err := p.revalidator.Refresh(ctx, IPOSnapshotKey, p.fetchSnapshot)
	if err != nil {
		return nil, err
	}
	return value.(*IPOSnapshot), nil
}

// View buckets the current snapshot as of now.
func (p *IPOPipeline) View(ctx context.Context) (*IPOView, error) {
	snapshot, stale, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	now := p.Now()
	return &IPOView{
		Snapshot: snapshot,
		Buckets:  FilterIPOs(snapshot.IPOs, now),
		Stale:    stale,
		Now:      now,
	}, nil
}

// ListForFilter returns the bucket named by filter with status badges.
func (p *IPOPipeline) ListForFilter(ctx context.Context, filter string) ([]models.IPOListItem, bool, error) {
	view, err := p.View(ctx)
	if err != nil {
		return nil, false, err
	}
	return WithStatusDisplay(view.Buckets.ForFilter(filter), view.Now), view.Stale, nil
}

// Find returns one IPO with its badge, or ErrIPONotFound.
func (p *IPOPipeline) Find(ctx context.Context, id string) (*models.IPOListItem, error) {
	snapshot, _, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for _, ipo := range snapshot.IPOs {
		if ipo.ID == id || (ipo.StockID != nil && *ipo.StockID == id) {
			return &models.IPOListItem{IPO: ipo, StatusDisplay: ClassifyStatus(ipo, p.Now())}, nil
		}
	}
	return nil, ErrIPONotFound
}

// MarketIndices returns normalized index data through the cache.
func (p *IPOPipeline) MarketIndices(ctx context.Context) ([]models.MarketIndex, bool, error) {
	value, stale, err := p.revalidator.Get(ctx, MarketIndicesKey, func(ctx context.Context) (interface{}, error) {
		if p.markets == nil {
			return nil, shared.ErrUpstreamDisabled
		}
		payload, err := p.markets.FetchMarketIndices(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch market indices: %w", err)
		}
		return NormalizeMarketIndices(payload), nil
	})
	if err != nil {
		return nil, false, err
	}
	return value.([]models.MarketIndex), stale, nil
}
