package services

import (
	"context"
	"fmt"

	"github.com/fenilmodi00/ipo-pipeline/models"
	"github.com/fenilmodi00/ipo-pipeline/shared"
)

// GMPHistorySource returns the raw GMP history payload for one stock.
type GMPHistorySource interface {
	FetchGMPHistory(ctx context.Context, stockID string) ([]byte, error)
}

// GMPHistoryKey namespaces a stock's history in the shared cache.
func GMPHistoryKey(stockID string) string {
	return "gmp_history:" + stockID
}

// GMPHistoryUpdate is one publication from GMPHistoryLoader.Load.
type GMPHistoryUpdate struct {
	Points []models.GMPHistoryPoint
	Stale  bool
	Err    error
}

// GMPHistoryResult is returned by GMPHistoryLoader.Get.
type GMPHistoryResult struct {
	StockID string                   `json:"stock_id"`
	Points  []models.GMPHistoryPoint `json:"points"`
	Stale   bool                     `json:"stale"`
}

// GMPHistoryLoader keeps normalized GMP histories in the ephemeral cache.
type GMPHistoryLoader struct {
	source      GMPHistorySource
	revalidator *Revalidator
}

// NewGMPHistoryLoader creates a loader backed by revalidator's cache.
func NewGMPHistoryLoader(source GMPHistorySource, revalidator *Revalidator) *GMPHistoryLoader {
	return &GMPHistoryLoader{source: source, revalidator: revalidator}
}

func (l *GMPHistoryLoader) fetcher(stockID string) FetchFunc {
	return func(ctx context.Context) (interface{}, error) {
		if l.source == nil {
			return nil, shared.ErrUpstreamDisabled
		}
		payload, err := l.source.FetchGMPHistory(ctx, stockID)
		if err != nil {
			return nil, fmt.Errorf("fetch gmp history for %s: %w", stockID, err)
		}
		return NormalizeGMPHistory(payload), nil
	}
}

// Load publishes the cached history (if any), fetches a fresh one and
// publishes it. Refresh failures are swallowed when a cached history exists.
func (l *GMPHistoryLoader) Load(ctx context.Context, stockID string, onUpdate func(GMPHistoryUpdate)) ([]models.GMPHistoryPoint, error) {
	value, err := l.revalidator.Load(ctx, GMPHistoryKey(stockID), l.fetcher(stockID), func(u Update) {
		if onUpdate == nil {
			return
		}
		onUpdate(GMPHistoryUpdate{Points: asPoints(u.Value), Stale: u.Stale, Err: u.Err})
	})
	if err != nil {
		return nil, err
	}
	return asPoints(value), nil
}

// Get serves the cached history, refreshing stale entries in the background.
func (l *GMPHistoryLoader) Get(ctx context.Context, stockID string) (*GMPHistoryResult, error) {
	value, stale, err := l.revalidator.Get(ctx, GMPHistoryKey(stockID), l.fetcher(stockID))
	if err != nil {
		return nil, err
	}
	return &GMPHistoryResult{StockID: stockID, Points: asPoints(value), Stale: stale}, nil
}

// Refresh fetches and caches the history unconditionally.
func (l *GMPHistoryLoader) Refresh(ctx context.Context, stockID string) ([]models.GMPHistoryPoint, error) {
	value, err := l.revalidator.Refresh(ctx, GMPHistoryKey(stockID), l.fetcher(stockID))
	if err != nil {
		return nil, err
	}
	return asPoints(value), nil
}

func asPoints(value interface{}) []models.GMPHistoryPoint {
	if points, ok := value.([]models.GMPHistoryPoint); ok {
		return points
	}
	return nil
}
