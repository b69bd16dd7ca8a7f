package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fenilmodi00/ipo-pipeline/models"
	"github.com/fenilmodi00/ipo-pipeline/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Upstream IPO backend endpoints.
const (
	PathIPOsV1       = "/api/v1/ipos/active-with-gmp"
	PathIPOsV2       = "/api/v2/ipos"
	PathGMPHistory   = "/api/v1/ipos/%s/gmp/history"
	PathMarketIndex  = "/api/v1/market/indices"
	maxResponseBytes = 8 << 20
)

// UpstreamConfig configures UpstreamClient.
type UpstreamConfig struct {
	BaseURL    string
	APIVersion string
	Timeout    time.Duration
	Retry      shared.RetryPolicy
	RateLimit  time.Duration
}

// UpstreamClient fetches raw payloads from the IPO backend. It returns bytes;
// normalization belongs to the callers.
type UpstreamClient struct {
	baseURL     string
	apiVersion  string
	httpClient  *http.Client
	retry       shared.RetryPolicy
	rateLimiter *shared.HTTPRequestRateLimiter
	httpMetrics *shared.HTTPMetrics
}

// NewUpstreamClient creates a client using factory for pooled connections.
func NewUpstreamClient(cfg UpstreamConfig, factory *shared.HTTPClientFactory) *UpstreamClient {
	if factory == nil {
		factory = shared.NewHTTPClientFactory(cfg.Timeout)
	}
	version := cfg.APIVersion
	if version != "v2" {
		version = "v1"
	}
	return &UpstreamClient{
		baseURL:     cfg.BaseURL,
		apiVersion:  version,
		httpClient:  factory.CreateOptimizedHTTPClient(cfg.Timeout),
		retry:       cfg.Retry,
		rateLimiter: shared.NewHTTPRequestRateLimiter(cfg.RateLimit),
		httpMetrics: shared.NewHTTPMetrics(),
	}
}

// HTTPMetrics returns the client's request metrics.
func (c *UpstreamClient) HTTPMetrics() *shared.HTTPMetrics {
	return c.httpMetrics
}

// RateLimiter returns the limiter that spaces calls to the backend.
func (c *UpstreamClient) RateLimiter() *shared.HTTPRequestRateLimiter {
	return c.rateLimiter
}

// FetchIPOList returns the raw list payload for the configured API version.
func (c *UpstreamClient) FetchIPOList(ctx context.Context) ([]byte, error) {
	if c.apiVersion == "v2" {
		return c.get(ctx, PathIPOsV2)
	}
	return c.get(ctx, PathIPOsV1)
}

// FetchGMPHistory returns the raw GMP history payload of one stock.
func (c *UpstreamClient) FetchGMPHistory(ctx context.Context, stockID string) ([]byte, error) {
	return c.get(ctx, fmt.Sprintf(PathGMPHistory, url.PathEscape(stockID)))
}

// FetchMarketIndices returns the raw market index payload.
func (c *UpstreamClient) FetchMarketIndices(ctx context.Context) ([]byte, error) {
	return c.get(ctx, PathMarketIndex)
}

// ListIPOs fetches and transforms the IPO list.
func (c *UpstreamClient) ListIPOs(ctx context.Context) ([]models.DisplayIPO, error) {
	payload, err := c.FetchIPOList(ctx)
	if err != nil {
		return nil, err
	}
	if c.apiVersion == "v2" {
		return DecodeIPOListV2(payload), nil
	}
	return DecodeIPOList(payload), nil
}

func (c *UpstreamClient) get(ctx context.Context, path string) ([]byte, error) {
	if c.baseURL == "" {
		return nil, shared.ErrUpstreamDisabled
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryConfiguration, "BAD_UPSTREAM_URL", err.Error(), "UpstreamClient", "get", false, err)
	}
	requestID := uuid.NewString()
	shared.SetJSONHeaders(request, requestID)

	logger := logrus.WithFields(logrus.Fields{
		"component":  "UpstreamClient",
		"path":       path,
		"request_id": requestID,
	})

	start := time.Now()
	response, err := shared.ExecuteHTTPRequestWithRetry(ctx, c.httpClient, request, c.retry)
	if err != nil {
		c.httpMetrics.RecordHTTPRequest(false, statusFromError(err), time.Since(start), errorType(err), errors.Is(err, context.DeadlineExceeded))
		logger.WithError(err).Warn("Upstream request failed")
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		c.httpMetrics.RecordHTTPRequest(false, response.StatusCode, time.Since(start), "read_body", false)
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, "READ_BODY_FAILED", err.Error(), "UpstreamClient", "get", true, err)
	}

	c.httpMetrics.RecordHTTPRequest(true, response.StatusCode, time.Since(start), "", false)
	logger.WithField("bytes", len(body)).Debug("Upstream request succeeded")
	return body, nil
}

func statusFromError(err error) int {
	var serviceErr *shared.ServiceError
	if errors.As(err, &serviceErr) {
		var status int
		if _, scanErr := fmt.Sscanf(serviceErr.Code, "HTTP_%d", &status); scanErr == nil {
			return status
		}
	}
	return 0
}

func errorType(err error) string {
	var serviceErr *shared.ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code
	}
	return "unknown"
}
