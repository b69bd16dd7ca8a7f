package shared

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPClientFactory creates pooled HTTP clients keyed by timeout
type HTTPClientFactory struct {
	defaultTimeout time.Duration
	mutex          sync.RWMutex
	clients        map[string]*http.Client
}

// NewHTTPClientFactory creates a new HTTP client factory
func NewHTTPClientFactory(defaultTimeout time.Duration) *HTTPClientFactory {
	return &HTTPClientFactory{
		defaultTimeout: defaultTimeout,
		clients:        make(map[string]*http.Client),
	}
}

// CreateOptimizedHTTPClient creates an HTTP client with connection pooling
func (f *HTTPClientFactory) CreateOptimizedHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = f.defaultTimeout
	}

	clientKey := fmt.Sprintf("timeout_%d", timeout.Milliseconds())

	f.mutex.RLock()
	if client, exists := f.clients[clientKey]; exists {
		f.mutex.RUnlock()
		return client
	}
	f.mutex.RUnlock()

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	f.mutex.Lock()
	f.clients[clientKey] = client
	f.mutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"component":  "HTTPClientFactory",
		"timeout":    timeout,
		"client_key": clientKey,
	}).Debug("Created new optimized HTTP client")

	return client
}

// SetJSONHeaders configures request headers for the IPO backend's JSON API
func SetJSONHeaders(request *http.Request, requestID string) {
	request.Header.Set("Accept", "application/json")
	request.Header.Set("Accept-Language", "en-US,en;q=0.9")
	request.Header.Set("Cache-Control", "no-cache")
	if requestID != "" {
		request.Header.Set("X-Request-ID", requestID)
	}
}

// RetryPolicy controls ExecuteHTTPRequestWithRetry.
type RetryPolicy struct {
	MaxRetries  int
	BaseBackoff time.Duration
}

// DefaultRetryPolicy doubles from one second.
func DefaultRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{MaxRetries: maxRetries, BaseBackoff: time.Second}
}

func (p RetryPolicy) backoff(attemptNumber int) time.Duration {
	base := p.BaseBackoff * time.Duration(1<<uint(attemptNumber-1))
	jitter := time.Duration(float64(base) * 0.1 * (0.5 + 0.5*float64(attemptNumber%3)/2))
	return base + jitter
}

// retryableStatus reports whether an HTTP status is worth another attempt.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// ExecuteHTTPRequestWithRetry executes a body-less request with exponential
// backoff. Non-retryable statuses (4xx other than 429) fail immediately.
// The caller owns closing the returned body.
func ExecuteHTTPRequestWithRetry(ctx context.Context, client *http.Client, request *http.Request, policy RetryPolicy) (*http.Response, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "HTTPClientFactory",
		"method":    "ExecuteHTTPRequestWithRetry",
		"url":       request.URL.String(),
	})

	request = request.WithContext(ctx)

	var lastExecutionError error
	for attemptNumber := 0; attemptNumber <= policy.MaxRetries; attemptNumber++ {
		if attemptNumber > 0 {
			backoffDuration := policy.backoff(attemptNumber)
			logger.WithFields(logrus.Fields{
				"attempt":          attemptNumber + 1,
				"backoff_duration": backoffDuration,
			}).Debug("Retrying HTTP request after backoff")

			timer := time.NewTimer(backoffDuration)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, NewServiceError(ErrorCategoryTimeout, "REQUEST_CANCELLED", "request cancelled during backoff", "HTTPClientFactory", "ExecuteHTTPRequestWithRetry", false, ctx.Err())
			case <-timer.C:
			}
		}

		httpResponse, err := client.Do(request)
		if err == nil && httpResponse.StatusCode == http.StatusOK {
			logger.WithFields(logrus.Fields{
				"attempt":     attemptNumber + 1,
				"status_code": httpResponse.StatusCode,
			}).Debug("HTTP request successful")
			return httpResponse, nil
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil, NewServiceError(ErrorCategoryTimeout, "REQUEST_CANCELLED", "request cancelled", "HTTPClientFactory", "ExecuteHTTPRequestWithRetry", false, ctx.Err())
			}
			lastExecutionError = NewServiceError(ErrorCategoryNetwork, "NETWORK_ERROR",
				fmt.Sprintf("attempt %d failed with network error: %v", attemptNumber+1, err),
				"HTTPClientFactory", "ExecuteHTTPRequestWithRetry", true, err)
			logger.WithError(err).Debug("HTTP request failed with network error")
			continue
		}

		httpResponse.Body.Close()
		retryable := retryableStatus(httpResponse.StatusCode)
		lastExecutionError = NewServiceError(ErrorCategoryNetwork, fmt.Sprintf("HTTP_%d", httpResponse.StatusCode),
			fmt.Sprintf("attempt %d failed with HTTP %d: %s", attemptNumber+1, httpResponse.StatusCode, http.StatusText(httpResponse.StatusCode)),
			"HTTPClientFactory", "ExecuteHTTPRequestWithRetry", retryable, nil)
		logger.WithFields(logrus.Fields{
			"attempt":     attemptNumber + 1,
			"status_code": httpResponse.StatusCode,
		}).Debug("HTTP request failed with non-200 status")

		if !retryable {
			return nil, lastExecutionError
		}
	}

	totalAttempts := policy.MaxRetries + 1
	logger.WithFields(logrus.Fields{
		"total_attempts": totalAttempts,
		"final_error":    lastExecutionError,
	}).Error("HTTP request failed after all retry attempts")

	return nil, fmt.Errorf("HTTP request failed after %d attempts: %w", totalAttempts, lastExecutionError)
}

// CleanupAllClients closes idle connections of every cached client
func (f *HTTPClientFactory) CleanupAllClients() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for key, client := range f.clients {
		if transport, ok := client.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
		delete(f.clients, key)
	}

	logrus.WithField("component", "HTTPClientFactory").Debug("Cleaned up all cached HTTP clients")
}
