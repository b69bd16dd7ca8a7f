package shared

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ServiceMetrics tracks performance and success metrics for a service
type ServiceMetrics struct {
	serviceName         string
	totalRequests       int64
	successfulRequests  int64
	failedRequests      int64
	totalProcessingTime time.Duration
	lastUpdated         time.Time
	counters            map[string]int64
	performance         *PerformanceMetrics
	mutex               sync.RWMutex
}

// ServiceMetricsSnapshot is a point-in-time copy of ServiceMetrics.
type ServiceMetricsSnapshot struct {
	ServiceName           string                     `json:"service_name"`
	TotalRequests         int64                      `json:"total_requests"`
	SuccessfulRequests    int64                      `json:"successful_requests"`
	FailedRequests        int64                      `json:"failed_requests"`
	SuccessRate           float64                    `json:"success_rate"`
	AverageProcessingTime time.Duration              `json:"average_processing_time"`
	LastUpdated           time.Time                  `json:"last_updated"`
	Counters              map[string]int64           `json:"counters"`
	Performance           PerformanceMetricsSnapshot `json:"performance"`
}

// NewServiceMetrics creates a new metrics tracker for a service
func NewServiceMetrics(serviceName string) *ServiceMetrics {
	return &ServiceMetrics{
		serviceName: serviceName,
		lastUpdated: time.Now(),
		counters:    make(map[string]int64),
		performance: NewPerformanceMetrics(),
	}
}

// RecordRequest records a request with its success status and processing time
func (m *ServiceMetrics) RecordRequest(success bool, processingTime time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.totalRequests++
	m.totalProcessingTime += processingTime
	if success {
		m.successfulRequests++
	} else {
		m.failedRequests++
	}
	m.lastUpdated = time.Now()

	m.performance.RecordProcessingTime(processingTime)
}

// AddCounter adds delta to a named counter
func (m *ServiceMetrics) AddCounter(key string, delta int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.counters[key] += delta
	m.lastUpdated = time.Now()
}

// IncrementCounter increments a named counter by one
func (m *ServiceMetrics) IncrementCounter(key string) {
	m.AddCounter(key, 1)
}

// Counter returns the current value of a named counter
func (m *ServiceMetrics) Counter(key string) int64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.counters[key]
}

// GetSnapshot returns a thread-safe snapshot of current metrics
func (m *ServiceMetrics) GetSnapshot() ServiceMetricsSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}

	snapshot := ServiceMetricsSnapshot{
		ServiceName:        m.serviceName,
		TotalRequests:      m.totalRequests,
		SuccessfulRequests: m.successfulRequests,
		FailedRequests:     m.failedRequests,
		LastUpdated:        m.lastUpdated,
		Counters:           counters,
		Performance:        m.performance.GetPerformanceSnapshot(),
	}
	if m.totalRequests > 0 {
		snapshot.SuccessRate = float64(m.successfulRequests) / float64(m.totalRequests) * 100.0
		snapshot.AverageProcessingTime = time.Duration(int64(m.totalProcessingTime) / m.totalRequests)
	}
	return snapshot
}

// LogSummary logs a metrics summary
func (m *ServiceMetrics) LogSummary() {
	snapshot := m.GetSnapshot()

	logrus.WithFields(logrus.Fields{
		"service_name":            snapshot.ServiceName,
		"total_requests":          snapshot.TotalRequests,
		"failed_requests":         snapshot.FailedRequests,
		"success_rate":            snapshot.SuccessRate,
		"average_processing_time": snapshot.AverageProcessingTime,
		"p95_processing_time":     snapshot.Performance.P95ProcessingTime,
		"counters":                snapshot.Counters,
	}).Info("Service metrics summary")
}

// HTTPMetrics tracks outgoing HTTP calls
type HTTPMetrics struct {
	totalRequests      int64
	successfulRequests int64
	failedRequests     int64
	timeoutRequests    int64
	totalResponseTime  time.Duration
	statusCodeCounts   map[int]int64
	errorCounts        map[string]int64
	mutex              sync.RWMutex
}

// HTTPMetricsSnapshot is a point-in-time copy of HTTPMetrics.
type HTTPMetricsSnapshot struct {
	TotalRequests       int64            `json:"total_requests"`
	SuccessfulRequests  int64            `json:"successful_requests"`
	FailedRequests      int64            `json:"failed_requests"`
	TimeoutRequests     int64            `json:"timeout_requests"`
	SuccessRate         float64          `json:"success_rate"`
	AverageResponseTime time.Duration    `json:"average_response_time"`
	StatusCodeCounts    map[int]int64    `json:"status_code_counts"`
	ErrorCounts         map[string]int64 `json:"error_counts"`
}

// NewHTTPMetrics creates a new HTTP metrics tracker
func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		statusCodeCounts: make(map[int]int64),
		errorCounts:      make(map[string]int64),
	}
}

// RecordHTTPRequest records an HTTP request with its result
func (hm *HTTPMetrics) RecordHTTPRequest(success bool, statusCode int, responseTime time.Duration, errorType string, isTimeout bool) {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	hm.totalRequests++
	hm.totalResponseTime += responseTime
	if success {
		hm.successfulRequests++
	} else {
		hm.failedRequests++
	}
	if isTimeout {
		hm.timeoutRequests++
	}
	if statusCode != 0 {
		hm.statusCodeCounts[statusCode]++
	}
	if errorType != "" {
		hm.errorCounts[errorType]++
	}
}

// GetSnapshot returns a thread-safe snapshot of HTTP metrics
func (hm *HTTPMetrics) GetSnapshot() HTTPMetricsSnapshot {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()

	snapshot := HTTPMetricsSnapshot{
		TotalRequests:      hm.totalRequests,
		SuccessfulRequests: hm.successfulRequests,
		FailedRequests:     hm.failedRequests,
		TimeoutRequests:    hm.timeoutRequests,
		StatusCodeCounts:   make(map[int]int64, len(hm.statusCodeCounts)),
		ErrorCounts:        make(map[string]int64, len(hm.errorCounts)),
	}
	for k, v := range hm.statusCodeCounts {
		snapshot.StatusCodeCounts[k] = v
	}
	for k, v := range hm.errorCounts {
		snapshot.ErrorCounts[k] = v
	}
	if hm.totalRequests > 0 {
		snapshot.SuccessRate = float64(hm.successfulRequests) / float64(hm.totalRequests) * 100.0
		snapshot.AverageResponseTime = time.Duration(int64(hm.totalResponseTime) / hm.totalRequests)
	}
	return snapshot
}

// PerformanceMetrics tracks processing time distribution over the last samples
type PerformanceMetrics struct {
	minProcessingTime time.Duration
	maxProcessingTime time.Duration
	processingTimes   []time.Duration
	mutex             sync.RWMutex
}

// PerformanceMetricsSnapshot is a point-in-time copy of PerformanceMetrics.
type PerformanceMetricsSnapshot struct {
	MinProcessingTime time.Duration `json:"min_processing_time"`
	MaxProcessingTime time.Duration `json:"max_processing_time"`
	P95ProcessingTime time.Duration `json:"p95_processing_time"`
	P99ProcessingTime time.Duration `json:"p99_processing_time"`
	Samples           int           `json:"samples"`
}

const maxPerformanceSamples = 1000

// NewPerformanceMetrics creates a new performance metrics tracker
func NewPerformanceMetrics() *PerformanceMetrics {
	return &PerformanceMetrics{
		processingTimes: make([]time.Duration, 0, maxPerformanceSamples),
	}
}

// RecordProcessingTime records one processing time sample
func (pm *PerformanceMetrics) RecordProcessingTime(duration time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if pm.minProcessingTime == 0 || duration < pm.minProcessingTime {
		pm.minProcessingTime = duration
	}
	if duration > pm.maxProcessingTime {
		pm.maxProcessingTime = duration
	}

	if len(pm.processingTimes) >= maxPerformanceSamples {
		pm.processingTimes = pm.processingTimes[1:]
	}
	pm.processingTimes = append(pm.processingTimes, duration)
}

// GetPerformanceSnapshot computes percentiles over the retained samples
func (pm *PerformanceMetrics) GetPerformanceSnapshot() PerformanceMetricsSnapshot {
	pm.mutex.RLock()
	times := make([]time.Duration, len(pm.processingTimes))
	copy(times, pm.processingTimes)
	snapshot := PerformanceMetricsSnapshot{
		MinProcessingTime: pm.minProcessingTime,
		MaxProcessingTime: pm.maxProcessingTime,
		Samples:           len(times),
	}
	pm.mutex.RUnlock()

	if len(times) == 0 {
		return snapshot
	}

	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	snapshot.P95ProcessingTime = times[percentileIndex(len(times), 0.95)]
	snapshot.P99ProcessingTime = times[percentileIndex(len(times), 0.99)]
	return snapshot
}

func percentileIndex(n int, p float64) int {
	idx := int(float64(n) * p)
	if idx >= n {
		idx = n - 1
	}
	return idx
}
