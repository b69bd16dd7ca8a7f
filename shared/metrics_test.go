package shared

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceMetricsSnapshot(t *testing.T) {
	metrics := NewServiceMetrics("Test_Service")
	metrics.RecordRequest(true, 10*time.Millisecond)
	metrics.RecordRequest(true, 30*time.Millisecond)
	metrics.RecordRequest(false, 20*time.Millisecond)
	metrics.AddCounter("rows", 5)
	metrics.IncrementCounter("rows")

	snapshot := metrics.GetSnapshot()
	assert.Equal(t, "Test_Service", snapshot.ServiceName)
	assert.Equal(t, int64(3), snapshot.TotalRequests)
	assert.Equal(t, int64(1), snapshot.FailedRequests)
	assert.InDelta(t, 66.67, snapshot.SuccessRate, 0.01)
	assert.Equal(t, 20*time.Millisecond, snapshot.AverageProcessingTime)
	assert.Equal(t, int64(6), snapshot.Counters["rows"])
	assert.Equal(t, 10*time.Millisecond, snapshot.Performance.MinProcessingTime)
	assert.Equal(t, 30*time.Millisecond, snapshot.Performance.MaxProcessingTime)

	snapshot.Counters["rows"] = 0
	assert.Equal(t, int64(6), metrics.Counter("rows"), "snapshots are copies")
}

func TestServiceMetricsLogSummary(t *testing.T) {
	hook := logtest.NewGlobal()
	defer logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))

	metrics := NewServiceMetrics("Ephemeral_Cache")
	metrics.RecordRequest(true, 10*time.Millisecond)
	metrics.RecordRequest(false, 30*time.Millisecond)
	metrics.IncrementCounter("hits")
	metrics.LogSummary()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Service metrics summary", entry.Message)
	assert.Equal(t, "Ephemeral_Cache", entry.Data["service_name"])
	assert.Equal(t, int64(2), entry.Data["total_requests"])
	assert.Equal(t, int64(1), entry.Data["failed_requests"])
	assert.Equal(t, 20*time.Millisecond, entry.Data["average_processing_time"])
}

func TestHTTPMetrics(t *testing.T) {
	metrics := NewHTTPMetrics()
	metrics.RecordHTTPRequest(true, 200, 5*time.Millisecond, "", false)
	metrics.RecordHTTPRequest(false, 0, 15*time.Millisecond, "NETWORK_ERROR", true)

	snapshot := metrics.GetSnapshot()
	assert.Equal(t, int64(2), snapshot.TotalRequests)
	assert.Equal(t, int64(1), snapshot.TimeoutRequests)
	assert.Equal(t, map[int]int64{200: 1}, snapshot.StatusCodeCounts)
	assert.Equal(t, map[string]int64{"NETWORK_ERROR": 1}, snapshot.ErrorCounts)
	assert.Equal(t, 10*time.Millisecond, snapshot.AverageResponseTime)
}

func TestPerformanceMetricsPercentiles(t *testing.T) {
	metrics := NewPerformanceMetrics()
	assert.Zero(t, metrics.GetPerformanceSnapshot().Samples)

	for i := 100; i >= 1; i-- {
		metrics.RecordProcessingTime(time.Duration(i) * time.Millisecond)
	}

	snapshot := metrics.GetPerformanceSnapshot()
	assert.Equal(t, 100, snapshot.Samples)
	assert.Equal(t, 96*time.Millisecond, snapshot.P95ProcessingTime)
	assert.Equal(t, 100*time.Millisecond, snapshot.P99ProcessingTime)
}

func TestPerformanceMetricsKeepsLastSamples(t *testing.T) {
	metrics := NewPerformanceMetrics()
	for i := 0; i < maxPerformanceSamples+10; i++ {
		metrics.RecordProcessingTime(time.Millisecond)
	}
	assert.Equal(t, maxPerformanceSamples, metrics.GetPerformanceSnapshot().Samples)
}
