package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fenilmodi00/ipo-pipeline/jobs"
	"github.com/fenilmodi00/ipo-pipeline/models"
	"github.com/fenilmodi00/ipo-pipeline/services"
	"github.com/fenilmodi00/ipo-pipeline/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var handlerNow = time.Date(2026, 2, 15, 11, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

type stubIPOSource struct {
	ipos []models.DisplayIPO
}

func (s *stubIPOSource) ListIPOs(ctx context.Context) ([]models.DisplayIPO, error) {
	return s.ipos, nil
}

type stubHistorySource struct {
	payload string
}

func (s *stubHistorySource) FetchGMPHistory(ctx context.Context, stockID string) ([]byte, error) {
	return []byte(s.payload), nil
}

type stubForms struct {
	form *models.RegistrarForm
	err  error
}

func (s *stubForms) GetRegistrarForm(ctx context.Context, ipoID uuid.UUID) (*models.RegistrarForm, error) {
	if s.err != nil {
		return nil, s.err
	}
	form := *s.form
	form.IPOID = ipoID
	return &form, nil
}

type stubChecker struct {
	status models.AllotmentStatus
	err    error
	calls  int32
}

func (s *stubChecker) Check(ctx context.Context, form *models.RegistrarForm, pan string) (*models.AllotmentResult, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return &models.AllotmentResult{
		IPOID:     form.IPOID,
		PanHash:   services.HashPAN(pan),
		Status:    s.status,
		RawStatus: string(s.status),
		Source:    form.Registrar,
		CheckedAt: handlerNow,
	}, nil
}

type stubRefresher struct {
	err error
}

func (s *stubRefresher) TryRun(ctx context.Context) (*jobs.RefreshReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &jobs.RefreshReport{IPOs: 3, Ongoing: 1, HistoriesRefreshed: 1, Duration: time.Second}, nil
}

type testEnv struct {
	app     *fiber.App
	cache   *services.EphemeralCache
	checker *stubChecker
}

func newTestEnv(t *testing.T, source services.IPOSource) *testEnv {
	t.Helper()

	clock := func() time.Time { return handlerNow }
	cache := services.NewEphemeralCache(clock)
	revalidator := services.NewRevalidator(cache, services.DefaultMaxAge, nil)
	pipeline := services.NewIPOPipeline(source, nil, revalidator, time.UTC, clock)
	loader := services.NewGMPHistoryLoader(&stubHistorySource{payload: `[{"date":"2026-02-14","gmp_value":12},{"date":"2026-02-13","gmp_value":10}]`}, revalidator)

	formURL := "https://registrar.example/allotment"
	checker := &stubChecker{status: models.AllotmentAllotted}
	performance := NewPerformanceHandler(nil, pipeline.Metrics())

	app := fiber.New()
	app.Use(performance.Track())
	RegisterRoutes(app, Set{
		IPO:         NewIPOHandler(pipeline),
		GMP:         NewGMPHandler(loader),
		Transform:   NewTransformHandler(clock),
		Check:       NewCheckHandler(&stubForms{form: &models.RegistrarForm{Registrar: "Link Intime", FormURL: &formURL}}, checker, cache, time.Hour),
		Market:      NewMarketHandler(pipeline),
		Cache:       NewCacheHandler(cache),
		Admin:       NewAdminHandler(&stubRefresher{}),
		Performance: performance,
	})
	return &testEnv{app: app, cache: cache, checker: checker}
}

func handlerIPOs() []models.DisplayIPO {
	return []models.DisplayIPO{
		{ID: "live", StockID: strPtr("LIVE01"), Name: "Live Co", Status: models.IPOStatusLive, Dates: models.IPODates{Close: strPtr("2026-02-16")}},
		{ID: "soon", Name: "Soon Co", Status: models.IPOStatusUpcoming, Dates: models.IPODates{Open: strPtr("2026-02-20")}},
	}
}

func doRequest(t *testing.T, app *fiber.App, method, target string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestGetIPOs(t *testing.T) {
	env := newTestEnv(t, &stubIPOSource{ipos: handlerIPOs()})

	status, body := doRequest(t, env.app, http.MethodGet, "/api/v1/ipos", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, false, body["stale"])

	items := body["data"].([]interface{})
	item := items[0].(map[string]interface{})
	assert.Equal(t, "live", item["ipo"].(map[string]interface{})["id"])
	assert.Equal(t, "Closes tomorrow", item["statusDisplay"].(map[string]interface{})["label"])

	_, body = doRequest(t, env.app, http.MethodGet, "/api/v1/ipos?filter=upcoming", nil)
	assert.Equal(t, float64(1), body["count"])
}

func TestGetBuckets(t *testing.T) {
	env := newTestEnv(t, &stubIPOSource{ipos: handlerIPOs()})

	status, body := doRequest(t, env.app, http.MethodGet, "/api/v1/ipos/buckets", nil)
	require.Equal(t, http.StatusOK, status)

	counts := body["counts"].(map[string]interface{})
	assert.Equal(t, float64(1), counts["ongoing"])
	assert.Equal(t, float64(1), counts["upcoming"])
	assert.Equal(t, float64(0), counts["listed"])
	assert.Contains(t, body["data"], "allotted")
}

func TestGetIPOByID(t *testing.T) {
	env := newTestEnv(t, &stubIPOSource{ipos: handlerIPOs()})

	status, body := doRequest(t, env.app, http.MethodGet, "/api/v1/ipos/LIVE01", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "live", body["data"].(map[string]interface{})["ipo"].(map[string]interface{})["id"])

	status, body = doRequest(t, env.app, http.MethodGet, "/api/v1/ipos/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
}

func TestIPOsWithoutSource(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := doRequest(t, env.app, http.MethodGet, "/api/v1/ipos", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, shared.ErrUpstreamDisabled.Error(), body["error"])

	status, _ = doRequest(t, env.app, http.MethodGet, "/api/v1/market/indices", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestGetGMPHistory(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := doRequest(t, env.app, http.MethodGet, "/api/v1/ipos/LIVE01/gmp/history", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["count"])

	points := body["data"].([]interface{})
	assert.Equal(t, "2026-02-13", points[0].(map[string]interface{})["date"])

	_, ok := env.cache.ReadStale(services.GMPHistoryKey("LIVE01"))
	assert.True(t, ok)
}

func TestTransform(t *testing.T) {
	env := newTestEnv(t, nil)
	raw := []map[string]interface{}{
		{"id": "t1", "name": "Acme Foods IPO", "company_code": "acme", "registrar": "Link", "status": "live", "close_date": "2026-02-15"},
	}

	status, body := doRequest(t, env.app, http.MethodPost, "/api/v1/transform/v1", raw)
	require.Equal(t, http.StatusOK, status)
	item := body["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "LIVE", item["status"])

	_, body = doRequest(t, env.app, http.MethodPost, "/api/v1/transform/v1?with_status=true", raw)
	item = body["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Closes today", item["statusDisplay"].(map[string]interface{})["label"])

	_, body = doRequest(t, env.app, http.MethodPost, "/api/v1/transform/v2", map[string]string{"not": "a list"})
	assert.Equal(t, float64(0), body["count"])
}

func TestNormalizeAllotment(t *testing.T) {
	env := newTestEnv(t, nil)

	_, body := doRequest(t, env.app, http.MethodPost, "/api/v1/allotment/normalize", map[string]string{"status": "not_allotted"})
	assert.Equal(t, "NOT_ALLOTTED", body["data"].(map[string]interface{})["status"])

	_, body = doRequest(t, env.app, http.MethodPost, "/api/v1/allotment/normalize", map[string]string{"status": "REFUNDED"})
	assert.Equal(t, "PENDING", body["data"].(map[string]interface{})["status"])
}

func TestCheckAllotmentValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := doRequest(t, env.app, http.MethodPost, "/api/v1/allotment/check", map[string]string{"ipo_id": "nope", "pan": "ABCDE1234F"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid IPO ID format", body["error"])

	status, body = doRequest(t, env.app, http.MethodPost, "/api/v1/allotment/check", map[string]string{"ipo_id": uuid.NewString(), "pan": "ABC123"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid PAN format", body["error"])
}

func TestCheckAllotmentCachesFinalResults(t *testing.T) {
	env := newTestEnv(t, nil)
	request := map[string]string{"ipo_id": uuid.NewString(), "pan": "abcde1234f"}

	status, body := doRequest(t, env.app, http.MethodPost, "/api/v1/allotment/check", request)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, "ALLOTTED", body["data"].(map[string]interface{})["status"])

	_, body = doRequest(t, env.app, http.MethodPost, "/api/v1/allotment/check", request)
	assert.Equal(t, true, body["cached"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&env.checker.calls))
}

func TestCheckAllotmentPendingNotCached(t *testing.T) {
	env := newTestEnv(t, nil)
	env.checker.status = models.AllotmentPending
	request := map[string]string{"ipo_id": uuid.NewString(), "pan": "ABCDE1234F"}

	doRequest(t, env.app, http.MethodPost, "/api/v1/allotment/check", request)
	_, body := doRequest(t, env.app, http.MethodPost, "/api/v1/allotment/check", request)
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&env.checker.calls))
}

func TestCheckAllotmentErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	request := map[string]string{"ipo_id": uuid.NewString(), "pan": "ABCDE1234F"}

	env.checker.err = services.ErrFormNotConfigured
	status, _ := doRequest(t, env.app, http.MethodPost, "/api/v1/allotment/check", request)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	env.checker.err = shared.NewServiceError(shared.ErrorCategoryNetwork, "REGISTRAR_REQUEST_FAILED", "timeout", "AllotmentChecker", "Check", true, nil)
	status, _ = doRequest(t, env.app, http.MethodPost, "/api/v1/allotment/check", request)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestCheckAllotmentNotConfigured(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app, Set{Check: NewCheckHandler(nil, nil, nil, 0)})

	status, _ := doRequest(t, app, http.MethodPost, "/api/v1/allotment/check", map[string]string{"ipo_id": uuid.NewString(), "pan": "ABCDE1234F"})
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestCacheEndpoints(t *testing.T) {
	env := newTestEnv(t, &stubIPOSource{ipos: handlerIPOs()})
	doRequest(t, env.app, http.MethodGet, "/api/v1/ipos", nil)
	env.cache.Write("other", 1)

	_, body := doRequest(t, env.app, http.MethodGet, "/api/v1/cache/stats", nil)
	assert.Equal(t, float64(2), body["data"].(map[string]interface{})["size"])

	doRequest(t, env.app, http.MethodDelete, "/api/v1/cache?key=other", nil)
	assert.Equal(t, 1, env.cache.Size())

	doRequest(t, env.app, http.MethodDelete, "/api/v1/cache", nil)
	assert.Equal(t, 0, env.cache.Size())
}

func TestTriggerRefresh(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := doRequest(t, env.app, http.MethodPost, "/api/v1/admin/refresh", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1s", body["duration"])
	assert.Equal(t, float64(3), body["data"].(map[string]interface{})["ipos"])

	app := fiber.New()
	RegisterRoutes(app, Set{Admin: NewAdminHandler(&stubRefresher{err: errors.New("boom")})})
	status, _ = doRequest(t, app, http.MethodPost, "/api/v1/admin/refresh", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestTriggerRefreshWhileRunning(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app, Set{Admin: NewAdminHandler(&stubRefresher{err: jobs.ErrRefreshInProgress})})

	status, body := doRequest(t, app, http.MethodPost, "/api/v1/admin/refresh", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, jobs.ErrRefreshInProgress.Error(), body["error"])
}

func TestGetMetrics(t *testing.T) {
	env := newTestEnv(t, &stubIPOSource{ipos: handlerIPOs()})
	doRequest(t, env.app, http.MethodGet, "/api/v1/ipos", nil)

	status, body := doRequest(t, env.app, http.MethodGet, "/api/v1/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]interface{})

	snapshots := data["services"].([]interface{})
	require.Len(t, snapshots, 1)
	assert.Equal(t, "IPO_Pipeline", snapshots[0].(map[string]interface{})["service_name"])
	assert.GreaterOrEqual(t, data["requests"].(map[string]interface{})["samples"], float64(1))
	assert.NotContains(t, data, "upstream_http")
}

func TestGetMetricsRateLimitedRequests(t *testing.T) {
	limiter := shared.NewHTTPRequestRateLimiter(0)
	require.NoError(t, limiter.Wait(context.Background()))
	require.NoError(t, limiter.Wait(context.Background()))

	performance := NewPerformanceHandler(shared.NewHTTPMetrics())
	performance.RateLimiters = map[string]*shared.HTTPRequestRateLimiter{"registrar": limiter}
	app := fiber.New()
	RegisterRoutes(app, Set{Performance: performance})

	status, body := doRequest(t, app, http.MethodGet, "/api/v1/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"registrar": float64(2)}, data["rate_limited_requests"])
	assert.Contains(t, data, "upstream_http")
}
