package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/founder-insights/internal/analytics"
	"github.com/ignite/founder-insights/internal/config"
	"github.com/ignite/founder-insights/internal/insights"
)

// newTestHandlers wires a handler set over a sqlmock-backed store with no
// redis cache. Engine constants resolve to their defaults.
func newTestHandlers(t *testing.T) (*Handlers, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	provider := analytics.NewProvider(analytics.NewStore(db), nil)
	return NewHandlers(provider, config.InsightsConfig{}), mock
}

func TestNilProviderReturns503(t *testing.T) {
	h := NewHandlers(nil, config.InsightsConfig{})
	router := SetupRoutes(h, []string{"*"})

	requests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/founder/dashboard"},
		{http.MethodGet, "/api/founder/confidence"},
		{http.MethodGet, "/api/founder/funnel"},
		{http.MethodGet, "/api/founder/blockers"},
		{http.MethodPost, "/api/founder/strategy/simulate"},
	}

	for _, tc := range requests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, bytes.NewReader([]byte(`{}`)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], "not configured")
		})
	}
}

func TestGetFunnelNormalizesSelectors(t *testing.T) {
	h, mock := newTestHandlers(t)

	rows := sqlmock.NewRows([]string{"step", "cnt"}).
		AddRow("visit", int64(1000)).
		AddRow("registration", int64(400))
	mock.ExpectQuery("FROM funnel_daily_counts").
		WithArgs(7, "digital").
		WillReturnRows(rows)

	req := httptest.NewRequest(http.MethodGet, "/api/founder/funnel?period=7d&track=digital", nil)
	rec := httptest.NewRecorder()
	h.GetFunnel(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var funnel insights.FunnelData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &funnel))
	assert.Equal(t, insights.Period7d, funnel.Period)
	assert.Equal(t, insights.TrackDigital, funnel.Track)
	assert.False(t, funnel.IsEstimated)

	// Stages with no events still appear, zero-filled in canonical order.
	require.Len(t, funnel.Steps, 6)
	assert.Equal(t, "visit", funnel.Steps[0].Step)
	assert.Equal(t, int64(1000), funnel.Steps[0].Count)
	assert.Nil(t, funnel.Steps[0].ConversionRate)
	require.NotNil(t, funnel.Steps[1].ConversionRate)
	assert.Equal(t, 40, *funnel.Steps[1].ConversionRate)
	assert.Equal(t, int64(0), funnel.Steps[5].Count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFunnelUnknownSelectorsDefault(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectQuery("FROM funnel_daily_counts").
		WithArgs(30, "all").
		WillReturnRows(sqlmock.NewRows([]string{"step", "cnt"}))

	req := httptest.NewRequest(http.MethodGet, "/api/founder/funnel?period=90d&track=bogus", nil)
	rec := httptest.NewRecorder()
	h.GetFunnel(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var funnel insights.FunnelData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &funnel))
	assert.Equal(t, insights.Period30d, funnel.Period)
	assert.Equal(t, insights.TrackAll, funnel.Track)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFunnelDegradesOnStoreError(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectQuery("FROM funnel_daily_counts").
		WillReturnError(assert.AnError)

	req := httptest.NewRequest(http.MethodGet, "/api/founder/funnel", nil)
	rec := httptest.NewRecorder()
	h.GetFunnel(rec, req)

	// A failed upstream is a degraded page, never a 5xx.
	require.Equal(t, http.StatusOK, rec.Code)

	var funnel insights.FunnelData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &funnel))
	assert.True(t, funnel.IsEstimated)
	assert.Empty(t, funnel.Steps)
	assert.NotNil(t, funnel.Steps)
}

func TestGetConfidenceHappyPath(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectQuery(`SELECT COUNT\(DISTINCT day\)`).
		WillReturnRows(sqlmock.NewRows([]string{"days", "sessions", "events"}).
			AddRow(30, int64(5000), int64(20000)))
	mock.ExpectQuery(`COUNT\(\*\) FILTER`).
		WithArgs(int64(50)).
		WillReturnRows(sqlmock.NewRows([]string{"estimated", "low_volume"}).
			AddRow(0, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/founder/confidence", nil)
	rec := httptest.NewRecorder()
	h.GetConfidence(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var summary insights.ConfidenceSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 100, summary.Score)
	assert.Equal(t, insights.ConfidenceHigh, summary.Level)
	assert.Equal(t, 30, summary.CoverageDays)
	assert.Empty(t, summary.Notes)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetConfidenceDegradesToZeroCoverage(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectQuery(`SELECT COUNT\(DISTINCT day\)`).
		WillReturnError(assert.AnError)

	req := httptest.NewRequest(http.MethodGet, "/api/founder/confidence", nil)
	rec := httptest.NewRecorder()
	h.GetConfidence(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var summary insights.ConfidenceSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 0, summary.Score)
	assert.Equal(t, insights.ConfidenceLow, summary.Level)
	assert.Contains(t, summary.Notes, "No analytics coverage available.")
}

func TestSimulateStrategyRejectsBadBody(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/founder/strategy/simulate",
		bytes.NewReader([]byte(`{"listingsIncreasePct": "lots"`)))
	rec := httptest.NewRecorder()
	h.SimulateStrategy(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "Invalid request body")
}

func TestSimulateStrategyHappyPath(t *testing.T) {
	h, mock := newTestHandlers(t)

	// Baseline and confidence fetches run concurrently.
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery("SELECT metric, value_7d").
		WithArgs("all").
		WillReturnRows(sqlmock.NewRows([]string{"metric", "value_7d", "value_30d", "is_estimated"}).
			AddRow("nda_signed", 25.0, 100.0, false).
			AddRow("enquiries", 50.0, 200.0, false).
			AddRow("deal_rooms_active", 10.0, 40.0, false).
			AddRow("paid_users", 5.0, 20.0, false).
			AddRow("mrr", 500.0, 2000.0, false))
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT day\)`).
		WillReturnRows(sqlmock.NewRows([]string{"days", "sessions", "events"}).
			AddRow(30, int64(5000), int64(20000)))
	mock.ExpectQuery(`COUNT\(\*\) FILTER`).
		WithArgs(int64(50)).
		WillReturnRows(sqlmock.NewRows([]string{"estimated", "low_volume"}).
			AddRow(0, 0))

	payload := `{"track":"all","listingsIncreasePct":25,"ndaConversionUpliftPts":5}`
	req := httptest.NewRequest(http.MethodPost, "/api/founder/strategy/simulate",
		bytes.NewReader([]byte(payload)))
	rec := httptest.NewRecorder()
	h.SimulateStrategy(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var out insights.StrategyOutputs
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	// 100 signed NDAs * 1.125 supply + 100 * 0.05 uplift = 117.5, so 18 more.
	assert.Equal(t, insights.Band{Low: 16, Base: 18, High: 20}, out.AdditionalNDASigned)
	require.NotNil(t, out.RevenueImpact.Base)
	assert.NotEmpty(t, out.RecommendedFocus)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDashboardDegradedStillServes(t *testing.T) {
	// No expectations registered: every store query fails, exercising full
	// degradation across all five collaborator fetches.
	h, _ := newTestHandlers(t)
	router := SetupRoutes(h, []string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/api/founder/dashboard?period=7d", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp DashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SnapshotID)
	assert.Equal(t, insights.Period7d, resp.Period)
	assert.Equal(t, insights.TrackAll, resp.Track)
	assert.Equal(t, insights.ConfidenceLow, resp.Confidence.Level)
	assert.Empty(t, resp.Funnel.Steps)
	assert.Contains(t, resp.DataQualityNotes, "analytics store unavailable; showing safe defaults")
}

func TestGetBlockersDegradesQuietly(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/founder/blockers", nil)
	rec := httptest.NewRecorder()
	h.GetBlockers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	// Zero-valued signals are the no-data sentinel; no phantom blockers fire.
	var blockers []insights.GrowthBlocker
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blockers))
	assert.Empty(t, blockers)
}

func TestHealthCheckReportsCollectorState(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
	assert.Equal(t, "disabled", body["cache"])
	assert.NotContains(t, body, "collector")
}
