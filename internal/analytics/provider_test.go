package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/founder-insights/internal/insights"
)

func TestProvider_DegradesWhenStoreFails(t *testing.T) {
	store, mock := newMockStore(t)
	provider := NewProvider(store, nil)
	ctx := context.Background()

	mock.ExpectQuery("FROM funnel_daily_counts").WillReturnError(assert.AnError)

	res := provider.StepCounts(ctx, insights.Period30d, insights.TrackAll)
	assert.Nil(t, res.Value)
	assert.True(t, res.IsEstimated)
	assert.Equal(t, storeUnavailableNote, res.Note)

	// OrZero gives the engine a safe empty input.
	funnel := insights.ComputeFunnel(res.OrZero(), insights.FunnelOptions{
		Period: insights.Period30d, Track: insights.TrackAll, IsEstimated: res.IsEstimated,
	})
	assert.Empty(t, funnel.Steps)
	assert.True(t, funnel.IsEstimated)
}

func TestProvider_CacheAvoidsSecondQuery(t *testing.T) {
	store, mock := newMockStore(t)
	cache, _ := setupTestCache(t, time.Minute)
	provider := NewProvider(store, cache)
	ctx := context.Background()

	// Exactly one expected query: the second call must hit the cache.
	mock.ExpectQuery("FROM sessions_daily").
		WillReturnRows(sqlmock.NewRows([]string{"days", "sessions", "events"}).AddRow(30, 10000, 50000))
	mock.ExpectQuery("FROM metric_rollups").
		WithArgs(int64(50)).
		WillReturnRows(sqlmock.NewRows([]string{"estimated", "low_volume"}).AddRow(0, 0))

	first := provider.ConfidenceSignals(ctx)
	require.NotNil(t, first.Value)

	second := provider.ConfidenceSignals(ctx)
	require.NotNil(t, second.Value)
	assert.Equal(t, *first.Value, *second.Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGatherDashboard_AllInputsPresent(t *testing.T) {
	store, mock := newMockStore(t)
	provider := NewProvider(store, nil)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("FROM funnel_daily_counts").
		WillReturnRows(sqlmock.NewRows([]string{"step", "sum"}).AddRow("visit", 1000))
	mock.ExpectQuery("SELECT COUNT\\(DISTINCT day\\)").
		WillReturnRows(sqlmock.NewRows([]string{"days", "sessions", "events"}).AddRow(30, 10000, 50000))
	mock.ExpectQuery("COUNT\\(\\*\\) FILTER").
		WillReturnRows(sqlmock.NewRows([]string{"estimated", "low_volume"}).AddRow(0, 0))
	mock.ExpectQuery("SELECT metric, value_7d").
		WillReturnRows(sqlmock.NewRows([]string{"metric", "value_7d", "value_30d", "is_estimated"}).
			AddRow("nda_signed", 25.0, 100.0, false))
	mock.ExpectQuery("COALESCE\\(SUM\\(page_views\\), 0\\)").
		WillReturnRows(sqlmock.NewRows([]string{"sessions", "page_views", "returning"}).AddRow(1000, 3200, 240))
	mock.ExpectQuery("CASE WHEN metric = 'enquiries'").
		WillReturnRows(sqlmock.NewRows([]string{"enquiries", "listings"}).AddRow(60.0, 120.0))
	mock.ExpectQuery("COALESCE\\(SUM\\(high_risk_sessions\\), 0\\)").
		WillReturnRows(sqlmock.NewRows([]string{"sessions", "high_risk"}).AddRow(1000, 50))
	mock.ExpectQuery("FROM billing_daily").
		WillReturnRows(sqlmock.NewRows([]string{"attempts", "failures"}).AddRow(200, 2))

	in := provider.GatherDashboard(context.Background(), insights.Period30d, insights.TrackAll)

	assert.NotNil(t, in.Steps.Value)
	assert.NotNil(t, in.Confidence.Value)
	assert.NotNil(t, in.Baseline.Value)
	assert.NotNil(t, in.Engagement.Value)
	assert.NotNil(t, in.Risk.Value)
	assert.Empty(t, in.Notes())
}

func TestDashboardInputs_NotesDeduped(t *testing.T) {
	in := DashboardInputs{
		Steps:      insights.Unavailable[[]insights.StepCount](storeUnavailableNote),
		Confidence: insights.Unavailable[insights.ConfidenceSignals](storeUnavailableNote),
		Baseline:   insights.Ok(insights.FounderMetrics{}),
		Engagement: insights.Ok(insights.EngagementSignals{}),
		Risk:       insights.Ok(insights.RiskSignals{}),
	}

	assert.Equal(t, []string{storeUnavailableNote}, in.Notes())
}
