package analytics

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/founder-insights/internal/insights"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestStepCounts_CanonicalOrderAndZeroFill(t *testing.T) {
	store, mock := newMockStore(t)

	// Rows come back in arbitrary order and with stages missing.
	mock.ExpectQuery("FROM funnel_daily_counts").
		WithArgs(30, "all").
		WillReturnRows(sqlmock.NewRows([]string{"step", "sum"}).
			AddRow("nda_signed", 90).
			AddRow("visit", 1000).
			AddRow("registration", 400).
			AddRow("enquiry", 40))

	got, err := store.StepCounts(context.Background(), insights.Period30d, insights.TrackAll)
	require.NoError(t, err)

	require.Len(t, got, 6)
	wantSteps := []string{"visit", "registration", "nda_requested", "nda_signed", "enquiry", "deal_room"}
	wantCounts := []int64{1000, 400, 0, 90, 40, 0}
	for i := range got {
		assert.Equal(t, wantSteps[i], got[i].Step)
		assert.Equal(t, wantCounts[i], got[i].Count)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStepCounts_PeriodAndTrackFilters(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM funnel_daily_counts").
		WithArgs(7, "digital").
		WillReturnRows(sqlmock.NewRows([]string{"step", "sum"}))

	got, err := store.StepCounts(context.Background(), insights.Period7d, insights.TrackDigital)
	require.NoError(t, err)
	require.Len(t, got, 6)
	for _, sc := range got {
		assert.Zero(t, sc.Count)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfidenceSignals(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM sessions_daily").
		WillReturnRows(sqlmock.NewRows([]string{"days", "sessions", "events"}).AddRow(28, 9400, 41200))
	mock.ExpectQuery("FROM metric_rollups").
		WithArgs(int64(50)).
		WillReturnRows(sqlmock.NewRows([]string{"estimated", "low_volume"}).AddRow(2, 1))

	got, err := store.ConfidenceSignals(context.Background())
	require.NoError(t, err)

	assert.Equal(t, insights.ConfidenceSignals{
		CoverageDays:      28,
		Sessions30d:       9400,
		Events30d:         41200,
		EstimatedMetrics:  2,
		LowVolumeWarnings: 1,
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBaselineMetrics(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM metric_rollups").
		WithArgs("operational").
		WillReturnRows(sqlmock.NewRows([]string{"metric", "value_7d", "value_30d", "is_estimated"}).
			AddRow("visitors", 2600.0, 10000.0, false).
			AddRow("nda_signed", 25.0, 100.0, false).
			AddRow("mrr", nil, 4000.0, true).
			AddRow("unknown_metric", 1.0, 2.0, false))

	got, err := store.BaselineMetrics(context.Background(), insights.TrackOperational)
	require.NoError(t, err)

	require.NotNil(t, got.Visitors.Value30d)
	assert.Equal(t, 10000.0, *got.Visitors.Value30d)
	require.NotNil(t, got.Visitors.Delta)
	assert.Equal(t, -7400.0, *got.Visitors.Delta)

	assert.Equal(t, 100.0, *got.NDASigned.Value30d)

	// Missing 7d window: delta stays nil, estimation flag carries through.
	assert.Nil(t, got.MRR.Value7d)
	assert.Nil(t, got.MRR.Delta)
	assert.True(t, got.MRR.IsEstimated)

	// Metrics never rolled up stay nil-valued.
	assert.Nil(t, got.PaidUsers.Value30d)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementSignals_Ratios(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM sessions_daily").
		WillReturnRows(sqlmock.NewRows([]string{"sessions", "page_views", "returning"}).AddRow(1000, 3200, 240))
	mock.ExpectQuery("FROM metric_rollups").
		WillReturnRows(sqlmock.NewRows([]string{"enquiries", "listings"}).AddRow(60.0, 120.0))

	got, err := store.EngagementSignals(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 3.2, got.PageViewsPerSession, 1e-9)
	assert.InDelta(t, 0.24, got.ReturnVisitorRatio, 1e-9)
	assert.InDelta(t, 0.5, got.EnquiriesPerListing, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementSignals_ZeroDenominators(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM sessions_daily").
		WillReturnRows(sqlmock.NewRows([]string{"sessions", "page_views", "returning"}).AddRow(0, 0, 0))
	mock.ExpectQuery("FROM metric_rollups").
		WillReturnRows(sqlmock.NewRows([]string{"enquiries", "listings"}).AddRow(0.0, 0.0))

	got, err := store.EngagementSignals(context.Background())
	require.NoError(t, err)

	// Zero sentinels, not NaN.
	assert.Zero(t, got.PageViewsPerSession)
	assert.Zero(t, got.ReturnVisitorRatio)
	assert.Zero(t, got.EnquiriesPerListing)
}

func TestRiskSignals(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM sessions_daily").
		WillReturnRows(sqlmock.NewRows([]string{"sessions", "high_risk"}).AddRow(1000, 250))
	mock.ExpectQuery("FROM billing_daily").
		WillReturnRows(sqlmock.NewRows([]string{"attempts", "failures"}).AddRow(200, 14))

	got, err := store.RiskSignals(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 0.25, got.HighRiskSessionRatio, 1e-9)
	assert.InDelta(t, 0.07, got.PaymentFailureRate, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_QueryErrorsPropagate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM funnel_daily_counts").
		WillReturnError(assert.AnError)

	_, err := store.StepCounts(context.Background(), insights.Period30d, insights.TrackAll)
	assert.ErrorContains(t, err, "query step counts")
}
