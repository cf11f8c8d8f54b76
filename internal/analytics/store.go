package analytics

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/founder-insights/internal/insights"
)

// Store reads pre-aggregated analytics rollups from postgres. It is the data
// half of the founder dashboard: everything it returns is a plain count or
// ratio, and all derived math happens downstream in the insights engine.
type Store struct {
	db *sql.DB

	// KPIs with fewer samples than this in the 30d window count as
	// low-volume warnings for confidence scoring.
	minSampleSize int64
}

// NewStore creates a store over an open postgres handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, minSampleSize: 50}
}

// funnelPipeline is the canonical conversion pipeline, in order. Funnel
// queries always return steps in exactly this sequence, zero-filled when a
// stage has no events in the window.
var funnelPipeline = []struct {
	Step  string
	Label string
}{
	{"visit", "Visit"},
	{"registration", "Registration"},
	{"nda_requested", "NDA Requested"},
	{"nda_signed", "NDA Signed"},
	{"enquiry", "Enquiry"},
	{"deal_room", "Deal Room"},
}

func periodDays(period insights.Period) int {
	if period == insights.Period7d {
		return 7
	}
	return 30
}

const stepCountsQuery = `
	SELECT step, COALESCE(SUM(cnt), 0)
	FROM funnel_daily_counts
	WHERE day >= CURRENT_DATE - $1::int
	  AND ($2 = 'all' OR track = $2)
	GROUP BY step`

// StepCounts returns the funnel stage counts for the window and cohort, in
// canonical pipeline order.
func (s *Store) StepCounts(ctx context.Context, period insights.Period, track insights.Track) ([]insights.StepCount, error) {
	rows, err := s.db.QueryContext(ctx, stepCountsQuery, periodDays(period), string(track))
	if err != nil {
		return nil, fmt.Errorf("query step counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64, len(funnelPipeline))
	for rows.Next() {
		var step string
		var cnt int64
		if err := rows.Scan(&step, &cnt); err != nil {
			return nil, fmt.Errorf("scan step count: %w", err)
		}
		counts[step] = cnt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate step counts: %w", err)
	}

	out := make([]insights.StepCount, 0, len(funnelPipeline))
	for _, stage := range funnelPipeline {
		out = append(out, insights.StepCount{
			Step:  stage.Step,
			Label: stage.Label,
			Count: counts[stage.Step],
		})
	}
	return out, nil
}

const coverageQuery = `
	SELECT COUNT(DISTINCT day), COALESCE(SUM(sessions), 0), COALESCE(SUM(events), 0)
	FROM sessions_daily
	WHERE day >= CURRENT_DATE - 30`

const metricQualityQuery = `
	SELECT
	  COUNT(*) FILTER (WHERE is_estimated),
	  COUNT(*) FILTER (WHERE sample_size < $1)
	FROM metric_rollups
	WHERE track = 'all'`

// ConfidenceSignals returns the coverage and volume inputs for the scorer.
func (s *Store) ConfidenceSignals(ctx context.Context) (insights.ConfidenceSignals, error) {
	var sig insights.ConfidenceSignals

	err := s.db.QueryRowContext(ctx, coverageQuery).
		Scan(&sig.CoverageDays, &sig.Sessions30d, &sig.Events30d)
	if err != nil {
		return sig, fmt.Errorf("query coverage: %w", err)
	}

	err = s.db.QueryRowContext(ctx, metricQualityQuery, s.minSampleSize).
		Scan(&sig.EstimatedMetrics, &sig.LowVolumeWarnings)
	if err != nil {
		return sig, fmt.Errorf("query metric quality: %w", err)
	}

	return sig, nil
}

const baselineQuery = `
	SELECT metric, value_7d, value_30d, is_estimated
	FROM metric_rollups
	WHERE track = $1`

// BaselineMetrics returns the KPI snapshot for one track. Metrics absent from
// the rollup table stay nil-valued so downstream math degrades instead of
// guessing.
func (s *Store) BaselineMetrics(ctx context.Context, track insights.Track) (insights.FounderMetrics, error) {
	var fm insights.FounderMetrics

	rows, err := s.db.QueryContext(ctx, baselineQuery, string(track))
	if err != nil {
		return fm, fmt.Errorf("query baseline metrics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var metric string
		var v7, v30 sql.NullFloat64
		var estimated bool
		if err := rows.Scan(&metric, &v7, &v30, &estimated); err != nil {
			return fm, fmt.Errorf("scan baseline metric: %w", err)
		}

		var p7, p30 *float64
		if v7.Valid {
			p7 = &v7.Float64
		}
		if v30.Valid {
			p30 = &v30.Float64
		}

		switch metric {
		case "visitors":
			fm.Visitors = insights.NewMetricPoint("Visitors", p7, p30, estimated)
		case "registrations":
			fm.Registrations = insights.NewMetricPoint("Registrations", p7, p30, estimated)
		case "nda_requested":
			fm.NDARequested = insights.NewMetricPoint("NDAs Requested", p7, p30, estimated)
		case "nda_signed":
			fm.NDASigned = insights.NewMetricPoint("NDAs Signed", p7, p30, estimated)
		case "enquiries":
			fm.Enquiries = insights.NewMetricPoint("Enquiries", p7, p30, estimated)
		case "deal_rooms_active":
			fm.DealRoomsActive = insights.NewMetricPoint("Active Deal Rooms", p7, p30, estimated)
		case "paid_users":
			fm.PaidUsers = insights.NewMetricPoint("Paid Users", p7, p30, estimated)
		case "mrr":
			fm.MRR = insights.NewMetricPoint("MRR", p7, p30, estimated)
		}
	}
	if err := rows.Err(); err != nil {
		return fm, fmt.Errorf("iterate baseline metrics: %w", err)
	}

	return fm, nil
}

const engagementQuery = `
	SELECT
	  COALESCE(SUM(sessions), 0),
	  COALESCE(SUM(page_views), 0),
	  COALESCE(SUM(returning_sessions), 0)
	FROM sessions_daily
	WHERE day >= CURRENT_DATE - 30`

const listingDemandQuery = `
	SELECT
	  COALESCE(SUM(CASE WHEN metric = 'enquiries' THEN value_30d END), 0),
	  COALESCE(SUM(CASE WHEN metric = 'listings_active' THEN value_30d END), 0)
	FROM metric_rollups
	WHERE track = 'all'`

// EngagementSignals returns the browse-depth and retention ratios feeding the
// blocker rules. Zero denominators yield zero-valued signals, the documented
// "no data" sentinel.
func (s *Store) EngagementSignals(ctx context.Context) (insights.EngagementSignals, error) {
	var sig insights.EngagementSignals
	var sessions, pageViews, returning int64

	err := s.db.QueryRowContext(ctx, engagementQuery).Scan(&sessions, &pageViews, &returning)
	if err != nil {
		return sig, fmt.Errorf("query engagement: %w", err)
	}
	if sessions > 0 {
		sig.PageViewsPerSession = float64(pageViews) / float64(sessions)
		sig.ReturnVisitorRatio = float64(returning) / float64(sessions)
	}

	var enquiries, listings float64
	err = s.db.QueryRowContext(ctx, listingDemandQuery).Scan(&enquiries, &listings)
	if err != nil {
		return sig, fmt.Errorf("query listing demand: %w", err)
	}
	if listings > 0 {
		sig.EnquiriesPerListing = enquiries / listings
	}

	return sig, nil
}

const riskQuery = `
	SELECT
	  COALESCE(SUM(sessions), 0),
	  COALESCE(SUM(high_risk_sessions), 0)
	FROM sessions_daily
	WHERE day >= CURRENT_DATE - 30`

const billingQuery = `
	SELECT
	  COALESCE(SUM(attempts), 0),
	  COALESCE(SUM(failures), 0)
	FROM billing_daily
	WHERE day >= CURRENT_DATE - 30`

// RiskSignals returns the abuse and payment-health ratios feeding the blocker
// rules.
func (s *Store) RiskSignals(ctx context.Context) (insights.RiskSignals, error) {
	var sig insights.RiskSignals
	var sessions, highRisk int64

	err := s.db.QueryRowContext(ctx, riskQuery).Scan(&sessions, &highRisk)
	if err != nil {
		return sig, fmt.Errorf("query risk sessions: %w", err)
	}
	if sessions > 0 {
		sig.HighRiskSessionRatio = float64(highRisk) / float64(sessions)
	}

	var attempts, failures int64
	err = s.db.QueryRowContext(ctx, billingQuery).Scan(&attempts, &failures)
	if err != nil {
		return sig, fmt.Errorf("query billing health: %w", err)
	}
	if attempts > 0 {
		sig.PaymentFailureRate = float64(failures) / float64(attempts)
	}

	return sig, nil
}

// Ping verifies database connectivity for health checks.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("analytics store has no database handle")
	}
	return s.db.PingContext(ctx)
}
