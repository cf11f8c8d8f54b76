package analytics

import (
	"context"
	"sync"

	"github.com/ignite/founder-insights/internal/insights"
	"github.com/ignite/founder-insights/internal/pkg/logger"
)

// Provider is the collaborator facade the HTTP layer talks to. Every method
// wraps the store in a Result so a failed or absent upstream degrades to a
// safe default plus an explanatory note instead of an error page; the
// "return safe defaults with a data quality note" pattern lives here once,
// not per dashboard page. Raw aggregates are cached in redis when available.
type Provider struct {
	store *Store
	cache *Cache
}

// NewProvider builds a provider. cache may be nil when redis is disabled.
func NewProvider(store *Store, cache *Cache) *Provider {
	return &Provider{store: store, cache: cache}
}

const storeUnavailableNote = "analytics store unavailable; showing safe defaults"

// StepCounts returns ordered funnel stage counts for the window and cohort.
func (p *Provider) StepCounts(ctx context.Context, period insights.Period, track insights.Track) insights.Result[[]insights.StepCount] {
	key := cacheKey("steps", string(period), string(track))

	var cached []insights.StepCount
	if p.cache.Get(ctx, key, &cached) {
		return insights.Ok(cached)
	}

	counts, err := p.store.StepCounts(ctx, period, track)
	if err != nil {
		logger.Error("step counts fetch failed", "period", string(period), "track", string(track), "error", err.Error())
		return insights.Unavailable[[]insights.StepCount](storeUnavailableNote)
	}

	p.cache.Set(ctx, key, counts)
	return insights.Ok(counts)
}

// ConfidenceSignals returns the scorer inputs. On failure the zero signal set
// is returned, which the scorer maps to a zero-confidence summary.
func (p *Provider) ConfidenceSignals(ctx context.Context) insights.Result[insights.ConfidenceSignals] {
	key := cacheKey("signals", "confidence")

	var cached insights.ConfidenceSignals
	if p.cache.Get(ctx, key, &cached) {
		return insights.Ok(cached)
	}

	sig, err := p.store.ConfidenceSignals(ctx)
	if err != nil {
		logger.Error("confidence signals fetch failed", "error", err.Error())
		return insights.Unavailable[insights.ConfidenceSignals](storeUnavailableNote)
	}

	p.cache.Set(ctx, key, sig)
	return insights.Ok(sig)
}

// BaselineMetrics returns the KPI snapshot for one track.
func (p *Provider) BaselineMetrics(ctx context.Context, track insights.Track) insights.Result[insights.FounderMetrics] {
	key := cacheKey("baseline", string(track))

	var cached insights.FounderMetrics
	if p.cache.Get(ctx, key, &cached) {
		return insights.Ok(cached)
	}

	fm, err := p.store.BaselineMetrics(ctx, track)
	if err != nil {
		logger.Error("baseline metrics fetch failed", "track", string(track), "error", err.Error())
		return insights.Unavailable[insights.FounderMetrics](storeUnavailableNote)
	}

	p.cache.Set(ctx, key, fm)
	return insights.Ok(fm)
}

// EngagementSignals returns browse-depth and retention ratios.
func (p *Provider) EngagementSignals(ctx context.Context) insights.Result[insights.EngagementSignals] {
	key := cacheKey("signals", "engagement")

	var cached insights.EngagementSignals
	if p.cache.Get(ctx, key, &cached) {
		return insights.Ok(cached)
	}

	sig, err := p.store.EngagementSignals(ctx)
	if err != nil {
		logger.Error("engagement signals fetch failed", "error", err.Error())
		return insights.Unavailable[insights.EngagementSignals](storeUnavailableNote)
	}

	p.cache.Set(ctx, key, sig)
	return insights.Ok(sig)
}

// RiskSignals returns abuse and payment-health ratios.
func (p *Provider) RiskSignals(ctx context.Context) insights.Result[insights.RiskSignals] {
	key := cacheKey("signals", "risk")

	var cached insights.RiskSignals
	if p.cache.Get(ctx, key, &cached) {
		return insights.Ok(cached)
	}

	sig, err := p.store.RiskSignals(ctx)
	if err != nil {
		logger.Error("risk signals fetch failed", "error", err.Error())
		return insights.Unavailable[insights.RiskSignals](storeUnavailableNote)
	}

	p.cache.Set(ctx, key, sig)
	return insights.Ok(sig)
}

// DashboardInputs is everything the combined dashboard needs, gathered in one
// concurrent pass over the collaborators.
type DashboardInputs struct {
	Steps      insights.Result[[]insights.StepCount]
	Confidence insights.Result[insights.ConfidenceSignals]
	Baseline   insights.Result[insights.FounderMetrics]
	Engagement insights.Result[insights.EngagementSignals]
	Risk       insights.Result[insights.RiskSignals]
}

// Notes collects the data-quality notes from every degraded input, deduped.
func (d DashboardInputs) Notes() []string {
	notes := []string{}
	seen := map[string]bool{}
	for _, n := range []string{d.Steps.Note, d.Confidence.Note, d.Baseline.Note, d.Engagement.Note, d.Risk.Note} {
		if n != "" && !seen[n] {
			seen[n] = true
			notes = append(notes, n)
		}
	}
	return notes
}

// PingStore verifies database connectivity for health reporting.
func (p *Provider) PingStore(ctx context.Context) error {
	return p.store.Ping(ctx)
}

// PingCache verifies redis connectivity. Errors when the cache is disabled.
func (p *Provider) PingCache(ctx context.Context) error {
	return p.cache.Ping(ctx)
}

// GatherDashboard fetches all five collaborator payloads concurrently.
// Suspension lives here at the fetch boundary; the engine calls that consume
// these inputs are synchronous and pure.
func (p *Provider) GatherDashboard(ctx context.Context, period insights.Period, track insights.Track) DashboardInputs {
	var in DashboardInputs
	var wg sync.WaitGroup

	wg.Add(5)
	go func() { defer wg.Done(); in.Steps = p.StepCounts(ctx, period, track) }()
	go func() { defer wg.Done(); in.Confidence = p.ConfidenceSignals(ctx) }()
	go func() { defer wg.Done(); in.Baseline = p.BaselineMetrics(ctx, track) }()
	go func() { defer wg.Done(); in.Engagement = p.EngagementSignals(ctx) }()
	go func() { defer wg.Done(); in.Risk = p.RiskSignals(ctx) }()
	wg.Wait()

	return in
}
