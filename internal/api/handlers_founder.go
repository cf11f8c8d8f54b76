package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/founder-insights/internal/insights"
)

// ========== Founder Dashboard Handlers ==========

// GetConfidence returns the trust assessment for all computed metrics.
func (h *Handlers) GetConfidence(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respondError(w, http.StatusServiceUnavailable, "Analytics provider not configured")
		return
	}

	res := h.provider.ConfidenceSignals(r.Context())
	// A missing signal set degrades to zero coverage, which the scorer maps
	// to a zero-score summary with its own explanatory note.
	summary := insights.ComputeConfidence(res.OrZero(), h.confidenceCfg)
	respondJSON(w, http.StatusOK, summary)
}

// GetFunnel returns the conversion funnel for the selected period and track.
func (h *Handlers) GetFunnel(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respondError(w, http.StatusServiceUnavailable, "Analytics provider not configured")
		return
	}

	period := insights.NormalizePeriod(r.URL.Query().Get("period"))
	track := insights.NormalizeTrack(r.URL.Query().Get("track"))

	res := h.provider.StepCounts(r.Context(), period, track)
	funnel := insights.ComputeFunnel(res.OrZero(), insights.FunnelOptions{
		Period:      period,
		Track:       track,
		IsEstimated: res.IsEstimated,
	})
	respondJSON(w, http.StatusOK, funnel)
}

// GetBlockers returns ranked growth friction points for the selected window.
func (h *Handlers) GetBlockers(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respondError(w, http.StatusServiceUnavailable, "Analytics provider not configured")
		return
	}

	ctx := r.Context()
	period := insights.NormalizePeriod(r.URL.Query().Get("period"))
	track := insights.NormalizeTrack(r.URL.Query().Get("track"))

	// Blocker detection consumes funnel output, so the funnel inputs and the
	// two signal sets are fetched concurrently first.
	var (
		wg    sync.WaitGroup
		steps insights.Result[[]insights.StepCount]
		eng   insights.Result[insights.EngagementSignals]
		risk  insights.Result[insights.RiskSignals]
	)
	wg.Add(3)
	go func() { defer wg.Done(); steps = h.provider.StepCounts(ctx, period, track) }()
	go func() { defer wg.Done(); eng = h.provider.EngagementSignals(ctx) }()
	go func() { defer wg.Done(); risk = h.provider.RiskSignals(ctx) }()
	wg.Wait()

	funnel := insights.ComputeFunnel(steps.OrZero(), insights.FunnelOptions{
		Period:      period,
		Track:       track,
		IsEstimated: steps.IsEstimated,
	})
	blockers := insights.DetectBlockers(funnel, eng.OrZero(), risk.OrZero(), h.blockerCfg)
	respondJSON(w, http.StatusOK, blockers)
}

// SimulateStrategy projects the effect of the requested growth levers.
func (h *Handlers) SimulateStrategy(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respondError(w, http.StatusServiceUnavailable, "Analytics provider not configured")
		return
	}

	var inputs insights.StrategyInputs
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx := r.Context()
	track := insights.NormalizeTrack(string(inputs.Track))

	var (
		wg       sync.WaitGroup
		baseline insights.Result[insights.FounderMetrics]
		signals  insights.Result[insights.ConfidenceSignals]
	)
	wg.Add(2)
	go func() { defer wg.Done(); baseline = h.provider.BaselineMetrics(ctx, track) }()
	go func() { defer wg.Done(); signals = h.provider.ConfidenceSignals(ctx) }()
	wg.Wait()

	confidence := insights.ComputeConfidence(signals.OrZero(), h.confidenceCfg)
	outputs := insights.Simulate(baseline.OrZero(), confidence, inputs, h.simulatorCfg)
	respondJSON(w, http.StatusOK, outputs)
}

// DashboardResponse is the combined founder dashboard payload.
type DashboardResponse struct {
	SnapshotID       string                     `json:"snapshotId"`
	Timestamp        time.Time                  `json:"timestamp"`
	Period           insights.Period            `json:"period"`
	Track            insights.Track             `json:"track"`
	Confidence       insights.ConfidenceSummary `json:"confidence"`
	Funnel           insights.FunnelData        `json:"funnel"`
	Blockers         []insights.GrowthBlocker   `json:"blockers"`
	Baseline         insights.FounderMetrics    `json:"baseline"`
	DataQualityNotes []string                   `json:"dataQualityNotes"`
}

// GetDashboard returns confidence, funnel, blockers and the baseline snapshot
// in one call. Collaborator fetches run concurrently; the engine calls over
// the gathered inputs are synchronous.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respondError(w, http.StatusServiceUnavailable, "Analytics provider not configured")
		return
	}

	period := insights.NormalizePeriod(r.URL.Query().Get("period"))
	track := insights.NormalizeTrack(r.URL.Query().Get("track"))

	in := h.provider.GatherDashboard(r.Context(), period, track)

	funnel := insights.ComputeFunnel(in.Steps.OrZero(), insights.FunnelOptions{
		Period:      period,
		Track:       track,
		IsEstimated: in.Steps.IsEstimated,
	})

	respondJSON(w, http.StatusOK, DashboardResponse{
		SnapshotID:       uuid.NewString(),
		Timestamp:        time.Now(),
		Period:           period,
		Track:            track,
		Confidence:       insights.ComputeConfidence(in.Confidence.OrZero(), h.confidenceCfg),
		Funnel:           funnel,
		Blockers:         insights.DetectBlockers(funnel, in.Engagement.OrZero(), in.Risk.OrZero(), h.blockerCfg),
		Baseline:         in.Baseline.OrZero(),
		DataQualityNotes: in.Notes(),
	})
}
