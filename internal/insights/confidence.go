package insights

import (
	"fmt"
	"sort"
)

// ConfidenceConfig holds the scorer's penalty weights and thresholds. The
// defaults are documented assumptions, not measured product constants, so
// every value is overridable from configuration.
type ConfidenceConfig struct {
	CoveragePenaltyPerDay  float64 // per missing day of the trailing 30
	EstimatedMetricPenalty float64 // per KPI computed via fallback heuristics
	LowVolumePenalty       float64 // per KPI below the significance floor
	MinSessions30d         int64   // below this, a flat penalty applies
	MinEvents30d           int64
	LowVolumeFlatPenalty   float64 // flat penalty for each volume floor missed
	HighThreshold          int     // score >= this -> high
	MediumThreshold        int     // score >= this -> medium
}

// DefaultConfidenceConfig returns the documented default weights.
func DefaultConfidenceConfig() ConfidenceConfig {
	return ConfidenceConfig{
		CoveragePenaltyPerDay:  1.5,
		EstimatedMetricPenalty: 8,
		LowVolumePenalty:       5,
		MinSessions30d:         100,
		MinEvents30d:           500,
		LowVolumeFlatPenalty:   15,
		HighThreshold:          75,
		MediumThreshold:        40,
	}
}

// confidenceFactor is one fired penalty, kept with its weight so notes can be
// ordered most severe first.
type confidenceFactor struct {
	penalty float64
	note    string
}

// ComputeConfidence turns coverage and volume signals into a 0-100 trust score
// with a level bucket and human-readable notes for each factor that fired.
// Pure and deterministic; identical signals always produce identical output.
func ComputeConfidence(sig ConfidenceSignals, cfg ConfidenceConfig) ConfidenceSummary {
	summary := ConfidenceSummary{
		CoverageDays:      sig.CoverageDays,
		Sessions30d:       sig.Sessions30d,
		Events30d:         sig.Events30d,
		EstimatedMetrics:  sig.EstimatedMetrics,
		LowVolumeWarnings: sig.LowVolumeWarnings,
	}

	// No coverage at all means nothing downstream can be trusted.
	if sig.CoverageDays <= 0 {
		summary.Score = 0
		summary.Level = ConfidenceLow
		summary.Notes = []string{"No analytics coverage available."}
		return summary
	}

	var factors []confidenceFactor
	score := 100.0

	if missing := 30 - sig.CoverageDays; missing > 0 {
		p := float64(missing) * cfg.CoveragePenaltyPerDay
		factors = append(factors, confidenceFactor{p, fmt.Sprintf(
			"Limited analytics coverage (%d of the last 30 days)", sig.CoverageDays)})
		score -= p
	}

	if sig.EstimatedMetrics > 0 {
		p := float64(sig.EstimatedMetrics) * cfg.EstimatedMetricPenalty
		factors = append(factors, confidenceFactor{p, fmt.Sprintf(
			"%d metrics estimated from fallback heuristics", sig.EstimatedMetrics)})
		score -= p
	}

	if sig.LowVolumeWarnings > 0 {
		p := float64(sig.LowVolumeWarnings) * cfg.LowVolumePenalty
		factors = append(factors, confidenceFactor{p, fmt.Sprintf(
			"%d metrics below the statistical-significance floor", sig.LowVolumeWarnings)})
		score -= p
	}

	if sig.Sessions30d < cfg.MinSessions30d {
		factors = append(factors, confidenceFactor{cfg.LowVolumeFlatPenalty, fmt.Sprintf(
			"Low session volume (%d sessions in 30d)", sig.Sessions30d)})
		score -= cfg.LowVolumeFlatPenalty
	}

	if sig.Events30d < cfg.MinEvents30d {
		factors = append(factors, confidenceFactor{cfg.LowVolumeFlatPenalty, fmt.Sprintf(
			"Low event volume (%d events in 30d)", sig.Events30d)})
		score -= cfg.LowVolumeFlatPenalty
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	summary.Score = roundHalfUp(score)

	switch {
	case summary.Score >= cfg.HighThreshold:
		summary.Level = ConfidenceHigh
	case summary.Score >= cfg.MediumThreshold:
		summary.Level = ConfidenceMedium
	default:
		summary.Level = ConfidenceLow
	}

	// Most severe factor first; stable so equal penalties keep firing order.
	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].penalty > factors[j].penalty
	})
	for _, f := range factors {
		summary.Notes = append(summary.Notes, f.note)
	}

	return summary
}
