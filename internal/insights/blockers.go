package insights

import (
	"fmt"
	"sort"
)

// BlockerConfig holds the threshold constants for every detection rule.
// Defaults are documented assumptions, overridable from configuration.
type BlockerConfig struct {
	HighDropOffPct         int     // drop-off rate above this is a high-severity conversion blocker
	MediumDropOffPct       int     // drop-off rate above this (up to the high bound) is medium
	MinPageViewsPerSession float64
	HighRiskSessionRatio   float64
	MinReturnVisitorRatio  float64
	MaxPaymentFailureRate  float64
	MinEnquiriesPerListing float64
}

// DefaultBlockerConfig returns the documented default thresholds.
func DefaultBlockerConfig() BlockerConfig {
	return BlockerConfig{
		HighDropOffPct:         60,
		MediumDropOffPct:       35,
		MinPageViewsPerSession: 2,
		HighRiskSessionRatio:   0.2,
		MinReturnVisitorRatio:  0.1,
		MaxPaymentFailureRate:  0.05,
		MinEnquiriesPerListing: 0.5,
	}
}

// blockerRule is one independent predicate producing zero or one blocker.
type blockerRule func(funnel FunnelData, eng EngagementSignals, risk RiskSignals, cfg BlockerConfig) *GrowthBlocker

// worstStepInRange finds the funnel step whose drop-off rate falls in
// (low, high]; a high bound of 0 means unbounded. When several steps match,
// the worst offender wins, earliest step on ties.
func worstStepInRange(funnel FunnelData, low, high int) *FunnelStep {
	var worst *FunnelStep
	for i := range funnel.Steps {
		step := &funnel.Steps[i]
		if step.DropOffRate == nil {
			continue
		}
		rate := *step.DropOffRate
		if rate <= low || (high > 0 && rate > high) {
			continue
		}
		if worst == nil || rate > *worst.DropOffRate {
			worst = step
		}
	}
	return worst
}

// blockerRules is the fixed, ordered rule list. Order matters: it is the
// tiebreaker for equal-severity blockers in the ranked output.
var blockerRules = []blockerRule{
	func(funnel FunnelData, _ EngagementSignals, _ RiskSignals, cfg BlockerConfig) *GrowthBlocker {
		step := worstStepInRange(funnel, cfg.HighDropOffPct, 0)
		if step == nil {
			return nil
		}
		return &GrowthBlocker{
			ID:       "funnel-dropoff-critical",
			Title:    fmt.Sprintf("Severe drop-off at %s", step.Label),
			Description: fmt.Sprintf("%d%% of users who reach the previous stage never reach %s. This is the largest leak in the conversion pipeline.",
				*step.DropOffRate, step.Label),
			Severity: SeverityHigh,
			Category: CategoryConversion,
		}
	},
	func(funnel FunnelData, _ EngagementSignals, _ RiskSignals, cfg BlockerConfig) *GrowthBlocker {
		step := worstStepInRange(funnel, cfg.MediumDropOffPct, cfg.HighDropOffPct)
		if step == nil {
			return nil
		}
		return &GrowthBlocker{
			ID:       "funnel-dropoff-elevated",
			Title:    fmt.Sprintf("Elevated drop-off at %s", step.Label),
			Description: fmt.Sprintf("%d%% of users are lost before %s. Worth reviewing the preceding stage for friction.",
				*step.DropOffRate, step.Label),
			Severity: SeverityMedium,
			Category: CategoryConversion,
		}
	},
	func(_ FunnelData, eng EngagementSignals, _ RiskSignals, cfg BlockerConfig) *GrowthBlocker {
		if eng.PageViewsPerSession <= 0 || eng.PageViewsPerSession >= cfg.MinPageViewsPerSession {
			return nil
		}
		return &GrowthBlocker{
			ID:    "shallow-sessions",
			Title: "Visitors are not browsing listings",
			Description: fmt.Sprintf("Average session depth is %.1f pages. Visitors bounce before seeing enough listings to enquire.",
				eng.PageViewsPerSession),
			Severity: SeverityMedium,
			Category: CategoryEngagement,
		}
	},
	func(_ FunnelData, _ EngagementSignals, risk RiskSignals, cfg BlockerConfig) *GrowthBlocker {
		if risk.HighRiskSessionRatio <= cfg.HighRiskSessionRatio {
			return nil
		}
		return &GrowthBlocker{
			ID:    "high-risk-traffic",
			Title: "Large share of high-risk sessions",
			Description: fmt.Sprintf("%.0f%% of sessions are flagged high-risk (bots, scraping, abuse). Funnel metrics are distorted and real buyers may be blocked.",
				risk.HighRiskSessionRatio*100),
			Severity: SeverityHigh,
			Category: CategoryTechnical,
		}
	},
	func(_ FunnelData, _ EngagementSignals, risk RiskSignals, cfg BlockerConfig) *GrowthBlocker {
		if risk.PaymentFailureRate <= cfg.MaxPaymentFailureRate {
			return nil
		}
		return &GrowthBlocker{
			ID:    "payment-failures",
			Title: "Payment failures above tolerance",
			Description: fmt.Sprintf("%.1f%% of checkout attempts fail. Each failure is a paying user lost at the final step.",
				risk.PaymentFailureRate*100),
			Severity: SeverityHigh,
			Category: CategoryMonetization,
		}
	},
	func(_ FunnelData, eng EngagementSignals, _ RiskSignals, cfg BlockerConfig) *GrowthBlocker {
		if eng.ReturnVisitorRatio <= 0 || eng.ReturnVisitorRatio >= cfg.MinReturnVisitorRatio {
			return nil
		}
		return &GrowthBlocker{
			ID:    "low-return-rate",
			Title: "Buyers rarely come back",
			Description: fmt.Sprintf("Only %.0f%% of visitors return within the window. Deal discovery is a multi-visit process; low return rates cap NDA volume.",
				eng.ReturnVisitorRatio*100),
			Severity: SeverityMedium,
			Category: CategoryRetention,
		}
	},
	func(_ FunnelData, eng EngagementSignals, _ RiskSignals, cfg BlockerConfig) *GrowthBlocker {
		if eng.EnquiriesPerListing <= 0 || eng.EnquiriesPerListing >= cfg.MinEnquiriesPerListing {
			return nil
		}
		return &GrowthBlocker{
			ID:    "cold-listings",
			Title: "Listings attract few enquiries",
			Description: fmt.Sprintf("Listings average %.2f enquiries each. Supply is outpacing buyer demand or listing quality needs curation.",
				eng.EnquiriesPerListing),
			Severity: SeverityLow,
			Category: CategoryEngagement,
		}
	},
}

// DetectBlockers evaluates the fixed rule list over funnel, engagement and
// risk signals and returns the triggered blockers ranked by severity.
// The sort is stable: equal-severity blockers keep rule-evaluation order, so
// repeated calls with identical input return identical slices.
func DetectBlockers(funnel FunnelData, eng EngagementSignals, risk RiskSignals, cfg BlockerConfig) []GrowthBlocker {
	blockers := []GrowthBlocker{}
	for _, rule := range blockerRules {
		if b := rule(funnel, eng, risk, cfg); b != nil {
			blockers = append(blockers, *b)
		}
	}
	sort.SliceStable(blockers, func(i, j int) bool {
		return severityRank(blockers[i].Severity) < severityRank(blockers[j].Severity)
	})
	return blockers
}
