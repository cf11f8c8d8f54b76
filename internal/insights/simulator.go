package insights

import (
	"fmt"
	"math"
	"sort"
)

// SimulatorConfig holds the elasticity and uncertainty-band constants.
// The supply elasticity models diminishing returns from added top-of-funnel
// listings; the band constants tie projection width to measurement confidence
// so low-quality data never presents false precision. All are documented
// defaults, overridable from configuration.
type SimulatorConfig struct {
	SupplyElasticity float64 // fraction of a listings increase that reaches the funnel
	BandBaseSpread   float64 // spread at zero confidence
	BandMinSpread    float64
	BandMaxSpread    float64
	MaxListingsPct   float64 // lever clamp bounds
	MaxNDAUpliftPts  float64
	MaxPaidUpliftPts float64
	MaxPartnerPct    float64
}

// DefaultSimulatorConfig returns the documented default constants.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		SupplyElasticity: 0.5,
		BandBaseSpread:   0.30,
		BandMinSpread:    0.10,
		BandMaxSpread:    0.50,
		MaxListingsPct:   50,
		MaxNDAUpliftPts:  10,
		MaxPaidUpliftPts: 2,
		MaxPartnerPct:    50,
	}
}

func clampLever(v, max float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// ClampInputs normalizes a lever set to its documented bounds. Out-of-range
// values are pulled to the nearest valid value instead of failing the request.
func ClampInputs(in StrategyInputs, cfg SimulatorConfig) StrategyInputs {
	return StrategyInputs{
		Track:                   NormalizeTrack(string(in.Track)),
		ListingsIncreasePct:     clampLever(in.ListingsIncreasePct, cfg.MaxListingsPct),
		NDAConversionUpliftPts:  clampLever(in.NDAConversionUpliftPts, cfg.MaxNDAUpliftPts),
		PaidConversionUpliftPts: clampLever(in.PaidConversionUpliftPts, cfg.MaxPaidUpliftPts),
		PartnerLeadIncreasePct:  clampLever(in.PartnerLeadIncreasePct, cfg.MaxPartnerPct),
	}
}

// additionalOf floors a projected delta at zero and rounds it half-up.
func additionalOf(projected, baseline float64) int {
	d := projected - baseline
	if d < 0 {
		d = 0
	}
	return roundHalfUp(d)
}

// bandOf widens a base projection into a low/base/high range. Spread narrows
// as the confidence score rises, clamped to the configured bounds.
func bandOf(base int, spread float64) Band {
	b := float64(base)
	return Band{
		Low:  roundHalfUp(b * (1 - spread)),
		Base: base,
		High: roundHalfUp(b * (1 + spread)),
	}
}

// Simulate projects the 30-day effect of the chosen growth levers on the
// baseline snapshot. Levers are modeled as multiplicative/additive shifts
// propagated stage by stage through the funnel, with uncertainty bands scaled
// by measurement confidence. Deterministic: identical inputs always yield
// identical output.
func Simulate(baseline FounderMetrics, confidence ConfidenceSummary, inputs StrategyInputs, cfg SimulatorConfig) StrategyOutputs {
	in := ClampInputs(inputs, cfg)

	supplyMultiplier := 1 + (in.ListingsIncreasePct/100)*cfg.SupplyElasticity
	ndaRateShift := in.NDAConversionUpliftPts / 100
	paidRateShift := in.PaidConversionUpliftPts / 100
	partnerMultiplier := 1 + in.PartnerLeadIncreasePct/100

	nda30 := value30(baseline.NDASigned)
	enq30 := value30(baseline.Enquiries)
	rooms30 := value30(baseline.DealRoomsActive)
	paid30 := value30(baseline.PaidUsers)
	mrr30 := value30(baseline.MRR)

	// Stage-by-stage propagation: supply lifts everything downstream of
	// visitors, partner leads lift enquiries, rate shifts apply additively at
	// their own step.
	newNDA := nda30*supplyMultiplier + nda30*ndaRateShift
	newEnquiries := enq30 * supplyMultiplier * partnerMultiplier

	enquiryGrowth := 1.0
	if enq30 > 0 {
		enquiryGrowth = newEnquiries / enq30
	}
	newRooms := rooms30 * enquiryGrowth

	ndaGrowth := 1.0
	if nda30 > 0 {
		ndaGrowth = newNDA / nda30
	}
	newPaid := paid30*ndaGrowth + paid30*paidRateShift

	spread := cfg.BandBaseSpread * (1 - float64(confidence.Score)/100)
	if spread < cfg.BandMinSpread {
		spread = cfg.BandMinSpread
	}
	if spread > cfg.BandMaxSpread {
		spread = cfg.BandMaxSpread
	}

	out := StrategyOutputs{
		AdditionalNDASigned: bandOf(additionalOf(newNDA, nda30), spread),
		AdditionalEnquiries: bandOf(additionalOf(newEnquiries, enq30), spread),
		AdditionalDealRooms: bandOf(additionalOf(newRooms, rooms30), spread),
		AdditionalPaidUsers: bandOf(additionalOf(newPaid, paid30), spread),
	}

	out.RevenueImpact = revenueImpact(out.AdditionalPaidUsers, paid30, mrr30, spread)
	out.RecommendedFocus = recommendFocus(in, nda30, enq30, paid30, cfg)

	return out
}

// revenueImpact converts the additional-paid-users band into a revenue band
// via baseline ARPU. Without a paid-user denominator there is nothing sound to
// anchor an estimate on, so the triple is null with an explanatory note.
func revenueImpact(paidBand Band, paid30, mrr30, spread float64) RevenueBand {
	if paid30 <= 0 {
		return RevenueBand{Note: "insufficient baseline to estimate revenue"}
	}
	arpu := mrr30 / paid30
	base := roundCents(float64(paidBand.Base) * arpu)
	low := roundCents(base * (1 - spread))
	high := roundCents(base * (1 + spread))
	return RevenueBand{Low: &low, Base: &base, High: &high}
}

func roundCents(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

// leverImpact is one lever's isolated effect used for focus ranking.
type leverImpact struct {
	score  float64
	advice string
}

// recommendFocus ranks the four levers by isolated impact on their primary
// downstream metric per unit of input, and emits the top entries as short
// advisory strings. All-zero input yields a single default suggestion for the
// highest-leverage lever to try first.
func recommendFocus(in StrategyInputs, nda30, enq30, paid30 float64, cfg SimulatorConfig) []string {
	magnitude := func(v float64) float64 {
		if v == 0 {
			return 1
		}
		return v
	}

	listingsImpact := enq30 * (in.ListingsIncreasePct / 100) * cfg.SupplyElasticity
	partnerImpact := enq30 * (in.PartnerLeadIncreasePct / 100)
	ndaImpact := nda30 * (in.NDAConversionUpliftPts / 100)
	paidImpact := paid30 * (in.PaidConversionUpliftPts / 100)

	impacts := []leverImpact{
		{listingsImpact / magnitude(in.ListingsIncreasePct), fmt.Sprintf(
			"Grow listing supply: +%d%% listings projects %s more enquiries over 30d.",
			roundHalfUp(in.ListingsIncreasePct), plural(roundHalfUp(listingsImpact), "enquiry", "enquiries"))},
		{partnerImpact / magnitude(in.PartnerLeadIncreasePct), fmt.Sprintf(
			"Expand partner lead channels: +%d%% partner leads projects %s more enquiries.",
			roundHalfUp(in.PartnerLeadIncreasePct), plural(roundHalfUp(partnerImpact), "enquiry", "enquiries"))},
		{ndaImpact / magnitude(in.NDAConversionUpliftPts), fmt.Sprintf(
			"Streamline the NDA flow: +%.1fpt conversion projects %s more signed NDAs.",
			in.NDAConversionUpliftPts, plural(roundHalfUp(ndaImpact), "NDA", "NDAs"))},
		{paidImpact / magnitude(in.PaidConversionUpliftPts), fmt.Sprintf(
			"Tune paid upgrade prompts: +%.1fpt conversion projects %s more paid users.",
			in.PaidConversionUpliftPts, plural(roundHalfUp(paidImpact), "user", "users"))},
	}

	sort.SliceStable(impacts, func(i, j int) bool {
		return impacts[i].score > impacts[j].score
	})

	focus := []string{}
	for _, imp := range impacts {
		if imp.score <= 0 || len(focus) == 3 {
			break
		}
		focus = append(focus, imp.advice)
	}
	if len(focus) == 0 {
		focus = append(focus,
			"Start with listing supply: more live listings is typically the highest-leverage input for enquiry volume.")
	}
	return focus
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, pluralForm)
}
