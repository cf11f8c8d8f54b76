package insights

// Package insights is the founder-dashboard computation engine: confidence
// scoring, funnel math, growth-blocker detection and what-if strategy
// simulation. Every function in this package is pure and synchronous: it
// consumes already-aggregated counts supplied by the analytics layer and
// returns plain JSON-serializable values. Nothing here fetches data, caches
// results, or reads ambient state.

// Period selects the trailing window for funnel and baseline queries.
type Period string

const (
	Period7d  Period = "7d"
	Period30d Period = "30d"
)

// Track segments marketplace activity into physical vs online business cohorts.
type Track string

const (
	TrackAll         Track = "all"
	TrackOperational Track = "operational"
	TrackDigital     Track = "digital"
)

// NormalizePeriod maps a raw query value to a valid period, defaulting to 30d.
// Unknown values never fail the computation.
func NormalizePeriod(raw string) Period {
	if Period(raw) == Period7d {
		return Period7d
	}
	return Period30d
}

// NormalizeTrack maps a raw query value to a valid track, defaulting to all.
func NormalizeTrack(raw string) Track {
	switch Track(raw) {
	case TrackOperational:
		return TrackOperational
	case TrackDigital:
		return TrackDigital
	default:
		return TrackAll
	}
}

// MetricPoint is one named KPI over the 7d and 30d trailing windows.
// Window values are nil when the underlying aggregate is unavailable;
// Delta and DeltaPercent are nil whenever either window value is nil.
type MetricPoint struct {
	Label        string   `json:"label"`
	Value7d      *float64 `json:"value7d"`
	Value30d     *float64 `json:"value30d"`
	Delta        *float64 `json:"delta"`
	DeltaPercent *float64 `json:"deltaPercent"`
	IsEstimated  bool     `json:"isEstimated"`
}

// NewMetricPoint builds a MetricPoint, deriving the delta fields from the two
// window values when both are present.
func NewMetricPoint(label string, value7d, value30d *float64, estimated bool) MetricPoint {
	mp := MetricPoint{
		Label:       label,
		Value7d:     value7d,
		Value30d:    value30d,
		IsEstimated: estimated,
	}
	if value7d == nil || value30d == nil {
		return mp
	}
	delta := *value7d - *value30d
	mp.Delta = &delta
	if *value30d != 0 {
		pct := delta / *value30d * 100
		mp.DeltaPercent = &pct
	}
	return mp
}

// value30 reads the 30d window of a metric, treating a missing value as zero
// so downstream arithmetic degrades instead of panicking.
func value30(mp MetricPoint) float64 {
	if mp.Value30d == nil {
		return 0
	}
	return *mp.Value30d
}

// FounderMetrics is the baseline KPI snapshot the simulator projects from.
// One shared shape for every dashboard page, replacing per-page duck typing.
type FounderMetrics struct {
	Visitors        MetricPoint `json:"visitors"`
	Registrations   MetricPoint `json:"registrations"`
	NDARequested    MetricPoint `json:"ndaRequested"`
	NDASigned       MetricPoint `json:"ndaSigned"`
	Enquiries       MetricPoint `json:"enquiries"`
	DealRoomsActive MetricPoint `json:"dealRoomsActive"`
	PaidUsers       MetricPoint `json:"paidUsers"`
	MRR             MetricPoint `json:"mrr"`
}

// StepCount is one stage of the conversion pipeline as supplied by the data
// layer, in canonical pipeline order.
type StepCount struct {
	Step  string `json:"step"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// FunnelStep is one computed funnel stage. ConversionRate, DropOff and
// DropOffRate are nil only for the first step, which has no predecessor.
type FunnelStep struct {
	Step           string `json:"step"`
	Label          string `json:"label"`
	Count          int64  `json:"count"`
	ConversionRate *int   `json:"conversionRate"`
	DropOff        *int64 `json:"dropOff"`
	DropOffRate    *int   `json:"dropOffRate"`
}

// FunnelData is the computed funnel for one period/track selection.
type FunnelData struct {
	Steps       []FunnelStep `json:"steps"`
	IsEstimated bool         `json:"isEstimated"`
	Period      Period       `json:"period"`
	Track       Track        `json:"track"`
}

// ConfidenceSignals are the data-coverage and volume inputs to the scorer.
type ConfidenceSignals struct {
	CoverageDays      int   `json:"coverageDays"`
	Sessions30d       int64 `json:"sessions30d"`
	Events30d         int64 `json:"events30d"`
	EstimatedMetrics  int   `json:"estimatedMetrics"`
	LowVolumeWarnings int   `json:"lowVolumeWarnings"`
}

// ConfidenceLevel buckets the 0-100 score for display.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// ConfidenceSummary is the trust assessment for all computed metrics.
// Score is always within [0,100] and Level is a deterministic function of it.
type ConfidenceSummary struct {
	Level             ConfidenceLevel `json:"level"`
	Score             int             `json:"score"`
	CoverageDays      int             `json:"coverageDays"`
	Sessions30d       int64           `json:"sessions30d"`
	Events30d         int64           `json:"events30d"`
	EstimatedMetrics  int             `json:"estimatedMetrics"`
	LowVolumeWarnings int             `json:"lowVolumeWarnings"`
	Notes             []string        `json:"notes"`
}

// Severity ranks a growth blocker.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

func severityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	default:
		return 2
	}
}

// BlockerCategory classifies where in the growth pipeline the friction sits.
type BlockerCategory string

const (
	CategoryConversion   BlockerCategory = "conversion"
	CategoryRetention    BlockerCategory = "retention"
	CategoryEngagement   BlockerCategory = "engagement"
	CategoryMonetization BlockerCategory = "monetization"
	CategoryTechnical    BlockerCategory = "technical"
)

// GrowthBlocker is one detected friction point in the growth pipeline.
type GrowthBlocker struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Severity    Severity        `json:"severity"`
	Category    BlockerCategory `json:"category"`
}

// EngagementSignals feed the engagement and retention blocker rules.
type EngagementSignals struct {
	PageViewsPerSession float64 `json:"pageViewsPerSession"`
	ReturnVisitorRatio  float64 `json:"returnVisitorRatio"`
	EnquiriesPerListing float64 `json:"enquiriesPerListing"`
}

// RiskSignals feed the technical and monetization blocker rules.
type RiskSignals struct {
	HighRiskSessionRatio float64 `json:"highRiskSessionRatio"`
	PaymentFailureRate   float64 `json:"paymentFailureRate"`
}

// StrategyInputs are the growth levers for a what-if simulation. The UI offers
// discrete buttons but the engine tolerates any value; out-of-range levers are
// clamped to the documented bounds rather than rejected.
type StrategyInputs struct {
	Track                   Track   `json:"track"`
	ListingsIncreasePct     float64 `json:"listingsIncreasePct"`
	NDAConversionUpliftPts  float64 `json:"ndaConversionUpliftPts"`
	PaidConversionUpliftPts float64 `json:"paidConversionUpliftPts"`
	PartnerLeadIncreasePct  float64 `json:"partnerLeadIncreasePct"`
}

// Band is a low/base/high projection for a count metric. Low <= Base <= High.
type Band struct {
	Low  int `json:"low"`
	Base int `json:"base"`
	High int `json:"high"`
}

// RevenueBand is a low/base/high projection for monthly revenue. All three
// values are nil when no baseline denominator exists to estimate from.
type RevenueBand struct {
	Low  *float64 `json:"low"`
	Base *float64 `json:"base"`
	High *float64 `json:"high"`
	Note string   `json:"note,omitempty"`
}

// StrategyOutputs is the projected 30-day effect of the chosen levers.
type StrategyOutputs struct {
	AdditionalNDASigned Band        `json:"additionalNdaSigned"`
	AdditionalEnquiries Band        `json:"additionalEnquiries"`
	AdditionalDealRooms Band        `json:"additionalDealRooms"`
	AdditionalPaidUsers Band        `json:"additionalPaidUsers"`
	RevenueImpact       RevenueBand `json:"revenueImpact"`
	RecommendedFocus    []string    `json:"recommendedFocus"`
}

// Result wraps a fetched value with its data-quality context. The data layer
// returns it from every collaborator call so "safe default plus note" handling
// exists in exactly one shape instead of ad hoc nullable fields per page.
type Result[T any] struct {
	Value       *T     `json:"value"`
	IsEstimated bool   `json:"isEstimated"`
	Note        string `json:"note,omitempty"`
}

// Ok wraps a concrete value with no quality caveats.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: &v}
}

// Estimated wraps a fallback value together with the reason it is degraded.
func Estimated[T any](v T, note string) Result[T] {
	return Result[T]{Value: &v, IsEstimated: true, Note: note}
}

// Unavailable reports a missing value with an explanatory note.
func Unavailable[T any](note string) Result[T] {
	return Result[T]{IsEstimated: true, Note: note}
}

// OrZero unwraps the value, falling back to the zero value when absent.
func (r Result[T]) OrZero() T {
	if r.Value != nil {
		return *r.Value
	}
	var zero T
	return zero
}
