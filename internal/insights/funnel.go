package insights

import "math"

// roundHalfUp rounds a non-negative value to the nearest integer, halves up.
// Used for every percentage and projection in this package so results are
// reproducible across call sites.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// FunnelOptions select the window and cohort a funnel was computed for.
// IsEstimated is propagated verbatim from the upstream data source's own
// estimation flag; this component does not infer it.
type FunnelOptions struct {
	Period      Period
	Track       Track
	IsEstimated bool
}

// ComputeFunnel derives conversion and drop-off percentages from ordered stage
// counts. Step order is exactly the caller-supplied pipeline order. The first
// step has no predecessor, so its derived fields stay nil. Zero denominators
// produce 0 rather than NaN.
func ComputeFunnel(stepCounts []StepCount, opts FunnelOptions) FunnelData {
	data := FunnelData{
		Steps:       []FunnelStep{},
		IsEstimated: opts.IsEstimated,
		Period:      NormalizePeriod(string(opts.Period)),
		Track:       NormalizeTrack(string(opts.Track)),
	}
	if len(stepCounts) == 0 {
		return data
	}

	first := stepCounts[0].Count
	for i, sc := range stepCounts {
		step := FunnelStep{
			Step:  sc.Step,
			Label: sc.Label,
			Count: sc.Count,
		}
		if i > 0 {
			conv := 0
			if first > 0 {
				conv = roundHalfUp(float64(sc.Count) / float64(first) * 100)
			}
			step.ConversionRate = &conv

			prev := stepCounts[i-1].Count
			drop := prev - sc.Count
			if drop < 0 {
				// Real traffic can be noisy; a later stage may outgrow an
				// earlier one within the window.
				drop = 0
			}
			step.DropOff = &drop

			rate := 0
			if prev > 0 {
				rate = roundHalfUp(float64(drop) / float64(prev) * 100)
			}
			step.DropOffRate = &rate
		}
		data.Steps = append(data.Steps, step)
	}

	return data
}
