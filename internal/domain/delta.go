package domain

// ComputeDeltas derives daily increments from a cumulative series. The
// first two entries copy the cumulative value since there is no baseline;
// later entries are the day-over-day difference clamped at zero, because a
// negative difference is a retrospective correction, not negative incidence.
func ComputeDeltas(totals []int64) []int64 {
	deltas := make([]int64, len(totals))
	for i, total := range totals {
		if i < 2 {
			deltas[i] = total
			continue
		}
		deltas[i] = max(0, total-totals[i-1])
	}
	return deltas
}

// DeathEstimateParams configures the death-based case proxy.
type DeathEstimateParams struct {
	// Scale converts cumulative deaths into cumulative cases, the inverse of
	// an assumed case fatality ratio.
	Scale float64
	// Lag is the number of leading days without an estimate.
	Lag int
}

// DefaultDeathEstimateParams uses the Diamond Princess fatality ratio
// (13 deaths in 712 cases) and a 14 day lag.
func DefaultDeathEstimateParams() DeathEstimateParams {
	return DeathEstimateParams{Scale: 712.0 / 13.0, Lag: 14}
}

// DeathBasedEstimate returns totalDeaths[i]*Scale for i >= Lag. The result
// is left-aligned to index Lag of the input and empty for shorter inputs.
func DeathBasedEstimate(totalDeaths []int64, p DeathEstimateParams) []float64 {
	if len(totalDeaths) <= p.Lag {
		return []float64{}
	}
	out := make([]float64, 0, len(totalDeaths)-p.Lag)
	for _, d := range totalDeaths[p.Lag:] {
		out = append(out, float64(d)*p.Scale)
	}
	return out
}
