package domain

// RThresholds suppress R estimates in sparse-data regimes.
type RThresholds struct {
	// MinTotalCases is the cumulative case count below which R is undefined.
	MinTotalCases int64
	// MinWeight is the attributable weight at or below which R is undefined.
	MinWeight float64
}

// DefaultRThresholds returns a 100 case floor and a 1e-10 weight floor.
func DefaultRThresholds() RThresholds {
	return RThresholds{MinTotalCases: 100, MinWeight: 1e-10}
}

// AttributableWeight spreads each day's new cases over the kernel window:
// day i contributes w*delta[i] to day i+offset. Targets outside the series
// are skipped, so mass is only conserved away from the edges.
func AttributableWeight(k Kernel, delta []int64) []float64 {
	weight := make([]float64, len(delta))
	for i, d := range delta {
		if d == 0 {
			continue
		}
		for _, kw := range k.weights {
			target := i + kw.Offset
			if target < 0 || target >= len(weight) {
				continue
			}
			weight[target] += kw.Weight * float64(d)
		}
	}
	return weight
}

// EstimateR divides each day's new cases by its attributable weight. The
// result is undefined where the cumulative total is below the case floor
// or the weight does not exceed the weight floor.
func EstimateR(totals, delta []int64, weight []float64, th RThresholds) []NullFloat {
	r := make([]NullFloat, len(delta))
	for i := range delta {
		if totals[i] < th.MinTotalCases || weight[i] <= th.MinWeight {
			continue
		}
		r[i] = Float(float64(delta[i]) / weight[i])
	}
	return r
}
