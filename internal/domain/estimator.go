package domain

import (
	"log/slog"
	"time"
)

// EstimatorOptions holds the numeric configuration of an Estimator.
type EstimatorOptions struct {
	Kernel        Kernel
	Thresholds    RThresholds
	DeathEstimate DeathEstimateParams
	Smoothing     SmoothingParams
}

// Estimator derives increments, R, and smoothed columns for one region at
// a time. It holds no per-region state and is safe for concurrent use.
type Estimator struct {
	opts   EstimatorOptions
	logger *slog.Logger
}

// NewEstimator creates an Estimator.
func NewEstimator(opts EstimatorOptions, logger *slog.Logger) *Estimator {
	return &Estimator{opts: opts, logger: logger}
}

// Derive fills the derived columns of a cumulative series. The input's
// cumulative slices are shared, never modified.
func (e *Estimator) Derive(s RegionSeries) RegionSeries {
	s.DeltaCases = ComputeDeltas(s.TotalCases)
	s.DeltaDeaths = ComputeDeltas(s.TotalDeaths)
	s.DeathBasedCaseEstimate = DeathBasedEstimate(s.TotalDeaths, e.opts.DeathEstimate)
	s.AttributableWeight = AttributableWeight(e.opts.Kernel, s.DeltaCases)
	s.EstimatedR = EstimateR(s.TotalCases, s.DeltaCases, s.AttributableWeight, e.opts.Thresholds)
	return s
}

// Estimate derives all columns of s and renders them as a table.
func (e *Estimator) Estimate(s RegionSeries) RegionTable {
	s = e.Derive(s)
	n := s.Len()
	lag := e.opts.DeathEstimate.Lag

	var dpDates []time.Time
	if len(s.DeathBasedCaseEstimate) > 0 {
		dpDates = s.Dates[lag:]
	}

	columns := []struct {
		name string
		raw  []NullFloat
		at   []time.Time
	}{
		{"total_cases", intsToNull(s.TotalCases), s.Dates},
		{"new_cases", intsToNull(s.DeltaCases), s.Dates},
		{"total_deaths", intsToNull(s.TotalDeaths), s.Dates},
		{"new_deaths", intsToNull(s.DeltaDeaths), s.Dates},
		{"estimated_r", s.EstimatedR, s.Dates},
		{"death_based_estimate", floatsToNull(s.DeathBasedCaseEstimate), dpDates},
	}

	// Only the total_cases column is fully defined on every day, so its
	// flags count calendar gaps and duplicates. Flags on the other columns
	// also reflect undefined entries such as R below the case floor.
	smoothed := make([][]NullFloat, len(columns))
	gaps := 0
	for c, col := range columns {
		sm := BoxFilter(col.raw, col.at, e.opts.Smoothing)
		smoothed[c] = sm.Values
		g := sm.GapCount()
		if c == 0 {
			gaps = g
		}
		if g > 0 {
			e.logger.Debug("smoothing window valid count differs from date span",
				"region", s.Region,
				"column", col.name,
				"windows", g,
			)
		}
	}
	if gaps > 0 {
		e.logger.Warn("input data seems to have gaps or multiples",
			"region", s.Region,
			"windows", gaps,
		)
	}

	rows := make([]TableRow, n)
	for i := 0; i < n; i++ {
		row := TableRow{
			Date:                s.Dates[i].Format(time.DateOnly),
			TotalCases:          s.TotalCases[i],
			NewCases:            s.DeltaCases[i],
			TotalDeaths:         s.TotalDeaths[i],
			NewDeaths:           s.DeltaDeaths[i],
			EstimatedR:          s.EstimatedR[i],
			SmoothedTotalCases:  smoothed[0][i],
			SmoothedNewCases:    smoothed[1][i],
			SmoothedTotalDeaths: smoothed[2][i],
			SmoothedNewDeaths:   smoothed[3][i],
			SmoothedEstimatedR:  smoothed[4][i],
		}
		if k := i - lag; k >= 0 && k < len(s.DeathBasedCaseEstimate) {
			row.DeathBasedEstimate = Float(s.DeathBasedCaseEstimate[k])
			row.SmoothedDeathBasedEstimate = smoothed[5][k]
		}
		rows[i] = row
	}

	return RegionTable{
		Region:      s.Region,
		GeneratedAt: clock.Now().UTC(),
		GapWindows:  gaps,
		Rows:        rows,
	}
}
