package domain

import "time"

// SmoothingParams configures the box filter.
type SmoothingParams struct {
	// Window is the number of entries averaged.
	Window int
	// Offset shifts the window forward. 0 gives a trailing average,
	// Window/2 a centered one.
	Offset int
}

// DefaultSmoothingParams returns a trailing seven day average.
func DefaultSmoothingParams() SmoothingParams {
	return SmoothingParams{Window: 7, Offset: 0}
}

// Smoothed is the output of BoxFilter.
type Smoothed struct {
	Values []NullFloat
	// Gaps flags indices whose window covers a calendar span that differs
	// from the number of valid entries in it (missing or duplicate days).
	Gaps []bool
}

// GapCount returns the number of flagged windows.
func (s Smoothed) GapCount() int {
	n := 0
	for _, g := range s.Gaps {
		if g {
			n++
		}
	}
	return n
}

// BoxFilter averages data over the window [i-Window+1+Offset, i+Offset],
// clipped to the series. Undefined entries are skipped rather than counted
// as zero; a window without valid entries yields an undefined value.
//
// dates must be aligned with data for gap detection; pass nil to skip it.
// The gap flags never alter the averages.
func BoxFilter(data []NullFloat, dates []time.Time, p SmoothingParams) Smoothed {
	n := len(data)
	out := Smoothed{
		Values: make([]NullFloat, n),
		Gaps:   make([]bool, n),
	}
	checkGaps := len(dates) == n

	for i := 0; i < n; i++ {
		j0 := max(0, i-p.Window+1+p.Offset)
		j1 := min(n, i+p.Offset+1)

		var sum float64
		var count int
		for j := j0; j < j1; j++ {
			if !data[j].Valid {
				continue
			}
			sum += data[j].Float64
			count++
		}

		if count > 0 {
			out.Values[i] = Float(sum / float64(count))
		}
		if checkGaps && j0 < j1 {
			out.Gaps[i] = spanDays(dates[j0], dates[j1-1]) != count
		}
	}
	return out
}

// spanDays returns the number of calendar days from first to last inclusive.
func spanDays(first, last time.Time) int {
	return int(reportDay(last).Sub(reportDay(first)).Hours()/24) + 1
}
