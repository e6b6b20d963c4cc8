package domain

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

// ErratumField names the cumulative column an Erratum corrects.
type ErratumField string

const (
	FieldCases  ErratumField = "cases"
	FieldDeaths ErratumField = "deaths"
)

// ParseErratumField accepts "cases" or "deaths".
func ParseErratumField(s string) (ErratumField, error) {
	switch ErratumField(s) {
	case FieldCases, FieldDeaths:
		return ErratumField(s), nil
	default:
		return "", fmt.Errorf("unknown erratum field %q", s)
	}
}

// Erratum marks a cumulative cell known to be a transcription artifact. The
// cell is replaced by linear interpolation, by date, between its neighbouring
// entries, rounded half away from zero.
type Erratum struct {
	Region string
	Date   time.Time
	Field  ErratumField
}

// DefaultErrata returns the built-in correction list.
func DefaultErrata() []Erratum {
	return []Erratum{
		{Region: "Italy", Date: time.Date(2020, time.March, 12, 0, 0, 0, 0, time.UTC), Field: FieldCases},
		{Region: "Italy", Date: time.Date(2020, time.March, 12, 0, 0, 0, 0, time.UTC), Field: FieldDeaths},
		{Region: "France", Date: time.Date(2020, time.April, 12, 0, 0, 0, 0, time.UTC), Field: FieldCases},
	}
}

func applyErrata(series map[string]*RegionSeries, errata []Erratum, logger *slog.Logger) {
	for _, e := range errata {
		s, ok := series[e.Region]
		if !ok {
			logger.Debug("erratum region not present", "region", e.Region)
			continue
		}

		idx := dayIndex(s.Dates, reportDay(e.Date))
		if idx <= 0 || idx >= len(s.Dates)-1 {
			logger.Warn("erratum has no neighbouring days, skipping",
				"region", e.Region,
				"date", e.Date.Format(time.DateOnly),
				"field", e.Field,
			)
			continue
		}

		column := s.TotalCases
		if e.Field == FieldDeaths {
			column = s.TotalDeaths
		}
		corrected := interpolate(s.Dates[idx-1], s.Dates[idx], s.Dates[idx+1], column[idx-1], column[idx+1])
		logger.Debug("erratum applied",
			"region", e.Region,
			"date", e.Date.Format(time.DateOnly),
			"field", e.Field,
			"from", column[idx],
			"to", corrected,
		)
		column[idx] = corrected
	}
}

// interpolate returns the value at day on the line through (prev, before)
// and (next, after).
func interpolate(prev, day, next time.Time, before, after int64) int64 {
	frac := day.Sub(prev).Hours() / next.Sub(prev).Hours()
	return before + int64(math.Round(frac*float64(after-before)))
}

// dayIndex returns the index of day in dates, or -1.
func dayIndex(dates []time.Time, day time.Time) int {
	for i, d := range dates {
		if d.Equal(day) {
			return i
		}
	}
	return -1
}
