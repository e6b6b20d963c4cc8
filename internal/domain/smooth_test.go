package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contiguousDays(n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = day(i)
	}
	return dates
}

func TestBoxFilter_TrailingAverage(t *testing.T) {
	data := floatsToNull([]float64{1, 2, 3, 4, 5, 6, 7, 8})

	out := BoxFilter(data, contiguousDays(8), SmoothingParams{Window: 3})

	want := floatsToNull([]float64{1, 1.5, 2, 3, 4, 5, 6, 7})
	assert.Equal(t, want, out.Values)
	assert.Zero(t, out.GapCount())
}

func TestBoxFilter_CenteredWindow(t *testing.T) {
	data := floatsToNull([]float64{1, 2, 3, 4})

	out := BoxFilter(data, contiguousDays(4), SmoothingParams{Window: 3, Offset: 1})

	want := floatsToNull([]float64{1.5, 2, 3, 3.5})
	assert.Equal(t, want, out.Values)
}

func TestBoxFilter_FullyUndefinedWindow(t *testing.T) {
	data := make([]NullFloat, 10)
	data[0] = Float(4)

	out := BoxFilter(data, contiguousDays(10), DefaultSmoothingParams())

	assert.Equal(t, Float(4), out.Values[0])
	assert.Equal(t, Float(4), out.Values[6], "single valid entry in window is returned exactly")
	assert.False(t, out.Values[7].Valid, "window of seven undefined entries")
	assert.False(t, out.Values[9].Valid)
}

func TestBoxFilter_SkipsUndefinedInsteadOfZero(t *testing.T) {
	data := []NullFloat{Float(2), {}, Float(4)}

	out := BoxFilter(data, contiguousDays(3), SmoothingParams{Window: 3})

	assert.Equal(t, Float(3), out.Values[2])
	assert.True(t, out.Gaps[2], "undefined entry makes the valid count differ from the span")
	assert.True(t, out.Gaps[1])
	assert.False(t, out.Gaps[0])
}

func TestBoxFilter_FlagsMissingDays(t *testing.T) {
	dates := []time.Time{day(0), day(1), day(3), day(4)}
	data := floatsToNull([]float64{1, 1, 1, 1})

	out := BoxFilter(data, dates, SmoothingParams{Window: 3})

	assert.Equal(t, floatsToNull([]float64{1, 1, 1, 1}), out.Values, "flags never alter values")
	assert.Equal(t, []bool{false, false, true, true}, out.Gaps)
	assert.Equal(t, 2, out.GapCount())
}

func TestBoxFilter_FlagsDuplicateDays(t *testing.T) {
	dates := []time.Time{day(0), day(0), day(1)}
	data := floatsToNull([]float64{1, 2, 3})

	out := BoxFilter(data, dates, SmoothingParams{Window: 2})

	assert.Equal(t, []bool{false, true, false}, out.Gaps)
}

func TestBoxFilter_WithoutDatesSkipsGapDetection(t *testing.T) {
	data := []NullFloat{Float(1), {}, Float(3)}

	out := BoxFilter(data, nil, SmoothingParams{Window: 2})

	require.Len(t, out.Values, 3)
	assert.Zero(t, out.GapCount())
	assert.Equal(t, Float(3), out.Values[2])
}

func TestBoxFilter_Empty(t *testing.T) {
	out := BoxFilter(nil, nil, DefaultSmoothingParams())
	assert.Empty(t, out.Values)
	assert.Empty(t, out.Gaps)
}
