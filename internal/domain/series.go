package domain

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

// RegionSeries is the time series of one canonical region. Cumulative
// columns are filled by [SeriesBuilder]; derived columns by [Estimator].
// Every slice except DeathBasedCaseEstimate has the length of Dates.
type RegionSeries struct {
	Region string
	// Dates is strictly increasing. Gaps between days are possible.
	Dates       []time.Time
	TotalCases  []int64
	TotalDeaths []int64

	DeltaCases  []int64
	DeltaDeaths []int64
	// DeathBasedCaseEstimate starts at Dates[lag]; it is empty for short series.
	DeathBasedCaseEstimate []float64
	AttributableWeight     []float64
	EstimatedR             []NullFloat
}

// Len returns the number of report days in the series.
func (s *RegionSeries) Len() int { return len(s.Dates) }

// Database maps canonical regions to their cumulative series. It is
// read-only once returned by [SeriesBuilder.Build].
type Database struct {
	series  map[string]*RegionSeries
	regions []string
}

// Regions returns the canonical region names in sorted order.
func (db *Database) Regions() []string {
	out := make([]string, len(db.regions))
	copy(out, db.regions)
	return out
}

// Series returns the cumulative series of region. The returned slices are
// shared with the database and must not be modified.
func (db *Database) Series(region string) (RegionSeries, bool) {
	s, ok := db.series[region]
	if !ok {
		return RegionSeries{}, false
	}
	return *s, true
}

// Len returns the number of regions.
func (db *Database) Len() int { return len(db.regions) }

// BuildStats counts what the builder consumed.
type BuildStats struct {
	Snapshots   int
	RowsParsed  int
	RowsDropped int
}

// SeriesBuilder accumulates date-ordered snapshots into a Database.
type SeriesBuilder struct {
	normalizer *Normalizer
	errata     []Erratum
	logger     *slog.Logger

	series   map[string]*RegionSeries
	lastDate time.Time
	stats    BuildStats
}

// NewSeriesBuilder creates a builder that resolves rows with normalizer and
// applies errata once all snapshots have been added.
func NewSeriesBuilder(normalizer *Normalizer, errata []Erratum, logger *slog.Logger) *SeriesBuilder {
	return &SeriesBuilder{
		normalizer: normalizer,
		errata:     errata,
		logger:     logger,
		series:     make(map[string]*RegionSeries),
	}
}

// Add consumes one snapshot. Snapshots must arrive in ascending report
// date order. Rows for the same region and day are summed. A malformed
// numeric cell returns a *ParseError; the builder must then be discarded.
func (b *SeriesBuilder) Add(snap Snapshot) error {
	day := reportDay(snap.ReportDate)
	if day.Before(b.lastDate) {
		return fmt.Errorf("snapshot %s is older than previous snapshot %s",
			day.Format(time.DateOnly), b.lastDate.Format(time.DateOnly))
	}
	b.lastDate = day
	b.stats.Snapshots++

	for _, line := range snap.Rows {
		if strings.TrimSpace(line) == "" {
			continue
		}

		row, ok, err := b.normalizer.Resolve(day, line)
		if err != nil {
			return err
		}
		if !ok {
			b.stats.RowsDropped++
			continue
		}

		cases, err := parseCount(day, line, "cases", row.Cases)
		if err != nil {
			return err
		}
		deaths, err := parseCount(day, line, "deaths", row.Deaths)
		if err != nil {
			return err
		}

		b.accumulate(row.Region, day, cases, deaths)
		b.stats.RowsParsed++
	}
	return nil
}

func (b *SeriesBuilder) accumulate(region string, day time.Time, cases, deaths int64) {
	s, ok := b.series[region]
	if !ok {
		s = &RegionSeries{Region: region}
		b.series[region] = s
	}

	last := len(s.Dates) - 1
	if last < 0 || !s.Dates[last].Equal(day) {
		s.Dates = append(s.Dates, day)
		s.TotalCases = append(s.TotalCases, 0)
		s.TotalDeaths = append(s.TotalDeaths, 0)
		last++
	}
	s.TotalCases[last] += cases
	s.TotalDeaths[last] += deaths
}

// Stats returns counters for the snapshots consumed so far.
func (b *SeriesBuilder) Stats() BuildStats { return b.stats }

// Build applies the configured errata and returns the finished Database.
func (b *SeriesBuilder) Build() *Database {
	applyErrata(b.series, b.errata, b.logger)

	regions := make([]string, 0, len(b.series))
	for region := range b.series {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	db := &Database{series: b.series, regions: regions}
	b.series = make(map[string]*RegionSeries)
	return db
}

// parseCount parses a cumulative count cell. Empty cells count as zero.
func parseCount(day time.Time, line, field, value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &ParseError{ReportDate: day, Row: line, Field: field, Value: value, Err: err}
	}
	return n, nil
}
