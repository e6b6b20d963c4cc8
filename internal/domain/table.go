package domain

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// TableRow is one report day of a region's output table.
type TableRow struct {
	Date               string    `json:"date"`
	TotalCases         int64     `json:"total_cases"`
	NewCases           int64     `json:"new_cases"`
	TotalDeaths        int64     `json:"total_deaths"`
	NewDeaths          int64     `json:"new_deaths"`
	EstimatedR         NullFloat `json:"estimated_r"`
	DeathBasedEstimate NullFloat `json:"death_based_estimate"`

	SmoothedTotalCases         NullFloat `json:"smoothed_total_cases"`
	SmoothedNewCases           NullFloat `json:"smoothed_new_cases"`
	SmoothedTotalDeaths        NullFloat `json:"smoothed_total_deaths"`
	SmoothedNewDeaths          NullFloat `json:"smoothed_new_deaths"`
	SmoothedEstimatedR         NullFloat `json:"smoothed_estimated_r"`
	SmoothedDeathBasedEstimate NullFloat `json:"smoothed_death_based_estimate"`
}

// RegionTable is the rendered output for one region.
type RegionTable struct {
	Region      string     `json:"region"`
	GeneratedAt time.Time  `json:"generated_at"`
	GapWindows  int        `json:"gap_windows"`
	Rows        []TableRow `json:"rows"`
}

// tableHeader names the columns of the space-delimited rendering.
var tableHeader = []string{
	"Date",
	`"Total Cases"`,
	`"New Cases"`,
	`"Total Deaths"`,
	`"New Deaths"`,
	`"Estimated R"`,
	`"Death-based Case Estimate"`,
	`"Smoothed Total Cases"`,
	`"Smoothed New Cases"`,
	`"Smoothed Total Deaths"`,
	`"Smoothed New Deaths"`,
	`"Smoothed Estimated R"`,
	`"Smoothed Death-based Case Estimate"`,
}

// HeaderLine returns the first line of a rendered table, without newline.
func HeaderLine() string { return strings.Join(tableHeader, " ") }

// WriteTo renders the table as space-delimited text: a quoted header line,
// then one line per day. Undefined cells are written as "".
func (t RegionTable) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64

	line := func(cells []string) error {
		n, err := bw.WriteString(strings.Join(cells, " ") + "\n")
		written += int64(n)
		return err
	}

	if err := line(tableHeader); err != nil {
		return written, err
	}
	for _, r := range t.Rows {
		cells := []string{
			r.Date,
			strconv.FormatInt(r.TotalCases, 10),
			strconv.FormatInt(r.NewCases, 10),
			strconv.FormatInt(r.TotalDeaths, 10),
			strconv.FormatInt(r.NewDeaths, 10),
			r.EstimatedR.cell(),
			r.DeathBasedEstimate.cell(),
			r.SmoothedTotalCases.cell(),
			r.SmoothedNewCases.cell(),
			r.SmoothedTotalDeaths.cell(),
			r.SmoothedNewDeaths.cell(),
			r.SmoothedEstimatedR.cell(),
			r.SmoothedDeathBasedEstimate.cell(),
		}
		if err := line(cells); err != nil {
			return written, err
		}
	}
	return written, bw.Flush()
}
