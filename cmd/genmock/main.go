// Command genmock writes a synthetic daily report directory spanning the
// schema cutover, then runs the real estimation over it and prints the
// figures test assertions are written against.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/reports -days 60
//	go run ./cmd/genmock -out data/mock/reports -tables-out data/mock/tables.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/reverse-r-etl/internal/adapter/snapshotdir"
	"github.com/couchcryptid/reverse-r-etl/internal/domain"
	"github.com/couchcryptid/reverse-r-etl/internal/pipeline"
)

const (
	legacyHeader  = "Province/State,Country/Region,Last Update,Confirmed,Deaths,Recovered"
	currentHeader = "FIPS,Admin2,Province_State,Country_Region,Last_Update,Lat,Long_,Confirmed,Deaths,Recovered,Active,Combined_Key"
)

// outbreak describes one synthetic epidemic curve. Each province contributes
// an equal share of the region's cases.
type outbreak struct {
	label     string
	provinces []string
	seed      float64
	growth    float64 // daily multiplicative growth of cumulative cases
	fatality  float64
	deathLag  int
}

var outbreaks = []outbreak{
	{label: "Italy", seed: 20, growth: 1.18, fatality: 0.1, deathLag: 12},
	{label: "Korea, South", seed: 30, growth: 1.08, fatality: 0.02, deathLag: 14},
	{label: "Australia", provinces: []string{"New South Wales", "Victoria"}, seed: 4, growth: 1.15, fatality: 0.01, deathLag: 14},
	{label: "Others", provinces: []string{"Diamond Princess cruise ship"}, seed: 60, growth: 1.05, fatality: 0.02, deathLag: 10},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "directory to write MM-DD-YYYY.csv reports into")
	start := flag.String("start", "2020-03-01", "first report date (YYYY-MM-DD)")
	days := flag.Int("days", 45, "number of daily reports")
	tablesOut := flag.String("tables-out", "", "optional path for the estimated tables as JSON")
	flag.Parse()

	if *out == "" || *days <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -days > 0")
	}
	first, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}
	for i := 0; i < *days; i++ {
		day := first.AddDate(0, 0, i)
		if err := writeReport(*out, day, i); err != nil {
			return fmt.Errorf("writing %s: %w", day.Format(time.DateOnly), err)
		}
	}
	log.Printf("wrote %d reports to %s", *days, *out)

	// Fixed clock so GeneratedAt is reproducible across fixture runs.
	domain.SetClock(clockwork.NewFakeClockAt(first.AddDate(0, 0, *days)))
	defer domain.SetClock(nil)

	tables, err := estimate(*out)
	if err != nil {
		return err
	}
	if *tablesOut != "" {
		if err := writeJSON(*tablesOut, tables); err != nil {
			return fmt.Errorf("writing tables fixture: %w", err)
		}
		log.Printf("wrote tables fixture: %s", *tablesOut)
	}

	printStats(tables)
	return nil
}

func writeReport(dir string, day time.Time, index int) error {
	var b strings.Builder
	legacy := domain.SchemaFor(day, domain.DefaultSchemaCutover).Name() == "legacy"
	if legacy {
		b.WriteString(legacyHeader + "\n")
	} else {
		b.WriteString(currentHeader + "\n")
	}

	for _, o := range outbreaks {
		provinces := o.provinces
		if len(provinces) == 0 {
			provinces = []string{""}
		}
		cases := o.cumulative(index) / int64(len(provinces))
		deaths := o.deaths(index) / int64(len(provinces))

		for _, p := range provinces {
			if legacy {
				fmt.Fprintf(&b, "%s,%s,%s,%d,%d,0\n",
					quote(p), quote(o.label), day.Format(time.RFC3339), cases, deaths)
				continue
			}
			fmt.Fprintf(&b, ",,%s,%s,%s,0,0,%d,%d,0,0,%s\n",
				quote(p), quote(o.label), day.Format(time.DateTime), cases, deaths, quote(combinedKey(p, o.label)))
		}
	}

	name := day.Format("01-02-2006") + ".csv"
	return os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0o600)
}

func (o outbreak) cumulative(day int) int64 {
	return int64(math.Round(o.seed * math.Pow(o.growth, float64(day))))
}

func (o outbreak) deaths(day int) int64 {
	if day < o.deathLag {
		return 0
	}
	return int64(math.Round(o.fatality * float64(o.cumulative(day-o.deathLag))))
}

func quote(s string) string {
	if strings.Contains(s, ",") {
		return `"` + s + `"`
	}
	return s
}

func combinedKey(province, region string) string {
	if province == "" {
		return region
	}
	return province + ", " + region
}

// estimate runs the same read and transform stages the estimator runs.
func estimate(dir string) ([]domain.RegionTable, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	kernel, err := domain.NewKernel(domain.DefaultKernelParams())
	if err != nil {
		return nil, err
	}
	est := domain.NewEstimator(domain.EstimatorOptions{
		Kernel:        kernel,
		Thresholds:    domain.DefaultRThresholds(),
		DeathEstimate: domain.DefaultDeathEstimateParams(),
		Smoothing:     domain.DefaultSmoothingParams(),
	}, logger)
	transformer := pipeline.NewTransformer(domain.NewNormalizer(domain.NormalizerOptions{}), domain.DefaultErrata(), est, 4, logger)

	ctx := context.Background()
	snapshots, err := snapshotdir.NewReader(dir, logger).ReadSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	batch, err := transformer.Transform(ctx, snapshots)
	if err != nil {
		return nil, err
	}
	log.Printf("parsed %d rows from %d snapshots, dropped %d",
		batch.Stats.RowsParsed, batch.Stats.Snapshots, batch.Stats.RowsDropped)
	return batch.Tables, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(tables []domain.RegionTable) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Regions: %d\n", len(tables))
	for _, t := range tables {
		if len(t.Rows) == 0 {
			fmt.Printf("  %s: no rows\n", t.Region)
			continue
		}
		last := t.Rows[len(t.Rows)-1]
		var firstR string
		for _, r := range t.Rows {
			if r.EstimatedR.Valid {
				firstR = r.Date
				break
			}
		}
		fmt.Printf("  %s: rows=%d total=%d deaths=%d first R=%s last smoothed R=%s gaps=%d\n",
			t.Region, len(t.Rows), last.TotalCases, last.TotalDeaths,
			orDash(firstR), formatNull(last.SmoothedEstimatedR), t.GapWindows)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatNull(n domain.NullFloat) string {
	if !n.Valid {
		return "-"
	}
	return fmt.Sprintf("%.3f", n.Float64)
}
