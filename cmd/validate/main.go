// Command validate checks a processed-data directory written by the
// estimator: the region index, one table per region, and the internal
// consistency of every table.
//
// Usage:
//
//	go run ./cmd/validate -dir processed-data
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/reverse-r-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/reverse-r-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "", "directory containing countries.csv and region tables")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*dir))
}

func run(dir string) int {
	fmt.Println("=== Region Table Validation ===")
	fmt.Println()

	regions, err := loadIndex(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load region index: %v\n", err)
		return 1
	}

	tables, files := loadTables(dir, regions)

	phases := []*phase{
		files,
		validateRows(tables),
		validateDerived(tables),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Regions: %d indexed, %d tables read\n", len(regions), len(tables))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadIndex(dir string) ([]string, error) {
	f, err := os.Open(filepath.Join(dir, csvfile.IndexFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csvfile.ReadIndex(f)
}

// ── Phase 1: Files ──
// Every indexed region has a readable table and no region is listed twice.

func loadTables(dir string, regions []string) ([]domain.RegionTable, *phase) {
	p := &phase{name: "Phase 1: Files (index vs tables)"}
	seen := make(map[string]bool, len(regions))
	tables := make([]domain.RegionTable, 0, len(regions))

	for _, region := range regions {
		if seen[region] {
			p.errorf("%q listed twice in %s", region, csvfile.IndexFile)
			continue
		}
		seen[region] = true

		t, err := loadTable(filepath.Join(dir, csvfile.FileName(region)))
		if err != nil {
			p.errorf("%q: %v", region, err)
			continue
		}
		t.Region = region
		tables = append(tables, t)
	}
	return tables, p
}

func loadTable(path string) (domain.RegionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.RegionTable{}, err
	}
	defer f.Close()
	return csvfile.ReadTable(f)
}

// ── Phase 2: Rows ──
// Dates parse and strictly increase; cumulative totals never go negative.

func validateRows(tables []domain.RegionTable) *phase {
	p := &phase{name: "Phase 2: Rows (dates and totals)"}
	for _, t := range tables {
		var prev time.Time
		for i, r := range t.Rows {
			day, err := time.Parse(time.DateOnly, r.Date)
			if err != nil {
				p.errorf("%q row %d: invalid date %q", t.Region, i, r.Date)
				continue
			}
			if i > 0 && !day.After(prev) {
				p.errorf("%q row %d: date %s does not follow %s", t.Region, i, r.Date, prev.Format(time.DateOnly))
			}
			prev = day

			if r.TotalCases < 0 || r.TotalDeaths < 0 {
				p.errorf("%q %s: negative totals", t.Region, r.Date)
			}
		}
	}
	return p
}

// ── Phase 3: Derived columns ──
// Increments match the totals and R is never negative.

func validateDerived(tables []domain.RegionTable) *phase {
	p := &phase{name: "Phase 3: Derived (increments and R)"}
	for _, t := range tables {
		for i, r := range t.Rows {
			if i >= 2 {
				prev := t.Rows[i-1]
				if r.NewCases != r.TotalCases-prev.TotalCases {
					p.errorf("%q %s: new cases %d, totals differ by %d", t.Region, r.Date, r.NewCases, r.TotalCases-prev.TotalCases)
				}
				if r.NewDeaths != r.TotalDeaths-prev.TotalDeaths {
					p.errorf("%q %s: new deaths %d, totals differ by %d", t.Region, r.Date, r.NewDeaths, r.TotalDeaths-prev.TotalDeaths)
				}
			}
			if r.EstimatedR.Valid && r.EstimatedR.Float64 < 0 {
				p.errorf("%q %s: negative R %g", t.Region, r.Date, r.EstimatedR.Float64)
			}
		}
	}
	return p
}
