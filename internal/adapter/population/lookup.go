// Package population reads the flat per-region population file used to
// normalize curves per capita.
package population

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Table maps canonical region names to absolute population.
type Table map[string]float64

// Load parses "name,thousands" records. Blank lines are skipped; a record
// with a non-numeric population is an error.
func Load(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	t := make(Table)
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, fmt.Errorf("population line %d: %w", line, err)
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("population line %d: want name,thousands", line)
		}
		thousands, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("population line %d: invalid value %q", line, rec[1])
		}
		t[strings.TrimSpace(rec[0])] = thousands * 1000
	}
}

// LoadFile opens and parses path.
func LoadFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open population file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Lookup returns the population of region.
func (t Table) Lookup(region string) (float64, bool) {
	v, ok := t[region]
	return v, ok
}

// Format renders the population of region the way the tables render
// undefined values: an empty quoted string when unknown.
func (t Table) Format(region string) string {
	v, ok := t.Lookup(region)
	if !ok {
		return `""`
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
