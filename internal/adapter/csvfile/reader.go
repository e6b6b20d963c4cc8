package csvfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/reverse-r-etl/internal/domain"
)

const columns = 13

// ReadIndex parses a region index written by Writer.
func ReadIndex(r io.Reader) ([]string, error) {
	var regions []string
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		name, err := strconv.Unquote(text)
		if err != nil {
			return nil, fmt.Errorf("index line %d: %w", line, err)
		}
		regions = append(regions, name)
	}
	return regions, sc.Err()
}

// ReadTable parses a region table written by Writer. The region name is not
// part of the file and is left empty.
func ReadTable(r io.Reader) (domain.RegionTable, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return domain.RegionTable{}, err
		}
		return domain.RegionTable{}, errors.New("empty table")
	}
	if sc.Text() != domain.HeaderLine() {
		return domain.RegionTable{}, fmt.Errorf("unexpected header %q", sc.Text())
	}

	var t domain.RegionTable
	for line := 2; sc.Scan(); line++ {
		row, err := parseRow(strings.Fields(sc.Text()))
		if err != nil {
			return domain.RegionTable{}, fmt.Errorf("table line %d: %w", line, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, sc.Err()
}

func parseRow(cells []string) (domain.TableRow, error) {
	if len(cells) != columns {
		return domain.TableRow{}, fmt.Errorf("want %d cells, got %d", columns, len(cells))
	}

	row := domain.TableRow{Date: cells[0]}
	ints := []*int64{&row.TotalCases, &row.NewCases, &row.TotalDeaths, &row.NewDeaths}
	for i, dst := range ints {
		v, err := strconv.ParseInt(cells[1+i], 10, 64)
		if err != nil {
			return domain.TableRow{}, fmt.Errorf("column %d: %w", 2+i, err)
		}
		*dst = v
	}

	floats := []*domain.NullFloat{
		&row.EstimatedR,
		&row.DeathBasedEstimate,
		&row.SmoothedTotalCases,
		&row.SmoothedNewCases,
		&row.SmoothedTotalDeaths,
		&row.SmoothedNewDeaths,
		&row.SmoothedEstimatedR,
		&row.SmoothedDeathBasedEstimate,
	}
	for i, dst := range floats {
		v, err := domain.ParseCell(cells[5+i])
		if err != nil {
			return domain.TableRow{}, fmt.Errorf("column %d: %w", 6+i, err)
		}
		*dst = v
	}
	return row, nil
}
