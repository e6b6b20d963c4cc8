package domain

import (
	"fmt"
	"time"
)

// DefaultSchemaCutover is the first report date using the current layout.
var DefaultSchemaCutover = time.Date(2020, time.March, 22, 0, 0, 0, 0, time.UTC)

// Schema is one generation of the daily report column layout. The set of
// schemas is closed: use [SchemaFor] to obtain one.
type Schema interface {
	// Name identifies the layout in logs.
	Name() string

	// extract resolves the raw region label and numeric cells of a split row.
	extract(fields []string, cruise CruisePolicy) (schemaRow, error)
}

// schemaRow holds the region label and unparsed numeric cells of one row.
type schemaRow struct {
	region string
	cases  string
	deaths string
}

// SchemaFor returns the layout in effect on reportDate.
func SchemaFor(reportDate, cutover time.Time) Schema {
	if reportDay(reportDate).Before(reportDay(cutover)) {
		return legacySchema{}
	}
	return currentSchema{}
}

// legacySchema: Province/State,Country/Region,Last Update,Confirmed,Deaths,...
type legacySchema struct{}

func (legacySchema) Name() string { return "legacy" }

func (legacySchema) extract(fields []string, cruise CruisePolicy) (schemaRow, error) {
	if len(fields) < 5 {
		return schemaRow{}, fmt.Errorf("legacy row has %d columns, want at least 5", len(fields))
	}
	province, country := fields[0], fields[1]

	// Ships were filed under a host country; the province names the vessel.
	region := country
	if cruise.classify(province) != notShip {
		region = province
	}

	return schemaRow{region: region, cases: fields[3], deaths: fields[4]}, nil
}

// currentSchema: FIPS,Admin2,Province_State,Country_Region,Last_Update,Lat,Long_,Confirmed,Deaths,...
type currentSchema struct{}

func (currentSchema) Name() string { return "current" }

func (currentSchema) extract(fields []string, _ CruisePolicy) (schemaRow, error) {
	if len(fields) < 9 {
		return schemaRow{}, fmt.Errorf("current row has %d columns, want at least 9", len(fields))
	}
	return schemaRow{region: fields[3], cases: fields[7], deaths: fields[8]}, nil
}
