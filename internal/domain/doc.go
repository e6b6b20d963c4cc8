// Package domain models per-region COVID-19 case and death curves and the
// reverse reproduction number estimated from them.
//
// # Data Source
//
// Input is the Johns Hopkins CSSE daily report archive
// (csse_covid_19_data/csse_covid_19_daily_reports), one CSV file per report
// day named MM-DD-YYYY.csv. Each file holds cumulative totals as of that day,
// one row per reporting unit (country, province, or US county). The adapter
// layer turns the directory into a date-ordered list of [Snapshot] values;
// everything in this package works on those in-memory rows.
//
// # Schema Generations
//
// The archive changed its column layout on 2020-03-22:
//
//	legacy:  Province/State,Country/Region,Last Update,Confirmed,Deaths,Recovered[,Latitude,Longitude]
//	current: FIPS,Admin2,Province_State,Country_Region,Last_Update,Lat,Long_,Confirmed,Deaths,Recovered,Active,Combined_Key
//
// [SchemaFor] selects the layout by report date. Legacy files report the
// cruise ships as provinces of a host country ("Diamond Princess cruise
// ship,Others", "Grand Princess,US"), so legacy extraction looks at the
// province column before falling back to the country column.
//
// Free-text fields containing commas are quoted ("Abbeville, South Carolina,
// US"). Rows are not parsed with a CSV reader: known quoted labels are
// rewritten first (see lineFixes), then any remaining quoted comma-bearing
// field is blanked, then the line is split on commas. Column positions stay
// stable through all three steps.
//
// Empty numeric cells mean zero. Anything else that fails to parse as an
// integer is a [ParseError] and aborts the build.
//
// # Region Names
//
// Region labels drift across the archive ("Mainland China", "Korea, South",
// "Republic of Korea", "Hong Kong SAR", "Taiwan*"). [Normalizer] folds them
// through an ordered rule table (first match wins) and a denylist. Labels
// not covered by any rule pass through unchanged.
//
// # Estimation
//
// Cumulative totals become daily increments (negative differences clamp to
// zero). Each day's increment is spread over a binomial infectiousness
// window ([Kernel]); the resulting attributable weight divides the day's
// increment to give the reverse R estimate. All columns are finally run
// through a gap-aware box filter ([BoxFilter]).
package domain
