package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// quotedFieldRe matches a quoted free-text field containing commas and its
// trailing separator, e.g. `"Abbeville, South Carolina, US",`.
var quotedFieldRe = regexp.MustCompile(`"[a-zA-Z0-9,(). ]*",`)

// lineFixes rewrite quoted labels that are region names in their own right.
// They run on the raw line before quotedFieldRe would blank them.
var lineFixes = strings.NewReplacer(
	`"Korea, South"`, "South Korea",
	`"Bonaire, Sint Eustatius and Saba"`, "Bonaire; Sint Eustatius and Saba",
	`"Gambia, The"`, "Gambia",
	`"Bahamas, The"`, "Bahamas",
)

// NameRule folds a raw region label into a canonical region.
type NameRule struct {
	Pattern   string
	Canonical string
	// Exact requires the whole label to equal Pattern. Otherwise the rule
	// matches any label containing Pattern.
	Exact bool
}

func (r NameRule) matches(label string) bool {
	if r.Exact {
		return label == r.Pattern
	}
	return strings.Contains(label, r.Pattern)
}

// DefaultNameRules returns the built-in rule table. Order matters: more
// specific patterns come before broader ones they overlap with.
func DefaultNameRules() []NameRule {
	return []NameRule{
		{Pattern: "US", Canonical: "United States of America", Exact: true},
		{Pattern: "Guam", Canonical: "United States of America", Exact: true},
		{Pattern: "Puerto Rico", Canonical: "United States of America", Exact: true},

		{Pattern: "Korea, South", Canonical: "South Korea"},
		{Pattern: "Republic of Korea", Canonical: "South Korea"},

		{Pattern: "Hong Kong SAR", Canonical: "China"},
		{Pattern: "Hong Kong", Canonical: "China"},
		{Pattern: "Macao SAR", Canonical: "China"},
		{Pattern: "Macau", Canonical: "China"},
		{Pattern: "Mainland China", Canonical: "China"},
		{Pattern: "Taipei and environs", Canonical: "Taiwan"},
		{Pattern: "Taiwan", Canonical: "Taiwan"},

		{Pattern: "Democratic Republic of the Congo", Canonical: "Congo (Kinshasa)"},
		{Pattern: "Republic of the Congo", Canonical: "Congo (Brazzaville)"},

		{Pattern: "Iran (Islamic Republic of)", Canonical: "Iran", Exact: true},
		{Pattern: "Republic of Moldova", Canonical: "Moldova", Exact: true},
		{Pattern: "Russian Federation", Canonical: "Russia", Exact: true},
		{Pattern: "Viet Nam", Canonical: "Vietnam", Exact: true},
		{Pattern: "Czech Republic", Canonical: "Czechia", Exact: true},
		{Pattern: "Republic of Ireland", Canonical: "Ireland", Exact: true},
		{Pattern: "occupied Palestinian territory", Canonical: "West Bank and Gaza", Exact: true},
		{Pattern: "Palestine", Canonical: "West Bank and Gaza", Exact: true},
		{Pattern: "Holy See", Canonical: "Holy See"},
		{Pattern: "Vatican City", Canonical: "Holy See", Exact: true},
		{Pattern: "Cape Verde", Canonical: "Cabo Verde", Exact: true},
		{Pattern: "East Timor", Canonical: "Timor-Leste", Exact: true},
		{Pattern: "Ivory Coast", Canonical: "Cote d'Ivoire", Exact: true},
		{Pattern: "The Bahamas", Canonical: "Bahamas", Exact: true},
		{Pattern: "Bahamas, The", Canonical: "Bahamas", Exact: true},
		{Pattern: "The Gambia", Canonical: "Gambia", Exact: true},
		{Pattern: "Gambia, The", Canonical: "Gambia", Exact: true},

		{Pattern: "UK", Canonical: "United Kingdom", Exact: true},
		{Pattern: "North Ireland", Canonical: "United Kingdom", Exact: true},
		{Pattern: "Channel Islands", Canonical: "United Kingdom", Exact: true},
		{Pattern: "Gibraltar", Canonical: "United Kingdom", Exact: true},
		{Pattern: "Cayman Islands", Canonical: "United Kingdom", Exact: true},

		{Pattern: "French Guiana", Canonical: "France", Exact: true},
		{Pattern: "Guadeloupe", Canonical: "France", Exact: true},
		{Pattern: "Martinique", Canonical: "France", Exact: true},
		{Pattern: "Mayotte", Canonical: "France", Exact: true},
		{Pattern: "Reunion", Canonical: "France", Exact: true},
		{Pattern: "Saint Barthelemy", Canonical: "France", Exact: true},
		{Pattern: "Saint Martin", Canonical: "France", Exact: true},
		{Pattern: "St. Martin", Canonical: "France", Exact: true},

		{Pattern: "Faroe Islands", Canonical: "Denmark", Exact: true},
		{Pattern: "Greenland", Canonical: "Denmark", Exact: true},

		{Pattern: "Aruba", Canonical: "Netherlands", Exact: true},
		{Pattern: "Curacao", Canonical: "Netherlands", Exact: true},
		{Pattern: "Bonaire; Sint Eustatius and Saba", Canonical: "Netherlands", Exact: true},
	}
}

// DefaultDenylist returns labels that never name a region.
func DefaultDenylist() []string {
	return []string{"Others", "MS Zaandam", "Country/Region", "Country_Region"}
}

type shipKind int

const (
	notShip shipKind = iota
	keptShip
	discardedShip
)

// CruisePolicy folds cruise-ship pseudo-regions into a single pseudo-country.
type CruisePolicy struct {
	Canonical string
	// Markers are lower-case substrings identifying a ship label.
	Markers []string
	// Discarded are lower-case substrings of vessels whose rows are dropped.
	Discarded []string
}

// DefaultCruisePolicy folds ship labels into "Diamond Princess" and drops
// the Grand Princess, whose cases upstream attributes to the US.
func DefaultCruisePolicy() CruisePolicy {
	return CruisePolicy{
		Canonical: "Diamond Princess",
		Markers:   []string{"cruise ship", "princess"},
		Discarded: []string{"grand princess"},
	}
}

func (c CruisePolicy) classify(label string) shipKind {
	lower := strings.ToLower(label)
	for _, d := range c.Discarded {
		if strings.Contains(lower, d) {
			return discardedShip
		}
	}
	for _, m := range c.Markers {
		if strings.Contains(lower, m) {
			return keptShip
		}
	}
	return notShip
}

// NormalizerOptions configures a Normalizer. Zero-valued fields fall back to
// the built-in defaults.
type NormalizerOptions struct {
	Rules    []NameRule
	Denylist []string
	Cruise   *CruisePolicy
	Cutover  time.Time
}

// Normalizer resolves raw report rows to a canonical region.
type Normalizer struct {
	rules    []NameRule
	denylist map[string]struct{}
	cruise   CruisePolicy
	cutover  time.Time
}

// ResolvedRow is a report row attributed to a canonical region, with its
// numeric cells still unparsed.
type ResolvedRow struct {
	Region string
	Cases  string
	Deaths string
}

// NewNormalizer builds a Normalizer from opts.
func NewNormalizer(opts NormalizerOptions) *Normalizer {
	n := &Normalizer{
		rules:    opts.Rules,
		denylist: make(map[string]struct{}),
		cruise:   DefaultCruisePolicy(),
		cutover:  opts.Cutover,
	}
	if n.rules == nil {
		n.rules = DefaultNameRules()
	}
	denylist := opts.Denylist
	if denylist == nil {
		denylist = DefaultDenylist()
	}
	for _, label := range denylist {
		n.denylist[label] = struct{}{}
	}
	if opts.Cruise != nil {
		n.cruise = *opts.Cruise
	}
	if n.cutover.IsZero() {
		n.cutover = DefaultSchemaCutover
	}
	return n
}

// Canonical maps a raw region label to its canonical region. It returns
// false when rows with this label must be dropped.
func (n *Normalizer) Canonical(label string) (string, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}
	if _, denied := n.denylist[label]; denied {
		return "", false
	}

	switch n.cruise.classify(label) {
	case discardedShip:
		return "", false
	case keptShip:
		return n.cruise.Canonical, true
	}

	for _, r := range n.rules {
		if r.matches(label) {
			return r.Canonical, true
		}
	}
	return label, true
}

// Resolve splits a raw report line using the schema in effect on
// reportDate and attributes it to a canonical region. It returns false for
// rows that must be dropped, and a *ParseError for rows whose layout does
// not match the schema.
func (n *Normalizer) Resolve(reportDate time.Time, line string) (ResolvedRow, bool, error) {
	fields := splitRow(line)
	schema := SchemaFor(reportDate, n.cutover)

	row, err := schema.extract(fields, n.cruise)
	if err != nil {
		return ResolvedRow{}, false, &ParseError{
			ReportDate: reportDate,
			Row:        line,
			Field:      "columns",
			Value:      schema.Name(),
			Err:        err,
		}
	}

	region, ok := n.Canonical(row.region)
	if !ok {
		return ResolvedRow{}, false, nil
	}
	return ResolvedRow{Region: region, Cases: row.cases, Deaths: row.deaths}, true, nil
}

// Cutover returns the first report date of the current schema.
func (n *Normalizer) Cutover() time.Time { return n.cutover }

// splitRow rewrites known quoted labels, blanks remaining quoted
// comma-bearing fields, and splits the line on commas.
func splitRow(line string) []string {
	line = strings.TrimRight(line, "\r\n")
	line = lineFixes.Replace(line)
	line = quotedFieldRe.ReplaceAllString(line, ",")

	fields := strings.Split(line, ",")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(strings.Trim(f, `"`))
	}
	return fields
}

var errEmptyRule = errors.New("name rule needs a pattern and a canonical name")

// ValidateRules rejects rules with an empty pattern or canonical name.
func ValidateRules(rules []NameRule) error {
	for _, r := range rules {
		if r.Pattern == "" || r.Canonical == "" {
			return errEmptyRule
		}
	}
	return nil
}
