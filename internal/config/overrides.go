package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/reverse-r-etl/internal/domain"
)

// Overrides is the optional YAML file that adjusts the built-in naming and
// correction tables without a rebuild.
//
//	errata:
//	  - region: Italy
//	    date: 2020-03-12
//	    field: cases
//	name_rules:
//	  - pattern: Burma
//	    canonical: Myanmar
//	    exact: true
//	denylist:
//	  - Recovered
type Overrides struct {
	Errata    []ErratumEntry  `yaml:"errata"`
	NameRules []NameRuleEntry `yaml:"name_rules"`
	Denylist  []string        `yaml:"denylist"`
}

// ErratumEntry is the file form of domain.Erratum.
type ErratumEntry struct {
	Region string `yaml:"region"`
	Date   string `yaml:"date"`
	Field  string `yaml:"field"`
}

// NameRuleEntry is the file form of domain.NameRule.
type NameRuleEntry struct {
	Pattern   string `yaml:"pattern"`
	Canonical string `yaml:"canonical"`
	Exact     bool   `yaml:"exact"`
}

// LoadOverrides reads and decodes the overrides file. An empty path yields
// empty overrides.
func LoadOverrides(path string) (*Overrides, error) {
	if path == "" {
		return &Overrides{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("decode overrides %s: %w", path, err)
	}
	if _, err := o.ErrataList(); err != nil {
		return nil, err
	}
	if err := domain.ValidateRules(o.Rules()); err != nil {
		return nil, fmt.Errorf("overrides name_rules: %w", err)
	}
	return &o, nil
}

// ErrataList returns the configured errata, or the built-in list when the
// file names none.
func (o *Overrides) ErrataList() ([]domain.Erratum, error) {
	if len(o.Errata) == 0 {
		return domain.DefaultErrata(), nil
	}
	out := make([]domain.Erratum, 0, len(o.Errata))
	for i, e := range o.Errata {
		date, err := time.Parse(time.DateOnly, e.Date)
		if err != nil {
			return nil, fmt.Errorf("overrides errata[%d]: invalid date %q", i, e.Date)
		}
		field, err := domain.ParseErratumField(e.Field)
		if err != nil {
			return nil, fmt.Errorf("overrides errata[%d]: %w", i, err)
		}
		if e.Region == "" {
			return nil, fmt.Errorf("overrides errata[%d]: region is required", i)
		}
		out = append(out, domain.Erratum{Region: e.Region, Date: date, Field: field})
	}
	return out, nil
}

// Rules returns only the file's name rules.
func (o *Overrides) Rules() []domain.NameRule {
	out := make([]domain.NameRule, 0, len(o.NameRules))
	for _, r := range o.NameRules {
		out = append(out, domain.NameRule{Pattern: r.Pattern, Canonical: r.Canonical, Exact: r.Exact})
	}
	return out
}

// NormalizerOptions merges the file with the built-in tables: file rules
// take precedence, the file denylist extends the default one.
func (o *Overrides) NormalizerOptions(cutover time.Time) domain.NormalizerOptions {
	rules := append(o.Rules(), domain.DefaultNameRules()...)
	denylist := append(domain.DefaultDenylist(), o.Denylist...)
	return domain.NormalizerOptions{
		Rules:    rules,
		Denylist: denylist,
		Cutover:  cutover,
	}
}
