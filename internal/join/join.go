// Package join merges the three normalized sources into one provider-keyed
// dataset. Billing is the anchor set: every NPI observed in the spending
// aggregate yields a row, with registry attributes and exclusion status
// left-joined on where available.
package join

import (
	"time"

	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/ingest"
)

// Match confidence for exclusion joins.
const (
	MatchNPI  = "npi"
	MatchName = "name"
)

// Exclusion is a provider's joined exclusion status.
type Exclusion struct {
	Date            time.Time
	Type            string
	MatchConfidence string // MatchNPI or MatchName
}

// Provider is one joined row: billing totals and series, registry
// attributes, exclusion status.
type Provider struct {
	NPI             string
	Name            string
	EntityTypeCode  string // "1", "2", or "" when not in the registry
	TaxonomyCode    string
	State           string
	EnumerationDate time.Time // zero when unknown
	OfficialKey     string
	OfficialName    string

	Excluded *Exclusion // nil when not on the exclusion list

	TotalPaid          float64
	TotalClaims        int64
	TotalBeneficiaries int64

	// Monthly covers the dataset's full reporting horizon: index 0 is
	// FirstMonth, the last index is LastMonth. Months with no activity
	// are zero-filled, never omitted.
	Monthly []ingest.MonthlyStat
}

// Dataset is the joined, provider-keyed view all detectors read from. It is
// treated as immutable once built.
type Dataset struct {
	Providers  map[string]*Provider
	FirstMonth ingest.Month
	LastMonth  ingest.Month
}

// Months returns the length of the reporting horizon in months.
func (d *Dataset) Months() int {
	if len(d.Providers) == 0 {
		return 0
	}
	return int(d.LastMonth-d.FirstMonth) + 1
}

// MonthAt returns the calendar month at series index i.
func (d *Dataset) MonthAt(i int) ingest.Month {
	return d.FirstMonth.Add(i)
}

// Build joins the spending aggregate against the registry and exclusion
// list. registry may be nil (NPPES input omitted); exclusions may be empty.
// Output iteration order is map order; callers must not depend on it.
func Build(spending *ingest.SpendingAggregate, exclusions []ingest.ExclusionRecord, registry *ingest.NPPESResult) *Dataset {
	ds := &Dataset{
		Providers:  make(map[string]*Provider, len(spending.Providers)),
		FirstMonth: spending.FirstMonth,
		LastMonth:  spending.LastMonth,
	}
	horizon := ds.Months()

	byNPI, byName := indexExclusions(exclusions)

	for npi, sp := range spending.Providers {
		p := &Provider{
			NPI:                npi,
			TotalPaid:          sp.Paid,
			TotalClaims:        sp.Claims,
			TotalBeneficiaries: sp.Beneficiaries,
			Monthly:            make([]ingest.MonthlyStat, horizon),
		}
		for m, stat := range sp.Monthly {
			p.Monthly[int(m-ds.FirstMonth)] = stat
		}

		if registry != nil {
			if reg, ok := registry.Records[npi]; ok {
				p.Name = reg.Name
				p.EntityTypeCode = reg.EntityTypeCode
				p.TaxonomyCode = reg.TaxonomyCode
				p.State = reg.State
				p.EnumerationDate = reg.EnumerationDate
				p.OfficialKey = reg.OfficialKey
				p.OfficialName = reg.OfficialName
			}
		}

		// Exclusion match: NPI first, then the lower-confidence
		// normalized-name fallback against NPI-less LEIE rows.
		if excl, ok := byNPI[npi]; ok {
			p.Excluded = &Exclusion{Date: excl.ExclusionDate, Type: excl.ExclusionType, MatchConfidence: MatchNPI}
			if p.Name == "" {
				p.Name = excl.Name
			}
		} else if p.Name != "" {
			if excl, ok := byName[ingest.NormalizeName(p.Name)]; ok {
				p.Excluded = &Exclusion{Date: excl.ExclusionDate, Type: excl.ExclusionType, MatchConfidence: MatchName}
			}
		}

		ds.Providers[npi] = p
	}

	return ds
}

// indexExclusions builds the NPI and normalized-name lookup maps. The name
// map only holds records without an NPI; a record that carries an NPI is
// only ever matched by it. When duplicate keys collide, the earliest
// exclusion date wins.
func indexExclusions(exclusions []ingest.ExclusionRecord) (map[string]ingest.ExclusionRecord, map[string]ingest.ExclusionRecord) {
	byNPI := make(map[string]ingest.ExclusionRecord)
	byName := make(map[string]ingest.ExclusionRecord)

	for _, e := range exclusions {
		if e.NPI != "" {
			if prev, ok := byNPI[e.NPI]; !ok || e.ExclusionDate.Before(prev.ExclusionDate) {
				byNPI[e.NPI] = e
			}
			continue
		}
		if e.NormalizedName == "" {
			continue
		}
		if prev, ok := byName[e.NormalizedName]; !ok || e.ExclusionDate.Before(prev.ExclusionDate) {
			byName[e.NormalizedName] = e
		}
	}
	return byNPI, byName
}

// EntityType translates the registry entity type code to the report
// vocabulary.
func (p *Provider) EntityType() string {
	switch p.EntityTypeCode {
	case "1":
		return "individual"
	case "2":
		return "organization"
	default:
		return "unknown"
	}
}

// IsOrganization reports whether the provider is an entity-type-2
// organization.
func (p *Provider) IsOrganization() bool {
	return p.EntityTypeCode == "2"
}
