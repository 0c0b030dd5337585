package ingest

import "time"

// MonthlyStat holds one provider's billing activity for a single month.
type MonthlyStat struct {
	Paid          float64
	Claims        int64
	Beneficiaries int64
}

// ProviderSpending is the per-NPI reduction of the spending dataset:
// lifetime totals plus the sparse provider-month breakdown.
type ProviderSpending struct {
	NPI           string
	Paid          float64
	Claims        int64
	Beneficiaries int64
	Monthly       map[Month]MonthlyStat
}

// SpendingAggregate is the result of the streaming group-by over the
// spending dataset. Only the grouped provider-month sums are ever held in
// memory; the raw rows are reduced on the fly.
type SpendingAggregate struct {
	Providers map[string]*ProviderSpending

	// Observed reporting horizon across all providers.
	FirstMonth Month
	LastMonth  Month

	RowsRead     int64
	RowsRejected int64
}

func newSpendingAggregate() *SpendingAggregate {
	return &SpendingAggregate{Providers: make(map[string]*ProviderSpending)}
}

// add folds a single valid provider-month observation into the aggregate.
func (a *SpendingAggregate) add(npi string, month Month, paid float64, claims, bene int64) {
	p, ok := a.Providers[npi]
	if !ok {
		p = &ProviderSpending{NPI: npi, Monthly: make(map[Month]MonthlyStat)}
		a.Providers[npi] = p
	}
	p.Paid += paid
	p.Claims += claims
	p.Beneficiaries += bene

	ms := p.Monthly[month]
	ms.Paid += paid
	ms.Claims += claims
	ms.Beneficiaries += bene
	p.Monthly[month] = ms

	if len(a.Providers) == 1 && len(p.Monthly) == 1 {
		a.FirstMonth, a.LastMonth = month, month
		return
	}
	if month < a.FirstMonth {
		a.FirstMonth = month
	}
	if month > a.LastMonth {
		a.LastMonth = month
	}
}

// ExclusionRecord is one row of the OIG LEIE exclusion list. NPI may be
// empty; such records are only usable through the name-fallback match.
type ExclusionRecord struct {
	NPI            string
	Name           string
	NormalizedName string
	ExclusionDate  time.Time
	ExclusionType  string
}

// RegistryRecord is the projected NPPES registry row: only the columns the
// pipeline consumes out of the registry's very wide native schema.
type RegistryRecord struct {
	NPI             string
	Name            string
	EntityTypeCode  string // "1" individual, "2" organization
	TaxonomyCode    string
	State           string
	EnumerationDate time.Time // zero when unknown
	OfficialKey     string    // "FIRST|LAST", upper-cased; empty when absent
	OfficialName    string
	OfficialPhone   string
}

// ValidNPI reports whether s is a well-formed 10-digit NPI.
func ValidNPI(s string) bool {
	if len(s) != 10 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
