package signal

import (
	"testing"
	"time"

	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/config"
	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/ingest"
	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/join"
	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/stats"
)

// newDataset builds an empty dataset over a fixed horizon starting at first
// ("YYYY-MM") and spanning months entries.
func newDataset(t *testing.T, first string, months int) *join.Dataset {
	t.Helper()
	m, err := ingest.ParseMonth(first)
	if err != nil {
		t.Fatal(err)
	}
	return &join.Dataset{
		Providers:  make(map[string]*join.Provider),
		FirstMonth: m,
		LastMonth:  m.Add(months - 1),
	}
}

// addProvider registers p, zero-padding its series to the dataset horizon
// and deriving lifetime totals from it.
func addProvider(t *testing.T, ds *join.Dataset, p *join.Provider) *join.Provider {
	t.Helper()
	horizon := ds.Months()
	if len(p.Monthly) > horizon {
		t.Fatalf("series longer than horizon: %d > %d", len(p.Monthly), horizon)
	}
	for len(p.Monthly) < horizon {
		p.Monthly = append(p.Monthly, ingest.MonthlyStat{})
	}
	if p.TotalPaid == 0 && p.TotalClaims == 0 && p.TotalBeneficiaries == 0 {
		for _, ms := range p.Monthly {
			p.TotalPaid += ms.Paid
			p.TotalClaims += ms.Claims
			p.TotalBeneficiaries += ms.Beneficiaries
		}
	}
	ds.Providers[p.NPI] = p
	return p
}

// paidSeries builds a claims-free monthly series from paid amounts.
func paidSeries(paid ...float64) []ingest.MonthlyStat {
	out := make([]ingest.MonthlyStat, len(paid))
	for i, v := range paid {
		out[i] = ingest.MonthlyStat{Paid: v}
		if v > 0 {
			out[i].Claims = 1
		}
	}
	return out
}

// testInput wires a dataset into a detector input with default thresholds
// and a reference date just past the horizon.
func testInput(ds *join.Dataset) Input {
	return Input{
		Dataset:       ds,
		Peers:         stats.Build(ds, config.Defaults().MinPeerGroupSize),
		Config:        config.Defaults(),
		ReferenceDate: ds.LastMonth.Add(1).Time(),
	}
}

func testDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}
