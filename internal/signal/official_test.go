package signal

import (
	"fmt"
	"testing"

	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/join"
)

func addNetwork(t *testing.T, ds *join.Dataset, officialKey string, n int, paidEach float64) []string {
	t.Helper()
	npis := make([]string, 0, n)
	for i := 0; i < n; i++ {
		npi := fmt.Sprintf("%010d", len(ds.Providers)+1)
		addProvider(t, ds, &join.Provider{
			NPI:          npi,
			Name:         fmt.Sprintf("CLINIC %d", i+1),
			OfficialKey:  officialKey,
			OfficialName: officialKey,
			TotalPaid:    paidEach,
			Monthly:      paidSeries(paidEach),
		})
		npis = append(npis, npi)
	}
	return npis
}

func TestDetectSharedOfficials(t *testing.T) {
	ds := newDataset(t, "2023-01", 1)
	npis := addNetwork(t, ds, "MARIA|GARCIA", 5, 300_000) // combined 1.5M
	addNetwork(t, ds, "JOHN|SMITH", 2, 900_000)           // too few NPIs
	addProvider(t, ds, &join.Provider{NPI: "9999999999", TotalPaid: 1e9, Monthly: paidSeries(1e9)})

	signals := DetectSharedOfficials(testInput(ds))
	if len(signals) != 5 {
		t.Fatalf("expected a signal for every controlled NPI, got %d", len(signals))
	}

	for i, s := range signals {
		if s.NPI != npis[i] {
			t.Errorf("signal %d NPI = %s, want %s (sorted)", i, s.NPI, npis[i])
		}
		if s.Severity != SeverityMedium {
			t.Errorf("severity = %s, want medium", s.Severity)
		}
		if s.Overpayment != 0 {
			t.Errorf("evidentiary signal must carry zero overpayment, got %v", s.Overpayment)
		}
	}

	ev := signals[0].Evidence
	if got := ev["controlled_npi_count"]; got != 5 {
		t.Errorf("controlled_npi_count = %v", got)
	}
	if got := ev["combined_paid"]; got != USD(1_500_000) {
		t.Errorf("combined_paid = %v", got)
	}
	roster, ok := ev["controlled_npis"].([]controlledNPI)
	if !ok || len(roster) != 5 {
		t.Fatalf("roster = %v", ev["controlled_npis"])
	}
	if roster[0].NPI != npis[0] || roster[0].Paid != 300_000 {
		t.Errorf("roster entry = %+v", roster[0])
	}
}

func TestDetectSharedOfficialsHighSeverity(t *testing.T) {
	ds := newDataset(t, "2023-01", 1)
	addNetwork(t, ds, "MARIA|GARCIA", 6, 1_000_000) // combined 6M > 5M

	signals := DetectSharedOfficials(testInput(ds))
	if len(signals) != 6 {
		t.Fatalf("expected 6 signals, got %d", len(signals))
	}
	for _, s := range signals {
		if s.Severity != SeverityHigh {
			t.Errorf("severity = %s, want high", s.Severity)
		}
	}
}

func TestDetectSharedOfficialsBelowPaidThreshold(t *testing.T) {
	ds := newDataset(t, "2023-01", 1)
	addNetwork(t, ds, "MARIA|GARCIA", 5, 100_000) // combined 500k ≤ 1M

	if signals := DetectSharedOfficials(testInput(ds)); len(signals) != 0 {
		t.Errorf("expected no signals below the combined-paid threshold, got %+v", signals)
	}
}

func TestDetectSharedOfficialsRosterCap(t *testing.T) {
	ds := newDataset(t, "2023-01", 1)
	addNetwork(t, ds, "MARIA|GARCIA", 30, 100_000)

	signals := DetectSharedOfficials(testInput(ds))
	if len(signals) != 30 {
		t.Fatalf("expected 30 signals, got %d", len(signals))
	}
	roster := signals[0].Evidence["controlled_npis"].([]controlledNPI)
	if len(roster) != maxControlledListed {
		t.Errorf("roster length = %d, want %d", len(roster), maxControlledListed)
	}
	if got := signals[0].Evidence["controlled_npi_count"]; got != 30 {
		t.Errorf("controlled_npi_count = %v, want the full 30", got)
	}
}
