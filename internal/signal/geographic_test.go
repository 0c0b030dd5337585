package signal

import (
	"testing"

	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/join"
)

func TestDetectGeographicImplausibility(t *testing.T) {
	ds := newDataset(t, "2023-01", 1)
	addProvider(t, ds, &join.Provider{
		NPI: "1111111111", TaxonomyCode: "251E00000X",
		TotalClaims: 1000, TotalBeneficiaries: 50, TotalPaid: 100_000,
		Monthly: paidSeries(100_000),
	})
	// Same ratio but not home health.
	addProvider(t, ds, &join.Provider{
		NPI: "2222222222", TaxonomyCode: "207Q00000X",
		TotalClaims: 1000, TotalBeneficiaries: 50, TotalPaid: 100_000,
		Monthly: paidSeries(100_000),
	})

	signals := DetectGeographicImplausibility(testInput(ds))
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals))
	}

	s := signals[0]
	if s.NPI != "1111111111" || s.Severity != SeverityMedium || s.Overpayment != 0 {
		t.Errorf("unexpected signal: %+v", s)
	}
	if got := s.Evidence["beneficiary_claim_ratio"]; got != 0.05 {
		t.Errorf("ratio = %v, want 0.05", got)
	}
}

func TestDetectGeographicImplausibilityGuards(t *testing.T) {
	ds := newDataset(t, "2023-01", 1)
	// Below the minimum claim volume: too small to judge.
	addProvider(t, ds, &join.Provider{
		NPI: "1111111111", TaxonomyCode: "251E00000X",
		TotalClaims: 50, TotalBeneficiaries: 2, TotalPaid: 5000,
		Monthly: paidSeries(5000),
	})
	// Healthy ratio.
	addProvider(t, ds, &join.Provider{
		NPI: "2222222222", TaxonomyCode: "251E00000X",
		TotalClaims: 1000, TotalBeneficiaries: 400, TotalPaid: 100_000,
		Monthly: paidSeries(100_000),
	})

	if signals := DetectGeographicImplausibility(testInput(ds)); len(signals) != 0 {
		t.Errorf("expected no signals, got %+v", signals)
	}
}
