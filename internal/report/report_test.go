package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/join"
	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/signal"
)

func reportDataset() *join.Dataset {
	enum, _ := time.Parse("2006-01-02", "2020-01-15")
	return &join.Dataset{Providers: map[string]*join.Provider{
		"1111111111": {
			NPI: "1111111111", Name: "JOHN SMITH", EntityTypeCode: "1",
			TaxonomyCode: "207Q00000X", State: "TX", EnumerationDate: enum,
			TotalPaid: 1000, TotalClaims: 10, TotalBeneficiaries: 4,
		},
		"2222222222": {
			NPI: "2222222222", Name: "ACME HOME CARE LLC", EntityTypeCode: "2",
			TotalPaid: 200_000, TotalClaims: 500, TotalBeneficiaries: 300,
		},
		"3333333333": {NPI: "3333333333", TotalPaid: 50},
	}}
}

func TestBuildGroupsSignalsByProvider(t *testing.T) {
	ds := reportDataset()
	signals := []signal.Signal{
		{NPI: "2222222222", Type: signal.TypeBillingOutlier, Severity: signal.SeverityHigh,
			Evidence: signal.Evidence{"total_paid": signal.USD(200_000)}, Overpayment: 150_000},
		{NPI: "1111111111", Type: signal.TypeExcludedProvider, Severity: signal.SeverityCritical,
			Evidence: signal.Evidence{}, Overpayment: 1000},
		{NPI: "1111111111", Type: signal.TypeGeoImplausibility, Severity: signal.SeverityMedium,
			Evidence: signal.Evidence{}, Overpayment: 0},
	}
	counts := map[string]int{
		signal.TypeExcludedProvider:  1,
		signal.TypeBillingOutlier:    1,
		signal.TypeGeoImplausibility: 1,
	}

	r := Build(ds, signals, counts, 6)

	if r.ProvidersScanned != 3 || r.ProvidersFlagged != 2 {
		t.Errorf("scanned/flagged = %d/%d, want 3/2", r.ProvidersScanned, r.ProvidersFlagged)
	}
	if r.DetectorsCompleted != 6 || r.ToolVersion != ToolVersion {
		t.Errorf("header fields wrong: %+v", r)
	}
	if len(r.FlaggedProviders) != 2 {
		t.Fatalf("expected 2 flagged providers, got %d", len(r.FlaggedProviders))
	}

	// Ordered by overpayment descending.
	first := r.FlaggedProviders[0]
	if first.NPI != "2222222222" || first.Overpayment != 150_000 {
		t.Errorf("unexpected first provider: %+v", first)
	}
	if first.EntityType != "organization" || first.EnumerationDate != nil {
		t.Errorf("attributes wrong: %+v", first)
	}

	second := r.FlaggedProviders[1]
	if second.NPI != "1111111111" || len(second.Signals) != 2 {
		t.Fatalf("unexpected second provider: %+v", second)
	}
	// Signals keep discovery order.
	if second.Signals[0].SignalType != signal.TypeExcludedProvider {
		t.Errorf("signal order broken: %+v", second.Signals)
	}
	if second.Overpayment != 1000 {
		t.Errorf("overpayment sum = %v, want 1000", second.Overpayment)
	}
	// FCA block follows the highest-severity signal.
	if second.FCARelevance.ClaimType != "False claim by excluded entity" {
		t.Errorf("fca relevance = %+v", second.FCARelevance)
	}
	if second.EnumerationDate == nil || *second.EnumerationDate != "2020-01-15" {
		t.Errorf("enumeration date = %v", second.EnumerationDate)
	}
}

func TestBuildTieBreaksByNPI(t *testing.T) {
	ds := reportDataset()
	signals := []signal.Signal{
		{NPI: "2222222222", Type: signal.TypeSharedOfficial, Severity: signal.SeverityMedium},
		{NPI: "1111111111", Type: signal.TypeSharedOfficial, Severity: signal.SeverityMedium},
	}

	r := Build(ds, signals, map[string]int{signal.TypeSharedOfficial: 2}, 6)
	if r.FlaggedProviders[0].NPI != "1111111111" || r.FlaggedProviders[1].NPI != "2222222222" {
		t.Errorf("equal overpayments must order by NPI: %s, %s",
			r.FlaggedProviders[0].NPI, r.FlaggedProviders[1].NPI)
	}
}

func TestBuildEmptySignals(t *testing.T) {
	r := Build(reportDataset(), nil, map[string]int{}, 6)
	if r.ProvidersFlagged != 0 || len(r.FlaggedProviders) != 0 {
		t.Errorf("expected empty flagged list, got %+v", r.FlaggedProviders)
	}
}

func TestWriteReportFile(t *testing.T) {
	ds := reportDataset()
	signals := []signal.Signal{
		{NPI: "1111111111", Type: signal.TypeExcludedProvider, Severity: signal.SeverityCritical,
			Evidence: signal.Evidence{"post_exclusion_paid": signal.USD(1000)}, Overpayment: 1000.5},
	}
	r := Build(ds, signals, map[string]int{signal.TypeExcludedProvider: 1}, 6)

	path := filepath.Join(t.TempDir(), "out", "fraud_signals.json")
	if err := os.Mkdir(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Write(path, r); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if parsed["tool_version"] != ToolVersion {
		t.Errorf("tool_version = %v", parsed["tool_version"])
	}
	if _, err := time.Parse(time.RFC3339, parsed["generated_at"].(string)); err != nil {
		t.Errorf("generated_at not RFC3339: %v", parsed["generated_at"])
	}

	// Monetary fields render with exactly two decimals.
	if !strings.Contains(string(data), `"estimated_overpayment_usd": 1000.50`) {
		t.Errorf("overpayment not rendered with two decimals:\n%s", data)
	}

	// No temp file left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("leftover files in output dir: %v", entries)
	}
}

func TestWriteStdout(t *testing.T) {
	// "-" must not create a file named "-".
	r := Build(reportDataset(), nil, map[string]int{}, 6)
	old := os.Stdout
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = devnull
	defer func() {
		os.Stdout = old
		devnull.Close()
	}()

	if err := Write("-", r); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat("-"); !os.IsNotExist(err) {
		t.Error("stdout write created a file named -")
	}
}

func TestRelevanceCoversAllSignalTypes(t *testing.T) {
	types := []string{
		signal.TypeExcludedProvider,
		signal.TypeBillingOutlier,
		signal.TypeRapidEscalation,
		signal.TypeWorkforce,
		signal.TypeSharedOfficial,
		signal.TypeGeoImplausibility,
	}
	for _, st := range types {
		rel := Relevance(st)
		if rel.ClaimType == "" || rel.StatuteReference == "" || len(rel.SuggestedNextSteps) == 0 {
			t.Errorf("incomplete FCA relevance for %s: %+v", st, rel)
		}
		if !strings.HasPrefix(rel.StatuteReference, "31 U.S.C.") {
			t.Errorf("statute reference for %s = %q", st, rel.StatuteReference)
		}
	}
}
