// Package report assembles detector findings into the final JSON document
// and writes it atomically.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/join"
	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/signal"
)

// ToolVersion is stamped into every report.
const ToolVersion = "1.0.0"

// SignalEntry is one signal as serialized under a flagged provider, in
// discovery order.
type SignalEntry struct {
	SignalType string          `json:"signal_type"`
	Severity   signal.Severity `json:"severity"`
	Evidence   signal.Evidence `json:"evidence"`
}

// FlaggedProvider is a provider carrying at least one signal.
type FlaggedProvider struct {
	NPI               string        `json:"npi"`
	ProviderName      string        `json:"provider_name"`
	EntityType        string        `json:"entity_type"`
	TaxonomyCode      string        `json:"taxonomy_code"`
	State             string        `json:"state"`
	EnumerationDate   *string       `json:"enumeration_date"`
	TotalPaid         signal.USD    `json:"total_paid_all_time"`
	TotalClaims       int64         `json:"total_claims_all_time"`
	TotalBene         int64         `json:"total_unique_beneficiaries_all_time"`
	Signals           []SignalEntry `json:"signals"`
	Overpayment       signal.USD    `json:"estimated_overpayment_usd"`
	FCARelevance      FCARelevance  `json:"fca_relevance"`
	highestSeenSignal string
	highestSeverity   int
}

// Report is the top-level output document.
type Report struct {
	GeneratedAt        string            `json:"generated_at"`
	ToolVersion        string            `json:"tool_version"`
	ProvidersScanned   int               `json:"total_providers_scanned"`
	ProvidersFlagged   int               `json:"total_providers_flagged"`
	DetectorsCompleted int               `json:"detectors_completed"`
	SignalCounts       map[string]int    `json:"signal_counts"`
	FlaggedProviders   []FlaggedProvider `json:"flagged_providers"`
}

// Build groups all signals by provider, sums each provider's estimated
// overpayment, and attaches the FCA relevance of its highest-severity
// signal. Signals keep their discovery order; flagged providers are ordered
// by overpayment descending, NPI ascending, so identical input produces
// identical output.
func Build(ds *join.Dataset, signals []signal.Signal, signalCounts map[string]int, detectorsCompleted int) *Report {
	byNPI := make(map[string]*FlaggedProvider)
	var order []string

	for _, s := range signals {
		fp, ok := byNPI[s.NPI]
		if !ok {
			fp = newFlaggedProvider(ds, s.NPI)
			byNPI[s.NPI] = fp
			order = append(order, s.NPI)
		}

		fp.Signals = append(fp.Signals, SignalEntry{
			SignalType: s.Type,
			Severity:   s.Severity,
			Evidence:   s.Evidence,
		})
		fp.Overpayment += s.Overpayment

		if s.Severity.Rank() > fp.highestSeverity {
			fp.highestSeverity = s.Severity.Rank()
			fp.highestSeenSignal = s.Type
		}
	}

	flagged := make([]FlaggedProvider, 0, len(order))
	for _, npi := range order {
		fp := byNPI[npi]
		fp.FCARelevance = Relevance(fp.highestSeenSignal)
		flagged = append(flagged, *fp)
	}
	sort.Slice(flagged, func(i, j int) bool {
		if flagged[i].Overpayment != flagged[j].Overpayment {
			return flagged[i].Overpayment > flagged[j].Overpayment
		}
		return flagged[i].NPI < flagged[j].NPI
	})

	return &Report{
		GeneratedAt:        time.Now().Format(time.RFC3339),
		ToolVersion:        ToolVersion,
		ProvidersScanned:   len(ds.Providers),
		ProvidersFlagged:   len(flagged),
		DetectorsCompleted: detectorsCompleted,
		SignalCounts:       signalCounts,
		FlaggedProviders:   flagged,
	}
}

func newFlaggedProvider(ds *join.Dataset, npi string) *FlaggedProvider {
	fp := &FlaggedProvider{NPI: npi, EntityType: "unknown", Signals: []SignalEntry{}}
	p, ok := ds.Providers[npi]
	if !ok {
		return fp
	}

	fp.ProviderName = p.Name
	fp.EntityType = p.EntityType()
	fp.TaxonomyCode = p.TaxonomyCode
	fp.State = p.State
	fp.TotalPaid = signal.USD(p.TotalPaid)
	fp.TotalClaims = p.TotalClaims
	fp.TotalBene = p.TotalBeneficiaries
	if !p.EnumerationDate.IsZero() {
		d := p.EnumerationDate.Format("2006-01-02")
		fp.EnumerationDate = &d
	}
	return fp
}

// Write serializes the report. The file is written to a temp file in the
// destination directory and renamed into place, so a partial report is
// never observable at the target path. "-" writes to stdout.
func Write(outputPath string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	data = append(data, '\n')

	if outputPath == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}

	dir := filepath.Dir(outputPath)
	tmp, err := os.CreateTemp(dir, ".fraud-report-*.json")
	if err != nil {
		return fmt.Errorf("creating temp report in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing report to %s: %w", outputPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp report: %w", err)
	}
	if err := os.Rename(tmpName, outputPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing report to %s: %w", outputPath, err)
	}
	return nil
}
