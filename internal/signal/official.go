package signal

import "sort"

// controlledNPI is one provider under a shared authorized official.
type controlledNPI struct {
	NPI  string `json:"npi"`
	Name string `json:"name"`
	Paid USD    `json:"paid"`
}

// maxControlledListed caps the per-signal evidence roster for officials
// controlling very large networks.
const maxControlledListed = 20

// DetectSharedOfficials groups billing providers by their registry
// authorized official and flags every NPI under an official who controls at
// least the configured number of NPIs with combined billing over the
// threshold. The official relation is built transiently here and discarded
// with the detector's working set. Evidentiary only: overpayment is zero.
func DetectSharedOfficials(in Input) []Signal {
	cfg := in.Config

	byOfficial := make(map[string][]string) // official key → NPIs
	for _, p := range in.Dataset.Providers {
		if p.OfficialKey == "" {
			continue
		}
		byOfficial[p.OfficialKey] = append(byOfficial[p.OfficialKey], p.NPI)
	}

	var signals []Signal
	for key, npis := range byOfficial {
		if len(npis) < cfg.OfficialMinNPIs {
			continue
		}
		sort.Strings(npis)

		var combinedPaid USD
		roster := make([]controlledNPI, 0, len(npis))
		officialName := ""
		for _, npi := range npis {
			p := in.Dataset.Providers[npi]
			combinedPaid += USD(p.TotalPaid)
			roster = append(roster, controlledNPI{NPI: p.NPI, Name: p.Name, Paid: USD(p.TotalPaid)})
			if officialName == "" {
				officialName = p.OfficialName
			}
		}
		if float64(combinedPaid) <= cfg.OfficialMinCombinedPaid {
			continue
		}

		severity := SeverityMedium
		if float64(combinedPaid) > cfg.OfficialHighCombinedPaid {
			severity = SeverityHigh
		}

		listed := roster
		if len(listed) > maxControlledListed {
			listed = listed[:maxControlledListed]
		}

		evidence := Evidence{
			"authorized_official":  officialName,
			"official_key":         key,
			"controlled_npi_count": len(npis),
			"combined_paid":        combinedPaid,
			"controlled_npis":      listed,
		}

		for _, npi := range npis {
			signals = append(signals, Signal{
				NPI:         npi,
				Type:        TypeSharedOfficial,
				Severity:    severity,
				Evidence:    evidence,
				Overpayment: 0,
			})
		}
	}

	return sortByNPI(signals)
}
