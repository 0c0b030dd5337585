package signal

// DetectGeographicImplausibility flags home-health providers whose
// beneficiary-to-claim ratio is implausibly low: very few distinct patients
// behind a large claim volume suggests visits that could not have happened
// as billed. Restricted to the configured home-health taxonomy codes and a
// minimum claim volume, so tiny providers cannot flag on noise. Evidentiary
// only: overpayment is zero.
func DetectGeographicImplausibility(in Input) []Signal {
	cfg := in.Config

	homeHealth := make(map[string]struct{}, len(cfg.HomeHealthTaxonomies))
	for _, code := range cfg.HomeHealthTaxonomies {
		homeHealth[code] = struct{}{}
	}

	var signals []Signal
	for _, p := range in.Dataset.Providers {
		if _, ok := homeHealth[p.TaxonomyCode]; !ok {
			continue
		}
		if p.TotalClaims < cfg.GeoMinClaims {
			continue
		}

		ratio := float64(p.TotalBeneficiaries) / float64(p.TotalClaims)
		if ratio >= cfg.GeoBeneficiaryClaimRatio {
			continue
		}

		signals = append(signals, Signal{
			NPI:      p.NPI,
			Type:     TypeGeoImplausibility,
			Severity: SeverityMedium,
			Evidence: Evidence{
				"beneficiary_claim_ratio": ratio,
				"total_beneficiaries":     p.TotalBeneficiaries,
				"total_claims":            p.TotalClaims,
				"taxonomy_code":           p.TaxonomyCode,
			},
			Overpayment: 0,
		})
	}

	return sortByNPI(signals)
}
