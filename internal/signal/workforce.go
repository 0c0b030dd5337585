package signal

// DetectWorkforceImpossibility flags organizations whose peak-month claim
// volume implies a claims-per-provider-hour rate beyond the configured
// capacity model (hours/day × working days/month × claims/hour ceiling ×
// assumed providers per organization). Providers with no claims in any
// month lack the denominator and are excluded.
func DetectWorkforceImpossibility(in Input) []Signal {
	cfg := in.Config
	hoursPerMonth := cfg.HoursPerDay * cfg.WorkingDaysPerMonth * cfg.ProvidersPerOrg
	ceilingClaims := hoursPerMonth * cfg.ClaimsPerHourCeiling

	var signals []Signal
	for _, p := range in.Dataset.Providers {
		if !p.IsOrganization() {
			continue
		}

		peakIdx := -1
		var peakClaims int64
		for i, ms := range p.Monthly {
			if ms.Claims > peakClaims {
				peakClaims = ms.Claims
				peakIdx = i
			}
		}
		if peakIdx < 0 || float64(peakClaims) <= ceilingClaims {
			continue
		}

		peak := p.Monthly[peakIdx]
		claimsPerHour := float64(peakClaims) / hoursPerMonth
		avgCostPerClaim := peak.Paid / float64(peakClaims)
		overpayment := (float64(peakClaims) - ceilingClaims) * avgCostPerClaim
		if overpayment < 0 {
			overpayment = 0
		}

		signals = append(signals, Signal{
			NPI:      p.NPI,
			Type:     TypeWorkforce,
			Severity: SeverityHigh,
			Evidence: Evidence{
				"peak_month":          in.Dataset.MonthAt(peakIdx).String(),
				"peak_monthly_claims": peakClaims,
				"claims_per_hour":     round2(claimsPerHour),
				"claims_ceiling":      round2(ceilingClaims),
				"peak_monthly_paid":   USD(peak.Paid),
				"assumed_providers":   cfg.ProvidersPerOrg,
				"avg_paid_per_claim":  USD(avgCostPerClaim),
			},
			Overpayment: USD(overpayment),
		})
	}

	return sortByNPI(signals)
}
