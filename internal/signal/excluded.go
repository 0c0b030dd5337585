package signal

// DetectExcludedProviders flags providers on the exclusion list with
// billing activity dated on or after their exclusion date. At month
// granularity a month counts as post-exclusion when its end falls on or
// after the exclusion date, so an exclusion strictly after all billing
// never flags and billing in a later month always does.
func DetectExcludedProviders(in Input) []Signal {
	ds := in.Dataset
	var signals []Signal

	for _, p := range ds.Providers {
		if p.Excluded == nil {
			continue
		}

		var postPaid USD
		var postClaims int64
		firstActive, lastActive := "", ""
		for i, ms := range p.Monthly {
			if ms.Paid == 0 && ms.Claims == 0 {
				continue
			}
			m := ds.MonthAt(i)
			if !m.EndsOnOrAfter(p.Excluded.Date) {
				continue
			}
			postPaid += USD(ms.Paid)
			postClaims += ms.Claims
			if firstActive == "" {
				firstActive = m.String()
			}
			lastActive = m.String()
		}
		if postPaid <= 0 && postClaims == 0 {
			continue
		}

		signals = append(signals, Signal{
			NPI:      p.NPI,
			Type:     TypeExcludedProvider,
			Severity: SeverityCritical,
			Evidence: Evidence{
				"exclusion_date":        p.Excluded.Date.Format("2006-01-02"),
				"exclusion_type":        p.Excluded.Type,
				"match_confidence":      p.Excluded.MatchConfidence,
				"post_exclusion_paid":   postPaid,
				"post_exclusion_claims": postClaims,
				"first_claim_after":     firstActive,
				"last_claim_after":      lastActive,
			},
			Overpayment: postPaid,
		})
	}

	return sortByNPI(signals)
}
