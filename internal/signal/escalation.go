package signal

// DetectRapidEscalation flags recently enumerated providers whose billing
// grows explosively: for each 3-month rolling window, percentage growth of
// its paid sum versus the immediately preceding 3-month window. Windows
// with no prior activity are skipped rather than treated as infinite
// growth, so a provider's very first billing months cannot flag on their
// own and a flat series never flags.
func DetectRapidEscalation(in Input) []Signal {
	ds := in.Dataset
	cfg := in.Config
	cutoff := in.ReferenceDate.AddDate(0, -cfg.EscalationLookbackMonths, 0)

	var signals []Signal
	for _, p := range ds.Providers {
		if p.EnumerationDate.IsZero() || p.EnumerationDate.Before(cutoff) {
			continue
		}
		if len(p.Monthly) < 6 {
			continue
		}

		peakGrowth := 0.0
		flagged := false
		peakWindowEnd := ""
		escalated := make([]bool, len(p.Monthly)) // months inside exceeding windows

		// Window ending at index i covers [i-2, i]; the prior window
		// covers [i-5, i-3].
		for i := 5; i < len(p.Monthly); i++ {
			cur := p.Monthly[i].Paid + p.Monthly[i-1].Paid + p.Monthly[i-2].Paid
			prev := p.Monthly[i-3].Paid + p.Monthly[i-4].Paid + p.Monthly[i-5].Paid
			if prev <= 0 {
				continue
			}
			growth := (cur - prev) / prev * 100
			if growth > peakGrowth {
				peakGrowth = growth
				peakWindowEnd = ds.MonthAt(i).String()
			}
			if growth > cfg.EscalationGrowthPct {
				flagged = true
				escalated[i], escalated[i-1], escalated[i-2] = true, true, true
			}
		}
		if !flagged {
			continue
		}

		var escalationPaid USD
		var escalationClaims int64
		for i, hit := range escalated {
			if hit {
				escalationPaid += USD(p.Monthly[i].Paid)
				escalationClaims += p.Monthly[i].Claims
			}
		}

		severity := SeverityMedium
		if peakGrowth > cfg.EscalationHighGrowthPct {
			severity = SeverityHigh
		}

		signals = append(signals, Signal{
			NPI:      p.NPI,
			Type:     TypeRapidEscalation,
			Severity: severity,
			Evidence: Evidence{
				"max_3m_rolling_growth_pct":    round2(peakGrowth),
				"peak_window_end":              peakWindowEnd,
				"total_paid_escalation_months": escalationPaid,
				"total_claims_escalation":      escalationClaims,
				"enumeration_date":             p.EnumerationDate.Format("2006-01-02"),
			},
			Overpayment: escalationPaid,
		})
	}

	return sortByNPI(signals)
}
