package signal

// DetectBillingOutliers flags providers whose lifetime total paid exceeds
// the 99th percentile of their (taxonomy, state) peer group. Groups below
// the minimum sample size never produce flags.
func DetectBillingOutliers(in Input) []Signal {
	var signals []Signal

	for _, p := range in.Dataset.Providers {
		peer, ok := in.Peers.Lookup(p)
		if !ok {
			continue
		}
		if p.TotalPaid <= peer.P99Paid {
			continue
		}

		median := peer.MedianPaid
		if median < 1 {
			median = 1
		}
		ratio := p.TotalPaid / median

		severity := SeverityMedium
		if ratio > in.Config.OutlierMedianMultiple {
			severity = SeverityHigh
		}

		overpayment := p.TotalPaid - peer.P99Paid
		if overpayment < 0 {
			overpayment = 0
		}

		signals = append(signals, Signal{
			NPI:      p.NPI,
			Type:     TypeBillingOutlier,
			Severity: severity,
			Evidence: Evidence{
				"total_paid":      USD(p.TotalPaid),
				"peer_p99":        USD(peer.P99Paid),
				"peer_median":     USD(peer.MedianPaid),
				"peer_count":      peer.Count,
				"ratio_to_median": round2(ratio),
			},
			Overpayment: USD(overpayment),
		})
	}

	return sortByNPI(signals)
}
