// Package stats computes peer-group distributional statistics used by the
// billing-outlier detector.
package stats

import (
	"sort"

	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/join"
)

// PeerKey identifies a peer group: providers sharing a taxonomy code and
// state.
type PeerKey struct {
	TaxonomyCode string
	State        string
}

// PeerStats holds a group's sample count and total-paid distribution
// statistics.
type PeerStats struct {
	Count      int
	MedianPaid float64
	P99Paid    float64
}

// PeerIndex maps peer groups to their statistics.
type PeerIndex struct {
	Groups      map[PeerKey]PeerStats
	MinimumSize int
}

// Build computes sample count, median, and 99th-percentile total-paid for
// every (taxonomy, state) pair observed in the dataset. Providers missing
// either attribute belong to no group. minSize is recorded so lookups can
// refuse groups too small for a meaningful percentile.
func Build(ds *join.Dataset, minSize int) *PeerIndex {
	byGroup := make(map[PeerKey][]float64)
	for _, p := range ds.Providers {
		if p.TaxonomyCode == "" || p.State == "" {
			continue
		}
		key := PeerKey{TaxonomyCode: p.TaxonomyCode, State: p.State}
		byGroup[key] = append(byGroup[key], p.TotalPaid)
	}

	idx := &PeerIndex{
		Groups:      make(map[PeerKey]PeerStats, len(byGroup)),
		MinimumSize: minSize,
	}
	for key, paids := range byGroup {
		sort.Float64s(paids)
		idx.Groups[key] = PeerStats{
			Count:      len(paids),
			MedianPaid: Percentile(paids, 0.5),
			P99Paid:    Percentile(paids, 0.99),
		}
	}
	return idx
}

// Lookup returns the statistics for a provider's peer group. ok is false
// when the provider has no group or the group is below the minimum sample
// size, excluding it from outlier evaluation.
func (idx *PeerIndex) Lookup(p *join.Provider) (PeerStats, bool) {
	if p.TaxonomyCode == "" || p.State == "" {
		return PeerStats{}, false
	}
	s, ok := idx.Groups[PeerKey{TaxonomyCode: p.TaxonomyCode, State: p.State}]
	if !ok || s.Count < idx.MinimumSize {
		return PeerStats{}, false
	}
	return s, true
}

// Percentile returns the p-th quantile (0 ≤ p ≤ 1) of sorted using linear
// interpolation between order statistics (the R-7 rule), so identical input
// always yields identical output.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(h)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
