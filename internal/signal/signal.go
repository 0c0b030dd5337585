// Package signal implements the six fraud signal detectors. Each detector
// is a pure function over the immutable joined dataset (plus peer
// statistics where needed): no detector mutates shared state, and their
// relative execution order is irrelevant to correctness.
package signal

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/config"
	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/join"
	"github.com/Fulcria-Labs/medicaid-fraud-detector/internal/stats"
)

// Signal type identifiers.
const (
	TypeExcludedProvider  = "excluded_provider"
	TypeBillingOutlier    = "billing_outlier"
	TypeRapidEscalation   = "rapid_escalation"
	TypeWorkforce         = "workforce_impossibility"
	TypeSharedOfficial    = "shared_official"
	TypeGeoImplausibility = "geographic_implausibility"
)

// Severity tiers, ordered critical > high > medium.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// Rank orders severities for highest-severity selection.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// USD is a monetary amount that marshals with exactly two decimal places.
type USD float64

// MarshalJSON renders the amount as a plain number with two decimals.
func (u USD) MarshalJSON() ([]byte, error) {
	v := math.Round(float64(u)*100) / 100
	return []byte(strconv.FormatFloat(v, 'f', 2, 64)), nil
}

// Evidence carries the specific numeric inputs that drove a flag, so each
// signal is independently auditable.
type Evidence map[string]any

// Signal is one detector finding for one provider.
type Signal struct {
	NPI         string
	Type        string
	Severity    Severity
	Evidence    Evidence
	Overpayment USD
}

// Input is the read-only view every detector consumes.
type Input struct {
	Dataset       *join.Dataset
	Peers         *stats.PeerIndex
	Config        config.Config
	ReferenceDate time.Time
}

// Detector is one of the six evaluators. Run must be pure with respect to
// the input and must return signals sorted by NPI so output is
// deterministic regardless of map iteration order.
type Detector struct {
	Name          string
	NeedsRegistry bool
	Run           func(Input) []Signal
}

// All returns the detectors in their fixed reporting order.
func All() []Detector {
	return []Detector{
		{Name: TypeExcludedProvider, Run: DetectExcludedProviders},
		{Name: TypeBillingOutlier, NeedsRegistry: true, Run: DetectBillingOutliers},
		{Name: TypeRapidEscalation, NeedsRegistry: true, Run: DetectRapidEscalation},
		{Name: TypeWorkforce, NeedsRegistry: true, Run: DetectWorkforceImpossibility},
		{Name: TypeSharedOfficial, NeedsRegistry: true, Run: DetectSharedOfficials},
		{Name: TypeGeoImplausibility, NeedsRegistry: true, Run: DetectGeographicImplausibility},
	}
}

// sortByNPI orders signals for deterministic output.
func sortByNPI(signals []Signal) []Signal {
	sort.Slice(signals, func(i, j int) bool { return signals[i].NPI < signals[j].NPI })
	return signals
}

// round2 rounds evidence ratios to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
