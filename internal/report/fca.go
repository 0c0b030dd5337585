package report

import "github.com/Fulcria-Labs/medicaid-fraud-detector/internal/signal"

// FCARelevance maps a signal to its False Claims Act context.
type FCARelevance struct {
	ClaimType          string   `json:"claim_type"`
	StatuteReference   string   `json:"statute_reference"`
	SuggestedNextSteps []string `json:"suggested_next_steps"`
}

// fcaBySignal keys statutory context by signal type. A flagged provider
// carries the relevance block of its highest-severity signal.
var fcaBySignal = map[string]FCARelevance{
	signal.TypeExcludedProvider: {
		ClaimType:        "False claim by excluded entity",
		StatuteReference: "31 U.S.C. section 3729(a)(1)(A)",
		SuggestedNextSteps: []string{
			"Verify exclusion status against current OIG LEIE database",
			"Calculate total federal payments made post-exclusion for damages estimate",
			"Refer to OIG for civil monetary penalties under 42 U.S.C. 1320a-7a",
		},
	},
	signal.TypeBillingOutlier: {
		ClaimType:        "Statistically anomalous billing volume",
		StatuteReference: "31 U.S.C. section 3729(a)(1)(A)",
		SuggestedNextSteps: []string{
			"Compare service volume against peer providers in same taxonomy and state",
			"Request itemized claim records for manual review of service documentation",
			"Evaluate whether billing patterns suggest upcoding or unbundling",
		},
	},
	signal.TypeRapidEscalation: {
		ClaimType:        "Rapid billing escalation by new provider",
		StatuteReference: "31 U.S.C. section 3729(a)(1)(A)",
		SuggestedNextSteps: []string{
			"Verify provider credentials and enrollment documentation",
			"Request medical records for claims during escalation period",
			"Compare service growth against patient panel expansion",
		},
	},
	signal.TypeWorkforce: {
		ClaimType:        "Physically impossible service volume",
		StatuteReference: "31 U.S.C. section 3729(a)(1)(B)",
		SuggestedNextSteps: []string{
			"Verify organizational staffing records against billed services",
			"Cross-reference servicing provider NPIs to confirm distinct providers",
			"Request time-of-service documentation for peak billing periods",
		},
	},
	signal.TypeSharedOfficial: {
		ClaimType:        "Shared control suggesting shell entity network",
		StatuteReference: "31 U.S.C. section 3729(a)(1)(C)",
		SuggestedNextSteps: []string{
			"Investigate corporate relationships between controlled entities",
			"Verify that each NPI represents a distinct operational practice",
			"Check for common billing addresses, phone numbers, or bank accounts",
		},
	},
	signal.TypeGeoImplausibility: {
		ClaimType:        "Geographic implausibility in home health services",
		StatuteReference: "31 U.S.C. section 3729(a)(1)(G)",
		SuggestedNextSteps: []string{
			"Verify patient addresses against provider service area",
			"Request visit logs and travel documentation for sampled claims",
			"Compare beneficiary-to-claim ratio against state home health averages",
		},
	},
}

// Relevance returns the FCA context for a signal type.
func Relevance(signalType string) FCARelevance {
	return fcaBySignal[signalType]
}
