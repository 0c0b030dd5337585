// Package config holds the detection thresholds and capacity assumptions.
// Every constant a detector compares against lives here, so threshold
// policy is auditable and adjustable without touching detection logic.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the environment-variable override prefix, e.g.
// FRAUD_MIN_PEER_GROUP_SIZE=25.
const envPrefix = "FRAUD_"

// Config carries all tunable detection parameters.
type Config struct {
	// Billing volume outlier.
	MinPeerGroupSize      int     `koanf:"min_peer_group_size"`
	OutlierMedianMultiple float64 `koanf:"outlier_median_multiple"`

	// Rapid billing escalation.
	EscalationLookbackMonths int     `koanf:"escalation_lookback_months"`
	EscalationGrowthPct      float64 `koanf:"escalation_growth_pct"`
	EscalationHighGrowthPct  float64 `koanf:"escalation_high_growth_pct"`

	// Workforce impossibility capacity model.
	HoursPerDay          float64 `koanf:"hours_per_day"`
	WorkingDaysPerMonth  float64 `koanf:"working_days_per_month"`
	ClaimsPerHourCeiling float64 `koanf:"claims_per_hour_ceiling"`
	ProvidersPerOrg      float64 `koanf:"providers_per_org"`

	// Shared authorized official.
	OfficialMinNPIs          int     `koanf:"official_min_npis"`
	OfficialMinCombinedPaid  float64 `koanf:"official_min_combined_paid"`
	OfficialHighCombinedPaid float64 `koanf:"official_high_combined_paid"`

	// Geographic implausibility.
	GeoBeneficiaryClaimRatio float64  `koanf:"geo_beneficiary_claim_ratio"`
	GeoMinClaims             int64    `koanf:"geo_min_claims"`
	HomeHealthTaxonomies     []string `koanf:"home_health_taxonomies"`

	// ReferenceDate anchors the escalation lookback, "YYYY-MM-DD". Empty
	// means the first day after the last observed spending month.
	ReferenceDate string `koanf:"reference_date"`
}

// Defaults returns the reference threshold set.
func Defaults() Config {
	return Config{
		MinPeerGroupSize:      10,
		OutlierMedianMultiple: 5,

		EscalationLookbackMonths: 24,
		EscalationGrowthPct:      200,
		EscalationHighGrowthPct:  500,

		HoursPerDay:          8,
		WorkingDaysPerMonth:  22,
		ClaimsPerHourCeiling: 6,
		ProvidersPerOrg:      1,

		OfficialMinNPIs:          5,
		OfficialMinCombinedPaid:  1_000_000,
		OfficialHighCombinedPaid: 5_000_000,

		GeoBeneficiaryClaimRatio: 0.1,
		GeoMinClaims:             100,
		HomeHealthTaxonomies: []string{
			"251E00000X", // home health agency
			"251F00000X",
			"251J00000X",
			"253Z00000X",
			"374U00000X",
			"3747P1801X",
		},
	}
}

// Load builds the configuration: defaults, then the optional YAML file at
// path, then FRAUD_-prefixed environment variables, each layer overriding
// the previous.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	defaults := Defaults()
	if err := k.Load(confmap.Provider(defaultsMap(defaults), "."), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultsMap(c Config) map[string]interface{} {
	return map[string]interface{}{
		"min_peer_group_size":         c.MinPeerGroupSize,
		"outlier_median_multiple":     c.OutlierMedianMultiple,
		"escalation_lookback_months":  c.EscalationLookbackMonths,
		"escalation_growth_pct":       c.EscalationGrowthPct,
		"escalation_high_growth_pct":  c.EscalationHighGrowthPct,
		"hours_per_day":               c.HoursPerDay,
		"working_days_per_month":      c.WorkingDaysPerMonth,
		"claims_per_hour_ceiling":     c.ClaimsPerHourCeiling,
		"providers_per_org":           c.ProvidersPerOrg,
		"official_min_npis":           c.OfficialMinNPIs,
		"official_min_combined_paid":  c.OfficialMinCombinedPaid,
		"official_high_combined_paid": c.OfficialHighCombinedPaid,
		"geo_beneficiary_claim_ratio": c.GeoBeneficiaryClaimRatio,
		"geo_min_claims":              c.GeoMinClaims,
		"home_health_taxonomies":      c.HomeHealthTaxonomies,
		"reference_date":              c.ReferenceDate,
	}
}

// Validate rejects configurations that would make a detector degenerate.
func (c Config) Validate() error {
	if c.MinPeerGroupSize < 2 {
		return fmt.Errorf("min_peer_group_size must be at least 2, got %d", c.MinPeerGroupSize)
	}
	if c.EscalationLookbackMonths <= 0 {
		return fmt.Errorf("escalation_lookback_months must be positive, got %d", c.EscalationLookbackMonths)
	}
	if c.HoursPerDay <= 0 || c.WorkingDaysPerMonth <= 0 || c.ClaimsPerHourCeiling <= 0 || c.ProvidersPerOrg <= 0 {
		return fmt.Errorf("workforce capacity parameters must all be positive")
	}
	if c.OfficialMinNPIs < 2 {
		return fmt.Errorf("official_min_npis must be at least 2, got %d", c.OfficialMinNPIs)
	}
	if c.GeoBeneficiaryClaimRatio <= 0 || c.GeoBeneficiaryClaimRatio >= 1 {
		return fmt.Errorf("geo_beneficiary_claim_ratio must be in (0, 1), got %g", c.GeoBeneficiaryClaimRatio)
	}
	if c.ReferenceDate != "" {
		if _, err := time.Parse("2006-01-02", c.ReferenceDate); err != nil {
			return fmt.Errorf("invalid reference_date %q: %w", c.ReferenceDate, err)
		}
	}
	return nil
}

// ParsedReferenceDate returns the configured reference date, or ok=false
// when unset.
func (c Config) ParsedReferenceDate() (time.Time, bool) {
	if c.ReferenceDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", c.ReferenceDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
