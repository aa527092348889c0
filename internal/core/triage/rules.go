package triage

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

const DefaultFastTrackThreshold = 25000

// Defaults is the single substitution table applied by the assembler.
type Defaults struct {
	PolicyNumber        string           `yaml:"policy_number"`
	PolicyholderName    string           `yaml:"policyholder_name"`
	IncidentDescription string           `yaml:"incident_description"`
	AssetType           domain.AssetType `yaml:"asset_type"`
	ClaimType           domain.ClaimType `yaml:"claim_type"`
	EstimatedDamage     float64          `yaml:"estimated_damage"`
}

// Rules holds the tunable parts of the routing table.
type Rules struct {
	FastTrackThreshold float64  `yaml:"fast_track_threshold"`
	FraudKeywords      []string `yaml:"fraud_keywords"`
	Defaults           Defaults `yaml:"defaults"`
}

func DefaultFraudKeywords() []string {
	return []string{"fraud", "suspicious", "staged"}
}

func DefaultDefaults() Defaults {
	return Defaults{
		PolicyNumber:        "N/A",
		PolicyholderName:    "Unknown",
		IncidentDescription: "No description",
		AssetType:           domain.AssetVehicle,
		ClaimType:           domain.ClaimPropertyDamage,
		EstimatedDamage:     0,
	}
}

func DefaultRules() Rules {
	return Rules{
		FastTrackThreshold: DefaultFastTrackThreshold,
		FraudKeywords:      DefaultFraudKeywords(),
		Defaults:           DefaultDefaults(),
	}
}

func (r Rules) Validate() error {
	var errs []error
	if math.IsNaN(r.FastTrackThreshold) || math.IsInf(r.FastTrackThreshold, 0) || r.FastTrackThreshold <= 0 {
		errs = append(errs, fmt.Errorf("fast track threshold must be a positive number, got %v", r.FastTrackThreshold))
	}
	if len(normalizeKeywords(r.FraudKeywords)) == 0 {
		errs = append(errs, errors.New("at least one fraud keyword is required"))
	}
	if !r.Defaults.AssetType.Valid() {
		errs = append(errs, fmt.Errorf("default asset type %q is not supported", r.Defaults.AssetType))
	}
	if !r.Defaults.ClaimType.Valid() {
		errs = append(errs, fmt.Errorf("default claim type %q is not supported", r.Defaults.ClaimType))
	}
	if !validAmount(r.Defaults.EstimatedDamage) {
		errs = append(errs, fmt.Errorf("default estimated damage must be finite and non-negative, got %v", r.Defaults.EstimatedDamage))
	}
	return errors.Join(errs...)
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
