package domain

import (
	"fmt"
	"strings"
	"time"
)

type DiscoveryReason string

const (
	DiscoverySurpriseSuccess DiscoveryReason = "surprise_success"
	DiscoverySurpriseFailure DiscoveryReason = "surprise_failure"
	DiscoveryPatternAnalysis DiscoveryReason = "pattern_analysis"
)

// FeatureSuggestion is the schema an oracle response must satisfy. Anything
// that fails validation is treated as oracle failure, never partially used.
type FeatureSuggestion struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Criteria    []string `json:"criteria"`
	Correlation int      `json:"correlation"`
}

func (s FeatureSuggestion) Valid() bool {
	return strings.TrimSpace(s.Name) != "" &&
		len(s.Criteria) > 0 &&
		s.Correlation >= 0 && s.Correlation <= 100
}

// DiscoveredFeature is a candidate signal working through validation.
// Lifecycle: created inactive, validated on enough independent evidence,
// active once correlation clears the bar, then eligible for the weight store.
type DiscoveredFeature struct {
	FeatureID          string    `json:"feature_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	DiscoveredFrom     string    `json:"discovered_from"`
	DiscoveryReason    string    `json:"discovery_reason"`
	Criteria           []string  `json:"criteria"`
	ValidatedAgainst   []string  `json:"validated_against"`
	SuccessCorrelation int       `json:"success_correlation"`
	IsValidated        bool      `json:"is_validated"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

const (
	validationMinMatches     = 2
	activationMinCorrelation = 70
	validationMinSuccess     = 70
)

// ValidateDiscoveredFeature scans high-performing ads for the feature's
// detection criteria and flips the lifecycle flags accordingly.
func ValidateDiscoveredFeature(feature *DiscoveredFeature, ads []AdRecord, now time.Time) {
	matched := []string{}
	for _, ad := range ads {
		if ad.Outcome == nil || ad.Outcome.SuccessScore < validationMinSuccess {
			continue
		}
		if ad.AdID == feature.DiscoveredFrom {
			continue
		}
		if matchesCriteria(ad.Traits, feature.Criteria) {
			matched = append(matched, ad.AdID)
		}
	}
	feature.ValidatedAgainst = matched
	feature.IsValidated = len(matched) >= validationMinMatches
	feature.IsActive = feature.IsValidated && feature.SuccessCorrelation >= activationMinCorrelation
	feature.UpdatedAt = now
}

// matchesCriteria requires every criterion feature to be present on the ad.
func matchesCriteria(traits CreativeTraits, criteria []string) bool {
	features := traits.FeatureNames()
	set := make(map[string]bool, len(features))
	for _, f := range features {
		set[f] = true
	}
	for _, c := range criteria {
		if !set[normalizeFeatureName(c)] {
			return false
		}
	}
	return len(criteria) > 0
}

type fallbackCombo struct {
	name        string
	description string
	criteria    []string
	correlation int
}

// fallbackCombos are trait pairings already known to behave unusually; they
// stand in when the oracle is unavailable.
var fallbackCombos = []fallbackCombo{
	{"instant_hook_fast_velocity", "instant hook paired with fast scene velocity", []string{"hook_type_instant", "scene_velocity_fast"}, 75},
	{"ugc_cinematic_clash", "UGC framing cut with cinematic editing", []string{"ugc", "editing_style_cinematic"}, 72},
	{"discount_no_price", "discount messaging with no visible price", []string{"discount"}, 70},
	{"urgency_weak_cta", "urgency messaging undercut by a weak CTA", []string{"urgency", "cta_strength_weak"}, 71},
	{"social_proof_before_after", "social proof stacked on a before/after", []string{"social_proof", "before_after"}, 74},
}

// FallbackSuggestions is the deterministic local replacement for the oracle:
// any known-unusual combination present on the ad becomes a suggestion.
func FallbackSuggestions(traits CreativeTraits, reason DiscoveryReason) []FeatureSuggestion {
	features := traits.FeatureNames()
	set := make(map[string]bool, len(features))
	for _, f := range features {
		set[f] = true
	}
	out := []FeatureSuggestion{}
	for _, combo := range fallbackCombos {
		all := true
		for _, c := range combo.criteria {
			if !set[c] {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		out = append(out, FeatureSuggestion{
			Name:        combo.name,
			Description: fmt.Sprintf("%s (local heuristic, %s)", combo.description, reason),
			Type:        "combination",
			Criteria:    combo.criteria,
			Correlation: combo.correlation,
		})
	}
	return out
}
