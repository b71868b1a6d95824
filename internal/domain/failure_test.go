package domain

import (
	"testing"
	"time"
)

func TestClassifyFailureCinematicOnTikTok(t *testing.T) {
	traits := CreativeTraits{Platform: "tiktok", EditingStyle: "cinematic", AspectRatio: "16:9", DurationSeconds: 75}
	result := OutcomeResult{Impressions: 500, CTR: 0.02, SuccessScore: 30}

	got := ClassifyFailure("ad_1", traits, result)
	if got.Class != FailurePlatform {
		t.Fatalf("expected platform_mismatch, got %s (scores %v)", got.Class, got.ClassScores)
	}
	if got.Score < minClassificationScore {
		t.Fatalf("winner score below threshold: %d", got.Score)
	}
	if len(got.Evidence) == 0 {
		t.Fatalf("classified failure should carry evidence")
	}
	if len(got.LearnedNegativeWeights) == 0 {
		t.Fatalf("platform failure should implicate editing style and aspect ratio")
	}
	if _, ok := got.LearnedNegativeWeights["editing_style_cinematic"]; !ok {
		t.Fatalf("expected editing_style_cinematic penalty, got %v", got.LearnedNegativeWeights)
	}
}

func TestClassifyFailureHook(t *testing.T) {
	traits := CreativeTraits{Platform: "facebook", HookType: "question", HookDelaySeconds: 5}
	result := OutcomeResult{Impressions: 5000, CTR: 0.004, SuccessScore: 25}

	got := ClassifyFailure("ad_2", traits, result)
	if got.Class != FailureHook {
		t.Fatalf("expected hook_failure, got %s (scores %v)", got.Class, got.ClassScores)
	}
}

func TestClassifyFailureBelowThresholdIsUnknown(t *testing.T) {
	traits := CreativeTraits{Platform: "facebook", IsSeasonal: true}
	result := OutcomeResult{Impressions: 100, CTR: 0.02, SuccessScore: 45}

	got := ClassifyFailure("ad_3", traits, result)
	if got.Class != FailureUnknown {
		t.Fatalf("weak evidence should stay unknown, got %s", got.Class)
	}
	if got.LearnedNegativeWeights != nil {
		t.Fatalf("unknown failures must not emit penalties")
	}
}

func TestMatchAntiPatternsOverlapThreshold(t *testing.T) {
	patterns := []FailurePattern{
		{PatternID: "p1", Class: FailureHook, Features: []string{"hook_type_question", "platform_tiktok", "ugc"}},
		{PatternID: "p2", Class: FailureCTA, Features: []string{"cta_strength_weak", "discount"}},
	}
	// Shares 2 of 3 features with p1 (0.67, below 0.7) and 2 of 2 with p2.
	features := []string{"hook_type_question", "platform_tiktok", "cta_strength_weak", "discount"}

	matches := MatchAntiPatterns(features, patterns)
	if len(matches) != 1 {
		t.Fatalf("expected exactly one match, got %+v", matches)
	}
	if matches[0].PatternID != "p2" || matches[0].Overlap != 1 {
		t.Fatalf("unexpected match: %+v", matches[0])
	}
}

func TestAntiPatternRiskBuckets(t *testing.T) {
	if got := AntiPatternRisk(nil); got != "none" {
		t.Fatalf("no matches should be none, got %s", got)
	}
	one := []AntiPatternMatch{{PatternID: "p1"}}
	if got := AntiPatternRisk(one); got != "medium" {
		t.Fatalf("one match should be medium, got %s", got)
	}
	two := append(one, AntiPatternMatch{PatternID: "p2"})
	if got := AntiPatternRisk(two); got != "high" {
		t.Fatalf("two matches should be high, got %s", got)
	}
}

func TestValidateDiscoveredFeatureLifecycle(t *testing.T) {
	now := time.Now().UTC()
	corpus := []AdRecord{
		{AdID: "winner_1", Traits: CreativeTraits{HookType: "instant", SceneVelocity: "fast"}, Outcome: &OutcomeResult{SuccessScore: 80}},
		{AdID: "winner_2", Traits: CreativeTraits{HookType: "instant", SceneVelocity: "fast"}, Outcome: &OutcomeResult{SuccessScore: 75}},
		{AdID: "loser", Traits: CreativeTraits{HookType: "instant", SceneVelocity: "fast"}, Outcome: &OutcomeResult{SuccessScore: 20}},
		{AdID: "origin", Traits: CreativeTraits{HookType: "instant", SceneVelocity: "fast"}, Outcome: &OutcomeResult{SuccessScore: 90}},
		{AdID: "open", Traits: CreativeTraits{HookType: "instant", SceneVelocity: "fast"}},
	}

	feature := DiscoveredFeature{
		Name:               "instant_hook_fast_velocity",
		DiscoveredFrom:     "origin",
		Criteria:           []string{"hook_type_instant", "scene_velocity_fast"},
		SuccessCorrelation: 75,
	}
	ValidateDiscoveredFeature(&feature, corpus, now)
	if len(feature.ValidatedAgainst) != 2 {
		t.Fatalf("expected 2 validation matches, got %v", feature.ValidatedAgainst)
	}
	if !feature.IsValidated || !feature.IsActive {
		t.Fatalf("two matches at correlation 75 should validate and activate: %+v", feature)
	}

	weak := DiscoveredFeature{Name: "weak", DiscoveredFrom: "origin", Criteria: []string{"hook_type_instant"}, SuccessCorrelation: 50}
	ValidateDiscoveredFeature(&weak, corpus, now)
	if !weak.IsValidated || weak.IsActive {
		t.Fatalf("correlation 50 should validate but not activate: %+v", weak)
	}
}

func TestFallbackSuggestionsMatchPresentCombos(t *testing.T) {
	traits := CreativeTraits{HookType: "instant", SceneVelocity: "fast", HasDiscount: true}
	got := FallbackSuggestions(traits, DiscoverySurpriseSuccess)
	names := map[string]bool{}
	for _, s := range got {
		if !s.Valid() {
			t.Fatalf("fallback suggestion failed its own validation: %+v", s)
		}
		names[s.Name] = true
	}
	if !names["instant_hook_fast_velocity"] || !names["discount_no_price"] {
		t.Fatalf("expected both present combos, got %v", names)
	}
	if names["urgency_weak_cta"] {
		t.Fatalf("combo with absent criteria should not be suggested")
	}
}

func TestFeatureSuggestionValid(t *testing.T) {
	good := FeatureSuggestion{Name: "x", Criteria: []string{"ugc"}, Correlation: 70}
	if !good.Valid() {
		t.Fatalf("expected valid suggestion")
	}
	for _, bad := range []FeatureSuggestion{
		{Name: "", Criteria: []string{"ugc"}, Correlation: 70},
		{Name: "x", Criteria: nil, Correlation: 70},
		{Name: "x", Criteria: []string{"ugc"}, Correlation: 101},
	} {
		if bad.Valid() {
			t.Fatalf("expected invalid suggestion: %+v", bad)
		}
	}
}
