package domain

import (
	"testing"
)

func TestAssessRiskColdStart(t *testing.T) {
	traits := CreativeTraits{Platform: "tiktok", HookType: "instant"}
	got := AssessRisk(traits, 55, NewWeightTable(), nil, 0)
	if got.Tier != TierUnprovenTerritory {
		t.Fatalf("no baseline history should be unproven territory, got %s", got.Tier)
	}
	if !got.UsingPriors {
		t.Fatalf("cold start should flag priors in use")
	}
	if got.Reliability >= got.Confidence && got.Confidence > 0 {
		t.Fatalf("priors should discount reliability: confidence %d reliability %d", got.Confidence, got.Reliability)
	}
	if len(got.UncertainFeatures) == 0 {
		t.Fatalf("unlearned traits should surface as uncertain")
	}
	if got.Summary == "" || len(got.RiskFactors) == 0 {
		t.Fatalf("assessment must carry an explanation")
	}
}

func TestAssessRiskAntiPatternsDominate(t *testing.T) {
	traits := CreativeTraits{Platform: "tiktok", HookType: "question", IsUGC: true}
	features := traits.FeatureNames()
	patterns := []FailurePattern{
		{PatternID: "p1", Class: FailureHook, Features: features},
		{PatternID: "p2", Class: FailurePlatform, Features: features},
	}

	table := NewWeightTable()
	for _, f := range features {
		table.Weights[f] = FeatureWeight{Feature: f, Weight: 0.5, ConfidenceLevel: 95, SampleSize: 50}
	}

	got := AssessRisk(traits, 70, table, patterns, 50)
	if got.AntiPatternRisk != "high" {
		t.Fatalf("two full-overlap patterns should be high risk, got %s", got.AntiPatternRisk)
	}
	if got.Tier != TierHighVariance {
		t.Fatalf("anti-pattern matches must outrank confidence, got %s", got.Tier)
	}
}

func TestAssessRiskProvenPattern(t *testing.T) {
	traits := CreativeTraits{Platform: "facebook", HookType: "instant", IsUGC: true, HasCTAButton: true, CTAStrength: "strong"}
	features := traits.FeatureNames()
	table := NewWeightTable()
	for _, f := range features {
		table.Weights[f] = FeatureWeight{Feature: f, Weight: 0.4, ConfidenceLevel: 90, SampleSize: 40}
	}

	got := AssessRisk(traits, 78, table, nil, 60)
	if got.Tier != TierProvenPattern {
		t.Fatalf("high confidence with no failure signals should be proven pattern, got %s (confidence %d, failures %d)",
			got.Tier, got.Confidence, len(got.PotentialFailures))
	}
}

func TestPotentialFailureHeuristics(t *testing.T) {
	traits := CreativeTraits{
		Platform:         "tiktok",
		EditingStyle:     "cinematic",
		HookDelaySeconds: 4,
		HasVoiceover:     true,
		AspectRatio:      "16:9",
	}
	got := potentialFailures(traits, 50)
	checks := map[string]bool{}
	for _, pf := range got {
		checks[pf.Check] = true
	}
	for _, want := range []string{"delayed_hook", "platform_style_mismatch", "missing_subtitles", "aspect_ratio_mismatch", "borderline_score"} {
		if !checks[want] {
			t.Fatalf("missing heuristic %q in %v", want, checks)
		}
	}
}
