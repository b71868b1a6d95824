package domain

import (
	"reflect"
	"testing"
)

func TestClassifyPhases(t *testing.T) {
	cases := map[string]FeaturePhase{
		"hook_type":          PhasePreSpend,
		"hook_type_instant":  PhasePreSpend,
		"ctr":                PhasePostSpend,
		"roas":               PhasePostSpend,
		"  Editing_Style  ":  PhasePreSpend,
		"totally_made_up":    PhaseUnknown,
		"platform_tiktok":    PhasePreSpend,
		"conversion_rate":    PhasePostSpend,
		"cta_strength_weak":  PhasePreSpend,
		"aspect_ratio_9x16":  PhasePreSpend,
		"text_overlay_style": PhasePreSpend,
	}
	for name, want := range cases {
		if got := Classify(name); got != want {
			t.Fatalf("Classify(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestLookupFeatureLongestPrefix(t *testing.T) {
	// "text_overlay_style_bold" must resolve to text_overlay_style, not text_overlay.
	spec, ok := LookupFeature("text_overlay_style_bold")
	if !ok {
		t.Fatalf("expected a registry hit")
	}
	if spec.Attribute != "text_overlay_style" {
		t.Fatalf("expected longest prefix match, got %q", spec.Attribute)
	}
}

func TestValidateInputBlocksPostSpend(t *testing.T) {
	got := ValidateInput(map[string]any{
		"hook_type": "instant",
		"ctr":       0.05,
		"mystery":   true,
	})
	if got.IsValid {
		t.Fatalf("input carrying a post-spend metric must be flagged invalid")
	}
	if !reflect.DeepEqual(got.Eligible, []string{"hook_type"}) {
		t.Fatalf("unexpected eligible set: %v", got.Eligible)
	}
	if !reflect.DeepEqual(got.Blocked, []string{"ctr"}) {
		t.Fatalf("unexpected blocked set: %v", got.Blocked)
	}
	if !reflect.DeepEqual(got.Unknown, []string{"mystery"}) {
		t.Fatalf("unexpected unknown set: %v", got.Unknown)
	}
	if len(got.Warnings) != 2 {
		t.Fatalf("expected a warning per blocked and unknown attribute, got %v", got.Warnings)
	}
}

func TestValidateInputCleanSet(t *testing.T) {
	got := ValidateInput(map[string]any{"hook_type": "instant", "ugc": true})
	if !got.IsValid || len(got.Blocked) != 0 {
		t.Fatalf("pre-spend-only input should be valid: %+v", got)
	}
}

func TestFilterEligibleIsIdempotent(t *testing.T) {
	input := map[string]any{
		"hook_type": "instant",
		"ctr":       0.05,
		"unknown":   1,
		"ugc":       true,
	}
	once := FilterEligible(input)
	twice := FilterEligible(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("FilterEligible is not idempotent: %v vs %v", once, twice)
	}
	if _, ok := once["ctr"]; ok {
		t.Fatalf("post-spend metric survived the filter")
	}
	if _, ok := once["unknown"]; ok {
		t.Fatalf("unknown attribute survived the filter")
	}
	if len(once) != 2 {
		t.Fatalf("expected 2 surviving attributes, got %d", len(once))
	}
}

func TestFeatureNamesQualification(t *testing.T) {
	traits := CreativeTraits{
		HookType:     "Instant",
		Platform:     "tiktok",
		AspectRatio:  "9:16",
		IsUGC:        true,
		HasSubtitles: true,
	}
	names := traits.FeatureNames()
	set := map[string]bool{}
	for _, n := range names {
		set[n] = true
	}
	for _, want := range []string{"hook_type_instant", "platform_tiktok", "aspect_ratio_9x16", "ugc", "subtitles"} {
		if !set[want] {
			t.Fatalf("missing feature %q in %v", want, names)
		}
	}
	if set["voiceover"] {
		t.Fatalf("unset boolean must not contribute a feature")
	}
}
