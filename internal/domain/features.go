package domain

import (
	"sort"
	"strings"
)

// FeaturePhase says when a feature becomes knowable relative to spend.
// Only pre-spend features may participate in prediction input.
type FeaturePhase string

const (
	PhasePreSpend  FeaturePhase = "pre_spend"
	PhasePostSpend FeaturePhase = "post_spend"
	PhaseUnknown   FeaturePhase = "unknown"
)

type FeatureCategory string

const (
	CategoryCreative  FeatureCategory = "creative"
	CategoryFormat    FeatureCategory = "format"
	CategoryMessaging FeatureCategory = "messaging"
	CategoryTargeting FeatureCategory = "targeting"
	CategoryBudget    FeatureCategory = "budget"
	CategoryMetric    FeatureCategory = "metric"
	CategoryDiscovery FeatureCategory = "discovered"
)

// FeatureSpec is the registry row for one named attribute.
type FeatureSpec struct {
	Attribute string
	Category  FeatureCategory
	Phase     FeaturePhase
}

// featureRegistry is the single source of truth for attribute eligibility.
// Categorical trait values are expressed as "<attribute>_<value>" feature
// names; Classify resolves those by longest-prefix match against this table.
var featureRegistry = map[string]FeatureSpec{
	"hook_type":          {Attribute: "hook_type", Category: CategoryCreative, Phase: PhasePreSpend},
	"hook_delay_seconds": {Attribute: "hook_delay_seconds", Category: CategoryCreative, Phase: PhasePreSpend},
	"editing_style":      {Attribute: "editing_style", Category: CategoryCreative, Phase: PhasePreSpend},
	"scene_velocity":     {Attribute: "scene_velocity", Category: CategoryCreative, Phase: PhasePreSpend},
	"color_grading":      {Attribute: "color_grading", Category: CategoryCreative, Phase: PhasePreSpend},
	"opening_shot":       {Attribute: "opening_shot", Category: CategoryCreative, Phase: PhasePreSpend},
	"talent_type":        {Attribute: "talent_type", Category: CategoryCreative, Phase: PhasePreSpend},
	"tone":               {Attribute: "tone", Category: CategoryCreative, Phase: PhasePreSpend},
	"pacing_style":       {Attribute: "pacing_style", Category: CategoryCreative, Phase: PhasePreSpend},
	"sound_design":       {Attribute: "sound_design", Category: CategoryCreative, Phase: PhasePreSpend},
	"music_type":         {Attribute: "music_type", Category: CategoryCreative, Phase: PhasePreSpend},
	"ugc":                {Attribute: "ugc", Category: CategoryCreative, Phase: PhasePreSpend},
	"human_face":         {Attribute: "human_face", Category: CategoryCreative, Phase: PhasePreSpend},
	"product_shot":       {Attribute: "product_shot", Category: CategoryCreative, Phase: PhasePreSpend},
	"before_after":       {Attribute: "before_after", Category: CategoryCreative, Phase: PhasePreSpend},

	"aspect_ratio":       {Attribute: "aspect_ratio", Category: CategoryFormat, Phase: PhasePreSpend},
	"duration_seconds":   {Attribute: "duration_seconds", Category: CategoryFormat, Phase: PhasePreSpend},
	"subtitles":          {Attribute: "subtitles", Category: CategoryFormat, Phase: PhasePreSpend},
	"voiceover":          {Attribute: "voiceover", Category: CategoryFormat, Phase: PhasePreSpend},
	"music":              {Attribute: "music", Category: CategoryFormat, Phase: PhasePreSpend},
	"text_overlay":       {Attribute: "text_overlay", Category: CategoryFormat, Phase: PhasePreSpend},
	"text_overlay_style": {Attribute: "text_overlay_style", Category: CategoryFormat, Phase: PhasePreSpend},
	"platform":           {Attribute: "platform", Category: CategoryFormat, Phase: PhasePreSpend},

	"cta_strength":  {Attribute: "cta_strength", Category: CategoryMessaging, Phase: PhasePreSpend},
	"cta_placement": {Attribute: "cta_placement", Category: CategoryMessaging, Phase: PhasePreSpend},
	"cta_button":    {Attribute: "cta_button", Category: CategoryMessaging, Phase: PhasePreSpend},
	"offer_type":    {Attribute: "offer_type", Category: CategoryMessaging, Phase: PhasePreSpend},
	"price_shown":   {Attribute: "price_shown", Category: CategoryMessaging, Phase: PhasePreSpend},
	"discount":      {Attribute: "discount", Category: CategoryMessaging, Phase: PhasePreSpend},
	"urgency":       {Attribute: "urgency", Category: CategoryMessaging, Phase: PhasePreSpend},
	"social_proof":  {Attribute: "social_proof", Category: CategoryMessaging, Phase: PhasePreSpend},
	"trust_badge":   {Attribute: "trust_badge", Category: CategoryMessaging, Phase: PhasePreSpend},
	"brand_logo":    {Attribute: "brand_logo", Category: CategoryMessaging, Phase: PhasePreSpend},
	"seasonal":      {Attribute: "seasonal", Category: CategoryMessaging, Phase: PhasePreSpend},

	"audience_type":    {Attribute: "audience_type", Category: CategoryTargeting, Phase: PhasePreSpend},
	"objective_type":   {Attribute: "objective_type", Category: CategoryTargeting, Phase: PhasePreSpend},
	"content_category": {Attribute: "content_category", Category: CategoryTargeting, Phase: PhasePreSpend},
	"budget_tier":      {Attribute: "budget_tier", Category: CategoryBudget, Phase: PhasePreSpend},

	"impressions":     {Attribute: "impressions", Category: CategoryMetric, Phase: PhasePostSpend},
	"clicks":          {Attribute: "clicks", Category: CategoryMetric, Phase: PhasePostSpend},
	"ctr":             {Attribute: "ctr", Category: CategoryMetric, Phase: PhasePostSpend},
	"conversions":     {Attribute: "conversions", Category: CategoryMetric, Phase: PhasePostSpend},
	"conversion_rate": {Attribute: "conversion_rate", Category: CategoryMetric, Phase: PhasePostSpend},
	"roas":            {Attribute: "roas", Category: CategoryMetric, Phase: PhasePostSpend},
	"spend":           {Attribute: "spend", Category: CategoryMetric, Phase: PhasePostSpend},
	"cpc":             {Attribute: "cpc", Category: CategoryMetric, Phase: PhasePostSpend},
	"cpm":             {Attribute: "cpm", Category: CategoryMetric, Phase: PhasePostSpend},
	"cpa":             {Attribute: "cpa", Category: CategoryMetric, Phase: PhasePostSpend},
	"reach":           {Attribute: "reach", Category: CategoryMetric, Phase: PhasePostSpend},
	"frequency":       {Attribute: "frequency", Category: CategoryMetric, Phase: PhasePostSpend},
	"engagement_rate": {Attribute: "engagement_rate", Category: CategoryMetric, Phase: PhasePostSpend},
	"video_views":     {Attribute: "video_views", Category: CategoryMetric, Phase: PhasePostSpend},
	"watch_time":      {Attribute: "watch_time", Category: CategoryMetric, Phase: PhasePostSpend},
	"success_score":   {Attribute: "success_score", Category: CategoryMetric, Phase: PhasePostSpend},
}

// Classify resolves a feature name to its spend phase. Value-qualified names
// such as "hook_type_instant" resolve through their attribute prefix.
func Classify(name string) FeaturePhase {
	spec, ok := LookupFeature(name)
	if !ok {
		return PhaseUnknown
	}
	return spec.Phase
}

// LookupFeature returns the registry row for a feature name, resolving
// value-qualified names by longest matching attribute prefix.
func LookupFeature(name string) (FeatureSpec, bool) {
	key := normalizeFeatureName(name)
	if spec, ok := featureRegistry[key]; ok {
		return spec, true
	}
	best := ""
	for attr := range featureRegistry {
		if strings.HasPrefix(key, attr+"_") && len(attr) > len(best) {
			best = attr
		}
	}
	if best == "" {
		return FeatureSpec{}, false
	}
	return featureRegistry[best], true
}

// FeatureValidation is the result of screening raw prediction input.
type FeatureValidation struct {
	IsValid  bool     `json:"is_valid"`
	Eligible []string `json:"eligible"`
	Blocked  []string `json:"blocked"`
	Unknown  []string `json:"unknown"`
	Warnings []string `json:"warnings"`
}

// ValidateInput screens a raw attribute map before scoring. Known post-spend
// attributes are blocked; unknown names pass through flagged so new creative
// attributes do not break older callers.
func ValidateInput(input map[string]any) FeatureValidation {
	out := FeatureValidation{Eligible: []string{}, Blocked: []string{}, Unknown: []string{}, Warnings: []string{}}
	names := make([]string, 0, len(input))
	for name := range input {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		switch Classify(name) {
		case PhasePreSpend:
			out.Eligible = append(out.Eligible, name)
		case PhasePostSpend:
			out.Blocked = append(out.Blocked, name)
			out.Warnings = append(out.Warnings, "post-spend metric '"+name+"' removed from prediction input")
		default:
			out.Unknown = append(out.Unknown, name)
			out.Warnings = append(out.Warnings, "unknown attribute '"+name+"' is not scored")
		}
	}
	out.IsValid = len(out.Blocked) == 0
	return out
}

// FilterEligible strips every attribute that is not registered pre-spend.
// Applying it twice yields the same result as once.
func FilterEligible(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for name, value := range input {
		if Classify(name) == PhasePreSpend {
			out[name] = value
		}
	}
	return out
}

func normalizeFeatureName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
