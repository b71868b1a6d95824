package domain

import (
	"sort"
	"strings"
	"time"
)

type FailureClass string

const (
	FailureHook        FailureClass = "hook_failure"
	FailureFatigue     FailureClass = "creative_fatigue"
	FailureTrust       FailureClass = "trust_mismatch"
	FailurePlatform    FailureClass = "platform_mismatch"
	FailureAudience    FailureClass = "audience_mismatch"
	FailureLandingPage FailureClass = "landing_page_issue"
	FailureCTA         FailureClass = "cta_weak"
	FailureTiming      FailureClass = "timing_poor"
	FailureFormat      FailureClass = "format_issue"
	FailureUnknown     FailureClass = "unknown"
)

// minClassificationScore is the winner threshold below which the failure
// stays unclassified and no anti-pattern is recorded.
const minClassificationScore = 20

// FailureAnalysis is the classifier output for one underperforming ad.
type FailureAnalysis struct {
	AdID                   string             `json:"ad_id"`
	Class                  FailureClass       `json:"class"`
	Score                  int                `json:"score"`
	ClassScores            map[string]int     `json:"class_scores"`
	Evidence               []string           `json:"evidence"`
	LearnedNegativeWeights map[string]float64 `json:"learned_negative_weights,omitempty"`
}

// FailurePattern is one append-only entry of the anti-pattern log.
type FailurePattern struct {
	PatternID string       `json:"pattern_id"`
	Class     FailureClass `json:"class"`
	AdID      string       `json:"ad_id"`
	Features  []string     `json:"features"`
	Evidence  []string     `json:"evidence"`
	CreatedAt time.Time    `json:"created_at"`
}

type failureRule struct {
	class    FailureClass
	points   int
	evidence string
	match    func(CreativeTraits, OutcomeResult) bool
}

// verticalPlatforms are mute-first, portrait-native placements.
var verticalPlatforms = map[string]bool{"tiktok": true, "instagram": true}

var failureRules = []failureRule{
	{FailureHook, 40, "high impressions with CTR below 1%", func(t CreativeTraits, r OutcomeResult) bool {
		return r.Impressions > 1000 && r.CTR < 0.01
	}},
	{FailureHook, 20, "hook lands later than 3 seconds in", func(t CreativeTraits, r OutcomeResult) bool {
		return t.HookDelaySeconds > 3
	}},
	{FailureHook, 15, "slow opening on a scroll feed", func(t CreativeTraits, r OutcomeResult) bool {
		return strings.EqualFold(t.SceneVelocity, "slow") && verticalPlatforms[normalizePlatform(t.Platform)]
	}},

	{FailureFatigue, 30, "CTR collapsed at high delivery volume", func(t CreativeTraits, r OutcomeResult) bool {
		return r.Impressions > 30000 && r.CTR < 0.008
	}},
	{FailureFatigue, 15, "heavy spend without return", func(t CreativeTraits, r OutcomeResult) bool {
		return r.Spend > 1000 && r.ROAS < 0.8
	}},

	{FailureTrust, 25, "clicks convert poorly with no social proof", func(t CreativeTraits, r OutcomeResult) bool {
		return r.CTR > 0.02 && r.ConversionRate < 0.005 && !t.HasSocialProof
	}},
	{FailureTrust, 15, "aggressive discount without trust signals", func(t CreativeTraits, r OutcomeResult) bool {
		return t.HasDiscount && !t.HasTrustBadge && r.ConversionRate < 0.01
	}},

	{FailurePlatform, 35, "cinematic editing on tiktok", func(t CreativeTraits, r OutcomeResult) bool {
		return strings.EqualFold(t.EditingStyle, "cinematic") && normalizePlatform(t.Platform) == "tiktok"
	}},
	{FailurePlatform, 25, "landscape creative on a vertical feed", func(t CreativeTraits, r OutcomeResult) bool {
		return t.AspectRatio == "16:9" && verticalPlatforms[normalizePlatform(t.Platform)]
	}},
	{FailurePlatform, 15, "long-form runtime on tiktok", func(t CreativeTraits, r OutcomeResult) bool {
		return t.DurationSeconds > 60 && normalizePlatform(t.Platform) == "tiktok"
	}},

	{FailureAudience, 20, "broad delivery with negligible engagement", func(t CreativeTraits, r OutcomeResult) bool {
		return r.Impressions > 2000 && r.CTR < 0.005
	}},
	{FailureAudience, 15, "niche content on a broad audience", func(t CreativeTraits, r OutcomeResult) bool {
		return strings.EqualFold(t.AudienceType, "broad") && strings.EqualFold(t.ContentCategory, "niche")
	}},

	{FailureLandingPage, 40, "strong CTR but conversions below 0.5%", func(t CreativeTraits, r OutcomeResult) bool {
		return r.CTR > 0.02 && r.ConversionRate < 0.005
	}},

	{FailureCTA, 30, "weak call to action with interested traffic", func(t CreativeTraits, r OutcomeResult) bool {
		return strings.EqualFold(t.CTAStrength, "weak") && r.CTR > 0.01 && r.ConversionRate < 0.01
	}},
	{FailureCTA, 10, "no CTA button present", func(t CreativeTraits, r OutcomeResult) bool {
		return !t.HasCTAButton && r.ConversionRate < 0.01
	}},

	{FailureTiming, 15, "seasonal creative underdelivering", func(t CreativeTraits, r OutcomeResult) bool {
		return t.IsSeasonal && r.SuccessScore < 40
	}},

	{FailureFormat, 20, "voiceover without subtitles on a mute-first feed", func(t CreativeTraits, r OutcomeResult) bool {
		return t.HasVoiceover && !t.HasSubtitles && verticalPlatforms[normalizePlatform(t.Platform)]
	}},
	{FailureFormat, 15, "runtime past ninety seconds", func(t CreativeTraits, r OutcomeResult) bool {
		return t.DurationSeconds > 90
	}},
}

// ClassifyFailure scores the full rule bank and picks the dominant class.
// Winners below the threshold come back as unknown with no negative weights.
func ClassifyFailure(adID string, traits CreativeTraits, result OutcomeResult) FailureAnalysis {
	scores := map[FailureClass]int{}
	evidenceByClass := map[FailureClass][]string{}
	for _, rule := range failureRules {
		if rule.match(traits, result) {
			scores[rule.class] += rule.points
			evidenceByClass[rule.class] = append(evidenceByClass[rule.class], rule.evidence)
		}
	}

	classScores := make(map[string]int, len(scores))
	winner := FailureUnknown
	best := 0
	classes := make([]FailureClass, 0, len(scores))
	for class := range scores {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	for _, class := range classes {
		classScores[string(class)] = scores[class]
		if scores[class] > best {
			best = scores[class]
			winner = class
		}
	}

	analysis := FailureAnalysis{AdID: adID, Class: FailureUnknown, Score: best, ClassScores: classScores, Evidence: []string{}}
	if best < minClassificationScore {
		return analysis
	}
	analysis.Class = winner
	analysis.Evidence = evidenceByClass[winner]
	analysis.LearnedNegativeWeights = negativeWeightsFor(winner, traits)
	return analysis
}

// negativeWeightsFor picks the implicated feature names for the winning class
// and assigns each a small penalty delta.
func negativeWeightsFor(class FailureClass, traits CreativeTraits) map[string]float64 {
	const penalty = -0.05
	features := map[string]float64{}
	add := func(names ...string) {
		for _, name := range names {
			if name != "" {
				features[name] = penalty
			}
		}
	}
	switch class {
	case FailureHook:
		add(qualified("hook_type", traits.HookType), qualified("opening_shot", traits.OpeningShot))
	case FailurePlatform, FailureFormat:
		add(qualified("editing_style", traits.EditingStyle), qualified("aspect_ratio", aspectToken(traits.AspectRatio)))
	case FailureCTA:
		add(qualified("cta_strength", traits.CTAStrength), qualified("cta_placement", traits.CTAPlacement))
	case FailureTrust:
		if traits.HasDiscount {
			add("discount")
		}
	case FailureAudience:
		add(qualified("audience_type", traits.AudienceType))
	case FailureTiming:
		if traits.IsSeasonal {
			add("seasonal")
		}
	case FailureFatigue, FailureLandingPage:
		add(qualified("content_category", traits.ContentCategory))
	}
	if len(features) == 0 {
		return nil
	}
	return features
}

func qualified(attribute, value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	return attribute + "_" + strings.ReplaceAll(value, " ", "_")
}

// antiPatternOverlap is the minimum shared-feature ratio for a match.
const antiPatternOverlap = 0.7

// AntiPatternMatch is one historical failure whose features overlap the
// candidate creative.
type AntiPatternMatch struct {
	PatternID string       `json:"pattern_id"`
	Class     FailureClass `json:"class"`
	Overlap   float64      `json:"overlap"`
}

// MatchAntiPatterns flags historical failure patterns sharing at least 70%
// of their features with the candidate feature set.
func MatchAntiPatterns(features []string, patterns []FailurePattern) []AntiPatternMatch {
	set := make(map[string]bool, len(features))
	for _, f := range features {
		set[f] = true
	}
	matches := []AntiPatternMatch{}
	for _, p := range patterns {
		if len(p.Features) == 0 {
			continue
		}
		shared := 0
		for _, f := range p.Features {
			if set[f] {
				shared++
			}
		}
		overlap := float64(shared) / float64(len(p.Features))
		if overlap >= antiPatternOverlap {
			matches = append(matches, AntiPatternMatch{PatternID: p.PatternID, Class: p.Class, Overlap: overlap})
		}
	}
	return matches
}

// AntiPatternRisk buckets match count into a forward-looking risk level.
func AntiPatternRisk(matches []AntiPatternMatch) string {
	switch {
	case len(matches) >= 2:
		return "high"
	case len(matches) == 1:
		return "medium"
	default:
		return "none"
	}
}

func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}
