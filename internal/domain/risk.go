package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

type RiskTier string

const (
	TierProvenPattern     RiskTier = "proven_pattern"
	TierLikelySuccess     RiskTier = "likely_success"
	TierModerateRisk      RiskTier = "moderate_risk"
	TierHighVariance      RiskTier = "high_variance"
	TierUnprovenTerritory RiskTier = "unproven_territory"
)

// UncertainFeature is a trait the weight store cannot yet vouch for.
type UncertainFeature struct {
	Feature     string  `json:"feature"`
	Confidence  int     `json:"confidence"`
	SampleSize  int     `json:"sample_size"`
	Uncertainty float64 `json:"uncertainty"`
	Reason      string  `json:"reason"`
}

// PotentialFailure is a heuristic forward-looking failure signal.
type PotentialFailure struct {
	Check       string  `json:"check"`
	Probability float64 `json:"probability"`
	Severity    string  `json:"severity"`
	Detail      string  `json:"detail"`
}

// RiskAssessment is the explainability surface handed back to callers.
type RiskAssessment struct {
	Tier              RiskTier           `json:"tier"`
	Confidence        int                `json:"confidence"`
	Reliability       int                `json:"reliability"`
	UsingPriors       bool               `json:"using_priors"`
	UncertainFeatures []UncertainFeature `json:"uncertain_features"`
	AntiPatterns      []AntiPatternMatch `json:"anti_patterns"`
	AntiPatternRisk   string             `json:"anti_pattern_risk"`
	PotentialFailures []PotentialFailure `json:"potential_failures"`
	Summary           string             `json:"summary"`
	RiskFactors       []string           `json:"risk_factors"`
}

const (
	uncertainMinSamples    = 5
	uncertainMinConfidence = 50
)

// AssessRisk combines weight confidence, anti-pattern matches and heuristic
// failure checks into a tier with a readable explanation.
func AssessRisk(traits CreativeTraits, predictedScore int, table WeightTable, patterns []FailurePattern, baselineSamples int) RiskAssessment {
	features := traits.FeatureNames()

	uncertain := collectUncertainFeatures(features, table)
	matches := MatchAntiPatterns(features, patterns)
	antiRisk := AntiPatternRisk(matches)
	potential := potentialFailures(traits, predictedScore)

	confidence := averageFeatureConfidence(features, table)
	if baselineSamples >= coldStartSamples {
		confidence = minInt(100, confidence+20)
	}
	usingPriors := baselineSamples < coldStartSamples
	reliability := confidence
	if usingPriors {
		reliability = int(math.Round(float64(confidence) * 0.7))
	}

	tier := resolveTier(confidence, antiRisk, baselineSamples, len(potential))

	assessment := RiskAssessment{
		Tier:              tier,
		Confidence:        confidence,
		Reliability:       reliability,
		UsingPriors:       usingPriors,
		UncertainFeatures: uncertain,
		AntiPatterns:      matches,
		AntiPatternRisk:   antiRisk,
		PotentialFailures: potential,
	}
	assessment.RiskFactors = riskFactors(assessment, baselineSamples)
	assessment.Summary = riskSummary(assessment, predictedScore, baselineSamples)
	return assessment
}

func collectUncertainFeatures(features []string, table WeightTable) []UncertainFeature {
	out := []UncertainFeature{}
	for _, feature := range features {
		row, ok := table.Weights[feature]
		switch {
		case !ok:
			out = append(out, UncertainFeature{Feature: feature, Uncertainty: 1, Reason: "no learned weight yet"})
		case row.SampleSize < uncertainMinSamples:
			out = append(out, UncertainFeature{
				Feature: feature, Confidence: row.ConfidenceLevel, SampleSize: row.SampleSize,
				Uncertainty: 1 - float64(row.SampleSize)/float64(uncertainMinSamples),
				Reason:      fmt.Sprintf("only %d observations", row.SampleSize),
			})
		case row.ConfidenceLevel < uncertainMinConfidence:
			out = append(out, UncertainFeature{
				Feature: feature, Confidence: row.ConfidenceLevel, SampleSize: row.SampleSize,
				Uncertainty: 1 - float64(row.ConfidenceLevel)/100,
				Reason:      fmt.Sprintf("confidence %d below threshold", row.ConfidenceLevel),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Uncertainty != out[j].Uncertainty {
			return out[i].Uncertainty > out[j].Uncertainty
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}

func averageFeatureConfidence(features []string, table WeightTable) int {
	if len(features) == 0 {
		return 0
	}
	total := 0
	for _, feature := range features {
		if row, ok := table.Weights[feature]; ok {
			total += row.ConfidenceLevel
		}
	}
	return total / len(features)
}

func potentialFailures(traits CreativeTraits, predictedScore int) []PotentialFailure {
	out := []PotentialFailure{}
	if traits.HookDelaySeconds >= 3 {
		out = append(out, PotentialFailure{Check: "delayed_hook", Probability: 0.6, Severity: "high",
			Detail: fmt.Sprintf("hook arrives after %d seconds; most drop-off happens in the first 3", traits.HookDelaySeconds)})
	}
	if strings.EqualFold(traits.EditingStyle, "cinematic") && normalizePlatform(traits.Platform) == "tiktok" {
		out = append(out, PotentialFailure{Check: "platform_style_mismatch", Probability: 0.65, Severity: "high",
			Detail: "cinematic pacing historically underperforms on tiktok"})
	}
	if strings.EqualFold(traits.CTAStrength, "weak") || (!traits.HasCTAButton && traits.CTAStrength == "") {
		out = append(out, PotentialFailure{Check: "weak_cta", Probability: 0.5, Severity: "medium",
			Detail: "no strong call to action for interested viewers"})
	}
	if traits.HasVoiceover && !traits.HasSubtitles {
		out = append(out, PotentialFailure{Check: "missing_subtitles", Probability: 0.45, Severity: "medium",
			Detail: "voiceover without subtitles loses muted viewers"})
	}
	if traits.AspectRatio == "16:9" && verticalPlatforms[normalizePlatform(traits.Platform)] {
		out = append(out, PotentialFailure{Check: "aspect_ratio_mismatch", Probability: 0.55, Severity: "medium",
			Detail: "landscape creative on a portrait placement"})
	}
	if predictedScore >= 45 && predictedScore <= 55 {
		out = append(out, PotentialFailure{Check: "borderline_score", Probability: 0.5, Severity: "medium",
			Detail: fmt.Sprintf("predicted score %d sits in the coin-flip band", predictedScore)})
	}
	return out
}

// resolveTier walks the deterministic ladder. Anti-pattern and cold-start
// checks outrank the confidence thresholds.
func resolveTier(confidence int, antiRisk string, baselineSamples, failureCount int) RiskTier {
	switch {
	case antiRisk == "high":
		return TierHighVariance
	case baselineSamples < 3:
		return TierUnprovenTerritory
	case baselineSamples < 10 && antiRisk == "medium":
		return TierHighVariance
	case confidence >= 80 && failureCount <= 1:
		return TierProvenPattern
	case confidence >= 65 && failureCount <= 2:
		return TierLikelySuccess
	case confidence >= 50:
		return TierModerateRisk
	case confidence >= 30:
		return TierHighVariance
	default:
		return TierUnprovenTerritory
	}
}

func riskFactors(a RiskAssessment, baselineSamples int) []string {
	factors := []string{}
	if a.AntiPatternRisk != "none" {
		factors = append(factors, fmt.Sprintf("%d historical failure pattern(s) overlap this creative", len(a.AntiPatterns)))
	}
	if baselineSamples < coldStartSamples {
		factors = append(factors, fmt.Sprintf("account baseline has only %d outcome(s); platform priors in use", baselineSamples))
	}
	for _, pf := range a.PotentialFailures {
		factors = append(factors, pf.Detail)
	}
	if len(a.UncertainFeatures) > 0 {
		factors = append(factors, fmt.Sprintf("%d trait(s) have little or no learning history", len(a.UncertainFeatures)))
	}
	return factors
}

func riskSummary(a RiskAssessment, predictedScore, baselineSamples int) string {
	switch a.Tier {
	case TierProvenPattern:
		return fmt.Sprintf("Predicted %d from well-evidenced signals (confidence %d). This trait mix matches proven winners.", predictedScore, a.Confidence)
	case TierLikelySuccess:
		return fmt.Sprintf("Predicted %d with solid confidence (%d). Minor unknowns remain but the pattern leans positive.", predictedScore, a.Confidence)
	case TierModerateRisk:
		return fmt.Sprintf("Predicted %d but confidence is middling (%d). Expect meaningful variance against this estimate.", predictedScore, a.Confidence)
	case TierHighVariance:
		if a.AntiPatternRisk != "none" {
			return fmt.Sprintf("Predicted %d, but this creative overlaps known failure patterns. Treat the estimate as volatile.", predictedScore)
		}
		return fmt.Sprintf("Predicted %d on thin evidence (confidence %d). Outcomes in this band swing widely.", predictedScore, a.Confidence)
	default:
		return fmt.Sprintf("Predicted %d with almost no account history (%d outcome(s) recorded). This is unproven territory.", predictedScore, baselineSamples)
	}
}
