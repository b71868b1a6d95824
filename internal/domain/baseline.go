package domain

import (
	"math"
	"strings"
	"time"
)

// MetricStat carries Welford running statistics for one baseline metric.
type MetricStat struct {
	Mean float64 `json:"mean"`
	M2   float64 `json:"m2"`
}

// StdDev is the population standard deviation for n observations.
func (m MetricStat) StdDev(n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Sqrt(m.M2 / float64(n))
}

// AccountBaseline is the per-account running distribution of outcomes.
// It is updated incrementally and never recomputed from scratch.
type AccountBaseline struct {
	CTR        MetricStat `json:"ctr"`
	CVR        MetricStat `json:"cvr"`
	ROAS       MetricStat `json:"roas"`
	Rating     MetricStat `json:"rating"`
	SampleSize int        `json:"sample_size"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// coldStartSamples is the account size below which platform priors stand in
// for the account's own distribution.
const coldStartSamples = 5

// Update folds one outcome into the running statistics.
func (b *AccountBaseline) Update(result OutcomeResult, now time.Time) {
	n := float64(b.SampleSize + 1)
	welford(&b.CTR, result.CTR, n)
	welford(&b.CVR, result.ConversionRate, n)
	welford(&b.ROAS, result.ROAS, n)
	welford(&b.Rating, float64(result.SuccessScore), n)
	b.SampleSize++
	b.UpdatedAt = now
}

func welford(stat *MetricStat, value, n float64) {
	delta := value - stat.Mean
	stat.Mean += delta / n
	stat.M2 += delta * (value - stat.Mean)
}

// PlatformPrior is the industry-benchmark cold-start row for one platform.
type PlatformPrior struct {
	Platform string  `json:"platform"`
	CTR      float64 `json:"ctr"`
	CVR      float64 `json:"cvr"`
	ROAS     float64 `json:"roas"`
	Rating   float64 `json:"rating"`
}

var platformPriors = map[string]PlatformPrior{
	"tiktok":    {Platform: "tiktok", CTR: 0.03, CVR: 0.015, ROAS: 2.0, Rating: 65},
	"instagram": {Platform: "instagram", CTR: 0.015, CVR: 0.018, ROAS: 2.2, Rating: 62},
	"facebook":  {Platform: "facebook", CTR: 0.012, CVR: 0.02, ROAS: 2.5, Rating: 60},
	"youtube":   {Platform: "youtube", CTR: 0.02, CVR: 0.012, ROAS: 1.8, Rating: 58},
}

var defaultPrior = PlatformPrior{Platform: "default", CTR: 0.015, CVR: 0.015, ROAS: 2.0, Rating: 60}

func PriorFor(platform string) PlatformPrior {
	if prior, ok := platformPriors[strings.ToLower(strings.TrimSpace(platform))]; ok {
		return prior
	}
	return defaultPrior
}

// priorStdDevFactor is the fixed heuristic stddev for priors (half the mean).
const priorStdDevFactor = 0.5

// NormalizedScore is a raw outcome expressed against the account baseline.
type NormalizedScore struct {
	ZScores         map[string]float64 `json:"z_scores"`
	CombinedZ       float64            `json:"combined_z"`
	Percentile      int                `json:"percentile"`
	ConfidenceLevel int                `json:"confidence_level"`
	UsingPriors     bool               `json:"using_priors"`
}

var metricZWeights = map[string]float64{
	"ctr":    0.25,
	"cvr":    0.30,
	"roas":   0.25,
	"rating": 0.20,
}

// Normalize converts a raw outcome into a baseline-relative percentile.
// Below the cold-start threshold the platform prior stands in for the account
// distribution so that small accounts still get comparable scores.
func (b AccountBaseline) Normalize(result OutcomeResult) NormalizedScore {
	usingPriors := b.SampleSize < coldStartSamples
	type metricInput struct {
		name    string
		value   float64
		present bool
		mean    float64
		stddev  float64
	}
	prior := PriorFor(result.Platform)
	inputs := []metricInput{
		{name: "ctr", value: result.CTR, present: result.CTR > 0 || result.Impressions > 0},
		{name: "cvr", value: result.ConversionRate, present: result.ConversionRate > 0},
		{name: "roas", value: result.ROAS, present: result.ROAS > 0},
		{name: "rating", value: float64(result.SuccessScore), present: result.SuccessScore > 0},
	}
	for i := range inputs {
		switch inputs[i].name {
		case "ctr":
			inputs[i].mean, inputs[i].stddev = b.CTR.Mean, b.CTR.StdDev(b.SampleSize)
			if usingPriors {
				inputs[i].mean, inputs[i].stddev = prior.CTR, prior.CTR*priorStdDevFactor
			}
		case "cvr":
			inputs[i].mean, inputs[i].stddev = b.CVR.Mean, b.CVR.StdDev(b.SampleSize)
			if usingPriors {
				inputs[i].mean, inputs[i].stddev = prior.CVR, prior.CVR*priorStdDevFactor
			}
		case "roas":
			inputs[i].mean, inputs[i].stddev = b.ROAS.Mean, b.ROAS.StdDev(b.SampleSize)
			if usingPriors {
				inputs[i].mean, inputs[i].stddev = prior.ROAS, prior.ROAS*priorStdDevFactor
			}
		case "rating":
			inputs[i].mean, inputs[i].stddev = b.Rating.Mean, b.Rating.StdDev(b.SampleSize)
			if usingPriors {
				inputs[i].mean, inputs[i].stddev = prior.Rating, prior.Rating*priorStdDevFactor
			}
		}
	}

	out := NormalizedScore{ZScores: map[string]float64{}, UsingPriors: usingPriors}
	var combined, totalWeight float64
	for _, in := range inputs {
		if !in.present || in.stddev <= 0 {
			continue
		}
		z := (in.value - in.mean) / in.stddev
		out.ZScores[in.name] = z
		combined += metricZWeights[in.name] * z
		totalWeight += metricZWeights[in.name]
	}
	if totalWeight > 0 {
		out.CombinedZ = combined / totalWeight
	}
	out.Percentile = zToPercentile(out.CombinedZ)
	out.ConfidenceLevel = minInt(100, int(math.Round(float64(b.SampleSize)/50.0*100)))
	return out
}

// zToPercentile maps a Z-score onto 0..100 through the Gauss error function.
func zToPercentile(z float64) int {
	p := 50 * (1 + math.Erf(z/math.Sqrt2))
	return clampScore(int(math.Round(p)))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
