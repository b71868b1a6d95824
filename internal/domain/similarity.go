package domain

import (
	"math"
	"sort"
	"strings"
)

type attributeComparison struct {
	name   string
	points float64
	get    func(CreativeTraits) (value string, present bool)
}

func stringAttr(get func(CreativeTraits) string) func(CreativeTraits) (string, bool) {
	return func(t CreativeTraits) (string, bool) {
		v := strings.ToLower(strings.TrimSpace(get(t)))
		return v, v != ""
	}
}

// boolAttr treats booleans as always comparable: both false still agree.
func boolAttr(get func(CreativeTraits) bool) func(CreativeTraits) (string, bool) {
	return func(t CreativeTraits) (string, bool) {
		if get(t) {
			return "yes", true
		}
		return "no", true
	}
}

// similarityComparisons is the fixed attribute bank with per-attribute point
// values. Attributes absent from either creative drop out of the denominator.
var similarityComparisons = []attributeComparison{
	{"platform", 20, stringAttr(func(t CreativeTraits) string { return t.Platform })},
	{"hook_type", 15, stringAttr(func(t CreativeTraits) string { return t.HookType })},
	{"content_category", 12, stringAttr(func(t CreativeTraits) string { return t.ContentCategory })},
	{"editing_style", 10, stringAttr(func(t CreativeTraits) string { return t.EditingStyle })},
	{"ugc", 10, boolAttr(func(t CreativeTraits) bool { return t.IsUGC })},
	{"subtitles", 8, boolAttr(func(t CreativeTraits) bool { return t.HasSubtitles })},
	{"voiceover", 8, boolAttr(func(t CreativeTraits) bool { return t.HasVoiceover })},
	{"music_type", 7, stringAttr(func(t CreativeTraits) string { return t.MusicType })},
	{"objective_type", 5, stringAttr(func(t CreativeTraits) string { return t.ObjectiveType })},
	{"audience_type", 5, stringAttr(func(t CreativeTraits) string { return t.AudienceType })},
}

// Similarity is the weighted-match ratio between two creatives in [0,1].
func Similarity(a, b CreativeTraits) float64 {
	var matched, total float64
	for _, cmp := range similarityComparisons {
		va, oka := cmp.get(a)
		vb, okb := cmp.get(b)
		if !oka || !okb {
			continue
		}
		total += cmp.points
		if va == vb {
			matched += cmp.points
		}
	}
	if total == 0 {
		return 0
	}
	return matched / total
}

// Neighbor is one similar historical ad with its blend weight.
type Neighbor struct {
	AdID       string  `json:"ad_id"`
	Similarity float64 `json:"similarity"`
	Weight     float64 `json:"weight"`
	Outcome    int     `json:"outcome"`
}

const (
	DefaultMinSimilarity = 0.5
	DefaultNeighborCount = 10
)

// TopNeighbors picks the k most similar ads with a recorded outcome and
// normalizes their weights to sum to one.
func TopNeighbors(traits CreativeTraits, corpus []AdRecord, minSimilarity float64, k int) []Neighbor {
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}
	if k <= 0 {
		k = DefaultNeighborCount
	}
	neighbors := []Neighbor{}
	for _, ad := range corpus {
		if ad.Outcome == nil {
			continue
		}
		sim := Similarity(traits, ad.Traits)
		if sim < minSimilarity {
			continue
		}
		neighbors = append(neighbors, Neighbor{AdID: ad.AdID, Similarity: sim, Outcome: ad.Outcome.SuccessScore})
	}
	sort.SliceStable(neighbors, func(i, j int) bool { return neighbors[i].Similarity > neighbors[j].Similarity })
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	var totalSim float64
	for _, n := range neighbors {
		totalSim += n.Similarity
	}
	if totalSim > 0 {
		for i := range neighbors {
			neighbors[i].Weight = neighbors[i].Similarity / totalSim
		}
	}
	return neighbors
}

// HistoricalEstimate summarizes the neighbor outcomes for blending.
type HistoricalEstimate struct {
	Score      int        `json:"score"`
	Confidence int        `json:"confidence"`
	Neighbors  []Neighbor `json:"neighbors"`
}

// EstimateFromNeighbors folds neighbor outcomes into one weighted score with
// a confidence grown by neighbor count and closeness.
func EstimateFromNeighbors(neighbors []Neighbor) (HistoricalEstimate, bool) {
	if len(neighbors) == 0 {
		return HistoricalEstimate{}, false
	}
	var score, avgSim float64
	for _, n := range neighbors {
		score += n.Weight * float64(n.Outcome)
		avgSim += n.Similarity
	}
	avgSim /= float64(len(neighbors))
	confidence := minInt(100, int(math.Round(avgSim*50))+len(neighbors)*10)
	return HistoricalEstimate{
		Score:      clampScore(int(math.Round(score))),
		Confidence: confidence,
		Neighbors:  neighbors,
	}, true
}

const (
	maxHistoricalWeight     = 0.4
	minHistoricalConfidence = 30
)

// BlendScores mixes the model score with the historical estimate. Thin or
// missing history leaves the model score untouched; the historical share is
// capped at 0.4 no matter how confident the neighbors are.
func BlendScores(mlScore int, historical HistoricalEstimate, hasHistory bool) int {
	if !hasHistory || historical.Confidence < minHistoricalConfidence {
		return mlScore
	}
	weight := math.Min(maxHistoricalWeight, float64(historical.Confidence)/100*0.5)
	blended := float64(mlScore)*(1-weight) + float64(historical.Score)*weight
	return clampScore(int(math.Round(blended)))
}
