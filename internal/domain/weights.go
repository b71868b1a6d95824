package domain

import (
	"math"
	"sort"
	"time"
)

type WeightTrend string

const (
	TrendRising  WeightTrend = "rising"
	TrendFalling WeightTrend = "falling"
	TrendStable  WeightTrend = "stable"
)

// FeatureWeight is one learned signal. Weight is always inside [-1,1] and
// confidence only moves up outside an explicit reset.
type FeatureWeight struct {
	Feature         string          `json:"feature"`
	Category        FeatureCategory `json:"category"`
	Weight          float64         `json:"weight"`
	ConfidenceLevel int             `json:"confidence_level"`
	SampleSize      int             `json:"sample_size"`
	Trend           WeightTrend     `json:"trend"`
	TrendStrength   int             `json:"trend_strength"`
	LastUpdated     time.Time       `json:"last_updated"`
}

// WeightTable is the keyed weight store for one scope (global or segment).
type WeightTable struct {
	Weights   map[string]FeatureWeight `json:"weights"`
	UpdatedAt time.Time                `json:"updated_at"`
}

func NewWeightTable() WeightTable {
	return WeightTable{Weights: map[string]FeatureWeight{}}
}

// Clone copies the table so segment tables never alias the global one.
func (t WeightTable) Clone() WeightTable {
	out := WeightTable{Weights: make(map[string]FeatureWeight, len(t.Weights)), UpdatedAt: t.UpdatedAt}
	for k, v := range t.Weights {
		out.Weights[k] = v
	}
	return out
}

const scoreBase = 50.0

// Score computes the additive weighted score for a feature set. Pure function
// of the table and features: base 50, each present feature adds weight*10,
// result clamped to [0,100] and rounded.
func (t WeightTable) Score(features []string) int {
	score := scoreBase
	for _, feature := range features {
		if w, ok := t.Weights[feature]; ok {
			score += w.Weight * 10
		}
	}
	return clampScore(int(math.Round(score)))
}

// AddNewWeight introduces a feature row if absent and returns the stored row.
// Calling it again for an existing feature is a no-op returning that row.
func (t *WeightTable) AddNewWeight(feature string, category FeatureCategory, initial float64, now time.Time) FeatureWeight {
	if t.Weights == nil {
		t.Weights = map[string]FeatureWeight{}
	}
	if existing, ok := t.Weights[feature]; ok {
		return existing
	}
	row := FeatureWeight{
		Feature:         feature,
		Category:        category,
		Weight:          ClampWeight(initial),
		ConfidenceLevel: 20,
		SampleSize:      1,
		Trend:           TrendStable,
		LastUpdated:     now,
	}
	t.Weights[feature] = row
	t.UpdatedAt = now
	return row
}

// TopWeights returns rows ordered by absolute weight, strongest first.
func (t WeightTable) TopWeights(limit int) []FeatureWeight {
	rows := make([]FeatureWeight, 0, len(t.Weights))
	for _, w := range t.Weights {
		rows = append(rows, w)
	}
	sort.Slice(rows, func(i, j int) bool {
		ai, aj := math.Abs(rows[i].Weight), math.Abs(rows[j].Weight)
		if ai != aj {
			return ai > aj
		}
		return rows[i].Feature < rows[j].Feature
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func ClampWeight(w float64) float64 {
	if w < -1 {
		return -1
	}
	if w > 1 {
		return 1
	}
	return w
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
