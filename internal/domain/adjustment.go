package domain

import (
	"math"
	"time"
)

// WeightMode gates whether computed weight corrections are written back.
type WeightMode string

const (
	ModeActive       WeightMode = "active"
	ModeFallbackOnly WeightMode = "fallback_only"
	ModeFrozen       WeightMode = "frozen"
)

func ParseWeightMode(raw string) (WeightMode, bool) {
	switch WeightMode(raw) {
	case ModeActive, ModeFallbackOnly, ModeFrozen:
		return WeightMode(raw), true
	}
	return "", false
}

const (
	DefaultLearningRate = 0.1
	// minApplyDelta filters out noise-level corrections.
	minApplyDelta = 0.01
)

// WeightAdjustment is one computed (and possibly applied) correction.
type WeightAdjustment struct {
	Feature   string  `json:"feature"`
	OldWeight float64 `json:"old_weight"`
	NewWeight float64 `json:"new_weight"`
	Applied   bool    `json:"applied"`
}

// AdjustWeights nudges every listed feature toward reducing future error.
// delta is actual minus predicted score. In fallback_only mode adjustments
// are computed but the table is left untouched; frozen mode returns nil
// without touching anything.
func AdjustWeights(table *WeightTable, features []string, delta int, learningRate float64, mode WeightMode, now time.Time) []WeightAdjustment {
	if mode == ModeFrozen {
		return nil
	}
	if learningRate <= 0 {
		learningRate = DefaultLearningRate
	}
	adjustments := make([]WeightAdjustment, 0, len(features))
	for _, feature := range features {
		row, ok := table.Weights[feature]
		if !ok {
			row = FeatureWeight{Feature: feature, Category: categoryOf(feature), Trend: TrendStable}
		}
		adjustment := float64(delta) / 100 * learningRate
		newWeight := ClampWeight(row.Weight + adjustment)
		entry := WeightAdjustment{Feature: feature, OldWeight: row.Weight, NewWeight: newWeight}
		if math.Abs(newWeight-row.Weight) > minApplyDelta {
			entry.Applied = mode == ModeActive
			if entry.Applied {
				applyAdjustment(&row, newWeight, now)
				table.Weights[feature] = row
				table.UpdatedAt = now
			}
		}
		adjustments = append(adjustments, entry)
	}
	return adjustments
}

func applyAdjustment(row *FeatureWeight, newWeight float64, now time.Time) {
	if newWeight > row.Weight {
		row.Trend = TrendRising
	} else {
		row.Trend = TrendFalling
	}
	row.TrendStrength = minInt(100, row.TrendStrength+10)
	row.Weight = newWeight
	row.SampleSize++
	row.ConfidenceLevel = minInt(100, row.ConfidenceLevel+2)
	row.LastUpdated = now
}

// ApplyNegativeWeights folds failure-derived penalties into the table under
// the same mode rules as regular adjustments.
func ApplyNegativeWeights(table *WeightTable, penalties map[string]float64, mode WeightMode, now time.Time) []WeightAdjustment {
	if mode != ModeActive || len(penalties) == 0 {
		return nil
	}
	out := make([]WeightAdjustment, 0, len(penalties))
	for feature, penalty := range penalties {
		row, ok := table.Weights[feature]
		if !ok {
			row = FeatureWeight{Feature: feature, Category: categoryOf(feature), Trend: TrendStable}
		}
		oldWeight := row.Weight
		newWeight := ClampWeight(oldWeight + penalty)
		if math.Abs(newWeight-oldWeight) <= minApplyDelta {
			continue
		}
		applyAdjustment(&row, newWeight, now)
		table.Weights[feature] = row
		table.UpdatedAt = now
		out = append(out, WeightAdjustment{Feature: feature, OldWeight: oldWeight, NewWeight: newWeight, Applied: true})
	}
	return out
}

func categoryOf(feature string) FeatureCategory {
	if spec, ok := LookupFeature(feature); ok {
		return spec.Category
	}
	return CategoryDiscovery
}
