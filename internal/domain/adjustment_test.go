package domain

import (
	"math"
	"testing"
	"time"
)

func TestAdjustWeightsActiveMode(t *testing.T) {
	table := NewWeightTable()
	table.Weights["ugc"] = FeatureWeight{Feature: "ugc", Weight: 0.2, ConfidenceLevel: 40, SampleSize: 3}
	now := time.Now().UTC()

	adjustments := AdjustWeights(&table, []string{"ugc"}, 30, 0.1, ModeActive, now)
	if len(adjustments) != 1 {
		t.Fatalf("expected 1 adjustment, got %d", len(adjustments))
	}
	adj := adjustments[0]
	if !adj.Applied {
		t.Fatalf("active mode should apply the adjustment")
	}
	want := 0.2 + 30.0/100*0.1
	if math.Abs(adj.NewWeight-want) > 1e-9 {
		t.Fatalf("expected new weight %v, got %v", want, adj.NewWeight)
	}
	row := table.Weights["ugc"]
	if row.Trend != TrendRising {
		t.Fatalf("positive delta should mark the trend rising, got %s", row.Trend)
	}
	if row.SampleSize != 4 || row.ConfidenceLevel != 42 {
		t.Fatalf("sample size and confidence should advance, got %d/%d", row.SampleSize, row.ConfidenceLevel)
	}
}

func TestAdjustWeightsFallbackOnlyComputesWithoutWriting(t *testing.T) {
	table := NewWeightTable()
	table.Weights["ugc"] = FeatureWeight{Feature: "ugc", Weight: 0.2}
	now := time.Now().UTC()

	adjustments := AdjustWeights(&table, []string{"ugc"}, 30, 0.1, ModeFallbackOnly, now)
	if len(adjustments) != 1 || adjustments[0].Applied {
		t.Fatalf("fallback_only should compute but never apply: %+v", adjustments)
	}
	if table.Weights["ugc"].Weight != 0.2 {
		t.Fatalf("fallback_only must leave the table untouched, got %v", table.Weights["ugc"].Weight)
	}
}

func TestAdjustWeightsFrozenMode(t *testing.T) {
	table := NewWeightTable()
	table.Weights["ugc"] = FeatureWeight{Feature: "ugc", Weight: 0.2}
	if got := AdjustWeights(&table, []string{"ugc"}, 40, 0.1, ModeFrozen, time.Now().UTC()); got != nil {
		t.Fatalf("frozen mode should return nil, got %+v", got)
	}
	if table.Weights["ugc"].Weight != 0.2 {
		t.Fatalf("frozen mode must not touch the table")
	}
}

func TestAdjustWeightsNoiseFloor(t *testing.T) {
	table := NewWeightTable()
	table.Weights["ugc"] = FeatureWeight{Feature: "ugc", Weight: 0.2}
	now := time.Now().UTC()

	// delta 5 -> adjustment 0.005, below the 0.01 noise floor.
	adjustments := AdjustWeights(&table, []string{"ugc"}, 5, 0.1, ModeActive, now)
	if adjustments[0].Applied {
		t.Fatalf("noise-level correction should not be applied")
	}
	if table.Weights["ugc"].Weight != 0.2 {
		t.Fatalf("table changed on a noise-level correction")
	}
}

func TestAdjustWeightsClampsAtBounds(t *testing.T) {
	table := NewWeightTable()
	table.Weights["ugc"] = FeatureWeight{Feature: "ugc", Weight: 0.99}
	now := time.Now().UTC()
	AdjustWeights(&table, []string{"ugc"}, 50, 1.0, ModeActive, now)
	if got := table.Weights["ugc"].Weight; got != 1 {
		t.Fatalf("weight should clamp at 1, got %v", got)
	}
}

func TestApplyNegativeWeights(t *testing.T) {
	table := NewWeightTable()
	table.Weights["discount"] = FeatureWeight{Feature: "discount", Weight: 0.1}
	now := time.Now().UTC()

	applied := ApplyNegativeWeights(&table, map[string]float64{"discount": -0.05}, ModeActive, now)
	if len(applied) != 1 || !applied[0].Applied {
		t.Fatalf("expected one applied penalty, got %+v", applied)
	}
	if got := table.Weights["discount"].Weight; math.Abs(got-0.05) > 1e-9 {
		t.Fatalf("expected weight 0.05, got %v", got)
	}
	if table.Weights["discount"].Trend != TrendFalling {
		t.Fatalf("penalty should mark the trend falling")
	}

	if got := ApplyNegativeWeights(&table, map[string]float64{"discount": -0.05}, ModeFallbackOnly, now); got != nil {
		t.Fatalf("penalties outside active mode should be dropped, got %+v", got)
	}
}

func TestParseWeightMode(t *testing.T) {
	for _, valid := range []string{"active", "fallback_only", "frozen"} {
		if _, ok := ParseWeightMode(valid); !ok {
			t.Fatalf("%q should parse", valid)
		}
	}
	if _, ok := ParseWeightMode("learning"); ok {
		t.Fatalf("unknown mode should not parse")
	}
}
