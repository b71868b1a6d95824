package domain

import (
	"math"
	"testing"
)

func TestSimilarityIdenticalCreatives(t *testing.T) {
	a := CreativeTraits{Platform: "tiktok", HookType: "instant", ContentCategory: "fitness", IsUGC: true}
	if got := Similarity(a, a); got != 1 {
		t.Fatalf("identical creatives should score 1, got %v", got)
	}
}

func TestSimilarityMissingAttributesDropFromDenominator(t *testing.T) {
	a := CreativeTraits{Platform: "tiktok"}
	b := CreativeTraits{Platform: "tiktok"}
	// Only platform (20) plus the always-present booleans (ugc 10, subtitles 8,
	// voiceover 8) participate; all agree.
	if got := Similarity(a, b); got != 1 {
		t.Fatalf("agreeing on every comparable attribute should score 1, got %v", got)
	}

	c := CreativeTraits{Platform: "instagram"}
	got := Similarity(a, c)
	want := 26.0 / 46.0 // booleans agree, platform does not
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTopNeighborsFilterAndNormalize(t *testing.T) {
	target := CreativeTraits{Platform: "tiktok", HookType: "instant", ContentCategory: "fitness", IsUGC: true}
	corpus := []AdRecord{
		{AdID: "close", Traits: target, Outcome: &OutcomeResult{SuccessScore: 80}},
		{AdID: "far", Traits: CreativeTraits{Platform: "facebook", HookType: "story", ContentCategory: "saas"}, Outcome: &OutcomeResult{SuccessScore: 20}},
		{AdID: "no_outcome", Traits: target},
	}

	neighbors := TopNeighbors(target, corpus, 0.5, 10)
	if len(neighbors) != 1 {
		t.Fatalf("expected only the close ad with an outcome, got %+v", neighbors)
	}
	if neighbors[0].AdID != "close" || neighbors[0].Weight != 1 {
		t.Fatalf("single neighbor should carry full weight: %+v", neighbors[0])
	}
}

func TestTopNeighborsCapsAtK(t *testing.T) {
	target := CreativeTraits{Platform: "tiktok", HookType: "instant", IsUGC: true}
	corpus := make([]AdRecord, 0, 5)
	for i := 0; i < 5; i++ {
		corpus = append(corpus, AdRecord{
			AdID:    string(rune('a' + i)),
			Traits:  target,
			Outcome: &OutcomeResult{SuccessScore: 60},
		})
	}
	neighbors := TopNeighbors(target, corpus, 0.5, 3)
	if len(neighbors) != 3 {
		t.Fatalf("expected 3 neighbors, got %d", len(neighbors))
	}
	var total float64
	for _, n := range neighbors {
		total += n.Weight
	}
	if math.Abs(total-1) > 1e-9 {
		t.Fatalf("neighbor weights should sum to 1, got %v", total)
	}
}

func TestEstimateFromNeighbors(t *testing.T) {
	if _, ok := EstimateFromNeighbors(nil); ok {
		t.Fatalf("no neighbors should yield no estimate")
	}
	neighbors := []Neighbor{
		{AdID: "a", Similarity: 1, Weight: 0.5, Outcome: 80},
		{AdID: "b", Similarity: 1, Weight: 0.5, Outcome: 40},
	}
	est, ok := EstimateFromNeighbors(neighbors)
	if !ok {
		t.Fatalf("expected an estimate")
	}
	if est.Score != 60 {
		t.Fatalf("expected weighted score 60, got %d", est.Score)
	}
	if est.Confidence != 70 {
		t.Fatalf("expected confidence 70 (avg sim 1 * 50 + 2 * 10), got %d", est.Confidence)
	}
}

func TestBlendScoresCapAndPassthrough(t *testing.T) {
	if got := BlendScores(60, HistoricalEstimate{Score: 90, Confidence: 20}, true); got != 60 {
		t.Fatalf("low-confidence history should leave the model score untouched, got %d", got)
	}
	if got := BlendScores(60, HistoricalEstimate{}, false); got != 60 {
		t.Fatalf("missing history should leave the model score untouched, got %d", got)
	}

	// Confidence 100 wants weight 0.5, capped at 0.4: 60*0.6 + 100*0.4 = 76.
	if got := BlendScores(60, HistoricalEstimate{Score: 100, Confidence: 100}, true); got != 76 {
		t.Fatalf("expected capped blend of 76, got %d", got)
	}
}
