package domain

import (
	"testing"
	"time"
)

func testSegments(now time.Time) SegmentSet {
	young := AudienceSegment{SegmentID: "young", Name: "Young Adults", IsActive: true, Weights: NewWeightTable()}
	young.Weights.Weights["ugc"] = FeatureWeight{Feature: "ugc", Weight: 0.5}
	older := AudienceSegment{SegmentID: "older", Name: "Older Adults", IsActive: true, Weights: NewWeightTable()}
	older.Weights.Weights["ugc"] = FeatureWeight{Feature: "ugc", Weight: -0.3}
	dormant := AudienceSegment{SegmentID: "dormant", Name: "Dormant", IsActive: false, Weights: NewWeightTable()}
	return SegmentSet{Segments: []AudienceSegment{young, older, dormant}, UpdatedAt: now}
}

func TestScoreAllSkipsInactiveSegments(t *testing.T) {
	set := testSegments(time.Now().UTC())
	scores := set.ScoreAll([]string{"ugc"})
	if len(scores) != 2 {
		t.Fatalf("inactive segment should be excluded, got %d scores", len(scores))
	}
	if scores[0].Score != 55 || scores[1].Score != 47 {
		t.Fatalf("unexpected segment scores: %+v", scores)
	}
}

func TestBestSegmentPicksHighest(t *testing.T) {
	set := testSegments(time.Now().UTC())
	best, ok := set.BestSegment([]string{"ugc"})
	if !ok || best.SegmentID != "young" {
		t.Fatalf("expected young segment to win, got %+v", best)
	}

	empty := SegmentSet{}
	if _, ok := empty.BestSegment([]string{"ugc"}); ok {
		t.Fatalf("no segments should yield no best")
	}
}

func TestScoreSegmentUnknownFallsBack(t *testing.T) {
	set := testSegments(time.Now().UTC())
	if got := set.ScoreSegment("missing", []string{"ugc"}); got != 50 {
		t.Fatalf("unknown segment should score neutral 50, got %d", got)
	}
}

func TestUpdateSegmentWeights(t *testing.T) {
	now := time.Now().UTC()
	set := testSegments(now)

	adjustments := set.UpdateSegmentWeights("young", []string{"ugc"}, 30, 80, 0.1, ModeActive, now)
	if len(adjustments) != 1 || !adjustments[0].Applied {
		t.Fatalf("expected one applied segment adjustment, got %+v", adjustments)
	}
	seg := set.Find("young")
	if seg.TotalAds != 1 || seg.AvgSuccessRate != 80 {
		t.Fatalf("running stats not updated: %+v", seg)
	}
	// The other segment's table must stay untouched.
	if set.Find("older").Weights.Weights["ugc"].Weight != -0.3 {
		t.Fatalf("adjustment leaked across segments")
	}

	if got := set.UpdateSegmentWeights("missing", []string{"ugc"}, 30, 80, 0.1, ModeActive, now); got != nil {
		t.Fatalf("unknown segment should be a no-op, got %+v", got)
	}
}
