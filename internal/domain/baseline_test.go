package domain

import (
	"math"
	"testing"
	"time"
)

func TestBaselineUpdateWelford(t *testing.T) {
	var b AccountBaseline
	now := time.Now().UTC()
	for _, ctr := range []float64{0.01, 0.02, 0.03} {
		b.Update(OutcomeResult{CTR: ctr, SuccessScore: 60}, now)
	}
	if b.SampleSize != 3 {
		t.Fatalf("expected sample size 3, got %d", b.SampleSize)
	}
	if math.Abs(b.CTR.Mean-0.02) > 1e-9 {
		t.Fatalf("expected CTR mean 0.02, got %v", b.CTR.Mean)
	}
	wantStd := math.Sqrt((math.Pow(0.01-0.02, 2) + math.Pow(0.02-0.02, 2) + math.Pow(0.03-0.02, 2)) / 3)
	if math.Abs(b.CTR.StdDev(b.SampleSize)-wantStd) > 1e-9 {
		t.Fatalf("expected stddev %v, got %v", wantStd, b.CTR.StdDev(b.SampleSize))
	}
}

func TestNormalizeColdStartUsesPriors(t *testing.T) {
	var b AccountBaseline
	// Exactly the tiktok prior means: every z-score is zero.
	got := b.Normalize(OutcomeResult{
		Platform:       "tiktok",
		Impressions:    1000,
		CTR:            0.03,
		ConversionRate: 0.015,
		ROAS:           2.0,
		SuccessScore:   65,
	})
	if !got.UsingPriors {
		t.Fatalf("empty baseline should use platform priors")
	}
	if got.Percentile != 50 {
		t.Fatalf("prior-mean outcome should land on the 50th percentile, got %d", got.Percentile)
	}
	if got.CombinedZ != 0 {
		t.Fatalf("expected combined z of 0, got %v", got.CombinedZ)
	}
}

func TestNormalizeAboveAccountMean(t *testing.T) {
	var b AccountBaseline
	now := time.Now().UTC()
	for _, ctr := range []float64{0.01, 0.012, 0.014, 0.016, 0.018, 0.02} {
		b.Update(OutcomeResult{CTR: ctr, Impressions: 1000, SuccessScore: 55}, now)
	}
	got := b.Normalize(OutcomeResult{CTR: 0.05, Impressions: 1000, SuccessScore: 80})
	if got.UsingPriors {
		t.Fatalf("six samples should clear the cold-start threshold")
	}
	if got.Percentile <= 50 {
		t.Fatalf("outcome above the account mean should exceed the 50th percentile, got %d", got.Percentile)
	}
}

func TestPriorForUnknownPlatform(t *testing.T) {
	got := PriorFor("myspace")
	if got.Platform != "default" {
		t.Fatalf("unknown platform should fall back to the default prior, got %q", got.Platform)
	}
	if PriorFor(" TikTok ").Platform != "tiktok" {
		t.Fatalf("platform lookup should be case and whitespace insensitive")
	}
}

func TestZToPercentileEndpoints(t *testing.T) {
	if p := zToPercentile(0); p != 50 {
		t.Fatalf("z=0 should map to 50, got %d", p)
	}
	if p := zToPercentile(10); p != 100 {
		t.Fatalf("large positive z should saturate at 100, got %d", p)
	}
	if p := zToPercentile(-10); p != 0 {
		t.Fatalf("large negative z should saturate at 0, got %d", p)
	}
}
