package domain

import (
	"math"
	"time"
)

type PredictionOutcome string

const (
	OutcomeAccurate        PredictionOutcome = "accurate"
	OutcomeMinorError      PredictionOutcome = "minor_error"
	OutcomeHighError       PredictionOutcome = "high_error"
	OutcomeSurpriseSuccess PredictionOutcome = "surprise_success"
	OutcomeSurpriseFailure PredictionOutcome = "surprise_failure"
)

// PredictionRecord tracks one prediction from creation to reconciliation.
// A record is reconciled exactly once and never re-opened.
type PredictionRecord struct {
	PredictionID      string             `json:"prediction_id"`
	AdID              string             `json:"ad_id"`
	PredictedScore    int                `json:"predicted_score"`
	PredictedAt       time.Time          `json:"predicted_at"`
	WeightsUsed       map[string]float64 `json:"weights_used"`
	AudienceSegment   string             `json:"audience_segment,omitempty"`
	ActualScore       *int               `json:"actual_score,omitempty"`
	Delta             *int               `json:"delta,omitempty"`
	DeltaPercent      *float64           `json:"delta_percent,omitempty"`
	IsHighError       bool               `json:"is_high_error"`
	IsSurpriseSuccess bool               `json:"is_surprise_success"`
	IsSurpriseFailure bool               `json:"is_surprise_failure"`
	CorrectionApplied bool               `json:"correction_applied"`
	ReconciledAt      *time.Time         `json:"reconciled_at,omitempty"`
}

func (r PredictionRecord) Reconciled() bool {
	return r.ActualScore != nil
}

const (
	highErrorDeltaPercent = 50.0
	accurateDeltaPercent  = 20.0
	surpriseLowScore      = 50
	surpriseHighScore     = 70
)

// Reconcile closes the record against the actual score and classifies the
// error. Calling it on an already reconciled record is a no-op.
func (r *PredictionRecord) Reconcile(actualScore int, now time.Time) PredictionOutcome {
	if r.Reconciled() {
		return r.Outcome()
	}
	delta := actualScore - r.PredictedScore
	deltaPercent := math.Abs(float64(delta)) / math.Max(float64(r.PredictedScore), 1) * 100

	r.ActualScore = &actualScore
	r.Delta = &delta
	r.DeltaPercent = &deltaPercent
	r.IsHighError = deltaPercent > highErrorDeltaPercent
	r.IsSurpriseSuccess = r.PredictedScore < surpriseLowScore && actualScore >= surpriseHighScore
	r.IsSurpriseFailure = r.PredictedScore >= surpriseHighScore && actualScore < surpriseLowScore
	r.ReconciledAt = &now
	return r.Outcome()
}

// Outcome classifies a reconciled record; surprises dominate plain error size.
func (r PredictionRecord) Outcome() PredictionOutcome {
	switch {
	case !r.Reconciled():
		return ""
	case r.IsSurpriseSuccess:
		return OutcomeSurpriseSuccess
	case r.IsSurpriseFailure:
		return OutcomeSurpriseFailure
	case r.IsHighError:
		return OutcomeHighError
	case r.DeltaPercent != nil && *r.DeltaPercent <= accurateDeltaPercent:
		return OutcomeAccurate
	default:
		return OutcomeMinorError
	}
}

// AccuracyRate is the share of reconciled records within the accurate band.
// Deliberately unwindowed: the whole history counts, matching how the account
// level stats are reported elsewhere.
func AccuracyRate(records []PredictionRecord) float64 {
	var reconciled, accurate int
	for _, r := range records {
		if !r.Reconciled() {
			continue
		}
		reconciled++
		if r.DeltaPercent != nil && *r.DeltaPercent <= accurateDeltaPercent {
			accurate++
		}
	}
	if reconciled == 0 {
		return 0
	}
	return float64(accurate) / float64(reconciled)
}
