package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/contracts"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

const (
	patternScanLimit = 200
	corpusScanLimit  = 500
)

// PredictResult is the full explainable prediction surface for one creative.
type PredictResult struct {
	AdID          string                     `json:"ad_id"`
	PredictionID  string                     `json:"prediction_id"`
	Score         int                        `json:"score"`
	ModelScore    int                        `json:"model_score"`
	Historical    *domain.HistoricalEstimate `json:"historical,omitempty"`
	SegmentScores []domain.SegmentScore      `json:"segment_scores"`
	BestSegment   *domain.SegmentScore       `json:"best_segment,omitempty"`
	Risk          domain.RiskAssessment      `json:"risk"`
	Confidence    int                        `json:"confidence"`
	Warnings      []string                   `json:"warnings"`
	Validation    domain.FeatureValidation   `json:"validation"`
}

// Predict screens the raw traits, scores the creative against the global and
// segment weight tables, blends in similar historical outcomes and records an
// open prediction for later reconciliation.
func (s *Service) Predict(ctx context.Context, actor Actor, adID string, rawTraits map[string]any) (*PredictResult, error) {
	if adID == "" {
		return nil, fmt.Errorf("%w: ad_id is required", domain.ErrInvalidInput)
	}
	if len(rawTraits) == 0 {
		return nil, fmt.Errorf("%w: traits are required", domain.ErrInvalidInput)
	}

	validation := domain.ValidateInput(rawTraits)
	traits, err := decodeTraits(domain.FilterEligible(rawTraits))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	features := traits.FeatureNames()
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: no scoreable pre-spend attributes in input", domain.ErrInvalidInput)
	}

	table, err := s.loadWeightTable(ctx)
	if err != nil {
		return nil, err
	}
	segments, err := s.loadSegments(ctx)
	if err != nil {
		return nil, err
	}
	baseline, err := s.loadBaseline(ctx)
	if err != nil {
		return nil, err
	}
	patterns, err := s.patterns.List(ctx, patternScanLimit)
	if err != nil {
		return nil, fmt.Errorf("load failure patterns: %w", err)
	}
	corpus, err := s.ads.List(ctx, corpusScanLimit)
	if err != nil {
		return nil, fmt.Errorf("load ad corpus: %w", err)
	}

	modelScore := table.Score(features)
	neighbors := domain.TopNeighbors(traits, corpus, s.cfg.MinSimilarity, s.cfg.NeighborCount)
	estimate, hasHistory := domain.EstimateFromNeighbors(neighbors)
	finalScore := domain.BlendScores(modelScore, estimate, hasHistory)

	segmentScores := segments.ScoreAll(features)
	risk := domain.AssessRisk(traits, finalScore, table, patterns, baseline.SampleSize)

	now := s.nowFn()
	record := domain.AdRecord{AdID: adID, Traits: traits, CurrentScore: finalScore, CreatedAt: now, UpdatedAt: now}
	if existing, err := s.ads.GetByID(ctx, adID); err == nil {
		record.CreatedAt = existing.CreatedAt
		record.Outcome = existing.Outcome
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load ad %s: %w", adID, err)
	}
	if err := s.ads.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("store ad %s: %w", adID, err)
	}

	prediction := domain.PredictionRecord{
		PredictionID:   uuid.NewString(),
		AdID:           adID,
		PredictedScore: finalScore,
		PredictedAt:    now,
		WeightsUsed:    weightsUsed(table, features),
	}
	best, hasBest := segments.BestSegment(features)
	if hasBest {
		prediction.AudienceSegment = best.SegmentID
	}
	if err := s.predictions.Create(ctx, prediction); err != nil {
		return nil, fmt.Errorf("store prediction: %w", err)
	}

	s.emitEvent(ctx, contracts.EventPredictionRecorded, adID, contracts.PredictionRecordedData{
		AdID:           adID,
		PredictionID:   prediction.PredictionID,
		PredictedScore: finalScore,
		RiskTier:       string(risk.Tier),
	})

	result := &PredictResult{
		AdID:          adID,
		PredictionID:  prediction.PredictionID,
		Score:         finalScore,
		ModelScore:    modelScore,
		SegmentScores: segmentScores,
		Risk:          risk,
		Confidence:    risk.Confidence,
		Warnings:      validation.Warnings,
		Validation:    validation,
	}
	if hasHistory {
		result.Historical = &estimate
	}
	if hasBest {
		result.BestSegment = &best
	}

	s.logger.Info("prediction recorded",
		"module", s.cfg.ServiceName, "layer", "application", "operation", "predict",
		"outcome", "success", "ad_id", adID, "score", finalScore,
		"risk_tier", string(risk.Tier), "request_id", actor.RequestID)
	return result, nil
}

// decodeTraits maps a filtered attribute map onto the typed trait struct.
func decodeTraits(input map[string]any) (domain.CreativeTraits, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return domain.CreativeTraits{}, err
	}
	var traits domain.CreativeTraits
	if err := json.Unmarshal(raw, &traits); err != nil {
		return domain.CreativeTraits{}, err
	}
	return traits, nil
}

// weightsUsed captures the weight value of every present feature at
// prediction time, zero for features the table has never seen.
func weightsUsed(table domain.WeightTable, features []string) map[string]float64 {
	used := make(map[string]float64, len(features))
	for _, feature := range features {
		used[feature] = table.Weights[feature].Weight
	}
	return used
}
