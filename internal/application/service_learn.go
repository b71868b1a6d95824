package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/contracts"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

// LearnResult reports everything the feedback loop did with one outcome.
type LearnResult struct {
	AdID               string                     `json:"ad_id"`
	PredictionID       string                     `json:"prediction_id,omitempty"`
	AnalysisType       string                     `json:"analysis_type"`
	ActualScore        int                        `json:"actual_score"`
	Normalized         domain.NormalizedScore     `json:"normalized"`
	Adjustments        []domain.WeightAdjustment  `json:"adjustments"`
	FailureAnalysis    *domain.FailureAnalysis    `json:"failure_analysis,omitempty"`
	DiscoveredFeatures []domain.DiscoveredFeature `json:"discovered_features"`
	Recommendations    []string                   `json:"recommendations"`
	Mode               string                     `json:"mode"`
	RecalcQueued       bool                       `json:"recalc_queued"`
}

// failureAnalysisCutoff is the actual score below which the classifier runs.
const failureAnalysisCutoff = 50

// LearnFromOutcome folds one observed outcome back into the engine: baseline
// statistics, prediction reconciliation, weight corrections, failure
// classification and, for surprises, feature discovery. The operation is
// idempotent under Actor.IdempotencyKey.
func (s *Service) LearnFromOutcome(ctx context.Context, actor Actor, adID string, req contracts.OutcomeRequest) (*LearnResult, error) {
	if adID == "" {
		return nil, fmt.Errorf("%w: ad_id is required", domain.ErrInvalidInput)
	}
	if req.Impressions < 0 || req.Clicks < 0 || req.Spend < 0 {
		return nil, fmt.Errorf("%w: negative outcome metrics", domain.ErrInvalidInput)
	}
	if req.SuccessScore != nil && (*req.SuccessScore < 0 || *req.SuccessScore > 100) {
		return nil, fmt.Errorf("%w: success_score must be within [0,100]", domain.ErrInvalidInput)
	}

	if actor.IdempotencyKey != "" {
		if cached, done, err := s.beginIdempotent(ctx, actor.IdempotencyKey, adID, req); err != nil {
			return nil, err
		} else if done {
			return cached, nil
		}
	}

	ad, err := s.ads.GetByID(ctx, adID)
	if err != nil {
		return nil, fmt.Errorf("load ad %s: %w", adID, err)
	}

	outcome := domain.OutcomeResult{
		Impressions:    req.Impressions,
		Clicks:         req.Clicks,
		CTR:            req.CTR,
		ConversionRate: req.ConversionRate,
		ROAS:           req.ROAS,
		Spend:          req.Spend,
		Platform:       req.Platform,
	}
	if req.SuccessScore != nil {
		outcome.SuccessScore = *req.SuccessScore
	}
	if outcome.Platform == "" {
		outcome.Platform = ad.Traits.Platform
	}
	if outcome.CTR == 0 && outcome.Impressions > 0 {
		outcome.CTR = float64(outcome.Clicks) / float64(outcome.Impressions)
	}

	now := s.nowFn()

	// Baseline first: normalization of this outcome must see it.
	unlock := s.lockKey(KeyBaseline)
	baseline, err := s.loadBaseline(ctx)
	if err != nil {
		unlock()
		return nil, err
	}
	baseline.Update(outcome, now)
	if err := s.writeStateTracked(ctx, domain.HistoryBaselineUpdate, KeyBaseline, baseline); err != nil {
		unlock()
		return nil, err
	}
	unlock()

	normalized := baseline.Normalize(outcome)
	// An absent success_score falls back to the baseline percentile; an
	// explicit 0 is a real observation and stands.
	actualScore := normalized.Percentile
	if req.SuccessScore != nil {
		actualScore = *req.SuccessScore
	}
	outcome.SuccessScore = actualScore

	if err := s.ads.SetOutcome(ctx, adID, outcome, now); err != nil {
		return nil, fmt.Errorf("store outcome %s: %w", adID, err)
	}
	ad.Outcome = &outcome

	prediction, hasPrediction, err := s.resolvePrediction(ctx, adID, req.PredictionID)
	if err != nil {
		return nil, err
	}

	analysisType := ""
	delta := actualScore - 50
	if hasPrediction {
		outcomeClass := prediction.Reconcile(actualScore, now)
		analysisType = string(outcomeClass)
		delta = *prediction.Delta
		if err := s.predictions.Update(ctx, prediction); err != nil {
			return nil, fmt.Errorf("update prediction: %w", err)
		}
		s.emitEvent(ctx, contracts.EventOutcomeReconciled, adID, contracts.OutcomeReconciledData{
			AdID:         adID,
			PredictionID: prediction.PredictionID,
			ActualScore:  actualScore,
			Delta:        delta,
			AnalysisType: analysisType,
		})
	}

	mode, err := s.loadWeightMode(ctx)
	if err != nil {
		return nil, err
	}

	// Discovery suggestions come from the oracle before the weight lock is
	// taken; the oracle is the slow path and must not extend the lock hold.
	var suggestions []domain.FeatureSuggestion
	var discoveryReason domain.DiscoveryReason
	if hasPrediction && (prediction.IsSurpriseSuccess || prediction.IsSurpriseFailure) {
		discoveryReason = domain.DiscoverySurpriseSuccess
		if prediction.IsSurpriseFailure {
			discoveryReason = domain.DiscoverySurpriseFailure
		}
		suggestions = s.suggestFeatures(ctx, ad.Traits, outcome, discoveryReason)
	}

	corpus, err := s.ads.List(ctx, corpusScanLimit)
	if err != nil {
		return nil, fmt.Errorf("load ad corpus: %w", err)
	}
	discovered := s.recordDiscoveries(ctx, adID, discoveryReason, suggestions, corpus, now)

	features := ad.Traits.FeatureNames()

	unlock = s.lockKey(KeyGlobalWeights)
	table, err := s.loadWeightTable(ctx)
	if err != nil {
		unlock()
		return nil, err
	}
	adjustments := domain.AdjustWeights(&table, features, delta, s.cfg.LearningRate, mode, now)
	tableChanged := anyApplied(adjustments)

	var failure *domain.FailureAnalysis
	if actualScore < failureAnalysisCutoff {
		analysis := domain.ClassifyFailure(adID, ad.Traits, outcome)
		failure = &analysis
		if analysis.Class != domain.FailureUnknown {
			pattern := domain.FailurePattern{
				PatternID: uuid.NewString(),
				Class:     analysis.Class,
				AdID:      adID,
				Features:  features,
				Evidence:  analysis.Evidence,
				CreatedAt: now,
			}
			if err := s.patterns.Create(ctx, pattern); err != nil {
				s.logger.Warn("failure pattern store failed",
					"module", s.cfg.ServiceName, "layer", "application",
					"ad_id", adID, "error", err)
			}
			penalties := domain.ApplyNegativeWeights(&table, analysis.LearnedNegativeWeights, mode, now)
			if len(penalties) > 0 {
				tableChanged = true
				adjustments = append(adjustments, penalties...)
			}
		}
	}

	for i := range discovered {
		if !discovered[i].IsActive {
			continue
		}
		if _, exists := table.Weights[discovered[i].Name]; exists {
			continue
		}
		initial := 0.1
		if discoveryReason == domain.DiscoverySurpriseFailure {
			initial = -0.1
		}
		table.AddNewWeight(discovered[i].Name, domain.CategoryDiscovery, initial, now)
		tableChanged = true
	}

	if tableChanged {
		if err := s.writeStateTracked(ctx, domain.HistoryWeightAdjustment, KeyGlobalWeights, table); err != nil {
			unlock()
			return nil, err
		}
	}
	unlock()

	if hasPrediction && anyApplied(adjustments) {
		prediction.CorrectionApplied = true
		if err := s.predictions.Update(ctx, prediction); err != nil {
			return nil, fmt.Errorf("mark correction applied: %w", err)
		}
	}

	if hasPrediction && prediction.AudienceSegment != "" {
		if err := s.updateSegment(ctx, prediction.AudienceSegment, features, delta, actualScore, mode, now); err != nil {
			return nil, err
		}
	}

	recalcQueued := false
	if tableChanged {
		recalcQueued = s.recalc.Enqueue("weight_adjustment")
		if !recalcQueued {
			s.logger.Warn("recalculation trigger dropped",
				"module", s.cfg.ServiceName, "layer", "application", "ad_id", adID)
		}
		s.emitEvent(ctx, contracts.EventWeightsAdjusted, adID, contracts.WeightsAdjustedData{
			AdID:          adID,
			AppliedCount:  countApplied(adjustments),
			ComputedCount: len(adjustments),
			Mode:          string(mode),
		})
	}

	result := &LearnResult{
		AdID:               adID,
		AnalysisType:       analysisType,
		ActualScore:        actualScore,
		Normalized:         normalized,
		Adjustments:        adjustments,
		FailureAnalysis:    failure,
		DiscoveredFeatures: discovered,
		Recommendations:    buildRecommendations(failure, adjustments, discovered, mode),
		Mode:               string(mode),
		RecalcQueued:       recalcQueued,
	}
	if hasPrediction {
		result.PredictionID = prediction.PredictionID
	}

	if actor.IdempotencyKey != "" {
		s.completeIdempotent(ctx, actor.IdempotencyKey, result)
	}

	s.logger.Info("outcome learned",
		"module", s.cfg.ServiceName, "layer", "application", "operation", "learn_from_outcome",
		"outcome", "success", "ad_id", adID, "actual_score", actualScore,
		"analysis_type", analysisType, "applied", countApplied(adjustments),
		"mode", string(mode), "request_id", actor.RequestID)
	return result, nil
}

// resolvePrediction finds the record to reconcile: the explicit ID when given,
// otherwise the oldest open prediction for the ad. No open record is not an
// error; learning proceeds without reconciliation.
func (s *Service) resolvePrediction(ctx context.Context, adID, predictionID string) (domain.PredictionRecord, bool, error) {
	if predictionID != "" {
		record, err := s.predictions.GetByID(ctx, predictionID)
		if err != nil {
			return domain.PredictionRecord{}, false, fmt.Errorf("load prediction %s: %w", predictionID, err)
		}
		if record.AdID != adID {
			return domain.PredictionRecord{}, false, fmt.Errorf("%w: prediction %s belongs to a different ad", domain.ErrInvalidInput, predictionID)
		}
		if record.Reconciled() {
			return domain.PredictionRecord{}, false, fmt.Errorf("%w: prediction %s already reconciled", domain.ErrConflict, predictionID)
		}
		return record, true, nil
	}
	record, err := s.predictions.FindOpenByAdID(ctx, adID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.PredictionRecord{}, false, nil
	}
	if err != nil {
		return domain.PredictionRecord{}, false, fmt.Errorf("find open prediction: %w", err)
	}
	return record, true, nil
}

// suggestFeatures asks the oracle under a deadline and falls back to the
// local combination bank on any error or invalid response.
func (s *Service) suggestFeatures(ctx context.Context, traits domain.CreativeTraits, outcome domain.OutcomeResult, reason domain.DiscoveryReason) []domain.FeatureSuggestion {
	oracleCtx, cancel := context.WithTimeout(ctx, s.cfg.OracleTimeout)
	defer cancel()
	suggestions, err := s.oracle.SuggestFeatures(oracleCtx, traits, outcome, reason)
	if err == nil {
		for _, suggestion := range suggestions {
			if !suggestion.Valid() {
				err = fmt.Errorf("%w: invalid suggestion %q", domain.ErrOracleUnavailable, suggestion.Name)
				break
			}
		}
	}
	if err != nil {
		s.logger.Warn("feature oracle unavailable, using local fallback",
			"module", s.cfg.ServiceName, "layer", "application",
			"reason", string(reason), "error", err)
		return domain.FallbackSuggestions(traits, reason)
	}
	return suggestions
}

// recordDiscoveries upserts each suggestion as a discovered feature and runs
// lifecycle validation against the high-performing corpus.
func (s *Service) recordDiscoveries(ctx context.Context, adID string, reason domain.DiscoveryReason, suggestions []domain.FeatureSuggestion, corpus []domain.AdRecord, now time.Time) []domain.DiscoveredFeature {
	out := make([]domain.DiscoveredFeature, 0, len(suggestions))
	for _, suggestion := range suggestions {
		feature, err := s.discovered.GetByName(ctx, suggestion.Name)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			feature = domain.DiscoveredFeature{
				FeatureID:          uuid.NewString(),
				Name:               suggestion.Name,
				Description:        suggestion.Description,
				DiscoveredFrom:     adID,
				DiscoveryReason:    string(reason),
				Criteria:           suggestion.Criteria,
				SuccessCorrelation: suggestion.Correlation,
				CreatedAt:          now,
			}
		case err != nil:
			s.logger.Warn("discovered feature lookup failed",
				"module", s.cfg.ServiceName, "layer", "application",
				"feature", suggestion.Name, "error", err)
			continue
		default:
			if suggestion.Correlation > feature.SuccessCorrelation {
				feature.SuccessCorrelation = suggestion.Correlation
			}
		}
		domain.ValidateDiscoveredFeature(&feature, corpus, now)
		if err := s.discovered.Upsert(ctx, feature); err != nil {
			s.logger.Warn("discovered feature store failed",
				"module", s.cfg.ServiceName, "layer", "application",
				"feature", feature.Name, "error", err)
			continue
		}
		out = append(out, feature)
	}
	return out
}

// DiscoverFeatures runs feature discovery for one ad on demand, outside the
// feedback loop, analyzing the outcome already on record. Active discoveries
// are promoted into the weight table the same way surprise-driven ones are.
func (s *Service) DiscoverFeatures(ctx context.Context, actor Actor, adID string) ([]domain.DiscoveredFeature, error) {
	if adID == "" {
		return nil, fmt.Errorf("%w: ad_id is required", domain.ErrInvalidInput)
	}
	ad, err := s.ads.GetByID(ctx, adID)
	if err != nil {
		return nil, fmt.Errorf("load ad %s: %w", adID, err)
	}
	if ad.Outcome == nil {
		return nil, fmt.Errorf("%w: ad %s has no recorded outcome to analyze", domain.ErrInvalidInput, adID)
	}

	suggestions := s.suggestFeatures(ctx, ad.Traits, *ad.Outcome, domain.DiscoveryPatternAnalysis)
	corpus, err := s.ads.List(ctx, corpusScanLimit)
	if err != nil {
		return nil, fmt.Errorf("load ad corpus: %w", err)
	}
	now := s.nowFn()
	discovered := s.recordDiscoveries(ctx, adID, domain.DiscoveryPatternAnalysis, suggestions, corpus, now)

	promoted := 0
	unlock := s.lockKey(KeyGlobalWeights)
	table, err := s.loadWeightTable(ctx)
	if err != nil {
		unlock()
		return nil, err
	}
	for i := range discovered {
		if !discovered[i].IsActive {
			continue
		}
		if _, exists := table.Weights[discovered[i].Name]; exists {
			continue
		}
		table.AddNewWeight(discovered[i].Name, domain.CategoryDiscovery, 0.1, now)
		promoted++
	}
	if promoted > 0 {
		if err := s.writeStateTracked(ctx, domain.HistoryWeightAdjustment, KeyGlobalWeights, table); err != nil {
			unlock()
			return nil, err
		}
	}
	unlock()

	s.logger.Info("pattern analysis completed",
		"module", s.cfg.ServiceName, "layer", "application", "operation", "discover_features",
		"outcome", "success", "ad_id", adID, "discovered", len(discovered),
		"promoted", promoted, "request_id", actor.RequestID)
	return discovered, nil
}

// updateSegment applies the shared adjustment rule inside one segment table.
func (s *Service) updateSegment(ctx context.Context, segmentID string, features []string, delta, actualScore int, mode domain.WeightMode, now time.Time) error {
	unlock := s.lockKey(KeySegments)
	defer unlock()
	segments, err := s.loadSegments(ctx)
	if err != nil {
		return err
	}
	if segments.Find(segmentID) == nil {
		return nil
	}
	segments.UpdateSegmentWeights(segmentID, features, delta, actualScore, s.cfg.LearningRate, mode, now)
	return s.writeStateTracked(ctx, domain.HistorySegmentUpdate, KeySegments, segments)
}

func anyApplied(adjustments []domain.WeightAdjustment) bool {
	for _, a := range adjustments {
		if a.Applied {
			return true
		}
	}
	return false
}

func countApplied(adjustments []domain.WeightAdjustment) int {
	n := 0
	for _, a := range adjustments {
		if a.Applied {
			n++
		}
	}
	return n
}

// buildRecommendations turns the learning artifacts into short actionable
// lines for the caller's dashboard.
func buildRecommendations(failure *domain.FailureAnalysis, adjustments []domain.WeightAdjustment, discovered []domain.DiscoveredFeature, mode domain.WeightMode) []string {
	out := []string{}
	if failure != nil && failure.Class != domain.FailureUnknown {
		out = append(out, fmt.Sprintf("dominant failure class is %s; address: %s", failure.Class, strings.Join(failure.Evidence, "; ")))
	}
	if applied := countApplied(adjustments); applied > 0 {
		out = append(out, fmt.Sprintf("%d feature weight(s) corrected from this outcome", applied))
	} else if len(adjustments) > 0 && mode != domain.ModeActive {
		out = append(out, fmt.Sprintf("weight corrections computed but not applied (mode %s)", mode))
	}
	for _, feature := range discovered {
		switch {
		case feature.IsActive:
			out = append(out, fmt.Sprintf("new signal %q validated and active in scoring", feature.Name))
		case feature.IsValidated:
			out = append(out, fmt.Sprintf("candidate signal %q validated, awaiting stronger correlation", feature.Name))
		default:
			out = append(out, fmt.Sprintf("candidate signal %q recorded, needs corroborating ads", feature.Name))
		}
	}
	return out
}

// beginIdempotent returns the cached result when the key has already
// completed, reserving the key otherwise. A replay with different request
// content is rejected.
func (s *Service) beginIdempotent(ctx context.Context, key, adID string, req contracts.OutcomeRequest) (*LearnResult, bool, error) {
	now := s.nowFn()
	hash := hashOutcomeRequest(adID, req)
	record, err := s.idempotency.Get(ctx, key, now)
	if err != nil {
		return nil, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	if record != nil {
		if record.RequestHash != hash {
			return nil, false, fmt.Errorf("%w: key %s reused with different request", domain.ErrIdempotencyConflict, key)
		}
		if record.ResponseBody == nil {
			return nil, false, fmt.Errorf("%w: key %s still in flight", domain.ErrConflict, key)
		}
		var cached LearnResult
		if err := json.Unmarshal(record.ResponseBody, &cached); err != nil {
			return nil, false, fmt.Errorf("idempotency replay decode: %w", err)
		}
		return &cached, true, nil
	}
	if err := s.idempotency.Reserve(ctx, key, hash, now.Add(s.cfg.IdempotencyTTL)); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, false, fmt.Errorf("%w: key %s still in flight", domain.ErrConflict, key)
		}
		return nil, false, fmt.Errorf("idempotency reserve: %w", err)
	}
	return nil, false, nil
}

func (s *Service) completeIdempotent(ctx context.Context, key string, result *LearnResult) {
	body, err := json.Marshal(result)
	if err == nil {
		err = s.idempotency.Complete(ctx, key, 200, body, s.nowFn())
	}
	if err != nil {
		s.logger.Warn("idempotency completion failed",
			"module", s.cfg.ServiceName, "layer", "application",
			"key", key, "error", err)
	}
}

func hashOutcomeRequest(adID string, req contracts.OutcomeRequest) string {
	raw, _ := json.Marshal(struct {
		AdID string                   `json:"ad_id"`
		Req  contracts.OutcomeRequest `json:"req"`
	}{adID, req})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
