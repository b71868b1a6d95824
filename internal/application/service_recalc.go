package application

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/contracts"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

// recalcScanLimit bounds one sweep. Accounts past this size recalculate the
// most recently touched ads first.
const recalcScanLimit = 2000

// RecalculateScores rescores every stored ad against the current weight
// table and persists changed scores in one atomic batch. Sweeps serialize on
// an internal mutex; callers may invoke it from any goroutine.
func (s *Service) RecalculateScores(ctx context.Context, trigger string) (*domain.RecalculationLog, error) {
	if trigger == "" {
		trigger = "manual"
	}
	s.recalcMu.Lock()
	defer s.recalcMu.Unlock()

	table, err := s.loadWeightTable(ctx)
	if err != nil {
		return nil, err
	}
	ads, err := s.ads.List(ctx, recalcScanLimit)
	if err != nil {
		return nil, fmt.Errorf("load ads: %w", err)
	}

	now := s.nowFn()
	changed := map[string]int{}
	totalDelta := 0
	for _, ad := range ads {
		next := table.Score(ad.Traits.FeatureNames())
		if delta := next - ad.CurrentScore; delta != 0 {
			changed[ad.AdID] = next
			totalDelta += delta
		}
	}

	log := domain.RecalculationLog{
		RecalcID:      uuid.NewString(),
		Trigger:       trigger,
		AffectedCount: len(changed),
		TotalDelta:    totalDelta,
		CreatedAt:     now,
	}
	if len(changed) > 0 {
		log.AvgDelta = roundTo2(float64(totalDelta) / float64(len(changed)))
		if err := s.ads.UpdateScores(ctx, changed, now); err != nil {
			return nil, fmt.Errorf("apply recalculated scores: %w", err)
		}
	}
	if err := s.recalcLog.Create(ctx, log); err != nil {
		s.logger.Warn("recalculation log store failed",
			"module", s.cfg.ServiceName, "layer", "application",
			"trigger", trigger, "error", err)
	}
	s.emitEvent(ctx, contracts.EventScoresRecalculated, trigger, contracts.ScoresRecalculatedData{
		Trigger:       trigger,
		AffectedCount: log.AffectedCount,
		AvgDelta:      log.AvgDelta,
	})
	s.logger.Info("scores recalculated",
		"module", s.cfg.ServiceName, "layer", "application", "operation", "recalculate",
		"outcome", "success", "trigger", trigger,
		"affected", log.AffectedCount, "avg_delta", log.AvgDelta)
	return &log, nil
}

// TriggerRecalculation hands a sweep to the background worker without
// waiting for it. A full queue drops the trigger and reports false.
func (s *Service) TriggerRecalculation(ctx context.Context, actor Actor, trigger string) bool {
	if trigger == "" {
		trigger = "manual"
	}
	queued := s.recalc.Enqueue(trigger)
	if !queued {
		s.logger.Warn("recalculation trigger dropped",
			"module", s.cfg.ServiceName, "layer", "application",
			"trigger", trigger, "request_id", actor.RequestID)
	}
	return queued
}

// ListRecalculations returns recent sweep summaries, newest first.
func (s *Service) ListRecalculations(ctx context.Context, limit int) ([]domain.RecalculationLog, error) {
	if limit <= 0 {
		limit = 20
	}
	logs, err := s.recalcLog.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recalculations: %w", err)
	}
	return logs, nil
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
