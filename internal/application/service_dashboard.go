package application

import (
	"context"
	"fmt"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

const dashboardListLimit = 20

// DashboardStats are the headline counters of the engine.
type DashboardStats struct {
	TotalAds         int     `json:"total_ads"`
	AdsWithOutcome   int     `json:"ads_with_outcome"`
	TotalPredictions int     `json:"total_predictions"`
	Reconciled       int     `json:"reconciled"`
	AccuracyRate     float64 `json:"accuracy_rate"`
	BaselineSamples  int     `json:"baseline_samples"`
	UsingPriors      bool    `json:"using_priors"`
}

// SegmentSummary is the dashboard row for one audience segment.
type SegmentSummary struct {
	SegmentID      string  `json:"segment_id"`
	Name           string  `json:"name"`
	TotalAds       int     `json:"total_ads"`
	AvgSuccessRate float64 `json:"avg_success_rate"`
	IsActive       bool    `json:"is_active"`
	WeightCount    int     `json:"weight_count"`
}

// Dashboard is the full observability surface handed to the UI layer.
type Dashboard struct {
	Stats          DashboardStats             `json:"stats"`
	TopWeights     []domain.FeatureWeight     `json:"top_weights"`
	Segments       []SegmentSummary           `json:"segments"`
	Baseline       domain.AccountBaseline     `json:"baseline"`
	FailureClasses map[string]int             `json:"failure_classes"`
	Discovered     []domain.DiscoveredFeature `json:"discovered_features"`
	RecentHistory  []domain.HistoryEntry      `json:"recent_history"`
	Recalculations []domain.RecalculationLog  `json:"recalculations"`
	Mode           string                     `json:"mode"`
}

// GetDashboard aggregates the engine's learned state for display. Reads are
// lock-free; a dashboard rendered mid-update is acceptable.
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
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
	mode, err := s.loadWeightMode(ctx)
	if err != nil {
		return nil, err
	}
	ads, err := s.ads.List(ctx, recalcScanLimit)
	if err != nil {
		return nil, fmt.Errorf("load ads: %w", err)
	}
	predictions, err := s.predictions.List(ctx, recalcScanLimit)
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}
	failureCounts, err := s.patterns.CountByClass(ctx)
	if err != nil {
		return nil, fmt.Errorf("count failure patterns: %w", err)
	}
	discovered, err := s.discovered.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list discovered features: %w", err)
	}
	history, err := s.history.List(ctx, dashboardListLimit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	recalcs, err := s.recalcLog.List(ctx, dashboardListLimit)
	if err != nil {
		return nil, fmt.Errorf("list recalculations: %w", err)
	}

	stats := DashboardStats{
		TotalAds:         len(ads),
		TotalPredictions: len(predictions),
		AccuracyRate:     roundTo2(domain.AccuracyRate(predictions)),
		BaselineSamples:  baseline.SampleSize,
		UsingPriors:      baseline.SampleSize < 5,
	}
	for _, ad := range ads {
		if ad.Outcome != nil {
			stats.AdsWithOutcome++
		}
	}
	for _, p := range predictions {
		if p.Reconciled() {
			stats.Reconciled++
		}
	}

	segmentRows := make([]SegmentSummary, 0, len(segments.Segments))
	for _, seg := range segments.Segments {
		segmentRows = append(segmentRows, SegmentSummary{
			SegmentID:      seg.SegmentID,
			Name:           seg.Name,
			TotalAds:       seg.TotalAds,
			AvgSuccessRate: roundTo2(seg.AvgSuccessRate),
			IsActive:       seg.IsActive,
			WeightCount:    len(seg.Weights.Weights),
		})
	}

	return &Dashboard{
		Stats:          stats,
		TopWeights:     table.TopWeights(dashboardListLimit),
		Segments:       segmentRows,
		Baseline:       baseline,
		FailureClasses: failureCounts,
		Discovered:     discovered,
		RecentHistory:  history,
		Recalculations: recalcs,
		Mode:           string(mode),
	}, nil
}
