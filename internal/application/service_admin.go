package application

import (
	"context"
	"fmt"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

// SetWeightMode switches how learned corrections participate in scoring and
// learning. The change is tracked in history and therefore undoable.
func (s *Service) SetWeightMode(ctx context.Context, actor Actor, rawMode string) (domain.WeightMode, error) {
	mode, ok := domain.ParseWeightMode(rawMode)
	if !ok {
		return "", fmt.Errorf("%w: unknown weight mode %q", domain.ErrInvalidInput, rawMode)
	}
	unlock := s.lockKey(KeyWeightMode)
	defer unlock()
	current, err := s.loadWeightMode(ctx)
	if err != nil {
		return "", err
	}
	if current == mode {
		return mode, nil
	}
	stored := struct {
		Mode string `json:"mode"`
	}{Mode: string(mode)}
	if err := s.writeStateTracked(ctx, domain.HistoryModeChange, KeyWeightMode, stored); err != nil {
		return "", err
	}
	s.logger.Info("weight mode changed",
		"module", s.cfg.ServiceName, "layer", "application", "operation", "set_weight_mode",
		"outcome", "success", "from", string(current), "to", string(mode),
		"request_id", actor.RequestID)
	return mode, nil
}

// GetWeightMode reports the current mode, defaulting to fallback_only.
func (s *Service) GetWeightMode(ctx context.Context) (domain.WeightMode, error) {
	return s.loadWeightMode(ctx)
}

// ValidateFeatures screens a raw attribute map without scoring anything.
func (s *Service) ValidateFeatures(ctx context.Context, input map[string]any) (domain.FeatureValidation, error) {
	if len(input) == 0 {
		return domain.FeatureValidation{}, fmt.Errorf("%w: input is required", domain.ErrInvalidInput)
	}
	return domain.ValidateInput(input), nil
}

// SegmentInput describes an audience segment to register.
type SegmentInput struct {
	SegmentID string   `json:"segment_id"`
	Name      string   `json:"name"`
	AgeRange  string   `json:"age_range,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	Interests []string `json:"interests,omitempty"`
	Platforms []string `json:"platforms,omitempty"`
}

// UpsertSegment registers or refreshes an audience segment. A new segment is
// seeded with a copy of the current global weight table so it starts from the
// account's learning instead of zero.
func (s *Service) UpsertSegment(ctx context.Context, actor Actor, input SegmentInput) (*domain.AudienceSegment, error) {
	if input.SegmentID == "" || input.Name == "" {
		return nil, fmt.Errorf("%w: segment_id and name are required", domain.ErrInvalidInput)
	}
	table, err := s.loadWeightTable(ctx)
	if err != nil {
		return nil, err
	}
	unlock := s.lockKey(KeySegments)
	defer unlock()
	segments, err := s.loadSegments(ctx)
	if err != nil {
		return nil, err
	}
	now := s.nowFn()
	existing := segments.Find(input.SegmentID)
	if existing == nil {
		segments.Segments = append(segments.Segments, domain.AudienceSegment{
			SegmentID: input.SegmentID,
			Name:      input.Name,
			AgeRange:  input.AgeRange,
			Gender:    input.Gender,
			Interests: input.Interests,
			Platforms: input.Platforms,
			Weights:   table.Clone(),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		})
		existing = segments.Find(input.SegmentID)
	} else {
		existing.Name = input.Name
		existing.AgeRange = input.AgeRange
		existing.Gender = input.Gender
		existing.Interests = input.Interests
		existing.Platforms = input.Platforms
		existing.UpdatedAt = now
	}
	segments.UpdatedAt = now
	if err := s.writeStateTracked(ctx, domain.HistorySegmentUpdate, KeySegments, segments); err != nil {
		return nil, err
	}
	s.logger.Info("segment upserted",
		"module", s.cfg.ServiceName, "layer", "application", "operation", "upsert_segment",
		"outcome", "success", "segment_id", input.SegmentID, "request_id", actor.RequestID)
	out := *existing
	return &out, nil
}

// ListWeights returns the strongest learned weights, strongest first.
func (s *Service) ListWeights(ctx context.Context, limit int) ([]domain.FeatureWeight, error) {
	table, err := s.loadWeightTable(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return table.TopWeights(limit), nil
}
