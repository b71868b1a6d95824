package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/contracts"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/ports"
)

// readState unmarshals the stored document for key into dest. Returns false
// with dest untouched when the key has never been written.
func (s *Service) readState(ctx context.Context, key string, dest any) (bool, error) {
	raw, found, err := s.state.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %v", domain.ErrStateUnavailable, key, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("%w: decode %s: %v", domain.ErrStateUnavailable, key, err)
	}
	return true, nil
}

// writeStateTracked persists the new value for key and appends a history
// entry holding both sides of the change. The caller must hold the key lock.
func (s *Service) writeStateTracked(ctx context.Context, entryType domain.HistoryEntryType, key string, value any) error {
	before, _, err := s.state.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", domain.ErrStateUnavailable, key, err)
	}
	after, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.state.Set(ctx, key, after); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrStateUnavailable, key, err)
	}
	entry := domain.HistoryEntry{
		EntryID:     uuid.NewString(),
		Type:        entryType,
		StorageKey:  key,
		BeforeState: before,
		AfterState:  after,
		CreatedAt:   s.nowFn(),
	}
	dropped, err := s.history.Append(ctx, entry)
	if err != nil {
		// The state write already landed; a lost ledger row only narrows
		// the undo window, so log and keep going.
		s.logger.Warn("history append failed",
			"module", s.cfg.ServiceName, "layer", "application",
			"storage_key", key, "error", err)
		return nil
	}
	if dropped > 0 {
		s.logger.Info("history trimmed",
			"module", s.cfg.ServiceName, "layer", "application",
			"dropped", dropped)
	}
	return nil
}

func (s *Service) loadWeightTable(ctx context.Context) (domain.WeightTable, error) {
	table := domain.NewWeightTable()
	if _, err := s.readState(ctx, KeyGlobalWeights, &table); err != nil {
		return domain.WeightTable{}, err
	}
	if table.Weights == nil {
		table.Weights = map[string]domain.FeatureWeight{}
	}
	return table, nil
}

func (s *Service) loadBaseline(ctx context.Context) (domain.AccountBaseline, error) {
	var baseline domain.AccountBaseline
	if _, err := s.readState(ctx, KeyBaseline, &baseline); err != nil {
		return domain.AccountBaseline{}, err
	}
	return baseline, nil
}

func (s *Service) loadSegments(ctx context.Context) (domain.SegmentSet, error) {
	var set domain.SegmentSet
	if _, err := s.readState(ctx, KeySegments, &set); err != nil {
		return domain.SegmentSet{}, err
	}
	return set, nil
}

// loadWeightMode defaults to fallback_only: a store that has never been
// written must not let unvalidated weights steer scoring.
func (s *Service) loadWeightMode(ctx context.Context) (domain.WeightMode, error) {
	var stored struct {
		Mode string `json:"mode"`
	}
	found, err := s.readState(ctx, KeyWeightMode, &stored)
	if err != nil {
		return "", err
	}
	if !found {
		return domain.ModeFallbackOnly, nil
	}
	mode, ok := domain.ParseWeightMode(stored.Mode)
	if !ok {
		return domain.ModeFallbackOnly, nil
	}
	return mode, nil
}

// emitEvent stages a domain event through the transactional outbox. Event
// loss is tolerated; event emission never fails the business operation.
func (s *Service) emitEvent(ctx context.Context, eventType, partitionKey string, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		s.logger.Warn("event encode failed",
			"module", s.cfg.ServiceName, "layer", "application",
			"event_type", eventType, "error", err)
		return
	}
	envelope := contracts.EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		OccurredAt:    s.nowFn(),
		PartitionKey:  partitionKey,
		SourceService: s.cfg.ServiceName,
		SchemaVersion: "1.0",
		Data:          body,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		s.logger.Warn("event envelope encode failed",
			"module", s.cfg.ServiceName, "layer", "application",
			"event_type", eventType, "error", err)
		return
	}
	record := ports.OutboxRecord{
		RecordID:     envelope.EventID,
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt,
	}
	if err := s.outbox.Enqueue(ctx, record); err != nil {
		s.logger.Warn("outbox enqueue failed",
			"module", s.cfg.ServiceName, "layer", "application",
			"event_type", eventType, "error", err)
	}
}
