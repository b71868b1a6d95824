package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func adToModel(row domain.AdRecord) adModel {
	m := adModel{
		AdID:         row.AdID,
		Traits:       mustJSON(row.Traits),
		CurrentScore: row.CurrentScore,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.Outcome != nil {
		outcome := mustJSON(row.Outcome)
		m.Outcome = &outcome
	}
	return m
}

func adFromModel(m adModel) (domain.AdRecord, error) {
	out := domain.AdRecord{
		AdID:         m.AdID,
		CurrentScore: m.CurrentScore,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(m.Traits), &out.Traits); err != nil {
		return domain.AdRecord{}, fmt.Errorf("decode traits for ad %s: %w", m.AdID, err)
	}
	if m.Outcome != nil {
		var outcome domain.OutcomeResult
		if err := json.Unmarshal([]byte(*m.Outcome), &outcome); err != nil {
			return domain.AdRecord{}, fmt.Errorf("decode outcome for ad %s: %w", m.AdID, err)
		}
		out.Outcome = &outcome
	}
	return out, nil
}

func predictionToModel(row domain.PredictionRecord) (predictionModel, error) {
	id, err := uuid.Parse(row.PredictionID)
	if err != nil {
		return predictionModel{}, fmt.Errorf("prediction id %q: %w", row.PredictionID, err)
	}
	return predictionModel{
		PredictionID:      id,
		AdID:              row.AdID,
		PredictedScore:    row.PredictedScore,
		PredictedAt:       row.PredictedAt,
		WeightsUsed:       mustJSON(row.WeightsUsed),
		AudienceSegment:   row.AudienceSegment,
		ActualScore:       row.ActualScore,
		Delta:             row.Delta,
		DeltaPercent:      row.DeltaPercent,
		IsHighError:       row.IsHighError,
		IsSurpriseSuccess: row.IsSurpriseSuccess,
		IsSurpriseFailure: row.IsSurpriseFailure,
		CorrectionApplied: row.CorrectionApplied,
		ReconciledAt:      row.ReconciledAt,
	}, nil
}

func predictionFromModel(m predictionModel) (domain.PredictionRecord, error) {
	out := domain.PredictionRecord{
		PredictionID:      m.PredictionID.String(),
		AdID:              m.AdID,
		PredictedScore:    m.PredictedScore,
		PredictedAt:       m.PredictedAt,
		AudienceSegment:   m.AudienceSegment,
		ActualScore:       m.ActualScore,
		Delta:             m.Delta,
		DeltaPercent:      m.DeltaPercent,
		IsHighError:       m.IsHighError,
		IsSurpriseSuccess: m.IsSurpriseSuccess,
		IsSurpriseFailure: m.IsSurpriseFailure,
		CorrectionApplied: m.CorrectionApplied,
		ReconciledAt:      m.ReconciledAt,
	}
	if err := json.Unmarshal([]byte(m.WeightsUsed), &out.WeightsUsed); err != nil {
		return domain.PredictionRecord{}, fmt.Errorf("decode weights for prediction %s: %w", out.PredictionID, err)
	}
	return out, nil
}

func patternToModel(row domain.FailurePattern) (failurePatternModel, error) {
	id, err := uuid.Parse(row.PatternID)
	if err != nil {
		return failurePatternModel{}, fmt.Errorf("pattern id %q: %w", row.PatternID, err)
	}
	return failurePatternModel{
		PatternID: id,
		Class:     string(row.Class),
		AdID:      row.AdID,
		Features:  mustJSON(row.Features),
		Evidence:  mustJSON(row.Evidence),
		CreatedAt: row.CreatedAt,
	}, nil
}

func patternFromModel(m failurePatternModel) (domain.FailurePattern, error) {
	out := domain.FailurePattern{
		PatternID: m.PatternID.String(),
		Class:     domain.FailureClass(m.Class),
		AdID:      m.AdID,
		CreatedAt: m.CreatedAt,
	}
	if err := json.Unmarshal([]byte(m.Features), &out.Features); err != nil {
		return domain.FailurePattern{}, fmt.Errorf("decode features for pattern %s: %w", out.PatternID, err)
	}
	if err := json.Unmarshal([]byte(m.Evidence), &out.Evidence); err != nil {
		return domain.FailurePattern{}, fmt.Errorf("decode evidence for pattern %s: %w", out.PatternID, err)
	}
	return out, nil
}

func discoveredToModel(row domain.DiscoveredFeature) (discoveredFeatureModel, error) {
	id, err := uuid.Parse(row.FeatureID)
	if err != nil {
		return discoveredFeatureModel{}, fmt.Errorf("feature id %q: %w", row.FeatureID, err)
	}
	return discoveredFeatureModel{
		FeatureID:          id,
		Name:               row.Name,
		Description:        row.Description,
		DiscoveredFrom:     row.DiscoveredFrom,
		DiscoveryReason:    row.DiscoveryReason,
		Criteria:           mustJSON(row.Criteria),
		ValidatedAgainst:   mustJSON(row.ValidatedAgainst),
		SuccessCorrelation: row.SuccessCorrelation,
		IsValidated:        row.IsValidated,
		IsActive:           row.IsActive,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}, nil
}

func discoveredFromModel(m discoveredFeatureModel) (domain.DiscoveredFeature, error) {
	out := domain.DiscoveredFeature{
		FeatureID:          m.FeatureID.String(),
		Name:               m.Name,
		Description:        m.Description,
		DiscoveredFrom:     m.DiscoveredFrom,
		DiscoveryReason:    m.DiscoveryReason,
		SuccessCorrelation: m.SuccessCorrelation,
		IsValidated:        m.IsValidated,
		IsActive:           m.IsActive,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(m.Criteria), &out.Criteria); err != nil {
		return domain.DiscoveredFeature{}, fmt.Errorf("decode criteria for feature %s: %w", out.Name, err)
	}
	if err := json.Unmarshal([]byte(m.ValidatedAgainst), &out.ValidatedAgainst); err != nil {
		return domain.DiscoveredFeature{}, fmt.Errorf("decode validations for feature %s: %w", out.Name, err)
	}
	return out, nil
}

func historyToModel(row domain.HistoryEntry) (historyEntryModel, error) {
	id, err := uuid.Parse(row.EntryID)
	if err != nil {
		return historyEntryModel{}, fmt.Errorf("entry id %q: %w", row.EntryID, err)
	}
	m := historyEntryModel{
		EntryID:    id,
		EntryType:  string(row.Type),
		StorageKey: row.StorageKey,
		IsUndone:   row.IsUndone,
		CreatedAt:  row.CreatedAt,
	}
	if row.BeforeState != nil {
		before := string(row.BeforeState)
		m.BeforeState = &before
	}
	if row.AfterState != nil {
		after := string(row.AfterState)
		m.AfterState = &after
	}
	return m, nil
}

func historyFromModel(m historyEntryModel) domain.HistoryEntry {
	out := domain.HistoryEntry{
		EntryID:    m.EntryID.String(),
		Type:       domain.HistoryEntryType(m.EntryType),
		StorageKey: m.StorageKey,
		IsUndone:   m.IsUndone,
		CreatedAt:  m.CreatedAt,
	}
	if m.BeforeState != nil {
		out.BeforeState = json.RawMessage(*m.BeforeState)
	}
	if m.AfterState != nil {
		out.AfterState = json.RawMessage(*m.AfterState)
	}
	return out
}

func snapshotToModel(row domain.StateSnapshot) (snapshotModel, error) {
	id, err := uuid.Parse(row.SnapshotID)
	if err != nil {
		return snapshotModel{}, fmt.Errorf("snapshot id %q: %w", row.SnapshotID, err)
	}
	return snapshotModel{
		SnapshotID: id,
		Name:       row.Name,
		Keys:       mustJSON(row.Keys),
		AutoBackup: row.AutoBackup,
		CreatedAt:  row.CreatedAt,
	}, nil
}

func snapshotFromModel(m snapshotModel) (domain.StateSnapshot, error) {
	out := domain.StateSnapshot{
		SnapshotID: m.SnapshotID.String(),
		Name:       m.Name,
		AutoBackup: m.AutoBackup,
		CreatedAt:  m.CreatedAt,
	}
	if err := json.Unmarshal([]byte(m.Keys), &out.Keys); err != nil {
		return domain.StateSnapshot{}, fmt.Errorf("decode keys for snapshot %s: %w", out.SnapshotID, err)
	}
	return out, nil
}
