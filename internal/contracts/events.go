package contracts

import (
	"encoding/json"
	"time"
)

const (
	EventPredictionRecorded = "creative.prediction_recorded"
	EventOutcomeReconciled  = "creative.outcome_reconciled"
	EventWeightsAdjusted    = "creative.weights_adjusted"
	EventScoresRecalculated = "creative.scores_recalculated"
	EventSnapshotRestored   = "creative.snapshot_restored"
)

type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	PartitionKey  string          `json:"partition_key"`
	SourceService string          `json:"source_service"`
	SchemaVersion string          `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

type PredictionRecordedData struct {
	AdID           string `json:"ad_id"`
	PredictionID   string `json:"prediction_id"`
	PredictedScore int    `json:"predicted_score"`
	RiskTier       string `json:"risk_tier"`
}

type OutcomeReconciledData struct {
	AdID         string `json:"ad_id"`
	PredictionID string `json:"prediction_id"`
	ActualScore  int    `json:"actual_score"`
	Delta        int    `json:"delta"`
	AnalysisType string `json:"analysis_type"`
}

type WeightsAdjustedData struct {
	AdID          string `json:"ad_id"`
	AppliedCount  int    `json:"applied_count"`
	ComputedCount int    `json:"computed_count"`
	Mode          string `json:"mode"`
}

type ScoresRecalculatedData struct {
	Trigger       string  `json:"trigger"`
	AffectedCount int     `json:"affected_count"`
	AvgDelta      float64 `json:"avg_delta"`
}

type SnapshotRestoredData struct {
	SnapshotID string `json:"snapshot_id"`
	BackupID   string `json:"backup_id"`
}
