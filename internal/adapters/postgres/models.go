package postgres

import (
	"time"

	"github.com/google/uuid"
)

type adModel struct {
	AdID         string    `gorm:"column:ad_id;primaryKey"`
	Traits       string    `gorm:"column:traits;type:jsonb"`
	CurrentScore int       `gorm:"column:current_score"`
	Outcome      *string   `gorm:"column:outcome;type:jsonb"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (adModel) TableName() string { return "scoring_ads" }

type predictionModel struct {
	PredictionID      uuid.UUID  `gorm:"column:prediction_id;type:uuid;primaryKey"`
	AdID              string     `gorm:"column:ad_id"`
	PredictedScore    int        `gorm:"column:predicted_score"`
	PredictedAt       time.Time  `gorm:"column:predicted_at"`
	WeightsUsed       string     `gorm:"column:weights_used;type:jsonb"`
	AudienceSegment   string     `gorm:"column:audience_segment"`
	ActualScore       *int       `gorm:"column:actual_score"`
	Delta             *int       `gorm:"column:delta"`
	DeltaPercent      *float64   `gorm:"column:delta_percent"`
	IsHighError       bool       `gorm:"column:is_high_error"`
	IsSurpriseSuccess bool       `gorm:"column:is_surprise_success"`
	IsSurpriseFailure bool       `gorm:"column:is_surprise_failure"`
	CorrectionApplied bool       `gorm:"column:correction_applied"`
	ReconciledAt      *time.Time `gorm:"column:reconciled_at"`
}

func (predictionModel) TableName() string { return "scoring_predictions" }

type failurePatternModel struct {
	PatternID uuid.UUID `gorm:"column:pattern_id;type:uuid;primaryKey"`
	Class     string    `gorm:"column:class"`
	AdID      string    `gorm:"column:ad_id"`
	Features  string    `gorm:"column:features;type:jsonb"`
	Evidence  string    `gorm:"column:evidence;type:jsonb"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (failurePatternModel) TableName() string { return "scoring_failure_patterns" }

type discoveredFeatureModel struct {
	FeatureID          uuid.UUID `gorm:"column:feature_id;type:uuid;primaryKey"`
	Name               string    `gorm:"column:name"`
	Description        string    `gorm:"column:description"`
	DiscoveredFrom     string    `gorm:"column:discovered_from"`
	DiscoveryReason    string    `gorm:"column:discovery_reason"`
	Criteria           string    `gorm:"column:criteria;type:jsonb"`
	ValidatedAgainst   string    `gorm:"column:validated_against;type:jsonb"`
	SuccessCorrelation int       `gorm:"column:success_correlation"`
	IsValidated        bool      `gorm:"column:is_validated"`
	IsActive           bool      `gorm:"column:is_active"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (discoveredFeatureModel) TableName() string { return "scoring_discovered_features" }

type historyEntryModel struct {
	Seq         int64     `gorm:"column:seq;primaryKey;autoIncrement"`
	EntryID     uuid.UUID `gorm:"column:entry_id;type:uuid"`
	EntryType   string    `gorm:"column:entry_type"`
	StorageKey  string    `gorm:"column:storage_key"`
	BeforeState *string   `gorm:"column:before_state;type:jsonb"`
	AfterState  *string   `gorm:"column:after_state;type:jsonb"`
	IsUndone    bool      `gorm:"column:is_undone"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (historyEntryModel) TableName() string { return "scoring_history_entries" }

type snapshotModel struct {
	SnapshotID uuid.UUID `gorm:"column:snapshot_id;type:uuid;primaryKey"`
	Name       string    `gorm:"column:name"`
	Keys       string    `gorm:"column:keys;type:jsonb"`
	AutoBackup bool      `gorm:"column:auto_backup"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (snapshotModel) TableName() string { return "scoring_snapshots" }

type recalculationLogModel struct {
	RecalcID      uuid.UUID `gorm:"column:recalc_id;type:uuid;primaryKey"`
	TriggerSource string    `gorm:"column:trigger_source"`
	AffectedCount int       `gorm:"column:affected_count"`
	TotalDelta    int       `gorm:"column:total_delta"`
	AvgDelta      float64   `gorm:"column:avg_delta"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (recalculationLogModel) TableName() string { return "scoring_recalculation_logs" }

type idempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	ResponseCode   *int      `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (idempotencyModel) TableName() string { return "scoring_idempotency_keys" }

type outboxModel struct {
	RecordID     uuid.UUID  `gorm:"column:record_id;type:uuid;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      string     `gorm:"column:payload;type:jsonb"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string { return "scoring_outbox_events" }
