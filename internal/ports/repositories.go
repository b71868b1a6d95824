package ports

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

type AdRepository interface {
	Upsert(ctx context.Context, row domain.AdRecord) error
	GetByID(ctx context.Context, adID string) (domain.AdRecord, error)
	List(ctx context.Context, limit int) ([]domain.AdRecord, error)
	SetOutcome(ctx context.Context, adID string, outcome domain.OutcomeResult, at time.Time) error
	// UpdateScores persists a batch of recalculated scores atomically:
	// either every row is written or none.
	UpdateScores(ctx context.Context, scores map[string]int, at time.Time) error
}

type PredictionRepository interface {
	Create(ctx context.Context, row domain.PredictionRecord) error
	Update(ctx context.Context, row domain.PredictionRecord) error
	GetByID(ctx context.Context, predictionID string) (domain.PredictionRecord, error)
	// FindOpenByAdID returns the oldest unreconciled record for the ad.
	FindOpenByAdID(ctx context.Context, adID string) (domain.PredictionRecord, error)
	List(ctx context.Context, limit int) ([]domain.PredictionRecord, error)
}

type FailurePatternRepository interface {
	Create(ctx context.Context, row domain.FailurePattern) error
	List(ctx context.Context, limit int) ([]domain.FailurePattern, error)
	CountByClass(ctx context.Context) (map[string]int, error)
}

type DiscoveredFeatureRepository interface {
	Upsert(ctx context.Context, row domain.DiscoveredFeature) error
	GetByName(ctx context.Context, name string) (domain.DiscoveredFeature, error)
	List(ctx context.Context) ([]domain.DiscoveredFeature, error)
}

type HistoryRepository interface {
	// Append stores the entry and trims the ledger to its capacity,
	// returning how many old entries were dropped.
	Append(ctx context.Context, row domain.HistoryEntry) (dropped int, err error)
	GetByID(ctx context.Context, entryID string) (domain.HistoryEntry, error)
	// LatestEligible scans from the newest entry for the first with the
	// given undone flag state.
	LatestEligible(ctx context.Context, undone bool) (domain.HistoryEntry, error)
	SetUndone(ctx context.Context, entryID string, undone bool) error
	List(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

type SnapshotRepository interface {
	Create(ctx context.Context, row domain.StateSnapshot) error
	GetByID(ctx context.Context, snapshotID string) (domain.StateSnapshot, error)
	List(ctx context.Context, limit int) ([]domain.StateSnapshot, error)
}

type RecalculationLogRepository interface {
	Create(ctx context.Context, row domain.RecalculationLog) error
	List(ctx context.Context, limit int) ([]domain.RecalculationLog, error)
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}

type OutboxRecord struct {
	RecordID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
	SentAt       *time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, record OutboxRecord) error
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, recordID string, at time.Time) error
}
