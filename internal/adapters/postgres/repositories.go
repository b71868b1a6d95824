package postgres

import (
	"gorm.io/gorm"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/ports"
)

type Repositories struct {
	Ads         ports.AdRepository
	Predictions ports.PredictionRepository
	Patterns    ports.FailurePatternRepository
	Discovered  ports.DiscoveredFeatureRepository
	History     ports.HistoryRepository
	Snapshots   ports.SnapshotRepository
	RecalcLog   ports.RecalculationLogRepository
	Idempotency ports.IdempotencyRepository
	Outbox      ports.OutboxRepository
}

func NewRepositories(db *gorm.DB, historyCapacity int) Repositories {
	return Repositories{
		Ads:         &adRepository{db: db},
		Predictions: &predictionRepository{db: db},
		Patterns:    &patternRepository{db: db},
		Discovered:  &discoveredRepository{db: db},
		History:     &historyRepository{db: db, capacity: historyCapacity},
		Snapshots:   &snapshotRepository{db: db},
		RecalcLog:   &recalcLogRepository{db: db},
		Idempotency: &idempotencyRepository{db: db},
		Outbox:      &outboxRepository{db: db},
	}
}
