package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/ports"
)

type outboxRepository struct {
	db *gorm.DB
}

func (r *outboxRepository) Enqueue(ctx context.Context, record ports.OutboxRecord) error {
	id, err := parseUUID(record.RecordID)
	if err != nil {
		return err
	}
	rec := outboxModel{
		RecordID:     id,
		EventType:    record.EventType,
		PartitionKey: record.PartitionKey,
		Payload:      string(record.Payload),
		CreatedAt:    record.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]ports.OutboxRecord, error) {
	var rows []outboxModel
	q := r.db.WithContext(ctx).Where("sent_at IS NULL").Order("created_at asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ports.OutboxRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.OutboxRecord{
			RecordID:     row.RecordID.String(),
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      []byte(row.Payload),
			CreatedAt:    row.CreatedAt,
			SentAt:       row.SentAt,
		})
	}
	return out, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, recordID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("record_id = ?", recordID).
		Update("sent_at", at).Error
}
