package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

type snapshotRepository struct {
	db *gorm.DB
}

func (r *snapshotRepository) Create(ctx context.Context, row domain.StateSnapshot) error {
	rec, err := snapshotToModel(row)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *snapshotRepository) GetByID(ctx context.Context, snapshotID string) (domain.StateSnapshot, error) {
	var rec snapshotModel
	if err := r.db.WithContext(ctx).Where("snapshot_id = ?", snapshotID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.StateSnapshot{}, domain.ErrNotFound
		}
		return domain.StateSnapshot{}, err
	}
	return snapshotFromModel(rec)
}

func (r *snapshotRepository) List(ctx context.Context, limit int) ([]domain.StateSnapshot, error) {
	var rows []snapshotModel
	q := r.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.StateSnapshot, 0, len(rows))
	for _, row := range rows {
		snapshot, err := snapshotFromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, snapshot)
	}
	return out, nil
}

type recalcLogRepository struct {
	db *gorm.DB
}

func (r *recalcLogRepository) Create(ctx context.Context, row domain.RecalculationLog) error {
	id, err := parseUUID(row.RecalcID)
	if err != nil {
		return err
	}
	rec := recalculationLogModel{
		RecalcID:      id,
		TriggerSource: row.Trigger,
		AffectedCount: row.AffectedCount,
		TotalDelta:    row.TotalDelta,
		AvgDelta:      row.AvgDelta,
		CreatedAt:     row.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *recalcLogRepository) List(ctx context.Context, limit int) ([]domain.RecalculationLog, error) {
	var rows []recalculationLogModel
	q := r.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.RecalculationLog, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.RecalculationLog{
			RecalcID:      row.RecalcID.String(),
			Trigger:       row.TriggerSource,
			AffectedCount: row.AffectedCount,
			TotalDelta:    row.TotalDelta,
			AvgDelta:      row.AvgDelta,
			CreatedAt:     row.CreatedAt,
		})
	}
	return out, nil
}
