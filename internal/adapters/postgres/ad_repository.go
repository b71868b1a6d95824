package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

type adRepository struct {
	db *gorm.DB
}

func (r *adRepository) Upsert(ctx context.Context, row domain.AdRecord) error {
	rec := adToModel(row)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ad_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"traits", "current_score", "outcome", "updated_at"}),
	}).Create(&rec).Error
}

func (r *adRepository) GetByID(ctx context.Context, adID string) (domain.AdRecord, error) {
	var rec adModel
	if err := r.db.WithContext(ctx).Where("ad_id = ?", adID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AdRecord{}, domain.ErrNotFound
		}
		return domain.AdRecord{}, err
	}
	return adFromModel(rec)
}

func (r *adRepository) List(ctx context.Context, limit int) ([]domain.AdRecord, error) {
	var rows []adModel
	q := r.db.WithContext(ctx).Order("updated_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AdRecord, 0, len(rows))
	for _, row := range rows {
		ad, err := adFromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, ad)
	}
	return out, nil
}

func (r *adRepository) SetOutcome(ctx context.Context, adID string, outcome domain.OutcomeResult, at time.Time) error {
	payload := mustJSON(outcome)
	res := r.db.WithContext(ctx).Model(&adModel{}).Where("ad_id = ?", adID).Updates(map[string]any{
		"outcome":    payload,
		"updated_at": at,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateScores writes the whole batch in one transaction; any failure rolls
// every row back.
func (r *adRepository) UpdateScores(ctx context.Context, scores map[string]int, at time.Time) error {
	if len(scores) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for adID, score := range scores {
			if err := tx.Model(&adModel{}).Where("ad_id = ?", adID).Updates(map[string]any{
				"current_score": score,
				"updated_at":    at,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
