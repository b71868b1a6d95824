package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

type predictionRepository struct {
	db *gorm.DB
}

func (r *predictionRepository) Create(ctx context.Context, row domain.PredictionRecord) error {
	rec, err := predictionToModel(row)
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

func (r *predictionRepository) Update(ctx context.Context, row domain.PredictionRecord) error {
	rec, err := predictionToModel(row)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&predictionModel{}).
		Where("prediction_id = ?", rec.PredictionID).
		Updates(map[string]any{
			"actual_score":        rec.ActualScore,
			"delta":               rec.Delta,
			"delta_percent":       rec.DeltaPercent,
			"is_high_error":       rec.IsHighError,
			"is_surprise_success": rec.IsSurpriseSuccess,
			"is_surprise_failure": rec.IsSurpriseFailure,
			"correction_applied":  rec.CorrectionApplied,
			"reconciled_at":       rec.ReconciledAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *predictionRepository) GetByID(ctx context.Context, predictionID string) (domain.PredictionRecord, error) {
	var rec predictionModel
	if err := r.db.WithContext(ctx).Where("prediction_id = ?", predictionID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.PredictionRecord{}, domain.ErrNotFound
		}
		return domain.PredictionRecord{}, err
	}
	return predictionFromModel(rec)
}

func (r *predictionRepository) FindOpenByAdID(ctx context.Context, adID string) (domain.PredictionRecord, error) {
	var rec predictionModel
	err := r.db.WithContext(ctx).
		Where("ad_id = ? AND actual_score IS NULL", adID).
		Order("predicted_at asc").
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.PredictionRecord{}, domain.ErrNotFound
		}
		return domain.PredictionRecord{}, err
	}
	return predictionFromModel(rec)
}

func (r *predictionRepository) List(ctx context.Context, limit int) ([]domain.PredictionRecord, error) {
	var rows []predictionModel
	q := r.db.WithContext(ctx).Order("predicted_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.PredictionRecord, 0, len(rows))
	for _, row := range rows {
		record, err := predictionFromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}
