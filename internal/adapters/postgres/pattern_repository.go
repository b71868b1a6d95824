package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

type patternRepository struct {
	db *gorm.DB
}

func (r *patternRepository) Create(ctx context.Context, row domain.FailurePattern) error {
	rec, err := patternToModel(row)
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

func (r *patternRepository) List(ctx context.Context, limit int) ([]domain.FailurePattern, error) {
	var rows []failurePatternModel
	q := r.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.FailurePattern, 0, len(rows))
	for _, row := range rows {
		pattern, err := patternFromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, pattern)
	}
	return out, nil
}

func (r *patternRepository) CountByClass(ctx context.Context) (map[string]int, error) {
	type classCount struct {
		Class string
		Count int
	}
	var rows []classCount
	err := r.db.WithContext(ctx).Model(&failurePatternModel{}).
		Select("class, count(*) as count").
		Group("class").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Class] = row.Count
	}
	return out, nil
}
