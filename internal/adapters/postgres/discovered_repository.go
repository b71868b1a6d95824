package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

type discoveredRepository struct {
	db *gorm.DB
}

func (r *discoveredRepository) Upsert(ctx context.Context, row domain.DiscoveredFeature) error {
	rec, err := discoveredToModel(row)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"description", "criteria", "validated_against",
			"success_correlation", "is_validated", "is_active", "updated_at",
		}),
	}).Create(&rec).Error
}

func (r *discoveredRepository) GetByName(ctx context.Context, name string) (domain.DiscoveredFeature, error) {
	var rec discoveredFeatureModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DiscoveredFeature{}, domain.ErrNotFound
		}
		return domain.DiscoveredFeature{}, err
	}
	return discoveredFromModel(rec)
}

func (r *discoveredRepository) List(ctx context.Context) ([]domain.DiscoveredFeature, error) {
	var rows []discoveredFeatureModel
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.DiscoveredFeature, 0, len(rows))
	for _, row := range rows {
		feature, err := discoveredFromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, feature)
	}
	return out, nil
}
