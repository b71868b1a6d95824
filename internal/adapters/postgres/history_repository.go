package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

type historyRepository struct {
	db       *gorm.DB
	capacity int
}

// Append inserts the entry and trims the ledger back to capacity inside one
// transaction, oldest entries first.
func (r *historyRepository) Append(ctx context.Context, row domain.HistoryEntry) (int, error) {
	rec, err := historyToModel(row)
	if err != nil {
		return 0, err
	}
	dropped := 0
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		if r.capacity <= 0 {
			return nil
		}
		var total int64
		if err := tx.Model(&historyEntryModel{}).Count(&total).Error; err != nil {
			return err
		}
		excess := int(total) - r.capacity
		if excess <= 0 {
			return nil
		}
		res := tx.Where("seq IN (?)",
			tx.Model(&historyEntryModel{}).Select("seq").Order("seq asc").Limit(excess),
		).Delete(&historyEntryModel{})
		if res.Error != nil {
			return res.Error
		}
		dropped = int(res.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return dropped, nil
}

func (r *historyRepository) GetByID(ctx context.Context, entryID string) (domain.HistoryEntry, error) {
	var rec historyEntryModel
	if err := r.db.WithContext(ctx).Where("entry_id = ?", entryID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.HistoryEntry{}, domain.ErrNotFound
		}
		return domain.HistoryEntry{}, err
	}
	return historyFromModel(rec), nil
}

func (r *historyRepository) LatestEligible(ctx context.Context, undone bool) (domain.HistoryEntry, error) {
	var rec historyEntryModel
	err := r.db.WithContext(ctx).
		Where("is_undone = ?", undone).
		Order("seq desc").
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.HistoryEntry{}, domain.ErrNotFound
		}
		return domain.HistoryEntry{}, err
	}
	return historyFromModel(rec), nil
}

func (r *historyRepository) SetUndone(ctx context.Context, entryID string, undone bool) error {
	res := r.db.WithContext(ctx).Model(&historyEntryModel{}).
		Where("entry_id = ?", entryID).
		Update("is_undone", undone)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *historyRepository) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	var rows []historyEntryModel
	q := r.db.WithContext(ctx).Order("seq desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, historyFromModel(row))
	}
	return out, nil
}
