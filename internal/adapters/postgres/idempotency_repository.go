package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/ports"
)

type idempotencyRepository struct {
	db *gorm.DB
}

func (r *idempotencyRepository) Get(ctx context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	var rec idempotencyModel
	if err := r.db.WithContext(ctx).Where("idempotency_key = ? AND expires_at > ?", key, now).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	out := &ports.IdempotencyRecord{
		Key:         rec.IdempotencyKey,
		RequestHash: rec.RequestHash,
		ExpiresAt:   rec.ExpiresAt,
	}
	if rec.ResponseCode != nil {
		out.ResponseCode = *rec.ResponseCode
	}
	if rec.ResponseBody != nil {
		out.ResponseBody = []byte(*rec.ResponseBody)
	}
	return out, nil
}

func (r *idempotencyRepository) Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error {
	now := time.Now().UTC()
	rec := idempotencyModel{
		IdempotencyKey: key,
		RequestHash:    requestHash,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error {
	payload := string(responseBody)
	return r.db.WithContext(ctx).Model(&idempotencyModel{}).
		Where("idempotency_key = ?", key).
		Updates(map[string]any{
			"response_code": responseCode,
			"response_body": payload,
			"updated_at":    at,
		}).Error
}
