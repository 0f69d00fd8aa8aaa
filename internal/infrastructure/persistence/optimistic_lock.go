package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// updateVersioned writes every column of model except the associations
// when the stored row still has expectedVersion. A missing row gives
// ErrNotFound and a stale version gives ErrConcurrencyConflict.
func updateVersioned(ctx context.Context, db *gorm.DB, model any, id uuid.UUID, expectedVersion int) error {
	result := db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", id, expectedVersion).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

// notFound maps gorm.ErrRecordNotFound to the domain error
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}
