package persistence

import (
	"context"
	"time"

	"github.com/joinville/accounts/internal/domain/identity"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuthTokenRepository implements AuthTokenRepository using GORM
type GormAuthTokenRepository struct {
	db *gorm.DB
}

// NewGormAuthTokenRepository creates a new GormAuthTokenRepository
func NewGormAuthTokenRepository(db *gorm.DB) *GormAuthTokenRepository {
	return &GormAuthTokenRepository{db: db}
}

// Create stores a new token
func (r *GormAuthTokenRepository) Create(ctx context.Context, token *identity.AuthenticationToken) error {
	return r.db.WithContext(ctx).Create(models.AuthenticationTokenModelFromDomain(token)).Error
}

// Update stores the UsedAt mark. Only an unused row is updated, so of two
// concurrent redeems of the same token only one succeeds.
func (r *GormAuthTokenRepository) Update(ctx context.Context, token *identity.AuthenticationToken) error {
	db := r.db.WithContext(ctx)
	result := db.
		Model(&models.AuthenticationTokenModel{}).
		Where("id = ? AND used_at IS NULL", token.ID).
		Updates(map[string]any{
			"used_at":    token.UsedAt,
			"updated_at": token.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&models.AuthenticationTokenModel{}).Where("id = ?", token.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return identity.ErrTokenUsed
}

// FindByToken finds a token by its value
func (r *GormAuthTokenRepository) FindByToken(ctx context.Context, token string) (*identity.AuthenticationToken, error) {
	var model models.AuthenticationTokenModel
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// DeleteExpired removes tokens expired before the given time
func (r *GormAuthTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expiration < ?", before).
		Delete(&models.AuthenticationTokenModel{})
	return result.RowsAffected, result.Error
}

// Ensure GormAuthTokenRepository implements AuthTokenRepository
var _ identity.AuthTokenRepository = (*GormAuthTokenRepository)(nil)
