package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAddressRepository implements AddressRepository using GORM
type GormAddressRepository struct {
	db *gorm.DB
}

// NewGormAddressRepository creates a new GormAddressRepository
func NewGormAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// Create creates a new address
func (r *GormAddressRepository) Create(ctx context.Context, address *account.Address) error {
	return r.db.WithContext(ctx).Create(models.AddressModelFromDomain(address)).Error
}

// Update writes every field of the address
func (r *GormAddressRepository) Update(ctx context.Context, address *account.Address) error {
	model := models.AddressModelFromDomain(address)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds an address by ID
func (r *GormAddressRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Address, error) {
	var model models.AddressModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// Ensure GormAddressRepository implements AddressRepository
var _ account.AddressRepository = (*GormAddressRepository)(nil)
