package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPhoneRepository implements PhoneRepository using GORM
type GormPhoneRepository struct {
	db *gorm.DB
}

// NewGormPhoneRepository creates a new GormPhoneRepository
func NewGormPhoneRepository(db *gorm.DB) *GormPhoneRepository {
	return &GormPhoneRepository{db: db}
}

// Create creates a new phone
func (r *GormPhoneRepository) Create(ctx context.Context, phone *account.Phone) error {
	return r.db.WithContext(ctx).Create(models.PhoneModelFromDomain(phone)).Error
}

// Update changes the number of a phone
func (r *GormPhoneRepository) Update(ctx context.Context, phone *account.Phone) error {
	result := r.db.WithContext(ctx).
		Model(&models.PhoneModel{}).
		Where("id = ?", phone.ID).
		Updates(map[string]any{
			"number":     phone.Number,
			"updated_at": phone.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete deletes a phone by ID
func (r *GormPhoneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PhoneModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a phone by ID
func (r *GormPhoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Phone, error) {
	var model models.PhoneModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	phone := model.ToDomain()
	return &phone, nil
}

// FindByDocument lists the phones of an owner, oldest first
func (r *GormPhoneRepository) FindByDocument(ctx context.Context, document string) ([]account.Phone, error) {
	var rows []models.PhoneModel
	if err := r.db.WithContext(ctx).
		Where("document = ?", document).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	phones := make([]account.Phone, len(rows))
	for i := range rows {
		phones[i] = rows[i].ToDomain()
	}
	return phones, nil
}

// CountByDocument counts the phones of an owner
func (r *GormPhoneRepository) CountByDocument(ctx context.Context, document string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PhoneModel{}).
		Where("document = ?", document).
		Count(&count).Error
	return count, err
}

// ExistsNumber reports whether document already owns number, ignoring the
// phone with exceptID
func (r *GormPhoneRepository) ExistsNumber(ctx context.Context, document, number string, exceptID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PhoneModel{}).
		Where("document = ? AND number = ? AND id <> ?", document, number, exceptID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormPhoneRepository implements PhoneRepository
var _ account.PhoneRepository = (*GormPhoneRepository)(nil)
