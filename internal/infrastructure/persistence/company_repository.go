package persistence

import (
	"context"

	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCompanyRepository implements CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// Create creates a new company
func (r *GormCompanyRepository) Create(ctx context.Context, company *account.Company) error {
	model := models.CompanyModelFromDomain(company)
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error
}

// Update updates an existing company with optimistic locking
func (r *GormCompanyRepository) Update(ctx context.Context, company *account.Company) error {
	expected := company.Version
	company.IncrementVersion()
	model := models.CompanyModelFromDomain(company)
	if err := updateVersioned(ctx, r.db, model, company.ID, expected); err != nil {
		company.Version = expected
		return err
	}
	return nil
}

// FindByCNPJ finds a company by CNPJ with its address and phones
func (r *GormCompanyRepository) FindByCNPJ(ctx context.Context, cnpj string) (*account.Company, error) {
	var model models.CompanyModel
	if err := r.db.WithContext(ctx).
		Preload("Address").
		Preload("Phones", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("cnpj = ?", cnpj).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// ExistsByCNPJ checks if a CNPJ is already registered
func (r *GormCompanyRepository) ExistsByCNPJ(ctx context.Context, cnpj string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CompanyModel{}).
		Where("cnpj = ?", cnpj).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormCompanyRepository implements CompanyRepository
var _ account.CompanyRepository = (*GormCompanyRepository)(nil)
