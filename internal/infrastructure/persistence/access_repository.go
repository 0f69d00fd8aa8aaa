package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/access"
	"github.com/joinville/accounts/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAccessRepository implements AccessRepository using GORM
type GormAccessRepository struct {
	db *gorm.DB
}

// NewGormAccessRepository creates a new GormAccessRepository
func NewGormAccessRepository(db *gorm.DB) *GormAccessRepository {
	return &GormAccessRepository{db: db}
}

// Save inserts or updates an access
func (r *GormAccessRepository) Save(ctx context.Context, a *access.Access) error {
	return r.db.WithContext(ctx).Save(models.AccessModelFromDomain(a)).Error
}

// FindByID finds an access by ID
func (r *GormAccessRepository) FindByID(ctx context.Context, id uuid.UUID) (*access.Access, error) {
	var model models.AccessModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByDocumentAndApplication finds the access of a document to an
// application
func (r *GormAccessRepository) FindByDocumentAndApplication(ctx context.Context, document string, applicationID uuid.UUID) (*access.Access, error) {
	var model models.AccessModel
	if err := r.db.WithContext(ctx).
		Where("document = ? AND application_id = ?", document, applicationID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByApplication lists the accesses of an application, optionally by
// status, oldest first
func (r *GormAccessRepository) FindByApplication(ctx context.Context, applicationID uuid.UUID, status *access.Status) ([]*access.Access, error) {
	query := r.db.WithContext(ctx).Where("application_id = ?", applicationID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var rows []models.AccessModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	accesses := make([]*access.Access, len(rows))
	for i := range rows {
		accesses[i] = rows[i].ToDomain()
	}
	return accesses, nil
}

// Ensure GormAccessRepository implements AccessRepository
var _ access.AccessRepository = (*GormAccessRepository)(nil)
