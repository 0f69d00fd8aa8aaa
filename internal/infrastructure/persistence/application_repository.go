package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/access"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormApplicationRepository implements ApplicationRepository using GORM
type GormApplicationRepository struct {
	db *gorm.DB
}

// NewGormApplicationRepository creates a new GormApplicationRepository
func NewGormApplicationRepository(db *gorm.DB) *GormApplicationRepository {
	return &GormApplicationRepository{db: db}
}

// Create creates a new application
func (r *GormApplicationRepository) Create(ctx context.Context, app *access.Application) error {
	return r.db.WithContext(ctx).Create(models.ApplicationModelFromDomain(app)).Error
}

// Update saves an application whose version was already incremented by
// the domain
func (r *GormApplicationRepository) Update(ctx context.Context, app *access.Application) error {
	model := models.ApplicationModelFromDomain(app)
	return updateVersioned(ctx, r.db, model, app.ID, app.Version-1)
}

// FindByID finds an application by ID
func (r *GormApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*access.Application, error) {
	var model models.ApplicationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists applications filtered by name with pagination
func (r *GormApplicationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*access.Application, int64, error) {
	var rows []models.ApplicationModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ApplicationModel{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(orderClause(filter, applicationSortFields, "name"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	apps := make([]*access.Application, len(rows))
	for i := range rows {
		apps[i] = rows[i].ToDomain()
	}
	return apps, total, nil
}

// Ensure GormApplicationRepository implements ApplicationRepository
var _ access.ApplicationRepository = (*GormApplicationRepository)(nil)
