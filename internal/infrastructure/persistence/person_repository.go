package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPersonRepository implements PersonRepository using GORM. The
// address and the phones are written through their own repositories and
// preloaded on reads.
type GormPersonRepository struct {
	db *gorm.DB
}

// NewGormPersonRepository creates a new GormPersonRepository
func NewGormPersonRepository(db *gorm.DB) *GormPersonRepository {
	return &GormPersonRepository{db: db}
}

// Create creates a new person
func (r *GormPersonRepository) Create(ctx context.Context, person *account.Person) error {
	model := models.PersonModelFromDomain(person)
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error
}

// Update updates an existing person with optimistic locking
func (r *GormPersonRepository) Update(ctx context.Context, person *account.Person) error {
	expected := person.Version
	person.IncrementVersion()
	model := models.PersonModelFromDomain(person)
	if err := updateVersioned(ctx, r.db, model, person.ID, expected); err != nil {
		person.Version = expected
		return err
	}
	return nil
}

// FindByCPF finds a person by CPF
func (r *GormPersonRepository) FindByCPF(ctx context.Context, cpf string) (*account.Person, error) {
	return r.findOne(ctx, "cpf = ?", cpf)
}

// FindByEmail finds a person by email, case-insensitively
func (r *GormPersonRepository) FindByEmail(ctx context.Context, email string) (*account.Person, error) {
	return r.findOne(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *GormPersonRepository) findOne(ctx context.Context, query string, args ...any) (*account.Person, error) {
	var model models.PersonModel
	if err := r.withAssociations(ctx).Where(query, args...).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// ExistsByCPF checks if a CPF is already registered
func (r *GormPersonRepository) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PersonModel{}).
		Where("cpf = ?", cpf).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindBySignatureStatus returns up to limit people in the given status,
// never checked first, then least recently checked
func (r *GormPersonRepository) FindBySignatureStatus(ctx context.Context, status account.SignatureStatus, limit int) ([]*account.Person, error) {
	var rows []models.PersonModel
	query := r.withAssociations(ctx).
		Where("signature_status = ?", status).
		Order("signature_checked_at ASC NULLS FIRST").
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	people := make([]*account.Person, len(rows))
	for i := range rows {
		people[i] = rows[i].ToDomain()
	}
	return people, nil
}

// MarkSignatureChecked stamps signature_checked_at without touching the
// version, so it never conflicts with a concurrent update of the person
func (r *GormPersonRepository) MarkSignatureChecked(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.PersonModel{}).
		Where("id = ?", id).
		UpdateColumn("signature_checked_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormPersonRepository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Address").
		Preload("Phones", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
}

// Ensure GormPersonRepository implements PersonRepository
var _ account.PersonRepository = (*GormPersonRepository)(nil)
