package persistence

import (
	"context"

	"github.com/joinville/accounts/internal/application/port"
	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/identity"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos port.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides the account repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) UserRepo() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

func (r *gormTransactionalRepositories) PersonRepo() account.PersonRepository {
	return NewGormPersonRepository(r.tx)
}

func (r *gormTransactionalRepositories) CompanyRepo() account.CompanyRepository {
	return NewGormCompanyRepository(r.tx)
}

func (r *gormTransactionalRepositories) AddressRepo() account.AddressRepository {
	return NewGormAddressRepository(r.tx)
}

func (r *gormTransactionalRepositories) PhoneRepo() account.PhoneRepository {
	return NewGormPhoneRepository(r.tx)
}

var (
	_ port.TransactionScope          = (*GormTransactionScope)(nil)
	_ port.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
