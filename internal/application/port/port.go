// Package port declares the outbound dependencies of the application
// services: the SEI system, outbound mail, the document archive and the
// transaction scope that spans several repositories.
package port

import (
	"context"

	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/identity"
)

// SeiGateway provisions external users, protocols and documents in SEI
type SeiGateway interface {
	// AddDocument attaches a PDF to the protocol
	AddDocument(ctx context.Context, protocol, title string, pdf []byte) error
	// AddTextDocument attaches a plain text form. Blank content is ignored.
	AddTextDocument(ctx context.Context, protocol, title, content string) error
	// CreateProtocol opens a new process for the person and records its
	// number and link on the person
	CreateProtocol(ctx context.Context, person *account.Person) error
	// ReopenProtocol reopens a concluded process
	ReopenProtocol(ctx context.Context, protocol string) error
	// ChangePassword sets the SEI password. When revoke is true the
	// external user goes back to pending and the person's signature is
	// reset to unsolicited.
	ChangePassword(ctx context.Context, person *account.Person, password string, revoke bool) error
	// FindPersonByID returns nil when SEI does not know the user
	FindPersonByID(ctx context.Context, id int64) (*account.Person, error)
	// FindPersonByEmail returns nil when SEI does not know the email
	FindPersonByEmail(ctx context.Context, email string) (*account.Person, error)
	// CreateOrUpdateUser upserts the external user and records its id on
	// the person
	CreateOrUpdateUser(ctx context.Context, person *account.Person, password string) error
	// UpdateSignatureStatus merges the status reported by SEI into person
	UpdateSignatureStatus(ctx context.Context, person *account.Person) error
	// SignatureIsApproved reports whether SEI lists the user as released
	SignatureIsApproved(ctx context.Context, person *account.Person) (bool, error)
}

// Message is a plain text email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends email
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// DocumentArchive keeps a copy of the documents submitted to SEI
type DocumentArchive interface {
	Store(ctx context.Context, key string, data []byte, contentType string) error
}

// TransactionalRepositories provides the account repositories bound to one
// database transaction
type TransactionalRepositories interface {
	UserRepo() identity.UserRepository
	PersonRepo() account.PersonRepository
	CompanyRepo() account.CompanyRepository
	AddressRepo() account.AddressRepository
	PhoneRepo() account.PhoneRepository
}

// TransactionScope runs fn atomically. When fn returns an error every
// write made through repos is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// NoOpTransactionScope runs fn against plain repositories without a
// transaction. Service tests use it with mocks.
type NoOpTransactionScope struct {
	Users     identity.UserRepository
	People    account.PersonRepository
	Companies account.CompanyRepository
	Addresses account.AddressRepository
	Phones    account.PhoneRepository
}

// Execute calls fn with the scope itself as the repository set
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// UserRepo returns the user repository
func (s *NoOpTransactionScope) UserRepo() identity.UserRepository { return s.Users }

// PersonRepo returns the person repository
func (s *NoOpTransactionScope) PersonRepo() account.PersonRepository { return s.People }

// CompanyRepo returns the company repository
func (s *NoOpTransactionScope) CompanyRepo() account.CompanyRepository { return s.Companies }

// AddressRepo returns the address repository
func (s *NoOpTransactionScope) AddressRepo() account.AddressRepository { return s.Addresses }

// PhoneRepo returns the phone repository
func (s *NoOpTransactionScope) PhoneRepo() account.PhoneRepository { return s.Phones }
