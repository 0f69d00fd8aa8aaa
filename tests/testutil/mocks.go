package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/application/port"
	"github.com/joinville/accounts/internal/domain/access"
	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/identity"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUserName(ctx context.Context, userName string) (*identity.User, error) {
	args := m.Called(ctx, userName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUserName(ctx context.Context, userName string) (bool, error) {
	args := m.Called(ctx, userName)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockAuthTokenRepository is a mock implementation of identity.AuthTokenRepository
type MockAuthTokenRepository struct {
	mock.Mock
}

func (m *MockAuthTokenRepository) Create(ctx context.Context, token *identity.AuthenticationToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAuthTokenRepository) Update(ctx context.Context, token *identity.AuthenticationToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAuthTokenRepository) FindByToken(ctx context.Context, token string) (*identity.AuthenticationToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AuthenticationToken), args.Error(1)
}

func (m *MockAuthTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockPersonRepository is a mock implementation of account.PersonRepository
type MockPersonRepository struct {
	mock.Mock
}

func (m *MockPersonRepository) Create(ctx context.Context, person *account.Person) error {
	args := m.Called(ctx, person)
	return args.Error(0)
}

func (m *MockPersonRepository) Update(ctx context.Context, person *account.Person) error {
	args := m.Called(ctx, person)
	return args.Error(0)
}

func (m *MockPersonRepository) FindByCPF(ctx context.Context, cpf string) (*account.Person, error) {
	args := m.Called(ctx, cpf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Person), args.Error(1)
}

func (m *MockPersonRepository) FindByEmail(ctx context.Context, email string) (*account.Person, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Person), args.Error(1)
}

func (m *MockPersonRepository) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	args := m.Called(ctx, cpf)
	return args.Bool(0), args.Error(1)
}

func (m *MockPersonRepository) FindBySignatureStatus(ctx context.Context, status account.SignatureStatus, limit int) ([]*account.Person, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Person), args.Error(1)
}

func (m *MockPersonRepository) MarkSignatureChecked(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockCompanyRepository is a mock implementation of account.CompanyRepository
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) Create(ctx context.Context, company *account.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) Update(ctx context.Context, company *account.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) FindByCNPJ(ctx context.Context, cnpj string) (*account.Company, error) {
	args := m.Called(ctx, cnpj)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Company), args.Error(1)
}

func (m *MockCompanyRepository) ExistsByCNPJ(ctx context.Context, cnpj string) (bool, error) {
	args := m.Called(ctx, cnpj)
	return args.Bool(0), args.Error(1)
}

// MockAddressRepository is a mock implementation of account.AddressRepository
type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) Create(ctx context.Context, address *account.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *MockAddressRepository) Update(ctx context.Context, address *account.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *MockAddressRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Address, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Address), args.Error(1)
}

// MockPhoneRepository is a mock implementation of account.PhoneRepository
type MockPhoneRepository struct {
	mock.Mock
}

func (m *MockPhoneRepository) Create(ctx context.Context, phone *account.Phone) error {
	args := m.Called(ctx, phone)
	return args.Error(0)
}

func (m *MockPhoneRepository) Update(ctx context.Context, phone *account.Phone) error {
	args := m.Called(ctx, phone)
	return args.Error(0)
}

func (m *MockPhoneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPhoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Phone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Phone), args.Error(1)
}

func (m *MockPhoneRepository) FindByDocument(ctx context.Context, document string) ([]account.Phone, error) {
	args := m.Called(ctx, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]account.Phone), args.Error(1)
}

func (m *MockPhoneRepository) CountByDocument(ctx context.Context, document string) (int64, error) {
	args := m.Called(ctx, document)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPhoneRepository) ExistsNumber(ctx context.Context, document, number string, exceptID uuid.UUID) (bool, error) {
	args := m.Called(ctx, document, number, exceptID)
	return args.Bool(0), args.Error(1)
}

// MockApplicationRepository is a mock implementation of access.ApplicationRepository
type MockApplicationRepository struct {
	mock.Mock
}

func (m *MockApplicationRepository) Create(ctx context.Context, app *access.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockApplicationRepository) Update(ctx context.Context, app *access.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*access.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Application), args.Error(1)
}

func (m *MockApplicationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*access.Application, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*access.Application), args.Get(1).(int64), args.Error(2)
}

// MockAccessRepository is a mock implementation of access.AccessRepository
type MockAccessRepository struct {
	mock.Mock
}

func (m *MockAccessRepository) Save(ctx context.Context, a *access.Access) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAccessRepository) FindByID(ctx context.Context, id uuid.UUID) (*access.Access, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Access), args.Error(1)
}

func (m *MockAccessRepository) FindByDocumentAndApplication(ctx context.Context, document string, applicationID uuid.UUID) (*access.Access, error) {
	args := m.Called(ctx, document, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Access), args.Error(1)
}

func (m *MockAccessRepository) FindByApplication(ctx context.Context, applicationID uuid.UUID, status *access.Status) ([]*access.Access, error) {
	args := m.Called(ctx, applicationID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*access.Access), args.Error(1)
}

// MockSeiGateway is a mock implementation of port.SeiGateway
type MockSeiGateway struct {
	mock.Mock
}

func (m *MockSeiGateway) AddDocument(ctx context.Context, protocol, title string, pdf []byte) error {
	args := m.Called(ctx, protocol, title, pdf)
	return args.Error(0)
}

func (m *MockSeiGateway) AddTextDocument(ctx context.Context, protocol, title, content string) error {
	args := m.Called(ctx, protocol, title, content)
	return args.Error(0)
}

func (m *MockSeiGateway) CreateProtocol(ctx context.Context, person *account.Person) error {
	args := m.Called(ctx, person)
	return args.Error(0)
}

func (m *MockSeiGateway) ReopenProtocol(ctx context.Context, protocol string) error {
	args := m.Called(ctx, protocol)
	return args.Error(0)
}

func (m *MockSeiGateway) ChangePassword(ctx context.Context, person *account.Person, password string, revoke bool) error {
	args := m.Called(ctx, person, password, revoke)
	return args.Error(0)
}

func (m *MockSeiGateway) FindPersonByID(ctx context.Context, id int64) (*account.Person, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Person), args.Error(1)
}

func (m *MockSeiGateway) FindPersonByEmail(ctx context.Context, email string) (*account.Person, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Person), args.Error(1)
}

func (m *MockSeiGateway) CreateOrUpdateUser(ctx context.Context, person *account.Person, password string) error {
	args := m.Called(ctx, person, password)
	return args.Error(0)
}

func (m *MockSeiGateway) UpdateSignatureStatus(ctx context.Context, person *account.Person) error {
	args := m.Called(ctx, person)
	return args.Error(0)
}

func (m *MockSeiGateway) SignatureIsApproved(ctx context.Context, person *account.Person) (bool, error) {
	args := m.Called(ctx, person)
	return args.Bool(0), args.Error(1)
}

// MockDocumentArchive is a mock implementation of port.DocumentArchive
type MockDocumentArchive struct {
	mock.Mock
}

func (m *MockDocumentArchive) Store(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

// MockTokenBlacklist is a mock implementation of auth.TokenBlacklist
type MockTokenBlacklist struct {
	mock.Mock
}

func (m *MockTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	args := m.Called(ctx, jti, ttl)
	return args.Error(0)
}

func (m *MockTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenBlacklist) AddUserTokensToBlacklist(ctx context.Context, userID string, ttl time.Duration) error {
	args := m.Called(ctx, userID, ttl)
	return args.Error(0)
}

func (m *MockTokenBlacklist) IsUserTokenInvalidated(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	args := m.Called(ctx, userID, tokenIssuedAt)
	return args.Bool(0), args.Error(1)
}

// RecordingMailer keeps every message instead of sending it
type RecordingMailer struct {
	mu       sync.Mutex
	messages []port.Message
	Err      error
}

// Send records msg, or returns Err when set
func (m *RecordingMailer) Send(_ context.Context, msg port.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns a copy of the recorded messages
func (m *RecordingMailer) Messages() []port.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]port.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Last returns the most recent message, or the zero value
func (m *RecordingMailer) Last() port.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return port.Message{}
	}
	return m.messages[len(m.messages)-1]
}

// RecordingPublisher is a shared.EventPublisher that keeps published events
type RecordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// Publish records the events
func (p *RecordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

// EventTypes returns the types of the published events in order
func (p *RecordingPublisher) EventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

// NewTransactionScope returns a scope over the given mocks without a
// real transaction
func NewTransactionScope(users identity.UserRepository, people account.PersonRepository, companies account.CompanyRepository, addresses account.AddressRepository, phones account.PhoneRepository) *port.NoOpTransactionScope {
	return &port.NoOpTransactionScope{
		Users:     users,
		People:    people,
		Companies: companies,
		Addresses: addresses,
		Phones:    phones,
	}
}
