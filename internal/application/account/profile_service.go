package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/application/port"
	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/identity"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Errors returned by the profile service
var (
	ErrPhoneOwnership = shared.NewDomainError("FORBIDDEN", "Este telefone pertence a outro usuário")
	ErrDuplicatePhone = shared.NewDomainError("ALREADY_EXISTS", "Número de telefone já cadastrado para o seu usuário.")
	ErrLastPhone      = shared.NewDomainError("INVALID_STATE", "Você deve ter pelo menos um telefone de contato cadastrado.")
)

// UpdatedMessage is returned after a successful profile change
const UpdatedMessage = "Registro atualizado com sucesso"

// ProfileService lets the logged user maintain the registration data.
// Every change asks for the current password, and changes of a person
// already registered in SEI are mirrored there.
type ProfileService struct {
	userRepo    identity.UserRepository
	personRepo  account.PersonRepository
	companyRepo account.CompanyRepository
	phoneRepo   account.PhoneRepository
	scope       port.TransactionScope
	sei         port.SeiGateway
	events      shared.EventPublisher
	logger      *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(
	userRepo identity.UserRepository,
	personRepo account.PersonRepository,
	companyRepo account.CompanyRepository,
	phoneRepo account.PhoneRepository,
	scope port.TransactionScope,
	sei port.SeiGateway,
	events shared.EventPublisher,
	logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		userRepo:    userRepo,
		personRepo:  personRepo,
		companyRepo: companyRepo,
		phoneRepo:   phoneRepo,
		scope:       scope,
		sei:         sei,
		events:      events,
		logger:      logger,
	}
}

// GetProfile returns the person or the company owning document, with its
// address and phones
func (s *ProfileService) GetProfile(ctx context.Context, document string) (*ProfileResponse, error) {
	if account.IsPersonDocument(document) {
		person, err := s.personRepo.FindByCPF(ctx, document)
		if err != nil {
			return nil, err
		}
		return &ProfileResponse{
			Person:  ToPersonResponse(person),
			Address: ToAddressResponse(person.Address),
			Phones:  ToPhoneResponses(person.Phones),
		}, nil
	}

	company, err := s.companyRepo.FindByCNPJ(ctx, document)
	if err != nil {
		return nil, err
	}
	return &ProfileResponse{
		Company: ToCompanyResponse(company),
		Address: ToAddressResponse(company.Address),
		Phones:  ToPhoneResponses(company.Phones),
	}, nil
}

// GetPerson returns the person registered with cpf
func (s *ProfileService) GetPerson(ctx context.Context, cpf string) (*PersonResponse, error) {
	person, err := s.personRepo.FindByCPF(ctx, cpf)
	if err != nil {
		return nil, err
	}
	return ToPersonResponse(person), nil
}

// EditPerson changes name, RG and dispatcher of a citizen. The SEI
// password is reset, which revokes an issued signature, and SEI receives a
// report of the changed fields.
func (s *ProfileService) EditPerson(ctx context.Context, in EditPersonInput) (*PersonResponse, error) {
	log := s.logger.With(logger.Document(in.Document))

	user, err := s.authorize(ctx, in.Document, in.Password)
	if err != nil {
		return nil, err
	}
	person, err := s.personRepo.FindByCPF(ctx, in.Document)
	if err != nil {
		return nil, err
	}

	old := person.Clone()
	if err := person.Edit(in.Name, in.RG, in.Dispatcher); err != nil {
		return nil, err
	}
	if err := s.sei.ChangePassword(ctx, person, in.Password, true); err != nil {
		log.Error("Failed to reset SEI password", zap.Error(err))
		return nil, err
	}

	user.SetFullUserName(person.Name)
	user.SyncSignatureStatus(person.SignatureStatus)
	if err := s.scope.Execute(ctx, func(repos port.TransactionalRepositories) error {
		if err := repos.UserRepo().Update(ctx, user); err != nil {
			return err
		}
		return repos.PersonRepo().Update(ctx, person)
	}); err != nil {
		return nil, err
	}
	s.publish(ctx, person)

	if person.HasSeiUser() {
		if err := s.sei.CreateOrUpdateUser(ctx, person, in.Password); err != nil {
			log.Error("Failed to update SEI user", zap.Error(err))
			return nil, err
		}
		if doc := account.UserChangeDocument(account.PersonChanges(person, old)); doc != "" && person.SeiProtocol != "" {
			if err := s.sei.AddTextDocument(ctx, person.SeiProtocol, account.UserChangeDocumentTitle, doc); err != nil {
				log.Error("Failed to send change report to SEI", zap.Error(err))
				return nil, err
			}
		}
	}

	log.Info("Person edited")
	return ToPersonResponse(person), nil
}

// UpdateAddress replaces the address of the person or company owning
// document
func (s *ProfileService) UpdateAddress(ctx context.Context, in UpdateAddressInput) (string, error) {
	if _, err := s.authorize(ctx, in.Document, in.Password); err != nil {
		return "", err
	}

	var address *account.Address
	if account.IsPersonDocument(in.Document) {
		person, err := s.personRepo.FindByCPF(ctx, in.Document)
		if err != nil {
			return "", err
		}
		address = person.Address
	} else {
		company, err := s.companyRepo.FindByCNPJ(ctx, in.Document)
		if err != nil {
			return "", err
		}
		address = company.Address
	}
	if address == nil {
		return "", shared.ErrNotFound
	}

	if err := in.Address.apply(address); err != nil {
		return "", err
	}
	if err := s.scope.Execute(ctx, func(repos port.TransactionalRepositories) error {
		return repos.AddressRepo().Update(ctx, address)
	}); err != nil {
		return "", err
	}

	if err := s.syncSeiUser(ctx, in.Document, in.Password); err != nil {
		return "", err
	}
	s.logger.Info("Address updated", logger.Document(in.Document))
	return UpdatedMessage, nil
}

// ListPhones returns the phones of document
func (s *ProfileService) ListPhones(ctx context.Context, document string) ([]PhoneResponse, error) {
	phones, err := s.phoneRepo.FindByDocument(ctx, document)
	if err != nil {
		return nil, err
	}
	return ToPhoneResponses(phones), nil
}

// GetPhone returns one phone of document
func (s *ProfileService) GetPhone(ctx context.Context, document string, id uuid.UUID) (*PhoneResponse, error) {
	phone, err := s.ownedPhone(ctx, document, id)
	if err != nil {
		return nil, err
	}
	resp := ToPhoneResponse(phone)
	return &resp, nil
}

// CreatePhone adds a contact number
func (s *ProfileService) CreatePhone(ctx context.Context, in PhoneInput) (*PhoneResponse, error) {
	phone, err := account.NewPhone(in.Document, in.Number)
	if err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(ctx, phone); err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, in.Document, in.Password); err != nil {
		return nil, err
	}

	if err := s.phoneRepo.Create(ctx, phone); err != nil {
		return nil, err
	}
	if err := s.syncSeiUser(ctx, in.Document, in.Password); err != nil {
		return nil, err
	}

	resp := ToPhoneResponse(phone)
	return &resp, nil
}

// UpdatePhone changes a contact number
func (s *ProfileService) UpdatePhone(ctx context.Context, in PhoneInput) (*PhoneResponse, error) {
	phone, err := s.ownedPhone(ctx, in.Document, in.ID)
	if err != nil {
		return nil, err
	}
	if err := phone.ChangeNumber(in.Number); err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(ctx, phone); err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, in.Document, in.Password); err != nil {
		return nil, err
	}

	if err := s.phoneRepo.Update(ctx, phone); err != nil {
		return nil, err
	}
	if err := s.syncSeiUser(ctx, in.Document, in.Password); err != nil {
		return nil, err
	}

	resp := ToPhoneResponse(phone)
	return &resp, nil
}

// DeletePhone removes a contact number. The last phone cannot be removed.
func (s *ProfileService) DeletePhone(ctx context.Context, in DeletePhoneInput) error {
	if _, err := s.authorize(ctx, in.Document, in.Password); err != nil {
		return err
	}
	phone, err := s.ownedPhone(ctx, in.Document, in.ID)
	if err != nil {
		return err
	}

	count, err := s.phoneRepo.CountByDocument(ctx, in.Document)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastPhone
	}

	if err := s.phoneRepo.Delete(ctx, phone.ID); err != nil {
		return err
	}
	return s.syncSeiUser(ctx, in.Document, in.Password)
}

// authorize loads the user and checks the password typed to confirm a change
func (s *ProfileService) authorize(ctx context.Context, document, password string) (*identity.User, error) {
	user, err := s.userRepo.FindByUserName(ctx, document)
	if err != nil {
		return nil, err
	}
	if err := user.CheckPassword(password); err != nil {
		s.logger.Warn("Profile change with wrong password", logger.Document(document))
		return nil, err
	}
	return user, nil
}

func (s *ProfileService) ownedPhone(ctx context.Context, document string, id uuid.UUID) (*account.Phone, error) {
	phone, err := s.phoneRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !phone.BelongsTo(document) {
		s.logger.Warn("Access to a phone of another user", logger.Document(document), zap.String("phone_id", id.String()))
		return nil, ErrPhoneOwnership
	}
	return phone, nil
}

func (s *ProfileService) checkDuplicate(ctx context.Context, phone *account.Phone) error {
	exists, err := s.phoneRepo.ExistsNumber(ctx, phone.Document, phone.Number, phone.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicatePhone
	}
	return nil
}

// syncSeiUser pushes the current contact data of a person registered in SEI
func (s *ProfileService) syncSeiUser(ctx context.Context, document, password string) error {
	if !account.IsPersonDocument(document) {
		return nil
	}
	person, err := s.personRepo.FindByCPF(ctx, document)
	if err != nil {
		return err
	}
	if !person.HasSeiUser() {
		return nil
	}
	if err := s.sei.CreateOrUpdateUser(ctx, person, password); err != nil {
		s.logger.Error("Failed to update SEI user", logger.Document(document), zap.Error(err))
		return err
	}
	return nil
}

func (s *ProfileService) publish(ctx context.Context, person *account.Person) {
	if err := s.events.Publish(ctx, person.GetDomainEvents()...); err != nil {
		s.logger.Warn("Failed to publish person events", zap.Error(err))
	}
	person.ClearDomainEvents()
}
