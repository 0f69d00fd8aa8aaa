package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/application/notification"
	"github.com/joinville/accounts/internal/application/port"
	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/identity"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/auth"
	"github.com/joinville/accounts/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Errors returned by the registration service
var (
	ErrIncorrectData           = shared.NewDomainError("INCORRECT_DATA", "Dados incorretos. Confira os dados de acesso.")
	ErrInvalidConfirmationCode = shared.NewDomainError("INVALID_CONFIRMATION_CODE", "Código de confirmação inválido ou expirado.")
)

// RegisteredMessage is returned after a successful registration
const RegisteredMessage = "Cadastro realizado com sucesso. Foi lhe enviado um e-mail para confirmação do cadastro. " +
	"Caso não tenha recebido o e-mail, verifique sua caixa de spam ou solicite o reenvio do e-mail de confirmação."

// RegistrationService handles self registration of people and companies
// and the confirmation of their email
type RegistrationService struct {
	userRepo   identity.UserRepository
	scope      port.TransactionScope
	jwtService *auth.JWTService
	sender     *notification.Sender
	events     shared.EventPublisher
	logger     *zap.Logger
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	userRepo identity.UserRepository,
	scope port.TransactionScope,
	jwtService *auth.JWTService,
	sender *notification.Sender,
	events shared.EventPublisher,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		userRepo:   userRepo,
		scope:      scope,
		jwtService: jwtService,
		sender:     sender,
		events:     events,
		logger:     logger,
	}
}

// RegisterPerson creates the user, the person, its address and phones of a
// citizen and mails the confirmation link
func (s *RegistrationService) RegisterPerson(ctx context.Context, in RegisterPersonInput) (*RegistrationResult, error) {
	ve := &shared.ValidationError{}
	address, err := in.Address.build()
	ve.Merge(err)
	person, err := account.NewPerson(account.PersonData{
		Name:       in.Name,
		CPF:        in.CPF,
		Email:      in.Email,
		RG:         in.RG,
		Dispatcher: in.Dispatcher,
	}, address)
	ve.Merge(err)
	checkCredentials(ve, in.Email, in.ConfirmEmail, in.Password, in.ConfirmPassword)
	if err := ve.Err(); err != nil {
		return nil, err
	}

	phones, err := buildPhones(person.CPF, in.Phones)
	if err != nil {
		return nil, err
	}

	user, err := s.newUser(ctx, person.CPF, person.Email, in.Password)
	if err != nil {
		return nil, err
	}
	user.FullUserName = person.Name
	user.SignatureStatus = person.SignatureStatus

	if err := s.scope.Execute(ctx, func(repos port.TransactionalRepositories) error {
		if err := repos.UserRepo().Create(ctx, user); err != nil {
			return err
		}
		if err := repos.AddressRepo().Create(ctx, address); err != nil {
			return err
		}
		if err := repos.PersonRepo().Create(ctx, person); err != nil {
			return err
		}
		return createPhones(ctx, repos.PhoneRepo(), phones)
	}); err != nil {
		s.logger.Error("Failed to register person", logger.Document(person.CPF), zap.Error(err))
		return nil, err
	}

	return s.registered(ctx, user), nil
}

// RegisterCompany creates the user, the company, its address and phones of
// a legal entity and mails the confirmation link
func (s *RegistrationService) RegisterCompany(ctx context.Context, in RegisterCompanyInput) (*RegistrationResult, error) {
	ve := &shared.ValidationError{}
	address, err := in.Address.build()
	ve.Merge(err)
	company, err := account.NewCompany(account.CompanyData{
		CNPJ:                  in.CNPJ,
		Email:                 in.Email,
		Name:                  in.Name,
		CompanyName:           in.CompanyName,
		MunicipalRegistration: in.MunicipalRegistration,
	}, address)
	ve.Merge(err)
	checkCredentials(ve, in.Email, in.ConfirmEmail, in.Password, in.ConfirmPassword)
	if err := ve.Err(); err != nil {
		return nil, err
	}

	phones, err := buildPhones(company.CNPJ, in.Phones)
	if err != nil {
		return nil, err
	}

	user, err := s.newUser(ctx, company.CNPJ, company.Email, in.Password)
	if err != nil {
		return nil, err
	}

	if err := s.scope.Execute(ctx, func(repos port.TransactionalRepositories) error {
		if err := repos.UserRepo().Create(ctx, user); err != nil {
			return err
		}
		if err := repos.AddressRepo().Create(ctx, address); err != nil {
			return err
		}
		if err := repos.CompanyRepo().Create(ctx, company); err != nil {
			return err
		}
		return createPhones(ctx, repos.PhoneRepo(), phones)
	}); err != nil {
		s.logger.Error("Failed to register company", logger.Document(company.CNPJ), zap.Error(err))
		return nil, err
	}

	return s.registered(ctx, user), nil
}

// newUser checks that document and email are free and builds the user
func (s *RegistrationService) newUser(ctx context.Context, document, email, password string) (*identity.User, error) {
	exists, err := s.userRepo.ExistsByUserName(ctx, document)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Usuário %s já está registrado.", document))
	}

	exists, err = s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("E-mail %s já está registrado.", email))
	}

	return identity.NewUser(document, email, password)
}

func (s *RegistrationService) registered(ctx context.Context, user *identity.User) *RegistrationResult {
	if err := s.sender.SendEmailConfirmation(ctx, user); err != nil {
		s.logger.Warn("Confirmation email not sent", logger.Document(user.UserName), zap.Error(err))
	}
	if err := s.events.Publish(ctx, user.GetDomainEvents()...); err != nil {
		s.logger.Warn("Failed to publish registration events", zap.Error(err))
	}
	user.ClearDomainEvents()

	s.logger.Info("Account registered", logger.Document(user.UserName))
	return &RegistrationResult{UserID: user.ID, Message: RegisteredMessage}
}

// ConfirmEmail validates the code mailed to the user and marks the email
// as confirmed. Confirming twice is not an error.
func (s *RegistrationService) ConfirmEmail(ctx context.Context, userID uuid.UUID, code string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrInvalidConfirmationCode
		}
		return err
	}

	if err := s.jwtService.ValidatePurposeToken(code, auth.TokenTypeEmailConfirmation, user.ID, user.SecurityStamp); err != nil {
		s.logger.Warn("Invalid email confirmation code", logger.Document(user.UserName), zap.Error(err))
		return ErrInvalidConfirmationCode
	}
	if user.EmailConfirmed {
		return nil
	}

	user.ConfirmEmail()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info("Email confirmed", logger.Document(user.UserName))
	return nil
}

// SendEmailConfirmation mails a new confirmation link when document and
// email match an unconfirmed user
func (s *RegistrationService) SendEmailConfirmation(ctx context.Context, document, email string) (string, error) {
	document = shared.OnlyDigits(document)
	email = strings.TrimSpace(email)

	user, err := s.userRepo.FindByUserName(ctx, document)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", ErrIncorrectData
		}
		return "", err
	}
	if !strings.EqualFold(user.Email, email) {
		return "", ErrIncorrectData
	}
	if user.EmailConfirmed {
		return fmt.Sprintf("O email %s já foi confirmado.", email), nil
	}

	if err := s.sender.SendEmailConfirmation(ctx, user); err != nil {
		return "", err
	}
	return fmt.Sprintf("Email de confirmação enviado para %s", email), nil
}

func checkCredentials(ve *shared.ValidationError, email, confirmEmail, password, confirmPassword string) {
	if strings.TrimSpace(email) != strings.TrimSpace(confirmEmail) {
		ve.Add("confirm_email", identity.ErrEmailMismatch.Message)
	}
	ve.Merge(identity.ValidatePassword(password))
	if password != confirmPassword {
		ve.Add("confirm_password", identity.ErrPasswordMismatch.Message)
	}
}

// buildPhones drops repeated numbers and validates the rest
func buildPhones(document string, numbers []string) ([]*account.Phone, error) {
	distinct := account.DistinctNumbers(numbers)
	if len(distinct) == 0 {
		ve := &shared.ValidationError{}
		ve.Add("phones", "Você deve ter pelo menos um telefone de contato cadastrado.")
		return nil, ve
	}

	phones := make([]*account.Phone, 0, len(distinct))
	for _, n := range distinct {
		phone, err := account.NewPhone(document, n)
		if err != nil {
			ve := &shared.ValidationError{}
			ve.Add("phones", fmt.Sprintf("Número de telefone %s inválido, utilize o formato (xx) xxxxxxxx, nono dígito opcional.", n))
			return nil, ve
		}
		phones = append(phones, phone)
	}
	return phones, nil
}

func createPhones(ctx context.Context, repo account.PhoneRepository, phones []*account.Phone) error {
	for _, p := range phones {
		if err := repo.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
