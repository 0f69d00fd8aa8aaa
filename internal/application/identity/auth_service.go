package identity

import (
	"context"
	"errors"
	"strings"
	"time"

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

// Errors returned by the authentication service
var (
	ErrUserNotRegistered = shared.NewDomainError("USER_NOT_REGISTERED", "Usuário não cadastrado.")
	ErrUserNotFound      = shared.NewDomainError("USER_NOT_FOUND", "Usuário não encontrado.")
	ErrIncorrectData     = shared.NewDomainError("INCORRECT_DATA", "Dados incorretos! Confira os dados de acesso.")
	ErrEmailInUse        = shared.NewDomainError("EMAIL_IN_USE", "Endereço de e-mail em uso")
	ErrInvalidResetCode  = shared.NewDomainError("INVALID_RESET_CODE", "Código de redefinição de senha inválido ou expirado.")
	ErrTokenRevoked      = shared.NewDomainError("TOKEN_REVOKED", "Sessão encerrada. Efetue login novamente.")
)

// EmailChangedMessage is returned after a successful email change
const EmailChangedMessage = "Alteração efetuada com sucesso. Confirme o novo endereço de e-mail para se autenticar"

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
	// IsStaff reports whether a username is granted the staff claim
	IsStaff func(userName string) bool
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: identity.MaxFailedAttempts,
		LockDuration:     identity.LockoutDuration,
	}
}

// AuthService handles authentication and credential operations
type AuthService struct {
	userRepo   identity.UserRepository
	personRepo account.PersonRepository
	scope      port.TransactionScope
	sei        port.SeiGateway
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	sender     *notification.Sender
	events     shared.EventPublisher
	config     AuthServiceConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	personRepo account.PersonRepository,
	scope port.TransactionScope,
	sei port.SeiGateway,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	sender *notification.Sender,
	events shared.EventPublisher,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		personRepo: personRepo,
		scope:      scope,
		sei:        sei,
		jwtService: jwtService,
		blacklist:  blacklist,
		sender:     sender,
		events:     events,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

// Login authenticates a user by CPF or CNPJ and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	userName := account.NormalizeUsername(input.Username)
	log := s.logger.With(logger.Document(userName))
	log.Info("Login attempt")

	user, err := s.userRepo.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			log.Warn("User not found during login")
			return nil, ErrUserNotRegistered
		}
		return nil, err
	}

	if !user.EmailConfirmed {
		log.Warn("Login attempt with unconfirmed email")
		return nil, identity.ErrEmailNotConfirmed
	}

	if user.IsPerson() {
		s.syncSignatureStatus(ctx, user)
	}

	now := s.now()
	if user.IsLockedOut(now) {
		log.Warn("Login attempt for locked account")
		return nil, identity.ErrAccountLocked
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(now, s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			log.Error("Failed to update user after login failure", zap.Error(err))
		}

		if locked {
			log.Warn("Account locked after too many failed attempts",
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, identity.ErrAccountLocked
		}

		log.Warn("Invalid password attempt", zap.Int("failed_attempts", user.FailedAttempts))
		return nil, identity.ErrInvalidLogin
	}

	pair, err := s.jwtService.GenerateTokenPair(s.tokenInput(user))
	if err != nil {
		log.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Falha ao gerar os tokens de autenticação")
	}

	user.RecordLoginSuccess(now, input.IP)
	if err := s.userRepo.Update(ctx, user); err != nil {
		// the session is valid even if the bookkeeping failed
		log.Error("Failed to update user after successful login", zap.Error(err))
	}

	log.Info("User logged in successfully", zap.String("user_id", user.ID.String()))

	return &LoginResult{
		TokenResult: tokenResult(pair),
		User:        s.userInfo(user),
	}, nil
}

// syncSignatureStatus refreshes the person's signature from SEI and copies
// it to the user. Failures are logged and never block the login.
func (s *AuthService) syncSignatureStatus(ctx context.Context, user *identity.User) {
	person, err := s.personRepo.FindByCPF(ctx, user.UserName)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("Failed to load person for signature sync", zap.Error(err))
		}
		return
	}

	old := person.SignatureStatus
	if err := s.sei.UpdateSignatureStatus(ctx, person); err != nil {
		s.logger.Warn("Failed to refresh signature status from SEI",
			logger.Document(person.CPF), zap.Error(err))
		return
	}
	if person.SignatureStatus != old {
		if err := s.personRepo.Update(ctx, person); err != nil {
			s.logger.Error("Failed to persist signature status", zap.Error(err))
			return
		}
		s.publish(ctx, person.GetDomainEvents()...)
		person.ClearDomainEvents()
	}
	user.SyncSignatureStatus(person.SignatureStatus)
}

// RefreshToken issues a new token pair from a valid refresh token
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*TokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Token inválido")
	}

	if revoked, err := s.isRevoked(ctx, claims); err != nil {
		return nil, err
	} else if revoked {
		return nil, ErrTokenRevoked
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("User not found during token refresh", zap.String("user_id", userID.String()))
		return nil, ErrUserNotFound
	}
	if !user.EmailConfirmed {
		return nil, identity.ErrEmailNotConfirmed
	}

	pair, err := s.jwtService.RefreshTokenPair(input.RefreshToken, s.tokenInput(user))
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	result := tokenResult(pair)
	return &result, nil
}

func (s *AuthService) isRevoked(ctx context.Context, claims *auth.Claims) (bool, error) {
	if claims.ID != "" {
		blacklisted, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil || blacklisted {
			return blacklisted, err
		}
	}
	return s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("User logout", zap.String("user_id", input.UserID.String()))

	if input.TokenID != "" {
		ttl := input.ExpiresAt.Sub(s.now())
		if ttl > 0 {
			if err := s.blacklist.AddToBlacklist(ctx, input.TokenID, ttl); err != nil {
				return err
			}
		}
	}

	if input.RefreshToken == "" {
		return nil
	}
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil || claims.UserID != input.UserID.String() {
		// an unusable refresh token needs no revocation
		return nil
	}
	return s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL())
}

// GetCurrentUser retrieves the current user's information
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	info := s.userInfo(user)
	return &info, nil
}

// ForgotPassword mails a password reset link when the document and the
// email match the same user
func (s *AuthService) ForgotPassword(ctx context.Context, input ForgotPasswordInput) error {
	userName := account.NormalizeUsername(input.Document)

	user, err := s.userRepo.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrIncorrectData
		}
		return err
	}
	if !strings.EqualFold(user.Email, strings.TrimSpace(input.Email)) {
		return ErrIncorrectData
	}

	s.logger.Info("Password reset requested", logger.Document(userName))
	return s.sender.SendPasswordReset(ctx, user)
}

// ResetPassword sets a new password from a reset link. Unknown emails
// succeed silently so the endpoint does not reveal registered addresses.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if input.Password != input.ConfirmPassword {
		return identity.ErrPasswordMismatch
	}

	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if input.Document != "" && account.NormalizeUsername(input.Document) != user.UserName {
		return nil
	}

	if err := s.jwtService.ValidatePurposeToken(input.Code, auth.TokenTypePasswordReset, user.ID, user.SecurityStamp); err != nil {
		s.logger.Warn("Invalid password reset code", logger.Document(user.UserName), zap.Error(err))
		return ErrInvalidResetCode
	}

	if err := user.SetPassword(input.Password); err != nil {
		return err
	}
	user.Unlock()

	if err := s.scope.Execute(ctx, func(repos port.TransactionalRepositories) error {
		if user.IsPerson() {
			if err := s.revokeSeiPassword(ctx, repos, user, input.Password); err != nil {
				return err
			}
		}
		return repos.UserRepo().Update(ctx, user)
	}); err != nil {
		return err
	}

	s.invalidateSessions(ctx, user)
	s.logger.Info("Password reset", logger.Document(user.UserName))
	return nil
}

// revokeSeiPassword changes the SEI password of the user's person and
// resets the signature to unsolicited, persisting the person
func (s *AuthService) revokeSeiPassword(ctx context.Context, repos port.TransactionalRepositories, user *identity.User, password string) error {
	person, err := repos.PersonRepo().FindByCPF(ctx, user.UserName)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}

	old := person.SignatureStatus
	if err := s.sei.ChangePassword(ctx, person, password, true); err != nil {
		return err
	}
	if person.SignatureStatus != old {
		if err := repos.PersonRepo().Update(ctx, person); err != nil {
			return err
		}
		s.publish(ctx, person.GetDomainEvents()...)
		person.ClearDomainEvents()
	}
	user.SyncSignatureStatus(person.SignatureStatus)
	return nil
}

// ChangePassword changes a user's password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return ErrUserNotFound
	}

	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}

	if user.IsPerson() {
		person, err := s.personRepo.FindByCPF(ctx, user.UserName)
		switch {
		case err == nil:
			if err := s.sei.ChangePassword(ctx, person, input.NewPassword, false); err != nil {
				return err
			}
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user after password change", zap.Error(err))
		return err
	}

	if err := s.sender.SendPasswordChanged(ctx, user, s.now()); err != nil {
		s.logger.Warn("Password change notice not sent", zap.Error(err))
	}
	s.publish(ctx, user.GetDomainEvents()...)
	user.ClearDomainEvents()

	s.logger.Info("User password changed", zap.String("user_id", input.UserID.String()))
	return nil
}

// ChangeEmail replaces the user's email. The new address must be
// confirmed, every open session is closed and, for people, the SEI user is
// updated and its signature revoked.
func (s *AuthService) ChangeEmail(ctx context.Context, input ChangeEmailInput) (string, error) {
	email := strings.TrimSpace(input.Email)
	if !strings.EqualFold(email, strings.TrimSpace(input.ConfirmEmail)) {
		return "", identity.ErrEmailMismatch
	}

	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return "", ErrUserNotFound
	}
	if err := user.CheckPassword(input.Password); err != nil {
		return "", err
	}

	inUse, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if inUse {
		return "", ErrEmailInUse
	}

	if err := user.ChangeEmail(email); err != nil {
		return "", err
	}

	var person *account.Person
	if user.IsPerson() {
		person, err = s.personRepo.FindByCPF(ctx, user.UserName)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return "", err
		}
	}
	if person != nil {
		if err := person.ChangeEmail(email); err != nil {
			return "", err
		}
		if person.HasSeiUser() {
			if err := s.sei.CreateOrUpdateUser(ctx, person, input.Password); err != nil {
				return "", err
			}
		}
		if err := s.sei.ChangePassword(ctx, person, input.Password, true); err != nil {
			return "", err
		}
		user.SyncSignatureStatus(person.SignatureStatus)
	}

	if err := s.scope.Execute(ctx, func(repos port.TransactionalRepositories) error {
		if err := repos.UserRepo().Update(ctx, user); err != nil {
			return err
		}
		if person != nil {
			return repos.PersonRepo().Update(ctx, person)
		}
		return nil
	}); err != nil {
		return "", err
	}
	if person != nil {
		s.publish(ctx, person.GetDomainEvents()...)
		person.ClearDomainEvents()
	}

	if err := s.sender.SendEmailConfirmation(ctx, user); err != nil {
		s.logger.Warn("Email confirmation not sent", zap.Error(err))
	}
	s.invalidateSessions(ctx, user)

	s.logger.Info("User email changed", zap.String("user_id", user.ID.String()))
	return EmailChangedMessage, nil
}

func (s *AuthService) invalidateSessions(ctx context.Context, user *identity.User) {
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to invalidate user sessions", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

func (s *AuthService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish events", zap.Error(err))
	}
}

func (s *AuthService) isStaff(userName string) bool {
	return s.config.IsStaff != nil && s.config.IsStaff(userName)
}

func (s *AuthService) tokenInput(u *identity.User) auth.GenerateTokenInput {
	return auth.GenerateTokenInput{
		UserID:          u.ID,
		Username:        u.UserName,
		FullName:        u.FullUserName,
		SignatureStatus: u.SignatureStatus.Code(),
		Staff:           s.isStaff(u.UserName),
	}
}

func tokenResult(pair *auth.TokenPair) TokenResult {
	return TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
}

// mapTokenError maps JWT errors to domain errors
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Sessão expirada. Efetue login novamente.")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Limite de renovações da sessão atingido. Efetue login novamente.")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Token inválido")
	}
}
