package identity

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/joinville/accounts/internal/domain/identity"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrAuthTokenInvalid is returned for unknown authentication tokens
var ErrAuthTokenInvalid = shared.NewDomainError("AUTH_TOKEN_INVALID", "Token inválido.")

// homeURL is where the portal sends users with no valid return address
const homeURL = "/"

// TokenService issues the one-time tokens that hand an authenticated
// portal user over to an external application
type TokenService struct {
	tokenRepo identity.AuthTokenRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewTokenService creates a new authentication token service
func NewTokenService(tokenRepo identity.AuthTokenRepository, logger *zap.Logger) *TokenService {
	return &TokenService{tokenRepo: tokenRepo, logger: logger, now: time.Now}
}

// Issue creates a token for userName and returns returnURL with the token
// added to its query. Anything but an absolute http(s) URL sends the user
// home without a token.
func (s *TokenService) Issue(ctx context.Context, userName, returnURL string) (string, error) {
	u, err := url.Parse(returnURL)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return homeURL, nil
	}

	token := identity.NewAuthenticationToken(userName, u, s.now())
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("token", token.Token)
	u.RawQuery = q.Encode()

	s.logger.Info("Authentication token issued",
		logger.Document(userName),
		zap.String("domain", token.Domain))
	return u.String(), nil
}

// Redeem marks the token used and returns the username it was issued for.
// domain is the host of the relying application and must match the one the
// token was issued for.
func (s *TokenService) Redeem(ctx context.Context, token, domain string) (string, error) {
	t, err := s.tokenRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", ErrAuthTokenInvalid
		}
		return "", err
	}

	if err := t.Redeem(domain, s.now()); err != nil {
		s.logger.Warn("Authentication token refused", zap.String("domain", domain), zap.Error(err))
		return "", err
	}
	if err := s.tokenRepo.Update(ctx, t); err != nil {
		return "", err
	}
	return t.UserName, nil
}

// PurgeExpired deletes tokens that can no longer be redeemed
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.tokenRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Expired authentication tokens purged", zap.Int64("count", n))
	}
	return n, nil
}
