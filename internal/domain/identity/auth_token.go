package identity

import (
	"encoding/base64"
	"encoding/binary"
	"net/url"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/shared"
)

// AuthTokenLifetime is how long a relying application may redeem a token
const AuthTokenLifetime = 7 * 24 * time.Hour

// Errors returned when redeeming authentication tokens
var (
	ErrTokenUsed          = shared.NewDomainError("TOKEN_USED", "Token já utilizado.")
	ErrTokenExpired       = shared.NewDomainError("TOKEN_EXPIRED", "Token expirado.")
	ErrTokenDomainInvalid = shared.NewDomainError("TOKEN_DOMAIN_INVALID", "Token emitido para outro domínio.")
)

// AuthenticationToken is a one-time token handed to an external
// application after the user signs in through the portal
type AuthenticationToken struct {
	shared.BaseEntity
	Token      string
	Domain     string
	UserName   string
	Expiration time.Time
	UsedAt     *time.Time
}

// NewAuthenticationToken creates a token for userName scoped to the host
// of returnURL
func NewAuthenticationToken(userName string, returnURL *url.URL, now time.Time) *AuthenticationToken {
	t := &AuthenticationToken{
		BaseEntity: shared.BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Domain:     returnURL.Hostname(),
		UserName:   userName,
		Expiration: now.Add(AuthTokenLifetime),
	}
	t.Token = GenerateToken(userName, now)
	return t
}

// GenerateToken builds base64(timestamp | random uuid | UTF-16LE userName)
func GenerateToken(userName string, now time.Time) string {
	buf := make([]byte, 8, 8+16+len(userName)*2)
	binary.LittleEndian.PutUint64(buf, uint64(now.UTC().UnixNano()))

	key := uuid.New()
	buf = append(buf, key[:]...)

	for _, c := range utf16.Encode([]rune(userName)) {
		buf = binary.LittleEndian.AppendUint16(buf, c)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// Use marks the token as redeemed
func (t *AuthenticationToken) Use(now time.Time) error {
	if t.UsedAt != nil {
		return ErrTokenUsed
	}
	if now.After(t.Expiration) {
		return ErrTokenExpired
	}
	t.UsedAt = &now
	t.UpdatedAt = now
	return nil
}

// Redeem checks the domain of the relying application and uses the token.
// The domain is mandatory.
func (t *AuthenticationToken) Redeem(domain string, now time.Time) error {
	if domain == "" || domain != t.Domain {
		return ErrTokenDomainInvalid
	}
	return t.Use(now)
}
