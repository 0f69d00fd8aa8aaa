package testutil

import (
	"testing"
	"time"

	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/identity"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/auth"
	"github.com/joinville/accounts/internal/infrastructure/config"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Valid documents and the password accepted by the fixtures
const (
	PersonCPF     = "52998224725"
	OtherCPF      = "11144477735"
	CompanyCNPJ   = "11222333000181"
	PersonEmail   = "maria@example.com"
	CompanyEmail  = "contato@empresa.com.br"
	PhoneNumber   = "(47) 999998888"
	TestPassword  = "Senha123"
	OtherPassword = "Nova4567"
)

// NewTestAddress returns a valid address in Joinville
func NewTestAddress(t *testing.T) *account.Address {
	t.Helper()
	number := 100
	addr, err := account.NewAddress(89201000, "Rua do Príncipe", &number, "", "Centro", "Joinville", "SC")
	require.NoError(t, err)
	return addr
}

// NewTestPerson returns a valid person with an address and one phone
func NewTestPerson(t *testing.T) *account.Person {
	t.Helper()
	p, err := account.NewPerson(account.PersonData{
		Name:       "maria da silva",
		CPF:        PersonCPF,
		Email:      PersonEmail,
		RG:         "1234567",
		Dispatcher: "SSP/SC",
	}, NewTestAddress(t))
	require.NoError(t, err)

	phone, err := account.NewPhone(PersonCPF, PhoneNumber)
	require.NoError(t, err)
	p.Phones = []account.Phone{*phone}
	return p
}

// NewTestCompany returns a valid company with an address
func NewTestCompany(t *testing.T) *account.Company {
	t.Helper()
	c, err := account.NewCompany(account.CompanyData{
		CNPJ:        CompanyCNPJ,
		Email:       CompanyEmail,
		Name:        "padaria central",
		CompanyName: "padaria central ltda",
	}, NewTestAddress(t))
	require.NoError(t, err)
	return c
}

// NewTestUser returns a confirmed user whose password is TestPassword.
// The hash uses the minimum bcrypt cost to keep tests fast.
func NewTestUser(t *testing.T, document, email string) *identity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	return &identity.User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserName:          document,
		Email:             email,
		EmailConfirmed:    true,
		PasswordHash:      string(hash),
		SecurityStamp:     "stamp-" + document,
	}
}

// NewJWTService returns a token service with short test lifetimes
func NewJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-with-at-least-32-characters",
		RefreshSecret:          "test-refresh-secret-key-with-32-characters",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		PurposeTokenExpiration: time.Hour,
		Issuer:                 "accounts-test",
		MaxRefreshCount:        3,
	})
}
