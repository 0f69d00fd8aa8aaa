package identity

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
	"unicode"

	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password and lockout policy
const (
	MinPasswordLength   = 8
	maxPasswordLength   = 128
	MaxFailedAttempts   = 10
	LockoutDuration     = 30 * time.Minute
	authFailureMessage  = "Falha ao autenticar, verifique seu usuário e senha."
	wrongPasswordReason = "Senha incorreta."
)

// bcryptCost is a variable so tests can lower it
var bcryptCost = 12

// Errors returned by the user aggregate
var (
	ErrWrongPassword     = shared.NewDomainError("WRONG_PASSWORD", wrongPasswordReason)
	ErrInvalidLogin      = shared.NewDomainError("INVALID_CREDENTIALS", authFailureMessage)
	ErrAccountLocked     = shared.NewDomainError("ACCOUNT_LOCKED", "Conta bloqueada temporariamente por excesso de tentativas. Tente novamente mais tarde.")
	ErrEmailNotConfirmed = shared.NewDomainError("EMAIL_NOT_CONFIRMED", "Seu cadastro ainda não foi confirmado. Verifique sua caixa de e-mail e spam ou solicite o reenvio do e-mail de confirmação.")
	ErrPasswordMismatch  = shared.NewDomainError("PASSWORD_MISMATCH", "A senha e a confirmação não conferem.")
	ErrEmailMismatch     = shared.NewDomainError("EMAIL_MISMATCH", "O e-mail e sua confirmação não conferem.")
)

// User is the login account of a person or a company. UserName is the
// CPF or CNPJ of the owner.
type User struct {
	shared.BaseAggregateRoot
	UserName          string
	Email             string
	EmailConfirmed    bool
	PasswordHash      string `diff:"-"`
	FullUserName      string
	SignatureStatus   account.SignatureStatus
	SecurityStamp     string `diff:"-"`
	FailedAttempts    int    `diff:"-"`
	LockoutEnd        *time.Time
	LastLoginAt       *time.Time
	LastLoginIP       string
	PasswordChangedAt *time.Time
}

// NewUser creates an unconfirmed user with a hashed password
func NewUser(document, email, password string) (*User, error) {
	if !account.ValidDocumentLength(document) {
		return nil, shared.NewDomainError("INVALID_USERNAME", "Usuário deve ser um CPF ou CNPJ.")
	}
	email = strings.TrimSpace(email)
	if !shared.IsValidEmail(email) {
		return nil, shared.NewDomainError("INVALID_EMAIL", "E-mail inválido")
	}

	u := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserName:          document,
		Email:             email,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	u.AddDomainEvent(NewUserRegisteredEvent(u))
	return u, nil
}

// IsPerson reports whether the user logs in with a CPF
func (u *User) IsPerson() bool {
	return account.IsPersonDocument(u.UserName)
}

// ValidatePassword applies the password policy. All failures are reported.
func ValidatePassword(password string) error {
	ve := &shared.ValidationError{}
	if len(password) < MinPasswordLength {
		ve.Add("password", "A senha deve ter pelo menos 8 caracteres.")
	}
	if len(password) > maxPasswordLength {
		ve.Add("password", "A senha não pode ter mais de 128 caracteres.")
	}
	var digit, lower, upper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		}
	}
	if !digit {
		ve.Add("password", "A senha deve ter pelo menos um dígito.")
	}
	if !lower {
		ve.Add("password", "A senha deve ter pelo menos uma letra minúscula.")
	}
	if !upper {
		ve.Add("password", "A senha deve ter pelo menos uma letra maiúscula.")
	}
	return ve.Err()
}

// SetPassword validates and hashes a new password and rotates the
// security stamp, which invalidates outstanding reset links
func (u *User) SetPassword(password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Falha ao processar a senha.")
	}
	now := time.Now()
	u.PasswordHash = string(hash)
	u.PasswordChangedAt = &now
	u.rotateStamp()
	u.Touch()
	return nil
}

// ChangePassword replaces the password after checking the current one
func (u *User) ChangePassword(current, next string) error {
	if !u.VerifyPassword(current) {
		return ErrWrongPassword
	}
	if err := u.SetPassword(next); err != nil {
		return err
	}
	u.AddDomainEvent(NewUserPasswordChangedEvent(u))
	return nil
}

// VerifyPassword compares password with the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// CheckPassword returns ErrWrongPassword unless password matches. Used by
// every profile change that asks the citizen to confirm the password.
func (u *User) CheckPassword(password string) error {
	if !u.VerifyPassword(password) {
		return ErrWrongPassword
	}
	return nil
}

// IsLockedOut reports whether logins are refused at now
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockoutEnd != nil && now.Before(*u.LockoutEnd)
}

// RecordLoginFailure counts a failed attempt and locks the account when
// maxAttempts is reached. It returns true when the account got locked.
func (u *User) RecordLoginFailure(now time.Time, maxAttempts int, lockFor time.Duration) bool {
	u.FailedAttempts++
	u.Touch()
	if u.FailedAttempts < maxAttempts {
		return false
	}
	end := now.Add(lockFor)
	u.LockoutEnd = &end
	u.FailedAttempts = 0
	return true
}

// RecordLoginSuccess resets the failure counter
func (u *User) RecordLoginSuccess(now time.Time, ip string) {
	u.FailedAttempts = 0
	u.LockoutEnd = nil
	u.LastLoginAt = &now
	u.LastLoginIP = ip
	u.Touch()
}

// Unlock clears any lockout
func (u *User) Unlock() {
	u.FailedAttempts = 0
	u.LockoutEnd = nil
	u.Touch()
}

// ConfirmEmail marks the current email as confirmed
func (u *User) ConfirmEmail() {
	u.EmailConfirmed = true
	u.Touch()
}

// ChangeEmail replaces the email, which must be confirmed again
func (u *User) ChangeEmail(email string) error {
	email = strings.TrimSpace(email)
	if !shared.IsValidEmail(email) {
		return shared.NewDomainError("INVALID_EMAIL", "E-mail inválido")
	}
	u.Email = email
	u.EmailConfirmed = false
	u.rotateStamp()
	u.Touch()
	return nil
}

// SyncSignatureStatus copies the status held by the person. It returns
// true when it changed.
func (u *User) SyncSignatureStatus(status account.SignatureStatus) bool {
	if u.SignatureStatus == status {
		return false
	}
	u.SignatureStatus = status
	u.Touch()
	return true
}

// SetFullUserName stores the display name shown after login
func (u *User) SetFullUserName(name string) {
	u.FullUserName = name
	u.Touch()
}

func (u *User) rotateStamp() {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	u.SecurityStamp = hex.EncodeToString(b)
}
