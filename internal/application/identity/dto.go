package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/identity"
)

// LoginInput contains input for login
type LoginInput struct {
	Username string
	Password string
	IP       string
}

// TokenResult carries a session token pair
type TokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	TokenResult
	User UserInfo
}

// UserInfo is the view of the authenticated user
type UserInfo struct {
	ID                   uuid.UUID
	UserName             string
	FullName             string
	Email                string
	EmailConfirmed       bool
	IsPerson             bool
	SignatureStatus      string
	SignatureStatusLabel string
	Staff                bool
	LastLoginAt          *time.Time
}

func (s *AuthService) userInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:                   u.ID,
		UserName:             u.UserName,
		FullName:             u.FullUserName,
		Email:                u.Email,
		EmailConfirmed:       u.EmailConfirmed,
		IsPerson:             u.IsPerson(),
		SignatureStatus:      u.SignatureStatus.Code(),
		SignatureStatusLabel: u.SignatureStatus.String(),
		Staff:                s.isStaff(u.UserName),
		LastLoginAt:          u.LastLoginAt,
	}
}

// RefreshTokenInput contains input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput identifies the session being closed. RefreshToken is
// optional; when present it is revoked as well.
type LogoutInput struct {
	UserID       uuid.UUID
	TokenID      string
	ExpiresAt    time.Time
	RefreshToken string
}

// ForgotPasswordInput contains input for the password reset request
type ForgotPasswordInput struct {
	Document string
	Email    string
}

// ResetPasswordInput contains input for the password reset
type ResetPasswordInput struct {
	Email           string
	Document        string
	Code            string
	Password        string
	ConfirmPassword string
}

// ChangePasswordInput contains input for a password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// ChangeEmailInput contains input for an email change
type ChangeEmailInput struct {
	UserID       uuid.UUID
	Password     string
	Email        string
	ConfirmEmail string
}
