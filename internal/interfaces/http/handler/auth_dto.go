package handler

import (
	"time"

	"github.com/google/uuid"
	appidentity "github.com/joinville/accounts/internal/application/identity"
)

// LoginRequest carries the CPF or CNPJ and the password
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=18"`
	Password string `json:"password" binding:"required,max=128"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally carries the refresh token to revoke with the session
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents the request body for password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,max=128"`
}

// ChangeEmailRequest represents the request body for email change
type ChangeEmailRequest struct {
	Password     string `json:"password" binding:"required"`
	Email        string `json:"email" binding:"required,email,max=256"`
	ConfirmEmail string `json:"confirm_email" binding:"required"`
}

// ForgotPasswordRequest asks for a password reset link
type ForgotPasswordRequest struct {
	Document string `json:"document" binding:"required,max=18"`
	Email    string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest sets a new password with the code of a reset link
type ResetPasswordRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Document        string `json:"document" binding:"max=18"`
	Code            string `json:"code" binding:"required"`
	Password        string `json:"password" binding:"required,max=128"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// ExitRequest asks for a one-time token to enter an external application
type ExitRequest struct {
	ReturnURL string `json:"return_url" binding:"required,max=2048"`
}

// RedeemTokenRequest is sent by a relying application to trade a token for
// the user document
type RedeemTokenRequest struct {
	Token  string `json:"token" binding:"required,max=128"`
	Domain string `json:"domain" binding:"required,max=255"`
}

// TokenResponse represents the token data in auth responses
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// AuthUserResponse represents user data in auth responses
type AuthUserResponse struct {
	ID                   uuid.UUID  `json:"id"`
	Username             string     `json:"username"`
	FullName             string     `json:"full_name"`
	Email                string     `json:"email"`
	EmailConfirmed       bool       `json:"email_confirmed"`
	IsPerson             bool       `json:"is_person"`
	SignatureStatus      string     `json:"signature_status"`
	SignatureStatusLabel string     `json:"signature_status_label"`
	Staff                bool       `json:"staff"`
	LastLoginAt          *time.Time `json:"last_login_at,omitempty"`
}

// LoginResponse represents the response body for successful login
type LoginResponse struct {
	Token TokenResponse    `json:"token"`
	User  AuthUserResponse `json:"user"`
}

// ExitResponse carries the address the browser must be sent to
type ExitResponse struct {
	URL string `json:"url"`
}

// RedeemTokenResponse identifies the user a token was issued for
type RedeemTokenResponse struct {
	Username string `json:"username"`
}

func toTokenResponse(r appidentity.TokenResult) TokenResponse {
	return TokenResponse{
		AccessToken:           r.AccessToken,
		RefreshToken:          r.RefreshToken,
		AccessTokenExpiresAt:  r.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: r.RefreshTokenExpiresAt,
		TokenType:             r.TokenType,
	}
}

func toAuthUserResponse(u appidentity.UserInfo) AuthUserResponse {
	return AuthUserResponse{
		ID:                   u.ID,
		Username:             u.UserName,
		FullName:             u.FullName,
		Email:                u.Email,
		EmailConfirmed:       u.EmailConfirmed,
		IsPerson:             u.IsPerson,
		SignatureStatus:      u.SignatureStatus,
		SignatureStatusLabel: u.SignatureStatusLabel,
		Staff:                u.Staff,
		LastLoginAt:          u.LastLoginAt,
	}
}
