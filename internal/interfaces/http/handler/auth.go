package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	appidentity "github.com/joinville/accounts/internal/application/identity"
	"github.com/joinville/accounts/internal/interfaces/http/middleware"
)

// Messages returned by the auth endpoints
const (
	LoggedOutMessage       = "Sessão encerrada com sucesso."
	PasswordChangedMessage = "Senha alterada com sucesso."
	ResetLinkSentMessage   = "Enviamos um e-mail com o link para redefinição de senha."
	PasswordResetMessage   = "Senha redefinida com sucesso."
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService  *appidentity.AuthService
	tokenService *appidentity.TokenService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *appidentity.AuthService, tokenService *appidentity.TokenService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenService: tokenService,
	}
}

// Login godoc
// @Summary      User login
// @Description  Authenticate a person (CPF) or a company (CNPJ) with password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=LoginResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), appidentity.LoginInput{
		Username: req.Username,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LoginResponse{
		Token: toTokenResponse(result.TokenResult),
		User:  toAuthUserResponse(result.User),
	})
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest true "Refresh token"
// @Success      200 {object} dto.Response{data=TokenResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), appidentity.RefreshTokenInput{
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTokenResponse(*result))
}

// Logout godoc
// @Summary      User logout
// @Description  Revoke the access token and, when sent, the refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LogoutRequest false "Refresh token"
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c)
		return
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		h.Unauthorized(c)
		return
	}

	// the body is optional
	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := h.authService.Logout(c.Request.Context(), appidentity.LogoutInput{
		UserID:       userID,
		TokenID:      claims.ID,
		ExpiresAt:    expiresAt,
		RefreshToken: req.RefreshToken,
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, LoggedOutMessage)
}

// GetCurrentUser godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=AuthUserResponse}
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	info, err := h.authService.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAuthUserResponse(*info))
}

// ChangePassword godoc
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "Passwords"
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Security     BearerAuth
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), appidentity.ChangePasswordInput{
		UserID:      userID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, PasswordChangedMessage)
}

// ChangeEmail godoc
// @Summary      Change email
// @Description  Replace the email; the new address must be confirmed before the next login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ChangeEmailRequest true "New email"
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Security     BearerAuth
// @Router       /auth/email [put]
func (h *AuthHandler) ChangeEmail(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	var req ChangeEmailRequest
	if !h.BindJSON(c, &req) {
		return
	}

	msg, err := h.authService.ChangeEmail(c.Request.Context(), appidentity.ChangeEmailInput{
		UserID:       userID,
		Password:     req.Password,
		Email:        req.Email,
		ConfirmEmail: req.ConfirmEmail,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, msg)
}

// ForgotPassword godoc
// @Summary      Request a password reset link
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Document and email"
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Router       /accounts/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.authService.ForgotPassword(c.Request.Context(), appidentity.ForgotPasswordInput{
		Document: req.Document,
		Email:    req.Email,
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, ResetLinkSentMessage)
}

// ResetPassword godoc
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Reset code and new password"
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Router       /accounts/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.authService.ResetPassword(c.Request.Context(), appidentity.ResetPasswordInput{
		Email:           req.Email,
		Document:        req.Document,
		Code:            req.Code,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, PasswordResetMessage)
}

// Exit godoc
// @Summary      Leave to an external application
// @Description  Issue a one-time token and return the application address carrying it
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ExitRequest true "Return URL"
// @Success      200 {object} dto.Response{data=ExitResponse}
// @Security     BearerAuth
// @Router       /auth/exit [post]
func (h *AuthHandler) Exit(c *gin.Context) {
	var req ExitRequest
	if !h.BindJSON(c, &req) {
		return
	}
	url, err := h.tokenService.Issue(c.Request.Context(), getDocument(c), req.ReturnURL)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ExitResponse{URL: url})
}

// RedeemToken godoc
// @Summary      Redeem an authentication token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RedeemTokenRequest true "Token"
// @Success      200 {object} dto.Response{data=RedeemTokenResponse}
// @Failure      410 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/tokens/redeem [post]
func (h *AuthHandler) RedeemToken(c *gin.Context) {
	var req RedeemTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}
	username, err := h.tokenService.Redeem(c.Request.Context(), req.Token, req.Domain)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RedeemTokenResponse{Username: username})
}
