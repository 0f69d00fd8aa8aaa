package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appaccount "github.com/joinville/accounts/internal/application/account"
)

// EmailConfirmedMessage is returned once the confirmation link is accepted
const EmailConfirmedMessage = "E-mail confirmado com sucesso. Você já pode acessar sua conta."

// ConfirmEmailQuery carries the parameters of the link mailed on registration
type ConfirmEmailQuery struct {
	UserID string `form:"userId" binding:"required,uuid"`
	Code   string `form:"code" binding:"required"`
}

// ConfirmationEmailRequest asks for a new confirmation link
type ConfirmationEmailRequest struct {
	Document string `json:"document" binding:"required,max=18"`
	Email    string `json:"email" binding:"required,email"`
}

// AccountHandler handles self registration and email confirmation
type AccountHandler struct {
	BaseHandler
	registrationService *appaccount.RegistrationService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(registrationService *appaccount.RegistrationService) *AccountHandler {
	return &AccountHandler{registrationService: registrationService}
}

// RegisterPerson godoc
// @Summary      Register a citizen
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body appaccount.RegisterPersonInput true "Registration form"
// @Success      201 {object} dto.Response{data=appaccount.RegistrationResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /accounts/people [post]
func (h *AccountHandler) RegisterPerson(c *gin.Context) {
	var req appaccount.RegisterPersonInput
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.registrationService.RegisterPerson(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// RegisterCompany godoc
// @Summary      Register a company
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body appaccount.RegisterCompanyInput true "Registration form"
// @Success      201 {object} dto.Response{data=appaccount.RegistrationResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /accounts/companies [post]
func (h *AccountHandler) RegisterCompany(c *gin.Context) {
	var req appaccount.RegisterCompanyInput
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.registrationService.RegisterCompany(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ConfirmEmail godoc
// @Summary      Confirm the email of a new account
// @Tags         accounts
// @Produce      json
// @Param        userId query string true "User ID"
// @Param        code   query string true "Confirmation code"
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /accounts/confirm-email [get]
func (h *AccountHandler) ConfirmEmail(c *gin.Context) {
	var q ConfirmEmailQuery
	if !h.BindQuery(c, &q) {
		return
	}
	if err := h.registrationService.ConfirmEmail(c.Request.Context(), uuid.MustParse(q.UserID), q.Code); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, EmailConfirmedMessage)
}

// SendConfirmationEmail godoc
// @Summary      Send the confirmation link again
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body ConfirmationEmailRequest true "Document and email"
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /accounts/confirmation-email [post]
func (h *AccountHandler) SendConfirmationEmail(c *gin.Context) {
	var req ConfirmationEmailRequest
	if !h.BindJSON(c, &req) {
		return
	}
	msg, err := h.registrationService.SendEmailConfirmation(c.Request.Context(), req.Document, req.Email)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, msg)
}
