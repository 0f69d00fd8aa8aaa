package handler

import (
	"github.com/gin-gonic/gin"
	appaccount "github.com/joinville/accounts/internal/application/account"
)

// PhoneDeletedMessage is returned after a phone is removed
const PhoneDeletedMessage = "Telefone removido com sucesso"

// ProfileHandler lets the logged user read and maintain the registration
// data. The account is always the one of the token, never a parameter.
type ProfileHandler struct {
	BaseHandler
	profileService *appaccount.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *appaccount.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetProfile godoc
// @Summary      Registration data of the logged user
// @Tags         profile
// @Produce      json
// @Success      200 {object} dto.Response{data=appaccount.ProfileResponse}
// @Security     BearerAuth
// @Router       /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profileService.GetProfile(c.Request.Context(), getDocument(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// GetPerson godoc
// @Summary      Person of the logged citizen
// @Tags         profile
// @Produce      json
// @Success      200 {object} dto.Response{data=appaccount.PersonResponse}
// @Security     BearerAuth
// @Router       /profile/person [get]
func (h *ProfileHandler) GetPerson(c *gin.Context) {
	person, err := h.profileService.GetPerson(c.Request.Context(), getDocument(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, person)
}

// EditPerson godoc
// @Summary      Change name and identity card of the logged citizen
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request body appaccount.EditPersonInput true "Person data"
// @Success      200 {object} dto.Response{data=appaccount.PersonResponse}
// @Security     BearerAuth
// @Router       /profile/person [put]
func (h *ProfileHandler) EditPerson(c *gin.Context) {
	var req appaccount.EditPersonInput
	if !h.BindJSON(c, &req) {
		return
	}
	req.Document = getDocument(c)

	person, err := h.profileService.EditPerson(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, person)
}

// UpdateAddress godoc
// @Summary      Replace the address of the logged user
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request body appaccount.UpdateAddressInput true "Address"
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Security     BearerAuth
// @Router       /profile/address [put]
func (h *ProfileHandler) UpdateAddress(c *gin.Context) {
	var req appaccount.UpdateAddressInput
	if !h.BindJSON(c, &req) {
		return
	}
	req.Document = getDocument(c)

	msg, err := h.profileService.UpdateAddress(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, msg)
}

// ListPhones godoc
// @Summary      Phones of the logged user
// @Tags         profile
// @Produce      json
// @Success      200 {object} dto.Response{data=[]appaccount.PhoneResponse}
// @Security     BearerAuth
// @Router       /profile/phones [get]
func (h *ProfileHandler) ListPhones(c *gin.Context) {
	phones, err := h.profileService.ListPhones(c.Request.Context(), getDocument(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, phones)
}

// GetPhone godoc
// @Summary      One phone of the logged user
// @Tags         profile
// @Produce      json
// @Param        id path string true "Phone ID"
// @Success      200 {object} dto.Response{data=appaccount.PhoneResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /profile/phones/{id} [get]
func (h *ProfileHandler) GetPhone(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	phone, err := h.profileService.GetPhone(c.Request.Context(), getDocument(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, phone)
}

// CreatePhone godoc
// @Summary      Add a phone
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request body appaccount.PhoneInput true "Phone"
// @Success      201 {object} dto.Response{data=appaccount.PhoneResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /profile/phones [post]
func (h *ProfileHandler) CreatePhone(c *gin.Context) {
	var req appaccount.PhoneInput
	if !h.BindJSON(c, &req) {
		return
	}
	req.Document = getDocument(c)

	phone, err := h.profileService.CreatePhone(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, phone)
}

// UpdatePhone godoc
// @Summary      Change a phone
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        id path string true "Phone ID"
// @Param        request body appaccount.PhoneInput true "Phone"
// @Success      200 {object} dto.Response{data=appaccount.PhoneResponse}
// @Security     BearerAuth
// @Router       /profile/phones/{id} [put]
func (h *ProfileHandler) UpdatePhone(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req appaccount.PhoneInput
	if !h.BindJSON(c, &req) {
		return
	}
	req.Document = getDocument(c)
	req.ID = id

	phone, err := h.profileService.UpdatePhone(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, phone)
}

// DeletePhone godoc
// @Summary      Remove a phone
// @Description  The password travels in the body; the last phone cannot be removed
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        id path string true "Phone ID"
// @Param        request body appaccount.DeletePhoneInput true "Password"
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /profile/phones/{id} [delete]
func (h *ProfileHandler) DeletePhone(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req appaccount.DeletePhoneInput
	if !h.BindJSON(c, &req) {
		return
	}
	req.Document = getDocument(c)
	req.ID = id

	if err := h.profileService.DeletePhone(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, PhoneDeletedMessage)
}
