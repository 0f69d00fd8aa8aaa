package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joinville/accounts/internal/application/signature"
	"github.com/joinville/accounts/internal/interfaces/http/dto"
)

// Multipart fields of the signature forms
const (
	formAgree    = "agree"
	formPassword = "password"
	formTerm     = "term"
	formDocument = "document"
)

const msgInvalidUpload = "Não foi possível ler o arquivo enviado."

// SignatureHandler handles the electronic signature pages of citizens
type SignatureHandler struct {
	BaseHandler
	signatureService *signature.Service
}

// NewSignatureHandler creates a new signature handler
func NewSignatureHandler(signatureService *signature.Service) *SignatureHandler {
	return &SignatureHandler{signatureService: signatureService}
}

// GetOverview godoc
// @Summary      Signature status and rules
// @Tags         signature
// @Produce      json
// @Success      200 {object} dto.Response{data=signature.Overview}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /signature [get]
func (h *SignatureHandler) GetOverview(c *gin.Context) {
	overview, err := h.signatureService.Overview(c.Request.Context(), getDocument(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, overview)
}

// Request godoc
// @Summary      Request the electronic signature
// @Description  Multipart form with the signed term and a photo document, both PDF up to 1 MB
// @Tags         signature
// @Accept       multipart/form-data
// @Produce      json
// @Param        agree    formData bool   true "Agreement with the term"
// @Param        password formData string true "Current password"
// @Param        term     formData file   true "Signed term"
// @Param        document formData file   true "Photo document"
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /signature [post]
func (h *SignatureHandler) Request(c *gin.Context) {
	term, ok := h.formFile(c, formTerm)
	if !ok {
		return
	}
	doc, ok := h.formFile(c, formDocument)
	if !ok {
		return
	}

	msg, err := h.signatureService.Request(c.Request.Context(), getDocument(c), signature.RequestInput{
		Agree:    formBool(c.PostForm(formAgree)),
		Password: c.PostForm(formPassword),
		Term:     term,
		Document: doc,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, msg)
}

// AddDocument godoc
// @Summary      Attach a document to a pending request
// @Tags         signature
// @Accept       multipart/form-data
// @Produce      json
// @Param        document formData file true "PDF document"
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /signature/documents [post]
func (h *SignatureHandler) AddDocument(c *gin.Context) {
	doc, ok := h.formFile(c, formDocument)
	if !ok {
		return
	}
	msg, err := h.signatureService.AddDocument(c.Request.Context(), getDocument(c), doc)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, msg)
}

// RefreshStatus godoc
// @Summary      Read the signature status from SEI
// @Tags         signature
// @Produce      json
// @Success      200 {object} dto.Response{data=signature.StatusResult}
// @Security     BearerAuth
// @Router       /signature/status [get]
func (h *SignatureHandler) RefreshStatus(c *gin.Context) {
	status, err := h.signatureService.RefreshStatus(c.Request.Context(), getDocument(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// formFile reads an uploaded file. A missing part yields nil so the
// service reports it with the other form errors. At most one byte over
// signature.MaxFileSize is read, enough for the size check.
func (h *SignatureHandler) formFile(c *gin.Context, field string) (*signature.File, bool) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, msgInvalidUpload)
		return nil, false
	}

	f, err := header.Open()
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, msgInvalidUpload)
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, signature.MaxFileSize+1))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, msgInvalidUpload)
		return nil, false
	}
	return &signature.File{Name: header.Filename, Data: data}, true
}

// formBool accepts the values sent by HTML checkboxes as well
func formBool(v string) bool {
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}
