package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appaccess "github.com/joinville/accounts/internal/application/access"
	"github.com/joinville/accounts/internal/domain/access"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/interfaces/http/dto"
)

// ListAccessesQuery filters the accesses of an application
type ListAccessesQuery struct {
	Status *int `form:"status" binding:"omitempty,min=0,max=4"`
}

// AccessHandler handles applications and the access of users to them
type AccessHandler struct {
	BaseHandler
	accessService *appaccess.Service
}

// NewAccessHandler creates a new access handler
func NewAccessHandler(accessService *appaccess.Service) *AccessHandler {
	return &AccessHandler{accessService: accessService}
}

// CreateApplication godoc
// @Summary      Create an application
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        request body appaccess.ApplicationRequest true "Application"
// @Success      201 {object} dto.Response{data=appaccess.ApplicationResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications [post]
func (h *AccessHandler) CreateApplication(c *gin.Context) {
	var req appaccess.ApplicationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	app, err := h.accessService.CreateApplication(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, app)
}

// UpdateApplication godoc
// @Summary      Replace an application
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        id path string true "Application ID"
// @Param        request body appaccess.ApplicationRequest true "Application"
// @Success      200 {object} dto.Response{data=appaccess.ApplicationResponse}
// @Security     BearerAuth
// @Router       /applications/{id} [put]
func (h *AccessHandler) UpdateApplication(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req appaccess.ApplicationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	app, err := h.accessService.UpdateApplication(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, app)
}

// GetApplication godoc
// @Summary      Get an application
// @Tags         applications
// @Produce      json
// @Param        id path string true "Application ID"
// @Success      200 {object} dto.Response{data=appaccess.ApplicationResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications/{id} [get]
func (h *AccessHandler) GetApplication(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	app, err := h.accessService.GetApplication(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, app)
}

// ListApplications godoc
// @Summary      List applications
// @Tags         applications
// @Produce      json
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Param        order_by  query string false "name, created_at or updated_at"
// @Param        order_dir query string false "asc or desc"
// @Param        search    query string false "Name filter"
// @Success      200 {object} dto.Response{data=[]appaccess.ApplicationResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /applications [get]
func (h *AccessHandler) ListApplications(c *gin.Context) {
	req := dto.DefaultListRequest()
	if !h.BindQuery(c, &req) {
		return
	}
	page, err := h.accessService.ListApplications(c.Request.Context(), shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListAccesses godoc
// @Summary      Accesses of an application
// @Tags         applications
// @Produce      json
// @Param        id     path  string true  "Application ID"
// @Param        status query int    false "Only accesses in this status"
// @Success      200 {object} dto.Response{data=[]appaccess.AccessResponse}
// @Security     BearerAuth
// @Router       /applications/{id}/accesses [get]
func (h *AccessHandler) ListAccesses(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var q ListAccessesQuery
	if !h.BindQuery(c, &q) {
		return
	}
	var status *access.Status
	if q.Status != nil {
		s := access.Status(*q.Status)
		status = &s
	}

	accesses, err := h.accessService.ListAccesses(c.Request.Context(), id, status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accesses)
}

// CheckAccess godoc
// @Summary      Check the access of the logged user
// @Description  A refusal is a successful response with allowed false and the reason
// @Tags         access
// @Produce      json
// @Param        id path string true "Application ID"
// @Success      200 {object} dto.Response{data=appaccess.CheckResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications/{id}/access [get]
func (h *AccessHandler) CheckAccess(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	result, err := h.accessService.CheckAccess(c.Request.Context(), getDocument(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RequestAccess godoc
// @Summary      Request access to an application
// @Tags         access
// @Produce      json
// @Param        id path string true "Application ID"
// @Success      200 {object} dto.Response{data=appaccess.AccessResponse}
// @Security     BearerAuth
// @Router       /applications/{id}/access/request [post]
func (h *AccessHandler) RequestAccess(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	acc, err := h.accessService.RequestAccess(c.Request.Context(), getDocument(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, acc)
}

// AcceptTerms godoc
// @Summary      Accept the terms of use of an application
// @Tags         access
// @Produce      json
// @Param        id path string true "Application ID"
// @Success      200 {object} dto.Response{data=appaccess.AccessResponse}
// @Security     BearerAuth
// @Router       /applications/{id}/access/terms [post]
func (h *AccessHandler) AcceptTerms(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	acc, err := h.accessService.AcceptTerms(c.Request.Context(), getDocument(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, acc)
}

// Approve godoc
// @Summary      Approve an access request
// @Tags         access
// @Accept       json
// @Produce      json
// @Param        id path string true "Access ID"
// @Param        request body appaccess.ReviewRequest true "Staff login"
// @Success      200 {object} dto.Response{data=appaccess.AccessResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accesses/{id}/approve [post]
func (h *AccessHandler) Approve(c *gin.Context) {
	h.review(c, func(ctx context.Context, id uuid.UUID, req appaccess.ReviewRequest) (*appaccess.AccessResponse, error) {
		return h.accessService.Approve(ctx, id, req.Login)
	})
}

// Deny godoc
// @Summary      Deny an access
// @Tags         access
// @Accept       json
// @Produce      json
// @Param        id path string true "Access ID"
// @Param        request body appaccess.ReviewRequest true "Staff login and cause"
// @Success      200 {object} dto.Response{data=appaccess.AccessResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accesses/{id}/deny [post]
func (h *AccessHandler) Deny(c *gin.Context) {
	h.review(c, func(ctx context.Context, id uuid.UUID, req appaccess.ReviewRequest) (*appaccess.AccessResponse, error) {
		return h.accessService.Deny(ctx, id, req.Login, req.Cause)
	})
}

type reviewFunc func(ctx context.Context, id uuid.UUID, req appaccess.ReviewRequest) (*appaccess.AccessResponse, error)

func (h *AccessHandler) review(c *gin.Context, fn reviewFunc) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req appaccess.ReviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	acc, err := fn(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, acc)
}
