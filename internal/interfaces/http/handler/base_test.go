package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/domain/identity"
	"github.com/joinville/accounts/internal/domain/shared"
	"github.com/joinville/accounts/internal/infrastructure/auth"
	"github.com/joinville/accounts/internal/interfaces/http/dto"
	"github.com/joinville/accounts/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// newTestEngine returns an engine running the request id and JWT
// middlewares the way the router does. blacklist may be nil.
func newTestEngine(jwtService *auth.JWTService, blacklist auth.TokenBlacklist) *gin.Engine {
	cfg := middleware.DefaultJWTConfig(jwtService)
	cfg.TokenBlacklist = blacklist

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.JWTAuthMiddlewareWithConfig(cfg))
	return r
}

// bearer returns an Authorization header value for user
func bearer(t *testing.T, jwtService *auth.JWTService, user *identity.User) string {
	t.Helper()
	pair, err := jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:   user.ID,
		Username: user.UserName,
	})
	require.NoError(t, err)
	return middleware.BearerPrefix + pair.AccessToken
}

// serve sends body as JSON, or no body when nil
func serve(r http.Handler, method, path string, body any, authorization string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set(middleware.AuthHeaderKey, authorization)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// envelope decodes the response keeping data raw for decodeData
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.True(t, env.Success, rec.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, code, env.Error.Code)
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"domain error keeps its mapped status", shared.NewDomainError("EMAIL_IN_USE", "Endereço de e-mail em uso"), http.StatusConflict, "EMAIL_IN_USE"},
		{"shared code is normalized", shared.NewDomainError("NOT_FOUND", "Não encontrado"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped domain error", errors.Join(errors.New("context"), shared.ErrAlreadyExists), http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"external service", shared.NewDomainError("EXTERNAL_SERVICE_ERROR", "SEI indisponível"), http.StatusBadGateway, dto.ErrCodeExternalService},
		{"unknown error is hidden", errors.New("connection refused"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(middleware.RequestID())
			h := &BaseHandler{}
			r.GET("/test", func(c *gin.Context) { h.HandleError(c, tt.err) })

			rec := serve(r, http.MethodGet, "/test", nil, "")

			assertErrorCode(t, rec, tt.wantStatus, tt.wantCode)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, rec.Header().Get(middleware.RequestIDHeader), env.Error.RequestID)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "connection refused")
			}
		})
	}
}

func TestBaseHandler_HandleError_ValidationError(t *testing.T) {
	ve := &shared.ValidationError{}
	ve.Add("cpf", "CPF inválido")
	ve.Add("email", "E-mail inválido")

	r := gin.New()
	h := &BaseHandler{}
	r.GET("/test", func(c *gin.Context) { h.HandleError(c, ve) })

	rec := serve(r, http.MethodGet, "/test", nil, "")

	assertErrorCode(t, rec, http.StatusBadRequest, dto.ErrCodeValidation)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, []dto.ValidationDetail{
		{Field: "cpf", Message: "CPF inválido"},
		{Field: "email", Message: "E-mail inválido"},
	}, env.Error.Details)
}

func TestBaseHandler_BindJSON(t *testing.T) {
	type body struct {
		CPF string `json:"cpf" binding:"required,cpf"`
	}
	h := &BaseHandler{}
	r := gin.New()
	r.POST("/test", func(c *gin.Context) {
		var req body
		if !h.BindJSON(c, &req) {
			return
		}
		h.Success(c, req)
	})

	t.Run("valid", func(t *testing.T) {
		rec := serve(r, http.MethodPost, "/test", body{CPF: "529.982.247-25"}, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid field", func(t *testing.T) {
		rec := serve(r, http.MethodPost, "/test", body{CPF: "111.111.111-11"}, "")
		assertErrorCode(t, rec, http.StatusBadRequest, dto.ErrCodeValidation)
		env := decodeEnvelope(t, rec)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "cpf", env.Error.Details[0].Field)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assertErrorCode(t, rec, http.StatusBadRequest, dto.ErrCodeInvalidJSON)
	})
}

func TestBaseHandler_ParamID(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.GET("/items/:id", func(c *gin.Context) {
		id, ok := h.ParamID(c, "id")
		if !ok {
			return
		}
		h.Success(c, id)
	})

	id := uuid.New()
	rec := serve(r, http.MethodGet, "/items/"+id.String(), nil, "")
	assert.Equal(t, id, decodeData[uuid.UUID](t, rec))

	rec = serve(r, http.MethodGet, "/items/42", nil, "")
	assertErrorCode(t, rec, http.StatusBadRequest, dto.ErrCodeInvalidInput)
}

func TestBaseHandler_UserID(t *testing.T) {
	h := &BaseHandler{}

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		_, ok := h.UserID(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("present", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		want := uuid.New()
		c.Set(middleware.JWTUserIDKey, want.String())

		got, ok := h.UserID(c)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	})
}

func TestBaseHandler_SuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.GET("/list", func(c *gin.Context) { h.SuccessWithMeta(c, []string{"a"}, 41, 2, 20) })

	rec := serve(r, http.MethodGet, "/list", nil, "")
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(41), env.Meta.Total)
	assert.Equal(t, 3, env.Meta.TotalPages)
}
