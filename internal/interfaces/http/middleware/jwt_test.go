package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joinville/accounts/internal/infrastructure/auth"
	"github.com/joinville/accounts/internal/infrastructure/config"
	"github.com/joinville/accounts/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	})
}

func newTestTokenPair(t *testing.T, jwtService *auth.JWTService, staff bool) (*auth.TokenPair, auth.GenerateTokenInput) {
	t.Helper()
	input := auth.GenerateTokenInput{
		UserID:          uuid.New(),
		Username:        "52998224725",
		FullName:        "Maria da Silva",
		SignatureStatus: "U",
		Staff:           staff,
	}
	pair, err := jwtService.GenerateTokenPair(input)
	require.NoError(t, err)
	return pair, input
}

func okRouter(mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw...)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func get(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	return resp.Error.Code
}

// stubBlacklist answers fixed values for the two revocation checks
type stubBlacklist struct {
	blacklisted bool
	invalidated bool
	err         error
}

func (s stubBlacklist) AddToBlacklist(context.Context, string, time.Duration) error { return nil }
func (s stubBlacklist) IsBlacklisted(context.Context, string) (bool, error) {
	return s.blacklisted, s.err
}
func (s stubBlacklist) AddUserTokensToBlacklist(context.Context, string, time.Duration) error {
	return nil
}
func (s stubBlacklist) IsUserTokenInvalidated(context.Context, string, time.Time) (bool, error) {
	return s.invalidated, s.err
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWTService()
	pair, input := newTestTokenPair(t, jwtService, false)

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, input.UserID.String(), claims.UserID)
		assert.Equal(t, input.UserID.String(), GetJWTUserID(c))
		assert.Equal(t, "52998224725", GetJWTUsername(c))
		assert.False(t, IsJWTStaff(c))
		c.Status(http.StatusOK)
	})

	rec := get(router, "/test", pair.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	jwtService := newTestJWTService()
	pair, _ := newTestTokenPair(t, jwtService, false)
	router := okRouter(JWTAuthMiddleware(jwtService))

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeTokenInvalid},
		{"basic scheme", "Basic dXNlcjpwYXNz", dto.ErrCodeTokenInvalid},
		{"empty bearer", "Bearer ", dto.ErrCodeTokenInvalid},
		{"garbage token", "Bearer not.a.jwt", dto.ErrCodeTokenInvalid},
		{"refresh token", "Bearer " + pair.RefreshToken, dto.ErrCodeTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  -1 * time.Hour,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
	})
	pair, _ := newTestTokenPair(t, jwtService, false)

	rec := get(okRouter(JWTAuthMiddleware(jwtService)), "/test", pair.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenExpired, errorCode(t, rec))
}

func TestJWTAuthMiddleware_DefaultSkipPaths(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuthMiddleware(newTestJWTService()))
	for _, path := range []string{"/api/v1/auth/login", "/api/v1/accounts/people", "/api/v1/accounts/confirm-email", "/health"} {
		router.GET(path, func(c *gin.Context) { c.Status(http.StatusOK) })
	}

	for _, path := range []string{"/api/v1/auth/login", "/api/v1/accounts/people", "/api/v1/accounts/confirm-email", "/health"} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, get(router, path, "").Code)
		})
	}
}

func TestJWTAuthMiddleware_SkipPathPrefixes(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		JWTService:       newTestJWTService(),
		SkipPathPrefixes: []string{"/public/"},
	}))
	router.GET("/public/terms", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/private", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(router, "/public/terms", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/private", "").Code)
}

func TestJWTAuthMiddleware_BlacklistedToken(t *testing.T) {
	jwtService := newTestJWTService()
	pair, _ := newTestTokenPair(t, jwtService, false)
	claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	blacklist := auth.NewInMemoryTokenBlacklist()
	require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Hour))

	router := okRouter(JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
	}))
	rec := get(router, "/test", pair.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenInvalid, errorCode(t, rec))
}

func TestJWTAuthMiddleware_InvalidatedSessions(t *testing.T) {
	jwtService := newTestJWTService()
	pair, _ := newTestTokenPair(t, jwtService, false)

	router := okRouter(JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: stubBlacklist{invalidated: true},
	}))

	assert.Equal(t, http.StatusUnauthorized, get(router, "/test", pair.AccessToken).Code)
}

func TestJWTAuthMiddleware_BlacklistOutageFailsOpen(t *testing.T) {
	jwtService := newTestJWTService()
	pair, _ := newTestTokenPair(t, jwtService, false)

	router := okRouter(JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: stubBlacklist{err: errors.New("redis down")},
	}))

	assert.Equal(t, http.StatusOK, get(router, "/test", pair.AccessToken).Code)
}

func TestJWTAuthMiddleware_CustomOnError(t *testing.T) {
	var got error
	router := okRouter(JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		JWTService: newTestJWTService(),
		OnError: func(c *gin.Context, err error) {
			got = err
			c.JSON(http.StatusTeapot, gin.H{})
		},
	}))

	rec := get(router, "/test", "")

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, got, auth.ErrInvalidToken)
}

func TestRequireStaff(t *testing.T) {
	jwtService := newTestJWTService()
	staffPair, _ := newTestTokenPair(t, jwtService, true)
	citizenPair, _ := newTestTokenPair(t, jwtService, false)

	t.Run("staff claim", func(t *testing.T) {
		router := okRouter(JWTAuthMiddleware(jwtService), RequireStaff(nil))
		assert.Equal(t, http.StatusOK, get(router, "/test", staffPair.AccessToken).Code)
	})

	t.Run("citizen is forbidden", func(t *testing.T) {
		router := okRouter(JWTAuthMiddleware(jwtService), RequireStaff(nil))
		rec := get(router, "/test", citizenPair.AccessToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, rec))
	})

	t.Run("allow-list", func(t *testing.T) {
		isStaff := config.PortalConfig{StaffLogins: []string{"52998224725"}}.IsStaff
		router := okRouter(JWTAuthMiddleware(jwtService), RequireStaff(isStaff))
		assert.Equal(t, http.StatusOK, get(router, "/test", citizenPair.AccessToken).Code)
	})

	t.Run("without authentication", func(t *testing.T) {
		router := okRouter(RequireStaff(nil))
		assert.Equal(t, http.StatusUnauthorized, get(router, "/test", "").Code)
	})
}

func TestGetJWTClaims_NotFound(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
	assert.Empty(t, GetJWTUsername(c))
	assert.False(t, IsJWTStaff(c))
	assert.Panics(t, func() { MustGetJWTClaims(c) })
}
