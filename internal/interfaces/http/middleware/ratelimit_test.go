package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joinville/accounts/internal/infrastructure/cache"
	"github.com/joinville/accounts/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}
func (failingLimiter) Limit() int { return 1 }

func limitedRouter(mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw)
	router.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func postFrom(router *gin.Engine, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = addr
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit(t *testing.T) {
	router := limitedRouter(RateLimit(cache.NewInMemoryLimiter(3, time.Minute)))

	for i := 0; i < 3; i++ {
		rec := postFrom(router, "192.168.1.100:12345")
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should be allowed", i+1)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := postFrom(router, "192.168.1.100:12345")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, dto.ErrCodeRateLimited, errorCode(t, rec))

	// other clients keep their own window
	assert.Equal(t, http.StatusOK, postFrom(router, "192.168.1.101:12345").Code)
}

func TestAuthRateLimit(t *testing.T) {
	limiter := cache.NewInMemoryLimiter(1, time.Minute)
	router := limitedRouter(AuthRateLimit(limiter))

	assert.Equal(t, http.StatusOK, postFrom(router, "10.0.0.1:1").Code)
	rec := postFrom(router, "10.0.0.1:1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Muitas tentativas")

	// the general limit uses a different key
	allowed, err := limiter.Allow(context.Background(), "10.0.0.1")
	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	router := limitedRouter(RateLimit(failingLimiter{}))

	assert.Equal(t, http.StatusOK, postFrom(router, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, postFrom(router, "10.0.0.1:1").Code)
}
