package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joinville/accounts/internal/infrastructure/cache"
	"github.com/joinville/accounts/internal/infrastructure/logger"
	"github.com/joinville/accounts/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RateLimit limits requests per client IP
func RateLimit(limiter cache.Limiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() },
		"Muitas requisições. Tente novamente mais tarde.")
}

// AuthRateLimit is the stricter limit of the login, registration and
// password recovery routes
func AuthRateLimit(limiter cache.Limiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return "auth:" + c.ClientIP() },
		"Muitas tentativas. Aguarde alguns minutos e tente novamente.")
}

// RateLimitByKey returns a rate limiting middleware with custom key
// extractor. A limiter failure lets the request through.
func RateLimitByKey(limiter cache.Limiter, keyFunc func(*gin.Context) string, message string) gin.HandlerFunc {
	limit := strconv.Itoa(limiter.Limit())

	return func(c *gin.Context) {
		c.Header("X-RateLimit-Limit", limit)

		allowed, err := limiter.Allow(c.Request.Context(), keyFunc(c))
		if err != nil {
			logger.GetGinLogger(c).Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeRateLimited, message, GetRequestID(c)))
			return
		}
		c.Next()
	}
}
