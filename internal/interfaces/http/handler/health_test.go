package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Check(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks map[string]HealthCheck
		status int
		want   HealthResponse
	}{
		{
			name:   "all dependencies up",
			checks: map[string]HealthCheck{"database": ok, "cache": ok},
			status: http.StatusOK,
			want:   HealthResponse{Status: "healthy", Checks: map[string]string{"database": "ok", "cache": "ok"}},
		},
		{
			name:   "database down",
			checks: map[string]HealthCheck{"database": down, "cache": ok},
			status: http.StatusServiceUnavailable,
			want:   HealthResponse{Status: "unhealthy", Checks: map[string]string{"database": "error", "cache": "ok"}},
		},
		{
			name:   "nothing to check",
			checks: nil,
			status: http.StatusOK,
			want:   HealthResponse{Status: "healthy", Checks: map[string]string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(tt.checks).Check)

			rec := serve(r, http.MethodGet, "/health", nil, "")

			require.Equal(t, tt.status, rec.Code)
			var got HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.NotEmpty(t, got.Time)
			got.Time = ""
			assert.Equal(t, tt.want, got)
		})
	}
}
