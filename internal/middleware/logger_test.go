package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scene-ouverte/newsletter-core/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func loggedRequest(t *testing.T, authHeader string) *observer.ObservedLogs {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(Logger(zap.New(core)), OptionalAuth())
	r.GET("/unsubscribe", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/unsubscribe?token=secret123", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(httptest.NewRecorder(), req)
	return logs
}

func TestLoggerOmitsQueryString(t *testing.T) {
	logs := loggedRequest(t, "")
	require.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, "/unsubscribe", fields["path"])
	for _, f := range entry.Context {
		assert.NotContains(t, f.String, "secret123", "bearer tokens must stay out of logs")
	}
}

func TestLoggerAttributesAdmin(t *testing.T) {
	jwt.SetSecret("test-secret")
	token, err := jwt.Sign("admin-1", time.Hour)
	require.NoError(t, err)

	logs := loggedRequest(t, "Bearer "+token)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "admin-1", logs.All()[0].ContextMap()["admin"])

	logs = loggedRequest(t, "")
	require.Equal(t, 1, logs.Len())
	assert.NotContains(t, logs.All()[0].ContextMap(), "admin")
}
