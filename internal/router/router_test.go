package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/feedback-api/internal/handler/auth"
	"github.com/jwalitptl/feedback-api/internal/handler/feedback"
	"github.com/jwalitptl/feedback-api/internal/handler/health"
	"github.com/jwalitptl/feedback-api/internal/handler/notification"
	"github.com/jwalitptl/feedback-api/internal/handler/profile"
	"github.com/jwalitptl/feedback-api/internal/handler/prometheus"
	"github.com/jwalitptl/feedback-api/internal/handler/report"
	"github.com/jwalitptl/feedback-api/internal/middleware"
	"github.com/jwalitptl/feedback-api/internal/model"
)

type tokens map[string]model.Role

func (t tokens) ValidateToken(_ context.Context, token string) (*model.TokenClaims, error) {
	role, ok := t[token]
	if !ok {
		return nil, errors.New("invalid")
	}
	return &model.TokenClaims{UserID: uuid.New(), Role: role}, nil
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	am := middleware.NewAuthMiddleware(tokens{"patient": model.RolePatient, "admin": model.RoleAdmin})

	// Services are never reached in these tests.
	r := NewRouter(am, Handlers{
		Health:       health.NewHandler(okPinger{}),
		Metrics:      prometheus.New(prom.NewRegistry(), "test"),
		Auth:         auth.NewHandler(nil, nil),
		Profile:      profile.NewHandler(nil),
		Feedback:     feedback.NewHandler(nil, nil),
		Notification: notification.NewHandler(nil),
		Report:       report.NewHandler(nil, nil),
	}, RouterConfig{
		RateLimit:  middleware.RateLimiterConfig{RPS: 1000, Burst: 1000},
		CORSConfig: middleware.DefaultCORSConfig(nil),
		SizeLimit:  middleware.DefaultSizeLimitConfig(),
		Security:   middleware.DefaultSecurityConfig(),
	})
	r.Setup()
	return r.Engine()
}

func get(e *gin.Engine, path, token string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w.Code
}

func TestRoutes(t *testing.T) {
	e := newEngine()

	assert.Equal(t, http.StatusOK, get(e, "/api/v1/health/live", ""))
	assert.Equal(t, http.StatusOK, get(e, "/api/v1/health/ready", ""))
	assert.Equal(t, http.StatusOK, get(e, "/api/v1/health/metrics", ""))

	assert.Equal(t, http.StatusUnauthorized, get(e, "/api/v1/feedback", ""))
	assert.Equal(t, http.StatusUnauthorized, get(e, "/api/v1/notifications", "forged"))
	assert.Equal(t, http.StatusForbidden, get(e, "/api/v1/reports", "patient"))
	assert.Equal(t, http.StatusNotFound, get(e, "/api/v1/unknown", "patient"))
}
