package router

import (
	"github.com/gin-gonic/gin"

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

type Handlers struct {
	Health       *health.Handler
	Metrics      *prometheus.Handler
	Auth         *auth.Handler
	Profile      *profile.Handler
	Feedback     *feedback.Handler
	Notification *notification.Handler
	Report       *report.Handler
}

type RouterConfig struct {
	RateLimit  middleware.RateLimiterConfig
	CORSConfig middleware.CORSConfig
	SizeLimit  middleware.SizeLimitConfig
	Security   middleware.SecurityConfig
}

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware
	h      Handlers
}

func NewRouter(auth *middleware.AuthMiddleware, h Handlers, config RouterConfig) *Router {
	engine := gin.New()

	r := &Router{
		engine: engine,
		auth:   auth,
		h:      h,
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		h.Metrics.Middleware(),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(config.Security),
		middleware.NewRateLimiter(config.RateLimit).RateLimit(),
		middleware.SizeLimit(config.SizeLimit),
	)

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	r.setupHealthCheck(api)

	// Public routes
	r.h.Auth.RegisterRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	r.h.Health.RegisterRoutes(rg)
	rg.GET("/health/metrics", r.h.Metrics.Handler())
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	adminOnly := r.auth.RequireRole(model.RoleAdmin)

	r.h.Profile.RegisterRoutes(rg)
	r.h.Feedback.RegisterRoutes(rg, adminOnly)
	r.h.Notification.RegisterRoutes(rg)

	admin := rg.Group("")
	admin.Use(adminOnly)
	r.h.Report.RegisterRoutes(admin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
