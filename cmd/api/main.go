package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/feedback-api/internal/config"
	"github.com/jwalitptl/feedback-api/internal/email"
	authHandler "github.com/jwalitptl/feedback-api/internal/handler/auth"
	feedbackHandler "github.com/jwalitptl/feedback-api/internal/handler/feedback"
	"github.com/jwalitptl/feedback-api/internal/handler/health"
	notificationHandler "github.com/jwalitptl/feedback-api/internal/handler/notification"
	profileHandler "github.com/jwalitptl/feedback-api/internal/handler/profile"
	promHandler "github.com/jwalitptl/feedback-api/internal/handler/prometheus"
	reportHandler "github.com/jwalitptl/feedback-api/internal/handler/report"
	"github.com/jwalitptl/feedback-api/internal/middleware"
	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/repository/postgres"
	"github.com/jwalitptl/feedback-api/internal/router"
	authService "github.com/jwalitptl/feedback-api/internal/service/auth"
	feedbackService "github.com/jwalitptl/feedback-api/internal/service/feedback"
	notificationService "github.com/jwalitptl/feedback-api/internal/service/notification"
	reportService "github.com/jwalitptl/feedback-api/internal/service/report"
	userService "github.com/jwalitptl/feedback-api/internal/service/user"
	"github.com/jwalitptl/feedback-api/internal/sms"
	"github.com/jwalitptl/feedback-api/internal/storage"
	"github.com/jwalitptl/feedback-api/internal/worker"
	"github.com/jwalitptl/feedback-api/pkg/auth"
	"github.com/jwalitptl/feedback-api/pkg/logger"
	"github.com/jwalitptl/feedback-api/pkg/messaging"
	"github.com/jwalitptl/feedback-api/pkg/messaging/redis"
	"github.com/jwalitptl/feedback-api/pkg/metrics"
	"github.com/jwalitptl/feedback-api/pkg/security"
	pkgvalidator "github.com/jwalitptl/feedback-api/pkg/validator"
)

const metricsNamespace = "feedback_api"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.Setup(cfg.Log.Level, cfg.Log.Pretty)
	if !cfg.Log.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := pkgvalidator.RegisterGin(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(registry, metricsNamespace)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional: without it the SMS window is per process and no
	// in-app events are published.
	var (
		limiter sms.Limiter
		broker  messaging.Broker
	)
	if cfg.Redis.URL != "" {
		client, err := redis.NewClient(ctx, redis.Config{URL: cfg.Redis.URL, PoolSize: cfg.Redis.PoolSize})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		// The limiter and the broker share the client; main closes it last.
		defer func() {
			if err := client.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close redis client")
			}
		}()

		limiter = sms.NewRedisLimiter(client)
		broker = redis.NewRedisBroker(client, appLogger.Zerolog())
	} else {
		log.Warn().Msg("redis not configured, using in-memory SMS rate limit")
		limiter = sms.NewMemoryLimiter(time.Minute)
	}

	// Initialize repositories
	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	feedbackRepo := postgres.NewFeedbackRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	reportRepo := postgres.NewReportRepository(base)

	// Notification channels
	gateway, err := sms.NewVonageGateway(sms.VonageConfig{
		BaseURL:   cfg.SMS.BaseURL,
		APIKey:    cfg.SMS.APIKey,
		APISecret: cfg.SMS.APISecret,
		Timeout:   cfg.SMS.Timeout,
	}, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure SMS gateway")
	}
	smsSender, err := sms.NewSender(sms.Config{
		SenderID:        cfg.SMS.SenderID,
		RateLimitWindow: cfg.SMS.RateLimitWindow,
	}, gateway, limiter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure SMS sender")
	}
	emailSvc, err := email.NewSMTPService(email.Config{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		FromName: cfg.Email.FromName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure email")
	}

	store, err := storage.NewStore(cfg.Storage.MediaRoot, cfg.Storage.MaxAttachmentSize)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare attachment storage")
	}

	jwtSvc, err := auth.NewJWTService(auth.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure tokens")
	}

	// Initialize services
	hasher := security.NewBcryptHasher(0)
	dispatcher := notificationService.NewDispatcher(smsSender, emailSvc, appMetrics)
	notificationSvc := notificationService.NewService(notificationRepo, userRepo, dispatcher, broker, appMetrics)
	feedbackSvc := feedbackService.NewService(feedbackRepo, userRepo, store, notificationSvc, notificationSvc)
	reportSvc := reportService.NewService(reportRepo, feedbackRepo, store, appMetrics)
	userSvc := userService.NewService(userRepo, hasher, emailSvc)
	authSvc := authService.NewService(userRepo, jwtSvc, hasher)

	// Initialize handlers
	handlers := router.Handlers{
		Health:       health.NewHandler(db),
		Metrics:      promHandler.New(registry, metricsNamespace),
		Auth:         authHandler.NewHandler(authSvc, userSvc),
		Profile:      profileHandler.NewHandler(userSvc),
		Feedback:     feedbackHandler.NewHandler(feedbackSvc, store),
		Notification: notificationHandler.NewHandler(notificationSvc),
		Report:       reportHandler.NewHandler(reportSvc, store),
	}

	r := router.NewRouter(middleware.NewAuthMiddleware(authSvc), handlers, router.RouterConfig{
		RateLimit:  middleware.RateLimiterConfig{RPS: cfg.RateLimit.RPS, Burst: cfg.RateLimit.Burst},
		CORSConfig: middleware.DefaultCORSConfig(cfg.Server.AllowOrigins),
		SizeLimit:  middleware.DefaultSizeLimitConfig(),
		Security:   middleware.DefaultSecurityConfig(),
	})
	r.Setup()

	if cfg.Reports.SchedulerEnabled {
		scheduler, err := newReportScheduler(ctx, cfg.Reports, userRepo, reportSvc, appLogger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure report scheduler")
		}
		go scheduler.Start(ctx)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if broker != nil {
		if err := broker.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close broker")
		}
	}

	log.Info().Msg("server exited properly")
}

type userLookup interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// newReportScheduler resolves the configured author, who must be an
// administrator.
func newReportScheduler(ctx context.Context, cfg config.ReportsConfig, users userLookup,
	reports worker.ReportCompiler, l *logger.Logger) (*worker.ReportScheduler, error) {
	author, err := users.GetByEmail(ctx, cfg.AuthorEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to find report author %q: %w", cfg.AuthorEmail, err)
	}
	if author.Role != model.RoleAdmin {
		return nil, fmt.Errorf("report author %q is not an administrator", cfg.AuthorEmail)
	}

	return worker.NewReportScheduler(reports, worker.ReportSchedulerConfig{
		Interval: cfg.Interval,
		Type:     model.ReportType(cfg.Type),
		AuthorID: author.ID,
	}, l)
}
