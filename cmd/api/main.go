package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/internship-portal-api/api/swagger"
	"github.com/noah-isme/internship-portal-api/internal/handler"
	internalmiddleware "github.com/noah-isme/internship-portal-api/internal/middleware"
	"github.com/noah-isme/internship-portal-api/internal/repository"
	"github.com/noah-isme/internship-portal-api/internal/service"
	"github.com/noah-isme/internship-portal-api/pkg/cache"
	"github.com/noah-isme/internship-portal-api/pkg/config"
	"github.com/noah-isme/internship-portal-api/pkg/database"
	"github.com/noah-isme/internship-portal-api/pkg/events"
	"github.com/noah-isme/internship-portal-api/pkg/logger"
	"github.com/noah-isme/internship-portal-api/pkg/mail"
	corsmiddleware "github.com/noah-isme/internship-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/internship-portal-api/pkg/middleware/requestid"
)

// @title Internship Portal API
// @version 1.0.0
// @description Application review workflow, evaluations and final result release
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{"database": db.PingContext}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without cache and rate limits", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewStudentProfileRepository(db)
	jobRepo := repository.NewJobRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)

	var resolverOpts []service.IdentityResolverOption
	resolverOpts = append(resolverOpts, service.WithIdentityAudit(userRepo))
	if redisClient != nil && cfg.IdentityCache.Enabled {
		cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.IdentityCache.TTL, logr, true)
		resolverOpts = append(resolverOpts, service.WithIdentityCache(cacheSvc, cfg.IdentityCache.TTL))
	}
	identities := service.NewIdentityResolver(profileRepo, userRepo, logr, resolverOpts...)

	var notifier *service.NotificationService
	if cfg.Mail.Host != "" {
		notifier = service.NewNotificationService(mail.NewSMTPSender(cfg.Mail), cfg.PortalURL, logr, metrics)
	} else {
		logr.Info("smtp host not configured, notifications are logged only")
		notifier = service.NewNotificationService(nil, cfg.PortalURL, logr, metrics)
	}

	eventCfg := service.EventServiceConfig{
		Workers:    cfg.Events.Workers,
		Retries:    cfg.Events.Retries,
		RetryDelay: cfg.Events.RetryDelay,
	}
	var eventSvc *service.EventService
	if cfg.Events.Enabled && len(cfg.Events.Brokers) > 0 {
		producer := events.NewKafkaProducer(cfg.Events)
		defer producer.Close() //nolint:errcheck
		eventSvc = service.NewEventService(producer, eventCfg, logr, metrics)
	} else {
		eventSvc = service.NewEventService(nil, eventCfg, logr, metrics)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	applicationSvc := service.NewApplicationService(applicationRepo, jobRepo, userRepo, identities, validate, logr,
		service.WithApplicationNotifier(notifier),
		service.WithApplicationEvents(eventSvc),
		service.WithApplicationAudit(userRepo),
		service.WithApplicationMetrics(metrics),
	)
	evaluationSvc := service.NewEvaluationService(evaluationRepo, applicationRepo, identities, eventSvc, userRepo, validate, logr)
	finalEvaluationSvc := service.NewFinalEvaluationService(service.FinalEvaluationDeps{
		Evaluations: evaluationRepo,
		Apps:        applicationRepo,
		Jobs:        jobRepo,
		Users:       userRepo,
		Identities:  identities,
		Notifier:    notifier,
		Events:      eventSvc,
		Audit:       userRepo,
		Metrics:     metrics,
		Logger:      logr,
	})

	var throttle gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if redisClient == nil {
			logr.Warn("rate limiting requested but redis is disabled")
		} else {
			throttle = internalmiddleware.RateLimit(cache.NewLimiter(redisClient), cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	handler.Routes{
		Auth:             handler.NewAuthHandler(authSvc),
		Applications:     handler.NewApplicationHandler(applicationSvc),
		FinalEvaluations: handler.NewFinalEvaluationHandler(finalEvaluationSvc, evaluationSvc),
		Metrics:          handler.NewMetricsHandler(metrics, checks),
		Authenticate:     internalmiddleware.JWT(authSvc),
		Throttle:         throttle,
	}.Register(r, cfg.APIPrefix)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventSvc.Start(ctx)
	defer eventSvc.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
