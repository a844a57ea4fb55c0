package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/thethakurshivam/grs-sub003/api/swagger"
	"github.com/thethakurshivam/grs-sub003/internal/handler"
	"github.com/thethakurshivam/grs-sub003/internal/middleware"
	"github.com/thethakurshivam/grs-sub003/internal/models"
	"github.com/thethakurshivam/grs-sub003/internal/repository"
	"github.com/thethakurshivam/grs-sub003/internal/service"
	"github.com/thethakurshivam/grs-sub003/pkg/cache"
	"github.com/thethakurshivam/grs-sub003/pkg/config"
	"github.com/thethakurshivam/grs-sub003/pkg/database"
	"github.com/thethakurshivam/grs-sub003/pkg/export"
	"github.com/thethakurshivam/grs-sub003/pkg/jobs"
	"github.com/thethakurshivam/grs-sub003/pkg/logger"
	corsmiddleware "github.com/thethakurshivam/grs-sub003/pkg/middleware/cors"
	reqidmiddleware "github.com/thethakurshivam/grs-sub003/pkg/middleware/requestid"
)

// @title Credit Portal API
// @version 1.0.0
// @description Dual-approval academic credit ledger and certificate issuance
// @BasePath /api/v1
// @schemes http
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Cache.Enabled || cfg.Notifications.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, balance cache and events disabled", zap.Error(err))
			redisClient = nil
		}
	}

	catalog := service.NewUmbrellaCatalog(cfg.Credits.Umbrellas)
	thresholds, err := service.NewQualificationThresholds(cfg.Credits.Thresholds, cfg.Credits.Overrides)
	if err != nil {
		logr.Sugar().Fatalw("invalid qualification thresholds", "error", err)
	}

	students := repository.NewStudentRepository(db)
	creditRequests := repository.NewCreditRequestRepository(db)
	history := repository.NewCourseHistoryRepository(db)
	claims := repository.NewClaimRepository(db)
	certificates := repository.NewCertificateRepository(db)
	ledger := repository.NewLedgerStore(db, cfg.Ledger.LockTimeout)

	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.BalanceTTL, logr, cfg.Cache.Enabled && redisClient != nil)

	var notifier *service.NotificationService
	if cfg.Notifications.Enabled && redisClient != nil {
		events := repository.NewEventRepository(redisClient, cfg.Notifications.Channel)
		eventQueue := service.NewEventQueue(events, jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
			Logger:     logr,
		})
		eventQueue.Start(context.Background())
		defer eventQueue.Stop()
		notifier = service.NewNotificationService(service.NewQueuedPublisher(eventQueue), metrics, logr, true)
	}

	verifier, err := export.NewVerifier(cfg.Certificates.VerificationSecret)
	if err != nil {
		logr.Sugar().Fatalw("invalid certificate verification secret", "error", err)
	}
	ledgerSvc := service.NewLedgerService(students, history, certificates, cacheSvc, export.NewCertificatePDF(), catalog, logr,
		service.LedgerConfig{BalanceTTL: cfg.Cache.BalanceTTL, IssuerName: cfg.Certificates.IssuerName, Verifier: verifier})

	workflowOpts := []service.WorkflowOption{
		service.WithWorkflowLogger(logr),
		service.WithWorkflowNotifier(notifier),
		service.WithBalanceInvalidator(ledgerSvc),
		service.WithWorkflowMetrics(metrics),
	}
	creditRequestSvc := service.NewCreditRequestService(creditRequests, students, ledger, catalog, workflowOpts...)
	certificationSvc := service.NewCertificationService(claims, certificates, students, ledger, catalog, thresholds,
		service.NewCertificateIssuer(logr), workflowOpts...)
	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Expiry: cfg.JWT.Expiration})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), tokens, logr,
		handler.NewCreditRequestHandler(creditRequestSvc),
		handler.NewClaimHandler(certificationSvc),
		handler.NewLedgerHandler(ledgerSvc),
		metricsHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "umbrellas", len(catalog.List()))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerRoutes(api *gin.RouterGroup, tokens *service.TokenService, logr *zap.Logger, requests *handler.CreditRequestHandler,
	claims *handler.ClaimHandler, ledger *handler.LedgerHandler, metrics *handler.MetricsHandler) {
	api.Use(middleware.JWT(tokens))

	reviewers := middleware.RequireRoles(models.RolePOC, models.RoleAdmin, models.RoleSuperAdmin)
	self := middleware.RBAC(string(models.RolePOC), string(models.RoleAdmin), string(models.RoleSuperAdmin), middleware.AllowSelf)

	api.GET("/umbrellas", claims.Umbrellas)

	api.POST("/credit-requests", requests.Submit)
	api.GET("/credit-requests", requests.List)
	api.GET("/credit-requests/:id", requests.Get)
	api.POST("/credit-requests/:id/decision", reviewers, middleware.Audit(logr, "credit_request"), requests.Decide)

	api.POST("/claims", claims.Submit)
	api.GET("/claims", claims.List)
	api.GET("/claims/:id", claims.Get)
	api.POST("/claims/:id/decision", reviewers, middleware.Audit(logr, "claim"), claims.Decide)

	students := api.Group("/students/:id", self)
	students.GET("/balance", ledger.Balance)
	students.GET("/course-history", ledger.CourseHistory)
	students.GET("/certificates", ledger.Certificates)

	api.GET("/certificates/:id", ledger.Certificate)
	api.GET("/certificates/:id/pdf", ledger.CertificatePDF)

	api.GET("/admin/metrics", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), metrics.Summary)
}
