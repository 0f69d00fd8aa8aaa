package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joinville/accounts/docs"
	accessapp "github.com/joinville/accounts/internal/application/access"
	accountapp "github.com/joinville/accounts/internal/application/account"
	identityapp "github.com/joinville/accounts/internal/application/identity"
	"github.com/joinville/accounts/internal/application/notification"
	signatureapp "github.com/joinville/accounts/internal/application/signature"
	"github.com/joinville/accounts/internal/infrastructure/auth"
	"github.com/joinville/accounts/internal/infrastructure/cache"
	"github.com/joinville/accounts/internal/infrastructure/config"
	"github.com/joinville/accounts/internal/infrastructure/event"
	"github.com/joinville/accounts/internal/infrastructure/logger"
	"github.com/joinville/accounts/internal/infrastructure/mail"
	"github.com/joinville/accounts/internal/infrastructure/persistence"
	"github.com/joinville/accounts/internal/infrastructure/scheduler"
	"github.com/joinville/accounts/internal/infrastructure/sei"
	"github.com/joinville/accounts/internal/infrastructure/storage"
	"github.com/joinville/accounts/internal/infrastructure/telemetry"
	"github.com/joinville/accounts/internal/interfaces/http/handler"
	"github.com/joinville/accounts/internal/interfaces/http/middleware"
	"github.com/joinville/accounts/internal/interfaces/http/router"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Joinville Accounts API
//	@version		1.0
//	@description	Portal de contas da Prefeitura de Joinville: cadastro de cidadãos e empresas, assinatura eletrônica SEI e acesso às aplicações municipais

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting accounts portal",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBName:     cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Redis, or process memory when it is disabled
	cacheFactory := cache.NewFactory(cfg.Redis, cache.WithLogger(log))
	if err := cacheFactory.Connect(ctx); err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := cacheFactory.Close(); err != nil {
			log.Error("Error closing Redis", zap.Error(err))
		}
	}()
	tokenBlacklist := cacheFactory.TokenBlacklist()

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	personRepo := persistence.NewGormPersonRepository(db.DB)
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	phoneRepo := persistence.NewGormPhoneRepository(db.DB)
	applicationRepo := persistence.NewGormApplicationRepository(db.DB)
	accessRepo := persistence.NewGormAccessRepository(db.DB)
	authTokenRepo := persistence.NewGormAuthTokenRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// External services
	seiClient, err := sei.NewClient(sei.NewConfig(cfg.Sei), sei.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to configure SEI", zap.Error(err))
	}
	mailer, err := mail.New(cfg.Mail, log)
	if err != nil {
		log.Fatal("Failed to configure mail", zap.Error(err))
	}
	archive, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to configure document storage", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	sender := notification.NewSender(mailer, jwtService, cfg.Portal.PublicURL, log)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditHandler(log))
	eventBus.Subscribe(signatureapp.NewApprovedHandler(sender, log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services
	authConfig := identityapp.DefaultAuthServiceConfig()
	authConfig.IsStaff = cfg.Portal.IsStaff
	authService := identityapp.NewAuthService(userRepo, personRepo, txScope, seiClient, jwtService,
		tokenBlacklist, sender, eventBus, authConfig, log)
	tokenService := identityapp.NewTokenService(authTokenRepo, log)
	registrationService := accountapp.NewRegistrationService(userRepo, txScope, jwtService, sender, eventBus, log)
	profileService := accountapp.NewProfileService(userRepo, personRepo, companyRepo, phoneRepo, txScope,
		seiClient, eventBus, log)
	signatureService := signatureapp.NewService(userRepo, personRepo, txScope, seiClient, archive, eventBus,
		signatureapp.Config{
			Decree:           cfg.Portal.Decree,
			Instruction:      cfg.Portal.Instruction,
			SignDocumentLink: cfg.Portal.SignDocumentLink,
		}, log)
	accessService := accessapp.NewService(applicationRepo, accessRepo, log)

	// Scheduler for SEI signature status and expired tokens
	syncScheduler := scheduler.NewSignatureSyncScheduler(signatureService, tokenService, log,
		scheduler.SignatureSyncSchedulerConfig{
			Enabled:    cfg.Scheduler.Enabled,
			Interval:   cfg.Scheduler.SyncInterval,
			BatchSize:  cfg.Scheduler.BatchSize,
			JobTimeout: cfg.Scheduler.JobTimeout,
		})
	if err := syncScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start signature sync scheduler", zap.Error(err))
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, in order:
	// tracing, request id, recovery, access log, security headers, CORS,
	// body limit and span error marking
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(max(cfg.HTTP.MaxBodySize, middleware.MinUploadBodySize)))
	engine.Use(middleware.SpanErrorMarker())

	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(cacheFactory.Limiter("ip", cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", handler.NewHealthHandler(map[string]handler.HealthCheck{
		"database": db.Ping,
	}).Check)

	// API documentation, built from the handler annotations
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	guards := router.Guards{Staff: middleware.RequireStaff(cfg.Portal.IsStaff)}
	if cfg.HTTP.AuthRateLimitEnabled {
		guards.RateLimit = middleware.AuthRateLimit(
			cacheFactory.Limiter("auth", cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow))
	}

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = tokenBlacklist
	jwtConfig.Logger = log

	r := router.NewRouter(engine, router.WithAPIVersion("v1")).
		Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig), middleware.SpanAttributes())
	for _, group := range router.PortalGroups(router.Handlers{
		Auth:      handler.NewAuthHandler(authService, tokenService),
		Account:   handler.NewAccountHandler(registrationService),
		Profile:   handler.NewProfileHandler(profileService),
		Signature: handler.NewSignatureHandler(signatureService),
		Access:    handler.NewAccessHandler(accessService),
	}, guards) {
		r.Register(group)
	}
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := syncScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping signature sync scheduler", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
