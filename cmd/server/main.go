package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	activityapp "github.com/armonia/backend/internal/application/activity"
	billingapp "github.com/armonia/backend/internal/application/billing"
	eventapp "github.com/armonia/backend/internal/application/event"
	financeapp "github.com/armonia/backend/internal/application/finance"
	identityapp "github.com/armonia/backend/internal/application/identity"
	paymentapp "github.com/armonia/backend/internal/application/payment"
	propertyapp "github.com/armonia/backend/internal/application/property"
	reportapp "github.com/armonia/backend/internal/application/report"
	domainpayment "github.com/armonia/backend/internal/domain/payment"
	"github.com/armonia/backend/internal/infrastructure/auth"
	"github.com/armonia/backend/internal/infrastructure/cache"
	"github.com/armonia/backend/internal/infrastructure/config"
	"github.com/armonia/backend/internal/infrastructure/event"
	"github.com/armonia/backend/internal/infrastructure/logger"
	gateway "github.com/armonia/backend/internal/infrastructure/payment"
	"github.com/armonia/backend/internal/infrastructure/persistence"
	"github.com/armonia/backend/internal/infrastructure/scheduler"
	"github.com/armonia/backend/internal/infrastructure/storage"
	"github.com/armonia/backend/internal/infrastructure/telemetry"
	"github.com/armonia/backend/internal/interfaces/http/handler"
	"github.com/armonia/backend/internal/interfaces/http/middleware"
	"github.com/armonia/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	_ "github.com/armonia/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Armonia Backend API
//	@version		1.0
//	@description	Multi-tenant administration platform for residential complexes: billing, payments, expenses and financial reporting.
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/armonia/backend
//	@contact.email	support@armonia.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

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

	log.Info("Starting Armonia Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize OpenTelemetry tracing (no-op when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Register database query tracing
	dbTracingCfg := telemetry.DefaultDBTracingConfig()
	dbTracingCfg.Enabled = cfg.Telemetry.DBTraceEnabled
	dbTracingCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	dbTracing := telemetry.NewDBTracingPlugin(dbTracingCfg, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	// Initialize repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	propertyRepo := persistence.NewGormPropertyRepository(db.DB)
	feeRepo := persistence.NewGormFeeDefinitionRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	expenseRepo := persistence.NewGormExpenseRepository(db.DB)
	activityRepo := persistence.NewGormActivityRepository(db.DB)
	summaryRepo := persistence.NewGormSummaryRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Create outbox publisher for transactional event saving
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)

	// Billing and payment aggregates persist their events through the outbox
	// so state changes and event records commit atomically
	invoiceRepo.SetOutboxEventSaver(outboxPublisher)
	transactionRepo.SetOutboxEventSaver(outboxPublisher)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Every domain event lands in the tenant's activity log
	auditHandler := activityapp.NewAuditEventHandler(activityRepo, log)
	eventBus.Subscribe(auditHandler)
	log.Info("Event handlers registered",
		zap.Strings("audit_events", auditHandler.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize and start outbox processor for guaranteed event delivery
	// The outbox processor reads events from the outbox_events table and publishes them to the event bus
	if cfg.Event.ProcessorEnabled {
		outboxProcessorConfig := event.DefaultOutboxProcessorConfig()
		if cfg.Event.BatchSize > 0 {
			outboxProcessorConfig.BatchSize = cfg.Event.BatchSize
		}
		if cfg.Event.PollInterval > 0 {
			outboxProcessorConfig.PollInterval = cfg.Event.PollInterval
		}
		outboxProcessorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		if cfg.Event.CleanupRetention > 0 {
			outboxProcessorConfig.CleanupRetention = cfg.Event.CleanupRetention
		}
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxProcessorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", outboxProcessorConfig.BatchSize),
			zap.Duration("poll_interval", outboxProcessorConfig.PollInterval),
		)
	}

	// Token infrastructure: JWT signing plus a blacklist for revocation.
	// Redis keeps revocations shared across instances; the in-memory
	// fallback is for development without Redis.
	jwtService := auth.NewJWTService(cfg.JWT)
	var tokenBlacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable for token blacklist, using in-memory fallback", zap.Error(err))
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		tokenBlacklist = redisBlacklist
	}

	// Idempotency store for payment gateway callbacks
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Object storage for expense receipts and payment proofs. The stub
	// keeps uploads working in environments without S3 credentials.
	var objectStorage financeapp.ObjectStorageService
	if cfg.Storage.Bucket != "" {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		objectStorage = s3Storage
		log.Info("S3 object storage configured", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		objectStorage = storage.NewStubObjectStorage()
		log.Warn("Object storage not configured, using stub storage")
	}

	// Payment gateways
	var gateways []domainpayment.Gateway
	if cfg.Gateway.PayU.Enabled {
		payuAdapter, err := gateway.NewPayUAdapter(&gateway.PayUConfig{
			MerchantID:  cfg.Gateway.PayU.MerchantID,
			AccountID:   cfg.Gateway.PayU.AccountID,
			APIKey:      cfg.Gateway.PayU.APIKey,
			APILogin:    cfg.Gateway.PayU.APILogin,
			APIURL:      cfg.Gateway.PayU.APIURL,
			ResponseURL: cfg.Gateway.ReturnURL,
			TestMode:    cfg.Gateway.PayU.TestMode,
		})
		if err != nil {
			log.Fatal("Failed to configure PayU gateway", zap.Error(err))
		}
		gateways = append(gateways, payuAdapter)
		log.Info("PayU gateway enabled")
	}
	if cfg.Gateway.Wompi.Enabled {
		wompiAdapter, err := gateway.NewWompiAdapter(&gateway.WompiConfig{
			PublicKey:       cfg.Gateway.Wompi.PublicKey,
			PrivateKey:      cfg.Gateway.Wompi.PrivateKey,
			EventsSecret:    cfg.Gateway.Wompi.EventsSecret,
			IntegritySecret: cfg.Gateway.Wompi.IntegritySecret,
			APIURL:          cfg.Gateway.Wompi.APIURL,
			RedirectURL:     cfg.Gateway.ReturnURL,
		})
		if err != nil {
			log.Fatal("Failed to configure Wompi gateway", zap.Error(err))
		}
		gateways = append(gateways, wompiAdapter)
		log.Info("Wompi gateway enabled")
	}

	// Identity services
	authService := identityapp.NewAuthService(userRepo, tenantRepo, jwtService, tokenBlacklist,
		identityapp.DefaultAuthServiceConfig(), log)
	userService := identityapp.NewUserService(userRepo, tenantRepo, log)
	tenantService := identityapp.NewTenantService(tenantRepo, log)

	// Property service
	propertyService := propertyapp.NewPropertyService(propertyapp.PropertyServiceConfig{
		PropertyRepo:   propertyRepo,
		TenantRepo:     tenantRepo,
		ActivityRepo:   activityRepo,
		EventPublisher: eventBus,
		Logger:         log,
	})

	// Billing services. Invoice events reach the bus through the outbox,
	// so the billing service does not publish directly.
	feeService := billingapp.NewFeeService(feeRepo, activityRepo, log)
	billingService := billingapp.NewBillingService(billingapp.BillingServiceConfig{
		FeeRepo:      feeRepo,
		InvoiceRepo:  invoiceRepo,
		PropertyRepo: propertyRepo,
		TenantRepo:   tenantRepo,
		ActivityRepo: activityRepo,
		LateFeeRate:  decimal.NewFromFloat(cfg.Billing.LateFeeRate),
		Logger:       log,
	})

	// Payment services
	paymentService := paymentapp.NewPaymentService(paymentapp.PaymentServiceConfig{
		TransactionRepo: transactionRepo,
		InvoiceRepo:     invoiceRepo,
		PropertyRepo:    propertyRepo,
		ActivityRepo:    activityRepo,
		Logger:          log,
	})
	checkoutService := paymentapp.NewCheckoutService(paymentapp.CheckoutServiceConfig{
		Gateways:        gateways,
		TransactionRepo: transactionRepo,
		InvoiceRepo:     invoiceRepo,
		TenantRepo:      tenantRepo,
		NotifyURL:       cfg.Gateway.NotifyURL,
		ReturnURL:       cfg.Gateway.ReturnURL,
		Logger:          log,
	})
	callbackService := paymentapp.NewCallbackService(paymentapp.CallbackServiceConfig{
		Gateways:        gateways,
		TransactionRepo: transactionRepo,
		InvoiceRepo:     invoiceRepo,
		ActivityRepo:    activityRepo,
		Idempotency:     idempotencyStore,
		IdempotencyTTL:  24 * time.Hour,
		Logger:          log,
	})
	receiptService := paymentapp.NewReceiptService(paymentapp.ReceiptServiceConfig{
		TransactionRepo:   transactionRepo,
		TenantRepo:        tenantRepo,
		Storage:           objectStorage,
		UploadURLExpiry:   cfg.Storage.PresignExpiration,
		DownloadURLExpiry: cfg.Storage.PresignExpiration,
		Logger:            log,
	})

	// Expense service
	expenseService := financeapp.NewExpenseService(financeapp.ExpenseServiceConfig{
		ExpenseRepo:       expenseRepo,
		TenantRepo:        tenantRepo,
		ActivityRepo:      activityRepo,
		Storage:           objectStorage,
		EventPublisher:    eventBus,
		UploadURLExpiry:   cfg.Storage.PresignExpiration,
		DownloadURLExpiry: cfg.Storage.PresignExpiration,
		Logger:            log,
	})

	// Reporting and audit services
	summaryService := reportapp.NewSummaryService(reportapp.SummaryServiceConfig{
		InvoiceRepo: invoiceRepo,
		TxRepo:      transactionRepo,
		ExpenseRepo: expenseRepo,
		TenantRepo:  tenantRepo,
		SummaryRepo: summaryRepo,
		Logger:      log,
	})
	activityService := activityapp.NewActivityService(activityapp.ActivityServiceConfig{
		ActivityRepo: activityRepo,
		TenantRepo:   tenantRepo,
		Logger:       log,
	})
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Initialize the maintenance scheduler (if enabled): late fee
	// assessment, trial expiry sweeps and monthly finance snapshots
	if cfg.Scheduler.Enabled {
		executor := scheduler.NewMaintenanceExecutor(billingService, tenantService, summaryService, log)
		maintenanceScheduler := scheduler.NewScheduler(scheduler.SchedulerConfig{
			Enabled:           cfg.Scheduler.Enabled,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
		}, executor, log)
		if err := maintenanceScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start maintenance scheduler", zap.Error(err))
		}
		defer func() {
			if err := maintenanceScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping maintenance scheduler", zap.Error(err))
			}
		}()

		cronConfig := scheduler.DefaultCronConfig()
		if cfg.Scheduler.LateFeeCron != "" {
			cronConfig.LateFeeSpec = cfg.Scheduler.LateFeeCron
		}
		if cfg.Scheduler.TrialCheckCron != "" {
			cronConfig.TrialCheckSpec = cfg.Scheduler.TrialCheckCron
		}
		if cfg.Scheduler.SnapshotCron != "" {
			cronConfig.SnapshotSpec = cfg.Scheduler.SnapshotCron
		}
		cronTrigger := scheduler.NewCronTrigger(cronConfig, maintenanceScheduler, tenantRepo, log)
		if err := cronTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start cron trigger", zap.Error(err))
		}
		defer func() {
			if err := cronTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping cron trigger", zap.Error(err))
			}
		}()
		log.Info("Maintenance scheduler started",
			zap.String("late_fee_cron", cronConfig.LateFeeSpec),
			zap.String("trial_check_cron", cronConfig.TrialCheckSpec),
			zap.String("snapshot_cron", cronConfig.SnapshotSpec),
		)
	}

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	tenantHandler := handler.NewTenantHandler(tenantService)
	propertyHandler := handler.NewPropertyHandler(propertyService)
	feeHandler := handler.NewFeeHandler(feeService)
	billingHandler := handler.NewBillingHandler(billingService)
	paymentHandler := handler.NewPaymentHandler(paymentService, checkoutService, receiptService)
	paymentCallbackHandler := handler.NewPaymentCallbackHandler(callbackService)
	expenseHandler := handler.NewExpenseHandler(expenseService)
	reportHandler := handler.NewReportHandler(summaryService)
	activityHandler := handler.NewActivityHandler(activityService)
	outboxHandler := handler.NewOutboxHandler(outboxService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing - OpenTelemetry spans
	// 4. Logger - Log requests
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Swagger documentation endpoint
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Payment gateway callback endpoint (no authentication required).
	// Called server-to-server by PayU and Wompi.
	engine.POST("/api/v1/payments/callback/:gateway", paymentCallbackHandler.HandleCallback)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	// Configure skip paths for public endpoints
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		SkipPathPrefixes: []string{
			"/api/v1/payments/callback",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Resolve tenant context from JWT claims or the X-Tenant-ID header
	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.Required = false
	tenantConfig.Logger = log
	r.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	// Auth routes (login/refresh are public, the rest require a token)
	authRoutes := router.NewDomainGroup("auth", "/auth")
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authRoutes.Use(middleware.RateLimit(authLimiter))
		log.Info("Auth rate limiting enabled",
			zap.Int("requests", cfg.HTTP.AuthRateLimitRequests),
			zap.Duration("window", cfg.HTTP.AuthRateLimitWindow),
		)
	}
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.RefreshToken)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.POST("/force-logout", authHandler.ForceLogout)
	authRoutes.GET("/me", authHandler.GetCurrentUser)
	authRoutes.PUT("/password", authHandler.ChangePassword)

	// Identity domain (tenant and user administration)
	identityRoutes := router.NewDomainGroup("identity", "/identity")

	// Tenant lifecycle is restricted to platform operators
	identityRoutes.POST("/tenants", middleware.RequirePlatformAdmin(), tenantHandler.Create)
	identityRoutes.GET("/tenants", middleware.RequirePlatformAdmin(), tenantHandler.List)
	identityRoutes.GET("/tenants/stats/count", middleware.RequirePlatformAdmin(), tenantHandler.Count)
	identityRoutes.GET("/tenants/code/:code", tenantHandler.GetByCode)
	identityRoutes.GET("/tenants/trials/expiring", middleware.RequirePlatformAdmin(), tenantHandler.ListTrialExpiring)
	identityRoutes.POST("/tenants/trials/suspend-expired", middleware.RequirePlatformAdmin(), tenantHandler.SuspendExpiredTrials)
	identityRoutes.GET("/tenants/:id", tenantHandler.GetByID)
	identityRoutes.PUT("/tenants/:id", middleware.RequirePlatformAdmin(), tenantHandler.Update)
	identityRoutes.PUT("/tenants/:id/config", middleware.RequireManagement(), tenantHandler.UpdateConfig)
	identityRoutes.PUT("/tenants/:id/plan", middleware.RequirePlatformAdmin(), tenantHandler.SetPlan)
	identityRoutes.GET("/tenants/:id/features", tenantHandler.GetFeatures)
	identityRoutes.DELETE("/tenants/:id", middleware.RequirePlatformAdmin(), tenantHandler.Delete)
	identityRoutes.POST("/tenants/:id/activate", middleware.RequirePlatformAdmin(), tenantHandler.Activate)
	identityRoutes.POST("/tenants/:id/deactivate", middleware.RequirePlatformAdmin(), tenantHandler.Deactivate)
	identityRoutes.POST("/tenants/:id/suspend", middleware.RequirePlatformAdmin(), tenantHandler.Suspend)

	// User management
	identityRoutes.POST("/users", middleware.RequireManagement(), userHandler.Create)
	identityRoutes.GET("/users", middleware.RequireManagement(), userHandler.List)
	identityRoutes.GET("/users/stats/count", middleware.RequireManagement(), userHandler.Count)
	identityRoutes.GET("/users/:id", userHandler.GetByID)
	identityRoutes.PUT("/users/:id", middleware.RequireManagement(), userHandler.Update)
	identityRoutes.DELETE("/users/:id", middleware.RequireManagement(), userHandler.Delete)
	identityRoutes.POST("/users/:id/activate", middleware.RequireManagement(), userHandler.Activate)
	identityRoutes.POST("/users/:id/deactivate", middleware.RequireManagement(), userHandler.Deactivate)
	identityRoutes.POST("/users/:id/lock", middleware.RequireManagement(), userHandler.Lock)
	identityRoutes.POST("/users/:id/unlock", middleware.RequireManagement(), userHandler.Unlock)
	identityRoutes.POST("/users/:id/reset-password", middleware.RequireManagement(), userHandler.ResetPassword)
	identityRoutes.PUT("/users/:id/role", middleware.RequireManagement(), userHandler.SetRole)

	// Property domain (units of the complex)
	propertyRoutes := router.NewDomainGroup("property", "/properties")
	propertyRoutes.POST("", middleware.RequireManagement(), propertyHandler.Register)
	propertyRoutes.GET("", propertyHandler.List)
	propertyRoutes.GET("/stats/count", propertyHandler.Count)
	propertyRoutes.GET("/unit/:unitNumber", propertyHandler.GetByUnitNumber)
	propertyRoutes.GET("/:id", propertyHandler.GetByID)
	propertyRoutes.PUT("/:id", middleware.RequireManagement(), propertyHandler.Update)
	propertyRoutes.POST("/:id/activate", middleware.RequireManagement(), propertyHandler.Activate)
	propertyRoutes.POST("/:id/deactivate", middleware.RequireManagement(), propertyHandler.Deactivate)

	// Billing domain (fee definitions, invoices, billing runs)
	billingRoutes := router.NewDomainGroup("billing", "/billing")
	billingRoutes.POST("/fees", middleware.RequireManagement(), feeHandler.Create)
	billingRoutes.GET("/fees", feeHandler.List)
	billingRoutes.GET("/fees/:id", feeHandler.GetByID)
	billingRoutes.PUT("/fees/:id", middleware.RequireManagement(), feeHandler.Update)
	billingRoutes.POST("/fees/:id/activate", middleware.RequireManagement(), feeHandler.Activate)
	billingRoutes.POST("/fees/:id/deactivate", middleware.RequireManagement(), feeHandler.Deactivate)
	billingRoutes.POST("/runs", middleware.RequireManagement(), billingHandler.GenerateBills)
	billingRoutes.GET("/invoices", billingHandler.ListInvoices)
	billingRoutes.GET("/invoices/:id", billingHandler.GetInvoice)
	billingRoutes.POST("/invoices/:id/cancel", middleware.RequireManagement(), billingHandler.CancelInvoice)
	billingRoutes.GET("/invoices/:id/late-fee", billingHandler.PreviewLateFee)
	billingRoutes.POST("/late-fees/apply", middleware.RequireManagement(), billingHandler.ApplyLateFees)

	// Payment domain (transactions, checkout, receipts)
	paymentRoutes := router.NewDomainGroup("payment", "/payments")
	paymentRoutes.POST("", middleware.RequireManagement(), paymentHandler.Process)
	paymentRoutes.GET("", paymentHandler.List)
	paymentRoutes.POST("/checkout", paymentHandler.StartCheckout)
	paymentRoutes.GET("/:id", paymentHandler.GetByID)
	paymentRoutes.PUT("/:id", middleware.RequireManagement(), paymentHandler.Update)
	paymentRoutes.DELETE("/:id", paymentHandler.Cancel)
	paymentRoutes.POST("/:id/refund", middleware.RequireManagement(), paymentHandler.Refund)
	paymentRoutes.POST("/:id/receipt", paymentHandler.InitiateReceiptUpload)
	paymentRoutes.PUT("/:id/receipt", paymentHandler.ConfirmReceipt)
	paymentRoutes.GET("/:id/receipt", paymentHandler.GetReceiptURL)

	// Expense domain (common expenses of the complex)
	expenseRoutes := router.NewDomainGroup("expense", "/expenses")
	expenseRoutes.POST("", middleware.RequireManagement(), expenseHandler.Record)
	expenseRoutes.GET("", expenseHandler.List)
	expenseRoutes.GET("/:id", expenseHandler.GetByID)
	expenseRoutes.PUT("/:id", middleware.RequireManagement(), expenseHandler.Update)
	expenseRoutes.DELETE("/:id", middleware.RequireManagement(), expenseHandler.Delete)
	expenseRoutes.POST("/:id/receipt", middleware.RequireManagement(), expenseHandler.InitiateReceiptUpload)
	expenseRoutes.PUT("/:id/receipt", middleware.RequireManagement(), expenseHandler.ConfirmReceipt)
	expenseRoutes.GET("/:id/receipt", expenseHandler.GetReceiptURL)

	// Report domain (finance summaries, invoice aging)
	reportRoutes := router.NewDomainGroup("report", "/reports")
	reportRoutes.GET("/finance/summary", reportHandler.GetFinanceSummary)
	reportRoutes.GET("/finance/aging", reportHandler.GetInvoiceAging)

	// Activity log
	activityRoutes := router.NewDomainGroup("activity", "/activity")
	activityRoutes.GET("", activityHandler.List)

	// System routes (health, info, outbox administration)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/outbox/dead", middleware.RequirePlatformAdmin(), outboxHandler.GetDeadLetterEntries)
	systemRoutes.POST("/outbox/dead/retry-all", middleware.RequirePlatformAdmin(), outboxHandler.RetryAllDeadEntries)
	systemRoutes.GET("/outbox/stats", middleware.RequirePlatformAdmin(), outboxHandler.GetStats)
	systemRoutes.GET("/outbox/:id", middleware.RequirePlatformAdmin(), outboxHandler.GetEntry)
	systemRoutes.POST("/outbox/:id/retry", middleware.RequirePlatformAdmin(), outboxHandler.RetryDeadEntry)

	// Register all domain groups
	r.Register(authRoutes).
		Register(identityRoutes).
		Register(propertyRoutes).
		Register(billingRoutes).
		Register(paymentRoutes).
		Register(expenseRoutes).
		Register(reportRoutes).
		Register(activityRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
