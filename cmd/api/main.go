package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"merchant-collections/config"
	httpHandler "merchant-collections/internal/adapter/http/handler"
	pgStorage "merchant-collections/internal/adapter/storage/postgres"
	redisStorage "merchant-collections/internal/adapter/storage/redis"
	"merchant-collections/internal/core/ports"
	"merchant-collections/internal/service"
	"merchant-collections/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Merchant Collections Registry")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	zoneRepo := pgStorage.NewZoneRepo(pool)
	abonoRepo := pgStorage.NewAbonoRepo(pool)
	profileRepo := pgStorage.NewProfileRepo(pool)
	settingsRepo := pgStorage.NewSettingsRepo(pool)
	receiptRepo := pgStorage.NewReceiptRepo(pool)
	snapshotRepo := pgStorage.NewSnapshotRepo(pool)
	statsRepo := pgStorage.NewStatsRepo(pool)
	actionLogRepo := pgStorage.NewActionLogRepository(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	statsCache := redisStorage.NewStatsCache(rdb)
	resetTokenStore := redisStorage.NewResetTokenStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	mailer := service.NewLogMailer(log)
	auditSvc := service.NewAuditService(actionLogRepo, log)

	// Initialize business services
	authSvc := service.NewAuthService(profileRepo, hashSvc, tokenSvc, resetTokenStore, mailer, auditSvc, cfg.Reset.TokenTTL, log)
	merchantSvc := service.NewMerchantService(merchantRepo, zoneRepo, statsCache, transactor, auditSvc, log)
	paymentSvc := service.NewPaymentService(
		abonoRepo,
		merchantRepo,
		settingsRepo,
		receiptRepo,
		idempotencyCache,
		statsCache,
		transactor,
		auditSvc,
		log,
	)
	zoneSvc := service.NewZoneService(zoneRepo, auditSvc)
	reportingSvc := service.NewReportingService(statsRepo, statsCache, abonoRepo, merchantRepo, cfg.App.StatsCacheTTL, cfg.App.PageSize, log)
	snapshotSvc := service.NewSnapshotService(snapshotRepo, statsCache, auditSvc, log)
	directorySvc := service.NewDirectoryService(profileRepo, settingsRepo, hashSvc, auditSvc)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		MerchantSvc:    merchantSvc,
		PaymentSvc:     paymentSvc,
		ZoneSvc:        zoneSvc,
		ReportingSvc:   reportingSvc,
		SnapshotSvc:    snapshotSvc,
		DirectorySvc:   directorySvc,
		AuditSvc:       auditSvc,
		TokenSvc:       tokenSvc,
		ProfileRepo:    profileRepo,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
