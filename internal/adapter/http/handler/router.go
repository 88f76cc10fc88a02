package handler

import (
	"merchant-collections/internal/adapter/http/middleware"
	redisStore "merchant-collections/internal/adapter/storage/redis"
	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	MerchantSvc    ports.MerchantService
	PaymentSvc     ports.PaymentService
	ZoneSvc        ports.ZoneService
	ReportingSvc   ports.ReportingService
	SnapshotSvc    ports.SnapshotService
	DirectorySvc   ports.DirectoryService
	AuditSvc       ports.AuditService
	TokenSvc       ports.TokenService
	ProfileRepo    ports.ProfileRepository
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(8 << 20)) // 8 MB; snapshot restore carries full table dumps

	// Denied-request audit trail (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.SecurityAudit(deps.AuditSvc))
	}

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/login", rl("auth_login"), authHandler.Login)
		auth.POST("/reset/request", rl("auth_reset"), authHandler.RequestPasswordReset)
		auth.POST("/reset/confirm", rl("auth_reset"), authHandler.ConfirmPasswordReset)
	}

	// --- Authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.ProfileRepo, deps.Logger)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	merchantHandler := NewMerchantHandler(deps.MerchantSvc)
	paymentHandler := NewPaymentHandler(deps.PaymentSvc)
	merchants := v1.Group("/merchants", jwtAuth)
	{
		merchants.GET("", merchantHandler.List)
		merchants.GET("/:id", merchantHandler.Get)
		merchants.POST("", merchantHandler.Create)
		merchants.PUT("/:id", merchantHandler.Update)
		merchants.DELETE("/:id", adminOnly, merchantHandler.Delete)
		merchants.PUT("/:id/ready", merchantHandler.SetReadyForAdmin)

		merchants.GET("/:id/abonos", paymentHandler.ListAbonos)
		merchants.POST("/:id/abonos", rl("payments"), paymentHandler.RecordAbono)
		merchants.POST("/:id/close-cycle", adminOnly, paymentHandler.CloseCycle)
	}

	// Batch receipt confirmation lives outside /merchants to keep the
	// wildcard group free of verb-ish segments.
	receipts := v1.Group("/receipts", jwtAuth, adminOnly)
	{
		receipts.POST("/confirm", merchantHandler.ConfirmReceipts)
	}

	zoneHandler := NewZoneHandler(deps.ZoneSvc)
	zones := v1.Group("/zones", jwtAuth)
	{
		zones.GET("", zoneHandler.List)
		zones.GET("/:id", zoneHandler.Get)
		zones.POST("", adminOnly, zoneHandler.Create)
		zones.PUT("/:id", adminOnly, zoneHandler.Update)
		zones.DELETE("/:id", adminOnly, zoneHandler.Delete)
	}

	dashboardHandler := NewDashboardHandler(deps.ReportingSvc)
	dashboard := v1.Group("/dashboard", jwtAuth, adminOnly)
	{
		dashboard.GET("/stats", rl("dashboard"), dashboardHandler.GetStats)
	}

	reports := v1.Group("/reports", jwtAuth, middleware.RequireRole(domain.RoleAdmin, domain.RoleSecretary))
	{
		reports.GET("/collections", rl("exports"), dashboardHandler.CollectionsReport)
		reports.GET("/census", rl("exports"), dashboardHandler.CensusReport)
		reports.GET("/collectors", rl("exports"), dashboardHandler.CollectorsReport)
	}

	directoryHandler := NewDirectoryHandler(deps.DirectorySvc)
	settings := v1.Group("/settings", jwtAuth)
	{
		settings.GET("", directoryHandler.GetSettings)
	}

	snapshotHandler := NewSnapshotHandler(deps.SnapshotSvc)
	admin := v1.Group("/admin", jwtAuth, adminOnly)
	{
		admin.GET("/snapshot", rl("exports"), snapshotHandler.Export)
		admin.POST("/snapshot/restore", rl("snapshot_restore"), snapshotHandler.Restore)

		admin.GET("/profiles", directoryHandler.ListProfiles)
		admin.GET("/profiles/:id", directoryHandler.GetProfile)
		admin.POST("/profiles", directoryHandler.Provision)
		admin.PUT("/profiles/:id", directoryHandler.UpdateProfile)

		admin.PUT("/settings", directoryHandler.UpdateSettings)
	}

	return r
}
