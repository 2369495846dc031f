package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/billing-core/internal/config"
	domainRepo "github.com/sangkips/billing-core/internal/domain/repository"
	"github.com/sangkips/billing-core/internal/presentation/http/handler"
	"github.com/sangkips/billing-core/internal/presentation/http/middleware"
	"github.com/sangkips/billing-core/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	permissionManageBills    = "manage-bills"
	permissionManagePayments = "manage-payments"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Bill        *handler.BillHandler
	Payment     *handler.PaymentHandler
	Transaction *handler.TransactionHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	Logger          *logrus.Logger
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))

		// Per-user rate limiter
		duration := deps.Cfg.RateLimit.Duration
		if duration <= 0 {
			duration = 60
		}
		rateLimiter := middleware.NewUserRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		protected.Use(rateLimiter.Middleware())

		registerBillRoutes(protected, h)
		registerPaymentRoutes(protected, h, deps)
		registerTransactionRoutes(protected, h)
	}

	return router
}

func registerBillRoutes(protected *gin.RouterGroup, h *Handlers) {
	bills := protected.Group("/bills")
	bills.Use(middleware.RequirePermission(permissionManageBills))
	{
		bills.POST("", h.Bill.Create)
		bills.GET("/:accountId", h.Bill.List)
		bills.GET("/:accountId/summary", h.Bill.Summary)
	}
}

func registerPaymentRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	payments := protected.Group("/payments")
	payments.Use(middleware.RequirePermission(permissionManagePayments))
	{
		payments.POST("/bulk", middleware.IdempotencyRequired(middleware.IdempotencyConfig{
			Repo:   deps.IdempotencyRepo,
			TTL:    deps.Cfg.Billing.IdempotencyTTL,
			Logger: deps.Logger,
		}), h.Payment.Bulk)
	}
}

func registerTransactionRoutes(protected *gin.RouterGroup, h *Handlers) {
	transactions := protected.Group("/transactions")
	transactions.Use(middleware.RequirePermission(permissionManagePayments))
	{
		transactions.GET("/:accountId", h.Transaction.List)
		transactions.GET("/:accountId/export", h.Transaction.Export)
	}
}
