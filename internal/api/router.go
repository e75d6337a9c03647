package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/shopapi/internal/api/handlers"
	"github.com/jafarshop/shopapi/internal/api/middleware"
	"github.com/jafarshop/shopapi/internal/config"
	"github.com/jafarshop/shopapi/internal/repository"
)

// Services bundles the use-case services the router exposes
type Services struct {
	Checkout    handlers.CheckoutService
	Payments    handlers.PaymentService
	Fulfillment handlers.FulfillmentService
	Auth        handlers.AuthTokenProvider
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, svcs Services, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		v1.POST("/checkout", handlers.HandleCheckout(svcs.Checkout, logger))
		v1.GET("/orders/:id", handlers.HandleGetOrder(repos, logger))

		payment := v1.Group("/payment")
		{
			payment.POST("/auth-token", handlers.HandleAuthToken(svcs.Auth, logger))
			payment.POST("/initiate", handlers.HandleInitiatePayment(repos, svcs.Payments, logger))
			payment.POST("/callback", handlers.HandlePaymentCallback(svcs.Payments, logger))
			payment.GET("/return", handlers.HandlePaymentReturn(svcs.Payments, logger))
		}

		// Admin routes (internal fulfillment tooling)
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.AdminAuthMiddleware(cfg.API.AdminKeyHash, logger))
		{
			adminRoutes.GET("/orders", handlers.HandleListOrders(repos, logger))
			adminRoutes.POST("/orders/:id/status", handlers.HandleUpdateOrderStatus(svcs.Fulfillment, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
