package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/shopapi/internal/pricing"
	"github.com/jafarshop/shopapi/internal/service"
	"github.com/jafarshop/shopapi/pkg/errors"
)

// HandleCheckout handles POST /v1/checkout
func HandleCheckout(checkout CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		// Auth-session management is out of scope; the storefront
		// forwards the user id when one exists.
		userID := c.GetHeader("X-User-ID")

		result, err := checkout.Checkout(c.Request.Context(), userID, req)
		if err != nil {
			respondCheckoutError(c, result, err, logger)
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

func respondCheckoutError(c *gin.Context, result *service.CheckoutResult, err error, logger *zap.Logger) {
	switch e := err.(type) {
	case *errors.ErrValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": e.Error()})
	case *pricing.ErrCouponExpired, *pricing.ErrMinPurchaseNotMet:
		c.JSON(http.StatusBadRequest, gin.H{"error": "coupon rejected", "details": err.Error()})
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": e.Error()})
	case *errors.ErrGateway:
		// The order is persisted; surface its id so the caller can
		// offer a retry.
		body := gin.H{"error": "payment initiation failed", "details": e.Message}
		if result != nil {
			body["order_id"] = result.OrderID
		}
		c.JSON(http.StatusBadGateway, body)
	case *errors.ErrAuth:
		logger.Error("Gateway auth failure during checkout", zap.Error(err))
		body := gin.H{"error": "payment configuration error"}
		if result != nil {
			body["order_id"] = result.OrderID
		}
		c.JSON(http.StatusInternalServerError, body)
	default:
		logger.Error("Checkout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
