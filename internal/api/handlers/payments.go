package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/shopapi/internal/repository"
	"github.com/jafarshop/shopapi/pkg/errors"
)

// InitiatePaymentRequest represents the payment initiation payload
type InitiatePaymentRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

// CallbackRequest represents the gateway's server-to-server callback body
type CallbackRequest struct {
	Response string `json:"response" binding:"required"`
}

// HandleAuthToken handles POST /v1/payment/auth-token
func HandleAuthToken(auth AuthTokenProvider, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.GetAccessToken(c.Request.Context())
		if err != nil {
			if e, ok := err.(*errors.ErrAuth); ok {
				logger.Error("Gateway auth exchange failed", zap.Error(e))
				c.JSON(http.StatusInternalServerError, gin.H{
					"message": "gateway authentication failed",
					"details": e.Message,
				})
				return
			}
			logger.Error("Failed to get access token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"access_token": token.Token,
			"expires_in":   token.ExpiresIn(time.Now()),
		})
	}
}

// HandleInitiatePayment handles POST /v1/payment/initiate
func HandleInitiatePayment(repos *repository.Repositories, payments PaymentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req InitiatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "validation failed",
				"details": err.Error(),
			})
			return
		}

		orderID, err := uuid.Parse(req.OrderID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid order ID"})
			return
		}

		order, err := repos.Order.GetByID(c.Request.Context(), orderID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"message": "order not found"})
				return
			}
			logger.Error("Failed to get order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
			return
		}

		redirectURL, err := payments.InitiatePayment(c.Request.Context(), order)
		if err != nil {
			switch e := err.(type) {
			case *errors.ErrValidation:
				c.JSON(http.StatusBadRequest, gin.H{"message": e.Error()})
			case *errors.ErrInvalidStateTransition:
				c.JSON(http.StatusConflict, gin.H{"message": e.Error()})
			case *errors.ErrGateway:
				c.JSON(http.StatusBadGateway, gin.H{
					"message": "gateway rejected the payment",
					"details": e.Message,
				})
			case *errors.ErrAuth:
				logger.Error("Gateway auth failure", zap.Error(e))
				c.JSON(http.StatusInternalServerError, gin.H{"message": "payment configuration error"})
			default:
				logger.Error("Failed to initiate payment", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"redirect_url": redirectURL})
	}
}

// HandlePaymentCallback handles POST /v1/payment/callback, the
// authoritative server-to-server settlement report from the gateway
func HandlePaymentCallback(payments PaymentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CallbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "validation failed", "details": err.Error()})
			return
		}

		xVerify := c.GetHeader("X-VERIFY")
		if xVerify == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "missing X-VERIFY header"})
			return
		}

		if err := payments.HandleCallback(c.Request.Context(), req.Response, xVerify); err != nil {
			switch e := err.(type) {
			case *errors.ErrUnauthorized:
				logger.Warn("Callback checksum mismatch")
				c.JSON(http.StatusUnauthorized, gin.H{"message": e.Message})
			case *errors.ErrValidation:
				c.JSON(http.StatusBadRequest, gin.H{"message": e.Error()})
			case *errors.ErrNotFound:
				c.JSON(http.StatusNotFound, gin.H{"message": e.Error()})
			default:
				logger.Error("Failed to process payment callback", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// HandlePaymentReturn handles GET /v1/payment/return, the browser's
// post-redirect reconciliation. Read-only with respect to settlement;
// it may trigger a bounded re-initiation but never marks an order paid.
func HandlePaymentReturn(payments PaymentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Query("order_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid order ID"})
			return
		}

		attempt, err := strconv.Atoi(c.DefaultQuery("attempt", "0"))
		if err != nil || attempt < 0 {
			attempt = 0
		}

		result, err := payments.Reconcile(c.Request.Context(), orderID, attempt)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"message": "order not found"})
				return
			}
			logger.Error("Failed to reconcile payment", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
			return
		}

		resp := gin.H{
			"order_id":       orderID.String(),
			"decision":       result.Decision,
			"payment_status": result.PaymentStatus,
			"attempt":        attempt,
		}
		if result.RedirectURL != "" {
			resp["redirect_url"] = result.RedirectURL
		}

		c.JSON(http.StatusOK, resp)
	}
}
