package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/shopapi/internal/domain"
	"github.com/jafarshop/shopapi/internal/repository"
	"github.com/jafarshop/shopapi/pkg/errors"
)

// OrderResponse represents the order response
type OrderResponse struct {
	ID                    string                 `json:"id"`
	UserID                string                 `json:"user_id,omitempty"`
	CustomerEmail         string                 `json:"customer_email"`
	Customer              domain.CustomerDetails `json:"customer"`
	SubtotalAmount        float64                `json:"subtotal_amount"`
	DiscountAmount        float64                `json:"discount_amount"`
	FinalAmount           float64                `json:"final_amount"`
	CouponCode            *string                `json:"coupon_code,omitempty"`
	PaymentMethod         domain.PaymentMethod   `json:"payment_method"`
	OrderStatus           domain.OrderStatus     `json:"order_status"`
	PaymentStatus         domain.PaymentStatus   `json:"payment_status"`
	MerchantTransactionID *string                `json:"merchant_transaction_id,omitempty"`
	Items                 []OrderItemResponse    `json:"items"`
	CreatedAt             string                 `json:"created_at"`
	UpdatedAt             string                 `json:"updated_at"`
}

type OrderItemResponse struct {
	ProductID       string  `json:"product_id"`
	Title           string  `json:"title"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
	SelectedColor   *string `json:"selected_color,omitempty"`
	SelectedSize    *string `json:"selected_size,omitempty"`
	ImageRef        *string `json:"image_ref,omitempty"`
}

// HandleGetOrder handles GET /v1/orders/:id
func HandleGetOrder(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderIDStr := c.Param("id")
		orderID, err := uuid.Parse(orderIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		order, err := repos.Order.GetByID(c.Request.Context(), orderID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			logger.Error("Failed to get order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		items, err := repos.OrderItem.GetByOrderID(c.Request.Context(), orderID)
		if err != nil {
			logger.Error("Failed to get order items", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		itemResponses := make([]OrderItemResponse, len(items))
		for i, item := range items {
			itemResponses[i] = OrderItemResponse{
				ProductID:       item.ProductID,
				Title:           item.Title,
				Quantity:        item.Quantity,
				PriceAtPurchase: item.PriceAtPurchase,
				SelectedColor:   item.SelectedColor,
				SelectedSize:    item.SelectedSize,
				ImageRef:        item.ImageRef,
			}
		}

		c.JSON(http.StatusOK, OrderResponse{
			ID:                    order.ID.String(),
			UserID:                order.UserID,
			CustomerEmail:         order.CustomerEmail,
			Customer:              order.Customer,
			SubtotalAmount:        order.SubtotalAmount,
			DiscountAmount:        order.DiscountAmount,
			FinalAmount:           order.FinalAmount,
			CouponCode:            order.CouponCode,
			PaymentMethod:         order.PaymentMethod,
			OrderStatus:           order.OrderStatus,
			PaymentStatus:         order.PaymentStatus,
			MerchantTransactionID: order.MerchantTransactionID,
			Items:                 itemResponses,
			CreatedAt:             order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			UpdatedAt:             order.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
}
