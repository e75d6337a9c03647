package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jafarshop/shopapi/internal/domain"
	"github.com/jafarshop/shopapi/internal/pricing"
	"github.com/jafarshop/shopapi/internal/repository"
	"github.com/jafarshop/shopapi/pkg/errors"
)

type checkoutService struct {
	repos    *repository.Repositories
	payments *paymentService
	logger   *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(repos *repository.Repositories, payments *paymentService, logger *zap.Logger) *checkoutService {
	return &checkoutService{
		repos:    repos,
		payments: payments,
		logger:   logger,
	}
}

// Checkout turns a cart submission into a persisted order and, for
// online payment, hands it to the gateway. The order is durable before
// any gateway call; a gateway failure returns both the persisted result
// and the error so the caller can offer a retry against the same order.
func (s *checkoutService) Checkout(ctx context.Context, userID string, req CheckoutRequest) (*CheckoutResult, error) {
	if len(req.Items) == 0 {
		return nil, &errors.ErrValidation{Field: "items", Message: "cart is empty"}
	}

	method := domain.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return nil, &errors.ErrValidation{Field: "payment_method", Message: "must be CASH_ON_DELIVERY or ONLINE_GATEWAY"}
	}

	// Re-price every line from the catalog. Client-sent prices are
	// never trusted.
	cart := make(domain.Cart, 0, len(req.Items))
	lineItems := make([]*domain.OrderLineItem, 0, len(req.Items))
	for _, reqItem := range req.Items {
		if reqItem.Quantity < 1 {
			return nil, &errors.ErrValidation{Field: "quantity", Message: "must be at least 1"}
		}

		product, err := s.repos.Product.GetByID(ctx, reqItem.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, &errors.ErrValidation{Field: "product_id", Message: "product " + product.ID + " is no longer available"}
		}

		cartItem := domain.CartItem{
			ProductID:       product.ID,
			Quantity:        reqItem.Quantity,
			UnitPrice:       product.Price,
			DiscountPercent: product.DiscountPercent,
			SelectedColor:   reqItem.SelectedColor,
			SelectedSize:    reqItem.SelectedSize,
		}
		cart = append(cart, cartItem)

		lineItems = append(lineItems, &domain.OrderLineItem{
			ProductID:       product.ID,
			Title:           product.Title,
			Quantity:        reqItem.Quantity,
			PriceAtPurchase: pricing.EffectiveUnitPrice(cartItem),
			SelectedColor:   reqItem.SelectedColor,
			SelectedSize:    reqItem.SelectedSize,
			ImageRef:        product.ImageURL,
		})
	}

	subtotal := pricing.Subtotal(cart)

	var discount float64
	var couponCode *string
	if req.CouponCode != nil && *req.CouponCode != "" {
		coupon, err := s.repos.Coupon.GetByCode(ctx, *req.CouponCode)
		if err != nil {
			return nil, err
		}
		discount, err = pricing.ValidateCoupon(coupon, subtotal, s.payments.now())
		if err != nil {
			return nil, err
		}
		couponCode = &coupon.Code
	}

	paymentStatus := domain.PaymentStatusPending
	if method == domain.PaymentMethodCOD {
		// Placed and collected are separate events: COD settles at
		// delivery confirmation, not at order creation.
		paymentStatus = domain.PaymentStatusCODPending
	}

	order := &domain.Order{
		UserID:        userID,
		CustomerEmail: req.Customer.Email,
		Customer: domain.CustomerDetails{
			Name:       req.Customer.Name,
			Phone:      req.Customer.Phone,
			Address:    req.Customer.Address,
			City:       req.Customer.City,
			State:      req.Customer.State,
			PostalCode: req.Customer.PostalCode,
			Country:    req.Customer.Country,
		},
		SubtotalAmount: subtotal,
		DiscountAmount: discount,
		FinalAmount:    subtotal - discount,
		CouponCode:     couponCode,
		PaymentMethod:  method,
		OrderStatus:    domain.OrderStatusPending,
		PaymentStatus:  paymentStatus,
	}

	if err := s.repos.Order.Create(ctx, order, lineItems); err != nil {
		return nil, err
	}

	event := &domain.OrderEvent{
		OrderID:   order.ID,
		EventType: "order_created",
		EventData: map[string]interface{}{
			"payment_method": order.PaymentMethod,
			"payment_status": order.PaymentStatus,
			"final_amount":   order.FinalAmount,
		},
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to record order creation event", zap.Error(err))
	}

	result := &CheckoutResult{
		OrderID:        order.ID.String(),
		PaymentStatus:  string(order.PaymentStatus),
		SubtotalAmount: order.SubtotalAmount,
		DiscountAmount: order.DiscountAmount,
		FinalAmount:    order.FinalAmount,
	}

	if method == domain.PaymentMethodCOD {
		return result, nil
	}

	redirectURL, err := s.payments.InitiatePayment(ctx, order)
	if err != nil {
		// The order stays persisted and recoverable; the caller gets
		// the error plus the order id to retry against.
		s.logger.Error("Payment initiation failed after order creation",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		result.PaymentStatus = string(order.PaymentStatus)
		return result, err
	}

	result.PaymentStatus = string(domain.PaymentStatusInitiated)
	result.RedirectURL = redirectURL
	return result, nil
}
