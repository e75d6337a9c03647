package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/jafarshop/shopapi/internal/domain"
	"github.com/jafarshop/shopapi/internal/gateway"
	"github.com/jafarshop/shopapi/internal/service"
)

// CheckoutService runs the checkout use case
type CheckoutService interface {
	Checkout(ctx context.Context, userID string, req service.CheckoutRequest) (*service.CheckoutResult, error)
}

// PaymentService drives payment initiation and reconciliation
type PaymentService interface {
	InitiatePayment(ctx context.Context, order *domain.Order) (string, error)
	Reconcile(ctx context.Context, orderID uuid.UUID, attempt int) (*service.ReconcileResult, error)
	HandleCallback(ctx context.Context, encodedResponse, xVerify string) error
}

// FulfillmentService advances the fulfillment lifecycle
type FulfillmentService interface {
	AdvanceStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus) (*domain.Order, error)
}

// AuthTokenProvider exchanges merchant credentials for a gateway token
type AuthTokenProvider interface {
	GetAccessToken(ctx context.Context) (*gateway.AccessToken, error)
}
