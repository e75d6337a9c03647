package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jafarshop/shopapi/internal/domain"
)

// OrderRepository is the order persistence boundary. Payment status
// changes go through a compare-and-swap so two concurrent requests can
// never both move the same order forward.
type OrderRepository interface {
	// Create persists the order and its line items atomically,
	// assigning id and timestamps
	Create(ctx context.Context, order *domain.Order, items []*domain.OrderLineItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByMerchantTransactionID(ctx context.Context, txnID string) (*domain.Order, error)
	// UpdatePaymentStatus applies the transition only if the order's
	// current payment status equals expected. A non-nil merchantTxnID
	// replaces the stored transaction id in the same write.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, expected, next domain.PaymentStatus, merchantTxnID *string) error
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	List(ctx context.Context, status *domain.OrderStatus, limit, offset int) ([]*domain.Order, error)
}

// OrderItemRepository reads the line-item snapshots of an order
type OrderItemRepository interface {
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderLineItem, error)
}

// CouponRepository looks up and seeds coupons
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	Create(ctx context.Context, coupon *domain.Coupon) error
}

// ProductRepository reads authoritative catalog prices
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// OrderEventRepository appends to the order audit trail
type OrderEventRepository interface {
	Create(ctx context.Context, event *domain.OrderEvent) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error)
}

// Repositories aggregates all repositories
type Repositories struct {
	Order      OrderRepository
	OrderItem  OrderItemRepository
	Coupon     CouponRepository
	Product    ProductRepository
	OrderEvent OrderEventRepository
}
