package domain

import (
	"time"

	"github.com/google/uuid"
)

// CustomerDetails is the customer snapshot copied onto an order at
// creation time. Immutable afterward.
type CustomerDetails struct {
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	State      *string `json:"state,omitempty"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// Order represents a placed storefront order
type Order struct {
	ID                    uuid.UUID
	UserID                string
	CustomerEmail         string
	Customer              CustomerDetails // JSONB
	SubtotalAmount        float64
	DiscountAmount        float64
	FinalAmount           float64
	CouponCode            *string
	PaymentMethod         PaymentMethod
	OrderStatus           OrderStatus
	PaymentStatus         PaymentStatus
	MerchantTransactionID *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// OrderLineItem is a point-in-time price snapshot of one cart line.
// Prices are never recomputed from the live catalog after creation.
type OrderLineItem struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	ProductID       string
	Title           string
	Quantity        int
	PriceAtPurchase float64
	SelectedColor   *string
	SelectedSize    *string
	ImageRef        *string
	CreatedAt       time.Time
}

// Coupon is a named discount rule
type Coupon struct {
	ID          uuid.UUID
	Code        string
	Type        CouponType
	Value       float64
	MinPurchase float64
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CartItem is one transient checkout line. Consumed once at checkout,
// turned into an OrderLineItem snapshot.
type CartItem struct {
	ProductID       string
	Quantity        int
	UnitPrice       float64
	DiscountPercent float64
	SelectedColor   *string
	SelectedSize    *string
}

// Cart is the transient checkout cart
type Cart []CartItem

// Product is a catalog record, the authoritative source of unit prices
type Product struct {
	ID              string
	Title           string
	Price           float64
	DiscountPercent float64
	ImageURL        *string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderEvent represents an audit event for an order
type OrderEvent struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	EventType string
	EventData map[string]interface{} // JSONB
	CreatedAt time.Time
}
