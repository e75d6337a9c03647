package domain

// CouponType selects how a coupon's value is applied
type CouponType string

const (
	CouponTypePercentage CouponType = "PERCENTAGE"
	CouponTypeFixed      CouponType = "FIXED"
)

// IsValid checks if the coupon type is valid
func (t CouponType) IsValid() bool {
	return t == CouponTypePercentage || t == CouponTypeFixed
}

// PaymentMethod selects how an order is settled
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMethodOnline PaymentMethod = "ONLINE_GATEWAY"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodOnline
}

// OrderStatus represents the fulfillment-side lifecycle of an order,
// independent of payment status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a fulfillment status transition is valid
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return newStatus == OrderStatusProcessing ||
			newStatus == OrderStatusCancelled
	case OrderStatusProcessing:
		return newStatus == OrderStatusShipped ||
			newStatus == OrderStatusCancelled
	case OrderStatusShipped:
		return newStatus == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusCancelled:
		return false // Terminal states
	default:
		return false
	}
}

// PaymentStatus represents the gateway-settlement-side state of an order.
// COD orders settle at delivery confirmation, never through the gateway.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusInitiated  PaymentStatus = "INITIATED"
	PaymentStatusPaid       PaymentStatus = "PAID"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusCODPending PaymentStatus = "COD_PENDING"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending,
		PaymentStatusInitiated,
		PaymentStatusPaid,
		PaymentStatusFailed,
		PaymentStatusCODPending:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a payment status transition is valid.
// Initiated may re-enter Initiated: each retry carries a fresh merchant
// transaction id. Paid is terminal. Failed only re-enters via a retry.
func (s PaymentStatus) CanTransitionTo(newStatus PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return newStatus == PaymentStatusInitiated
	case PaymentStatusInitiated:
		return newStatus == PaymentStatusPaid ||
			newStatus == PaymentStatusFailed ||
			newStatus == PaymentStatusInitiated
	case PaymentStatusFailed:
		return newStatus == PaymentStatusInitiated
	case PaymentStatusCODPending:
		// Settled when delivery is confirmed
		return newStatus == PaymentStatusPaid
	case PaymentStatusPaid:
		return false // Terminal
	default:
		return false
	}
}
