package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/shopapi/internal/domain"
	"github.com/jafarshop/shopapi/internal/repository"
	"github.com/jafarshop/shopapi/pkg/errors"
)

type fulfillmentService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewFulfillmentService creates a new fulfillment service
func NewFulfillmentService(repos *repository.Repositories, logger *zap.Logger) *fulfillmentService {
	return &fulfillmentService{
		repos:  repos,
		logger: logger,
	}
}

// AdvanceStatus moves an order along the fulfillment lifecycle.
// Delivery confirmation of a cash-on-delivery order is the moment its
// payment settles.
func (s *fulfillmentService) AdvanceStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus) (*domain.Order, error) {
	if !next.IsValid() {
		return nil, &errors.ErrValidation{Field: "status", Message: "unknown order status"}
	}

	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.OrderStatus.CanTransitionTo(next) {
		return nil, &errors.ErrInvalidStateTransition{
			From: string(order.OrderStatus),
			To:   string(next),
		}
	}

	if err := s.repos.Order.UpdateOrderStatus(ctx, orderID, next); err != nil {
		return nil, err
	}

	event := &domain.OrderEvent{
		OrderID:   orderID,
		EventType: "status_change",
		EventData: map[string]interface{}{
			"from": order.OrderStatus,
			"to":   next,
		},
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to record status change event", zap.Error(err))
	}

	if next == domain.OrderStatusDelivered && order.PaymentStatus == domain.PaymentStatusCODPending {
		if err := s.repos.Order.UpdatePaymentStatus(ctx, orderID, domain.PaymentStatusCODPending, domain.PaymentStatusPaid, nil); err != nil {
			s.logger.Error("Failed to settle COD payment on delivery",
				zap.String("order_id", orderID.String()),
				zap.Error(err),
			)
			return nil, err
		}
		order.PaymentStatus = domain.PaymentStatusPaid

		event := &domain.OrderEvent{
			OrderID:   orderID,
			EventType: "payment_settled",
			EventData: map[string]interface{}{
				"payment_status": domain.PaymentStatusPaid,
				"settled_by":     "delivery_confirmation",
			},
		}
		if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
			s.logger.Warn("Failed to record COD settlement event", zap.Error(err))
		}
	}

	order.OrderStatus = next
	return order, nil
}
