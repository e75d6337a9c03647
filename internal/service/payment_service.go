package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/shopapi/internal/domain"
	"github.com/jafarshop/shopapi/internal/gateway"
	"github.com/jafarshop/shopapi/internal/repository"
	"github.com/jafarshop/shopapi/pkg/errors"
)

// maxReturnReinitiations bounds defensive re-triggers from the
// post-redirect return page so a stuck Initiated order cannot loop
// the user through the gateway forever
const maxReturnReinitiations = 2

// paymentGateway is the slice of the gateway client the payment
// service needs
type paymentGateway interface {
	Initiate(ctx context.Context, p gateway.InitiateParams) (string, error)
	VerifyCallbackChecksum(encodedBody, xVerify string) bool
}

// ReconcileDecision is the view the storefront should show after the
// gateway redirects the customer back
type ReconcileDecision string

const (
	DecisionConfirmed   ReconcileDecision = "CONFIRMED"
	DecisionFailed      ReconcileDecision = "FAILED"
	DecisionProcessing  ReconcileDecision = "PROCESSING"
	DecisionReinitiated ReconcileDecision = "REINITIATED"
)

// ReconcileResult carries the decision plus the redirect URL when a
// fresh initiation was triggered
type ReconcileResult struct {
	Decision      ReconcileDecision
	PaymentStatus domain.PaymentStatus
	RedirectURL   string
}

type paymentService struct {
	repos         *repository.Repositories
	gateway       paymentGateway
	publicBaseURL string
	now           func() time.Time
	logger        *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(repos *repository.Repositories, gw paymentGateway, publicBaseURL string, logger *zap.Logger) *paymentService {
	return &paymentService{
		repos:         repos,
		gateway:       gw,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		now:           time.Now,
		logger:        logger,
	}
}

// newMerchantTransactionID builds a per-attempt transaction id from the
// order id and a nanosecond timestamp. Two attempts for the same order
// can never share an id.
func newMerchantTransactionID(orderID uuid.UUID, now time.Time) string {
	short := strings.ReplaceAll(orderID.String(), "-", "")[:12]
	return fmt.Sprintf("TXN-%s-%d", short, now.UnixNano())
}

// InitiatePayment advances the order to Initiated with a fresh merchant
// transaction id, then calls the gateway. The status write lands before
// the outbound call so a crash or timeout still leaves an inspectable
// attempt on the order.
func (s *paymentService) InitiatePayment(ctx context.Context, order *domain.Order) (string, error) {
	if order.PaymentMethod != domain.PaymentMethodOnline {
		return "", &errors.ErrValidation{Field: "payment_method", Message: "order is not an online-gateway order"}
	}
	if !order.PaymentStatus.CanTransitionTo(domain.PaymentStatusInitiated) {
		return "", &errors.ErrInvalidStateTransition{
			From: string(order.PaymentStatus),
			To:   string(domain.PaymentStatusInitiated),
		}
	}

	txnID := newMerchantTransactionID(order.ID, s.now())

	// Compare-and-swap from the status this request observed. Two
	// concurrent tabs cannot both win this write.
	if err := s.repos.Order.UpdatePaymentStatus(ctx, order.ID, order.PaymentStatus, domain.PaymentStatusInitiated, &txnID); err != nil {
		return "", err
	}
	order.PaymentStatus = domain.PaymentStatusInitiated
	order.MerchantTransactionID = &txnID

	s.appendEvent(ctx, order.ID, "payment_initiated", map[string]interface{}{
		"merchant_transaction_id": txnID,
	})

	merchantUserID := order.UserID
	if merchantUserID == "" {
		merchantUserID = "guest-" + strings.ReplaceAll(order.ID.String(), "-", "")[:12]
	}

	redirectURL, err := s.gateway.Initiate(ctx, gateway.InitiateParams{
		MerchantTransactionID: txnID,
		MerchantUserID:        merchantUserID,
		AmountPaise:           int64(math.Round(order.FinalAmount * 100)),
		RedirectURL:           fmt.Sprintf("%s/v1/payment/return?order_id=%s", s.publicBaseURL, order.ID),
		CallbackURL:           s.publicBaseURL + "/v1/payment/callback",
		MobileNumber:          order.Customer.Phone,
	})
	if err != nil {
		// Order stays Initiated with its transaction id; a retry gets
		// a fresh id and the attempt remains auditable.
		s.appendEvent(ctx, order.ID, "payment_initiation_failed", map[string]interface{}{
			"merchant_transaction_id": txnID,
			"error":                   err.Error(),
		})
		return "", err
	}

	return redirectURL, nil
}

// Reconcile decides the post-redirect view from the order's current
// payment state. attempt counts this browser session's re-initiations;
// past the bound the user is parked on a processing view instead of
// being looped back to the gateway.
func (s *paymentService) Reconcile(ctx context.Context, orderID uuid.UUID, attempt int) (*ReconcileResult, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.PaymentStatus {
	case domain.PaymentStatusPaid, domain.PaymentStatusCODPending:
		return &ReconcileResult{Decision: DecisionConfirmed, PaymentStatus: order.PaymentStatus}, nil

	case domain.PaymentStatusFailed:
		return &ReconcileResult{Decision: DecisionFailed, PaymentStatus: order.PaymentStatus}, nil

	case domain.PaymentStatusPending, domain.PaymentStatusInitiated:
		if order.PaymentMethod != domain.PaymentMethodOnline {
			return &ReconcileResult{Decision: DecisionProcessing, PaymentStatus: order.PaymentStatus}, nil
		}
		if order.PaymentStatus == domain.PaymentStatusInitiated && attempt >= maxReturnReinitiations {
			return &ReconcileResult{Decision: DecisionProcessing, PaymentStatus: order.PaymentStatus}, nil
		}

		redirectURL, err := s.InitiatePayment(ctx, order)
		if err != nil {
			s.logger.Warn("Re-initiation during reconciliation failed",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
			return &ReconcileResult{Decision: DecisionProcessing, PaymentStatus: order.PaymentStatus}, nil
		}
		return &ReconcileResult{
			Decision:      DecisionReinitiated,
			PaymentStatus: domain.PaymentStatusInitiated,
			RedirectURL:   redirectURL,
		}, nil

	default:
		return nil, fmt.Errorf("order %s has unknown payment status %q", order.ID, order.PaymentStatus)
	}
}

type callbackPayload struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		Amount                int64  `json:"amount"`
		State                 string `json:"state"`
	} `json:"data"`
}

// HandleCallback applies the gateway's server-to-server outcome. This
// is the authoritative settlement path; the browser redirect only ever
// reads state.
func (s *paymentService) HandleCallback(ctx context.Context, encodedResponse, xVerify string) error {
	if !s.gateway.VerifyCallbackChecksum(encodedResponse, xVerify) {
		return &errors.ErrUnauthorized{Message: "callback checksum verification failed"}
	}

	raw, err := base64.StdEncoding.DecodeString(encodedResponse)
	if err != nil {
		return &errors.ErrValidation{Field: "response", Message: "not valid base64"}
	}

	var payload callbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return &errors.ErrValidation{Field: "response", Message: "not valid JSON"}
	}
	if payload.Data.MerchantTransactionID == "" {
		return &errors.ErrValidation{Field: "response", Message: "missing merchantTransactionId"}
	}

	order, err := s.repos.Order.GetByMerchantTransactionID(ctx, payload.Data.MerchantTransactionID)
	if err != nil {
		return err
	}

	next := domain.PaymentStatusFailed
	if payload.Success && payload.Code == "PAYMENT_SUCCESS" {
		next = domain.PaymentStatusPaid
	}

	if err := s.repos.Order.UpdatePaymentStatus(ctx, order.ID, domain.PaymentStatusInitiated, next, nil); err != nil {
		// A duplicate callback for an already-settled attempt is not
		// an error worth failing the gateway's delivery over.
		if _, ok := err.(*errors.ErrInvalidStateTransition); ok && order.PaymentStatus == next {
			return nil
		}
		return err
	}

	s.appendEvent(ctx, order.ID, "payment_settled", map[string]interface{}{
		"merchant_transaction_id": payload.Data.MerchantTransactionID,
		"gateway_transaction_id":  payload.Data.TransactionID,
		"code":                    payload.Code,
		"payment_status":          next,
	})

	return nil
}

func (s *paymentService) appendEvent(ctx context.Context, orderID uuid.UUID, eventType string, data map[string]interface{}) {
	event := &domain.OrderEvent{
		OrderID:   orderID,
		EventType: eventType,
		EventData: data,
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to append order event",
			zap.String("order_id", orderID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
