package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/shopapi/internal/domain"
	"github.com/jafarshop/shopapi/internal/gateway"
	"github.com/jafarshop/shopapi/pkg/errors"
)

func seedOnlineOrder(f *serviceFixture, status domain.PaymentStatus) *domain.Order {
	order := &domain.Order{
		ID:            uuid.New(),
		UserID:        "user-1",
		CustomerEmail: "asma@example.com",
		Customer: domain.CustomerDetails{
			Name: "Asma", Phone: "9999999999", Address: "12 Market Road",
			City: "Amman", PostalCode: "11110", Country: "JO",
		},
		SubtotalAmount: 900,
		FinalAmount:    900,
		PaymentMethod:  domain.PaymentMethodOnline,
		OrderStatus:    domain.OrderStatusPending,
		PaymentStatus:  status,
	}
	f.orders.orders[order.ID] = order
	return order
}

func TestInitiatePaymentTransactionIDsNeverRepeat(t *testing.T) {
	f := newServiceFixture()
	order := seedOnlineOrder(f, domain.PaymentStatusPending)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.payments.now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}

	_, err := f.payments.InitiatePayment(context.Background(), order)
	require.NoError(t, err)
	first := *order.MerchantTransactionID

	// Second attempt for the same order (Initiated -> Initiated)
	_, err = f.payments.InitiatePayment(context.Background(), order)
	require.NoError(t, err)
	second := *order.MerchantTransactionID

	assert.NotEqual(t, first, second)
	require.Len(t, f.gateway.calls, 2)
	assert.NotEqual(t, f.gateway.calls[0].MerchantTransactionID, f.gateway.calls[1].MerchantTransactionID)
}

func TestInitiatePaymentWritesStatusBeforeGatewayCall(t *testing.T) {
	f := newServiceFixture()
	order := seedOnlineOrder(f, domain.PaymentStatusPending)
	f.gateway.err = &errors.ErrGateway{Code: "TIMED_OUT", Message: "gateway timeout"}

	_, err := f.payments.InitiatePayment(context.Background(), order)
	require.Error(t, err)

	// The attempt is recorded even though the outbound call failed
	stored := f.orders.orders[order.ID]
	assert.Equal(t, domain.PaymentStatusInitiated, stored.PaymentStatus)
	assert.NotNil(t, stored.MerchantTransactionID)
}

func TestInitiatePaymentRejectsCODOrder(t *testing.T) {
	f := newServiceFixture()
	order := seedOnlineOrder(f, domain.PaymentStatusCODPending)
	order.PaymentMethod = domain.PaymentMethodCOD

	_, err := f.payments.InitiatePayment(context.Background(), order)
	var valErr *errors.ErrValidation
	require.ErrorAs(t, err, &valErr)
	assert.Empty(t, f.gateway.calls)
}

func TestInitiatePaymentRejectsPaidOrder(t *testing.T) {
	f := newServiceFixture()
	order := seedOnlineOrder(f, domain.PaymentStatusPaid)

	_, err := f.payments.InitiatePayment(context.Background(), order)
	var stateErr *errors.ErrInvalidStateTransition
	require.ErrorAs(t, err, &stateErr)
	assert.Empty(t, f.gateway.calls)
}

func TestInitiatePaymentLosesRaceToConcurrentRequest(t *testing.T) {
	f := newServiceFixture()
	order := seedOnlineOrder(f, domain.PaymentStatusPending)

	// Another tab settled the order between this request's read and write
	stale := *order
	f.orders.orders[order.ID].PaymentStatus = domain.PaymentStatusPaid

	_, err := f.payments.InitiatePayment(context.Background(), &stale)
	var stateErr *errors.ErrInvalidStateTransition
	require.ErrorAs(t, err, &stateErr)
	assert.Empty(t, f.gateway.calls)
}

func TestReconcileDecisions(t *testing.T) {
	t.Run("paid order confirms", func(t *testing.T) {
		f := newServiceFixture()
		order := seedOnlineOrder(f, domain.PaymentStatusPaid)

		result, err := f.payments.Reconcile(context.Background(), order.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, DecisionConfirmed, result.Decision)
		assert.Empty(t, f.gateway.calls)
	})

	t.Run("failed order offers retry view", func(t *testing.T) {
		f := newServiceFixture()
		order := seedOnlineOrder(f, domain.PaymentStatusFailed)

		result, err := f.payments.Reconcile(context.Background(), order.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, DecisionFailed, result.Decision)
		assert.Empty(t, f.gateway.calls)
	})

	t.Run("pending order triggers first initiation", func(t *testing.T) {
		f := newServiceFixture()
		order := seedOnlineOrder(f, domain.PaymentStatusPending)

		result, err := f.payments.Reconcile(context.Background(), order.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, DecisionReinitiated, result.Decision)
		assert.Equal(t, "https://pay.example.com/redirect/xyz", result.RedirectURL)
		assert.Len(t, f.gateway.calls, 1)
	})

	t.Run("initiated order re-triggers within the bound", func(t *testing.T) {
		f := newServiceFixture()
		order := seedOnlineOrder(f, domain.PaymentStatusInitiated)

		result, err := f.payments.Reconcile(context.Background(), order.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, DecisionReinitiated, result.Decision)
		assert.Len(t, f.gateway.calls, 1)
	})

	t.Run("initiated order past the bound parks on processing", func(t *testing.T) {
		f := newServiceFixture()
		order := seedOnlineOrder(f, domain.PaymentStatusInitiated)

		result, err := f.payments.Reconcile(context.Background(), order.ID, maxReturnReinitiations)
		require.NoError(t, err)
		assert.Equal(t, DecisionProcessing, result.Decision)
		assert.Empty(t, f.gateway.calls)
	})

	t.Run("re-initiation failure degrades to processing", func(t *testing.T) {
		f := newServiceFixture()
		order := seedOnlineOrder(f, domain.PaymentStatusPending)
		f.gateway.err = &errors.ErrGateway{Code: "DOWN", Message: "unavailable"}

		result, err := f.payments.Reconcile(context.Background(), order.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, DecisionProcessing, result.Decision)
	})

	t.Run("cod order confirms without gateway", func(t *testing.T) {
		f := newServiceFixture()
		order := seedOnlineOrder(f, domain.PaymentStatusCODPending)
		order.PaymentMethod = domain.PaymentMethodCOD

		result, err := f.payments.Reconcile(context.Background(), order.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, DecisionConfirmed, result.Decision)
		assert.Empty(t, f.gateway.calls)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.payments.Reconcile(context.Background(), uuid.New(), 0)
		var notFound *errors.ErrNotFound
		require.ErrorAs(t, err, &notFound)
	})
}

func encodeCallback(t *testing.T, saltKey string, payload map[string]interface{}) (string, string) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	encoded := base64.StdEncoding.EncodeToString(raw)
	return encoded, gateway.Checksum(encoded, saltKey, "1")
}

func TestHandleCallbackSuccess(t *testing.T) {
	f := newServiceFixture()
	order := seedOnlineOrder(f, domain.PaymentStatusInitiated)
	txnID := "TXN-abc-1"
	order.MerchantTransactionID = &txnID

	encoded, xVerify := encodeCallback(t, "salt-key", map[string]interface{}{
		"success": true,
		"code":    "PAYMENT_SUCCESS",
		"data": map[string]interface{}{
			"merchantTransactionId": txnID,
			"transactionId":         "GW-555",
			"amount":                90000,
		},
	})

	require.NoError(t, f.payments.HandleCallback(context.Background(), encoded, xVerify))
	assert.Equal(t, domain.PaymentStatusPaid, f.orders.orders[order.ID].PaymentStatus)
	assert.Contains(t, f.events.types(), "payment_settled")
}

func TestHandleCallbackFailure(t *testing.T) {
	f := newServiceFixture()
	order := seedOnlineOrder(f, domain.PaymentStatusInitiated)
	txnID := "TXN-abc-2"
	order.MerchantTransactionID = &txnID

	encoded, xVerify := encodeCallback(t, "salt-key", map[string]interface{}{
		"success": false,
		"code":    "PAYMENT_ERROR",
		"data":    map[string]interface{}{"merchantTransactionId": txnID},
	})

	require.NoError(t, f.payments.HandleCallback(context.Background(), encoded, xVerify))
	assert.Equal(t, domain.PaymentStatusFailed, f.orders.orders[order.ID].PaymentStatus)
}

func TestHandleCallbackBadChecksum(t *testing.T) {
	f := newServiceFixture()
	order := seedOnlineOrder(f, domain.PaymentStatusInitiated)
	txnID := "TXN-abc-3"
	order.MerchantTransactionID = &txnID

	encoded, _ := encodeCallback(t, "salt-key", map[string]interface{}{
		"success": true,
		"code":    "PAYMENT_SUCCESS",
		"data":    map[string]interface{}{"merchantTransactionId": txnID},
	})

	err := f.payments.HandleCallback(context.Background(), encoded, "forged###1")
	var unauth *errors.ErrUnauthorized
	require.ErrorAs(t, err, &unauth)
	// Status untouched
	assert.Equal(t, domain.PaymentStatusInitiated, f.orders.orders[order.ID].PaymentStatus)
}

func TestHandleCallbackDuplicateDelivery(t *testing.T) {
	f := newServiceFixture()
	order := seedOnlineOrder(f, domain.PaymentStatusPaid)
	txnID := "TXN-abc-4"
	order.MerchantTransactionID = &txnID

	encoded, xVerify := encodeCallback(t, "salt-key", map[string]interface{}{
		"success": true,
		"code":    "PAYMENT_SUCCESS",
		"data":    map[string]interface{}{"merchantTransactionId": txnID},
	})

	// A re-delivered success callback for an already-paid order is acked
	require.NoError(t, f.payments.HandleCallback(context.Background(), encoded, xVerify))
	assert.Equal(t, domain.PaymentStatusPaid, f.orders.orders[order.ID].PaymentStatus)
}

func TestHandleCallbackUnknownTransaction(t *testing.T) {
	f := newServiceFixture()

	encoded, xVerify := encodeCallback(t, "salt-key", map[string]interface{}{
		"success": true,
		"code":    "PAYMENT_SUCCESS",
		"data":    map[string]interface{}{"merchantTransactionId": "TXN-ghost"},
	})

	err := f.payments.HandleCallback(context.Background(), encoded, xVerify)
	var notFound *errors.ErrNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestNewMerchantTransactionIDFormat(t *testing.T) {
	orderID := uuid.New()
	now := time.Now()

	id := newMerchantTransactionID(orderID, now)

	parts := strings.Split(id, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "TXN", parts[0])
	assert.Len(t, parts[1], 12)
	assert.Equal(t, fmt.Sprintf("%d", now.UnixNano()), parts[2])
	assert.True(t, strings.HasPrefix(orderID.String(), parts[1][:8]))
}
