package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/shopapi/internal/domain"
	"github.com/jafarshop/shopapi/internal/gateway"
	"github.com/jafarshop/shopapi/internal/repository"
	"github.com/jafarshop/shopapi/pkg/errors"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

type fakeOrderRepo struct {
	orders    map[uuid.UUID]*domain.Order
	items     map[uuid.UUID][]*domain.OrderLineItem
	createErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[uuid.UUID]*domain.Order),
		items:  make(map[uuid.UUID][]*domain.OrderLineItem),
	}
}

func (f *fakeOrderRepo) Create(_ context.Context, order *domain.Order, items []*domain.OrderLineItem) error {
	if f.createErr != nil {
		return f.createErr
	}
	if len(items) == 0 {
		return &errors.ErrValidation{Field: "items", Message: "order must have at least one line item"}
	}
	if order.Customer.Phone == "" {
		return &errors.ErrValidation{Field: "phone", Message: "required"}
	}
	order.ID = uuid.New()
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	for _, item := range items {
		item.OrderID = order.ID
	}
	f.orders[order.ID] = order
	f.items[order.ID] = items
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderRepo) GetByMerchantTransactionID(_ context.Context, txnID string) (*domain.Order, error) {
	for _, order := range f.orders {
		if order.MerchantTransactionID != nil && *order.MerchantTransactionID == txnID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "order", ID: txnID}
}

func (f *fakeOrderRepo) UpdatePaymentStatus(_ context.Context, id uuid.UUID, expected, next domain.PaymentStatus, merchantTxnID *string) error {
	order, ok := f.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if order.PaymentStatus != expected {
		return &errors.ErrInvalidStateTransition{
			From: string(order.PaymentStatus),
			To:   string(next),
		}
	}
	order.PaymentStatus = next
	if merchantTxnID != nil {
		order.MerchantTransactionID = merchantTxnID
	}
	order.UpdatedAt = time.Now()
	return nil
}

func (f *fakeOrderRepo) UpdateOrderStatus(_ context.Context, id uuid.UUID, status domain.OrderStatus) error {
	order, ok := f.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	order.OrderStatus = status
	order.UpdatedAt = time.Now()
	return nil
}

func (f *fakeOrderRepo) List(_ context.Context, status *domain.OrderStatus, _, _ int) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, order := range f.orders {
		if status == nil || order.OrderStatus == *status {
			copied := *order
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeOrderItemRepo struct {
	orders *fakeOrderRepo
}

func (f *fakeOrderItemRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) ([]*domain.OrderLineItem, error) {
	return f.orders.items[orderID], nil
}

type fakeCouponRepo struct {
	coupons map[string]*domain.Coupon
}

func (f *fakeCouponRepo) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	coupon, ok := f.coupons[code]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "coupon", ID: code}
	}
	return coupon, nil
}

func (f *fakeCouponRepo) Create(_ context.Context, coupon *domain.Coupon) error {
	f.coupons[coupon.Code] = coupon
	return nil
}

type fakeProductRepo struct {
	products map[string]*domain.Product
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id}
	}
	return product, nil
}

type fakeEventRepo struct {
	events []*domain.OrderEvent
}

func (f *fakeEventRepo) Create(_ context.Context, event *domain.OrderEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEventRepo) ListByOrderID(_ context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error) {
	var out []*domain.OrderEvent
	for _, event := range f.events {
		if event.OrderID == orderID {
			out = append(out, event)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) types() []string {
	out := make([]string, len(f.events))
	for i, event := range f.events {
		out[i] = event.EventType
	}
	return out
}

type fakeGateway struct {
	calls       []gateway.InitiateParams
	redirectURL string
	err         error
	saltKey     string
}

func (f *fakeGateway) Initiate(_ context.Context, p gateway.InitiateParams) (string, error) {
	f.calls = append(f.calls, p)
	if f.err != nil {
		return "", f.err
	}
	return f.redirectURL, nil
}

func (f *fakeGateway) VerifyCallbackChecksum(encodedBody, xVerify string) bool {
	return gateway.VerifyCallback(encodedBody, f.saltKey, "1", xVerify)
}

type serviceFixture struct {
	repos    *repository.Repositories
	orders   *fakeOrderRepo
	coupons  *fakeCouponRepo
	products *fakeProductRepo
	events   *fakeEventRepo
	gateway  *fakeGateway
	payments *paymentService
	checkout *checkoutService
}

func newServiceFixture() *serviceFixture {
	orders := newFakeOrderRepo()
	coupons := &fakeCouponRepo{coupons: make(map[string]*domain.Coupon)}
	products := &fakeProductRepo{products: make(map[string]*domain.Product)}
	events := &fakeEventRepo{}
	gw := &fakeGateway{redirectURL: "https://pay.example.com/redirect/xyz", saltKey: "salt-key"}

	repos := &repository.Repositories{
		Order:      orders,
		OrderItem:  &fakeOrderItemRepo{orders: orders},
		Coupon:     coupons,
		Product:    products,
		OrderEvent: events,
	}

	logger := testLogger()
	payments := NewPaymentService(repos, gw, "https://shop.example.com", logger)
	checkout := NewCheckoutService(repos, payments, logger)

	return &serviceFixture{
		repos:    repos,
		orders:   orders,
		coupons:  coupons,
		products: products,
		events:   events,
		gateway:  gw,
		payments: payments,
		checkout: checkout,
	}
}
