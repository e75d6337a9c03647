package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/shopapi/internal/domain"
	"github.com/jafarshop/shopapi/pkg/errors"
)

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `id, user_id, customer_email, customer_details,
	subtotal_amount, discount_amount, final_amount, coupon_code,
	payment_method, order_status, payment_status, merchant_transaction_id,
	created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order, items []*domain.OrderLineItem) error {
	if err := validateOrderDraft(order, items); err != nil {
		return err
	}

	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	customerJSON, err := json.Marshal(order.Customer)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (id, user_id, customer_email, customer_details,
			subtotal_amount, discount_amount, final_amount, coupon_code,
			payment_method, order_status, payment_status, merchant_transaction_id,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = tx.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		order.CustomerEmail,
		customerJSON,
		order.SubtotalAmount,
		order.DiscountAmount,
		order.FinalAmount,
		order.CouponCode,
		order.PaymentMethod,
		order.OrderStatus,
		order.PaymentStatus,
		order.MerchantTransactionID,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create order", zap.Error(err))
		return err
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, title, quantity,
			price_at_purchase, selected_color, selected_size, image_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		item.CreatedAt = now

		_, err = tx.ExecContext(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Title,
			item.Quantity,
			item.PriceAtPurchase,
			item.SelectedColor,
			item.SelectedSize,
			item.ImageRef,
			item.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create order item", zap.Error(err))
			return err
		}
	}

	return tx.Commit()
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order by ID", zap.Error(err))
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) GetByMerchantTransactionID(ctx context.Context, txnID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE merchant_transaction_id = $1`

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, txnID))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: txnID}
	}
	if err != nil {
		r.logger.Error("Failed to get order by transaction ID", zap.Error(err))
		return nil, err
	}

	return order, nil
}

// UpdatePaymentStatus is a compare-and-swap: the write only lands when
// the stored payment status still equals expected. Zero rows affected
// means a concurrent request won the race or the caller's view is stale.
func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, expected, next domain.PaymentStatus, merchantTxnID *string) error {
	query := `
		UPDATE orders
		SET payment_status = $3,
		    merchant_transaction_id = COALESCE($4, merchant_transaction_id),
		    updated_at = $5
		WHERE id = $1 AND payment_status = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, expected, next, merchantTxnID, time.Now())
	if err != nil {
		r.logger.Error("Failed to update payment status", zap.Error(err))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		current, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		return &errors.ErrInvalidStateTransition{
			From: string(current.PaymentStatus),
			To:   string(next),
		}
	}

	return nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	query := `
		UPDATE orders
		SET order_status = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order status", zap.Error(err))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	return nil
}

func (r *orderRepository) List(ctx context.Context, status *domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []interface{}{}

	if status != nil {
		query += ` WHERE order_status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, *status, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *orderRepository) scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var customerJSON []byte
	var couponCode sql.NullString
	var merchantTxnID sql.NullString

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.CustomerEmail,
		&customerJSON,
		&order.SubtotalAmount,
		&order.DiscountAmount,
		&order.FinalAmount,
		&couponCode,
		&order.PaymentMethod,
		&order.OrderStatus,
		&order.PaymentStatus,
		&merchantTxnID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(customerJSON, &order.Customer); err != nil {
		return nil, err
	}
	if couponCode.Valid {
		order.CouponCode = &couponCode.String
	}
	if merchantTxnID.Valid {
		order.MerchantTransactionID = &merchantTxnID.String
	}

	return &order, nil
}

func validateOrderDraft(order *domain.Order, items []*domain.OrderLineItem) error {
	if len(items) == 0 {
		return &errors.ErrValidation{Field: "items", Message: "order must have at least one line item"}
	}
	if order.CustomerEmail == "" {
		return &errors.ErrValidation{Field: "customer_email", Message: "required"}
	}

	required := map[string]string{
		"name":        order.Customer.Name,
		"phone":       order.Customer.Phone,
		"address":     order.Customer.Address,
		"city":        order.Customer.City,
		"postal_code": order.Customer.PostalCode,
		"country":     order.Customer.Country,
	}
	for field, value := range required {
		if value == "" {
			return &errors.ErrValidation{Field: field, Message: "required"}
		}
	}

	return nil
}
