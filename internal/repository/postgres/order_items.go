package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/shopapi/internal/domain"
)

type orderItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderItemRepository creates a new order item repository
func NewOrderItemRepository(db *sql.DB, logger *zap.Logger) *orderItemRepository {
	return &orderItemRepository{
		db:     db,
		logger: logger,
	}
}

func (r *orderItemRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderLineItem, error) {
	query := `
		SELECT id, order_id, product_id, title, quantity, price_at_purchase,
			selected_color, selected_size, image_ref, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to get order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []*domain.OrderLineItem
	for rows.Next() {
		var item domain.OrderLineItem
		var color, size, imageRef sql.NullString

		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Title,
			&item.Quantity,
			&item.PriceAtPurchase,
			&color,
			&size,
			&imageRef,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if color.Valid {
			item.SelectedColor = &color.String
		}
		if size.Valid {
			item.SelectedSize = &size.String
		}
		if imageRef.Valid {
			item.ImageRef = &imageRef.String
		}

		items = append(items, &item)
	}

	return items, rows.Err()
}
