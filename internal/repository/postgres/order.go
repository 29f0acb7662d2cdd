package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/BookstoreGo/internal/domain"
	"github.com/utafrali/BookstoreGo/internal/repository"
	"github.com/utafrali/BookstoreGo/pkg/database"
	apperrors "github.com/utafrali/BookstoreGo/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, user_id, status, payment_status, payment_method,
	shipping_address, coupon_code, subtotal, tax, shipping_cost, discount,
	total, tracking_number, estimated_delivery, delivered_at, created_at, updated_at`

// Create inserts the order, its items, and the matching stock decrements in
// a single transaction. Each decrement is conditional: it only matches when
// the book is active and has enough stock, so two concurrent orders can
// never drive stock negative. Any failed item rolls back the whole order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	decrementQuery := `
		UPDATE books
		SET stock = stock - $1, updated_at = $2
		WHERE id = $3 AND is_active = TRUE AND stock >= $1`

	now := time.Now().UTC()
	for _, item := range o.Items {
		ct, err := tx.Exec(ctx, decrementQuery, item.Quantity, now, item.BookID)
		if err != nil {
			return fmt.Errorf("decrement stock for book %s: %w", item.BookID, err)
		}
		if ct.RowsAffected() == 0 {
			// Distinguish a vanished book from an out-of-stock one.
			var stock int
			err := tx.QueryRow(ctx,
				"SELECT stock FROM books WHERE id = $1 AND is_active = TRUE",
				item.BookID,
			).Scan(&stock)
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("book", item.BookID)
			}
			if err != nil {
				return fmt.Errorf("check stock for book %s: %w", item.BookID, err)
			}
			return apperrors.InsufficientStock(item.BookID)
		}
	}

	shippingJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	orderQuery := `
		INSERT INTO orders (id, user_id, status, payment_status, payment_method,
			shipping_address, coupon_code, subtotal, tax, shipping_cost, discount,
			total, tracking_number, estimated_delivery, delivered_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID, o.UserID, o.Status, o.PaymentStatus, o.PaymentMethod,
		shippingJSON, o.CouponCode, o.Subtotal, o.Tax, o.ShippingCost,
		o.Discount, o.Total, o.TrackingNumber, o.EstimatedDelivery,
		o.DeliveredAt, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, book_id, title, author, cover_image, price, quantity, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for i, item := range o.Items {
		_, err = tx.Exec(ctx, itemQuery,
			item.ID, item.OrderID, item.BookID, item.Title, item.Author,
			item.CoverImage, item.Price, item.Quantity, i,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an order by ID, eagerly loading its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE id = $1", orderColumns)

	var (
		o            domain.Order
		shippingJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&shippingJSON, &o.CouponCode, &o.Subtotal, &o.Tax, &o.ShippingCost,
		&o.Discount, &o.Total, &o.TrackingNumber, &o.EstimatedDelivery,
		&o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if len(shippingJSON) > 0 {
		if err := json.Unmarshal(shippingJSON, &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("unmarshal shipping address: %w", err)
		}
	}

	items, err := r.loadItems(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}

	return &o, nil
}

// List returns orders matching the filter with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.PaymentStatus != nil {
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", argIndex))
		args = append(args, *filter.PaymentStatus)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var (
			o            domain.Order
			shippingJSON []byte
		)
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
			&shippingJSON, &o.CouponCode, &o.Subtotal, &o.Tax, &o.ShippingCost,
			&o.Discount, &o.Total, &o.TrackingNumber, &o.EstimatedDelivery,
			&o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}

		if len(shippingJSON) > 0 {
			if err := json.Unmarshal(shippingJSON, &o.ShippingAddress); err != nil {
				return nil, 0, fmt.Errorf("unmarshal shipping address: %w", err)
			}
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	// Batch-load items to avoid N+1 queries.
	if len(orders) > 0 {
		orderIDs := make([]string, len(orders))
		for i := range orders {
			orderIDs[i] = orders[i].ID
		}

		itemsByOrder, err := r.loadItems(ctx, orderIDs)
		if err != nil {
			return nil, 0, err
		}
		for i := range orders {
			if items, ok := itemsByOrder[orders[i].ID]; ok {
				orders[i].Items = items
			} else {
				orders[i].Items = []domain.OrderItem{}
			}
		}
	}

	return orders, totalCount, nil
}

// UpdateStatus sets the order status and optional fulfillment fields.
// Entering delivered also marks the payment paid and stamps delivered_at.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string, trackingNumber *string, estimatedDelivery *time.Time) error {
	query := `
		UPDATE orders
		SET status = $1,
			tracking_number = COALESCE($2, tracking_number),
			estimated_delivery = COALESCE($3, estimated_delivery),
			payment_status = CASE WHEN $1 = 'delivered' THEN 'paid' ELSE payment_status END,
			delivered_at = CASE WHEN $1 = 'delivered' THEN $4 ELSE delivered_at END,
			updated_at = $4
		WHERE id = $5`

	ct, err := r.pool.Exec(ctx, query, status, trackingNumber, estimatedDelivery, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

// Cancel marks the order cancelled and restores stock for each line item in
// one transaction. The status condition is re-checked inside the update so a
// concurrent shipment wins over a late cancel. Stock restoration skips
// silently when the book row no longer matches.
func (r *OrderRepository) Cancel(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	ct, err := tx.Exec(ctx,
		"UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status IN ($4, $5)",
		domain.OrderStatusCancelled, now, o.ID,
		domain.OrderStatusPending, domain.OrderStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.Conflict("order can no longer be cancelled")
	}

	for _, item := range o.Items {
		_, err := tx.Exec(ctx,
			"UPDATE books SET stock = stock + $1, updated_at = $2 WHERE id = $3",
			item.Quantity, now, item.BookID,
		)
		if err != nil {
			return fmt.Errorf("restore stock for book %s: %w", item.BookID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// HasPurchased reports whether the user has a review-eligible order
// containing the given book.
func (r *OrderRepository) HasPurchased(ctx context.Context, userID, bookID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id = $1 AND oi.book_id = $2 AND o.status = ANY($3)
		)`

	var purchased bool
	err := r.pool.QueryRow(ctx, query, userID, bookID,
		domain.ReviewEligibleStatuses(),
	).Scan(&purchased)
	if err != nil {
		return false, fmt.Errorf("check purchase: %w", err)
	}

	return purchased, nil
}

// loadItems fetches items for the given orders in one query, grouped by order ID.
func (r *OrderRepository) loadItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, book_id, title, author, cover_image, price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY position`

	rows, err := r.pool.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	itemsByOrder := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.BookID, &item.Title, &item.Author,
			&item.CoverImage, &item.Price, &item.Quantity,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order item rows: %w", err)
	}

	return itemsByOrder, nil
}
