package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/BookstoreGo/internal/domain"
	"github.com/utafrali/BookstoreGo/internal/event"
	"github.com/utafrali/BookstoreGo/internal/repository"
	apperrors "github.com/utafrali/BookstoreGo/pkg/errors"
)

// OrderService implements order placement and lifecycle logic.
type OrderService struct {
	orders   repository.OrderRepository
	books    repository.BookRepository
	carts    repository.CartRepository
	pricing  domain.PricingConfig
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orders repository.OrderRepository,
	books repository.BookRepository,
	carts repository.CartRepository,
	pricing domain.PricingConfig,
	producer *event.Producer,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		books:    books,
		carts:    carts,
		pricing:  pricing,
		producer: producer,
		logger:   logger,
	}
}

// PlaceOrderItemInput is one requested line item.
type PlaceOrderItemInput struct {
	BookID   string
	Quantity int
}

// PlaceOrderInput holds the parameters for placing an order.
type PlaceOrderInput struct {
	UserID          string
	Items           []PlaceOrderItemInput
	ShippingAddress domain.Address
	PaymentMethod   string
	CouponCode      string
}

// PlaceOrder validates the requested items against the catalog, prices the
// order, and persists it together with the stock decrements in a single
// transaction. On success the user's cart is cleared (best-effort) and an
// order.created event is published.
func (s *OrderService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error) {
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one item")
	}
	if input.PaymentMethod == "" {
		return nil, apperrors.InvalidInput("payment_method is required")
	}

	now := time.Now().UTC()
	orderID := uuid.New().String()

	// Snapshot each book at its current effective price (percent discount
	// applied). The repository re-checks stock atomically at commit time, so
	// this pass only rejects obvious failures early and captures the
	// snapshot fields.
	var subtotal int64
	items := make([]domain.OrderItem, len(input.Items))
	for i, req := range input.Items {
		if req.Quantity < 1 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("quantity for book %s must be at least 1", req.BookID))
		}

		book, err := s.books.GetByID(ctx, req.BookID, false)
		if err != nil {
			return nil, fmt.Errorf("load book %s: %w", req.BookID, err)
		}
		if !book.InStock(req.Quantity) {
			return nil, apperrors.InsufficientStock(book.ID)
		}

		items[i] = domain.OrderItem{
			ID:         uuid.New().String(),
			OrderID:    orderID,
			BookID:     book.ID,
			Title:      book.Title,
			Author:     book.Author,
			CoverImage: book.CoverImage,
			Price:      book.DiscountedPrice(),
			Quantity:   req.Quantity,
		}
		subtotal += items[i].LineTotal()
	}

	quote := s.pricing.Price(subtotal, input.CouponCode)

	couponCode := ""
	if _, ok := s.pricing.Coupons[input.CouponCode]; ok {
		couponCode = input.CouponCode
	}

	order := &domain.Order{
		ID:              orderID,
		UserID:          input.UserID,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		PaymentMethod:   input.PaymentMethod,
		Items:           items,
		ShippingAddress: input.ShippingAddress,
		CouponCode:      couponCode,
		Subtotal:        quote.Subtotal,
		Tax:             quote.Tax,
		ShippingCost:    quote.ShippingCost,
		Discount:        quote.Discount,
		Total:           quote.Total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// Cart clearing is best-effort: the order stands even if it fails.
	if err := s.carts.Delete(ctx, input.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after order",
			slog.String("order_id", order.ID),
			slog.String("user_id", input.UserID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.Int64("total", order.Total),
		slog.Int("items", len(order.Items)),
	)

	return order, nil
}

// GetOrder retrieves an order. Non-admin callers may only see their own.
func (s *OrderService) GetOrder(ctx context.Context, id, requesterID string, isAdmin bool) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	if !isAdmin && order.UserID != requesterID {
		return nil, apperrors.Forbidden("order belongs to another user")
	}
	return order, nil
}

// ListUserOrders returns the requester's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	filter := repository.OrderFilter{
		UserID:  &userID,
		Page:    page,
		PerPage: perPage,
	}
	return s.ListOrders(ctx, filter)
}

// ListOrders returns a filtered, paginated list of orders (admin).
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	if filter.Status != nil && !domain.IsValidStatus(*filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", *filter.Status))
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

// UpdateStatus sets any valid status on the order (admin override: no
// transition table is enforced). Entering delivered marks the payment paid
// and stamps delivered_at.
func (s *OrderService) UpdateStatus(ctx context.Context, id, newStatus string, trackingNumber *string, estimatedDelivery *time.Time) (*domain.Order, error) {
	if !domain.IsValidStatus(newStatus) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s",
			newStatus, strings.Join(domain.ValidStatuses(), ", ")))
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}
	oldStatus := order.Status

	if err := s.orders.UpdateStatus(ctx, id, newStatus, trackingNumber, estimatedDelivery); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if err := s.producer.PublishOrderStatusChanged(ctx, id, oldStatus, newStatus); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", id),
		slog.String("old_status", oldStatus),
		slog.String("new_status", newStatus),
	)

	updated, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}

	return updated, nil
}

// Cancel cancels the requester's own order. Only pending and processing
// orders can be cancelled; stock is restored in the same transaction.
func (s *OrderService) Cancel(ctx context.Context, id, requesterID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for cancel: %w", err)
	}

	if order.UserID != requesterID {
		return nil, apperrors.Forbidden("order belongs to another user")
	}
	if !order.CanBeCancelled() {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot cancel order in %q status", order.Status))
	}

	if err := s.orders.Cancel(ctx, order); err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	if err := s.producer.PublishOrderCancelled(ctx, id, requesterID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.cancelled event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order cancelled",
		slog.String("order_id", id),
		slog.String("user_id", requesterID),
	)

	order.Status = domain.OrderStatusCancelled
	return order, nil
}
