package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/BookstoreGo/internal/domain"
	"github.com/utafrali/BookstoreGo/internal/repository"
	apperrors "github.com/utafrali/BookstoreGo/pkg/errors"
)

func newOrderService(orders *mockOrderRepository, books *mockBookRepository, carts *mockCartRepository) *OrderService {
	return NewOrderService(orders, books, carts, domain.DefaultPricingConfig(), newTestProducer(), newTestLogger())
}

func testBook(id string, price int64, stock int) *domain.Book {
	return &domain.Book{
		ID:       id,
		Title:    "Dune",
		Author:   "Frank Herbert",
		ISBN:     "9780441013593",
		Price:    price,
		Category: "Science Fiction",
		Format:   "Paperback",
		Language: "English",
		Stock:    stock,
		IsActive: true,
	}
}

func testAddress() domain.Address {
	return domain.Address{
		FullName: "Jordan Reyes",
		Address:  "42 Galle Road",
		City:     "Colombo",
		State:    "Western",
		ZipCode:  "00300",
		Country:  "LK",
		Phone:    "+94771234567",
	}
}

// ==========================================================================
// PlaceOrder Tests
// ==========================================================================

func TestOrderService_PlaceOrder_Success(t *testing.T) {
	orders := new(mockOrderRepository)
	books := new(mockBookRepository)
	carts := new(mockCartRepository)
	svc := newOrderService(orders, books, carts)

	books.On("GetByID", mock.Anything, "book-001", false).Return(testBook("book-001", 1000, 10), nil)
	books.On("GetByID", mock.Anything, "book-002", false).Return(testBook("book-002", 2500, 5), nil)
	orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
	carts.On("Delete", mock.Anything, "user-001").Return(nil)

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID: "user-001",
		Items: []PlaceOrderItemInput{
			{BookID: "book-001", Quantity: 2},
			{BookID: "book-002", Quantity: 1},
		},
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
		CouponCode:      "WELCOME10",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	require.Len(t, order.Items, 2)

	// subtotal 4500, tax 360, shipping 599 (below threshold), 10% off 450.
	assert.Equal(t, int64(4500), order.Subtotal)
	assert.Equal(t, int64(360), order.Tax)
	assert.Equal(t, int64(599), order.ShippingCost)
	assert.Equal(t, int64(450), order.Discount)
	assert.Equal(t, int64(5009), order.Total)
	assert.Equal(t, "WELCOME10", order.CouponCode)

	orders.AssertExpectations(t)
	carts.AssertExpectations(t)
}

func TestOrderService_PlaceOrder_SnapshotsBookFields(t *testing.T) {
	orders := new(mockOrderRepository)
	books := new(mockBookRepository)
	carts := new(mockCartRepository)
	svc := newOrderService(orders, books, carts)

	books.On("GetByID", mock.Anything, "book-001", false).Return(testBook("book-001", 1499, 3), nil)
	orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
	carts.On("Delete", mock.Anything, "user-001").Return(nil)

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          "user-001",
		Items:           []PlaceOrderItemInput{{BookID: "book-001", Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})

	require.NoError(t, err)
	item := order.Items[0]
	assert.Equal(t, "Dune", item.Title)
	assert.Equal(t, "Frank Herbert", item.Author)
	assert.Equal(t, int64(1499), item.Price)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, order.ID, item.OrderID)
}

func TestOrderService_PlaceOrder_SnapshotsDiscountedPrice(t *testing.T) {
	orders := new(mockOrderRepository)
	books := new(mockBookRepository)
	carts := new(mockCartRepository)
	svc := newOrderService(orders, books, carts)

	book := testBook("book-001", 2000, 10)
	book.Discount = 50
	books.On("GetByID", mock.Anything, "book-001", false).Return(book, nil)
	orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
	carts.On("Delete", mock.Anything, "user-001").Return(nil)

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          "user-001",
		Items:           []PlaceOrderItemInput{{BookID: "book-001", Quantity: 2}},
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})

	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(1000), order.Items[0].Price)
	// subtotal 2000 at the discounted price, tax 160, shipping 599.
	assert.Equal(t, int64(2000), order.Subtotal)
	assert.Equal(t, int64(2759), order.Total)
}

func TestOrderService_PlaceOrder_EmptyItems(t *testing.T) {
	svc := newOrderService(new(mockOrderRepository), new(mockBookRepository), new(mockCartRepository))

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          "user-001",
		Items:           []PlaceOrderItemInput{},
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})

	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestOrderService_PlaceOrder_ZeroQuantity(t *testing.T) {
	svc := newOrderService(new(mockOrderRepository), new(mockBookRepository), new(mockCartRepository))

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          "user-001",
		Items:           []PlaceOrderItemInput{{BookID: "book-001", Quantity: 0}},
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})

	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestOrderService_PlaceOrder_UnknownBook(t *testing.T) {
	orders := new(mockOrderRepository)
	books := new(mockBookRepository)
	svc := newOrderService(orders, books, new(mockCartRepository))

	books.On("GetByID", mock.Anything, "book-999", false).Return(nil, apperrors.NotFound("book", "book-999"))

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          "user-001",
		Items:           []PlaceOrderItemInput{{BookID: "book-999", Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderService_PlaceOrder_InsufficientStock(t *testing.T) {
	orders := new(mockOrderRepository)
	books := new(mockBookRepository)
	svc := newOrderService(orders, books, new(mockCartRepository))

	books.On("GetByID", mock.Anything, "book-001", false).Return(testBook("book-001", 1000, 1), nil)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          "user-001",
		Items:           []PlaceOrderItemInput{{BookID: "book-001", Quantity: 5}},
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})

	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderService_PlaceOrder_UnknownCouponIgnored(t *testing.T) {
	orders := new(mockOrderRepository)
	books := new(mockBookRepository)
	carts := new(mockCartRepository)
	svc := newOrderService(orders, books, carts)

	books.On("GetByID", mock.Anything, "book-001", false).Return(testBook("book-001", 4000, 10), nil)
	orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
	carts.On("Delete", mock.Anything, "user-001").Return(nil)

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          "user-001",
		Items:           []PlaceOrderItemInput{{BookID: "book-001", Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
		CouponCode:      "BOGUS",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), order.Discount)
	assert.Empty(t, order.CouponCode)
	assert.Equal(t, int64(4919), order.Total)
}

func TestOrderService_PlaceOrder_CartClearFailureDoesNotFailOrder(t *testing.T) {
	orders := new(mockOrderRepository)
	books := new(mockBookRepository)
	carts := new(mockCartRepository)
	svc := newOrderService(orders, books, carts)

	books.On("GetByID", mock.Anything, "book-001", false).Return(testBook("book-001", 1000, 10), nil)
	orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
	carts.On("Delete", mock.Anything, "user-001").Return(errors.New("redis down"))

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          "user-001",
		Items:           []PlaceOrderItemInput{{BookID: "book-001", Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})

	require.NoError(t, err)
	assert.NotNil(t, order)
}

func TestOrderService_PlaceOrder_RepositoryConflictPropagates(t *testing.T) {
	orders := new(mockOrderRepository)
	books := new(mockBookRepository)
	svc := newOrderService(orders, books, new(mockCartRepository))

	// Stock looked fine at read time but another order won the race.
	books.On("GetByID", mock.Anything, "book-001", false).Return(testBook("book-001", 1000, 10), nil)
	orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Return(apperrors.InsufficientStock("book-001"))

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          "user-001",
		Items:           []PlaceOrderItemInput{{BookID: "book-001", Quantity: 2}},
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})

	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

// ==========================================================================
// GetOrder Tests
// ==========================================================================

func TestOrderService_GetOrder_Owner(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockBookRepository), new(mockCartRepository))

	orders.On("GetByID", mock.Anything, "order-001").
		Return(&domain.Order{ID: "order-001", UserID: "user-001"}, nil)

	order, err := svc.GetOrder(context.Background(), "order-001", "user-001", false)
	require.NoError(t, err)
	assert.Equal(t, "order-001", order.ID)
}

func TestOrderService_GetOrder_OtherUserForbidden(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockBookRepository), new(mockCartRepository))

	orders.On("GetByID", mock.Anything, "order-001").
		Return(&domain.Order{ID: "order-001", UserID: "user-001"}, nil)

	_, err := svc.GetOrder(context.Background(), "order-001", "user-002", false)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestOrderService_GetOrder_AdminSeesAny(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockBookRepository), new(mockCartRepository))

	orders.On("GetByID", mock.Anything, "order-001").
		Return(&domain.Order{ID: "order-001", UserID: "user-001"}, nil)

	order, err := svc.GetOrder(context.Background(), "order-001", "admin-007", true)
	require.NoError(t, err)
	assert.Equal(t, "order-001", order.ID)
}

// ==========================================================================
// ListOrders Tests
// ==========================================================================

func TestOrderService_ListOrders_ClampsPagination(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockBookRepository), new(mockCartRepository))

	orders.On("List", mock.Anything, mock.MatchedBy(func(f repository.OrderFilter) bool {
		return f.Page == 1 && f.PerPage == 100
	})).Return([]domain.Order{}, 0, nil)

	_, _, err := svc.ListOrders(context.Background(), repository.OrderFilter{Page: -3, PerPage: 5000})
	require.NoError(t, err)
	orders.AssertExpectations(t)
}

func TestOrderService_ListOrders_InvalidStatus(t *testing.T) {
	svc := newOrderService(new(mockOrderRepository), new(mockBookRepository), new(mockCartRepository))

	bogus := "teleported"
	_, _, err := svc.ListOrders(context.Background(), repository.OrderFilter{Status: &bogus})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestOrderService_ListUserOrders_ScopedToUser(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockBookRepository), new(mockCartRepository))

	orders.On("List", mock.Anything, mock.MatchedBy(func(f repository.OrderFilter) bool {
		return f.UserID != nil && *f.UserID == "user-001"
	})).Return([]domain.Order{{ID: "order-001"}}, 1, nil)

	got, total, err := svc.ListUserOrders(context.Background(), "user-001", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, got, 1)
}

// ==========================================================================
// UpdateStatus Tests
// ==========================================================================

func TestOrderService_UpdateStatus_Success(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockBookRepository), new(mockCartRepository))

	tracking := "TRACK-42"
	orders.On("GetByID", mock.Anything, "order-001").
		Return(&domain.Order{ID: "order-001", UserID: "user-001", Status: domain.OrderStatusProcessing}, nil).Once()
	orders.On("UpdateStatus", mock.Anything, "order-001", domain.OrderStatusShipped, &tracking, (*time.Time)(nil)).
		Return(nil)
	orders.On("GetByID", mock.Anything, "order-001").
		Return(&domain.Order{ID: "order-001", UserID: "user-001", Status: domain.OrderStatusShipped, TrackingNumber: tracking}, nil).Once()

	order, err := svc.UpdateStatus(context.Background(), "order-001", domain.OrderStatusShipped, &tracking, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, order.Status)
	assert.Equal(t, tracking, order.TrackingNumber)
	orders.AssertExpectations(t)
}

func TestOrderService_UpdateStatus_InvalidStatus(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockBookRepository), new(mockCartRepository))

	_, err := svc.UpdateStatus(context.Background(), "order-001", "lost", nil, nil)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_UpdateStatus_NotFound(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockBookRepository), new(mockCartRepository))

	orders.On("GetByID", mock.Anything, "order-999").Return(nil, apperrors.NotFound("order", "order-999"))

	_, err := svc.UpdateStatus(context.Background(), "order-999", domain.OrderStatusShipped, nil, nil)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// ==========================================================================
// Cancel Tests
// ==========================================================================

func TestOrderService_Cancel_Success(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockBookRepository), new(mockCartRepository))

	orders.On("GetByID", mock.Anything, "order-001").
		Return(&domain.Order{ID: "order-001", UserID: "user-001", Status: domain.OrderStatusPending}, nil)
	orders.On("Cancel", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	order, err := svc.Cancel(context.Background(), "order-001", "user-001")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)
	orders.AssertExpectations(t)
}

func TestOrderService_Cancel_OtherUserForbidden(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockBookRepository), new(mockCartRepository))

	orders.On("GetByID", mock.Anything, "order-001").
		Return(&domain.Order{ID: "order-001", UserID: "user-001", Status: domain.OrderStatusPending}, nil)

	_, err := svc.Cancel(context.Background(), "order-001", "user-002")
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	orders.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}

func TestOrderService_Cancel_ShippedConflict(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockBookRepository), new(mockCartRepository))

	orders.On("GetByID", mock.Anything, "order-001").
		Return(&domain.Order{ID: "order-001", UserID: "user-001", Status: domain.OrderStatusShipped}, nil)

	_, err := svc.Cancel(context.Background(), "order-001", "user-001")
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	orders.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}

func TestOrderService_Cancel_LostRaceConflict(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockBookRepository), new(mockCartRepository))

	// Status flipped to shipped between the read and the cancel.
	orders.On("GetByID", mock.Anything, "order-001").
		Return(&domain.Order{ID: "order-001", UserID: "user-001", Status: domain.OrderStatusProcessing}, nil)
	orders.On("Cancel", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Return(apperrors.Conflict("order can no longer be cancelled"))

	_, err := svc.Cancel(context.Background(), "order-001", "user-001")
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}
