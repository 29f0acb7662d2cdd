package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/BookstoreGo/internal/domain"
	"github.com/utafrali/BookstoreGo/internal/event"
	"github.com/utafrali/BookstoreGo/internal/repository"
	"github.com/utafrali/BookstoreGo/internal/service"
	"github.com/utafrali/BookstoreGo/pkg/health"
	"github.com/utafrali/BookstoreGo/pkg/httputil"
	pkgkafka "github.com/utafrali/BookstoreGo/pkg/kafka"
	"github.com/utafrali/BookstoreGo/pkg/middleware"
)

// --- Mock repositories ---

type mockBookRepository struct {
	mock.Mock
}

func (m *mockBookRepository) Create(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *mockBookRepository) GetByID(ctx context.Context, id string, includeInactive bool) (*domain.Book, error) {
	args := m.Called(ctx, id, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *mockBookRepository) List(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Book), args.Int(1), args.Error(2)
}

func (m *mockBookRepository) Update(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *mockBookRepository) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id, status string, trackingNumber *string, estimatedDelivery *time.Time) error {
	args := m.Called(ctx, id, status, trackingNumber, estimatedDelivery)
	return args.Error(0)
}

func (m *mockOrderRepository) Cancel(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) HasPurchased(ctx context.Context, userID, bookID string) (bool, error) {
	args := m.Called(ctx, userID, bookID)
	return args.Bool(0), args.Error(1)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) Delete(ctx context.Context, bookID, userID string) error {
	args := m.Called(ctx, bookID, userID)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByBookAndUser(ctx context.Context, bookID, userID string) (*domain.Review, error) {
	args := m.Called(ctx, bookID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListByBook(ctx context.Context, bookID string, page, perPage int) ([]domain.Review, int, error) {
	args := m.Called(ctx, bookID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Review, int, error) {
	args := m.Called(ctx, userID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

type mockWishlistRepository struct {
	mock.Mock
}

func (m *mockWishlistRepository) Add(ctx context.Context, userID, bookID string) error {
	args := m.Called(ctx, userID, bookID)
	return args.Error(0)
}

func (m *mockWishlistRepository) Remove(ctx context.Context, userID, bookID string) error {
	args := m.Called(ctx, userID, bookID)
	return args.Error(0)
}

func (m *mockWishlistRepository) List(ctx context.Context, userID string, page, perPage int) ([]domain.WishlistItem, int, error) {
	args := m.Called(ctx, userID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.WishlistItem), args.Int(1), args.Error(2)
}

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Test helpers ---

const (
	testBookID  = "550e8400-e29b-41d4-a716-446655440001"
	testOrderID = "550e8400-e29b-41d4-a716-446655440002"
	testUserID  = "550e8400-e29b-41d4-a716-446655440099"
	testAdminID = "550e8400-e29b-41d4-a716-446655440042"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	cfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	cfg.Async = true
	return event.NewProducer(pkgkafka.NewProducer(cfg, logger), logger)
}

type testRepos struct {
	books     *mockBookRepository
	orders    *mockOrderRepository
	reviews   *mockReviewRepository
	wishlists *mockWishlistRepository
	carts     *mockCartRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		books:     new(mockBookRepository),
		orders:    new(mockOrderRepository),
		reviews:   new(mockReviewRepository),
		wishlists: new(mockWishlistRepository),
		carts:     new(mockCartRepository),
	}
}

// setupRouter builds the production router over mocked repositories.
func setupRouter(repos *testRepos) http.Handler {
	logger := testLogger()
	producer := testEventProducer()
	pricing := domain.DefaultPricingConfig()

	svcs := Services{
		Catalog:  service.NewCatalogService(repos.books, logger),
		Cart:     service.NewCartService(repos.carts, repos.books, producer, logger),
		Order:    service.NewOrderService(repos.orders, repos.books, repos.carts, pricing, producer, logger),
		Review:   service.NewReviewService(repos.reviews, repos.books, repos.orders, producer, logger),
		Wishlist: service.NewWishlistService(repos.wishlists, repos.books, logger),
	}

	return NewRouter(svcs, health.NewHandler(), middleware.DefaultCORSConfig(), logger, 30*time.Second)
}

// doRequest executes a request against the router, optionally as a
// gateway-authenticated user.
func doRequest(router http.Handler, method, path, userID, role string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// doRequestWithContentType is doRequest with an explicit Content-Type header.
func doRequestWithContentType(router http.Handler, method, path, userID, role string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// decodeResponse reads the response body into the httputil.Response struct.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

// sampleBook returns a realistic active book for test expectations.
func sampleBook() *domain.Book {
	now := time.Now().UTC()
	return &domain.Book{
		ID:        testBookID,
		Title:     "Dune",
		Author:    "Frank Herbert",
		ISBN:      "9780441013593",
		Price:     1499,
		Category:  "Science Fiction",
		Format:    "Paperback",
		Language:  "English",
		Stock:     25,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
