package repository

import (
	"context"
	"time"

	"github.com/utafrali/BookstoreGo/internal/domain"
)

// Stock status filter values for BookFilter.
const (
	StockStatusIn  = "in_stock"
	StockStatusOut = "out_of_stock"
	StockStatusLow = "low_stock"
)

// BookFilter defines filter criteria for listing books.
type BookFilter struct {
	Category    *string
	Format      *string
	Language    *string
	Author      *string
	MinPrice    *int64
	MaxPrice    *int64
	MinRating   *float64
	Featured    *bool
	Bestseller  *bool
	NewRelease  *bool
	StockStatus *string
	Search      string
	SortBy      string

	// IncludeInactive lists soft-deleted books too (admin only).
	IncludeInactive bool

	Page    int
	PerPage int
}

// Book sort values.
const (
	SortByNewest    = "newest"
	SortByPriceAsc  = "price_asc"
	SortByPriceDesc = "price_desc"
	SortByRating    = "rating"
	SortByTitle     = "title"
	SortByAuthor    = "author"
)

// BookRepository defines the interface for catalog persistence.
type BookRepository interface {
	// Create inserts a new book. A duplicate ISBN yields ErrAlreadyExists.
	Create(ctx context.Context, book *domain.Book) error

	// GetByID retrieves a book. Inactive books are returned only when
	// includeInactive is true; otherwise they behave as absent.
	GetByID(ctx context.Context, id string, includeInactive bool) (*domain.Book, error)

	// List returns books matching the filter along with the total count.
	List(ctx context.Context, filter BookFilter) ([]domain.Book, int, error)

	// Update overwrites the mutable fields of an existing book.
	Update(ctx context.Context, book *domain.Book) error

	// Deactivate soft-deletes a book. The record survives so order
	// snapshots and reviews stay intact.
	Deactivate(ctx context.Context, id string) error
}

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	UserID        *string
	Status        *string
	PaymentStatus *string
	Page          int
	PerPage       int
}

// OrderRepository defines the interface for order persistence.
type OrderRepository interface {
	// Create inserts the order, its items, and the matching stock
	// decrements in one transaction. Each decrement is conditional
	// (stock must cover the quantity); any failure rolls back everything,
	// returning ErrNotFound for a missing/inactive book or an
	// insufficient-stock conflict. No partial decrement ever survives.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order including its items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns orders matching the filter along with the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus sets the order status and optional fulfillment fields.
	// Entering delivered also marks the payment paid and stamps
	// delivered_at.
	UpdateStatus(ctx context.Context, id, status string, trackingNumber *string, estimatedDelivery *time.Time) error

	// Cancel marks the order cancelled and restores stock for each line
	// item in the same transaction. Items whose book no longer exists are
	// skipped silently.
	Cancel(ctx context.Context, order *domain.Order) error

	// HasPurchased reports whether the user has a shipped or delivered
	// order containing the given book.
	HasPurchased(ctx context.Context, userID, bookID string) (bool, error)
}

// ReviewRepository defines the interface for review persistence. Every
// mutation recomputes the book's denormalized rating aggregate in the same
// transaction.
type ReviewRepository interface {
	// Create inserts a review. A second review by the same user on the
	// same book yields ErrAlreadyExists.
	Create(ctx context.Context, review *domain.Review) error

	// Update modifies the rating/comment of an existing review.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes the user's review of a book.
	Delete(ctx context.Context, bookID, userID string) error

	// GetByBookAndUser fetches the user's review of a book, if any.
	GetByBookAndUser(ctx context.Context, bookID, userID string) (*domain.Review, error)

	// ListByBook returns a book's reviews, newest first, with total count.
	ListByBook(ctx context.Context, bookID string, page, perPage int) ([]domain.Review, int, error)

	// ListByUser returns a user's reviews, newest first, with total count.
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Review, int, error)
}

// WishlistRepository defines the interface for wishlist persistence.
type WishlistRepository interface {
	// Add saves a book to the user's wishlist; adding twice is a no-op.
	Add(ctx context.Context, userID, bookID string) error

	// Remove deletes a book from the user's wishlist.
	Remove(ctx context.Context, userID, bookID string) error

	// List returns the user's wishlist joined with book data, newest first.
	List(ctx context.Context, userID string, page, perPage int) ([]domain.WishlistItem, int, error)
}

// CartRepository defines the interface for cart persistence.
type CartRepository interface {
	// Get returns the user's cart, or an empty cart if none is stored.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// Save stores the cart, refreshing its TTL.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes the user's cart entirely.
	Delete(ctx context.Context, userID string) error
}
