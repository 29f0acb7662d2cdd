package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/BookstoreGo/internal/domain"
	"github.com/utafrali/BookstoreGo/internal/event"
	"github.com/utafrali/BookstoreGo/internal/repository"
	apperrors "github.com/utafrali/BookstoreGo/pkg/errors"
)

// CartService implements shopping cart operations backed by Redis.
type CartService struct {
	carts    repository.CartRepository
	books    repository.BookRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	carts repository.CartRepository,
	books repository.BookRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		carts:    carts,
		books:    books,
		producer: producer,
		logger:   logger,
	}
}

// GetCart returns the user's cart, which is empty if nothing was ever added.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// AddItem adds a book to the cart, snapshotting its display fields and
// current price. Adding a book already in the cart merges the quantities.
func (s *CartService) AddItem(ctx context.Context, userID, bookID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}
	if quantity > domain.MaxCartItemQuantity {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", domain.MaxCartItemQuantity))
	}

	book, err := s.books.GetByID(ctx, bookID, false)
	if err != nil {
		return nil, fmt.Errorf("load book for cart: %w", err)
	}
	if !book.InStock(quantity) {
		return nil, apperrors.InsufficientStock(book.ID)
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if cart.FindItem(bookID) < 0 && len(cart.Items) >= domain.MaxCartItems {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cart must not exceed %d distinct items", domain.MaxCartItems))
	}

	cart.AddItem(domain.CartItem{
		BookID:     book.ID,
		Title:      book.Title,
		Author:     book.Author,
		CoverImage: book.CoverImage,
		Price:      book.DiscountedPrice(),
		Quantity:   quantity,
	})

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.publishCartUpdated(ctx, cart)

	return cart, nil
}

// UpdateItem sets the quantity of a cart line. A quantity of zero removes it.
func (s *CartService) UpdateItem(ctx context.Context, userID, bookID string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, apperrors.InvalidInput("quantity must not be negative")
	}
	if quantity > domain.MaxCartItemQuantity {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", domain.MaxCartItemQuantity))
	}

	if quantity == 0 {
		return s.RemoveItem(ctx, userID, bookID)
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	i := cart.FindItem(bookID)
	if i < 0 {
		return nil, apperrors.NotFound("cart item", bookID)
	}
	cart.Items[i].Quantity = quantity

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.publishCartUpdated(ctx, cart)

	return cart, nil
}

// RemoveItem deletes a book from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, bookID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if cart.FindItem(bookID) < 0 {
		return nil, apperrors.NotFound("cart item", bookID)
	}
	cart.RemoveItem(bookID)

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.publishCartUpdated(ctx, cart)

	return cart, nil
}

// Clear empties the user's cart. Clearing an already-empty cart succeeds.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := s.carts.Delete(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	s.publishCartUpdated(ctx, &domain.Cart{UserID: userID, Items: []domain.CartItem{}})

	return nil
}

func (s *CartService) publishCartUpdated(ctx context.Context, cart *domain.Cart) {
	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("user_id", cart.UserID),
			slog.String("error", err.Error()),
		)
	}
}
