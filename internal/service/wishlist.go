package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/BookstoreGo/internal/domain"
	"github.com/utafrali/BookstoreGo/internal/repository"
)

// WishlistService implements per-user wishlists.
type WishlistService struct {
	wishlists repository.WishlistRepository
	books     repository.BookRepository
	logger    *slog.Logger
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(
	wishlists repository.WishlistRepository,
	books repository.BookRepository,
	logger *slog.Logger,
) *WishlistService {
	return &WishlistService{
		wishlists: wishlists,
		books:     books,
		logger:    logger,
	}
}

// Add saves an active book to the user's wishlist. Re-adding is a no-op.
func (s *WishlistService) Add(ctx context.Context, userID, bookID string) error {
	if _, err := s.books.GetByID(ctx, bookID, false); err != nil {
		return fmt.Errorf("load book for wishlist: %w", err)
	}

	if err := s.wishlists.Add(ctx, userID, bookID); err != nil {
		return fmt.Errorf("add to wishlist: %w", err)
	}

	s.logger.InfoContext(ctx, "book added to wishlist",
		slog.String("user_id", userID),
		slog.String("book_id", bookID),
	)

	return nil
}

// Remove deletes a book from the user's wishlist.
func (s *WishlistService) Remove(ctx context.Context, userID, bookID string) error {
	if err := s.wishlists.Remove(ctx, userID, bookID); err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	return nil
}

// List returns the user's wishlist joined with current book data.
func (s *WishlistService) List(ctx context.Context, userID string, page, perPage int) ([]domain.WishlistItem, int, error) {
	page, perPage = clampPage(page, perPage)

	items, total, err := s.wishlists.List(ctx, userID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list wishlist: %w", err)
	}
	return items, total, nil
}
