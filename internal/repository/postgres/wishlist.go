package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/utafrali/BookstoreGo/internal/domain"
	"github.com/utafrali/BookstoreGo/pkg/database"
	apperrors "github.com/utafrali/BookstoreGo/pkg/errors"
)

// WishlistRepository implements repository.WishlistRepository using PostgreSQL.
type WishlistRepository struct {
	pool database.DBTX
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist repository.
func NewWishlistRepository(pool database.DBTX) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

// Add saves a book to the user's wishlist. Adding twice is a no-op.
func (r *WishlistRepository) Add(ctx context.Context, userID, bookID string) error {
	query := `
		INSERT INTO wishlists (user_id, book_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, book_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, userID, bookID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add wishlist item: %w", err)
	}

	return nil
}

// Remove deletes a book from the user's wishlist.
func (r *WishlistRepository) Remove(ctx context.Context, userID, bookID string) error {
	ct, err := r.pool.Exec(ctx,
		"DELETE FROM wishlists WHERE user_id = $1 AND book_id = $2",
		userID, bookID,
	)
	if err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("wishlist item", bookID)
	}

	return nil
}

// List returns the user's wishlist joined with book data, newest first.
func (r *WishlistRepository) List(ctx context.Context, userID string, page, perPage int) ([]domain.WishlistItem, int, error) {
	query := `
		SELECT w.user_id, w.book_id, w.added_at,
			b.id, b.title, b.author, b.price, b.cover_image, b.stock, b.discount,
			b.ratings_average, b.ratings_count, b.is_active,
			count(*) OVER() AS total_count
		FROM wishlists w
		JOIN books b ON b.id = w.book_id
		WHERE w.user_id = $1
		ORDER BY w.added_at DESC
		LIMIT $2 OFFSET $3`

	if perPage <= 0 {
		perPage = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * perPage
	}

	rows, err := r.pool.Query(ctx, query, userID, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	var totalCount int
	items := make([]domain.WishlistItem, 0)

	for rows.Next() {
		var (
			item domain.WishlistItem
			book domain.Book
		)
		if err := rows.Scan(
			&item.UserID, &item.BookID, &item.AddedAt,
			&book.ID, &book.Title, &book.Author, &book.Price, &book.CoverImage,
			&book.Stock, &book.Discount, &book.Ratings.Average,
			&book.Ratings.Count, &book.IsActive, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan wishlist row: %w", err)
		}
		item.Book = &book
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate wishlist rows: %w", err)
	}

	return items, totalCount, nil
}
