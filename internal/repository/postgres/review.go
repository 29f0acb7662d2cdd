package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/BookstoreGo/internal/domain"
	"github.com/utafrali/BookstoreGo/pkg/database"
	apperrors "github.com/utafrali/BookstoreGo/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
// Every mutation runs in a transaction that also recomputes the book's
// denormalized rating aggregate, so books.ratings_average/ratings_count are
// always consistent with the stored reviews.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

const reviewColumns = "id, book_id, user_id, rating, comment, created_at, updated_at"

// refreshAggregateQuery recomputes the book's rating aggregate from the
// stored reviews. A book with no reviews gets average 0, count 0.
const refreshAggregateQuery = `
	UPDATE books
	SET ratings_average = COALESCE((SELECT AVG(rating)::float8 FROM book_reviews WHERE book_id = $1), 0),
		ratings_count = (SELECT COUNT(*) FROM book_reviews WHERE book_id = $1),
		updated_at = $2
	WHERE id = $1`

// Create inserts a review and refreshes the book's aggregate.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO book_reviews (id, book_id, user_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.Exec(ctx, query,
		review.ID, review.BookID, review.UserID, review.Rating,
		review.Comment, review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "book", review.BookID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	if _, err := tx.Exec(ctx, refreshAggregateQuery, review.BookID, time.Now().UTC()); err != nil {
		return fmt.Errorf("refresh rating aggregate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Update modifies the user's review and refreshes the book's aggregate.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	ct, err := tx.Exec(ctx,
		"UPDATE book_reviews SET rating = $1, comment = $2, updated_at = $3 WHERE book_id = $4 AND user_id = $5",
		review.Rating, review.Comment, now, review.BookID, review.UserID,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", review.BookID)
	}

	if _, err := tx.Exec(ctx, refreshAggregateQuery, review.BookID, now); err != nil {
		return fmt.Errorf("refresh rating aggregate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Delete removes the user's review and refreshes the book's aggregate.
func (r *ReviewRepository) Delete(ctx context.Context, bookID, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		"DELETE FROM book_reviews WHERE book_id = $1 AND user_id = $2",
		bookID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", bookID)
	}

	if _, err := tx.Exec(ctx, refreshAggregateQuery, bookID, time.Now().UTC()); err != nil {
		return fmt.Errorf("refresh rating aggregate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByBookAndUser fetches the user's review of a book.
func (r *ReviewRepository) GetByBookAndUser(ctx context.Context, bookID, userID string) (*domain.Review, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM book_reviews WHERE book_id = $1 AND user_id = $2",
		reviewColumns,
	)

	var rev domain.Review
	err := r.pool.QueryRow(ctx, query, bookID, userID).Scan(
		&rev.ID, &rev.BookID, &rev.UserID, &rev.Rating, &rev.Comment,
		&rev.CreatedAt, &rev.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	return &rev, nil
}

// ListByBook returns a book's reviews, newest first, with the total count.
func (r *ReviewRepository) ListByBook(ctx context.Context, bookID string, page, perPage int) ([]domain.Review, int, error) {
	return r.list(ctx, "book_id", bookID, page, perPage)
}

// ListByUser returns a user's reviews, newest first, with the total count.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Review, int, error) {
	return r.list(ctx, "user_id", userID, page, perPage)
}

func (r *ReviewRepository) list(ctx context.Context, column, value string, page, perPage int) ([]domain.Review, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM book_reviews
		WHERE %s = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		reviewColumns, column,
	)

	if perPage <= 0 {
		perPage = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * perPage
	}

	rows, err := r.pool.Query(ctx, query, value, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var totalCount int
	reviews := make([]domain.Review, 0)

	for rows.Next() {
		var rev domain.Review
		if err := rows.Scan(
			&rev.ID, &rev.BookID, &rev.UserID, &rev.Rating, &rev.Comment,
			&rev.CreatedAt, &rev.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, totalCount, nil
}
