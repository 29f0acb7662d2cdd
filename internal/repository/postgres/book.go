package postgres

import (
	"context"
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

// BookRepository implements repository.BookRepository using PostgreSQL.
type BookRepository struct {
	pool database.DBTX
}

// NewBookRepository creates a new PostgreSQL-backed book repository.
func NewBookRepository(pool database.DBTX) *BookRepository {
	return &BookRepository{pool: pool}
}

const bookColumns = `id, title, author, description, isbn, price, original_price,
	category, subcategory, format, language, pages, publisher, publish_date,
	cover_image, tags, stock, discount, featured, bestseller, new_release,
	ratings_average, ratings_count, is_active, created_at, updated_at`

// Create inserts a new book.
func (r *BookRepository) Create(ctx context.Context, b *domain.Book) error {
	query := `
		INSERT INTO books (id, title, author, description, isbn, price, original_price,
			category, subcategory, format, language, pages, publisher, publish_date,
			cover_image, tags, stock, discount, featured, bestseller, new_release,
			ratings_average, ratings_count, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`

	_, err := r.pool.Exec(ctx, query,
		b.ID, b.Title, b.Author, b.Description, b.ISBN, b.Price, b.OriginalPrice,
		b.Category, b.Subcategory, b.Format, b.Language, b.Pages, b.Publisher,
		b.PublishDate, b.CoverImage, b.Tags, b.Stock, b.Discount, b.Featured,
		b.Bestseller, b.NewRelease, b.Ratings.Average, b.Ratings.Count,
		b.IsActive, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("book", "isbn", b.ISBN)
		}
		return fmt.Errorf("insert book: %w", err)
	}

	return nil
}

// GetByID retrieves a book by ID. Inactive books are hidden unless
// includeInactive is set.
func (r *BookRepository) GetByID(ctx context.Context, id string, includeInactive bool) (*domain.Book, error) {
	query := fmt.Sprintf("SELECT %s FROM books WHERE id = $1", bookColumns)
	if !includeInactive {
		query += " AND is_active = TRUE"
	}

	b, err := scanBook(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}

	return b, nil
}

// List returns books matching the filter with the total count, using
// count(*) OVER() so one query serves both.
func (r *BookRepository) List(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	addCondition := func(cond string, value any) {
		conditions = append(conditions, fmt.Sprintf(cond, argIndex))
		args = append(args, value)
		argIndex++
	}

	if !filter.IncludeInactive {
		conditions = append(conditions, "is_active = TRUE")
	}
	if filter.Category != nil {
		addCondition("category = $%d", *filter.Category)
	}
	if filter.Format != nil {
		addCondition("format = $%d", *filter.Format)
	}
	if filter.Language != nil {
		addCondition("language = $%d", *filter.Language)
	}
	if filter.Author != nil {
		addCondition("author ILIKE $%d", "%"+*filter.Author+"%")
	}
	if filter.MinPrice != nil {
		addCondition("price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		addCondition("price <= $%d", *filter.MaxPrice)
	}
	if filter.MinRating != nil {
		addCondition("ratings_average >= $%d", *filter.MinRating)
	}
	if filter.Featured != nil {
		addCondition("featured = $%d", *filter.Featured)
	}
	if filter.Bestseller != nil {
		addCondition("bestseller = $%d", *filter.Bestseller)
	}
	if filter.NewRelease != nil {
		addCondition("new_release = $%d", *filter.NewRelease)
	}
	if filter.StockStatus != nil {
		switch *filter.StockStatus {
		case repository.StockStatusIn:
			conditions = append(conditions, "stock > 0")
		case repository.StockStatusOut:
			conditions = append(conditions, "stock = 0")
		case repository.StockStatusLow:
			conditions = append(conditions, "stock > 0 AND stock <= 10")
		}
	}
	if filter.Search != "" {
		cond := fmt.Sprintf(
			"(title ILIKE $%d OR author ILIKE $%d OR description ILIKE $%d OR isbn = $%d)",
			argIndex, argIndex, argIndex, argIndex+1,
		)
		conditions = append(conditions, cond)
		args = append(args, "%"+filter.Search+"%", filter.Search)
		argIndex += 2
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM books
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		bookColumns, whereClause, sortClause(filter.SortBy), argIndex, argIndex+1,
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
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var totalCount int
	books := make([]domain.Book, 0)

	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.Description, &b.ISBN, &b.Price,
			&b.OriginalPrice, &b.Category, &b.Subcategory, &b.Format, &b.Language,
			&b.Pages, &b.Publisher, &b.PublishDate, &b.CoverImage, &b.Tags,
			&b.Stock, &b.Discount, &b.Featured, &b.Bestseller, &b.NewRelease,
			&b.Ratings.Average, &b.Ratings.Count, &b.IsActive,
			&b.CreatedAt, &b.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan book row: %w", err)
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate book rows: %w", err)
	}

	return books, totalCount, nil
}

// Update overwrites the mutable fields of an existing book.
func (r *BookRepository) Update(ctx context.Context, b *domain.Book) error {
	query := `
		UPDATE books
		SET title = $1, author = $2, description = $3, isbn = $4, price = $5,
			original_price = $6, category = $7, subcategory = $8, format = $9,
			language = $10, pages = $11, publisher = $12, publish_date = $13,
			cover_image = $14, tags = $15, stock = $16, discount = $17,
			featured = $18, bestseller = $19, new_release = $20, is_active = $21,
			updated_at = $22
		WHERE id = $23`

	ct, err := r.pool.Exec(ctx, query,
		b.Title, b.Author, b.Description, b.ISBN, b.Price, b.OriginalPrice,
		b.Category, b.Subcategory, b.Format, b.Language, b.Pages, b.Publisher,
		b.PublishDate, b.CoverImage, b.Tags, b.Stock, b.Discount, b.Featured,
		b.Bestseller, b.NewRelease, b.IsActive, time.Now().UTC(), b.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("book", "isbn", b.ISBN)
		}
		return fmt.Errorf("update book: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("book", b.ID)
	}

	return nil
}

// Deactivate soft-deletes a book.
func (r *BookRepository) Deactivate(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx,
		"UPDATE books SET is_active = FALSE, updated_at = $1 WHERE id = $2",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deactivate book: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("book", id)
	}

	return nil
}

func sortClause(sortBy string) string {
	switch sortBy {
	case repository.SortByPriceAsc:
		return "price ASC"
	case repository.SortByPriceDesc:
		return "price DESC"
	case repository.SortByRating:
		return "ratings_average DESC"
	case repository.SortByTitle:
		return "title ASC"
	case repository.SortByAuthor:
		return "author ASC"
	default:
		return "created_at DESC"
	}
}

func scanBook(row pgx.Row) (*domain.Book, error) {
	var b domain.Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Description, &b.ISBN, &b.Price,
		&b.OriginalPrice, &b.Category, &b.Subcategory, &b.Format, &b.Language,
		&b.Pages, &b.Publisher, &b.PublishDate, &b.CoverImage, &b.Tags,
		&b.Stock, &b.Discount, &b.Featured, &b.Bestseller, &b.NewRelease,
		&b.Ratings.Average, &b.Ratings.Count, &b.IsActive,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
