package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/BookstoreGo/internal/domain"
	"github.com/utafrali/BookstoreGo/internal/repository"
	apperrors "github.com/utafrali/BookstoreGo/pkg/errors"
)

// CatalogService implements book catalog management.
type CatalogService struct {
	books  repository.BookRepository
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(books repository.BookRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		books:  books,
		logger: logger,
	}
}

// CreateBookInput holds the parameters for creating a book.
type CreateBookInput struct {
	Title         string
	Author        string
	Description   string
	ISBN          string
	Price         int64
	OriginalPrice *int64
	Category      string
	Subcategory   string
	Format        string
	Language      string
	Pages         *int
	Publisher     string
	PublishDate   *time.Time
	CoverImage    string
	Tags          []string
	Stock         int
	Discount      int
	Featured      bool
	Bestseller    bool
	NewRelease    bool
}

// UpdateBookInput holds the mutable fields for updating a book. Nil pointers
// leave the current value untouched.
type UpdateBookInput struct {
	Title         *string
	Author        *string
	Description   *string
	Price         *int64
	OriginalPrice *int64
	Category      *string
	Subcategory   *string
	Format        *string
	Language      *string
	Pages         *int
	Publisher     *string
	PublishDate   *time.Time
	CoverImage    *string
	Tags          []string
	Stock         *int
	Discount      *int
	Featured      *bool
	Bestseller    *bool
	NewRelease    *bool
}

// CreateBook validates and inserts a new catalog entry.
func (s *CatalogService) CreateBook(ctx context.Context, input CreateBookInput) (*domain.Book, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	if input.Author == "" {
		return nil, apperrors.InvalidInput("author is required")
	}
	if input.ISBN == "" {
		return nil, apperrors.InvalidInput("isbn is required")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if input.Stock < 0 {
		return nil, apperrors.InvalidInput("stock must not be negative")
	}
	if input.Discount < 0 || input.Discount > 100 {
		return nil, apperrors.InvalidInput("discount must be between 0 and 100")
	}
	if !domain.IsValidCategory(input.Category) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid category %q", input.Category))
	}
	if !domain.IsValidFormat(input.Format) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid format %q", input.Format))
	}
	if input.Language != "" && !domain.IsValidLanguage(input.Language) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid language %q", input.Language))
	}
	if input.Language == "" {
		input.Language = "English"
	}

	now := time.Now().UTC()
	book := &domain.Book{
		ID:            uuid.New().String(),
		Title:         input.Title,
		Author:        input.Author,
		Description:   input.Description,
		ISBN:          input.ISBN,
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		Category:      input.Category,
		Subcategory:   input.Subcategory,
		Format:        input.Format,
		Language:      input.Language,
		Pages:         input.Pages,
		Publisher:     input.Publisher,
		PublishDate:   input.PublishDate,
		CoverImage:    input.CoverImage,
		Tags:          input.Tags,
		Stock:         input.Stock,
		Discount:      input.Discount,
		Featured:      input.Featured,
		Bestseller:    input.Bestseller,
		NewRelease:    input.NewRelease,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.books.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.InfoContext(ctx, "book created",
		slog.String("book_id", book.ID),
		slog.String("isbn", book.ISBN),
	)

	return book, nil
}

// GetBook retrieves an active book by ID. Admin callers may also see
// deactivated books.
func (s *CatalogService) GetBook(ctx context.Context, id string, isAdmin bool) (*domain.Book, error) {
	book, err := s.books.GetByID(ctx, id, isAdmin)
	if err != nil {
		return nil, fmt.Errorf("get book by id: %w", err)
	}
	return book, nil
}

// ListBooks returns a filtered, paginated slice of the catalog.
func (s *CatalogService) ListBooks(ctx context.Context, filter repository.BookFilter, isAdmin bool) ([]domain.Book, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	if !isAdmin {
		filter.IncludeInactive = false
	}

	if filter.Category != nil && !domain.IsValidCategory(*filter.Category) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid category %q", *filter.Category))
	}
	if filter.Format != nil && !domain.IsValidFormat(*filter.Format) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid format %q", *filter.Format))
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, 0, apperrors.InvalidInput("min_price must not exceed max_price")
	}

	books, total, err := s.books.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}

	return books, total, nil
}

// UpdateBook applies partial updates to an existing book.
func (s *CatalogService) UpdateBook(ctx context.Context, id string, input UpdateBookInput) (*domain.Book, error) {
	book, err := s.books.GetByID(ctx, id, true)
	if err != nil {
		return nil, fmt.Errorf("get book for update: %w", err)
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("title must not be empty")
		}
		book.Title = *input.Title
	}
	if input.Author != nil {
		if *input.Author == "" {
			return nil, apperrors.InvalidInput("author must not be empty")
		}
		book.Author = *input.Author
	}
	if input.Description != nil {
		book.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		book.Price = *input.Price
	}
	if input.OriginalPrice != nil {
		book.OriginalPrice = input.OriginalPrice
	}
	if input.Category != nil {
		if !domain.IsValidCategory(*input.Category) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid category %q", *input.Category))
		}
		book.Category = *input.Category
	}
	if input.Subcategory != nil {
		book.Subcategory = *input.Subcategory
	}
	if input.Format != nil {
		if !domain.IsValidFormat(*input.Format) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid format %q", *input.Format))
		}
		book.Format = *input.Format
	}
	if input.Language != nil {
		if !domain.IsValidLanguage(*input.Language) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid language %q", *input.Language))
		}
		book.Language = *input.Language
	}
	if input.Pages != nil {
		book.Pages = input.Pages
	}
	if input.Publisher != nil {
		book.Publisher = *input.Publisher
	}
	if input.PublishDate != nil {
		book.PublishDate = input.PublishDate
	}
	if input.CoverImage != nil {
		book.CoverImage = *input.CoverImage
	}
	if input.Tags != nil {
		book.Tags = input.Tags
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, apperrors.InvalidInput("stock must not be negative")
		}
		book.Stock = *input.Stock
	}
	if input.Discount != nil {
		if *input.Discount < 0 || *input.Discount > 100 {
			return nil, apperrors.InvalidInput("discount must be between 0 and 100")
		}
		book.Discount = *input.Discount
	}
	if input.Featured != nil {
		book.Featured = *input.Featured
	}
	if input.Bestseller != nil {
		book.Bestseller = *input.Bestseller
	}
	if input.NewRelease != nil {
		book.NewRelease = *input.NewRelease
	}

	book.UpdatedAt = time.Now().UTC()

	if err := s.books.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.logger.InfoContext(ctx, "book updated", slog.String("book_id", book.ID))

	return book, nil
}

// DeactivateBook soft-deletes a book. The record stays so order snapshots
// and reviews keep pointing at something real.
func (s *CatalogService) DeactivateBook(ctx context.Context, id string) error {
	if err := s.books.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("deactivate book: %w", err)
	}

	s.logger.InfoContext(ctx, "book deactivated", slog.String("book_id", id))

	return nil
}
