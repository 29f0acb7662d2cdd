package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/utafrali/BookstoreGo/internal/domain"
	"github.com/utafrali/BookstoreGo/internal/event"
	"github.com/utafrali/BookstoreGo/internal/repository"
	apperrors "github.com/utafrali/BookstoreGo/pkg/errors"
)

// ReviewService implements verified-purchase book reviews.
type ReviewService struct {
	reviews  repository.ReviewRepository
	books    repository.BookRepository
	orders   repository.OrderRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	books repository.BookRepository,
	orders repository.OrderRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		books:    books,
		orders:   orders,
		producer: producer,
		logger:   logger,
	}
}

// AddReview creates a review for a book the user has actually bought. One
// review per user per book; the book's rating aggregate is refreshed in the
// same transaction as the insert.
func (s *ReviewService) AddReview(ctx context.Context, userID, bookID string, rating int, comment string) (*domain.Review, error) {
	if !domain.IsValidRating(rating) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	if utf8.RuneCountInString(comment) > domain.MaxReviewCommentLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("comment must not exceed %d characters", domain.MaxReviewCommentLength))
	}

	if _, err := s.books.GetByID(ctx, bookID, false); err != nil {
		return nil, fmt.Errorf("load book for review: %w", err)
	}

	purchased, err := s.orders.HasPurchased(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("check purchase: %w", err)
	}
	if !purchased {
		return nil, apperrors.NotPurchased(bookID)
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		BookID:    bookID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("book_id", bookID),
		slog.String("user_id", userID),
		slog.Int("rating", rating),
	)

	return review, nil
}

// UpdateReview changes the rating/comment of the user's own review.
func (s *ReviewService) UpdateReview(ctx context.Context, userID, bookID string, rating int, comment string) (*domain.Review, error) {
	if !domain.IsValidRating(rating) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	if utf8.RuneCountInString(comment) > domain.MaxReviewCommentLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("comment must not exceed %d characters", domain.MaxReviewCommentLength))
	}

	review, err := s.reviews.GetByBookAndUser(ctx, bookID, userID)
	if err != nil {
		return nil, fmt.Errorf("get review for update: %w", err)
	}

	review.Rating = rating
	review.Comment = comment
	review.UpdatedAt = time.Now().UTC()

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", review.ID),
		slog.String("book_id", bookID),
	)

	return review, nil
}

// DeleteReview removes the user's own review of a book.
func (s *ReviewService) DeleteReview(ctx context.Context, userID, bookID string) error {
	if err := s.reviews.Delete(ctx, bookID, userID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("book_id", bookID),
		slog.String("user_id", userID),
	)

	return nil
}

// ListBookReviews returns a book's reviews, newest first.
func (s *ReviewService) ListBookReviews(ctx context.Context, bookID string, page, perPage int) ([]domain.Review, int, error) {
	page, perPage = clampPage(page, perPage)

	reviews, total, err := s.reviews.ListByBook(ctx, bookID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list book reviews: %w", err)
	}
	return reviews, total, nil
}

// ListUserReviews returns the user's reviews, newest first.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID string, page, perPage int) ([]domain.Review, int, error) {
	page, perPage = clampPage(page, perPage)

	reviews, total, err := s.reviews.ListByUser(ctx, userID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list user reviews: %w", err)
	}
	return reviews, total, nil
}

func clampPage(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
