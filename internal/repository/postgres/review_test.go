package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/BookstoreGo/internal/domain"
	"github.com/utafrali/BookstoreGo/pkg/database"
	apperrors "github.com/utafrali/BookstoreGo/pkg/errors"
)

func newReviewRepo(t *testing.T) (*ReviewRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewReviewRepository(mock), mock
}

func sampleReview() *domain.Review {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Review{
		ID:        "review-001",
		BookID:    "book-001",
		UserID:    "user-001",
		Rating:    4,
		Comment:   "Great read",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// --- Create Tests ---

func TestReviewRepository_Create_RefreshesAggregate(t *testing.T) {
	repo, mock := newReviewRepo(t)

	rev := sampleReview()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO book_reviews").
		WithArgs(rev.ID, rev.BookID, rev.UserID, rev.Rating, rev.Comment, rev.CreatedAt, rev.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE books").
		WithArgs(rev.BookID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), rev)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_Duplicate(t *testing.T) {
	repo, mock := newReviewRepo(t)

	rev := sampleReview()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO book_reviews").
		WithArgs(rev.ID, rev.BookID, rev.UserID, rev.Rating, rev.Comment, rev.CreatedAt, rev.UpdatedAt).
		WillReturnError(errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), rev)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

// --- Update Tests ---

func TestReviewRepository_Update_RefreshesAggregate(t *testing.T) {
	repo, mock := newReviewRepo(t)

	rev := sampleReview()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE book_reviews").
		WithArgs(rev.Rating, rev.Comment, pgxmock.AnyArg(), rev.BookID, rev.UserID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE books").
		WithArgs(rev.BookID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), rev)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Update_NotFound(t *testing.T) {
	repo, mock := newReviewRepo(t)

	rev := sampleReview()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE book_reviews").
		WithArgs(rev.Rating, rev.Comment, pgxmock.AnyArg(), rev.BookID, rev.UserID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), rev)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// --- Delete Tests ---

func TestReviewRepository_Delete_RefreshesAggregate(t *testing.T) {
	repo, mock := newReviewRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM book_reviews").
		WithArgs("book-001", "user-001").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("UPDATE books").
		WithArgs("book-001", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "book-001", "user-001")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newReviewRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM book_reviews").
		WithArgs("book-001", "user-999").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "book-001", "user-999")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// --- Read Tests ---

func TestReviewRepository_GetByBookAndUser_NotFound(t *testing.T) {
	repo, mock := newReviewRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM book_reviews").
		WithArgs("book-001", "user-001").
		WillReturnError(pgx.ErrNoRows)

	rev, err := repo.GetByBookAndUser(context.Background(), "book-001", "user-001")
	assert.Nil(t, rev)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestReviewRepository_ListByBook(t *testing.T) {
	repo, mock := newReviewRepo(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "book_id", "user_id", "rating", "comment", "created_at", "updated_at", "total_count",
	}).
		AddRow("review-001", "book-001", "user-001", 4, "Great read", now, now, 2).
		AddRow("review-002", "book-001", "user-002", 5, "Loved it", now, now, 2)

	mock.ExpectQuery("SELECT (.+) FROM book_reviews").
		WithArgs("book-001", 20, 0).
		WillReturnRows(rows)

	reviews, total, err := repo.ListByBook(context.Background(), "book-001", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, reviews, 2)
}
