package domain

import "time"

// Review rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// MaxReviewCommentLength caps the free-text comment.
const MaxReviewCommentLength = 500

// Review is a user's review of a book. At most one review exists per
// (book, user) pair, enforced by a storage constraint.
type Review struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsValidRating checks the rating is within [1,5].
func IsValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
