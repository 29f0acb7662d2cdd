package domain

import "time"

// WishlistItem links a user to a book they saved for later. Adding an
// already-saved book is idempotent.
type WishlistItem struct {
	UserID  string    `json:"user_id"`
	BookID  string    `json:"book_id"`
	AddedAt time.Time `json:"added_at"`
	Book    *Book     `json:"book,omitempty"`
}
