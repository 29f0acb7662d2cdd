package domain

import "time"

// Cart item limits.
const (
	MaxCartItems        = 50
	MaxCartItemQuantity = 99
)

// Cart is a user's shopping cart. Items are unique by book ID; adding a book
// already in the cart merges quantities. The cart lives in Redis with a TTL.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is one (book, quantity) entry with display fields snapshotted
// from the catalog at add time.
type CartItem struct {
	BookID     string `json:"book_id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	CoverImage string `json:"cover_image,omitempty"`
	Price      int64  `json:"price"`
	Quantity   int    `json:"quantity"`
}

// Subtotal returns the sum of line totals in cents.
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// TotalQuantity returns the total number of units across all items.
func (c *Cart) TotalQuantity() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// FindItem returns the index of the item for the given book, or -1.
func (c *Cart) FindItem(bookID string) int {
	for i, item := range c.Items {
		if item.BookID == bookID {
			return i
		}
	}
	return -1
}

// AddItem merges the given item into the cart, combining quantities when the
// book is already present. The merged quantity is capped at
// MaxCartItemQuantity.
func (c *Cart) AddItem(item CartItem) {
	if i := c.FindItem(item.BookID); i >= 0 {
		q := c.Items[i].Quantity + item.Quantity
		if q > MaxCartItemQuantity {
			q = MaxCartItemQuantity
		}
		c.Items[i].Quantity = q
		return
	}
	c.Items = append(c.Items, item)
}

// RemoveItem deletes the item for the given book if present.
func (c *Cart) RemoveItem(bookID string) {
	if i := c.FindItem(bookID); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}
