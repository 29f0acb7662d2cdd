package domain

import (
	"time"

	"github.com/samber/lo"
)

// Book categories. The catalog accepts only these values.
var Categories = []string{
	"Fiction",
	"Non-Fiction",
	"Science Fiction",
	"Mystery",
	"Romance",
	"Thriller",
	"Biography",
	"History",
	"Science",
	"Technology",
	"Self-Help",
	"Business",
	"Children",
	"Young Adult",
	"Poetry",
	"Drama",
	"Comics",
	"Cooking",
	"Travel",
	"Religion",
}

// Book formats.
var Formats = []string{"Paperback", "Hardcover", "E-Book", "Audiobook", "Digital"}

// Book languages.
var Languages = []string{
	"English", "Spanish", "French", "German", "Italian",
	"Portuguese", "Russian", "Chinese", "Japanese", "Korean",
}

// Book represents a title in the catalog. Prices are in cents. Books are
// never physically deleted; IsActive=false hides them from public listing
// and blocks new orders and reviews.
type Book struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Description   string     `json:"description"`
	ISBN          string     `json:"isbn"`
	Price         int64      `json:"price"`
	OriginalPrice *int64     `json:"original_price,omitempty"`
	Category      string     `json:"category"`
	Subcategory   string     `json:"subcategory,omitempty"`
	Format        string     `json:"format"`
	Language      string     `json:"language"`
	Pages         *int       `json:"pages,omitempty"`
	Publisher     string     `json:"publisher,omitempty"`
	PublishDate   *time.Time `json:"publish_date,omitempty"`
	CoverImage    string     `json:"cover_image"`
	Tags          []string   `json:"tags,omitempty"`
	Stock         int        `json:"stock"`
	Discount      int        `json:"discount"`
	Featured      bool       `json:"featured"`
	Bestseller    bool       `json:"bestseller"`
	NewRelease    bool       `json:"new_release"`
	Ratings       Ratings    `json:"ratings"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Ratings is the denormalized review aggregate stored on the book row and
// recomputed in the same transaction as every review write.
type Ratings struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// DiscountedPrice returns the price in cents after the book's percent
// discount is applied.
func (b *Book) DiscountedPrice() int64 {
	if b.Discount <= 0 {
		return b.Price
	}
	return b.Price - b.Price*int64(b.Discount)/100
}

// InStock reports whether at least qty units are available.
func (b *Book) InStock(qty int) bool {
	return b.Stock >= qty
}

// IsValidCategory checks whether the given category is in the closed set.
func IsValidCategory(category string) bool {
	return lo.Contains(Categories, category)
}

// IsValidFormat checks whether the given format is in the closed set.
func IsValidFormat(format string) bool {
	return lo.Contains(Formats, format)
}

// IsValidLanguage checks whether the given language is in the closed set.
func IsValidLanguage(language string) bool {
	return lo.Contains(Languages, language)
}
