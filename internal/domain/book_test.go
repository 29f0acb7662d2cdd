package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscountedPrice_NoDiscount(t *testing.T) {
	book := &Book{Price: 1999, Discount: 0}
	assert.Equal(t, int64(1999), book.DiscountedPrice())
}

func TestDiscountedPrice_WithDiscount(t *testing.T) {
	book := &Book{Price: 2000, Discount: 25}
	assert.Equal(t, int64(1500), book.DiscountedPrice())
}

func TestInStock(t *testing.T) {
	book := &Book{Stock: 3}
	assert.True(t, book.InStock(3))
	assert.False(t, book.InStock(4))
}

func TestIsValidCategory(t *testing.T) {
	assert.True(t, IsValidCategory("Fiction"))
	assert.True(t, IsValidCategory("Science Fiction"))
	assert.False(t, IsValidCategory("fiction"))
	assert.False(t, IsValidCategory(""))
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, IsValidFormat("Paperback"))
	assert.True(t, IsValidFormat("Audiobook"))
	assert.False(t, IsValidFormat("VHS"))
}

func TestIsValidLanguage(t *testing.T) {
	assert.True(t, IsValidLanguage("English"))
	assert.False(t, IsValidLanguage("Latin"))
}

func TestIsValidRating(t *testing.T) {
	assert.False(t, IsValidRating(0))
	assert.True(t, IsValidRating(1))
	assert.True(t, IsValidRating(5))
	assert.False(t, IsValidRating(6))
}
