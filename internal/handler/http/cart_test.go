package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/BookstoreGo/internal/domain"
	apperrors "github.com/utafrali/BookstoreGo/pkg/errors"
)

func userCart(items ...domain.CartItem) *domain.Cart {
	if items == nil {
		items = []domain.CartItem{}
	}
	return &domain.Cart{UserID: testUserID, Items: items}
}

func TestGetCart_RequiresUser(t *testing.T) {
	router := setupRouter(newTestRepos())

	rec := doRequest(router, http.MethodGet, "/api/v1/cart", "", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetCart_EmptyCart(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.carts.On("Get", mock.Anything, testUserID).Return(userCart(), nil)

	rec := doRequest(router, http.MethodGet, "/api/v1/cart", testUserID, "customer", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data domain.Cart `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Data.Items)
}

func TestAddCartItem_Success(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.books.On("GetByID", mock.Anything, testBookID, false).Return(sampleBook(), nil)
	repos.carts.On("Get", mock.Anything, testUserID).Return(userCart(), nil)
	repos.carts.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 1 && c.Items[0].Quantity == 2
	})).Return(nil)

	body, _ := json.Marshal(map[string]any{"book_id": testBookID, "quantity": 2})
	rec := doRequest(router, http.MethodPost, "/api/v1/cart/items", testUserID, "customer", bytes.NewReader(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	repos.carts.AssertExpectations(t)
}

func TestAddCartItem_ValidationError(t *testing.T) {
	router := setupRouter(newTestRepos())

	body, _ := json.Marshal(map[string]any{"book_id": testBookID, "quantity": 0})
	rec := doRequest(router, http.MethodPost, "/api/v1/cart/items", testUserID, "customer", bytes.NewReader(body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddCartItem_InsufficientStock(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	low := sampleBook()
	low.Stock = 1
	repos.books.On("GetByID", mock.Anything, testBookID, false).Return(low, nil)

	body, _ := json.Marshal(map[string]any{"book_id": testBookID, "quantity": 5})
	rec := doRequest(router, http.MethodPost, "/api/v1/cart/items", testUserID, "customer", bytes.NewReader(body))

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "INSUFFICIENT_STOCK", resp.Error.Code)
}

func TestUpdateCartItem_ZeroRemovesLine(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.carts.On("Get", mock.Anything, testUserID).
		Return(userCart(domain.CartItem{BookID: testBookID, Quantity: 2}), nil)
	repos.carts.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 0
	})).Return(nil)

	body, _ := json.Marshal(map[string]any{"quantity": 0})
	rec := doRequest(router, http.MethodPut, "/api/v1/cart/items/"+testBookID, testUserID, "customer", bytes.NewReader(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	repos.carts.AssertExpectations(t)
}

func TestRemoveCartItem_MissingLine(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.carts.On("Get", mock.Anything, testUserID).Return(userCart(), nil)

	rec := doRequest(router, http.MethodDelete, "/api/v1/cart/items/"+testBookID, testUserID, "customer", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearCart_Success(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.carts.On("Delete", mock.Anything, testUserID).Return(nil)

	rec := doRequest(router, http.MethodDelete, "/api/v1/cart", testUserID, "customer", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	repos.carts.AssertExpectations(t)
}

func TestClearCart_RedisError(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.carts.On("Delete", mock.Anything, testUserID).
		Return(apperrors.Internal(assert.AnError))

	rec := doRequest(router, http.MethodDelete, "/api/v1/cart", testUserID, "customer", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
