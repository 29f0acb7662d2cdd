package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/BookstoreGo/internal/domain"
)

func setupTestRedis(t *testing.T) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewCartRepository(client, 24*time.Hour)
	return repo, mr
}

func sampleCart() *domain.Cart {
	return &domain.Cart{
		UserID: "user-001",
		Items: []domain.CartItem{
			{BookID: "book-001", Title: "Dune", Author: "Frank Herbert", Price: 1499, Quantity: 2},
		},
	}
}

func TestCartRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	data, err := json.Marshal(cart)
	require.NoError(t, err)
	require.NoError(t, mr.Set("cart:user-001", string(data)))

	got, err := repo.Get(context.Background(), "user-001")
	require.NoError(t, err)
	assert.Equal(t, "user-001", got.UserID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "book-001", got.Items[0].BookID)
}

func TestCartRepository_Get_MissingReturnsEmptyCart(t *testing.T) {
	repo, _ := setupTestRedis(t)

	got, err := repo.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", got.UserID)
	assert.Empty(t, got.Items)
	assert.NotNil(t, got.Items)
}

func TestCartRepository_Save_RoundTrip(t *testing.T) {
	repo, _ := setupTestRedis(t)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))

	got, err := repo.Get(context.Background(), "user-001")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestCartRepository_Save_SetsTTL(t *testing.T) {
	repo, mr := setupTestRedis(t)

	require.NoError(t, repo.Save(context.Background(), sampleCart()))

	ttl := mr.TTL("cart:user-001")
	assert.Equal(t, 24*time.Hour, ttl)
}

func TestCartRepository_Delete_RemovesKey(t *testing.T) {
	repo, mr := setupTestRedis(t)

	require.NoError(t, repo.Save(context.Background(), sampleCart()))
	require.NoError(t, repo.Delete(context.Background(), "user-001"))

	assert.False(t, mr.Exists("cart:user-001"))
}

func TestCartRepository_Delete_MissingIsNoop(t *testing.T) {
	repo, _ := setupTestRedis(t)

	assert.NoError(t, repo.Delete(context.Background(), "nobody"))
}

func TestCartRepository_Get_Expired(t *testing.T) {
	repo, mr := setupTestRedis(t)

	require.NoError(t, repo.Save(context.Background(), sampleCart()))
	mr.FastForward(25 * time.Hour)

	got, err := repo.Get(context.Background(), "user-001")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}
