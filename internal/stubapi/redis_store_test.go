package stubapi

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/cartsync/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTestRedis creates a miniredis server and a client pointing at it.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisCartRepository_RoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewRedisCartRepository(client)
	ctx := context.Background()

	_, err := repo.GetCart(ctx, "7")
	assert.ErrorIs(t, err, ErrCartNotFound)

	cart := &StoredCart{
		UserID:     "7",
		Lines:      []StoredLine{{LineID: 1, ProductID: mouseID, Quantity: 2}},
		LastLineID: 1,
		UpdatedAt:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.SaveCart(ctx, cart))

	assert.True(t, mr.Exists("cart:7"))
	ttl := mr.TTL("cart:7")
	assert.GreaterOrEqual(t, ttl, 24*time.Hour)
	assert.Less(t, ttl, 25*time.Hour)

	got, err := repo.GetCart(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, cart.Lines, got.Lines)
	assert.Equal(t, int64(1), got.LastLineID)
	assert.True(t, cart.UpdatedAt.Equal(got.UpdatedAt))

	require.NoError(t, repo.DeleteCart(ctx, "7"))
	assert.False(t, mr.Exists("cart:7"))
}

func TestRedisCartRepository_CorruptDocument(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewRedisCartRepository(client)
	require.NoError(t, mr.Set("cart:7", "not json"))

	_, err := repo.GetCart(context.Background(), "7")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCartNotFound)
}

func TestRedisCartRepository_ConnectionError(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewRedisCartRepository(client)
	mr.Close()

	_, err := repo.GetCart(context.Background(), "7")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get failed")
}

func TestRedisOrderRepository(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewRedisOrderRepository(client)
	ctx := context.Background()

	id1, err := repo.NextOrderID(ctx)
	require.NoError(t, err)
	id2, err := repo.NextOrderID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)

	placed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.AddOrder(ctx, "7", domain.Order{ID: id1, Description: "first", Total: decimal.NewFromInt(25), PlacedAt: placed}))
	require.NoError(t, repo.AddOrder(ctx, "7", domain.Order{ID: id2, Description: "second", Total: decimal.NewFromInt(5), PlacedAt: placed}))

	list, err := mr.List("orders:7")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	orders, err := repo.ListOrders(ctx, "7")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "first", orders[0].Description)
	assert.True(t, decimal.NewFromInt(25).Equal(orders[0].Total))
	assert.True(t, placed.Equal(orders[1].PlacedAt))

	empty, err := repo.ListOrders(ctx, "8")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestService_WithRedisRepositories(t *testing.T) {
	client, _ := setupTestRedis(t)
	svc := NewService(testCatalog(), NewRedisCartRepository(client), NewRedisOrderRepository(client), zap.NewNop())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "1", mouseID, 2)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, "1", mouseID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	order, _, err := svc.Checkout(ctx, "1", "redis order")
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.ID)

	_, err = svc.GetCart(ctx, "1")
	assert.ErrorIs(t, err, ErrCartNotFound)

	got, err := svc.GetOrder(ctx, "1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, "redis order", got.Description)
}
