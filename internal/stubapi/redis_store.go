package stubapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/cartsync/internal/domain"
	"github.com/redis/go-redis/v9"
)

const orderSeqKey = "orders:seq"

func NewRedisCartRepository(client *redis.Client) *RedisCartRepository {
	return &RedisCartRepository{
		client:  client,
		baseTTL: 24 * time.Hour,
	}
}

// RedisCartRepository stores each cart as a JSON document under cart:<user>.
// Abandoned carts expire.
type RedisCartRepository struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCartRepository) GetCart(ctx context.Context, userID string) (*StoredCart, error) {
	data, err := r.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart StoredCart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

func (r *RedisCartRepository) SaveCart(ctx context.Context, cart *StoredCart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(60)) * time.Minute
	if err := r.client.Set(ctx, cartKey(cart.UserID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCartRepository) DeleteCart(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func NewRedisOrderRepository(client *redis.Client) *RedisOrderRepository {
	return &RedisOrderRepository{client: client}
}

// RedisOrderRepository keeps a list of JSON orders per user under
// orders:<user> and a global id sequence.
type RedisOrderRepository struct {
	client *redis.Client
}

func (r *RedisOrderRepository) NextOrderID(ctx context.Context) (int64, error) {
	id, err := r.client.Incr(ctx, orderSeqKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr failed: %w", err)
	}
	return id, nil
}

func (r *RedisOrderRepository) AddOrder(ctx context.Context, userID string, order domain.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order failed: %w", err)
	}
	if err := r.client.RPush(ctx, ordersKey(userID), data).Err(); err != nil {
		return fmt.Errorf("redis rpush failed: %w", err)
	}
	return nil
}

func (r *RedisOrderRepository) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	raw, err := r.client.LRange(ctx, ordersKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange failed: %w", err)
	}

	orders := make([]domain.Order, 0, len(raw))
	for _, item := range raw {
		var o domain.Order
		if err := json.Unmarshal([]byte(item), &o); err != nil {
			return nil, fmt.Errorf("unmarshal order failed: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

func ordersKey(userID string) string {
	return fmt.Sprintf("orders:%s", userID)
}
