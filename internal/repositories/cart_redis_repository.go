package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/redis/go-redis/v9"
)

const cartKeyPrefix = "storefront:cart:"

// RedisCartRepository keeps each cart as one JSON document in Redis.
type RedisCartRepository struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisCartRepository creates a RedisCartRepository. Every call is bounded by timeout.
func NewRedisCartRepository(client *redis.Client, timeout time.Duration) *RedisCartRepository {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RedisCartRepository{client: client, timeout: timeout}
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func cartKey(userID string) string {
	return cartKeyPrefix + userID
}

// Get loads the user's cart.
func (r *RedisCartRepository) Get(userID string) (*models.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	data, err := r.client.Get(ctx, cartKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.NewCart(userID), nil
		}
		return nil, models.Persistence(fmt.Sprintf("get cart of %s", userID), err)
	}
	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, models.Persistence(fmt.Sprintf("decode cart of %s", userID), err)
	}
	cart.UserID = userID
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// Save writes the whole cart document.
func (r *RedisCartRepository) Save(cart *models.Cart) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	cart.UpdatedAt = time.Now()
	data, err := json.Marshal(cart)
	if err != nil {
		return models.Persistence(fmt.Sprintf("encode cart of %s", cart.UserID), err)
	}
	if err := r.client.Set(ctx, cartKey(cart.UserID), data, 0).Err(); err != nil {
		return models.Persistence(fmt.Sprintf("save cart of %s", cart.UserID), err)
	}
	return nil
}

// Delete removes the user's cart.
func (r *RedisCartRepository) Delete(userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return models.Persistence(fmt.Sprintf("delete cart of %s", userID), err)
	}
	return nil
}
