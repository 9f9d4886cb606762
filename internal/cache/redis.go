package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cinebook/internal/models"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Client wraps Redis for the two read-side concerns: the seat-map cache
// and idempotency key claims. The authoritative state always lives in
// Postgres; everything here is reconstructible.
type Client struct {
	client *redis.Client
}

func NewClient(cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: rdb}, nil
}

func seatMapKey(showID int64) string {
	return fmt.Sprintf("seatmap:%d", showID)
}

// GetSeatMap returns the cached seat map, or (nil, nil) on a miss.
func (c *Client) GetSeatMap(ctx context.Context, showID int64) ([]models.SeatMapItem, error) {
	data, err := c.client.Get(ctx, seatMapKey(showID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}

	var items []models.SeatMapItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("invalid seat map in cache: %w", err)
	}
	return items, nil
}

func (c *Client) SetSeatMap(ctx context.Context, showID int64, items []models.SeatMapItem, ttl time.Duration) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, seatMapKey(showID), data, ttl).Err()
}

// InvalidateSeatMap drops the cached map after any seat transition.
func (c *Client) InvalidateSeatMap(ctx context.Context, showID int64) error {
	return c.client.Del(ctx, seatMapKey(showID)).Err()
}

// ClaimIdempotencyKey takes a short-lived claim on an idempotency key
// via SET NX. It returns true when this caller owns the key. The claim
// only narrows the race window; the unique index on
// bookings.idempotency_key is the real guarantee.
func (c *Client) ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, "idem:"+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency claim error: %w", err)
	}
	return ok, nil
}

// ReleaseIdempotencyKey frees the claim so a failed submission can be
// retried before the TTL elapses.
func (c *Client) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return c.client.Del(ctx, "idem:"+key).Err()
}

func (c *Client) Close() error {
	return c.client.Close()
}
