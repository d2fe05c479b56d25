package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"pos_sync/internal/models"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client caches read projections that the app shell polls frequently: the
// per-user order view and the latest sync status. The local store stays the
// source of truth; a cold or absent cache just means a direct store read.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

type SyncStatusRecord struct {
	State     string    `json:"state"`
	LastError string    `json:"last_error,omitempty"`
	SyncedAt  time.Time `json:"synced_at"`
}

func Initialize(redisURL string, ttl time.Duration) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// RefreshUserOrders replaces the cached order view for one user.
func (c *Client) RefreshUserOrders(user string, orders []models.Order) error {
	ctx := context.Background()
	jsonData, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to marshal user orders: %w", err)
	}
	return c.rdb.Set(ctx, "orders:user:"+user, jsonData, c.ttl).Err()
}

// GetUserOrders returns the cached view, or nil on a miss.
func (c *Client) GetUserOrders(user string) ([]models.Order, error) {
	ctx := context.Background()
	val, err := c.rdb.Get(ctx, "orders:user:"+user).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user orders: %w", err)
	}

	var orders []models.Order
	if err := json.Unmarshal([]byte(val), &orders); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user orders: %w", err)
	}
	return orders, nil
}

// StoreSyncStatus records the outcome of the latest sync pass.
func (c *Client) StoreSyncStatus(state, lastError string, syncedAt time.Time) error {
	ctx := context.Background()
	record := SyncStatusRecord{State: state, LastError: lastError, SyncedAt: syncedAt}
	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal sync status: %w", err)
	}
	return c.rdb.Set(ctx, "sync:status", jsonData, 0).Err()
}

func (c *Client) GetSyncStatus() (*SyncStatusRecord, error) {
	ctx := context.Background()
	val, err := c.rdb.Get(ctx, "sync:status").Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sync status: %w", err)
	}

	var record SyncStatusRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync status: %w", err)
	}
	return &record, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
