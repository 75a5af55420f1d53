package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xtrntr/marketplace/internal/models"
)

// Redis stores listing snapshots as JSON with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Listings = (*Redis)(nil)

func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{client: rdb, ttl: ttl}
}

func redisKey(key models.Key) string { return "listing:" + key.String() }

// Ping checks that the server is reachable.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.client.Close()
}

func (c *Redis) Get(ctx context.Context, key models.Key) (*Listing, error) {
	b, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing %s: %w", key, err)
	}
	var l Listing
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("failed to decode listing %s: %w", key, err)
	}
	return &l, nil
}

func (c *Redis) Set(ctx context.Context, listing *Listing) error {
	b, err := json.Marshal(listing)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKey(listing.Key), b, c.ttl).Err()
}

func (c *Redis) Invalidate(ctx context.Context, key models.Key) error {
	return c.client.Del(ctx, redisKey(key)).Err()
}
