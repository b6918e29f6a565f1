package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"alertengine/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisThresholdStore keeps thresholded events in Redis sorted sets.
// Params: one sorted set per tenant/reduction key, member score = expiry.
// Returns: threshold store shared across reducer instances.
type RedisThresholdStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisThresholdConfig holds Redis connection settings.
// Params: address, credentials, and logical database.
// Returns: settings for the threshold backend.
type RedisThresholdConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisThresholdStore connects to Redis and returns the threshold backend.
// Params: Redis settings from config.
// Returns: initialized store or connection error.
func NewRedisThresholdStore(ctx context.Context, cfg RedisThresholdConfig) (*RedisThresholdStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis threshold store: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "threshold"
	}
	return &RedisThresholdStore{client: client, keyPrefix: prefix}, nil
}

// Save appends one thresholded event with its expiry as the member score.
// Params: context and event payload.
// Returns: Redis write error.
func (s *RedisThresholdStore) Save(ctx context.Context, event domain.ThresholdedEvent) error {
	member := event.CreateTime.UTC().Format(time.RFC3339Nano) + "|" + uuid.NewString()
	err := s.client.ZAdd(ctx, s.setKey(event.TenantID, event.ReductionKey), redis.Z{
		Score:  float64(event.ExpiryTime.UnixMilli()),
		Member: member,
	}).Err()
	if err != nil {
		return fmt.Errorf("save thresholded event: %w", err)
	}
	return nil
}

// CountActive counts unexpired events and prunes expired members.
// Params: tenant scope, reduction key, and current time.
// Returns: number of members with expiry at or after now.
func (s *RedisThresholdStore) CountActive(ctx context.Context, tenantID, reductionKey string, now time.Time) (int, error) {
	key := s.setKey(tenantID, reductionKey)
	cutoff := strconv.FormatInt(now.UnixMilli(), 10)

	// Expired members never count again, drop them on the read path.
	if err := s.client.ZRemRangeByScore(ctx, key, "-inf", "("+cutoff).Err(); err != nil {
		return 0, fmt.Errorf("prune thresholded events: %w", err)
	}
	count, err := s.client.ZCount(ctx, key, cutoff, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count thresholded events: %w", err)
	}
	return int(count), nil
}

// Close releases the Redis connection.
// Params: none.
// Returns: close error.
func (s *RedisThresholdStore) Close() error {
	return s.client.Close()
}

// setKey builds the sorted-set key for a tenant/reduction key pair.
// Params: tenant and reduction key.
// Returns: namespaced Redis key.
func (s *RedisThresholdStore) setKey(tenantID, reductionKey string) string {
	return s.keyPrefix + ":" + tenantID + ":" + reductionKey
}
