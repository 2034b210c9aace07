package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Aggregate statistics live under a small fixed key set and are deleted
// unconditionally on every invalidation. Listing keys are unbounded (one
// per filter combination), so every listing write also registers its key
// in a set; invalidation deletes the registered keys and the registry.
const (
	KeyUserStats     = "stats:users"
	KeyRoleStats     = "stats:roles"
	listingRegistry  = "users:list:keys"
	aggregateableTTL = 10 * time.Minute
)

type ReadModelStore struct {
	client *redis.Client
}

func NewReadModelStore(client *redis.Client) *ReadModelStore {
	return &ReadModelStore{client: client}
}

// Get unmarshals the cached value into out. The second return reports a hit.
func (s *ReadModelStore) Get(ctx context.Context, key string, out any) (bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (s *ReadModelStore) SetAggregate(ctx context.Context, key string, value any) error {
	return s.set(ctx, key, value, aggregateableTTL)
}

// SetListing stores a listing result and registers its key so it can be
// invalidated later without enumerating filter combinations.
func (s *ReadModelStore) SetListing(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, raw, ttl)
	pipe.SAdd(ctx, listingRegistry, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set listing %s: %w", key, err)
	}
	return nil
}

// Invalidate drops the aggregate keys and every registered listing key.
func (s *ReadModelStore) Invalidate(ctx context.Context) error {
	keys, err := s.client.SMembers(ctx, listingRegistry).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("cache registry read: %w", err)
	}

	del := append(keys, KeyUserStats, KeyRoleStats, listingRegistry)
	if err := s.client.Del(ctx, del...).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

func (s *ReadModelStore) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
