package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arcanium-studios/arcanium-backend/pkg/redis"
)

type snapshotStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// RedisRepository stores each cart as a JSON document that expires with the session.
type RedisRepository struct {
	store snapshotStore
	ttl   time.Duration
}

// NewRedisRepository builds a repository over the shared redis client.
func NewRedisRepository(store snapshotStore, ttl time.Duration) (*RedisRepository, error) {
	if store == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisRepository{store: store, ttl: ttl}, nil
}

func (r *RedisRepository) Load(ctx context.Context, sessionID string) (Persisted, error) {
	raw, err := r.store.Get(ctx, r.store.CartKey(sessionID))
	if errors.Is(err, redis.Nil) {
		return Persisted{}, ErrCartNotFound
	}
	if err != nil {
		return Persisted{}, fmt.Errorf("load cart: %w", err)
	}
	var out Persisted
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Persisted{}, fmt.Errorf("decode cart: %w", err)
	}
	return out, nil
}

// Save overwrites the stored document and refreshes its TTL.
func (r *RedisRepository) Save(ctx context.Context, sessionID string, cart Persisted) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := r.store.Set(ctx, r.store.CartKey(sessionID), payload, r.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.store.Del(ctx, r.store.CartKey(sessionID)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
