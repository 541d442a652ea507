package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/redis/go-redis/v9"
)

type cartEnvelope struct {
	Version  int               `json:"version"`
	Lines    []domain.CartLine `json:"lines"`
	Selected []int64           `json:"selected"`
}

// RedisStore persists session carts as one JSON document per session under a
// namespaced key. The TTL carries a small jitter so a burst of carts created
// together does not expire together.
type RedisStore struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:  client,
		baseTTL: 30 * 24 * time.Hour,
	}
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	key := storeKey(sessionID)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var env cartEnvelope
	if err2 := json.Unmarshal(data, &env); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err2)
	}
	if env.Version != schemaVersion {
		return nil, ErrNotFound
	}

	return &domain.Cart{Lines: env.Lines, Selected: env.Selected}, nil
}

func (r *RedisStore) Save(ctx context.Context, sessionID string, cart *domain.Cart) error {
	key := storeKey(sessionID)
	env := cartEnvelope{
		Version:  schemaVersion,
		Lines:    cart.Lines,
		Selected: cart.Selected,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(60)) * time.Minute
	ttl := r.baseTTL + jitter
	if ret := r.client.Set(ctx, key, string(data), ttl); ret.Err() != nil {
		return fmt.Errorf("redis set failed: %w", ret.Err())
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	key := storeKey(sessionID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func storeKey(sessionID string) string {
	return fmt.Sprintf("digibook:cart:%s", sessionID)
}
