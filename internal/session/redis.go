package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:  client,
		baseTTL: 14 * 24 * time.Hour,
	}
}

// RedisStore keeps sessions in Redis as JSON with a sliding TTL. Session
// expiry lives here; the values inside carry no expiry of their own.
type RedisStore struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, storeKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var values map[string]json.RawMessage
	if err2 := json.Unmarshal(data, &values); err2 != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err2)
	}

	return restore(id, values), nil
}

func (r RedisStore) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess.values)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(60)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, storeKey(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, storeKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func storeKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}
