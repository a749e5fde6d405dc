package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const maxUpdateAttempts = 5

// RedisStore keeps session documents in Redis with the session TTL, so any
// API instance can serve a session.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

var _ Store = (*RedisStore)(nil)

// Get returns the document, or ok=false when the key is absent or expired.
func (s *RedisStore) Get(ctx context.Context, id uuid.UUID, kind string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, stateKey(id, kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s state: %w", kind, err)
	}
	return data, true, nil
}

// Update uses WATCH/MULTI and retries when another request changed the key
// between read and write.
func (s *RedisStore) Update(ctx context.Context, id uuid.UUID, kind string, fn func([]byte) ([]byte, error)) ([]byte, error) {
	key := stateKey(id, kind)
	var next []byte

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			current = nil
		} else if err != nil {
			return err
		}

		updated, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, s.ttl)
			return nil
		})
		if err == nil {
			next = updated
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return next, err
	}
	return nil, fmt.Errorf("update %s state: too much contention", kind)
}

// Delete removes the given kinds.
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID, kinds ...string) error {
	if len(kinds) == 0 {
		return nil
	}
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, stateKey(id, kind))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete session state: %w", err)
	}
	return nil
}
