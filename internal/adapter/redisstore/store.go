// Package redisstore keeps client state in one Redis hash per client.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/zari-storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

type Store struct {
	client *redis.Client
	// ttl is refreshed on every write; zero keeps state forever.
	ttl time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Load(ctx context.Context, clientID, key string) ([]byte, error) {
	data, err := s.client.HGet(ctx, stateKey(clientID), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget failed: %w", err)
	}
	return data, nil
}

func (s *Store) Save(ctx context.Context, clientID, key string, raw []byte) error {
	k := stateKey(clientID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, key, raw)
		if s.ttl > 0 {
			pipe.Expire(ctx, k, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset failed: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, clientID, key string) error {
	if err := s.client.HDel(ctx, stateKey(clientID), key).Err(); err != nil {
		return fmt.Errorf("redis hdel failed: %w", err)
	}
	return nil
}

// Ping checks connectivity at startup.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func stateKey(clientID string) string {
	return fmt.Sprintf("client:%s", clientID)
}

var _ domain.StateStore = (*Store)(nil)
