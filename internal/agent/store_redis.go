package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed BlobStore. Keys never expire.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore creates a store for one namespace.
func NewRedisStore(client *redis.Client, namespace string) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	return &RedisStore{client: client, namespace: namespace}, nil
}

func (s *RedisStore) key(kind BlobKind) string {
	return "dia:" + s.namespace + ":" + string(kind)
}

func (s *RedisStore) Load(ctx context.Context, kind BlobKind) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	b, err := s.client.Get(ctx, s.key(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s blob: %w", kind, err)
	}
	return b, nil
}

func (s *RedisStore) Save(ctx context.Context, kind BlobKind, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if err := s.client.Set(ctx, s.key(kind), data, 0).Err(); err != nil {
		return fmt.Errorf("set %s blob: %w", kind, err)
	}
	return nil
}
