package content

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

// ErrCacheMiss is returned by a Cache when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the key-value store backing CachedProvider.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache implements Cache on a go-redis client.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps a connected client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// CachedProvider remembers the last good quiz per topic and mode and serves
// it when the wrapped provider fails.
type CachedProvider struct {
	inner Provider
	cache Cache
	ttl   time.Duration
}

// NewCachedProvider wraps inner. A zero ttl keeps entries for a week.
func NewCachedProvider(inner Provider, cache Cache, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &CachedProvider{inner: inner, cache: cache, ttl: ttl}
}

func (p *CachedProvider) Questions(ctx context.Context, req Request) ([]quiz.Question, error) {
	key := CacheKey(req)

	qs, err := p.inner.Questions(ctx, req)
	if err == nil && len(qs) > 0 {
		if blob, merr := json.Marshal(qs); merr == nil {
			if serr := p.cache.Set(ctx, key, blob, p.ttl); serr != nil {
				slog.Warn("failed to cache quiz", "topic_id", req.Topic.TopicID, "error", serr)
			}
		}
		return qs, nil
	}
	if err == nil {
		err = ErrNoQuestions
	}

	blob, cerr := p.cache.Get(ctx, key)
	if cerr != nil {
		if !errors.Is(cerr, ErrCacheMiss) {
			slog.Warn("quiz cache read failed", "topic_id", req.Topic.TopicID, "error", cerr)
		}
		return nil, err
	}
	var cached []quiz.Question
	if jerr := json.Unmarshal(blob, &cached); jerr != nil || len(cached) == 0 {
		return nil, err
	}

	slog.Warn("serving cached quiz after provider failure",
		"topic_id", req.Topic.TopicID,
		"questions", len(cached),
		"error", err,
	)
	return cached, nil
}

// CacheKey derives the cache key for a request. Learner identity is not part
// of the key.
func CacheKey(req Request) string {
	var buf [17]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(req.Topic.TopicID))
	binary.BigEndian.PutUint64(buf[8:16], uint64(count(req)))
	if req.Arena {
		buf[16] = 1
	}
	sum := blake2b.Sum256(buf[:])
	return fmt.Sprintf("dia:quiz:%s", hex.EncodeToString(sum[:16]))
}
