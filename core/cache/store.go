package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the cache surface the services depend on. Values are opaque bytes;
// callers choose the encoding.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error
	InvalidateTag(ctx context.Context, tag string) error
}

type memoryStore struct {
	c *Cache
}

// NewMemoryStore wraps an in-process Cache.
func NewMemoryStore(c *Cache) Store {
	return &memoryStore{c: c}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	s.c.Set(key, value, ttl, tags...)
	return nil
}

func (s *memoryStore) InvalidateTag(_ context.Context, tag string) error {
	s.c.DeleteByTag(tag)
	return nil
}

type redisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore keeps values in Redis under prefix; each tag is a Redis set of keys.
func NewRedisStore(rdb *redis.Client, prefix string) Store {
	return &redisStore{rdb: rdb, prefix: prefix}
}

func (s *redisStore) key(k string) string    { return s.prefix + k }
func (s *redisStore) tagKey(t string) string { return s.prefix + "tag:" + t }

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.key(key), value, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, s.tagKey(tag), s.key(key))
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisStore) InvalidateTag(ctx context.Context, tag string) error {
	keys, err := s.rdb.SMembers(ctx, s.tagKey(tag)).Result()
	if err != nil {
		return err
	}
	keys = append(keys, s.tagKey(tag))
	return s.rdb.Del(ctx, keys...).Err()
}
