package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ksaito/hatchobori-lunch-backend/config"
	"github.com/ksaito/hatchobori-lunch-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Cache tags grouping listing entries for bulk invalidation.
const (
	TagRestaurants = "restaurants"
	TagCategories  = "categories"
)

const defaultTTL = 7 * 24 * time.Hour

// Store is the cache side channel consumed by services. Writes notify it
// per affected tag; reads may come back stale for at most one generation.
// Implementations must never fail the caller.
type Store interface {
	Get(tag, key string) ([]byte, bool)
	Set(tag, key string, value []byte)
	Invalidate(tag string)
}

type redisStore struct {
	client *redis.Client
}

// NewRedis connects to Redis and returns a tag-aware cache store.
func NewRedis(cfg *config.RedisConfig) (Store, error) {
	logger.Info("Initializing Redis cache", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis cache connection established successfully", nil)
	return &redisStore{client: client}, nil
}

func entryKey(tag, key string) string {
	return fmt.Sprintf("cache:%s:%s", tag, key)
}

func tagSetKey(tag string) string {
	return fmt.Sprintf("cachetag:%s", tag)
}

func (s *redisStore) Get(tag, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val, err := s.client.Get(ctx, entryKey(tag, key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Cache read failed", map[string]interface{}{
				"tag":   tag,
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil, false
	}
	return val, true
}

func (s *redisStore) Set(tag, key string, value []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	full := entryKey(tag, key)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, full, value, defaultTTL)
	pipe.SAdd(ctx, tagSetKey(tag), full)
	pipe.Expire(ctx, tagSetKey(tag), defaultTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("Cache write failed", map[string]interface{}{
			"tag":   tag,
			"key":   key,
			"error": err.Error(),
		})
	}
}

// Invalidate drops every cached entry registered under the tag.
func (s *redisStore) Invalidate(tag string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	members, err := s.client.SMembers(ctx, tagSetKey(tag)).Result()
	if err != nil {
		logger.Warn("Cache invalidation lookup failed", map[string]interface{}{
			"tag":   tag,
			"error": err.Error(),
		})
		return
	}

	keys := append(members, tagSetKey(tag))
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("Cache invalidation failed", map[string]interface{}{
			"tag":   tag,
			"error": err.Error(),
		})
		return
	}

	logger.Debug("Cache tag invalidated", map[string]interface{}{
		"tag":     tag,
		"entries": len(members),
	})
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

// Close closes the underlying connection when the store has one.
func Close(s Store) error {
	if rs, ok := s.(*redisStore); ok {
		logger.Info("Closing Redis cache connection", nil)
		return rs.Close()
	}
	return nil
}

type noopStore struct{}

// NewNoop returns a cache store that caches nothing. Used when Redis is
// disabled and in tests.
func NewNoop() Store {
	return noopStore{}
}

func (noopStore) Get(tag, key string) ([]byte, bool) { return nil, false }
func (noopStore) Set(tag, key string, value []byte)  {}
func (noopStore) Invalidate(tag string)              {}
