package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"threatmap/internal/logger"
	"threatmap/internal/model"
)

// RedisStore keeps seen-event hashes in Redis with a native TTL, for
// deployments running multiple pipeline instances against one store.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr string, ttlHours int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("redis seen store connected", "addr", addr)
	return &RedisStore{
		client: client,
		ttl:    time.Duration(ttlHours) * time.Hour,
	}, nil
}

func seenKey(hash string) string {
	return "threatmap:seen:" + hash
}

func (rs *RedisStore) IsSeen(hash string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	n, err := rs.client.Exists(ctx, seenKey(hash)).Result()
	if err != nil {
		logger.Warn("redis seen lookup failed", "error", err)
		return false
	}
	return n > 0
}

func (rs *RedisStore) MarkSeen(event model.ThreatEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hash := seenHash(event)
	if err := rs.client.Set(ctx, seenKey(hash), event.SourceURL, rs.ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark seen: %w", err)
	}
	return nil
}

func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
