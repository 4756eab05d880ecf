package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"go.uber.org/zap"
)

// Key layout. Everything Sprinta stores in Redis is derived data that can be
// dropped at any time.
const (
	unreadKeyPrefix    = "notifications:unread:"
	rateLimitKeyPrefix = "rate_limit:"
)

// RedisClient holds the pooled connection used for unread counters and
// shared rate limits.
type RedisClient struct {
	client *redis.Client
}

var globalRedis *RedisClient

// NewRedisClient connects to host:port, verifies the connection and makes the
// client available through GetRedisClient.
func NewRedisClient(host string, port string, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}
	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	rc := &RedisClient{client: client}
	globalRedis = rc
	logger.Log.Info("Redis client connected", zap.String("address", addr))
	return rc, nil
}

// GetRedisClient returns the process-wide client, or nil when Redis was
// never configured.
func GetRedisClient() *RedisClient {
	return globalRedis
}

// Close releases the pool and unregisters the global client.
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	if globalRedis == rc {
		globalRedis = nil
	}
	return rc.client.Close()
}

// Ping checks connectivity; it is registered with the service validator.
func (rc *RedisClient) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// UnreadCount returns the cached unread notification count. ok is false on a
// cache miss.
func (rc *RedisClient) UnreadCount(ctx context.Context, userID string) (n int64, ok bool, err error) {
	n, err = rc.client.Get(ctx, unreadKeyPrefix+userID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// SetUnreadCount caches n for userID until ttl elapses.
func (rc *RedisClient) SetUnreadCount(ctx context.Context, userID string, n int64, ttl time.Duration) error {
	return rc.client.Set(ctx, unreadKeyPrefix+userID, n, ttl).Err()
}

// InvalidateUnread drops the cached counts of the given users.
func (rc *RedisClient) InvalidateUnread(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = unreadKeyPrefix + id
	}
	return rc.client.Del(ctx, keys...).Err()
}

// CountInWindow records one hit for key in a fixed window and returns the
// hits so far together with the time left in the window. The window starts at
// the first hit.
func (rc *RedisClient) CountInWindow(ctx context.Context, scope, key string, window time.Duration) (int64, time.Duration, error) {
	redisKey := rateLimitKeyPrefix + scope + ":" + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, window)
		ttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	left := ttl.Val()
	if left <= 0 {
		left = window
	}
	return incr.Val(), left, nil
}
