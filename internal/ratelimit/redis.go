package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "ratelimit:"

// RedisLimiter keeps the sliding window in a sorted set scored by
// request time, so multiple instances share one bucket per identifier.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	log    *zap.SugaredLogger
	now    func() time.Time
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration, log *zap.SugaredLogger) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		log:    log,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now()
	cutoff := now.Add(-l.window)
	redisKey := keyPrefix + key

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(cutoff.UnixNano(), 10))
	card := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit window read: %w", err)
	}

	if card.Val() >= int64(l.limit) {
		return false, nil
	}

	// Record only accepted requests.
	record := l.rdb.TxPipeline()
	record.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	record.Expire(ctx, redisKey, l.window)
	if _, err := record.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit window write: %w", err)
	}

	return true, nil
}
