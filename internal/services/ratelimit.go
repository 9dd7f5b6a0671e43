package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRateLimited means too many codes were issued for a phone within the
// trailing window.
var ErrRateLimited = errors.New("too many verification attempts")

// AttemptLimiter bounds verification issuances per key (phone+market) within
// a trailing window. Check is called before issuing, Note after a successful
// issue.
type AttemptLimiter interface {
	Check(ctx context.Context, key string) error
	Note(ctx context.Context, key string) error
}

// NewLimiter returns a Redis-backed limiter when a client is provided, so the
// bound holds across server instances, and an in-process limiter otherwise.
func NewLimiter(rdb *redis.Client, maxAttempts int, window time.Duration) AttemptLimiter {
	if rdb != nil {
		return &redisLimiter{rdb: rdb, max: maxAttempts, window: window}
	}
	return &memoryLimiter{
		attempts: make(map[string][]time.Time),
		max:      maxAttempts,
		window:   window,
	}
}

type memoryLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
}

func (l *memoryLimiter) Check(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.window)
	recent := l.attempts[key][:0]
	for _, at := range l.attempts[key] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}
	l.attempts[key] = recent

	if len(recent) >= l.max {
		return fmt.Errorf("%w: retry after %d minutes", ErrRateLimited, int(l.window.Minutes()))
	}
	return nil
}

func (l *memoryLimiter) Note(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts[key] = append(l.attempts[key], time.Now())
	return nil
}

// redisLimiter keeps issuance timestamps in a sorted set per key, trimmed to
// the trailing window and expired with it.
type redisLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

func (l *redisLimiter) key(key string) string {
	return "sms_attempts:" + key
}

func (l *redisLimiter) Check(ctx context.Context, key string) error {
	k := l.key(key)
	cutoff := time.Now().Add(-l.window).UnixNano()

	if err := l.rdb.ZRemRangeByScore(ctx, k, "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return err
	}

	count, err := l.rdb.ZCard(ctx, k).Result()
	if err != nil {
		return err
	}
	if count >= int64(l.max) {
		return fmt.Errorf("%w: retry after %d minutes", ErrRateLimited, int(l.window.Minutes()))
	}
	return nil
}

func (l *redisLimiter) Note(ctx context.Context, key string) error {
	k := l.key(key)
	now := time.Now().UnixNano()

	pipe := l.rdb.TxPipeline()
	pipe.ZAdd(ctx, k, redis.Z{Score: float64(now), Member: strconv.FormatInt(now, 10)})
	pipe.Expire(ctx, k, l.window)
	_, err := pipe.Exec(ctx)
	return err
}
