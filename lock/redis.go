package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultTTL     = 30 * time.Second
	defaultRetry   = 25 * time.Millisecond
	redisKeyPrefix = "household:lock:"
	releaseTimeout = 2 * time.Second
)

// releaseScript deletes the key only while it still carries our token, so
// a lock that expired and was taken by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOptions configures a Redis locker.
type RedisOptions struct {
	// TTL expires a lock whose holder died. Keep it well above the longest
	// critical section.
	TTL time.Duration

	// Wait bounds acquisition.
	Wait time.Duration

	// Retry is the polling interval while the key is held elsewhere.
	Retry time.Duration
}

// Redis is a cross-process Locker backed by SET NX PX.
type Redis struct {
	client *redis.Client
	opts   RedisOptions
	logger *zap.Logger
}

var _ Locker = (*Redis)(nil)

func NewRedis(client *redis.Client, opts RedisOptions, logger *zap.Logger) *Redis {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.Retry <= 0 {
		opts.Retry = defaultRetry
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, opts: opts, logger: logger}
}

func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	waitCtx, cancel := withWait(ctx, r.opts.Wait)
	defer cancel()

	ticker := time.NewTicker(r.opts.Retry)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(waitCtx, redisKey, token, r.opts.TTL).Result()
		if err != nil {
			if waitCtx.Err() != nil {
				return nil, timeoutError(ctx, key)
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return r.unlocker(redisKey, token), nil
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			return nil, timeoutError(ctx, key)
		}
	}
}

func (r *Redis) unlocker(redisKey, token string) Unlock {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			if err := releaseScript.Run(ctx, r.client, []string{redisKey}, token).Err(); err != nil {
				r.logger.Warn("failed to release lock",
					zap.String("key", redisKey),
					zap.Error(err))
			}
		})
	}
}
