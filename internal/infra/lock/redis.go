package lock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hotel-booking/internal/pkg/config"
	"hotel-booking/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockTimeout = errs.New("timed out waiting for lock")

const (
	keyPrefix    = "hotel-booking:lock:"
	retryBackoff = 25 * time.Millisecond
)

// Deletes the key only while it still holds our token, so an expired holder cannot release
// a lock that has since been taken by someone else.
var unlockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker serialises callers across nodes with SET NX PX. The TTL bounds how long a
// crashed holder can block a key.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	logger *slog.Logger
}

func NewRedisLocker(client *redis.Client, cfg config.RedisConfig, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{
		client: client,
		ttl:    cfg.LockTTL,
		wait:   cfg.LockWait,
		logger: logger,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	for {
		ok, err := l.client.SetNX(waitCtx, redisKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, errs.Wrapf(err, "acquire lock %s", key)
		}
		if ok {
			return func() { l.unlock(redisKey, token) }, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errs.Wrapf(ErrLockTimeout, "%s after %s", key, l.wait)
		case <-time.After(retryBackoff):
		}
	}
}

func (l *RedisLocker) unlock(redisKey, token string) {
	// The caller's context may already be gone; release on a fresh one.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := unlockScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
		l.logger.Warn("failed to release redis lock",
			slog.String("key", redisKey),
			slog.String("error", err.Error()),
		)
	}
}
