// Package redislock реализует блокировку по ключу в Redis для нескольких экземпляров сервиса.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-AppointmentService/internal/infra/lock"
)

// ErrRedis ошибка обращения к Redis
var ErrRedis = errors.New("redislock: redis error")

// Освобождение только своей блокировки: ключ удаляется, если в нём наш токен
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

const defaultRetryInterval = 10 * time.Millisecond

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// Locker блокировка ключа через SET NX PX.
// ttl ограничивает время жизни блокировки, если процесс упал, не освободив её.
type Locker struct {
	rdb           redis.UniversalClient
	prefix        string
	ttl           time.Duration
	retryInterval time.Duration
	logger        Logger
}

// NewLocker создаёт блокировщик
func NewLocker(rdb redis.UniversalClient, prefix string, ttl time.Duration, logger Logger) *Locker {
	// ключ собирается как prefix + ":" + key, поэтому завершающие ":" лишние
	prefix = strings.TrimRight(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "appointments:lock"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{
		rdb:           rdb,
		prefix:        prefix,
		ttl:           ttl,
		retryInterval: defaultRetryInterval,
		logger:        logger,
	}
}

// Lock захватывает ключ, повторяя попытки до истечения timeout
func (l *Locker) Lock(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	fullKey := l.fullKey(key)
	token := uuid.NewString()

	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}

	for {
		ok, err := l.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: set %s: %v", ErrRedis, fullKey, err)
		}
		if ok {
			return l.releaser(fullKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, lock.ErrLockTimeout
		case <-time.After(l.retryInterval):
		}
	}
}

func (l *Locker) fullKey(key string) string {
	return l.prefix + ":" + key
}

func (l *Locker) releaser(key, token string) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true

		// Освобождаем даже если контекст запроса уже отменён
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			l.logger.Warn("redislock: failed to release %s: %v", key, err)
		}
	}
}
