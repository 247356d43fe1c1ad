package redislock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/infra/lock"
)

type nopLogger struct{}

func (nopLogger) Warn(string, ...interface{}) {}

// Тест требует запущенный Redis: REDIS_ADDR=localhost:6379 go test ./...
func newTestLocker(t *testing.T) *Locker {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR is not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())

	prefix := "appointments:test:" + t.Name()
	return NewLocker(rdb, prefix, 5*time.Second, nopLogger{})
}

func TestNewLocker_KeyPrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "plain", prefix: "appointments:lock", want: "appointments:lock:reservations:2025-06-10"},
		{name: "trailing colon", prefix: "appointments:lock:", want: "appointments:lock:reservations:2025-06-10"},
		{name: "spaces and colons", prefix: " shop:: ", want: "shop:reservations:2025-06-10"},
		{name: "empty", prefix: "", want: "appointments:lock:reservations:2025-06-10"},
		{name: "only colons", prefix: ":::", want: "appointments:lock:reservations:2025-06-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLocker(nil, tt.prefix, time.Second, nopLogger{})
			assert.Equal(t, tt.want, l.fullKey("reservations:2025-06-10"))
		})
	}
}

func TestLocker_TimeoutAndRelease(t *testing.T) {
	l := newTestLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "2025-06-10", time.Second)
	require.NoError(t, err)

	_, err = l.Lock(ctx, "2025-06-10", 50*time.Millisecond)
	assert.ErrorIs(t, err, lock.ErrLockTimeout)

	unlock()
	unlock()

	again, err := l.Lock(ctx, "2025-06-10", 50*time.Millisecond)
	require.NoError(t, err)
	again()
}

func TestLocker_ReleaseDoesNotDropForeignLock(t *testing.T) {
	l := newTestLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "k", time.Second)
	require.NoError(t, err)

	// Чужой токен не должен снимать блокировку
	l.releaser(l.prefix+":k", "foreign-token")()

	_, err = l.Lock(ctx, "k", 30*time.Millisecond)
	assert.ErrorIs(t, err, lock.ErrLockTimeout)
	unlock()
}
