// Package local реализует блокировку по ключу внутри одного процесса.
package local

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/infra/lock"
)

type entry struct {
	sem  chan struct{}
	refs int
}

// Locker мьютекс на ключ. Записи удаляются из карты, когда ключ никто не ждёт.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewLocker создаёт блокировщик
func NewLocker() *Locker {
	return &Locker{entries: make(map[string]*entry)}
}

// Lock захватывает ключ, ожидая не дольше timeout (0 - без ограничения, только ctx).
// Возвращает функцию освобождения; повторный вызов безопасен.
func (l *Locker) Lock(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	e := l.acquireEntry(key)

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case e.sem <- struct{}{}:
	case <-timer:
		l.releaseEntry(key, e)
		return nil, lock.ErrLockTimeout
	case <-ctx.Done():
		l.releaseEntry(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.releaseEntry(key, e)
		})
	}, nil
}

func (l *Locker) acquireEntry(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *Locker) releaseEntry(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// size количество ключей в карте (для тестов)
func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
