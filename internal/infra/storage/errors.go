// Package storage содержит общие для репозиториев помощники: классификацию
// ошибок драйверов PostgreSQL и SQLite.
package storage

import (
	"errors"

	"github.com/lib/pq"
)

// Коды ошибок PostgreSQL
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
)

// Основные коды ошибок SQLite (младший байт расширенного кода)
const (
	sqliteBusy   = 5
	sqliteLocked = 6
)

// sqliteError ошибки modernc.org/sqlite отдают код через метод Code
type sqliteError interface {
	error
	Code() int
}

// IsRetryable возвращает true для ошибок, после которых транзакцию можно
// повторить целиком: конфликт сериализации, дедлок, занятая база SQLite
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqSerializationFailure || pqErr.Code == pqDeadlockDetected
	}

	var liteErr sqliteError
	if errors.As(err, &liteErr) {
		code := liteErr.Code() & 0xff
		return code == sqliteBusy || code == sqliteLocked
	}

	return false
}

// IsLockTimeout возвращает true, если запрос не дождался блокировки (lock_timeout)
func IsLockTimeout(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqLockNotAvailable
}
