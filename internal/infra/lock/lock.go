// Package lock содержит блокировки календарной даты для приёма записей.
package lock

import "errors"

// ErrLockTimeout блокировка не получена за отведённое время
var ErrLockTimeout = errors.New("lock: timeout waiting for lock")
