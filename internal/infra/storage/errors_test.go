package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type fakeSQLiteError struct{ code int }

func (e fakeSQLiteError) Error() string { return fmt.Sprintf("sqlite error %d", e.code) }
func (e fakeSQLiteError) Code() int     { return e.code }

var errExec = errors.New("exec failed")

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("boom")))

	serialization := &pq.Error{Code: "40001"}
	assert.True(t, IsRetryable(serialization))
	assert.True(t, IsRetryable(fmt.Errorf("%w: Create: %w", errExec, serialization)))
	assert.True(t, IsRetryable(&pq.Error{Code: "40P01"}))
	assert.False(t, IsRetryable(&pq.Error{Code: "23505"}))

	assert.True(t, IsRetryable(fakeSQLiteError{code: 5}))
	assert.True(t, IsRetryable(fakeSQLiteError{code: 517})) // SQLITE_BUSY_SNAPSHOT
	assert.True(t, IsRetryable(fakeSQLiteError{code: 6}))
	assert.False(t, IsRetryable(fakeSQLiteError{code: 19}))
}

func TestIsLockTimeout(t *testing.T) {
	assert.True(t, IsLockTimeout(fmt.Errorf("wrap: %w", &pq.Error{Code: "55P03"})))
	assert.False(t, IsLockTimeout(&pq.Error{Code: "40001"}))
	assert.False(t, IsLockTimeout(nil))
}
