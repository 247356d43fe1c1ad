package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
)

var (
	// ErrBeginTx не удалось открыть транзакцию
	ErrBeginTx = errors.New("txmanager: failed to begin transaction")
	// ErrCommitTx не удалось зафиксировать транзакцию
	ErrCommitTx = errors.New("txmanager: failed to commit transaction")
	// ErrRetriesExhausted транзакция конфликтовала на каждой попытке
	ErrRetriesExhausted = errors.New("txmanager: serialization retries exhausted")
)

// RetryClassifier решает, можно ли повторить транзакцию после ошибки
type RetryClassifier func(err error) bool

// TransactionManager выполняет функции в транзакции.
// Транзакция передаётся через контекст (dbmetrics.WithTx), репозитории
// подхватывают её через dbmetrics.GetExecutor.
type TransactionManager struct {
	db          dbmetrics.TxBeginner
	isolation   sql.IsolationLevel
	maxRetries  int
	shouldRetry RetryClassifier
}

// Option настройка TransactionManager
type Option func(*TransactionManager)

// WithIsolation задаёт уровень изоляции для DoSerializable.
// SQLite не принимает LevelSerializable через database/sql, там передаётся LevelDefault.
func WithIsolation(level sql.IsolationLevel) Option {
	return func(m *TransactionManager) { m.isolation = level }
}

// WithRetries задаёт число повторов при конфликте сериализации
func WithRetries(n int, classifier RetryClassifier) Option {
	return func(m *TransactionManager) {
		if n < 0 {
			n = 0
		}
		m.maxRetries = n
		m.shouldRetry = classifier
	}
}

// NewTransactionManager создаёт менеджер транзакций
func NewTransactionManager(db dbmetrics.TxBeginner, opts ...Option) *TransactionManager {
	m := &TransactionManager{
		db:        db,
		isolation: sql.LevelSerializable,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Do выполняет fn в транзакции с уровнем изоляции по умолчанию
func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelDefault}, 0, fn)
}

// DoSerializable выполняет fn в сериализуемой транзакции.
// При конфликте сериализации транзакция повторяется целиком, поэтому fn
// не должна оставлять побочных эффектов вне БД.
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: m.isolation}, m.maxRetries, fn)
}

// DoReadOnly выполняет fn в транзакции только для чтения
func (m *TransactionManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelDefault, ReadOnly: true}, 0, fn)
}

func (m *TransactionManager) run(ctx context.Context, opts *sql.TxOptions, retries int, fn func(ctx context.Context) error) error {
	// Вложенный вызов переиспользует внешнюю транзакцию
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = m.once(ctx, opts, fn)
		if lastErr == nil {
			return nil
		}
		if m.shouldRetry == nil || !m.shouldRetry(lastErr) {
			return lastErr
		}
	}

	if retries == 0 {
		return lastErr
	}
	return fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}

func (m *TransactionManager) once(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginTx, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(dbmetrics.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitTx, err)
	}
	return nil
}
