package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/sqlbuilder"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

const table = "day_overrides"

var columns = []string{
	"booking_date",
	"is_closed",
	"open_minute",
	"close_minute",
	"capacity",
	"note",
	"created_at",
	"updated_at",
}

// Repository репозиторий переопределений расписания на дату
type Repository struct {
	db      DBExecutor
	dialect sqlbuilder.Dialect
}

// NewRepository создает новый экземпляр репозитория переопределений
func NewRepository(db DBExecutor, dialect sqlbuilder.Dialect) *Repository {
	return &Repository{db: db, dialect: dialect}
}

// GetByDate возвращает переопределение на дату
func (r *Repository) GetByDate(ctx context.Context, date types.Date) (*domain.DayOverride, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.dialect.Select(columns...).
		From(table).
		Where(squirrel.Eq{"booking_date": date}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByDate - build select query: %v", ErrBuildQuery, err)
	}

	override, err := scanOverride(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOverrideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByDate - scan override: %w", ErrScanRow, err)
	}
	return override, nil
}

// Upsert создаёт переопределение или заменяет существующее целиком
func (r *Repository) Upsert(ctx context.Context, o *domain.DayOverride) (*domain.DayOverride, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	var openMinute, closeMinute sql.NullInt64
	if o.OpenTime != nil {
		openMinute = sql.NullInt64{Int64: int64(*o.OpenTime), Valid: true}
	}
	if o.CloseTime != nil {
		closeMinute = sql.NullInt64{Int64: int64(*o.CloseTime), Valid: true}
	}
	var capacity sql.NullInt64
	if o.Capacity != nil {
		capacity = sql.NullInt64{Int64: int64(*o.Capacity), Valid: true}
	}
	var closed sql.NullBool
	if o.IsClosed != nil {
		closed = sql.NullBool{Bool: *o.IsClosed, Valid: true}
	}

	// created_at при конфликте не перезаписывается
	query, args, err := r.dialect.Insert(table).
		Columns(columns...).
		Values(
			o.Date,
			closed,
			openMinute,
			closeMinute,
			capacity,
			o.Note,
			types.NullTimestamp{Time: o.CreatedAt, Valid: true},
			types.NullTimestamp{Time: o.UpdatedAt, Valid: true},
		).
		Suffix(`ON CONFLICT (booking_date) DO UPDATE SET
    is_closed = EXCLUDED.is_closed,
    open_minute = EXCLUDED.open_minute,
    close_minute = EXCLUDED.close_minute,
    capacity = EXCLUDED.capacity,
    note = EXCLUDED.note,
    updated_at = EXCLUDED.updated_at
RETURNING created_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt types.NullTimestamp
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute insert: %w", ErrExecQuery, err)
	}
	o.CreatedAt = createdAt.Time

	return o, nil
}

// Delete удаляет переопределение на дату
func (r *Repository) Delete(ctx context.Context, date types.Date) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.dialect.Delete(table).
		Where(squirrel.Eq{"booking_date": date}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrOverrideNotFound
	}
	return nil
}

// ListRange возвращает переопределения в периоде [from, to] по возрастанию даты
func (r *Repository) ListRange(ctx context.Context, from, to types.Date) ([]*domain.DayOverride, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.dialect.Select(columns...).
		From(table).
		Where(squirrel.GtOrEq{"booking_date": from}).
		Where(squirrel.LtOrEq{"booking_date": to}).
		OrderBy("booking_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListRange - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListRange - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	out := make([]*domain.DayOverride, 0)
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListRange - scan row: %w", ErrScanRow, err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListRange - rows error: %w", ErrScanRow, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOverride(row rowScanner) (*domain.DayOverride, error) {
	var (
		o                    domain.DayOverride
		closed               sql.NullBool
		openMinute, closeMin sql.NullInt64
		capacity             sql.NullInt64
		createdAt, updatedAt types.NullTimestamp
	)

	if err := row.Scan(&o.Date, &closed, &openMinute, &closeMin, &capacity, &o.Note, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if closed.Valid {
		v := closed.Bool
		o.IsClosed = &v
	}
	if openMinute.Valid {
		v := types.TimeOfDay(openMinute.Int64)
		o.OpenTime = &v
	}
	if closeMin.Valid {
		v := types.TimeOfDay(closeMin.Int64)
		o.CloseTime = &v
	}
	if capacity.Valid {
		v := int(capacity.Int64)
		o.Capacity = &v
	}
	o.CreatedAt = createdAt.Time
	o.UpdatedAt = updatedAt.Time

	return &o, nil
}
