package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/sqlbuilder"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

const table = "reservations"

var columns = []string{
	"id",
	"reference",
	"booking_date",
	"start_minute",
	"service_key",
	"customer_ref",
	"notes",
	"status",
	"cancellation_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий записей на обслуживание
type Repository struct {
	db      DBExecutor
	dialect sqlbuilder.Dialect
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor, dialect sqlbuilder.Dialect) *Repository {
	return &Repository{db: db, dialect: dialect}
}

// Create сохраняет новую запись и заполняет её ID.
// Reference, CreatedAt и UpdatedAt заполняются, если не заданы.
func (r *Repository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	now := time.Now().UTC()
	if res.CreatedAt.IsZero() {
		res.CreatedAt = now
	}
	if res.UpdatedAt.IsZero() {
		res.UpdatedAt = res.CreatedAt
	}
	if res.Status == "" {
		res.Status = domain.StatusActive
	}

	query, args, err := r.dialect.Insert(table).
		Columns(
			"reference",
			"booking_date",
			"start_minute",
			"service_key",
			"customer_ref",
			"notes",
			"status",
			"created_at",
			"updated_at",
		).
		Values(
			res.Reference,
			res.Date,
			res.StartTime.Minutes(),
			res.ServiceKey,
			res.CustomerRef,
			res.Notes,
			string(res.Status),
			types.NullTimestamp{Time: res.CreatedAt, Valid: true},
			types.NullTimestamp{Time: res.UpdatedAt, Valid: true},
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&res.ID); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return res, nil
}

// GetByID получает запись по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := r.dialect.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id})

	// Отмена и смена статуса читают запись внутри транзакции
	if dbmetrics.IsInTransaction(ctx) && r.dialect.SupportsRowLocks() {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan reservation: %w", ErrScanRow, err)
	}
	return res, nil
}

// ListActiveByDate возвращает неотменённые записи на дату в порядке времени начала.
// Внутри транзакции на PostgreSQL строки блокируются (FOR UPDATE).
func (r *Repository) ListActiveByDate(ctx context.Context, date types.Date) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := r.dialect.Select(columns...).
		From(table).
		Where(squirrel.Eq{"booking_date": date}).
		Where(squirrel.NotEq{"status": string(domain.StatusCancelled)}).
		OrderBy("start_minute ASC", "id ASC")

	if dbmetrics.IsInTransaction(ctx) && r.dialect.SupportsRowLocks() {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByDate - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// List возвращает записи по фильтру.
// Для одной даты сортировка по времени, для периода - по дате и времени.
func (r *Repository) List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := r.dialect.Select(columns...).From(table)

	// Фильтрация по периоду
	if filter.From != nil {
		builder = builder.Where(squirrel.GtOrEq{"booking_date": *filter.From})
	}
	if filter.To != nil {
		builder = builder.Where(squirrel.LtOrEq{"booking_date": *filter.To})
	}

	// Фильтрация по статусу
	if filter.Status != nil {
		builder = builder.Where(squirrel.Eq{"status": string(*filter.Status)})
	} else if !filter.IncludeInactive {
		builder = builder.Where(squirrel.NotEq{"status": string(domain.StatusCancelled)})
	}

	if filter.ServiceKey != nil {
		builder = builder.Where(squirrel.Eq{"service_key": *filter.ServiceKey})
	}

	builder = builder.OrderBy("booking_date ASC", "start_minute ASC", "id ASC")

	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// Cancel переводит запись в статус cancelled с указанием причины
func (r *Repository) Cancel(ctx context.Context, id int64, reason *string, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	ts := types.NullTimestamp{Time: at.UTC(), Valid: true}
	query, args, err := r.dialect.Update(table).
		Set("status", string(domain.StatusCancelled)).
		Set("cancellation_reason", reason).
		Set("cancelled_at", ts).
		Set("updated_at", ts).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	return r.execAffectingOne(ctx, executor, "Cancel", query, args)
}

// UpdateStatus обновляет статус записи
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.dialect.Update(table).
		Set("status", string(status)).
		Set("updated_at", types.NullTimestamp{Time: at.UTC(), Valid: true}).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	return r.execAffectingOne(ctx, executor, "UpdateStatus", query, args)
}

// LockDate берёт транзакционную advisory-блокировку даты на PostgreSQL.
// Блокировка снимается при завершении транзакции. Вне транзакции и на SQLite
// (где пишущая транзакция и так одна) метод ничего не делает.
func (r *Repository) LockDate(ctx context.Context, date types.Date, timeout time.Duration) error {
	if !dbmetrics.IsInTransaction(ctx) || !r.dialect.SupportsRowLocks() {
		return nil
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if timeout > 0 {
		// SET не принимает параметры, значение - целое число миллисекунд
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeout.Milliseconds())
		if _, err := executor.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: LockDate - set lock_timeout: %w", ErrExecQuery, err)
		}
	}

	if _, err := executor.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", dateLockKey(date)); err != nil {
		if storage.IsLockTimeout(err) {
			return fmt.Errorf("%w: %s", ErrLockTimeout, date)
		}
		return fmt.Errorf("%w: LockDate - advisory lock: %w", ErrExecQuery, err)
	}
	return nil
}

// dateLockKey ключ advisory-блокировки для даты
func dateLockKey(date types.Date) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("reservations:" + date.String()))
	return int64(h.Sum64())
}

func (r *Repository) execAffectingOne(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrReservationNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var (
		res                             domain.Reservation
		startMinute                     int
		status                          string
		notes, reason                   sql.NullString
		cancelledAt, createdAt, updated types.NullTimestamp
	)

	err := row.Scan(
		&res.ID,
		&res.Reference,
		&res.Date,
		&startMinute,
		&res.ServiceKey,
		&res.CustomerRef,
		&notes,
		&status,
		&reason,
		&cancelledAt,
		&createdAt,
		&updated,
	)
	if err != nil {
		return nil, err
	}

	res.StartTime = types.TimeOfDay(startMinute)
	res.Status = domain.ReservationStatus(status)
	if notes.Valid {
		res.Notes = &notes.String
	}
	if reason.Valid {
		res.CancellationReason = &reason.String
	}
	res.CancelledAt = cancelledAt.Ptr()
	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updated.Time

	return &res, nil
}

// scanReservations сканирует результаты запроса в слайс записей
func scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	out := make([]*domain.Reservation, 0)

	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanReservations - scan row: %w", ErrScanRow, err)
		}
		out = append(out, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanReservations - rows error: %w", ErrScanRow, err)
	}

	return out, nil
}
