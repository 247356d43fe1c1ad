package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/lock"
	reservationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/events"
	"github.com/m04kA/SMC-AppointmentService/internal/service/availability"
	"github.com/m04kA/SMC-AppointmentService/internal/service/calendar"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// outcomeAdmitted метка метрики для успешной записи
const outcomeAdmitted = "admitted"

// UseCase use case для записи на обслуживание.
//
// Проверка вместимости и вставка выполняются как одна критическая секция
// на дату: блокировка даты в приложении, затем сериализуемая транзакция
// с блокировкой даты в БД.
type UseCase struct {
	reservationRepo ReservationRepository
	calendar        Calendar
	catalog         Catalog
	txManager       TransactionManager
	locker          Locker
	notifier        Notifier
	metrics         Metrics
	lockTimeout     time.Duration
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	calendar Calendar,
	catalog Catalog,
	txManager TransactionManager,
	locker Locker,
	notifier Notifier,
	metrics Metrics,
	lockTimeout time.Duration,
	logger Logger,
) *UseCase {
	if notifier == nil {
		notifier = events.NewNotifier(events.NoopPublisher{}, 0, logger)
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &UseCase{
		reservationRepo: reservationRepo,
		calendar:        calendar,
		catalog:         catalog,
		txManager:       txManager,
		locker:          locker,
		notifier:        notifier,
		metrics:         metrics,
		lockTimeout:     lockTimeout,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case записи.
// Бизнес-отказ возвращается в Result.Rejection, ошибка означает некорректный
// запрос или недоступность инфраструктуры.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Result, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("CreateBooking: date=%s, time=%s, service=%s, customer=%s",
		req.Date, req.StartTime, req.ServiceKey, req.CustomerRef)

	// 2. Проверяем, что время записи ещё не прошло
	now := uc.timeProvider.Now()
	if err := validateBookingTime(req.Date, req.StartTime, now); err != nil {
		uc.logger.Warn("CreateBooking: booking time validation failed: %v", err)
		return nil, err
	}

	// 3. Определяем услугу и её длительность
	serviceKey := domain.NormalizeServiceKey(req.ServiceKey)
	if def, ok := uc.catalog.Lookup(serviceKey); ok {
		serviceKey = def.Key
	}
	duration := uc.catalog.DurationOf(serviceKey)

	// 4-5. Проверка и вставка под блокировкой даты
	result, err := uc.admit(ctx, req, serviceKey, duration)
	if err != nil {
		return nil, err
	}

	if !result.Admitted {
		return uc.reject(result), nil
	}

	uc.metrics.ObserveAdmission(outcomeAdmitted)
	uc.logger.Info("CreateBooking: successfully created reservation id=%d (ref=%s)",
		result.Reservation.ID, result.Reservation.Reference)

	// 6. Событие для CRM после фиксации, блокировка даты уже снята
	uc.notifier.Notify(ctx, events.NewEvent(events.TypeReservationAdmitted, result.Reservation, duration, uc.timeProvider.Now()))

	return result, nil
}

// admit проверяет вместимость и сохраняет запись под блокировкой даты.
// Блокировка снимается до возврата, публикация событий выполняется вне её.
func (uc *UseCase) admit(ctx context.Context, req *Request, serviceKey string, duration int) (*Result, error) {
	// 4. Блокировка даты в приложении
	waitStart := time.Now()
	release, err := uc.locker.Lock(ctx, lockKey(req.Date), uc.lockTimeout)
	uc.metrics.ObserveLockWait(time.Since(waitStart))
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			uc.logger.Warn("CreateBooking: date %s is busy, lock not acquired in %s", req.Date, uc.lockTimeout)
			return temporarilyUnavailable(duration), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		uc.logger.Error("CreateBooking: failed to lock date %s: %v", req.Date, err)
		return nil, fmt.Errorf("%w: lock date: %v", ErrStorageUnavailable, err)
	}
	defer release()

	// 5. Проверка и вставка в сериализуемой транзакции
	var result *Result
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		result = nil

		// 5.1. Блокировка даты в БД
		if err := uc.reservationRepo.LockDate(txCtx, req.Date, uc.lockTimeout); err != nil {
			if errors.Is(err, reservationRepo.ErrLockTimeout) {
				uc.logger.Warn("CreateBooking: database lock for %s timed out", req.Date)
				result = temporarilyUnavailable(duration)
				return nil
			}
			return fmt.Errorf("lock date: %w", err)
		}

		// 5.2. Расписание дня (кеш в транзакции не используется)
		schedule, err := uc.calendar.ScheduleFor(txCtx, req.Date)
		if err != nil {
			return fmt.Errorf("resolve schedule: %w", err)
		}

		// 5.3. Активные записи на дату
		reservations, err := uc.reservationRepo.ListActiveByDate(txCtx, req.Date)
		if err != nil {
			return fmt.Errorf("list reservations: %w", err)
		}

		// 5.4. Классификация слота
		slot, err := availability.ClassifySlot(schedule, req.StartTime, duration, reservations, uc.catalog.DurationOf)
		if err != nil {
			return fmt.Errorf("%w: classify slot: %v", ErrInternal, err)
		}

		if !slot.IsBookable() {
			uc.logger.Warn("CreateBooking: rejected %s %s (%s): %s, %d/%d spots taken",
				req.Date, req.StartTime, serviceKey, slot.Reason, slot.Conflicts, slot.Capacity)
			result = rejected(slot, duration)
			return nil
		}

		uc.logger.Info("CreateBooking: slot %s %s is %s, %d/%d spots taken",
			req.Date, req.StartTime, slot.Status, slot.Conflicts, slot.Capacity)

		// 5.5. Сохраняем запись
		created, err := uc.reservationRepo.Create(txCtx, &domain.Reservation{
			Reference:   uuid.New(),
			Date:        req.Date,
			StartTime:   req.StartTime,
			ServiceKey:  serviceKey,
			CustomerRef: req.CustomerRef,
			Notes:       req.Notes,
			Status:      domain.StatusActive,
		})
		if err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}

		result = admitted(created, duration)
		return nil
	})

	if err != nil {
		return uc.handleTxError(ctx, req, duration, err)
	}
	return result, nil
}

type noopMetrics struct{}

func (noopMetrics) ObserveAdmission(string)       {}
func (noopMetrics) ObserveLockWait(time.Duration) {}

func (uc *UseCase) reject(result *Result) *Result {
	uc.metrics.ObserveAdmission(string(result.Rejection.Reason))
	return result
}

// handleTxError переводит ошибку транзакции в ошибку use case
func (uc *UseCase) handleTxError(ctx context.Context, req *Request, duration int, err error) (*Result, error) {
	switch {
	case errors.Is(err, txmanager.ErrRetriesExhausted):
		uc.logger.Warn("CreateBooking: serialization conflicts on %s, giving up: %v", req.Date, err)
		return temporarilyUnavailable(duration), nil
	case ctx.Err() != nil:
		uc.logger.Warn("CreateBooking: request cancelled for %s: %v", req.Date, ctx.Err())
		return nil, ctx.Err()
	case errors.Is(err, ErrInternal), errors.Is(err, calendar.ErrInvalidOverride):
		uc.logger.Error("CreateBooking: internal error for %s: %v", req.Date, err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	default:
		uc.logger.Error("CreateBooking: storage error for %s: %v", req.Date, err)
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
}

// lockKey ключ блокировки даты
func lockKey(date types.Date) string {
	return "reservations:" + date.String()
}
