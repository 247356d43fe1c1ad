package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/availability"
	"github.com/m04kA/SMC-AppointmentService/internal/service/calendar"
)

// UseCase use case для получения карты слотов дня
type UseCase struct {
	reservationRepo ReservationRepository
	calendar        Calendar
	catalog         Catalog
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	calendar Calendar,
	catalog Catalog,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		calendar:        calendar,
		catalog:         catalog,
		logger:          logger,
	}
}

// Execute выполняет use case получения карты слотов.
// Прошедшие слоты не отфильтровываются: карта описывает вместимость, а не время.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("GetAvailableSlots: date=%s, service=%s", req.Date, req.ServiceKey)

	// 2. Определяем услугу и её длительность
	serviceKey := domain.NormalizeServiceKey(req.ServiceKey)
	serviceName := ""
	if def, ok := uc.catalog.Lookup(serviceKey); ok {
		serviceKey = def.Key
		serviceName = def.Name
	} else {
		uc.logger.Warn("GetAvailableSlots: unknown service %s, using default duration", serviceKey)
	}
	duration := uc.catalog.DurationOf(serviceKey)

	// 3. Получаем расписание дня
	schedule, err := uc.calendar.ScheduleFor(ctx, req.Date)
	if err != nil {
		return nil, uc.mapCalendarError(err)
	}

	// 4. Закрытый день: записи не нужны
	if schedule.IsClosed {
		uc.logger.Info("GetAvailableSlots: shop is closed on %s", req.Date)
		return &Response{
			Date:            req.Date,
			ServiceKey:      serviceKey,
			ServiceName:     serviceName,
			DurationMinutes: duration,
			Closed:          true,
			Schedule:        schedule,
			Slots:           []Slot{},
		}, nil
	}

	// 5. Получаем активные записи на дату
	reservations, err := uc.reservationRepo.ListActiveByDate(ctx, req.Date)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get reservations for %s: %v", req.Date, err)
		return nil, fmt.Errorf("%w: list reservations: %v", ErrStorageUnavailable, err)
	}

	// 6. Классифицируем сетку стартов
	day, err := availability.EvaluateDay(
		schedule,
		uc.calendar.BookableStartTimes(schedule),
		serviceKey,
		duration,
		reservations,
		uc.catalog.DurationOf,
	)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to evaluate %s: %v", req.Date, err)
		return nil, fmt.Errorf("%w: evaluate day: %v", ErrInternal, err)
	}

	uc.logger.Info("GetAvailableSlots: %d slots for service=%s, date=%s (%d active reservations)",
		len(day.Slots), serviceKey, req.Date, len(reservations))

	return &Response{
		Date:            req.Date,
		ServiceKey:      serviceKey,
		ServiceName:     serviceName,
		DurationMinutes: duration,
		Schedule:        schedule,
		Slots:           toSlots(day.Slots),
	}, nil
}

func (uc *UseCase) mapCalendarError(err error) error {
	switch {
	case errors.Is(err, calendar.ErrInvalidInput):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	case errors.Is(err, calendar.ErrInvalidOverride):
		uc.logger.Error("GetAvailableSlots: inconsistent calendar: %v", err)
		return fmt.Errorf("%w: %v", ErrInternal, err)
	default:
		uc.logger.Error("GetAvailableSlots: failed to resolve schedule: %v", err)
		return fmt.Errorf("%w: resolve schedule: %v", ErrStorageUnavailable, err)
	}
}
