package get_available_slots

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// ReservationRepository интерфейс репозитория записей
type ReservationRepository interface {
	// ListActiveByDate получает все неотменённые записи на дату
	ListActiveByDate(ctx context.Context, date types.Date) ([]*domain.Reservation, error)
}

// Calendar интерфейс бизнес-календаря
type Calendar interface {
	ScheduleFor(ctx context.Context, date types.Date) (domain.DaySchedule, error)
	BookableStartTimes(schedule domain.DaySchedule) []types.TimeOfDay
}

// Catalog интерфейс каталога услуг
type Catalog interface {
	Lookup(key string) (domain.ServiceDefinition, bool)
	DurationOf(key string) int
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
