package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/events"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// ReservationRepository интерфейс репозитория записей
type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)
	ListActiveByDate(ctx context.Context, date types.Date) ([]*domain.Reservation, error)
	LockDate(ctx context.Context, date types.Date, timeout time.Duration) error
}

// Calendar интерфейс бизнес-календаря
type Calendar interface {
	ScheduleFor(ctx context.Context, date types.Date) (domain.DaySchedule, error)
}

// Catalog интерфейс каталога услуг
type Catalog interface {
	Lookup(key string) (domain.ServiceDefinition, bool)
	DurationOf(key string) int
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker блокировка даты на уровне приложения (в процессе или в Redis)
type Locker interface {
	Lock(ctx context.Context, key string, timeout time.Duration) (release func(), err error)
}

// Notifier публикует события после фиксации записи
type Notifier interface {
	Notify(ctx context.Context, event events.Event)
}

// Metrics метрики решений о записи
type Metrics interface {
	ObserveAdmission(outcome string)
	ObserveLockWait(d time.Duration)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
