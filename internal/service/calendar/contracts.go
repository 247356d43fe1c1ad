package calendar

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// OverrideRepository интерфейс репозитория переопределений расписания
type OverrideRepository interface {
	GetByDate(ctx context.Context, date types.Date) (*domain.DayOverride, error)
	Upsert(ctx context.Context, override *domain.DayOverride) (*domain.DayOverride, error)
	Delete(ctx context.Context, date types.Date) error
	ListRange(ctx context.Context, from, to types.Date) ([]*domain.DayOverride, error)
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
