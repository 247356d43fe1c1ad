package update_day_override

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type CalendarService interface {
	SetOverride(ctx context.Context, override *domain.DayOverride) (*domain.DayOverride, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
