package delete_day_override

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type CalendarService interface {
	DeleteOverride(ctx context.Context, date types.Date) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
