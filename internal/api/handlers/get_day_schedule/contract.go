package get_day_schedule

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type CalendarService interface {
	ScheduleFor(ctx context.Context, date types.Date) (domain.DaySchedule, error)
	BookableStartTimes(schedule domain.DaySchedule) []types.TimeOfDay
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
