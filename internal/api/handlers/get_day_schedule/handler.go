package get_day_schedule

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/calendar"
	"github.com/m04kA/SMC-AppointmentService/internal/service/calendar/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

const (
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgStorageUnavailable = "расписание временно недоступно, попробуйте позже"
)

type Handler struct {
	service CalendarService
	logger  Logger
}

func NewHandler(service CalendarService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/calendar/{date}
// Возвращает итоговое расписание даты с учётом всех уровней и сетку стартов
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Извлекаем date из URL
	vars := mux.Vars(r)
	dateStr := vars["date"]

	date, err := types.ParseDate(dateStr)
	if err != nil {
		h.logger.Warn("GET /calendar/{date} - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	schedule, err := h.service.ScheduleFor(r.Context(), date)
	if err != nil {
		switch {
		case errors.Is(err, calendar.ErrInvalidInput):
			h.logger.Warn("GET /calendar/{date} - Invalid input: date=%s, error=%v", dateStr, err)
			handlers.RespondBadRequest(w, msgInvalidDate)

		case errors.Is(err, calendar.ErrInternal):
			h.logger.Error("GET /calendar/{date} - Storage error: date=%s, error=%v", dateStr, err)
			handlers.RespondServiceUnavailable(w, msgStorageUnavailable)

		default:
			h.logger.Error("GET /calendar/{date} - Failed to resolve schedule: date=%s, error=%v", dateStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	starts := h.service.BookableStartTimes(schedule)

	h.logger.Info("GET /calendar/{date} - Schedule resolved: date=%s, source=%s, starts=%d",
		dateStr, schedule.Source, len(starts))
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainSchedule(schedule, starts))
}
