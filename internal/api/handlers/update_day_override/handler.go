package update_day_override

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
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidOverride    = "некорректное переопределение расписания"
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

// Handle PUT /api/v1/calendar/{date}
// Полностью заменяет переопределение на дату
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Извлекаем date из URL
	vars := mux.Vars(r)
	dateStr := vars["date"]

	date, err := types.ParseDate(dateStr)
	if err != nil {
		h.logger.Warn("PUT /calendar/{date} - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	// Декодируем body
	var req models.SetOverrideRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /calendar/{date} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.SetOverride(r.Context(), req.ToDomain(date))
	if err != nil {
		switch {
		case errors.Is(err, calendar.ErrInvalidOverride), errors.Is(err, calendar.ErrInvalidInput):
			h.logger.Warn("PUT /calendar/{date} - Invalid override: date=%s, error=%v", dateStr, err)
			handlers.RespondBadRequest(w, msgInvalidOverride)

		default:
			h.logger.Error("PUT /calendar/{date} - Failed to save override: date=%s, error=%v", dateStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /calendar/{date} - Override saved successfully: date=%s", dateStr)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainOverride(result))
}
