package delete_day_override

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/calendar"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

const (
	msgInvalidDate = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgNotFound    = "переопределение на дату не найдено"
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

// Handle DELETE /api/v1/calendar/{date}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Извлекаем date из URL
	vars := mux.Vars(r)
	dateStr := vars["date"]

	date, err := types.ParseDate(dateStr)
	if err != nil {
		h.logger.Warn("DELETE /calendar/{date} - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	if err := h.service.DeleteOverride(r.Context(), date); err != nil {
		switch {
		case errors.Is(err, calendar.ErrOverrideNotFound):
			h.logger.Warn("DELETE /calendar/{date} - Override not found: date=%s", dateStr)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("DELETE /calendar/{date} - Failed to delete override: date=%s, error=%v", dateStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /calendar/{date} - Override deleted successfully: date=%s", dateStr)
	w.WriteHeader(http.StatusNoContent)
}
