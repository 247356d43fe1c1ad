package list_day_overrides

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/calendar"
	"github.com/m04kA/SMC-AppointmentService/internal/service/calendar/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

const (
	msgInvalidPeriod = "укажите корректный период from/to в формате YYYY-MM-DD (не более 366 дней)"
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

// Handle GET /api/v1/calendar/overrides
// Query params: from, to (обязательные, YYYY-MM-DD)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")

	from, errFrom := types.ParseDate(fromStr)
	to, errTo := types.ParseDate(toStr)
	if err := errors.Join(errFrom, errTo); err != nil {
		h.logger.Warn("GET /calendar/overrides - Invalid period: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPeriod)
		return
	}

	overrides, err := h.service.ListOverrides(r.Context(), from, to)
	if err != nil {
		switch {
		case errors.Is(err, calendar.ErrInvalidInput):
			h.logger.Warn("GET /calendar/overrides - Invalid period: from=%s, to=%s, error=%v", fromStr, toStr, err)
			handlers.RespondBadRequest(w, msgInvalidPeriod)

		default:
			h.logger.Error("GET /calendar/overrides - Failed to list overrides: from=%s, to=%s, error=%v",
				fromStr, toStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /calendar/overrides - Overrides retrieved successfully: from=%s, to=%s, count=%d",
		fromStr, toStr, len(overrides))
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainOverrideList(overrides))
}
