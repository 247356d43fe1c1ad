package get_available_slots

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

const (
	msgMissingService  = "услуга обязательна"
	msgMissingDate     = "дата обязательна"
	msgInvalidDate     = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgCannotEvaluate  = "невозможно рассчитать доступность: некорректные параметры"
	msgTemporarilyDown = "доступность временно неизвестна, попробуйте позже"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/availability
// Query params: date (required, YYYY-MM-DD), service (required)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	service := r.URL.Query().Get("service")
	if service == "" {
		h.logger.Warn("GET /availability - Missing service")
		handlers.RespondBadRequest(w, msgMissingService)
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /availability - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	// Формируем запрос к use case (с парсингом даты)
	useCaseReq, err := ToUseCaseRequest(dateStr, service)
	if err != nil {
		h.logger.Warn("GET /availability - Invalid date format: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /availability - Cannot evaluate: date=%s, service=%s, error=%v", dateStr, service, err)
			handlers.RespondBadRequest(w, msgCannotEvaluate)

		case errors.Is(err, getAvailableSlots.ErrStorageUnavailable):
			h.logger.Error("GET /availability - Storage unavailable: date=%s, error=%v", dateStr, err)
			handlers.RespondServiceUnavailable(w, msgTemporarilyDown)

		default:
			h.logger.Error("GET /availability - Failed to evaluate: date=%s, service=%s, error=%v", dateStr, service, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /availability - Slots evaluated: date=%s, service=%s, slots_count=%d",
		dateStr, result.ServiceKey, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
