package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	createBooking "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты записи, ожидается YYYY-MM-DD"
	msgInvalidTime        = "некорректный формат времени начала, ожидается HH:MM"
	msgInvalidInput       = "некорректные данные записи"
	msgBookingDateInPast  = "дата записи уже прошла"
	msgTooLateToBook      = "слишком поздно для записи на это время"
	msgStorageUnavailable = "сервис записи временно недоступен, попробуйте позже"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Конвертируем HTTP запрос в модель use case (с парсингом даты и времени)
	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		if errors.Is(err, types.ErrInvalidDateFormat) {
			handlers.RespondBadRequest(w, msgInvalidDate)
		} else {
			handlers.RespondBadRequest(w, msgInvalidTime)
		}
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: service=%s, error=%v", req.Service, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, createBooking.ErrInvalidDate):
			h.logger.Warn("POST /bookings - Booking date in the past: date=%s", req.Date)
			handlers.RespondBadRequest(w, msgBookingDateInPast)

		case errors.Is(err, createBooking.ErrTooLateToBook):
			h.logger.Warn("POST /bookings - Too late to book: date=%s, start=%s", req.Date, req.StartTime)
			handlers.RespondBadRequest(w, msgTooLateToBook)

		case errors.Is(err, createBooking.ErrStorageUnavailable):
			h.logger.Error("POST /bookings - Storage unavailable: date=%s, error=%v", req.Date, err)
			handlers.RespondServiceUnavailable(w, msgStorageUnavailable)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: date=%s, start=%s, service=%s, error=%v",
				req.Date, req.StartTime, req.Service, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	// Отказ в записи: бизнес-причина или временная недоступность
	if !result.Admitted {
		status := http.StatusConflict
		if result.Rejection.Reason == domain.ReasonTemporarilyUnavailable {
			status = http.StatusServiceUnavailable
		}

		h.logger.Warn("POST /bookings - Booking rejected: date=%s, start=%s, service=%s, reason=%s",
			req.Date, req.StartTime, req.Service, result.Rejection.Reason)
		handlers.RespondJSON(w, status, FromRejection(result.Rejection))
		return
	}

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%d, reference=%s, date=%s, start=%s",
		result.Reservation.ID, result.Reservation.Reference, req.Date, req.StartTime)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResult(result))
}
