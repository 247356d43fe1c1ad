package create_booking

import (
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
	createBooking "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	Date        string  `json:"date"`      // "2025-06-10"
	StartTime   string  `json:"startTime"` // "09:00"
	Service     string  `json:"service"`
	CustomerRef string  `json:"customerRef"`
	Notes       *string `json:"notes,omitempty"`
}

// RejectionResponse тело ответа при отказе в записи
type RejectionResponse struct {
	Reason          string  `json:"reason"`
	Message         string  `json:"message"`
	Conflicts       int     `json:"conflicts"`
	Capacity        int     `json:"capacity"`
	OvertimeMinutes int     `json:"overtimeMinutes,omitempty"`
	OvertimeHours   float64 `json:"overtimeHours,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case.
// Ошибки парсинга оборачивают types.ErrInvalidDateFormat или ошибки времени.
func (r *CreateBookingRequest) ToUseCaseRequest() (*createBooking.Request, error) {
	// Парсим дату
	date, err := types.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}

	// Парсим время
	startTime, err := types.ParseTimeOfDay(r.StartTime)
	if err != nil {
		return nil, err
	}

	return &createBooking.Request{
		Date:        date,
		StartTime:   startTime,
		ServiceKey:  r.Service,
		CustomerRef: r.CustomerRef,
		Notes:       r.Notes,
	}, nil
}

// FromUseCaseResult конвертирует созданную запись в HTTP response
func FromUseCaseResult(result *createBooking.Result) *models.ReservationResponse {
	return models.FromDomainReservation(result.Reservation, result.DurationMinutes)
}

// FromRejection конвертирует отказ в HTTP response
func FromRejection(rej *createBooking.Rejection) *RejectionResponse {
	return &RejectionResponse{
		Reason:          string(rej.Reason),
		Message:         rej.Message,
		Conflicts:       rej.Conflicts,
		Capacity:        rej.Capacity,
		OvertimeMinutes: rej.OvertimeMinutes,
		OvertimeHours:   rej.OvertimeHours,
	}
}
