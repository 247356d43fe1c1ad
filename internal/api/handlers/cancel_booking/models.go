package cancel_booking

import (
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CancelBookingRequest) ToServiceRequest() *models.CancelReservationRequest {
	return &models.CancelReservationRequest{
		Reason: r.Reason,
	}
}
