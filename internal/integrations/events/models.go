package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Типы событий жизненного цикла записи
const (
	TypeReservationAdmitted  = "reservation.admitted"
	TypeReservationCancelled = "reservation.cancelled"
	TypeReservationStatus    = "reservation.status_changed"
)

// Event событие для внешних систем (CRM, уведомления)
type Event struct {
	ID          string           `json:"eventId"`
	Type        string           `json:"eventType"`
	OccurredAt  time.Time        `json:"occurredAt"`
	Reservation ReservationEvent `json:"reservation"`
}

// ReservationEvent состояние записи на момент события
type ReservationEvent struct {
	ID                 int64   `json:"id"`
	Reference          string  `json:"reference"`
	Date               string  `json:"date"`
	StartTime          string  `json:"startTime"`
	ServiceKey         string  `json:"serviceKey"`
	DurationMinutes    int     `json:"durationMinutes"`
	CustomerRef        string  `json:"customerRef"`
	Status             string  `json:"status"`
	CancellationReason *string `json:"cancellationReason,omitempty"`
}

// NewEvent собирает событие по записи
func NewEvent(eventType string, r *domain.Reservation, durationMinutes int, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: at.UTC(),
		Reservation: ReservationEvent{
			ID:                 r.ID,
			Reference:          r.Reference.String(),
			Date:               r.Date.String(),
			StartTime:          r.StartTime.String(),
			ServiceKey:         r.ServiceKey,
			DurationMinutes:    durationMinutes,
			CustomerRef:        r.CustomerRef,
			Status:             string(r.Status),
			CancellationReason: r.CancellationReason,
		},
	}
}
