package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	StatusActive    ReservationStatus = "active"
	StatusCompleted ReservationStatus = "completed"
	StatusNoShow    ReservationStatus = "no_show"
	StatusCancelled ReservationStatus = "cancelled"
)

// Valid returns true for a known status
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusNoShow, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true for statuses set by the shop after the visit
func (s ReservationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusNoShow
}

// Reservation represents an admitted appointment
type Reservation struct {
	ID          int64
	Reference   uuid.UUID // публичный идентификатор для клиента и CRM
	Date        types.Date
	StartTime   types.TimeOfDay
	ServiceKey  string
	CustomerRef string
	Notes       *string
	Status      ReservationStatus

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the reservation takes part in capacity counting.
// Все статусы, кроме cancelled, занимают место.
func (r *Reservation) IsActive() bool {
	return r.Status != StatusCancelled
}

// IsCancelled returns true if the reservation has been cancelled
func (r *Reservation) IsCancelled() bool {
	return r.Status == StatusCancelled
}

// CanBeCancelled returns true if the reservation can still be cancelled
func (r *Reservation) CanBeCancelled() bool {
	return r.Status == StatusActive
}

// Interval возвращает интервал записи для текущей длительности услуги
func (r *Reservation) Interval(durationMinutes int) (Interval, error) {
	return NewInterval(r.StartTime, durationMinutes)
}

// ReservationFilter фильтр для списка записей
type ReservationFilter struct {
	From            *types.Date        // Начало периода включительно (опционально)
	To              *types.Date        // Конец периода включительно (опционально)
	Status          *ReservationStatus // Фильтр по статусу (опционально)
	ServiceKey      *string            // Фильтр по услуге (опционально)
	IncludeInactive bool               // Включать ли отменённые записи
	Limit           uint64             // 0 = без ограничения
}
