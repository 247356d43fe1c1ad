package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid reservation status")
)

// Request модели

// CancelReservationRequest запрос на отмену записи
type CancelReservationRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// UpdateStatusRequest запрос на обновление статуса записи
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ListReservationsRequest запрос на список записей.
// Указывается либо Date, либо период From..To.
type ListReservationsRequest struct {
	Date            *types.Date `json:"date,omitempty"`
	From            *types.Date `json:"from,omitempty"`
	To              *types.Date `json:"to,omitempty"`
	Status          *string     `json:"status,omitempty"`
	ServiceKey      *string     `json:"service,omitempty"`
	IncludeInactive bool        `json:"includeInactive,omitempty"` // Включить отменённые записи
	Limit           uint64      `json:"limit,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListReservationsRequest) ToDomainFilter() (domain.ReservationFilter, error) {
	filter := domain.ReservationFilter{
		From:            r.From,
		To:              r.To,
		ServiceKey:      r.ServiceKey,
		IncludeInactive: r.IncludeInactive,
		Limit:           r.Limit,
	}

	if r.Date != nil {
		filter.From = r.Date
		filter.To = r.Date
	}

	// Конвертируем статус если указан
	if r.Status != nil {
		status, err := ToDomainStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// ReservationResponse ответ с данными записи
type ReservationResponse struct {
	ID              int64   `json:"id"`
	Reference       string  `json:"reference"`
	Date            string  `json:"date"`      // "2025-06-10"
	StartTime       string  `json:"startTime"` // "09:00"
	EndTime         string  `json:"endTime"`   // по текущей длительности услуги
	ServiceKey      string  `json:"serviceKey"`
	DurationMinutes int     `json:"durationMinutes"`
	CustomerRef     string  `json:"customerRef"`
	Notes           *string `json:"notes,omitempty"`
	Status          string  `json:"status"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReservationListResponse ответ со списком записей
type ReservationListResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
}

// Методы конвертации

// FromDomainReservation конвертирует domain модель в DTO
func FromDomainReservation(r *domain.Reservation, durationMinutes int) *ReservationResponse {
	if r == nil {
		return nil
	}

	resp := &ReservationResponse{
		ID:                 r.ID,
		Reference:          r.Reference.String(),
		Date:               r.Date.String(),
		StartTime:          r.StartTime.String(),
		EndTime:            r.StartTime.AddMinutes(durationMinutes).String(),
		ServiceKey:         r.ServiceKey,
		DurationMinutes:    durationMinutes,
		CustomerRef:        r.CustomerRef,
		Notes:              r.Notes,
		Status:             string(r.Status),
		CancellationReason: r.CancellationReason,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}

	// Конвертируем CancelledAt в строку ISO 8601
	if r.CancelledAt != nil {
		cancelledStr := r.CancelledAt.UTC().Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainReservationList конвертирует список domain моделей в DTO
func FromDomainReservationList(items []*domain.Reservation, durationOf func(string) int) *ReservationListResponse {
	resp := &ReservationListResponse{
		Reservations: make([]ReservationResponse, 0, len(items)),
	}

	for _, r := range items {
		if item := FromDomainReservation(r, durationOf(r.ServiceKey)); item != nil {
			resp.Reservations = append(resp.Reservations, *item)
		}
	}

	return resp
}

// ToDomainStatus конвертирует строку в domain.ReservationStatus с валидацией
func ToDomainStatus(status string) (domain.ReservationStatus, error) {
	s := domain.ReservationStatus(status)
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
