package models

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Request модели

// SetOverrideRequest тело запроса на переопределение расписания даты.
// Незаданные поля наследуются с уровня дня недели или глобальных настроек.
type SetOverrideRequest struct {
	IsClosed  *bool            `json:"isClosed,omitempty"`
	OpenTime  *types.TimeOfDay `json:"openTime,omitempty"`  // "08:00"
	CloseTime *types.TimeOfDay `json:"closeTime,omitempty"` // "14:00"
	Capacity  *int             `json:"capacity,omitempty"`
	Note      string           `json:"note,omitempty"`
}

// ToDomain конвертирует запрос в переопределение на дату
func (r *SetOverrideRequest) ToDomain(date types.Date) *domain.DayOverride {
	return &domain.DayOverride{
		Date:      date,
		IsClosed:  r.IsClosed,
		OpenTime:  r.OpenTime,
		CloseTime: r.CloseTime,
		Capacity:  r.Capacity,
		Note:      r.Note,
	}
}

// Response модели

// DayScheduleResponse итоговое расписание даты и сетка стартов
type DayScheduleResponse struct {
	Date       string   `json:"date"`
	IsClosed   bool     `json:"isClosed"`
	OpenTime   string   `json:"openTime,omitempty"`
	CloseTime  string   `json:"closeTime,omitempty"`
	Capacity   int      `json:"capacity"`
	Source     string   `json:"source"` // default, weekday, override
	Note       string   `json:"note,omitempty"`
	StartTimes []string `json:"startTimes"`
}

// OverrideResponse сохранённое переопределение
type OverrideResponse struct {
	Date      string    `json:"date"`
	IsClosed  *bool     `json:"isClosed,omitempty"`
	OpenTime  *string   `json:"openTime,omitempty"`
	CloseTime *string   `json:"closeTime,omitempty"`
	Capacity  *int      `json:"capacity,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OverrideListResponse список переопределений за период
type OverrideListResponse struct {
	Overrides []OverrideResponse `json:"overrides"`
}

// Методы конвертации

// FromDomainSchedule конвертирует расписание и сетку стартов в DTO
func FromDomainSchedule(schedule domain.DaySchedule, starts []types.TimeOfDay) *DayScheduleResponse {
	resp := &DayScheduleResponse{
		Date:       schedule.Date.String(),
		IsClosed:   schedule.IsClosed,
		Capacity:   schedule.Capacity,
		Source:     string(schedule.Source),
		Note:       schedule.Note,
		StartTimes: make([]string, len(starts)),
	}

	if !schedule.IsClosed {
		resp.OpenTime = schedule.OpenTime.String()
		resp.CloseTime = schedule.CloseTime.String()
	}
	for i, start := range starts {
		resp.StartTimes[i] = start.String()
	}
	return resp
}

// FromDomainOverride конвертирует переопределение в DTO
func FromDomainOverride(o *domain.DayOverride) *OverrideResponse {
	if o == nil {
		return nil
	}

	return &OverrideResponse{
		Date:      o.Date.String(),
		IsClosed:  o.IsClosed,
		OpenTime:  timeString(o.OpenTime),
		CloseTime: timeString(o.CloseTime),
		Capacity:  o.Capacity,
		Note:      o.Note,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// FromDomainOverrideList конвертирует список переопределений в DTO
func FromDomainOverrideList(items []*domain.DayOverride) *OverrideListResponse {
	resp := &OverrideListResponse{
		Overrides: make([]OverrideResponse, 0, len(items)),
	}
	for _, o := range items {
		if item := FromDomainOverride(o); item != nil {
			resp.Overrides = append(resp.Overrides, *item)
		}
	}
	return resp
}

func timeString(t *types.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}
