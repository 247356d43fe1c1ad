package get_available_slots

import (
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	Date            string          `json:"date"`
	Service         string          `json:"service"`
	ServiceName     string          `json:"serviceName,omitempty"`
	DurationMinutes int             `json:"durationMinutes"`
	Closed          bool            `json:"closed"`
	Schedule        ScheduleInfo    `json:"schedule"`
	Slots           []AvailableSlot `json:"slots"`
}

// ScheduleInfo часы работы дня
type ScheduleInfo struct {
	OpenTime  string `json:"openTime,omitempty"`
	CloseTime string `json:"closeTime,omitempty"`
	Capacity  int    `json:"capacity"`
	Source    string `json:"source"`
	Note      string `json:"note,omitempty"`
}

// AvailableSlot модель временного слота
type AvailableSlot struct {
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	Status          string  `json:"status"`
	Reason          string  `json:"reason,omitempty"`
	Conflicts       int     `json:"conflicts"`
	Capacity        int     `json:"capacity"`
	AvailableSpots  int     `json:"availableSpots"`
	OvertimeMinutes int     `json:"overtimeMinutes,omitempty"`
	OvertimeHours   float64 `json:"overtimeHours,omitempty"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailabilityResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			StartTime:       slot.StartTime.String(),
			EndTime:         slot.EndTime.String(),
			Status:          string(slot.Status),
			Reason:          string(slot.Reason),
			Conflicts:       slot.Conflicts,
			Capacity:        slot.Capacity,
			AvailableSpots:  slot.AvailableSpots,
			OvertimeMinutes: slot.OvertimeMinutes,
			OvertimeHours:   slot.OvertimeHours,
		}
	}

	schedule := ScheduleInfo{
		Capacity: resp.Schedule.Capacity,
		Source:   string(resp.Schedule.Source),
		Note:     resp.Schedule.Note,
	}
	if !resp.Closed {
		schedule.OpenTime = resp.Schedule.OpenTime.String()
		schedule.CloseTime = resp.Schedule.CloseTime.String()
	}

	return &AvailabilityResponse{
		Date:            resp.Date.String(),
		Service:         resp.ServiceKey,
		ServiceName:     resp.ServiceName,
		DurationMinutes: resp.DurationMinutes,
		Closed:          resp.Closed,
		Schedule:        schedule,
		Slots:           slots,
	}
}

// ToUseCaseRequest создает запрос use case из query параметров
func ToUseCaseRequest(dateStr, service string) (*getAvailableSlots.Request, error) {
	// Парсим дату
	date, err := types.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}

	return &getAvailableSlots.Request{
		Date:       date,
		ServiceKey: service,
	}, nil
}
