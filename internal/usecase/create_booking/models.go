package create_booking

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Request модель запроса на запись
type Request struct {
	Date        types.Date      // Дата записи
	StartTime   types.TimeOfDay // Время начала (сетка не обязательна)
	ServiceKey  string          // Ключ услуги (или алиас)
	CustomerRef string          // Идентификатор клиента во внешней CRM
	Notes       *string         // Дополнительные заметки (опционально)
}

// Result решение по заявке: либо запись создана, либо отказ с причиной
type Result struct {
	Admitted        bool
	Reservation     *domain.Reservation // Только для Admitted
	DurationMinutes int
	Rejection       *Rejection // Только для отказа
}

// Rejection отказ в записи
type Rejection struct {
	Reason          domain.Reason
	Message         string // Сообщение для клиента
	Conflicts       int
	Capacity        int
	OvertimeMinutes int
	OvertimeHours   float64
}

func admitted(r *domain.Reservation, duration int) *Result {
	return &Result{Admitted: true, Reservation: r, DurationMinutes: duration}
}

func rejected(slot domain.SlotAvailability, duration int) *Result {
	return &Result{
		DurationMinutes: duration,
		Rejection: &Rejection{
			Reason:          slot.Reason,
			Message:         rejectionMessage(slot),
			Conflicts:       slot.Conflicts,
			Capacity:        slot.Capacity,
			OvertimeMinutes: slot.OvertimeMinutes,
			OvertimeHours:   slot.OvertimeHours(),
		},
	}
}

func temporarilyUnavailable(duration int) *Result {
	return rejected(domain.SlotAvailability{
		Status: domain.SlotUnavailable,
		Reason: domain.ReasonTemporarilyUnavailable,
	}, duration)
}
