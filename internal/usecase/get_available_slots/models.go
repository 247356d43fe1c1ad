package get_available_slots

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Request модель запроса на получение карты слотов
type Request struct {
	Date       types.Date // Дата
	ServiceKey string     // Ключ услуги (или алиас)
}

// Response карта слотов дня для услуги
type Response struct {
	Date            types.Date
	ServiceKey      string // Канонический ключ, если услуга есть в каталоге
	ServiceName     string
	DurationMinutes int
	Closed          bool
	Schedule        domain.DaySchedule
	Slots           []Slot
}

// Slot модель временного слота
type Slot struct {
	StartTime       types.TimeOfDay
	EndTime         types.TimeOfDay
	Status          domain.SlotStatus
	Reason          domain.Reason
	Conflicts       int     // Пересекающиеся активные записи
	Capacity        int     // Вместимость дня
	AvailableSpots  int     // Свободных мест
	OvertimeMinutes int     // Насколько услуга выходит за закрытие
	OvertimeHours   float64 // То же в часах, с точностью до 0.1
}
