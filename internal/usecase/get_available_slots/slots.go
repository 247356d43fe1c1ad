package get_available_slots

import "github.com/m04kA/SMC-AppointmentService/internal/domain"

// toSlots конвертирует классификацию слотов в модель ответа
func toSlots(in []domain.SlotAvailability) []Slot {
	slots := make([]Slot, 0, len(in))
	for _, s := range in {
		slots = append(slots, Slot{
			StartTime:       s.StartTime,
			EndTime:         s.Interval.End,
			Status:          s.Status,
			Reason:          s.Reason,
			Conflicts:       s.Conflicts,
			Capacity:        s.Capacity,
			AvailableSpots:  s.RemainingSpots(),
			OvertimeMinutes: s.OvertimeMinutes,
			OvertimeHours:   s.OvertimeHours(),
		})
	}
	return slots
}
