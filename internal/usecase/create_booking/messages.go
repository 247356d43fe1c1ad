package create_booking

import (
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// rejectionMessage текст отказа для клиента
func rejectionMessage(slot domain.SlotAvailability) string {
	switch slot.Reason {
	case domain.ReasonShopClosed:
		return "В этот день сервис не работает"
	case domain.ReasonOutsideHours:
		return fmt.Sprintf("Сервис ещё закрыт в %s", slot.StartTime)
	case domain.ReasonPastClosing:
		return fmt.Sprintf("Услуга закончится в %s, это на %.1f ч позже закрытия",
			slot.Interval.End, slot.OvertimeHours())
	case domain.ReasonFullyBooked:
		return fmt.Sprintf("На это время нет свободных мест (занято %d из %d)", slot.Conflicts, slot.Capacity)
	case domain.ReasonTemporarilyUnavailable:
		return "Сервис записи временно перегружен, попробуйте ещё раз"
	default:
		return "Запись на это время невозможна"
	}
}
