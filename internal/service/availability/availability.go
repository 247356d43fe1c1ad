// Package availability классифицирует слоты дня по вместимости и часам работы.
// Функции пакета чистые: всё состояние передаётся аргументами.
package availability

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// DurationFunc возвращает длительность услуги по ключу
type DurationFunc func(serviceKey string) int

// ClassifySlot классифицирует один кандидатный старт.
//
// Порядок проверок:
//  1. день закрыт: SHOP_CLOSED
//  2. услуга заканчивается после закрытия: PAST_CLOSING (не зависит от вместимости и старта)
//  3. старт раньше открытия: OUTSIDE_HOURS
//  4. конфликтов >= capacity: FULLY_BOOKED
//  5. конфликтов == capacity-1: limited, иначе available
func ClassifySlot(
	schedule domain.DaySchedule,
	start types.TimeOfDay,
	durationMinutes int,
	reservations []*domain.Reservation,
	durationOf DurationFunc,
) (domain.SlotAvailability, error) {
	candidate, err := domain.NewInterval(start, durationMinutes)
	if err != nil {
		return domain.SlotAvailability{}, err
	}

	slot := domain.SlotAvailability{
		StartTime: start,
		Interval:  candidate,
		Capacity:  schedule.Capacity,
	}

	if schedule.IsClosed {
		slot.Status = domain.SlotUnavailable
		slot.Reason = domain.ReasonShopClosed
		return slot, nil
	}

	// PAST_CLOSING зависит только от конца интервала и проверяется до OUTSIDE_HOURS
	if overtime := candidate.ExceedsBy(schedule.CloseTime); overtime > 0 {
		slot.Status = domain.SlotUnavailable
		slot.Reason = domain.ReasonPastClosing
		slot.OvertimeMinutes = overtime
		return slot, nil
	}

	if start < schedule.OpenTime {
		slot.Status = domain.SlotUnavailable
		slot.Reason = domain.ReasonOutsideHours
		return slot, nil
	}

	slot.Conflicts = CountConflicts(schedule.Date, candidate, reservations, durationOf)

	switch {
	case slot.Conflicts >= schedule.Capacity:
		slot.Status = domain.SlotUnavailable
		slot.Reason = domain.ReasonFullyBooked
	case slot.Conflicts == schedule.Capacity-1:
		slot.Status = domain.SlotLimited
	default:
		slot.Status = domain.SlotAvailable
	}
	return slot, nil
}

// CountConflicts считает активные записи даты date, пересекающиеся с candidate.
// Интервал записи строится по текущей длительности её услуги в каталоге.
func CountConflicts(
	date types.Date,
	candidate domain.Interval,
	reservations []*domain.Reservation,
	durationOf DurationFunc,
) int {
	conflicts := 0
	for _, r := range reservations {
		if r == nil || r.Date != date || !r.IsActive() {
			continue
		}
		existing, err := r.Interval(durationOf(r.ServiceKey))
		if err != nil {
			// Запись с некорректным временем не может пересекаться ни с чем
			continue
		}
		if candidate.Overlaps(existing) {
			conflicts++
		}
	}
	return conflicts
}

// EvaluateDay строит карту слотов дня для услуги длительностью durationMinutes.
// Для закрытого дня возвращается только признак Closed без строк слотов.
func EvaluateDay(
	schedule domain.DaySchedule,
	starts []types.TimeOfDay,
	serviceKey string,
	durationMinutes int,
	reservations []*domain.Reservation,
	durationOf DurationFunc,
) (domain.DayAvailability, error) {
	day := domain.DayAvailability{
		Date:            schedule.Date,
		ServiceKey:      serviceKey,
		DurationMinutes: durationMinutes,
		Schedule:        schedule,
	}

	if schedule.IsClosed {
		day.Closed = true
		return day, nil
	}

	day.Slots = make([]domain.SlotAvailability, 0, len(starts))
	for _, start := range starts {
		slot, err := ClassifySlot(schedule, start, durationMinutes, reservations, durationOf)
		if err != nil {
			return domain.DayAvailability{}, err
		}
		day.Slots = append(day.Slots, slot)
	}
	return day, nil
}
