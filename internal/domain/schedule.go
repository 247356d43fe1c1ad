package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// ErrInvalidSchedule расписание дня противоречиво
var ErrInvalidSchedule = errors.New("domain: invalid day schedule")

// ScheduleSource уровень, с которого взято расписание дня
type ScheduleSource string

const (
	SourceDefault  ScheduleSource = "default"
	SourceWeekday  ScheduleSource = "weekday"
	SourceOverride ScheduleSource = "override"
)

// DaySchedule итоговое расписание конкретной даты
type DaySchedule struct {
	Date      types.Date
	IsClosed  bool
	OpenTime  types.TimeOfDay
	CloseTime types.TimeOfDay
	Capacity  int
	Source    ScheduleSource
	Note      string
}

// Validate проверяет инварианты: у открытого дня open < close и capacity >= 1
func (s DaySchedule) Validate() error {
	if s.IsClosed {
		return nil
	}
	return validateHours(s.OpenTime, s.CloseTime, s.Capacity)
}

// WorkingMinutes продолжительность рабочего дня в минутах
func (s DaySchedule) WorkingMinutes() int {
	if s.IsClosed {
		return 0
	}
	return int(s.CloseTime - s.OpenTime)
}

// DayOverride переопределение расписания на конкретную дату.
// nil-поля наследуются с уровня дня недели или глобального уровня.
type DayOverride struct {
	Date      types.Date
	IsClosed  *bool
	OpenTime  *types.TimeOfDay
	CloseTime *types.TimeOfDay
	Capacity  *int
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsEmpty возвращает true, если переопределение ничего не меняет
func (o DayOverride) IsEmpty() bool {
	return o.IsClosed == nil && o.OpenTime == nil && o.CloseTime == nil && o.Capacity == nil
}

// Apply накладывает переопределение на базовое расписание
func (o DayOverride) Apply(base DaySchedule) DaySchedule {
	out := base
	if o.IsClosed != nil {
		out.IsClosed = *o.IsClosed
	}
	if o.OpenTime != nil {
		out.OpenTime = *o.OpenTime
	}
	if o.CloseTime != nil {
		out.CloseTime = *o.CloseTime
	}
	if o.Capacity != nil {
		out.Capacity = *o.Capacity
	}
	out.Note = o.Note
	out.Source = SourceOverride
	return out
}

// WeekdayRule частичное правило для дня недели (nil-поля берутся из глобальных)
type WeekdayRule struct {
	IsClosed  *bool
	OpenTime  *types.TimeOfDay
	CloseTime *types.TimeOfDay
	Capacity  *int
}

// CalendarDefaults глобальные настройки календаря из конфигурации
type CalendarDefaults struct {
	OpenTime        types.TimeOfDay
	CloseTime       types.TimeOfDay
	Capacity        int
	SlotStepMinutes int
	ClosedWeekdays  []time.Weekday
	Weekdays        map[time.Weekday]WeekdayRule
}

// DefaultCalendar настройки календаря по умолчанию: 07:00-19:00, 2 места, воскресенье выходной
func DefaultCalendar() CalendarDefaults {
	return CalendarDefaults{
		OpenTime:        DefaultOpenTime,
		CloseTime:       DefaultCloseTime,
		Capacity:        DefaultCapacity,
		SlotStepMinutes: DefaultSlotStepMinutes,
		ClosedWeekdays:  []time.Weekday{DefaultClosedWeekday},
	}
}

// Resolve возвращает расписание даты без учёта переопределений на дату:
// правило дня недели, иначе глобальные настройки
func (c CalendarDefaults) Resolve(date types.Date) DaySchedule {
	schedule := DaySchedule{
		Date:      date,
		OpenTime:  c.OpenTime,
		CloseTime: c.CloseTime,
		Capacity:  c.Capacity,
		Source:    SourceDefault,
	}

	weekday := date.Weekday()
	for _, closed := range c.ClosedWeekdays {
		if closed == weekday {
			schedule.IsClosed = true
			break
		}
	}

	rule, ok := c.Weekdays[weekday]
	if !ok {
		return schedule
	}

	schedule.Source = SourceWeekday
	if rule.IsClosed != nil {
		schedule.IsClosed = *rule.IsClosed
	}
	if rule.OpenTime != nil {
		schedule.OpenTime = *rule.OpenTime
	}
	if rule.CloseTime != nil {
		schedule.CloseTime = *rule.CloseTime
	}
	if rule.Capacity != nil {
		schedule.Capacity = *rule.Capacity
	}
	return schedule
}

// Validate проверяет глобальные настройки и каждое правило дня недели
func (c CalendarDefaults) Validate() error {
	if err := validateHours(c.OpenTime, c.CloseTime, c.Capacity); err != nil {
		return err
	}
	if c.SlotStepMinutes < MinSlotStepMinutes || c.SlotStepMinutes > MaxSlotStepMinutes {
		return fmt.Errorf("%w: slot step %d minutes", ErrInvalidSchedule, c.SlotStepMinutes)
	}
	for weekday := range c.Weekdays {
		resolved := c.Resolve(dateOnWeekday(weekday))
		if err := resolved.Validate(); err != nil {
			return fmt.Errorf("%s: %w", weekday, err)
		}
	}
	return nil
}

func validateHours(open, closeAt types.TimeOfDay, capacity int) error {
	if !open.Valid() {
		return fmt.Errorf("%w: open time %s", ErrInvalidSchedule, open)
	}
	if closeAt <= open || closeAt > types.MinutesPerDay {
		return fmt.Errorf("%w: close time %s must be after open time %s", ErrInvalidSchedule, closeAt, open)
	}
	if capacity < MinCapacity || capacity > MaxCapacity {
		return fmt.Errorf("%w: capacity %d", ErrInvalidSchedule, capacity)
	}
	return nil
}

// dateOnWeekday возвращает произвольную дату, приходящуюся на weekday
func dateOnWeekday(weekday time.Weekday) types.Date {
	// 2024-01-07 - воскресенье
	return types.NewDate(2024, time.January, 7).AddDays(int(weekday))
}
