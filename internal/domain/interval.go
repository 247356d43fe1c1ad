package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

var (
	// ErrIntervalStart начало интервала вне [00:00, 24:00)
	ErrIntervalStart = errors.New("domain: interval start out of range")
	// ErrIntervalDuration длительность интервала не положительна
	ErrIntervalDuration = errors.New("domain: interval duration must be positive")
)

// Interval полуоткрытый интервал [Start, End) в минутах от полуночи.
// End может выходить за 24:00, если услуга заканчивается после полуночи.
type Interval struct {
	Start types.TimeOfDay
	End   types.TimeOfDay
}

// NewInterval строит интервал услуги длительностью durationMinutes с началом в start
func NewInterval(start types.TimeOfDay, durationMinutes int) (Interval, error) {
	if !start.Valid() {
		return Interval{}, fmt.Errorf("%w: %d", ErrIntervalStart, start.Minutes())
	}
	if durationMinutes <= 0 {
		return Interval{}, fmt.Errorf("%w: %d", ErrIntervalDuration, durationMinutes)
	}
	return Interval{Start: start, End: start.AddMinutes(durationMinutes)}, nil
}

// Overlaps проверяет пересечение полуоткрытых интервалов.
// Соприкасающиеся интервалы ([09:00,10:00) и [10:00,11:00)) не пересекаются.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && i.End > other.Start
}

// Duration длительность интервала в минутах
func (i Interval) Duration() int {
	return int(i.End - i.Start)
}

// ExceedsBy на сколько минут интервал выходит за limit (0, если не выходит)
func (i Interval) ExceedsBy(limit types.TimeOfDay) int {
	if i.End <= limit {
		return 0
	}
	return int(i.End - limit)
}

// String форматирует интервал как "09:00-10:00"
func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

// MinutesToHours переводит минуты в часы с округлением до 0.1
func MinutesToHours(minutes int) float64 {
	return math.Round(float64(minutes)/6) / 10
}
