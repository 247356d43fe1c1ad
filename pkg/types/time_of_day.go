package types

import (
	"errors"
	"fmt"
	"time"
)

// MinutesPerDay количество минут в сутках
const MinutesPerDay = 24 * 60

var (
	// ErrInvalidTimeFormat возвращается, когда строка не соответствует формату HH:MM
	ErrInvalidTimeFormat = errors.New("types: invalid time format, expected HH:MM")

	// ErrTimeOutOfRange возвращается, когда время выходит за пределы суток
	ErrTimeOutOfRange = errors.New("types: time of day out of range")
)

// TimeOfDay время суток в минутах от полуночи.
// Вся арифметика слотов ведётся в целых минутах, без плавающей точки.
// Значения >= MinutesPerDay допустимы только как конец интервала.
type TimeOfDay int

// NewTimeOfDay создаёт время суток из часов и минут
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrTimeOutOfRange, hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ParseTimeOfDay разбирает строку в строгом формате "HH:MM"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	digits := [4]byte{s[0], s[1], s[3], s[4]}
	for _, d := range digits {
		if d < '0' || d > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
		}
	}

	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')

	return NewTimeOfDay(hour, minute)
}

// MustParseTimeOfDay как ParseTimeOfDay, но паникует при ошибке.
// Используется для констант и тестов.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// TimeOfDayFromTime возвращает время суток для time.Time (в его локации)
func TimeOfDayFromTime(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// Minutes возвращает количество минут от полуночи
func (t TimeOfDay) Minutes() int {
	return int(t)
}

// Valid проверяет, что время лежит в пределах [00:00, 24:00)
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}

// AddMinutes сдвигает время на указанное количество минут.
// Результат может выйти за пределы суток - это нужно для концов интервалов.
func (t TimeOfDay) AddMinutes(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// IsBefore возвращает true, если t строго раньше other
func (t TimeOfDay) IsBefore(other TimeOfDay) bool {
	return t < other
}

// IsAfter возвращает true, если t строго позже other
func (t TimeOfDay) IsAfter(other TimeOfDay) bool {
	return t > other
}

// String форматирует время как "HH:MM"
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalText реализует encoding.TextMarshaler (JSON, TOML)
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler (JSON, TOML)
func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
