package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// DateLayout формат календарной даты (ISO-8601)
const DateLayout = "2006-01-02"

// ErrInvalidDateFormat возвращается, когда строка не является датой YYYY-MM-DD
var ErrInvalidDateFormat = errors.New("types: invalid date format, expected YYYY-MM-DD")

// Date календарная дата без времени и часового пояса.
// Внутри хранится полночь UTC, поэтому значения можно сравнивать через ==.
type Date struct {
	t time.Time
}

// NewDate создаёт дату из года, месяца и дня
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf возвращает календарную дату момента t (в локации t)
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate разбирает строку "YYYY-MM-DD"
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	return DateOf(t), nil
}

// IsZero возвращает true для незаданной даты
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Time возвращает полночь UTC этой даты
func (d Date) Time() time.Time {
	return d.t
}

// Weekday возвращает день недели
func (d Date) Weekday() time.Weekday {
	return d.t.Weekday()
}

// AddDays сдвигает дату на n дней
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Before возвращает true, если d строго раньше other
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// After возвращает true, если d строго позже other
func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

// Equal сравнивает две даты
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// String форматирует дату как "YYYY-MM-DD"
func (d Date) String() string {
	return d.t.Format(DateLayout)
}

// MarshalText реализует encoding.TextMarshaler
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value реализует driver.Valuer: в БД дата уходит строкой YYYY-MM-DD.
// PostgreSQL приводит её к DATE, SQLite хранит как TEXT.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan реализует sql.Scanner.
// lib/pq отдаёт DATE как time.Time, SQLite - как строку.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("types: cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	// Некоторые драйверы возвращают дату с временем ("2025-06-10T00:00:00Z")
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
