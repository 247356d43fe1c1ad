package types

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// timestampLayouts форматы, в которых драйверы возвращают TIMESTAMP-колонки
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	// time.Time.String(): так modernc.org/sqlite пишет время без _time_format
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

// NullTimestamp nullable момент времени, который одинаково читается
// из PostgreSQL (time.Time) и из SQLite (строка)
type NullTimestamp struct {
	Time  time.Time
	Valid bool
}

// Scan реализует sql.Scanner
func (n *NullTimestamp) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		n.Time, n.Valid = time.Time{}, false
		return nil
	case time.Time:
		n.Time, n.Valid = v.UTC(), true
		return nil
	case string:
		return n.parse(v)
	case []byte:
		return n.parse(string(v))
	default:
		return fmt.Errorf("types: cannot scan %T into NullTimestamp", src)
	}
}

// Value реализует driver.Valuer
func (n NullTimestamp) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Time.UTC(), nil
}

// Ptr возвращает указатель на время или nil
func (n NullTimestamp) Ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func (n *NullTimestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			n.Time, n.Valid = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("types: cannot parse timestamp %q", s)
}
