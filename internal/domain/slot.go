package domain

import "github.com/m04kA/SMC-AppointmentService/pkg/types"

// SlotStatus классификация слота
type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotLimited     SlotStatus = "limited"
	SlotUnavailable SlotStatus = "unavailable"
)

// Reason код причины недоступности слота или отказа в записи
type Reason string

const (
	ReasonNone                   Reason = ""
	ReasonShopClosed             Reason = "SHOP_CLOSED"
	ReasonOutsideHours           Reason = "OUTSIDE_HOURS"
	ReasonPastClosing            Reason = "PAST_CLOSING"
	ReasonFullyBooked            Reason = "FULLY_BOOKED"
	ReasonTemporarilyUnavailable Reason = "TEMPORARILY_UNAVAILABLE"
)

// SlotAvailability classification of one candidate start time
type SlotAvailability struct {
	StartTime       types.TimeOfDay
	Interval        Interval
	Status          SlotStatus
	Reason          Reason
	Conflicts       int
	Capacity        int
	OvertimeMinutes int
}

// IsBookable returns true if a booking at this slot would be admitted
func (s SlotAvailability) IsBookable() bool {
	return s.Status == SlotAvailable || s.Status == SlotLimited
}

// RemainingSpots returns free capacity at this slot
func (s SlotAvailability) RemainingSpots() int {
	if !s.IsBookable() {
		return 0
	}
	return s.Capacity - s.Conflicts
}

// OvertimeHours returns overtime rounded to one decimal hour
func (s SlotAvailability) OvertimeHours() float64 {
	return MinutesToHours(s.OvertimeMinutes)
}

// DayAvailability slot map of one date for one service
type DayAvailability struct {
	Date            types.Date
	ServiceKey      string
	DurationMinutes int
	Schedule        DaySchedule
	Closed          bool
	Slots           []SlotAvailability
}
