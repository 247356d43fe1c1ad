package domain

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Default configuration values
const (
	DefaultCapacity               = 2
	DefaultServiceDurationMinutes = 90
	DefaultSlotStepMinutes        = 30
	DefaultClosedWeekday          = time.Sunday
)

// DefaultOpenTime и DefaultCloseTime часы работы по умолчанию (07:00-19:00)
var (
	DefaultOpenTime  = types.TimeOfDay(7 * 60)
	DefaultCloseTime = types.TimeOfDay(19 * 60)
)

// Business validation constants
const (
	MinCapacity                 = 1
	MaxCapacity                 = 100
	MinServiceDurationMinutes   = 1
	MaxServiceDurationMinutes   = 24 * 60
	MinSlotStepMinutes          = 5
	MaxSlotStepMinutes          = 240
	MaxNotesLength              = 500
	MaxCustomerRefLength        = 255
	MaxCancellationReasonLength = 500
	MaxOverrideNoteLength       = 255
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
