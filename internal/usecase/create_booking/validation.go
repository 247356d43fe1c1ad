package create_booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: request is required", ErrInvalidInput)
	}

	// Проверяем, что дата не является нулевой
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if !req.StartTime.Valid() {
		return fmt.Errorf("%w: startTime out of range", ErrInvalidInput)
	}

	if !domain.ValidServiceKey(req.ServiceKey) {
		return fmt.Errorf("%w: malformed service key %q", ErrInvalidInput, req.ServiceKey)
	}

	if strings.TrimSpace(req.CustomerRef) == "" {
		return fmt.Errorf("%w: customerRef is required", ErrInvalidInput)
	}
	if len(req.CustomerRef) > domain.MaxCustomerRefLength {
		return fmt.Errorf("%w: customerRef exceeds %d characters", ErrInvalidInput, domain.MaxCustomerRefLength)
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	return nil
}

// validateBookingTime проверяет, что дата не прошла, а для сегодняшнего дня
// время начала ещё впереди
func validateBookingTime(date types.Date, start types.TimeOfDay, now time.Time) error {
	today := types.DateOf(now)

	if date.Before(today) {
		return ErrInvalidDate
	}

	if date == today {
		current := types.TimeOfDay(now.Hour()*60 + now.Minute())
		if start < current {
			return fmt.Errorf("%w: %s is earlier than %s", ErrTooLateToBook, start, current)
		}
	}

	return nil
}
