package list_bookings

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// ToServiceRequest формирует запрос к сервису из query параметров.
// Параметры: date | from+to, status, service, includeInactive, limit.
func ToServiceRequest(query url.Values) (*models.ListReservationsRequest, error) {
	req := &models.ListReservationsRequest{
		IncludeInactive: false, // По умолчанию только активные
	}

	var err error
	if req.Date, err = parseOptionalDate(query.Get("date")); err != nil {
		return nil, err
	}
	if req.From, err = parseOptionalDate(query.Get("from")); err != nil {
		return nil, err
	}
	if req.To, err = parseOptionalDate(query.Get("to")); err != nil {
		return nil, err
	}

	if status := query.Get("status"); status != "" {
		req.Status = &status
	}
	if service := query.Get("service"); service != "" {
		req.ServiceKey = &service
	}

	// Парсим includeInactive если указан
	if includeInactiveStr := query.Get("includeInactive"); includeInactiveStr != "" {
		includeInactive, err := strconv.ParseBool(includeInactiveStr)
		if err != nil {
			return nil, fmt.Errorf("invalid includeInactive value: %w", err)
		}
		req.IncludeInactive = includeInactive
	}

	// Парсим limit если указан
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.ParseUint(limitStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid limit value: %w", err)
		}
		req.Limit = limit
	}

	return req, nil
}

func parseOptionalDate(s string) (*types.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := types.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
