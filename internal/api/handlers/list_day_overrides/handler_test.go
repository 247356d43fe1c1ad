package list_day_overrides

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/calendar"
	"github.com/m04kA/SMC-AppointmentService/internal/service/calendar/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeCalendar struct {
	items []*domain.DayOverride
	err   error
}

func (f *fakeCalendar) ListOverrides(context.Context, types.Date, types.Date) ([]*domain.DayOverride, error) {
	return f.items, f.err
}

func TestHandle_OK(t *testing.T) {
	closed := true
	svc := &fakeCalendar{items: []*domain.DayOverride{
		{Date: types.NewDate(2025, 6, 12), IsClosed: &closed, Note: "санитарный день"},
	}}

	rec := httptest.NewRecorder()
	NewHandler(svc, nopLogger{}).Handle(rec,
		httptest.NewRequest(http.MethodGet, "/api/v1/calendar/overrides?from=2025-06-01&to=2025-06-30", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.OverrideListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Overrides, 1)
	assert.Equal(t, "2025-06-12", body.Overrides[0].Date)
	assert.True(t, *body.Overrides[0].IsClosed)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		err    error
		status int
	}{
		{name: "missing to", query: "from=2025-06-01", status: http.StatusBadRequest},
		{name: "bad from", query: "from=june&to=2025-06-30", status: http.StatusBadRequest},
		{name: "period rejected", query: "from=2025-06-30&to=2025-06-01", err: calendar.ErrInvalidInput, status: http.StatusBadRequest},
		{name: "internal", query: "from=2025-06-01&to=2025-06-30", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHandler(&fakeCalendar{err: tt.err}, nopLogger{}).Handle(rec,
				httptest.NewRequest(http.MethodGet, "/api/v1/calendar/overrides?"+tt.query, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
