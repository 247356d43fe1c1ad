package list_bookings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeService struct {
	got *models.ListReservationsRequest
	err error
}

func (f *fakeService) List(_ context.Context, req *models.ListReservationsRequest) (*models.ReservationListResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.ReservationListResponse{Reservations: []models.ReservationResponse{{ID: 1}}}, nil
}

func TestToServiceRequest(t *testing.T) {
	query, err := url.ParseQuery("from=2025-06-01&to=2025-06-30&status=active&service=tuneup&includeInactive=true&limit=20")
	require.NoError(t, err)

	req, err := ToServiceRequest(query)
	require.NoError(t, err)

	assert.Nil(t, req.Date)
	assert.Equal(t, "2025-06-01", req.From.String())
	assert.Equal(t, "2025-06-30", req.To.String())
	assert.Equal(t, "active", *req.Status)
	assert.Equal(t, "tuneup", *req.ServiceKey)
	assert.True(t, req.IncludeInactive)
	assert.Equal(t, uint64(20), req.Limit)
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		err    error
		status int
	}{
		{name: "by date", query: "date=2025-06-10", status: http.StatusOK},
		{name: "bad date", query: "date=tomorrow", status: http.StatusBadRequest},
		{name: "bad limit", query: "date=2025-06-10&limit=-1", status: http.StatusBadRequest},
		{name: "bad flag", query: "date=2025-06-10&includeInactive=maybe", status: http.StatusBadRequest},
		{name: "range too long", query: "from=2025-01-01&to=2026-06-01", err: bookings.ErrInvalidTimeRange, status: http.StatusBadRequest},
		{name: "invalid status", query: "date=2025-06-10&status=lost", err: bookings.ErrInvalidStatus, status: http.StatusBadRequest},
		{name: "internal", query: "date=2025-06-10", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeService{err: tt.err}, nopLogger{})

			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bookings?"+tt.query, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
