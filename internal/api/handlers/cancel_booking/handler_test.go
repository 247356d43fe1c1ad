package cancel_booking

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
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
	gotID  int64
	gotReq *models.CancelReservationRequest
	err    error
}

func (f *fakeService) Cancel(_ context.Context, id int64, req *models.CancelReservationRequest) (*models.ReservationResponse, error) {
	f.gotID = id
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.ReservationResponse{ID: id, Status: "cancelled"}, nil
}

func patch(svc BookingService, path, body string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/bookings/{bookingId}/cancel", NewHandler(svc, nopLogger{}).Handle).Methods(http.MethodPatch)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPatch, path, nil)
	} else {
		req = httptest.NewRequest(http.MethodPatch, path, bytes.NewBufferString(body))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandle_WithReason(t *testing.T) {
	svc := &fakeService{}

	rec := patch(svc, "/api/v1/bookings/5/cancel", `{"reason":"клиент заболел"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), svc.gotID)
	require.NotNil(t, svc.gotReq.Reason)
	assert.Equal(t, "клиент заболел", *svc.gotReq.Reason)
}

func TestHandle_EmptyBody(t *testing.T) {
	svc := &fakeService{}

	rec := patch(svc, "/api/v1/bookings/5/cancel", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.gotReq.Reason)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		err    error
		status int
	}{
		{name: "bad id", path: "/api/v1/bookings/x/cancel", status: http.StatusBadRequest},
		{name: "bad body", path: "/api/v1/bookings/5/cancel", body: `{"why":1}`, status: http.StatusBadRequest},
		{name: "not found", path: "/api/v1/bookings/5/cancel", err: bookings.ErrReservationNotFound, status: http.StatusNotFound},
		{name: "finished", path: "/api/v1/bookings/5/cancel", err: bookings.ErrCannotCancel, status: http.StatusConflict},
		{name: "reason too long", path: "/api/v1/bookings/5/cancel", err: bookings.ErrInvalidInput, status: http.StatusBadRequest},
		{name: "internal", path: "/api/v1/bookings/5/cancel", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := patch(&fakeService{err: tt.err}, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
