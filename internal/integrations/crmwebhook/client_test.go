package crmwebhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/integrations/events"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func TestClient_Publish(t *testing.T) {
	var got events.Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "reservation.admitted", r.Header.Get("X-Event-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nopLogger{})
	event := events.Event{ID: "e-1", Type: events.TypeReservationAdmitted}
	event.Reservation.ID = 42

	require.NoError(t, c.Publish(context.Background(), event))
	assert.Equal(t, int64(42), got.Reservation.ID)
}

func TestClient_PublishErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":422,"message":"unknown customer"}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL+"/bad", time.Second, nopLogger{}).Publish(context.Background(), events.Event{})
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "unknown customer")

	err = NewClient(srv.URL, time.Second, nopLogger{}).Publish(context.Background(), events.Event{})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}
