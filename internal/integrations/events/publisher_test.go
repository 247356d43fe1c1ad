package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

type recordingSink struct {
	events []Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, e Event) error {
	s.events = append(s.events, e)
	return s.err
}

func testReservation() *domain.Reservation {
	return &domain.Reservation{
		ID:          7,
		Reference:   uuid.MustParse("0b9a4a52-8f0e-4a39-9d0e-2f7f0f7f6c11"),
		Date:        types.NewDate(2025, time.June, 10),
		StartTime:   types.MustParseTimeOfDay("09:00"),
		ServiceKey:  "tire-repair",
		CustomerRef: "crm-123",
		Status:      domain.StatusActive,
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w, topic: "reservations"}

	event := NewEvent(TypeReservationAdmitted, testReservation(), 60, time.Now())
	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "2025-06-10", string(msg.Key))
	assert.Equal(t, []kafka.Header{
		{Key: "event_id", Value: []byte(event.ID)},
		{Key: "event_type", Value: []byte(TypeReservationAdmitted)},
	}, msg.Headers)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "09:00", decoded.Reservation.StartTime)
	assert.Equal(t, 60, decoded.Reservation.DurationMinutes)
	assert.Equal(t, "0b9a4a52-8f0e-4a39-9d0e-2f7f0f7f6c11", decoded.Reservation.Reference)

	w.err = errors.New("broker down")
	assert.ErrorIs(t, p.Publish(context.Background(), event), ErrPublish)
}

func TestFanout_ContinuesAfterError(t *testing.T) {
	failing := &recordingSink{err: errors.New("boom")}
	ok := &recordingSink{}

	err := Fanout{failing, ok}.Publish(context.Background(), Event{Type: TypeReservationCancelled})
	assert.Error(t, err)
	assert.Len(t, ok.events, 1)
}

func TestNotifier_SurvivesCancelledRequest(t *testing.T) {
	sink := &recordingSink{}
	n := NewNotifier(sink, time.Second, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.Notify(ctx, NewEvent(TypeReservationAdmitted, testReservation(), 60, time.Now()))

	require.Len(t, sink.events, 1)
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, SplitBrokers(""))
}
