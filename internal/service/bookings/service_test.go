package bookings

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/storagetest"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/events"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/sqlbuilder"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

var (
	tuesday   = types.NewDate(2025, time.June, 10)
	wednesday = types.NewDate(2025, time.June, 11)
	testNow   = time.Date(2025, time.June, 10, 15, 0, 0, 0, time.UTC)
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type durations map[string]int

func (d durations) DurationOf(key string) int {
	if v, ok := d[key]; ok {
		return v
	}
	return domain.DefaultServiceDurationMinutes
}

type recordingNotifier struct {
	events []events.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e events.Event) {
	n.events = append(n.events, e)
}

type fixture struct {
	repo     *reservationRepo.Repository
	notifier *recordingNotifier
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := storagetest.NewSQLite(t)
	repo := reservationRepo.NewRepository(db, sqlbuilder.SQLite)
	tm := txmanager.NewTransactionManager(db, txmanager.WithIsolation(sql.LevelDefault))
	notifier := &recordingNotifier{}

	svc := NewService(repo, durations{"tire-repair": 60}, tm, notifier, nopLogger{}).
		WithTimeProvider(&fixedClock{now: testNow})

	return &fixture{repo: repo, notifier: notifier, svc: svc}
}

func (f *fixture) seed(t *testing.T, date types.Date, start string, status domain.ReservationStatus) *domain.Reservation {
	t.Helper()
	created, err := f.repo.Create(context.Background(), &domain.Reservation{
		Reference:   uuid.New(),
		Date:        date,
		StartTime:   types.MustParseTimeOfDay(start),
		ServiceKey:  "tire-repair",
		CustomerRef: "crm-1",
		Status:      status,
	})
	require.NoError(t, err)
	return created
}

func ptr[T any](v T) *T { return &v }

func TestService_GetByID(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tuesday, "09:00", domain.StatusActive)

	got, err := f.svc.GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Reference.String(), got.Reference)
	assert.Equal(t, "2025-06-10", got.Date)
	assert.Equal(t, "10:00", got.EndTime)
	assert.Equal(t, 60, got.DurationMinutes)

	_, err = f.svc.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrReservationNotFound)

	_, err = f.svc.GetByID(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_CancelIsIdempotent(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tuesday, "09:00", domain.StatusActive)

	first, err := f.svc.Cancel(context.Background(), r.ID, &models.CancelReservationRequest{Reason: ptr("  клиент перенёс  ")})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), first.Status)
	require.NotNil(t, first.CancellationReason)
	assert.Equal(t, "клиент перенёс", *first.CancellationReason)
	require.NotNil(t, first.CancelledAt)

	second, err := f.svc.Cancel(context.Background(), r.ID, &models.CancelReservationRequest{Reason: ptr("другая причина")})
	require.NoError(t, err)
	assert.Equal(t, first.CancellationReason, second.CancellationReason)
	assert.Equal(t, first.CancelledAt, second.CancelledAt)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, events.TypeReservationCancelled, f.notifier.events[0].Type)

	active, err := f.repo.ListActiveByDate(context.Background(), tuesday)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestService_CancelRejectsFinishedReservation(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tuesday, "09:00", domain.StatusCompleted)

	_, err := f.svc.Cancel(context.Background(), r.ID, nil)
	assert.ErrorIs(t, err, ErrCannotCancel)

	_, err = f.svc.Cancel(context.Background(), 404, nil)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.Empty(t, f.notifier.events)
}

func TestService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tuesday, "09:00", domain.StatusActive)

	got, err := f.svc.UpdateStatus(context.Background(), r.ID, &models.UpdateStatusRequest{Status: "no_show"})
	require.NoError(t, err)
	assert.Equal(t, "no_show", got.Status)

	// Повтор того же статуса ничего не меняет
	_, err = f.svc.UpdateStatus(context.Background(), r.ID, &models.UpdateStatusRequest{Status: "no_show"})
	require.NoError(t, err)
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, events.TypeReservationStatus, f.notifier.events[0].Type)

	_, err = f.svc.UpdateStatus(context.Background(), r.ID, &models.UpdateStatusRequest{Status: "completed"})
	assert.ErrorIs(t, err, ErrCannotChangeStatus)

	for _, status := range []string{"active", "cancelled", "done", ""} {
		_, err = f.svc.UpdateStatus(context.Background(), r.ID, &models.UpdateStatusRequest{Status: status})
		assert.ErrorIs(t, err, ErrInvalidStatus, status)
	}
}

func TestService_List(t *testing.T) {
	f := newFixture(t)
	f.seed(t, tuesday, "11:00", domain.StatusActive)
	f.seed(t, tuesday, "09:00", domain.StatusActive)
	cancelled := f.seed(t, tuesday, "10:00", domain.StatusActive)
	f.seed(t, wednesday, "08:00", domain.StatusActive)

	_, err := f.svc.Cancel(context.Background(), cancelled.ID, nil)
	require.NoError(t, err)

	day, err := f.svc.List(context.Background(), &models.ListReservationsRequest{Date: &tuesday})
	require.NoError(t, err)
	require.Len(t, day.Reservations, 2)
	assert.Equal(t, "09:00", day.Reservations[0].StartTime)
	assert.Equal(t, "11:00", day.Reservations[1].StartTime)

	withCancelled, err := f.svc.List(context.Background(), &models.ListReservationsRequest{Date: &tuesday, IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, withCancelled.Reservations, 3)

	period, err := f.svc.List(context.Background(), &models.ListReservationsRequest{From: &tuesday, To: &wednesday})
	require.NoError(t, err)
	require.Len(t, period.Reservations, 3)
	assert.Equal(t, "2025-06-11", period.Reservations[2].Date)

	onlyCancelled, err := f.svc.List(context.Background(), &models.ListReservationsRequest{Date: &tuesday, Status: ptr("cancelled")})
	require.NoError(t, err)
	assert.Len(t, onlyCancelled.Reservations, 1)
}

func TestService_ListValidation(t *testing.T) {
	f := newFixture(t)
	farFuture := tuesday.AddDays(400)

	tests := []struct {
		name     string
		req      *models.ListReservationsRequest
		expected error
	}{
		{name: "nothing", req: &models.ListReservationsRequest{}, expected: ErrInvalidTimeRange},
		{name: "date and range", req: &models.ListReservationsRequest{Date: &tuesday, From: &tuesday, To: &wednesday}, expected: ErrInvalidTimeRange},
		{name: "open range", req: &models.ListReservationsRequest{From: &tuesday}, expected: ErrInvalidTimeRange},
		{name: "reversed range", req: &models.ListReservationsRequest{From: &wednesday, To: &tuesday}, expected: ErrInvalidTimeRange},
		{name: "range too long", req: &models.ListReservationsRequest{From: &tuesday, To: &farFuture}, expected: ErrInvalidTimeRange},
		{name: "bad status", req: &models.ListReservationsRequest{Date: &tuesday, Status: ptr("pending")}, expected: ErrInvalidStatus},
		{name: "bad service", req: &models.ListReservationsRequest{Date: &tuesday, ServiceKey: ptr("a b")}, expected: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.List(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}
