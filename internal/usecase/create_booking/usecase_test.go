package create_booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/lock"
	reservationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/events"
	"github.com/m04kA/SMC-AppointmentService/internal/service/catalog"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

var (
	tuesday = types.NewDate(2025, time.June, 10)
	sunday  = types.NewDate(2025, time.June, 15)
	// Накануне тестовой даты, полдень
	testNow = time.Date(2025, time.June, 9, 12, 0, 0, 0, time.UTC)
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type fakeRepo struct {
	mu        sync.Mutex
	items     []*domain.Reservation
	nextID    int64
	lockErr   error
	listErr   error
	createErr error
	lockCalls int
}

func (r *fakeRepo) Create(_ context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	res.ID = r.nextID
	r.items = append(r.items, res)
	return res, nil
}

func (r *fakeRepo) ListActiveByDate(_ context.Context, date types.Date) ([]*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*domain.Reservation
	for _, res := range r.items {
		if res.Date == date && res.IsActive() {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeRepo) LockDate(context.Context, types.Date, time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lockCalls++
	return r.lockErr
}

type fakeCalendar struct {
	defaults domain.CalendarDefaults
}

func (c *fakeCalendar) ScheduleFor(_ context.Context, date types.Date) (domain.DaySchedule, error) {
	return c.defaults.Resolve(date), nil
}

// inlineTx выполняет функцию без реальной транзакции
type inlineTx struct{ err error }

func (tx *inlineTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx.err != nil {
		return tx.err
	}
	return fn(ctx)
}

type fakeLocker struct {
	err      error
	released int
}

func (l *fakeLocker) Lock(context.Context, string, time.Duration) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	return func() { l.released++ }, nil
}

type recordingNotifier struct {
	events []events.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e events.Event) {
	n.events = append(n.events, e)
}

type recordingMetrics struct {
	outcomes  []string
	lockWaits int
}

func (m *recordingMetrics) ObserveAdmission(outcome string) { m.outcomes = append(m.outcomes, outcome) }
func (m *recordingMetrics) ObserveLockWait(time.Duration)   { m.lockWaits++ }

type fixture struct {
	repo     *fakeRepo
	tx       *inlineTx
	locker   *fakeLocker
	notifier *recordingNotifier
	metrics  *recordingMetrics
	uc       *UseCase
}

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]domain.ServiceDefinition{
		{Key: "tire-repair", Name: "Шиномонтаж", DurationMinutes: 60},
		{Key: "tuneup", Name: "Техобслуживание", DurationMinutes: 300, Aliases: []string{"tune-up"}},
	}, domain.DefaultServiceDurationMinutes)
	require.NoError(t, err)
	return c
}

func newFixture(t *testing.T, existing ...*domain.Reservation) *fixture {
	t.Helper()
	f := &fixture{
		repo:     &fakeRepo{items: existing, nextID: int64(len(existing))},
		tx:       &inlineTx{},
		locker:   &fakeLocker{},
		notifier: &recordingNotifier{},
		metrics:  &recordingMetrics{},
	}
	f.uc = NewUseCase(
		f.repo,
		&fakeCalendar{defaults: domain.DefaultCalendar()},
		newTestCatalog(t),
		f.tx,
		f.locker,
		f.notifier,
		f.metrics,
		time.Second,
		nopLogger{},
	).WithTimeProvider(&fixedClock{now: testNow})
	return f
}

func activeAt(start string) *domain.Reservation {
	return &domain.Reservation{
		Reference:   uuid.New(),
		Date:        tuesday,
		StartTime:   types.MustParseTimeOfDay(start),
		ServiceKey:  "tire-repair",
		CustomerRef: "crm-existing",
		Status:      domain.StatusActive,
	}
}

func request(start, service string) *Request {
	return &Request{
		Date:        tuesday,
		StartTime:   types.MustParseTimeOfDay(start),
		ServiceKey:  service,
		CustomerRef: "crm-42",
	}
}

func TestExecute_AdmitsAndPublishes(t *testing.T) {
	f := newFixture(t)

	result, err := f.uc.Execute(context.Background(), request("09:00", "tire-repair"))
	require.NoError(t, err)

	require.True(t, result.Admitted)
	assert.Nil(t, result.Rejection)
	assert.Equal(t, int64(1), result.Reservation.ID)
	assert.NotEqual(t, uuid.Nil, result.Reservation.Reference)
	assert.Equal(t, domain.StatusActive, result.Reservation.Status)
	assert.Equal(t, 60, result.DurationMinutes)

	assert.Equal(t, 1, f.repo.lockCalls)
	assert.Equal(t, 1, f.locker.released)
	assert.Equal(t, []string{"admitted"}, f.metrics.outcomes)
	assert.Equal(t, 1, f.metrics.lockWaits)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, events.TypeReservationAdmitted, f.notifier.events[0].Type)
	assert.Equal(t, "09:00", f.notifier.events[0].Reservation.StartTime)
}

// lockCheckingNotifier запоминает, была ли снята блокировка даты к моменту публикации
type lockCheckingNotifier struct {
	locker            *fakeLocker
	releasedAtPublish int
}

func (n *lockCheckingNotifier) Notify(context.Context, events.Event) {
	n.releasedAtPublish = n.locker.released
}

func TestExecute_PublishesAfterDateLockReleased(t *testing.T) {
	f := newFixture(t)
	notifier := &lockCheckingNotifier{locker: f.locker}
	f.uc.notifier = notifier

	result, err := f.uc.Execute(context.Background(), request("09:00", "tire-repair"))
	require.NoError(t, err)
	require.True(t, result.Admitted)
	assert.Equal(t, 1, notifier.releasedAtPublish)
}

func TestExecute_LimitedSlotAdmits(t *testing.T) {
	f := newFixture(t, activeAt("09:00"))

	result, err := f.uc.Execute(context.Background(), request("08:30", "tire-repair"))
	require.NoError(t, err)
	assert.True(t, result.Admitted)
}

func TestExecute_OffGridStartAdmits(t *testing.T) {
	f := newFixture(t)

	result, err := f.uc.Execute(context.Background(), request("09:10", "tire-repair"))
	require.NoError(t, err)
	require.True(t, result.Admitted)
	assert.Equal(t, types.MustParseTimeOfDay("09:10"), result.Reservation.StartTime)
}

func TestExecute_AliasStoredAsCanonicalKey(t *testing.T) {
	f := newFixture(t)

	result, err := f.uc.Execute(context.Background(), request("08:00", "Tune-Up"))
	require.NoError(t, err)
	require.True(t, result.Admitted)
	assert.Equal(t, "tuneup", result.Reservation.ServiceKey)
	assert.Equal(t, 300, result.DurationMinutes)
}

func TestExecute_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		existing []*domain.Reservation
		req      *Request
		reason   domain.Reason
		check    func(t *testing.T, r *Rejection)
	}{
		{
			name:   "service runs past closing",
			req:    request("18:45", "tuneup"),
			reason: domain.ReasonPastClosing,
			check: func(t *testing.T, r *Rejection) {
				assert.Equal(t, 285, r.OvertimeMinutes)
				assert.Equal(t, 4.8, r.OvertimeHours)
				assert.Contains(t, r.Message, "4.8")
			},
		},
		{
			name:     "slot fully booked",
			existing: []*domain.Reservation{activeAt("09:00"), activeAt("09:30")},
			req:      request("09:15", "tire-repair"),
			reason:   domain.ReasonFullyBooked,
			check: func(t *testing.T, r *Rejection) {
				assert.Equal(t, 2, r.Conflicts)
				assert.Equal(t, 2, r.Capacity)
			},
		},
		{
			name: "closed day",
			req: &Request{
				Date:        sunday,
				StartTime:   types.MustParseTimeOfDay("10:00"),
				ServiceKey:  "tire-repair",
				CustomerRef: "crm-42",
			},
			reason: domain.ReasonShopClosed,
		},
		{
			name:   "before opening",
			req:    request("06:30", "tire-repair"),
			reason: domain.ReasonOutsideHours,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.existing...)

			result, err := f.uc.Execute(context.Background(), tt.req)
			require.NoError(t, err)

			assert.False(t, result.Admitted)
			assert.Nil(t, result.Reservation)
			require.NotNil(t, result.Rejection)
			assert.Equal(t, tt.reason, result.Rejection.Reason)
			assert.NotEmpty(t, result.Rejection.Message)
			if tt.check != nil {
				tt.check(t, result.Rejection)
			}

			assert.Len(t, f.repo.items, len(tt.existing))
			assert.Empty(t, f.notifier.events)
			assert.Equal(t, []string{string(tt.reason)}, f.metrics.outcomes)
		})
	}
}

func TestExecute_CancelledReservationDoesNotBlock(t *testing.T) {
	cancelled := activeAt("09:00")
	cancelled.Status = domain.StatusCancelled
	f := newFixture(t, activeAt("09:00"), cancelled)

	result, err := f.uc.Execute(context.Background(), request("09:00", "tire-repair"))
	require.NoError(t, err)
	assert.True(t, result.Admitted)
}

func TestExecute_TemporarilyUnavailable(t *testing.T) {
	t.Run("application lock timeout", func(t *testing.T) {
		f := newFixture(t)
		f.locker.err = lock.ErrLockTimeout

		result, err := f.uc.Execute(context.Background(), request("09:00", "tire-repair"))
		require.NoError(t, err)
		require.NotNil(t, result.Rejection)
		assert.Equal(t, domain.ReasonTemporarilyUnavailable, result.Rejection.Reason)
		assert.Equal(t, 0, f.repo.lockCalls)
		assert.Equal(t, []string{string(domain.ReasonTemporarilyUnavailable)}, f.metrics.outcomes)
	})

	t.Run("database lock timeout", func(t *testing.T) {
		f := newFixture(t)
		f.repo.lockErr = fmt.Errorf("%w: %s", reservationRepo.ErrLockTimeout, tuesday)

		result, err := f.uc.Execute(context.Background(), request("09:00", "tire-repair"))
		require.NoError(t, err)
		require.NotNil(t, result.Rejection)
		assert.Equal(t, domain.ReasonTemporarilyUnavailable, result.Rejection.Reason)
		assert.Empty(t, f.repo.items)
		assert.Equal(t, 1, f.locker.released)
	})

	t.Run("serialization retries exhausted", func(t *testing.T) {
		f := newFixture(t)
		f.tx.err = fmt.Errorf("%w: %w", txmanager.ErrRetriesExhausted, errors.New("could not serialize access"))

		result, err := f.uc.Execute(context.Background(), request("09:00", "tire-repair"))
		require.NoError(t, err)
		assert.Equal(t, domain.ReasonTemporarilyUnavailable, result.Rejection.Reason)
		assert.Equal(t, []string{string(domain.ReasonTemporarilyUnavailable)}, f.metrics.outcomes)
		assert.Equal(t, 1, f.locker.released)
	})
}

func TestExecute_Errors(t *testing.T) {
	longRef := make([]byte, domain.MaxCustomerRefLength+1)
	for i := range longRef {
		longRef[i] = 'x'
	}

	tests := []struct {
		name     string
		req      *Request
		setup    func(f *fixture)
		now      time.Time
		expected error
	}{
		{name: "nil request", req: nil, expected: ErrInvalidInput},
		{
			name:     "missing date",
			req:      &Request{StartTime: 540, ServiceKey: "tire-repair", CustomerRef: "crm-42"},
			expected: ErrInvalidInput,
		},
		{
			name:     "start time out of range",
			req:      &Request{Date: tuesday, StartTime: 1440, ServiceKey: "tire-repair", CustomerRef: "crm-42"},
			expected: ErrInvalidInput,
		},
		{name: "empty service key", req: request("09:00", ""), expected: ErrInvalidInput},
		{name: "malformed service key", req: request("09:00", "tire repair"), expected: ErrInvalidInput},
		{
			name:     "missing customer",
			req:      &Request{Date: tuesday, StartTime: 540, ServiceKey: "tire-repair"},
			expected: ErrInvalidInput,
		},
		{
			name:     "customer ref too long",
			req:      &Request{Date: tuesday, StartTime: 540, ServiceKey: "tire-repair", CustomerRef: string(longRef)},
			expected: ErrInvalidInput,
		},
		{
			name:     "date in the past",
			req:      request("09:00", "tire-repair"),
			now:      time.Date(2025, time.June, 11, 8, 0, 0, 0, time.UTC),
			expected: ErrInvalidDate,
		},
		{
			name:     "start already passed today",
			req:      request("09:00", "tire-repair"),
			now:      time.Date(2025, time.June, 10, 9, 30, 0, 0, time.UTC),
			expected: ErrTooLateToBook,
		},
		{
			name:     "storage failure",
			req:      request("09:00", "tire-repair"),
			setup:    func(f *fixture) { f.repo.listErr = errors.New("connection reset") },
			expected: ErrStorageUnavailable,
		},
		{
			name:     "lock backend failure",
			req:      request("09:00", "tire-repair"),
			setup:    func(f *fixture) { f.locker.err = errors.New("redis: connection refused") },
			expected: ErrStorageUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if !tt.now.IsZero() {
				f.uc.WithTimeProvider(&fixedClock{now: tt.now})
			}
			if tt.setup != nil {
				tt.setup(f)
			}

			result, err := f.uc.Execute(context.Background(), tt.req)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.expected)
			assert.Empty(t, f.notifier.events)
		})
	}
}

func TestExecute_TodayLaterStartAdmits(t *testing.T) {
	f := newFixture(t)
	f.uc.WithTimeProvider(&fixedClock{now: time.Date(2025, time.June, 10, 9, 30, 0, 0, time.UTC)})

	result, err := f.uc.Execute(context.Background(), request("10:00", "tire-repair"))
	require.NoError(t, err)
	assert.True(t, result.Admitted)
}
