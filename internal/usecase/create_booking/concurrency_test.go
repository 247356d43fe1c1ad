package create_booking

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/lock/local"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage"
	calendarRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/calendar"
	reservationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/storagetest"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/events"
	"github.com/m04kA/SMC-AppointmentService/internal/service/availability"
	"github.com/m04kA/SMC-AppointmentService/internal/service/calendar"
	"github.com/m04kA/SMC-AppointmentService/pkg/sqlbuilder"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// noLocker пропускает блокировку в приложении, остаётся только транзакция
type noLocker struct{}

func (noLocker) Lock(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

func newSQLiteUseCase(t *testing.T, capacity int, locker Locker) (*UseCase, *reservationRepo.Repository) {
	t.Helper()
	return newSQLiteUseCaseWith(t, capacity, locker, nil, 5*time.Second)
}

func newSQLiteUseCaseWith(
	t *testing.T,
	capacity int,
	locker Locker,
	notifier Notifier,
	lockTimeout time.Duration,
) (*UseCase, *reservationRepo.Repository) {
	t.Helper()

	db := storagetest.NewSQLite(t)
	repo := reservationRepo.NewRepository(db, sqlbuilder.SQLite)

	defaults := domain.DefaultCalendar()
	defaults.Capacity = capacity
	cal, err := calendar.NewService(calendarRepo.NewRepository(db, sqlbuilder.SQLite), defaults, time.Minute, nopLogger{})
	require.NoError(t, err)

	tm := txmanager.NewTransactionManager(db,
		txmanager.WithIsolation(sql.LevelDefault),
		txmanager.WithRetries(3, storage.IsRetryable),
	)

	uc := NewUseCase(repo, cal, newTestCatalog(t), tm, locker, notifier, nil, lockTimeout, nopLogger{}).
		WithTimeProvider(&fixedClock{now: testNow})
	return uc, repo
}

func bookConcurrently(t *testing.T, uc *UseCase, starts []string) (admitted, rejected int64) {
	t.Helper()

	var g errgroup.Group
	for i, start := range starts {
		req := request(start, "tire-repair")
		req.CustomerRef = fmt.Sprintf("crm-%d", i)
		g.Go(func() error {
			result, err := uc.Execute(context.Background(), req)
			if err != nil {
				return err
			}
			if result.Admitted {
				atomic.AddInt64(&admitted, 1)
				return nil
			}
			if result.Rejection.Reason != domain.ReasonFullyBooked {
				return fmt.Errorf("unexpected rejection %s", result.Rejection.Reason)
			}
			atomic.AddInt64(&rejected, 1)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	return admitted, rejected
}

// assertCapacityHolds проверяет, что ни в одну минуту дня активных записей не больше capacity
func assertCapacityHolds(t *testing.T, repo *reservationRepo.Repository, capacity int) {
	t.Helper()

	stored, err := repo.ListActiveByDate(context.Background(), tuesday)
	require.NoError(t, err)

	durationOf := func(string) int { return 60 }
	for m := 0; m < types.MinutesPerDay; m++ {
		point, err := domain.NewInterval(types.TimeOfDay(m), 1)
		if err != nil {
			continue
		}
		assert.LessOrEqual(t, availability.CountConflicts(tuesday, point, stored, durationOf), capacity,
			"minute %s", types.TimeOfDay(m))
	}
}

func TestExecute_ConcurrentSameSlotCapacityOne(t *testing.T) {
	uc, repo := newSQLiteUseCase(t, 1, local.NewLocker())

	starts := make([]string, 8)
	for i := range starts {
		starts[i] = "09:00"
	}

	admitted, rejected := bookConcurrently(t, uc, starts)
	assert.Equal(t, int64(1), admitted)
	assert.Equal(t, int64(7), rejected)

	stored, err := repo.ListActiveByDate(context.Background(), tuesday)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestExecute_ConcurrentOverlappingStarts(t *testing.T) {
	tests := []struct {
		name   string
		locker Locker
	}{
		{name: "with date lock", locker: local.NewLocker()},
		{name: "transaction only", locker: noLocker{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, repo := newSQLiteUseCase(t, 2, tt.locker)

			starts := []string{"09:00", "09:30", "10:00", "09:00", "09:30", "10:00", "09:15", "09:45", "09:00", "10:15"}
			admitted, rejected := bookConcurrently(t, uc, starts)

			assert.Equal(t, int64(len(starts)), admitted+rejected)
			assert.GreaterOrEqual(t, admitted, int64(2))
			assertCapacityHolds(t, repo, 2)
		})
	}
}

func TestExecute_ConcurrentPairCapacityOne(t *testing.T) {
	uc, repo := newSQLiteUseCase(t, 1, local.NewLocker())

	results := make([]*Result, 2)
	var g errgroup.Group
	for i := range results {
		req := request("09:00", "tire-repair")
		req.CustomerRef = fmt.Sprintf("crm-%d", i)
		g.Go(func() error {
			result, err := uc.Execute(context.Background(), req)
			results[i] = result
			return err
		})
	}
	require.NoError(t, g.Wait())

	var admitted, fullyBooked int
	for _, r := range results {
		require.NotNil(t, r)
		switch {
		case r.Admitted:
			admitted++
		case r.Rejection != nil && r.Rejection.Reason == domain.ReasonFullyBooked:
			fullyBooked++
			assert.Equal(t, 1, r.Rejection.Conflicts)
			assert.Equal(t, 1, r.Rejection.Capacity)
		}
	}
	assert.Equal(t, 1, admitted)
	assert.Equal(t, 1, fullyBooked)

	stored, err := repo.ListActiveByDate(context.Background(), tuesday)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

// blockingNotifier задерживает первую публикацию, пока тест не отпустит её
type blockingNotifier struct {
	once    sync.Once
	entered chan struct{}
	unblock chan struct{}
}

func (n *blockingNotifier) Notify(context.Context, events.Event) {
	first := false
	n.once.Do(func() { first = true })
	if !first {
		return
	}
	close(n.entered)
	<-n.unblock
}

func TestExecute_SlowNotifierDoesNotHoldDateLock(t *testing.T) {
	notifier := &blockingNotifier{entered: make(chan struct{}), unblock: make(chan struct{})}
	uc, repo := newSQLiteUseCaseWith(t, 1, local.NewLocker(), notifier, 200*time.Millisecond)

	first := make(chan error, 1)
	go func() {
		_, err := uc.Execute(context.Background(), request("09:00", "tire-repair"))
		first <- err
	}()

	select {
	case <-notifier.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first booking did not reach publication")
	}

	result, err := uc.Execute(context.Background(), request("14:00", "tire-repair"))
	close(notifier.unblock)

	require.NoError(t, err)
	require.True(t, result.Admitted, "rejection: %+v", result.Rejection)
	require.NoError(t, <-first)

	stored, err := repo.ListActiveByDate(context.Background(), tuesday)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}
