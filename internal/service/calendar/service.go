package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	overrideRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/calendar"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// maxListRangeDays ограничение на длину периода в ListOverrides
const maxListRangeDays = 366

type cacheEntry struct {
	override  *domain.DayOverride // nil - переопределения на дату нет
	expiresAt time.Time
}

// Service бизнес-календарь: расписание дня с учётом переопределений на дату.
//
// Переопределения кешируются на cacheTTL. Любая запись через Service и
// ReplaceDefaults сбрасывают кеш синхронно, до возврата из метода.
// Внутри транзакции кеш не используется: решение о записи принимается
// только по данным из БД.
type Service struct {
	repo         OverrideRepository
	timeProvider TimeProvider
	logger       Logger
	cacheTTL     time.Duration

	mu         sync.RWMutex
	defaults   domain.CalendarDefaults
	cache      map[types.Date]cacheEntry
	generation uint64
}

// NewService создает новый экземпляр календаря
func NewService(
	repo OverrideRepository,
	defaults domain.CalendarDefaults,
	cacheTTL time.Duration,
	logger Logger,
) (*Service, error) {
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefaults, err)
	}
	return &Service{
		repo:         repo,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		cacheTTL:     cacheTTL,
		defaults:     defaults,
		cache:        make(map[types.Date]cacheEntry),
	}, nil
}

// WithTimeProvider подменяет источник времени (для тестов)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// Defaults возвращает текущие настройки календаря
func (s *Service) Defaults() domain.CalendarDefaults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults
}

// ReplaceDefaults заменяет настройки календаря (перезагрузка конфигурации).
// Некорректные настройки отклоняются, прежние остаются в силе.
func (s *Service) ReplaceDefaults(defaults domain.CalendarDefaults) error {
	if err := defaults.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefaults, err)
	}

	s.mu.Lock()
	s.defaults = defaults
	s.invalidateLocked()
	s.mu.Unlock()

	s.logger.Info("Calendar: defaults replaced (hours %s-%s, capacity=%d, step=%dm)",
		defaults.OpenTime, defaults.CloseTime, defaults.Capacity, defaults.SlotStepMinutes)
	return nil
}

// InvalidateCache сбрасывает кеш переопределений
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	s.invalidateLocked()
	s.mu.Unlock()
}

func (s *Service) invalidateLocked() {
	s.cache = make(map[types.Date]cacheEntry)
	s.generation++
}

// ScheduleFor возвращает расписание даты.
// Порядок: переопределение на дату, затем правило дня недели, затем глобальные настройки.
func (s *Service) ScheduleFor(ctx context.Context, date types.Date) (domain.DaySchedule, error) {
	if date.IsZero() {
		return domain.DaySchedule{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	override, err := s.overrideFor(ctx, date)
	if err != nil {
		return domain.DaySchedule{}, err
	}

	s.mu.RLock()
	schedule := s.defaults.Resolve(date)
	s.mu.RUnlock()

	if override != nil {
		schedule = override.Apply(schedule)
	}

	if err := schedule.Validate(); err != nil {
		// Переопределение было корректным при записи, но конфликтует с новыми настройками
		s.logger.Error("ScheduleFor: inconsistent schedule for %s: %v", date, err)
		return domain.DaySchedule{}, fmt.Errorf("%w: %v", ErrInvalidOverride, err)
	}
	return schedule, nil
}

func (s *Service) overrideFor(ctx context.Context, date types.Date) (*domain.DayOverride, error) {
	inTx := dbmetrics.IsInTransaction(ctx)
	now := s.timeProvider.Now()

	s.mu.RLock()
	entry, hit := s.cache[date]
	generation := s.generation
	s.mu.RUnlock()

	if !inTx && hit && now.Before(entry.expiresAt) {
		return entry.override, nil
	}

	override, err := s.repo.GetByDate(ctx, date)
	if err != nil {
		if !errors.Is(err, overrideRepo.ErrOverrideNotFound) {
			s.logger.Error("ScheduleFor: failed to get override for %s: %v", date, err)
			return nil, fmt.Errorf("%w: get override: %w", ErrInternal, err)
		}
		override = nil
	}

	if s.cacheTTL > 0 {
		s.mu.Lock()
		// Запись могла произойти, пока мы читали БД
		if s.generation == generation {
			s.cache[date] = cacheEntry{override: override, expiresAt: now.Add(s.cacheTTL)}
		}
		s.mu.Unlock()
	}

	return override, nil
}

// BookableStartTimes сетка стартов дня: от открытия с шагом SlotStepMinutes,
// пока старт раньше закрытия. Длительность услуги здесь не учитывается.
func (s *Service) BookableStartTimes(schedule domain.DaySchedule) []types.TimeOfDay {
	if schedule.IsClosed {
		return nil
	}

	s.mu.RLock()
	step := s.defaults.SlotStepMinutes
	s.mu.RUnlock()
	if step <= 0 {
		step = domain.DefaultSlotStepMinutes
	}

	starts := make([]types.TimeOfDay, 0, schedule.WorkingMinutes()/step+1)
	for t := schedule.OpenTime; t < schedule.CloseTime; t = t.AddMinutes(step) {
		starts = append(starts, t)
	}
	return starts
}

// SetOverride создаёт или заменяет переопределение на дату
func (s *Service) SetOverride(ctx context.Context, override *domain.DayOverride) (*domain.DayOverride, error) {
	s.logger.Info("SetOverride: date=%s", override.Date)

	if err := s.validateOverride(override); err != nil {
		s.logger.Warn("SetOverride: validation failed for %s: %v", override.Date, err)
		return nil, err
	}

	stored, err := s.repo.Upsert(ctx, override)
	if err != nil {
		s.logger.Error("SetOverride: repository error for %s: %v", override.Date, err)
		return nil, fmt.Errorf("%w: upsert override: %w", ErrInternal, err)
	}

	s.InvalidateCache()
	s.logger.Info("SetOverride: override for %s saved", override.Date)
	return stored, nil
}

// DeleteOverride удаляет переопределение на дату
func (s *Service) DeleteOverride(ctx context.Context, date types.Date) error {
	s.logger.Info("DeleteOverride: date=%s", date)

	if date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if err := s.repo.Delete(ctx, date); err != nil {
		if errors.Is(err, overrideRepo.ErrOverrideNotFound) {
			s.logger.Warn("DeleteOverride: no override for %s", date)
			return ErrOverrideNotFound
		}
		s.logger.Error("DeleteOverride: repository error for %s: %v", date, err)
		return fmt.Errorf("%w: delete override: %w", ErrInternal, err)
	}

	s.InvalidateCache()
	s.logger.Info("DeleteOverride: override for %s deleted", date)
	return nil
}

// ListOverrides возвращает переопределения в периоде [from, to]
func (s *Service) ListOverrides(ctx context.Context, from, to types.Date) ([]*domain.DayOverride, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, fmt.Errorf("%w: invalid period", ErrInvalidInput)
	}
	if to.After(from.AddDays(maxListRangeDays)) {
		return nil, fmt.Errorf("%w: period exceeds %d days", ErrInvalidInput, maxListRangeDays)
	}

	overrides, err := s.repo.ListRange(ctx, from, to)
	if err != nil {
		s.logger.Error("ListOverrides: repository error for %s..%s: %v", from, to, err)
		return nil, fmt.Errorf("%w: list overrides: %w", ErrInternal, err)
	}
	return overrides, nil
}

func (s *Service) validateOverride(o *domain.DayOverride) error {
	if o == nil || o.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if o.IsEmpty() {
		return fmt.Errorf("%w: override changes nothing", ErrInvalidOverride)
	}
	if len(o.Note) > domain.MaxOverrideNoteLength {
		return fmt.Errorf("%w: note exceeds %d characters", ErrInvalidOverride, domain.MaxOverrideNoteLength)
	}

	s.mu.RLock()
	base := s.defaults.Resolve(o.Date)
	s.mu.RUnlock()

	if err := o.Apply(base).Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOverride, err)
	}
	return nil
}
