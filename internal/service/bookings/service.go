package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/events"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
)

const (
	// maxListRangeDays ограничение на длину периода в List
	maxListRangeDays = 366
	// defaultListLimit лимит списка, если клиент не указал свой
	defaultListLimit = 500
	// maxListLimit верхняя граница лимита списка
	maxListLimit = 5000
)

// Service сервис для администрирования записей
type Service struct {
	reservationRepo ReservationRepository
	catalog         Catalog
	txManager       TransactionManager
	notifier        Notifier
	timeProvider    TimeProvider
	logger          Logger
}

// NewService создает новый экземпляр сервиса записей
func NewService(
	reservationRepo ReservationRepository,
	catalog Catalog,
	txManager TransactionManager,
	notifier Notifier,
	logger Logger,
) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		catalog:         catalog,
		txManager:       txManager,
		notifier:        notifier,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// GetByID получает запись по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.ReservationResponse, error) {
	s.logger.Info("GetByID: fetching reservation id=%d", id)

	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}

	reservation, err := s.getReservation(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("GetByID: successfully fetched reservation id=%d", id)
	return s.toResponse(reservation), nil
}

// List получает записи по дате или за период.
// Для одной даты сортировка по времени начала, для периода - по дате и времени.
func (s *Service) List(ctx context.Context, req *models.ListReservationsRequest) (*models.ReservationListResponse, error) {
	// Логируем запрос с деталями фильтрации
	logMsg := "List: fetching reservations"
	if req.Date != nil {
		logMsg += fmt.Sprintf(", date=%s", req.Date)
	}
	if req.From != nil && req.To != nil {
		logMsg += fmt.Sprintf(", period=%s to %s", req.From, req.To)
	}
	if req.Status != nil {
		logMsg += fmt.Sprintf(", status=%s", *req.Status)
	}
	if req.IncludeInactive {
		logMsg += ", includeInactive=true"
	}
	s.logger.Info("%s", logMsg)

	if err := validateListRequest(req); err != nil {
		s.logger.Warn("List: invalid request: %v", err)
		return nil, err
	}

	// Конвертируем request в domain фильтр
	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("List: invalid filter: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}
	if filter.ServiceKey != nil {
		key := domain.NormalizeServiceKey(*filter.ServiceKey)
		filter.ServiceKey = &key
	}
	if filter.Limit == 0 {
		filter.Limit = defaultListLimit
	}

	reservations, err := s.reservationRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: successfully fetched %d reservations", len(reservations))
	return models.FromDomainReservationList(reservations, s.catalog.DurationOf), nil
}

// Cancel отменяет запись. Повторная отмена уже отменённой записи не меняет её
// и возвращает текущее состояние. Завершённую запись отменить нельзя.
func (s *Service) Cancel(ctx context.Context, id int64, req *models.CancelReservationRequest) (*models.ReservationResponse, error) {
	s.logger.Info("Cancel: cancelling reservation id=%d", id)

	reason, err := validateCancelRequest(id, req)
	if err != nil {
		s.logger.Warn("Cancel: validation failed: %v", err)
		return nil, err
	}

	var (
		result  *domain.Reservation
		changed bool
	)

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		changed = false

		// Получаем запись с блокировкой строки
		reservation, err := s.getReservation(txCtx, "Cancel", id)
		if err != nil {
			return err
		}

		if reservation.IsCancelled() {
			s.logger.Info("Cancel: reservation id=%d already cancelled", id)
			result = reservation
			return nil
		}

		if !reservation.CanBeCancelled() {
			s.logger.Warn("Cancel: reservation id=%d cannot be cancelled, status=%s", id, reservation.Status)
			return ErrCannotCancel
		}

		if err := s.reservationRepo.Cancel(txCtx, id, reason, s.timeProvider.Now()); err != nil {
			return s.mapRepoError("Cancel", id, err)
		}

		result, err = s.getReservation(txCtx, "Cancel", id)
		if err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("Cancel: successfully cancelled reservation id=%d", id)
		s.notify(ctx, events.TypeReservationCancelled, result)
	}
	return s.toResponse(result), nil
}

// UpdateStatus переводит активную запись в итоговый статус (completed, no_show).
// Повторная установка того же статуса ничего не меняет.
func (s *Service) UpdateStatus(ctx context.Context, id int64, req *models.UpdateStatusRequest) (*models.ReservationResponse, error) {
	s.logger.Info("UpdateStatus: updating reservation id=%d", id)

	if id <= 0 || req == nil {
		return nil, fmt.Errorf("%w: id and status are required", ErrInvalidInput)
	}

	// Валидируем и конвертируем статус
	newStatus, err := models.ToDomainStatus(req.Status)
	if err != nil || !newStatus.IsTerminal() {
		s.logger.Warn("UpdateStatus: invalid status=%s for reservation id=%d", req.Status, id)
		return nil, fmt.Errorf("%w: %q, expected completed or no_show", ErrInvalidStatus, req.Status)
	}

	var (
		result  *domain.Reservation
		changed bool
	)

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		changed = false

		reservation, err := s.getReservation(txCtx, "UpdateStatus", id)
		if err != nil {
			return err
		}

		if reservation.Status == newStatus {
			result = reservation
			return nil
		}

		if reservation.Status != domain.StatusActive {
			s.logger.Warn("UpdateStatus: reservation id=%d has final status=%s", id, reservation.Status)
			return fmt.Errorf("%w: current status is %s", ErrCannotChangeStatus, reservation.Status)
		}

		if err := s.reservationRepo.UpdateStatus(txCtx, id, newStatus, s.timeProvider.Now()); err != nil {
			return s.mapRepoError("UpdateStatus", id, err)
		}

		result, err = s.getReservation(txCtx, "UpdateStatus", id)
		if err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("UpdateStatus: successfully updated reservation id=%d to status=%s", id, newStatus)
		s.notify(ctx, events.TypeReservationStatus, result)
	}
	return s.toResponse(result), nil
}

// Вспомогательные методы

func (s *Service) getReservation(ctx context.Context, op string, id int64) (*domain.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(op, id, err)
	}
	return reservation, nil
}

func (s *Service) mapRepoError(op string, id int64, err error) error {
	if errors.Is(err, reservationRepo.ErrReservationNotFound) {
		s.logger.Warn("%s: reservation id=%d not found", op, id)
		return ErrReservationNotFound
	}
	s.logger.Error("%s: repository error for reservation id=%d: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

func (s *Service) toResponse(r *domain.Reservation) *models.ReservationResponse {
	return models.FromDomainReservation(r, s.catalog.DurationOf(r.ServiceKey))
}

func (s *Service) notify(ctx context.Context, eventType string, r *domain.Reservation) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, events.NewEvent(eventType, r, s.catalog.DurationOf(r.ServiceKey), s.timeProvider.Now()))
}

// validateListRequest проверяет, что указана дата или корректный период
func validateListRequest(req *models.ListReservationsRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is required", ErrInvalidInput)
	}

	hasRange := req.From != nil || req.To != nil
	switch {
	case req.Date != nil && hasRange:
		return fmt.Errorf("%w: use either date or from/to", ErrInvalidTimeRange)
	case req.Date == nil && !hasRange:
		return fmt.Errorf("%w: date or from/to is required", ErrInvalidTimeRange)
	case hasRange && (req.From == nil || req.To == nil):
		return fmt.Errorf("%w: both from and to are required", ErrInvalidTimeRange)
	case hasRange && req.To.Before(*req.From):
		return fmt.Errorf("%w: to is before from", ErrInvalidTimeRange)
	case hasRange && req.To.After(req.From.AddDays(maxListRangeDays)):
		return fmt.Errorf("%w: period exceeds %d days", ErrInvalidTimeRange, maxListRangeDays)
	}

	if req.Limit > maxListLimit {
		return fmt.Errorf("%w: limit exceeds %d", ErrInvalidInput, maxListLimit)
	}
	if req.ServiceKey != nil && !domain.ValidServiceKey(*req.ServiceKey) {
		return fmt.Errorf("%w: malformed service key %q", ErrInvalidInput, *req.ServiceKey)
	}
	return nil
}

// validateCancelRequest проверяет запрос на отмену и нормализует причину
func validateCancelRequest(id int64, req *models.CancelReservationRequest) (*string, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}
	if req == nil || req.Reason == nil {
		return nil, nil
	}

	reason := strings.TrimSpace(*req.Reason)
	if reason == "" {
		return nil, nil
	}
	if len(reason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: reason exceeds %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}
	return &reason, nil
}
