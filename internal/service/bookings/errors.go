package bookings

import "errors"

var (
	// ErrReservationNotFound возвращается, когда запись не найдена
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrCannotCancel возвращается, когда запись уже завершена и не может быть отменена
	ErrCannotCancel = errors.New("reservation cannot be cancelled")

	// ErrCannotChangeStatus возвращается, когда статус записи больше нельзя менять
	ErrCannotChangeStatus = errors.New("reservation status cannot be changed")

	// ErrInvalidStatus возвращается при попытке установить недопустимый статус
	ErrInvalidStatus = errors.New("invalid reservation status")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInvalidTimeRange возвращается при некорректном периоде
	ErrInvalidTimeRange = errors.New("invalid time range")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
