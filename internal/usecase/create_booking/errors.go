package create_booking

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInvalidDate возвращается, когда дата записи уже прошла
	ErrInvalidDate = errors.New("create_booking: booking date is in the past")

	// ErrTooLateToBook возвращается, когда время начала сегодня уже прошло
	ErrTooLateToBook = errors.New("create_booking: start time has already passed")

	// ErrStorageUnavailable возвращается, когда хранилище недоступно
	ErrStorageUnavailable = errors.New("create_booking: storage unavailable")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
