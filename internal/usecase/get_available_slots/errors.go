package get_available_slots

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_available_slots: invalid input data")

	// ErrStorageUnavailable возвращается, когда записи или расписание недоступны
	ErrStorageUnavailable = errors.New("get_available_slots: availability temporarily unknown")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_available_slots: internal error")
)
