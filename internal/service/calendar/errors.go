package calendar

import "errors"

var (
	// ErrOverrideNotFound возвращается, когда переопределения на дату нет
	ErrOverrideNotFound = errors.New("calendar: override not found")

	// ErrInvalidOverride возвращается, когда переопределение даёт некорректное расписание
	ErrInvalidOverride = errors.New("calendar: invalid override")

	// ErrInvalidDefaults возвращается при некорректных настройках календаря
	ErrInvalidDefaults = errors.New("calendar: invalid calendar defaults")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("calendar: invalid input data")

	// ErrInternal возвращается при ошибках хранилища
	ErrInternal = errors.New("calendar: internal error")
)
