package crmwebhook

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("crmwebhook client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе CRM
	ErrInvalidResponse = errors.New("crmwebhook client: invalid response")

	// ErrRejected возвращается, когда CRM отклонила событие (4xx)
	ErrRejected = errors.New("crmwebhook client: event rejected")
)
