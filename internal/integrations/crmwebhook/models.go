package crmwebhook

// ErrorResponse модель ошибки от CRM
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
