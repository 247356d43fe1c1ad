package list_services

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// ServiceListResponse HTTP response model
type ServiceListResponse struct {
	Services               []domain.ServiceDefinition `json:"services"`
	DefaultDurationMinutes int                        `json:"defaultDurationMinutes"` // для неизвестных услуг
}
