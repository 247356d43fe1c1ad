package list_services

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type Catalog interface {
	List() []domain.ServiceDefinition
	DefaultDuration() int
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
