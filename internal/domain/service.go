package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidServiceKey ключ услуги пустой или имеет недопустимый формат
	ErrInvalidServiceKey = errors.New("domain: invalid service key")
	// ErrInvalidServiceDuration длительность услуги вне допустимого диапазона
	ErrInvalidServiceDuration = errors.New("domain: invalid service duration")
)

var serviceKeyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,63}$`)

// ServiceDefinition услуга из каталога.
// Aliases - устаревшие ключи, которые ещё присылают старые клиенты.
type ServiceDefinition struct {
	Key             string   `json:"key"`
	Name            string   `json:"name"`
	DurationMinutes int      `json:"durationMinutes"`
	Aliases         []string `json:"aliases,omitempty"`
}

// NormalizeServiceKey приводит ключ к каноническому виду (trim + lower case)
func NormalizeServiceKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// ValidServiceKey проверяет формат ключа услуги (после нормализации)
func ValidServiceKey(key string) bool {
	return serviceKeyPattern.MatchString(NormalizeServiceKey(key))
}

// Validate проверяет определение услуги
func (s ServiceDefinition) Validate() error {
	if !ValidServiceKey(s.Key) {
		return fmt.Errorf("%w: %q", ErrInvalidServiceKey, s.Key)
	}
	if s.DurationMinutes < MinServiceDurationMinutes || s.DurationMinutes > MaxServiceDurationMinutes {
		return fmt.Errorf("%w: %s has %d minutes", ErrInvalidServiceDuration, s.Key, s.DurationMinutes)
	}
	for _, alias := range s.Aliases {
		if !ValidServiceKey(alias) {
			return fmt.Errorf("%w: alias %q of %s", ErrInvalidServiceKey, alias, s.Key)
		}
	}
	return nil
}
