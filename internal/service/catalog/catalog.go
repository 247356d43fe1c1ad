package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Catalog каталог услуг с длительностями.
// Читается на каждый запрос, заменяется целиком при перезагрузке конфигурации.
type Catalog struct {
	mu              sync.RWMutex
	byKey           map[string]domain.ServiceDefinition
	defaultDuration int
}

// New создаёт каталог и проверяет определения услуг
func New(defs []domain.ServiceDefinition, defaultDuration int) (*Catalog, error) {
	c := &Catalog{}
	if err := c.Replace(defs, defaultDuration); err != nil {
		return nil, err
	}
	return c, nil
}

// Replace атомарно заменяет содержимое каталога.
// При ошибке проверки остаётся прежний каталог.
func (c *Catalog) Replace(defs []domain.ServiceDefinition, defaultDuration int) error {
	if defaultDuration < domain.MinServiceDurationMinutes || defaultDuration > domain.MaxServiceDurationMinutes {
		return fmt.Errorf("%w: default duration %d minutes", ErrInvalidCatalog, defaultDuration)
	}

	byKey := make(map[string]domain.ServiceDefinition, len(defs))
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}

		def.Key = domain.NormalizeServiceKey(def.Key)
		aliases := make([]string, 0, len(def.Aliases))
		for _, alias := range def.Aliases {
			aliases = append(aliases, domain.NormalizeServiceKey(alias))
		}
		def.Aliases = aliases
		if def.Name == "" {
			def.Name = def.Key
		}

		for _, key := range append([]string{def.Key}, def.Aliases...) {
			if _, exists := byKey[key]; exists {
				return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
			}
			byKey[key] = def
		}
	}

	c.mu.Lock()
	c.byKey = byKey
	c.defaultDuration = defaultDuration
	c.mu.Unlock()
	return nil
}

// DurationOf возвращает длительность услуги в минутах.
// Для неизвестного ключа возвращается длительность по умолчанию.
func (c *Catalog) DurationOf(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if def, ok := c.byKey[domain.NormalizeServiceKey(key)]; ok {
		return def.DurationMinutes
	}
	return c.defaultDuration
}

// Lookup ищет услугу по ключу или алиасу.
// Возвращается каноническое определение (Key - основной ключ).
func (c *Catalog) Lookup(key string) (domain.ServiceDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	def, ok := c.byKey[domain.NormalizeServiceKey(key)]
	return def, ok
}

// List возвращает услуги каталога, отсортированные по ключу
func (c *Catalog) List() []domain.ServiceDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{}, len(c.byKey))
	out := make([]domain.ServiceDefinition, 0, len(c.byKey))
	for _, def := range c.byKey {
		if _, ok := seen[def.Key]; ok {
			continue
		}
		seen[def.Key] = struct{}{}
		out = append(out, def)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// DefaultDuration длительность для неизвестных услуг
func (c *Catalog) DefaultDuration() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultDuration
}
