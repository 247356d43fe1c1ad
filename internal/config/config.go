package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/sqlbuilder"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

var (
	// ErrLoadConfig не удалось прочитать или разобрать файл конфигурации
	ErrLoadConfig = errors.New("config: failed to load configuration")

	// ErrInvalidConfig конфигурация не прошла проверку
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Lock backends
const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

// Config конфигурация сервиса (config.toml)
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Logs     LogsConfig     `toml:"logs"`
	Database DatabaseConfig `toml:"database"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Booking  BookingConfig  `toml:"booking"`
	Redis    RedisConfig    `toml:"redis"`
	Kafka    KafkaConfig    `toml:"kafka"`
	CRM      CRMConfig      `toml:"crm"`
	Calendar CalendarConfig `toml:"calendar"`
	Catalog  CatalogConfig  `toml:"catalog"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// DatabaseConfig настройки хранилища
type DatabaseConfig struct {
	Driver          string `toml:"driver"` // postgres | sqlite
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	Path            string `toml:"path"` // файл базы для sqlite
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
	AutoMigrate     bool   `toml:"auto_migrate"`
}

// MetricsConfig настройки Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
	Path        string `toml:"path"`
}

// BookingConfig настройки приёма заявок
type BookingConfig struct {
	LockTimeoutMs        int    `toml:"lock_timeout_ms"`
	LockBackend          string `toml:"lock_backend"` // local | redis
	SerializationRetries int    `toml:"serialization_retries"`
	OverrideCacheTTL     int    `toml:"override_cache_ttl"` // секунды, 0 - без кеша
}

// RedisConfig настройки Redis для межинстансной блокировки дат
type RedisConfig struct {
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	KeyPrefix string `toml:"key_prefix"`
	LockTTL   int    `toml:"lock_ttl"` // секунды
}

// KafkaConfig настройки публикации событий
type KafkaConfig struct {
	Enabled        bool   `toml:"enabled"`
	Brokers        string `toml:"brokers"` // через запятую
	Topic          string `toml:"topic"`
	WriteTimeoutMs int    `toml:"write_timeout_ms"`
}

// CRMConfig настройки webhook во внешнюю CRM
type CRMConfig struct {
	WebhookURL string `toml:"webhook_url"` // пусто - webhook выключен
	Timeout    int    `toml:"timeout"`     // секунды
}

// CalendarConfig глобальные часы работы и правила дней недели
type CalendarConfig struct {
	OpenTime        types.TimeOfDay              `toml:"open_time"`
	CloseTime       types.TimeOfDay              `toml:"close_time"`
	Capacity        int                          `toml:"capacity"`
	SlotStepMinutes int                          `toml:"slot_step_minutes"`
	ClosedWeekdays  []string                     `toml:"closed_weekdays"`
	Weekdays        map[string]WeekdayRuleConfig `toml:"weekdays"`
}

// WeekdayRuleConfig правило дня недели; незаданные поля берутся из [calendar]
type WeekdayRuleConfig struct {
	Closed    *bool            `toml:"closed"`
	OpenTime  *types.TimeOfDay `toml:"open_time"`
	CloseTime *types.TimeOfDay `toml:"close_time"`
	Capacity  *int             `toml:"capacity"`
}

// CatalogConfig каталог услуг
type CatalogConfig struct {
	DefaultDurationMinutes int             `toml:"default_duration_minutes"`
	Services               []ServiceConfig `toml:"services"`
}

// ServiceConfig услуга каталога
type ServiceConfig struct {
	Key             string   `toml:"key"`
	Name            string   `toml:"name"`
	DurationMinutes int      `toml:"duration_minutes"`
	Aliases         []string `toml:"aliases"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			Driver:          string(sqlbuilder.Postgres),
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Metrics: MetricsConfig{
			ServiceName: "appointments",
			Path:        "/metrics",
		},
		Booking: BookingConfig{
			LockTimeoutMs:        2000,
			LockBackend:          LockBackendLocal,
			SerializationRetries: 3,
			OverrideCacheTTL:     30,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "appointments:lock",
			LockTTL:   10,
		},
		Kafka: KafkaConfig{
			Topic:          "appointments.reservations",
			WriteTimeoutMs: 5000,
		},
		CRM: CRMConfig{
			Timeout: 5,
		},
		Calendar: CalendarConfig{
			OpenTime:        domain.DefaultOpenTime,
			CloseTime:       domain.DefaultCloseTime,
			Capacity:        domain.DefaultCapacity,
			SlotStepMinutes: domain.DefaultSlotStepMinutes,
			ClosedWeekdays:  []string{"sunday"},
		},
		Catalog: CatalogConfig{
			DefaultDurationMinutes: domain.DefaultServiceDurationMinutes,
		},
	}
}

// Load читает конфигурацию из файла поверх значений по умолчанию и проверяет её
func Load(path string) (*Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("%w: unknown keys: %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Dialect SQL-диалект хранилища
func (c DatabaseConfig) Dialect() sqlbuilder.Dialect {
	d, _ := sqlbuilder.ParseDialect(c.Driver)
	return d
}

// DSN строка подключения для sql.Open
func (c DatabaseConfig) DSN() string {
	if c.Dialect() == sqlbuilder.SQLite {
		return sqlbuilder.SQLiteDSN(c.Path)
	}

	dsn := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	if c.User != "" {
		dsn.User = url.UserPassword(c.User, c.Password)
	}
	return dsn.String()
}

// LockTimeout таймаут ожидания блокировки даты
func (c BookingConfig) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMs) * time.Millisecond
}

// CalendarDefaults переводит секцию [calendar] в настройки домена
func (c *Config) CalendarDefaults() (domain.CalendarDefaults, error) {
	defaults := domain.CalendarDefaults{
		OpenTime:        c.Calendar.OpenTime,
		CloseTime:       c.Calendar.CloseTime,
		Capacity:        c.Calendar.Capacity,
		SlotStepMinutes: c.Calendar.SlotStepMinutes,
	}

	for _, name := range c.Calendar.ClosedWeekdays {
		weekday, err := parseWeekday(name)
		if err != nil {
			return defaults, err
		}
		defaults.ClosedWeekdays = append(defaults.ClosedWeekdays, weekday)
	}

	if len(c.Calendar.Weekdays) > 0 {
		defaults.Weekdays = make(map[time.Weekday]domain.WeekdayRule, len(c.Calendar.Weekdays))
		for name, rule := range c.Calendar.Weekdays {
			weekday, err := parseWeekday(name)
			if err != nil {
				return defaults, err
			}
			defaults.Weekdays[weekday] = domain.WeekdayRule{
				IsClosed:  rule.Closed,
				OpenTime:  rule.OpenTime,
				CloseTime: rule.CloseTime,
				Capacity:  rule.Capacity,
			}
		}
	}

	return defaults, nil
}

// ServiceDefinitions переводит [[catalog.services]] в определения услуг
func (c *Config) ServiceDefinitions() []domain.ServiceDefinition {
	defs := make([]domain.ServiceDefinition, 0, len(c.Catalog.Services))
	for _, s := range c.Catalog.Services {
		defs = append(defs, domain.ServiceDefinition{
			Key:             s.Key,
			Name:            s.Name,
			DurationMinutes: s.DurationMinutes,
			Aliases:         s.Aliases,
		})
	}
	return defs
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(name string) (time.Weekday, error) {
	weekday, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown weekday %q, expected one of %s",
			ErrInvalidConfig, name, strings.Join(WeekdayNames(), ", "))
	}
	return weekday, nil
}

// WeekdayNames допустимые имена дней недели (для сообщений об ошибках)
func WeekdayNames() []string {
	names := make([]string, 0, len(weekdays))
	for name := range weekdays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
