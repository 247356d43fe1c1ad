package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/service/catalog"
	"github.com/m04kA/SMC-AppointmentService/pkg/sqlbuilder"
)

// Validate проверяет конфигурацию целиком и возвращает все найденные ошибки
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, v ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidConfig}, v...)...))
	}

	// [server]
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		add("server.http_port %d out of range", c.Server.HTTPPort)
	}
	if c.Server.ShutdownTimeout <= 0 {
		add("server.shutdown_timeout must be positive")
	}

	// [database]
	dialect, err := sqlbuilder.ParseDialect(c.Database.Driver)
	switch {
	case err != nil:
		add("database.driver: %v", err)
	case dialect == sqlbuilder.SQLite && c.Database.Path == "":
		add("database.path is required for sqlite")
	case dialect == sqlbuilder.Postgres && (c.Database.Host == "" || c.Database.DBName == ""):
		add("database.host and database.dbname are required for postgres")
	}
	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		add("database pool sizes must not be negative")
	}

	// [metrics]
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		add("metrics.path %q must start with /", c.Metrics.Path)
	}

	// [booking]
	if c.Booking.LockTimeoutMs <= 0 {
		add("booking.lock_timeout_ms must be positive")
	}
	if c.Booking.SerializationRetries < 0 {
		add("booking.serialization_retries must not be negative")
	}
	if c.Booking.OverrideCacheTTL < 0 {
		add("booking.override_cache_ttl must not be negative")
	}
	switch c.Booking.LockBackend {
	case LockBackendLocal:
	case LockBackendRedis:
		if c.Redis.Addr == "" {
			add("redis.addr is required for lock_backend = %q", LockBackendRedis)
		}
		if c.Redis.LockTTL <= 0 {
			add("redis.lock_ttl must be positive")
		}
	default:
		add("booking.lock_backend %q, expected %q or %q", c.Booking.LockBackend, LockBackendLocal, LockBackendRedis)
	}

	// [kafka]
	if c.Kafka.Enabled && (c.Kafka.Brokers == "" || c.Kafka.Topic == "") {
		add("kafka.brokers and kafka.topic are required when kafka is enabled")
	}

	// [crm]
	if c.CRM.WebhookURL != "" {
		if u, err := url.Parse(c.CRM.WebhookURL); err != nil || u.Scheme == "" || u.Host == "" {
			add("crm.webhook_url %q is not an absolute URL", c.CRM.WebhookURL)
		}
		if c.CRM.Timeout <= 0 {
			add("crm.timeout must be positive")
		}
	}

	// [calendar]
	if defaults, err := c.CalendarDefaults(); err != nil {
		errs = append(errs, err)
	} else if err := defaults.Validate(); err != nil {
		add("calendar: %v", err)
	}

	// [catalog]
	if _, err := catalog.New(c.ServiceDefinitions(), c.Catalog.DefaultDurationMinutes); err != nil {
		add("catalog: %v", err)
	}

	return errors.Join(errs...)
}
