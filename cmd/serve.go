package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	cancelBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_booking"
	deleteDayOverrideHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/delete_day_override"
	getAvailableSlotsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_booking"
	getDayScheduleHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_day_schedule"
	listBookingsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_bookings"
	listDayOverridesHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_day_overrides"
	listServicesHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_services"
	updateBookingStatusHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_booking_status"
	updateDayOverrideHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_day_override"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/lock/local"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/lock/redislock"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage"
	calendarRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/calendar"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/migrations"
	reservationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/crmwebhook"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/events"
	bookingsService "github.com/m04kA/SMC-AppointmentService/internal/service/bookings"
	calendarService "github.com/m04kA/SMC-AppointmentService/internal/service/calendar"
	catalogService "github.com/m04kA/SMC-AppointmentService/internal/service/catalog"
	createBookingUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

const poolStatsInterval = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP сервер",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, path)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, configPath string) error {
	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()

	log.Info("Starting SMC-AppointmentService...")
	log.Info("Configuration loaded from %s", configPath)

	// Инициализируем метрики (если включены). nil-коллектор безопасен для всех потребителей.
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	sqlDB, err := openDatabase(cfg.Database, log)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	dialect := cfg.Database.Dialect()
	if cfg.Database.AutoMigrate {
		applied, err := migrations.Up(ctx, sqlDB, dialect, log)
		if err != nil {
			return err
		}
		log.Info("Auto-migrate finished: applied=%d", applied)
	}

	db := dbmetrics.Wrap(sqlDB, metricsCollector)
	if cfg.Metrics.Enabled {
		stopPoolStats := db.StartPoolCollector(poolStatsInterval)
		defer stopPoolStats()
		log.Info("Database metrics collection started")
	}

	// Инициализируем репозитории
	reservations := reservationRepo.NewRepository(db, dialect)
	overrides := calendarRepo.NewRepository(db, dialect)

	txOpts := []txmanager.Option{
		txmanager.WithRetries(cfg.Booking.SerializationRetries, storage.IsRetryable),
	}
	if !dialect.SupportsRowLocks() {
		txOpts = append(txOpts, txmanager.WithIsolation(sql.LevelDefault))
	}
	txMgr := txmanager.NewTransactionManager(db, txOpts...)

	// Каталог и календарь из конфигурации
	catalog, err := catalogService.New(cfg.ServiceDefinitions(), cfg.Catalog.DefaultDurationMinutes)
	if err != nil {
		return err
	}
	defaults, err := cfg.CalendarDefaults()
	if err != nil {
		return err
	}
	calendar, err := calendarService.NewService(
		overrides,
		defaults,
		time.Duration(cfg.Booking.OverrideCacheTTL)*time.Second,
		log,
	)
	if err != nil {
		return err
	}
	log.Info("Catalog loaded: services=%d, default duration=%dm", len(catalog.List()), catalog.DefaultDuration())

	// Блокировка дат
	locker, closeLocker, err := newLocker(cfg, log)
	if err != nil {
		return err
	}
	defer closeLocker()

	// События жизненного цикла записи
	notifier, closeSinks := newNotifier(cfg, log)
	defer closeSinks()

	// Инициализируем сервисы и use cases
	bookingSvc := bookingsService.NewService(
		reservations,
		catalog,
		txMgr,
		notifier,
		log,
	)

	createBookingUseCase := createBookingUC.NewUseCase(
		reservations,
		calendar,
		catalog,
		txMgr,
		locker,
		notifier,
		metricsCollector,
		cfg.Booking.LockTimeout(),
		log,
	)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		reservations,
		calendar,
		catalog,
		log,
	)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.AccessLog(log))

	// Добавляем metrics middleware и endpoint (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// --- Доступность и запись ---
	api.HandleFunc("/availability",
		getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log).Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings",
		createBookingHandler.NewHandler(createBookingUseCase, log).Handle).Methods(http.MethodPost)

	// --- Администрирование записей ---
	api.HandleFunc("/bookings",
		listBookingsHandler.NewHandler(bookingSvc, log).Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId}",
		getBookingHandler.NewHandler(bookingSvc, log).Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId}/cancel",
		cancelBookingHandler.NewHandler(bookingSvc, log).Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/status",
		updateBookingStatusHandler.NewHandler(bookingSvc, log).Handle).Methods(http.MethodPatch)

	// --- Каталог и календарь ---
	api.HandleFunc("/services",
		listServicesHandler.NewHandler(catalog, log).Handle).Methods(http.MethodGet)
	// overrides регистрируется раньше {date}, иначе маршрут перехватит шаблон
	api.HandleFunc("/calendar/overrides",
		listDayOverridesHandler.NewHandler(calendar, log).Handle).Methods(http.MethodGet)
	api.HandleFunc("/calendar/{date}",
		getDayScheduleHandler.NewHandler(calendar, log).Handle).Methods(http.MethodGet)
	api.HandleFunc("/calendar/{date}",
		updateDayOverrideHandler.NewHandler(calendar, log).Handle).Methods(http.MethodPut)
	api.HandleFunc("/calendar/{date}",
		deleteDayOverrideHandler.NewHandler(calendar, log).Handle).Methods(http.MethodDelete)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Ожидаем сигнал завершения; SIGHUP перечитывает каталог и календарь
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)

wait:
	for {
		select {
		case err := <-serverErr:
			return fmt.Errorf("server failed: %w", err)
		case <-ctx.Done():
			break wait
		case sig := <-signals:
			if sig == syscall.SIGHUP {
				reloadConfig(configPath, catalog, calendar, log)
				continue
			}
			break wait
		}
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
	return nil
}

// reloadConfig перечитывает каталог и настройки календаря.
// При любой ошибке остаётся прежняя конфигурация.
func reloadConfig(path string, catalog *catalogService.Catalog, calendar *calendarService.Service, log *logger.Logger) {
	log.Info("SIGHUP received, reloading %s", path)

	cfg, err := config.Load(path)
	if err != nil {
		log.Error("Reload failed, keeping previous configuration: %v", err)
		return
	}
	defaults, err := cfg.CalendarDefaults()
	if err != nil {
		log.Error("Reload failed, keeping previous configuration: %v", err)
		return
	}

	if err := catalog.Replace(cfg.ServiceDefinitions(), cfg.Catalog.DefaultDurationMinutes); err != nil {
		log.Error("Reload failed, keeping previous catalog: %v", err)
		return
	}
	if err := calendar.ReplaceDefaults(defaults); err != nil {
		log.Error("Reload failed, keeping previous calendar: %v", err)
		return
	}

	log.Info("Configuration reloaded: services=%d", len(catalog.List()))
}

// newLocker выбирает блокировку дат: в памяти процесса или в Redis
func newLocker(cfg *config.Config, log *logger.Logger) (createBookingUC.Locker, func(), error) {
	if cfg.Booking.LockBackend != config.LockBackendRedis {
		log.Info("Date lock backend: local")
		return local.NewLocker(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to ping redis %s: %w", cfg.Redis.Addr, err)
	}

	log.Info("Date lock backend: redis (addr=%s, ttl=%ds)", cfg.Redis.Addr, cfg.Redis.LockTTL)
	locker := redislock.NewLocker(rdb, cfg.Redis.KeyPrefix, time.Duration(cfg.Redis.LockTTL)*time.Second, log)
	return locker, func() { _ = rdb.Close() }, nil
}

// newNotifier собирает получателей событий: Kafka и/или webhook CRM
func newNotifier(cfg *config.Config, log *logger.Logger) (*events.Notifier, func()) {
	var (
		sinks  events.Fanout
		closer = func() {}
	)

	if cfg.Kafka.Enabled {
		publisher := events.NewKafkaPublisher(
			cfg.Kafka.Brokers,
			cfg.Kafka.Topic,
			time.Duration(cfg.Kafka.WriteTimeoutMs)*time.Millisecond,
		)
		sinks = append(sinks, publisher)
		closer = func() {
			if err := publisher.Close(); err != nil {
				log.Error("Failed to close kafka publisher: %v", err)
			}
		}
		log.Info("Kafka events enabled (brokers=%s, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	if cfg.CRM.WebhookURL != "" {
		sinks = append(sinks, crmwebhook.NewClient(
			cfg.CRM.WebhookURL,
			time.Duration(cfg.CRM.Timeout)*time.Second,
			log,
		))
		log.Info("CRM webhook enabled (url=%s, timeout=%ds)", cfg.CRM.WebhookURL, cfg.CRM.Timeout)
	}

	var sink events.Sink = events.NoopPublisher{}
	if len(sinks) > 0 {
		sink = sinks
	}

	timeout := time.Duration(cfg.Kafka.WriteTimeoutMs) * time.Millisecond
	if crmTimeout := time.Duration(cfg.CRM.Timeout) * time.Second; crmTimeout > timeout {
		timeout = crmTimeout
	}
	return events.NewNotifier(sink, timeout, log), closer
}
