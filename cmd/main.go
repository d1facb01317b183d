package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	cancelBookingHandler "github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers/create_booking"
	creditQuotaHandler "github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers/credit_quota"
	getAdminBookingsHandler "github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers/get_admin_bookings"
	getAvailableSlotsHandler "github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers/get_booking"
	getQuotaHandler "github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers/get_quota"
	getQuotaLedgerHandler "github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers/get_quota_ledger"
	getSettingsHandler "github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers/get_settings"
	getUserBookingsHandler "github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers/get_user_bookings"
	updateSettingsHandler "github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers/update_settings"
	"github.com/m04kA/DrivingSchool-BookingService/internal/api/middleware"
	"github.com/m04kA/DrivingSchool-BookingService/internal/config"
	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	"github.com/m04kA/DrivingSchool-BookingService/internal/infra/lock"
	bookingRepo "github.com/m04kA/DrivingSchool-BookingService/internal/infra/storage/booking"
	quotaRepo "github.com/m04kA/DrivingSchool-BookingService/internal/infra/storage/quota"
	settingsRepo "github.com/m04kA/DrivingSchool-BookingService/internal/infra/storage/settings"
	"github.com/m04kA/DrivingSchool-BookingService/internal/integrations/calendar"
	mailerClient "github.com/m04kA/DrivingSchool-BookingService/internal/integrations/mailer"
	userServiceClient "github.com/m04kA/DrivingSchool-BookingService/internal/integrations/userservice"
	"github.com/m04kA/DrivingSchool-BookingService/internal/notification"
	"github.com/m04kA/DrivingSchool-BookingService/internal/service/availability"
	bookingsService "github.com/m04kA/DrivingSchool-BookingService/internal/service/bookings"
	quotaService "github.com/m04kA/DrivingSchool-BookingService/internal/service/quota"
	settingsService "github.com/m04kA/DrivingSchool-BookingService/internal/service/settings"
	cancelBookingUC "github.com/m04kA/DrivingSchool-BookingService/internal/usecase/cancel_booking"
	createBookingUC "github.com/m04kA/DrivingSchool-BookingService/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/DrivingSchool-BookingService/internal/usecase/get_available_slots"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/dbmetrics"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/logger"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/metrics"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/txmanager"
)

// calendarClient общий интерфейс для настоящего клиента и заглушки
type calendarClient interface {
	ListBusyIntervals(ctx context.Context, from, to time.Time) ([]domain.BusyInterval, error)
	CreateEvent(ctx context.Context, req *calendar.EventRequest) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// bookingLocker пользовательская блокировка (Redis или в памяти процесса)
type bookingLocker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Unlock(ctx context.Context, key, token string) error
}

// bookingNotifier очередь уведомлений или заглушка
type bookingNotifier interface {
	Notify(ctx context.Context, kind notification.Kind, payload notification.Payload)
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting DrivingSchool-BookingService...")
	log.Info("Configuration loaded from config.toml")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Обёртка пишет метрики запросов; без коллектора просто проксирует вызовы
	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Инициализируем репозитории
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	quotaRepository := quotaRepo.NewRepository(wrappedDB)
	settingsRepository := settingsRepo.NewRepository(wrappedDB)

	// Блокировки: Redis, если доступен, иначе в памяти процесса
	var (
		locker      bookingLocker = lock.NewLocalLock()
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisLock, err := lock.NewRedisLock(ctx, redisClient)
		if err != nil {
			log.Warn("Redis is unavailable, falling back to in-process lock: %v", err)
		} else {
			locker = redisLock
			log.Info("Redis lock initialized (addr=%s)", cfg.Redis.Addr)
		}
	}

	// Внешний календарь
	var calendarCli calendarClient = calendar.Disabled{}
	if cfg.Calendar.Enabled {
		opts := []option.ClientOption{}
		if cfg.Calendar.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Calendar.CredentialsFile))
		}
		if cfg.Calendar.Endpoint != "" {
			opts = append(opts, option.WithEndpoint(cfg.Calendar.Endpoint))
		}
		gcalClient, err := calendar.NewClient(ctx, cfg.Calendar.CalendarID, cfg.CalendarTimeout(), log, opts...)
		if err != nil {
			log.Fatal("Failed to initialize calendar client: %v", err)
		}
		calendarCli = gcalClient
		log.Info("Calendar integration enabled (calendar_id=%s, timeout=%s)",
			cfg.Calendar.CalendarID, cfg.CalendarTimeout())
	} else {
		log.Info("Calendar integration disabled")
	}

	// Уведомления: очередь asynq и фоновый обработчик
	var (
		notifier    bookingNotifier = notification.NewNoop(log)
		queueClient *asynq.Client
		queueServer *notification.Server
	)
	if cfg.Notifications.Enabled {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}

		userClient := userServiceClient.NewClient(
			cfg.UserService.URL,
			time.Duration(cfg.UserService.Timeout)*time.Second,
			log,
		)
		mailer := mailerClient.NewClient(
			cfg.Mailer.URL,
			cfg.Mailer.From,
			time.Duration(cfg.Mailer.Timeout)*time.Second,
		)

		queueClient = asynq.NewClient(redisOpt)
		notifier = notification.NewDispatcher(queueClient, cfg.Notifications.Queue, cfg.Notifications.MaxRetry, log)

		worker := notification.NewWorker(userClient, mailer, cfg.Mailer.AdminEmail, log)
		queueServer = notification.NewServer(redisOpt, cfg.Notifications.Queue, cfg.Notifications.Concurrency, worker, log)
		if err := queueServer.Start(); err != nil {
			log.Fatal("Failed to start notification worker: %v", err)
		}
		log.Info("Notifications enabled (queue=%s, UserService=%s, Mailer=%s)",
			cfg.Notifications.Queue, cfg.UserService.URL, cfg.Mailer.URL)
	}

	// Инициализируем сервисы
	settingsSvc := settingsService.NewService(settingsRepository, txMgr, log)
	quotaSvc := quotaService.NewService(quotaRepository, txMgr, log)
	bookingSvc := bookingsService.NewService(bookingRepository, log)
	busySource := availability.NewBusySource(bookingRepository, calendarCli, log)

	// Инициализируем use cases
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		settingsSvc,
		busySource,
		log,
	)

	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		quotaRepository,
		settingsSvc,
		busySource,
		calendarCli,
		locker,
		notifier,
		txMgr,
		createBookingUC.Config{
			LockTTL:            cfg.LockTTL(),
			MaxDurationMinutes: cfg.Booking.MaxDurationMinutes,
		},
		log,
	)

	cancelBookingUseCase := cancelBookingUC.NewUseCase(
		bookingRepository,
		quotaRepository,
		calendarCli,
		notifier,
		txMgr,
		log,
	)

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(cancelBookingUseCase, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	getQuota := getQuotaHandler.NewHandler(quotaSvc, log)
	getQuotaLedger := getQuotaLedgerHandler.NewHandler(quotaSvc, log)
	getSettings := getSettingsHandler.NewHandler(settingsSvc, log)
	updateSettings := updateSettingsHandler.NewHandler(settingsSvc, log)
	getAdminBookings := getAdminBookingsHandler.NewHandler(bookingSvc, log)
	creditQuota := creditQuotaHandler.NewHandler(quotaSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(
			cfg.RateLimit.RequestsPerSecond,
			cfg.RateLimit.Burst,
			cfg.RateLimit.MaxClients,
			time.Duration(cfg.RateLimit.ClientTTL)*time.Second,
			log,
		)
		api.Use(limiter.Middleware)
		log.Info("Rate limiting enabled (rps=%.1f, burst=%d)", cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные слоты на дату
	api.HandleFunc("/availability", getAvailableSlots.Handle).Methods(http.MethodGet)

	// Настройки календаря школы
	api.HandleFunc("/settings", getSettings.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют Bearer токен)
	// ============================================================

	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, log)

	protected := api.PathPrefix("").Subrouter()
	protected.Use(auth.Middleware)

	// --- Бронирования ---
	// Создание бронирования
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Получение бронирования по ID
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Отмена бронирования
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPost)

	// История бронирований пользователя
	protected.HandleFunc("/users/me/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// --- Квота ---
	protected.HandleFunc("/quota", getQuota.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/quota/ledger", getQuotaLedger.Handle).Methods(http.MethodGet)

	// ============================================================
	// ADMIN ROUTES
	// ============================================================

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(auth.Middleware, middleware.RequireAdmin)

	admin.HandleFunc("/settings", updateSettings.Handle).Methods(http.MethodPut)
	admin.HandleFunc("/bookings", getAdminBookings.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/users/{userId}/quota", creditQuota.Handle).Methods(http.MethodPost)

	// Recovery, CORS и access log поверх роутера
	var handler http.Handler = r
	handler = gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(cfg.Server.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
		gorillaHandlers.AllowedHeaders([]string{"Authorization", "Content-Type", createBookingHandler.IdempotencyKeyHeader, middleware.RequestIDHeader}),
		gorillaHandlers.ExposedHeaders([]string{middleware.RequestIDHeader, "Retry-After"}),
	)(handler)
	handler = gorillaHandlers.CombinedLoggingHandler(zap.NewStdLog(log.Zap()).Writer(), handler)
	handler = gorillaHandlers.RecoveryHandler(
		gorillaHandlers.RecoveryLogger(zap.NewStdLog(log.Zap())),
		gorillaHandlers.PrintRecoveryStack(true),
	)(handler)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем обработчик уведомлений после HTTP сервера
	if queueServer != nil {
		queueServer.Shutdown()
	}
	if queueClient != nil {
		if err := queueClient.Close(); err != nil {
			log.Error("Failed to close queue client: %v", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close redis client: %v", err)
		}
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
