package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
)

// ErrInvalidConfig возвращается при некорректной конфигурации
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config конфигурация сервиса
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Database      DatabaseConfig      `toml:"database"`
	Logs          LogsConfig          `toml:"logs"`
	Metrics       MetricsConfig       `toml:"metrics"`
	Redis         RedisConfig         `toml:"redis"`
	Booking       BookingConfig       `toml:"booking"`
	Calendar      CalendarConfig      `toml:"calendar"`
	Mailer        MailerConfig        `toml:"mailer"`
	UserService   UserServiceConfig   `toml:"user_service"`
	Notifications NotificationsConfig `toml:"notifications"`
	Auth          AuthConfig          `toml:"auth"`
	RateLimit     RateLimitConfig     `toml:"rate_limit"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int      `toml:"http_port" env:"SERVER_HTTP_PORT"`
	ReadTimeout     int      `toml:"read_timeout"`
	WriteTimeout    int      `toml:"write_timeout"`
	IdleTimeout     int      `toml:"idle_timeout"`
	ShutdownTimeout int      `toml:"shutdown_timeout"`
	AllowedOrigins  []string `toml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS" env-separator:","`
}

// DatabaseConfig настройки PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host" env:"DB_HOST"`
	Port            int    `toml:"port" env:"DB_PORT"`
	User            string `toml:"user" env:"DB_USER"`
	Password        string `toml:"password" env:"DB_PASSWORD"`
	DBName          string `toml:"dbname" env:"DB_NAME"`
	SSLMode         string `toml:"sslmode" env:"DB_SSLMODE"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level" env:"LOG_LEVEL"`
	File  string `toml:"file" env:"LOG_FILE"`
}

// MetricsConfig настройки Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled" env:"METRICS_ENABLED"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// RedisConfig подключение к Redis (блокировки и очередь уведомлений)
type RedisConfig struct {
	Enabled  bool   `toml:"enabled" env:"REDIS_ENABLED"`
	Addr     string `toml:"addr" env:"REDIS_ADDR"`
	Password string `toml:"password" env:"REDIS_PASSWORD"`
	DB       int    `toml:"db" env:"REDIS_DB"`
}

// BookingConfig параметры бронирования
type BookingConfig struct {
	// LockTTL время жизни пользовательской блокировки, секунды
	LockTTL            int `toml:"lock_ttl"`
	MaxDurationMinutes int `toml:"max_duration_minutes"`
}

// CalendarConfig внешний календарь (Google Calendar API)
type CalendarConfig struct {
	Enabled         bool   `toml:"enabled" env:"CALENDAR_ENABLED"`
	CalendarID      string `toml:"calendar_id" env:"CALENDAR_ID"`
	CredentialsFile string `toml:"credentials_file" env:"CALENDAR_CREDENTIALS_FILE"`
	// Endpoint переопределяет адрес API (эмулятор, тесты)
	Endpoint string `toml:"endpoint" env:"CALENDAR_ENDPOINT"`
	// Timeout таймаут одного вызова, миллисекунды
	Timeout int `toml:"timeout_ms"`
}

// MailerConfig HTTP-сервис отправки писем
type MailerConfig struct {
	URL        string `toml:"url" env:"MAILER_URL"`
	Timeout    int    `toml:"timeout"`
	From       string `toml:"from"`
	AdminEmail string `toml:"admin_email" env:"MAILER_ADMIN_EMAIL"`
}

// UserServiceConfig сервис пользователей (контакты для уведомлений)
type UserServiceConfig struct {
	URL     string `toml:"url" env:"USER_SERVICE_URL"`
	Timeout int    `toml:"timeout"`
}

// NotificationsConfig очередь уведомлений (asynq)
type NotificationsConfig struct {
	Enabled     bool   `toml:"enabled" env:"NOTIFICATIONS_ENABLED"`
	Queue       string `toml:"queue"`
	Concurrency int    `toml:"concurrency"`
	MaxRetry    int    `toml:"max_retry"`
}

// AuthConfig проверка bearer-токенов
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	Issuer    string `toml:"issuer" env:"AUTH_ISSUER"`
}

// RateLimitConfig ограничение частоты запросов на клиента
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled" env:"RATE_LIMIT_ENABLED"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	MaxClients        int     `toml:"max_clients"`
	// ClientTTL сколько секунд хранить лимитер неактивного клиента
	ClientTTL int `toml:"client_ttl"`
}

// Load читает TOML-файл, применяет переменные окружения и проверяет результат
func Load(path string) (*Config, error) {
	cfg := defaults()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults значения, которые используются, если в файле ничего не указано
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "booking_service",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Booking: BookingConfig{
			LockTTL:            10,
			MaxDurationMinutes: 240,
		},
		Calendar: CalendarConfig{
			CalendarID: "primary",
			Timeout:    3000,
		},
		Mailer: MailerConfig{
			Timeout: 5,
		},
		UserService: UserServiceConfig{
			Timeout: 5,
		},
		Notifications: NotificationsConfig{
			Queue:       "notifications",
			Concurrency: 5,
			MaxRetry:    5,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
			MaxClients:        10000,
			ClientTTL:         600,
		},
	}
}

// Validate проверяет обязательные поля и диапазоны
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port must be in 1..65535", ErrInvalidConfig)
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("%w: database host, dbname and user are required", ErrInvalidConfig)
	}
	if c.Booking.LockTTL <= 0 {
		return fmt.Errorf("%w: booking.lock_ttl must be positive", ErrInvalidConfig)
	}
	if c.Booking.MaxDurationMinutes <= 0 {
		return fmt.Errorf("%w: booking.max_duration_minutes must be positive", ErrInvalidConfig)
	}
	if c.Calendar.Enabled && c.Calendar.CalendarID == "" {
		return fmt.Errorf("%w: calendar.calendar_id is required when calendar is enabled", ErrInvalidConfig)
	}
	if c.Calendar.Timeout <= 0 {
		return fmt.Errorf("%w: calendar.timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.Notifications.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("%w: notifications require redis", ErrInvalidConfig)
	}
	if c.Notifications.Enabled && c.Mailer.URL == "" {
		return fmt.Errorf("%w: mailer.url is required when notifications are enabled", ErrInvalidConfig)
	}
	if c.Notifications.Enabled && c.UserService.URL == "" {
		return fmt.Errorf("%w: user_service.url is required when notifications are enabled", ErrInvalidConfig)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: auth.jwt_secret is required", ErrInvalidConfig)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 || c.RateLimit.MaxClients <= 0) {
		return fmt.Errorf("%w: rate_limit values must be positive", ErrInvalidConfig)
	}
	return nil
}

// CalendarTimeout таймаут вызова календаря
func (c *Config) CalendarTimeout() time.Duration {
	return time.Duration(c.Calendar.Timeout) * time.Millisecond
}

// LockTTL время жизни блокировки бронирования
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Booking.LockTTL) * time.Second
}
