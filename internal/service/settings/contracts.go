package settings

import (
	"context"
	"time"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
)

// SettingsRepository интерфейс репозитория настроек календаря
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.CalendarSettings, error)
	CreateIfMissing(ctx context.Context, settings *domain.CalendarSettings) error
	Update(ctx context.Context, settings *domain.CalendarSettings) (time.Time, error)
	ReplaceVacationDays(ctx context.Context, days []domain.VacationDay) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
