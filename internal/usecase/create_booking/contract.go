package create_booking

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	"github.com/m04kA/DrivingSchool-BookingService/internal/integrations/calendar"
	"github.com/m04kA/DrivingSchool-BookingService/internal/notification"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error)
	GetConfirmedForPeriod(ctx context.Context, from, to civil.Date) ([]*domain.Booking, error)
	SetExternalEvent(ctx context.Context, id int64, eventID string) error
}

// QuotaRepository интерфейс репозитория квот
type QuotaRepository interface {
	LockBalance(ctx context.Context, userID int64) (*domain.UserQuota, error)
	AppendEntry(ctx context.Context, entry *domain.QuotaLedgerEntry) (decimal.Decimal, error)
}

// SettingsProvider источник настроек календаря
type SettingsProvider interface {
	Get(ctx context.Context) (*domain.CalendarSettings, error)
}

// ExternalBusyProvider занятость из внешнего календаря
type ExternalBusyProvider interface {
	External(ctx context.Context, date civil.Date, loc *time.Location) ([]domain.BusyInterval, error)
}

// CalendarClient создание событий во внешнем календаре
type CalendarClient interface {
	CreateEvent(ctx context.Context, req *calendar.EventRequest) (string, error)
}

// Locker пользовательская блокировка на время оформления
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Unlock(ctx context.Context, key, token string) error
}

// Notifier отправка уведомлений (ошибки не возвращаются)
type Notifier interface {
	Notify(ctx context.Context, kind notification.Kind, payload notification.Payload)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
