package cancel_booking

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	"github.com/m04kA/DrivingSchool-BookingService/internal/notification"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Cancel(ctx context.Context, id int64, reason string, notes *string, syncPending bool) (time.Time, error)
	MarkCalendarSynced(ctx context.Context, id int64) error
}

// QuotaRepository интерфейс репозитория квот
type QuotaRepository interface {
	LockBalance(ctx context.Context, userID int64) (*domain.UserQuota, error)
	AppendEntry(ctx context.Context, entry *domain.QuotaLedgerEntry) (decimal.Decimal, error)
}

// CalendarClient удаление событий внешнего календаря
type CalendarClient interface {
	DeleteEvent(ctx context.Context, eventID string) error
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
