package quota

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
)

// QuotaRepository интерфейс репозитория квоты
type QuotaRepository interface {
	LockBalance(ctx context.Context, userID int64) (*domain.UserQuota, error)
	GetBalance(ctx context.Context, userID int64) (*domain.UserQuota, error)
	SumLedger(ctx context.Context, userID int64) (decimal.Decimal, error)
	AppendEntry(ctx context.Context, entry *domain.QuotaLedgerEntry) (decimal.Decimal, error)
	GetLedger(ctx context.Context, userID int64) ([]*domain.QuotaLedgerEntry, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
