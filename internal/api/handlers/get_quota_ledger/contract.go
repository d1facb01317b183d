package get_quota_ledger

import (
	"context"

	"github.com/m04kA/DrivingSchool-BookingService/internal/service/quota/models"
)

type QuotaService interface {
	GetLedger(ctx context.Context, userID int64) (*models.LedgerResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
