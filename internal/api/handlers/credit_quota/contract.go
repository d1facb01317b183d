package credit_quota

import (
	"context"

	"github.com/m04kA/DrivingSchool-BookingService/internal/service/quota/models"
)

type QuotaService interface {
	Credit(ctx context.Context, req *models.CreditRequest) (*models.QuotaResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
