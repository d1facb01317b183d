package credit_quota

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	"github.com/m04kA/DrivingSchool-BookingService/internal/service/quota/models"
)

// CreditQuotaRequest HTTP request model
// hours принимается как числом, так и строкой: 10, "1.5"
type CreditQuotaRequest struct {
	Hours           decimal.Decimal `json:"hours"`
	TransactionType string          `json:"transactionType"` // purchase | free_credit
	Comment         *string         `json:"comment,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CreditQuotaRequest) ToServiceRequest(userID int64) *models.CreditRequest {
	return &models.CreditRequest{
		UserID:          userID,
		Hours:           r.Hours,
		TransactionType: domain.TransactionType(r.TransactionType),
		Comment:         r.Comment,
	}
}

// CreditQuotaResponse баланс после начисления
type CreditQuotaResponse struct {
	UserID         int64  `json:"userId"`
	AvailableHours string `json:"availableHours"`
}
