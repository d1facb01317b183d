package get_quota

import (
	"github.com/m04kA/DrivingSchool-BookingService/internal/service/quota/models"
)

// QuotaResponse HTTP response model
type QuotaResponse struct {
	UserID         int64  `json:"userId"`
	AvailableHours string `json:"availableHours"` // "12.50"
}

// FromServiceResponse конвертирует ответ сервиса в HTTP модель
func FromServiceResponse(q *models.QuotaResponse) *QuotaResponse {
	return &QuotaResponse{
		UserID:         q.UserID,
		AvailableHours: q.AvailableHours.StringFixed(2),
	}
}
