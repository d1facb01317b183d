package get_quota_ledger

import (
	"time"

	"github.com/m04kA/DrivingSchool-BookingService/internal/service/quota/models"
)

// LedgerEntryResponse запись журнала квоты
type LedgerEntryResponse struct {
	ID              int64   `json:"id"`
	HoursChange     string  `json:"hoursChange"` // "-1.50", "10.00"
	TransactionType string  `json:"transactionType"`
	BookingID       *int64  `json:"bookingId,omitempty"`
	Comment         *string `json:"comment,omitempty"`
	CreatedAt       string  `json:"createdAt"`
}

// FromServiceResponse конвертирует журнал в HTTP модель
func FromServiceResponse(l *models.LedgerResponse) []LedgerEntryResponse {
	result := make([]LedgerEntryResponse, 0, len(l.Entries))
	for _, e := range l.Entries {
		result = append(result, LedgerEntryResponse{
			ID:              e.ID,
			HoursChange:     e.HoursChange.StringFixed(2),
			TransactionType: e.TransactionType,
			BookingID:       e.BookingID,
			Comment:         e.Comment,
			CreatedAt:       e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return result
}
